// Package eligibility decides whether a listing should be displayed for
// a profile and explains why not when it shouldn't.
package eligibility

import (
	"strings"
	"time"

	"github.com/mbetschart/flatwatch/internal/listing"
	"github.com/mbetschart/flatwatch/internal/profile"
)

// Evaluation holds every derived eligibility field, recomputed on each
// scan. Fields fail open: a gate only rejects when the data it needs is
// present and out of range.
type Evaluation struct {
	ExcludedType           bool   `json:"excludedType"`
	SizeEligible           bool   `json:"sizeEligible"`
	IsPearl                bool   `json:"isPearl"`
	WithinHardBudget       bool   `json:"withinHardBudget"`
	AboveMinBudget         bool   `json:"aboveMinBudget"`
	PublicationEligible    bool   `json:"publicationEligible"`
	PublishedAgeDays       *int   `json:"publishedAgeDays,omitempty"`
	PublishedAgeApprox     bool   `json:"publishedAgeApprox,omitempty"`
	MaxPublishedAgeDays    int    `json:"maxPublishedAgeDays,omitempty"`
	LocationEligible       bool   `json:"locationEligible"`
	NonSpeculativeEligible bool   `json:"nonSpeculativeEligible"`
	Display                bool   `json:"display"`
	FilterReason           string `json:"filterReason,omitempty"`
}

// Evaluate runs every gate for one listing. It never fails; missing
// numeric fields lean toward eligibility unless a gate explicitly
// requires them.
func Evaluate(l *listing.Listing, cfg *profile.Config, now time.Time) Evaluation {
	var ev Evaluation

	text := l.Text()
	ev.ExcludedType = matchesAny(text, cfg.ExcludedTypeKeywords)
	ev.SizeEligible = sizeEligible(l, cfg)
	ev.WithinHardBudget = withinHardBudget(l, cfg)
	ev.AboveMinBudget = aboveMinBudget(l, cfg)
	ev.IsPearl = isPearl(l, cfg, text)
	ev.PublicationEligible, ev.PublishedAgeDays, ev.PublishedAgeApprox = publicationEligible(l, cfg, now)
	ev.MaxPublishedAgeDays = cfg.MaxPublishedAgeDays
	ev.LocationEligible = len(cfg.LocationGroups) == 0 ||
		matchesAny(normalize(l.Address+" "+l.Area), normalizeAll(cfg.LocationGroups))
	ev.NonSpeculativeEligible = len(cfg.LandlordGroups) == 0 ||
		matchesAny(normalize(l.Title), normalizeAll(cfg.LandlordGroups))

	offMarket := l.Stage == listing.StageOffMarket

	if offMarket {
		// Off-market data is often incomplete: only the exclusion,
		// location and landlord gates apply.
		ev.Display = !ev.ExcludedType && ev.LocationEligible && ev.NonSpeculativeEligible &&
			cfg.OffMarketIncluded()
	} else {
		ev.Display = !ev.ExcludedType &&
			ev.SizeEligible &&
			ev.AboveMinBudget &&
			(ev.WithinHardBudget || ev.IsPearl) &&
			ev.PublicationEligible &&
			ev.LocationEligible &&
			ev.NonSpeculativeEligible
	}

	if !ev.Display {
		ev.FilterReason = filterReason(ev, offMarket)
	}
	return ev
}

// filterReason reports the first failing gate in a fixed priority
// order. Display-only transparency, never used for control flow.
func filterReason(ev Evaluation, offMarket bool) string {
	gates := []struct {
		failed bool
		reason string
	}{
		{ev.ExcludedType, "excluded type"},
		{!ev.LocationEligible, "outside location groups"},
		{!ev.NonSpeculativeEligible, "landlord not allowed"},
		{offMarket, "off-market suppressed"},
		{!offMarket && !ev.AboveMinBudget, "below minimum budget"},
		{!offMarket && !ev.SizeEligible, "too small"},
		{!offMarket && !ev.PublicationEligible, "published too long ago"},
		{!offMarket && !ev.WithinHardBudget && !ev.IsPearl, "over budget"},
	}
	for _, g := range gates {
		if g.failed {
			return g.reason
		}
	}
	return "not displayable"
}

func sizeEligible(l *listing.Listing, cfg *profile.Config) bool {
	if l.Rooms != nil {
		if *l.Rooms >= cfg.MinRooms {
			return true
		}
		if cfg.AllowTransition {
			return true
		}
	}
	if cfg.MinSurfaceFallbackM2 > 0 {
		if l.SurfaceM2 != nil {
			return *l.SurfaceM2 >= cfg.MinSurfaceFallbackM2
		}
		return cfg.AllowMissingSurface
	}
	// No surface fallback configured: unknown rooms fail open.
	return l.Rooms == nil
}

func withinHardBudget(l *listing.Listing, cfg *profile.Config) bool {
	p := l.Total()
	if p == nil || cfg.MaxTotalHardChf <= 0 {
		return true
	}
	return *p <= cfg.MaxTotalHardChf
}

func aboveMinBudget(l *listing.Listing, cfg *profile.Config) bool {
	if cfg.MinTotalChf <= 0 {
		return true
	}
	p := l.Total()
	if p == nil {
		return true
	}
	return *p >= cfg.MinTotalChf
}

// isPearl flags listings strictly above the hard budget but at or below
// the pearl cap, with enough rooms/surface and quality keyword hits.
func isPearl(l *listing.Listing, cfg *profile.Config, text string) bool {
	p := l.Total()
	if p == nil || cfg.MaxTotalHardChf <= 0 {
		return false
	}
	if *p <= cfg.MaxTotalHardChf || *p > cfg.MaxPearlTotalChf {
		return false
	}
	if cfg.PearlMinRooms > 0 && (l.Rooms == nil || *l.Rooms < cfg.PearlMinRooms) {
		return false
	}
	if cfg.PearlMinSurfaceM2 > 0 && (l.SurfaceM2 == nil || *l.SurfaceM2 < cfg.PearlMinSurfaceM2) {
		return false
	}
	hits := 0
	for _, kw := range cfg.PearlKeywords {
		if kw != "" && strings.Contains(text, strings.ToLower(kw)) {
			hits++
		}
	}
	return hits >= cfg.PearlMinKeywordHits
}

// publicationEligible checks the age since publication against the
// configured maximum. firstSeenAt stands in for an unknown publishedAt
// and is flagged approximate; a fully unknown age fails open.
func publicationEligible(l *listing.Listing, cfg *profile.Config, now time.Time) (bool, *int, bool) {
	ref := l.PublishedAt
	approx := false
	if ref == nil && !l.FirstSeenAt.IsZero() {
		ref = &l.FirstSeenAt
		approx = true
	}
	if ref == nil {
		return true, nil, false
	}
	days := int(now.Sub(*ref).Hours() / 24)
	if days < 0 {
		days = 0
	}
	if cfg.MaxPublishedAgeDays <= 0 {
		return true, &days, approx
	}
	return days <= cfg.MaxPublishedAgeDays, &days, approx
}

func matchesAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if kw != "" && strings.Contains(text, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func normalizeAll(items []string) []string {
	out := make([]string, len(items))
	for i, s := range items {
		out[i] = normalize(s)
	}
	return out
}
