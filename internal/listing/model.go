// Package listing provides the canonical listing model shared by every
// scraping source.
package listing

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Source identifies the provider a listing was scraped from.
type Source string

const (
	SourceHomegate  Source = "homegate"
	SourceFlatfox   Source = "flatfox"
	SourceImmoScout Source = "immoscout24"
	SourceAnibis    Source = "anibis"
)

// KnownSources lists every supported provider in default priority order
// (richer data first). Used as the default for profiles that don't set
// their own source weights.
var KnownSources = []Source{SourceHomegate, SourceImmoScout, SourceFlatfox, SourceAnibis}

// ValidSource returns true if s is a known provider name.
func ValidSource(s string) bool {
	switch Source(s) {
	case SourceHomegate, SourceFlatfox, SourceImmoScout, SourceAnibis:
		return true
	}
	return false
}

// Stage describes how openly a listing is on the market.
type Stage string

const (
	StageStandard  Stage = "standard"
	StageEarly     Stage = "early"
	StageOffMarket Stage = "offmarket"
)

// NormalizeStage maps unknown or historical stage values to the standard
// market stage.
func NormalizeStage(s string) Stage {
	switch Stage(s) {
	case StageEarly, StageOffMarket:
		return Stage(s)
	}
	return StageStandard
}

// Listing is one rental unit offering, canonicalized from a specific source.
// Adapters produce this shape with identity and descriptive fields set;
// Normalize fills in the derived defaults.
type Listing struct {
	ID       string `json:"id"`
	SourceID string `json:"sourceId"`
	Source   Source `json:"source"`

	Title      string `json:"title"`
	ObjectType string `json:"objectType,omitempty"`
	Address    string `json:"address"`
	Area       string `json:"area,omitempty"`
	URL        string `json:"url,omitempty"`

	Rooms      *float64 `json:"rooms,omitempty"`
	SurfaceM2  *float64 `json:"surfaceM2,omitempty"`
	RentChf    *float64 `json:"rentChf,omitempty"`
	ChargesChf *float64 `json:"chargesChf,omitempty"`
	TotalChf   *float64 `json:"totalChf,omitempty"`
	PriceRaw   string   `json:"priceRaw,omitempty"`

	ImageURLsLocal  []string `json:"imageUrlsLocal,omitempty"`
	ImageURLsRemote []string `json:"imageUrlsRemote,omitempty"`

	PublishedAt   *time.Time `json:"publishedAt,omitempty"`
	AvailableFrom *time.Time `json:"availableFrom,omitempty"`
	FirstSeenAt   time.Time  `json:"firstSeenAt"`
	LastSeenAt    time.Time  `json:"lastSeenAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
	RemovedAt     *time.Time `json:"removedAt,omitempty"`

	Stage Stage `json:"listingStage"`

	// DuplicateSources holds every provider folded into this record by
	// cross-source deduplication, including its own.
	DuplicateSources []Source `json:"duplicateSources,omitempty"`
}

// Normalize fills derived defaults on a raw adapter record: the
// source-prefixed id, the total price from its components, the default
// stage, and the seen timestamps. It returns an error only when the
// record lacks the identity fields adapters are contracted to set.
func Normalize(l Listing, now time.Time) (Listing, error) {
	if l.Source == "" || l.SourceID == "" {
		return l, fmt.Errorf("listing missing source identity (source=%q sourceId=%q)", l.Source, l.SourceID)
	}
	if l.ID == "" {
		l.ID = string(l.Source) + "-" + l.SourceID
	}
	if l.TotalChf == nil {
		if l.RentChf != nil {
			total := *l.RentChf
			if l.ChargesChf != nil {
				total += *l.ChargesChf
			}
			l.TotalChf = &total
		} else if p, ok := ParsePriceRaw(l.PriceRaw); ok {
			l.TotalChf = &p
		}
	}
	if l.PriceRaw == "" && l.TotalChf != nil {
		l.PriceRaw = fmt.Sprintf("CHF %.0f", *l.TotalChf)
	}
	if l.Stage == "" {
		l.Stage = StageStandard
	}
	if l.FirstSeenAt.IsZero() {
		l.FirstSeenAt = now
	}
	l.LastSeenAt = now
	l.UpdatedAt = now
	return l, nil
}

// ImageURLs returns the display image list: local copies when present,
// otherwise the remote originals.
func (l *Listing) ImageURLs() []string {
	if len(l.ImageURLsLocal) > 0 {
		return l.ImageURLsLocal
	}
	return l.ImageURLsRemote
}

// Total returns the best known total monthly price in CHF, or nil.
func (l *Listing) Total() *float64 {
	if l.TotalChf != nil {
		return l.TotalChf
	}
	if l.RentChf != nil {
		total := *l.RentChf
		if l.ChargesChf != nil {
			total += *l.ChargesChf
		}
		return &total
	}
	return nil
}

// Text returns the free text a listing is matched against for keyword
// gates: title plus object type, lower-cased.
func (l *Listing) Text() string {
	return strings.ToLower(strings.TrimSpace(l.Title + " " + l.ObjectType))
}

// HasSource reports whether src contributed to this record, either as
// the winning source or via cross-source deduplication.
func (l *Listing) HasSource(src Source) bool {
	if l.Source == src {
		return true
	}
	for _, s := range l.DuplicateSources {
		if s == src {
			return true
		}
	}
	return false
}

// ParsePriceRaw extracts a numeric CHF amount from a display price string
// such as "CHF 1'550.–" or "1550.00 / month". Returns false when no
// amount can be recovered.
func ParsePriceRaw(raw string) (float64, bool) {
	if raw == "" {
		return 0, false
	}
	var b strings.Builder
	seenDigit := false
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			seenDigit = true
			b.WriteRune(r)
		case r == '.' && seenDigit:
			b.WriteRune(r)
		case r == '\'' || r == ',' || r == ' ':
			// thousands separators, skip
		default:
			if seenDigit {
				// stop at the first token after the number
				return parseAmount(b.String())
			}
		}
	}
	if !seenDigit {
		return 0, false
	}
	return parseAmount(b.String())
}

func parseAmount(s string) (float64, bool) {
	s = strings.TrimSuffix(s, ".")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}
