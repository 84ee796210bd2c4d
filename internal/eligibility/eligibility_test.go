package eligibility

import (
	"testing"
	"time"

	"github.com/mbetschart/flatwatch/internal/listing"
	"github.com/mbetschart/flatwatch/internal/profile"
)

func f64(v float64) *float64 { return &v }

func testConfig() *profile.Config {
	cfg := profile.Default("test")
	cfg.MaxTotalHardChf = 2000
	cfg.MaxPearlTotalChf = 2400
	cfg.MinRooms = 2
	cfg.PearlMinKeywordHits = 2
	cfg.Normalize()
	return cfg
}

func now() time.Time {
	return time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)
}

func baseListing() listing.Listing {
	return listing.Listing{
		ID: "homegate-1", Source: listing.SourceHomegate,
		Title: "Nice flat", Address: "Rue Centrale 4", Area: "Lausanne",
		Rooms: f64(3), SurfaceM2: f64(70), TotalChf: f64(1800),
		Stage: listing.StageStandard, FirstSeenAt: now().AddDate(0, 0, -3),
	}
}

func TestDisplayHappyPath(t *testing.T) {
	l := baseListing()
	ev := Evaluate(&l, testConfig(), now())
	if !ev.Display {
		t.Fatalf("display = false, reason %q", ev.FilterReason)
	}
	if ev.FilterReason != "" {
		t.Errorf("filterReason = %q, want empty", ev.FilterReason)
	}
}

func TestExcludedType(t *testing.T) {
	l := baseListing()
	l.Title = "Room in shared flat"
	ev := Evaluate(&l, testConfig(), now())
	if !ev.ExcludedType || ev.Display {
		t.Errorf("excludedType = %v, display = %v", ev.ExcludedType, ev.Display)
	}
	if ev.FilterReason != "excluded type" {
		t.Errorf("filterReason = %q", ev.FilterReason)
	}
}

func TestPearlBoundaries(t *testing.T) {
	cfg := testConfig()
	cfg.PearlMinRooms = 2
	cfg.Normalize()

	// Exactly at the hard budget: within budget, never a pearl.
	l := baseListing()
	l.Title = "Renovated flat with balcony"
	l.TotalChf = f64(2000)
	ev := Evaluate(&l, cfg, now())
	if ev.IsPearl {
		t.Error("price at hard budget must not be a pearl")
	}
	if !ev.WithinHardBudget {
		t.Error("price at hard budget is within budget")
	}

	// Just above the hard budget with quality keywords: a pearl.
	l.TotalChf = f64(2001)
	ev = Evaluate(&l, cfg, now())
	if !ev.IsPearl {
		t.Error("price just above hard budget with keywords should be a pearl")
	}
	if !ev.Display {
		t.Errorf("pearl should display, reason %q", ev.FilterReason)
	}

	// Exactly at the pearl cap: still eligible.
	l.TotalChf = f64(2400)
	ev = Evaluate(&l, cfg, now())
	if !ev.IsPearl {
		t.Error("price at pearl cap is still a pearl")
	}

	// Above the pearl cap: out.
	l.TotalChf = f64(2401)
	ev = Evaluate(&l, cfg, now())
	if ev.IsPearl || ev.Display {
		t.Error("price above pearl cap must not display")
	}
	if ev.FilterReason != "over budget" {
		t.Errorf("filterReason = %q, want %q", ev.FilterReason, "over budget")
	}
}

func TestPearlNeedsKeywordHits(t *testing.T) {
	l := baseListing()
	l.Title = "Plain flat"
	l.TotalChf = f64(2100)
	ev := Evaluate(&l, testConfig(), now())
	if ev.IsPearl {
		t.Error("pearl without keyword hits")
	}
}

func TestSizeGate(t *testing.T) {
	cfg := testConfig()

	l := baseListing()
	l.Rooms = f64(1.5)
	ev := Evaluate(&l, cfg, now())
	if ev.SizeEligible {
		t.Error("1.5 rooms under min 2 should fail size")
	}
	if ev.FilterReason != "too small" {
		t.Errorf("filterReason = %q", ev.FilterReason)
	}

	cfg.AllowTransition = true
	ev = Evaluate(&l, cfg, now())
	if !ev.SizeEligible {
		t.Error("transition allowance should admit 1.5 rooms")
	}

	// Surface fallback.
	cfg.AllowTransition = false
	cfg.MinSurfaceFallbackM2 = 55
	ev = Evaluate(&l, cfg, now())
	if !ev.SizeEligible {
		t.Error("surface 70 over fallback 55 should pass")
	}

	l.SurfaceM2 = nil
	cfg.AllowMissingSurface = false
	ev = Evaluate(&l, cfg, now())
	if ev.SizeEligible {
		t.Error("missing surface with allowMissingSurface=false should fail")
	}
}

func TestSizeFailsOpenOnUnknownRooms(t *testing.T) {
	cfg := testConfig()
	cfg.MinSurfaceFallbackM2 = 0

	l := baseListing()
	l.Rooms = nil
	ev := Evaluate(&l, cfg, now())
	if !ev.SizeEligible {
		t.Error("unknown rooms with no fallback should fail open")
	}
}

func TestPublicationAge(t *testing.T) {
	cfg := testConfig()
	cfg.MaxPublishedAgeDays = 10

	l := baseListing()
	published := now().AddDate(0, 0, -15)
	l.PublishedAt = &published
	ev := Evaluate(&l, cfg, now())
	if ev.PublicationEligible {
		t.Error("15 days old over max 10 should fail")
	}
	if ev.PublishedAgeDays == nil || *ev.PublishedAgeDays != 15 {
		t.Errorf("publishedAgeDays = %v, want 15", ev.PublishedAgeDays)
	}
	if ev.PublishedAgeApprox {
		t.Error("age from publishedAt is not approximate")
	}
	if ev.FilterReason != "published too long ago" {
		t.Errorf("filterReason = %q", ev.FilterReason)
	}

	// firstSeenAt stands in when publishedAt is unknown, flagged approximate.
	l.PublishedAt = nil
	ev = Evaluate(&l, cfg, now())
	if !ev.PublicationEligible {
		t.Error("3 days since firstSeen should pass")
	}
	if !ev.PublishedAgeApprox {
		t.Error("fallback age should be flagged approximate")
	}
}

func TestOffMarketRelaxation(t *testing.T) {
	cfg := testConfig()
	cfg.MaxPublishedAgeDays = 1

	// Over budget, too small, too old: all gates an off-market listing skips.
	l := baseListing()
	l.Stage = listing.StageOffMarket
	l.TotalChf = f64(9000)
	l.Rooms = f64(1)
	published := now().AddDate(0, 0, -60)
	l.PublishedAt = &published

	ev := Evaluate(&l, cfg, now())
	if !ev.Display {
		t.Fatalf("off-market listing should bypass budget/size/publication, reason %q", ev.FilterReason)
	}

	// The exclusion gate still applies.
	l.Title = "Room in shared flat"
	ev = Evaluate(&l, cfg, now())
	if ev.Display {
		t.Error("off-market must still honor type exclusion")
	}

	// And the profile can suppress the stage entirely.
	l.Title = "Nice flat"
	off := false
	cfg.IncludeOffMarket = &off
	ev = Evaluate(&l, cfg, now())
	if ev.Display {
		t.Error("suppressed off-market listing displayed")
	}
	if ev.FilterReason != "off-market suppressed" {
		t.Errorf("filterReason = %q", ev.FilterReason)
	}
}

func TestFilterReasonOrder(t *testing.T) {
	cfg := testConfig()
	cfg.LocationGroups = []string{"geneva"}

	// Both excluded type and wrong location: exclusion wins, it comes first.
	l := baseListing()
	l.Title = "Room in shared flat"
	ev := Evaluate(&l, cfg, now())
	if ev.FilterReason != "excluded type" {
		t.Errorf("filterReason = %q, want %q", ev.FilterReason, "excluded type")
	}

	l.Title = "Nice flat"
	ev = Evaluate(&l, cfg, now())
	if ev.FilterReason != "outside location groups" {
		t.Errorf("filterReason = %q, want %q", ev.FilterReason, "outside location groups")
	}
}

func TestMinBudget(t *testing.T) {
	cfg := testConfig()
	cfg.MinTotalChf = 1000

	l := baseListing()
	l.TotalChf = f64(800)
	ev := Evaluate(&l, cfg, now())
	if ev.AboveMinBudget || ev.Display {
		t.Error("suspiciously cheap listing should fail the min budget gate")
	}
	if ev.FilterReason != "below minimum budget" {
		t.Errorf("filterReason = %q", ev.FilterReason)
	}

	// Unknown price fails open.
	l.TotalChf = nil
	l.PriceRaw = ""
	ev = Evaluate(&l, cfg, now())
	if !ev.AboveMinBudget {
		t.Error("unknown price should fail open on min budget")
	}
}
