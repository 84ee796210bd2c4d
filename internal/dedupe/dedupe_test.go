package dedupe

import (
	"reflect"
	"testing"

	"github.com/mbetschart/flatwatch/internal/listing"
)

func f64(v float64) *float64 { return &v }

func TestNormalizeAddress(t *testing.T) {
	got := NormalizeAddress("Rue de la Gare 12, 1003 Lausanne, Suisse", "Lausanne")
	want := NormalizeAddress("12 rue de la gare, Lausanne", "")
	if got != want {
		t.Errorf("addresses normalize differently: %q vs %q", got, want)
	}
}

func TestNormalizeAddressDiacritics(t *testing.T) {
	a := NormalizeAddress("Chemin des Clochetons 5, Genève", "Genève")
	b := NormalizeAddress("chemin des clochetons 5 geneve", "Geneve")
	if a != b {
		t.Errorf("diacritics not folded: %q vs %q", a, b)
	}
}

func TestNormalizeAddressAppendsArea(t *testing.T) {
	withArea := NormalizeAddress("Bahnhofstrasse 1", "Zurich")
	without := NormalizeAddress("Bahnhofstrasse 1 Zurich", "")
	if withArea != without {
		t.Errorf("area token handling differs: %q vs %q", withArea, without)
	}
}

func TestCompositeKeyStability(t *testing.T) {
	// Rooms 2.4 vs 2.6 both floor to 2; surface 61 vs 64 both round to 60.
	a := listing.Listing{
		Address: "Rue Centrale 4", Area: "Lausanne",
		Rooms: f64(2.4), SurfaceM2: f64(61), TotalChf: f64(1510),
	}
	b := listing.Listing{
		Address: "rue centrale 4, 1003 Lausanne",
		Rooms:   f64(2.6), SurfaceM2: f64(64), TotalChf: f64(1490),
	}
	ka, kb := CompositeKey(a), CompositeKey(b)
	if ka == "" || ka != kb {
		t.Errorf("keys differ: %q vs %q", ka, kb)
	}
}

func TestCompositeKeyAllUnknown(t *testing.T) {
	l := listing.Listing{Address: "Rue Centrale 4", Area: "Lausanne"}
	if key := CompositeKey(l); key != "" {
		t.Errorf("key = %q, want empty for unmatchable listing", key)
	}
}

func TestWithinBatchKeepsHigherRank(t *testing.T) {
	poor := listing.Listing{ID: "homegate-1", Source: listing.SourceHomegate}
	rich := listing.Listing{
		ID: "homegate-1", Source: listing.SourceHomegate,
		SurfaceM2: f64(70), TotalChf: f64(1500),
		ImageURLsRemote: []string{"a", "b", "c"},
	}

	r := Ranker{Weights: map[listing.Source]int{listing.SourceHomegate: 10}}

	out := WithinBatch([]listing.Listing{poor, rich}, r)
	if len(out) != 1 {
		t.Fatalf("len = %d, want 1", len(out))
	}
	if out[0].SurfaceM2 == nil {
		t.Error("kept the poorer record")
	}

	// Ties keep the first-seen record.
	out = WithinBatch([]listing.Listing{poor, poor}, r)
	if len(out) != 1 {
		t.Fatalf("len = %d, want 1", len(out))
	}
}

func TestCrossSourceSymmetry(t *testing.T) {
	a := listing.Listing{
		ID: "homegate-1", Source: listing.SourceHomegate,
		Address: "Rue Centrale 4", Area: "Lausanne",
		Rooms: f64(2.5), SurfaceM2: f64(62), TotalChf: f64(1500),
		ImageURLsRemote: []string{"1", "2", "3", "4"},
	}
	b := listing.Listing{
		ID: "flatfox-9", Source: listing.SourceFlatfox,
		Address: "Rue Centrale 4, 1003 Lausanne",
		Rooms:   f64(2.5), SurfaceM2: f64(60), TotalChf: f64(1520),
	}

	r := Ranker{Weights: map[listing.Source]int{
		listing.SourceHomegate: 40,
		listing.SourceFlatfox:  20,
	}}

	ab := CrossSource([]listing.Listing{a, b}, r)
	ba := CrossSource([]listing.Listing{b, a}, r)

	if len(ab) != 1 || len(ba) != 1 {
		t.Fatalf("lens = %d, %d; want 1, 1", len(ab), len(ba))
	}
	if ab[0].ID != "homegate-1" || ba[0].ID != "homegate-1" {
		t.Errorf("winner ids = %q, %q; want homegate-1 in both orders", ab[0].ID, ba[0].ID)
	}
	if !reflect.DeepEqual(ab[0].DuplicateSources, ba[0].DuplicateSources) {
		t.Errorf("duplicateSources differ by order: %v vs %v", ab[0].DuplicateSources, ba[0].DuplicateSources)
	}
	want := []listing.Source{listing.SourceFlatfox, listing.SourceHomegate}
	if !reflect.DeepEqual(ab[0].DuplicateSources, want) {
		t.Errorf("duplicateSources = %v, want %v", ab[0].DuplicateSources, want)
	}
}

func TestCrossSourcePassThroughWithoutKey(t *testing.T) {
	a := listing.Listing{ID: "homegate-1", Source: listing.SourceHomegate, Address: "Rue Centrale 4"}
	b := listing.Listing{ID: "flatfox-9", Source: listing.SourceFlatfox, Address: "Rue Centrale 4"}

	out := CrossSource([]listing.Listing{a, b}, Ranker{})
	if len(out) != 2 {
		t.Errorf("len = %d, want 2 (unmatchable listings must not merge)", len(out))
	}
}

func TestRankTrackerStabilityBias(t *testing.T) {
	tracked := listing.Listing{ID: "flatfox-9", Source: listing.SourceFlatfox}
	richer := listing.Listing{
		ID: "homegate-1", Source: listing.SourceHomegate,
		SurfaceM2: f64(70), TotalChf: f64(1500), PriceRaw: "CHF 1500",
		ImageURLsRemote: []string{"1", "2", "3", "4", "5", "6", "7", "8"},
	}

	r := Ranker{
		TrackedIDs: map[string]bool{"flatfox-9": true},
		Weights: map[listing.Source]int{
			listing.SourceHomegate: 40,
			listing.SourceFlatfox:  20,
		},
	}

	if r.Rank(tracked) <= r.Rank(richer) {
		t.Errorf("tracked rank %d should beat richer untracked rank %d", r.Rank(tracked), r.Rank(richer))
	}
	// Image contribution caps at 6.
	if got := r.Rank(richer); got != 40+6+2+2+1 {
		t.Errorf("rank = %d, want %d", got, 40+6+2+2+1)
	}
}
