// Package dedupe collapses duplicate listings, first by exact id within
// a batch, then by a fuzzy composite key across sources.
package dedupe

import (
	"fmt"
	"math"
	"sort"

	"github.com/mbetschart/flatwatch/internal/listing"
)

// Ranker scores how trustworthy a record is so that duplicates keep the
// richer side. TrackedIDs biases toward ids already in the tracker, so a
// re-merge never silently changes a tracked listing's identity.
type Ranker struct {
	TrackedIDs map[string]bool
	Weights    map[listing.Source]int
}

// Rank computes the quality rank of a record. Higher wins.
func (r Ranker) Rank(l listing.Listing) int {
	rank := 0
	if r.TrackedIDs[l.ID] {
		rank += 1000
	}
	rank += r.Weights[l.Source]
	images := len(l.ImageURLs())
	if images > 6 {
		images = 6
	}
	rank += images
	if l.SurfaceM2 != nil {
		rank += 2
	}
	if l.Total() != nil {
		rank += 2
	}
	if _, ok := listing.ParsePriceRaw(l.PriceRaw); ok {
		rank++
	}
	return rank
}

// CompositeKey builds the fuzzy cross-source match key: normalized
// address joined with rooms floored to an integer, surface bucketed to
// 5 m², and price rounded to the nearest 50 CHF. A listing
// with all three unknown cannot be safely matched and yields "".
func CompositeKey(l listing.Listing) string {
	rooms := "na"
	if l.Rooms != nil {
		rooms = fmt.Sprintf("%d", int(math.Floor(*l.Rooms)))
	}
	surface := "na"
	if l.SurfaceM2 != nil {
		// 61 and 64 both bucket to 60: floor division, not rounding.
		surface = fmt.Sprintf("%d", int(math.Floor(*l.SurfaceM2/5))*5)
	}
	price := "na"
	if p := l.Total(); p != nil {
		price = fmt.Sprintf("%d", int(math.Round(*p/50))*50)
	}
	if rooms == "na" && surface == "na" && price == "na" {
		return ""
	}
	return NormalizeAddress(l.Address, l.Area) + "|" + rooms + "|" + surface + "|" + price
}

// WithinBatch collapses records sharing an exact id, keeping the higher
// quality rank. Output preserves first-seen order; ties keep the record
// seen first.
func WithinBatch(items []listing.Listing, r Ranker) []listing.Listing {
	seen := make(map[string]int, len(items))
	out := make([]listing.Listing, 0, len(items))
	for _, item := range items {
		idx, ok := seen[item.ID]
		if !ok {
			seen[item.ID] = len(out)
			out = append(out, item)
			continue
		}
		if r.Rank(item) > r.Rank(out[idx]) {
			out[idx] = item
		}
	}
	return out
}

// CrossSource collapses records sharing a composite key into one record
// per physical unit. The winning record's fields come from the higher
// rank; DuplicateSources accumulates every source that contributed.
// Records without a key pass through unmerged.
func CrossSource(items []listing.Listing, r Ranker) []listing.Listing {
	seen := make(map[string]int, len(items))
	out := make([]listing.Listing, 0, len(items))
	for _, item := range items {
		key := CompositeKey(item)
		if key == "" {
			out = append(out, item)
			continue
		}
		idx, ok := seen[key]
		if !ok {
			seen[key] = len(out)
			item.DuplicateSources = addSource(item.DuplicateSources, item.Source)
			out = append(out, item)
			continue
		}
		kept := out[idx]
		sources := kept.DuplicateSources
		sources = addSource(sources, item.Source)
		for _, s := range item.DuplicateSources {
			sources = addSource(sources, s)
		}
		if r.Rank(item) > r.Rank(kept) {
			kept = item
		}
		kept.DuplicateSources = sources
		out[idx] = kept
	}
	// Sorted source sets make merge results independent of input order.
	for i := range out {
		sort.Slice(out[i].DuplicateSources, func(a, b int) bool {
			return out[i].DuplicateSources[a] < out[i].DuplicateSources[b]
		})
	}
	return out
}

// addSource appends src if absent, keeping insertion order stable.
func addSource(sources []listing.Source, src listing.Source) []listing.Source {
	for _, s := range sources {
		if s == src {
			return sources
		}
	}
	return append(sources, src)
}
