package tracker

import (
	"fmt"
	"time"

	"github.com/mbetschart/flatwatch/internal/dedupe"
	"github.com/mbetschart/flatwatch/internal/eligibility"
	"github.com/mbetschart/flatwatch/internal/listing"
	"github.com/mbetschart/flatwatch/internal/profile"
	"github.com/mbetschart/flatwatch/internal/score"
)

// Reconciler merges one scan's deduplicated batch into the previous
// tracker document. It is the sole owner of Active, IsRemoved and
// MissingCount; Status, Notes and Pinned belong to the user and pass
// through every merge untouched.
type Reconciler struct {
	Config *profile.Config
	Now    func() time.Time
}

// NewReconciler creates a reconciler for one profile.
func NewReconciler(cfg *profile.Config) *Reconciler {
	return &Reconciler{Config: cfg, Now: time.Now}
}

// Reconcile produces the next tracker document from the previous one,
// the previous scan's visible snapshot, and this scan's deduplicated
// batch. Pure with respect to its inputs: the same inputs always yield
// the same document.
func (r *Reconciler) Reconcile(prev *Document, prevSnap Snapshot, batch []listing.Listing) *Document {
	now := r.Now()

	prevVisible := make(map[string]bool, len(prevSnap.Matching))
	for _, id := range prevSnap.Matching {
		prevVisible[id] = true
	}

	present := make(map[string]listing.Listing, len(batch))
	for _, l := range batch {
		present[l.ID] = l
	}

	next := &Document{Profile: r.Config.Profile, UpdatedAt: now}

	// Pass 1: previous entries, in stored order. Present ones merge the
	// fresh record over the old identity; absent ones are handled below
	// once the set of active present entries is known.
	var absent []*Entry
	claimed := make(map[string]bool, len(batch))
	activeKeys := make(map[string]string) // composite key -> id, for duplicate-of-active detection

	for _, old := range prev.Entries {
		fresh, ok := present[old.ID]
		if !ok {
			copied := *old
			next.Entries = append(next.Entries, &copied)
			absent = append(absent, &copied)
			continue
		}
		claimed[old.ID] = true
		e := r.mergePresent(old, fresh)
		r.Refresh(e)
		e.IsNew = !prevVisible[e.ID]
		next.Entries = append(next.Entries, e)
		if key := dedupe.CompositeKey(e.Listing); key != "" {
			activeKeys[key] = e.ID
		}
	}

	// Pass 2: brand-new ids, in batch order.
	for _, l := range batch {
		if claimed[l.ID] || prev.Find(l.ID) != nil {
			continue
		}
		claimed[l.ID] = true
		e := r.newEntry(l, now)
		r.Refresh(e)
		next.Entries = append(next.Entries, e)
		if key := dedupe.CompositeKey(e.Listing); key != "" {
			activeKeys[key] = e.ID
		}
	}

	// Pass 3: absent entries. Out-of-scope listings leave the lifecycle
	// counts entirely; the rest age through the miss-count grace period
	// unless a fast-exit reason removes them immediately.
	for _, e := range absent {
		r.reconcileAbsent(e, activeKeys)
	}

	return next
}

// mergePresent lays the fresh scan record over an existing entry. The
// ownership split is explicit: identity and descriptive fields come from
// the fresh record, firstSeenAt and all user state come from the old one.
func (r *Reconciler) mergePresent(old *Entry, fresh listing.Listing) *Entry {
	e := &Entry{}

	e.Listing = fresh
	e.Listing.FirstSeenAt = old.FirstSeenAt // immutable once set
	if e.Listing.PublishedAt == nil {
		e.Listing.PublishedAt = old.PublishedAt
	}
	if e.Listing.AvailableFrom == nil {
		e.Listing.AvailableFrom = old.AvailableFrom
	}
	e.Listing.RemovedAt = nil
	e.Listing.DuplicateSources = unionSources(old.DuplicateSources, fresh.DuplicateSources)

	e.Status = old.Status
	e.Notes = withMoveInLine(old.Notes, e.AvailableFrom)
	e.Pinned = old.Pinned

	// Keep the last enrichment; the enricher refills it when stale.
	e.Travel = old.Travel

	e.MissingCount = 0
	e.Active = true
	e.IsRemoved = false
	e.OutOfScope = false
	e.RemovedReason = ""
	return e
}

// newEntry creates a fresh tracker entry for a never-seen id.
func (r *Reconciler) newEntry(l listing.Listing, now time.Time) *Entry {
	e := &Entry{}
	e.Listing = l
	if e.FirstSeenAt.IsZero() {
		e.Listing.FirstSeenAt = now
	}
	if len(e.Listing.DuplicateSources) == 0 {
		e.Listing.DuplicateSources = []listing.Source{l.Source}
	}
	e.Status = StatusToContact
	e.Notes = withMoveInLine("", e.AvailableFrom)
	e.IsNew = true
	e.MissingCount = 0
	e.Active = true
	return e
}

// reconcileAbsent ages an entry that did not appear in this scan.
func (r *Reconciler) reconcileAbsent(e *Entry, activeKeys map[string]string) {
	now := r.Now()

	if !r.Config.InAreas(e.Area) {
		// Out of the profile's target areas: a separate lifecycle
		// bucket, inactive but deliberately not removed.
		e.OutOfScope = true
		e.Active = false
		e.IsRemoved = false
		e.IsNew = false
		e.RemovedReason = ""
		return
	}

	// Eligibility and score are recomputed on the stale record so the
	// entry stays comparable while it ages out.
	r.Refresh(e)
	e.IsNew = false
	e.OutOfScope = false
	e.MissingCount++

	reason := ""
	switch {
	case r.isDuplicateOfActive(e, activeKeys):
		reason = "cross-source duplicate"
	case !r.Config.SourceEnabled(e.Source):
		reason = "source disabled"
	case e.MissingCount >= r.Config.MissingScansBeforeRemoved:
		reason = fmt.Sprintf("missing from %d scans", e.MissingCount)
	}

	if reason == "" {
		// Grace period: stays active another round.
		e.Active = true
		e.IsRemoved = false
		return
	}

	e.Active = false
	e.IsRemoved = true
	e.RemovedReason = reason
	if e.RemovedAt == nil {
		e.Listing.RemovedAt = &now
	}
}

// isDuplicateOfActive reports whether a stale entry now matches the
// composite key of a currently active listing tracked under another id.
// Duplicates of an active listing must not coexist as separate rows.
func (r *Reconciler) isDuplicateOfActive(e *Entry, activeKeys map[string]string) bool {
	key := dedupe.CompositeKey(e.Listing)
	if key == "" {
		return false
	}
	id, ok := activeKeys[key]
	return ok && id != e.ID
}

// Refresh recomputes every derived field on an entry: eligibility,
// score, and priority. Called during reconciliation and again after
// travel enrichment fills in commute data.
func (r *Reconciler) Refresh(e *Entry) {
	e.Evaluation = eligibility.Evaluate(&e.Listing, r.Config, r.Now())
	e.Result = score.Compute(score.Inputs{
		Stage:          e.Stage,
		TotalChf:       e.Total(),
		BudgetChf:      r.Config.MaxTotalHardChf,
		Rooms:          e.Rooms,
		MinRooms:       r.Config.MinRooms,
		TypeText:       e.Text(),
		Area:           e.Area,
		SubareaBonuses: r.Config.SubareaBonuses,
		DriveMinutes:   e.DriveMinutes,
		TransitMinutes: e.TransitMinutes,
	})
	e.Priority = r.priorityFor(e)
}

// unionSources merges two source sets, keeping a's order and appending
// anything only b saw.
func unionSources(a, b []listing.Source) []listing.Source {
	out := append([]listing.Source(nil), a...)
	for _, s := range b {
		found := false
		for _, have := range out {
			if have == s {
				found = true
				break
			}
		}
		if !found {
			out = append(out, s)
		}
	}
	return out
}

// priorityFor buckets an entry: pearls are A★, off/early-market finds
// are A- (information still incomplete), everything else displayable is
// A, and non-displayable listings are B.
func (r *Reconciler) priorityFor(e *Entry) Priority {
	if !e.Display {
		return PriorityB
	}
	if e.IsPearl {
		return PriorityAPearl
	}
	if e.Stage == listing.StageOffMarket || e.Stage == listing.StageEarly {
		return PriorityAMinus
	}
	return PriorityA
}
