// Package tracker owns the durable per-profile listing set and the
// reconciliation state machine that merges each scan into it.
package tracker

import (
	"time"

	"github.com/mbetschart/flatwatch/internal/eligibility"
	"github.com/mbetschart/flatwatch/internal/geo"
	"github.com/mbetschart/flatwatch/internal/listing"
	"github.com/mbetschart/flatwatch/internal/score"
)

// Status is where a listing sits in the follow-up pipeline. Owned by the
// user (CLI/API); the reconciler never touches it.
type Status string

const (
	StatusToContact Status = "to_contact"
	StatusVisit     Status = "visit"
	StatusFile      Status = "file"
	StatusFollowUp  Status = "follow_up"
	StatusAccepted  Status = "accepted"
	StatusRejected  Status = "rejected"
	StatusNoReply   Status = "no_reply"
)

// Statuses lists every pipeline state in order.
var Statuses = []Status{
	StatusToContact, StatusVisit, StatusFile, StatusFollowUp,
	StatusAccepted, StatusRejected, StatusNoReply,
}

// NormalizeStatus maps unknown or historical status values to the
// pipeline's initial state. Applied at the persistence boundary.
func NormalizeStatus(s string) Status {
	for _, known := range Statuses {
		if Status(s) == known {
			return known
		}
	}
	return StatusToContact
}

// Priority buckets a listing for manual follow-up.
type Priority string

const (
	PriorityA      Priority = "A"
	PriorityAPearl Priority = "A★"
	PriorityAMinus Priority = "A-"
	PriorityB      Priority = "B"
)

// Entry is one tracked listing: the canonical record, the derived
// eligibility and score fields recomputed every scan, the travel
// enrichment, and the user-owned state that survives re-scans.
type Entry struct {
	listing.Listing
	eligibility.Evaluation
	score.Result
	geo.Travel

	Priority Priority `json:"priority"`

	// User-owned; preserved verbatim across merges.
	Status Status `json:"status"`
	Notes  string `json:"notes,omitempty"`
	Pinned bool   `json:"pinned,omitempty"`

	// Reconciler-owned lifecycle state.
	MissingCount  int    `json:"missingCount"`
	Active        bool   `json:"active"`
	IsRemoved     bool   `json:"isRemoved"`
	IsNew         bool   `json:"isNew,omitempty"`
	OutOfScope    bool   `json:"outOfScope,omitempty"`
	RemovedReason string `json:"removedReason,omitempty"`
}

// Document is the authoritative tracker file for one profile.
type Document struct {
	Profile   string    `json:"profile,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
	Entries   []*Entry  `json:"entries"`
}

// Find returns the entry with the given id, or nil.
func (d *Document) Find(id string) *Entry {
	for _, e := range d.Entries {
		if e.ID == id {
			return e
		}
	}
	return nil
}

// Delete hard-removes an entry from the document. This is the explicit
// user action; scans never delete entries outright.
func (d *Document) Delete(id string) bool {
	for i, e := range d.Entries {
		if e.ID == id {
			d.Entries = append(d.Entries[:i], d.Entries[i+1:]...)
			return true
		}
	}
	return false
}

// NormalizeLoaded repairs a document loaded from disk: historical enum
// values re-map leniently instead of failing.
func (d *Document) NormalizeLoaded() {
	for _, e := range d.Entries {
		e.Status = NormalizeStatus(string(e.Status))
		e.Stage = listing.NormalizeStage(string(e.Stage))
		if e.Priority == "" {
			e.Priority = PriorityB
		}
	}
}

// Snapshot is the latest-listings document: the id subsets of the most
// recent scan, used to diff what is new today.
type Snapshot struct {
	ScanAt   time.Time `json:"scanAt"`
	Active   []string  `json:"active"`
	Matching []string  `json:"matching"`
	New      []string  `json:"new"`
}

// BuildSnapshot derives the latest-listings subsets from the document.
func (d *Document) BuildSnapshot(scanAt time.Time) Snapshot {
	snap := Snapshot{ScanAt: scanAt, Active: []string{}, Matching: []string{}, New: []string{}}
	for _, e := range d.Entries {
		if e.OutOfScope || !e.Active {
			continue
		}
		snap.Active = append(snap.Active, e.ID)
		if e.Display {
			snap.Matching = append(snap.Matching, e.ID)
			if e.IsNew {
				snap.New = append(snap.New, e.ID)
			}
		}
	}
	return snap
}
