package scan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/mbetschart/flatwatch/internal/dedupe"
	"github.com/mbetschart/flatwatch/internal/geo"
	"github.com/mbetschart/flatwatch/internal/listing"
	"github.com/mbetschart/flatwatch/internal/profile"
	"github.com/mbetschart/flatwatch/internal/store"
	"github.com/mbetschart/flatwatch/internal/tracker"
)

const defaultDigestSize = 5

// TravelPlanner is the enrichment dependency; geo.Enricher implements
// it, tests substitute fakes.
type TravelPlanner interface {
	Enrich(ctx context.Context, workAddress, listingAddress string) geo.Travel
}

// Runner executes one scan for one profile. Single writer: the run
// either completes and rewrites every document, or returns an error
// leaving the previous state authoritative.
type Runner struct {
	Store   *store.Store
	Sources []Source

	// NewPlanner builds the travel planner over the loaded caches.
	// Defaults to the real geo enricher; tests override it.
	NewPlanner func(geo.GeocodeCache, geo.RouteCache) TravelPlanner

	Now        func() time.Time
	Logger     *slog.Logger
	DigestSize int
}

// Summary is what a scan reports upward once every document is durably
// rewritten.
type Summary struct {
	RunID    string    `json:"runId"`
	Profile  string    `json:"profile"`
	ScanAt   time.Time `json:"scanAt"`
	Active   int       `json:"active"`
	Removed  int       `json:"removed"`
	Matching int       `json:"matching"`
	New      int       `json:"new"`
	Digest   []string  `json:"digest"`
	Warnings []string  `json:"warnings,omitempty"`
}

// Run executes the full pipeline for the named profile.
func (r *Runner) Run(ctx context.Context, profileName string) (*Summary, error) {
	now := r.now()()
	logger := r.logger()

	cfg, bootstrap := r.loadConfig(profileName, logger)

	prev := &tracker.Document{}
	r.loadOrEmpty(store.DocTracker, prev, logger)
	prev.NormalizeLoaded()

	prevSnap := tracker.Snapshot{}
	r.loadOrEmpty(store.DocLatest, &prevSnap, logger)

	geocodeCache := geo.GeocodeCache{}
	r.loadOrEmpty(store.DocGeocodeCache, &geocodeCache, logger)
	routeCache := geo.RouteCache{}
	r.loadOrEmpty(store.DocRouteCache, &routeCache, logger)

	batchRaw, warnings := r.fetchAll(ctx, cfg, now, logger)

	ranker := dedupe.Ranker{TrackedIDs: trackedIDs(prev), Weights: cfg.SourceWeights}
	batch := dedupe.WithinBatch(batchRaw, ranker)
	batch = dedupe.CrossSource(batch, ranker)

	rec := tracker.NewReconciler(cfg)
	rec.Now = r.now()
	doc := rec.Reconcile(prev, prevSnap, batch)

	r.enrich(ctx, cfg, rec, doc, geocodeCache, routeCache)

	snap := doc.BuildSnapshot(now)

	if err := r.persist(cfg, bootstrap, doc, snap, geocodeCache, routeCache); err != nil {
		return nil, err
	}

	summary := &Summary{
		RunID:    uuid.NewString(),
		Profile:  profileName,
		ScanAt:   now,
		Active:   len(snap.Active),
		Matching: len(snap.Matching),
		New:      len(snap.New),
		Removed:  countRemoved(doc),
		Digest:   digest(doc, r.digestSize()),
		Warnings: warnings,
	}
	logger.Info("scan complete",
		"profile", profileName,
		"active", summary.Active,
		"matching", summary.Matching,
		"new", summary.New,
		"removed", summary.Removed,
		"warnings", len(warnings))
	return summary, nil
}

// loadConfig reads the profile's watch-config, falling back to defaults
// for a brand-new or unreadable profile.
func (r *Runner) loadConfig(profileName string, logger *slog.Logger) (*profile.Config, bool) {
	cfg := &profile.Config{}
	if err := r.Store.Load(store.DocConfig, cfg); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logger.Warn("unreadable watch-config, using defaults", "error", err)
		}
		return profile.Default(profileName), true
	}
	if cfg.Profile == "" {
		cfg.Profile = profileName
	}
	cfg.Normalize()
	return cfg, false
}

// loadOrEmpty reads a document, treating missing or malformed files as
// empty state. Self-heals on the next successful write.
func (r *Runner) loadOrEmpty(name string, v any, logger *slog.Logger) {
	if err := r.Store.Load(name, v); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn("unreadable document, starting empty", "doc", name, "error", err)
	}
}

// fetchAll pulls every enabled source for every target area. A failed
// fetch is a warning, never a scan abort: a partial merge over the
// remaining sources is still valid.
func (r *Runner) fetchAll(ctx context.Context, cfg *profile.Config, now time.Time, logger *slog.Logger) ([]listing.Listing, []string) {
	areas := cfg.Areas
	if len(areas) == 0 {
		areas = []string{""}
	}

	var batch []listing.Listing
	var warnings []string
	for _, src := range r.Sources {
		if !cfg.SourceEnabled(src.Name()) {
			continue
		}
		for _, area := range areas {
			items, err := src.Fetch(ctx, area)
			if err != nil {
				warn := fmt.Sprintf("WARN source %s area %q: %v", src.Name(), area, err)
				warnings = append(warnings, warn)
				logger.Warn("source fetch failed", "source", src.Name(), "area", area, "error", err)
				continue
			}
			for _, item := range items {
				normalized, err := listing.Normalize(item, now)
				if err != nil {
					logger.Warn("skipping malformed record", "source", src.Name(), "error", err)
					continue
				}
				batch = append(batch, normalized)
			}
		}
	}
	return batch, warnings
}

// enrich fills distance and travel durations for active, displayable
// entries still missing them, then rescores those entries so the travel
// penalty lands in the same pass.
func (r *Runner) enrich(ctx context.Context, cfg *profile.Config, rec *tracker.Reconciler, doc *tracker.Document, geocodeCache geo.GeocodeCache, routeCache geo.RouteCache) {
	if cfg.WorkAddress == "" {
		return
	}
	planner := r.planner(geocodeCache, routeCache)

	for _, e := range doc.Entries {
		if !e.Active || !e.Display || e.OutOfScope {
			continue
		}
		if e.DistanceKm != nil && (e.DriveMinutes != nil || e.TransitMinutes != nil) {
			continue
		}
		t := planner.Enrich(ctx, cfg.WorkAddress, e.Address+" "+e.Area)
		if t.DistanceKm != nil {
			e.DistanceKm = t.DistanceKm
		}
		if t.DriveMinutes != nil {
			e.DriveMinutes = t.DriveMinutes
		}
		if t.TransitMinutes != nil {
			e.TransitMinutes = t.TransitMinutes
		}
		rec.Refresh(e)
	}
}

// persist rewrites every document at the end of the pass. Each write is
// atomic; the tracker goes last so a failure earlier leaves it intact.
func (r *Runner) persist(cfg *profile.Config, bootstrap bool, doc *tracker.Document, snap tracker.Snapshot, geocodeCache geo.GeocodeCache, routeCache geo.RouteCache) error {
	if bootstrap {
		if err := r.Store.Write(store.DocConfig, cfg); err != nil {
			return fmt.Errorf("writing watch-config: %w", err)
		}
	}
	if err := r.Store.Write(store.DocGeocodeCache, geocodeCache); err != nil {
		return fmt.Errorf("writing geocode cache: %w", err)
	}
	if err := r.Store.Write(store.DocRouteCache, routeCache); err != nil {
		return fmt.Errorf("writing route cache: %w", err)
	}
	if err := r.Store.Write(store.DocLatest, snap); err != nil {
		return fmt.Errorf("writing latest listings: %w", err)
	}
	if err := r.Store.Write(store.DocTracker, doc); err != nil {
		return fmt.Errorf("writing tracker: %w", err)
	}
	return nil
}

func (r *Runner) planner(geocodeCache geo.GeocodeCache, routeCache geo.RouteCache) TravelPlanner {
	if r.NewPlanner != nil {
		return r.NewPlanner(geocodeCache, routeCache)
	}
	cfg, err := geo.ConfigFromEnv()
	if err != nil {
		r.logger().Warn("geo config from environment failed, using defaults", "error", err)
		cfg = geo.Config{}
	}
	return geo.NewEnricher(cfg, geocodeCache, routeCache)
}

func (r *Runner) now() func() time.Time {
	if r.Now != nil {
		return r.Now
	}
	return time.Now
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

func (r *Runner) digestSize() int {
	if r.DigestSize > 0 {
		return r.DigestSize
	}
	return defaultDigestSize
}

func trackedIDs(doc *tracker.Document) map[string]bool {
	ids := make(map[string]bool, len(doc.Entries))
	for _, e := range doc.Entries {
		ids[e.ID] = true
	}
	return ids
}

func countRemoved(doc *tracker.Document) int {
	n := 0
	for _, e := range doc.Entries {
		if e.IsRemoved {
			n++
		}
	}
	return n
}

// digest renders the top scored displayable entries as short text lines.
func digest(doc *tracker.Document, n int) []string {
	var display []*tracker.Entry
	for _, e := range doc.Entries {
		if e.Active && e.Display && !e.OutOfScope {
			display = append(display, e)
		}
	}
	sort.Slice(display, func(i, j int) bool {
		if display[i].Score != display[j].Score {
			return display[i].Score > display[j].Score
		}
		return display[i].ID < display[j].ID
	})
	if len(display) > n {
		display = display[:n]
	}

	lines := make([]string, 0, len(display))
	for _, e := range display {
		price := "CHF ?"
		if p := e.Total(); p != nil {
			price = fmt.Sprintf("CHF %.0f", *p)
		}
		rooms := "?"
		if e.Rooms != nil {
			rooms = fmt.Sprintf("%.1f", *e.Rooms)
		}
		lines = append(lines, fmt.Sprintf("[%s] %d pts %s %s rooms %s - %s",
			e.Priority, e.Score, price, rooms, e.Area, e.Title))
	}
	return lines
}
