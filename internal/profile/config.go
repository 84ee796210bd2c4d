// Package profile holds the per-profile watch configuration: target areas,
// budget and size filters, pearl criteria, and enabled sources.
package profile

import (
	"strings"

	"github.com/mbetschart/flatwatch/internal/listing"
)

// Config is the watch-config document for one profile. Zero values mean
// "not configured"; Normalize fills the defaults a scan relies on.
type Config struct {
	Profile     string `json:"profile"`
	WorkAddress string `json:"workAddress,omitempty"`

	// Areas are the target municipalities. Listings whose area falls
	// outside this list are bucketed out of scope. Empty = no restriction.
	Areas []string `json:"areas,omitempty"`

	// Budget gates, in CHF total per month.
	MaxTotalHardChf float64 `json:"maxTotalHardChf"`
	MinTotalChf     float64 `json:"minTotalChf,omitempty"`

	// Pearl criteria: above the hard budget but worth a look.
	MaxPearlTotalChf    float64  `json:"maxPearlTotalChf,omitempty"`
	PearlMinRooms       float64  `json:"pearlMinRooms,omitempty"`
	PearlMinSurfaceM2   float64  `json:"pearlMinSurfaceM2,omitempty"`
	PearlKeywords       []string `json:"pearlKeywords,omitempty"`
	PearlMinKeywordHits int      `json:"pearlMinKeywordHits,omitempty"`

	// Size gates.
	MinRooms             float64 `json:"minRooms"`
	AllowTransition      bool    `json:"allowTransition,omitempty"`
	MinSurfaceFallbackM2 float64 `json:"minSurfaceFallbackM2,omitempty"`
	AllowMissingSurface  bool    `json:"allowMissingSurface,omitempty"`

	// Type exclusion keywords matched against the listing text.
	ExcludedTypeKeywords []string `json:"excludedTypeKeywords,omitempty"`

	// Publication age gate, in days. 0 = no limit.
	MaxPublishedAgeDays int `json:"maxPublishedAgeDays,omitempty"`

	// Optional allowlists, matched by normalized substring. Empty lists
	// pass everything through.
	LocationGroups []string `json:"locationGroups,omitempty"`
	LandlordGroups []string `json:"landlordGroups,omitempty"`

	// IncludeOffMarket admits off-market stage listings under the relaxed
	// gate set. Defaults to true.
	IncludeOffMarket *bool `json:"includeOffMarket,omitempty"`

	// Sources enabled for this profile and their dedup priority weights.
	EnabledSources []listing.Source       `json:"enabledSources,omitempty"`
	SourceWeights  map[listing.Source]int `json:"sourceWeights,omitempty"`

	// Small flat score additions per named sub-area.
	SubareaBonuses map[string]int `json:"subareaBonuses,omitempty"`

	// Scans a listing may be absent before it is marked removed.
	MissingScansBeforeRemoved int `json:"missingScansBeforeRemoved,omitempty"`
}

// Default returns a usable starting configuration for a new profile.
func Default(name string) *Config {
	cfg := &Config{
		Profile:             name,
		MaxTotalHardChf:     2000,
		MinRooms:            2,
		AllowMissingSurface: true,
		ExcludedTypeKeywords: []string{
			"room", "shared flat", "wg-zimmer", "zimmer in",
		},
		PearlKeywords: []string{
			"renovated", "reno", "balcony", "balkon", "view", "aussicht",
			"terrasse", "garden", "garten",
		},
	}
	cfg.Normalize()
	return cfg
}

// Normalize fills the defaults a loaded (possibly partial or historical)
// config needs before a scan. Safe to call repeatedly.
func (c *Config) Normalize() {
	if c.MissingScansBeforeRemoved <= 0 {
		c.MissingScansBeforeRemoved = 2
	}
	// Unknown historical source names are dropped rather than failing.
	valid := c.EnabledSources[:0]
	for _, src := range c.EnabledSources {
		if listing.ValidSource(string(src)) {
			valid = append(valid, src)
		}
	}
	c.EnabledSources = valid
	if len(c.EnabledSources) == 0 {
		c.EnabledSources = append([]listing.Source(nil), listing.KnownSources...)
	}
	if c.SourceWeights == nil {
		c.SourceWeights = make(map[listing.Source]int)
	}
	// Default weights follow KnownSources order, richest data first.
	for i, src := range listing.KnownSources {
		if _, ok := c.SourceWeights[src]; !ok {
			c.SourceWeights[src] = (len(listing.KnownSources) - i) * 10
		}
	}
	if c.MaxPearlTotalChf == 0 {
		c.MaxPearlTotalChf = c.MaxTotalHardChf
	}
	if c.PearlMinKeywordHits <= 0 {
		c.PearlMinKeywordHits = 2
	}
	if c.IncludeOffMarket == nil {
		t := true
		c.IncludeOffMarket = &t
	}
}

// SourceEnabled reports whether src participates in scans for this profile.
func (c *Config) SourceEnabled(src listing.Source) bool {
	for _, s := range c.EnabledSources {
		if s == src {
			return true
		}
	}
	return false
}

// InAreas reports whether area falls inside the profile's target areas.
// An empty area list accepts everything.
func (c *Config) InAreas(area string) bool {
	if len(c.Areas) == 0 {
		return true
	}
	area = strings.ToLower(strings.TrimSpace(area))
	for _, a := range c.Areas {
		if strings.ToLower(strings.TrimSpace(a)) == area {
			return true
		}
	}
	return false
}

// OffMarketIncluded reports whether off-market listings are admitted.
func (c *Config) OffMarketIncluded() bool {
	return c.IncludeOffMarket == nil || *c.IncludeOffMarket
}
