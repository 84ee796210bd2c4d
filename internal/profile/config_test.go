package profile

import (
	"testing"

	"github.com/mbetschart/flatwatch/internal/listing"
)

func TestDefaultIsUsable(t *testing.T) {
	cfg := Default("test")

	if cfg.MissingScansBeforeRemoved != 2 {
		t.Errorf("missingScansBeforeRemoved = %d, want 2", cfg.MissingScansBeforeRemoved)
	}
	if len(cfg.EnabledSources) == 0 {
		t.Error("no sources enabled by default")
	}
	if cfg.MaxPearlTotalChf < cfg.MaxTotalHardChf {
		t.Error("pearl cap below hard budget")
	}
	if !cfg.OffMarketIncluded() {
		t.Error("off-market not included by default")
	}
}

func TestNormalizeFillsSourceWeights(t *testing.T) {
	cfg := &Config{SourceWeights: map[listing.Source]int{listing.SourceAnibis: 99}}
	cfg.Normalize()

	// Explicit weights survive, the rest get defaults in priority order.
	if cfg.SourceWeights[listing.SourceAnibis] != 99 {
		t.Errorf("explicit weight overwritten: %d", cfg.SourceWeights[listing.SourceAnibis])
	}
	if cfg.SourceWeights[listing.SourceHomegate] <= cfg.SourceWeights[listing.SourceFlatfox] {
		t.Error("default weights should rank homegate above flatfox")
	}
}

func TestInAreas(t *testing.T) {
	cfg := &Config{Areas: []string{"Lausanne", "Renens"}}

	if !cfg.InAreas("lausanne") {
		t.Error("area match should be case-insensitive")
	}
	if cfg.InAreas("Geneva") {
		t.Error("Geneva is not a target area")
	}

	open := &Config{}
	if !open.InAreas("anywhere") {
		t.Error("empty area list should accept everything")
	}
}

func TestSourceEnabled(t *testing.T) {
	cfg := &Config{EnabledSources: []listing.Source{listing.SourceFlatfox}}
	if cfg.SourceEnabled(listing.SourceHomegate) {
		t.Error("homegate should be disabled")
	}
	if !cfg.SourceEnabled(listing.SourceFlatfox) {
		t.Error("flatfox should be enabled")
	}
}
