// Package scan runs one batch scan for a profile: fetch, dedupe,
// reconcile, enrich, persist.
package scan

import (
	"context"

	"github.com/mbetschart/flatwatch/internal/listing"
)

// Source is one scraping adapter. Adapters fetch and parse a provider's
// site into canonical-shaped listings; they are expected to set Source,
// SourceID, and either a full price or its components.
type Source interface {
	Name() listing.Source
	Fetch(ctx context.Context, area string) ([]listing.Listing, error)
}

var registry []Source

// Register adds an adapter to the default source set used by the CLI.
// Adapters call this from their init.
func Register(s Source) {
	registry = append(registry, s)
}

// Registered returns every registered adapter.
func Registered() []Source {
	return registry
}
