// Package cli defines the cobra command tree for flatwatch.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mbetschart/flatwatch/internal/store"
	"github.com/mbetschart/flatwatch/internal/tracker"
)

var (
	flagFormat  string
	flagData    string
	flagProfile string
)

// NewRootCmd creates the root cobra command with global flags.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "fw",
		Short:         "Track and score rental listings",
		Long:          "A tool that aggregates rental listings from several sources into one tracked set per profile, scores them, and keeps your follow-up state across scans.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flagFormat, "format", "text", "output format (text|json)")
	root.PersistentFlags().StringVar(&flagData, "data", "", "data directory (default: ~/.config/flatwatch)")
	root.PersistentFlags().StringVar(&flagProfile, "profile", "", "profile name (default from config)")

	root.AddCommand(
		newScanCmd(),
		newListCmd(),
		newShowCmd(),
		newStatusCmd(),
		newNoteCmd(),
		newPinCmd(),
		newRemoveCmd(),
		newUseCmd(),
		newVersionCmd(),
	)

	return root
}

// openStore resolves the data directory and profile and opens the
// document store for it.
func openStore() (*store.Store, string, error) {
	cliCfg, err := loadConfig()
	if err != nil {
		return nil, "", err
	}

	dir := flagData
	if dir == "" {
		dir = cliCfg.DataDir
	}
	if dir == "" {
		dir, err = store.DefaultDir()
		if err != nil {
			return nil, "", err
		}
	}

	profile := flagProfile
	if profile == "" {
		profile = cliCfg.Profile
	}
	if profile == "" {
		profile = "default"
	}

	return store.New(dir, profile), profile, nil
}

// loadTracker reads the tracker document, treating a missing file as an
// empty tracker.
func loadTracker(s *store.Store) (*tracker.Document, error) {
	doc := &tracker.Document{}
	if err := s.Load(store.DocTracker, doc); err != nil {
		if os.IsNotExist(err) {
			return doc, nil
		}
		return nil, err
	}
	doc.NormalizeLoaded()
	return doc, nil
}

// findEntry loads the tracker and locates one entry by id.
func findEntry(s *store.Store, id string) (*tracker.Document, *tracker.Entry, error) {
	doc, err := loadTracker(s)
	if err != nil {
		return nil, nil, err
	}
	e := doc.Find(id)
	if e == nil {
		return nil, nil, fmt.Errorf("no listing with id %q", id)
	}
	return doc, e, nil
}

// isJSON returns true if the --format flag is set to json.
func isJSON() bool {
	return flagFormat == "json"
}
