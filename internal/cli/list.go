package cli

import (
	"github.com/spf13/cobra"

	"github.com/mbetschart/flatwatch/internal/tracker"
)

func newListCmd() *cobra.Command {
	var onlyNew, onlyPearls, includeRemoved bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tracked listings",
		Long:  "List the profile's tracked listings, best score first. Removed and out-of-scope listings are hidden unless requested.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(onlyNew, onlyPearls, includeRemoved)
		},
	}

	cmd.Flags().BoolVar(&onlyNew, "new", false, "only listings new since the previous scan")
	cmd.Flags().BoolVar(&onlyPearls, "pearls", false, "only pearl listings")
	cmd.Flags().BoolVar(&includeRemoved, "all", false, "include removed and out-of-scope listings")

	return cmd
}

func runList(onlyNew, onlyPearls, includeRemoved bool) error {
	s, _, err := openStore()
	if err != nil {
		return err
	}

	doc, err := loadTracker(s)
	if err != nil {
		return err
	}

	var entries []*tracker.Entry
	for _, e := range doc.Entries {
		if !includeRemoved && (e.IsRemoved || e.OutOfScope || !e.Display) {
			continue
		}
		if onlyNew && !e.IsNew {
			continue
		}
		if onlyPearls && !e.IsPearl {
			continue
		}
		entries = append(entries, e)
	}
	sortEntries(entries)

	if isJSON() {
		return printJSON(entries)
	}
	return printEntryTable(entries)
}
