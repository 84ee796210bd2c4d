package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mbetschart/flatwatch/internal/store"
)

func newRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Delete a listing from the tracker",
		Long:  "Hard-delete a listing from the tracker document. Unlike listings that merely disappear from scans, this cannot be undone.",
		Args:  cobra.ExactArgs(1),
		RunE:  runRemove,
	}
}

func runRemove(cmd *cobra.Command, args []string) error {
	id := args[0]

	s, _, err := openStore()
	if err != nil {
		return err
	}

	doc, err := loadTracker(s)
	if err != nil {
		return err
	}

	if !doc.Delete(id) {
		return fmt.Errorf("no listing with id %q", id)
	}

	if err := s.Write(store.DocTracker, doc); err != nil {
		return err
	}

	if isJSON() {
		return printJSON(map[string]string{"id": id, "deleted": "true"})
	}
	fmt.Printf("Listing %s deleted\n", id)
	return nil
}
