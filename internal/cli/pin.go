package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mbetschart/flatwatch/internal/store"
)

func newPinCmd() *cobra.Command {
	var unpin bool

	cmd := &cobra.Command{
		Use:   "pin <id>",
		Short: "Pin a listing to the top of lists",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPin(args[0], !unpin)
		},
	}

	cmd.Flags().BoolVar(&unpin, "undo", false, "unpin instead")

	return cmd
}

func runPin(id string, pinned bool) error {
	s, _, err := openStore()
	if err != nil {
		return err
	}

	doc, e, err := findEntry(s, id)
	if err != nil {
		return err
	}

	e.Pinned = pinned
	if err := s.Write(store.DocTracker, doc); err != nil {
		return err
	}

	if isJSON() {
		return printJSON(map[string]interface{}{"id": id, "pinned": pinned})
	}
	if pinned {
		fmt.Printf("Listing %s pinned\n", id)
	} else {
		fmt.Printf("Listing %s unpinned\n", id)
	}
	return nil
}
