package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mbetschart/flatwatch/internal/store"
)

func newNoteCmd() *cobra.Command {
	var replace bool

	cmd := &cobra.Command{
		Use:   "note <id> <text...>",
		Short: "Add a note to a listing",
		Long:  "Append a note line to a listing. Synthesized lines such as the move-in date are managed by scans and survive note edits.",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNote(args[0], strings.Join(args[1:], " "), replace)
		},
	}

	cmd.Flags().BoolVar(&replace, "replace", false, "replace existing notes instead of appending")

	return cmd
}

func runNote(id, text string, replace bool) error {
	s, _, err := openStore()
	if err != nil {
		return err
	}

	doc, e, err := findEntry(s, id)
	if err != nil {
		return err
	}

	if replace || e.Notes == "" {
		e.Notes = text
	} else {
		e.Notes = e.Notes + "\n" + text
	}

	if err := s.Write(store.DocTracker, doc); err != nil {
		return err
	}

	if isJSON() {
		return printJSON(map[string]string{"id": id, "notes": e.Notes})
	}
	fmt.Printf("Note added to %s\n", id)
	return nil
}
