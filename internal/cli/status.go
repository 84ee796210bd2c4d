package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mbetschart/flatwatch/internal/store"
	"github.com/mbetschart/flatwatch/internal/tracker"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <id> <status>",
		Short: "Set a listing's pipeline status",
		Long:  fmt.Sprintf("Move a listing through the follow-up pipeline. Valid statuses: %v", tracker.Statuses),
		Args:  cobra.ExactArgs(2),
		RunE:  runStatus,
	}
}

func runStatus(cmd *cobra.Command, args []string) error {
	id, status := args[0], args[1]

	valid := false
	for _, s := range tracker.Statuses {
		if tracker.Status(status) == s {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("invalid status %q (valid: %v)", status, tracker.Statuses)
	}

	s, _, err := openStore()
	if err != nil {
		return err
	}

	doc, e, err := findEntry(s, id)
	if err != nil {
		return err
	}

	e.Status = tracker.Status(status)
	if err := s.Write(store.DocTracker, doc); err != nil {
		return err
	}

	if isJSON() {
		return printJSON(map[string]string{"id": id, "status": status})
	}
	fmt.Printf("Listing %s moved to %s\n", id, status)
	return nil
}
