package cli

import (
	"github.com/spf13/cobra"
)

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one listing in full",
		Args:  cobra.ExactArgs(1),
		RunE:  runShow,
	}
}

func runShow(cmd *cobra.Command, args []string) error {
	s, _, err := openStore()
	if err != nil {
		return err
	}

	_, e, err := findEntry(s, args[0])
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(e)
	}

	printEntryDetail(e)
	return nil
}
