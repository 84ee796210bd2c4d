package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mbetschart/flatwatch/internal/scan"
)

func newScanCmd() *cobra.Command {
	var topN int

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Run one scan for the profile",
		Long:  "Fetch every enabled source, deduplicate, reconcile against the tracker, enrich with travel data, and rewrite the profile's documents.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd, topN)
		},
	}

	cmd.Flags().IntVar(&topN, "top", 5, "number of listings in the summary digest")

	return cmd
}

func runScan(cmd *cobra.Command, topN int) error {
	s, profileName, err := openStore()
	if err != nil {
		return err
	}

	runner := &scan.Runner{
		Store:      s,
		Sources:    scan.Registered(),
		DigestSize: topN,
	}

	summary, err := runner.Run(cmd.Context(), profileName)
	if err != nil {
		return fmt.Errorf("scan failed, previous state untouched: %w", err)
	}

	if isJSON() {
		return printJSON(summary)
	}

	printSummary(summary)
	return nil
}
