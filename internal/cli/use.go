package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newUseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "use <profile>",
		Short: "Set the default profile",
		Long:  "Set the profile later commands operate on when --profile is not given.",
		Args:  cobra.ExactArgs(1),
		RunE:  runUse,
	}
}

func runUse(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cfg.Profile = args[0]
	if flagData != "" {
		cfg.DataDir = flagData
	}
	if err := saveConfig(cfg); err != nil {
		return err
	}

	if isJSON() {
		return printJSON(map[string]string{"profile": cfg.Profile})
	}
	fmt.Printf("Default profile set to %s\n", cfg.Profile)
	return nil
}
