// Package main is the entry point for the flatwatch CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/mbetschart/flatwatch/internal/cli"
	"github.com/mbetschart/flatwatch/internal/logging"
)

func main() {
	// A local .env is optional; the environment wins either way.
	_ = godotenv.Load()

	logging.Setup(os.Getenv("FW_ENV") != "production")

	if err := cli.NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
