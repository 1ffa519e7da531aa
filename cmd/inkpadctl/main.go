// Package main is the entry point for inkpadctl, the maintenance tool
// for inkpad data directories.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dshills/inkpad/internal/identity"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

var (
	dataDir string

	rootCmd = &cobra.Command{
		Use:   "inkpadctl",
		Short: "Inspect and maintain an inkpad data directory",
		Long: `inkpadctl opens the editor's data directory to inspect persisted undo
history and session state, and to delete what is no longer wanted.

The store is single-writer: close the editor before running this tool
against the same data directory.`,
		SilenceUsage: true,
	}
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = fmt.Sprintf("%s (commit %s, built %s)", version, commit, date)
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", identity.ResolveDataDir(), "data directory to operate on")
}
