package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/promptlabs/promptscope/internal/store"
)

var cacheDir string

func newCacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage stored evaluation reports",
		Long: `Manage the stored evaluation reports.

Reports are keyed by the evaluation setup (model pool, neighbor count, data
split and soft prompt parameters). A present key is always served from disk;
clear the store to force fresh evaluations.`,
	}

	cmd.AddCommand(newCacheClearCommand())

	return cmd
}

func newCacheClearCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove all stored evaluation reports",
		Long: `Remove all stored evaluation reports.

The next evaluation of each setup will query the oracle from scratch.`,
		RunE: cacheClearE,
	}

	cmd.Flags().StringVar(&cacheDir, "cache-dir", "reports", "Report directory to clear")

	return cmd
}

func cacheClearE(cmd *cobra.Command, args []string) error {
	// Resolve to absolute path
	absDir, err := filepath.Abs(cacheDir)
	if err != nil {
		return fmt.Errorf("resolving report directory: %w", err)
	}

	if err := store.New(absDir).Clear(); err != nil {
		return fmt.Errorf("clearing reports: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Reports cleared: %s\n", absDir) //nolint:errcheck
	return nil
}
