package main

import (
	"log/slog"

	"github.com/spf13/cobra"
)

var version = "dev"

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "promptscope",
		Short: "Promptscope - per-token attribution for multi-model soft prompts",
		Long: `Promptscope evaluates which model each token of a jointly trained soft
prompt belongs to.

It cross-validates two independent signals: an ablation-based loss
attribution (masking tokens and measuring which model's loss suffers) and a
k-nearest-neighbor vote in the models' input embedding spaces.`,
		Version:      version,
		SilenceUsage: true,
	}

	debugLogging := cmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	cmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if *debugLogging {
			slog.SetLogLoggerLevel(slog.LevelDebug)
		}
	}

	// Add subcommands
	cmd.AddCommand(newEvaluateCommand())
	cmd.AddCommand(newReportCommand())
	cmd.AddCommand(newCacheCommand())
	cmd.AddCommand(newInitCommand())
	cmd.AddCommand(newValidateCommand())

	return cmd
}

func execute() error {
	rootCmd := newRootCommand()
	return rootCmd.Execute()
}
