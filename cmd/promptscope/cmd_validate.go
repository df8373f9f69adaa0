package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/promptlabs/promptscope/internal/validation"
)

func newValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <run.yml>",
		Short: "Validate a run spec against the schema",
		Long: `Validate a run spec file against the run spec schema without running
anything.`,
		Args: cobra.ExactArgs(1),
		RunE: validateCommandE,
	}
}

func validateCommandE(cmd *cobra.Command, args []string) error {
	path := args[0]

	errs, err := validation.ValidateRunSpecFile(path)
	if err != nil {
		return err
	}
	if len(errs) > 0 {
		for _, e := range errs {
			fmt.Fprintf(cmd.ErrOrStderr(), "  %s\n", e) //nolint:errcheck
		}
		return fmt.Errorf("%s has %d schema error(s)", path, len(errs))
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s is valid\n", path) //nolint:errcheck
	return nil
}
