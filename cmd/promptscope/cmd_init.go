package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/promptlabs/promptscope/internal/wizard"
)

const defaultRunSpec = `# promptscope run spec
name: my-evaluation
soft_prompt: sp-demo

# Model pool: training-run model numbers the soft prompt was trained against.
models: [0, 1]

# Training config the soft prompt and pool models were built with.
config: configs/demo.yml

# Neighbor count for the embedding vote.
k: 7

weights_dir: weights
embeddings_dir: embeddings

oracle:
  type: command
  config:
    command: python
    args: ["evaluate.py"]
`

func newInitCommand() *cobra.Command {
	var interactive bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new evaluation directory",
		Long: `Initialize a new evaluation directory.

Creates a run.yml spec file plus empty weights/ and embeddings/ directories
for the soft prompt and per-model embedding matrices.

Use --interactive to run a guided wizard that fills in the spec fields.

If no directory is specified, the current directory is used.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return initCommandE(cmd, args, interactive)
		},
	}

	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "Run the guided setup wizard")

	return cmd
}

func initCommandE(cmd *cobra.Command, args []string, interactive bool) error {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	specPath := filepath.Join(dir, "run.yml")
	if _, err := os.Stat(specPath); err == nil {
		return fmt.Errorf("%s already exists", specPath)
	}

	content := defaultRunSpec
	if interactive {
		answers, err := wizard.RunWizard(cmd.InOrStdin(), cmd.OutOrStdout(), filepath.Base(dir))
		if err != nil {
			return err
		}
		content, err = wizard.GenerateRunSpecYAML(answers)
		if err != nil {
			return err
		}
	}

	if err := os.WriteFile(specPath, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", specPath, err)
	}

	for _, sub := range []string{"weights", "embeddings"} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", sub, err)
		}
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Initialized evaluation directory: %s\n", dir) //nolint:errcheck
	fmt.Fprintf(out, "  %s\n", specPath)                            //nolint:errcheck
	fmt.Fprintf(out, "  %s/\n", filepath.Join(dir, "weights"))      //nolint:errcheck
	fmt.Fprintf(out, "  %s/\n", filepath.Join(dir, "embeddings"))   //nolint:errcheck
	fmt.Fprintln(out, "\nNext: drop your .psw weight files in place and run 'promptscope evaluate run.yml'.") //nolint:errcheck
	return nil
}
