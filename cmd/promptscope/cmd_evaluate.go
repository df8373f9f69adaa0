package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/promptlabs/promptscope/internal/ablation"
	"github.com/promptlabs/promptscope/internal/config"
	"github.com/promptlabs/promptscope/internal/embedding"
	"github.com/promptlabs/promptscope/internal/models"
	"github.com/promptlabs/promptscope/internal/orchestration"
	"github.com/promptlabs/promptscope/internal/reporting"
	"github.com/promptlabs/promptscope/internal/spinner"
	"github.com/promptlabs/promptscope/internal/store"
	"github.com/promptlabs/promptscope/internal/validation"
)

var (
	outputPath   string
	verbose      bool
	noCache      bool
	evalCacheDir string
	baselineOnly bool
	interpret    bool
)

func newEvaluateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "evaluate <run.yml>",
		Short: "Run a token relevance evaluation",
		Long: `Run a token relevance evaluation from a run spec file.

The spec names the soft prompt, the model pool and the oracle that answers
validation-loss queries. Results are persisted under a key derived from the
setup; re-running the same setup returns the stored report without touching
the oracle.`,
		Args: cobra.ExactArgs(1),
		RunE: evaluateCommandE,
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write the report JSON to this file as well")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output with per-phase progress")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "Recompute even when a stored report exists")
	cmd.Flags().StringVar(&evalCacheDir, "cache-dir", "", "Report directory (overrides the spec's cache_dir)")
	cmd.Flags().BoolVar(&baselineOnly, "baseline-only", false, "Only evaluate per-model full-prompt losses")
	cmd.Flags().BoolVar(&interpret, "interpret", false, "Print a plain-language interpretation of the results")

	return cmd
}

func evaluateCommandE(cmd *cobra.Command, args []string) error {
	specPath := args[0]

	if errs, err := validation.ValidateRunSpecFile(specPath); err != nil {
		return err
	} else if len(errs) > 0 {
		for _, e := range errs {
			fmt.Fprintf(cmd.ErrOrStderr(), "  %s\n", e) //nolint:errcheck
		}
		return fmt.Errorf("%s does not match the run spec schema", specPath)
	}

	spec, err := models.LoadRunSpec(specPath)
	if err != nil {
		return fmt.Errorf("failed to load run spec: %w", err)
	}

	specDir := filepath.Dir(specPath)
	if absSpecDir, err := filepath.Abs(specDir); err == nil {
		specDir = absSpecDir
	}

	cfg := config.NewEvaluationConfig(spec,
		config.WithSpecDir(specDir),
		config.WithVerbose(verbose),
		config.WithNoCache(noCache),
		config.WithOutputPath(outputPath),
		config.WithCacheDir(evalCacheDir),
	)

	oracle, err := ablation.NewOracle(spec.Oracle, ablation.RunContext{
		SoftPromptName: spec.SoftPrompt,
		ConfigPath:     spec.ConfigPath,
		Accelerator:    spec.Accelerator,
		PromptLength:   spec.PromptLength,
		EmbeddingSize:  spec.EmbeddingSize,
		BatchSize:      spec.BatchSize,
		UseTestSet:     spec.UseTestSet,
	})
	if err != nil {
		return err
	}

	evaluator := orchestration.NewEvaluator(cfg, oracle,
		embedding.NewDirProvider(cfg.EmbeddingsDir()),
		embedding.NewDirLoader(cfg.WeightsDir()),
		orchestration.WithStore(store.New(cfg.CacheDir())),
	)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Evaluating soft prompt: %s\n", spec.SoftPrompt)     //nolint:errcheck
	fmt.Fprintf(out, "Model pool: %s\n", spec.Pool().Join(", "))          //nolint:errcheck
	fmt.Fprintf(out, "k=%d, prompt length %d\n\n", spec.K, spec.PromptLength) //nolint:errcheck

	ctx := context.Background()

	if baselineOnly {
		losses, err := evaluator.RunBaselines(ctx)
		if err != nil {
			return fmt.Errorf("baseline evaluation failed: %w", err)
		}
		return printBaselines(out, losses)
	}

	stopProgress := startProgressOutput(evaluator, out)
	report, err := evaluator.Run(ctx)
	stopProgress()
	if err != nil {
		return fmt.Errorf("evaluation failed: %w", err)
	}

	printSummary(out, report)

	if interpret {
		fmt.Fprintln(out)                                    //nolint:errcheck
		fmt.Fprint(out, reporting.FormatSummaryReport(report)) //nolint:errcheck
	}

	if outputPath != "" {
		if err := saveReport(report, outputPath); err != nil {
			return err
		}
		fmt.Fprintf(out, "\nReport saved to: %s\n", outputPath) //nolint:errcheck
	}

	return nil
}

// startProgressOutput attaches either a spinner (interactive terminal) or
// plain per-phase lines (verbose or piped output) to the evaluator.
func startProgressOutput(evaluator *orchestration.Evaluator, out io.Writer) (stop func()) {
	phaseLabels := map[string]string{
		orchestration.PhaseLossAssignment: "assigning tokens by drop-out loss",
		orchestration.PhaseShortening:     "evaluating shortened prompts",
		orchestration.PhaseEmbeddingVote:  "running nearest-neighbor votes",
		orchestration.PhaseAggregation:    "aggregating statistics",
	}

	interactive := !verbose && term.IsTerminal(int(os.Stdout.Fd()))
	if interactive {
		s := spinner.Start(out, "evaluating")
		evaluator.OnProgress(func(e orchestration.ProgressEvent) {
			if e.EventType == orchestration.EventPhaseStart {
				if label, ok := phaseLabels[e.Phase]; ok {
					s.SetMessage(label)
				}
			}
		})
		return s.Stop
	}

	evaluator.OnProgress(func(e orchestration.ProgressEvent) {
		switch e.EventType {
		case orchestration.EventReportCached:
			fmt.Fprintln(out, "Found a stored report for this setup; skipping evaluation.") //nolint:errcheck
		case orchestration.EventPhaseStart:
			if label, ok := phaseLabels[e.Phase]; ok {
				fmt.Fprintf(out, "→ %s\n", label) //nolint:errcheck
			}
		case orchestration.EventEvaluationComplete:
			fmt.Fprintf(out, "Done in %dms.\n\n", e.DurationMs) //nolint:errcheck
		}
	})
	return func() {}
}

func printSummary(out io.Writer, report *models.Report) {
	s := report.Summary
	fmt.Fprintf(out, "Euclidean accuracy: %.4f\n", s.EuclideanAccuracy) //nolint:errcheck
	fmt.Fprintf(out, "Cosine accuracy:    %.4f\n", s.CosineAccuracy)    //nolint:errcheck
	fmt.Fprintf(out, "Metric agreement:   %.4f\n", s.EuclideanCosineAgreement) //nolint:errcheck

	assignments := make([]string, len(report.Tokens))
	for i, t := range report.Tokens {
		assignments[i] = t.LossModel.String()
	}
	fmt.Fprintf(out, "Token assignment:   %s\n", strings.Join(assignments, " ")) //nolint:errcheck
}

func printBaselines(out io.Writer, losses []models.ModelLoss) error {
	w := csv.NewWriter(out)
	if err := w.Write([]string{"model", "loss"}); err != nil {
		return err
	}
	for _, ml := range losses {
		if err := w.Write([]string{ml.Model.String(), strconv.FormatFloat(ml.Baseline, 'g', -1, 64)}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func saveReport(report *models.Report, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}
