package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/promptlabs/promptscope/internal/models"
	"github.com/promptlabs/promptscope/internal/reporting"
	"github.com/promptlabs/promptscope/internal/store"
	"github.com/promptlabs/promptscope/internal/validation"
)

var (
	csvPath       string
	htmlPath      string
	markdownOut   bool
	interpretOnly bool
)

func newReportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report <report.json>",
		Short: "Inspect or export a stored evaluation report",
		Long: `Inspect a stored evaluation report.

With no flags the summary statistics are printed. The report can also be
exported as the flat CSV spreadsheet layout, as markdown, or as a standalone
HTML page.`,
		Args: cobra.ExactArgs(1),
		RunE: reportCommandE,
	}

	cmd.Flags().StringVar(&csvPath, "csv", "", "Export the report as CSV to this file ('-' for stdout)")
	cmd.Flags().StringVar(&htmlPath, "html", "", "Export the report as HTML to this file")
	cmd.Flags().BoolVar(&markdownOut, "markdown", false, "Print the report as markdown")
	cmd.Flags().BoolVar(&interpretOnly, "interpret", false, "Print a plain-language interpretation")

	return cmd
}

func reportCommandE(cmd *cobra.Command, args []string) error {
	report, err := loadReportFile(args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	if csvPath != "" {
		if csvPath == "-" {
			return store.ExportCSV(out, report)
		}
		f, err := os.Create(csvPath)
		if err != nil {
			return fmt.Errorf("creating %s: %w", csvPath, err)
		}
		defer f.Close()
		if err := store.ExportCSV(f, report); err != nil {
			return err
		}
		fmt.Fprintf(out, "CSV written to: %s\n", csvPath) //nolint:errcheck
		return nil
	}

	if htmlPath != "" {
		f, err := os.Create(htmlPath)
		if err != nil {
			return fmt.Errorf("creating %s: %w", htmlPath, err)
		}
		defer f.Close()
		if err := reporting.RenderHTML(f, report); err != nil {
			return err
		}
		fmt.Fprintf(out, "HTML written to: %s\n", htmlPath) //nolint:errcheck
		return nil
	}

	if markdownOut {
		fmt.Fprint(out, reporting.FormatMarkdown(report)) //nolint:errcheck
		return nil
	}

	if interpretOnly {
		fmt.Fprint(out, reporting.FormatSummaryReport(report)) //nolint:errcheck
		return nil
	}

	printSummary(out, report)
	return nil
}

// loadReportFile reads a report JSON file with the same strictness the store
// applies: schema first, then structural validation.
func loadReportFile(path string) (*models.Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading report: %w", err)
	}

	if errs := validation.ValidateReportBytes(data); len(errs) > 0 {
		for _, e := range errs {
			fmt.Fprintf(os.Stderr, "  %s\n", e) //nolint:errcheck
		}
		return nil, fmt.Errorf("%w: %s", store.ErrMalformedReport, path)
	}

	var report models.Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("%w: %s", store.ErrMalformedReport, path)
	}
	if err := report.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s: %s", store.ErrMalformedReport, path, err)
	}
	return &report, nil
}
