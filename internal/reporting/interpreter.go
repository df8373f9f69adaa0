package reporting

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/promptlabs/promptscope/internal/metrics"
	"github.com/promptlabs/promptscope/internal/models"
)

// InterpretAccuracy returns a plain-language label for an agreement rate
// (0-1) between the embedding vote and the loss assignment.
func InterpretAccuracy(acc float64) string {
	pct := acc * 100
	switch {
	case pct > 90:
		return "Strong agreement (>90%)"
	case pct >= 70:
		return "Good agreement (70-90%)"
	case pct >= 50:
		return "Weak agreement (50-70%)"
	default:
		return "Poor agreement (<50%)"
	}
}

// InterpretSeparation explains what the headline accuracies say about the
// soft prompt's internal structure.
func InterpretSeparation(s models.Summary) string {
	avg := (s.EuclideanAccuracy + s.CosineAccuracy) / 2
	pct := avg * 100
	switch {
	case pct > 90:
		return "Tokens cluster cleanly by model — the soft prompt learned per-model structure."
	case pct >= 70:
		return "Most tokens cluster by model, with some shared between models."
	case pct >= 50:
		return "Token ownership is mixed — embedding geometry only partly matches the loss attribution."
	default:
		return "Tokens do not cluster by model — the embedding geometry disagrees with the loss attribution."
	}
}

// InterpretCompression explains the cost of shortening the prompt for one
// model, relative to its full-prompt baseline.
func InterpretCompression(ml models.ModelLoss) string {
	if ml.Baseline == 0 {
		return "Baseline loss is zero; compression ratios are meaningless."
	}
	ratio := ml.Compressed / ml.Baseline
	switch {
	case ratio <= 1.05:
		return fmt.Sprintf("Model %s keeps its performance with only its own tokens (%.0f%% of baseline loss).", ml.Model, ratio*100)
	case ratio <= 1.5:
		return fmt.Sprintf("Model %s degrades moderately when shortened (%.0f%% of baseline loss).", ml.Model, ratio*100)
	default:
		return fmt.Sprintf("Model %s depends on other models' tokens — shortening raises its loss to %.0f%% of baseline.", ml.Model, ratio*100)
	}
}

// FormatSummaryReport produces a full plain-language report.
func FormatSummaryReport(report *models.Report) string {
	var b strings.Builder

	s := report.Summary

	b.WriteString("=== Interpretation ===\n\n")
	b.WriteString(fmt.Sprintf("Soft Prompt:   %s (length %d, k=%d)\n",
		report.Setup.SoftPromptName, report.Setup.PromptLength, report.Setup.K))
	b.WriteString(fmt.Sprintf("Model Pool:    %s\n\n", report.Pool.Join(", ")))

	b.WriteString(fmt.Sprintf("Euclidean Accuracy: %.2f%s — %s\n",
		s.EuclideanAccuracy, accuracyCISuffix(report, models.MetricEuclidean), InterpretAccuracy(s.EuclideanAccuracy)))
	b.WriteString(fmt.Sprintf("Cosine Accuracy:    %.2f%s — %s\n",
		s.CosineAccuracy, accuracyCISuffix(report, models.MetricCosine), InterpretAccuracy(s.CosineAccuracy)))
	if s.EuclideanWeightedAccuracy.Defined {
		b.WriteString(fmt.Sprintf("Weighted (Euc/Cos): %.2f / %.2f\n", s.EuclideanWeightedAccuracy.Value, s.CosineWeightedAccuracy.Value))
	} else {
		b.WriteString("Weighted accuracies: undefined (zero certainty mass)\n")
	}
	b.WriteString(fmt.Sprintf("Metric Agreement:   %.2f\n\n", s.EuclideanCosineAgreement))

	b.WriteString(InterpretSeparation(s))
	b.WriteString("\n\nPer-Model Losses:\n")
	b.WriteString(formatLossTable(report.ModelLosses))

	b.WriteString("\n")
	for _, ml := range report.ModelLosses {
		b.WriteString("  " + InterpretCompression(ml) + "\n")
	}

	return b.String()
}

// accuracyCISuffix renders a bootstrap confidence interval for one metric's
// accuracy, or nothing when the interval is degenerate.
func accuracyCISuffix(report *models.Report, metric models.DistanceMetric) string {
	ci, err := metrics.AccuracyCI(report.Votes(metric), report.LossModels(), 0.95)
	if err != nil || ci.NumBootstraps == 0 {
		return ""
	}
	return fmt.Sprintf(" (95%% CI %.2f-%.2f)", ci.Lower, ci.Upper)
}

// formatLossTable renders the model losses as an aligned text table.
func formatLossTable(losses []models.ModelLoss) string {
	headers := []string{"model", "baseline", "masked", "compressed"}
	rows := make([][]string, 0, len(losses))
	for _, ml := range losses {
		rows = append(rows, []string{
			ml.Model.String(),
			fmt.Sprintf("%.4f", ml.Baseline),
			fmt.Sprintf("%.4f", ml.Masked),
			fmt.Sprintf("%.4f", ml.Compressed),
		})
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if w := runewidth.StringWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	var b strings.Builder
	writeRow := func(cells []string) {
		b.WriteString("  ")
		for i, cell := range cells {
			b.WriteString(padRight(cell, widths[i]))
			if i < len(cells)-1 {
				b.WriteString("  ")
			}
		}
		b.WriteString("\n")
	}
	writeRow(headers)
	for _, row := range rows {
		writeRow(row)
	}
	return b.String()
}

// padRight pads s with spaces so its terminal display width reaches width.
func padRight(s string, width int) string {
	sw := runewidth.StringWidth(s)
	if sw >= width {
		return s
	}
	return s + strings.Repeat(" ", width-sw)
}
