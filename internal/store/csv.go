package store

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/promptlabs/promptscope/internal/metrics"
	"github.com/promptlabs/promptscope/internal/models"
)

// ExportCSV renders a report as the flat spreadsheet layout analysts work
// with: the per-token block first, then the summary statistics, then the
// prompt-compression block with a trailing per-row average.
func ExportCSV(w io.Writer, report *models.Report) error {
	if err := report.Validate(); err != nil {
		return fmt.Errorf("refusing to export invalid report: %w", err)
	}

	n := len(report.Tokens)

	header := make([]string, n+1)
	header[0] = "token id"
	for i := 0; i < n; i++ {
		header[i+1] = strconv.Itoa(i)
	}

	rows := [][]string{
		header,
		tokenRow("Loss assignment", report.Tokens, func(t models.TokenResult) string { return t.LossModel.String() }),
		tokenRow("Euclidean assignment", report.Tokens, func(t models.TokenResult) string { return t.Euclidean.Model.String() }),
		tokenRow("Cosine assignment", report.Tokens, func(t models.TokenResult) string { return t.Cosine.Model.String() }),
		tokenRow("Loss", report.Tokens, func(t models.TokenResult) string { return formatFloat(t.LossScore) }),
		tokenRow("Euclidean certainty", report.Tokens, func(t models.TokenResult) string { return formatFloat(t.Euclidean.Certainty) }),
		tokenRow("Cosine certainty", report.Tokens, func(t models.TokenResult) string { return formatFloat(t.Cosine.Certainty) }),
		{""},
		{"Euclidean accuracy", formatFloat(report.Summary.EuclideanAccuracy)},
		{"Cosine accuracy", formatFloat(report.Summary.CosineAccuracy)},
		{"Euclidean weighted accuracy", formatWeighted(report.Summary.EuclideanWeightedAccuracy)},
		{"Cosine weighted accuracy", formatWeighted(report.Summary.CosineWeightedAccuracy)},
		{"Euclidean to cosine accuracy", formatFloat(report.Summary.EuclideanCosineAgreement)},
		{""},
	}

	compression := []string{"Prompt compression"}
	masked := []string{"Normal prompt length"}
	compressed := []string{"Shortened prompt length"}
	individual := []string{"One model loss"}

	var maskedVals, compressedVals, baselineVals []float64
	for _, ml := range report.ModelLosses {
		compression = append(compression, "model_"+ml.Model.String())
		masked = append(masked, formatFloat(ml.Masked))
		compressed = append(compressed, formatFloat(ml.Compressed))
		individual = append(individual, formatFloat(ml.Baseline))
		maskedVals = append(maskedVals, ml.Masked)
		compressedVals = append(compressedVals, ml.Compressed)
		baselineVals = append(baselineVals, ml.Baseline)
	}
	compression = append(compression, "average")
	masked = append(masked, formatFloat(metrics.Mean(maskedVals)))
	compressed = append(compressed, formatFloat(metrics.Mean(compressedVals)))
	individual = append(individual, formatFloat(metrics.Mean(baselineVals)))

	rows = append(rows, compression, masked, compressed, individual)

	cw := csv.NewWriter(w)
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("writing csv: %w", err)
	}
	return nil
}

func tokenRow(label string, tokens []models.TokenResult, cell func(models.TokenResult) string) []string {
	row := make([]string, len(tokens)+1)
	row[0] = label
	for i, t := range tokens {
		row[i+1] = cell(t)
	}
	return row
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func formatWeighted(s models.WeightedStat) string {
	if !s.Defined {
		return "undefined"
	}
	return formatFloat(s.Value)
}
