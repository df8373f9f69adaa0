package reporting

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/promptlabs/promptscope/internal/models"
)

// FormatMarkdown renders a report as a markdown document: headline
// statistics, the per-token attribution table and the prompt-compression
// losses.
func FormatMarkdown(report *models.Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Token Relevance: %s\n\n", report.Setup.SoftPromptName)
	fmt.Fprintf(&b, "Evaluated %s against models %s with k=%d.\n\n",
		report.CreatedAt.Format("2006-01-02 15:04 MST"), report.Pool.Join(", "), report.Setup.K)

	b.WriteString("## Summary\n\n")
	b.WriteString("| Statistic | Value |\n|---|---|\n")
	s := report.Summary
	fmt.Fprintf(&b, "| Euclidean accuracy | %.4f |\n", s.EuclideanAccuracy)
	fmt.Fprintf(&b, "| Cosine accuracy | %.4f |\n", s.CosineAccuracy)
	fmt.Fprintf(&b, "| Euclidean weighted accuracy | %s |\n", weightedCell(s.EuclideanWeightedAccuracy))
	fmt.Fprintf(&b, "| Cosine weighted accuracy | %s |\n", weightedCell(s.CosineWeightedAccuracy))
	fmt.Fprintf(&b, "| Euclidean/cosine agreement | %.4f |\n", s.EuclideanCosineAgreement)
	fmt.Fprintf(&b, "\n%s\n\n", InterpretSeparation(s))

	b.WriteString("## Token Attribution\n\n")
	b.WriteString("| Token | Loss model | Importance | Euclidean vote | Cosine vote |\n|---|---|---|---|---|\n")
	for _, t := range report.Tokens {
		fmt.Fprintf(&b, "| %d | %s | %.4f | %s (%.2f) | %s (%.2f) |\n",
			t.Index, t.LossModel, t.LossScore,
			t.Euclidean.Model, t.Euclidean.Certainty,
			t.Cosine.Model, t.Cosine.Certainty)
	}

	b.WriteString("\n## Prompt Compression\n\n")
	b.WriteString("| Model | Baseline | Masked | Compressed |\n|---|---|---|---|\n")
	for _, ml := range report.ModelLosses {
		fmt.Fprintf(&b, "| %s | %.4f | %.4f | %.4f |\n", ml.Model, ml.Baseline, ml.Masked, ml.Compressed)
	}
	b.WriteString("\n")
	for _, ml := range report.ModelLosses {
		fmt.Fprintf(&b, "- %s\n", InterpretCompression(ml))
	}

	return b.String()
}

// RenderHTML converts the markdown rendition into a standalone HTML page.
func RenderHTML(w io.Writer, report *models.Report) error {
	md := goldmark.New(goldmark.WithExtensions(extension.Table))

	var body bytes.Buffer
	if err := md.Convert([]byte(FormatMarkdown(report)), &body); err != nil {
		return fmt.Errorf("rendering markdown: %w", err)
	}

	if _, err := fmt.Fprintf(w, htmlShell, report.Setup.SoftPromptName, body.String()); err != nil {
		return fmt.Errorf("writing html: %w", err)
	}
	return nil
}

func weightedCell(s models.WeightedStat) string {
	if !s.Defined {
		return "undefined"
	}
	return fmt.Sprintf("%.4f", s.Value)
}

const htmlShell = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Token Relevance: %s</title>
<style>
body { font-family: system-ui, sans-serif; max-width: 60rem; margin: 2rem auto; padding: 0 1rem; }
table { border-collapse: collapse; }
th, td { border: 1px solid #ccc; padding: 0.3rem 0.7rem; text-align: left; }
th { background: #f4f4f4; }
</style>
</head>
<body>
%s</body>
</html>
`
