package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeReportFile produces a stored report by running a full evaluation.
func writeReportFile(t *testing.T) string {
	t.Helper()
	dir := writeEvaluationDir(t)
	outPath := filepath.Join(dir, "report.json")

	_, err := runEvaluate(t, filepath.Join(dir, "run.yml"), "-o", outPath)
	require.NoError(t, err)
	return outPath
}

func runReport(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	cmd := newReportCommand()
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestReportCommand_Summary(t *testing.T) {
	path := writeReportFile(t)

	out, err := runReport(t, path)
	require.NoError(t, err)
	assert.Contains(t, out, "Euclidean accuracy: 1.0000")
}

func TestReportCommand_CSVToStdout(t *testing.T) {
	path := writeReportFile(t)

	out, err := runReport(t, path, "--csv", "-")
	require.NoError(t, err)
	assert.Contains(t, out, "token id,0,1")
	assert.Contains(t, out, "Prompt compression,model_0,model_1,average")
}

func TestReportCommand_CSVToFile(t *testing.T) {
	path := writeReportFile(t)
	csvOut := filepath.Join(t.TempDir(), "report.csv")

	out, err := runReport(t, path, "--csv", csvOut)
	require.NoError(t, err)
	assert.Contains(t, out, "CSV written to")

	data, err := os.ReadFile(csvOut)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Loss assignment")
}

func TestReportCommand_HTML(t *testing.T) {
	path := writeReportFile(t)
	htmlOut := filepath.Join(t.TempDir(), "report.html")

	_, err := runReport(t, path, "--html", htmlOut)
	require.NoError(t, err)

	data, err := os.ReadFile(htmlOut)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<title>Token Relevance: sp-demo</title>")
}

func TestReportCommand_Markdown(t *testing.T) {
	path := writeReportFile(t)

	out, err := runReport(t, path, "--markdown")
	require.NoError(t, err)
	assert.Contains(t, out, "# Token Relevance: sp-demo")
}

func TestReportCommand_RejectsMalformedReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"schema_version": 99}`), 0o644))

	_, err := runReport(t, path)
	require.Error(t, err)
}
