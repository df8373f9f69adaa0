package store

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptlabs/promptscope/internal/models"
)

func sampleReport() *models.Report {
	return &models.Report{
		SchemaVersion: models.ReportSchemaVersion,
		CreatedAt:     time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC),
		Setup: models.Setup{
			SoftPromptName: "sp-demo",
			PromptLength:   3,
			EmbeddingSize:  4,
			K:              7,
		},
		Pool: models.Pool{0, 2},
		Tokens: []models.TokenResult{
			{Index: 0, LossModel: 0, LossScore: 0.4, Euclidean: models.Vote{Model: 0, Certainty: 1}, Cosine: models.Vote{Model: 2, Certainty: 4.0 / 7}},
			{Index: 1, LossModel: 2, LossScore: 0.3, Euclidean: models.Vote{Model: 2, Certainty: 5.0 / 7}, Cosine: models.Vote{Model: 2, Certainty: 1}},
			{Index: 2, LossModel: 0, LossScore: 0.2, Euclidean: models.Vote{Model: 0, Certainty: 6.0 / 7}, Cosine: models.Vote{Model: 0, Certainty: 6.0 / 7}},
		},
		Summary: models.Summary{
			EuclideanAccuracy:         1,
			CosineAccuracy:            2.0 / 3,
			EuclideanWeightedAccuracy: models.WeightedStat{Value: 1, Defined: true},
			CosineWeightedAccuracy:    models.WeightedStat{Value: 0.7, Defined: true},
			EuclideanCosineAgreement:  2.0 / 3,
		},
		ModelLosses: []models.ModelLoss{
			{Model: 0, Baseline: 1.1, Masked: 1.3, Compressed: 1.4},
			{Model: 2, Baseline: 2.1, Masked: 2.6, Compressed: 2.5},
		},
	}
}

func TestKey(t *testing.T) {
	setup := models.Setup{SoftPromptName: "sp-demo", PromptLength: 16, EmbeddingSize: 768, K: 7}

	key, err := Key(setup, models.Pool{2, 0})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "0_2_evaluation_with_k_7_"), key)

	t.Run("independent of pool order", func(t *testing.T) {
		other, err := Key(setup, models.Pool{0, 2})
		require.NoError(t, err)
		assert.Equal(t, key, other)
	})

	t.Run("test split gets its own key", func(t *testing.T) {
		testSetup := setup
		testSetup.UseTestSet = true
		other, err := Key(testSetup, models.Pool{0, 2})
		require.NoError(t, err)
		assert.Contains(t, other, "_test_")
		assert.NotEqual(t, key, other)
	})

	t.Run("changed k changes the key", func(t *testing.T) {
		kSetup := setup
		kSetup.K = 3
		other, err := Key(kSetup, models.Pool{0, 2})
		require.NoError(t, err)
		assert.NotEqual(t, key, other)
	})

	t.Run("changed soft prompt changes the key", func(t *testing.T) {
		spSetup := setup
		spSetup.SoftPromptName = "sp-other"
		other, err := Key(spSetup, models.Pool{0, 2})
		require.NoError(t, err)
		assert.NotEqual(t, key, other)
	})
}

func TestStoreRoundTrip(t *testing.T) {
	s := New(t.TempDir())
	report := sampleReport()

	require.NoError(t, s.Save("some_key", report))

	got, err := s.Load("some_key")
	require.NoError(t, err)
	assert.Equal(t, report, got)
}

func TestStoreLoad_NotFound(t *testing.T) {
	s := New(t.TempDir())

	_, err := s.Load("missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStoreLoad_MalformedIsNotAMiss(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)

	t.Run("invalid json", func(t *testing.T) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{nope"), 0o644))

		_, err := s.Load("broken")
		require.ErrorIs(t, err, ErrMalformedReport)
	})

	t.Run("valid json failing validation", func(t *testing.T) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "invalid.json"), []byte(`{"schema_version": 99}`), 0o644))

		_, err := s.Load("invalid")
		require.ErrorIs(t, err, ErrMalformedReport)
	})
}

func TestStoreSave_RejectsInvalidReport(t *testing.T) {
	s := New(t.TempDir())
	report := sampleReport()
	report.Tokens[1].Index = 7

	require.Error(t, s.Save("key", report))
}

func TestStoreClear(t *testing.T) {
	t.Run("removes report files", func(t *testing.T) {
		dir := t.TempDir()
		s := New(dir)
		require.NoError(t, s.Save("a", sampleReport()))

		require.NoError(t, s.Clear())
		_, err := os.Stat(dir)
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("missing directory is fine", func(t *testing.T) {
		s := New(filepath.Join(t.TempDir(), "never-created"))
		require.NoError(t, s.Clear())
	})

	t.Run("refuses foreign files", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("keep me"), 0o644))

		err := New(dir).Clear()
		require.ErrorContains(t, err, "refusing")
	})
}

func TestExportCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, ExportCSV(&buf, sampleReport()))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 18)

	assert.Equal(t, "token id,0,1,2", lines[0])
	assert.Equal(t, "Loss assignment,0,2,0", lines[1])
	assert.Equal(t, "Euclidean assignment,0,2,0", lines[2])
	assert.Equal(t, "Cosine assignment,2,2,0", lines[3])
	assert.True(t, strings.HasPrefix(lines[8], "Euclidean accuracy,1"), lines[8])
	assert.Equal(t, "Prompt compression,model_0,model_2,average", lines[14])
	assert.True(t, strings.HasPrefix(lines[15], "Normal prompt length,1.3,2.6,1.95"), lines[15])
	assert.Equal(t, "Shortened prompt length,1.4,2.5,1.95", lines[16])
	assert.Equal(t, "One model loss,1.1,2.1,1.6", lines[17])
}

func TestExportCSV_UndefinedWeightedAccuracy(t *testing.T) {
	report := sampleReport()
	report.Summary.EuclideanWeightedAccuracy = models.WeightedStat{}

	var buf bytes.Buffer
	require.NoError(t, ExportCSV(&buf, report))
	assert.Contains(t, buf.String(), "Euclidean weighted accuracy,undefined")
}
