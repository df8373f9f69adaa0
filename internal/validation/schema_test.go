package validation

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptlabs/promptscope/internal/models"
)

const validRunSpecYAML = `
name: demo evaluation
soft_prompt: sp-demo
models: [0, 2, 5]
config: configs/demo.yml
k: 7
weights_dir: weights
embeddings_dir: embeddings
oracle:
  type: command
  config:
    command: python
    args: ["eval.py"]
`

func TestValidateRunSpecBytes(t *testing.T) {
	t.Run("valid spec", func(t *testing.T) {
		errs := ValidateRunSpecBytes([]byte(validRunSpecYAML))
		assert.Empty(t, errs)
	})

	t.Run("missing required fields", func(t *testing.T) {
		errs := ValidateRunSpecBytes([]byte("name: incomplete\n"))
		assert.NotEmpty(t, errs)
	})

	t.Run("negative model number", func(t *testing.T) {
		errs := ValidateRunSpecBytes([]byte(`
name: demo
soft_prompt: sp-demo
models: [-1]
config: configs/demo.yml
`))
		assert.NotEmpty(t, errs)
	})

	t.Run("unknown top-level key", func(t *testing.T) {
		errs := ValidateRunSpecBytes([]byte(validRunSpecYAML + "bogus_key: 1\n"))
		assert.NotEmpty(t, errs)
	})

	t.Run("unparseable yaml", func(t *testing.T) {
		errs := ValidateRunSpecBytes([]byte("name: [unterminated"))
		require.Len(t, errs, 1)
		assert.Contains(t, errs[0], "YAML parse error")
	})
}

func TestValidateRunSpecFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.yml")
	require.NoError(t, os.WriteFile(path, []byte(validRunSpecYAML), 0o644))

	errs, err := ValidateRunSpecFile(path)
	require.NoError(t, err)
	assert.Empty(t, errs)

	_, err = ValidateRunSpecFile(filepath.Join(dir, "missing.yml"))
	require.Error(t, err)
}

func TestValidateReportBytes(t *testing.T) {
	report := models.Report{
		SchemaVersion: models.ReportSchemaVersion,
		CreatedAt:     time.Now().UTC(),
		Setup:         models.Setup{SoftPromptName: "sp-demo", PromptLength: 1, EmbeddingSize: 4, K: 7},
		Pool:          models.Pool{0},
		Tokens: []models.TokenResult{
			{Index: 0, LossModel: 0, Euclidean: models.Vote{Model: 0, Certainty: 1}, Cosine: models.Vote{Model: 0, Certainty: 1}},
		},
		Summary: models.Summary{
			EuclideanAccuracy:         1,
			CosineAccuracy:            1,
			EuclideanWeightedAccuracy: models.WeightedStat{Value: 1, Defined: true},
			CosineWeightedAccuracy:    models.WeightedStat{Value: 1, Defined: true},
			EuclideanCosineAgreement:  1,
		},
		ModelLosses: []models.ModelLoss{{Model: 0, Baseline: 1}},
	}

	data, err := json.Marshal(report)
	require.NoError(t, err)
	assert.Empty(t, ValidateReportBytes(data))

	t.Run("wrong schema version", func(t *testing.T) {
		bad := report
		bad.SchemaVersion = 2
		data, err := json.Marshal(bad)
		require.NoError(t, err)
		assert.NotEmpty(t, ValidateReportBytes(data))
	})

	t.Run("invalid json", func(t *testing.T) {
		errs := ValidateReportBytes([]byte("{"))
		require.Len(t, errs, 1)
		assert.Contains(t, errs[0], "JSON parse error")
	})
}
