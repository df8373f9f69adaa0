package ablation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptlabs/promptscope/internal/models"
)

func TestEvaluateShortening(t *testing.T) {
	oracle := twoModelOracle()
	asg := &Assignment{
		Models: []models.ModelID{0, 0, 0, 1},
		Scores: []float64{0.9, 0.8, 0.5, 0.9},
	}

	losses, err := EvaluateShortening(context.Background(), oracle, models.Pool{0, 1}, asg, 4)
	require.NoError(t, err)
	require.Len(t, losses, 2)

	// Model 0 keeps tokens 0..2, so the masked variant pays only for token 3.
	assert.Equal(t, models.ModelID(0), losses[0].Model)
	assert.InDelta(t, 1.0, losses[0].Baseline, 1e-12)
	assert.InDelta(t, 1.1, losses[0].Masked, 1e-12)
	assert.InDelta(t, 1.1, losses[0].Compressed, 1e-12)

	// Model 1 keeps only token 3 and pays for the other three.
	assert.Equal(t, models.ModelID(1), losses[1].Model)
	assert.InDelta(t, 2.0, losses[1].Baseline, 1e-12)
	assert.InDelta(t, 2.8, losses[1].Masked, 1e-12)
	assert.InDelta(t, 2.8, losses[1].Compressed, 1e-12)
}

func TestEvaluateShortening_ModelWithNoTokensFails(t *testing.T) {
	oracle := twoModelOracle()
	asg := &Assignment{
		Models: []models.ModelID{0, 0, 0, 0},
		Scores: []float64{1, 1, 1, 1},
	}

	_, err := EvaluateShortening(context.Background(), oracle, models.Pool{0, 1}, asg, 4)
	require.ErrorContains(t, err, "keeps no tokens")
}

func TestEvaluateShortening_TruncatedAssignmentRejected(t *testing.T) {
	oracle := twoModelOracle()
	asg := &Assignment{
		Models: []models.ModelID{0, 0, 1},
		Scores: []float64{0.9, 0.8, 0.9},
	}

	_, err := EvaluateShortening(context.Background(), oracle, models.Pool{0, 1}, asg, 4)
	require.ErrorContains(t, err, "covers 3 tokens, want 4")
}

func TestBaselineLosses(t *testing.T) {
	losses, err := BaselineLosses(context.Background(), twoModelOracle(), models.Pool{1, 0})
	require.NoError(t, err)
	require.Len(t, losses, 2)

	// Results follow pool order, not numeric order.
	assert.Equal(t, models.ModelID(1), losses[0].Model)
	assert.InDelta(t, 2.0, losses[0].Baseline, 1e-12)
	assert.Equal(t, models.ModelID(0), losses[1].Model)
	assert.InDelta(t, 1.0, losses[1].Baseline, 1e-12)
}

func TestBaselineLosses_EmptyPool(t *testing.T) {
	_, err := BaselineLosses(context.Background(), twoModelOracle(), models.Pool{})
	require.Error(t, err)
}
