package knn

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/promptlabs/promptscope/internal/models"
)

func TestEuclidean(t *testing.T) {
	require.Equal(t, 0.0, Euclidean([]float64{1, 2}, []float64{1, 2}))
	require.InDelta(t, 5.0, Euclidean([]float64{0, 0}, []float64{3, 4}), 1e-12)
}

func TestCosineDistance(t *testing.T) {
	// Parallel vectors have distance 0 regardless of magnitude.
	require.InDelta(t, 0.0, CosineDistance([]float64{1, 0}, []float64{5, 0}), 1e-12)
	// Orthogonal vectors have distance 1.
	require.InDelta(t, 1.0, CosineDistance([]float64{1, 0}, []float64{0, 2}), 1e-12)
	// Opposite vectors have distance 2.
	require.InDelta(t, 2.0, CosineDistance([]float64{1, 0}, []float64{-1, 0}), 1e-12)
	// Zero vector is maximally distant.
	require.Equal(t, 1.0, CosineDistance([]float64{0, 0}, []float64{1, 1}))
}

func TestForMetric_Unknown(t *testing.T) {
	_, err := ForMetric("manhattan")
	require.Error(t, err)
}

func TestNearest_OrdersByDistanceThenIndex(t *testing.T) {
	space := [][]float64{
		{10, 0}, // distance 10
		{1, 0},  // distance 1
		{0, 1},  // distance 1, tie broken by index
		{2, 0},  // distance 2
	}

	got, err := Nearest([]float64{0, 0}, space, 3, Euclidean)
	require.NoError(t, err)
	require.Equal(t, []int{1, 2, 3}, got)
}

func TestNearest_Rejections(t *testing.T) {
	space := [][]float64{{1, 0}}

	_, err := Nearest([]float64{0, 0}, space, 0, Euclidean)
	require.Error(t, err)

	_, err = Nearest([]float64{0, 0}, space, 2, Euclidean)
	require.Error(t, err)

	_, err = Nearest([]float64{0, 0}, [][]float64{{1, 2, 3}}, 1, Euclidean)
	require.Error(t, err)
}

// k=5 with neighbor labels [A,A,A,B,B] yields label A with certainty 0.6.
func TestMajorityVote_Certainty(t *testing.T) {
	labels := []models.ModelID{0, 0, 0, 1, 1}

	vote, err := MajorityVote([]int{0, 1, 2, 3, 4}, labels, 5)
	require.NoError(t, err)
	require.Equal(t, models.ModelID(0), vote.Model)
	require.InDelta(t, 0.6, vote.Certainty, 1e-12)
}

func TestMajorityVote_TieGoesToLowestModel(t *testing.T) {
	labels := []models.ModelID{7, 7, 3, 3}

	vote, err := MajorityVote([]int{0, 1, 2, 3}, labels, 4)
	require.NoError(t, err)
	require.Equal(t, models.ModelID(3), vote.Model)
	require.Equal(t, 0.5, vote.Certainty)
}

func TestMajorityVote_CertaintyTimesKIsInteger(t *testing.T) {
	labels := []models.ModelID{0, 1, 1, 2, 1, 0, 1}

	vote, err := MajorityVote([]int{0, 1, 2, 3, 4, 5, 6}, labels, 7)
	require.NoError(t, err)
	require.Equal(t, models.ModelID(1), vote.Model)

	scaled := vote.Certainty * 7
	require.InDelta(t, math.Round(scaled), scaled, 1e-9)
	require.GreaterOrEqual(t, vote.Certainty, 1.0/7.0)
	require.LessOrEqual(t, vote.Certainty, 1.0)
}

func TestVoteAllTokens(t *testing.T) {
	// Model 0 clusters along the x axis, model 1 along the y axis, so the
	// clusters separate under both metrics.
	space := [][]float64{
		{1, 0}, {2, 0.1}, {3, -0.1},
		{0, 1}, {0.1, 2}, {-0.1, 3},
	}
	labels := []models.ModelID{0, 0, 0, 1, 1, 1}
	prompt := [][]float64{
		{2.5, 0},
		{0, 2.5},
	}

	for _, metric := range []models.DistanceMetric{models.MetricEuclidean, models.MetricCosine} {
		votes, err := VoteAllTokens(metric, prompt, space, labels, 3)
		require.NoError(t, err, metric)
		require.Len(t, votes, 2)
		require.Equal(t, models.ModelID(0), votes[0].Model, metric)
		require.Equal(t, models.ModelID(1), votes[1].Model, metric)
		require.Equal(t, 1.0, votes[0].Certainty, metric)
	}
}

func TestVoteAllTokens_LabelMismatch(t *testing.T) {
	_, err := VoteAllTokens(models.MetricEuclidean, [][]float64{{0}}, [][]float64{{0}, {1}}, []models.ModelID{0}, 1)
	require.Error(t, err)
}
