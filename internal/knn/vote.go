package knn

import (
	"fmt"
	"sort"

	"github.com/promptlabs/promptscope/internal/models"
)

// Nearest returns the indices of the k space rows closest to the query under
// dist. Distance ties are broken by lower row index so the selection is
// deterministic.
func Nearest(query []float64, space [][]float64, k int, dist DistanceFunc) ([]int, error) {
	if k < 1 {
		return nil, fmt.Errorf("knn: k must be at least 1, got %d", k)
	}
	if k > len(space) {
		return nil, fmt.Errorf("knn: k=%d exceeds embedding space size %d", k, len(space))
	}

	distances := make([]float64, len(space))
	order := make([]int, len(space))
	for i, row := range space {
		if len(row) != len(query) {
			return nil, fmt.Errorf("knn: space row %d has dimension %d, query has %d", i, len(row), len(query))
		}
		distances[i] = dist(query, row)
		order[i] = i
	}

	sort.Slice(order, func(i, j int) bool {
		a, b := order[i], order[j]
		if distances[a] != distances[b] {
			return distances[a] < distances[b]
		}
		return a < b
	})

	return order[:k], nil
}

// MajorityVote counts the model labels of the selected neighbors and returns
// the most frequent one with its certainty (agreeing fraction of k). Count
// ties are broken by lowest model identifier.
func MajorityVote(neighbors []int, labels []models.ModelID, k int) (models.Vote, error) {
	if len(neighbors) != k {
		return models.Vote{}, fmt.Errorf("knn: got %d neighbors, want k=%d", len(neighbors), k)
	}

	counts := make(map[models.ModelID]int, k)
	for _, idx := range neighbors {
		if idx < 0 || idx >= len(labels) {
			return models.Vote{}, fmt.Errorf("knn: neighbor index %d outside label array of length %d", idx, len(labels))
		}
		counts[labels[idx]]++
	}

	winner := models.ModelID(-1)
	best := 0
	for m, c := range counts {
		if c > best || (c == best && m < winner) {
			winner = m
			best = c
		}
	}

	return models.Vote{Model: winner, Certainty: float64(best) / float64(k)}, nil
}

// VoteAllTokens runs the nearest-neighbor vote for every soft-prompt token
// under the given metric. labels[i] names the model that contributed row i of
// the space.
func VoteAllTokens(metric models.DistanceMetric, prompt, space [][]float64, labels []models.ModelID, k int) ([]models.Vote, error) {
	if len(space) != len(labels) {
		return nil, fmt.Errorf("knn: %d space rows but %d labels", len(space), len(labels))
	}
	dist, err := ForMetric(metric)
	if err != nil {
		return nil, err
	}

	votes := make([]models.Vote, len(prompt))
	for i, token := range prompt {
		neighbors, err := Nearest(token, space, k, dist)
		if err != nil {
			return nil, fmt.Errorf("knn: token %d: %w", i, err)
		}
		vote, err := MajorityVote(neighbors, labels, k)
		if err != nil {
			return nil, fmt.Errorf("knn: token %d: %w", i, err)
		}
		votes[i] = vote
	}
	return votes, nil
}
