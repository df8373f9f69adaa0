// Package metrics cross-validates the ablation-based token assignment
// against the nearest-neighbor vote schemes. Everything here is a pure
// function of already-computed per-token label sequences; no oracle calls.
package metrics

import (
	"fmt"

	"github.com/promptlabs/promptscope/internal/models"
)

// Accuracy is the fraction of token positions where the vote label matches
// the ablation label.
func Accuracy(votes []models.Vote, assigned []models.ModelID) (float64, error) {
	if len(votes) != len(assigned) {
		return 0, fmt.Errorf("metrics: %d votes vs %d assignments", len(votes), len(assigned))
	}
	if len(votes) == 0 {
		return 0, fmt.Errorf("metrics: no token positions")
	}
	matches := 0
	for i, v := range votes {
		if v.Model == assigned[i] {
			matches++
		}
	}
	return float64(matches) / float64(len(votes)), nil
}

// WeightedAccuracy is the certainty-weighted agreement rate:
//
//	Σ indicator(match) * certainty / Σ certainty
//
// When every certainty is zero the statistic has no meaning; the result is
// explicitly marked undefined rather than coerced to 0.
func WeightedAccuracy(votes []models.Vote, assigned []models.ModelID) (models.WeightedStat, error) {
	if len(votes) != len(assigned) {
		return models.WeightedStat{}, fmt.Errorf("metrics: %d votes vs %d assignments", len(votes), len(assigned))
	}
	num := 0.0
	den := 0.0
	for i, v := range votes {
		den += v.Certainty
		if v.Model == assigned[i] {
			num += v.Certainty
		}
	}
	if den == 0 {
		return models.WeightedStat{Defined: false}, nil
	}
	return models.WeightedStat{Value: num / den, Defined: true}, nil
}

// Agreement is the fraction of token positions where both vote schemes chose
// the same model, independent of the ablation assignment.
func Agreement(a, b []models.Vote) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("metrics: %d vs %d votes", len(a), len(b))
	}
	if len(a) == 0 {
		return 0, fmt.Errorf("metrics: no token positions")
	}
	matches := 0
	for i := range a {
		if a[i].Model == b[i].Model {
			matches++
		}
	}
	return float64(matches) / float64(len(a)), nil
}

// Summarize computes the full summary block from the ablation assignment and
// the two vote sequences.
func Summarize(assigned []models.ModelID, euclidean, cosine []models.Vote) (models.Summary, error) {
	eucAcc, err := Accuracy(euclidean, assigned)
	if err != nil {
		return models.Summary{}, err
	}
	cosAcc, err := Accuracy(cosine, assigned)
	if err != nil {
		return models.Summary{}, err
	}
	eucW, err := WeightedAccuracy(euclidean, assigned)
	if err != nil {
		return models.Summary{}, err
	}
	cosW, err := WeightedAccuracy(cosine, assigned)
	if err != nil {
		return models.Summary{}, err
	}
	agree, err := Agreement(euclidean, cosine)
	if err != nil {
		return models.Summary{}, err
	}
	return models.Summary{
		EuclideanAccuracy:         eucAcc,
		CosineAccuracy:            cosAcc,
		EuclideanWeightedAccuracy: eucW,
		CosineWeightedAccuracy:    cosW,
		EuclideanCosineAgreement:  agree,
	}, nil
}
