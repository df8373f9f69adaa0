// Package knn implements the embedding-space voting signal: for each
// soft-prompt token it finds the k geometrically nearest rows of the pooled
// embedding space and lets their model labels vote.
package knn

import (
	"fmt"
	"math"

	"github.com/promptlabs/promptscope/internal/models"
)

// DistanceFunc computes the distance between two equal-length vectors.
type DistanceFunc func(a, b []float64) float64

// Euclidean is the L2 norm of the difference vector.
func Euclidean(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

// CosineDistance is 1 - cosine similarity. A zero vector has no direction;
// its distance to anything is the maximum, 1.
func CosineDistance(a, b []float64) float64 {
	dot := 0.0
	normA := 0.0
	normB := 0.0
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}

// ForMetric resolves a metric name to its distance function.
func ForMetric(metric models.DistanceMetric) (DistanceFunc, error) {
	switch metric {
	case models.MetricEuclidean:
		return Euclidean, nil
	case models.MetricCosine:
		return CosineDistance, nil
	default:
		return nil, fmt.Errorf("knn: unknown distance metric %q", metric)
	}
}
