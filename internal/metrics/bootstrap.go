package metrics

import (
	"math"
	"math/rand"
	"sort"

	"github.com/promptlabs/promptscope/internal/models"
)

// ConfidenceInterval holds the result of a bootstrap confidence interval
// computation over per-token agreement.
type ConfidenceInterval struct {
	Lower           float64 `json:"lower"`
	Upper           float64 `json:"upper"`
	Mean            float64 `json:"mean"`
	ConfidenceLevel float64 `json:"confidence_level"`
	NumBootstraps   int     `json:"num_bootstraps"`
}

// DefaultBootstrapIterations is the number of bootstrap resamples.
const DefaultBootstrapIterations = 10000

// AccuracyCI computes a bootstrap confidence interval for the vote accuracy:
// the per-token match indicators are resampled with replacement and the
// percentile method is applied to the resampled means. With few tokens the
// interval is wide; that is the point.
func AccuracyCI(votes []models.Vote, assigned []models.ModelID, confidenceLevel float64) (ConfidenceInterval, error) {
	if _, err := Accuracy(votes, assigned); err != nil {
		return ConfidenceInterval{}, err
	}
	indicators := make([]float64, len(votes))
	for i, v := range votes {
		if v.Model == assigned[i] {
			indicators[i] = 1
		}
	}
	return BootstrapCI(indicators, confidenceLevel), nil
}

// BootstrapCI computes a percentile-method bootstrap confidence interval over
// the given values. confidenceLevel should be in (0, 1), e.g. 0.95. Returns a
// degenerate interval when fewer than 2 data points exist.
func BootstrapCI(values []float64, confidenceLevel float64) ConfidenceInterval {
	return BootstrapCIWithSeed(values, confidenceLevel, -1)
}

// BootstrapCIWithSeed is like BootstrapCI but accepts a seed for
// reproducibility. A negative seed uses a non-deterministic source.
func BootstrapCIWithSeed(values []float64, confidenceLevel float64, seed int64) ConfidenceInterval {
	n := len(values)
	if n < 2 {
		m := Mean(values)
		return ConfidenceInterval{
			Lower:           m,
			Upper:           m,
			Mean:            m,
			ConfidenceLevel: confidenceLevel,
			NumBootstraps:   0,
		}
	}

	var rng *rand.Rand
	if seed >= 0 {
		rng = rand.New(rand.NewSource(seed))
	} else {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}

	m := Mean(values)
	iters := DefaultBootstrapIterations

	// Resample with replacement, keep each resample's mean.
	bootMeans := make([]float64, iters)
	sample := make([]float64, n)
	for i := 0; i < iters; i++ {
		for j := 0; j < n; j++ {
			sample[j] = values[rng.Intn(n)]
		}
		bootMeans[i] = Mean(sample)
	}

	sort.Float64s(bootMeans)

	// Percentile method
	alpha := 1.0 - confidenceLevel
	loIdx := int(math.Floor(alpha / 2.0 * float64(iters)))
	hiIdx := int(math.Floor((1.0 - alpha/2.0) * float64(iters)))
	if hiIdx >= iters {
		hiIdx = iters - 1
	}

	return ConfidenceInterval{
		Lower:           bootMeans[loIdx],
		Upper:           bootMeans[hiIdx],
		Mean:            m,
		ConfidenceLevel: confidenceLevel,
		NumBootstraps:   iters,
	}
}
