package models

import (
	"fmt"
	"time"
)

// ReportSchemaVersion is the version written into every persisted report.
// Readers reject any other value rather than guessing at field meanings.
const ReportSchemaVersion = 1

// DistanceMetric names one of the two geometric signals used by the
// nearest-neighbor vote.
type DistanceMetric string

const (
	MetricEuclidean DistanceMetric = "euclidean"
	MetricCosine    DistanceMetric = "cosine"
)

// Vote is one token's nearest-neighbor verdict under a single distance
// metric: the majority model among the k nearest embedding rows and the
// fraction of those neighbors that agreed with it. Certainty is always in
// [1/k, 1] and certainty*k is an integer.
type Vote struct {
	Model     ModelID `json:"model"`
	Certainty float64 `json:"certainty"`
}

// TokenResult aggregates everything the evaluation learned about a single
// soft-prompt position: the ablation-based owner and its importance score,
// plus the two independent nearest-neighbor votes.
type TokenResult struct {
	Index     int     `json:"index"`
	LossModel ModelID `json:"loss_model"`
	LossScore float64 `json:"loss_score"`
	Euclidean Vote    `json:"euclidean"`
	Cosine    Vote    `json:"cosine"`
}

// WeightedStat is a certainty-weighted statistic that may be undefined when
// its denominator (the certainty sum) is zero. Undefined is an explicit
// state, never a silent zero.
type WeightedStat struct {
	Value   float64 `json:"value"`
	Defined bool    `json:"defined"`
}

// Summary holds the cross-validation statistics between the ablation
// assignment and the two vote schemes.
type Summary struct {
	EuclideanAccuracy         float64      `json:"euclidean_accuracy"`
	CosineAccuracy            float64      `json:"cosine_accuracy"`
	EuclideanWeightedAccuracy WeightedStat `json:"euclidean_weighted_accuracy"`
	CosineWeightedAccuracy    WeightedStat `json:"cosine_weighted_accuracy"`
	EuclideanCosineAgreement  float64      `json:"euclidean_cosine_agreement"`
}

// ModelLoss holds the three loss figures computed for one pool model: the
// full-prompt baseline, the masked variant (other models' tokens zeroed,
// length preserved) and the compressed variant (prompt physically shortened
// to the kept tokens).
type ModelLoss struct {
	Model      ModelID `json:"model"`
	Baseline   float64 `json:"baseline"`
	Masked     float64 `json:"masked"`
	Compressed float64 `json:"compressed"`
}

// Setup records the run parameters a report was produced under. Together with
// the pool these determine the cache key, so a loaded report can be checked
// against the caller's expectations.
type Setup struct {
	SoftPromptName string `json:"soft_prompt"`
	PromptLength   int    `json:"prompt_length"`
	EmbeddingSize  int    `json:"embedding_size"`
	K              int    `json:"k"`
	UseTestSet     bool   `json:"use_test_set"`
}

// Report is the complete, immutable result of one token relevance
// evaluation. It is computed once per cache key and persisted by the store;
// a later run under the same key loads it instead of recomputing.
type Report struct {
	SchemaVersion int           `json:"schema_version"`
	CreatedAt     time.Time     `json:"created_at"`
	Setup         Setup         `json:"setup"`
	Pool          Pool          `json:"model_pool"`
	Tokens        []TokenResult `json:"tokens"`
	Summary       Summary       `json:"summary"`
	ModelLosses   []ModelLoss   `json:"model_losses"`
}

// EuclideanAccuracy is the headline agreement rate between the Euclidean
// vote and the ablation assignment.
func (r *Report) EuclideanAccuracy() float64 { return r.Summary.EuclideanAccuracy }

// CosineAccuracy is the headline agreement rate between the cosine vote and
// the ablation assignment.
func (r *Report) CosineAccuracy() float64 { return r.Summary.CosineAccuracy }

// LossModels returns the per-token ablation labels in token order.
func (r *Report) LossModels() []ModelID {
	out := make([]ModelID, len(r.Tokens))
	for i, t := range r.Tokens {
		out[i] = t.LossModel
	}
	return out
}

// Votes returns the per-token votes for the given metric in token order.
func (r *Report) Votes(metric DistanceMetric) []Vote {
	out := make([]Vote, len(r.Tokens))
	for i, t := range r.Tokens {
		switch metric {
		case MetricCosine:
			out[i] = t.Cosine
		default:
			out[i] = t.Euclidean
		}
	}
	return out
}

// Validate checks the structural invariants every well-formed report holds:
// the token domain is exactly 0..prompt_length-1 with no gaps, every label is
// drawn from the pool, and there is exactly one loss row per pool model.
func (r *Report) Validate() error {
	if r.SchemaVersion != ReportSchemaVersion {
		return fmt.Errorf("unsupported schema version %d (want %d)", r.SchemaVersion, ReportSchemaVersion)
	}
	if len(r.Pool) == 0 {
		return fmt.Errorf("report has an empty model pool")
	}
	if len(r.Tokens) != r.Setup.PromptLength {
		return fmt.Errorf("report has %d token rows, want prompt_length %d", len(r.Tokens), r.Setup.PromptLength)
	}
	for i, t := range r.Tokens {
		if t.Index != i {
			return fmt.Errorf("token row %d carries index %d", i, t.Index)
		}
		if !r.Pool.Contains(t.LossModel) {
			return fmt.Errorf("token %d: loss model %s not in pool", i, t.LossModel)
		}
		if !r.Pool.Contains(t.Euclidean.Model) || !r.Pool.Contains(t.Cosine.Model) {
			return fmt.Errorf("token %d: vote label not in pool", i)
		}
	}
	if len(r.ModelLosses) != len(r.Pool) {
		return fmt.Errorf("report has %d model loss rows, want %d", len(r.ModelLosses), len(r.Pool))
	}
	for i, ml := range r.ModelLosses {
		if ml.Model != r.Pool[i] {
			return fmt.Errorf("model loss row %d is for model %s, want %s", i, ml.Model, r.Pool[i])
		}
	}
	return nil
}
