// Package ablation owns the loss-based half of the evaluation: the oracle
// port behind every validation-loss figure, the drop-out search that decides
// which model each soft-prompt token belongs to, and the masked/compressed
// prompt-shortening evaluation built on that assignment.
package ablation

import (
	"context"
	"fmt"
	"sort"

	"github.com/promptlabs/promptscope/internal/models"
)

// KeepPolicy selects how tokens outside the kept set are removed: masked in
// place (prompt length preserved) or physically compressed out of the
// prompt.
type KeepPolicy int

const (
	PolicyMask KeepPolicy = iota
	PolicyCompress
)

func (p KeepPolicy) String() string {
	switch p {
	case PolicyCompress:
		return "compress"
	default:
		return "mask"
	}
}

// SubsetRequest asks the oracle for the validation loss of the soft prompt
// with a subset of its tokens ablated. Positions are the tokens to drop;
// with Invert set they are the tokens to keep instead.
type SubsetRequest struct {
	Model     models.ModelID
	Positions []int
	Invert    bool
	Policy    KeepPolicy
}

// Oracle is the external collaborator that performs the actual forward
// passes. Calls are synchronous, potentially long-running, and never retried
// here: a failed call is fatal for the run because a partial attribution is
// invalid, not degraded.
type Oracle interface {
	// Baseline returns the validation loss of the full, unmodified prompt
	// against one model.
	Baseline(ctx context.Context, model models.ModelID) (float64, error)

	// EvaluateSubset returns the validation loss under the requested
	// ablation. An empty effective kept-token set is an error, not a loss
	// of zero.
	EvaluateSubset(ctx context.Context, req SubsetRequest) (float64, error)
}

// BulkAssigner is the oracle's optional bulk variant: one call that returns
// the per-token importance assignment for a whole pool directly. Oracles
// that can batch the drop-out search server-side implement it; AssignOwners
// prefers it over the per-token loop.
type BulkAssigner interface {
	AssignImportance(ctx context.Context, pool models.Pool, promptLength int) (*Assignment, error)
}

// Assignment maps every token position to its owning model and records the
// marginal loss contribution that won the decision. Its domain is always
// exactly 0..promptLength-1.
type Assignment struct {
	Models []models.ModelID
	Scores []float64
}

// Validate checks the assignment invariants against a pool and prompt
// length.
func (a *Assignment) Validate(pool models.Pool, promptLength int) error {
	if len(a.Models) != promptLength {
		return fmt.Errorf("ablation: assignment covers %d tokens, want %d", len(a.Models), promptLength)
	}
	if len(a.Scores) != promptLength {
		return fmt.Errorf("ablation: %d scores for %d tokens", len(a.Scores), promptLength)
	}
	for t, m := range a.Models {
		if !pool.Contains(m) {
			return fmt.Errorf("ablation: token %d assigned to model %s outside the pool", t, m)
		}
	}
	return nil
}

// TokensFor returns the positions assigned to model m, in ascending order.
func (a *Assignment) TokensFor(m models.ModelID) []int {
	var out []int
	for t, owner := range a.Models {
		if owner == m {
			out = append(out, t)
		}
	}
	sort.Ints(out)
	return out
}
