package ablation

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/promptlabs/promptscope/internal/models"
)

// AssignOwners runs the drop-out importance search: for every pool model it
// measures how much the loss rises when each token is masked out, then
// assigns each token to the model whose loss suffers most from losing it.
// Ties go to the lowest model identifier.
//
// Oracles implementing BulkAssigner are asked for the whole assignment in
// one call; the result is validated either way.
func AssignOwners(ctx context.Context, o Oracle, pool models.Pool, promptLength int) (*Assignment, error) {
	if len(pool) == 0 {
		return nil, fmt.Errorf("ablation: empty model pool")
	}
	if promptLength < 1 {
		return nil, fmt.Errorf("ablation: prompt length must be at least 1, got %d", promptLength)
	}

	if bulk, ok := o.(BulkAssigner); ok {
		asg, err := bulk.AssignImportance(ctx, pool, promptLength)
		if err != nil {
			return nil, fmt.Errorf("ablation: bulk importance assignment: %w", err)
		}
		if err := asg.Validate(pool, promptLength); err != nil {
			return nil, err
		}
		return asg, nil
	}

	// Per-model loops are independent; only the token loop within a model
	// is sequential.
	contrib := make([][]float64, len(pool))
	g, gctx := errgroup.WithContext(ctx)
	for i, m := range pool {
		g.Go(func() error {
			base, err := o.Baseline(gctx, m)
			if err != nil {
				return fmt.Errorf("ablation: baseline for model %s: %w", m, err)
			}
			row := make([]float64, promptLength)
			for t := 0; t < promptLength; t++ {
				loss, err := o.EvaluateSubset(gctx, SubsetRequest{
					Model:     m,
					Positions: []int{t},
					Policy:    PolicyMask,
				})
				if err != nil {
					return fmt.Errorf("ablation: dropping token %d for model %s: %w", t, m, err)
				}
				// How much this model misses the token.
				row[t] = loss - base
			}
			contrib[i] = row
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	asg := &Assignment{
		Models: make([]models.ModelID, promptLength),
		Scores: make([]float64, promptLength),
	}
	for t := 0; t < promptLength; t++ {
		owner := pool[0]
		best := contrib[0][t]
		for i := 1; i < len(pool); i++ {
			c := contrib[i][t]
			if c > best || (c == best && pool[i] < owner) {
				owner = pool[i]
				best = c
			}
		}
		asg.Models[t] = owner
		asg.Scores[t] = best
	}
	return asg, nil
}
