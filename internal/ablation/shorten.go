package ablation

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/promptlabs/promptscope/internal/models"
)

// EvaluateShortening computes, per pool model, the baseline loss of the full
// prompt plus the loss of the masked and compressed variants that keep only
// the tokens the drop-out search assigned to that model. Both variants use
// the identical kept-token set, computed once from the assignment.
//
// A model that owns no tokens cannot be evaluated; the oracle rejects the
// empty kept set and the whole run fails, per the no-partial-results policy.
func EvaluateShortening(ctx context.Context, o Oracle, pool models.Pool, asg *Assignment, promptLength int) ([]models.ModelLoss, error) {
	if err := asg.Validate(pool, promptLength); err != nil {
		return nil, err
	}

	out := make([]models.ModelLoss, len(pool))
	g, gctx := errgroup.WithContext(ctx)
	for i, m := range pool {
		g.Go(func() error {
			kept := asg.TokensFor(m)

			base, err := o.Baseline(gctx, m)
			if err != nil {
				return fmt.Errorf("ablation: baseline for model %s: %w", m, err)
			}

			req := SubsetRequest{Model: m, Positions: kept, Invert: true, Policy: PolicyMask}
			masked, err := o.EvaluateSubset(gctx, req)
			if err != nil {
				return fmt.Errorf("ablation: masked loss for model %s: %w", m, err)
			}

			req.Policy = PolicyCompress
			compressed, err := o.EvaluateSubset(gctx, req)
			if err != nil {
				return fmt.Errorf("ablation: compressed loss for model %s: %w", m, err)
			}

			out[i] = models.ModelLoss{Model: m, Baseline: base, Masked: masked, Compressed: compressed}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// BaselineLosses evaluates the full prompt against every pool model, with no
// ablation. Used both for the report's individual-loss row and for
// baseline-only validation runs.
func BaselineLosses(ctx context.Context, o Oracle, pool models.Pool) ([]models.ModelLoss, error) {
	if len(pool) == 0 {
		return nil, fmt.Errorf("ablation: empty model pool")
	}
	out := make([]models.ModelLoss, len(pool))
	g, gctx := errgroup.WithContext(ctx)
	for i, m := range pool {
		g.Go(func() error {
			base, err := o.Baseline(gctx, m)
			if err != nil {
				return fmt.Errorf("ablation: baseline for model %s: %w", m, err)
			}
			out[i] = models.ModelLoss{Model: m, Baseline: base}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
