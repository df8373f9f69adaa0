package ablation

import (
	"context"
	"fmt"
	"sync"

	"github.com/promptlabs/promptscope/internal/models"
)

// StaticOracle is a deterministic in-process oracle backed by fixed per-model
// contribution tables. The loss of any ablation is the model's baseline plus
// the contributions of every token the ablation removed. It exists for tests
// and for dry runs, where spawning an evaluator process is not wanted.
type StaticOracle struct {
	PromptLength  int
	Baselines     map[models.ModelID]float64
	Contributions map[models.ModelID][]float64

	mu    sync.Mutex
	calls int
}

func (s *StaticOracle) Baseline(ctx context.Context, model models.ModelID) (float64, error) {
	s.count()
	base, ok := s.Baselines[model]
	if !ok {
		return 0, fmt.Errorf("ablation: no baseline configured for model %s", model)
	}
	return base, nil
}

func (s *StaticOracle) EvaluateSubset(ctx context.Context, req SubsetRequest) (float64, error) {
	s.count()
	base, ok := s.Baselines[req.Model]
	if !ok {
		return 0, fmt.Errorf("ablation: no baseline configured for model %s", req.Model)
	}
	contrib, ok := s.Contributions[req.Model]
	if !ok || len(contrib) != s.PromptLength {
		return 0, fmt.Errorf("ablation: no contribution table for model %s", req.Model)
	}

	dropped := make(map[int]bool, len(req.Positions))
	for _, p := range req.Positions {
		if p < 0 || p >= s.PromptLength {
			return 0, fmt.Errorf("ablation: position %d out of range [0,%d)", p, s.PromptLength)
		}
		dropped[p] = true
	}

	loss := base
	kept := 0
	for t := 0; t < s.PromptLength; t++ {
		removed := dropped[t] != req.Invert
		if removed {
			loss += contrib[t]
		} else {
			kept++
		}
	}
	if kept == 0 {
		return 0, fmt.Errorf("ablation: ablation keeps no tokens")
	}
	return loss, nil
}

// Calls reports how many oracle invocations have happened. Cache tests use it
// to prove a repeated run never re-evaluates.
func (s *StaticOracle) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *StaticOracle) count() {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
}
