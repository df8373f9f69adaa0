// Package orchestration drives a full token relevance evaluation: the
// drop-out loss assignment, the prompt-shortening losses, the two
// nearest-neighbor votes and the summary statistics, with the persisted
// report short-circuiting all of it on a cache hit.
package orchestration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/promptlabs/promptscope/internal/ablation"
	"github.com/promptlabs/promptscope/internal/config"
	"github.com/promptlabs/promptscope/internal/embedding"
	"github.com/promptlabs/promptscope/internal/knn"
	"github.com/promptlabs/promptscope/internal/metrics"
	"github.com/promptlabs/promptscope/internal/models"
	"github.com/promptlabs/promptscope/internal/store"
)

// ProgressListener receives progress updates.
type ProgressListener func(event ProgressEvent)

// EventType represents the type of progress event.
type EventType string

const (
	EventEvaluationStart    EventType = "evaluation_start"
	EventEvaluationComplete EventType = "evaluation_complete"
	EventReportCached       EventType = "report_cached"
	EventPhaseStart         EventType = "phase_start"
	EventPhaseComplete      EventType = "phase_complete"
)

// Phase names for EventPhaseStart/EventPhaseComplete.
const (
	PhaseLossAssignment = "loss_assignment"
	PhaseShortening     = "prompt_shortening"
	PhaseEmbeddingVote  = "embedding_vote"
	PhaseAggregation    = "aggregation"
)

// ProgressEvent represents a progress update.
type ProgressEvent struct {
	EventType  EventType
	Phase      string
	DurationMs int64
	Details    map[string]any
}

// Evaluator runs token relevance evaluations for one run spec.
type Evaluator struct {
	cfg    *config.EvaluationConfig
	oracle ablation.Oracle
	spaces embedding.Provider
	loader embedding.Loader
	store  *store.Store
	logger *slog.Logger

	progressMu sync.Mutex
	listeners  []ProgressListener
}

// EvaluatorOption configures an Evaluator.
type EvaluatorOption func(*Evaluator)

// WithStore enables report persistence and cache short-circuiting.
func WithStore(s *store.Store) EvaluatorOption {
	return func(e *Evaluator) { e.store = s }
}

// WithLogger replaces the default slog logger.
func WithLogger(logger *slog.Logger) EvaluatorOption {
	return func(e *Evaluator) { e.logger = logger }
}

// NewEvaluator creates an evaluator. The oracle answers loss queries, spaces
// supplies the pooled embedding matrices and loader the soft prompt weights.
func NewEvaluator(cfg *config.EvaluationConfig, oracle ablation.Oracle, spaces embedding.Provider, loader embedding.Loader, opts ...EvaluatorOption) *Evaluator {
	e := &Evaluator{
		cfg:       cfg,
		oracle:    oracle,
		spaces:    spaces,
		loader:    loader,
		logger:    slog.Default(),
		listeners: []ProgressListener{},
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// OnProgress registers a progress listener.
func (e *Evaluator) OnProgress(listener ProgressListener) {
	e.progressMu.Lock()
	defer e.progressMu.Unlock()
	e.listeners = append(e.listeners, listener)
}

func (e *Evaluator) notifyProgress(event ProgressEvent) {
	e.progressMu.Lock()
	listeners := make([]ProgressListener, len(e.listeners))
	copy(listeners, e.listeners)
	e.progressMu.Unlock()

	for _, listener := range listeners {
		listener(event)
	}
}

// Run produces the evaluation report for the configured run spec. When a
// report already exists under the setup's key it is returned as-is without
// touching the oracle; a malformed stored report aborts the run instead of
// being recomputed over.
func (e *Evaluator) Run(ctx context.Context) (*models.Report, error) {
	spec := e.cfg.Spec()
	pool := spec.Pool()
	setup := models.Setup{
		SoftPromptName: spec.SoftPrompt,
		PromptLength:   spec.PromptLength,
		EmbeddingSize:  spec.EmbeddingSize,
		K:              spec.K,
		UseTestSet:     spec.UseTestSet,
	}

	key, err := store.Key(setup, pool)
	if err != nil {
		return nil, fmt.Errorf("deriving report key: %w", err)
	}

	if e.store != nil && !e.cfg.NoCache() {
		report, err := e.store.Load(key)
		if err == nil {
			e.logger.Info("using stored report", "key", key)
			e.notifyProgress(ProgressEvent{EventType: EventReportCached, Details: map[string]any{"key": key}})
			return report, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
	}

	startTime := time.Now()
	e.logger.Info("starting evaluation",
		"soft_prompt", spec.SoftPrompt,
		"models", pool.Join(","),
		"k", spec.K,
		"prompt_length", spec.PromptLength)
	e.notifyProgress(ProgressEvent{EventType: EventEvaluationStart, Details: map[string]any{"key": key}})

	asg, modelLosses, err := e.runLossPhases(ctx, pool, spec.PromptLength)
	if err != nil {
		return nil, err
	}

	eucVotes, cosVotes, err := e.runVotePhase(ctx, pool, spec)
	if err != nil {
		return nil, err
	}

	e.notifyProgress(ProgressEvent{EventType: EventPhaseStart, Phase: PhaseAggregation})
	summary, err := metrics.Summarize(asg.Models, eucVotes, cosVotes)
	if err != nil {
		return nil, fmt.Errorf("summarizing results: %w", err)
	}
	e.notifyProgress(ProgressEvent{EventType: EventPhaseComplete, Phase: PhaseAggregation})

	tokens := make([]models.TokenResult, spec.PromptLength)
	for t := 0; t < spec.PromptLength; t++ {
		tokens[t] = models.TokenResult{
			Index:     t,
			LossModel: asg.Models[t],
			LossScore: asg.Scores[t],
			Euclidean: eucVotes[t],
			Cosine:    cosVotes[t],
		}
	}

	report := &models.Report{
		SchemaVersion: models.ReportSchemaVersion,
		CreatedAt:     time.Now().UTC(),
		Setup:         setup,
		Pool:          pool,
		Tokens:        tokens,
		Summary:       summary,
		ModelLosses:   modelLosses,
	}
	if err := report.Validate(); err != nil {
		return nil, fmt.Errorf("built an invalid report: %w", err)
	}

	if e.store != nil {
		if err := e.store.Save(key, report); err != nil {
			return nil, fmt.Errorf("storing report: %w", err)
		}
		e.logger.Info("report stored", "path", e.store.Path(key))
	}

	e.notifyProgress(ProgressEvent{
		EventType:  EventEvaluationComplete,
		DurationMs: time.Since(startTime).Milliseconds(),
	})
	return report, nil
}

// RunBaselines evaluates only the per-model full-prompt losses, skipping the
// attribution work entirely.
func (e *Evaluator) RunBaselines(ctx context.Context) ([]models.ModelLoss, error) {
	return ablation.BaselineLosses(ctx, e.oracle, e.cfg.Spec().Pool())
}

func (e *Evaluator) runLossPhases(ctx context.Context, pool models.Pool, promptLength int) (*ablation.Assignment, []models.ModelLoss, error) {
	e.notifyProgress(ProgressEvent{EventType: EventPhaseStart, Phase: PhaseLossAssignment})
	asg, err := ablation.AssignOwners(ctx, e.oracle, pool, promptLength)
	if err != nil {
		return nil, nil, err
	}
	e.notifyProgress(ProgressEvent{EventType: EventPhaseComplete, Phase: PhaseLossAssignment})

	e.notifyProgress(ProgressEvent{EventType: EventPhaseStart, Phase: PhaseShortening})
	modelLosses, err := ablation.EvaluateShortening(ctx, e.oracle, pool, asg, promptLength)
	if err != nil {
		return nil, nil, err
	}
	e.notifyProgress(ProgressEvent{EventType: EventPhaseComplete, Phase: PhaseShortening})

	return asg, modelLosses, nil
}

func (e *Evaluator) runVotePhase(ctx context.Context, pool models.Pool, spec *models.RunSpec) ([]models.Vote, []models.Vote, error) {
	e.notifyProgress(ProgressEvent{EventType: EventPhaseStart, Phase: PhaseEmbeddingVote})

	prompt, err := e.loader.LoadWeights(spec.SoftPrompt)
	if err != nil {
		return nil, nil, err
	}
	if len(prompt) != spec.PromptLength {
		return nil, nil, fmt.Errorf("soft prompt %q has %d tokens, spec says %d", spec.SoftPrompt, len(prompt), spec.PromptLength)
	}
	if len(prompt[0]) != spec.EmbeddingSize {
		return nil, nil, fmt.Errorf("soft prompt %q has embedding size %d, spec says %d", spec.SoftPrompt, len(prompt[0]), spec.EmbeddingSize)
	}

	space, err := e.spaces.SpaceFor(pool)
	if err != nil {
		return nil, nil, err
	}

	// The two metrics read the same matrices and are independent.
	var eucVotes, cosVotes []models.Vote
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		eucVotes, err = knn.VoteAllTokens(models.MetricEuclidean, prompt, space.Vectors, space.Labels, spec.K)
		return err
	})
	g.Go(func() error {
		var err error
		cosVotes, err = knn.VoteAllTokens(models.MetricCosine, prompt, space.Vectors, space.Labels, spec.K)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	e.notifyProgress(ProgressEvent{EventType: EventPhaseComplete, Phase: PhaseEmbeddingVote})
	return eucVotes, cosVotes, nil
}
