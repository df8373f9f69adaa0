package ablation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"

	"github.com/promptlabs/promptscope/internal/models"
)

// defaultOracleTimeoutSec bounds a single oracle invocation. Forward passes
// over a validation set are slow; the default is generous.
const defaultOracleTimeoutSec = 3600

// CommandConfig holds the decoded oracle parameters from the run spec.
type CommandConfig struct {
	// Command is the external evaluator executable.
	Command string `mapstructure:"command"`
	// Args are prepended to every invocation.
	Args []string `mapstructure:"args"`
	// TimeoutSec is the maximum duration of one invocation.
	TimeoutSec int `mapstructure:"timeout_seconds"`
}

// RunContext carries the run parameters every oracle request needs: the
// external process owns tokenization and forward passes, so it gets the full
// training-config reference rather than interpreted values.
type RunContext struct {
	SoftPromptName string `json:"soft_prompt"`
	ConfigPath     string `json:"config"`
	Accelerator    string `json:"accelerator"`
	PromptLength   int    `json:"prompt_length"`
	EmbeddingSize  int    `json:"embedding_size"`
	BatchSize      int    `json:"batch_size"`
	UseTestSet     bool   `json:"use_test_set"`
}

// oracleRequest is the JSON document written to the evaluator's stdin.
// The keep policy is flattened back into the invert/shorten flag pair the
// evaluator understands.
type oracleRequest struct {
	Op string `json:"op"`
	RunContext
	Model     *int  `json:"model,omitempty"`
	Positions []int `json:"positions,omitempty"`
	Invert    bool  `json:"invert,omitempty"`
	Shorten   bool  `json:"shorten,omitempty"`
	Models    []int `json:"models,omitempty"`
}

// oracleResponse is the JSON document read from the evaluator's stdout.
type oracleResponse struct {
	Loss   *float64  `json:"loss,omitempty"`
	Models []int     `json:"models,omitempty"`
	Scores []float64 `json:"scores,omitempty"`
	Error  string    `json:"error,omitempty"`
}

// CommandOracle shells out to an external evaluator process for every loss
// figure. One request per invocation, JSON on stdin, JSON on stdout.
type CommandOracle struct {
	cfg    CommandConfig
	runCtx RunContext
}

// NewCommandOracle decodes the oracle parameter map and builds the oracle.
func NewCommandOracle(params map[string]any, runCtx RunContext) (*CommandOracle, error) {
	var cfg CommandConfig
	if err := mapstructure.Decode(params, &cfg); err != nil {
		return nil, fmt.Errorf("ablation: decoding oracle config: %w", err)
	}
	if cfg.Command == "" {
		return nil, fmt.Errorf("ablation: command oracle requires a 'command'")
	}
	if cfg.TimeoutSec <= 0 {
		cfg.TimeoutSec = defaultOracleTimeoutSec
	}
	return &CommandOracle{cfg: cfg, runCtx: runCtx}, nil
}

func (c *CommandOracle) Baseline(ctx context.Context, model models.ModelID) (float64, error) {
	id := int(model)
	resp, err := c.invoke(ctx, oracleRequest{Op: "baseline", RunContext: c.runCtx, Model: &id})
	if err != nil {
		return 0, err
	}
	if resp.Loss == nil {
		return 0, fmt.Errorf("ablation: evaluator returned no loss for baseline of model %s", model)
	}
	return *resp.Loss, nil
}

func (c *CommandOracle) EvaluateSubset(ctx context.Context, req SubsetRequest) (float64, error) {
	id := int(req.Model)
	positions := req.Positions
	if positions == nil {
		positions = []int{}
	}
	resp, err := c.invoke(ctx, oracleRequest{
		Op:         "subset",
		RunContext: c.runCtx,
		Model:      &id,
		Positions:  positions,
		Invert:     req.Invert,
		Shorten:    req.Policy == PolicyCompress,
	})
	if err != nil {
		return 0, err
	}
	if resp.Loss == nil {
		return 0, fmt.Errorf("ablation: evaluator returned no loss for subset of model %s", req.Model)
	}
	return *resp.Loss, nil
}

// AssignImportance implements the bulk variant: the evaluator batches the
// whole drop-out search in one process, which saves a process spawn per
// (model, token) pair.
func (c *CommandOracle) AssignImportance(ctx context.Context, pool models.Pool, promptLength int) (*Assignment, error) {
	ids := make([]int, len(pool))
	for i, m := range pool {
		ids[i] = int(m)
	}
	resp, err := c.invoke(ctx, oracleRequest{Op: "assign", RunContext: c.runCtx, Models: ids})
	if err != nil {
		return nil, err
	}
	if len(resp.Models) != promptLength || len(resp.Scores) != promptLength {
		return nil, fmt.Errorf("ablation: evaluator returned %d assignments and %d scores, want %d",
			len(resp.Models), len(resp.Scores), promptLength)
	}
	asg := &Assignment{
		Models: make([]models.ModelID, promptLength),
		Scores: resp.Scores,
	}
	for t, id := range resp.Models {
		asg.Models[t] = models.ModelID(id)
	}
	return asg, nil
}

func (c *CommandOracle) invoke(ctx context.Context, req oracleRequest) (*oracleResponse, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("ablation: marshaling oracle request: %w", err)
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, time.Duration(c.cfg.TimeoutSec)*time.Second)
	defer cancel()

	cmd := exec.CommandContext(timeoutCtx, c.cfg.Command, c.cfg.Args...)
	cmd.Stdin = bytes.NewReader(payload)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return nil, fmt.Errorf("ablation: evaluator %q failed: %w; stderr: %s", c.cfg.Command, err, msg)
		}
		return nil, fmt.Errorf("ablation: evaluator %q failed: %w", c.cfg.Command, err)
	}

	var resp oracleResponse
	if err := json.Unmarshal(stdout.Bytes(), &resp); err != nil {
		return nil, fmt.Errorf("ablation: parsing evaluator output: %w", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("ablation: evaluator error: %s", resp.Error)
	}
	return &resp, nil
}
