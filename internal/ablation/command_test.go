package ablation

import (
	"context"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptlabs/promptscope/internal/models"
)

func testRunContext() RunContext {
	return RunContext{
		SoftPromptName: "sp-demo",
		ConfigPath:     "configs/demo.yml",
		Accelerator:    "cuda",
		PromptLength:   4,
		EmbeddingSize:  8,
		BatchSize:      128,
	}
}

func TestNewCommandOracle_Config(t *testing.T) {
	t.Run("requires command", func(t *testing.T) {
		_, err := NewCommandOracle(map[string]any{}, testRunContext())
		require.ErrorContains(t, err, "command")
	})

	t.Run("default timeout", func(t *testing.T) {
		o, err := NewCommandOracle(map[string]any{"command": "echo"}, testRunContext())
		require.NoError(t, err)
		require.Equal(t, defaultOracleTimeoutSec, o.cfg.TimeoutSec)
	})

	t.Run("custom timeout and args", func(t *testing.T) {
		o, err := NewCommandOracle(map[string]any{
			"command":         "python",
			"args":            []string{"eval.py"},
			"timeout_seconds": 60,
		}, testRunContext())
		require.NoError(t, err)
		require.Equal(t, 60, o.cfg.TimeoutSec)
		require.Equal(t, []string{"eval.py"}, o.cfg.Args)
	})
}

func TestCommandOracle_Invoke(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("skipping command oracle tests on Windows")
	}

	shOracle := func(t *testing.T, script string) *CommandOracle {
		o, err := NewCommandOracle(map[string]any{
			"command": "sh",
			"args":    []string{"-c", script},
		}, testRunContext())
		require.NoError(t, err)
		return o
	}

	t.Run("baseline parses loss", func(t *testing.T) {
		o := shOracle(t, `echo '{"loss": 2.5}'`)

		loss, err := o.Baseline(context.Background(), 3)
		require.NoError(t, err)
		assert.Equal(t, 2.5, loss)
	})

	t.Run("request is passed via stdin", func(t *testing.T) {
		// The evaluator echoes the request's op back as an error so the
		// test can observe what arrived on stdin.
		o := shOracle(t, `printf '{"error": "saw op %s"}' "$(sed -n 's/.*"op":"\([a-z]*\)".*/\1/p')"`)

		_, err := o.EvaluateSubset(context.Background(), SubsetRequest{Model: 0, Positions: []int{1}})
		require.ErrorContains(t, err, "saw op subset")
	})

	t.Run("evaluator error is surfaced", func(t *testing.T) {
		o := shOracle(t, `echo '{"error": "no such soft prompt"}'`)

		_, err := o.Baseline(context.Background(), 0)
		require.ErrorContains(t, err, "no such soft prompt")
	})

	t.Run("non-zero exit includes stderr", func(t *testing.T) {
		o := shOracle(t, `echo boom >&2; exit 3`)

		_, err := o.Baseline(context.Background(), 0)
		require.ErrorContains(t, err, "boom")
	})

	t.Run("missing loss is an error", func(t *testing.T) {
		o := shOracle(t, `echo '{}'`)

		_, err := o.Baseline(context.Background(), 0)
		require.ErrorContains(t, err, "no loss")
	})

	t.Run("bulk assignment", func(t *testing.T) {
		o := shOracle(t, `echo '{"models": [1, 0, 0, 1], "scores": [0.4, 0.3, 0.2, 0.1]}'`)

		asg, err := o.AssignImportance(context.Background(), models.Pool{0, 1}, 4)
		require.NoError(t, err)
		assert.Equal(t, []models.ModelID{1, 0, 0, 1}, asg.Models)
		assert.Equal(t, []float64{0.4, 0.3, 0.2, 0.1}, asg.Scores)
	})

	t.Run("bulk assignment with wrong length", func(t *testing.T) {
		o := shOracle(t, `echo '{"models": [1], "scores": [0.4]}'`)

		_, err := o.AssignImportance(context.Background(), models.Pool{0, 1}, 4)
		require.Error(t, err)
	})
}
