package ablation

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"

	"github.com/promptlabs/promptscope/internal/models"
)

// staticConfig is the parameter shape for the static oracle: fixed baselines
// and per-token contribution tables, keyed by model number.
type staticConfig struct {
	Baselines     map[int]float64   `mapstructure:"baselines"`
	Contributions map[int][]float64 `mapstructure:"contributions"`
}

// NewOracle builds the oracle named by the run spec. "command" shells out to
// an external evaluator; "static" answers from fixed tables, which is useful
// for dry runs and pipeline debugging without a GPU.
func NewOracle(cfg models.OracleConfig, runCtx RunContext) (Oracle, error) {
	switch cfg.Kind {
	case "command":
		return NewCommandOracle(cfg.Parameters, runCtx)
	case "static":
		return newStaticOracle(cfg.Parameters, runCtx.PromptLength)
	default:
		return nil, fmt.Errorf("ablation: unknown oracle type %q", cfg.Kind)
	}
}

func newStaticOracle(params map[string]any, promptLength int) (*StaticOracle, error) {
	var cfg staticConfig
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		// YAML map keys arrive as strings; weak decoding turns them back
		// into model numbers.
		WeaklyTypedInput: true,
		Result:           &cfg,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(params); err != nil {
		return nil, fmt.Errorf("ablation: decoding static oracle config: %w", err)
	}

	oracle := &StaticOracle{
		PromptLength:  promptLength,
		Baselines:     make(map[models.ModelID]float64, len(cfg.Baselines)),
		Contributions: make(map[models.ModelID][]float64, len(cfg.Contributions)),
	}
	for id, base := range cfg.Baselines {
		oracle.Baselines[models.ModelID(id)] = base
	}
	for id, contrib := range cfg.Contributions {
		if len(contrib) != promptLength {
			return nil, fmt.Errorf("ablation: static oracle model %d has %d contributions, want %d", id, len(contrib), promptLength)
		}
		oracle.Contributions[models.ModelID(id)] = contrib
	}
	return oracle, nil
}
