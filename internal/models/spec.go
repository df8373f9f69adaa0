package models

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Default run parameters, applied when the spec file leaves them unset.
const (
	DefaultPromptLength  = 16
	DefaultEmbeddingSize = 768
	DefaultK             = 7
	DefaultBatchSize     = 128
	DefaultAccelerator   = "cuda"
)

// RunSpec describes one token relevance evaluation: which soft prompt to
// attribute, against which model pool, and with which oracle behind the loss
// evaluations.
type RunSpec struct {
	SpecIdentity  `yaml:",inline"`
	SoftPrompt    string       `yaml:"soft_prompt"`
	ModelNumbers  []int        `yaml:"models"`
	ConfigPath    string       `yaml:"config"`
	Accelerator   string       `yaml:"accelerator,omitempty"`
	PromptLength  int          `yaml:"prompt_length,omitempty"`
	EmbeddingSize int          `yaml:"embedding_size,omitempty"`
	K             int          `yaml:"k,omitempty"`
	BatchSize     int          `yaml:"batch_size,omitempty"`
	UseTestSet    bool         `yaml:"use_test_set,omitempty"`
	WeightsDir    string       `yaml:"weights_dir"`
	EmbeddingsDir string       `yaml:"embeddings_dir"`
	Oracle        OracleConfig `yaml:"oracle"`
	CacheDir      string       `yaml:"cache_dir,omitempty"`
}

type SpecIdentity struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// OracleConfig selects and parameterizes the ablation loss oracle. Parameters
// are decoded by the oracle implementation itself (mapstructure), so new
// oracle kinds don't ripple through the spec schema.
type OracleConfig struct {
	Kind       string         `yaml:"type"`
	Parameters map[string]any `yaml:"config,omitempty"`
}

// LoadRunSpec loads a run spec from a YAML file, applies defaults and
// validates it.
func LoadRunSpec(path string) (*RunSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var spec RunSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, err
	}

	spec.ApplyDefaults()
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	return &spec, nil
}

// ApplyDefaults fills unset parameters with the standard defaults.
func (s *RunSpec) ApplyDefaults() {
	if s.PromptLength == 0 {
		s.PromptLength = DefaultPromptLength
	}
	if s.EmbeddingSize == 0 {
		s.EmbeddingSize = DefaultEmbeddingSize
	}
	if s.K == 0 {
		s.K = DefaultK
	}
	if s.BatchSize == 0 {
		s.BatchSize = DefaultBatchSize
	}
	if s.Accelerator == "" {
		s.Accelerator = DefaultAccelerator
	}
	if s.Oracle.Kind == "" {
		s.Oracle.Kind = "command"
	}
}

// Validate checks that the spec is runnable.
func (s *RunSpec) Validate() error {
	if s.SoftPrompt == "" {
		return fmt.Errorf("soft_prompt is required")
	}
	if len(s.ModelNumbers) == 0 {
		return fmt.Errorf("models must list at least one model number")
	}
	for _, id := range s.ModelNumbers {
		if id < 0 {
			return fmt.Errorf("model number %d is invalid: must be >= 0", id)
		}
	}
	if s.PromptLength < 1 {
		return fmt.Errorf("prompt_length must be at least 1, got %d", s.PromptLength)
	}
	if s.EmbeddingSize < 1 {
		return fmt.Errorf("embedding_size must be at least 1, got %d", s.EmbeddingSize)
	}
	if s.K < 1 {
		return fmt.Errorf("k must be at least 1, got %d", s.K)
	}
	if s.BatchSize < 1 {
		return fmt.Errorf("batch_size must be at least 1, got %d", s.BatchSize)
	}
	return nil
}

// Pool returns the deduplicated model pool in spec order.
func (s *RunSpec) Pool() Pool {
	return NewPool(s.ModelNumbers)
}
