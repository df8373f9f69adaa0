// Package config carries the resolved settings for one evaluation run: the
// loaded run spec plus everything decided on the command line.
package config

import (
	"path/filepath"

	"github.com/promptlabs/promptscope/internal/models"
)

// EvaluationConfig is an immutable bundle of run settings. Construct it with
// NewEvaluationConfig and functional options; zero values mean "unset".
type EvaluationConfig struct {
	spec *models.RunSpec

	specDir    string
	cacheDir   string
	outputPath string
	verbose    bool
	noCache    bool
}

// Option mutates an EvaluationConfig during construction.
type Option func(*EvaluationConfig)

// NewEvaluationConfig builds a config around a loaded run spec. A nil option
// is a programming error and panics.
func NewEvaluationConfig(spec *models.RunSpec, opts ...Option) *EvaluationConfig {
	cfg := &EvaluationConfig{spec: spec}
	for _, opt := range opts {
		if opt == nil {
			panic("config: nil option")
		}
		opt(cfg)
	}
	return cfg
}

// WithSpecDir records the directory the run spec was loaded from. Relative
// paths inside the spec resolve against it.
func WithSpecDir(dir string) Option {
	return func(c *EvaluationConfig) { c.specDir = dir }
}

// WithCacheDir overrides the spec's report directory.
func WithCacheDir(dir string) Option {
	return func(c *EvaluationConfig) { c.cacheDir = dir }
}

// WithOutputPath sets an extra file the final report is written to.
func WithOutputPath(path string) Option {
	return func(c *EvaluationConfig) { c.outputPath = path }
}

// WithVerbose enables debug logging.
func WithVerbose(verbose bool) Option {
	return func(c *EvaluationConfig) { c.verbose = verbose }
}

// WithNoCache forces a fresh evaluation even when a stored report exists.
func WithNoCache(noCache bool) Option {
	return func(c *EvaluationConfig) { c.noCache = noCache }
}

// Spec returns the loaded run spec.
func (c *EvaluationConfig) Spec() *models.RunSpec { return c.spec }

// SpecDir returns the directory the run spec was loaded from.
func (c *EvaluationConfig) SpecDir() string { return c.specDir }

// OutputPath returns the extra report output path, if any.
func (c *EvaluationConfig) OutputPath() string { return c.outputPath }

// Verbose reports whether debug logging was requested.
func (c *EvaluationConfig) Verbose() bool { return c.verbose }

// NoCache reports whether the stored report must be ignored.
func (c *EvaluationConfig) NoCache() bool { return c.noCache }

// CacheDir resolves the report directory: the command-line override wins,
// then the spec's cache_dir, then "reports" next to the spec file.
func (c *EvaluationConfig) CacheDir() string {
	if c.cacheDir != "" {
		return c.cacheDir
	}
	if c.spec != nil && c.spec.CacheDir != "" {
		return c.resolve(c.spec.CacheDir)
	}
	return c.resolve("reports")
}

// WeightsDir resolves the soft prompt weights directory against the spec dir.
func (c *EvaluationConfig) WeightsDir() string {
	if c.spec == nil {
		return ""
	}
	return c.resolve(c.spec.WeightsDir)
}

// EmbeddingsDir resolves the embedding matrices directory against the spec
// dir.
func (c *EvaluationConfig) EmbeddingsDir() string {
	if c.spec == nil {
		return ""
	}
	return c.resolve(c.spec.EmbeddingsDir)
}

func (c *EvaluationConfig) resolve(path string) string {
	if path == "" || filepath.IsAbs(path) || c.specDir == "" {
		return path
	}
	return filepath.Join(c.specDir, path)
}
