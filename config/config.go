// Package config is the algorithm-selection surface of godcop: one
// YAML-taggable Config naming a solver family plus its family-specific
// options, validated with struct tags, and dispatched onto the solver
// packages.
//
// The package deliberately does not read problem files - the model always
// arrives as an in-memory *dcop.Model from the caller's loader. Config
// only selects and parameterizes the algorithm and the engine.
//
// Example:
//
//	cfg, err := config.Parse([]byte(`
//	algorithm: dsa
//	mode: min
//	dsa:
//	  max_rounds: 30
//	  activation_probability: 0.5
//	  variant: accept_equal_or_better
//	execution:
//	  mode: simulate
//	  timeout: 5s
//	`))
//	if err != nil { ... }
//	sol, err := cfg.Solve(ctx, model)
//
// Errors:
//
//   - ErrInvalidConfig    - YAML or validation failure (wrapped cause).
//   - ErrUnknownAlgorithm - Solve on an unconfigured algorithm name.
package config

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/dcoplib/godcop/dcop"
	"github.com/dcoplib/godcop/dpop"
	"github.com/dcoplib/godcop/dsa"
	"github.com/dcoplib/godcop/maxsum"
	"github.com/dcoplib/godcop/pseudotree"
	"github.com/dcoplib/godcop/runtime"
)

// Sentinel errors of the config surface.
var (
	// ErrInvalidConfig wraps YAML decoding and validation failures.
	ErrInvalidConfig = errors.New("config: invalid configuration")

	// ErrUnknownAlgorithm indicates an algorithm name outside
	// {dpop, maxsum, dsa}.
	ErrUnknownAlgorithm = errors.New("config: unknown algorithm")
)

// Duration wraps time.Duration with YAML string decoding ("5s", "250ms").
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("%w: bad duration %q", ErrInvalidConfig, raw)
	}
	*d = Duration(parsed)
	return nil
}

// Config selects one solver family and its options.
type Config struct {
	// Algorithm is one of "dpop", "maxsum", "dsa".
	Algorithm string `yaml:"algorithm" validate:"required,oneof=dpop maxsum dsa"`

	// Mode is "min" (default) or "max".
	Mode string `yaml:"mode" validate:"omitempty,oneof=min max"`

	// DPOP options; only consulted when Algorithm is "dpop".
	DPOP DPOPConfig `yaml:"dpop"`

	// MaxSum options; only consulted when Algorithm is "maxsum".
	MaxSum MaxSumConfig `yaml:"maxsum"`

	// DSA options; only consulted when Algorithm is "dsa".
	DSA DSAConfig `yaml:"dsa"`

	// Execution configures the engine regardless of family.
	Execution ExecConfig `yaml:"execution"`
}

// DPOPConfig carries DPOP's resource and structure options. DPOP has no
// algorithmic tunables.
type DPOPConfig struct {
	// MaxTableSize caps utility tables (entries); 0 keeps the default.
	MaxTableSize int `yaml:"max_table_size" validate:"gte=0"`

	// Root forces the pseudo-tree root variable.
	Root string `yaml:"root"`

	// SolveComponents solves disconnected components independently
	// instead of rejecting a disconnected graph.
	SolveComponents bool `yaml:"solve_components"`
}

// MaxSumConfig carries the belief-propagation tunables.
type MaxSumConfig struct {
	MaxRounds    int     `yaml:"max_rounds" validate:"gt=0"`
	Damping      float64 `yaml:"damping" validate:"gte=0,lte=1"`
	Epsilon      float64 `yaml:"convergence_epsilon" validate:"gte=0"`
	StableRounds int     `yaml:"stable_rounds" validate:"gt=0"`
}

// DSAConfig carries the local-search tunables.
type DSAConfig struct {
	MaxRounds    int     `yaml:"max_rounds" validate:"gt=0"`
	Probability  float64 `yaml:"activation_probability" validate:"gt=0,lte=1"`
	Variant      string  `yaml:"variant" validate:"omitempty,oneof=accept_strictly_better accept_equal_or_better"`
	StableRounds int     `yaml:"stable_rounds" validate:"gt=0"`
	Seed         int64   `yaml:"seed"`
	RandomInit   bool    `yaml:"random_init"`
}

// ExecConfig configures the engine across all families.
type ExecConfig struct {
	// Mode is "simulate" (default) or "concurrent".
	Mode string `yaml:"mode" validate:"omitempty,oneof=simulate concurrent"`

	// Timeout bounds the whole run ("5s"); zero disables.
	Timeout Duration `yaml:"timeout"`

	// RoundTimeout bounds each round; zero disables.
	RoundTimeout Duration `yaml:"round_timeout"`

	// BestEffort returns a partial Solution on abort.
	BestEffort bool `yaml:"best_effort"`

	// StrictConvergence turns budget exhaustion into an error.
	StrictConvergence bool `yaml:"strict_convergence"`
}

// Default returns a Config with every family's defaults filled in.
// Parse decodes on top of it, so absent YAML keys keep defaults. The
// algorithm itself has no default and must always be named.
func Default() Config {
	return Config{
		Mode: "min",
		MaxSum: MaxSumConfig{
			MaxRounds:    maxsum.DefaultMaxRounds,
			Epsilon:      maxsum.DefaultEpsilon,
			StableRounds: maxsum.DefaultStableRounds,
		},
		DSA: DSAConfig{
			MaxRounds:    dsa.DefaultMaxRounds,
			Probability:  dsa.DefaultProbability,
			Variant:      "accept_strictly_better",
			StableRounds: dsa.DefaultStableRounds,
		},
	}
}

// Parse decodes YAML over Default() and validates the result.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Load reads all of r and parses it.
func Load(r io.Reader) (Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return Parse(data)
}

// Validate checks the struct tags.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// mode converts the textual mode.
func (c Config) mode() dcop.Mode {
	if c.Mode == "max" {
		return dcop.Maximize
	}
	return dcop.Minimize
}

// engineOptions assembles the runtime passthrough common to all families.
func (c Config) engineOptions() []runtime.Option {
	var opts []runtime.Option
	if c.Execution.Mode == "concurrent" {
		opts = append(opts, runtime.WithExecMode(runtime.ModeConcurrent))
	}
	if d := time.Duration(c.Execution.Timeout); d > 0 {
		opts = append(opts, runtime.WithTimeout(d))
	}
	if d := time.Duration(c.Execution.RoundTimeout); d > 0 {
		opts = append(opts, runtime.WithRoundTimeout(d))
	}
	if c.Execution.BestEffort {
		opts = append(opts, runtime.WithBestEffort())
	}
	if c.Execution.StrictConvergence {
		opts = append(opts, runtime.WithStrictConvergence())
	}
	return opts
}

// Solve dispatches the configured algorithm on m.
func (c Config) Solve(ctx context.Context, m *dcop.Model) (*dcop.Solution, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	eng := c.engineOptions()

	switch c.Algorithm {
	case "dpop":
		opts := []dpop.Option{
			dpop.WithMode(c.mode()),
			dpop.WithEngineOptions(eng...),
		}
		if c.DPOP.MaxTableSize > 0 {
			opts = append(opts, dpop.WithMaxTableSize(c.DPOP.MaxTableSize))
		}
		if c.DPOP.Root != "" {
			opts = append(opts, dpop.WithRoot(c.DPOP.Root))
		}
		if c.DPOP.SolveComponents {
			opts = append(opts, dpop.WithDisconnected(pseudotree.PolicyForest))
		}
		return dpop.Solve(ctx, m, opts...)

	case "maxsum":
		return maxsum.Solve(ctx, m,
			maxsum.WithMode(c.mode()),
			maxsum.WithMaxRounds(c.MaxSum.MaxRounds),
			maxsum.WithDamping(c.MaxSum.Damping),
			maxsum.WithEpsilon(c.MaxSum.Epsilon),
			maxsum.WithStableRounds(c.MaxSum.StableRounds),
			maxsum.WithEngineOptions(eng...),
		)

	case "dsa":
		variant := dsa.AcceptStrictlyBetter
		if c.DSA.Variant == "accept_equal_or_better" {
			variant = dsa.AcceptEqualOrBetter
		}
		opts := []dsa.Option{
			dsa.WithMode(c.mode()),
			dsa.WithMaxRounds(c.DSA.MaxRounds),
			dsa.WithProbability(c.DSA.Probability),
			dsa.WithVariant(variant),
			dsa.WithStableRounds(c.DSA.StableRounds),
			dsa.WithSeed(c.DSA.Seed),
			dsa.WithEngineOptions(eng...),
		}
		if c.DSA.RandomInit {
			opts = append(opts, dsa.WithRandomInit())
		}
		return dsa.Solve(ctx, m, opts...)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, c.Algorithm)
}
