package config_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dcoplib/godcop/config"
	"github.com/dcoplib/godcop/dcop"
	"github.com/dcoplib/godcop/problems"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := config.Parse([]byte("algorithm: maxsum\n"))
	require.NoError(t, err)

	assert.Equal(t, "maxsum", cfg.Algorithm)
	assert.Equal(t, "min", cfg.Mode)
	// Absent keys keep the family defaults.
	assert.Equal(t, 100, cfg.MaxSum.MaxRounds)
	assert.Equal(t, 0.7, cfg.DSA.Probability)
}

func TestParse_FullDocument(t *testing.T) {
	doc := `
algorithm: dsa
mode: max
dsa:
  max_rounds: 30
  activation_probability: 0.5
  variant: accept_equal_or_better
  stable_rounds: 5
  seed: 42
  random_init: true
execution:
  mode: concurrent
  timeout: 5s
  round_timeout: 250ms
  best_effort: true
`
	cfg, err := config.Parse([]byte(doc))
	require.NoError(t, err)

	assert.Equal(t, "dsa", cfg.Algorithm)
	assert.Equal(t, "max", cfg.Mode)
	assert.Equal(t, 30, cfg.DSA.MaxRounds)
	assert.Equal(t, 0.5, cfg.DSA.Probability)
	assert.Equal(t, "accept_equal_or_better", cfg.DSA.Variant)
	assert.Equal(t, int64(42), cfg.DSA.Seed)
	assert.True(t, cfg.DSA.RandomInit)
	assert.Equal(t, "concurrent", cfg.Execution.Mode)
	assert.Equal(t, 5*time.Second, time.Duration(cfg.Execution.Timeout))
	assert.Equal(t, 250*time.Millisecond, time.Duration(cfg.Execution.RoundTimeout))
	assert.True(t, cfg.Execution.BestEffort)
}

func TestParse_Invalid(t *testing.T) {
	cases := map[string]string{
		"unknown algorithm": "algorithm: simulated_annealing\n",
		"missing algorithm": "mode: min\n",
		"bad mode":          "algorithm: dpop\nmode: upward\n",
		"bad probability":   "algorithm: dsa\ndsa:\n  activation_probability: 1.5\n",
		"bad damping":       "algorithm: maxsum\nmaxsum:\n  damping: 2\n",
		"bad variant":       "algorithm: dsa\ndsa:\n  variant: always\n",
		"bad exec mode":     "algorithm: dpop\nexecution:\n  mode: warp\n",
		"bad duration":      "algorithm: dpop\nexecution:\n  timeout: soon\n",
		"not yaml":          ": : :\n",
	}
	for name, doc := range cases {
		_, err := config.Parse([]byte(doc))
		assert.ErrorIs(t, err, config.ErrInvalidConfig, name)
	}
}

func TestLoad_Reader(t *testing.T) {
	cfg, err := config.Load(strings.NewReader("algorithm: dpop\n"))
	require.NoError(t, err)
	assert.Equal(t, "dpop", cfg.Algorithm)
}

func TestSolve_DispatchDPOP(t *testing.T) {
	m, err := problems.Triangle()
	require.NoError(t, err)

	cfg, err := config.Parse([]byte("algorithm: dpop\n"))
	require.NoError(t, err)

	sol, err := cfg.Solve(context.Background(), m)
	require.NoError(t, err)
	assert.Equal(t, "dpop", sol.Algorithm)
	assert.Equal(t, 1.0, sol.Cost)
	assert.True(t, sol.Converged)
}

func TestSolve_DispatchMaxSum(t *testing.T) {
	m, err := problems.RandomTree(6, 3, problems.WithSeed(1))
	require.NoError(t, err)

	cfg, err := config.Parse([]byte("algorithm: maxsum\nmaxsum:\n  damping: 0.2\n"))
	require.NoError(t, err)

	sol, err := cfg.Solve(context.Background(), m)
	require.NoError(t, err)
	assert.Equal(t, "maxsum", sol.Algorithm)
	assert.Len(t, sol.Assignment, 6)
}

func TestSolve_DispatchDSA(t *testing.T) {
	m, err := problems.NotEqualRing(5, 3)
	require.NoError(t, err)

	doc := "algorithm: dsa\ndsa:\n  seed: 7\n  max_rounds: 200\n"
	cfg, err := config.Parse([]byte(doc))
	require.NoError(t, err)

	sol, err := cfg.Solve(context.Background(), m)
	require.NoError(t, err)
	assert.Equal(t, "dsa", sol.Algorithm)
	assert.Len(t, sol.Assignment, 5)
}

func TestSolve_MaximizeMode(t *testing.T) {
	m, err := dcop.NewModel(
		[]dcop.Variable{{ID: "x", Domain: []dcop.Value{0, 1}}},
		[]dcop.Constraint{dcop.Unary("u", "x", map[dcop.Value]float64{0: 1, 1: 5})},
	)
	require.NoError(t, err)

	cfg, err := config.Parse([]byte("algorithm: dpop\nmode: max\n"))
	require.NoError(t, err)

	sol, err := cfg.Solve(context.Background(), m)
	require.NoError(t, err)
	assert.Equal(t, dcop.Maximize, sol.Mode)
	assert.Equal(t, 5.0, sol.Cost)
}
