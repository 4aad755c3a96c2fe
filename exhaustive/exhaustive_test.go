package exhaustive_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dcoplib/godcop/dcop"
	"github.com/dcoplib/godcop/exhaustive"
	"github.com/dcoplib/godcop/problems"
)

func TestSolve_NilModel(t *testing.T) {
	sol, err := exhaustive.Solve(context.Background(), nil)
	assert.Nil(t, sol)
	assert.ErrorIs(t, err, exhaustive.ErrNilModel)
}

func TestSolve_KnownOptimum(t *testing.T) {
	// x != y with a unary bias pulling x to 1: the optimum is x=1, y=0.
	m, err := dcop.NewModel(
		[]dcop.Variable{
			{ID: "x", Domain: []dcop.Value{0, 1}},
			{ID: "y", Domain: []dcop.Value{0, 1}},
		},
		[]dcop.Constraint{
			dcop.NotEqual("xy", "x", "y", 10),
			dcop.Unary("bias", "x", map[dcop.Value]float64{0: 1, 1: 0}),
		},
	)
	require.NoError(t, err)

	sol, err := exhaustive.Solve(context.Background(), m)
	require.NoError(t, err)
	assert.Equal(t, dcop.Assignment{"x": 1, "y": 0}, sol.Assignment)
	assert.Zero(t, sol.Cost)
	assert.True(t, sol.Converged)
	assert.Equal(t, "exhaustive", sol.Algorithm)
}

func TestSolve_MaximizeFlipsDirection(t *testing.T) {
	m, err := dcop.NewModel(
		[]dcop.Variable{{ID: "x", Domain: []dcop.Value{0, 1, 2}}},
		[]dcop.Constraint{
			dcop.Unary("u", "x", map[dcop.Value]float64{0: 5, 1: 1, 2: 3}),
		},
	)
	require.NoError(t, err)

	low, err := exhaustive.Solve(context.Background(), m)
	require.NoError(t, err)
	assert.Equal(t, 1.0, low.Cost)
	assert.Equal(t, 1, low.Assignment["x"])

	high, err := exhaustive.Solve(context.Background(), m, exhaustive.WithMode(dcop.Maximize))
	require.NoError(t, err)
	assert.Equal(t, 5.0, high.Cost)
	assert.Equal(t, 0, high.Assignment["x"])
}

func TestSolve_FirstOptimumWinsTies(t *testing.T) {
	// Every assignment costs the same, so enumeration order decides.
	m, err := problems.Single(2, 0, 1)
	require.NoError(t, err)

	first, err := exhaustive.Solve(context.Background(), m)
	require.NoError(t, err)
	second, err := exhaustive.Solve(context.Background(), m)
	require.NoError(t, err)
	assert.Equal(t, first.Assignment, second.Assignment)
	assert.Equal(t, 2, first.Assignment["v000"])
}

func TestSolve_SearchSpaceTooLarge(t *testing.T) {
	m, err := problems.NotEqualRing(8, 3)
	require.NoError(t, err)

	sol, err := exhaustive.Solve(context.Background(), m, exhaustive.WithMaxStates(100))
	assert.Nil(t, sol)
	assert.ErrorIs(t, err, exhaustive.ErrSearchSpaceTooLarge)
}

func TestSolve_Canceled(t *testing.T) {
	m, err := problems.NotEqualRing(8, 3)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sol, err := exhaustive.Solve(ctx, m)
	assert.Nil(t, sol)
	assert.ErrorIs(t, err, context.Canceled)
}
