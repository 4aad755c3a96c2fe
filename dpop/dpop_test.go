package dpop_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dcoplib/godcop/dcop"
	"github.com/dcoplib/godcop/dpop"
	"github.com/dcoplib/godcop/exhaustive"
	"github.com/dcoplib/godcop/problems"
	"github.com/dcoplib/godcop/pseudotree"
	"github.com/dcoplib/godcop/runtime"
)

// assertOptimal solves m with DPOP and checks the cost against the
// exhaustive baseline, in the given direction.
func assertOptimal(t *testing.T, m *dcop.Model, mode dcop.Mode) *dcop.Solution {
	t.Helper()
	ctx := context.Background()

	want, err := exhaustive.Solve(ctx, m, exhaustive.WithMode(mode))
	require.NoError(t, err)

	got, err := dpop.Solve(ctx, m, dpop.WithMode(mode))
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, "dpop", got.Algorithm)
	assert.True(t, got.Converged)
	assert.False(t, got.Partial)
	assert.InDelta(t, want.Cost, got.Cost, 1e-9)

	check, err := m.TotalCost(got.Assignment)
	require.NoError(t, err)
	assert.InDelta(t, got.Cost, check, 1e-9)
	return got
}

func TestSolve_SingleVariable(t *testing.T) {
	m, err := problems.Single(0, 1, 2)
	require.NoError(t, err)

	sol, err := dpop.Solve(context.Background(), m)
	require.NoError(t, err)
	assert.Len(t, sol.Assignment, 1)
	assert.True(t, sol.Converged)
}

func TestSolve_Chain(t *testing.T) {
	m, err := problems.Chain(7, 2)
	require.NoError(t, err)
	assertOptimal(t, m, dcop.Minimize)
}

func TestSolve_Triangle(t *testing.T) {
	m, err := problems.Triangle()
	require.NoError(t, err)

	// Two colors on a 3-cycle: exactly one clash is unavoidable.
	sol := assertOptimal(t, m, dcop.Minimize)
	assert.Equal(t, 1.0, sol.Cost)
}

func TestSolve_RingThreeColors(t *testing.T) {
	m, err := problems.NotEqualRing(6, 3)
	require.NoError(t, err)

	sol := assertOptimal(t, m, dcop.Minimize)
	assert.Zero(t, sol.Cost)
}

func TestSolve_RandomTrees(t *testing.T) {
	for seed := int64(1); seed <= 4; seed++ {
		m, err := problems.RandomTree(9, 3, problems.WithSeed(seed))
		require.NoError(t, err)
		assertOptimal(t, m, dcop.Minimize)
	}
}

func TestSolve_RandomGraphsBothModes(t *testing.T) {
	for seed := int64(1); seed <= 4; seed++ {
		m, err := problems.RandomBinary(8, 3, 0.3, problems.WithSeed(seed))
		require.NoError(t, err)
		assertOptimal(t, m, dcop.Minimize)
		assertOptimal(t, m, dcop.Maximize)
	}
}

func TestSolve_Deterministic(t *testing.T) {
	m, err := problems.RandomBinary(8, 3, 0.4, problems.WithSeed(11))
	require.NoError(t, err)

	first, err := dpop.Solve(context.Background(), m)
	require.NoError(t, err)
	second, err := dpop.Solve(context.Background(), m)
	require.NoError(t, err)

	assert.Equal(t, first.Assignment, second.Assignment)
	assert.Equal(t, first.Rounds, second.Rounds)
}

// Star with four children whose projected tables sum to an exact tie at
// the root, but through partial sums that round differently depending on
// the order of accumulation. Repeated runs must agree bit for bit.
func TestSolve_NearTieSummationDeterministic(t *testing.T) {
	dom := []dcop.Value{0, 1}
	low := []float64{0.1, 0.2, 0.3, 0.4}
	high := []float64{0.4, 0.3, 0.2, 0.1}

	vars := []dcop.Variable{{ID: "a", Domain: dom}}
	var cons []dcop.Constraint
	for i, leaf := range []string{"b", "c", "d", "e"} {
		vars = append(vars, dcop.Variable{ID: leaf, Domain: dom})
		c0, c1 := low[i], high[i]
		cons = append(cons, dcop.Func("a"+leaf, []string{"a", leaf},
			func(vals []dcop.Value) float64 {
				if vals[0].(int) == 0 {
					return c0
				}
				return c1
			}))
	}
	m, err := dcop.NewModel(vars, cons)
	require.NoError(t, err)

	first, err := dpop.Solve(context.Background(), m)
	require.NoError(t, err)
	for i := 0; i < 15; i++ {
		again, err := dpop.Solve(context.Background(), m)
		require.NoError(t, err)
		assert.Equal(t, first.Assignment, again.Assignment)
		assert.Equal(t, first.Cost, again.Cost)
	}
}

func TestSolve_ConcurrentMatchesSimulate(t *testing.T) {
	m, err := problems.RandomBinary(8, 3, 0.4, problems.WithSeed(5))
	require.NoError(t, err)

	sim, err := dpop.Solve(context.Background(), m)
	require.NoError(t, err)
	con, err := dpop.Solve(context.Background(), m,
		dpop.WithEngineOptions(runtime.WithExecMode(runtime.ModeConcurrent)))
	require.NoError(t, err)

	assert.Equal(t, sim.Assignment, con.Assignment)
	assert.InDelta(t, sim.Cost, con.Cost, 1e-9)
}

func TestSolve_WithRoot(t *testing.T) {
	m, err := problems.Triangle()
	require.NoError(t, err)

	sol, err := dpop.Solve(context.Background(), m, dpop.WithRoot("v001"))
	require.NoError(t, err)
	assert.Equal(t, 1.0, sol.Cost)
}

func TestSolve_TableOverflow(t *testing.T) {
	m, err := problems.Triangle(problems.WithSeed(1))
	require.NoError(t, err)

	// The deepest triangle node joins a two-variable separator with its
	// own domain; any limit below that product must trip.
	_, err = dpop.Solve(context.Background(), m, dpop.WithMaxTableSize(3))
	require.Error(t, err)
	assert.ErrorIs(t, err, dpop.ErrTableOverflow)

	var overflow *dpop.TableOverflowError
	require.ErrorAs(t, err, &overflow)
	assert.Greater(t, overflow.Size, overflow.Limit)
	assert.NotEmpty(t, overflow.Node)
}

func TestSolve_DisconnectedRejectedByDefault(t *testing.T) {
	m, err := dcop.NewModel(
		[]dcop.Variable{
			{ID: "a0", Domain: []dcop.Value{0, 1}},
			{ID: "a1", Domain: []dcop.Value{0, 1}},
			{ID: "b0", Domain: []dcop.Value{0, 1}},
			{ID: "b1", Domain: []dcop.Value{0, 1}},
		},
		[]dcop.Constraint{
			dcop.NotEqual("ca", "a0", "a1", 1),
			dcop.NotEqual("cb", "b0", "b1", 1),
		},
	)
	require.NoError(t, err)

	_, err = dpop.Solve(context.Background(), m)
	assert.ErrorIs(t, err, pseudotree.ErrDisconnected)

	sol, err := dpop.Solve(context.Background(), m,
		dpop.WithDisconnected(pseudotree.PolicyForest))
	require.NoError(t, err)
	assert.Len(t, sol.Assignment, 4)
	assert.Zero(t, sol.Cost)
}

func TestInducedWidths(t *testing.T) {
	m, err := problems.NotEqualRing(5, 2)
	require.NoError(t, err)

	trees, err := pseudotree.Build(m)
	require.NoError(t, err)
	assert.Equal(t, []int{2}, dpop.InducedWidths(trees))
}
