package problems_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dcoplib/godcop/dcop"
	"github.com/dcoplib/godcop/problems"
)

func TestSingle(t *testing.T) {
	m, err := problems.Single()
	require.NoError(t, err)
	require.Len(t, m.Variables(), 1)
	assert.Empty(t, m.Constraints())
	assert.Equal(t, []dcop.Value{0, 1}, m.Variables()[0].Domain)

	m, err = problems.Single("red", "green")
	require.NoError(t, err)
	assert.Equal(t, []dcop.Value{"red", "green"}, m.Variables()[0].Domain)
}

func TestNotEqualRing(t *testing.T) {
	m, err := problems.NotEqualRing(5, 3)
	require.NoError(t, err)
	assert.Len(t, m.Variables(), 5)
	assert.Len(t, m.Constraints(), 5)
	assert.True(t, m.Connected())

	// Every variable sits in exactly two ring constraints.
	for _, v := range m.Variables() {
		assert.Len(t, m.ConstraintsOn(v.ID), 2)
	}
}

func TestNotEqualRing_Validation(t *testing.T) {
	_, err := problems.NotEqualRing(2, 3)
	assert.ErrorIs(t, err, problems.ErrTooFewVariables)

	_, err = problems.NotEqualRing(3, 1)
	assert.ErrorIs(t, err, problems.ErrTooFewColors)
}

func TestTriangle_PenaltyOption(t *testing.T) {
	m, err := problems.Triangle(problems.WithPenalty(7))
	require.NoError(t, err)

	// All equal violates all three constraints.
	cost, err := m.TotalCost(dcop.Assignment{"v000": 0, "v001": 0, "v002": 0})
	require.NoError(t, err)
	assert.Equal(t, 21.0, cost)
}

func TestChain_IsTree(t *testing.T) {
	m, err := problems.Chain(6, 2)
	require.NoError(t, err)
	assert.Len(t, m.Constraints(), 5)
	assert.True(t, m.Connected())

	// Alternating colors satisfy a chain.
	a := dcop.Assignment{}
	for i, v := range m.Variables() {
		a[v.ID] = i % 2
	}
	cost, err := m.TotalCost(a)
	require.NoError(t, err)
	assert.Zero(t, cost)
}

func TestRandomTree_SeedReproducible(t *testing.T) {
	first, err := problems.RandomTree(10, 3, problems.WithSeed(42))
	require.NoError(t, err)
	second, err := problems.RandomTree(10, 3, problems.WithSeed(42))
	require.NoError(t, err)

	require.Len(t, first.Constraints(), 9)
	assert.True(t, first.Connected())

	// Same seed, same shape, same cost tables.
	a := dcop.Assignment{}
	for i, v := range first.Variables() {
		a[v.ID] = (i * 2) % 3
	}
	c1, err := first.TotalCost(a)
	require.NoError(t, err)
	c2, err := second.TotalCost(a)
	require.NoError(t, err)
	assert.Equal(t, c1, c2)

	other, err := problems.RandomTree(10, 3, problems.WithSeed(43))
	require.NoError(t, err)
	c3, err := other.TotalCost(a)
	require.NoError(t, err)
	assert.NotEqual(t, c1, c3)
}

func TestRandomBinary_ConnectedAndBounded(t *testing.T) {
	m, err := problems.RandomBinary(12, 3, 0.5,
		problems.WithSeed(7), problems.WithMaxCost(5))
	require.NoError(t, err)
	assert.True(t, m.Connected())
	assert.GreaterOrEqual(t, len(m.Constraints()), 11)

	a := dcop.Assignment{}
	for _, v := range m.Variables() {
		a[v.ID] = 0
	}
	for _, c := range m.Constraints() {
		cost, err := dcop.ConstraintCost(c, a)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, cost, 0.0)
		assert.Less(t, cost, 5.0)
	}
}

func TestRandomBinary_BadProbability(t *testing.T) {
	_, err := problems.RandomBinary(5, 2, 1.5)
	assert.ErrorIs(t, err, problems.ErrBadProbability)
}

func TestWithAgents_RoundRobin(t *testing.T) {
	m, err := problems.Chain(5, 2, problems.WithAgents(2))
	require.NoError(t, err)

	assert.Equal(t, "a0", m.Variable("v000").Agent)
	assert.Equal(t, "a1", m.Variable("v001").Agent)
	assert.Equal(t, "a0", m.Variable("v002").Agent)
	assert.Equal(t, []string{"a0", "a1"}, m.Agents())
}
