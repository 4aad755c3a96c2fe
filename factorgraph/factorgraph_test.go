package factorgraph_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dcoplib/godcop/dcop"
	"github.com/dcoplib/godcop/factorgraph"
	"github.com/dcoplib/godcop/problems"
)

func TestBuild_NilModel(t *testing.T) {
	g, err := factorgraph.Build(nil)
	assert.Nil(t, g)
	assert.ErrorIs(t, err, factorgraph.ErrNilModel)
}

func TestBuild_Triangle(t *testing.T) {
	m, err := problems.Triangle()
	require.NoError(t, err)

	g, err := factorgraph.Build(m)
	require.NoError(t, err)

	assert.Equal(t, []string{"v000", "v001", "v002"}, g.VariableIDs)
	require.Len(t, g.FactorIDs, 3)

	// Bipartite: variable nodes neighbor only factors and vice versa.
	for _, id := range g.VariableIDs {
		n := g.Node(id)
		require.NotNil(t, n)
		assert.Equal(t, factorgraph.VariableNode, n.Kind)
		assert.NotNil(t, n.Variable)
		assert.Len(t, n.Neighbors, 2)
		for _, fid := range n.Neighbors {
			assert.Equal(t, factorgraph.FactorNode, g.Node(fid).Kind)
		}
	}
	for _, id := range g.FactorIDs {
		n := g.Node(id)
		require.NotNil(t, n)
		assert.Equal(t, factorgraph.FactorNode, n.Kind)
		assert.NotNil(t, n.Factor)
		assert.Equal(t, n.Factor.Scope(), n.Neighbors)
	}
}

func TestBuild_UnaryAndTernaryDegrees(t *testing.T) {
	vars := []dcop.Variable{
		{ID: "x", Domain: []dcop.Value{0, 1}},
		{ID: "y", Domain: []dcop.Value{0, 1}},
		{ID: "z", Domain: []dcop.Value{0, 1}},
	}
	cons := []dcop.Constraint{
		dcop.Unary("ux", "x", map[dcop.Value]float64{0: 1}),
		dcop.Func("xyz", []string{"x", "y", "z"}, func(vals []dcop.Value) float64 { return 0 }),
	}
	m, err := dcop.NewModel(vars, cons)
	require.NoError(t, err)

	g, err := factorgraph.Build(m)
	require.NoError(t, err)

	assert.Equal(t, []string{"ux", "xyz"}, g.FactorIDs)
	assert.Equal(t, []string{"x"}, g.Node("ux").Neighbors)
	assert.Equal(t, []string{"x", "y", "z"}, g.Node("xyz").Neighbors)
	assert.Equal(t, []string{"ux", "xyz"}, g.Node("x").Neighbors)
	assert.Equal(t, []string{"xyz"}, g.Node("y").Neighbors)
}

func TestBuild_IDCollision(t *testing.T) {
	vars := []dcop.Variable{
		{ID: "x", Domain: []dcop.Value{0, 1}},
		{ID: "y", Domain: []dcop.Value{0, 1}},
	}
	cons := []dcop.Constraint{dcop.NotEqual("x", "x", "y", 1)}
	m, err := dcop.NewModel(vars, cons)
	require.NoError(t, err)

	g, err := factorgraph.Build(m)
	assert.Nil(t, g)
	assert.ErrorIs(t, err, factorgraph.ErrIDCollision)
}

func TestBuild_Deterministic(t *testing.T) {
	m, err := problems.RandomBinary(10, 3, 0.4, problems.WithSeed(3))
	require.NoError(t, err)

	first, err := factorgraph.Build(m)
	require.NoError(t, err)
	second, err := factorgraph.Build(m)
	require.NoError(t, err)

	assert.Equal(t, first.VariableIDs, second.VariableIDs)
	assert.Equal(t, first.FactorIDs, second.FactorIDs)
	for id, n := range first.Nodes {
		assert.Equal(t, n.Neighbors, second.Node(id).Neighbors)
	}
}
