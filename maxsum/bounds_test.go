package maxsum

import (
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dcoplib/godcop/dcop"
	"github.com/dcoplib/godcop/factorgraph"
	"github.com/dcoplib/godcop/transport"
)

// loopyAsymmetricRing builds a 4-cycle with a chord, each edge carrying a
// distinct asymmetric cost table, so the factor graph is loopy and the
// message dynamics never collapse to the all-zero fixed point.
func loopyAsymmetricRing(t *testing.T) *dcop.Model {
	t.Helper()
	dom := []dcop.Value{0, 1, 2}
	vars := make([]dcop.Variable, 4)
	for i := range vars {
		vars[i] = dcop.Variable{ID: fmt.Sprintf("x%d", i), Domain: dom}
	}
	edges := [][2]int{{0, 1}, {1, 2}, {2, 3}, {3, 0}, {0, 2}}
	cons := make([]dcop.Constraint, 0, len(edges))
	for e, pair := range edges {
		shift := e
		cons = append(cons, dcop.Func(
			fmt.Sprintf("e%d", e),
			[]string{vars[pair[0]].ID, vars[pair[1]].ID},
			func(vals []dcop.Value) float64 {
				return float64((3*vals[0].(int) + 5*vals[1].(int) + shift) % 7)
			}))
	}
	m, err := dcop.NewModel(vars, cons)
	require.NoError(t, err)
	return m
}

// Variable-to-factor messages are normalized to a zero best entry; the
// factor-to-variable direction is not, its range being capped by the
// factor's own cost range instead. Driving a loopy asymmetric instance
// for many rounds checks that this one-sided normalization keeps every
// emitted entry bounded.
func TestMessages_BoundedOverManyRounds(t *testing.T) {
	m := loopyAsymmetricRing(t)
	g, err := factorgraph.Build(m)
	require.NoError(t, err)
	comps, err := NewComputations(m, g)
	require.NoError(t, err)

	ctx := context.Background()
	inbox := make(map[string][]transport.Message)
	maxAbs := 0.0

	for round := 0; round < 400; round++ {
		next := make(map[string][]transport.Message)
		for _, c := range comps {
			in := inbox[c.ID()]
			if round > 0 && len(in) == 0 {
				continue
			}
			if round == 0 {
				in = nil
			}
			st, err := c.Advance(ctx, in)
			require.NoError(t, err)
			for _, out := range st.Outbound {
				for _, v := range out.Payload.(beliefPayload).costs {
					if a := math.Abs(v); a > maxAbs {
						maxAbs = a
					}
				}
				next[out.To] = append(next[out.To], transport.Message{
					From: c.ID(), To: out.To, Payload: out.Payload,
				})
			}
		}
		inbox = next
	}

	// Cost tables stay in [0, 6] and no variable has more than three
	// factors, so any entry past this bound means unbounded drift.
	assert.Greater(t, maxAbs, 0.0)
	assert.LessOrEqual(t, maxAbs, 50.0)
}
