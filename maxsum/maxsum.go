// Package maxsum - variable and factor node state machines plus the solve
// entry point.
package maxsum

import (
	"context"
	"fmt"

	"github.com/dcoplib/godcop/dcop"
	"github.com/dcoplib/godcop/factorgraph"
	"github.com/dcoplib/godcop/runtime"
	"github.com/dcoplib/godcop/transport"
)

// beliefPayload carries one cost vector along a factor-graph edge. The
// vector is indexed by the domain positions of the variable on that edge.
type beliefPayload struct {
	costs []float64
}

// Kind implements transport.Payload.
func (beliefPayload) Kind() string { return "maxsum.belief" }

// NewComputations builds one runtime computation per factor-graph node.
func NewComputations(m *dcop.Model, g *factorgraph.Graph, opts ...Option) ([]runtime.Computation, error) {
	if m == nil {
		return nil, runtime.ErrNilModel
	}
	o := DefaultOptions()
	for _, fn := range opts {
		fn(&o)
	}

	comps := make([]runtime.Computation, 0, len(g.VariableIDs)+len(g.FactorIDs))
	for _, id := range g.VariableIDs {
		n := g.Node(id)
		comps = append(comps, &varComp{
			id:        id,
			v:         n.Variable,
			neighbors: n.Neighbors,
			mode:      o.Mode,
			damping:   o.Damping,
			in:        make(map[string][]float64, len(n.Neighbors)),
			lastSent:  make(map[string][]float64, len(n.Neighbors)),
			committed: -1,
		})
	}
	for _, id := range g.FactorIDs {
		n := g.Node(id)
		fc := &facComp{
			id:        id,
			factor:    n.Factor,
			neighbors: n.Neighbors,
			mode:      o.Mode,
			damping:   o.Damping,
			in:        make(map[string][]float64, len(n.Neighbors)),
			lastSent:  make(map[string][]float64, len(n.Neighbors)),
			vars:      make(map[string]*dcop.Variable, len(n.Neighbors)),
		}
		for _, varID := range n.Neighbors {
			fc.vars[varID] = m.Variable(varID)
		}
		comps = append(comps, fc)
	}
	return comps, nil
}

// varComp is the variable-node state machine.
type varComp struct {
	id        string
	v         *dcop.Variable
	neighbors []string // factor IDs
	mode      dcop.Mode
	damping   float64

	in        map[string][]float64 // latest factor -> variable vector
	lastSent  map[string][]float64
	committed int
}

func (c *varComp) ID() string { return c.id }

func (c *varComp) Value() (string, dcop.Value, bool) {
	if c.committed < 0 {
		return c.id, nil, false
	}
	return c.id, c.v.Domain[c.committed], true
}

func (c *varComp) Advance(ctx context.Context, inbound []transport.Message) (runtime.Step, error) {
	if err := ctx.Err(); err != nil {
		return runtime.Step{}, err
	}

	for _, msg := range inbound {
		p, ok := msg.Payload.(beliefPayload)
		if !ok || len(p.costs) != len(c.v.Domain) {
			return runtime.Step{}, fmt.Errorf("maxsum: variable %q: bad belief from %q", c.id, msg.From)
		}
		c.in[msg.From] = p.costs
	}

	// An isolated variable exchanges nothing: commit the first (best)
	// value immediately and finish.
	if len(c.neighbors) == 0 {
		c.committed = 0
		return runtime.Step{Done: true, Changed: true}, nil
	}

	step := runtime.Step{}

	// Send, per factor, the sum of every other factor's vector,
	// normalized so the best entry is zero (numeric stability), damped
	// against the previous emission.
	for _, f := range c.neighbors {
		out := make([]float64, len(c.v.Domain))
		for _, g := range c.neighbors {
			if g == f {
				continue
			}
			if vec, ok := c.in[g]; ok {
				for i := range out {
					out[i] += vec[i]
				}
			}
		}
		normalize(out, c.mode)
		out, delta := damp(out, c.lastSent[f], c.damping)
		c.lastSent[f] = out
		if delta > step.Delta {
			step.Delta = delta
		}
		step.Outbound = append(step.Outbound, runtime.Outbound{To: f, Payload: beliefPayload{costs: out}})
	}

	// Select the value with the best total belief; first index wins ties.
	// Summation follows the fixed neighbor order so the floating-point
	// total is reproducible across runs.
	sums := make([]float64, len(c.v.Domain))
	for _, f := range c.neighbors {
		vec, ok := c.in[f]
		if !ok {
			continue
		}
		for i := range sums {
			sums[i] += vec[i]
		}
	}
	best := 0
	for i := 1; i < len(sums); i++ {
		if c.mode.Better(sums[i], sums[best]) {
			best = i
		}
	}
	if best != c.committed {
		c.committed = best
		step.Changed = true
	}
	return step, nil
}

// facComp is the factor-node state machine.
type facComp struct {
	id        string
	factor    dcop.Constraint
	neighbors []string // variable IDs, scope order, deduplicated
	mode      dcop.Mode
	damping   float64

	vars     map[string]*dcop.Variable
	in       map[string][]float64 // latest variable -> factor vector
	lastSent map[string][]float64
}

func (c *facComp) ID() string { return c.id }

// Value implements runtime.Computation; factors decide no variable.
func (c *facComp) Value() (string, dcop.Value, bool) { return "", nil, false }

func (c *facComp) Advance(ctx context.Context, inbound []transport.Message) (runtime.Step, error) {
	if err := ctx.Err(); err != nil {
		return runtime.Step{}, err
	}

	for _, msg := range inbound {
		p, ok := msg.Payload.(beliefPayload)
		if !ok || len(p.costs) != len(c.vars[msg.From].Domain) {
			return runtime.Step{}, fmt.Errorf("maxsum: factor %q: bad belief from %q", c.id, msg.From)
		}
		c.in[msg.From] = p.costs
	}

	step := runtime.Step{}
	for _, target := range c.neighbors {
		out := c.marginal(target)
		out, delta := damp(out, c.lastSent[target], c.damping)
		c.lastSent[target] = out
		if delta > step.Delta {
			step.Delta = delta
		}
		step.Outbound = append(step.Outbound, runtime.Outbound{To: target, Payload: beliefPayload{costs: out}})
	}
	return step, nil
}

// marginal computes the factor -> target message: for each target value,
// the best achievable (cost + sum of other variables' beliefs) over every
// combination of the remaining scope variables.
func (c *facComp) marginal(target string) []float64 {
	tv := c.vars[target]
	out := make([]float64, len(tv.Domain))

	others := make([]string, 0, len(c.neighbors)-1)
	for _, id := range c.neighbors {
		if id != target {
			others = append(others, id)
		}
	}
	dims := make([]int, len(others))
	for i, id := range others {
		dims[i] = len(c.vars[id].Domain)
	}

	scope := c.factor.Scope()
	vals := make([]dcop.Value, len(scope))
	assign := make(map[string]int, len(c.neighbors))

	for ti := range tv.Domain {
		best := c.mode.Worst()
		for it := newIndexIter(dims); it.valid(); it.next() {
			assign[target] = ti
			cost := 0.0
			for i, id := range others {
				assign[id] = it.idx[i]
				// Before the first variable wave arrives (round 0), a
				// missing belief counts as all zeros.
				if vec := c.in[id]; vec != nil {
					cost += vec[it.idx[i]]
				}
			}
			for i, s := range scope {
				vals[i] = c.vars[s].Domain[assign[s]]
			}
			cost += c.factor.Cost(vals)
			if c.mode.Better(cost, best) {
				best = cost
			}
		}
		out[ti] = best
	}
	return out
}

// normalize shifts vec so its best entry is zero, preventing unbounded
// drift over many rounds.
func normalize(vec []float64, mode dcop.Mode) {
	if len(vec) == 0 {
		return
	}
	best := vec[0]
	for _, v := range vec[1:] {
		if mode.Better(v, best) {
			best = v
		}
	}
	for i := range vec {
		vec[i] -= best
	}
}

// damp blends the computed vector with the previously sent one and
// returns the blend plus the largest absolute change.
func damp(computed, previous []float64, damping float64) ([]float64, float64) {
	delta := 0.0
	if previous == nil || damping <= 0 {
		for i := range computed {
			d := computed[i]
			if previous != nil {
				d -= previous[i]
			}
			if d < 0 {
				d = -d
			}
			if d > delta {
				delta = d
			}
		}
		return computed, delta
	}
	out := make([]float64, len(computed))
	for i := range computed {
		out[i] = damping*previous[i] + (1-damping)*computed[i]
		d := out[i] - previous[i]
		if d < 0 {
			d = -d
		}
		if d > delta {
			delta = d
		}
	}
	return out, delta
}

// indexIter enumerates index vectors over dims, last position fastest.
type indexIter struct {
	dims []int
	idx  []int
	done bool
}

func newIndexIter(dims []int) *indexIter {
	return &indexIter{dims: dims, idx: make([]int, len(dims))}
}

func (it *indexIter) valid() bool { return !it.done }

func (it *indexIter) next() {
	for i := len(it.dims) - 1; i >= 0; i-- {
		it.idx[i]++
		if it.idx[i] < it.dims[i] {
			return
		}
		it.idx[i] = 0
	}
	it.done = true
}

// Solve runs MaxSum end to end: factor graph construction, computation
// setup, engine run under a stability detector, Solution. A run that
// exhausts MaxRounds without stabilizing returns its best assignment with
// Converged=false (pair with runtime.WithStrictConvergence to turn that
// into runtime.ErrNotConverged).
func Solve(ctx context.Context, m *dcop.Model, opts ...Option) (*dcop.Solution, error) {
	o := DefaultOptions()
	for _, fn := range opts {
		fn(&o)
	}

	g, err := factorgraph.Build(m)
	if err != nil {
		return nil, err
	}
	comps, err := NewComputations(m, g, opts...)
	if err != nil {
		return nil, err
	}

	det := runtime.NewStabilityDetector(o.MaxRounds, o.Epsilon, o.StableRounds)
	engOpts := append([]runtime.Option{
		runtime.WithAlgorithm("maxsum"),
		runtime.WithMode(o.Mode),
		runtime.WithMaxRounds(o.MaxRounds + 1),
	}, o.Engine...)
	eng, err := runtime.New(m, comps, det, engOpts...)
	if err != nil {
		return nil, err
	}
	return eng.Run(ctx)
}
