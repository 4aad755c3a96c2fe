// Package dsa - the per-variable local search state machine and the solve
// entry point.
package dsa

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"math/rand"

	"github.com/dcoplib/godcop/dcop"
	"github.com/dcoplib/godcop/runtime"
	"github.com/dcoplib/godcop/transport"
)

// valuePayload is the one-value broadcast of synchronous DSA.
type valuePayload struct {
	val dcop.Value
}

// Kind implements transport.Payload.
func (valuePayload) Kind() string { return "dsa.value" }

// computation is the DSA state machine for one variable.
type computation struct {
	id        string
	v         *dcop.Variable
	neighbors []string
	cons      []dcop.Constraint
	mode      dcop.Mode
	p         float64
	variant   Variant
	rng       *rand.Rand

	// bestPerCon is each constraint's optimal achievable cost, used by
	// AcceptEqualOrBetter to decide whether a plateau move is worthwhile.
	bestPerCon map[string]float64

	current      int // own domain index
	initRandom   bool
	neighborVals map[string]dcop.Value
}

// NewComputations builds one runtime computation per model variable.
func NewComputations(m *dcop.Model, opts ...Option) ([]runtime.Computation, error) {
	if m == nil {
		return nil, runtime.ErrNilModel
	}
	o := DefaultOptions()
	for _, fn := range opts {
		fn(&o)
	}
	if o.Probability <= 0 || o.Probability > 1 {
		return nil, fmt.Errorf("%w: got %v", ErrBadProbability, o.Probability)
	}
	if o.Variant != AcceptStrictlyBetter && o.Variant != AcceptEqualOrBetter {
		return nil, fmt.Errorf("%w: %d", ErrUnknownVariant, o.Variant)
	}

	comps := make([]runtime.Computation, 0, len(m.Variables()))
	for _, v := range m.Variables() {
		c := &computation{
			id:           v.ID,
			v:            v,
			neighbors:    m.Neighbors(v.ID),
			cons:         m.ConstraintsOn(v.ID),
			mode:         o.Mode,
			p:            o.Probability,
			variant:      o.Variant,
			rng:          rand.New(rand.NewSource(deriveSeed(o.Seed, v.ID))),
			current:      -1,
			initRandom:   o.RandomInit,
			neighborVals: make(map[string]dcop.Value, len(m.Neighbors(v.ID))),
		}
		if o.Variant == AcceptEqualOrBetter {
			c.bestPerCon = make(map[string]float64, len(c.cons))
			for _, con := range c.cons {
				c.bestPerCon[con.ID()] = constraintOptimum(m, con, o.Mode)
			}
		}
		comps = append(comps, c)
	}
	return comps, nil
}

// deriveSeed gives each variable its own RNG stream from the run seed.
func deriveSeed(seed int64, varID string) int64 {
	h := fnv.New64a()
	h.Write([]byte(varID))
	return seed ^ int64(h.Sum64())
}

// constraintOptimum enumerates a constraint's full value space for its
// best achievable cost.
func constraintOptimum(m *dcop.Model, c dcop.Constraint, mode dcop.Mode) float64 {
	scope := c.Scope()
	dims := make([]int, len(scope))
	for i, s := range scope {
		dims[i] = len(m.Variable(s).Domain)
	}
	vals := make([]dcop.Value, len(scope))
	best := mode.Worst()
	idx := make([]int, len(scope))
	for {
		for i, s := range scope {
			vals[i] = m.Variable(s).Domain[idx[i]]
		}
		if cost := c.Cost(vals); mode.Better(cost, best) {
			best = cost
		}
		i := len(idx) - 1
		for ; i >= 0; i-- {
			idx[i]++
			if idx[i] < dims[i] {
				break
			}
			idx[i] = 0
		}
		if i < 0 {
			return best
		}
	}
}

func (c *computation) ID() string { return c.id }

func (c *computation) Value() (string, dcop.Value, bool) {
	if c.current < 0 {
		return c.id, nil, false
	}
	return c.id, c.v.Domain[c.current], true
}

// Advance implements runtime.Computation. Round 0 picks the initial value
// and broadcasts it; every later round re-decides against the neighbors'
// latest broadcast.
func (c *computation) Advance(ctx context.Context, inbound []transport.Message) (runtime.Step, error) {
	if err := ctx.Err(); err != nil {
		return runtime.Step{}, err
	}

	if inbound == nil {
		c.current = 0
		if c.initRandom {
			c.current = c.rng.Intn(len(c.v.Domain))
		}
		step := runtime.Step{Changed: true}
		if len(c.neighbors) == 0 {
			// Nothing to coordinate with: done in one round.
			step.Done = true
			return step, nil
		}
		step.Outbound = c.broadcast()
		return step, nil
	}

	for _, msg := range inbound {
		p, ok := msg.Payload.(valuePayload)
		if !ok {
			return runtime.Step{}, fmt.Errorf("dsa: variable %q: bad payload from %q", c.id, msg.From)
		}
		c.neighborVals[msg.From] = p.val
	}
	for _, n := range c.neighbors {
		if _, ok := c.neighborVals[n]; !ok {
			return runtime.Step{}, fmt.Errorf("%w: %q lacks value of neighbor %q",
				runtime.ErrMissingMessage, c.id, n)
		}
	}

	step := c.decide()
	step.Outbound = c.broadcast()
	return step, nil
}

// decide evaluates every own value against the fixed neighborhood and
// applies the variant's acceptance rule.
func (c *computation) decide() runtime.Step {
	assign := make(dcop.Assignment, len(c.neighborVals)+1)
	for k, v := range c.neighborVals {
		assign[k] = v
	}

	bestCost := c.mode.Worst()
	var bestIdxs []int
	for i, val := range c.v.Domain {
		assign[c.id] = val
		cost := c.localCost(assign)
		switch {
		case c.mode.Better(cost, bestCost):
			bestCost, bestIdxs = cost, []int{i}
		case cost == bestCost:
			bestIdxs = append(bestIdxs, i)
		}
	}
	assign[c.id] = c.v.Domain[c.current]
	currentCost := c.localCost(assign)
	gain := math.Abs(currentCost - bestCost)

	step := runtime.Step{Delta: gain}
	switch c.variant {
	case AcceptStrictlyBetter:
		if gain > 0 {
			step.Changed = c.maybeMove(bestIdxs)
		}
	case AcceptEqualOrBetter:
		if gain > 0 {
			step.Changed = c.maybeMove(bestIdxs)
		} else if c.violatedConstraint(assign) {
			// Plateau move: prefer a different value among the ties.
			if len(bestIdxs) > 1 {
				bestIdxs = without(bestIdxs, c.current)
			}
			step.Changed = c.maybeMove(bestIdxs)
		}
	}
	return step
}

// maybeMove switches to a random best value with probability p.
// Returns whether the committed value actually changed.
func (c *computation) maybeMove(bestIdxs []int) bool {
	if c.rng.Float64() >= c.p {
		return false
	}
	next := bestIdxs[0]
	if len(bestIdxs) > 1 {
		next = bestIdxs[c.rng.Intn(len(bestIdxs))]
	}
	if next == c.current {
		return false
	}
	c.current = next
	return true
}

// localCost sums this variable's constraints under assign.
func (c *computation) localCost(assign dcop.Assignment) float64 {
	var total float64
	for _, con := range c.cons {
		cost, err := dcop.ConstraintCost(con, assign)
		if err != nil {
			// Neighbor completeness was checked in Advance.
			continue
		}
		total += cost
	}
	return total
}

// violatedConstraint reports whether some local constraint is away from
// its best achievable cost under the current assignment.
func (c *computation) violatedConstraint(assign dcop.Assignment) bool {
	for _, con := range c.cons {
		cost, err := dcop.ConstraintCost(con, assign)
		if err != nil {
			continue
		}
		if cost != c.bestPerCon[con.ID()] {
			return true
		}
	}
	return false
}

// broadcast emits the current value to every neighbor.
func (c *computation) broadcast() []runtime.Outbound {
	out := make([]runtime.Outbound, 0, len(c.neighbors))
	for _, n := range c.neighbors {
		out = append(out, runtime.Outbound{To: n, Payload: valuePayload{val: c.v.Domain[c.current]}})
	}
	return out
}

func without(xs []int, x int) []int {
	out := make([]int, 0, len(xs))
	for _, v := range xs {
		if v != x {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return xs
	}
	return out
}

// Solve runs DSA end to end on the constraint graph. A run that exhausts
// MaxRounds before quiescing returns its current assignment with
// Converged=false.
func Solve(ctx context.Context, m *dcop.Model, opts ...Option) (*dcop.Solution, error) {
	o := DefaultOptions()
	for _, fn := range opts {
		fn(&o)
	}

	comps, err := NewComputations(m, opts...)
	if err != nil {
		return nil, err
	}

	det := runtime.NewStabilityDetector(o.MaxRounds, 0, o.StableRounds)
	engOpts := append([]runtime.Option{
		runtime.WithAlgorithm("dsa"),
		runtime.WithMode(o.Mode),
		runtime.WithMaxRounds(o.MaxRounds + 1),
	}, o.Engine...)
	eng, err := runtime.New(m, comps, det, engOpts...)
	if err != nil {
		return nil, err
	}
	return eng.Run(ctx)
}
