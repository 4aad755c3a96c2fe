// Package dpop - the UTIL/VALUE state machine and the solve entry point.
package dpop

import (
	"context"
	"fmt"

	"github.com/dcoplib/godcop/dcop"
	"github.com/dcoplib/godcop/pseudotree"
	"github.com/dcoplib/godcop/runtime"
	"github.com/dcoplib/godcop/transport"
)

// utilPayload carries a child's projected utility table to its parent.
type utilPayload struct {
	table *utilTable
}

// Kind implements transport.Payload.
func (utilPayload) Kind() string { return "dpop.util" }

// valuePayload carries committed domain indexes for the receiver's
// separator (and the sender itself) down the tree.
type valuePayload struct {
	context map[string]int // variable ID -> domain index
}

// Kind implements transport.Payload.
func (valuePayload) Kind() string { return "dpop.value" }

// state of the per-node protocol.
type compState int

const (
	waitingChildrenUtil compState = iota
	waitingParentValue
	doneState
)

// computation is the DPOP state machine for one variable node.
type computation struct {
	model *dcop.Model
	tree  *pseudotree.Tree
	node  *pseudotree.Node
	self  *dcop.Variable
	mode  dcop.Mode
	limit int

	handled []dcop.Constraint // constraints whose deepest scope variable is self

	state     compState
	childUtil map[string]*utilTable
	stored    *utilTable // optimal cost per separator assignment
	best      []int      // arg-optimal own index per stored cell
	committed int        // own domain index, -1 until VALUE phase
}

// NewComputations builds one runtime computation per variable across the
// given pseudo-trees. Every tree must come from the same model.
func NewComputations(m *dcop.Model, trees []*pseudotree.Tree, opts ...Option) ([]runtime.Computation, error) {
	if m == nil {
		return nil, runtime.ErrNilModel
	}
	o := DefaultOptions()
	for _, fn := range opts {
		fn(&o)
	}

	var comps []runtime.Computation
	for _, t := range trees {
		for _, varID := range t.PreOrder() {
			n := t.Node(varID)
			c := &computation{
				model:     m,
				tree:      t,
				node:      n,
				self:      m.Variable(varID),
				mode:      o.Mode,
				limit:     o.MaxTableSize,
				childUtil: make(map[string]*utilTable, len(n.Children)),
				committed: -1,
			}
			c.handled = handledConstraints(m, t, varID)
			comps = append(comps, c)
		}
	}
	return comps, nil
}

// handledConstraints selects the constraints varID is responsible for:
// those where varID is the deepest scope variable in the tree. Each
// constraint is thereby accounted for exactly once across the run.
func handledConstraints(m *dcop.Model, t *pseudotree.Tree, varID string) []dcop.Constraint {
	depth := t.Node(varID).Depth
	var out []dcop.Constraint
	for _, c := range m.ConstraintsOn(varID) {
		deepest := true
		for _, s := range c.Scope() {
			if s == varID {
				continue
			}
			sn := t.Node(s)
			if sn == nil || sn.Depth > depth || (sn.Depth == depth && s > varID) {
				deepest = false
				break
			}
		}
		if deepest {
			out = append(out, c)
		}
	}
	return out
}

// ID implements runtime.Computation.
func (c *computation) ID() string { return c.node.Var }

// Value implements runtime.Computation.
func (c *computation) Value() (string, dcop.Value, bool) {
	if c.committed < 0 {
		return c.node.Var, nil, false
	}
	return c.node.Var, c.self.Domain[c.committed], true
}

// Advance implements runtime.Computation. Round 0 (nil inbound) is the
// start signal: leaves compute and ship their UTIL tables immediately.
// Afterwards the node reacts to child UTIL tables and the parent's VALUE
// context.
func (c *computation) Advance(ctx context.Context, inbound []transport.Message) (runtime.Step, error) {
	if err := ctx.Err(); err != nil {
		return runtime.Step{}, err
	}

	if inbound == nil {
		if c.node.IsLeaf() {
			return c.computeUtil()
		}
		return runtime.Step{}, nil // wait for children
	}

	var step runtime.Step
	for _, msg := range inbound {
		var (
			s   runtime.Step
			err error
		)
		switch p := msg.Payload.(type) {
		case utilPayload:
			s, err = c.onUtil(msg.From, p)
		case valuePayload:
			s, err = c.onValue(msg.From, p)
		default:
			err = fmt.Errorf("%w: kind %q from %q", ErrUnexpectedMessage, msg.Payload.Kind(), msg.From)
		}
		if err != nil {
			return runtime.Step{}, err
		}
		step.Outbound = append(step.Outbound, s.Outbound...)
		step.Done = step.Done || s.Done
		step.Changed = step.Changed || s.Changed
	}
	return step, nil
}

// onUtil stores a child's table; once every child reported, the node
// computes and ships its own.
func (c *computation) onUtil(from string, p utilPayload) (runtime.Step, error) {
	if c.state != waitingChildrenUtil || !contains(c.node.Children, from) {
		return runtime.Step{}, fmt.Errorf("%w: UTIL from %q at node %q", ErrUnexpectedMessage, from, c.node.Var)
	}
	if _, dup := c.childUtil[from]; dup {
		return runtime.Step{}, fmt.Errorf("%w: duplicate UTIL from %q", ErrUnexpectedMessage, from)
	}
	c.childUtil[from] = p.table
	if len(c.childUtil) < len(c.node.Children) {
		return runtime.Step{}, nil
	}
	return c.computeUtil()
}

// computeUtil joins children tables with handled constraints, projects the
// own variable out, and either ships the result to the parent or - at the
// root - starts the VALUE wave.
func (c *computation) computeUtil() (runtime.Step, error) {
	sep := c.node.Separator
	dims := make([]int, len(sep))
	for i, v := range sep {
		dims[i] = len(c.model.Variable(v).Domain)
	}
	// The join ranges over separator x own domain; the projection keeps
	// one cell per separator assignment.
	if c.limit > 0 {
		if joined := tableSize(dims) * len(c.self.Domain); joined > c.limit {
			return runtime.Step{}, &TableOverflowError{Node: c.node.Var, Size: joined, Limit: c.limit}
		}
	}

	c.stored = newUtilTable(sep, dims)
	c.best = make([]int, len(c.stored.vals))

	assign := make(map[string]int, len(sep)+1)
	cell := 0
	for it := newOdometer(dims); it.valid(); it.next() {
		for i, v := range sep {
			assign[v] = it.idx[i]
		}
		bestCost, bestIdx := 0.0, -1
		for vi := range c.self.Domain {
			assign[c.node.Var] = vi
			cost := c.localCost(assign)
			// Summation follows the fixed child order so the
			// floating-point total is reproducible across runs.
			for _, ch := range c.node.Children {
				cost += c.childUtil[ch].lookup(assign)
			}
			// First value wins ties: deterministic, domain-order biased.
			if bestIdx < 0 || c.mode.Better(cost, bestCost) {
				bestCost, bestIdx = cost, vi
			}
		}
		c.stored.vals[cell] = bestCost
		c.best[cell] = bestIdx
		cell++
	}
	c.childUtil = nil // tables are folded in; free them

	if c.node.IsRoot() {
		// No separator: the single stored cell is the global optimum.
		return c.commit(map[string]int{})
	}
	c.state = waitingParentValue
	return runtime.Step{
		Outbound: []runtime.Outbound{{To: c.node.Parent, Payload: utilPayload{table: c.stored}}},
	}, nil
}

// localCost sums the handled constraints under the given index assignment.
func (c *computation) localCost(assign map[string]int) float64 {
	var total float64
	for _, con := range c.handled {
		scope := con.Scope()
		vals := make([]dcop.Value, len(scope))
		for i, s := range scope {
			vals[i] = c.model.Variable(s).Domain[assign[s]]
		}
		total += con.Cost(vals)
	}
	return total
}

// onValue receives the parent's committed context and commits locally.
func (c *computation) onValue(from string, p valuePayload) (runtime.Step, error) {
	if c.state != waitingParentValue || from != c.node.Parent {
		return runtime.Step{}, fmt.Errorf("%w: VALUE from %q at node %q", ErrUnexpectedMessage, from, c.node.Var)
	}
	for _, v := range c.node.Separator {
		if _, ok := p.context[v]; !ok {
			return runtime.Step{}, fmt.Errorf("%w: VALUE context lacks separator variable %q at node %q",
				runtime.ErrMissingMessage, v, c.node.Var)
		}
	}
	return c.commit(p.context)
}

// commit looks the own optimum up for the given separator context and
// forwards the extended context to every child.
func (c *computation) commit(context map[string]int) (runtime.Step, error) {
	idx := make([]int, len(c.stored.vars))
	for i, v := range c.stored.vars {
		idx[i] = context[v]
	}
	c.committed = c.best[c.stored.pos(idx)]
	c.state = doneState

	full := make(map[string]int, len(context)+1)
	for k, v := range context {
		full[k] = v
	}
	full[c.node.Var] = c.committed

	step := runtime.Step{Done: true, Changed: true}
	for _, child := range c.node.Children {
		childSep := c.tree.Node(child).Separator
		ctxOut := make(map[string]int, len(childSep))
		for _, v := range childSep {
			ctxOut[v] = full[v]
		}
		step.Outbound = append(step.Outbound, runtime.Outbound{To: child, Payload: valuePayload{context: ctxOut}})
	}
	return step, nil
}

func contains(xs []string, x string) bool {
	for _, s := range xs {
		if s == x {
			return true
		}
	}
	return false
}

// Solve runs DPOP end to end: pseudo-tree construction, computation
// setup, engine run, Solution. The nested errors surface unchanged
// (pseudotree.ErrDisconnected, ErrTableOverflow, runtime sentinels).
func Solve(ctx context.Context, m *dcop.Model, opts ...Option) (*dcop.Solution, error) {
	o := DefaultOptions()
	for _, fn := range opts {
		fn(&o)
	}

	var ptOpts []pseudotree.Option
	if o.Root != "" {
		ptOpts = append(ptOpts, pseudotree.WithRoot(o.Root))
	}
	ptOpts = append(ptOpts, pseudotree.WithDisconnected(o.Disconnected))
	trees, err := pseudotree.Build(m, ptOpts...)
	if err != nil {
		return nil, err
	}

	comps, err := NewComputations(m, trees, opts...)
	if err != nil {
		return nil, err
	}

	engOpts := append([]runtime.Option{
		runtime.WithAlgorithm("dpop"),
		runtime.WithMode(o.Mode),
	}, o.Engine...)
	eng, err := runtime.New(m, comps, runtime.NewCompletionDetector(len(comps)), engOpts...)
	if err != nil {
		return nil, err
	}
	return eng.Run(ctx)
}

// InducedWidths reports the induced width of each pseudo-tree, aligned
// with the input slice: the quantity DPOP's memory cost is exponential
// in. Exposed so callers can reject a structure before paying for its
// tables.
func InducedWidths(trees []*pseudotree.Tree) []int {
	ws := make([]int, len(trees))
	for i, t := range trees {
		ws[i] = t.InducedWidth()
	}
	return ws
}
