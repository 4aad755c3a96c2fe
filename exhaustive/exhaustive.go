// Package exhaustive enumerates the full assignment space and returns the
// optimal solution. It exists as the reference oracle for the distributed
// algorithms' tests and as a fallback for tiny problems; cost is the
// product of all domain sizes, so MaxStates guards against accidental use
// on anything larger.
//
// Determinism: assignments are enumerated in variable-ID order with each
// domain in declaration order, and the first optimum found wins, so ties
// resolve the same way on every run.
//
// Errors:
//
//   - ErrNilModel           - nil model.
//   - ErrSearchSpaceTooLarge - domain product exceeds MaxStates.
package exhaustive

import (
	"context"
	"errors"
	"fmt"

	"github.com/dcoplib/godcop/dcop"
)

// DefaultMaxStates caps enumeration at 1Mi assignments unless configured.
const DefaultMaxStates = 1 << 20

// Sentinel errors of the exhaustive solver.
var (
	// ErrNilModel indicates a nil *dcop.Model.
	ErrNilModel = errors.New("exhaustive: model is nil")

	// ErrSearchSpaceTooLarge indicates the assignment space exceeds the
	// configured MaxStates bound.
	ErrSearchSpaceTooLarge = errors.New("exhaustive: search space too large")
)

// Option configures Solve.
type Option func(*Options)

// Options holds the exhaustive solver's parameters.
type Options struct {
	// Mode is the optimization direction; default Minimize.
	Mode dcop.Mode

	// MaxStates caps the number of enumerated assignments; <= 0 means
	// DefaultMaxStates.
	MaxStates int
}

// WithMode sets the optimization direction.
func WithMode(m dcop.Mode) Option { return func(o *Options) { o.Mode = m } }

// WithMaxStates overrides the enumeration cap.
func WithMaxStates(n int) Option { return func(o *Options) { o.MaxStates = n } }

// Solve enumerates every complete assignment of m and returns the optimal
// Solution. Honors ctx cancellation between assignments.
func Solve(ctx context.Context, m *dcop.Model, opts ...Option) (*dcop.Solution, error) {
	if m == nil {
		return nil, ErrNilModel
	}
	o := Options{MaxStates: DefaultMaxStates}
	for _, fn := range opts {
		fn(&o)
	}
	if o.MaxStates <= 0 {
		o.MaxStates = DefaultMaxStates
	}

	vars := m.Variables()
	states := 1
	for _, v := range vars {
		states *= len(v.Domain)
		if states > o.MaxStates {
			return nil, fmt.Errorf("%w: limit %d assignments", ErrSearchSpaceTooLarge, o.MaxStates)
		}
	}

	idx := make([]int, len(vars))
	assign := make(dcop.Assignment, len(vars))
	var (
		best     dcop.Assignment
		bestCost = o.Mode.Worst()
		found    bool
	)
	for n := 0; n < states; n++ {
		if n%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		for i, v := range vars {
			assign[v.ID] = v.Domain[idx[i]]
		}
		cost, err := m.TotalCost(assign)
		if err != nil {
			return nil, err
		}
		if !found || o.Mode.Better(cost, bestCost) {
			best = assign.Clone()
			bestCost = cost
			found = true
		}
		// Advance the index vector, last variable fastest.
		for i := len(idx) - 1; i >= 0; i-- {
			idx[i]++
			if idx[i] < len(vars[i].Domain) {
				break
			}
			idx[i] = 0
		}
	}

	per, err := m.AgentCosts(best)
	if err != nil {
		return nil, err
	}
	return &dcop.Solution{
		RunID:      dcop.NewRunID(),
		Algorithm:  "exhaustive",
		Mode:       o.Mode,
		Assignment: best,
		Cost:       bestCost,
		AgentCosts: per,
		Rounds:     1,
		Converged:  true,
	}, nil
}
