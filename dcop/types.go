// Package dcop - core value, variable and constraint types.
//
// types.go declares the vocabulary every other package builds on:
// Value, Mode, Variable, Constraint (with the functional implementation),
// and the sentinel errors of the model layer.
package dcop

import (
	"errors"
	"fmt"
	"math"
)

// Sentinel errors for model construction and cost evaluation.
var (
	// ErrInvalidModel is the umbrella sentinel for malformed problem input.
	// Every construction-time validation failure wraps it.
	ErrInvalidModel = errors.New("dcop: invalid model")

	// ErrEmptyDomain indicates a variable was declared with no domain values.
	ErrEmptyDomain = fmt.Errorf("%w: empty domain", ErrInvalidModel)

	// ErrDuplicateID indicates two variables, or two constraints, share an ID.
	ErrDuplicateID = fmt.Errorf("%w: duplicate id", ErrInvalidModel)

	// ErrUnknownVariable indicates a constraint scope references a variable
	// that is not declared in the model.
	ErrUnknownVariable = fmt.Errorf("%w: unknown variable", ErrInvalidModel)

	// ErrEmptyScope indicates a constraint with no variables in scope.
	ErrEmptyScope = fmt.Errorf("%w: empty constraint scope", ErrInvalidModel)

	// ErrIncompleteAssignment indicates a cost query over an assignment that
	// does not cover the full scope of the constraint being evaluated.
	ErrIncompleteAssignment = errors.New("dcop: incomplete assignment")
)

// Value is a single domain value. Values must be of comparable dynamic
// types (ints, strings, ...) because algorithms compare them with ==.
type Value any

// Mode selects the optimization direction of a solve run.
type Mode int

const (
	// Minimize searches for the assignment with the lowest total cost.
	Minimize Mode = iota

	// Maximize searches for the assignment with the highest total cost.
	Maximize
)

// String returns "min" or "max".
func (m Mode) String() string {
	if m == Maximize {
		return "max"
	}
	return "min"
}

// Better reports whether cost a is strictly preferable to cost b under m.
func (m Mode) Better(a, b float64) bool {
	if m == Maximize {
		return a > b
	}
	return a < b
}

// Worst returns the sentinel cost no real assignment can be worse than:
// +Inf when minimizing, -Inf when maximizing.
func (m Mode) Worst() float64 {
	if m == Maximize {
		return math.Inf(-1)
	}
	return math.Inf(1)
}

// Variable is one decision variable of the problem: an identifier, an
// ordered finite domain, and the ID of the agent hosting it. Variables are
// immutable after model construction.
type Variable struct {
	// ID uniquely identifies the variable within its Model.
	ID string

	// Agent is the ID of the agent owning this variable. If empty,
	// NewModel defaults it to the variable's own ID (one agent per
	// variable).
	Agent string

	// Domain is the ordered set of admissible values. Order matters:
	// deterministic tie-breaking always prefers the earlier value.
	Domain []Value
}

// IndexOf returns the position of v in the domain, or -1 if absent.
func (va *Variable) IndexOf(v Value) int {
	for i, d := range va.Domain {
		if d == v {
			return i
		}
	}
	return -1
}

// Constraint is a cost relation over an ordered tuple of variables
// (arity >= 1). Cost receives one value per scope variable, in scope
// order, and returns a real cost; math.Inf(1) encodes a hard violation.
// Implementations must be immutable and safe for concurrent use.
type Constraint interface {
	// ID uniquely identifies the constraint within its Model.
	ID() string

	// Scope returns the ordered variable IDs the constraint references.
	Scope() []string

	// Cost returns the cost of the given value tuple. vals is aligned
	// with Scope(): vals[i] is the value of Scope()[i].
	Cost(vals []Value) float64
}

// funcConstraint is the functional Constraint implementation returned by
// Func, NotEqual and Unary.
type funcConstraint struct {
	id    string
	scope []string
	fn    func(vals []Value) float64
}

func (c *funcConstraint) ID() string               { return c.id }
func (c *funcConstraint) Scope() []string          { return c.scope }
func (c *funcConstraint) Cost(vals []Value) float64 { return c.fn(vals) }

// Func builds a constraint from an arbitrary cost function over the given
// scope. The function must be pure: same tuple, same cost.
func Func(id string, scope []string, fn func(vals []Value) float64) Constraint {
	cp := make([]string, len(scope))
	copy(cp, scope)
	return &funcConstraint{id: id, scope: cp, fn: fn}
}

// NotEqual builds the classic binary soft difference constraint: cost 0
// when x and y take different values, penalty when they coincide.
func NotEqual(id, x, y string, penalty float64) Constraint {
	return Func(id, []string{x, y}, func(vals []Value) float64 {
		if vals[0] == vals[1] {
			return penalty
		}
		return 0
	})
}

// Unary builds a unary cost table over a single variable. Values missing
// from costs default to 0.
func Unary(id, v string, costs map[Value]float64) Constraint {
	return Func(id, []string{v}, func(vals []Value) float64 {
		return costs[vals[0]]
	})
}
