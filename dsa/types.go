// Package dsa implements the Distributed Stochastic Algorithm: synchronous
// stochastic local search directly on the constraint graph.
//
// Each round every variable broadcasts its current value to its
// constraint-graph neighbors, evaluates the local cost of every domain
// value with the neighbors held fixed, and - with the configured
// activation probability - moves to a better value. Simultaneous moves by
// neighboring variables can oscillate (both sides of a constraint jump at
// once, round after round); the activation probability exists precisely
// to desynchronize such moves and must stay below 1 on problems where
// that matters.
//
// Variants (after Zhang et al. 2005, as shipped by reference DCOP
// implementations):
//
//   - AcceptStrictlyBetter (DSA-A): move only on a strict improvement.
//   - AcceptEqualOrBetter (DSA-B): additionally move sideways between
//     equally good values while some constraint is still away from its
//     optimum, which escapes plateaus.
//
// DSA offers no optimality guarantee; it trades quality for constant
// memory and one tiny message per edge per round.
package dsa

import (
	"errors"

	"github.com/dcoplib/godcop/dcop"
	"github.com/dcoplib/godcop/runtime"
)

// Defaults for the iterative run.
const (
	// DefaultMaxRounds bounds a run at 50 rounds.
	DefaultMaxRounds = 50

	// DefaultProbability is the classic activation probability.
	DefaultProbability = 0.7

	// DefaultStableRounds is how many consecutive no-move rounds declare
	// convergence.
	DefaultStableRounds = 3
)

// Sentinel errors of the DSA package.
var (
	// ErrBadProbability indicates an activation probability outside (0,1].
	ErrBadProbability = errors.New("dsa: activation probability must be in (0,1]")

	// ErrUnknownVariant indicates an unrecognized Variant value.
	ErrUnknownVariant = errors.New("dsa: unknown variant")
)

// Variant selects the move-acceptance rule.
type Variant int

const (
	// AcceptStrictlyBetter moves only on strict local improvement.
	AcceptStrictlyBetter Variant = iota

	// AcceptEqualOrBetter also moves sideways on plateaus while some
	// constraint remains away from its optimal achievable cost.
	AcceptEqualOrBetter
)

// String returns the config-surface name of the variant.
func (v Variant) String() string {
	if v == AcceptEqualOrBetter {
		return "accept_equal_or_better"
	}
	return "accept_strictly_better"
}

// Option configures a DSA run.
type Option func(*Options)

// Options holds the DSA parameters.
type Options struct {
	// Mode is the optimization direction; default Minimize.
	Mode dcop.Mode

	// MaxRounds is the round budget (> 0); default DefaultMaxRounds.
	MaxRounds int

	// Probability is the activation probability in (0,1]; default
	// DefaultProbability. 1 means every improvable node moves every
	// round, which invites synchronized oscillation.
	Probability float64

	// Variant is the acceptance rule; default AcceptStrictlyBetter.
	Variant Variant

	// StableRounds is how many consecutive rounds without a value change
	// end the run as converged; default DefaultStableRounds.
	StableRounds int

	// Seed drives every stochastic choice. Runs with equal seeds and
	// inputs reproduce the same trajectory in simulation mode.
	Seed int64

	// RandomInit picks the initial value uniformly instead of the first
	// domain value.
	RandomInit bool

	// Engine options forwarded to runtime.New.
	Engine []runtime.Option
}

// DefaultOptions returns the DSA defaults.
func DefaultOptions() Options {
	return Options{
		MaxRounds:    DefaultMaxRounds,
		Probability:  DefaultProbability,
		StableRounds: DefaultStableRounds,
	}
}

// WithMode sets the optimization direction.
func WithMode(m dcop.Mode) Option { return func(o *Options) { o.Mode = m } }

// WithMaxRounds sets the round budget.
func WithMaxRounds(n int) Option { return func(o *Options) { o.MaxRounds = n } }

// WithProbability sets the activation probability in (0,1].
func WithProbability(p float64) Option { return func(o *Options) { o.Probability = p } }

// WithVariant selects the acceptance rule.
func WithVariant(v Variant) Option { return func(o *Options) { o.Variant = v } }

// WithStableRounds sets the quiescence requirement.
func WithStableRounds(n int) Option { return func(o *Options) { o.StableRounds = n } }

// WithSeed fixes the RNG seed.
func WithSeed(seed int64) Option { return func(o *Options) { o.Seed = seed } }

// WithRandomInit randomizes initial values.
func WithRandomInit() Option { return func(o *Options) { o.RandomInit = true } }

// WithEngineOptions forwards options to the runtime engine.
func WithEngineOptions(opts ...runtime.Option) Option {
	return func(o *Options) { o.Engine = append(o.Engine, opts...) }
}
