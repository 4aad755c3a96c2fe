// Package maxsum implements the MaxSum algorithm: iterative belief
// propagation on the bipartite factor graph of the model.
//
// Each synchronous round, factor nodes send every neighboring variable a
// cost vector (per domain value, the best achievable cost over all other
// scope variables given the latest variable beliefs), and variable nodes
// send every neighboring factor the sum of all other factors' vectors.
// Variable-node messages are normalized by subtracting their best entry,
// which keeps magnitudes bounded over arbitrarily many rounds, and
// optionally damped against the previously sent message.
//
// On acyclic factor graphs MaxSum is exact. On loopy graphs it is an
// approximation with no optimality guarantee: it may oscillate or settle
// on a suboptimal assignment, and the Solution's Converged flag reports
// only that the stability criterion was met within the round budget,
// never solution quality. Fully symmetric instances are the sharpest
// case: every message stays at its zero initialization, the run
// stabilizes immediately, and each variable commits its first domain
// value whatever that costs. Unary biases on the variables break such
// symmetry; callers needing a certified optimum should use dpop or
// exhaustive instead.
package maxsum

import (
	"github.com/dcoplib/godcop/dcop"
	"github.com/dcoplib/godcop/runtime"
)

// Defaults for the iterative run.
const (
	// DefaultMaxRounds bounds a run at 100 rounds.
	DefaultMaxRounds = 100

	// DefaultEpsilon is the message-delta threshold for a stable round.
	DefaultEpsilon = 1e-6

	// DefaultStableRounds is how many consecutive stable rounds declare
	// convergence.
	DefaultStableRounds = 2
)

// Option configures a MaxSum run.
type Option func(*Options)

// Options holds the MaxSum parameters.
type Options struct {
	// Mode is the optimization direction; default Minimize.
	Mode dcop.Mode

	// MaxRounds is the round budget (> 0); default DefaultMaxRounds.
	MaxRounds int

	// Damping in [0,1] blends each outgoing message with the previously
	// sent one: sent = Damping*previous + (1-Damping)*computed.
	// 0 (default) disables damping; values near 1 slow the dynamics and
	// help loopy graphs settle.
	Damping float64

	// Epsilon is the convergence threshold on message deltas; default
	// DefaultEpsilon.
	Epsilon float64

	// StableRounds is how many consecutive rounds must stay under
	// Epsilon before the run is declared converged; default
	// DefaultStableRounds.
	StableRounds int

	// Engine options forwarded to runtime.New.
	Engine []runtime.Option
}

// DefaultOptions returns the MaxSum defaults.
func DefaultOptions() Options {
	return Options{
		MaxRounds:    DefaultMaxRounds,
		Epsilon:      DefaultEpsilon,
		StableRounds: DefaultStableRounds,
	}
}

// WithMode sets the optimization direction.
func WithMode(m dcop.Mode) Option { return func(o *Options) { o.Mode = m } }

// WithMaxRounds sets the round budget.
func WithMaxRounds(n int) Option { return func(o *Options) { o.MaxRounds = n } }

// WithDamping sets the message damping factor in [0,1].
func WithDamping(d float64) Option { return func(o *Options) { o.Damping = d } }

// WithEpsilon sets the convergence threshold on message deltas.
func WithEpsilon(e float64) Option { return func(o *Options) { o.Epsilon = e } }

// WithStableRounds sets the consecutive-stable-round requirement.
func WithStableRounds(n int) Option { return func(o *Options) { o.StableRounds = n } }

// WithEngineOptions forwards options to the runtime engine.
func WithEngineOptions(opts ...runtime.Option) Option {
	return func(o *Options) { o.Engine = append(o.Engine, opts...) }
}
