// Package dpop implements the DPOP algorithm: exact distributed dynamic
// programming over a pseudo-tree of the constraint graph.
//
// The run has two message waves. UTIL flows leaves to root: every node
// joins its children's utility tables with the constraints it is
// responsible for (those whose deepest scope variable it is), projects its
// own variable out keeping, per separator assignment, the optimal cost and
// the value achieving it, and sends the projected table to its parent.
// VALUE flows root to leaves: the root commits its best value and each
// node, given its separator's committed values, looks its own optimum up
// from the stored table and forwards the extended context to its children.
//
// DPOP finds the global optimum for finite domains and a valid
// pseudo-tree. The price is memory: a node's table has one entry per
// combination of its separator's domains, so the run is exponential in the
// induced width of the pseudo-tree. MaxTableSize bounds this explicitly;
// exceeding it fails with a TableOverflowError naming the node and size
// instead of exhausting memory.
//
// Determinism: ties between equally good values always resolve to the
// value appearing earliest in the domain, so re-running on the same model
// and options reproduces the same Solution assignment.
package dpop

import (
	"errors"
	"fmt"

	"github.com/dcoplib/godcop/dcop"
	"github.com/dcoplib/godcop/pseudotree"
	"github.com/dcoplib/godcop/runtime"
)

// DefaultMaxTableSize caps utility tables at 4Mi entries unless
// configured otherwise.
const DefaultMaxTableSize = 1 << 22

// Sentinel errors of the DPOP package.
var (
	// ErrTableOverflow is the errors.Is target of TableOverflowError.
	ErrTableOverflow = errors.New("dpop: utility table exceeds size limit")

	// ErrUnexpectedMessage indicates a message that violates the UTIL/
	// VALUE protocol (wrong kind, wrong sender, or a duplicate).
	ErrUnexpectedMessage = errors.New("dpop: unexpected message")
)

// TableOverflowError reports which node needed how large a table. It is a
// resource-limit signal: the caller can rebuild with a larger
// MaxTableSize or a different root, the process is not harmed.
type TableOverflowError struct {
	// Node is the variable whose table exceeded the limit.
	Node string

	// Size is the required number of table entries.
	Size int

	// Limit is the configured MaxTableSize.
	Limit int
}

// Error implements error.
func (e *TableOverflowError) Error() string {
	return fmt.Sprintf("dpop: node %q needs a table of %d entries, limit %d", e.Node, e.Size, e.Limit)
}

// Is makes errors.Is(err, ErrTableOverflow) match.
func (e *TableOverflowError) Is(target error) bool { return target == ErrTableOverflow }

// Option configures a DPOP run.
type Option func(*Options)

// Options holds the configurable parameters of a DPOP run. DPOP has no
// algorithmic tunables; everything here is resource limits, structure
// policy and engine passthrough.
type Options struct {
	// Mode is the optimization direction; default Minimize.
	Mode dcop.Mode

	// MaxTableSize caps any single utility table (entries). Default
	// DefaultMaxTableSize; values <= 0 mean unlimited.
	MaxTableSize int

	// Root forces the pseudo-tree root; empty keeps the lowest-ID rule.
	Root string

	// Disconnected is the multi-component policy of the pseudo-tree
	// builder; default pseudotree.PolicyReject.
	Disconnected pseudotree.DisconnectedPolicy

	// Engine options forwarded to runtime.New.
	Engine []runtime.Option
}

// DefaultOptions returns the DPOP defaults.
func DefaultOptions() Options {
	return Options{MaxTableSize: DefaultMaxTableSize}
}

// WithMode sets the optimization direction.
func WithMode(m dcop.Mode) Option { return func(o *Options) { o.Mode = m } }

// WithMaxTableSize caps utility table sizes; <= 0 disables the cap.
func WithMaxTableSize(n int) Option { return func(o *Options) { o.MaxTableSize = n } }

// WithRoot forces the pseudo-tree root variable.
func WithRoot(varID string) Option { return func(o *Options) { o.Root = varID } }

// WithDisconnected sets the multi-component policy.
func WithDisconnected(p pseudotree.DisconnectedPolicy) Option {
	return func(o *Options) { o.Disconnected = p }
}

// WithEngineOptions forwards options (scheduling mode, timeouts, metrics,
// tracing) to the runtime engine.
func WithEngineOptions(opts ...runtime.Option) Option {
	return func(o *Options) { o.Engine = append(o.Engine, opts...) }
}
