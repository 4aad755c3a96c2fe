// Package runtime - the capability interface algorithm families implement.
package runtime

import (
	"context"
	"errors"

	"github.com/dcoplib/godcop/dcop"
	"github.com/dcoplib/godcop/transport"
)

// Sentinel errors of the execution substrate.
var (
	// ErrNilModel indicates a nil model was passed to New.
	ErrNilModel = errors.New("runtime: model is nil")

	// ErrNoComputations indicates New received an empty computation set.
	ErrNoComputations = errors.New("runtime: no computations")

	// ErrNilDetector indicates New received a nil termination detector.
	ErrNilDetector = errors.New("runtime: detector is nil")

	// ErrDuplicateComputation indicates two computations share a node ID.
	ErrDuplicateComputation = errors.New("runtime: duplicate computation ID")

	// ErrMissingMessage indicates a protocol violation: the run stalled
	// with no messages in flight while some node had not finished. Always
	// a bug in an algorithm or a transport defect, fatal to the run.
	ErrMissingMessage = errors.New("runtime: node stalled waiting for messages")

	// ErrNotConverged reports that an iterative run exhausted its round
	// budget before meeting its stability criterion. Only surfaced as an
	// error under WithStrictConvergence; otherwise the Solution simply
	// carries Converged=false.
	ErrNotConverged = errors.New("runtime: convergence not reached")

	// ErrAborted wraps the cause of a run abort (cancellation, timeout or
	// a computation failure) on the error path. The cause stays
	// inspectable through errors.Is and errors.As.
	ErrAborted = errors.New("runtime: run aborted")
)

// Outbound is a message a computation wants delivered. The engine stamps
// the sender and sequence number when it hands it to the bus.
type Outbound struct {
	// To is the receiver node ID.
	To string

	// Payload is the algorithm-specific body.
	Payload transport.Payload
}

// Step is the result of one activation of a computation.
type Step struct {
	// Outbound lists the messages to send this round, in order.
	Outbound []Outbound

	// Done reports that the computation reached its terminal state and
	// needs no further scheduling. Once done, always done.
	Done bool

	// Changed reports that the committed value changed this activation.
	// Feeds the changed-node aggregate of the termination detector.
	Changed bool

	// Delta is the computation's local stability signal: the largest
	// message delta for belief propagation, the achievable local gain for
	// local search, zero for exact algorithms. Compared against the
	// detector's epsilon.
	Delta float64
}

// Computation is one algorithm state machine bound to one computation
// node. Its mutable state is owned exclusively by the goroutine that
// calls Advance; the engine guarantees at most one Advance per node is in
// flight at any time.
//
// Advance is called once with nil inbound as the start signal (round 0),
// then once per round with all messages delivered to this node that
// round, sorted by (sender, sequence).
type Computation interface {
	// ID returns the node ID this computation occupies on the bus.
	ID() string

	// Advance consumes inbound messages and returns the resulting step.
	// A returned error aborts the whole run.
	Advance(ctx context.Context, inbound []transport.Message) (Step, error)

	// Value returns the variable this computation decides and its
	// currently committed value. ok is false while no value is committed
	// or when the node decides no variable (e.g. a factor node).
	Value() (varID string, val dcop.Value, ok bool)
}
