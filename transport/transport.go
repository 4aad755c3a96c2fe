// Package transport is the message channel seam of the runtime: typed
// envelopes between computation nodes, per-node mailboxes safe under
// concurrent producers and a single consumer, and the Bus interface an
// engine sends through.
//
// Guarantees:
//
//   - Messages between one ordered (from, to) pair carry strictly
//     increasing sequence numbers assigned at send time, and a mailbox
//     preserves enqueue order, so per-directed-edge delivery is FIFO.
//   - No ordering is promised across different sender-receiver pairs;
//     algorithms must tolerate arbitrary interleaving of unrelated edges.
//
// The in-memory Bus here is the only transport the toolkit ships; a real
// network transport can substitute at this interface without touching any
// algorithm code.
//
// Errors:
//
//   - ErrUnknownReceiver - Send addressed a node that never registered.
//   - ErrDuplicateNode   - Register called twice for the same node ID.
package transport

import (
	"errors"
	"fmt"
	"sync"
)

// Sentinel errors of the in-memory bus.
var (
	// ErrUnknownReceiver indicates a Send to a node ID with no mailbox.
	ErrUnknownReceiver = errors.New("transport: unknown receiver")

	// ErrDuplicateNode indicates Register was called twice for one ID.
	ErrDuplicateNode = errors.New("transport: node already registered")
)

// Payload is an algorithm-specific message body. Kind returns a short
// routing tag such as "dpop.util" or "dsa.value"; payload contents are
// opaque to the transport.
type Payload interface {
	Kind() string
}

// Message is the typed envelope exchanged between computation nodes.
type Message struct {
	// From is the sender node ID.
	From string

	// To is the receiver node ID.
	To string

	// Seq is the logical sequence number within the directed (From, To)
	// edge, starting at 1. Assigned by the Bus at send time.
	Seq uint64

	// Payload is the algorithm-specific body.
	Payload Payload
}

// Bus is the abstract message channel between computation nodes. Send is
// safe for concurrent use; Register is not and must complete before any
// Send.
type Bus interface {
	// Register creates the mailbox for a node and returns it.
	Register(nodeID string) (*Mailbox, error)

	// Send stamps the message with the next sequence number of its
	// directed edge and enqueues it at the receiver.
	Send(msg Message) error
}

// Mailbox is a node's inbound queue: many producers, one consumer.
// The consumer (the hosting agent) is the only goroutine allowed to
// Drain; producers only Put via Bus.Send.
type Mailbox struct {
	mu    sync.Mutex
	queue []Message
}

// Put appends a message. Safe for concurrent producers.
func (mb *Mailbox) Put(msg Message) {
	mb.mu.Lock()
	mb.queue = append(mb.queue, msg)
	mb.mu.Unlock()
}

// Drain removes and returns all queued messages in enqueue order.
// Returns nil when the mailbox is empty.
func (mb *Mailbox) Drain() []Message {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	if len(mb.queue) == 0 {
		return nil
	}
	out := mb.queue
	mb.queue = nil
	return out
}

// Len returns the number of queued messages.
func (mb *Mailbox) Len() int {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	return len(mb.queue)
}

// MemBus is the in-process Bus used by both scheduling modes of the
// runtime. Sequence counters are per directed edge.
type MemBus struct {
	mu    sync.Mutex
	boxes map[string]*Mailbox
	seq   map[[2]string]uint64
}

// NewMemBus returns an empty in-memory bus.
func NewMemBus() *MemBus {
	return &MemBus{
		boxes: make(map[string]*Mailbox),
		seq:   make(map[[2]string]uint64),
	}
}

// Register creates the mailbox for nodeID.
func (b *MemBus) Register(nodeID string) (*Mailbox, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, dup := b.boxes[nodeID]; dup {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateNode, nodeID)
	}
	mb := &Mailbox{}
	b.boxes[nodeID] = mb
	return mb, nil
}

// Send stamps msg.Seq and enqueues it at the receiver's mailbox.
// Stamping and enqueueing happen under one lock so that concurrent sends
// on the same edge cannot arrive out of sequence order.
func (b *MemBus) Send(msg Message) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	mb, ok := b.boxes[msg.To]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownReceiver, msg.To)
	}
	edge := [2]string{msg.From, msg.To}
	b.seq[edge]++
	msg.Seq = b.seq[edge]
	mb.Put(msg)
	return nil
}
