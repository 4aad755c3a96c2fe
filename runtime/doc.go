// Package runtime is the distributed execution substrate of godcop: it
// drives a set of computation nodes through their algorithm state machines
// by exchanging messages over a transport.Bus until a termination detector
// declares the run complete, then aggregates committed values into a
// dcop.Solution.
//
// The runtime is generic over one capability interface: a Computation
// consumes its inbound messages and returns outbound messages plus local
// progress signals (done, changed, delta). Everything algorithm-specific
// lives behind that interface; the engine only routes, schedules and
// observes.
//
// Scheduling modes:
//
//   - ModeSimulate (default) - a single-goroutine discrete round loop.
//     Within a round, computations advance in ascending node-ID order and
//     each node's inbound batch is sorted by (sender, sequence). Two runs
//     on the same inputs produce identical message traces, which is what
//     the test suite replays.
//   - ModeConcurrent - one goroutine per computation per round via
//     errgroup. Per-directed-edge FIFO still holds (the bus stamps and
//     enqueues under one lock, and each node sorts its batch); cross-edge
//     interleaving is arbitrary, as the algorithms require anyway.
//
// Both modes deliver in synchronous rounds: messages sent in round r are
// visible to their receivers in round r+1. A node is only scheduled when
// it has inbound messages (or in round 0, the start signal); it never
// blocks on another node's internal computation.
//
// Termination is detected from purely local signals: each Advance reports
// done/changed/delta, the engine folds them into one RoundStats counter
// set and feeds the Detector. No component ever snapshots another node's
// internals.
//
// Cancellation and deadlines: Run honors its context, an optional
// whole-run timeout, and an optional per-round timeout. An aborted run
// returns an error, or - in best-effort mode - a Solution marked Partial,
// built from whatever values nodes had committed.
package runtime
