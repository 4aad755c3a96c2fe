// Package runtime - termination detection from per-round local signals.
package runtime

// RoundStats is the lightweight aggregate the engine folds out of one
// round's Step results. It is all a Detector ever sees: per-node local
// signals counted up, never a snapshot of node internals.
type RoundStats struct {
	// Round is the round number, starting at 0 (the start signal).
	Round int

	// Active is the number of computations advanced this round.
	Active int

	// Changed is the number of computations whose committed value
	// changed this round.
	Changed int

	// Done is the cumulative number of computations in terminal state.
	Done int

	// Messages is the number of messages sent this round.
	Messages int

	// MaxDelta is the largest stability signal reported this round.
	MaxDelta float64
}

// Detector decides when a run is finished, from RoundStats alone.
// Detectors are single-goroutine: the engine calls Observe once per round
// and reads Finished/Converged between rounds.
type Detector interface {
	// Observe folds in one round's aggregate.
	Observe(s RoundStats)

	// Finished reports that the run should stop after the observed round.
	Finished() bool

	// Converged reports whether the stop was a genuine completion
	// (terminal states or stability) rather than budget exhaustion.
	Converged() bool
}

// completion finishes when every computation is done: the criterion of
// exact, self-terminating algorithms such as DPOP.
type completion struct {
	total    int
	done     int
	finished bool
}

// NewCompletionDetector returns a Detector that finishes once all total
// computations report Done.
func NewCompletionDetector(total int) Detector {
	return &completion{total: total}
}

func (c *completion) Observe(s RoundStats) {
	c.done = s.Done
	if c.done >= c.total {
		c.finished = true
	}
}

func (c *completion) Finished() bool  { return c.finished }
func (c *completion) Converged() bool { return c.finished }

// stability finishes on a round budget or on quiescence: no value changes
// and deltas at or below epsilon for a configured number of consecutive
// rounds. The criterion of iterative algorithms (MaxSum, DSA).
type stability struct {
	maxRounds    int
	epsilon      float64
	stableRounds int

	stableRun int
	round     int
	finished  bool
	converged bool
}

// NewStabilityDetector returns a Detector for iterative algorithms.
//
//   - maxRounds caps the run (> 0); reaching it finishes without
//     convergence.
//   - epsilon is the delta threshold for a round to count as stable.
//   - stableRounds is how many consecutive stable rounds declare
//     convergence (minimum 1).
//
// Round 0 is the start signal and never counts as stable.
func NewStabilityDetector(maxRounds int, epsilon float64, stableRounds int) Detector {
	if stableRounds < 1 {
		stableRounds = 1
	}
	return &stability{maxRounds: maxRounds, epsilon: epsilon, stableRounds: stableRounds}
}

func (d *stability) Observe(s RoundStats) {
	d.round = s.Round
	if s.Round > 0 && s.Changed == 0 && s.MaxDelta <= d.epsilon {
		d.stableRun++
	} else {
		d.stableRun = 0
	}
	if d.stableRun >= d.stableRounds {
		d.finished = true
		d.converged = true
		return
	}
	if d.maxRounds > 0 && s.Round >= d.maxRounds {
		d.finished = true
	}
}

func (d *stability) Finished() bool  { return d.finished }
func (d *stability) Converged() bool { return d.converged }
