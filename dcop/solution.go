// Package dcop - the Solution record produced by a solve run.
package dcop

import "github.com/google/uuid"

// Solution is the immutable outcome of one solve run: the chosen value per
// variable, the total cost, the per-agent cost split, and run metadata.
// It is created once by the runtime aggregator after termination and never
// mutated afterwards.
type Solution struct {
	// RunID uniquely identifies the solve run that produced this record.
	RunID string

	// Algorithm names the solver family that produced the record
	// ("dpop", "maxsum", "dsa", "exhaustive").
	Algorithm string

	// Mode is the optimization direction of the run.
	Mode Mode

	// Assignment maps every variable ID to its chosen value. In a Partial
	// record some variables may be missing.
	Assignment Assignment

	// Cost is the total cost of Assignment over all constraints.
	// Undefined (0) when Partial and the assignment is incomplete.
	Cost float64

	// AgentCosts splits Cost across agents; each constraint is attributed
	// to the agent hosting the first variable of its scope.
	AgentCosts map[string]float64

	// Rounds is the number of engine rounds the run executed.
	Rounds int

	// Converged reports whether the run's termination detector observed
	// its stability criterion. Exact algorithms always converge; iterative
	// ones may exhaust their round budget first, which is a reportable
	// outcome, not an error.
	Converged bool

	// Partial marks a best-effort record assembled after an aborted run.
	Partial bool
}

// NewRunID returns a fresh identifier for a solve run.
func NewRunID() string { return uuid.NewString() }
