// Package runtime - the round-based engine driving computations to
// termination over a transport.Bus.
package runtime

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/dcoplib/godcop/dcop"
	"github.com/dcoplib/godcop/transport"
)

// ExecMode selects the scheduling strategy of a run.
type ExecMode int

const (
	// ModeSimulate runs the whole solve on one goroutine with a fixed
	// replay order: deterministic, the mode tests rely on.
	ModeSimulate ExecMode = iota

	// ModeConcurrent advances each computation on its own goroutine per
	// round. Per-edge FIFO still holds; cross-edge interleaving does not.
	ModeConcurrent
)

// Option configures an Engine.
type Option func(*Options)

// Options holds the configurable parameters of a solve run.
type Options struct {
	// Exec is the scheduling mode; default ModeSimulate.
	Exec ExecMode

	// Mode is the optimization direction recorded on the Solution.
	Mode dcop.Mode

	// Algorithm names the solver family on Solution and metrics labels.
	Algorithm string

	// Timeout bounds the whole run; 0 means no bound beyond ctx.
	Timeout time.Duration

	// RoundTimeout bounds each round; 0 means unbounded rounds.
	RoundTimeout time.Duration

	// MaxRounds is a safety cap on engine rounds independent of the
	// detector's own budget; 0 means uncapped. Hitting it ends the run
	// unconverged, it is not an error.
	MaxRounds int

	// BestEffort makes an aborted run return the Solution assembled from
	// whatever values nodes had committed, tagged Partial, alongside the
	// abort error. Without it an abort returns only the error.
	BestEffort bool

	// StrictConvergence makes Run return ErrNotConverged when the
	// detector stops without meeting its stability criterion. The
	// Solution is still returned; by default non-convergence is only a
	// flag on the record.
	StrictConvergence bool

	// Metrics, when non-nil, receives message/round/duration samples.
	Metrics *Metrics

	// Tracer, when non-nil, wraps the run in an OpenTelemetry span.
	Tracer trace.Tracer
}

// WithExecMode selects the scheduling mode.
func WithExecMode(m ExecMode) Option { return func(o *Options) { o.Exec = m } }

// WithMode sets the optimization direction recorded on the Solution.
func WithMode(m dcop.Mode) Option { return func(o *Options) { o.Mode = m } }

// WithAlgorithm names the solver family on the Solution record.
func WithAlgorithm(name string) Option { return func(o *Options) { o.Algorithm = name } }

// WithTimeout bounds the whole run.
func WithTimeout(d time.Duration) Option { return func(o *Options) { o.Timeout = d } }

// WithRoundTimeout bounds every individual round.
func WithRoundTimeout(d time.Duration) Option { return func(o *Options) { o.RoundTimeout = d } }

// WithMaxRounds caps engine rounds regardless of the detector.
func WithMaxRounds(n int) Option { return func(o *Options) { o.MaxRounds = n } }

// WithBestEffort enables partial Solution assembly on abort.
func WithBestEffort() Option { return func(o *Options) { o.BestEffort = true } }

// WithStrictConvergence turns budget exhaustion into ErrNotConverged.
func WithStrictConvergence() Option { return func(o *Options) { o.StrictConvergence = true } }

// WithMetrics attaches a metrics sink to the run.
func WithMetrics(m *Metrics) Option { return func(o *Options) { o.Metrics = m } }

// WithTracer attaches an OpenTelemetry tracer to the run.
func WithTracer(t trace.Tracer) Option { return func(o *Options) { o.Tracer = t } }

// Engine executes one solve run: it owns the bus, the round loop, the
// termination detector and the final aggregation. An Engine is single
// use; build a new one per run.
type Engine struct {
	model *dcop.Model
	comps []Computation
	det   Detector
	opts  Options
}

// New validates the computation set and builds an engine.
func New(m *dcop.Model, comps []Computation, det Detector, opts ...Option) (*Engine, error) {
	if m == nil {
		return nil, ErrNilModel
	}
	if len(comps) == 0 {
		return nil, ErrNoComputations
	}
	if det == nil {
		return nil, ErrNilDetector
	}

	o := Options{}
	for _, fn := range opts {
		fn(&o)
	}

	sorted := make([]Computation, len(comps))
	copy(sorted, comps)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID() < sorted[j].ID() })
	seen := make(map[string]struct{}, len(sorted))
	for _, c := range sorted {
		if _, dup := seen[c.ID()]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateComputation, c.ID())
		}
		seen[c.ID()] = struct{}{}
	}

	return &Engine{model: m, comps: sorted, det: det, opts: o}, nil
}

// Run executes the round loop until the detector finishes, the
// computations quiesce, or the run aborts. See the package documentation
// for the scheduling and ordering guarantees.
func (e *Engine) Run(ctx context.Context) (*dcop.Solution, error) {
	started := time.Now()
	if e.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.Timeout)
		defer cancel()
	}

	var span trace.Span
	if e.opts.Tracer != nil {
		ctx, span = e.opts.Tracer.Start(ctx, "godcop.solve",
			trace.WithAttributes(
				attribute.String("dcop.algorithm", e.opts.Algorithm),
				attribute.Int("dcop.variables", len(e.model.Variables())),
			))
		defer span.End()
	}

	bus := transport.NewMemBus()
	boxes := make(map[string]*transport.Mailbox, len(e.comps))
	for _, c := range e.comps {
		mb, err := bus.Register(c.ID())
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrAborted, err)
		}
		boxes[c.ID()] = mb
	}

	done := make(map[string]bool, len(e.comps))
	rounds := 0
	allDone := false
	var runErr error

	for round := 0; ; round++ {
		if err := ctx.Err(); err != nil {
			runErr = fmt.Errorf("%w: %w", ErrAborted, err)
			break
		}
		if e.opts.MaxRounds > 0 && round > e.opts.MaxRounds {
			break // safety cap: finish unconverged
		}

		// 1. Collect this round's inbound batches.
		var active []Computation
		batches := make(map[string][]transport.Message)
		if round == 0 {
			active = e.comps // start signal for everyone
		} else {
			for _, c := range e.comps {
				if msgs := boxes[c.ID()].Drain(); len(msgs) > 0 {
					sort.Slice(msgs, func(i, j int) bool {
						if msgs[i].From != msgs[j].From {
							return msgs[i].From < msgs[j].From
						}
						return msgs[i].Seq < msgs[j].Seq
					})
					batches[c.ID()] = msgs
					active = append(active, c)
				}
			}
			if len(active) == 0 {
				// Quiescent: either every node finished, or someone is
				// stuck waiting for a message that will never arrive.
				if len(done) == len(e.comps) {
					allDone = true
					break
				}
				runErr = fmt.Errorf("%w: %s", ErrMissingMessage, e.stalled(done))
				break
			}
		}

		// 2. Advance the active computations.
		steps, err := e.advance(ctx, active, batches)
		if err != nil {
			runErr = fmt.Errorf("%w: %w", ErrAborted, err)
			break
		}

		// 3. Ship outbound messages in deterministic order and fold stats.
		stats := RoundStats{Round: round, Active: len(active)}
		for i, c := range active {
			st := steps[i]
			if st.Done {
				done[c.ID()] = true
			}
			if st.Changed {
				stats.Changed++
			}
			if st.Delta > stats.MaxDelta {
				stats.MaxDelta = st.Delta
			}
			for _, out := range st.Outbound {
				if err := bus.Send(transport.Message{From: c.ID(), To: out.To, Payload: out.Payload}); err != nil {
					runErr = fmt.Errorf("%w: %w", ErrAborted, err)
					break
				}
				stats.Messages++
			}
			if runErr != nil {
				break
			}
		}
		if runErr != nil {
			break
		}
		stats.Done = len(done)
		rounds = round + 1

		if e.opts.Metrics != nil {
			e.opts.Metrics.observeRound(e.opts.Algorithm, stats.Messages)
		}

		// 4. Ask the detector whether the run is over.
		e.det.Observe(stats)
		if e.det.Finished() {
			break
		}
	}

	if e.opts.Metrics != nil {
		e.opts.Metrics.observeSolve(e.opts.Algorithm, time.Since(started))
	}
	if span != nil {
		span.SetAttributes(attribute.Int("dcop.rounds", rounds))
		if runErr != nil {
			span.RecordError(runErr)
		}
	}

	if runErr != nil {
		if e.opts.BestEffort {
			sol := e.assemble(rounds, false, true)
			return sol, runErr
		}
		return nil, runErr
	}

	// Every computation in terminal state is a genuine completion even if
	// the detector's own criterion never fired.
	sol := e.assemble(rounds, e.det.Converged() || allDone, false)
	if err := e.checkComplete(sol); err != nil {
		return nil, err
	}
	e.fillCosts(sol)
	if e.opts.StrictConvergence && !sol.Converged {
		return sol, ErrNotConverged
	}
	return sol, nil
}

// advance runs one round's activations in the configured mode.
func (e *Engine) advance(ctx context.Context, active []Computation, batches map[string][]transport.Message) ([]Step, error) {
	roundCtx := ctx
	if e.opts.RoundTimeout > 0 {
		var cancel context.CancelFunc
		roundCtx, cancel = context.WithTimeout(ctx, e.opts.RoundTimeout)
		defer cancel()
	}

	steps := make([]Step, len(active))
	if e.opts.Exec == ModeConcurrent {
		g, gctx := errgroup.WithContext(roundCtx)
		for i, c := range active {
			i, c := i, c
			g.Go(func() error {
				st, err := c.Advance(gctx, batches[c.ID()])
				if err != nil {
					return fmt.Errorf("node %q: %w", c.ID(), err)
				}
				steps[i] = st
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		return steps, nil
	}

	// Simulation mode: fixed ascending node-ID order (e.comps is sorted,
	// and active preserves that order).
	for i, c := range active {
		st, err := c.Advance(roundCtx, batches[c.ID()])
		if err != nil {
			return nil, fmt.Errorf("node %q: %w", c.ID(), err)
		}
		steps[i] = st
	}
	return steps, nil
}

// stalled names the nodes that never reached their terminal state.
func (e *Engine) stalled(done map[string]bool) string {
	var ids []string
	for _, c := range e.comps {
		if !done[c.ID()] {
			ids = append(ids, c.ID())
		}
	}
	const keep = 5
	if len(ids) > keep {
		return fmt.Sprintf("%v and %d more", ids[:keep], len(ids)-keep)
	}
	return fmt.Sprintf("%v", ids)
}

// assemble gathers committed values into a Solution shell.
func (e *Engine) assemble(rounds int, converged, partial bool) *dcop.Solution {
	assign := make(dcop.Assignment)
	for _, c := range e.comps {
		if varID, val, ok := c.Value(); ok {
			assign[varID] = val
		}
	}
	sol := &dcop.Solution{
		RunID:      dcop.NewRunID(),
		Algorithm:  e.opts.Algorithm,
		Mode:       e.opts.Mode,
		Assignment: assign,
		Rounds:     rounds,
		Converged:  converged,
		Partial:    partial,
	}
	if partial {
		// Costs are only meaningful if the record happens to be complete;
		// fillCosts is a no-op otherwise.
		e.fillCosts(sol)
	}
	return sol
}

// checkComplete verifies every model variable has a committed value.
func (e *Engine) checkComplete(sol *dcop.Solution) error {
	for _, v := range e.model.Variables() {
		if _, ok := sol.Assignment[v.ID]; !ok {
			return fmt.Errorf("%w: variable %q has no committed value", ErrMissingMessage, v.ID)
		}
	}
	return nil
}

// fillCosts computes total and per-agent costs when the assignment is
// complete; partial assignments keep zero costs.
func (e *Engine) fillCosts(sol *dcop.Solution) {
	cost, err := e.model.TotalCost(sol.Assignment)
	if err != nil {
		return
	}
	sol.Cost = cost
	if per, err := e.model.AgentCosts(sol.Assignment); err == nil {
		sol.AgentCosts = per
	}
}
