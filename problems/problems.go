// Package problems generates benchmark DCOP instances used across the
// test suites and examples: graph colorings, random cost networks, chains
// and trees, plus the degenerate single-variable case.
//
// All generators are deterministic: stochastic ones require an explicit
// seed (WithSeed) and derive everything from it; shapes never depend on
// map iteration or wall clock. Variable IDs are zero-padded ("v000",
// "v001", ...) so lexicographic order equals construction order.
//
// Errors:
//
//   - ErrTooFewVariables  - n below the generator's minimum.
//   - ErrTooFewColors     - a coloring with fewer than two colors.
//   - ErrBadProbability   - edge probability outside [0,1].
package problems

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/dcoplib/godcop/dcop"
)

// Sentinel errors for instance generation.
var (
	// ErrTooFewVariables indicates n is below the generator's minimum.
	ErrTooFewVariables = errors.New("problems: too few variables")

	// ErrTooFewColors indicates a coloring domain with fewer than two values.
	ErrTooFewColors = errors.New("problems: need at least two colors")

	// ErrBadProbability indicates an edge probability outside [0,1].
	ErrBadProbability = errors.New("problems: probability out of range")
)

// Option configures a generator.
type Option func(*Options)

// Options holds the shared generator parameters.
type Options struct {
	// Seed drives every random choice of stochastic generators.
	Seed int64

	// Agents > 0 distributes variables round-robin over that many agents
	// named "a0".."aN". Zero keeps the one-agent-per-variable default.
	Agents int

	// Penalty is the cost of a violated not-equal constraint; default 1.
	Penalty float64

	// MaxCost bounds random constraint costs (exclusive); default 10.
	MaxCost float64
}

// DefaultOptions returns the generator defaults.
func DefaultOptions() Options {
	return Options{Penalty: 1, MaxCost: 10}
}

// WithSeed fixes the RNG seed of stochastic generators.
func WithSeed(seed int64) Option { return func(o *Options) { o.Seed = seed } }

// WithAgents distributes variables round-robin over n agents.
func WithAgents(n int) Option { return func(o *Options) { o.Agents = n } }

// WithPenalty sets the not-equal violation cost.
func WithPenalty(p float64) Option { return func(o *Options) { o.Penalty = p } }

// WithMaxCost bounds random constraint costs.
func WithMaxCost(c float64) Option { return func(o *Options) { o.MaxCost = c } }

func apply(opts []Option) Options {
	o := DefaultOptions()
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

// varID returns the zero-padded variable name of index i.
func varID(i int) string { return fmt.Sprintf("v%03d", i) }

// makeVars builds n variables over the given domain, applying the agent
// distribution policy.
func makeVars(n int, domain []dcop.Value, o Options) []dcop.Variable {
	vars := make([]dcop.Variable, n)
	for i := 0; i < n; i++ {
		v := dcop.Variable{ID: varID(i), Domain: domain}
		if o.Agents > 0 {
			v.Agent = fmt.Sprintf("a%d", i%o.Agents)
		}
		vars[i] = v
	}
	return vars
}

// colorDomain returns the ordered domain {0, ..., colors-1}.
func colorDomain(colors int) []dcop.Value {
	d := make([]dcop.Value, colors)
	for i := range d {
		d[i] = i
	}
	return d
}

// Single returns the degenerate one-variable, zero-constraint instance.
// Every algorithm must solve it in a single round by committing the first
// domain value at cost 0.
func Single(domain ...dcop.Value) (*dcop.Model, error) {
	if len(domain) == 0 {
		domain = []dcop.Value{0, 1}
	}
	return dcop.NewModel([]dcop.Variable{{ID: varID(0), Domain: domain}}, nil)
}

// Triangle returns three binary variables with pairwise not-equal
// constraints: the classic odd cycle with no satisfying assignment, whose
// optimum violates exactly one constraint.
func Triangle(opts ...Option) (*dcop.Model, error) {
	return NotEqualRing(3, 2, opts...)
}

// NotEqualRing returns n variables over `colors` values in a cycle of
// not-equal constraints: v0-v1-...-v(n-1)-v0.
func NotEqualRing(n, colors int, opts ...Option) (*dcop.Model, error) {
	if n < 3 {
		return nil, fmt.Errorf("%w: ring needs n >= 3, got %d", ErrTooFewVariables, n)
	}
	if colors < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrTooFewColors, colors)
	}
	o := apply(opts)

	vars := makeVars(n, colorDomain(colors), o)
	cons := make([]dcop.Constraint, 0, n)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		cons = append(cons, dcop.NotEqual(fmt.Sprintf("ne_%s_%s", varID(i), varID(j)), varID(i), varID(j), o.Penalty))
	}
	return dcop.NewModel(vars, cons)
}

// Chain returns n variables over `colors` values in a path of not-equal
// constraints: v0-v1-...-v(n-1). The constraint graph is a tree, so exact
// and approximate solvers must agree on it.
func Chain(n, colors int, opts ...Option) (*dcop.Model, error) {
	if n < 2 {
		return nil, fmt.Errorf("%w: chain needs n >= 2, got %d", ErrTooFewVariables, n)
	}
	if colors < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrTooFewColors, colors)
	}
	o := apply(opts)

	vars := makeVars(n, colorDomain(colors), o)
	cons := make([]dcop.Constraint, 0, n-1)
	for i := 0; i < n-1; i++ {
		cons = append(cons, dcop.NotEqual(fmt.Sprintf("ne_%s_%s", varID(i), varID(i+1)), varID(i), varID(i+1), o.Penalty))
	}
	return dcop.NewModel(vars, cons)
}

// RandomTree returns a random spanning tree over n variables with random
// binary cost tables: each edge carries a full cost table with entries
// drawn uniformly from [0, MaxCost). Requires a seed for reproducibility.
func RandomTree(n, colors int, opts ...Option) (*dcop.Model, error) {
	return randomNetwork(n, colors, 0, opts)
}

// RandomBinary returns a connected random binary cost network: a random
// spanning tree plus every remaining pair as an edge with probability p.
// Each edge carries a random cost table over [0, MaxCost).
func RandomBinary(n, colors int, p float64, opts ...Option) (*dcop.Model, error) {
	if p < 0 || p > 1 {
		return nil, fmt.Errorf("%w: %v", ErrBadProbability, p)
	}
	return randomNetwork(n, colors, p, opts)
}

func randomNetwork(n, colors int, extraP float64, opts []Option) (*dcop.Model, error) {
	if n < 2 {
		return nil, fmt.Errorf("%w: network needs n >= 2, got %d", ErrTooFewVariables, n)
	}
	if colors < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrTooFewColors, colors)
	}
	o := apply(opts)
	rng := rand.New(rand.NewSource(o.Seed))

	vars := makeVars(n, colorDomain(colors), o)
	var cons []dcop.Constraint

	// Random spanning tree: attach each new vertex to a uniformly chosen
	// earlier one, then sprinkle extra edges.
	for i := 1; i < n; i++ {
		j := rng.Intn(i)
		cons = append(cons, randomTable(rng, varID(j), varID(i), colors, o.MaxCost))
	}
	if extraP > 0 {
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				if hasEdge(cons, varID(i), varID(j)) {
					continue
				}
				if rng.Float64() < extraP {
					cons = append(cons, randomTable(rng, varID(i), varID(j), colors, o.MaxCost))
				}
			}
		}
	}
	return dcop.NewModel(vars, cons)
}

// randomTable builds a binary constraint with a dense random cost table.
func randomTable(rng *rand.Rand, x, y string, colors int, maxCost float64) dcop.Constraint {
	table := make([][]float64, colors)
	for i := range table {
		table[i] = make([]float64, colors)
		for j := range table[i] {
			table[i][j] = rng.Float64() * maxCost
		}
	}
	return dcop.Func(fmt.Sprintf("r_%s_%s", x, y), []string{x, y}, func(vals []dcop.Value) float64 {
		return table[vals[0].(int)][vals[1].(int)]
	})
}

func hasEdge(cons []dcop.Constraint, x, y string) bool {
	for _, c := range cons {
		s := c.Scope()
		if len(s) == 2 && ((s[0] == x && s[1] == y) || (s[0] == y && s[1] == x)) {
			return true
		}
	}
	return false
}
