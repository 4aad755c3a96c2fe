// Package dcop - immutable problem model and derived constraint graph.
package dcop

import (
	"fmt"
	"sort"
)

// Model is the immutable description of one DCOP instance: variables,
// their domains and owning agents, and the cost constraints over them.
// The undirected constraint graph (edge iff two variables share a
// constraint) is derived once at construction and served read-only.
//
// Model is safe for concurrent use: nothing mutates it after NewModel.
type Model struct {
	vars     []*Variable            // sorted by ID
	varIndex map[string]*Variable   // ID -> variable
	cons     []Constraint           // declaration order
	conIndex map[string]Constraint  // ID -> constraint
	onVar    map[string][]Constraint // variable ID -> constraints referencing it
	adj      map[string][]string    // constraint graph adjacency, sorted
	agents   []string               // sorted distinct agent IDs
}

// NewModel validates the given variables and constraints and builds the
// model plus its constraint graph.
//
// Validation (all failures wrap ErrInvalidModel):
//   - every variable has a non-empty ID and a non-empty domain;
//   - variable and constraint IDs are unique within their kind;
//   - every constraint has arity >= 1 and references declared variables only.
//
// Variables with an empty Agent field are assigned to an agent named after
// the variable itself.
//
// Complexity: O(V log V + C·k + V·d log d) where k is constraint arity and
// d the vertex degree in the constraint graph.
func NewModel(vars []Variable, cons []Constraint) (*Model, error) {
	if len(vars) == 0 {
		return nil, fmt.Errorf("%w: no variables", ErrInvalidModel)
	}

	m := &Model{
		varIndex: make(map[string]*Variable, len(vars)),
		conIndex: make(map[string]Constraint, len(cons)),
		onVar:    make(map[string][]Constraint, len(vars)),
		adj:      make(map[string][]string, len(vars)),
	}

	// 1. Validate and register variables.
	for i := range vars {
		v := vars[i] // copy; the model owns its own instances
		if v.ID == "" {
			return nil, fmt.Errorf("%w: variable %d has empty ID", ErrInvalidModel, i)
		}
		if len(v.Domain) == 0 {
			return nil, fmt.Errorf("variable %q: %w", v.ID, ErrEmptyDomain)
		}
		if _, dup := m.varIndex[v.ID]; dup {
			return nil, fmt.Errorf("variable %q: %w", v.ID, ErrDuplicateID)
		}
		if v.Agent == "" {
			v.Agent = v.ID
		}
		dom := make([]Value, len(v.Domain))
		copy(dom, v.Domain)
		v.Domain = dom
		m.vars = append(m.vars, &v)
		m.varIndex[v.ID] = &v
	}
	sort.Slice(m.vars, func(i, j int) bool { return m.vars[i].ID < m.vars[j].ID })

	// 2. Validate and register constraints; accumulate adjacency.
	neigh := make(map[string]map[string]struct{}, len(vars))
	for _, c := range cons {
		if c == nil {
			return nil, fmt.Errorf("%w: nil constraint", ErrInvalidModel)
		}
		if c.ID() == "" {
			return nil, fmt.Errorf("%w: constraint has empty ID", ErrInvalidModel)
		}
		if _, dup := m.conIndex[c.ID()]; dup {
			return nil, fmt.Errorf("constraint %q: %w", c.ID(), ErrDuplicateID)
		}
		scope := c.Scope()
		if len(scope) == 0 {
			return nil, fmt.Errorf("constraint %q: %w", c.ID(), ErrEmptyScope)
		}
		for _, id := range scope {
			if _, ok := m.varIndex[id]; !ok {
				return nil, fmt.Errorf("constraint %q references %q: %w", c.ID(), id, ErrUnknownVariable)
			}
			m.onVar[id] = append(m.onVar[id], c)
		}
		m.conIndex[c.ID()] = c
		m.cons = append(m.cons, c)

		// Every pair of scoped variables becomes a constraint-graph edge.
		for i := 0; i < len(scope); i++ {
			for j := i + 1; j < len(scope); j++ {
				if scope[i] == scope[j] {
					continue
				}
				addEdge(neigh, scope[i], scope[j])
			}
		}
	}

	// 3. Freeze adjacency in sorted order for deterministic traversal.
	for id, set := range neigh {
		ns := make([]string, 0, len(set))
		for n := range set {
			ns = append(ns, n)
		}
		sort.Strings(ns)
		m.adj[id] = ns
	}

	// 4. Collect distinct agents.
	seen := map[string]struct{}{}
	for _, v := range m.vars {
		if _, ok := seen[v.Agent]; !ok {
			seen[v.Agent] = struct{}{}
			m.agents = append(m.agents, v.Agent)
		}
	}
	sort.Strings(m.agents)

	return m, nil
}

func addEdge(neigh map[string]map[string]struct{}, a, b string) {
	if neigh[a] == nil {
		neigh[a] = map[string]struct{}{}
	}
	if neigh[b] == nil {
		neigh[b] = map[string]struct{}{}
	}
	neigh[a][b] = struct{}{}
	neigh[b][a] = struct{}{}
}

// Variables returns the model's variables sorted by ID.
// The returned slice must not be modified.
func (m *Model) Variables() []*Variable { return m.vars }

// Variable returns the variable with the given ID, or nil if absent.
func (m *Model) Variable(id string) *Variable { return m.varIndex[id] }

// Constraints returns all constraints in declaration order.
func (m *Model) Constraints() []Constraint { return m.cons }

// Constraint returns the constraint with the given ID, or nil if absent.
func (m *Model) Constraint(id string) Constraint { return m.conIndex[id] }

// ConstraintsOn returns the constraints whose scope includes varID,
// in declaration order.
func (m *Model) ConstraintsOn(varID string) []Constraint { return m.onVar[varID] }

// Neighbors returns the constraint-graph neighbors of varID in ascending
// ID order. Variables sharing no constraint have no neighbors.
func (m *Model) Neighbors(varID string) []string { return m.adj[varID] }

// Agents returns the sorted distinct agent IDs of the model.
func (m *Model) Agents() []string { return m.agents }

// Connected reports whether the constraint graph forms a single connected
// component. A single-variable model is connected by definition.
func (m *Model) Connected() bool { return len(m.Components()) == 1 }

// Components returns the connected components of the constraint graph as
// sorted slices of variable IDs. Components are ordered by their smallest
// member, so the result is deterministic.
func (m *Model) Components() [][]string {
	visited := make(map[string]bool, len(m.vars))
	var comps [][]string
	for _, v := range m.vars { // m.vars is sorted by ID
		if visited[v.ID] {
			continue
		}
		// Iterative DFS over the constraint graph.
		stack := []string{v.ID}
		visited[v.ID] = true
		var comp []string
		for len(stack) > 0 {
			cur := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			comp = append(comp, cur)
			for _, n := range m.adj[cur] {
				if !visited[n] {
					visited[n] = true
					stack = append(stack, n)
				}
			}
		}
		sort.Strings(comp)
		comps = append(comps, comp)
	}
	return comps
}
