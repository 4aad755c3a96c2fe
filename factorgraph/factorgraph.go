// Package factorgraph builds the bipartite computation structure used by
// belief-propagation DCOP algorithms: one node per variable, one node per
// constraint (factor), and an edge between a factor and each variable of
// its scope.
//
// Unlike the pseudo-tree, no cycles are removed: MaxSum runs on loopy
// graphs and must tolerate them (losing its optimality guarantee there).
// Construction is deterministic: node and neighbor lists come out sorted.
//
// Errors:
//
//   - ErrNilModel    - nil model passed to Build.
//   - ErrIDCollision - a variable and a constraint share the same ID, so
//     the two node sets cannot be merged into one address space.
package factorgraph

import (
	"errors"
	"fmt"
	"sort"

	"github.com/dcoplib/godcop/dcop"
)

// Sentinel errors for factor-graph construction.
var (
	// ErrNilModel indicates a nil *dcop.Model was passed to Build.
	ErrNilModel = errors.New("factorgraph: model is nil")

	// ErrIDCollision indicates a variable and a constraint share an ID.
	ErrIDCollision = errors.New("factorgraph: variable and constraint share an ID")
)

// Kind distinguishes the two node families of the bipartite graph.
type Kind int

const (
	// VariableNode holds one decision variable.
	VariableNode Kind = iota

	// FactorNode holds one constraint (factor).
	FactorNode
)

// Node is one position of the factor graph. Exactly one of Variable or
// Factor is set, according to Kind.
type Node struct {
	// ID is the node address: the variable ID for variable nodes, the
	// constraint ID for factor nodes.
	ID string

	// Kind tells which family the node belongs to.
	Kind Kind

	// Variable is set for VariableNode nodes.
	Variable *dcop.Variable

	// Factor is set for FactorNode nodes.
	Factor dcop.Constraint

	// Neighbors are the IDs of adjacent nodes (factors for a variable
	// node, variables for a factor node), in ascending ID order for
	// variable nodes and scope order for factor nodes.
	Neighbors []string
}

// Graph is the immutable bipartite factor graph of a model.
type Graph struct {
	// Nodes indexes every node by ID.
	Nodes map[string]*Node

	// VariableIDs lists variable-node IDs in ascending order.
	VariableIDs []string

	// FactorIDs lists factor-node IDs in ascending order.
	FactorIDs []string
}

// Node returns the node with the given ID, or nil if absent.
func (g *Graph) Node(id string) *Node { return g.Nodes[id] }

// Build derives the factor graph of m. Same model, same graph.
func Build(m *dcop.Model) (*Graph, error) {
	if m == nil {
		return nil, ErrNilModel
	}

	g := &Graph{Nodes: make(map[string]*Node)}

	for _, v := range m.Variables() {
		g.Nodes[v.ID] = &Node{ID: v.ID, Kind: VariableNode, Variable: v}
		g.VariableIDs = append(g.VariableIDs, v.ID)
	}

	for _, c := range m.Constraints() {
		if _, clash := g.Nodes[c.ID()]; clash {
			return nil, fmt.Errorf("%w: %q", ErrIDCollision, c.ID())
		}
		// Factor neighbors keep scope order; duplicates in scope collapse.
		fn := &Node{ID: c.ID(), Kind: FactorNode, Factor: c}
		seen := map[string]struct{}{}
		for _, varID := range c.Scope() {
			if _, dup := seen[varID]; dup {
				continue
			}
			seen[varID] = struct{}{}
			fn.Neighbors = append(fn.Neighbors, varID)
			vn := g.Nodes[varID]
			vn.Neighbors = append(vn.Neighbors, c.ID())
		}
		g.Nodes[c.ID()] = fn
		g.FactorIDs = append(g.FactorIDs, c.ID())
	}

	for _, id := range g.VariableIDs {
		sort.Strings(g.Nodes[id].Neighbors)
	}
	sort.Strings(g.FactorIDs)

	return g, nil
}
