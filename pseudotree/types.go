// Package pseudotree builds the computation structure used by dynamic
// programming DCOP algorithms: a DFS spanning tree of the constraint graph
// augmented with pseudo-parent/pseudo-child back edges, so that every
// constraint edge is represented exactly once and every node's non-tree
// neighbors are proper ancestors.
//
// Construction is deterministic: for a fixed model and options the builder
// always produces the same tree. The root defaults to the lowest variable
// ID of each component and DFS explores neighbors in ascending ID order.
//
// Disconnected constraint graphs are a policy choice, not a silent
// degenerate case: with the default Reject policy Build fails with
// ErrDisconnected; with the Forest policy it returns one tree per
// connected component.
//
// Complexity: O(V + E) for the traversal, plus O(sum of separator sizes)
// for separator propagation.
//
// Errors:
//
//   - ErrNilModel       - nil model passed to Build.
//   - ErrDisconnected   - graph has several components under PolicyReject.
//   - ErrRootNotFound   - WithRoot names a variable absent from the model.
package pseudotree

import "errors"

// Sentinel errors for pseudo-tree construction and validation.
var (
	// ErrNilModel indicates a nil *dcop.Model was passed to Build.
	ErrNilModel = errors.New("pseudotree: model is nil")

	// ErrDisconnected indicates the constraint graph has more than one
	// connected component while the Reject policy is in effect.
	ErrDisconnected = errors.New("pseudotree: constraint graph is disconnected")

	// ErrRootNotFound indicates WithRoot named a variable that does not
	// exist in the model.
	ErrRootNotFound = errors.New("pseudotree: root variable not found")

	// ErrInvalidTree is returned by Validate when a structural invariant
	// does not hold (broken spanning tree, uncovered or doubly covered
	// constraint edge, pseudo-parent that is not a proper ancestor).
	ErrInvalidTree = errors.New("pseudotree: invariant violated")
)

// DisconnectedPolicy selects how Build treats a constraint graph with more
// than one connected component.
type DisconnectedPolicy int

const (
	// PolicyReject makes Build fail with ErrDisconnected on a
	// disconnected graph. This is the default.
	PolicyReject DisconnectedPolicy = iota

	// PolicyForest makes Build return one pseudo-tree per connected
	// component, ordered by the smallest variable ID of each component.
	PolicyForest
)

// Node is one pseudo-tree position, held by the variable it represents.
// All edge sets reference variables by ID; the arena lives in Tree.Nodes,
// so there are no ownership cycles.
type Node struct {
	// Var is the variable this node stands for.
	Var string

	// Parent is the tree parent's variable ID, empty for the root.
	Parent string

	// Children are tree children in ascending ID order.
	Children []string

	// PseudoParents are ancestors (other than Parent) connected to this
	// node by a non-tree constraint edge, in ascending ID order.
	PseudoParents []string

	// PseudoChildren is the inverse of PseudoParents: descendants whose
	// back edge lands here, in ascending ID order.
	PseudoChildren []string

	// Depth is the distance from the root (root depth 0).
	Depth int

	// Separator is the set of ancestor variables this node's subtree cost
	// depends on, in ascending ID order. Empty for the root. The maximum
	// separator size over the tree is the induced width, which governs
	// DPOP's exponential table cost.
	Separator []string
}

// IsLeaf reports whether the node has no tree children.
func (n *Node) IsLeaf() bool { return len(n.Children) == 0 }

// IsRoot reports whether the node has no tree parent.
func (n *Node) IsRoot() bool { return n.Parent == "" }

// Tree is one pseudo-tree over a connected component of the constraint
// graph. It is immutable after Build.
type Tree struct {
	// Root is the variable ID of the tree root.
	Root string

	// Nodes indexes every node of this tree by variable ID.
	Nodes map[string]*Node

	preorder []string
}

// Node returns the node for the given variable, or nil if the variable is
// not part of this tree.
func (t *Tree) Node(varID string) *Node { return t.Nodes[varID] }

// PreOrder returns the variables of the tree in DFS pre-order (root
// first). The returned slice must not be modified.
func (t *Tree) PreOrder() []string { return t.preorder }

// InducedWidth returns the maximum separator size over the tree.
func (t *Tree) InducedWidth() int {
	w := 0
	for _, n := range t.Nodes {
		if len(n.Separator) > w {
			w = len(n.Separator)
		}
	}
	return w
}

// Option configures Build.
type Option func(*Options)

// Options holds the configurable parameters of pseudo-tree construction.
type Options struct {
	// Root forces the DFS root of the component containing it.
	// Components not containing Root keep the default lowest-ID rule.
	// Empty means lowest variable ID everywhere.
	Root string

	// Disconnected selects the multi-component policy; default PolicyReject.
	Disconnected DisconnectedPolicy
}

// DefaultOptions returns the builder defaults: lowest-ID root, reject
// disconnected graphs.
func DefaultOptions() Options {
	return Options{Disconnected: PolicyReject}
}

// WithRoot forces the given variable as DFS root of its component.
func WithRoot(varID string) Option {
	return func(o *Options) { o.Root = varID }
}

// WithDisconnected sets the multi-component policy.
func WithDisconnected(p DisconnectedPolicy) Option {
	return func(o *Options) { o.Disconnected = p }
}
