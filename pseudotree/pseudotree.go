// Package pseudotree - DFS construction of the pseudo-tree.
package pseudotree

import (
	"fmt"
	"sort"

	"github.com/dcoplib/godcop/dcop"
)

// vertex colors during DFS.
const (
	white = iota // not yet visited
	gray         // on the recursion stack
	black        // fully explored
)

// Build derives the pseudo-tree(s) for the model's constraint graph.
//
// Per component it runs a depth-first traversal from a deterministic root
// (lowest variable ID, unless WithRoot applies): tree edges become
// parent/child links, and every remaining constraint edge is recorded once
// as a pseudo-parent link on the deeper endpoint. Separators are then
// propagated leaves-to-root.
//
// With the default PolicyReject, a graph with more than one component
// fails with ErrDisconnected and the error names the component count.
// With PolicyForest, one tree per component is returned, ordered by each
// component's smallest variable ID.
func Build(m *dcop.Model, opts ...Option) ([]*Tree, error) {
	if m == nil {
		return nil, ErrNilModel
	}

	o := DefaultOptions()
	for _, fn := range opts {
		fn(&o)
	}
	if o.Root != "" && m.Variable(o.Root) == nil {
		return nil, fmt.Errorf("%w: %q", ErrRootNotFound, o.Root)
	}

	comps := m.Components()
	if len(comps) > 1 && o.Disconnected == PolicyReject {
		return nil, fmt.Errorf("%w: %d components", ErrDisconnected, len(comps))
	}

	trees := make([]*Tree, 0, len(comps))
	for _, comp := range comps {
		root := comp[0] // components are sorted; lowest ID by default
		if o.Root != "" && contains(comp, o.Root) {
			root = o.Root
		}
		trees = append(trees, buildComponent(m, comp, root))
	}
	return trees, nil
}

// buildComponent runs the DFS for one connected component.
func buildComponent(m *dcop.Model, comp []string, root string) *Tree {
	t := &Tree{
		Root:  root,
		Nodes: make(map[string]*Node, len(comp)),
	}
	for _, id := range comp {
		t.Nodes[id] = &Node{Var: id}
	}

	color := make(map[string]int, len(comp))
	var visit func(u string, depth int)
	visit = func(u string, depth int) {
		color[u] = gray
		nu := t.Nodes[u]
		nu.Depth = depth
		t.preorder = append(t.preorder, u)

		// Neighbors come pre-sorted from the model, which fixes the
		// child order and therefore the whole tree shape.
		for _, v := range m.Neighbors(u) {
			switch color[v] {
			case white:
				nv := t.Nodes[v]
				nv.Parent = u
				nu.Children = append(nu.Children, v)
				visit(v, depth+1)
			case gray:
				// Back edge to a proper ancestor. Recorded exactly once:
				// from the deeper endpoint, while the ancestor is gray.
				if v != nu.Parent {
					nu.PseudoParents = append(nu.PseudoParents, v)
					t.Nodes[v].PseudoChildren = append(t.Nodes[v].PseudoChildren, u)
				}
			}
			// black: the edge was recorded when the descendant was explored.
		}
		color[u] = black
	}
	visit(root, 0)

	for _, n := range t.Nodes {
		sort.Strings(n.PseudoParents)
		sort.Strings(n.PseudoChildren)
	}
	computeSeparators(t)
	return t
}

// computeSeparators fills Node.Separator bottom-up:
// sep(u) = (union of children separators) + pseudo-parents + parent - {u}.
func computeSeparators(t *Tree) {
	// Reverse pre-order is a valid post-order for separator propagation:
	// every child appears after its parent in pre-order.
	for i := len(t.preorder) - 1; i >= 0; i-- {
		u := t.preorder[i]
		n := t.Nodes[u]
		set := make(map[string]struct{})
		for _, c := range n.Children {
			for _, s := range t.Nodes[c].Separator {
				set[s] = struct{}{}
			}
		}
		for _, p := range n.PseudoParents {
			set[p] = struct{}{}
		}
		if n.Parent != "" {
			set[n.Parent] = struct{}{}
		}
		delete(set, u)

		n.Separator = make([]string, 0, len(set))
		for s := range set {
			n.Separator = append(n.Separator, s)
		}
		sort.Strings(n.Separator)
	}
}

// Validate checks the structural invariants of the trees against the
// model's constraint graph:
//
//  1. the parent/child edges form a spanning tree of each component and
//     every model variable belongs to exactly one tree;
//  2. every constraint edge appears exactly once, as parent/child or as
//     pseudo-parent/pseudo-child;
//  3. every pseudo-parent is a proper ancestor of its pseudo-child.
//
// Returns nil if all invariants hold, otherwise an error wrapping
// ErrInvalidTree that names the first violation found.
func Validate(trees []*Tree, m *dcop.Model) error {
	if m == nil {
		return ErrNilModel
	}

	owner := make(map[string]*Tree)
	for _, t := range trees {
		for id, n := range t.Nodes {
			if _, dup := owner[id]; dup {
				return fmt.Errorf("%w: variable %q in two trees", ErrInvalidTree, id)
			}
			owner[id] = t
			if id != t.Root && t.Nodes[n.Parent] == nil {
				return fmt.Errorf("%w: %q has parent %q outside its tree", ErrInvalidTree, id, n.Parent)
			}
		}
		// Spanning and acyclicity: every non-root must reach the root by
		// parent links without revisiting a node.
		for id := range t.Nodes {
			seen := map[string]bool{}
			for cur := id; cur != t.Root; {
				if seen[cur] {
					return fmt.Errorf("%w: parent cycle at %q", ErrInvalidTree, cur)
				}
				seen[cur] = true
				cur = t.Nodes[cur].Parent
			}
		}
	}
	for _, v := range m.Variables() {
		if owner[v.ID] == nil {
			return fmt.Errorf("%w: variable %q not covered", ErrInvalidTree, v.ID)
		}
	}

	// Edge coverage: count each undirected constraint edge once.
	for _, v := range m.Variables() {
		for _, w := range m.Neighbors(v.ID) {
			if w < v.ID {
				continue // each undirected edge checked once
			}
			tv, tw := owner[v.ID], owner[w]
			if tv != tw {
				return fmt.Errorf("%w: edge %q-%q spans two trees", ErrInvalidTree, v.ID, w)
			}
			n := 0
			if tv.Nodes[v.ID].Parent == w || tv.Nodes[w].Parent == v.ID {
				n++
			}
			if contains(tv.Nodes[v.ID].PseudoParents, w) {
				n++
			}
			if contains(tv.Nodes[w].PseudoParents, v.ID) {
				n++
			}
			if n != 1 {
				return fmt.Errorf("%w: edge %q-%q covered %d times", ErrInvalidTree, v.ID, w, n)
			}
		}
	}

	// Pseudo-parents must be proper ancestors.
	for _, t := range trees {
		for id, n := range t.Nodes {
			for _, pp := range n.PseudoParents {
				if !isAncestor(t, pp, id) {
					return fmt.Errorf("%w: pseudo-parent %q of %q is not an ancestor", ErrInvalidTree, pp, id)
				}
			}
		}
	}
	return nil
}

// isAncestor reports whether a is a proper ancestor of d in t.
func isAncestor(t *Tree, a, d string) bool {
	for cur := t.Nodes[d].Parent; cur != ""; cur = t.Nodes[cur].Parent {
		if cur == a {
			return true
		}
	}
	return false
}

func contains(xs []string, x string) bool {
	for _, s := range xs {
		if s == x {
			return true
		}
	}
	return false
}
