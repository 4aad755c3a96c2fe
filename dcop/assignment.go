// Package dcop - assignments and cost evaluation.
package dcop

import "fmt"

// Assignment maps variable IDs to chosen values. It is the unit of cost
// evaluation and the payload of the final Solution.
type Assignment map[string]Value

// Clone returns a shallow copy of the assignment.
func (a Assignment) Clone() Assignment {
	cp := make(Assignment, len(a))
	for k, v := range a {
		cp[k] = v
	}
	return cp
}

// ConstraintCost evaluates constraint c under assignment a.
// Returns ErrIncompleteAssignment if a does not cover the full scope.
func ConstraintCost(c Constraint, a Assignment) (float64, error) {
	scope := c.Scope()
	vals := make([]Value, len(scope))
	for i, id := range scope {
		v, ok := a[id]
		if !ok {
			return 0, fmt.Errorf("constraint %q, variable %q: %w", c.ID(), id, ErrIncompleteAssignment)
		}
		vals[i] = v
	}
	return c.Cost(vals), nil
}

// TotalCost sums every constraint's cost under a complete assignment.
// Returns ErrIncompleteAssignment if any scoped variable is unassigned.
func (m *Model) TotalCost(a Assignment) (float64, error) {
	var total float64
	for _, c := range m.cons {
		cost, err := ConstraintCost(c, a)
		if err != nil {
			return 0, err
		}
		total += cost
	}
	return total, nil
}

// AgentCosts splits the total cost of a complete assignment across agents.
// Each constraint's cost is attributed to the agent owning the first
// variable of its scope (the constraint's hosting agent).
func (m *Model) AgentCosts(a Assignment) (map[string]float64, error) {
	per := make(map[string]float64, len(m.agents))
	for _, ag := range m.agents {
		per[ag] = 0
	}
	for _, c := range m.cons {
		cost, err := ConstraintCost(c, a)
		if err != nil {
			return nil, err
		}
		host := m.varIndex[c.Scope()[0]].Agent
		per[host] += cost
	}
	return per, nil
}
