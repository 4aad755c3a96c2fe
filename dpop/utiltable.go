// Package dpop - dense utility tables indexed by variable assignments.
package dpop

// utilTable is a dense cost table over an ordered variable list. Cells
// are laid out row-major with the last variable's index moving fastest,
// which matches the enumeration order of odometer.
type utilTable struct {
	vars []string // ordered variable IDs
	dims []int    // domain size per variable, aligned with vars
	vals []float64
}

// newUtilTable allocates a zeroed table. A table over zero variables has
// exactly one cell, which keeps root handling uniform.
func newUtilTable(vars []string, dims []int) *utilTable {
	size := 1
	for _, d := range dims {
		size *= d
	}
	return &utilTable{vars: vars, dims: dims, vals: make([]float64, size)}
}

// tableSize returns the cell count a table over dims would need.
func tableSize(dims []int) int {
	size := 1
	for _, d := range dims {
		size *= d
	}
	return size
}

// pos converts a per-variable index vector into the flat cell position.
func (t *utilTable) pos(idx []int) int {
	p := 0
	for i, d := range t.dims {
		p = p*d + idx[i]
	}
	return p
}

// lookup reads the cell addressed by assign, a variable->domain-index map
// covering at least t.vars.
func (t *utilTable) lookup(assign map[string]int) float64 {
	p := 0
	for i, v := range t.vars {
		p = p*t.dims[i] + assign[v]
	}
	return t.vals[p]
}

// odometer enumerates all index vectors over dims in row-major order
// (last position fastest). Usage:
//
//	for it := newOdometer(dims); it.valid(); it.next() { use it.idx }
//
// The flat enumeration order matches utilTable.pos, so the n-th iteration
// addresses cell n.
type odometer struct {
	dims []int
	idx  []int
	done bool
}

func newOdometer(dims []int) *odometer {
	return &odometer{dims: dims, idx: make([]int, len(dims))}
}

func (o *odometer) valid() bool { return !o.done }

func (o *odometer) next() {
	for i := len(o.dims) - 1; i >= 0; i-- {
		o.idx[i]++
		if o.idx[i] < o.dims[i] {
			return
		}
		o.idx[i] = 0
	}
	o.done = true
}
