package extension

import (
	"math"

	"github.com/operator-framework/fdsolver/pkg/fd"
)

// cartesian walks, in lexicographic order, the product of the current
// domains of vars with position fixed bound to val.
type cartesian struct {
	vars  []*fd.IntVar
	fixed int
	val   int
}

func (c *cartesian) reset(t []int, from int) {
	for j := from; j < len(t); j++ {
		if j == c.fixed {
			t[j] = c.val
		} else {
			t[j] = c.vars[j].LB()
		}
	}
}

// bump turns t into the smallest tuple greater than t that differs
// from it at position k or before.
func (c *cartesian) bump(t []int, k int) bool {
	for ; k >= 0; k-- {
		if k == c.fixed {
			continue
		}
		if nv := c.vars[k].NextValue(t[k]); nv != math.MaxInt {
			t[k] = nv
			c.reset(t, k+1)
			return true
		}
	}
	return false
}

// ceil turns t into the smallest tuple of the product not smaller than
// t.
func (c *cartesian) ceil(t []int) bool {
	for j := range t {
		if j == c.fixed {
			switch {
			case t[j] == c.val:
				continue
			case t[j] < c.val:
				t[j] = c.val
				c.reset(t, j+1)
				return true
			}
			return c.bump(t, j-1)
		}
		if c.vars[j].Contains(t[j]) {
			continue
		}
		if nv := c.vars[j].NextValue(t[j]); nv != math.MaxInt {
			t[j] = nv
			c.reset(t, j+1)
			return true
		}
		return c.bump(t, j-1)
	}
	return true
}

// seek stores in t the first tuple at or after t that rel accepts.
func (c *cartesian) seek(rel Relation, t []int) bool {
	if !c.ceil(t) {
		return false
	}
	for {
		if rel.IsConsistent(t) {
			return true
		}
		if !c.bump(t, len(t)-1) {
			return false
		}
	}
}

// validTuple reports whether every value of t is in its domain.
func validTuple(vars []*fd.IntVar, t []int) bool {
	for j, v := range t {
		if !vars[j].Contains(v) {
			return false
		}
	}
	return true
}
