package extension

import (
	"math"
	"math/rand"

	"github.com/operator-framework/fdsolver/pkg/fd"
)

// Generate enumerates the product of the current domains of vars and
// keeps the tuples accepted by filter.
func Generate(filter func(values []int) bool, feasible bool, vars []*fd.IntVar) *Tuples {
	t := NewTuples(feasible)
	if len(vars) == 0 {
		return t
	}
	cur := make([]int, len(vars))
	for i, v := range vars {
		cur[i] = v.LB()
	}
	for {
		if filter(cur) {
			_ = t.Add(cur...)
		}
		k := len(vars) - 1
		for ; k >= 0; k-- {
			if nv := vars[k].NextValue(cur[k]); nv != math.MaxInt {
				cur[k] = nv
				break
			}
			cur[k] = vars[k].LB()
		}
		if k < 0 {
			return t
		}
	}
}

// AllEquals returns the allowed tuples whose values are all equal.
func AllEquals(vars []*fd.IntVar) *Tuples {
	t := NewTuples(true)
	if len(vars) == 0 {
		return t
	}
	for v := vars[0].LB(); v != math.MaxInt; v = vars[0].NextValue(v) {
		ok := true
		for _, x := range vars[1:] {
			if !x.Contains(v) {
				ok = false
				break
			}
		}
		if !ok {
			continue
		}
		row := make([]int, len(vars))
		for i := range row {
			row[i] = v
		}
		_ = t.Add(row...)
	}
	return t
}

// AllDifferent returns the allowed tuples whose values are pairwise
// distinct.
func AllDifferent(vars []*fd.IntVar) *Tuples {
	t := NewTuples(true)
	if len(vars) == 0 {
		return t
	}
	row := make([]int, len(vars))
	used := map[int]bool{}
	var walk func(i int)
	walk = func(i int) {
		if i == len(vars) {
			_ = t.Add(row...)
			return
		}
		for v := vars[i].LB(); v != math.MaxInt; v = vars[i].NextValue(v) {
			if used[v] {
				continue
			}
			used[v] = true
			row[i] = v
			walk(i + 1)
			used[v] = false
		}
	}
	walk(0)
	return t
}

// Scalar returns the allowed tuples (x1..xn, r) with
// Σ coeffs[i]·xi = scale·r, r taken in the domain of result.
func Scalar(vars []*fd.IntVar, coeffs []int, result *fd.IntVar, scale int) (*Tuples, error) {
	if len(vars) != len(coeffs) {
		return nil, fd.Malformed("%d variables for %d coefficients", len(vars), len(coeffs))
	}
	if scale == 0 {
		return nil, fd.Malformed("scalar with a zero result coefficient")
	}
	t := NewTuples(true)
	gen := Generate(func([]int) bool { return true }, true, vars)
	for k := 0; k < gen.Len(); k++ {
		row := gen.Get(k)
		sum := 0
		for i, v := range row {
			sum += coeffs[i] * v
		}
		if sum%scale != 0 || !result.Contains(sum/scale) {
			continue
		}
		_ = t.Add(append(append([]int(nil), row...), sum/scale)...)
	}
	return t, nil
}

// RandomTuples keeps each tuple of the product with probability
// density, drawing from a generator seeded with seed.
func RandomTuples(seed int64, density float64, feasible bool, vars []*fd.IntVar) *Tuples {
	rnd := rand.New(rand.NewSource(seed))
	return Generate(func([]int) bool { return rnd.Float64() < density }, feasible, vars)
}
