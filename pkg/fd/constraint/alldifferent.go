package constraint

import (
	"fmt"
	"math"
	"strings"

	"github.com/operator-framework/fdsolver/pkg/fd"
)

// All-different filtering levels.
const (
	// NEQS posts one disequality per pair of variables.
	NEQS = "NEQS"
	// AC removes every value outside a maximum matching of the
	// variable-value graph.
	AC = "AC"
)

// AllDifferent returns the constraint that vars take pairwise distinct
// values, filtered at the given level.
func AllDifferent(vars []*fd.IntVar, level string) (*fd.Constraint, error) {
	if len(vars) == 0 {
		return nil, fd.Malformed("all-different over no variable")
	}
	m := vars[0].Model()
	switch level {
	case NEQS, "":
		var props []fd.Propagator
		for i := range vars {
			for j := i + 1; j < len(vars); j++ {
				props = append(props, newPropNotEqual(vars[i], vars[j]))
			}
		}
		return m.NewConstraint("ALLDIFFERENT", props...), nil
	case AC:
		return m.NewConstraint("ALLDIFFERENT", newPropAllDiffAC(vars)), nil
	}
	return nil, fd.Malformed("unknown all-different level %q", level)
}

// propAllDiffAC is Régin's filtering: a value is kept for a variable
// when the edge between them belongs to some maximum matching.
type propAllDiffAC struct {
	fd.PropBase
	vars []*fd.IntVar

	// per call
	values   map[int]int
	valOf    []int
	varMatch []int
	valMatch []int
	seen     []bool
}

func newPropAllDiffAC(vars []*fd.IntVar) *propAllDiffAC {
	names := make([]string, len(vars))
	for i, v := range vars {
		names[i] = v.Name()
	}
	return &propAllDiffAC{
		PropBase: fd.NewPropBase(fmt.Sprintf("ALLDIFF_AC(%s)", strings.Join(names, ",")), fd.PriorityQuadratic, fd.AsVars(vars)...),
		vars:     vars,
		varMatch: make([]int, len(vars)),
	}
}

func (p *propAllDiffAC) index() {
	p.values = map[int]int{}
	p.valOf = p.valOf[:0]
	for _, v := range p.vars {
		for val := v.LB(); val != math.MaxInt; val = v.NextValue(val) {
			if _, ok := p.values[val]; !ok {
				p.values[val] = len(p.valOf)
				p.valOf = append(p.valOf, val)
			}
		}
	}
}

func (p *propAllDiffAC) Propagate(_ fd.Cause) error {
	p.index()
	n := len(p.vars)
	if len(p.valOf) < n {
		return fail(p, p.vars[0], "%d variables share %d values", n, len(p.valOf))
	}
	p.valMatch = make([]int, len(p.valOf))
	for j := range p.valMatch {
		p.valMatch[j] = -1
	}
	for i := range p.varMatch {
		p.varMatch[i] = -1
	}
	for i := range p.vars {
		p.seen = make([]bool, len(p.valOf))
		if !p.augment(i) {
			return fail(p, p.vars[i], "no matching covers %s", p.vars[i].Name())
		}
	}

	// residual graph: vars 0..n-1, values n..n+k-1, sink n+k.
	// var -> value off the matching, value -> var on it, free value ->
	// sink, sink -> matched value.
	k := len(p.valOf)
	sink := n + k
	adj := make([][]int, n+k+1)
	for i, v := range p.vars {
		for val := v.LB(); val != math.MaxInt; val = v.NextValue(val) {
			j := p.values[val]
			if p.varMatch[i] == j {
				adj[n+j] = append(adj[n+j], i)
			} else {
				adj[i] = append(adj[i], n+j)
			}
		}
	}
	for j := 0; j < k; j++ {
		if p.valMatch[j] < 0 {
			adj[n+j] = append(adj[n+j], sink)
		} else {
			adj[sink] = append(adj[sink], n+j)
		}
	}
	comp := tarjan(adj)

	for i, v := range p.vars {
		for _, val := range v.Values() {
			j := p.values[val]
			if p.varMatch[i] == j || comp[i] == comp[n+j] {
				continue
			}
			if _, err := v.RemoveValue(val, p); err != nil {
				return err
			}
		}
	}
	return nil
}

// augment looks for an alternating path from variable i to a free
// value.
func (p *propAllDiffAC) augment(i int) bool {
	v := p.vars[i]
	for val := v.LB(); val != math.MaxInt; val = v.NextValue(val) {
		j := p.values[val]
		if p.seen[j] {
			continue
		}
		p.seen[j] = true
		if p.valMatch[j] < 0 || p.augment(p.valMatch[j]) {
			p.varMatch[i] = j
			p.valMatch[j] = i
			return true
		}
	}
	return false
}

func (p *propAllDiffAC) Entailed() fd.ESat {
	seen := map[int]bool{}
	for _, v := range p.vars {
		if !v.IsInstantiated() {
			return fd.ESatUndefined
		}
		if seen[v.Value()] {
			return fd.ESatFalse
		}
		seen[v.Value()] = true
	}
	return fd.ESatTrue
}

// tarjan returns the strongly connected component of every node.
func tarjan(adj [][]int) []int {
	n := len(adj)
	index := make([]int, n)
	low := make([]int, n)
	comp := make([]int, n)
	onStack := make([]bool, n)
	for i := range index {
		index[i] = -1
	}
	var stack []int
	next, ncomp := 0, 0
	var visit func(u int)
	visit = func(u int) {
		index[u], low[u] = next, next
		next++
		stack = append(stack, u)
		onStack[u] = true
		for _, w := range adj[u] {
			if index[w] < 0 {
				visit(w)
				low[u] = min(low[u], low[w])
			} else if onStack[w] {
				low[u] = min(low[u], index[w])
			}
		}
		if low[u] != index[u] {
			return
		}
		for {
			w := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			onStack[w] = false
			comp[w] = ncomp
			if w == u {
				break
			}
		}
		ncomp++
	}
	for u := 0; u < n; u++ {
		if index[u] < 0 {
			visit(u)
		}
	}
	return comp
}
