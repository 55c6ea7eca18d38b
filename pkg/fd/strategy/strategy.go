package strategy

import (
	"math/rand"

	"github.com/operator-framework/fdsolver/pkg/fd"
)

// VarSelector picks the next variable to branch on among the
// uninstantiated ones, or returns nil when all are fixed.
type VarSelector func(vars []*fd.IntVar) *fd.IntVar

// ValueSelector picks the value of a decision on v.
type ValueSelector func(v *fd.IntVar) int

// InputOrder selects the first free variable.
func InputOrder(vars []*fd.IntVar) *fd.IntVar {
	for _, v := range vars {
		if !v.IsInstantiated() {
			return v
		}
	}
	return nil
}

// FirstFail selects the free variable with the smallest domain, the
// first one on ties.
func FirstFail(vars []*fd.IntVar) *fd.IntVar {
	var best *fd.IntVar
	for _, v := range vars {
		if v.IsInstantiated() {
			continue
		}
		if best == nil || v.Size() < best.Size() {
			best = v
		}
	}
	return best
}

func MinValue(v *fd.IntVar) int {
	return v.LB()
}

func MaxValue(v *fd.IntVar) int {
	return v.UB()
}

// MidValue returns the lower median of the bounds.
func MidValue(v *fd.IntVar) int {
	return v.LB() + (v.UB()-v.LB())/2
}

// RandomValue draws a value of the domain from a generator seeded with
// seed, so that a run is reproducible.
func RandomValue(seed int64) ValueSelector {
	rnd := rand.New(rand.NewSource(seed))
	return func(v *fd.IntVar) int {
		if v.IsBounded() {
			return v.LB() + rnd.Intn(v.UB()-v.LB()+1)
		}
		k := rnd.Intn(v.Size())
		val := v.LB()
		for ; k > 0; k-- {
			val = v.NextValue(val)
		}
		return val
	}
}

type intSearch struct {
	vars   []*fd.IntVar
	varSel VarSelector
	valSel ValueSelector
	op     Operator
}

func (s *intSearch) Next() (fd.Decision, error) {
	v := s.varSel(s.vars)
	if v == nil {
		return nil, nil
	}
	return NewIntDecision(v, s.op, s.valSel(v)), nil
}

// IntSearch assigns the selected value to the selected variable, then
// removes it on backtrack.
func IntSearch(varSel VarSelector, valSel ValueSelector, vars ...*fd.IntVar) fd.Strategy {
	return &intSearch{vars: vars, varSel: varSel, valSel: valSel, op: Assign}
}

// IntSplit halves the domain of the selected variable, lower half
// first.
func IntSplit(varSel VarSelector, vars ...*fd.IntVar) fd.Strategy {
	return &intSearch{vars: vars, varSel: varSel, valSel: MidValue, op: Split}
}

// IntReverseSplit halves the domain of the selected variable, upper
// half first. It suits maximization.
func IntReverseSplit(varSel VarSelector, vars ...*fd.IntVar) fd.Strategy {
	return &intSearch{vars: vars, varSel: varSel, valSel: MidValue, op: ReverseSplit}
}

// SetSearch forces into the first free set the smallest element of its
// envelope that is not in its kernel.
func SetSearch(vars ...fd.SetVariable) fd.Strategy {
	return fd.StrategyFunc(func() (fd.Decision, error) {
		for _, v := range vars {
			if v.IsInstantiated() {
				continue
			}
			for _, e := range v.UBValues() {
				if !v.LBContains(e) {
					return NewSetDecision(v, e), nil
				}
			}
		}
		return nil, nil
	})
}

// GraphSearch enforces the free nodes of the first free graph, then its
// free edges, in index order.
func GraphSearch(vars ...*fd.GraphVar) fd.Strategy {
	return fd.StrategyFunc(func() (fd.Decision, error) {
		for _, g := range vars {
			if g.IsInstantiated() {
				continue
			}
			for _, i := range g.UBNodes() {
				if !g.NodeInLB(i) {
					return NewNodeDecision(g, i), nil
				}
			}
			for _, i := range g.UBNodes() {
				for _, j := range g.UBSuccessors(i) {
					if !g.IsDirected() && j < i {
						continue
					}
					if !g.EdgeInLB(i, j) {
						return NewEdgeDecision(g, i, j), nil
					}
				}
			}
		}
		return nil, nil
	})
}

// Sequence asks each strategy in turn and returns the first decision.
func Sequence(strategies ...fd.Strategy) fd.Strategy {
	return fd.StrategyFunc(func() (fd.Decision, error) {
		for _, s := range strategies {
			d, err := s.Next()
			if err != nil || d != nil {
				return d, err
			}
		}
		return nil, nil
	})
}

// Default branches with first-fail and min value on the integer
// variables of m, then on its set variables, then on its graph
// variables.
func Default(m *fd.Model) fd.Strategy {
	var (
		ints   []*fd.IntVar
		sets   []fd.SetVariable
		graphs []*fd.GraphVar
	)
	for _, v := range m.DecisionVars() {
		switch x := v.(type) {
		case *fd.IntVar:
			ints = append(ints, x)
		case *fd.SetVar:
			sets = append(sets, x)
		case *fd.GraphVar:
			graphs = append(graphs, x)
		}
	}
	return Sequence(IntSearch(FirstFail, MinValue, ints...), SetSearch(sets...), GraphSearch(graphs...))
}
