package solver

import (
	"fmt"
	"strings"

	"github.com/operator-framework/fdsolver/pkg/fd"
)

// Edge is an edge of a graph variable value.
type Edge struct {
	From, To int
}

// GraphValue is the value of an instantiated graph variable.
type GraphValue struct {
	Nodes []int
	Edges []Edge
}

type entry struct {
	name string
	text string
}

// Solution is a snapshot of the variable values at a solution. It stays
// valid after the search moved on.
type Solution struct {
	ints      map[int]int
	sets      map[int][]int
	graphs    map[int]GraphValue
	entries   []entry
	objective *int
}

func snapshot(m *fd.Model, objective *fd.IntVar) *Solution {
	s := &Solution{ints: map[int]int{}, sets: map[int][]int{}, graphs: map[int]GraphValue{}}
	decision := map[int]bool{}
	for _, v := range m.IntVars() {
		decision[v.ID()] = true
	}
	for _, v := range m.Vars() {
		switch x := v.(type) {
		case *fd.IntVar:
			if !decision[x.ID()] || !x.IsInstantiated() {
				continue
			}
			s.ints[x.ID()] = x.Value()
			s.entries = append(s.entries, entry{name: x.Name(), text: fmt.Sprint(x.Value())})
		case fd.SetVariable:
			vals := x.LBValues()
			s.sets[x.ID()] = vals
			s.entries = append(s.entries, entry{name: x.Name(), text: formatInts(vals)})
		case *fd.GraphVar:
			gv := GraphValue{Nodes: x.LBNodes()}
			for _, i := range gv.Nodes {
				for _, j := range x.LBSuccessors(i) {
					if !x.IsDirected() && j < i {
						continue
					}
					gv.Edges = append(gv.Edges, Edge{From: i, To: j})
				}
			}
			s.graphs[x.ID()] = gv
			s.entries = append(s.entries, entry{name: x.Name(), text: formatGraph(gv)})
		}
	}
	if objective != nil && objective.IsInstantiated() {
		o := objective.Value()
		s.objective = &o
	}
	return s
}

// IntVal returns the value of v.
func (s *Solution) IntVal(v *fd.IntVar) (int, bool) {
	val, ok := s.ints[v.ID()]
	return val, ok
}

// SetVal returns the elements of v.
func (s *Solution) SetVal(v fd.SetVariable) ([]int, bool) {
	val, ok := s.sets[v.ID()]
	return val, ok
}

// GraphVal returns the nodes and edges of g.
func (s *Solution) GraphVal(g *fd.GraphVar) (GraphValue, bool) {
	val, ok := s.graphs[g.ID()]
	return val, ok
}

// Objective returns the objective value when one was set.
func (s *Solution) Objective() (int, bool) {
	if s.objective == nil {
		return 0, false
	}
	return *s.objective, true
}

// Values maps variable names to their printed value.
func (s *Solution) Values() map[string]string {
	out := make(map[string]string, len(s.entries))
	for _, e := range s.entries {
		out[e.name] = e.text
	}
	return out
}

func (s *Solution) String() string {
	var b strings.Builder
	for _, e := range s.entries {
		fmt.Fprintf(&b, "%s = %s\n", e.name, e.text)
	}
	return b.String()
}

func formatInts(vals []int) string {
	s := make([]string, len(vals))
	for i, v := range vals {
		s[i] = fmt.Sprint(v)
	}
	return "{" + strings.Join(s, ",") + "}"
}

func formatGraph(g GraphValue) string {
	s := make([]string, len(g.Edges))
	for i, e := range g.Edges {
		s[i] = fmt.Sprintf("(%d,%d)", e.From, e.To)
	}
	return fmt.Sprintf("nodes %s edges {%s}", formatInts(g.Nodes), strings.Join(s, ","))
}
