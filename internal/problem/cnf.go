package problem

import (
	"fmt"
	"io"

	"github.com/go-air/gini"
	"github.com/go-air/gini/dimacs"
	"github.com/go-air/gini/z"

	"github.com/operator-framework/fdsolver/pkg/fd"
	"github.com/operator-framework/fdsolver/pkg/fd/extension"
)

// CNF is a propositional formula in conjunctive normal form, with
// literals as DIMACS integers.
type CNF struct {
	Vars    int
	Clauses [][]int
}

// cnfVisitor collects the clauses read by the gini DIMACS reader.
type cnfVisitor struct {
	cnf     *CNF
	current []int
}

func (v *cnfVisitor) Init(vars, _ int) {
	v.cnf.Vars = vars
}

func (v *cnfVisitor) Add(m z.Lit) {
	if m == z.LitNull {
		v.cnf.Clauses = append(v.cnf.Clauses, v.current)
		v.current = nil
		return
	}
	v.current = append(v.current, m.Dimacs())
}

func (v *cnfVisitor) Eof() {
	if len(v.current) > 0 {
		v.cnf.Clauses = append(v.cnf.Clauses, v.current)
		v.current = nil
	}
}

// ReadCNF parses a DIMACS CNF formula. The problem line is required
// and must match the body.
func ReadCNF(r io.Reader) (*CNF, error) {
	cnf := &CNF{}
	if err := dimacs.ReadCnfStrict(r, &cnfVisitor{cnf: cnf}, true); err != nil {
		return nil, &fd.MalformedInputError{What: "dimacs formula", Err: err}
	}
	return cnf, nil
}

// Model encodes the formula with one 0/1 variable per propositional
// variable and one forbidden tuple per clause: the assignment
// falsifying every literal of the clause. Tautologies are skipped.
func (c *CNF) Model(name, algo string) (*fd.Model, []*fd.IntVar, error) {
	m := fd.NewModel(name)
	vars := make([]*fd.IntVar, c.Vars)
	for i := range vars {
		vars[i] = m.IntVar(fmt.Sprintf("x%d", i+1), 0, 1)
	}
	for k, clause := range c.Clauses {
		falsifying := map[int]int{}
		var (
			scope []*fd.IntVar
			row   []int
		)
		tautology := false
		for _, l := range clause {
			idx, val := l-1, 0
			if l < 0 {
				idx, val = -l-1, 1
			}
			if prev, ok := falsifying[idx]; ok {
				if prev != val {
					tautology = true
					break
				}
				continue
			}
			falsifying[idx] = val
			scope = append(scope, vars[idx])
			row = append(row, val)
		}
		if tautology {
			continue
		}
		if len(scope) == 0 {
			if len(vars) == 0 {
				return nil, nil, fd.Malformed("clause %d is empty and the formula has no variable", k)
			}
			// an empty clause holds for no assignment
			con, err := extension.Table(vars[:1], extension.NewTuples(true), extension.Automatic)
			if err != nil {
				return nil, nil, err
			}
			if err := con.Post(); err != nil {
				return nil, nil, err
			}
			continue
		}
		t, err := extension.TuplesOf(false, row)
		if err != nil {
			return nil, nil, err
		}
		con, err := extension.Table(scope, t, algo)
		if err != nil {
			return nil, nil, fmt.Errorf("clause %d: %w", k, err)
		}
		if err := con.Post(); err != nil {
			return nil, nil, err
		}
	}
	return m, vars, nil
}

// Satisfied reports whether values, indexed by variable, satisfy
// every clause.
func (c *CNF) Satisfied(values []bool) bool {
	for _, clause := range c.Clauses {
		ok := false
		for _, l := range clause {
			if l > 0 && values[l-1] || l < 0 && !values[-l-1] {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	return true
}

// Decide runs gini directly on the formula and reports whether it is
// satisfiable.
func (c *CNF) Decide() bool {
	g := gini.New()
	for _, clause := range c.Clauses {
		for _, l := range clause {
			g.Add(z.Dimacs2Lit(l))
		}
		g.Add(0)
	}
	return g.Solve() == 1
}
