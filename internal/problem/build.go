package problem

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/operator-framework/fdsolver/pkg/fd"
	"github.com/operator-framework/fdsolver/pkg/fd/constraint"
	"github.com/operator-framework/fdsolver/pkg/fd/extension"
	"github.com/operator-framework/fdsolver/pkg/fd/solver"
	"github.com/operator-framework/fdsolver/pkg/fd/strategy"
)

// Problem is a document turned into a model ready to solve.
type Problem struct {
	Model    *fd.Model
	Strategy fd.Strategy

	// Decision lists the variables branched on.
	Decision []*fd.IntVar

	// Objective is nil for satisfaction problems.
	Objective *fd.IntVar
	Direction solver.Direction
}

type builder struct {
	doc    *Document
	model  *fd.Model
	arrays map[string][]*fd.IntVar
}

// Build creates the variables and posts the constraints of the
// document on a fresh model.
func (d *Document) Build() (*Problem, error) {
	b := builder{doc: d, model: fd.NewModel(d.Name), arrays: map[string][]*fd.IntVar{}}
	for _, v := range d.Variables {
		b.declare(v)
	}
	for i, c := range d.Constraints {
		if err := b.post(c); err != nil {
			return nil, fmt.Errorf("constraint %d (%s): %w", i, c.Type, err)
		}
	}

	p := &Problem{Model: b.model}
	if d.Objective != nil {
		obj, err := solver.FindObjective(b.model, d.Objective.Var)
		if err != nil {
			return nil, err
		}
		p.Objective = obj
		if d.Objective.Direction == "maximize" {
			p.Direction = solver.Maximize
		}
	}
	p.Decision = b.model.IntVars()
	if d.Search != nil && len(d.Search.Decision) > 0 {
		vars, err := b.resolve(d.Search.Decision)
		if err != nil {
			return nil, err
		}
		p.Decision = vars
	}
	st, err := b.strategy(p.Decision)
	if err != nil {
		return nil, err
	}
	p.Strategy = st
	return p, nil
}

func (b *builder) declare(v Variable) {
	create := func(name string) *fd.IntVar {
		switch {
		case len(v.Values) > 0:
			return b.model.IntVarFromValues(name, v.Values)
		case v.Bounded:
			return b.model.BoundedIntVar(name, v.Domain[0], v.Domain[1])
		}
		return b.model.IntVar(name, v.Domain[0], v.Domain[1])
	}
	if v.Size == 0 {
		b.arrays[v.Name] = []*fd.IntVar{create(v.Name)}
		return
	}
	vars := make([]*fd.IntVar, v.Size)
	for i := range vars {
		vars[i] = create(fmt.Sprintf("%s[%d]", v.Name, i))
		b.arrays[vars[i].Name()] = vars[i : i+1]
	}
	b.arrays[v.Name] = vars
}

// resolve expands names into variables: a plain name, an array name or
// an array element.
func (b *builder) resolve(names []string) ([]*fd.IntVar, error) {
	var vars []*fd.IntVar
	for _, n := range names {
		vs, ok := b.arrays[strings.TrimSpace(n)]
		if !ok {
			return nil, fd.Malformed("unknown variable %q", n)
		}
		vars = append(vars, vs...)
	}
	return vars, nil
}

func (b *builder) one(name string) (*fd.IntVar, error) {
	vars, err := b.resolve([]string{name})
	if err != nil {
		return nil, err
	}
	if len(vars) != 1 {
		return nil, fd.Malformed("%q names %d variables, expected one", name, len(vars))
	}
	return vars[0], nil
}

func (b *builder) post(c Constraint) error {
	vars, err := b.resolve(c.Vars)
	if err != nil {
		return err
	}
	var con *fd.Constraint
	switch c.Type {
	case "table":
		t, err := b.tuples(c)
		if err != nil {
			return err
		}
		con, err = extension.Table(vars, t, c.Algorithm)
		if err != nil {
			return err
		}
	case "arithm":
		con, err = b.arithm(c, vars)
	case "alldifferent":
		con, err = constraint.AllDifferent(vars, c.Level)
	case "scalar", "sum":
		result, rerr := b.one(c.Result)
		if rerr != nil {
			return rerr
		}
		if c.Type == "sum" {
			con, err = constraint.Sum(vars, c.Op, result)
		} else {
			con, err = constraint.Scalar(vars, c.Coeffs, c.Op, result)
		}
	default:
		return fd.Malformed("unknown constraint type %q", c.Type)
	}
	if err != nil {
		return err
	}
	return con.Post()
}

func (b *builder) arithm(c Constraint, vars []*fd.IntVar) (*fd.Constraint, error) {
	switch {
	case len(vars) == 1 && c.Const != nil:
		return constraint.ArithmConst(vars[0], c.Op, *c.Const)
	case len(vars) == 2 && c.Const == nil:
		return constraint.Arithm(vars[0], c.Op, vars[1])
	}
	return nil, fd.Malformed("arithm takes two variables, or one and a constant")
}

func (b *builder) tuples(c Constraint) (*extension.Tuples, error) {
	feasible := c.Feasible == nil || *c.Feasible
	if c.File == "" {
		return extension.TuplesOf(feasible, c.Tuples...)
	}
	if len(c.Tuples) > 0 {
		return nil, fd.Malformed("table lists tuples and names file %q", c.File)
	}
	path := c.File
	if !filepath.IsAbs(path) {
		path = filepath.Join(b.doc.dir, path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open tuple file: %w", err)
	}
	defer f.Close()
	t, err := ReadTuples(f)
	if err != nil {
		return nil, err
	}
	if c.Feasible != nil && *c.Feasible != t.Feasible() {
		return nil, fd.Malformed("tuple file %q is %s, the table says otherwise", c.File, polarity(t.Feasible()))
	}
	return t, nil
}

func (b *builder) strategy(vars []*fd.IntVar) (fd.Strategy, error) {
	s := b.doc.Search
	if s == nil {
		return strategy.Default(b.model), nil
	}

	var varSel strategy.VarSelector
	switch s.Variables {
	case "", "first-fail":
		varSel = strategy.FirstFail
	case "input":
		varSel = strategy.InputOrder
	default:
		return nil, fd.Malformed("unknown variable selector %q", s.Variables)
	}

	var valSel strategy.ValueSelector
	switch s.Values {
	case "", "min":
		valSel = strategy.MinValue
	case "max":
		valSel = strategy.MaxValue
	case "mid":
		valSel = strategy.MidValue
	case "random":
		valSel = strategy.RandomValue(s.Seed)
	case "split":
		return strategy.IntSplit(varSel, vars...), nil
	default:
		return nil, fd.Malformed("unknown value selector %q", s.Values)
	}
	return strategy.IntSearch(varSel, valSel, vars...), nil
}
