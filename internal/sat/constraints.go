package sat

import (
	"github.com/go-air/gini/z"

	"github.com/operator-framework/fdsolver/pkg/fd"
	"github.com/operator-framework/fdsolver/pkg/fd/extension"
)

// encoder returns the literal true exactly when its propagator's
// constraint holds.
type encoder func(d *litMapping) z.Lit

type relational interface {
	Relation() extension.Relation
}

// encoders finds the encoding of p. Only propagators over integer
// variables backed by an extensional relation are encodable.
func encoders(p fd.Propagator) (encoder, bool) {
	r, ok := p.(relational)
	if !ok {
		return nil, false
	}
	vars := make([]*fd.IntVar, len(p.Vars()))
	for i, v := range p.Vars() {
		iv, ok := v.(*fd.IntVar)
		if !ok {
			return nil, false
		}
		vars[i] = iv
	}
	rel := r.Relation()
	if rel.Feasible() {
		return allowed(vars, rel), true
	}
	return forbidden(vars, rel), true
}

// tuple returns the conjunction of the value literals of row.
func tuple(d *litMapping, vars []*fd.IntVar, row []int) z.Lit {
	ms := make([]z.Lit, len(vars))
	for i, v := range vars {
		ms[i] = d.LitOf(v, row[i])
	}
	return d.c.Ands(ms...)
}

// allowed holds when the variables match one of the stored tuples.
func allowed(vars []*fd.IntVar, rel extension.Relation) encoder {
	return func(d *litMapping) z.Lit {
		ms := make([]z.Lit, 0, rel.Len())
		for k := 0; k < rel.Len(); k++ {
			ms = append(ms, tuple(d, vars, rel.Row(k)))
		}
		if len(ms) == 0 {
			return d.c.F
		}
		return d.c.Ors(ms...)
	}
}

// forbidden holds when the variables match none of the stored tuples.
func forbidden(vars []*fd.IntVar, rel extension.Relation) encoder {
	return func(d *litMapping) z.Lit {
		m := d.c.T
		for k := 0; k < rel.Len(); k++ {
			m = d.c.And(m, tuple(d, vars, rel.Row(k)).Not())
		}
		return m
	}
}
