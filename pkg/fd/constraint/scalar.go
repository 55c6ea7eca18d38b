package constraint

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/operator-framework/fdsolver/pkg/fd"
)

// Scalar returns the constraint Σ coeffs[i]·vars[i] op result, with op
// one of =, <= and >=, filtered on bounds.
func Scalar(vars []*fd.IntVar, coeffs []int, op string, result *fd.IntVar) (*fd.Constraint, error) {
	if len(vars) != len(coeffs) {
		return nil, fd.Malformed("%d variables for %d coefficients", len(vars), len(coeffs))
	}
	switch op {
	case EQ, LE, GE:
	default:
		return nil, fd.Malformed("unsupported scalar operator %q", op)
	}
	m := result.Model()
	terms := make([]*fd.IntVar, 0, len(vars)+1)
	cs := make([]int, 0, len(vars)+1)
	var b strings.Builder
	for i, v := range vars {
		if v.Model() != m {
			return nil, fd.Malformed("%s belongs to another model", v.Name())
		}
		if coeffs[i] == 0 {
			continue
		}
		terms = append(terms, v)
		cs = append(cs, coeffs[i])
		if b.Len() > 0 {
			b.WriteString(" + ")
		}
		b.WriteString(strconv.Itoa(coeffs[i]))
		b.WriteString(".")
		b.WriteString(v.Name())
	}
	terms = append(terms, result)
	cs = append(cs, -1)
	p := &propScalar{
		PropBase: fd.NewPropBase(fmt.Sprintf("%s %s %s", b.String(), op, result.Name()), fd.PriorityLinear, fd.AsVars(terms)...),
		vars:     terms,
		coeffs:   cs,
		le:       op == EQ || op == LE,
		ge:       op == EQ || op == GE,
	}
	return m.NewConstraint("SCALAR", p), nil
}

// Sum returns the constraint Σ vars[i] op result.
func Sum(vars []*fd.IntVar, op string, result *fd.IntVar) (*fd.Constraint, error) {
	coeffs := make([]int, len(vars))
	for i := range coeffs {
		coeffs[i] = 1
	}
	return Scalar(vars, coeffs, op, result)
}

// propScalar filters Σ coeffs[i]·vars[i] compared to 0.
type propScalar struct {
	fd.PropBase
	vars   []*fd.IntVar
	coeffs []int
	le, ge bool
}

func (p *propScalar) Mask(_ int) fd.EventType {
	return fd.EventBound | fd.EventInstantiate
}

func (p *propScalar) term(i int) (lo, hi int) {
	a, v := p.coeffs[i], p.vars[i]
	if a > 0 {
		return a * v.LB(), a * v.UB()
	}
	return a * v.UB(), a * v.LB()
}

func (p *propScalar) bounds() (lo, hi int) {
	for i := range p.vars {
		l, h := p.term(i)
		lo += l
		hi += h
	}
	return lo, hi
}

func (p *propScalar) Propagate(_ fd.Cause) error {
	for {
		lo, hi := p.bounds()
		if p.le && lo > 0 {
			return fail(p, p.vars[0], "lower bound %d exceeds 0", lo)
		}
		if p.ge && hi < 0 {
			return fail(p, p.vars[0], "upper bound %d below 0", hi)
		}
		changed := false
		for i, v := range p.vars {
			a := p.coeffs[i]
			tlo, thi := p.term(i)
			if p.le {
				// a·v <= -(lo - tlo)
				u := tlo - lo
				var c bool
				var err error
				if a > 0 {
					c, err = v.UpdateUpperBound(floorDiv(u, a), p)
				} else {
					c, err = v.UpdateLowerBound(ceilDiv(u, a), p)
				}
				if err != nil {
					return err
				}
				changed = changed || c
			}
			if p.ge {
				// a·v >= -(hi - thi)
				l := thi - hi
				var c bool
				var err error
				if a > 0 {
					c, err = v.UpdateLowerBound(ceilDiv(l, a), p)
				} else {
					c, err = v.UpdateUpperBound(floorDiv(l, a), p)
				}
				if err != nil {
					return err
				}
				changed = changed || c
			}
			if changed {
				break
			}
		}
		if !changed {
			return nil
		}
	}
}

func (p *propScalar) Entailed() fd.ESat {
	lo, hi := p.bounds()
	switch {
	case p.le && lo > 0, p.ge && hi < 0:
		return fd.ESatFalse
	case (!p.le || hi <= 0) && (!p.ge || lo >= 0):
		return fd.ESatTrue
	}
	return fd.ESatUndefined
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

func ceilDiv(a, b int) int {
	return -floorDiv(-a, b)
}
