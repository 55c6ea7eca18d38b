package constraint

import (
	"fmt"

	"github.com/operator-framework/fdsolver/pkg/fd"
)

// Arithmetic comparison operators.
const (
	EQ = "="
	NE = "!="
	LT = "<"
	LE = "<="
	GT = ">"
	GE = ">="
)

func fail(cause fd.Cause, v fd.Variable, format string, args ...interface{}) error {
	return &fd.Contradiction{Var: v, Cause: cause, Message: fmt.Sprintf(format, args...)}
}

// Arithm returns the constraint x op y.
func Arithm(x *fd.IntVar, op string, y *fd.IntVar) (*fd.Constraint, error) {
	if x.Model() != y.Model() {
		return nil, fd.Malformed("%s and %s belong to different models", x.Name(), y.Name())
	}
	m := x.Model()
	switch op {
	case EQ:
		return m.NewConstraint("ARITHM", fd.NewPropEqual(x, y)), nil
	case NE:
		return m.NewConstraint("ARITHM", newPropNotEqual(x, y)), nil
	case LT:
		return m.NewConstraint("ARITHM", newPropLessEq(x, y, 1)), nil
	case LE:
		return m.NewConstraint("ARITHM", newPropLessEq(x, y, 0)), nil
	case GT:
		return m.NewConstraint("ARITHM", newPropLessEq(y, x, 1)), nil
	case GE:
		return m.NewConstraint("ARITHM", newPropLessEq(y, x, 0)), nil
	}
	return nil, fd.Malformed("unknown arithmetic operator %q", op)
}

// ArithmConst returns the constraint x op c.
func ArithmConst(x *fd.IntVar, op string, c int) (*fd.Constraint, error) {
	return Arithm(x, op, x.Model().IntConst(c))
}

type propNotEqual struct {
	fd.PropBase
	x, y *fd.IntVar
}

func newPropNotEqual(x, y *fd.IntVar) *propNotEqual {
	return &propNotEqual{
		PropBase: fd.NewPropBase(fmt.Sprintf("%s != %s", x.Name(), y.Name()), fd.PriorityBinary, x, y),
		x:        x,
		y:        y,
	}
}

func (p *propNotEqual) Mask(_ int) fd.EventType {
	return fd.EventInstantiate
}

func (p *propNotEqual) Propagate(_ fd.Cause) error {
	if p.x.IsInstantiated() {
		if _, err := p.y.RemoveValue(p.x.Value(), p); err != nil {
			return err
		}
	}
	if p.y.IsInstantiated() {
		if _, err := p.x.RemoveValue(p.y.Value(), p); err != nil {
			return err
		}
	}
	return nil
}

func (p *propNotEqual) Entailed() fd.ESat {
	if p.x.IsInstantiated() && p.y.IsInstantiated() {
		if p.x.Value() != p.y.Value() {
			return fd.ESatTrue
		}
		return fd.ESatFalse
	}
	if p.x.UB() < p.y.LB() || p.y.UB() < p.x.LB() {
		return fd.ESatTrue
	}
	return fd.ESatUndefined
}

// propLessEq enforces x + k <= y on bounds.
type propLessEq struct {
	fd.PropBase
	x, y *fd.IntVar
	k    int
}

func newPropLessEq(x, y *fd.IntVar, k int) *propLessEq {
	name := fmt.Sprintf("%s <= %s", x.Name(), y.Name())
	if k == 1 {
		name = fmt.Sprintf("%s < %s", x.Name(), y.Name())
	}
	return &propLessEq{
		PropBase: fd.NewPropBase(name, fd.PriorityBinary, x, y),
		x:        x,
		y:        y,
		k:        k,
	}
}

func (p *propLessEq) Mask(idx int) fd.EventType {
	if idx == 0 {
		return fd.EventIncLow | fd.EventInstantiate
	}
	return fd.EventDecUpp | fd.EventInstantiate
}

func (p *propLessEq) Propagate(_ fd.Cause) error {
	if _, err := p.x.UpdateUpperBound(p.y.UB()-p.k, p); err != nil {
		return err
	}
	_, err := p.y.UpdateLowerBound(p.x.LB()+p.k, p)
	return err
}

func (p *propLessEq) Entailed() fd.ESat {
	if p.x.UB()+p.k <= p.y.LB() {
		return fd.ESatTrue
	}
	if p.x.LB()+p.k > p.y.UB() {
		return fd.ESatFalse
	}
	return fd.ESatUndefined
}
