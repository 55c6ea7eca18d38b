package strategy

import (
	"fmt"

	"github.com/operator-framework/fdsolver/pkg/fd"
)

// Operator is the left branch of an integer decision.
type Operator int

const (
	// Assign branches on x = v, then x != v.
	Assign Operator = iota
	// Split branches on x <= v, then x > v.
	Split
	// ReverseSplit branches on x > v, then x <= v.
	ReverseSplit
)

// IntDecision branches on an integer variable.
type IntDecision struct {
	v       *fd.IntVar
	op      Operator
	value   int
	refuted bool
}

var _ fd.Decision = &IntDecision{}

func NewIntDecision(v *fd.IntVar, op Operator, value int) *IntDecision {
	return &IntDecision{v: v, op: op, value: value}
}

func (d *IntDecision) Var() fd.Variable {
	return d.v
}

func (d *IntDecision) Value() int {
	return d.value
}

func (d *IntDecision) Refuted() bool {
	return d.refuted
}

func (d *IntDecision) Apply() error {
	var err error
	switch d.op {
	case Assign:
		_, err = d.v.InstantiateTo(d.value, d)
	case Split:
		_, err = d.v.UpdateUpperBound(d.value, d)
	case ReverseSplit:
		_, err = d.v.UpdateLowerBound(d.value+1, d)
	}
	return err
}

func (d *IntDecision) Refute() error {
	d.refuted = true
	var err error
	switch d.op {
	case Assign:
		_, err = d.v.RemoveValue(d.value, d)
	case Split:
		_, err = d.v.UpdateLowerBound(d.value+1, d)
	case ReverseSplit:
		_, err = d.v.UpdateUpperBound(d.value, d)
	}
	return err
}

func (d *IntDecision) String() string {
	left, right := "=", "!="
	switch d.op {
	case Split:
		left, right = "<=", ">"
	case ReverseSplit:
		left, right = ">", "<="
	}
	if d.refuted {
		left = right
	}
	return fmt.Sprintf("%s %s %d", d.v.Name(), left, d.value)
}

// SetDecision forces an element into a set, then removes it.
type SetDecision struct {
	v       fd.SetVariable
	elem    int
	refuted bool
}

var _ fd.Decision = &SetDecision{}

func NewSetDecision(v fd.SetVariable, elem int) *SetDecision {
	return &SetDecision{v: v, elem: elem}
}

func (d *SetDecision) Var() fd.Variable {
	return d.v
}

func (d *SetDecision) Refuted() bool {
	return d.refuted
}

func (d *SetDecision) Apply() error {
	_, err := d.v.Force(d.elem, d)
	return err
}

func (d *SetDecision) Refute() error {
	d.refuted = true
	_, err := d.v.Remove(d.elem, d)
	return err
}

func (d *SetDecision) String() string {
	if d.refuted {
		return fmt.Sprintf("%d notin %s", d.elem, d.v.Name())
	}
	return fmt.Sprintf("%d in %s", d.elem, d.v.Name())
}

// GraphDecision enforces a node (To < 0) or an edge, then removes it.
type GraphDecision struct {
	g        *fd.GraphVar
	from, to int
	refuted  bool
}

var _ fd.Decision = &GraphDecision{}

func NewNodeDecision(g *fd.GraphVar, node int) *GraphDecision {
	return &GraphDecision{g: g, from: node, to: -1}
}

func NewEdgeDecision(g *fd.GraphVar, from, to int) *GraphDecision {
	return &GraphDecision{g: g, from: from, to: to}
}

func (d *GraphDecision) Var() fd.Variable {
	return d.g
}

func (d *GraphDecision) Refuted() bool {
	return d.refuted
}

func (d *GraphDecision) Apply() error {
	var err error
	if d.to < 0 {
		_, err = d.g.EnforceNode(d.from, d)
	} else {
		_, err = d.g.EnforceEdge(d.from, d.to, d)
	}
	return err
}

func (d *GraphDecision) Refute() error {
	d.refuted = true
	var err error
	if d.to < 0 {
		_, err = d.g.RemoveNode(d.from, d)
	} else {
		_, err = d.g.RemoveEdge(d.from, d.to, d)
	}
	return err
}

func (d *GraphDecision) String() string {
	op := "in"
	if d.refuted {
		op = "notin"
	}
	if d.to < 0 {
		return fmt.Sprintf("node %d %s %s", d.from, op, d.g.Name())
	}
	return fmt.Sprintf("edge (%d,%d) %s %s", d.from, d.to, op, d.g.Name())
}
