package extension

import (
	"fmt"
	"strings"

	"github.com/operator-framework/fdsolver/pkg/fd"
)

// Table filtering algorithms, by name.
const (
	FC        = "FC"
	GAC3      = "GAC3"
	GAC3rm    = "GAC3rm"
	GAC2001   = "GAC2001"
	GAC3rmP   = "GAC3rm+"
	GAC2001P  = "GAC2001+"
	GACSTRP   = "GACSTR+"
	STR2P     = "STR2+"
	MDDP      = "MDD+"
	AC3       = "AC3"
	AC3rm     = "AC3rm"
	AC2001    = "AC2001"
	AC3bitrm  = "AC3bit+rm"
	Automatic = ""
)

// Algorithms lists the n-ary algorithm names.
var Algorithms = []string{FC, MDDP, GAC2001, GACSTRP, GAC2001P, GAC3rmP, GAC3rm, STR2P, GAC3}

// BinaryAlgorithms lists the names restricted to two variables.
var BinaryAlgorithms = []string{FC, AC2001, AC3, AC3rm, AC3bitrm}

var binaryAliases = map[string]string{
	AC3:      GAC3,
	AC3rm:    GAC3rm,
	AC2001:   GAC2001,
	AC3bitrm: GAC3rm,
}

// feasibleOnly names the algorithms that iterate over allowed tuples.
var feasibleOnly = map[string]bool{
	GAC3rmP:  true,
	GAC2001P: true,
	GACSTRP:  true,
	STR2P:    true,
	MDDP:     true,
}

// Table returns the extension constraint vars ∈ tuples, filtered with
// algo. An empty algo picks GACSTR+ for allowed tuples and GAC3rm for
// forbidden ones.
func Table(vars []*fd.IntVar, tuples *Tuples, algo string) (*fd.Constraint, error) {
	algo, err := resolve(vars, tuples.Feasible(), algo)
	if err != nil {
		return nil, err
	}
	var rel Relation
	switch algo {
	case MDDP:
		rel, err = NewMDD(tuples, vars)
	case AC3bitrm:
		rel, err = NewDenseRelation(tuples, vars)
	default:
		rel, err = NewRelation(tuples, vars)
	}
	if err != nil {
		return nil, err
	}
	return newTable(vars, rel, algo)
}

// TableOf posts a table over a duplicate of rel, so that one relation
// may serve several variable lists. The duplicate is rebuilt when the
// bounds of vars are wider than those rel was built for.
func TableOf(vars []*fd.IntVar, rel Relation, algo string) (*fd.Constraint, error) {
	algo, err := resolve(vars, rel.Feasible(), algo)
	if err != nil {
		return nil, err
	}
	if rel.Arity() != len(vars) {
		return nil, fd.Malformed("relation of arity %d over %d variables", rel.Arity(), len(vars))
	}
	dup, err := duplicateFor(rel, vars)
	if err != nil {
		return nil, err
	}
	if algo == MDDP {
		if _, ok := dup.(*MDD); !ok {
			return nil, fd.Malformed("%s needs a decision diagram", MDDP)
		}
	}
	return newTable(vars, dup, algo)
}

// MDDC posts a constraint filtered over a decision diagram.
func MDDC(vars []*fd.IntVar, mdd *MDD) (*fd.Constraint, error) {
	return TableOf(vars, mdd, MDDP)
}

func resolve(vars []*fd.IntVar, feasible bool, algo string) (string, error) {
	if len(vars) == 0 {
		return "", fd.Malformed("table over no variable")
	}
	if algo == Automatic {
		if feasible {
			return GACSTRP, nil
		}
		return GAC3rm, nil
	}
	known := false
	for _, a := range append(Algorithms, BinaryAlgorithms...) {
		if a == algo {
			known = true
			break
		}
	}
	if !known {
		return "", fd.Malformed("unknown table algorithm %q", algo)
	}
	if _, ok := binaryAliases[algo]; ok && len(vars) != 2 {
		return "", fd.Malformed("%s filters binary tables, got %d variables", algo, len(vars))
	}
	if feasibleOnly[algo] && !feasible {
		return "", fd.Malformed("%s needs allowed tuples", algo)
	}
	return algo, nil
}

func newTable(vars []*fd.IntVar, rel Relation, algo string) (*fd.Constraint, error) {
	base := tableProp{vars: vars, rel: rel}
	name := fmt.Sprintf("TABLE(%s)[%s]", varNames(vars), algo)
	prio := fd.PriorityQuadratic
	if len(vars) == 2 {
		prio = fd.PriorityBinary
	}
	base.PropBase = fd.NewPropBase(name, prio, fd.AsVars(vars)...)

	var p fd.Propagator
	if alias, ok := binaryAliases[algo]; ok {
		algo = alias
	}
	switch algo {
	case FC:
		base.PropBase = fd.NewPropBase(name, fd.PriorityLinear, fd.AsVars(vars)...)
		p = &propFC{tableProp: base}
	case GAC3:
		p = newPropGAC3(base, false)
	case GAC3rm:
		p = newPropGAC3(base, true)
	case GAC2001:
		p = newPropGAC2001(base)
	case GAC3rmP:
		p = newPropGACPlus(base, false)
	case GAC2001P:
		p = newPropGACPlus(base, true)
	case GACSTRP:
		p = newPropSTR(base, false)
	case STR2P:
		p = newPropSTR(base, true)
	case MDDP:
		p = newPropMDD(base, rel.(*MDD))
	}
	return vars[0].Model().NewConstraint("TABLE", p), nil
}

func varNames(vars []*fd.IntVar) string {
	s := make([]string, len(vars))
	for i, v := range vars {
		s[i] = v.Name()
	}
	return strings.Join(s, ",")
}

// tableProp holds what every table propagator shares.
type tableProp struct {
	fd.PropBase
	vars []*fd.IntVar
	rel  Relation
}

func fail(cause fd.Cause, v *fd.IntVar, msg string) error {
	return &fd.Contradiction{Var: v, Cause: cause, Message: msg}
}

// Relation returns the relation the propagator filters with.
func (p *tableProp) Relation() Relation {
	return p.rel
}

func (p *tableProp) Entailed() fd.ESat {
	t := make([]int, len(p.vars))
	for i, v := range p.vars {
		if !v.IsInstantiated() {
			return fd.ESatUndefined
		}
		t[i] = v.Value()
	}
	if p.rel.IsConsistent(t) {
		return fd.ESatTrue
	}
	return fd.ESatFalse
}

// fixpoint repeats pass until it removes nothing.
func fixpoint(pass func() (bool, error)) error {
	for {
		changed, err := pass()
		if err != nil || !changed {
			return err
		}
	}
}
