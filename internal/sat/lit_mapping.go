package sat

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/go-air/gini/inter"
	"github.com/go-air/gini/logic"
	"github.com/go-air/gini/z"

	"github.com/operator-framework/fdsolver/pkg/fd"
)

type inconsistentLitMapping []error

func (inconsistentLitMapping) Error() string {
	return "internal oracle failure"
}

// litMapping translates between the integer variables and constraints
// of a model and the literals of a SAT formula. Every value left in the
// domain of a variable gets a literal, true when the variable takes
// that value.
type litMapping struct {
	inorder     []*fd.IntVar
	values      map[*fd.IntVar]map[int]z.Lit
	domains     []z.Lit
	constraints map[z.Lit][]*fd.Constraint
	order       map[*fd.Constraint]int
	c           *logic.C
	errs        inconsistentLitMapping
}

// newLitMapping builds the circuit of every integer variable of m and
// of every constraint posted on it. A constraint with no propositional
// encoding is an error.
func newLitMapping(m *fd.Model) (*litMapping, error) {
	var vars []*fd.IntVar
	for _, v := range m.Vars() {
		// constants included
		if iv, ok := v.(*fd.IntVar); ok {
			vars = append(vars, iv)
		}
	}
	d := litMapping{
		inorder:     vars,
		values:      make(map[*fd.IntVar]map[int]z.Lit, len(vars)),
		constraints: make(map[z.Lit][]*fd.Constraint),
		order:       make(map[*fd.Constraint]int),
		c:           logic.NewCCap(4 * len(vars)),
	}

	// First pass to assign lits:
	for _, v := range vars {
		lits := make(map[int]z.Lit, v.Size())
		ms := make([]z.Lit, 0, v.Size())
		for val := v.LB(); val != math.MaxInt; val = v.NextValue(val) {
			lit := d.c.Lit()
			lits[val] = lit
			ms = append(ms, lit)
		}
		d.values[v] = lits
		// exactly one value
		d.domains = append(d.domains, d.c.And(d.c.Ors(ms...), d.c.CardSort(ms).Leq(1)))
	}

	for i, constraint := range m.Constraints() {
		d.order[constraint] = i
		root := d.c.T
		for _, p := range constraint.Propagators() {
			e, ok := encoders(p)
			if !ok {
				return nil, &fd.UnsupportedOperationError{
					Op:      "encode",
					Message: fmt.Sprintf("constraint %s has no propositional encoding", constraint.Name()),
				}
			}
			root = d.c.And(root, e(&d))
		}
		d.constraints[root] = append(d.constraints[root], constraint)
	}

	return &d, nil
}

// LitOf returns the literal true when v takes val, or the constant
// false literal when val is not in the encoded domain of v.
func (d *litMapping) LitOf(v *fd.IntVar, val int) z.Lit {
	lits, ok := d.values[v]
	if !ok {
		d.errs = append(d.errs, fmt.Errorf("variable %s referenced but not encoded", v.Name()))
		return d.c.F
	}
	if m, ok := lits[val]; ok {
		return m
	}
	return d.c.F
}

// Error returns a single error value that is an aggregation of all
// errors encountered during a litMapping's lifetime, or nil if there have
// been no errors. A non-nil return value likely indicates a problem
// with the oracle or the encodings.
func (d *litMapping) Error() error {
	if len(d.errs) == 0 {
		return nil
	}
	s := make([]string, len(d.errs))
	for i, err := range d.errs {
		s[i] = err.Error()
	}
	return fmt.Errorf("%d errors encountered: %s", len(s), strings.Join(s, ", "))
}

// AddConstraints teaches the circuit and the domain encodings to g.
// Domains always hold; constraints are assumed so that a refutation
// names them.
func (d *litMapping) AddConstraints(g inter.Adder) {
	d.c.ToCnf(g)
	for _, m := range d.domains {
		g.Add(m)
		g.Add(0)
	}
}

func (d *litMapping) AssumeConstraints(s inter.Assumable) {
	for m := range d.constraints {
		s.Assume(m)
	}
}

// Assignment reads the value of every variable from a model of the
// formula.
func (d *litMapping) Assignment(g inter.Model) Assignment {
	a := make(Assignment, len(d.inorder))
	for _, v := range d.inorder {
		found := false
		for val, m := range d.values[v] {
			if g.Value(m) {
				a[v] = val
				found = true
				break
			}
		}
		if !found {
			d.errs = append(d.errs, fmt.Errorf("no value of %s holds in the model", v.Name()))
		}
	}
	return a
}

// Lits appends the literals true in a to dst.
func (d *litMapping) Lits(dst []z.Lit, a Assignment) []z.Lit {
	dst = dst[:0]
	for _, v := range d.inorder {
		dst = append(dst, d.LitOf(v, a[v]))
	}
	return dst
}

// Conflicts returns the constraints among the failed assumptions of
// the last solve, in posting order.
func (d *litMapping) Conflicts(g inter.Assumable) []*fd.Constraint {
	whys := g.Why(nil)
	var cs []*fd.Constraint
	for _, why := range whys {
		cs = append(cs, d.constraints[why]...)
	}
	sort.Slice(cs, func(i, j int) bool { return d.order[cs[i]] < d.order[cs[j]] })
	return cs
}
