package fd

import (
	"fmt"
	"strings"
)

// Constraint groups the propagators implementing one relation. It
// takes part in propagation only once posted.
type Constraint struct {
	name   string
	model  *Model
	props  []Propagator
	posted bool
}

func (m *Model) NewConstraint(name string, props ...Propagator) *Constraint {
	return &Constraint{name: name, model: m, props: props}
}

func (c *Constraint) Name() string {
	return c.name
}

func (c *Constraint) Propagators() []Propagator {
	return c.props
}

func (c *Constraint) IsPosted() bool {
	return c.posted
}

// Post registers the propagators with the engine. They run on the
// next call to Model.Propagate. Posting twice returns ErrAlreadyPosted.
func (c *Constraint) Post() error {
	if c.posted {
		return ErrAlreadyPosted
	}
	for _, p := range c.props {
		for _, v := range p.Vars() {
			if v.Model() != c.model {
				return Malformed("%s: variable %s belongs to another model", c.name, v.Name())
			}
		}
	}
	c.posted = true
	for _, p := range c.props {
		c.model.engine.register(p)
	}
	c.model.constraints = append(c.model.constraints, c)
	c.model.log.V(2).Info("posted constraint", "constraint", c.String())
	return nil
}

// IsSatisfied folds the entailment of every propagator.
func (c *Constraint) IsSatisfied() ESat {
	res := ESatTrue
	for _, p := range c.props {
		switch p.Entailed() {
		case ESatFalse:
			return ESatFalse
		case ESatUndefined:
			res = ESatUndefined
		}
	}
	return res
}

func (c *Constraint) String() string {
	s := make([]string, len(c.props))
	for i, p := range c.props {
		s[i] = p.String()
	}
	return fmt.Sprintf("%s(%s)", c.name, strings.Join(s, ", "))
}
