package fd

import "fmt"

// cardinality is the lazily created |set| variable of a set variable
// or view. At most one exists per owner; the linking propagator is
// posted together with it.
type cardinality struct {
	owner SetVariable
	v     *IntVar
}

func (c *cardinality) get() (*IntVar, error) {
	if c.v != nil {
		return c.v, nil
	}
	m := c.owner.Model()
	lb, ub := c.owner.LBSize(), c.owner.UBSize()
	if lb == ub {
		c.v = m.IntConst(lb)
		return c.v, nil
	}
	card := m.IntVar(c.owner.Name()+".card", lb, ub)
	if err := m.NewConstraint("CARD", newPropCardinality(c.owner, card)).Post(); err != nil {
		return nil, err
	}
	c.v = card
	return card, nil
}

func (c *cardinality) set(card *IntVar) error {
	m := c.owner.Model()
	if c.v != nil {
		return m.NewConstraint("EQ", NewPropEqual(c.v, card)).Post()
	}
	if err := m.NewConstraint("CARD", newPropCardinality(c.owner, card)).Post(); err != nil {
		return err
	}
	c.v = card
	return nil
}

// propCardinality links a set to its size. On wake-ups it reads the
// delta of the set, so that only the bound of card matching the
// modified side of the set is revised.
type propCardinality struct {
	PropBase
	set  SetVariable
	card *IntVar
	mon  *SetDeltaMonitor
}

var _ EventPropagator = &propCardinality{}

func newPropCardinality(set SetVariable, card *IntVar) *propCardinality {
	return &propCardinality{
		PropBase: NewPropBase(fmt.Sprintf("|%s| = %s", set.Name(), card.Name()), PriorityLinear, set, card),
		set:      set,
		card:     card,
		mon:      set.Monitor(),
	}
}

func (p *propCardinality) PropagateEvent(idx int, mask EventType) error {
	if idx == 1 {
		return p.Propagate(p)
	}
	forced, removed := false, false
	if mask&EventAddToKer != 0 {
		p.mon.ForEach(p, SetDeltaLB, func(int) { forced = true })
	}
	if mask&EventRemoveFromEnvelope != 0 {
		p.mon.ForEach(p, SetDeltaUB, func(int) { removed = true })
	}
	p.mon.Freeze()
	if forced {
		if _, err := p.card.UpdateLowerBound(p.set.LBSize(), p); err != nil {
			return err
		}
	}
	if removed {
		if _, err := p.card.UpdateUpperBound(p.set.UBSize(), p); err != nil {
			return err
		}
	}
	if !forced && !removed {
		return nil
	}
	return p.Propagate(p)
}

func (p *propCardinality) Propagate(_ Cause) error {
	for {
		lb, ub := p.set.LBSize(), p.set.UBSize()
		if _, err := p.card.UpdateBounds(lb, ub, p); err != nil {
			return err
		}
		if lb == ub {
			return nil
		}
		switch {
		case p.card.UB() == lb:
			for _, e := range p.set.UBValues() {
				if !p.set.LBContains(e) {
					if _, err := p.set.Remove(e, p); err != nil {
						return err
					}
				}
			}
		case p.card.LB() == ub:
			for _, e := range p.set.UBValues() {
				if _, err := p.set.Force(e, p); err != nil {
					return err
				}
			}
		default:
			return nil
		}
	}
}

func (p *propCardinality) Entailed() ESat {
	lb, ub := p.set.LBSize(), p.set.UBSize()
	if p.card.LB() > ub || p.card.UB() < lb {
		return ESatFalse
	}
	if lb == ub && p.card.IsInstantiated() {
		return ESatTrue
	}
	return ESatUndefined
}

// PropEqual enforces x = y on integer variables.
type PropEqual struct {
	PropBase
	x, y *IntVar
}

func NewPropEqual(x, y *IntVar) *PropEqual {
	return &PropEqual{
		PropBase: NewPropBase(fmt.Sprintf("%s = %s", x.Name(), y.Name()), PriorityBinary, x, y),
		x:        x,
		y:        y,
	}
}

func (p *PropEqual) Propagate(_ Cause) error {
	for {
		c1, err := p.x.UpdateBounds(p.y.LB(), p.y.UB(), p)
		if err != nil {
			return err
		}
		c2, err := p.y.UpdateBounds(p.x.LB(), p.x.UB(), p)
		if err != nil {
			return err
		}
		c3, err := filterSupport(p.x, p.y, p)
		if err != nil {
			return err
		}
		c4, err := filterSupport(p.y, p.x, p)
		if err != nil {
			return err
		}
		if !c1 && !c2 && !c3 && !c4 {
			return nil
		}
	}
}

// filterSupport removes from a the values missing from b.
func filterSupport(a, b *IntVar, cause Cause) (bool, error) {
	if a.IsBounded() {
		return false, nil
	}
	changed := false
	for _, v := range a.Values() {
		if !b.Contains(v) {
			c, err := a.RemoveValue(v, cause)
			if err != nil {
				return false, err
			}
			changed = changed || c
		}
	}
	return changed, nil
}

func (p *PropEqual) Entailed() ESat {
	if p.x.IsInstantiated() && p.y.IsInstantiated() {
		if p.x.Value() == p.y.Value() {
			return ESatTrue
		}
		return ESatFalse
	}
	if p.x.UB() < p.y.LB() || p.y.UB() < p.x.LB() {
		return ESatFalse
	}
	return ESatUndefined
}
