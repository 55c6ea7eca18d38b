package fd

// Priority orders pending propagators: cheaper ones run first.
type Priority int

const (
	PriorityUnary Priority = iota
	PriorityBinary
	PriorityTernary
	PriorityLinear
	PriorityQuadratic
	PriorityCubic
	PriorityVerySlow
	numPriorities
)

// ESat is a three-valued entailment status.
type ESat int

const (
	ESatUndefined ESat = iota
	ESatTrue
	ESatFalse
)

func (e ESat) String() string {
	switch e {
	case ESatTrue:
		return "TRUE"
	case ESatFalse:
		return "FALSE"
	}
	return "UNDEFINED"
}

// Propagator is a filtering algorithm over a fixed list of variables.
//
// Propagate narrows the domains of its variables through the domain
// API, passing itself as the cause, and returns the first Contradiction
// met. It must reach its own fixpoint: a second call over unchanged
// domains changes nothing. Implementations must be pointers, since
// the engine compares propagators with causes by identity.
type Propagator interface {
	String() string
	Vars() []Variable
	// Mask returns the events on Vars()[idx] that schedule the
	// propagator.
	Mask(idx int) EventType
	Priority() Priority
	Propagate(cause Cause) error
	Entailed() ESat
}

// EventPropagator is implemented by propagators that filter from the
// modifications of their variables. Once scheduled, PropagateEvent is
// called for every modified variable with the union of the events it
// received; Propagate still serves the initial run and full wake-ups.
// The same fixpoint requirement as for Propagate applies.
type EventPropagator interface {
	Propagator
	PropagateEvent(idx int, mask EventType) error
}

// PropBase implements the bookkeeping part of Propagator.
type PropBase struct {
	name     string
	vars     []Variable
	priority Priority
}

func NewPropBase(name string, priority Priority, vars ...Variable) PropBase {
	return PropBase{name: name, vars: vars, priority: priority}
}

func (p *PropBase) String() string {
	return p.name
}

func (p *PropBase) Vars() []Variable {
	return p.vars
}

func (p *PropBase) Priority() Priority {
	return p.priority
}

// Mask subscribes to every event of the variable kind.
func (p *PropBase) Mask(idx int) EventType {
	switch p.vars[idx].Kind().base() {
	case KindInt:
		return EventAllInt
	case KindSet:
		return EventAllSet
	case KindGraph:
		return EventAllGraph
	}
	return 0
}

// IntVars converts variables known to be integer variables.
func IntVars(vars []Variable) []*IntVar {
	out := make([]*IntVar, len(vars))
	for i, v := range vars {
		out[i] = v.(*IntVar)
	}
	return out
}

// AsVars converts integer variables to the generic interface.
func AsVars(vars []*IntVar) []Variable {
	out := make([]Variable, len(vars))
	for i, v := range vars {
		out[i] = v
	}
	return out
}
