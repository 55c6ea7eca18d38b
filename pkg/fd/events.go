package fd

import "strings"

// EventType is a bit set of domain modifications.
type EventType uint32

const (
	EventRemove EventType = 1 << iota
	EventIncLow
	EventDecUpp
	EventInstantiate
	EventAddToKer
	EventRemoveFromEnvelope
	EventAddNode
	EventRemoveNode
	EventAddEdge
	EventRemoveEdge
)

const (
	EventBound    = EventIncLow | EventDecUpp
	EventAllInt   = EventRemove | EventIncLow | EventDecUpp | EventInstantiate
	EventAllSet   = EventAddToKer | EventRemoveFromEnvelope
	EventAllGraph = EventAddNode | EventRemoveNode | EventAddEdge | EventRemoveEdge
)

var eventNames = []string{
	"REMOVE", "INCLOW", "DECUPP", "INSTANTIATE",
	"ADD_TO_KER", "REMOVE_FROM_ENVELOPE",
	"ADD_NODE", "REMOVE_NODE", "ADD_EDGE", "REMOVE_EDGE",
}

func (e EventType) String() string {
	if e == 0 {
		return "VOID"
	}
	var names []string
	for i, n := range eventNames {
		if e&(1<<uint(i)) != 0 {
			names = append(names, n)
		}
	}
	return strings.Join(names, "|")
}

// Kind tags a variable with its capability set. A view carries
// KindView in addition to the kind it exposes.
type Kind uint8

const (
	KindInt Kind = 1 << iota
	KindSet
	KindGraph
	KindView
)

func (k Kind) String() string {
	var s string
	switch {
	case k&KindInt != 0:
		s = "int"
	case k&KindSet != 0:
		s = "set"
	case k&KindGraph != 0:
		s = "graph"
	default:
		s = "unknown"
	}
	if k&KindView != 0 {
		s += "-view"
	}
	return s
}

// base strips the view flag.
func (k Kind) base() Kind {
	return k &^ KindView
}

// EventScheduler decides, for one variable kind, which subscription
// masks an event wakes up.
type EventScheduler interface {
	Wakes(evt EventType) EventType
}

type intScheduler struct{}

// A tightened bound is also a removal, and an instantiation is
// everything at once.
func (intScheduler) Wakes(evt EventType) EventType {
	w := evt
	if evt&EventInstantiate != 0 {
		w |= EventAllInt
	}
	if evt&EventBound != 0 {
		w |= EventRemove
	}
	return w
}

type setScheduler struct{}

func (setScheduler) Wakes(evt EventType) EventType {
	return evt & EventAllSet
}

type graphScheduler struct{}

func (graphScheduler) Wakes(evt EventType) EventType {
	w := evt & EventAllGraph
	// removing a node removes its edges
	if evt&EventRemoveNode != 0 {
		w |= EventRemoveEdge
	}
	return w
}

// Schedulers maps a variable kind to its scheduler. A fresh registry is
// built for every Model.
type Schedulers map[Kind]EventScheduler

func newSchedulers() Schedulers {
	return Schedulers{
		KindInt:   intScheduler{},
		KindSet:   setScheduler{},
		KindGraph: graphScheduler{},
	}
}

func (s Schedulers) For(k Kind) EventScheduler {
	return s[k.base()]
}

// Cause names the agent responsible for a domain modification:
// a propagator, a decision, or NullCause for direct user calls.
type Cause interface {
	String() string
}

type nullCause struct{}

func (nullCause) String() string { return "null" }

var NullCause Cause = nullCause{}
