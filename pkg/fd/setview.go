package fd

import "fmt"

// graphProjection translates a set view into operations and events of
// its base graph variable.
type graphProjection interface {
	lb(g *GraphVar) *StoredBits
	ub(g *GraphVar) *StoredBits
	force(g *GraphVar, e int, cause Cause, origin graphObserver) (bool, error)
	remove(g *GraphVar, e int, cause Cause, origin graphObserver) (bool, error)
	translate(g *GraphVar, evt EventType, i, j int) (int, EventType, bool)
}

type nodeProjection struct{}

func (nodeProjection) lb(g *GraphVar) *StoredBits { return g.lbNodes }
func (nodeProjection) ub(g *GraphVar) *StoredBits { return g.ubNodes }

func (nodeProjection) force(g *GraphVar, e int, cause Cause, origin graphObserver) (bool, error) {
	return g.enforceNode(e, cause, origin)
}

func (nodeProjection) remove(g *GraphVar, e int, cause Cause, origin graphObserver) (bool, error) {
	return g.removeNode(e, cause, origin)
}

func (nodeProjection) translate(_ *GraphVar, evt EventType, i, _ int) (int, EventType, bool) {
	switch evt {
	case EventAddNode:
		return i, EventAddToKer, true
	case EventRemoveNode:
		return i, EventRemoveFromEnvelope, true
	}
	return 0, 0, false
}

type successorProjection struct {
	node int
}

func (p successorProjection) lb(g *GraphVar) *StoredBits { return g.lbSucc[p.node] }
func (p successorProjection) ub(g *GraphVar) *StoredBits { return g.ubSucc[p.node] }

func (p successorProjection) force(g *GraphVar, e int, cause Cause, origin graphObserver) (bool, error) {
	return g.enforceEdge(p.node, e, cause, origin)
}

func (p successorProjection) remove(g *GraphVar, e int, cause Cause, origin graphObserver) (bool, error) {
	return g.removeEdge(p.node, e, cause, origin)
}

func (p successorProjection) translate(g *GraphVar, evt EventType, i, j int) (int, EventType, bool) {
	var setEvt EventType
	switch evt {
	case EventAddEdge:
		setEvt = EventAddToKer
	case EventRemoveEdge:
		setEvt = EventRemoveFromEnvelope
	default:
		return 0, 0, false
	}
	switch {
	case i == p.node:
		return j, setEvt, true
	case !g.directed && j == p.node:
		return i, setEvt, true
	}
	return 0, 0, false
}

// SetView exposes a set projected from a graph variable: its nodes, or
// the successors of one node. It owns no domain storage: bounds are
// read from the graph and modifications are delegated to it.
type SetView struct {
	varBase
	graph *GraphVar
	proj  graphProjection
	delta *SetDelta
	card  cardinality
}

var _ SetVariable = &SetView{}

// NodeSetView returns the set of nodes of g.
func (m *Model) NodeSetView(name string, g *GraphVar) *SetView {
	return m.newSetView(name, g, nodeProjection{})
}

// SuccessorsSetView returns the set of successors of node in g. For an
// undirected graph these are its neighbors.
func (m *Model) SuccessorsSetView(name string, g *GraphVar, node int) (*SetView, error) {
	if !g.valid(node) {
		return nil, Malformed("node %d is not a node of %s", node, g.Name())
	}
	return m.newSetView(name, g, successorProjection{node: node}), nil
}

func (m *Model) newSetView(name string, g *GraphVar, p graphProjection) *SetView {
	v := &SetView{varBase: m.newBase(name, KindSet|KindView), graph: g, proj: p}
	v.card.owner = v
	g.observe(v)
	m.addVar(v)
	return v
}

// Graph returns the base variable.
func (v *SetView) Graph() *GraphVar {
	return v.graph
}

func (v *SetView) LBContains(e int) bool {
	return v.proj.lb(v.graph).Get(e)
}

func (v *SetView) UBContains(e int) bool {
	return v.proj.ub(v.graph).Get(e)
}

func (v *SetView) LBValues() []int {
	return bitsValues(v.proj.lb(v.graph), 0)
}

func (v *SetView) UBValues() []int {
	return bitsValues(v.proj.ub(v.graph), 0)
}

func (v *SetView) LBSize() int {
	return v.proj.lb(v.graph).Count()
}

func (v *SetView) UBSize() int {
	return v.proj.ub(v.graph).Count()
}

func (v *SetView) IsInstantiated() bool {
	return v.proj.lb(v.graph).Equal(v.proj.ub(v.graph))
}

// Force adds e to the lower bound of the view.
func (v *SetView) Force(e int, cause Cause) (bool, error) {
	if !v.UBContains(e) {
		return false, &Contradiction{Var: v, Cause: cause, Message: fmt.Sprintf("%d is not in UB(%s)", e, v.name)}
	}
	changed, err := v.proj.force(v.graph, e, cause, v)
	if err != nil || !changed {
		return false, err
	}
	v.delta.add(e, SetDeltaLB, cause)
	v.notify(EventAddToKer, cause)
	return true, nil
}

// Remove drops e from the upper bound of the view.
func (v *SetView) Remove(e int, cause Cause) (bool, error) {
	if v.LBContains(e) {
		return false, &Contradiction{Var: v, Cause: cause, Message: fmt.Sprintf("%d is in LB(%s)", e, v.name)}
	}
	changed, err := v.proj.remove(v.graph, e, cause, v)
	if err != nil || !changed {
		return false, err
	}
	v.delta.add(e, SetDeltaUB, cause)
	v.notify(EventRemoveFromEnvelope, cause)
	return true, nil
}

func (v *SetView) graphChanged(evt EventType, i, j int, cause Cause) {
	e, setEvt, ok := v.proj.translate(v.graph, evt, i, j)
	if !ok {
		return
	}
	kind := SetDeltaLB
	if setEvt == EventRemoveFromEnvelope {
		kind = SetDeltaUB
	}
	v.delta.add(e, kind, cause)
	v.notify(setEvt, cause)
}

func (v *SetView) Monitor() *SetDeltaMonitor {
	if v.delta == nil {
		v.delta = &SetDelta{model: v.model}
	}
	return &SetDeltaMonitor{delta: v.delta}
}

func (v *SetView) Cardinality() (*IntVar, error) {
	return v.card.get()
}

func (v *SetView) SetCardinality(card *IntVar) error {
	return v.card.set(card)
}

func (v *SetView) HasCardinality() bool {
	return v.card.v != nil
}

// Explain is not available on graph set views.
func (v *SetView) Explain(_ EventType, _ int) error {
	return &UnsupportedOperationError{Op: "Explain", Message: fmt.Sprintf("explanations are not supported by view %s", v.name)}
}

// JustifyEvent is not available on graph set views.
func (v *SetView) JustifyEvent(_ EventType, _ int) error {
	return &UnsupportedOperationError{Op: "JustifyEvent", Message: fmt.Sprintf("explanations are not supported by view %s", v.name)}
}

func (v *SetView) String() string {
	return formatSet(v.name, v)
}
