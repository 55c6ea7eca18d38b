package fd

import (
	"fmt"
	"strings"
)

// Graph is a static graph over nodes 0..n-1, used to describe the
// bounds of a GraphVar.
type Graph struct {
	n        int
	directed bool
	nodes    []bool
	adj      [][]bool
}

func NewGraph(n int, directed bool) *Graph {
	adj := make([][]bool, n)
	for i := range adj {
		adj[i] = make([]bool, n)
	}
	return &Graph{n: n, directed: directed, nodes: make([]bool, n), adj: adj}
}

// CompleteGraph returns the graph holding every node and every edge,
// loops excluded.
func CompleteGraph(n int, directed bool) *Graph {
	g := NewGraph(n, directed)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i != j {
				g.AddEdge(i, j)
			}
		}
	}
	return g
}

func (g *Graph) AddNode(i int) *Graph {
	g.nodes[i] = true
	return g
}

// AddEdge adds (i, j) and both endpoints.
func (g *Graph) AddEdge(i, j int) *Graph {
	g.nodes[i] = true
	g.nodes[j] = true
	g.adj[i][j] = true
	if !g.directed {
		g.adj[j][i] = true
	}
	return g
}

func (g *Graph) HasNode(i int) bool {
	return g.nodes[i]
}

func (g *Graph) HasEdge(i, j int) bool {
	return g.adj[i][j]
}

type graphObserver interface {
	graphChanged(evt EventType, i, j int, cause Cause)
}

// GraphVar is a graph variable over nodes 0..n-1. Its domain is a pair
// of graphs: the kernel of mandatory nodes and edges, and the envelope
// of possible ones.
type GraphVar struct {
	varBase
	n         int
	directed  bool
	lbNodes   *StoredBits
	ubNodes   *StoredBits
	lbSucc    []*StoredBits
	ubSucc    []*StoredBits
	lbPred    []*StoredBits
	ubPred    []*StoredBits
	observers []graphObserver
}

var _ Variable = &GraphVar{}

// GraphVar creates a graph variable with kernel lb and envelope ub.
// It returns a MalformedInputError when lb is not a subgraph of ub.
func (m *Model) GraphVar(name string, lb, ub *Graph) (*GraphVar, error) {
	if lb.n != ub.n || lb.directed != ub.directed {
		return nil, Malformed("graph bounds of %q differ in size or orientation", name)
	}
	n := ub.n
	for i := 0; i < n; i++ {
		if lb.nodes[i] && !ub.nodes[i] {
			return nil, Malformed("kernel node %d of %q is not in its envelope", i, name)
		}
		for j := 0; j < n; j++ {
			if lb.adj[i][j] && !ub.adj[i][j] {
				return nil, Malformed("kernel edge (%d,%d) of %q is not in its envelope", i, j, name)
			}
		}
	}
	g := &GraphVar{varBase: m.newBase(name, KindGraph), n: n, directed: ub.directed}
	g.lbNodes = initBits(m.trail, lb.nodes)
	g.ubNodes = initBits(m.trail, ub.nodes)
	g.lbSucc = make([]*StoredBits, n)
	g.ubSucc = make([]*StoredBits, n)
	for i := 0; i < n; i++ {
		g.lbSucc[i] = initBits(m.trail, lb.adj[i])
		g.ubSucc[i] = initBits(m.trail, ub.adj[i])
	}
	if g.directed {
		g.lbPred = make([]*StoredBits, n)
		g.ubPred = make([]*StoredBits, n)
		for j := 0; j < n; j++ {
			lcol, ucol := make([]bool, n), make([]bool, n)
			for i := 0; i < n; i++ {
				lcol[i], ucol[i] = lb.adj[i][j], ub.adj[i][j]
			}
			g.lbPred[j] = initBits(m.trail, lcol)
			g.ubPred[j] = initBits(m.trail, ucol)
		}
	} else {
		g.lbPred, g.ubPred = g.lbSucc, g.ubSucc
	}
	m.addVar(g)
	return g, nil
}

func initBits(t *Trail, bs []bool) *StoredBits {
	b := NewStoredBits(t, len(bs))
	for i, ok := range bs {
		if ok {
			b.words[i>>6] |= 1 << (uint(i) & 63)
		}
	}
	return b
}

func (g *GraphVar) NbNodes() int {
	return g.n
}

func (g *GraphVar) IsDirected() bool {
	return g.directed
}

func (g *GraphVar) NodeInLB(i int) bool {
	return g.lbNodes.Get(i)
}

func (g *GraphVar) NodeInUB(i int) bool {
	return g.ubNodes.Get(i)
}

func (g *GraphVar) valid(i int) bool {
	return i >= 0 && i < g.n
}

func (g *GraphVar) EdgeInLB(i, j int) bool {
	return g.valid(i) && g.lbSucc[i].Get(j)
}

func (g *GraphVar) EdgeInUB(i, j int) bool {
	return g.valid(i) && g.ubSucc[i].Get(j)
}

func (g *GraphVar) LBNodes() []int {
	return bitsValues(g.lbNodes, 0)
}

func (g *GraphVar) UBNodes() []int {
	return bitsValues(g.ubNodes, 0)
}

func (g *GraphVar) LBSuccessors(i int) []int {
	return bitsValues(g.lbSucc[i], 0)
}

func (g *GraphVar) UBSuccessors(i int) []int {
	return bitsValues(g.ubSucc[i], 0)
}

func (g *GraphVar) LBPredecessors(i int) []int {
	return bitsValues(g.lbPred[i], 0)
}

func (g *GraphVar) UBPredecessors(i int) []int {
	return bitsValues(g.ubPred[i], 0)
}

func (g *GraphVar) IsInstantiated() bool {
	if !g.lbNodes.Equal(g.ubNodes) {
		return false
	}
	for i := 0; i < g.n; i++ {
		if !g.lbSucc[i].Equal(g.ubSucc[i]) {
			return false
		}
	}
	return true
}

func (g *GraphVar) observe(o graphObserver) {
	g.observers = append(g.observers, o)
}

func (g *GraphVar) fire(evt EventType, i, j int, cause Cause, origin graphObserver) {
	g.notify(evt, cause)
	for _, o := range g.observers {
		if o != origin {
			o.graphChanged(evt, i, j, cause)
		}
	}
}

func (g *GraphVar) fail(cause Cause, format string, args ...interface{}) error {
	return &Contradiction{Var: g, Cause: cause, Message: fmt.Sprintf(format, args...)}
}

// EnforceNode adds node i to the kernel.
func (g *GraphVar) EnforceNode(i int, cause Cause) (bool, error) {
	return g.enforceNode(i, cause, nil)
}

func (g *GraphVar) enforceNode(i int, cause Cause, origin graphObserver) (bool, error) {
	if !g.ubNodes.Get(i) {
		return false, g.fail(cause, "node %d is not in the envelope", i)
	}
	if g.lbNodes.Get(i) {
		return false, nil
	}
	g.lbNodes.Set(i)
	g.fire(EventAddNode, i, -1, cause, origin)
	return true, nil
}

// RemoveNode removes node i and its incident edges from the envelope.
func (g *GraphVar) RemoveNode(i int, cause Cause) (bool, error) {
	return g.removeNode(i, cause, nil)
}

func (g *GraphVar) removeNode(i int, cause Cause, origin graphObserver) (bool, error) {
	if g.lbNodes.Get(i) {
		return false, g.fail(cause, "node %d is in the kernel", i)
	}
	if !g.ubNodes.Get(i) {
		return false, nil
	}
	for j := g.ubSucc[i].NextSet(0); j >= 0; j = g.ubSucc[i].NextSet(j + 1) {
		g.clearEdge(i, j)
		g.fire(EventRemoveEdge, i, j, cause, nil)
	}
	if g.directed {
		for j := g.ubPred[i].NextSet(0); j >= 0; j = g.ubPred[i].NextSet(j + 1) {
			g.clearEdge(j, i)
			g.fire(EventRemoveEdge, j, i, cause, nil)
		}
	}
	g.ubNodes.Clear(i)
	g.fire(EventRemoveNode, i, -1, cause, origin)
	return true, nil
}

// EnforceEdge adds (i, j) and its endpoints to the kernel.
func (g *GraphVar) EnforceEdge(i, j int, cause Cause) (bool, error) {
	return g.enforceEdge(i, j, cause, nil)
}

func (g *GraphVar) enforceEdge(i, j int, cause Cause, origin graphObserver) (bool, error) {
	if !g.EdgeInUB(i, j) {
		return false, g.fail(cause, "edge (%d,%d) is not in the envelope", i, j)
	}
	if g.lbSucc[i].Get(j) {
		return false, nil
	}
	if _, err := g.enforceNode(i, cause, nil); err != nil {
		return false, err
	}
	if _, err := g.enforceNode(j, cause, nil); err != nil {
		return false, err
	}
	g.lbSucc[i].Set(j)
	if g.directed {
		g.lbPred[j].Set(i)
	} else {
		g.lbSucc[j].Set(i)
	}
	g.fire(EventAddEdge, i, j, cause, origin)
	return true, nil
}

// RemoveEdge removes (i, j) from the envelope.
func (g *GraphVar) RemoveEdge(i, j int, cause Cause) (bool, error) {
	return g.removeEdge(i, j, cause, nil)
}

func (g *GraphVar) removeEdge(i, j int, cause Cause, origin graphObserver) (bool, error) {
	if g.EdgeInLB(i, j) {
		return false, g.fail(cause, "edge (%d,%d) is in the kernel", i, j)
	}
	if !g.EdgeInUB(i, j) {
		return false, nil
	}
	g.clearEdge(i, j)
	g.fire(EventRemoveEdge, i, j, cause, origin)
	return true, nil
}

func (g *GraphVar) clearEdge(i, j int) {
	g.ubSucc[i].Clear(j)
	if g.directed {
		g.ubPred[j].Clear(i)
	} else {
		g.ubSucc[j].Clear(i)
	}
}

func (g *GraphVar) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s = nodes [{%s}, {%s}]", g.name, joinInts(g.LBNodes()), joinInts(g.UBNodes()))
	for i := 0; i < g.n; i++ {
		if !g.ubNodes.Get(i) {
			continue
		}
		fmt.Fprintf(&b, " %d:[{%s}, {%s}]", i, joinInts(g.LBSuccessors(i)), joinInts(g.UBSuccessors(i)))
	}
	return b.String()
}
