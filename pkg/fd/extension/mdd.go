package extension

import (
	"strconv"
	"strings"

	"github.com/operator-framework/fdsolver/pkg/fd"
)

const (
	mddTrue = 0
	mddNone = -1
)

// MDD is a reduced multi-valued decision diagram of a feasible
// relation: layer i branches on the value of variable i, and
// isomorphic sub-diagrams are shared.
type MDD struct {
	relBase
	// nodes[k][v-lbs[layer[k]]] is the child of node k on value v.
	nodes [][]int
	layer []int
	root  int
}

var _ Relation = &MDD{}

// NewMDD compiles the tuples into a diagram. Infeasible tuples are
// rejected.
func NewMDD(t *Tuples, vars []*fd.IntVar) (*MDD, error) {
	if !t.Feasible() {
		return nil, fd.Malformed("decision diagrams need allowed tuples")
	}
	base, err := newRelBase(t, vars)
	if err != nil {
		return nil, err
	}
	d := &MDD{relBase: base}
	for i := 0; i < t.Len(); i++ {
		row := t.Get(i)
		if err := d.checkArity(row); err != nil {
			return nil, err
		}
		if d.inBounds(row) {
			d.rows = append(d.rows, append([]int(nil), row...))
		} else {
			d.setAside(row)
		}
	}
	d.build()
	return d, nil
}

func (d *MDD) build() {
	n := d.Arity()
	trie := [][]int{nil}
	tlayer := []int{n}
	newNode := func(l int) int {
		ch := make([]int, d.width(l))
		for i := range ch {
			ch[i] = mddNone
		}
		trie = append(trie, ch)
		tlayer = append(tlayer, l)
		return len(trie) - 1
	}
	if len(d.rows) == 0 {
		d.nodes, d.layer, d.root = [][]int{nil}, []int{n}, mddNone
		return
	}
	root := newNode(0)
	kept := d.rows[:0]
	for _, row := range d.rows {
		cur, fresh := root, false
		for l := 0; l < n; l++ {
			off := row[l] - d.lbs[l]
			next := trie[cur][off]
			if next == mddNone {
				fresh = true
				if l == n-1 {
					next = mddTrue
				} else {
					next = newNode(l + 1)
				}
				trie[cur][off] = next
			}
			cur = next
		}
		if fresh {
			kept = append(kept, row)
		}
	}
	d.rows = kept

	// children are created after their parent, so a reverse scan
	// sees every child before its parents
	remap := make([]int, len(trie))
	canon := map[string]int{}
	d.nodes, d.layer = [][]int{nil}, []int{n}
	var key strings.Builder
	for k := len(trie) - 1; k >= 1; k-- {
		ch := make([]int, len(trie[k]))
		key.Reset()
		key.WriteString(strconv.Itoa(tlayer[k]))
		for i, c := range trie[k] {
			if c > 0 {
				c = remap[c]
			}
			ch[i] = c
			key.WriteByte(',')
			key.WriteString(strconv.Itoa(c))
		}
		if id, ok := canon[key.String()]; ok {
			remap[k] = id
			continue
		}
		d.nodes = append(d.nodes, ch)
		d.layer = append(d.layer, tlayer[k])
		remap[k] = len(d.nodes) - 1
		canon[key.String()] = remap[k]
	}
	d.root = remap[root]
}

// NodeCount returns the number of nodes, the terminal included.
func (d *MDD) NodeCount() int {
	return len(d.nodes)
}

func (d *MDD) CheckTuple(values []int) bool {
	if !d.inBounds(values) || d.root == mddNone {
		return false
	}
	cur := d.root
	for l, v := range values {
		cur = d.nodes[cur][v-d.lbs[l]]
		if cur == mddNone {
			return false
		}
		if l == len(values)-1 {
			return cur == mddTrue
		}
	}
	return false
}

func (d *MDD) IsConsistent(values []int) bool {
	return d.CheckTuple(values)
}

// Add inserts a tuple and rebuilds the diagram.
func (d *MDD) Add(values ...int) error {
	if err := d.checkArity(values); err != nil {
		return err
	}
	if !d.inBounds(values) {
		d.setAside(values)
		return nil
	}
	if d.CheckTuple(values) {
		return nil
	}
	d.rows = append(d.rows, append([]int(nil), values...))
	d.build()
	return nil
}

func (d *MDD) Duplicate() Relation {
	c := &MDD{relBase: d.clone(), root: d.root, layer: append([]int(nil), d.layer...)}
	c.nodes = make([][]int, len(d.nodes))
	for i, ch := range d.nodes {
		c.nodes[i] = append([]int(nil), ch...)
	}
	return c
}
