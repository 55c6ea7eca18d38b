package extension

import (
	"math"

	"github.com/operator-framework/fdsolver/pkg/fd"
)

// filterValues removes from v every value supported rejects. Bounded
// domains only lose values at their bounds.
func filterValues(v *fd.IntVar, cause fd.Cause, supported func(val int) bool) (bool, error) {
	changed := false
	if v.IsBounded() {
		for lb := v.LB(); !supported(lb); lb = v.LB() {
			if _, err := v.UpdateLowerBound(lb+1, cause); err != nil {
				return changed, err
			}
			changed = true
		}
		for ub := v.UB(); !supported(ub); ub = v.UB() {
			if _, err := v.UpdateUpperBound(ub-1, cause); err != nil {
				return changed, err
			}
			changed = true
		}
		return changed, nil
	}
	for val := v.LB(); val != math.MaxInt; val = v.NextValue(val) {
		if supported(val) {
			continue
		}
		rm, err := v.RemoveValue(val, cause)
		if err != nil {
			return changed, err
		}
		changed = changed || rm
	}
	return changed, nil
}

// propFC checks the relation once all variables but one are fixed.
type propFC struct {
	tableProp
}

func (p *propFC) Propagate(_ fd.Cause) error {
	t := make([]int, len(p.vars))
	free := -1
	for i, v := range p.vars {
		if v.IsInstantiated() {
			t[i] = v.Value()
			continue
		}
		if free >= 0 {
			return nil
		}
		free = i
	}
	if free < 0 {
		if !p.rel.IsConsistent(t) {
			return fail(p, p.vars[0], "tuple rejected by the relation")
		}
		return nil
	}
	_, err := filterValues(p.vars[free], p, func(val int) bool {
		t[free] = val
		return p.rel.IsConsistent(t)
	})
	return err
}

// propGAC3 seeks supports by walking the product of the current
// domains in lexicographic order. With residues, the last support
// found for a value is tried first.
type propGAC3 struct {
	tableProp
	residues []map[int][]int
}

func newPropGAC3(base tableProp, rm bool) *propGAC3 {
	p := &propGAC3{tableProp: base}
	if rm {
		p.residues = make([]map[int][]int, len(base.vars))
		for i := range p.residues {
			p.residues[i] = map[int][]int{}
		}
	}
	return p
}

func (p *propGAC3) Propagate(_ fd.Cause) error {
	return fixpoint(func() (bool, error) {
		changed := false
		for i, x := range p.vars {
			c, err := filterValues(x, p, func(val int) bool { return p.support(i, val) })
			if err != nil {
				return false, err
			}
			changed = changed || c
		}
		return changed, nil
	})
}

func (p *propGAC3) support(i, val int) bool {
	if p.residues != nil {
		if r, ok := p.residues[i][val]; ok && validTuple(p.vars, r) {
			return true
		}
	}
	c := cartesian{vars: p.vars, fixed: i, val: val}
	t := make([]int, len(p.vars))
	c.reset(t, 0)
	if !c.seek(p.rel, t) {
		return false
	}
	if p.residues != nil {
		p.residues[i][val] = t
	}
	return true
}

// propGAC2001 keeps, for every value, the last support found in
// lexicographic order. The pointer is trailed: tuples before it are
// not supports anywhere below the node that moved it.
type propGAC2001 struct {
	tableProp
	trail *fd.Trail
	last  []map[int][]*fd.StoredInt
}

func newPropGAC2001(base tableProp) *propGAC2001 {
	p := &propGAC2001{tableProp: base, trail: base.vars[0].Model().Trail()}
	p.last = make([]map[int][]*fd.StoredInt, len(base.vars))
	for i := range p.last {
		p.last[i] = map[int][]*fd.StoredInt{}
	}
	return p
}

func (p *propGAC2001) Propagate(_ fd.Cause) error {
	return fixpoint(func() (bool, error) {
		changed := false
		for i, x := range p.vars {
			c, err := filterValues(x, p, func(val int) bool { return p.support(i, val) })
			if err != nil {
				return false, err
			}
			changed = changed || c
		}
		return changed, nil
	})
}

func (p *propGAC2001) support(i, val int) bool {
	last, ok := p.last[i][val]
	if !ok {
		last = make([]*fd.StoredInt, len(p.vars))
		for j := range last {
			last[j] = fd.NewStoredInt(p.trail, math.MinInt)
		}
		p.last[i][val] = last
	}
	t := make([]int, len(p.vars))
	for j, s := range last {
		t[j] = s.Get()
	}
	c := cartesian{vars: p.vars, fixed: i, val: val}
	if !c.seek(p.rel, t) {
		return false
	}
	for j, s := range last {
		s.Set(t[j])
	}
	return true
}

// propGACPlus seeks supports in the list of allowed tuples holding
// each value, either from a residue (GAC3rm+) or from a trailed
// position (GAC2001+).
type propGACPlus struct {
	tableProp
	supports []map[int][]int
	residues []map[int]int
	last     []map[int]*fd.StoredInt
	trail    *fd.Trail
}

func newPropGACPlus(base tableProp, trailed bool) *propGACPlus {
	n := len(base.vars)
	p := &propGACPlus{tableProp: base, supports: make([]map[int][]int, n)}
	for i := range p.supports {
		p.supports[i] = map[int][]int{}
	}
	for k := 0; k < base.rel.Len(); k++ {
		for i, v := range base.rel.Row(k) {
			p.supports[i][v] = append(p.supports[i][v], k)
		}
	}
	if trailed {
		p.trail = base.vars[0].Model().Trail()
		p.last = make([]map[int]*fd.StoredInt, n)
		for i := range p.last {
			p.last[i] = map[int]*fd.StoredInt{}
		}
	} else {
		p.residues = make([]map[int]int, n)
		for i := range p.residues {
			p.residues[i] = map[int]int{}
		}
	}
	return p
}

func (p *propGACPlus) Propagate(_ fd.Cause) error {
	return fixpoint(func() (bool, error) {
		changed := false
		for i, x := range p.vars {
			c, err := filterValues(x, p, func(val int) bool { return p.support(i, val) })
			if err != nil {
				return false, err
			}
			changed = changed || c
		}
		return changed, nil
	})
}

func (p *propGACPlus) valid(k int) bool {
	return validTuple(p.vars, p.rel.Row(k))
}

func (p *propGACPlus) support(i, val int) bool {
	list := p.supports[i][val]
	if p.last != nil {
		last, ok := p.last[i][val]
		if !ok {
			last = fd.NewStoredInt(p.trail, 0)
			p.last[i][val] = last
		}
		for k := last.Get(); k < len(list); k++ {
			if p.valid(list[k]) {
				last.Set(k)
				return true
			}
		}
		return false
	}
	r := p.residues[i][val]
	for n := 0; n < len(list); n++ {
		k := (r + n) % len(list)
		if p.valid(list[k]) {
			p.residues[i][val] = k
			return true
		}
	}
	return false
}

// propSTR maintains the list of valid allowed tuples as a trailed
// prefix of a permutation: invalid tuples are swapped past the end.
// The STR2 flavor only checks the variables whose domain shrank since
// the previous call.
type propSTR struct {
	tableProp
	str2     bool
	pos      []int
	size     *fd.StoredInt
	lastSize []*fd.StoredInt
	sup      []map[int]struct{}
}

func newPropSTR(base tableProp, str2 bool) *propSTR {
	trail := base.vars[0].Model().Trail()
	n := len(base.vars)
	p := &propSTR{
		tableProp: base,
		str2:      str2,
		pos:       make([]int, base.rel.Len()),
		size:      fd.NewStoredInt(trail, base.rel.Len()),
		sup:       make([]map[int]struct{}, n),
	}
	for k := range p.pos {
		p.pos[k] = k
	}
	for i := range p.sup {
		p.sup[i] = map[int]struct{}{}
	}
	if str2 {
		p.lastSize = make([]*fd.StoredInt, n)
		for i := range p.lastSize {
			p.lastSize[i] = fd.NewStoredInt(trail, -1)
		}
	}
	return p
}

func (p *propSTR) Propagate(_ fd.Cause) error {
	return fixpoint(p.pass)
}

func (p *propSTR) pass() (bool, error) {
	n := len(p.vars)
	sval := make([]int, 0, n)
	ssup := make([]int, 0, n)
	remaining := make([]int, n)
	for i, x := range p.vars {
		if !p.str2 || p.lastSize[i].Get() != x.Size() {
			sval = append(sval, i)
		}
		ssup = append(ssup, i)
		remaining[i] = x.Size()
		clear(p.sup[i])
	}

	size := p.size.Get()
	for k := 0; k < size; {
		row := p.rel.Row(p.pos[k])
		valid := true
		for _, i := range sval {
			if !p.vars[i].Contains(row[i]) {
				valid = false
				break
			}
		}
		if !valid {
			size--
			p.pos[k], p.pos[size] = p.pos[size], p.pos[k]
			continue
		}
		for j := 0; j < len(ssup); {
			i := ssup[j]
			if _, ok := p.sup[i][row[i]]; !ok {
				p.sup[i][row[i]] = struct{}{}
				remaining[i]--
				if remaining[i] == 0 {
					ssup[j] = ssup[len(ssup)-1]
					ssup = ssup[:len(ssup)-1]
					continue
				}
			}
			j++
		}
		k++
	}
	p.size.Set(size)
	if size == 0 {
		return false, fail(p, p.vars[0], "no valid tuple left")
	}
	if p.str2 {
		for i, x := range p.vars {
			p.lastSize[i].Set(x.Size())
		}
	}

	changed := false
	for _, i := range ssup {
		sup := p.sup[i]
		c, err := filterValues(p.vars[i], p, func(val int) bool {
			_, ok := sup[val]
			return ok
		})
		if err != nil {
			return false, err
		}
		changed = changed || c
	}
	return changed, nil
}

// propMDD collects supports by a depth-first walk of the diagram under
// the current domains. Nodes without a path to the terminal are
// recorded in a trailed set and skipped until backtrack.
type propMDD struct {
	tableProp
	mdd    *MDD
	nogood *fd.StoredBits
	yes    []bool
	sup    [][]bool
}

func newPropMDD(base tableProp, mdd *MDD) *propMDD {
	p := &propMDD{
		tableProp: base,
		mdd:       mdd,
		nogood:    fd.NewStoredBits(base.vars[0].Model().Trail(), mdd.NodeCount()),
		yes:       make([]bool, mdd.NodeCount()),
		sup:       make([][]bool, len(base.vars)),
	}
	for l := range p.sup {
		p.sup[l] = make([]bool, mdd.width(l))
	}
	return p
}

func (p *propMDD) Propagate(_ fd.Cause) error {
	return fixpoint(p.pass)
}

func (p *propMDD) pass() (bool, error) {
	clear(p.yes)
	for l := range p.sup {
		clear(p.sup[l])
	}
	if p.mdd.root == mddNone || !p.explore(p.mdd.root) {
		return false, fail(p, p.vars[0], "no path left in the decision diagram")
	}
	changed := false
	for l, x := range p.vars {
		sup, lb := p.sup[l], p.mdd.lbs[l]
		c, err := filterValues(x, p, func(val int) bool {
			off := val - lb
			return off >= 0 && off < len(sup) && sup[off]
		})
		if err != nil {
			return false, err
		}
		changed = changed || c
	}
	return changed, nil
}

func (p *propMDD) explore(node int) bool {
	if node == mddTrue || p.yes[node] {
		return true
	}
	if p.nogood.Get(node) {
		return false
	}
	l := p.mdd.layer[node]
	x, lb := p.vars[l], p.mdd.lbs[l]
	ok := false
	for off, child := range p.mdd.nodes[node] {
		if child == mddNone || !x.Contains(lb+off) {
			continue
		}
		if p.explore(child) {
			ok = true
			p.sup[l][off] = true
		}
	}
	if ok {
		p.yes[node] = true
	} else {
		p.nogood.Set(node)
	}
	return ok
}
