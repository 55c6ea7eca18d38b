package fd

import (
	"fmt"
	"strconv"
	"strings"
)

// SetVar is a set variable over integers in [min, max]. Its domain is
// the pair (LB, UB) of mandatory and possible elements, LB ⊆ UB.
type SetVar struct {
	varBase
	offset int
	lb     *StoredBits
	ub     *StoredBits
	lbSize *StoredInt
	ubSize *StoredInt
	delta  *SetDelta
	card   cardinality
}

var _ SetVariable = &SetVar{}

// SetVar creates a set variable with the given kernel and envelope.
// It panics if the kernel is not contained in the envelope.
func (m *Model) SetVar(name string, lb, ub []int) *SetVar {
	lo, hi := 0, -1
	for i, e := range ub {
		if i == 0 || e < lo {
			lo = e
		}
		if i == 0 || e > hi {
			hi = e
		}
	}
	v := &SetVar{varBase: m.newBase(name, KindSet), offset: lo}
	v.lb = NewStoredBits(m.trail, hi-lo+1)
	v.ub = NewStoredBits(m.trail, hi-lo+1)
	ubn := 0
	for _, e := range ub {
		i := e - lo
		if v.ub.words[i>>6]&(1<<(uint(i)&63)) == 0 {
			v.ub.words[i>>6] |= 1 << (uint(i) & 63)
			ubn++
		}
	}
	lbn := 0
	for _, e := range lb {
		if !v.ub.Get(e - lo) {
			panic(fmt.Sprintf("fd: kernel element %d of %q is not in its envelope", e, name))
		}
		i := e - lo
		if v.lb.words[i>>6]&(1<<(uint(i)&63)) == 0 {
			v.lb.words[i>>6] |= 1 << (uint(i) & 63)
			lbn++
		}
	}
	v.lbSize = NewStoredInt(m.trail, lbn)
	v.ubSize = NewStoredInt(m.trail, ubn)
	v.card.owner = v
	m.addVar(v)
	return v
}

func (v *SetVar) LBContains(e int) bool {
	return v.lb.Get(e - v.offset)
}

func (v *SetVar) UBContains(e int) bool {
	return v.ub.Get(e - v.offset)
}

func (v *SetVar) LBValues() []int {
	return bitsValues(v.lb, v.offset)
}

func (v *SetVar) UBValues() []int {
	return bitsValues(v.ub, v.offset)
}

func (v *SetVar) LBSize() int {
	return v.lbSize.Get()
}

func (v *SetVar) UBSize() int {
	return v.ubSize.Get()
}

func (v *SetVar) IsInstantiated() bool {
	return v.lbSize.Get() == v.ubSize.Get()
}

// Force adds e to the kernel.
func (v *SetVar) Force(e int, cause Cause) (bool, error) {
	if !v.UBContains(e) {
		return false, &Contradiction{Var: v, Cause: cause, Message: fmt.Sprintf("%d is not in UB(%s)", e, v.name)}
	}
	if v.LBContains(e) {
		return false, nil
	}
	v.lb.Set(e - v.offset)
	v.lbSize.Add(1)
	v.delta.add(e, SetDeltaLB, cause)
	v.notify(EventAddToKer, cause)
	return true, nil
}

// Remove drops e from the envelope.
func (v *SetVar) Remove(e int, cause Cause) (bool, error) {
	if v.LBContains(e) {
		return false, &Contradiction{Var: v, Cause: cause, Message: fmt.Sprintf("%d is in LB(%s)", e, v.name)}
	}
	if !v.UBContains(e) {
		return false, nil
	}
	v.ub.Clear(e - v.offset)
	v.ubSize.Add(-1)
	v.delta.add(e, SetDeltaUB, cause)
	v.notify(EventRemoveFromEnvelope, cause)
	return true, nil
}

// Monitor returns a new reader over the delta of v, which is only
// recorded once a monitor exists.
func (v *SetVar) Monitor() *SetDeltaMonitor {
	if v.delta == nil {
		v.delta = &SetDelta{model: v.model}
	}
	return &SetDeltaMonitor{delta: v.delta}
}

func (v *SetVar) Cardinality() (*IntVar, error) {
	return v.card.get()
}

func (v *SetVar) SetCardinality(card *IntVar) error {
	return v.card.set(card)
}

func (v *SetVar) HasCardinality() bool {
	return v.card.v != nil
}

func (v *SetVar) String() string {
	return formatSet(v.name, v)
}

func bitsValues(b *StoredBits, offset int) []int {
	out := []int{}
	for i := b.NextSet(0); i >= 0; i = b.NextSet(i + 1) {
		out = append(out, i+offset)
	}
	return out
}

func joinInts(vs []int) string {
	s := make([]string, len(vs))
	for i, x := range vs {
		s[i] = strconv.Itoa(x)
	}
	return strings.Join(s, ",")
}

func formatSet(name string, s SetVariable) string {
	if s.IsInstantiated() {
		return fmt.Sprintf("%s = {%s}", name, joinInts(s.LBValues()))
	}
	return fmt.Sprintf("%s = [{%s}, {%s}]", name, joinInts(s.LBValues()), joinInts(s.UBValues()))
}
