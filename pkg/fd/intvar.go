package fd

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Domains wider than this are represented as intervals.
const maxEnumeratedWidth = 1 << 20

// IntVar is an integer variable. Its domain is either enumerated
// (a trailed bitset shifted by offset) or bounded (a trailed interval
// in which only bound removals are recorded).
type IntVar struct {
	varBase
	offset int
	values *StoredBits
	lb     *StoredInt
	ub     *StoredInt
	size   *StoredInt
	delta  *IntDelta
}

var _ Variable = &IntVar{}

// IntVar creates an integer variable with the domain [lb, ub]. It
// panics if lb > ub.
func (m *Model) IntVar(name string, lb, ub int) *IntVar {
	if lb > ub {
		panic(fmt.Sprintf("fd: empty domain [%d,%d] for %q", lb, ub, name))
	}
	if ub-lb+1 > maxEnumeratedWidth {
		return m.BoundedIntVar(name, lb, ub)
	}
	v := &IntVar{varBase: m.newBase(name, KindInt), offset: lb}
	v.values = NewStoredBits(m.trail, ub-lb+1)
	for i := 0; i < ub-lb+1; i++ {
		v.values.words[i>>6] |= 1 << (uint(i) & 63)
	}
	v.lb = NewStoredInt(m.trail, lb)
	v.ub = NewStoredInt(m.trail, ub)
	v.size = NewStoredInt(m.trail, ub-lb+1)
	m.addVar(v)
	return v
}

// BoundedIntVar creates an integer variable whose domain is kept as an
// interval. Removing a value strictly inside the interval is a no-op.
func (m *Model) BoundedIntVar(name string, lb, ub int) *IntVar {
	if lb > ub {
		panic(fmt.Sprintf("fd: empty domain [%d,%d] for %q", lb, ub, name))
	}
	v := &IntVar{varBase: m.newBase(name, KindInt), offset: lb}
	v.lb = NewStoredInt(m.trail, lb)
	v.ub = NewStoredInt(m.trail, ub)
	v.size = NewStoredInt(m.trail, ub-lb+1)
	m.addVar(v)
	return v
}

// IntVarFromValues creates an enumerated variable holding exactly the
// given values. It panics on an empty slice.
func (m *Model) IntVarFromValues(name string, values []int) *IntVar {
	if len(values) == 0 {
		panic(fmt.Sprintf("fd: empty domain for %q", name))
	}
	vs := append([]int(nil), values...)
	sort.Ints(vs)
	lb, ub := vs[0], vs[len(vs)-1]
	v := &IntVar{varBase: m.newBase(name, KindInt), offset: lb}
	v.values = NewStoredBits(m.trail, ub-lb+1)
	n := 0
	for _, x := range vs {
		i := x - lb
		if v.values.words[i>>6]&(1<<(uint(i)&63)) == 0 {
			v.values.words[i>>6] |= 1 << (uint(i) & 63)
			n++
		}
	}
	v.lb = NewStoredInt(m.trail, lb)
	v.ub = NewStoredInt(m.trail, ub)
	v.size = NewStoredInt(m.trail, n)
	m.addVar(v)
	return v
}

// IntVarArray creates n variables named name[i] over [lb, ub].
func (m *Model) IntVarArray(name string, n, lb, ub int) []*IntVar {
	vars := make([]*IntVar, n)
	for i := range vars {
		vars[i] = m.IntVar(fmt.Sprintf("%s[%d]", name, i), lb, ub)
	}
	return vars
}

// IntConst returns the constant variable for c. Constants are shared
// within a model.
func (m *Model) IntConst(c int) *IntVar {
	if v, ok := m.consts[c]; ok {
		return v
	}
	v := m.IntVar(strconv.Itoa(c), c, c)
	m.consts[c] = v
	return v
}

func (v *IntVar) LB() int {
	return v.lb.Get()
}

func (v *IntVar) UB() int {
	return v.ub.Get()
}

func (v *IntVar) Size() int {
	return v.size.Get()
}

// Value returns the value of an instantiated variable.
func (v *IntVar) Value() int {
	return v.lb.Get()
}

func (v *IntVar) IsInstantiated() bool {
	return v.size.Get() == 1
}

func (v *IntVar) IsBounded() bool {
	return v.values == nil
}

func (v *IntVar) Contains(x int) bool {
	if x < v.lb.Get() || x > v.ub.Get() {
		return false
	}
	if v.values == nil {
		return true
	}
	return v.values.Get(x - v.offset)
}

// NextValue returns the smallest value of the domain greater than x,
// or math.MaxInt.
func (v *IntVar) NextValue(x int) int {
	lb, ub := v.lb.Get(), v.ub.Get()
	if x < lb {
		return lb
	}
	if x >= ub {
		return math.MaxInt
	}
	if v.values == nil {
		return x + 1
	}
	return v.values.NextSet(x+1-v.offset) + v.offset
}

// PreviousValue returns the largest value of the domain smaller than
// x, or math.MinInt.
func (v *IntVar) PreviousValue(x int) int {
	lb, ub := v.lb.Get(), v.ub.Get()
	if x > ub {
		return ub
	}
	if x <= lb {
		return math.MinInt
	}
	if v.values == nil {
		return x - 1
	}
	return v.values.PrevSet(x-1-v.offset) + v.offset
}

// Values lists the current domain in increasing order.
func (v *IntVar) Values() []int {
	out := make([]int, 0, v.Size())
	for x := v.LB(); x != math.MaxInt; x = v.NextValue(x) {
		out = append(out, x)
	}
	return out
}

// Monitor returns a new reader over the removal delta of v.
func (v *IntVar) Monitor() *IntDeltaMonitor {
	if v.delta == nil {
		v.delta = &IntDelta{model: v.model}
	}
	return &IntDeltaMonitor{delta: v.delta}
}

func (v *IntVar) record(lo, hi int, cause Cause) {
	if v.delta != nil {
		v.delta.add(lo, hi, cause)
	}
}

func (v *IntVar) fail(cause Cause, format string, args ...interface{}) error {
	return &Contradiction{Var: v, Cause: cause, Message: fmt.Sprintf(format, args...)}
}

// RemoveValue removes x from the domain.
func (v *IntVar) RemoveValue(x int, cause Cause) (bool, error) {
	if !v.Contains(x) {
		return false, nil
	}
	lb, ub := v.lb.Get(), v.ub.Get()
	if lb == ub {
		return false, v.fail(cause, "remove last value %d", x)
	}
	if v.values == nil && x != lb && x != ub {
		return false, nil
	}
	evt := EventRemove
	if v.values != nil {
		v.values.Clear(x - v.offset)
	}
	v.size.Add(-1)
	switch x {
	case lb:
		v.lb.Set(v.NextValue(x))
		evt |= EventIncLow
	case ub:
		v.ub.Set(v.PreviousValue(x))
		evt |= EventDecUpp
	}
	if v.size.Get() == 1 {
		evt |= EventInstantiate
	}
	v.record(x, x, cause)
	v.notify(evt, cause)
	return true, nil
}

// removeBelow drops every value < x without notifying. x must be in
// (LB, UB].
func (v *IntVar) removeBelow(x int, cause Cause) {
	lb := v.lb.Get()
	if v.values == nil {
		v.size.Add(lb - x)
		v.lb.Set(x)
		v.record(lb, x-1, cause)
		return
	}
	nl := v.values.NextSet(x-v.offset) + v.offset
	removed := 0
	for i := v.values.NextSet(lb - v.offset); i >= 0 && i+v.offset < nl; i = v.values.NextSet(i + 1) {
		v.values.Clear(i)
		v.record(i+v.offset, i+v.offset, cause)
		removed++
	}
	v.size.Add(-removed)
	v.lb.Set(nl)
}

// removeAbove drops every value > x without notifying. x must be in
// [LB, UB).
func (v *IntVar) removeAbove(x int, cause Cause) {
	ub := v.ub.Get()
	if v.values == nil {
		v.size.Add(x - ub)
		v.ub.Set(x)
		v.record(x+1, ub, cause)
		return
	}
	nu := v.values.PrevSet(x-v.offset) + v.offset
	removed := 0
	for i := v.values.PrevSet(ub - v.offset); i >= 0 && i+v.offset > nu; i = v.values.PrevSet(i - 1) {
		v.values.Clear(i)
		v.record(i+v.offset, i+v.offset, cause)
		removed++
	}
	v.size.Add(-removed)
	v.ub.Set(nu)
}

// UpdateLowerBound removes every value smaller than x.
func (v *IntVar) UpdateLowerBound(x int, cause Cause) (bool, error) {
	lb, ub := v.lb.Get(), v.ub.Get()
	if x <= lb {
		return false, nil
	}
	if x > ub {
		return false, v.fail(cause, "new lower bound %d exceeds upper bound %d", x, ub)
	}
	v.removeBelow(x, cause)
	evt := EventIncLow | EventRemove
	if v.size.Get() == 1 {
		evt |= EventInstantiate
	}
	v.notify(evt, cause)
	return true, nil
}

// UpdateUpperBound removes every value greater than x.
func (v *IntVar) UpdateUpperBound(x int, cause Cause) (bool, error) {
	lb, ub := v.lb.Get(), v.ub.Get()
	if x >= ub {
		return false, nil
	}
	if x < lb {
		return false, v.fail(cause, "new upper bound %d is below lower bound %d", x, lb)
	}
	v.removeAbove(x, cause)
	evt := EventDecUpp | EventRemove
	if v.size.Get() == 1 {
		evt |= EventInstantiate
	}
	v.notify(evt, cause)
	return true, nil
}

// UpdateBounds restricts the domain to [lo, hi] and notifies once.
func (v *IntVar) UpdateBounds(lo, hi int, cause Cause) (bool, error) {
	lb, ub := v.lb.Get(), v.ub.Get()
	if lo <= lb && hi >= ub {
		return false, nil
	}
	if lo > hi || lo > ub || hi < lb || v.NextValue(lo-1) > hi {
		return false, v.fail(cause, "bounds [%d,%d] do not intersect domain", lo, hi)
	}
	var evt EventType
	if lo > lb {
		v.removeBelow(lo, cause)
		evt |= EventIncLow | EventRemove
	}
	if hi < ub {
		v.removeAbove(hi, cause)
		evt |= EventDecUpp | EventRemove
	}
	if v.size.Get() == 1 {
		evt |= EventInstantiate
	}
	v.notify(evt, cause)
	return true, nil
}

// InstantiateTo reduces the domain to {x}.
func (v *IntVar) InstantiateTo(x int, cause Cause) (bool, error) {
	if !v.Contains(x) {
		return false, v.fail(cause, "instantiate to %d, out of domain", x)
	}
	if v.IsInstantiated() {
		return false, nil
	}
	lb, ub := v.lb.Get(), v.ub.Get()
	evt := EventInstantiate | EventRemove
	if x > lb {
		v.removeBelow(x, cause)
		evt |= EventIncLow
	}
	if x < ub {
		v.removeAbove(x, cause)
		evt |= EventDecUpp
	}
	v.notify(evt, cause)
	return true, nil
}

func (v *IntVar) String() string {
	if v.IsInstantiated() {
		return fmt.Sprintf("%s = %d", v.name, v.Value())
	}
	lb, ub := v.LB(), v.UB()
	if v.values == nil || v.Size() == ub-lb+1 {
		return fmt.Sprintf("%s = [%d,%d]", v.name, lb, ub)
	}
	vals := v.Values()
	s := make([]string, len(vals))
	for i, x := range vals {
		s[i] = strconv.Itoa(x)
	}
	return fmt.Sprintf("%s = {%s}", v.name, strings.Join(s, ","))
}
