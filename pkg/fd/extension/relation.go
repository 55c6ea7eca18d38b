package extension

import (
	"encoding/binary"
	"fmt"

	"github.com/operator-framework/fdsolver/pkg/fd"
)

const (
	// dense tables are used up to this many bits
	maxDenseSize = 1 << 22
	// hashed tables are used up to this many tuples
	maxLargeTuples = 1 << 20
)

// Relation is an extensional relation over the initial bounds of a
// list of variables. Tuples outside those bounds are not indexed and
// queries outside them answer false; they are kept aside so that the
// relation can be rebuilt over a scope with wider bounds.
//
// CheckTuple is plain membership. IsConsistent says whether the values
// satisfy the constraint: it equals CheckTuple for feasible relations
// and its negation for infeasible ones.
type Relation interface {
	CheckTuple(values []int) bool
	IsConsistent(values []int) bool
	Feasible() bool
	Arity() int
	// Len returns the number of distinct stored tuples.
	Len() int
	Row(k int) []int
	Add(values ...int) error
	// Duplicate returns an independent copy.
	Duplicate() Relation
}

type relBase struct {
	feasible bool
	lbs      []int
	ubs      []int
	rows     [][]int
	// outside holds the distinct tuples beyond the bounds
	outside [][]int
	seen    map[string]struct{}
}

func newRelBase(t *Tuples, vars []*fd.IntVar) (relBase, error) {
	if len(vars) == 0 {
		return relBase{}, fd.Malformed("relation over no variable")
	}
	if t.Len() > 0 && t.Arity() != len(vars) {
		return relBase{}, &fd.MalformedInputError{
			What: "relation",
			Err:  fmt.Errorf("tuples of arity %d over %d variables", t.Arity(), len(vars)),
		}
	}
	r := relBase{feasible: t.Feasible(), lbs: make([]int, len(vars)), ubs: make([]int, len(vars))}
	for i, v := range vars {
		r.lbs[i], r.ubs[i] = v.LB(), v.UB()
	}
	return r, nil
}

func (r *relBase) Feasible() bool {
	return r.feasible
}

func (r *relBase) Arity() int {
	return len(r.lbs)
}

func (r *relBase) Len() int {
	return len(r.rows)
}

func (r *relBase) Row(k int) []int {
	return r.rows[k]
}

func (r *relBase) inBounds(values []int) bool {
	if len(values) != len(r.lbs) {
		return false
	}
	for i, v := range values {
		if v < r.lbs[i] || v > r.ubs[i] {
			return false
		}
	}
	return true
}

func (r *relBase) checkArity(values []int) error {
	if len(values) != len(r.lbs) {
		return &fd.MalformedInputError{
			What: fmt.Sprintf("tuple %v", values),
			Err:  fmt.Errorf("arity %d, expected %d", len(values), len(r.lbs)),
		}
	}
	return nil
}

func (r *relBase) clone() relBase {
	c := relBase{
		feasible: r.feasible,
		lbs:      append([]int(nil), r.lbs...),
		ubs:      append([]int(nil), r.ubs...),
		rows:     make([][]int, len(r.rows)),
		outside:  make([][]int, len(r.outside)),
	}
	for i, row := range r.rows {
		c.rows[i] = append([]int(nil), row...)
	}
	for i, row := range r.outside {
		c.outside[i] = append([]int(nil), row...)
	}
	if r.seen != nil {
		c.seen = make(map[string]struct{}, len(r.seen))
		for k := range r.seen {
			c.seen[k] = struct{}{}
		}
	}
	return c
}

// setAside keeps a tuple lying beyond the bounds.
func (r *relBase) setAside(values []int) {
	if r.seen == nil {
		r.seen = map[string]struct{}{}
	}
	k := tupleKey(values)
	if _, ok := r.seen[k]; ok {
		return
	}
	r.seen[k] = struct{}{}
	r.outside = append(r.outside, append([]int(nil), values...))
}

// fits reports whether the bounds of vars lie within the indexed ones.
func (r *relBase) fits(vars []*fd.IntVar) bool {
	if len(vars) != len(r.lbs) {
		return false
	}
	for i, v := range vars {
		if v.LB() < r.lbs[i] || v.UB() > r.ubs[i] {
			return false
		}
	}
	return true
}

// tuples returns every tuple handed to the relation, in bounds or not.
func (r *relBase) tuples() *Tuples {
	t := NewTuples(r.feasible)
	for _, rows := range [][][]int{r.rows, r.outside} {
		for _, row := range rows {
			t.arity = len(row)
			t.rows = append(t.rows, append([]int(nil), row...))
		}
	}
	return t
}

// rescoper is implemented by the relations of this package.
type rescoper interface {
	fits(vars []*fd.IntVar) bool
	tuples() *Tuples
}

// duplicateFor copies rel for installation on vars. When vars reach
// beyond the indexed bounds the copy is rebuilt from every tuple, so
// that none is lost.
func duplicateFor(rel Relation, vars []*fd.IntVar) (Relation, error) {
	r, ok := rel.(rescoper)
	if !ok || r.fits(vars) {
		return rel.Duplicate(), nil
	}
	if _, ok := rel.(*MDD); ok {
		return NewMDD(r.tuples(), vars)
	}
	return NewRelation(r.tuples(), vars)
}

func (r *relBase) width(i int) int {
	return r.ubs[i] - r.lbs[i] + 1
}

// loadTuples adds every tuple of t through add.
func loadTuples(t *Tuples, add func(values ...int) error) error {
	for i := 0; i < t.Len(); i++ {
		if err := add(t.Get(i)...); err != nil {
			return err
		}
	}
	return nil
}

// NewRelation picks a storage by size: a dense table when the product
// of the domain widths is small, a hashed table when the tuple count
// is moderate, and a bit-sliced table otherwise.
func NewRelation(t *Tuples, vars []*fd.IntVar) (Relation, error) {
	size := 1
	for _, v := range vars {
		size = mulSat(size, v.UB()-v.LB()+1)
	}
	switch {
	case size <= maxDenseSize:
		return NewDenseRelation(t, vars)
	case t.Len() <= maxLargeTuples:
		return NewLargeRelation(t, vars)
	}
	return NewVeryLargeRelation(t, vars)
}

func mulSat(a, b int) int {
	const limit = 1 << 62
	if a == 0 || b == 0 {
		return 0
	}
	if a > limit/b {
		return limit
	}
	return a * b
}

// DenseRelation stores membership in a bitset indexed by the mixed
// radix encoding of the tuple.
type DenseRelation struct {
	relBase
	mult []int
	bits []uint64
}

var _ Relation = &DenseRelation{}

func NewDenseRelation(t *Tuples, vars []*fd.IntVar) (*DenseRelation, error) {
	base, err := newRelBase(t, vars)
	if err != nil {
		return nil, err
	}
	r := &DenseRelation{relBase: base, mult: make([]int, len(vars))}
	size := 1
	for i := len(vars) - 1; i >= 0; i-- {
		r.mult[i] = size
		size = mulSat(size, r.width(i))
	}
	if size > maxDenseSize {
		return nil, fd.Malformed("dense relation of %d entries exceeds %d", size, maxDenseSize)
	}
	r.bits = make([]uint64, (size+63)/64)
	if err := loadTuples(t, r.Add); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *DenseRelation) index(values []int) int {
	idx := 0
	for i, v := range values {
		idx += (v - r.lbs[i]) * r.mult[i]
	}
	return idx
}

func (r *DenseRelation) CheckTuple(values []int) bool {
	if !r.inBounds(values) {
		return false
	}
	idx := r.index(values)
	return r.bits[idx>>6]&(1<<(uint(idx)&63)) != 0
}

func (r *DenseRelation) IsConsistent(values []int) bool {
	return r.CheckTuple(values) == r.feasible
}

func (r *DenseRelation) Add(values ...int) error {
	if err := r.checkArity(values); err != nil {
		return err
	}
	if !r.inBounds(values) {
		r.setAside(values)
		return nil
	}
	if r.CheckTuple(values) {
		return nil
	}
	idx := r.index(values)
	r.bits[idx>>6] |= 1 << (uint(idx) & 63)
	r.rows = append(r.rows, append([]int(nil), values...))
	return nil
}

func (r *DenseRelation) Duplicate() Relation {
	return &DenseRelation{
		relBase: r.clone(),
		mult:    append([]int(nil), r.mult...),
		bits:    append([]uint64(nil), r.bits...),
	}
}

// LargeRelation stores tuples in a hash set keyed by their varint
// encoding.
type LargeRelation struct {
	relBase
	keys map[string]struct{}
}

var _ Relation = &LargeRelation{}

func NewLargeRelation(t *Tuples, vars []*fd.IntVar) (*LargeRelation, error) {
	base, err := newRelBase(t, vars)
	if err != nil {
		return nil, err
	}
	r := &LargeRelation{relBase: base, keys: make(map[string]struct{}, t.Len())}
	if err := loadTuples(t, r.Add); err != nil {
		return nil, err
	}
	return r, nil
}

func tupleKey(values []int) string {
	buf := make([]byte, 0, len(values)*2)
	for _, v := range values {
		buf = binary.AppendVarint(buf, int64(v))
	}
	return string(buf)
}

func (r *LargeRelation) CheckTuple(values []int) bool {
	if !r.inBounds(values) {
		return false
	}
	_, ok := r.keys[tupleKey(values)]
	return ok
}

func (r *LargeRelation) IsConsistent(values []int) bool {
	return r.CheckTuple(values) == r.feasible
}

func (r *LargeRelation) Add(values ...int) error {
	if err := r.checkArity(values); err != nil {
		return err
	}
	if !r.inBounds(values) {
		r.setAside(values)
		return nil
	}
	k := tupleKey(values)
	if _, ok := r.keys[k]; ok {
		return nil
	}
	r.keys[k] = struct{}{}
	r.rows = append(r.rows, append([]int(nil), values...))
	return nil
}

func (r *LargeRelation) Duplicate() Relation {
	keys := make(map[string]struct{}, len(r.keys))
	for k := range r.keys {
		keys[k] = struct{}{}
	}
	return &LargeRelation{relBase: r.clone(), keys: keys}
}

// VeryLargeRelation keeps, for every variable and value, the bitset of
// the tuples holding that value. Membership intersects the bitsets of
// the queried values.
type VeryLargeRelation struct {
	relBase
	slices []map[int][]uint64
}

var _ Relation = &VeryLargeRelation{}

func NewVeryLargeRelation(t *Tuples, vars []*fd.IntVar) (*VeryLargeRelation, error) {
	base, err := newRelBase(t, vars)
	if err != nil {
		return nil, err
	}
	r := &VeryLargeRelation{relBase: base, slices: make([]map[int][]uint64, len(vars))}
	for i := range vars {
		r.slices[i] = map[int][]uint64{}
	}
	if err := loadTuples(t, r.Add); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *VeryLargeRelation) CheckTuple(values []int) bool {
	if !r.inBounds(values) {
		return false
	}
	words := (len(r.rows) + 63) / 64
	for w := 0; w < words; w++ {
		acc := ^uint64(0)
		for i, v := range values {
			s := r.slices[i][v]
			if w >= len(s) {
				acc = 0
				break
			}
			acc &= s[w]
			if acc == 0 {
				break
			}
		}
		if acc != 0 {
			return true
		}
	}
	return false
}

func (r *VeryLargeRelation) IsConsistent(values []int) bool {
	return r.CheckTuple(values) == r.feasible
}

func (r *VeryLargeRelation) Add(values ...int) error {
	if err := r.checkArity(values); err != nil {
		return err
	}
	if !r.inBounds(values) {
		r.setAside(values)
		return nil
	}
	if r.CheckTuple(values) {
		return nil
	}
	k := len(r.rows)
	r.rows = append(r.rows, append([]int(nil), values...))
	w := k >> 6
	for i, v := range values {
		s := r.slices[i][v]
		for len(s) <= w {
			s = append(s, 0)
		}
		s[w] |= 1 << (uint(k) & 63)
		r.slices[i][v] = s
	}
	return nil
}

func (r *VeryLargeRelation) Duplicate() Relation {
	c := &VeryLargeRelation{relBase: r.clone(), slices: make([]map[int][]uint64, len(r.slices))}
	for i, byValue := range r.slices {
		c.slices[i] = make(map[int][]uint64, len(byValue))
		for v, s := range byValue {
			c.slices[i][v] = append([]uint64(nil), s...)
		}
	}
	return c
}
