package fd

import "math/bits"

// Mark identifies a checkpoint on a Trail. Mark 0 is the state before
// any checkpoint.
type Mark int

// Location is a trailed storage cell. Restore puts back the value that
// was recorded for the given index.
type Location interface {
	Restore(idx int, prev int64)
}

type trailEntry struct {
	loc  Location
	idx  int
	prev int64
}

// Trail is the undo log of a solving session. Every domain mutation
// records the previous value of the cell it touches before applying
// the change, so that RestoreTo can roll the state back exactly.
type Trail struct {
	entries []trailEntry
	marks   []int
	// epoch changes on every checkpoint and restore; cells record at
	// most once per epoch.
	epoch int
}

func NewTrail() *Trail {
	return &Trail{epoch: 1}
}

// Checkpoint pushes a new mark and returns it.
func (t *Trail) Checkpoint() Mark {
	t.marks = append(t.marks, len(t.entries))
	t.epoch++
	return Mark(len(t.marks))
}

// Record saves the previous value of a cell.
func (t *Trail) Record(loc Location, idx int, prev int64) {
	t.entries = append(t.entries, trailEntry{loc: loc, idx: idx, prev: prev})
}

// RestoreTo undoes, in reverse order, every mutation recorded after m.
// The mark stays live: mutations made afterwards are undone again by a
// later RestoreTo(m). Restoring to a mark that was already released is
// a no-op.
func (t *Trail) RestoreTo(m Mark) {
	if m < 0 || int(m) > len(t.marks) {
		return
	}
	base := 0
	if m > 0 {
		base = t.marks[m-1]
	}
	for i := len(t.entries) - 1; i >= base; i-- {
		e := t.entries[i]
		e.loc.Restore(e.idx, e.prev)
		t.entries[i] = trailEntry{}
	}
	t.entries = t.entries[:base]
	t.marks = t.marks[:m]
	t.epoch++
}

// Release restores to m and drops it.
func (t *Trail) Release(m Mark) {
	if m <= 0 || int(m) > len(t.marks) {
		return
	}
	t.RestoreTo(m)
	t.marks = t.marks[:m-1]
	t.epoch++
}

// Depth returns the number of live marks.
func (t *Trail) Depth() int {
	return len(t.marks)
}

// Size returns the number of undo records.
func (t *Trail) Size() int {
	return len(t.entries)
}

// StoredInt is a trailed integer.
type StoredInt struct {
	trail *Trail
	value int
	stamp int
}

func NewStoredInt(t *Trail, value int) *StoredInt {
	return &StoredInt{trail: t, value: value}
}

func (s *StoredInt) Get() int {
	return s.value
}

func (s *StoredInt) Set(v int) {
	if v == s.value {
		return
	}
	if s.stamp != s.trail.epoch {
		s.trail.Record(s, 0, int64(s.value))
		s.stamp = s.trail.epoch
	}
	s.value = v
}

func (s *StoredInt) Add(delta int) {
	s.Set(s.value + delta)
}

func (s *StoredInt) Restore(_ int, prev int64) {
	s.value = int(prev)
	s.stamp = 0
}

// StoredBits is a trailed fixed-size bitset. Each 64-bit word is
// recorded separately.
type StoredBits struct {
	trail  *Trail
	words  []uint64
	stamps []int
	n      int
}

func NewStoredBits(t *Trail, n int) *StoredBits {
	w := (n + 63) / 64
	return &StoredBits{trail: t, words: make([]uint64, w), stamps: make([]int, w), n: n}
}

// Len returns the capacity in bits.
func (b *StoredBits) Len() int {
	return b.n
}

func (b *StoredBits) Get(i int) bool {
	if i < 0 || i >= b.n {
		return false
	}
	return b.words[i>>6]&(1<<(uint(i)&63)) != 0
}

func (b *StoredBits) Set(i int) {
	w := i >> 6
	b.setWord(w, b.words[w]|1<<(uint(i)&63))
}

func (b *StoredBits) Clear(i int) {
	w := i >> 6
	b.setWord(w, b.words[w]&^(1<<(uint(i)&63)))
}

func (b *StoredBits) setWord(w int, val uint64) {
	if b.words[w] == val {
		return
	}
	if b.stamps[w] != b.trail.epoch {
		b.trail.Record(b, w, int64(b.words[w]))
		b.stamps[w] = b.trail.epoch
	}
	b.words[w] = val
}

func (b *StoredBits) Restore(idx int, prev int64) {
	b.words[idx] = uint64(prev)
	b.stamps[idx] = 0
}

// NextSet returns the index of the first set bit at or after from, or
// -1.
func (b *StoredBits) NextSet(from int) int {
	if from < 0 {
		from = 0
	}
	if from >= b.n {
		return -1
	}
	w := from >> 6
	word := b.words[w] & (^uint64(0) << (uint(from) & 63))
	for {
		if word != 0 {
			i := w*64 + bits.TrailingZeros64(word)
			if i >= b.n {
				return -1
			}
			return i
		}
		w++
		if w >= len(b.words) {
			return -1
		}
		word = b.words[w]
	}
}

// PrevSet returns the index of the last set bit at or before from, or
// -1.
func (b *StoredBits) PrevSet(from int) int {
	if from >= b.n {
		from = b.n - 1
	}
	if from < 0 {
		return -1
	}
	w := from >> 6
	word := b.words[w] & (^uint64(0) >> (63 - (uint(from) & 63)))
	for {
		if word != 0 {
			return w*64 + 63 - bits.LeadingZeros64(word)
		}
		w--
		if w < 0 {
			return -1
		}
		word = b.words[w]
	}
}

// Count returns the number of set bits.
func (b *StoredBits) Count() int {
	c := 0
	for _, w := range b.words {
		c += bits.OnesCount64(w)
	}
	return c
}

// Equal reports whether both bitsets hold the same bits.
func (b *StoredBits) Equal(o *StoredBits) bool {
	if len(b.words) != len(o.words) {
		return false
	}
	for i := range b.words {
		if b.words[i] != o.words[i] {
			return false
		}
	}
	return true
}
