package fd

// Deltas hold the modifications of one variable made since the last
// synchronization point of the propagation engine. Entries from an
// earlier window are dropped lazily, on the next append or read.

type intDeltaEntry struct {
	lo, hi int
	cause  Cause
}

// IntDelta logs the values removed from an integer domain.
type IntDelta struct {
	model   *Model
	stamp   int
	entries []intDeltaEntry
}

func (d *IntDelta) add(lo, hi int, cause Cause) {
	if d.stamp != d.model.engine.stamp {
		d.entries = d.entries[:0]
		d.stamp = d.model.engine.stamp
	}
	d.entries = append(d.entries, intDeltaEntry{lo: lo, hi: hi, cause: cause})
}

func (d *IntDelta) current() []intDeltaEntry {
	if d.stamp != d.model.engine.stamp {
		return nil
	}
	return d.entries
}

// IntDeltaMonitor is a reading cursor over an IntDelta, owned by one
// propagator.
type IntDeltaMonitor struct {
	delta  *IntDelta
	stamp  int
	cursor int
}

// ForEach calls fn for every value removed since the previous call,
// skipping removals done by skip.
func (m *IntDeltaMonitor) ForEach(skip Cause, fn func(v int)) {
	entries := m.delta.current()
	if m.stamp != m.delta.model.engine.stamp {
		m.stamp = m.delta.model.engine.stamp
		m.cursor = 0
	}
	for ; m.cursor < len(entries); m.cursor++ {
		e := entries[m.cursor]
		if e.cause == skip {
			continue
		}
		for v := e.lo; v <= e.hi; v++ {
			fn(v)
		}
	}
}

// Pending reports whether unread entries exist.
func (m *IntDeltaMonitor) Pending() bool {
	entries := m.delta.current()
	if m.stamp != m.delta.model.engine.stamp {
		return len(entries) > 0
	}
	return m.cursor < len(entries)
}

// SetDeltaKind distinguishes kernel additions from envelope removals.
type SetDeltaKind uint8

const (
	SetDeltaLB SetDeltaKind = iota
	SetDeltaUB
)

type setDeltaEntry struct {
	elem  int
	kind  SetDeltaKind
	cause Cause
}

// SetDelta logs elements added to the lower bound and removed from the
// upper bound of a set variable or view.
type SetDelta struct {
	model   *Model
	stamp   int
	entries []setDeltaEntry
}

// add is a no-op on a nil delta: nothing monitors the variable.
func (d *SetDelta) add(elem int, kind SetDeltaKind, cause Cause) {
	if d == nil {
		return
	}
	if d.stamp != d.model.engine.stamp {
		d.entries = d.entries[:0]
		d.stamp = d.model.engine.stamp
	}
	d.entries = append(d.entries, setDeltaEntry{elem: elem, kind: kind, cause: cause})
}

func (d *SetDelta) current() []setDeltaEntry {
	if d == nil || d.stamp != d.model.engine.stamp {
		return nil
	}
	return d.entries
}

// Len returns the number of entries in the current window.
func (d *SetDelta) Len() int {
	return len(d.current())
}

type SetDeltaMonitor struct {
	delta  *SetDelta
	stamp  int
	cursor int
}

// ForEach calls fn for every unread entry of the given kind. It does
// not advance the cursor; call Freeze once all kinds are consumed.
func (m *SetDeltaMonitor) ForEach(skip Cause, kind SetDeltaKind, fn func(elem int)) {
	entries := m.delta.current()
	if m.stamp != m.delta.model.engine.stamp {
		m.stamp = m.delta.model.engine.stamp
		m.cursor = 0
	}
	start := m.cursor
	for i := start; i < len(entries); i++ {
		e := entries[i]
		if e.kind != kind || e.cause == skip {
			continue
		}
		fn(e.elem)
	}
}

// Freeze marks every current entry as read.
func (m *SetDeltaMonitor) Freeze() {
	m.stamp = m.delta.model.engine.stamp
	m.cursor = len(m.delta.current())
}
