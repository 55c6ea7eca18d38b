package fd

type propRecord struct {
	prop Propagator
	id   int
	// events pending on each variable of prop
	evts []EventType
	// every variable is to be reconsidered
	full   bool
	cause  Cause
	queued bool
}

func (rec *propRecord) reset() {
	for i := range rec.evts {
		rec.evts[i] = 0
	}
	rec.full = false
	rec.queued = false
	rec.cause = nil
}

// engine runs scheduled propagators to a fixpoint. Each propagator is
// queued at most once; events reaching an already queued propagator
// are merged into the pending mask of the variable they concern.
type engine struct {
	records []*propRecord
	queues  [numPriorities][]*propRecord
	// posted but not yet propagated once
	pendingInit []*propRecord
	// stamp identifies the current synchronization window; deltas
	// written in an older window are stale.
	stamp int
	runs  int64
}

func newEngine() *engine {
	return &engine{stamp: 1}
}

func (e *engine) register(p Propagator) {
	rec := &propRecord{prop: p, id: len(e.records), evts: make([]EventType, len(p.Vars()))}
	e.records = append(e.records, rec)
	for i, v := range p.Vars() {
		v.base().subscribe(rec, i, p.Mask(i))
	}
	e.pendingInit = append(e.pendingInit, rec)
}

// schedule queues rec for evt on its variable idx. A negative idx
// stands for all of them.
func (e *engine) schedule(rec *propRecord, idx int, evt EventType, cause Cause) {
	if idx < 0 {
		rec.full = true
	} else {
		rec.evts[idx] |= evt
	}
	rec.cause = cause
	if rec.queued {
		return
	}
	rec.queued = true
	pr := rec.prop.Priority()
	e.queues[pr] = append(e.queues[pr], rec)
}

func (e *engine) scheduleAll() {
	for _, rec := range e.records {
		e.schedule(rec, -1, EventAllInt|EventAllSet|EventAllGraph, NullCause)
	}
}

func (e *engine) pop() *propRecord {
	for pr := range e.queues {
		q := e.queues[pr]
		if len(q) == 0 {
			continue
		}
		rec := q[0]
		q[0] = nil
		e.queues[pr] = q[1:]
		return rec
	}
	return nil
}

// propagate runs until no propagator is pending or one fails. On
// failure the queues are flushed. Either way a new synchronization
// window starts.
func (e *engine) propagate() error {
	defer func() { e.stamp++ }()
	for len(e.pendingInit) > 0 {
		rec := e.pendingInit[0]
		e.pendingInit = e.pendingInit[1:]
		e.runs++
		if err := rec.prop.Propagate(NullCause); err != nil {
			e.flush()
			return err
		}
	}
	for rec := e.pop(); rec != nil; rec = e.pop() {
		e.runs++
		if err := e.run(rec); err != nil {
			e.flush()
			return err
		}
	}
	return nil
}

// run executes one scheduled propagator. An EventPropagator receives
// the events of each modified variable, merged since its last run.
func (e *engine) run(rec *propRecord) error {
	cause := rec.cause
	ep, fine := rec.prop.(EventPropagator)
	if !fine || rec.full {
		rec.reset()
		return rec.prop.Propagate(cause)
	}
	rec.queued = false
	rec.cause = nil
	for idx, mask := range rec.evts {
		if mask == 0 {
			continue
		}
		rec.evts[idx] = 0
		if err := ep.PropagateEvent(idx, mask); err != nil {
			rec.reset()
			return err
		}
	}
	return nil
}

func (e *engine) flush() {
	for pr := range e.queues {
		for _, rec := range e.queues[pr] {
			rec.reset()
		}
		e.queues[pr] = e.queues[pr][:0]
	}
}
