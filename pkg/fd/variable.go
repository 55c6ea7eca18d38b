package fd

import "fmt"

// Variable is the capability set shared by every decision variable and
// view. The set of implementations is closed: IntVar, SetVar, GraphVar
// and SetView.
type Variable interface {
	ID() int
	Name() string
	Kind() Kind
	IsInstantiated() bool
	Model() *Model
	String() string

	base() *varBase
}

// SetVariable is implemented by set variables and set views.
type SetVariable interface {
	Variable
	LBContains(e int) bool
	UBContains(e int) bool
	LBValues() []int
	UBValues() []int
	LBSize() int
	UBSize() int
	Force(e int, cause Cause) (bool, error)
	Remove(e int, cause Cause) (bool, error)
	Cardinality() (*IntVar, error)
	SetCardinality(card *IntVar) error
	HasCardinality() bool
	Monitor() *SetDeltaMonitor
}

type subscription struct {
	rec  *propRecord
	idx  int
	mask EventType
}

type varBase struct {
	id    int
	name  string
	kind  Kind
	model *Model
	sched EventScheduler
	subs  []subscription
}

func (v *varBase) ID() int {
	return v.id
}

func (v *varBase) Name() string {
	return v.name
}

func (v *varBase) Kind() Kind {
	return v.kind
}

func (v *varBase) Model() *Model {
	return v.model
}

func (v *varBase) base() *varBase {
	return v
}

func (v *varBase) subscribe(rec *propRecord, idx int, mask EventType) {
	v.subs = append(v.subs, subscription{rec: rec, idx: idx, mask: mask})
}

// notify schedules every subscribed propagator woken by evt, except
// the one that caused it.
func (v *varBase) notify(evt EventType, cause Cause) {
	wake := v.sched.Wakes(evt)
	for _, s := range v.subs {
		if s.mask&wake == 0 || Cause(s.rec.prop) == cause {
			continue
		}
		v.model.engine.schedule(s.rec, s.idx, evt, cause)
	}
}

// Subscribers returns the number of propagators watching v.
func Subscribers(v Variable) int {
	return len(v.base().subs)
}

func (m *Model) newBase(name string, kind Kind) varBase {
	if name == "" {
		name = fmt.Sprintf("%s_%d", kind, len(m.vars)+1)
	}
	return varBase{
		id:    len(m.vars) + 1,
		name:  name,
		kind:  kind,
		model: m,
		sched: m.schedulers.For(kind),
	}
}
