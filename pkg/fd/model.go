package fd

import (
	"github.com/go-logr/logr"
	"github.com/google/uuid"
)

// Model is one solving session. It owns the trail, the variables, the
// scheduler registry and the propagation engine; none of them may be
// shared with another Model or mutated concurrently.
type Model struct {
	name        string
	sessionID   uuid.UUID
	trail       *Trail
	engine      *engine
	schedulers  Schedulers
	vars        []Variable
	constraints []*Constraint
	consts      map[int]*IntVar
	log         logr.Logger
}

type ModelOption func(m *Model)

// WithModelLogger sets the logger used for posting and propagation
// diagnostics.
func WithModelLogger(l logr.Logger) ModelOption {
	return func(m *Model) {
		m.log = l
	}
}

func NewModel(name string, opts ...ModelOption) *Model {
	m := &Model{
		name:       name,
		sessionID:  uuid.New(),
		trail:      NewTrail(),
		engine:     newEngine(),
		schedulers: newSchedulers(),
		consts:     map[int]*IntVar{},
		log:        logr.Discard(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.log = m.log.WithValues("model", name, "session", m.sessionID.String())
	return m
}

func (m *Model) Name() string {
	return m.name
}

func (m *Model) SessionID() uuid.UUID {
	return m.sessionID
}

func (m *Model) Trail() *Trail {
	return m.trail
}

func (m *Model) Logger() logr.Logger {
	return m.log
}

func (m *Model) addVar(v Variable) {
	m.vars = append(m.vars, v)
}

// Vars returns every variable and view, in creation order.
func (m *Model) Vars() []Variable {
	return m.vars
}

// IntVars returns the integer variables, constants excluded.
func (m *Model) IntVars() []*IntVar {
	var out []*IntVar
	for _, v := range m.vars {
		if iv, ok := v.(*IntVar); ok && !m.isConst(iv) {
			out = append(out, iv)
		}
	}
	return out
}

func (m *Model) isConst(v *IntVar) bool {
	c, ok := m.consts[v.LB()]
	return ok && c == v
}

// DecisionVars returns the variables a default strategy branches on:
// integer variables other than constants, set variables and graph
// variables. Views are excluded because their base is branched on.
func (m *Model) DecisionVars() []Variable {
	var out []Variable
	for _, v := range m.vars {
		if v.Kind()&KindView != 0 {
			continue
		}
		if iv, ok := v.(*IntVar); ok && m.isConst(iv) {
			continue
		}
		out = append(out, v)
	}
	return out
}

// VarByName returns the variables carrying name.
func (m *Model) VarByName(name string) []Variable {
	var out []Variable
	for _, v := range m.vars {
		if v.Name() == name {
			out = append(out, v)
		}
	}
	return out
}

func (m *Model) Constraints() []*Constraint {
	return m.constraints
}

// Propagate runs pending propagators to a fixpoint. The returned error
// is a *Contradiction when a domain was wiped out.
func (m *Model) Propagate() error {
	err := m.engine.propagate()
	if err != nil {
		m.log.V(3).Info("propagation failed", "reason", err.Error())
	}
	return err
}

// ScheduleAll queues every registered propagator.
func (m *Model) ScheduleAll() {
	m.engine.scheduleAll()
}

// PropagationCount returns the number of propagator executions so far.
func (m *Model) PropagationCount() int64 {
	return m.engine.runs
}

// AllInstantiated reports whether every decision variable is fixed.
func (m *Model) AllInstantiated() bool {
	for _, v := range m.DecisionVars() {
		if !v.IsInstantiated() {
			return false
		}
	}
	return true
}

// IsSatisfied folds the entailment of every posted constraint.
func (m *Model) IsSatisfied() ESat {
	res := ESatTrue
	for _, c := range m.constraints {
		switch c.IsSatisfied() {
		case ESatFalse:
			return ESatFalse
		case ESatUndefined:
			res = ESatUndefined
		}
	}
	return res
}
