package search

import (
	"context"
	"time"

	"github.com/go-logr/logr"

	"github.com/operator-framework/fdsolver/pkg/fd"
	"github.com/operator-framework/fdsolver/pkg/fd/strategy"
)

// State is the position of a Search in its state machine.
type State int

const (
	Propagating State = iota
	Deciding
	Solution
	Backtracking
	Exhausted
	Stopped
)

func (s State) String() string {
	switch s {
	case Propagating:
		return "propagating"
	case Deciding:
		return "deciding"
	case Solution:
		return "solution"
	case Backtracking:
		return "backtracking"
	case Exhausted:
		return "exhausted"
	case Stopped:
		return "stopped"
	}
	return "unknown"
}

// Measures are the observable counters of a search.
type Measures struct {
	// Nodes counts decisions, refutations excluded.
	Nodes        int64
	Backtracks   int64
	Fails        int64
	Solutions    int64
	MaxDepth     int
	HasBest      bool
	Best         int
	Elapsed      time.Duration
	Propagations int64
	Stopped      bool
}

type node struct {
	decision fd.Decision
	mark     fd.Mark
}

// Search is a depth-first exploration of one Model. Every decision is
// taken under a fresh trail checkpoint; failures restore it and try
// the refutation before popping to the parent.
type Search struct {
	model     *fd.Model
	strategy  fd.Strategy
	tracer    fd.Tracer
	log       logr.Logger
	objective *fd.IntVar
	maximize  bool
	nodeLimit int64
	deadline  time.Time

	state    State
	started  bool
	root     fd.Mark
	stack    []node
	pending  fd.Decision
	measures Measures
	start    time.Time
}

type Option func(s *Search) error

func WithTracer(t fd.Tracer) Option {
	return func(s *Search) error {
		s.tracer = t
		return nil
	}
}

func WithLogger(l logr.Logger) Option {
	return func(s *Search) error {
		s.log = l
		return nil
	}
}

// WithNodeLimit stops the search once n decisions were taken. Zero
// means no limit.
func WithNodeLimit(n int64) Option {
	return func(s *Search) error {
		if n < 0 {
			return fd.Malformed("negative node limit %d", n)
		}
		s.nodeLimit = n
		return nil
	}
}

// WithDeadline stops the search at the first decision taken after t.
func WithDeadline(t time.Time) Option {
	return func(s *Search) error {
		s.deadline = t
		return nil
	}
}

// WithObjective makes every solution strictly improve on the previous
// one.
func WithObjective(v *fd.IntVar, maximize bool) Option {
	return func(s *Search) error {
		if v == nil {
			return fd.Malformed("nil objective")
		}
		s.objective = v
		s.maximize = maximize
		return nil
	}
}

var defaults = []Option{
	func(s *Search) error {
		if s.tracer == nil {
			s.tracer = DefaultTracer{}
		}
		return nil
	},
}

// New returns a search driven by st. Once st has nothing left to
// branch on, the default strategy completes the free variables.
func New(m *fd.Model, st fd.Strategy, options ...Option) (*Search, error) {
	if st == nil {
		return nil, fd.Malformed("search without strategy")
	}
	s := &Search{model: m, strategy: strategy.Sequence(st, strategy.Default(m)), log: logr.Discard()}
	for _, option := range append(options, defaults...) {
		if err := option(s); err != nil {
			return nil, err
		}
	}
	if s.objective != nil && s.objective.Model() != m {
		return nil, fd.Malformed("objective %s belongs to another model", s.objective.Name())
	}
	return s, nil
}

func (s *Search) State() State {
	return s.state
}

// Measures returns a snapshot of the counters.
func (s *Search) Measures() Measures {
	m := s.measures
	if s.started {
		m.Elapsed = time.Since(s.start)
	}
	m.Propagations = s.model.PropagationCount()
	return m
}

// Depth returns the number of open decisions.
func (s *Search) Depth() int {
	return len(s.stack)
}

// Next runs the state machine up to the next solution and reports
// whether one was found. The model holds the solution until Next is
// called again. Once Next returned false it keeps returning false.
// Stopping on ctx, the deadline or the node limit is not an error:
// Measures().Stopped tells it apart from exhaustion.
func (s *Search) Next(ctx context.Context) (bool, error) {
	if !s.started {
		s.started = true
		s.start = time.Now()
		s.root = s.model.Trail().Checkpoint()
		s.model.ScheduleAll()
		s.state = Propagating
	}
	for {
		switch s.state {
		case Propagating:
			err := s.cut()
			if err == nil {
				err = s.model.Propagate()
			}
			if err != nil {
				if !fd.IsContradiction(err) {
					return false, err
				}
				s.fail(err)
				continue
			}
			d, err := s.strategy.Next()
			if err != nil {
				return false, err
			}
			if d == nil {
				if err := s.check(); err != nil {
					s.fail(err)
					continue
				}
				s.state = Solution
				continue
			}
			s.pending = d
			s.state = Deciding
		case Deciding:
			if s.shouldStop(ctx) {
				s.state = Stopped
				s.measures.Stopped = true
				s.log.V(1).Info("search stopped", "nodes", s.measures.Nodes)
				continue
			}
			d := s.pending
			s.pending = nil
			s.stack = append(s.stack, node{decision: d, mark: s.model.Trail().Checkpoint()})
			s.measures.Nodes++
			if len(s.stack) > s.measures.MaxDepth {
				s.measures.MaxDepth = len(s.stack)
			}
			s.log.V(2).Info("decision", "depth", len(s.stack), "decision", d.String())
			s.trace(fd.SearchDecide, nil)
			if err := d.Apply(); err != nil {
				if !fd.IsContradiction(err) {
					return false, err
				}
				s.fail(err)
				continue
			}
			s.state = Propagating
		case Solution:
			s.measures.Solutions++
			if s.objective != nil {
				s.measures.HasBest = true
				s.measures.Best = s.objective.Value()
				s.log.V(1).Info("solution", "count", s.measures.Solutions, "objective", s.measures.Best)
			} else {
				s.log.V(1).Info("solution", "count", s.measures.Solutions)
			}
			s.trace(fd.SearchSolution, nil)
			s.state = Backtracking
			return true, nil
		case Backtracking:
			if err := s.backtrack(); err != nil {
				return false, err
			}
		case Exhausted, Stopped:
			return false, nil
		}
	}
}

// check rejects a leaf where a variable is still free or a constraint
// is violated.
func (s *Search) check() error {
	if !s.model.AllInstantiated() {
		return &fd.Contradiction{Message: "no decision left on free variables"}
	}
	for _, c := range s.model.Constraints() {
		if c.IsSatisfied() == fd.ESatFalse {
			return &fd.Contradiction{Message: "violated " + c.String()}
		}
	}
	return nil
}

func (s *Search) fail(err error) {
	s.measures.Fails++
	s.trace(fd.SearchFail, err)
	s.state = Backtracking
}

// backtrack undoes the deepest open decision and takes its refutation,
// or pops it when it was already refuted.
func (s *Search) backtrack() error {
	trail := s.model.Trail()
	for len(s.stack) > 0 {
		top := s.stack[len(s.stack)-1]
		trail.RestoreTo(top.mark)
		if top.decision.Refuted() {
			trail.Release(top.mark)
			s.stack = s.stack[:len(s.stack)-1]
			continue
		}
		s.measures.Backtracks++
		s.log.V(2).Info("refutation", "depth", len(s.stack), "decision", top.decision.String())
		err := top.decision.Refute()
		s.trace(fd.SearchRefute, nil)
		if err != nil {
			if !fd.IsContradiction(err) {
				return err
			}
			s.measures.Fails++
			s.trace(fd.SearchFail, err)
			continue
		}
		s.state = Propagating
		return nil
	}
	s.state = Exhausted
	s.log.V(1).Info("search exhausted", "nodes", s.measures.Nodes, "solutions", s.measures.Solutions)
	return nil
}

// cut forbids solutions not strictly better than the best one.
func (s *Search) cut() error {
	if s.objective == nil || !s.measures.HasBest {
		return nil
	}
	var err error
	if s.maximize {
		_, err = s.objective.UpdateLowerBound(s.measures.Best+1, fd.NullCause)
	} else {
		_, err = s.objective.UpdateUpperBound(s.measures.Best-1, fd.NullCause)
	}
	return err
}

func (s *Search) shouldStop(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
	}
	if !s.deadline.IsZero() && time.Now().After(s.deadline) {
		return true
	}
	return s.nodeLimit > 0 && s.measures.Nodes >= s.nodeLimit
}

// Reset restores the model to its state before the first call to Next
// and clears the counters.
func (s *Search) Reset() {
	if s.started {
		s.model.Trail().Release(s.root)
	}
	s.stack = nil
	s.pending = nil
	s.started = false
	s.state = Propagating
	s.measures = Measures{}
}

// Close restores the model, keeping the counters.
func (s *Search) Close() {
	if !s.started {
		return
	}
	s.model.Trail().Release(s.root)
	s.stack = nil
	s.pending = nil
	if s.state != Stopped {
		s.state = Exhausted
	}
}

func (s *Search) trace(evt fd.SearchEvent, failure error) {
	ds := make([]fd.Decision, len(s.stack))
	for i, n := range s.stack {
		ds[i] = n.decision
	}
	s.tracer.Trace(position{event: evt, decisions: ds, failure: failure})
}
