package solver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-logr/logr"

	"github.com/operator-framework/fdsolver/internal/search"
	"github.com/operator-framework/fdsolver/pkg/fd"
	"github.com/operator-framework/fdsolver/pkg/fd/strategy"
)

// ErrIncomplete is returned when a limit or the context ended the
// search before the space was explored.
var ErrIncomplete = errors.New("cancelled before the search space was explored")

type (
	Measures      = search.Measures
	LoggingTracer = search.LoggingTracer
	DefaultTracer = search.DefaultTracer
)

// Direction of an objective.
type Direction int

const (
	Minimize Direction = iota
	Maximize
)

func (d Direction) String() string {
	if d == Maximize {
		return "maximize"
	}
	return "minimize"
}

// Solver drives the depth-first search of one Model.
type Solver struct {
	model         *fd.Model
	strategy      fd.Strategy
	tracer        fd.Tracer
	log           logr.Logger
	timeLimit     time.Duration
	nodeLimit     int64
	solutionLimit int64

	objective *fd.IntVar
	direction Direction

	search *search.Search
	last   *Solution
	best   *Solution
}

type Option func(s *Solver) error

func WithStrategy(st fd.Strategy) Option {
	return func(s *Solver) error {
		s.strategy = st
		return nil
	}
}

func WithTracer(t fd.Tracer) Option {
	return func(s *Solver) error {
		s.tracer = t
		return nil
	}
}

func WithLogger(l logr.Logger) Option {
	return func(s *Solver) error {
		s.log = l
		return nil
	}
}

// WithTimeLimit bounds the duration of a search, measured from its
// first step.
func WithTimeLimit(d time.Duration) Option {
	return func(s *Solver) error {
		if d < 0 {
			return fd.Malformed("negative time limit %s", d)
		}
		s.timeLimit = d
		return nil
	}
}

func WithNodeLimit(n int64) Option {
	return func(s *Solver) error {
		if n < 0 {
			return fd.Malformed("negative node limit %d", n)
		}
		s.nodeLimit = n
		return nil
	}
}

// WithSolutionLimit stops FindAllSolutions and FindOptimalSolution
// after n solutions.
func WithSolutionLimit(n int64) Option {
	return func(s *Solver) error {
		if n < 0 {
			return fd.Malformed("negative solution limit %d", n)
		}
		s.solutionLimit = n
		return nil
	}
}

var defaults = []Option{
	func(s *Solver) error {
		if s.strategy == nil {
			s.strategy = strategy.Default(s.model)
		}
		return nil
	},
	func(s *Solver) error {
		if s.tracer == nil {
			s.tracer = DefaultTracer{}
		}
		return nil
	},
}

func New(m *fd.Model, options ...Option) (*Solver, error) {
	s := &Solver{model: m, log: logr.Discard()}
	for _, option := range append(options, defaults...) {
		if err := option(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Solver) Model() *fd.Model {
	return s.model
}

// SetObjective installs branch and bound on v: every solution found
// afterwards strictly improves on the previous one. It resets a search
// in progress.
func (s *Solver) SetObjective(dir Direction, v *fd.IntVar) error {
	if v == nil {
		return fd.Malformed("nil objective")
	}
	if v.Model() != s.model {
		return fd.Malformed("objective %s belongs to another model", v.Name())
	}
	s.Reset()
	s.objective = v
	s.direction = dir
	return nil
}

func (s *Solver) init() error {
	if s.search != nil {
		return nil
	}
	opts := []search.Option{
		search.WithTracer(s.tracer),
		search.WithLogger(s.log),
		search.WithNodeLimit(s.nodeLimit),
	}
	if s.timeLimit > 0 {
		opts = append(opts, search.WithDeadline(time.Now().Add(s.timeLimit)))
	}
	if s.objective != nil {
		opts = append(opts, search.WithObjective(s.objective, s.direction == Maximize))
	}
	srch, err := search.New(s.model, s.strategy, opts...)
	if err != nil {
		return err
	}
	s.search = srch
	return nil
}

// FindSolution returns the next solution, or nil once the search space
// is exhausted. Successive calls enumerate the solutions without
// repetition. ErrIncomplete is returned when a limit stopped the
// search.
func (s *Solver) FindSolution(ctx context.Context) (*Solution, error) {
	if err := s.init(); err != nil {
		return nil, err
	}
	ok, err := s.search.Next(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		if s.search.Measures().Stopped {
			return nil, ErrIncomplete
		}
		return nil, nil
	}
	s.last = snapshot(s.model, s.objective)
	if s.objective != nil {
		s.best = s.last
	}
	return s.last, nil
}

// Solve runs the search to its next solution and reports whether one
// was found.
func (s *Solver) Solve(ctx context.Context) (bool, error) {
	sol, err := s.FindSolution(ctx)
	return sol != nil, err
}

// FindAllSolutions drives the search to exhaustion and returns the
// number of solutions found by this call.
func (s *Solver) FindAllSolutions(ctx context.Context) (int64, error) {
	var n int64
	for {
		if s.solutionLimit > 0 && n >= s.solutionLimit {
			return n, ErrIncomplete
		}
		sol, err := s.FindSolution(ctx)
		if err != nil {
			return n, err
		}
		if sol == nil {
			return n, nil
		}
		n++
	}
}

// FindOptimalSolution installs the objective and runs branch and bound
// to exhaustion. It returns the best solution, nil when the model has
// none. On ErrIncomplete the best solution so far is returned too.
func (s *Solver) FindOptimalSolution(ctx context.Context, dir Direction, v *fd.IntVar) (*Solution, error) {
	if err := s.SetObjective(dir, v); err != nil {
		return nil, err
	}
	_, err := s.FindAllSolutions(ctx)
	return s.best, err
}

// Measures returns the counters of the current search.
func (s *Solver) Measures() Measures {
	if s.search == nil {
		return Measures{}
	}
	return s.search.Measures()
}

func (s *Solver) LastSolution() *Solution {
	return s.last
}

func (s *Solver) BestSolution() *Solution {
	return s.best
}

// Reset restores the model to its state before search and forgets the
// solutions found.
func (s *Solver) Reset() {
	if s.search != nil {
		s.search.Reset()
		s.search = nil
	}
	s.last, s.best = nil, nil
}

// FindObjective returns the single integer variable named name. It is
// an error for the model to hold zero or several of them.
func FindObjective(m *fd.Model, name string) (*fd.IntVar, error) {
	var found []*fd.IntVar
	for _, v := range m.VarByName(name) {
		if iv, ok := v.(*fd.IntVar); ok {
			found = append(found, iv)
		}
	}
	if len(found) != 1 {
		return nil, &fd.UnsupportedOperationError{
			Op:      "objective",
			Message: fmt.Sprintf("expected one integer variable named %q, found %d", name, len(found)),
		}
	}
	return found[0], nil
}
