package sat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-air/gini"
	"github.com/go-air/gini/inter"
	"github.com/go-air/gini/z"

	"github.com/operator-framework/fdsolver/pkg/fd"
)

var ErrIncomplete = errors.New("cancelled before the formula was decided")

const (
	satisfiable   = 1
	unsatisfiable = -1
	unknown       = 0
)

// pollInterval is how often a cancellable solve checks its context.
const pollInterval = 200 * time.Microsecond

// Assignment maps every encoded variable to its value.
type Assignment map[*fd.IntVar]int

// NotSatisfiable lists the constraints in a refutation of the model.
type NotSatisfiable []*fd.Constraint

func (e NotSatisfiable) Error() string {
	const msg = "constraints not satisfiable"
	if len(e) == 0 {
		return msg
	}
	s := make([]string, len(e))
	for i, c := range e {
		s[i] = c.String()
	}
	return fmt.Sprintf("%s: %s", msg, strings.Join(s, ", "))
}

// Oracle decides a model with a SAT solver, independently of the
// propagation engine. Each integer variable is direct encoded over its
// current domain and each extensional constraint becomes a circuit
// over the value literals.
type Oracle struct {
	g      inter.S
	model  *fd.Model
	litMap *litMapping
	tracer Tracer
	taught bool
	buffer []z.Lit
}

type Option func(o *Oracle) error

func WithModel(m *fd.Model) Option {
	return func(o *Oracle) error {
		var err error
		o.model = m
		o.litMap, err = newLitMapping(m)
		return err
	}
}

func WithTracer(t Tracer) Option {
	return func(o *Oracle) error {
		o.tracer = t
		return nil
	}
}

var defaults = []Option{
	func(o *Oracle) error {
		if o.litMap == nil {
			return fd.Malformed("oracle without a model")
		}
		return nil
	},
	func(o *Oracle) error {
		if o.tracer == nil {
			o.tracer = DefaultTracer{}
		}
		return nil
	},
}

func New(options ...Option) (*Oracle, error) {
	o := Oracle{g: gini.New()}
	for _, option := range append(options, defaults...) {
		if err := option(&o); err != nil {
			return nil, err
		}
	}
	return &o, nil
}

// Vars returns the encoded variables.
func (o *Oracle) Vars() []*fd.IntVar {
	return o.litMap.inorder
}

func (o *Oracle) teach() {
	if !o.taught {
		o.litMap.AddConstraints(o.g)
		o.taught = true
	}
}

// solve runs one Solve under the current assumptions, stopping it
// when ctx is done.
func (o *Oracle) solve(ctx context.Context) int {
	if ctx.Done() == nil {
		return o.g.Solve()
	}
	gs := o.g.GoSolve()
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return gs.Stop()
		case <-ticker.C:
			if res, ok := gs.Test(); ok {
				return res
			}
		}
	}
}

// Solve returns an assignment satisfying every constraint. An
// unsatisfiable model yields a NotSatisfiable error naming the
// constraints of a refutation.
func (o *Oracle) Solve(ctx context.Context) (Assignment, error) {
	result, err := o.decide(ctx)

	// This likely indicates a bug, so discard whatever
	// return values were produced.
	if derr := o.litMap.Error(); derr != nil {
		return nil, derr
	}

	return result, err
}

func (o *Oracle) decide(ctx context.Context) (Assignment, error) {
	o.teach()
	o.litMap.AssumeConstraints(o.g)
	switch o.solve(ctx) {
	case satisfiable:
		a := o.litMap.Assignment(o.g)
		o.tracer.Trace(position{assignment: a})
		return a, nil
	case unsatisfiable:
		cs := o.litMap.Conflicts(o.g)
		o.tracer.Trace(position{conflicts: cs})
		return nil, NotSatisfiable(cs)
	}
	return nil, ErrIncomplete
}

// Count enumerates the assignments satisfying every constraint by
// blocking each model found. The oracle is spent afterwards. On
// ErrIncomplete the count so far is returned.
func (o *Oracle) Count(ctx context.Context) (int64, error) {
	o.teach()
	var n int64
	for {
		if err := ctx.Err(); err != nil {
			return n, ErrIncomplete
		}
		o.litMap.AssumeConstraints(o.g)
		switch o.solve(ctx) {
		case satisfiable:
			n++
			a := o.litMap.Assignment(o.g)
			o.tracer.Trace(position{assignment: a})
			if len(a) == 0 {
				return n, o.litMap.Error()
			}
			o.buffer = o.litMap.Lits(o.buffer, a)
			for _, m := range o.buffer {
				o.g.Add(m.Not())
			}
			o.g.Add(0)
		case unsatisfiable:
			return n, o.litMap.Error()
		default:
			return n, ErrIncomplete
		}
	}
}
