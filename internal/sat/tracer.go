package sat

import (
	"fmt"
	"io"
	"sort"

	"github.com/operator-framework/fdsolver/pkg/fd"
)

type SearchPosition interface {
	Assignment() Assignment
	Conflicts() []*fd.Constraint
}

type Tracer interface {
	Trace(p SearchPosition)
}

type DefaultTracer struct{}

func (DefaultTracer) Trace(_ SearchPosition) {
}

type LoggingTracer struct {
	Writer io.Writer
}

func (t LoggingTracer) Trace(p SearchPosition) {
	fmt.Fprintf(t.Writer, "---\nAssignment:\n")
	a := p.Assignment()
	vars := make([]*fd.IntVar, 0, len(a))
	for v := range a {
		vars = append(vars, v)
	}
	sort.Slice(vars, func(i, j int) bool { return vars[i].ID() < vars[j].ID() })
	for _, v := range vars {
		fmt.Fprintf(t.Writer, "- %s = %d\n", v.Name(), a[v])
	}
	fmt.Fprintf(t.Writer, "Conflicts:\n")
	for _, c := range p.Conflicts() {
		fmt.Fprintf(t.Writer, "- %s\n", c)
	}
}

type position struct {
	assignment Assignment
	conflicts  []*fd.Constraint
}

func (p position) Assignment() Assignment {
	return p.assignment
}

func (p position) Conflicts() []*fd.Constraint {
	return p.conflicts
}
