package search

import (
	"fmt"
	"io"

	"github.com/operator-framework/fdsolver/pkg/fd"
)

type position struct {
	event     fd.SearchEvent
	decisions []fd.Decision
	failure   error
}

func (p position) Event() fd.SearchEvent {
	return p.event
}

func (p position) Decisions() []fd.Decision {
	return p.decisions
}

func (p position) Failure() error {
	return p.failure
}

type DefaultTracer struct{}

func (DefaultTracer) Trace(_ fd.SearchPosition) {
}

type LoggingTracer struct {
	Writer io.Writer
}

func (t LoggingTracer) Trace(p fd.SearchPosition) {
	fmt.Fprintf(t.Writer, "---\nEvent: %s\nDecisions:\n", p.Event())
	for _, d := range p.Decisions() {
		fmt.Fprintf(t.Writer, "- %s\n", d)
	}
	if err := p.Failure(); err != nil {
		fmt.Fprintf(t.Writer, "Failure: %s\n", err)
	}
}
