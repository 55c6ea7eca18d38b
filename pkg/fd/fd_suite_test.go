package fd_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/operator-framework/fdsolver/pkg/fd"
)

func TestFD(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "FD Suite")
}

// countingProp records how often it is executed.
type countingProp struct {
	fd.PropBase
	runs   int
	causes []fd.Cause
}

func newCountingProp(vars ...fd.Variable) *countingProp {
	return &countingProp{PropBase: fd.NewPropBase("count", fd.PriorityUnary, vars...)}
}

func (p *countingProp) Propagate(cause fd.Cause) error {
	p.runs++
	p.causes = append(p.causes, cause)
	return nil
}

func (p *countingProp) Entailed() fd.ESat {
	return fd.ESatUndefined
}

// eventProp records the events it is woken with and reads the delta
// of its first variable, a set.
type eventProp struct {
	fd.PropBase
	mon     *fd.SetDeltaMonitor
	full    int
	calls   int
	masks   map[int]fd.EventType
	forced  []int
	removed []int
}

func newEventProp(set fd.SetVariable, others ...fd.Variable) *eventProp {
	return &eventProp{
		PropBase: fd.NewPropBase("events", fd.PriorityUnary, append([]fd.Variable{set}, others...)...),
		mon:      set.Monitor(),
		masks:    map[int]fd.EventType{},
	}
}

func (p *eventProp) Propagate(_ fd.Cause) error {
	p.full++
	return nil
}

func (p *eventProp) PropagateEvent(idx int, mask fd.EventType) error {
	p.calls++
	p.masks[idx] |= mask
	if idx == 0 {
		p.mon.ForEach(p, fd.SetDeltaLB, func(e int) { p.forced = append(p.forced, e) })
		p.mon.ForEach(p, fd.SetDeltaUB, func(e int) { p.removed = append(p.removed, e) })
		p.mon.Freeze()
	}
	return nil
}

func (p *eventProp) Entailed() fd.ESat {
	return fd.ESatUndefined
}
