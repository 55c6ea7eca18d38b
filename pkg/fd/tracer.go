package fd

// SearchEvent tells a Tracer what just happened.
type SearchEvent int

const (
	SearchDecide SearchEvent = iota
	SearchRefute
	SearchFail
	SearchSolution
)

func (e SearchEvent) String() string {
	switch e {
	case SearchDecide:
		return "decide"
	case SearchRefute:
		return "refute"
	case SearchFail:
		return "fail"
	case SearchSolution:
		return "solution"
	}
	return "unknown"
}

type SearchPosition interface {
	Event() SearchEvent
	Decisions() []Decision
	Failure() error
}

type Tracer interface {
	Trace(p SearchPosition)
}
