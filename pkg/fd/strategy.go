package fd

// Decision is one branching point. Apply takes the left branch;
// Refute, called after the trail was restored to the state preceding
// Apply, takes the right one. Both return a Contradiction when the
// branch is immediately inconsistent.
type Decision interface {
	Cause
	Var() Variable
	Apply() error
	Refute() error
	// Refuted reports whether the right branch was taken.
	Refuted() bool
}

// Strategy selects the next decision. Next returns a nil Decision when
// every variable it branches on is instantiated.
type Strategy interface {
	Next() (Decision, error)
}

// StrategyFunc adapts a function to Strategy.
type StrategyFunc func() (Decision, error)

func (f StrategyFunc) Next() (Decision, error) {
	return f()
}
