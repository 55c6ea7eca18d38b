package extension

import (
	"fmt"

	"github.com/operator-framework/fdsolver/pkg/fd"
)

// Tuples is an ordered list of fixed-arity integer tuples with a
// polarity: feasible tuples are the only allowed combinations,
// infeasible ones the only forbidden combinations.
type Tuples struct {
	feasible bool
	arity    int
	rows     [][]int
}

// NewTuples returns an empty list. Its arity is set by the first Add.
func NewTuples(feasible bool) *Tuples {
	return &Tuples{feasible: feasible, arity: -1}
}

// TuplesOf builds a list from rows, rejecting rows of mixed arity.
func TuplesOf(feasible bool, rows ...[]int) (*Tuples, error) {
	t := NewTuples(feasible)
	for _, r := range rows {
		if err := t.Add(r...); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Add appends a tuple.
func (t *Tuples) Add(values ...int) error {
	if len(values) == 0 {
		return fd.Malformed("empty tuple")
	}
	if t.arity >= 0 && len(values) != t.arity {
		return &fd.MalformedInputError{
			What: fmt.Sprintf("tuple %v", values),
			Err:  fmt.Errorf("arity %d, expected %d", len(values), t.arity),
		}
	}
	t.arity = len(values)
	t.rows = append(t.rows, append([]int(nil), values...))
	return nil
}

func (t *Tuples) Feasible() bool {
	return t.feasible
}

// Arity returns the tuple length, or -1 for an empty list.
func (t *Tuples) Arity() int {
	return t.arity
}

func (t *Tuples) Len() int {
	return len(t.rows)
}

func (t *Tuples) Get(i int) []int {
	return t.rows[i]
}

// Flip returns a copy holding the same tuples with the opposite
// polarity.
func (t *Tuples) Flip() *Tuples {
	c := &Tuples{feasible: !t.feasible, arity: t.arity, rows: make([][]int, len(t.rows))}
	for i, r := range t.rows {
		c.rows[i] = append([]int(nil), r...)
	}
	return c
}

func (t *Tuples) String() string {
	kind := "allowed"
	if !t.feasible {
		kind = "forbidden"
	}
	return fmt.Sprintf("%s tuples (%d of arity %d)", kind, len(t.rows), t.arity)
}
