package fd

import (
	"errors"
	"fmt"
)

// ErrAlreadyPosted is returned when a Constraint is posted twice.
var ErrAlreadyPosted = errors.New("constraint already posted")

// Contradiction is returned by domain-mutating operations when the
// requested change would empty a domain or contradict a settled
// bound. It is local to propagation: the search loop turns it into a
// backtrack.
type Contradiction struct {
	Var     Variable
	Cause   Cause
	Message string
}

func (c *Contradiction) Error() string {
	name := "<nil>"
	if c.Var != nil {
		name = c.Var.Name()
	}
	cause := "<nil>"
	if c.Cause != nil {
		cause = c.Cause.String()
	}
	return fmt.Sprintf("contradiction on %s (cause %s): %s", name, cause, c.Message)
}

// IsContradiction reports whether err is, or wraps, a Contradiction.
func IsContradiction(err error) bool {
	var c *Contradiction
	return errors.As(err, &c)
}

// UnsupportedOperationError signals that a capability is structurally
// absent. It is never recovered internally.
type UnsupportedOperationError struct {
	Op      string
	Message string
}

func (e *UnsupportedOperationError) Error() string {
	return fmt.Sprintf("unsupported operation %s: %s", e.Op, e.Message)
}

// MalformedInputError rejects invalid input at construction or parse
// time, before any solving begins.
type MalformedInputError struct {
	What string
	Err  error
}

func (e *MalformedInputError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("malformed input: %s", e.What)
	}
	return fmt.Sprintf("malformed input: %s: %v", e.What, e.Err)
}

func (e *MalformedInputError) Unwrap() error {
	return e.Err
}

// Malformed builds a MalformedInputError from a format string.
func Malformed(format string, args ...interface{}) error {
	return &MalformedInputError{What: fmt.Sprintf(format, args...)}
}
