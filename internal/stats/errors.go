package stats

import (
	"errors"
	"fmt"
)

var (
	// ErrEmpty is returned when a series has no observations
	ErrEmpty = errors.New("no observations")
	// ErrTooFewPoints is returned when a fit needs more observations than given
	ErrTooFewPoints = errors.New("at least two points required")
	// ErrLengthMismatch is returned when paired series differ in length
	ErrLengthMismatch = errors.New("series lengths differ")
	// ErrConstantX is returned when every x value is identical and no line can be fit
	ErrConstantX = errors.New("x values are all identical")
)

// Error reports a statistic that could not be computed from its input
type Error struct {
	Op  string // linear_fit, distribution
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(op string, err error) *Error {
	return &Error{Op: op, Err: err}
}
