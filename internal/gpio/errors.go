package gpio

import (
	"errors"
	"fmt"
)

var (
	// ErrChipUnavailable is returned when the GPIO chip (or LED device) cannot be opened.
	ErrChipUnavailable = errors.New("gpio chip unavailable")
	// ErrLineRequestFailed is returned when the chip opened but the line could not be reserved.
	ErrLineRequestFailed = errors.New("gpio line request failed")
	// ErrWriteFailed is returned when a value could not be written to the line.
	ErrWriteFailed = errors.New("gpio write failed")
	// ErrReleased is returned when a line is used after Release.
	ErrReleased = errors.New("gpio line released")
)

// Error describes a failed operation on a specific line.
type Error struct {
	Op     string
	Chip   string
	Offset int
	Kind   error
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s:%d: %v: %v", e.Op, e.Chip, e.Offset, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s %s:%d: %v", e.Op, e.Chip, e.Offset, e.Kind)
}

// Unwrap exposes both the error kind and the underlying cause to errors.Is.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newError(op, chip string, offset int, kind, err error) *Error {
	return &Error{
		Op:     op,
		Chip:   chip,
		Offset: offset,
		Kind:   kind,
		Err:    err,
	}
}
