package gamestate

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound marks expected absence (no save yet, unknown item or event).
	// Callers resolve it with a default value; it is never fatal.
	ErrNotFound = errors.New("gamestate: not found")
	// ErrInvalidArgument marks input the aggregate refuses to apply, such as a
	// negative quantity.
	ErrInvalidArgument = errors.New("gamestate: invalid argument")
	// ErrIOFailure marks a persistence read/write failure.
	ErrIOFailure = errors.New("gamestate: io failure")
	// ErrStoryCompleted is returned when advancing a story that already ended.
	ErrStoryCompleted = errors.New("gamestate: story completed")
	// ErrInsufficientQuantity is returned when consuming more than an item holds.
	ErrInsufficientQuantity = errors.New("gamestate: insufficient quantity")
)

// PersistenceError captures the failing persistence operation alongside the
// originating error. It always matches ErrIOFailure through errors.Is.
type PersistenceError struct {
	Op  string
	Ref string
	Err error
}

func (e *PersistenceError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Ref == "" {
		return fmt.Sprintf("gamestate: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("gamestate: %s %s: %v", e.Op, e.Ref, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is reports ErrIOFailure so callers can classify without unwrapping.
func (e *PersistenceError) Is(target error) bool {
	return target == ErrIOFailure
}

func invalidArgument(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

func wrapPersistenceError(op, ref string, err error) error {
	if err == nil {
		return nil
	}
	var persistErr *PersistenceError
	if errors.As(err, &persistErr) {
		if persistErr.Ref == "" {
			persistErr.Ref = ref
		}
		return persistErr
	}
	return &PersistenceError{Op: op, Ref: ref, Err: err}
}
