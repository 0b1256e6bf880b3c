package lifecycle

import (
	"errors"
	"fmt"

	"github.com/idealoop/ideas/internal/types"
)

// ErrInvalidTransition is returned when the current status does not permit an operation.
var ErrInvalidTransition = errors.New("invalid transition")

// ErrForbidden is returned when the caller is not the agent that owns the idea.
var ErrForbidden = errors.New("forbidden")

// ErrInvalidArgument is returned for malformed input rejected before any store access.
var ErrInvalidArgument = errors.New("invalid argument")

// TransitionError carries the status that blocked an operation.
// It matches ErrInvalidTransition under errors.Is.
type TransitionError struct {
	Current types.Status
	Op      types.Operation
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s idea in status %s", e.Op, e.Current)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// ForbiddenError carries the owning agent and the identity that was supplied.
// It matches ErrForbidden under errors.Is.
type ForbiddenError struct {
	Expected string
	Supplied string
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("idea is owned by agent %q, not %q", e.Expected, e.Supplied)
}

func (e *ForbiddenError) Is(target error) bool {
	return target == ErrForbidden
}

// InvalidArgument wraps ErrInvalidArgument with a description of the bad input.
func InvalidArgument(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}
