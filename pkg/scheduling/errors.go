package scheduling

import (
	"errors"
	"fmt"
)

// ValidationError rejects a request before any scheduling happens: bad
// structure, unknown foreign keys, cyclic prerequisites, out-of-range
// numerics. The message identifies the first offending item.
type ValidationError struct {
	Detail string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s", e.Detail)
}

func validationErrorf(format string, args ...any) error {
	return &ValidationError{Detail: fmt.Sprintf(format, args...)}
}

// InfeasibleError rejects structurally valid input that can never be
// scheduled, e.g. a component whose mold no machine admits.
type InfeasibleError struct {
	Detail string
}

func (e *InfeasibleError) Error() string {
	return fmt.Sprintf("infeasible input: %s", e.Detail)
}

func infeasibleErrorf(format string, args ...any) error {
	return &InfeasibleError{Detail: fmt.Sprintf(format, args...)}
}

// InternalError reports a decoder invariant violation detected at emit
// time. It always indicates a bug; the schedule it came from is discarded.
type InternalError struct {
	Detail string
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("internal scheduling error: %s", e.Detail)
}

func internalErrorf(format string, args ...any) error {
	return &InternalError{Detail: fmt.Sprintf(format, args...)}
}

// IsUserError reports whether err should surface as a 4xx to callers.
func IsUserError(err error) bool {
	var ve *ValidationError
	var ie *InfeasibleError
	return errors.As(err, &ve) || errors.As(err, &ie)
}
