package zinc

import (
	"errors"
	"fmt"
)

// Sentinel errors forming the failure taxonomy. Evaluation failures are
// always local and recoverable: the worst case is "this field has no value
// here".
var (
	// ErrInvalidArgument indicates a construction-time validation failure:
	// wrong component counts, shape mismatches, nil required arguments, or
	// duplicate names where uniqueness is required.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotDefinedAtLocation indicates a field has no meaningful value at
	// the current cache location.
	ErrNotDefinedAtLocation = errors.New("field not defined at location")

	// ErrSingularMatrix is reported by matrix_invert and projection
	// assignment when LU decomposition detects a (near-)singular matrix.
	ErrSingularMatrix = errors.New("singular matrix")

	// ErrConvergenceFailure is reported when an iterative numeric method
	// cannot produce a result.
	ErrConvergenceFailure = errors.New("convergence failure")

	// ErrNotImplemented is returned by Assign for field types that are not
	// settable.
	ErrNotImplemented = errors.New("not implemented")
)

// EvaluateError records which field failed and during what operation.
type EvaluateError struct {
	FieldName string
	Context   string
	Cause     error
}

func (e *EvaluateError) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("field %q: %s: %v", e.FieldName, e.Context, e.Cause)
	}
	return fmt.Sprintf("field %q: %v", e.FieldName, e.Cause)
}

func (e *EvaluateError) Unwrap() error {
	return e.Cause
}

// evaluateError wraps cause for field, preserving an existing EvaluateError
// so failures propagating up a deep graph name the field that originated
// them.
func evaluateError(field *Field, cause error, context string) error {
	var ee *EvaluateError
	if errors.As(cause, &ee) {
		return cause
	}
	name := ""
	if field != nil {
		name = field.name
	}
	return &EvaluateError{FieldName: name, Context: context, Cause: cause}
}
