package errors

import (
	"errors"
	"fmt"
)

var (
	ErrConnection   = errors.New("database unavailable")
	ErrLoad         = errors.New("load failed")
	ErrQuery        = errors.New("query failed")
	ErrUpdate       = errors.New("update failed")
	ErrInvalidInput = errors.New("invalid input")
	ErrInternal     = errors.New("internal error")
)

// LabError carries the model and operation that failed alongside the
// underlying cause, so a run can report per-model failures without losing
// the sentinel classification.
type LabError struct {
	Err     error
	Model   string
	Op      string
	Message string
}

func (e *LabError) Error() string {
	if e.Model != "" {
		return fmt.Sprintf("%s %s: %s: %s", e.Model, e.Op, e.Err.Error(), e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Err.Error(), e.Message)
}

func (e *LabError) Unwrap() error {
	return e.Err
}

func New(sentinel error, model, op, message string) *LabError {
	return &LabError{
		Err:     sentinel,
		Model:   model,
		Op:      op,
		Message: message,
	}
}

func Newf(sentinel error, model, op, format string, args ...any) *LabError {
	return &LabError{
		Err:     sentinel,
		Model:   model,
		Op:      op,
		Message: fmt.Sprintf(format, args...),
	}
}

// Class maps an error to a short label used for metrics and log fields.
func Class(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrConnection):
		return "connection"
	case errors.Is(err, ErrLoad):
		return "load"
	case errors.Is(err, ErrQuery):
		return "query"
	case errors.Is(err, ErrUpdate):
		return "update"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	default:
		return "internal"
	}
}
