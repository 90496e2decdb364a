package order

import (
	"errors"
	"fmt"
)

// ErrOrderNotFound is returned when an order id resolves to no row.
var ErrOrderNotFound = errors.New("order not found")

// ValidationError marks a malformed or incomplete request: missing required
// ids, unknown statuses, transitions the state machine forbids. It blocks
// the action and maps to a 4xx response.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation: " + e.Reason
}

func validationf(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// RequestError marks a transport or backend failure on a store call. It is
// surfaced to the user as a transient failure; previous state is retained.
type RequestError struct {
	Op  string
	Err error
}

func (e *RequestError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

func requestErr(op string, err error) *RequestError {
	return &RequestError{Op: op, Err: err}
}
