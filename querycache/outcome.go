package querycache

import (
	"errors"
	"strings"
)

// Outcome is the result of a handler that reports domain failures as values
// instead of returned errors. It holds either a value or a non-empty ordered
// list of errors.
type Outcome[T any] struct {
	value  T
	errs   []error
	failed bool
}

// Success wraps value.
func Success[T any](value T) Outcome[T] {
	return Outcome[T]{value: value}
}

// Failure wraps errs. A failure with no errors still reports IsFailure.
func Failure[T any](errs ...error) Outcome[T] {
	return Outcome[T]{errs: append([]error(nil), errs...), failed: true}
}

// IsSuccess reports whether o holds a value.
func (o Outcome[T]) IsSuccess() bool { return !o.failed }

// IsFailure reports whether o holds errors.
func (o Outcome[T]) IsFailure() bool { return o.failed }

// Value returns the success value, or the zero value for a failure.
func (o Outcome[T]) Value() T { return o.value }

// Errors returns a copy of the failure errors in their original order.
func (o Outcome[T]) Errors() []error {
	return append([]error(nil), o.errs...)
}

// FirstError returns the first failure error, or nil.
func (o Outcome[T]) FirstError() error {
	if len(o.errs) == 0 {
		return nil
	}
	return o.errs[0]
}

// Match calls onSuccess or onFailure depending on the arm held by o.
func Match[T, R any](o Outcome[T], onSuccess func(T) R, onFailure func([]error) R) R {
	if o.failed {
		return onFailure(o.Errors())
	}
	return onSuccess(o.value)
}

// FailureError carries the errors of a failed Outcome through handlers that
// only speak (value, error). It is never cached.
type FailureError struct {
	Errors []error
}

func (e *FailureError) Error() string {
	switch len(e.Errors) {
	case 0:
		return "query failed"
	case 1:
		return e.Errors[0].Error()
	}
	msgs := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// Unwrap lets errors.Is and errors.As inspect every wrapped error.
func (e *FailureError) Unwrap() []error {
	return e.Errors
}

// AsFailure extracts the ordered errors carried by a *FailureError in err's chain.
func AsFailure(err error) ([]error, bool) {
	var failure *FailureError
	if errors.As(err, &failure) {
		return append([]error(nil), failure.Errors...), true
	}
	return nil, false
}
