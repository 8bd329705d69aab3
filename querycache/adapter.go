package querycache

import (
	"context"

	"github.com/goliatone/go-query-cache/cache"
)

// UnwrapOutcome turns a handler returning Outcome[T] into one returning T.
// A Failure becomes a *FailureError holding the original errors, which the
// caching decorator treats like any other failure and never stores.
func UnwrapOutcome[Q, T any](inner Handler[Q, Outcome[T]]) Handler[Q, T] {
	return HandlerFunc[Q, T](func(ctx context.Context, query Q) (T, error) {
		outcome, err := inner.Handle(ctx, query)
		if err != nil {
			var zero T
			return zero, err
		}
		if outcome.IsFailure() {
			var zero T
			return zero, &FailureError{Errors: outcome.Errors()}
		}
		return outcome.Value(), nil
	})
}

// WrapOutcome is the inverse of UnwrapOutcome. A *FailureError becomes
// Failure with the same ordered errors; any other error, such as a caller
// cancellation, is returned as is.
func WrapOutcome[Q, T any](h Handler[Q, T]) Handler[Q, Outcome[T]] {
	return HandlerFunc[Q, Outcome[T]](func(ctx context.Context, query Q) (Outcome[T], error) {
		value, err := h.Handle(ctx, query)
		if err != nil {
			if errs, ok := AsFailure(err); ok {
				return Failure[T](errs...), nil
			}
			return Outcome[T]{}, err
		}
		return Success(value), nil
	})
}

// OutcomeHandler caches the success arm of an outcome returning handler.
// Key, tags and expiry come from the original query.
type OutcomeHandler[Q, T any] struct {
	caching *CachingHandler[Q, T]
	handler Handler[Q, Outcome[T]]
}

var _ Handler[any, Outcome[any]] = (*OutcomeHandler[any, any])(nil)

// NewOutcome composes UnwrapOutcome, New and WrapOutcome around inner.
func NewOutcome[Q, T any](inner Handler[Q, Outcome[T]], store cache.Store, opts ...Option) *OutcomeHandler[Q, T] {
	caching := New(UnwrapOutcome(inner), store, opts...)
	return &OutcomeHandler[Q, T]{
		caching: caching,
		handler: WrapOutcome[Q, T](caching),
	}
}

// Handle implements Handler.
func (h *OutcomeHandler[Q, T]) Handle(ctx context.Context, query Q) (Outcome[T], error) {
	return h.handler.Handle(ctx, query)
}

// Caching exposes the underlying decorator.
func (h *OutcomeHandler[Q, T]) Caching() *CachingHandler[Q, T] {
	return h.caching
}
