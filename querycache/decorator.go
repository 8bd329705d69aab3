package querycache

import (
	"context"
	"fmt"
	"reflect"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-query-cache/cache"
	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v3"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const instrumentationName = "github.com/goliatone/go-query-cache/querycache"

// Interface assertion to ensure CachingHandler can replace the handler it wraps.
var _ Handler[any, any] = (*CachingHandler[any, any])(nil)

// flight is one in-progress execution for a key. value and err are written
// once, before done is closed.
type flight[R any] struct {
	done  chan struct{}
	value R
	err   error
}

// CachingHandler decorates a Handler with read-through caching and
// single-flight execution for queries implementing Cacheable.
//
// Concurrent misses for the same key share one execution of the inner
// handler. Only successful results are written to the store; a failure is
// returned to every caller waiting on that execution and the next call
// executes again.
type CachingHandler[Q, R any] struct {
	inner    Handler[Q, R]
	store    cache.Store
	opts     options
	inflight *xsync.MapOf[string, *flight[R]]
}

// New wraps inner. A nil store disables persistence but keeps single-flight.
// So does an interface result type: a decoded entry could not be restored to
// the dynamic type the inner handler returned.
func New[Q, R any](inner Handler[Q, R], store cache.Store, opts ...Option) *CachingHandler[Q, R] {
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.name == "" {
		o.name = handlerName[Q]()
	}
	if store == nil {
		store = noopStore{}
	}
	if reflect.TypeOf((*R)(nil)).Elem().Kind() == reflect.Interface {
		o.logger.Debug("interface result type, results are shared but not persisted",
			zap.String("handler", o.name),
		)
		store = noopStore{}
	}

	return &CachingHandler[Q, R]{
		inner:    inner,
		store:    store,
		opts:     o,
		inflight: xsync.NewMapOf[string, *flight[R]](),
	}
}

// Name returns the label used in logs, metrics and spans.
func (h *CachingHandler[Q, R]) Name() string {
	return h.opts.name
}

// InFlight reports the number of executions currently in progress.
func (h *CachingHandler[Q, R]) InFlight() int {
	return h.inflight.Size()
}

// Handle serves query from the store when possible, otherwise joins or starts
// the execution for its key. Cancelling ctx only stops this caller's wait.
func (h *CachingHandler[Q, R]) Handle(ctx context.Context, query Q) (R, error) {
	cacheable, ok := any(query).(Cacheable)
	if !ok {
		h.opts.metrics.request(h.opts.name, ResultPassThrough)
		return h.inner.Handle(ctx, query)
	}

	var zero R
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	key := cacheable.CacheKey()
	ctx, span := h.opts.tracer.Start(ctx, "querycache.Handle", trace.WithAttributes(
		attribute.String("cache.handler", h.opts.name),
		attribute.String("cache.key", key),
	))
	defer span.End()

	if value, ok := h.lookup(ctx, key); ok {
		h.served(span, ResultHit)
		return value, nil
	}

	f, loaded := h.inflight.LoadOrCompute(key, func() *flight[R] {
		return &flight[R]{done: make(chan struct{})}
	})
	if loaded {
		h.served(span, ResultShared)
	} else {
		h.served(span, ResultMiss)
		go h.execute(ctx, key, query, cacheable, f)
	}

	select {
	case <-f.done:
		if f.err != nil {
			span.RecordError(f.err)
			span.SetStatus(codes.Error, f.err.Error())
			return zero, f.err
		}
		return f.value, nil
	case <-ctx.Done():
		span.SetStatus(codes.Error, "caller stopped waiting")
		return zero, ctx.Err()
	}
}

func (h *CachingHandler[Q, R]) served(span trace.Span, result string) {
	span.SetAttributes(attribute.String("cache.result", result))
	h.opts.metrics.request(h.opts.name, result)
}

// lookup treats store and decode failures as a miss.
func (h *CachingHandler[Q, R]) lookup(ctx context.Context, key string) (R, bool) {
	value, found, op, err := h.read(ctx, key)
	if err == nil {
		return value, found
	}

	h.opts.metrics.storeError(h.opts.name, op)
	if op == "decode" {
		h.opts.logger.Warn("discarding undecodable cache entry",
			zap.String("handler", h.opts.name),
			zap.String("key", key),
			zap.String("codec", h.opts.codec.Name()),
			zap.Error(err),
		)
	} else {
		h.opts.logger.Warn("cache lookup failed, executing query",
			zap.String("handler", h.opts.name),
			zap.String("key", key),
			zap.Error(err),
		)
	}
	return value, false
}

// read returns the decoded entry for key. op names the failing step.
func (h *CachingHandler[Q, R]) read(ctx context.Context, key string) (value R, found bool, op string, err error) {
	data, found, err := h.store.Get(ctx, key)
	if err != nil {
		return value, false, "get", err
	}
	if !found {
		return value, false, "", nil
	}
	if err := h.opts.codec.Unmarshal(data, &value); err != nil {
		var zero R
		return zero, false, "decode", err
	}
	return value, true, "", nil
}

// execute runs the inner handler detached from the leader's cancellation,
// persists a success and publishes the result. The registration is removed
// before done is closed so a later call starts a fresh execution.
func (h *CachingHandler[Q, R]) execute(ctx context.Context, key string, query Q, cacheable Cacheable, f *flight[R]) {
	execCtx := context.WithoutCancel(ctx)
	if h.opts.executionTimeout > 0 {
		var cancel context.CancelFunc
		execCtx, cancel = context.WithTimeout(execCtx, h.opts.executionTimeout)
		defer cancel()
	}

	executionID := uuid.NewString()
	execCtx, span := h.opts.tracer.Start(execCtx, "querycache.execute", trace.WithAttributes(
		attribute.String("cache.handler", h.opts.name),
		attribute.String("cache.key", key),
		attribute.String("cache.execution_id", executionID),
	))
	defer span.End()

	defer func() {
		h.inflight.Delete(key)
		close(f.done)
	}()

	// A caller that missed before the previous execution persisted can end up
	// leading a new one; serve it from the store instead of executing again.
	// Failures here were already reported by the caller's lookup.
	if value, ok, _, _ := h.read(execCtx, key); ok {
		span.SetAttributes(attribute.Bool("cache.recheck_hit", true))
		h.opts.logger.Debug("entry persisted by an earlier execution, skipping execution",
			zap.String("handler", h.opts.name),
			zap.String("key", key),
			zap.String("execution_id", executionID),
		)
		f.value = value
		return
	}

	start := time.Now()
	value, err := h.invoke(execCtx, query)
	elapsed := time.Since(start)

	if err != nil {
		h.opts.metrics.execution(h.opts.name, "failure", elapsed)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		h.opts.logger.Debug("query execution failed",
			zap.String("handler", h.opts.name),
			zap.String("key", key),
			zap.String("execution_id", executionID),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
		f.err = err
		return
	}

	h.opts.metrics.execution(h.opts.name, "success", elapsed)
	h.persist(execCtx, key, cacheable, value, executionID)
	f.value = value
}

// invoke converts a panic in the inner handler into an error so waiters are
// always released.
func (h *CachingHandler[Q, R]) invoke(ctx context.Context, query Q) (value R, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero R
			value = zero
			err = goerrors.New(fmt.Sprintf("query handler panicked: %v", r), goerrors.CategoryInternal).
				WithTextCode("QUERY_HANDLER_PANIC")
		}
	}()
	return h.inner.Handle(ctx, query)
}

// persist never fails the execution: a panicking codec or store skips the
// write.
func (h *CachingHandler[Q, R]) persist(ctx context.Context, key string, query Cacheable, value R, executionID string) {
	defer func() {
		if r := recover(); r != nil {
			h.opts.metrics.storeError(h.opts.name, "set")
			h.opts.logger.Error("result not persisted, store write panicked",
				zap.String("handler", h.opts.name),
				zap.String("key", key),
				zap.String("execution_id", executionID),
				zap.Any("panic", r),
			)
		}
	}()

	ttl, ok := h.expiryFor(query)
	if !ok {
		h.opts.logger.Debug("result not persisted, non-positive expiry",
			zap.String("handler", h.opts.name),
			zap.String("key", key),
			zap.String("execution_id", executionID),
		)
		return
	}

	data, err := h.opts.codec.Marshal(value)
	if err != nil {
		h.opts.metrics.storeError(h.opts.name, "encode")
		h.opts.logger.Warn("result not persisted, encoding failed",
			zap.String("handler", h.opts.name),
			zap.String("key", key),
			zap.String("codec", h.opts.codec.Name()),
			zap.String("execution_id", executionID),
			zap.Error(err),
		)
		return
	}

	if err := h.store.Set(ctx, key, data, tagsFor(ctx, query), ttl); err != nil {
		h.opts.metrics.storeError(h.opts.name, "set")
		h.opts.logger.Warn("result not persisted, store write failed",
			zap.String("handler", h.opts.name),
			zap.String("key", key),
			zap.String("execution_id", executionID),
			zap.Error(err),
		)
	}
}

// expiryFor resolves the ttl for a successful result. ok=false means the
// result must not be stored. A zero ttl with ok=true asks the store for its
// own default.
func (h *CachingHandler[Q, R]) expiryFor(query Cacheable) (time.Duration, bool) {
	ttl, set := queryExpiry(query)
	if !set {
		ttl = h.opts.defaultExpiry
	}
	if ttl > 0 {
		return ttl, true
	}
	if h.opts.nonPositive == PersistWithDefault {
		return 0, true
	}
	return 0, false
}

func handlerName[Q any]() string {
	t := reflect.TypeOf((*Q)(nil)).Elem()
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() == "" {
		return "query"
	}
	return typeKeyName(t)
}

// noopStore misses every lookup and drops every write.
type noopStore struct{}

func (noopStore) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

func (noopStore) Set(context.Context, string, []byte, []string, time.Duration) error { return nil }

func (noopStore) RemoveByTag(context.Context, string) error { return nil }
