package querycache

import (
	"time"

	"github.com/goliatone/go-query-cache/cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// DefaultExpiry is used when a query does not choose its own lifetime.
const DefaultExpiry = 5 * time.Minute

// NonPositiveExpiry decides what happens to a result whose resolved expiry
// is zero or negative.
type NonPositiveExpiry int

const (
	// SkipPersist still collapses concurrent callers but stores nothing.
	SkipPersist NonPositiveExpiry = iota
	// PersistWithDefault stores the result with the store's default ttl.
	PersistWithDefault
)

func (p NonPositiveExpiry) String() string {
	switch p {
	case SkipPersist:
		return "skip_persist"
	case PersistWithDefault:
		return "persist_with_default"
	default:
		return "unknown"
	}
}

// Option configures a CachingHandler.
type Option func(*options)

type options struct {
	name             string
	logger           *zap.Logger
	codec            cache.Codec
	defaultExpiry    time.Duration
	nonPositive      NonPositiveExpiry
	executionTimeout time.Duration
	metrics          *Metrics
	tracer           trace.Tracer
}

func defaultOptions() options {
	return options{
		logger:        zap.NewNop(),
		codec:         cache.DefaultCodec(),
		defaultExpiry: DefaultExpiry,
		nonPositive:   SkipPersist,
		tracer:        otel.Tracer(instrumentationName),
	}
}

// WithName sets the handler label used in logs, metrics and spans.
// Defaults to the snake cased query type name.
func WithName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.name = name
		}
	}
}

// WithLogger sets the logger. Store and codec failures are logged at warn level.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithCodec sets the codec used to serialize results.
func WithCodec(codec cache.Codec) Option {
	return func(o *options) {
		if codec != nil {
			o.codec = codec
		}
	}
}

// WithDefaultExpiry sets the lifetime used when a query has none.
func WithDefaultExpiry(ttl time.Duration) Option {
	return func(o *options) {
		o.defaultExpiry = ttl
	}
}

// WithNonPositiveExpiry selects the policy for zero or negative expiries.
func WithNonPositiveExpiry(policy NonPositiveExpiry) Option {
	return func(o *options) {
		o.nonPositive = policy
	}
}

// WithExecutionTimeout bounds each shared execution. Callers never cancel
// the execution, so this is the only limit on how long it may run.
func WithExecutionTimeout(timeout time.Duration) Option {
	return func(o *options) {
		o.executionTimeout = timeout
	}
}

// WithMetrics records request and execution metrics.
func WithMetrics(m *Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithTracerProvider sets the provider used for spans. Defaults to the
// global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) {
		if tp != nil {
			o.tracer = tp.Tracer(instrumentationName)
		}
	}
}
