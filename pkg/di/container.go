package di

import (
	"io"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-query-cache/cache"
	"github.com/goliatone/go-query-cache/pkg/repoquery"
	"github.com/goliatone/go-query-cache/querycache"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Container provides dependency injection for cache related components.
// Every caching handler it builds shares its store and codec, so handlers
// created from the same container share entries and invalidation. Queries
// build their own keys; KeySerializer is exposed for callers composing keys
// by hand and produces the same format.
type Container struct {
	config         cache.Config
	store          cache.Store
	codec          cache.Codec
	keySerializer  cache.KeySerializer
	logger         *zap.Logger
	metrics        *querycache.Metrics
	tracerProvider trace.TracerProvider
	invalidator    *querycache.Invalidator
}

// Option configures a Container.
type Option func(*settings)

type settings struct {
	logger         *zap.Logger
	registerer     prometheus.Registerer
	tracerProvider trace.TracerProvider
	store          cache.Store
}

// WithLogger sets the logger passed to every handler.
func WithLogger(logger *zap.Logger) Option {
	return func(s *settings) { s.logger = logger }
}

// WithRegisterer registers handler metrics with reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(s *settings) { s.registerer = reg }
}

// WithTracerProvider sets the provider used for handler spans.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *settings) { s.tracerProvider = tp }
}

// WithStore uses store instead of building one from the configuration.
func WithStore(store cache.Store) Option {
	return func(s *settings) { s.store = store }
}

// NewContainer creates a new DI container with the provided cache configuration.
// The store is selected by config.Backend unless WithStore is given.
func NewContainer(config cache.Config, opts ...Option) (*Container, error) {
	s := settings{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&s)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	store := s.store
	if store == nil {
		var err error
		if store, err = cache.NewStoreFromConfig(config); err != nil {
			return nil, err
		}
	}

	var metrics *querycache.Metrics
	if s.registerer != nil {
		var err error
		if metrics, err = querycache.NewMetrics(s.registerer); err != nil {
			return nil, err
		}
	}

	logger := s.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Container{
		config:         config,
		store:          store,
		codec:          config.NewCodec(),
		keySerializer:  cache.NewDefaultKeySerializer(),
		logger:         logger,
		metrics:        metrics,
		tracerProvider: s.tracerProvider,
		invalidator:    querycache.NewInvalidator(store),
	}, nil
}

// NewContainerWithDefaults creates a new DI container using default configuration.
func NewContainerWithDefaults(opts ...Option) (*Container, error) {
	return NewContainer(cache.DefaultConfig(), opts...)
}

// Store returns the shared store.
func (c *Container) Store() cache.Store {
	return c.store
}

// Codec returns the codec selected by the configuration.
func (c *Container) Codec() cache.Codec {
	return c.codec
}

// KeySerializer returns the singleton key serializer instance. Handlers do not
// use it; keys come from each query's CacheKey.
func (c *Container) KeySerializer() cache.KeySerializer {
	return c.keySerializer
}

// Invalidator returns an invalidator over the shared store.
func (c *Container) Invalidator() *querycache.Invalidator {
	return c.invalidator
}

// Metrics returns the handler metrics, nil without WithRegisterer.
func (c *Container) Metrics() *querycache.Metrics {
	return c.metrics
}

// Config returns a copy of the cache configuration used by this container.
func (c *Container) Config() cache.Config {
	return c.config
}

// Close releases the store when it holds connections or goroutines.
func (c *Container) Close() error {
	if closer, ok := c.store.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// handlerOptions puts the container wiring first so callers can override it.
func (c *Container) handlerOptions(opts []querycache.Option) []querycache.Option {
	base := []querycache.Option{
		querycache.WithLogger(c.logger),
		querycache.WithCodec(c.codec),
		querycache.WithDefaultExpiry(c.config.TTL),
		querycache.WithMetrics(c.metrics),
		querycache.WithTracerProvider(c.tracerProvider),
	}
	return append(base, opts...)
}

// NewCachingHandler wraps inner with the container's store and telemetry.
//
// Since Go methods cannot have type parameters, this is provided as a package-level function.
// Example: NewCachingHandler[BowlerByID, Bowler](container, handler)
func NewCachingHandler[Q, R any](c *Container, inner querycache.Handler[Q, R], opts ...querycache.Option) *querycache.CachingHandler[Q, R] {
	return querycache.New(inner, c.store, c.handlerOptions(opts)...)
}

// NewOutcomeHandler wraps an Outcome producing handler so only successes are
// cached.
func NewOutcomeHandler[Q, T any](c *Container, inner querycache.Handler[Q, querycache.Outcome[T]], opts ...querycache.Option) *querycache.OutcomeHandler[Q, T] {
	return querycache.NewOutcome(inner, c.store, c.handlerOptions(opts)...)
}

// CachedRecords bundles the cached reads of one repository with the
// invalidation its writes need.
type CachedRecords[T any] struct {
	Resource     repoquery.Resource
	ByID         *querycache.OutcomeHandler[repoquery.ByID, T]
	List         *querycache.CachingHandler[repoquery.List, repoquery.Page[T]]
	Invalidation *repoquery.Invalidation[T]
}

// NewCachedRecords creates cached ByID and List handlers over repo.
// Example: NewCachedRecords[Bowler](container, "bowlers", bowlerRepository)
func NewCachedRecords[T any](c *Container, resource string, repo repository.Repository[T], opts ...querycache.Option) *CachedRecords[T] {
	byIDOpts := append([]querycache.Option{querycache.WithName(resource + "_by_id")}, opts...)
	listOpts := append([]querycache.Option{querycache.WithName(resource + "_list")}, opts...)

	return &CachedRecords[T]{
		Resource:     repoquery.Resource(resource),
		ByID:         NewOutcomeHandler(c, repoquery.NewByIDHandler[T](repo), byIDOpts...),
		List:         NewCachingHandler(c, repoquery.NewListHandler[T](repo), listOpts...),
		Invalidation: repoquery.NewInvalidation[T](resource, c.invalidator),
	}
}
