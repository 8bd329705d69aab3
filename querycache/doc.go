// Package querycache provides a caching decorator for query handlers.
//
// # Overview
//
// A Handler answers a query of type Q with a result of type R. Wrapping it
// with New adds read-through caching keyed by the query:
//
//	inner := querycache.HandlerFunc[BowlerByID, Bowler](loadBowler)
//	cached := querycache.New(inner, store,
//		querycache.WithLogger(logger),
//		querycache.WithMetrics(metrics),
//	)
//
//	bowler, err := cached.Handle(ctx, BowlerByID{ID: "b-1"})
//
// Only queries implementing Cacheable are cached. Everything else reaches the
// inner handler on every call.
//
// # Queries
//
// A query opts in by returning a key. DefaultKey derives one from the type
// name and exported fields, and embedding CachePolicy adds per call tags and
// expiry without changing the key:
//
//	type BowlerByID struct {
//		ID string
//		querycache.CachePolicy
//	}
//
//	func (q BowlerByID) CacheKey() string { return querycache.DefaultKey(q) }
//
//	q := BowlerByID{ID: "b-1", CachePolicy: querycache.ExpireAfter(time.Minute, "bowlers")}
//
// Extra tags can also travel on the context with WithCacheTags.
//
// # Concurrency
//
// Concurrent calls with the same key share a single execution of the inner
// handler. The execution runs detached from every caller: a caller whose
// context is cancelled returns ctx.Err() while the others still receive the
// result. WithExecutionTimeout bounds how long a shared execution may run.
//
// # What Gets Stored
//
// Only successful results are written, encoded with the configured codec.
// Errors, panics and Outcome failures are shared with the waiting callers
// and then forgotten, so the next call executes again. A result whose expiry
// resolves to zero or less is not stored unless WithNonPositiveExpiry selects
// PersistWithDefault. A handler whose result type is an interface is never
// persisted, since a decoded entry cannot recover the dynamic type.
//
// Store and codec failures never fail a call. Reads degrade to misses and
// writes are skipped; both are logged at warn level and counted.
//
// # Outcomes
//
// Handlers that report domain failures as values return Outcome[T]. NewOutcome
// caches the success arm only:
//
//	cached := querycache.NewOutcome(findBowler, store)
//	out, err := cached.Handle(ctx, q)
//	if out.IsFailure() { ... }
//
// # Invalidation
//
// Invalidator removes entries by tag, all entries, or the entry of a single
// query when the store supports removal by key.
package querycache
