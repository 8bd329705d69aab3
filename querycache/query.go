package querycache

import (
	"context"
	"time"
)

// Handler answers a query of type Q with a result of type R.
type Handler[Q, R any] interface {
	Handle(ctx context.Context, query Q) (R, error)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc[Q, R any] func(ctx context.Context, query Q) (R, error)

// Handle calls f(ctx, query).
func (f HandlerFunc[Q, R]) Handle(ctx context.Context, query Q) (R, error) {
	return f(ctx, query)
}

// Cacheable marks a query whose result may be cached. Queries that do not
// implement it always reach the inner handler.
//
// Two queries with the same CacheKey are treated as the same computation.
type Cacheable interface {
	CacheKey() string
}

// Tagged is implemented by cacheable queries that label their entry for
// group invalidation.
type Tagged interface {
	CacheTags() []string
}

// Expiring is implemented by cacheable queries that choose their own entry
// lifetime. ok=false means unset, so the handler default applies.
type Expiring interface {
	CacheExpiry() (ttl time.Duration, ok bool)
}

// CachePolicy can be embedded in a query to provide Tagged and Expiring.
type CachePolicy struct {
	Tags   []string       `cache:"-"`
	Expiry *time.Duration `cache:"-"`
}

// CacheTags implements Tagged.
func (p CachePolicy) CacheTags() []string {
	return p.Tags
}

// CacheExpiry implements Expiring.
func (p CachePolicy) CacheExpiry() (time.Duration, bool) {
	if p.Expiry == nil {
		return 0, false
	}
	return *p.Expiry, true
}

// ExpireAfter returns a CachePolicy with the given lifetime and tags.
func ExpireAfter(ttl time.Duration, tags ...string) CachePolicy {
	return CachePolicy{Tags: tags, Expiry: &ttl}
}

// Tags returns a CachePolicy carrying tags and no explicit lifetime.
func Tags(tags ...string) CachePolicy {
	return CachePolicy{Tags: tags}
}

func queryTags(query Cacheable) []string {
	if tagged, ok := query.(Tagged); ok {
		return tagged.CacheTags()
	}
	return nil
}

func queryExpiry(query Cacheable) (time.Duration, bool) {
	if expiring, ok := query.(Expiring); ok {
		return expiring.CacheExpiry()
	}
	return 0, false
}
