package querycache

import (
	"context"
	"errors"

	"github.com/goliatone/go-query-cache/cache"
)

// ErrRemoveUnsupported is returned by Invalidator.Expire when the store cannot
// evict single keys.
var ErrRemoveUnsupported = errors.New("querycache: store does not support removing single keys")

// Invalidator evicts cached results. Unlike lookups, invalidation failures
// are returned so callers can decide whether stale data is acceptable.
type Invalidator struct {
	store cache.Store
}

// NewInvalidator returns an Invalidator for store.
func NewInvalidator(store cache.Store) *Invalidator {
	if store == nil {
		store = noopStore{}
	}
	return &Invalidator{store: store}
}

// InvalidateTags removes every entry carrying any of tags. Every tag is
// attempted; failures are joined.
func (i *Invalidator) InvalidateTags(ctx context.Context, tags ...string) error {
	var errs []error
	for _, tag := range dedupeStrings(tags) {
		if err := i.store.RemoveByTag(ctx, tag); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// InvalidateAll removes every entry.
func (i *Invalidator) InvalidateAll(ctx context.Context) error {
	return i.store.RemoveByTag(ctx, cache.WildcardTag)
}

// Expire removes the entry for query.
func (i *Invalidator) Expire(ctx context.Context, query Cacheable) error {
	remover, ok := i.store.(cache.Remover)
	if !ok {
		return ErrRemoveUnsupported
	}
	return remover.Remove(ctx, query.CacheKey())
}
