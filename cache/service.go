package cache

import (
	"context"
	"time"
)

// WildcardTag removes every entry when passed to Store.RemoveByTag.
const WildcardTag = "*"

// KeySerializer builds a cache key from a name + arbitrary args.
// It is responsible for producing stable keys across calls.
type KeySerializer interface {
	SerializeKey(name string, args ...any) string
}

// Store is the key/value contract the query caching decorator depends on.
// Values are opaque serialized payloads. Implementations manage their own
// concurrency and may be remote, so every call can fail.
type Store interface {
	// Get returns (value, true, nil) on hit and (nil, false, nil) on miss.
	// Expired entries are reported as a miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set fully replaces the entry stored under key. A non-positive ttl
	// means the store default.
	Set(ctx context.Context, key string, value []byte, tags []string, ttl time.Duration) error

	// RemoveByTag evicts every entry whose tag set contains tag.
	// WildcardTag evicts everything.
	RemoveByTag(ctx context.Context, tag string) error
}

// Remover is implemented by stores that can evict a single key.
type Remover interface {
	Remove(ctx context.Context, key string) error
}

// Codec serializes success payloads before they reach a Store.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
}
