// Package cache defines the storage contract used by query caching and ships
// the default store implementations, codecs and key serialization.
//
// # Overview
//
//   - Store: opaque byte values with tags and a per-entry ttl
//   - Codec: turns handler results into bytes (msgpack by default, JSON optional)
//   - KeySerializer: builds stable cache keys from a name and arguments
//
// # Stores
//
// Three implementations are available through Config.Backend:
//
//	store, err := cache.NewStoreFromConfig(cache.DefaultConfig())
//
//   - sturdyc (default): sharded in-process store
//   - ristretto: cost bounded in-process store; writes may be declined under contention
//   - redis: shared across processes, tags kept as redis sets
//
// Every store honours RemoveByTag(WildcardTag) as "remove everything". For
// redis that means every key under the configured prefix.
//
// # Configuration
//
// Config can be loaded from YAML; omitted fields keep their defaults:
//
//	backend: redis
//	codec: json
//	ttl: 2m
//	redis:
//	  addr: localhost:6379
//	  key_prefix: "querycache:"
//
//	cfg, err := cache.LoadConfig("cache.yaml")
//
// # Key Serialization Strategy
//
// The default key serializer uses reflection:
//
//   - Functions and channels: pointer identity, stable only within a process
//   - Basic types: direct string representation
//   - Slices/arrays: recursive serialization of elements
//   - Maps: sorted key-value pairs for deterministic output
//   - Structs: exported fields as name:value pairs, skipping fields tagged `cache:"-"`
//   - Types implementing encoding.TextMarshaler (time.Time): their text form
//   - Anything else: JSON fallback
//
// Keys longer than MaxKeyLength keep their name segment and replace the
// arguments with an xxhash digest.
package cache
