package cacheinfra

import (
	"bytes"
	"context"
	"sync"
	"time"

	"github.com/viccon/sturdyc"
)

// SturdycStore is the default in-process store. sturdyc owns sharding,
// capacity eviction and the MaxTTL sweep; per-entry expiry is checked on read.
type SturdycStore struct {
	client *sturdyc.Client[entry]
	cfg    Config
	now    func() time.Time

	mu      sync.Mutex // serializes writes with the tag index
	index   *tagIndex
	pruneAt int
}

// NewSturdycStore validates cfg and initializes a sturdyc client.
//
// Version compatibility note: This implementation assumes sturdyc v1.x API.
func NewSturdycStore(cfg Config) (*SturdycStore, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client := sturdyc.New[entry](
		cfg.Capacity,
		cfg.NumShards,
		cfg.maxTTL(),
		cfg.EvictionPercentage,
		cfg.ToSturdycOptions()...,
	)

	return &SturdycStore{
		client:  client,
		cfg:     cfg,
		now:     time.Now,
		index:   newTagIndex(),
		pruneAt: cfg.Capacity,
	}, nil
}

// Get returns a copy of the value stored under key.
func (s *SturdycStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	e, ok := s.client.Get(key)
	if !ok {
		return nil, false, nil
	}
	if e.expired(s.now()) {
		s.evictExpired(key)
		return nil, false, nil
	}
	return bytes.Clone(e.value), true, nil
}

// Set replaces the entry under key and re-indexes its tags.
func (s *SturdycStore) Set(_ context.Context, key string, value []byte, tags []string, ttl time.Duration) error {
	e := newEntry(key, 0, value, tags, s.now().Add(s.cfg.clampTTL(ttl)))

	s.mu.Lock()
	defer s.mu.Unlock()

	s.client.Set(key, e)
	s.index.add(key, 0, e.tags)
	s.pruneIndex()
	return nil
}

// pruneIndex drops keys sturdyc has evicted or that have expired. sturdyc
// reports no evictions, so this runs whenever the index outgrows twice the
// live entries seen at the previous prune.
func (s *SturdycStore) pruneIndex() {
	if s.index.size() <= s.pruneAt {
		return
	}
	now := s.now()
	live := s.index.prune(func(key string) bool {
		e, ok := s.client.Get(key)
		return ok && !e.expired(now)
	})
	s.pruneAt = max(s.cfg.Capacity, 2*live)
}

// RemoveByTag evicts every entry carrying tag. WildcardTag evicts everything.
func (s *SturdycStore) RemoveByTag(_ context.Context, tag string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if tag == WildcardTag {
		for _, key := range s.client.ScanKeys() {
			s.client.Delete(key)
		}
		s.index.reset()
		return nil
	}

	for _, key := range s.index.take(tag) {
		s.client.Delete(key)
	}
	return nil
}

// Remove evicts a single key.
func (s *SturdycStore) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.client.Delete(key)
	s.index.forget(key)
	return nil
}

// evictExpired re-reads under the lock so a concurrent Set is never undone.
func (s *SturdycStore) evictExpired(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.client.Get(key); ok && e.expired(s.now()) {
		s.client.Delete(key)
		s.index.forget(key)
	}
}

// Len reports the number of entries held by sturdyc, expired ones included
// until they are swept.
func (s *SturdycStore) Len() int {
	return s.client.Size()
}
