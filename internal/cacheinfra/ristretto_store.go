package cacheinfra

import (
	"bytes"
	"context"
	"sync"
	"time"

	"github.com/dgraph-io/ristretto/v2"
)

// RistrettoStore is a cost bounded in-process store. Ristretto may decline
// writes under contention; a declined write is simply not cached.
type RistrettoStore struct {
	rc  *ristretto.Cache[string, entry]
	cfg Config
	now func() time.Time

	mu    sync.Mutex // serializes writes
	seq   uint64
	index *tagIndex
}

// NewRistrettoStore creates a store holding at most cfg.Capacity entries.
func NewRistrettoStore(cfg Config) (*RistrettoStore, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &RistrettoStore{
		cfg:   cfg,
		now:   time.Now,
		index: newTagIndex(),
	}

	maxCost := int64(cfg.Capacity)
	rc, err := ristretto.NewCache(&ristretto.Config[string, entry]{
		NumCounters:        maxCost * 10,
		MaxCost:            maxCost,
		BufferItems:        64,
		IgnoreInternalCost: true,
		// Runs on ristretto's goroutine for evicted, expired, rejected,
		// replaced and deleted values alike. It must not take s.mu: Set
		// holds it across Wait.
		OnExit: func(e entry) {
			s.index.forgetWrite(e.key, e.seq)
		},
	})
	if err != nil {
		return nil, err
	}
	s.rc = rc
	return s, nil
}

// Get returns a copy of the value stored under key.
func (s *RistrettoStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	e, ok := s.rc.Get(key)
	if !ok || e.expired(s.now()) {
		return nil, false, nil
	}
	return bytes.Clone(e.value), true, nil
}

// Set replaces the entry under key and re-indexes its tags.
func (s *RistrettoStore) Set(_ context.Context, key string, value []byte, tags []string, ttl time.Duration) error {
	ttl = s.cfg.clampTTL(ttl)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	e := newEntry(key, s.seq, value, tags, s.now().Add(ttl))

	// Indexed first so an eviction of this write always finds it.
	s.index.add(key, e.seq, e.tags)
	if !s.rc.SetWithTTL(key, e, 1, ttl) {
		s.index.forgetWrite(key, e.seq)
		return nil
	}
	s.rc.Wait()
	return nil
}

// RemoveByTag evicts every entry carrying tag. WildcardTag evicts everything.
func (s *RistrettoStore) RemoveByTag(_ context.Context, tag string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if tag == WildcardTag {
		s.rc.Clear()
		s.index.reset()
		return nil
	}

	for _, key := range s.index.take(tag) {
		s.rc.Del(key)
	}
	return nil
}

// Remove evicts a single key.
func (s *RistrettoStore) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rc.Del(key)
	s.index.forget(key)
	return nil
}

// Close stops ristretto's background goroutines.
func (s *RistrettoStore) Close() error {
	s.rc.Close()
	return nil
}
