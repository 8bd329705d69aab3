package testsupport

import (
	"bytes"
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goliatone/go-query-cache/cache"
)

// ErrInjected is returned by MemoryStore operations switched to fail.
var ErrInjected = errors.New("testsupport: injected store failure")

var (
	_ cache.Store   = (*MemoryStore)(nil)
	_ cache.Remover = (*MemoryStore)(nil)
)

type memoryEntry struct {
	value     []byte
	tags      []string
	expiresAt time.Time
	ttl       time.Duration
}

// MemoryStore is a map backed cache.Store for tests. It records operation
// counts, can be told to fail, and uses a replaceable clock for expiry.
type MemoryStore struct {
	mu         sync.Mutex
	entries    map[string]memoryEntry
	defaultTTL time.Duration
	now        func() time.Time

	failGets    atomic.Bool
	failSets    atomic.Bool
	failRemoves atomic.Bool

	gets    atomic.Int64
	sets    atomic.Int64
	removes atomic.Int64
}

// NewMemoryStore returns an empty store whose default ttl is one minute.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries:    make(map[string]memoryEntry),
		defaultTTL: time.Minute,
		now:        time.Now,
	}
}

// WithClock replaces the time source used for expiry.
func (s *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
	return s
}

// FailGets makes Get return ErrInjected.
func (s *MemoryStore) FailGets(fail bool) { s.failGets.Store(fail) }

// FailSets makes Set return ErrInjected.
func (s *MemoryStore) FailSets(fail bool) { s.failSets.Store(fail) }

// FailRemoves makes RemoveByTag and Remove return ErrInjected.
func (s *MemoryStore) FailRemoves(fail bool) { s.failRemoves.Store(fail) }

// Get implements cache.Store.
func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.gets.Add(1)
	if s.failGets.Load() {
		return nil, false, ErrInjected
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !s.now().Before(e.expiresAt) {
		delete(s.entries, key)
		return nil, false, nil
	}
	return bytes.Clone(e.value), true, nil
}

// Set implements cache.Store.
func (s *MemoryStore) Set(_ context.Context, key string, value []byte, tags []string, ttl time.Duration) error {
	s.sets.Add(1)
	if s.failSets.Load() {
		return ErrInjected
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	s.entries[key] = memoryEntry{
		value:     bytes.Clone(value),
		tags:      append([]string(nil), tags...),
		expiresAt: s.now().Add(ttl),
		ttl:       ttl,
	}
	return nil
}

// RemoveByTag implements cache.Store.
func (s *MemoryStore) RemoveByTag(_ context.Context, tag string) error {
	s.removes.Add(1)
	if s.failRemoves.Load() {
		return ErrInjected
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if tag == cache.WildcardTag {
		clear(s.entries)
		return nil
	}
	for key, e := range s.entries {
		for _, t := range e.tags {
			if t == tag {
				delete(s.entries, key)
				break
			}
		}
	}
	return nil
}

// Remove implements cache.Remover.
func (s *MemoryStore) Remove(_ context.Context, key string) error {
	s.removes.Add(1)
	if s.failRemoves.Load() {
		return ErrInjected
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

// Put writes raw bytes under key, bypassing failure injection and counters.
func (s *MemoryStore) Put(key string, value []byte, ttl time.Duration, tags ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	s.entries[key] = memoryEntry{
		value:     bytes.Clone(value),
		tags:      append([]string(nil), tags...),
		expiresAt: s.now().Add(ttl),
		ttl:       ttl,
	}
}

// Has reports whether a live entry exists for key.
func (s *MemoryStore) Has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	return ok && s.now().Before(e.expiresAt)
}

// Raw returns the stored bytes for key without touching counters.
func (s *MemoryStore) Raw(key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		return nil, false
	}
	return bytes.Clone(e.value), true
}

// Tags returns the sorted tags stored with key.
func (s *MemoryStore) Tags(key string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	tags := append([]string(nil), s.entries[key].tags...)
	sort.Strings(tags)
	return tags
}

// TTL returns the ttl key was written with, after defaulting.
func (s *MemoryStore) TTL(key string) (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	return e.ttl, ok
}

// Len returns the number of entries, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Gets returns the number of Get calls.
func (s *MemoryStore) Gets() int64 { return s.gets.Load() }

// Sets returns the number of Set calls.
func (s *MemoryStore) Sets() int64 { return s.sets.Load() }

// Removes returns the number of RemoveByTag and Remove calls.
func (s *MemoryStore) Removes() int64 { return s.removes.Load() }
