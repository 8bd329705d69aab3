package cacheinfra

import (
	"bytes"
	"sync"
	"time"
)

// WildcardTag passed to RemoveByTag evicts every entry.
const WildcardTag = "*"

// entry is the immutable envelope kept by the in-process stores. key and seq
// identify the write that produced it once it leaves the cache.
type entry struct {
	key       string
	seq       uint64
	value     []byte
	tags      []string
	expiresAt time.Time
}

func newEntry(key string, seq uint64, value []byte, tags []string, expiresAt time.Time) entry {
	return entry{
		key:       key,
		seq:       seq,
		value:     bytes.Clone(value),
		tags:      append([]string(nil), tags...),
		expiresAt: expiresAt,
	}
}

func (e entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// indexed is what the tag index remembers about a key.
type indexed struct {
	seq  uint64
	tags []string
}

// tagIndex maps tags to keys and keys back to their tags. Its own lock lets
// eviction callbacks update it while a store write is in progress.
type tagIndex struct {
	mu    sync.Mutex
	byTag map[string]map[string]struct{}
	byKey map[string]indexed
}

func newTagIndex() *tagIndex {
	return &tagIndex{
		byTag: make(map[string]map[string]struct{}),
		byKey: make(map[string]indexed),
	}
}

// add replaces whatever tags key was indexed under.
func (ix *tagIndex) add(key string, seq uint64, tags []string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	ix.forgetLocked(key)
	if len(tags) == 0 {
		return
	}
	ix.byKey[key] = indexed{seq: seq, tags: append([]string(nil), tags...)}
	for _, tag := range tags {
		keys, ok := ix.byTag[tag]
		if !ok {
			keys = make(map[string]struct{})
			ix.byTag[tag] = keys
		}
		keys[key] = struct{}{}
	}
}

func (ix *tagIndex) forget(key string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.forgetLocked(key)
}

// forgetWrite drops key only while it is still indexed for the write seq, so
// a late callback for a replaced value leaves the newer tags alone.
func (ix *tagIndex) forgetWrite(key string, seq uint64) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if cur, ok := ix.byKey[key]; ok && cur.seq == seq {
		ix.forgetLocked(key)
	}
}

func (ix *tagIndex) forgetLocked(key string) {
	cur, ok := ix.byKey[key]
	if !ok {
		return
	}
	delete(ix.byKey, key)
	for _, tag := range cur.tags {
		keys := ix.byTag[tag]
		delete(keys, key)
		if len(keys) == 0 {
			delete(ix.byTag, tag)
		}
	}
}

// take removes tag and returns every key that carried it.
func (ix *tagIndex) take(tag string) []string {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	keys := ix.byTag[tag]
	out := make([]string, 0, len(keys))
	for key := range keys {
		out = append(out, key)
	}
	for _, key := range out {
		ix.forgetLocked(key)
	}
	return out
}

// prune drops every key live reports as gone and returns how many remain.
func (ix *tagIndex) prune(live func(key string) bool) int {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	for key := range ix.byKey {
		if !live(key) {
			ix.forgetLocked(key)
		}
	}
	return len(ix.byKey)
}

func (ix *tagIndex) size() int {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return len(ix.byKey)
}

func (ix *tagIndex) reset() {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.byTag = make(map[string]map[string]struct{})
	ix.byKey = make(map[string]indexed)
}
