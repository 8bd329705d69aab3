package repoquery

import (
	"fmt"
	"sort"
	"strings"

	"github.com/goliatone/go-query-cache/cache"
	"github.com/goliatone/go-query-cache/querycache"
	"github.com/jinzhu/inflection"
)

const (
	listTagSuffix = ":list"
	keyByID       = "by_id"
	keyList       = "list"
)

// ByID looks up a single record of Resource.
type ByID struct {
	Resource string
	ID       string
	querycache.CachePolicy
}

// CacheKey implements querycache.Cacheable.
func (q ByID) CacheKey() string {
	return keySerializer.SerializeKey(q.Resource+cache.KeySeparator+keyByID, q.ID)
}

// CacheTags implements querycache.Tagged. Explicit policy tags are added to
// the resource and record tags.
func (q ByID) CacheTags() []string {
	return append(RecordTags(q.Resource, q.ID), q.CachePolicy.CacheTags()...)
}

// List pages through records of Resource matching Filters, an equality
// filter per column.
type List struct {
	Resource string
	Filters  map[string]any
	Limit    int
	Offset   int
	querycache.CachePolicy
}

// CacheKey implements querycache.Cacheable.
func (q List) CacheKey() string {
	return keySerializer.SerializeKey(q.Resource+cache.KeySeparator+keyList, q.Filters, q.Limit, q.Offset)
}

// CacheTags implements querycache.Tagged.
func (q List) CacheTags() []string {
	return append([]string{q.Resource, ListTag(q.Resource)}, q.CachePolicy.CacheTags()...)
}

// Page is the cached result of a List query.
type Page[T any] struct {
	Records []T
	Total   int
}

var keySerializer = cache.NewDefaultKeySerializer()

// RecordTag is the tag carried by every cached entry that contains record id.
func RecordTag(resource, id string) string {
	return resource + ":" + id
}

// ListTag is the tag carried by every cached list of resource.
func ListTag(resource string) string {
	return resource + listTagSuffix
}

// RecordTags returns the tags of a single record lookup.
func RecordTags(resource, id string) []string {
	return []string{resource, RecordTag(resource, id)}
}

// Resource builds queries for one resource name.
type Resource string

// ByID returns a lookup for id.
func (r Resource) ByID(id string) ByID {
	return ByID{Resource: string(r), ID: id}
}

// List returns a list query with the given filters.
func (r Resource) List(filters map[string]any, limit, offset int) List {
	return List{Resource: string(r), Filters: filters, Limit: limit, Offset: offset}
}

// notFoundCode renders the text code of a missing record, e.g. "Bowler.NotFound".
func notFoundCode(resource string) string {
	name := inflection.Singular(resource)
	if name == "" {
		return "Record.NotFound"
	}
	return strings.ToUpper(name[:1]) + name[1:] + ".NotFound"
}

func sortedColumns(filters map[string]any) []string {
	cols := make([]string, 0, len(filters))
	for col := range filters {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	return cols
}

func describe(resource, id string) string {
	return fmt.Sprintf("%s %q", resource, id)
}
