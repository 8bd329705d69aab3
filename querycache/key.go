package querycache

import (
	"reflect"
	"strings"
	"unicode"

	"github.com/goliatone/go-query-cache/cache"
)

var (
	defaultSerializer = cache.NewDefaultKeySerializer()
	cachePolicyType   = reflect.TypeOf(CachePolicy{})
)

// DefaultKey builds a deterministic key for query from its type name and
// exported field values in declaration order, e.g. `bowler_by_id::"b-1"`. Embedded
// CachePolicy values and fields tagged `cache:"-"` are ignored.
//
// It is a helper for CacheKey implementations:
//
//	func (q BowlerByID) CacheKey() string { return querycache.DefaultKey(q) }
func DefaultKey(query any) string {
	rv := reflect.ValueOf(query)
	for rv.Kind() == reflect.Pointer && !rv.IsNil() {
		rv = rv.Elem()
	}
	if !rv.IsValid() {
		return "nil"
	}
	if rv.Kind() == reflect.Pointer {
		return defaultSerializer.SerializeKey(typeKeyName(rv.Type().Elem()), nil)
	}

	name := typeKeyName(rv.Type())
	if rv.Kind() != reflect.Struct {
		return defaultSerializer.SerializeKey(name, rv.Interface())
	}

	var args []any
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() || field.Type == cachePolicyType || field.Tag.Get("cache") == "-" {
			continue
		}
		args = append(args, rv.Field(i).Interface())
	}
	return defaultSerializer.SerializeKey(name, args...)
}

// typeKeyName converts a Go type name to snake case: BowlerByID -> bowler_by_id.
func typeKeyName(t reflect.Type) string {
	name := t.Name()
	if name == "" {
		name = t.String()
	}
	if i := strings.IndexByte(name, '['); i > 0 {
		name = name[:i]
	}

	runes := []rune(name)
	var b strings.Builder
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 && (unicode.IsLower(runes[i-1]) || (i+1 < len(runes) && unicode.IsLower(runes[i+1]) && unicode.IsUpper(runes[i-1]))) {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
