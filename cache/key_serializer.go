package cache

import (
	"encoding"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/cespare/xxhash/v2"
)

// KeySeparator defines the delimiter used between cache key segments.
const KeySeparator = "::"

// MaxKeyLength is the longest key SerializeKey emits verbatim. Longer keys keep
// their name segment and replace the arguments with an xxhash digest.
const MaxKeyLength = 250

// keyTag lets struct fields opt out of key serialization with `cache:"-"`.
const keyTag = "cache"

// defaultKeySerializer implements KeySerializer using reflection.
// Maps are emitted with sorted keys and struct fields in declaration order so
// the same logical arguments always produce the same key.
type defaultKeySerializer struct {
	maxLength int
}

// NewDefaultKeySerializer creates a new instance of the default key serializer.
func NewDefaultKeySerializer() KeySerializer {
	return &defaultKeySerializer{maxLength: MaxKeyLength}
}

// SerializeKey builds a cache key from name and args.
func (s *defaultKeySerializer) SerializeKey(name string, args ...any) string {
	if len(args) == 0 {
		return name
	}

	parts := make([]string, 0, len(args))
	for _, arg := range args {
		parts = append(parts, s.serializeValue(reflect.ValueOf(arg)))
	}

	key := name + KeySeparator + strings.Join(parts, KeySeparator)
	if s.maxLength > 0 && len(key) > s.maxLength {
		return name + KeySeparator + "xxh:" + HashKey(parts...)
	}
	return key
}

// HashKey returns the hex xxhash64 digest of the joined parts.
func HashKey(parts ...string) string {
	h := xxhash.New()
	for i, p := range parts {
		if i > 0 {
			_, _ = h.WriteString(KeySeparator)
		}
		_, _ = h.WriteString(p)
	}
	return strconv.FormatUint(h.Sum64(), 16)
}

func (s *defaultKeySerializer) serializeValue(rv reflect.Value) string {
	if !rv.IsValid() {
		return "nil"
	}

	switch rv.Kind() {
	case reflect.Func:
		// pointer identity is only stable inside one process
		if rv.IsNil() {
			return "func:nil"
		}
		return fmt.Sprintf("func:%#x", rv.Pointer())
	case reflect.Chan:
		if rv.IsNil() {
			return "chan:nil"
		}
		return fmt.Sprintf("chan:%#x", rv.Pointer())
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return "nil"
		}
		return s.serializeValue(rv.Elem())
	case reflect.Slice:
		if rv.IsNil() {
			return "slice:nil"
		}
		return s.serializeSequence("slice", rv)
	case reflect.Array:
		return s.serializeSequence("array", rv)
	case reflect.Map:
		if rv.IsNil() {
			return "map:nil"
		}
		return s.serializeMap(rv)
	case reflect.Struct:
		if text, ok := marshalText(rv); ok {
			return strconv.Quote(text)
		}
		return s.serializeStruct(rv)
	case reflect.String:
		// quoted so separators inside values never read as real separators
		return strconv.Quote(rv.String())
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64,
		reflect.Complex64, reflect.Complex128:
		if rv.CanInterface() {
			return fmt.Sprintf("%v", rv.Interface())
		}
		return fmt.Sprintf("%v", rv)
	}

	return s.jsonFallback(rv)
}

func (s *defaultKeySerializer) serializeSequence(kind string, rv reflect.Value) string {
	n := rv.Len()
	parts := make([]string, n)
	for i := 0; i < n; i++ {
		parts[i] = s.serializeValue(rv.Index(i))
	}
	return fmt.Sprintf("%s[%d]:{%s}", kind, n, strings.Join(parts, ","))
}

func (s *defaultKeySerializer) serializeMap(rv reflect.Value) string {
	pairs := make([]string, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		pairs = append(pairs, s.serializeValue(iter.Key())+"="+s.serializeValue(iter.Value()))
	}
	sort.Strings(pairs)
	return fmt.Sprintf("map[%d]:{%s}", len(pairs), strings.Join(pairs, ","))
}

func (s *defaultKeySerializer) serializeStruct(rv reflect.Value) string {
	rt := rv.Type()
	parts := make([]string, 0, rt.NumField())

	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() || field.Tag.Get(keyTag) == "-" {
			continue
		}
		parts = append(parts, field.Name+":"+s.serializeValue(rv.Field(i)))
	}

	return fmt.Sprintf("struct:{%s}", strings.Join(parts, ","))
}

// marshalText covers structs such as time.Time whose state is unexported.
func marshalText(rv reflect.Value) (string, bool) {
	if !rv.CanInterface() {
		return "", false
	}
	tm, ok := rv.Interface().(encoding.TextMarshaler)
	if !ok {
		return "", false
	}
	data, err := tm.MarshalText()
	if err != nil {
		return "", false
	}
	return string(data), true
}

// jsonFallback is used for kinds with no direct representation.
func (s *defaultKeySerializer) jsonFallback(rv reflect.Value) string {
	if !rv.CanInterface() {
		return "fallback:" + rv.Type().String()
	}
	data, err := sonic.ConfigStd.Marshal(rv.Interface())
	if err != nil {
		return "fallback:" + rv.Type().String()
	}
	return "json:" + string(data)
}
