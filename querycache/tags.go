package querycache

import (
	"context"
)

type cacheTagsContextKey struct{}

// WithCacheTags attaches additional cache tags to the context. They are added
// to the tags of any entry persisted by an execution started with ctx.
func WithCacheTags(ctx context.Context, tags ...string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if len(tags) == 0 {
		return ctx
	}

	existing := cacheTagsFromContext(ctx)
	combined := append(existing, tags...)
	combined = dedupeStrings(combined)
	if len(combined) == 0 {
		return ctx
	}

	return context.WithValue(ctx, cacheTagsContextKey{}, combined)
}

func cacheTagsFromContext(ctx context.Context) []string {
	if ctx == nil {
		return nil
	}
	if tags, ok := ctx.Value(cacheTagsContextKey{}).([]string); ok {
		return append([]string(nil), tags...)
	}
	return nil
}

// dedupeStrings drops empty and repeated values, keeping first occurrence order.
func dedupeStrings(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// tagsFor merges the query tags with the tags attached to ctx.
func tagsFor(ctx context.Context, query Cacheable) []string {
	tags := append([]string(nil), queryTags(query)...)
	tags = append(tags, cacheTagsFromContext(ctx)...)
	return dedupeStrings(tags)
}
