package repoquery

import (
	"context"
	"fmt"
	"reflect"

	"github.com/goliatone/go-query-cache/querycache"
)

// Invalidation evicts cached reads of one resource after writes.
type Invalidation[T any] struct {
	resource string
	inv      *querycache.Invalidator
}

// NewInvalidation returns an Invalidation for resource.
func NewInvalidation[T any](resource string, inv *querycache.Invalidator) *Invalidation[T] {
	return &Invalidation[T]{resource: resource, inv: inv}
}

// Created evicts cached lists, since new records change pages and totals.
func (i *Invalidation[T]) Created(ctx context.Context) error {
	return i.inv.InvalidateTags(ctx, ListTag(i.resource))
}

// Changed evicts the lookups of records and every cached list. When a record
// has no ID field every cached read of the resource is evicted.
func (i *Invalidation[T]) Changed(ctx context.Context, records ...T) error {
	tags := []string{ListTag(i.resource)}
	for _, record := range records {
		id, err := extractID(record)
		if err != nil {
			return i.inv.InvalidateTags(ctx, i.resource)
		}
		tags = append(tags, RecordTag(i.resource, id))
	}
	return i.inv.InvalidateTags(ctx, tags...)
}

// Deleted behaves like Changed.
func (i *Invalidation[T]) Deleted(ctx context.Context, records ...T) error {
	return i.Changed(ctx, records...)
}

// All evicts every cached read of the resource, for writes driven by
// criteria where the affected records are unknown.
func (i *Invalidation[T]) All(ctx context.Context) error {
	return i.inv.InvalidateTags(ctx, i.resource)
}

// extractID reads an ID field from a record using reflection.
func extractID(record any) (string, error) {
	v := reflect.ValueOf(record)
	for v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return "", fmt.Errorf("nil record")
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return "", fmt.Errorf("record of kind %s has no fields", v.Kind())
	}

	for _, fieldName := range []string{"ID", "Id"} {
		field := v.FieldByName(fieldName)
		if field.IsValid() && field.CanInterface() {
			return fmt.Sprintf("%v", field.Interface()), nil
		}
	}
	return "", fmt.Errorf("no ID field found in %s", v.Type())
}
