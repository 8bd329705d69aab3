package repoquery

import (
	"context"
	"database/sql"
	"errors"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-query-cache/querycache"
	"github.com/uptrace/bun"
)

// RecordGetter is the single record read of a go-repository-bun repository.
type RecordGetter[T any] interface {
	GetByID(ctx context.Context, id string, criteria ...repository.SelectCriteria) (T, error)
}

// RecordLister is the list read of a go-repository-bun repository.
type RecordLister[T any] interface {
	List(ctx context.Context, criteria ...repository.SelectCriteria) ([]T, int, error)
}

var (
	_ RecordGetter[any] = (repository.Repository[any])(nil)
	_ RecordLister[any] = (repository.Repository[any])(nil)
)

// NewByIDHandler answers ByID queries from repo. A missing record is a
// Failure with a "<Resource>.NotFound" error so it is never cached; other
// repository errors are returned as errors. criteria are applied to every
// lookup.
func NewByIDHandler[T any](repo RecordGetter[T], criteria ...repository.SelectCriteria) querycache.Handler[ByID, querycache.Outcome[T]] {
	return querycache.HandlerFunc[ByID, querycache.Outcome[T]](func(ctx context.Context, q ByID) (querycache.Outcome[T], error) {
		record, err := repo.GetByID(ctx, q.ID, criteria...)
		if err != nil {
			if isNotFound(err) {
				return querycache.Failure[T](notFound(q.Resource, q.ID, err)), nil
			}
			return querycache.Outcome[T]{}, goerrors.Wrap(err, goerrors.CategoryExternal, "failed to load "+describe(q.Resource, q.ID))
		}
		return querycache.Success(record), nil
	})
}

// NewListHandler answers List queries from repo. Filters become equality
// conditions on the named columns.
func NewListHandler[T any](repo RecordLister[T], criteria ...repository.SelectCriteria) querycache.Handler[List, Page[T]] {
	return querycache.HandlerFunc[List, Page[T]](func(ctx context.Context, q List) (Page[T], error) {
		all := append(append([]repository.SelectCriteria(nil), criteria...), listCriteria(q)...)
		records, total, err := repo.List(ctx, all...)
		if err != nil {
			return Page[T]{}, goerrors.Wrap(err, goerrors.CategoryExternal, "failed to list "+q.Resource)
		}
		return Page[T]{Records: records, Total: total}, nil
	})
}

func listCriteria(q List) []repository.SelectCriteria {
	var out []repository.SelectCriteria
	for _, col := range sortedColumns(q.Filters) {
		value := q.Filters[col]
		out = append(out, func(sq *bun.SelectQuery) *bun.SelectQuery {
			return sq.Where("? = ?", bun.Ident(col), value)
		})
	}
	if q.Limit > 0 {
		limit := q.Limit
		out = append(out, func(sq *bun.SelectQuery) *bun.SelectQuery {
			return sq.Limit(limit)
		})
	}
	if q.Offset > 0 {
		offset := q.Offset
		out = append(out, func(sq *bun.SelectQuery) *bun.SelectQuery {
			return sq.Offset(offset)
		})
	}
	return out
}

func isNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows) || goerrors.IsNotFound(err)
}

func notFound(resource, id string, source error) error {
	err := goerrors.New(describe(resource, id)+" not found", goerrors.CategoryNotFound).
		WithTextCode(notFoundCode(resource))
	err.Source = source
	return err
}
