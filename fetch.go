package lumen

import (
	"context"

	"github.com/lumenstore/lumen/query"
	"github.com/lumenstore/lumen/subscription"
	"github.com/lumenstore/lumen/value"
)

// Fetch modes are top-level generic functions rather than DB methods because
// methods cannot introduce type parameters. The row type T supplies
// ScanValues through its pointer (P); conversion errors surface here, at the
// initial fetch, not during later merging.

// FetchOne returns exactly one row. Zero rows or more than one is a
// WRONG_NUMBER_OF_VALUES conversion error.
func FetchOne[T any, P subscription.RowPtr[T]](ctx context.Context, db *DB, stmt *query.SelectStmt) (T, error) {
	var zero T
	if err := db.validateSelect(stmt); err != nil {
		return zero, err
	}

	rows, _, err := db.store.Select(ctx, stmt, false)
	if err != nil {
		return zero, err
	}
	if len(rows) != 1 {
		return zero, value.ErrWrongNumberOfValues(1, len(rows))
	}
	return subscription.FromValues[T, P](rows[0])
}

// FetchFirst returns the first row in result order. Zero rows is a
// WRONG_NUMBER_OF_VALUES conversion error.
func FetchFirst[T any, P subscription.RowPtr[T]](ctx context.Context, db *DB, stmt *query.SelectStmt) (T, error) {
	var zero T
	if err := db.validateSelect(stmt); err != nil {
		return zero, err
	}

	rows, _, err := db.store.Select(ctx, stmt, false)
	if err != nil {
		return zero, err
	}
	if len(rows) == 0 {
		return zero, value.ErrWrongNumberOfValues(1, 0)
	}
	return subscription.FromValues[T, P](rows[0])
}

// FetchAll returns every matching row in result order.
func FetchAll[T any, P subscription.RowPtr[T]](ctx context.Context, db *DB, stmt *query.SelectStmt) ([]T, error) {
	if err := db.validateSelect(stmt); err != nil {
		return nil, err
	}

	rows, _, err := db.store.Select(ctx, stmt, false)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(rows))
	for _, raw := range rows {
		row, err := subscription.FromValues[T, P](raw)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, nil
}

// FetchMany returns at most max rows in result order. The cap compiles to a
// SQL LIMIT, so it applies at fetch time only; max of zero means no cap.
func FetchMany[T any, P subscription.RowPtr[T]](ctx context.Context, db *DB, stmt *query.SelectStmt, max int) ([]T, error) {
	if max > 0 {
		capped := *stmt
		capped.Limit = max
		stmt = &capped
	}
	return FetchAll[T, P](ctx, db, stmt)
}
