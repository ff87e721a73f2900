package lumen

import (
	"context"

	"github.com/lumenstore/lumen/query"
	"github.com/lumenstore/lumen/subscription"
	"github.com/lumenstore/lumen/value"
)

// SubscribeOne runs a single-row query and keeps the row current. The
// initial fetch must return exactly one row. Deletes never clear the output;
// the subscription keeps the last known row.
func SubscribeOne[T subscription.Row, P subscription.RowPtr[T]](ctx context.Context, db *DB, stmt *query.SelectStmt) (*subscription.Subscription[T], error) {
	initial, err := FetchOne[T, P](ctx, db, stmt)
	if err != nil {
		return nil, err
	}
	return newSingleRowSubscription[T, P](db, stmt, initial), nil
}

// SubscribeFirst is SubscribeOne with first-row semantics on the initial
// fetch: the query may match many rows and the first in result order seeds
// the output.
func SubscribeFirst[T subscription.Row, P subscription.RowPtr[T]](ctx context.Context, db *DB, stmt *query.SelectStmt) (*subscription.Subscription[T], error) {
	initial, err := FetchFirst[T, P](ctx, db, stmt)
	if err != nil {
		return nil, err
	}
	return newSingleRowSubscription[T, P](db, stmt, initial), nil
}

// SubscribeAll runs a multi-row query and keeps the full ordered result
// current. Rows keep the statement's ORDER BY order as mutations move them
// around.
func SubscribeAll[T subscription.Row, P subscription.RowPtr[T]](ctx context.Context, db *DB, stmt *query.SelectStmt) (*subscription.Subscription[subscription.Collection[T]], error) {
	coll := subscription.NewRows[T]()
	if err := seedCollection[T, P](ctx, db, stmt, coll, 0); err != nil {
		return nil, err
	}
	return newCollectionSubscription[T, P](db, stmt, coll), nil
}

// SubscribeMany is SubscribeAll with a fetch-time cap of max rows. The cap
// is not re-enforced during merging: later inserts can grow the collection
// past it.
func SubscribeMany[T subscription.Row, P subscription.RowPtr[T]](ctx context.Context, db *DB, stmt *query.SelectStmt, max int) (*subscription.Subscription[subscription.Collection[T]], error) {
	coll := subscription.NewRows[T]()
	if err := seedCollection[T, P](ctx, db, stmt, coll, max); err != nil {
		return nil, err
	}
	return newCollectionSubscription[T, P](db, stmt, coll), nil
}

// SubscribeAllKeyed is SubscribeAll for row types with a unique key. The
// cached collection deduplicates by key, so replaying an insert replaces the
// row instead of appending a duplicate.
func SubscribeAllKeyed[K comparable, T subscription.KeyedRow[K], P subscription.RowPtr[T]](ctx context.Context, db *DB, stmt *query.SelectStmt) (*subscription.Subscription[subscription.Collection[T]], error) {
	coll := subscription.NewOrdered[K, T]()
	if err := seedCollection[T, P](ctx, db, stmt, coll, 0); err != nil {
		return nil, err
	}
	return newCollectionSubscription[T, P](db, stmt, coll), nil
}

func newSingleRowSubscription[T subscription.Row, P subscription.RowPtr[T]](db *DB, stmt *query.SelectStmt, initial T) *subscription.Subscription[T] {
	desc := subscription.DescriptorForSelect(stmt)
	merge := func(output *T, ev *subscription.Event) bool {
		return subscription.MergeOne[T, P](output, desc, ev)
	}
	return subscription.New(db.reg, desc, initial, merge, nil)
}

func newCollectionSubscription[T subscription.Row, P subscription.RowPtr[T]](db *DB, stmt *query.SelectStmt, coll subscription.Collection[T]) *subscription.Subscription[subscription.Collection[T]] {
	desc := subscription.DescriptorForSelect(stmt)
	merge := func(output *subscription.Collection[T], ev *subscription.Event) bool {
		return subscription.MergeCollection[T, P](*output, desc, ev)
	}
	clone := func(output subscription.Collection[T]) subscription.Collection[T] {
		return output.Clone()
	}
	return subscription.New(db.reg, desc, coll, merge, clone)
}

// seedCollection fetches the initial rows with their order keys and fills
// the cache. A max of zero means no cap; otherwise it compiles to a SQL
// LIMIT on the seeding fetch.
func seedCollection[T subscription.Row, P subscription.RowPtr[T]](ctx context.Context, db *DB, stmt *query.SelectStmt, coll subscription.Collection[T], max int) error {
	if err := db.validateSelect(stmt); err != nil {
		return err
	}

	if max > 0 {
		capped := *stmt
		capped.Limit = max
		stmt = &capped
	}
	rows, keys, err := db.store.Select(ctx, stmt, true)
	if err != nil {
		return err
	}
	for i, raw := range rows {
		row, err := subscription.FromValues[T, P](raw)
		if err != nil {
			return err
		}
		var key value.OrderKey
		if i < len(keys) {
			key = keys[i]
		}
		coll.Push(row, key)
	}
	return nil
}
