package lumen

import (
	"context"

	"github.com/lumenstore/lumen/query"
	"github.com/lumenstore/lumen/subscription"
)

// The write path is validate, execute, broadcast. The broadcast happens
// after the database write commits, so a subscriber that refetches instead
// of merging still observes the new state.

// Insert validates and executes an insert, then notifies subscriptions.
func (db *DB) Insert(ctx context.Context, stmt *query.InsertStmt) error {
	if err := joinValidation("insert", db.schema.ValidateInsert(stmt)); err != nil {
		return err
	}
	if err := db.store.ExecInsert(ctx, stmt); err != nil {
		return err
	}

	db.logger.Debug("insert executed", "table", stmt.Table, "columns", len(stmt.Values))
	db.reg.Broadcast(subscription.EventForInsert(stmt))
	return nil
}

// Update validates and executes an update, then notifies subscriptions.
func (db *DB) Update(ctx context.Context, stmt *query.UpdateStmt) error {
	if err := joinValidation("update", db.schema.ValidateUpdate(stmt)); err != nil {
		return err
	}
	if err := db.store.ExecUpdate(ctx, stmt); err != nil {
		return err
	}

	db.logger.Debug("update executed", "table", stmt.Table, "assignments", len(stmt.Changed))
	db.reg.Broadcast(subscription.EventForUpdate(stmt))
	return nil
}

// Delete validates and executes a delete, then notifies subscriptions.
func (db *DB) Delete(ctx context.Context, stmt *query.DeleteStmt) error {
	if err := joinValidation("delete", db.schema.ValidateDelete(stmt)); err != nil {
		return err
	}
	if err := db.store.ExecDelete(ctx, stmt); err != nil {
		return err
	}

	db.logger.Debug("delete executed", "table", stmt.Table, "filters", len(stmt.Filters))
	db.reg.Broadcast(subscription.EventForDelete(stmt))
	return nil
}
