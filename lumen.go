// Package lumen is an embeddable live-query engine on SQLite. Reads can be
// one-shot fetches or subscriptions: a subscription fetches once, then keeps
// its result current by merging every later write into the cached output
// locally, without re-querying the database.
//
// The write path validates a statement against the schema, executes it, and
// broadcasts a mutation event describing what changed. Each subscription
// tests the event for relevance against its query shape and, when relevant,
// patches its cached rows in place.
package lumen

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lumenstore/lumen/query"
	"github.com/lumenstore/lumen/schema"
	"github.com/lumenstore/lumen/sqlite"
	"github.com/lumenstore/lumen/subscription"
)

// DB is an open database: the SQLite store, the schema statements are
// validated against, and the registry that fans writes out to subscriptions.
type DB struct {
	store  *sqlite.Store
	schema *schema.Schema
	reg    *subscription.Registry
	logger *slog.Logger
}

// Option configures an open database.
type Option func(*DB)

// WithLogger sets the structured logger. Defaults to slog.Default.
func WithLogger(logger *slog.Logger) Option {
	return func(db *DB) {
		db.logger = logger
	}
}

// Open opens or creates the database at path, applies the schema's tables,
// and starts an empty subscription registry. Use ":memory:" for an
// in-process ephemeral database.
func Open(ctx context.Context, path string, sch *schema.Schema, opts ...Option) (*DB, error) {
	store, err := sqlite.Open(path)
	if err != nil {
		return nil, err
	}

	db := &DB{
		store:  store,
		schema: sch,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(db)
	}
	db.reg = subscription.NewRegistry(db.logger)

	if err := store.Init(ctx, sch); err != nil {
		store.Close()
		return nil, err
	}

	db.logger.Debug("database opened", "path", path, "tables", len(sch.Tables))
	return db, nil
}

// Close closes the underlying store. Open subscriptions stop receiving
// events; close them separately to release their consumers.
func (db *DB) Close() error {
	return db.store.Close()
}

// Schema returns the schema this database validates against.
func (db *DB) Schema() *schema.Schema {
	return db.schema
}

// Registry returns the subscription registry, mainly for tests and
// introspection.
func (db *DB) Registry() *subscription.Registry {
	return db.reg
}

// Store returns the underlying SQLite store.
func (db *DB) Store() *sqlite.Store {
	return db.store
}

// validateSelect wraps schema validation errors for the read path.
func (db *DB) validateSelect(stmt *query.SelectStmt) error {
	return joinValidation("select", db.schema.ValidateSelect(stmt))
}

func joinValidation(kind string, errs []schema.ValidationError) error {
	if len(errs) == 0 {
		return nil
	}
	joined := make([]error, len(errs))
	for i, e := range errs {
		joined[i] = e
	}
	return fmt.Errorf("%s statement invalid: %w", kind, errors.Join(joined...))
}
