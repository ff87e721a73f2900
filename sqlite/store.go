// Package sqlite executes compiled statements against a SQLite database and
// converts result rows into engine values.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/lumenstore/lumen/schema"
	"github.com/lumenstore/lumen/value"
)

// Store wraps a SQLite connection configured for a single writer with
// concurrent readers.
type Store struct {
	db *sql.DB
}

// Open creates or opens a SQLite database at the given path. Use ":memory:"
// for an in-process ephemeral database.
//
// The connection is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode
//   - 5-second busy timeout for lock contention
//   - Foreign key enforcement
//
// Safe to call multiple times on the same path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite supports one writer at a time; a single connection avoids
	// SQLITE_BUSY errors under write contention.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying sql.DB for direct queries. Prefer the Store
// methods when one fits.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Init creates the schema's tables if they do not exist. Idempotent.
func (s *Store) Init(ctx context.Context, sch *schema.Schema) error {
	for _, table := range sch.Tables {
		ddl := createTableSQL(&table)
		if _, err := s.db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("failed to create table %q: %w", table.Name, err)
		}
	}
	return nil
}

// Exec runs a compiled statement that returns no rows.
func (s *Store) Exec(ctx context.Context, sqlText string, args ...any) error {
	if _, err := s.db.ExecContext(ctx, sqlText, args...); err != nil {
		return fmt.Errorf("exec failed: %w", err)
	}
	return nil
}

// Query runs a compiled statement and returns the resulting rows. Callers
// are responsible for closing the returned rows.
func (s *Store) Query(ctx context.Context, sqlText string, args ...any) (*sql.Rows, error) {
	return s.db.QueryContext(ctx, sqlText, args...)
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

func createTableSQL(table *schema.Table) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS %s (", quoteIdent(table.Name))
	for i, f := range table.Fields {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s %s", quoteIdent(f.Name), columnType(f.Kind))
		if !f.Nullable {
			b.WriteString(" NOT NULL")
		}
	}
	b.WriteByte(')')
	return b.String()
}

func columnType(k value.Kind) string {
	switch k {
	case value.KindInt, value.KindBigInt:
		return "INTEGER"
	case value.KindFloat, value.KindDouble:
		return "REAL"
	case value.KindText:
		return "TEXT"
	case value.KindBlob:
		return "BLOB"
	case value.KindBool:
		return "BOOLEAN"
	default:
		return "TEXT"
	}
}
