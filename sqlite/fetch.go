package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/lumenstore/lumen/query"
	"github.com/lumenstore/lumen/value"
)

// Select executes a select statement and returns the raw value rows in
// result order. With withOrderKeys set, each row also gets the sort key the
// subscription engine needs for its ordered cache; ORDER BY columns outside
// the selected field list are fetched as trailing extra columns and stripped
// from the returned rows.
func (s *Store) Select(ctx context.Context, stmt *query.SelectStmt, withOrderKeys bool) ([][]value.Value, []value.OrderKey, error) {
	sqlText, args := CompileSelect(stmt, withOrderKeys)

	rows, err := s.db.QueryContext(ctx, sqlText, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("select failed: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, fmt.Errorf("reading columns: %w", err)
	}

	userFieldCount := len(stmt.FieldNames)

	// Map each ORDER BY clause to its column index: selected columns are
	// found in place, the rest follow as trailing extras in clause order.
	var keyIndices []int
	var descending []bool
	if withOrderKeys {
		extra := userFieldCount
		for _, ord := range stmt.Orders {
			if pos := indexOf(stmt.FieldNames, ord.Field); pos >= 0 {
				keyIndices = append(keyIndices, pos)
			} else {
				keyIndices = append(keyIndices, extra)
				extra++
			}
			descending = append(descending, ord.Direction == query.Desc)
		}
	}

	var out [][]value.Value
	var keys []value.OrderKey

	scan := make([]any, len(cols))
	for i := range scan {
		scan[i] = new(any)
	}

	for rows.Next() {
		if err := rows.Scan(scan...); err != nil {
			return nil, nil, fmt.Errorf("scanning row: %w", err)
		}

		all := make([]value.Value, len(cols))
		for i, cell := range scan {
			all[i] = driverValue(*cell.(*any))
		}

		if withOrderKeys {
			components := make([]value.Value, len(keyIndices))
			for i, idx := range keyIndices {
				components[i] = value.Clone(all[idx])
			}
			keys = append(keys, value.NewOrderKey(components, descending))
		}

		out = append(out, all[:userFieldCount])
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterating rows: %w", err)
	}

	return out, keys, nil
}

// ExecInsert compiles and runs an insert.
func (s *Store) ExecInsert(ctx context.Context, stmt *query.InsertStmt) error {
	sqlText, args := CompileInsert(stmt)
	return s.Exec(ctx, sqlText, args...)
}

// ExecUpdate compiles and runs an update.
func (s *Store) ExecUpdate(ctx context.Context, stmt *query.UpdateStmt) error {
	sqlText, args := CompileUpdate(stmt)
	return s.Exec(ctx, sqlText, args...)
}

// ExecDelete compiles and runs a delete.
func (s *Store) ExecDelete(ctx context.Context, stmt *query.DeleteStmt) error {
	sqlText, args := CompileDelete(stmt)
	return s.Exec(ctx, sqlText, args...)
}

// driverValue converts a dynamically typed driver cell to an engine value.
// SQLite reports integers as int64 and reals as float64 regardless of the
// declared column type; narrowing to Int or Float happens in the row type's
// ScanValues.
func driverValue(raw any) value.Value {
	switch v := raw.(type) {
	case nil:
		return value.Null{}
	case int64:
		return value.BigInt(v)
	case float64:
		return value.Double(v)
	case string:
		return value.Text(v)
	case []byte:
		b := make([]byte, len(v))
		copy(b, v)
		return value.Blob(b)
	case bool:
		return value.Bool(v)
	case time.Time:
		return value.Text(v.Format(time.RFC3339Nano))
	default:
		return value.Text(fmt.Sprintf("%v", v))
	}
}

func indexOf(names []string, name string) int {
	for i, n := range names {
		if n == name {
			return i
		}
	}
	return -1
}
