// Package schema defines table definitions and validates statements against
// them. Definitions are authored in CUE and loaded through the CUE Go API.
package schema

import (
	"fmt"

	"github.com/lumenstore/lumen/value"
)

// Schema is the set of tables a database exposes.
type Schema struct {
	Tables []Table
}

// Table describes one table: its name and its columns in declaration order.
type Table struct {
	Name   string
	Fields []Field
}

// Field describes one column.
type Field struct {
	Name     string
	Kind     value.Kind
	Nullable bool
}

// TableNamed returns the table definition for name.
func (s *Schema) TableNamed(name string) (*Table, bool) {
	for i := range s.Tables {
		if s.Tables[i].Name == name {
			return &s.Tables[i], true
		}
	}
	return nil, false
}

// FieldNamed returns the column definition for name.
func (t *Table) FieldNamed(name string) (*Field, bool) {
	for i := range t.Fields {
		if t.Fields[i].Name == name {
			return &t.Fields[i], true
		}
	}
	return nil, false
}

// FieldNames returns the column names in declaration order.
func (t *Table) FieldNames() []string {
	names := make([]string, len(t.Fields))
	for i, f := range t.Fields {
		names[i] = f.Name
	}
	return names
}

// ParseKind maps a schema type string to a value kind.
func ParseKind(s string) (value.Kind, error) {
	switch s {
	case "int":
		return value.KindInt, nil
	case "bigint":
		return value.KindBigInt, nil
	case "float":
		return value.KindFloat, nil
	case "double":
		return value.KindDouble, nil
	case "text":
		return value.KindText, nil
	case "blob":
		return value.KindBlob, nil
	case "bool":
		return value.KindBool, nil
	default:
		return 0, fmt.Errorf("unknown field type %q", s)
	}
}

// KindName is the inverse of ParseKind, for error messages.
func KindName(k value.Kind) string {
	switch k {
	case value.KindInt:
		return "int"
	case value.KindBigInt:
		return "bigint"
	case value.KindFloat:
		return "float"
	case value.KindDouble:
		return "double"
	case value.KindText:
		return "text"
	case value.KindBlob:
		return "blob"
	case value.KindBool:
		return "bool"
	case value.KindNull:
		return "null"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}
