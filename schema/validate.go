package schema

import (
	"fmt"

	"github.com/lumenstore/lumen/query"
	"github.com/lumenstore/lumen/value"
)

// Validation error codes (E200-E299)
const (
	ErrUnknownTable     = "E200" // statement references an undefined table
	ErrUnknownField     = "E201" // statement references an undefined column
	ErrKindMismatch     = "E202" // value kind does not match the column type
	ErrNullNotAllowed   = "E203" // null written to a non-nullable column
	ErrEmptyFieldList   = "E204" // select with no fields
	ErrEmptyValueList   = "E205" // insert with no values
	ErrEmptyChangeList  = "E206" // update with no assignments
	ErrDuplicateColumn  = "E207" // column assigned or inserted twice
	ErrEmptyInSet       = "E208" // In filter with an empty candidate set
	ErrNegativeLimit    = "E209" // select with a negative limit
	ErrMissingRequired  = "E210" // insert omits a non-nullable column
	ErrUnorderableField = "E211" // ORDER BY on a blob column
)

// ValidationError reports one statement validation failure.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// ValidateSelect checks a select statement against the schema. Returns all
// errors found rather than failing fast.
func (s *Schema) ValidateSelect(stmt *query.SelectStmt) []ValidationError {
	var errs []ValidationError

	if len(stmt.FieldNames) == 0 {
		errs = append(errs, ValidationError{
			Field:   "fields",
			Message: "select must name at least one field",
			Code:    ErrEmptyFieldList,
		})
	}
	if stmt.Limit < 0 {
		errs = append(errs, ValidationError{
			Field:   "limit",
			Message: fmt.Sprintf("limit must be non-negative, got %d", stmt.Limit),
			Code:    ErrNegativeLimit,
		})
	}

	tables := make([]*Table, 0, len(stmt.Tables))
	for _, name := range stmt.Tables {
		table, ok := s.TableNamed(name)
		if !ok {
			errs = append(errs, ValidationError{
				Field:   "tables",
				Message: fmt.Sprintf("unknown table %q", name),
				Code:    ErrUnknownTable,
			})
			continue
		}
		tables = append(tables, table)
	}
	if len(tables) < len(stmt.Tables) {
		// Field resolution against a missing table would only cascade noise.
		return errs
	}

	for i, name := range stmt.FieldNames {
		if !anyTableHasField(tables, name) {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("fields[%d]", i),
				Message: fmt.Sprintf("unknown field %q", name),
				Code:    ErrUnknownField,
			})
		}
	}

	errs = append(errs, s.validateFilters(stmt.Filters)...)

	for i, ord := range stmt.Orders {
		table, ok := s.TableNamed(ord.Table)
		if !ok {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("order_by[%d]", i),
				Message: fmt.Sprintf("unknown table %q", ord.Table),
				Code:    ErrUnknownTable,
			})
			continue
		}
		field, ok := table.FieldNamed(ord.Field)
		if !ok {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("order_by[%d]", i),
				Message: fmt.Sprintf("unknown field %q in table %q", ord.Field, ord.Table),
				Code:    ErrUnknownField,
			})
			continue
		}
		if field.Kind == value.KindBlob {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("order_by[%d]", i),
				Message: fmt.Sprintf("cannot order by blob field %q", ord.Field),
				Code:    ErrUnorderableField,
			})
		}
	}

	return errs
}

// ValidateInsert checks an insert statement against the schema.
func (s *Schema) ValidateInsert(stmt *query.InsertStmt) []ValidationError {
	var errs []ValidationError

	table, ok := s.TableNamed(stmt.Table)
	if !ok {
		return append(errs, ValidationError{
			Field:   "table",
			Message: fmt.Sprintf("unknown table %q", stmt.Table),
			Code:    ErrUnknownTable,
		})
	}

	if len(stmt.Values) == 0 {
		errs = append(errs, ValidationError{
			Field:   "values",
			Message: "insert must set at least one column",
			Code:    ErrEmptyValueList,
		})
	}

	seen := make(map[string]bool, len(stmt.Values))
	for i, nv := range stmt.Values {
		if seen[nv.Column] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("values[%d]", i),
				Message: fmt.Sprintf("column %q set more than once", nv.Column),
				Code:    ErrDuplicateColumn,
			})
		}
		seen[nv.Column] = true

		field, ok := table.FieldNamed(nv.Column)
		if !ok {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("values[%d]", i),
				Message: fmt.Sprintf("unknown field %q in table %q", nv.Column, stmt.Table),
				Code:    ErrUnknownField,
			})
			continue
		}
		errs = append(errs, checkKind(field, nv.Value, fmt.Sprintf("values[%d]", i))...)
	}

	for _, field := range table.Fields {
		if !field.Nullable && !seen[field.Name] {
			errs = append(errs, ValidationError{
				Field:   "values",
				Message: fmt.Sprintf("non-nullable field %q must be set", field.Name),
				Code:    ErrMissingRequired,
			})
		}
	}

	return errs
}

// ValidateUpdate checks an update statement against the schema. Assigned
// expressions are validated only when they are literals; computed
// expressions resolve against row data at merge time and cannot be checked
// statically.
func (s *Schema) ValidateUpdate(stmt *query.UpdateStmt) []ValidationError {
	var errs []ValidationError

	table, ok := s.TableNamed(stmt.Table)
	if !ok {
		return append(errs, ValidationError{
			Field:   "table",
			Message: fmt.Sprintf("unknown table %q", stmt.Table),
			Code:    ErrUnknownTable,
		})
	}

	if len(stmt.Changed) == 0 {
		errs = append(errs, ValidationError{
			Field:   "set",
			Message: "update must assign at least one column",
			Code:    ErrEmptyChangeList,
		})
	}

	seen := make(map[string]bool, len(stmt.Changed))
	for i, ch := range stmt.Changed {
		if seen[ch.Column] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("set[%d]", i),
				Message: fmt.Sprintf("column %q assigned more than once", ch.Column),
				Code:    ErrDuplicateColumn,
			})
		}
		seen[ch.Column] = true

		field, ok := table.FieldNamed(ch.Column)
		if !ok {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("set[%d]", i),
				Message: fmt.Sprintf("unknown field %q in table %q", ch.Column, stmt.Table),
				Code:    ErrUnknownField,
			})
			continue
		}
		if lit, ok := ch.Expr.(query.Literal); ok {
			errs = append(errs, checkKind(field, lit.Value, fmt.Sprintf("set[%d]", i))...)
		}
	}

	errs = append(errs, s.validateFilters(stmt.Filters)...)
	return errs
}

// ValidateDelete checks a delete statement against the schema.
func (s *Schema) ValidateDelete(stmt *query.DeleteStmt) []ValidationError {
	var errs []ValidationError

	if _, ok := s.TableNamed(stmt.Table); !ok {
		return append(errs, ValidationError{
			Field:   "table",
			Message: fmt.Sprintf("unknown table %q", stmt.Table),
			Code:    ErrUnknownTable,
		})
	}

	errs = append(errs, s.validateFilters(stmt.Filters)...)
	return errs
}

func (s *Schema) validateFilters(filters []query.FieldFilter) []ValidationError {
	var errs []ValidationError
	for i, f := range filters {
		label := fmt.Sprintf("filters[%d]", i)

		table, ok := s.TableNamed(f.Left.Table)
		if !ok {
			errs = append(errs, ValidationError{
				Field:   label,
				Message: fmt.Sprintf("unknown table %q", f.Left.Table),
				Code:    ErrUnknownTable,
			})
			continue
		}
		field, ok := table.FieldNamed(f.Left.Field)
		if !ok {
			errs = append(errs, ValidationError{
				Field:   label,
				Message: fmt.Sprintf("unknown field %q in table %q", f.Left.Field, f.Left.Table),
				Code:    ErrUnknownField,
			})
			continue
		}

		if f.Op == query.OpIn {
			if len(f.Set) == 0 {
				errs = append(errs, ValidationError{
					Field:   label,
					Message: "in filter requires a non-empty candidate set",
					Code:    ErrEmptyInSet,
				})
			}
			for j, v := range f.Set {
				errs = append(errs, checkKind(field, v, fmt.Sprintf("%s.set[%d]", label, j))...)
			}
			continue
		}

		errs = append(errs, checkKind(field, f.Right, label)...)
	}
	return errs
}

// checkKind verifies a value against a column definition. Int values are
// accepted where bigint is declared; everything else must match exactly.
func checkKind(field *Field, v value.Value, label string) []ValidationError {
	kind := value.KindOf(v)

	if kind == value.KindNull {
		if field.Nullable {
			return nil
		}
		return []ValidationError{{
			Field:   label,
			Message: fmt.Sprintf("field %q is not nullable", field.Name),
			Code:    ErrNullNotAllowed,
		}}
	}

	if kind == field.Kind {
		return nil
	}
	if kind == value.KindInt && field.Kind == value.KindBigInt {
		return nil
	}

	return []ValidationError{{
		Field:   label,
		Message: fmt.Sprintf("field %q expects %s, got %s", field.Name, KindName(field.Kind), KindName(kind)),
		Code:    ErrKindMismatch,
	}}
}

func anyTableHasField(tables []*Table, name string) bool {
	for _, t := range tables {
		if _, ok := t.FieldNamed(name); ok {
			return true
		}
	}
	return false
}
