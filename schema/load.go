package schema

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// Compile parses a CUE value into a Schema. Uses the CUE SDK's Go API
// directly, not a CLI subprocess.
//
// The CUE value is expected to look like:
//
//	tables: {
//	    tracks: {
//	        fields: {
//	            id:    "bigint"
//	            title: "text"
//	            plays: {type: "int", nullable: true}
//	        }
//	    }
//	}
//
// A field may be a bare type string or a struct with a required type and an
// optional nullable flag.
func Compile(v cue.Value) (*Schema, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	tablesVal := v.LookupPath(cue.ParsePath("tables"))
	if !tablesVal.Exists() {
		return nil, &CompileError{
			Field:   "tables",
			Message: "tables is required",
			Pos:     v.Pos(),
		}
	}

	iter, err := tablesVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	schema := &Schema{}
	for iter.Next() {
		table, err := compileTable(iter.Selector().Unquoted(), iter.Value())
		if err != nil {
			return nil, err
		}
		schema.Tables = append(schema.Tables, *table)
	}

	if len(schema.Tables) == 0 {
		return nil, &CompileError{
			Field:   "tables",
			Message: "at least one table is required",
			Pos:     tablesVal.Pos(),
		}
	}

	return schema, nil
}

// LoadFile reads and compiles a schema from a CUE file on disk.
func LoadFile(path string) (*Schema, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading schema file: %w", err)
	}
	return LoadBytes(path, src)
}

// LoadBytes compiles a schema from CUE source. The filename is used for
// error positions only.
func LoadBytes(filename string, src []byte) (*Schema, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(src, cue.Filename(filename))
	return Compile(v)
}

func compileTable(name string, v cue.Value) (*Table, error) {
	fieldsVal := v.LookupPath(cue.ParsePath("fields"))
	if !fieldsVal.Exists() {
		return nil, &CompileError{
			Field:   name + ".fields",
			Message: "fields is required",
			Pos:     v.Pos(),
		}
	}

	iter, err := fieldsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	table := &Table{Name: name}
	for iter.Next() {
		field, err := compileField(name, iter.Selector().Unquoted(), iter.Value())
		if err != nil {
			return nil, err
		}
		table.Fields = append(table.Fields, *field)
	}

	if len(table.Fields) == 0 {
		return nil, &CompileError{
			Field:   name + ".fields",
			Message: "at least one field is required",
			Pos:     fieldsVal.Pos(),
		}
	}

	return table, nil
}

func compileField(table, name string, v cue.Value) (*Field, error) {
	field := &Field{Name: name}

	// Bare string form: plays: "int"
	if typeStr, err := v.String(); err == nil {
		kind, err := ParseKind(typeStr)
		if err != nil {
			return nil, &CompileError{
				Field:   fmt.Sprintf("%s.fields.%s", table, name),
				Message: err.Error(),
				Pos:     v.Pos(),
			}
		}
		field.Kind = kind
		return field, nil
	}

	// Struct form: plays: {type: "int", nullable: true}
	typeVal := v.LookupPath(cue.ParsePath("type"))
	if !typeVal.Exists() {
		return nil, &CompileError{
			Field:   fmt.Sprintf("%s.fields.%s", table, name),
			Message: "must be a type string or a struct with a type field",
			Pos:     v.Pos(),
		}
	}
	typeStr, err := typeVal.String()
	if err != nil {
		return nil, formatCUEError(err)
	}
	kind, err := ParseKind(typeStr)
	if err != nil {
		return nil, &CompileError{
			Field:   fmt.Sprintf("%s.fields.%s", table, name),
			Message: err.Error(),
			Pos:     typeVal.Pos(),
		}
	}
	field.Kind = kind

	nullableVal := v.LookupPath(cue.ParsePath("nullable"))
	if nullableVal.Exists() {
		nullable, err := nullableVal.Bool()
		if err != nil {
			return nil, formatCUEError(err)
		}
		field.Nullable = nullable
	}

	return field, nil
}

// CompileError reports a schema compilation failure with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
