package harness

import (
	"strings"

	"github.com/lumenstore/lumen/value"
)

// Record is a dynamic result row: an ordered value list matching the
// subscribed field names. Scenarios use it so the harness does not need a
// generated struct per schema.
type Record struct {
	values []value.Value
}

// AppendValues appends the record's values in field order.
func (r Record) AppendValues(dst []value.Value) []value.Value {
	return append(dst, r.values...)
}

// ScanValues accepts any value stream; scenarios are schema-checked at the
// statement level, not per row.
func (r *Record) ScanValues(values []value.Value) error {
	r.values = make([]value.Value, len(values))
	for i, v := range values {
		r.values[i] = value.Clone(v)
	}
	return nil
}

// Render formats the record as "name=value" pairs using the subscribed
// field names.
func (r Record) Render(fieldNames []string) string {
	var b strings.Builder
	for i, v := range r.values {
		if i > 0 {
			b.WriteByte(' ')
		}
		name := "?"
		if i < len(fieldNames) {
			name = fieldNames[i]
		}
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(value.String(v))
	}
	return b.String()
}
