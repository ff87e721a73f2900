// Package harness runs declarative live-query scenarios: a schema, one
// subscription, and a sequence of writes, producing a text transcript of how
// the subscribed output evolved. Golden tests and the run command share it.
package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/lumenstore/lumen/query"
	"github.com/lumenstore/lumen/schema"
	"github.com/lumenstore/lumen/value"
)

// Scenario defines one live-query scenario.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what the scenario demonstrates.
	Description string `yaml:"description,omitempty"`

	// Schema is the path to the CUE schema file, relative to the scenario
	// file location.
	Schema string `yaml:"schema"`

	// Setup contains writes executed before the subscription starts. They
	// establish the initial database state.
	Setup []Step `yaml:"setup,omitempty"`

	// Subscribe describes the live query under test.
	Subscribe SubscribeSpec `yaml:"subscribe"`

	// Steps are the writes executed after the subscription starts. The
	// transcript records the subscribed output after each one.
	Steps []Step `yaml:"steps"`
}

// SubscribeSpec describes the subscribed query.
type SubscribeSpec struct {
	Table   string      `yaml:"table"`
	Fields  []string    `yaml:"fields"`
	Where   []Where     `yaml:"where,omitempty"`
	OrderBy []OrderSpec `yaml:"order_by,omitempty"`

	// Mode is one of "all" (default), "many", "one", "first".
	Mode string `yaml:"mode,omitempty"`

	// Max caps the initial fetch in "many" mode.
	Max int `yaml:"max,omitempty"`
}

// OrderSpec is one ORDER BY entry.
type OrderSpec struct {
	Field     string `yaml:"field"`
	Direction string `yaml:"direction,omitempty"` // "asc" (default) or "desc"
}

// Where is one filter clause. Value carries the right-hand side for scalar
// operators; Values carries the candidate set for "in".
type Where struct {
	Field  string `yaml:"field"`
	Op     string `yaml:"op"` // eq, ne, gt, lt, gte, lte, in
	Value  any    `yaml:"value,omitempty"`
	Values []any  `yaml:"values,omitempty"`
}

// Step is exactly one write.
type Step struct {
	Insert *InsertSpec `yaml:"insert,omitempty"`
	Update *UpdateSpec `yaml:"update,omitempty"`
	Delete *DeleteSpec `yaml:"delete,omitempty"`
}

// InsertSpec inserts one row.
type InsertSpec struct {
	Table  string         `yaml:"table"`
	Values map[string]any `yaml:"values"`
}

// UpdateSpec updates rows matching Where. Set assigns literals; Concat
// assigns field-concatenation expressions.
type UpdateSpec struct {
	Table  string                `yaml:"table"`
	Set    map[string]any        `yaml:"set,omitempty"`
	Concat map[string]ConcatSpec `yaml:"concat,omitempty"`
	Where  []Where               `yaml:"where,omitempty"`
}

// ConcatSpec assigns column = Field || Literal.
type ConcatSpec struct {
	Field   string `yaml:"field"`
	Literal string `yaml:"literal"`
}

// DeleteSpec deletes rows matching Where.
type DeleteSpec struct {
	Table string  `yaml:"table"`
	Where []Where `yaml:"where,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file. The schema path is
// resolved relative to the scenario file. Unknown fields are rejected, which
// catches typos like "step:" for "steps:".
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Schema != "" && !filepath.IsAbs(scenario.Schema) {
		scenario.Schema = filepath.Join(filepath.Dir(path), scenario.Schema)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Schema == "" {
		return fmt.Errorf("schema is required")
	}
	if s.Subscribe.Table == "" {
		return fmt.Errorf("subscribe.table is required")
	}
	if len(s.Subscribe.Fields) == 0 {
		return fmt.Errorf("subscribe.fields is required and must be non-empty")
	}
	switch s.Subscribe.Mode {
	case "", "all", "many", "one", "first":
	default:
		return fmt.Errorf("subscribe.mode must be one of all, many, one, first; got %q", s.Subscribe.Mode)
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	for i, step := range s.Steps {
		if err := validateStep(step); err != nil {
			return fmt.Errorf("steps[%d]: %w", i, err)
		}
	}
	for i, step := range s.Setup {
		if err := validateStep(step); err != nil {
			return fmt.Errorf("setup[%d]: %w", i, err)
		}
	}
	return nil
}

func validateStep(s Step) error {
	n := 0
	if s.Insert != nil {
		n++
	}
	if s.Update != nil {
		n++
	}
	if s.Delete != nil {
		n++
	}
	if n != 1 {
		return fmt.Errorf("exactly one of insert, update, delete is required")
	}
	return nil
}

// SelectStmt builds the subscribed query.
func (s *SubscribeSpec) SelectStmt(sch *schema.Schema) (*query.SelectStmt, error) {
	stmt := query.Select(s.Table, s.Fields...)
	for i, w := range s.Where {
		f, err := whereToFilter(sch, s.Table, w)
		if err != nil {
			return nil, fmt.Errorf("where[%d]: %w", i, err)
		}
		stmt.Filter(f)
	}
	for i, ord := range s.OrderBy {
		dir := query.Asc
		switch ord.Direction {
		case "", "asc":
		case "desc":
			dir = query.Desc
		default:
			return nil, fmt.Errorf("order_by[%d]: direction must be asc or desc, got %q", i, ord.Direction)
		}
		stmt.OrderBy(s.Table, ord.Field, dir)
	}
	return stmt, nil
}

// Statement builds the step's write statement.
func (s Step) Statement(sch *schema.Schema) (any, string, error) {
	switch {
	case s.Insert != nil:
		stmt := query.InsertInto(s.Insert.Table)
		table, ok := sch.TableNamed(s.Insert.Table)
		if !ok {
			return nil, "", fmt.Errorf("insert: unknown table %q", s.Insert.Table)
		}
		// Iterate schema order so compiled SQL and events are deterministic.
		for _, field := range table.Fields {
			raw, present := s.Insert.Values[field.Name]
			if !present {
				continue
			}
			v, err := scalarForField(&field, raw)
			if err != nil {
				return nil, "", fmt.Errorf("insert.values.%s: %w", field.Name, err)
			}
			stmt.Set(field.Name, v)
		}
		return stmt, fmt.Sprintf("insert %s", s.Insert.Table), nil

	case s.Update != nil:
		stmt := query.Update(s.Update.Table)
		table, ok := sch.TableNamed(s.Update.Table)
		if !ok {
			return nil, "", fmt.Errorf("update: unknown table %q", s.Update.Table)
		}
		for _, field := range table.Fields {
			if raw, present := s.Update.Set[field.Name]; present {
				v, err := scalarForField(&field, raw)
				if err != nil {
					return nil, "", fmt.Errorf("update.set.%s: %w", field.Name, err)
				}
				stmt.SetValue(field.Name, v)
			}
			if spec, present := s.Update.Concat[field.Name]; present {
				stmt.Set(field.Name, query.Cat(query.Ref(spec.Field), query.Lit(value.Text(spec.Literal))))
			}
		}
		for i, w := range s.Update.Where {
			f, err := whereToFilter(sch, s.Update.Table, w)
			if err != nil {
				return nil, "", fmt.Errorf("update.where[%d]: %w", i, err)
			}
			stmt.Filter(f)
		}
		return stmt, fmt.Sprintf("update %s", s.Update.Table), nil

	case s.Delete != nil:
		stmt := query.Delete(s.Delete.Table)
		for i, w := range s.Delete.Where {
			f, err := whereToFilter(sch, s.Delete.Table, w)
			if err != nil {
				return nil, "", fmt.Errorf("delete.where[%d]: %w", i, err)
			}
			stmt.Filter(f)
		}
		return stmt, fmt.Sprintf("delete %s", s.Delete.Table), nil
	}

	return nil, "", fmt.Errorf("empty step")
}

func whereToFilter(sch *schema.Schema, tableName string, w Where) (query.FieldFilter, error) {
	table, ok := sch.TableNamed(tableName)
	if !ok {
		return query.FieldFilter{}, fmt.Errorf("unknown table %q", tableName)
	}
	field, ok := table.FieldNamed(w.Field)
	if !ok {
		return query.FieldFilter{}, fmt.Errorf("unknown field %q in table %q", w.Field, tableName)
	}

	if w.Op == "in" {
		members := make([]value.Value, len(w.Values))
		for i, raw := range w.Values {
			v, err := scalarForField(field, raw)
			if err != nil {
				return query.FieldFilter{}, fmt.Errorf("values[%d]: %w", i, err)
			}
			members[i] = v
		}
		return query.In(tableName, w.Field, members...), nil
	}

	v, err := scalarForField(field, w.Value)
	if err != nil {
		return query.FieldFilter{}, err
	}

	switch w.Op {
	case "eq":
		return query.Eq(tableName, w.Field, v), nil
	case "ne":
		return query.Ne(tableName, w.Field, v), nil
	case "gt":
		return query.Gt(tableName, w.Field, v), nil
	case "lt":
		return query.Lt(tableName, w.Field, v), nil
	case "gte":
		return query.Gte(tableName, w.Field, v), nil
	case "lte":
		return query.Lte(tableName, w.Field, v), nil
	default:
		return query.FieldFilter{}, fmt.Errorf("unknown op %q", w.Op)
	}
}

// scalarForField converts a YAML scalar to an engine value, narrowing to the
// column's declared kind. YAML integers arrive as int and would otherwise
// always read as bigint.
func scalarForField(field *schema.Field, raw any) (value.Value, error) {
	v, err := value.FromGo(raw)
	if err != nil {
		return nil, err
	}
	switch field.Kind {
	case value.KindInt:
		if bi, ok := v.(value.BigInt); ok {
			return value.Int(bi), nil
		}
	case value.KindFloat:
		if d, ok := v.(value.Double); ok {
			return value.Float(d), nil
		}
	}
	return v, nil
}
