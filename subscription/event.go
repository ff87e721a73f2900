package subscription

import (
	"fmt"

	"github.com/lumenstore/lumen/query"
	"github.com/lumenstore/lumen/value"
)

// EventKind distinguishes mutation event kinds.
type EventKind int

const (
	// EventInsert carries the complete inserted row.
	EventInsert EventKind = iota + 1
	// EventUpdate carries only the assigned columns plus the target-row filters.
	EventUpdate
	// EventDelete carries the target-row filters.
	EventDelete
)

// String returns the kind name for logs.
func (k EventKind) String() string {
	switch k {
	case EventInsert:
		return "insert"
	case EventUpdate:
		return "update"
	case EventDelete:
		return "delete"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// Event describes a completed write without requiring a read-back. Which of
// Values, Changed, and Filters is populated depends on Kind.
type Event struct {
	Table string
	Kind  EventKind

	// Values holds all columns of the inserted row (EventInsert).
	Values []value.Named

	// Changed holds the assigned columns, each as an expression (EventUpdate).
	Changed []query.NamedExpr

	// Filters identifies the targeted rows (EventUpdate, EventDelete).
	Filters []query.FieldFilter
}

// NewInsertEvent builds the event for a completed INSERT.
func NewInsertEvent(table string, values []value.Named) *Event {
	return &Event{Table: table, Kind: EventInsert, Values: values}
}

// NewUpdateEvent builds the event for a completed UPDATE.
func NewUpdateEvent(table string, changed []query.NamedExpr, filters []query.FieldFilter) *Event {
	return &Event{Table: table, Kind: EventUpdate, Changed: changed, Filters: filters}
}

// NewDeleteEvent builds the event for a completed DELETE.
func NewDeleteEvent(table string, filters []query.FieldFilter) *Event {
	return &Event{Table: table, Kind: EventDelete, Filters: filters}
}

// EventForInsert derives the event a finished insert statement broadcasts.
func EventForInsert(stmt *query.InsertStmt) *Event {
	return NewInsertEvent(stmt.Table, stmt.Values)
}

// EventForUpdate derives the event a finished update statement broadcasts.
func EventForUpdate(stmt *query.UpdateStmt) *Event {
	return NewUpdateEvent(stmt.Table, stmt.Changed, stmt.Filters)
}

// EventForDelete derives the event a finished delete statement broadcasts.
func EventForDelete(stmt *query.DeleteStmt) *Event {
	return NewDeleteEvent(stmt.Table, stmt.Filters)
}
