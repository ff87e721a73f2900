package query

// Direction is an ORDER BY direction.
type Direction int

const (
	Asc Direction = iota
	Desc
)

// String returns the SQL spelling.
func (d Direction) String() string {
	if d == Desc {
		return "DESC"
	}
	return "ASC"
}

// OrderBy is one ORDER BY clause entry.
type OrderBy struct {
	Table     string
	Field     string
	Direction Direction
}
