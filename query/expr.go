package query

import (
	"fmt"

	"github.com/lumenstore/lumen/value"
)

// FieldExpr is a small expression tree for update right-hand sides. It lets
// the merge engine compute a write's effect against a cached row locally,
// without reading the new value back from the database.
//
// The union is sealed: Literal, FieldRef, and Concat are the only
// implementations.
type FieldExpr interface {
	// Resolve evaluates the expression against a known set of named values.
	// A FieldRef to an absent column resolves to Null.
	Resolve(row []value.Named) value.Value

	fieldExpr() // sealed
}

// Literal is a constant expression: SET field = 'value'.
type Literal struct {
	Value value.Value
}

func (Literal) fieldExpr() {}

// Resolve returns the literal value.
func (e Literal) Resolve(_ []value.Named) value.Value {
	return e.Value
}

// FieldRef references another column's current value: SET field = other.
type FieldRef struct {
	Column string
}

func (FieldRef) fieldExpr() {}

// Resolve looks up the referenced column; absent columns resolve to Null.
func (e FieldRef) Resolve(row []value.Named) value.Value {
	for _, nv := range row {
		if nv.Column == e.Column {
			return nv.Value
		}
	}
	return value.Null{}
}

// Concat is string concatenation: SET field = left || right.
type Concat struct {
	Left  FieldExpr
	Right FieldExpr
}

func (Concat) fieldExpr() {}

// Resolve concatenates two text operands. If either side is not text the
// right operand is returned unchanged, matching the merge engine's
// conservative local evaluation.
func (e Concat) Resolve(row []value.Named) value.Value {
	l := e.Left.Resolve(row)
	r := e.Right.Resolve(row)
	lt, lok := l.(value.Text)
	rt, rok := r.(value.Text)
	if lok && rok {
		return lt + rt
	}
	return r
}

// Lit wraps a raw value as a Literal expression.
func Lit(v value.Value) FieldExpr {
	return Literal{Value: v}
}

// Ref builds a FieldRef expression.
func Ref(column string) FieldExpr {
	return FieldRef{Column: column}
}

// Cat builds a Concat expression.
func Cat(left, right FieldExpr) FieldExpr {
	return Concat{Left: left, Right: right}
}

// NamedExpr pairs a column with the expression assigned to it by an UPDATE.
type NamedExpr struct {
	Column string
	Expr   FieldExpr
}

// ExprEqual reports structural equality of two expressions.
func ExprEqual(a, b FieldExpr) bool {
	switch ae := a.(type) {
	case Literal:
		be, ok := b.(Literal)
		return ok && value.Equal(ae.Value, be.Value)
	case FieldRef:
		be, ok := b.(FieldRef)
		return ok && ae.Column == be.Column
	case Concat:
		be, ok := b.(Concat)
		return ok && ExprEqual(ae.Left, be.Left) && ExprEqual(ae.Right, be.Right)
	default:
		return false
	}
}

// ExprString renders an expression for debug output.
func ExprString(e FieldExpr) string {
	switch ee := e.(type) {
	case Literal:
		return value.String(ee.Value)
	case FieldRef:
		return ee.Column
	case Concat:
		return fmt.Sprintf("(%s || %s)", ExprString(ee.Left), ExprString(ee.Right))
	default:
		return fmt.Sprintf("%v", e)
	}
}
