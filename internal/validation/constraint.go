package validation

import (
	"math"
	"strings"
)

// Type is the scalar type a field value must have.
type Type int

// Scalar types understood by the validator.
const (
	String Type = iota + 1
	Number
	Boolean
)

// String returns the name used in validation messages.
func (t Type) String() string {
	switch t {
	case String:
		return "string"
	case Number:
		return "number"
	case Boolean:
		return "boolean"
	default:
		return "unknown"
	}
}

// Constraint is the rule applied to one field.
// Its implementations are Pattern, Range, Enum and Bare.
type Constraint interface {
	// Type is the scalar type the value must have before any other check.
	Type() Type

	sealed()
}

// Pattern constrains a string by length (in characters) and a regular
// expression that must match the whole value. Zero lengths and an empty
// Expr disable the corresponding check.
type Pattern struct {
	Expr      string
	MinLength int
	MaxLength int
}

// Range constrains a number to inclusive bounds. Nil bounds are open.
type Range struct {
	Min *Limit
	Max *Limit
}

// Limit is one Range bound. Float records that the bound was declared as
// a floating-point value, so a whole one is shown as 10.0 rather than 10.
type Limit struct {
	Value float64
	Float bool
}

// Enum restricts a value of type Of to one of Values.
type Enum struct {
	Of     Type
	Values []any
}

// Bare only checks that the value has type Of.
type Bare struct {
	Of Type
}

func (Pattern) Type() Type { return String }
func (Range) Type() Type   { return Number }
func (e Enum) Type() Type  { return e.Of }
func (b Bare) Type() Type  { return b.Of }

func (Pattern) sealed() {}
func (Range) sealed()   {}
func (Enum) sealed()    {}
func (Bare) sealed()    {}

// Field pairs a payload key with its constraint.
type Field struct {
	Name       string
	Constraint Constraint
}

// Bound returns a Range bound. Bound(10) renders as `10`, Bound(10.0) as
// `10.0`.
func Bound[T int | float64](v T) *Limit {
	_, isFloat := any(v).(float64)
	return &Limit{Value: float64(v), Float: isFloat}
}

// String renders the bound as it appears in validation messages.
func (l Limit) String() string {
	s := FormatNumber(l.Value)
	if l.Float && !strings.ContainsAny(s, ".eE") && !math.IsInf(l.Value, 0) && !math.IsNaN(l.Value) {
		s += ".0"
	}
	return s
}
