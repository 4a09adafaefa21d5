package dataset

import (
	"math"
	"strconv"
)

// Kind classifies a cell or a column.
type Kind uint8

const (
	// KindNull marks a missing value.
	KindNull Kind = iota
	// KindText marks free-form or categorical text.
	KindText
	// KindNumber marks a real-valued number.
	KindNumber
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindNumber:
		return "number"
	default:
		return "null"
	}
}

// Value is a single immutable cell.
// The zero Value is null.
type Value struct {
	kind Kind
	text string
	num  float64
}

// Text returns a text cell.
func Text(s string) Value {
	return Value{kind: KindText, text: s}
}

// Number returns a numeric cell.
func Number(f float64) Value {
	return Value{kind: KindNumber, num: f}
}

// Null returns a missing cell.
func Null() Value {
	return Value{}
}

// Kind returns the cell kind.
func (v Value) Kind() Kind {
	return v.kind
}

// IsNull reports whether the cell is missing.
func (v Value) IsNull() bool {
	return v.kind == KindNull
}

// String returns the stringified cell. Null cells stringify to "" and
// numbers use the shortest representation that round-trips, so 100000.0
// becomes "100000".
func (v Value) String() string {
	switch v.kind {
	case KindText:
		return v.text
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	default:
		return ""
	}
}

// Float returns the numeric value of the cell, or NaN if the cell is not a number.
func (v Value) Float() float64 {
	if v.kind != KindNumber {
		return math.NaN()
	}
	return v.num
}
