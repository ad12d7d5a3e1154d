// Package valuerange implements the set of values an attribute or variable
// may take: a single value, a continuous interval, a stepped range, a finite
// set, or a fixed numeric vector.
package valuerange

import (
	"fmt"
	"strconv"
	"strings"
)

// ValueKind tags a Value.
type ValueKind int

const (
	NumberValue ValueKind = iota
	StringValue
	VectorValue
)

// Value is one concrete attribute value.
type Value struct {
	kind ValueKind
	num  float64
	str  string
	vec  []float64
}

// Number returns a numeric value.
func Number(f float64) Value {
	return Value{kind: NumberValue, num: f}
}

// String returns a string value.
func String(s string) Value {
	return Value{kind: StringValue, str: s}
}

// Vec returns a vector value. The components are copied.
func Vec(components ...float64) Value {
	v := make([]float64, len(components))
	copy(v, components)
	return Value{kind: VectorValue, vec: v}
}

func (v Value) Kind() ValueKind { return v.kind }

// Float returns the numeric value and whether v is a number.
func (v Value) Float() (float64, bool) {
	return v.num, v.kind == NumberValue
}

// Str returns the string value and whether v is a string.
func (v Value) Str() (string, bool) {
	return v.str, v.kind == StringValue
}

// Components returns a copy of the vector components and whether v is a vector.
func (v Value) Components() ([]float64, bool) {
	if v.kind != VectorValue {
		return nil, false
	}
	out := make([]float64, len(v.vec))
	copy(out, v.vec)
	return out, true
}

// Equal compares kind and content.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case NumberValue:
		return v.num == o.num
	case StringValue:
		return v.str == o.str
	case VectorValue:
		if len(v.vec) != len(o.vec) {
			return false
		}
		for i := range v.vec {
			if v.vec[i] != o.vec[i] {
				return false
			}
		}
		return true
	default:
		panic(fmt.Sprintf("valuerange: unknown value kind %d", v.kind))
	}
}

// String renders numbers in shortest form, strings quoted and vectors as a
// parenthesized tuple.
func (v Value) String() string {
	switch v.kind {
	case NumberValue:
		return formatFloat(v.num)
	case StringValue:
		return strconv.Quote(v.str)
	case VectorValue:
		parts := make([]string, len(v.vec))
		for i, c := range v.vec {
			parts[i] = formatFloat(c)
		}
		return "(" + strings.Join(parts, ", ") + ")"
	default:
		panic(fmt.Sprintf("valuerange: unknown value kind %d", v.kind))
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
