package config

import (
	"errors"
	"fmt"

	"github.com/vk/spacerules/internal/valuerange"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
)

// ErrUnsupportedValue is returned for cty values with no model counterpart.
var ErrUnsupportedValue = errors.New("unsupported parameter value")

// FromCty converts an evaluated HCL value. Numbers and strings map directly,
// booleans become 1 or 0, and lists or tuples of numbers become vectors.
func FromCty(val cty.Value) (valuerange.Value, error) {
	if val.IsNull() || !val.IsWhollyKnown() {
		return valuerange.Value{}, fmt.Errorf("null or unknown value: %w", ErrUnsupportedValue)
	}
	ty := val.Type()
	switch {
	case ty == cty.Number:
		var f float64
		if err := gocty.FromCtyValue(val, &f); err != nil {
			return valuerange.Value{}, err
		}
		return valuerange.Number(f), nil
	case ty == cty.String:
		var s string
		if err := gocty.FromCtyValue(val, &s); err != nil {
			return valuerange.Value{}, err
		}
		return valuerange.String(s), nil
	case ty == cty.Bool:
		var b bool
		if err := gocty.FromCtyValue(val, &b); err != nil {
			return valuerange.Value{}, err
		}
		if b {
			return valuerange.Number(1), nil
		}
		return valuerange.Number(0), nil
	case ty.IsListType() || ty.IsTupleType():
		var components []float64
		for it := val.ElementIterator(); it.Next(); {
			_, elem := it.Element()
			var f float64
			if err := gocty.FromCtyValue(elem, &f); err != nil {
				return valuerange.Value{}, fmt.Errorf("vector component: %w", err)
			}
			components = append(components, f)
		}
		return valuerange.Vec(components...), nil
	default:
		return valuerange.Value{}, fmt.Errorf("%s: %w", ty.FriendlyName(), ErrUnsupportedValue)
	}
}

// ToCty converts a model value for HCL-aware consumers such as reports.
func ToCty(v valuerange.Value) (cty.Value, error) {
	switch v.Kind() {
	case valuerange.NumberValue:
		f, _ := v.Float()
		return gocty.ToCtyValue(f, cty.Number)
	case valuerange.StringValue:
		s, _ := v.Str()
		return gocty.ToCtyValue(s, cty.String)
	case valuerange.VectorValue:
		components, _ := v.Components()
		return gocty.ToCtyValue(components, cty.List(cty.Number))
	default:
		return cty.NilVal, fmt.Errorf("value kind %d: %w", v.Kind(), ErrUnsupportedValue)
	}
}
