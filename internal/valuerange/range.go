package valuerange

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strings"
)

var (
	// ErrNotEnumerable is returned by ToList for continuous intervals.
	ErrNotEnumerable = errors.New("range cannot be enumerated")
	// ErrMixedSet is returned when a set mixes numbers and strings.
	ErrMixedSet = errors.New("set mixes numeric and string members")
	// ErrInvalidStep is returned for a non-positive or non-finite step.
	ErrInvalidStep = errors.New("step must be a positive finite number")
	// ErrUnbounded is returned when sampling an interval with an infinite bound.
	ErrUnbounded = errors.New("range is unbounded")
	// ErrEmpty is returned when sampling a range without members.
	ErrEmpty = errors.New("range is empty")
)

// Unbounded is the Size of a continuous interval.
const Unbounded = -1

// stepEpsilon absorbs float error when counting steps.
const stepEpsilon = 1e-9

// Kind tags a Range.
type Kind int

const (
	KindSingle Kind = iota
	KindInterval
	KindStepped
	KindSet
	KindVector
)

func (k Kind) String() string {
	switch k {
	case KindSingle:
		return "single"
	case KindInterval:
		return "interval"
	case KindStepped:
		return "stepped"
	case KindSet:
		return "set"
	case KindVector:
		return "vector"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Range is a closed tagged union over the five range shapes. Interval and
// Stepped are numeric only; a Set is all numbers or all strings.
type Range struct {
	kind Kind

	value Value // single, vector

	lower, upper, step float64 // interval, stepped
	incLower, incUpper bool    // interval

	members []Value // set
}

// Single returns a one-value range.
func Single(v Value) Range {
	return Range{kind: KindSingle, value: v}
}

// Interval returns a continuous numeric interval.
func Interval(lower, upper float64, incLower, incUpper bool) Range {
	return Range{kind: KindInterval, lower: lower, upper: upper, incLower: incLower, incUpper: incUpper}
}

// AtLeast is the `>x` form: exclusive at x, infinite above.
func AtLeast(x float64) Range {
	return Interval(x, math.Inf(1), false, false)
}

// AtMost is the `<x` form: exclusive at x, infinite below.
func AtMost(x float64) Range {
	return Interval(math.Inf(-1), x, false, false)
}

// Stepped returns lower, lower+step, ... up to upper.
func Stepped(lower, step, upper float64) (Range, error) {
	if !(step > 0) || math.IsInf(step, 0) {
		return Range{}, fmt.Errorf("stepped range [%s..%s step %s]: %w", formatFloat(lower), formatFloat(upper), formatFloat(step), ErrInvalidStep)
	}
	if math.IsInf(lower, 0) || math.IsInf(upper, 0) || math.IsNaN(lower) || math.IsNaN(upper) {
		return Range{}, fmt.Errorf("stepped range [%s..%s]: %w", formatFloat(lower), formatFloat(upper), ErrUnbounded)
	}
	return Range{kind: KindStepped, lower: lower, step: step, upper: upper}, nil
}

// NewSet collapses duplicates while keeping first-seen order.
func NewSet(values ...Value) (Range, error) {
	members := make([]Value, 0, len(values))
	for _, v := range values {
		if v.kind == VectorValue {
			return Range{}, fmt.Errorf("set member %s: vectors cannot be set members", v)
		}
		if len(members) > 0 && members[0].kind != v.kind {
			return Range{}, fmt.Errorf("set member %s: %w", v, ErrMixedSet)
		}
		dup := false
		for _, m := range members {
			if m.Equal(v) {
				dup = true
				break
			}
		}
		if !dup {
			members = append(members, v)
		}
	}
	return Range{kind: KindSet, members: members}, nil
}

// Vector returns a fixed-length tuple range.
func Vector(components ...float64) Range {
	return Range{kind: KindVector, value: Vec(components...)}
}

func (r Range) Kind() Kind { return r.kind }

// Value returns the value of a single or vector range.
func (r Range) Value() (Value, bool) {
	if r.kind == KindSingle || r.kind == KindVector {
		return r.value, true
	}
	return Value{}, false
}

// Bounds returns the numeric bounds of an interval or stepped range.
func (r Range) Bounds() (lower, upper float64, incLower, incUpper bool) {
	switch r.kind {
	case KindStepped:
		return r.lower, r.upper, true, true
	default:
		return r.lower, r.upper, r.incLower, r.incUpper
	}
}

// IsNumeric reports whether every member is a number.
func (r Range) IsNumeric() bool {
	switch r.kind {
	case KindSingle:
		return r.value.kind == NumberValue
	case KindInterval, KindStepped:
		return true
	case KindSet:
		return len(r.members) == 0 || r.members[0].kind == NumberValue
	case KindVector:
		return false
	default:
		panic(fmt.Sprintf("valuerange: unknown kind %d", r.kind))
	}
}

// Bounded reports whether the range can be enumerated.
func (r Range) Bounded() bool {
	return r.Size() != Unbounded
}

// Size is the number of members, or Unbounded for a continuous interval.
// A degenerate closed interval [a..a] has one member; an empty one has none.
func (r Range) Size() int {
	switch r.kind {
	case KindSingle, KindVector:
		return 1
	case KindInterval:
		if r.lower == r.upper {
			if r.incLower && r.incUpper {
				return 1
			}
			return 0
		}
		if r.lower > r.upper {
			return 0
		}
		return Unbounded
	case KindStepped:
		if r.lower > r.upper {
			return 0
		}
		return int(math.Floor((r.upper-r.lower)/r.step+stepEpsilon)) + 1
	case KindSet:
		return len(r.members)
	default:
		panic(fmt.Sprintf("valuerange: unknown kind %d", r.kind))
	}
}

// ToList enumerates the members in ascending (stepped) or insertion (set) order.
func (r Range) ToList() ([]Value, error) {
	switch r.kind {
	case KindSingle, KindVector:
		return []Value{r.value}, nil
	case KindInterval:
		switch r.Size() {
		case 0:
			return []Value{}, nil
		case 1:
			return []Value{Number(r.lower)}, nil
		}
		return nil, fmt.Errorf("interval %s: %w", r, ErrNotEnumerable)
	case KindStepped:
		n := r.Size()
		out := make([]Value, n)
		for i := 0; i < n; i++ {
			out[i] = Number(r.member(i))
		}
		return out, nil
	case KindSet:
		out := make([]Value, len(r.members))
		copy(out, r.members)
		return out, nil
	default:
		panic(fmt.Sprintf("valuerange: unknown kind %d", r.kind))
	}
}

// Contains tests membership using the declared inclusivity.
func (r Range) Contains(v Value) bool {
	switch r.kind {
	case KindSingle, KindVector:
		return r.value.Equal(v)
	case KindInterval:
		x, ok := v.Float()
		if !ok {
			return false
		}
		if x < r.lower || (x == r.lower && !r.incLower) {
			return false
		}
		if x > r.upper || (x == r.upper && !r.incUpper) {
			return false
		}
		return true
	case KindStepped:
		x, ok := v.Float()
		if !ok || x < r.lower-stepEpsilon || x > r.upper+stepEpsilon {
			return false
		}
		steps := (x - r.lower) / r.step
		return math.Abs(steps-math.Round(steps)) < stepEpsilon
	case KindSet:
		for _, m := range r.members {
			if m.Equal(v) {
				return true
			}
		}
		return false
	default:
		panic(fmt.Sprintf("valuerange: unknown kind %d", r.kind))
	}
}

// Sample draws a member uniformly. Intervals draw from [lower, upper); the
// inclusivity flags do not matter for a continuous draw.
func (r Range) Sample(rng *rand.Rand) (Value, error) {
	switch r.kind {
	case KindSingle, KindVector:
		return r.value, nil
	case KindInterval:
		if math.IsInf(r.lower, 0) || math.IsInf(r.upper, 0) {
			return Value{}, fmt.Errorf("sample %s: %w", r, ErrUnbounded)
		}
		if r.lower > r.upper {
			return Value{}, fmt.Errorf("sample %s: %w", r, ErrEmpty)
		}
		return Number(r.lower + rng.Float64()*(r.upper-r.lower)), nil
	case KindStepped, KindSet:
		n := r.Size()
		if n == 0 {
			return Value{}, fmt.Errorf("sample %s: %w", r, ErrEmpty)
		}
		i := rng.Intn(n)
		if r.kind == KindSet {
			return r.members[i], nil
		}
		return Number(r.member(i)), nil
	default:
		panic(fmt.Sprintf("valuerange: unknown kind %d", r.kind))
	}
}

// member is the i-th element of a stepped range, clamped so float error
// never pushes the last element past upper.
func (r Range) member(i int) float64 {
	return math.Min(r.lower+float64(i)*r.step, r.upper)
}

func (r Range) String() string {
	switch r.kind {
	case KindSingle, KindVector:
		return r.value.String()
	case KindInterval:
		if math.IsInf(r.upper, 1) && !math.IsInf(r.lower, 0) && !r.incLower {
			return ">" + formatFloat(r.lower)
		}
		if math.IsInf(r.lower, -1) && !math.IsInf(r.upper, 0) && !r.incUpper {
			return "<" + formatFloat(r.upper)
		}
		open, closing := "(", ")"
		if r.incLower {
			open = "["
		}
		if r.incUpper {
			closing = "]"
		}
		return open + formatFloat(r.lower) + ".." + formatFloat(r.upper) + closing
	case KindStepped:
		return "[" + formatFloat(r.lower) + ".." + formatFloat(r.upper) + " step " + formatFloat(r.step) + "]"
	case KindSet:
		parts := make([]string, len(r.members))
		for i, m := range r.members {
			parts[i] = m.String()
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		panic(fmt.Sprintf("valuerange: unknown kind %d", r.kind))
	}
}
