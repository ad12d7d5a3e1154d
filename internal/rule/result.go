package rule

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strconv"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/spacerules/internal/expr"
	"github.com/vk/spacerules/internal/valuerange"
)

// ErrNotNumeric is returned when an arithmetic modifier meets a non-number.
var ErrNotNumeric = errors.New("attribute value is not numeric")

// ModifierKind tags a ValueModifier.
type ModifierKind int

const (
	ModKeep ModifierKind = iota
	ModIncrement
	ModDecrement
	ModSetExpr
	ModSetString
	ModSetRange
	ModRandomVector
)

// ValueModifier describes how a result entity's attribute is produced from
// the matched value.
type ValueModifier struct {
	Kind ModifierKind

	Expr  expr.Node        // SetExpr, and the dimension of RandomVector
	Text  string           // SetString
	Range valuerange.Range // SetRange
}

// Apply computes the new attribute value.
func (m ValueModifier) Apply(current valuerange.Value, b expr.Bindings, rng *rand.Rand) (valuerange.Value, error) {
	switch m.Kind {
	case ModKeep:
		return current, nil
	case ModIncrement, ModDecrement:
		x, ok := current.Float()
		if !ok {
			return valuerange.Value{}, fmt.Errorf("modify %s: %w", current, ErrNotNumeric)
		}
		if m.Kind == ModIncrement {
			return valuerange.Number(x + 1), nil
		}
		return valuerange.Number(x - 1), nil
	case ModSetExpr:
		v, err := m.Expr.Eval(b)
		if err != nil {
			return valuerange.Value{}, err
		}
		return valuerange.Number(v), nil
	case ModSetString:
		return valuerange.String(m.Text), nil
	case ModSetRange:
		return m.Range.Sample(rng)
	case ModRandomVector:
		d, err := m.Expr.Eval(b)
		if err != nil {
			return valuerange.Value{}, err
		}
		n := int(d)
		if n < 1 {
			return valuerange.Value{}, fmt.Errorf("random vector dimension %s must be at least 1", strconv.FormatFloat(d, 'g', -1, 64))
		}
		return valuerange.Vec(randomUnit(n, rng)...), nil
	default:
		panic(fmt.Sprintf("rule: unknown modifier kind %d", m.Kind))
	}
}

// randomUnit draws a direction uniformly on the unit sphere of dimension n.
func randomUnit(n int, rng *rand.Rand) []float64 {
	for {
		v := make([]float64, n)
		var norm float64
		for i := range v {
			v[i] = rng.NormFloat64()
			norm += v[i] * v[i]
		}
		if norm == 0 {
			continue
		}
		norm = math.Sqrt(norm)
		for i := range v {
			v[i] /= norm
		}
		return v
	}
}

// Variables lists the free variables the modifier depends on.
func (m ValueModifier) Variables() []string {
	if m.Kind == ModSetExpr || m.Kind == ModRandomVector {
		return expr.Variables(m.Expr)
	}
	return nil
}

// AttributeResult assigns one attribute of a result entity.
type AttributeResult struct {
	Attribute string
	Modifier  ValueModifier
	Range     hcl.Range
}

func (a AttributeResult) String() string {
	m := a.Modifier
	switch m.Kind {
	case ModKeep:
		return a.Attribute
	case ModIncrement:
		return a.Attribute + "++"
	case ModDecrement:
		return a.Attribute + "--"
	case ModSetExpr:
		return a.Attribute + " := " + m.Expr.String()
	case ModSetString:
		return a.Attribute + " := " + strconv.Quote(m.Text)
	case ModSetRange:
		return a.Attribute + " := " + m.Range.String()
	case ModRandomVector:
		return a.Attribute + " := random(" + m.Expr.String() + ")"
	default:
		panic(fmt.Sprintf("rule: unknown modifier kind %d", m.Kind))
	}
}

// BindKind tags a BindAction.
type BindKind int

const (
	Bind BindKind = iota
	Release
	Replace
)

func (k BindKind) String() string {
	switch k {
	case Bind:
		return "bind"
	case Release:
		return "release"
	case Replace:
		return "replace"
	default:
		return fmt.Sprintf("bind(%d)", int(k))
	}
}

// BindAction changes the occupancy of one binding site.
type BindAction struct {
	Site  string
	Kind  BindKind
	Range hcl.Range
}

// EntityResult is one entity produced on the right-hand side. Attached
// results were joined with '.' and stay with the context entity instead of
// being independent products.
type EntityResult struct {
	Species    string
	Attributes []AttributeResult
	Sites      []BindAction
	Attached   bool
	Range      hcl.Range
}

func (e EntityResult) String() string {
	var b strings.Builder
	b.WriteString(e.Species)
	if len(e.Attributes) > 0 {
		parts := make([]string, len(e.Attributes))
		for i, a := range e.Attributes {
			parts[i] = a.String()
		}
		b.WriteString("(" + strings.Join(parts, ", ") + ")")
	}
	if len(e.Sites) > 0 {
		parts := make([]string, len(e.Sites))
		for i, s := range e.Sites {
			parts[i] = s.Site + ": " + s.Kind.String()
		}
		b.WriteString("{" + strings.Join(parts, ", ") + "}")
	}
	return b.String()
}
