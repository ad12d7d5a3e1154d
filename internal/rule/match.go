package rule

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/spacerules/internal/expr"
	"github.com/vk/spacerules/internal/valuerange"
)

// MatchKind tags a ValueMatch.
type MatchKind int

const (
	MatchEquals MatchKind = iota
	MatchEqualsString
	MatchGreater
	MatchGreaterOrEqual
	MatchLess
	MatchLessOrEqual
	MatchInterval
)

// ValueMatch is a predicate over an attribute value of a candidate entity.
// Expressions may reference rule-local variables and are evaluated at match
// time.
type ValueMatch struct {
	Kind MatchKind

	Expr expr.Node // Equals and the ordered comparisons
	Text string    // EqualsString

	Low, High                   expr.Node // Interval
	LowInclusive, HighInclusive bool
}

// Matches tests candidate against the predicate under b.
func (m ValueMatch) Matches(candidate valuerange.Value, b expr.Bindings) (bool, error) {
	if m.Kind == MatchEqualsString {
		s, ok := candidate.Str()
		return ok && s == m.Text, nil
	}
	x, ok := candidate.Float()
	if !ok {
		return false, nil
	}
	switch m.Kind {
	case MatchEquals, MatchGreater, MatchGreaterOrEqual, MatchLess, MatchLessOrEqual:
		v, err := m.Expr.Eval(b)
		if err != nil {
			return false, err
		}
		return compareOp(m.Kind).Apply(x, v), nil
	case MatchInterval:
		lo, err := m.Low.Eval(b)
		if err != nil {
			return false, err
		}
		hi, err := m.High.Eval(b)
		if err != nil {
			return false, err
		}
		if x < lo || (x == lo && !m.LowInclusive) {
			return false, nil
		}
		if x > hi || (x == hi && !m.HighInclusive) {
			return false, nil
		}
		return true, nil
	default:
		panic(fmt.Sprintf("rule: unknown match kind %d", m.Kind))
	}
}

func compareOp(k MatchKind) expr.CmpOp {
	switch k {
	case MatchEquals:
		return expr.CmpEq
	case MatchGreater:
		return expr.CmpGt
	case MatchGreaterOrEqual:
		return expr.CmpGe
	case MatchLess:
		return expr.CmpLt
	case MatchLessOrEqual:
		return expr.CmpLe
	default:
		panic(fmt.Sprintf("rule: match kind %d is not a comparison", k))
	}
}

// Variables lists the free variables the predicate depends on.
func (m ValueMatch) Variables() []string {
	switch m.Kind {
	case MatchEqualsString:
		return nil
	case MatchInterval:
		return mergeNames(expr.Variables(m.Low), expr.Variables(m.High))
	default:
		return expr.Variables(m.Expr)
	}
}

func (m ValueMatch) String() string {
	switch m.Kind {
	case MatchEqualsString:
		return "== " + strconv.Quote(m.Text)
	case MatchInterval:
		open, closing := "(", ")"
		if m.LowInclusive {
			open = "["
		}
		if m.HighInclusive {
			closing = "]"
		}
		return "in " + open + m.Low.String() + ".." + m.High.String() + closing
	default:
		return compareOp(m.Kind).String() + " " + m.Expr.String()
	}
}

// AttributeMatch constrains one attribute. Variable, when set, binds the
// attribute's value to a rule-local name; Match, when set, constrains it.
// Both surface forms `x = v` and `(v = x ...)` produce this shape.
type AttributeMatch struct {
	Attribute string
	Variable  string
	Match     *ValueMatch
	Range     hcl.Range
}

func (a AttributeMatch) String() string {
	switch {
	case a.Variable != "" && a.Match != nil:
		return "(" + a.Variable + " = " + a.Attribute + " " + a.Match.String() + ")"
	case a.Variable != "":
		return a.Attribute + " = " + a.Variable
	case a.Match != nil:
		return a.Attribute + " " + a.Match.String()
	default:
		return a.Attribute
	}
}

// SiteKind tags a SiteMatch.
type SiteKind int

const (
	SiteFree SiteKind = iota
	SiteOccupied
	SiteEntity
)

// SiteMatch constrains one binding site: free, occupied by anything, or
// bound to an entity matching a nested pattern.
type SiteMatch struct {
	Site   string
	Kind   SiteKind
	Entity *EntityMatch
	Range  hcl.Range
}

func (s SiteMatch) String() string {
	switch s.Kind {
	case SiteFree:
		return s.Site + ": free"
	case SiteOccupied:
		return s.Site + ": occ"
	case SiteEntity:
		return s.Site + ": " + s.Entity.String()
	default:
		panic(fmt.Sprintf("rule: unknown site kind %d", s.Kind))
	}
}

// EntityMatch is one entity pattern on the left-hand side.
type EntityMatch struct {
	Species    string
	Attributes []AttributeMatch
	Sites      []SiteMatch
	Range      hcl.Range
}

func (e EntityMatch) String() string {
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
			parts[i] = s.String()
		}
		b.WriteString("{" + strings.Join(parts, ", ") + "}")
	}
	return b.String()
}

func mergeNames(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	var out []string
	for _, list := range [][]string{a, b} {
		for _, n := range list {
			if !seen[n] {
				seen[n] = true
				out = append(out, n)
			}
		}
	}
	return out
}
