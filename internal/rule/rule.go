// Package rule holds transformation rules and the builder that assembles
// them from the fragments recognized while parsing one rule statement.
package rule

import (
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/spacerules/internal/expr"
)

// RateKind says how the rule's expression is interpreted.
type RateKind int

const (
	RateDefault RateKind = iota
	Rate
	Probability
)

func (k RateKind) String() string {
	switch k {
	case RateDefault:
		return "default"
	case Rate:
		return "rate"
	case Probability:
		return "prob"
	default:
		return fmt.Sprintf("ratekind(%d)", int(k))
	}
}

var rateMarkers = map[string]RateKind{
	"rate":        Rate,
	"k":           Rate,
	"prob":        Probability,
	"p":           Probability,
	"probability": Probability,
}

// ParseRateMarker maps a marker keyword, case-insensitively, to its kind.
func ParseRateMarker(word string) (RateKind, bool) {
	k, ok := rateMarkers[strings.ToLower(word)]
	return k, ok
}

// LHS is the pattern side. Context, when set, is the shared spatial entity
// marked by a bracket; it is not one of the reacting Entities.
type LHS struct {
	Context  *EntityMatch
	Entities []EntityMatch
}

// RHS is the result side. When ContextIndex is not -1 the result at that
// index is the context entity; it stays in Results.
type RHS struct {
	Results      []EntityResult
	ContextIndex int
}

// Context returns the context result, if any.
func (r RHS) Context() (EntityResult, bool) {
	if r.ContextIndex < 0 || r.ContextIndex >= len(r.Results) {
		return EntityResult{}, false
	}
	return r.Results[r.ContextIndex], true
}

// Rule is immutable once built. A nil RHS removes the matched entities.
type Rule struct {
	Name     string
	LHS      LHS
	RHS      *RHS
	Rate     expr.Node
	RateKind RateKind
	Range    hcl.Range
}

// Variables lists every rule-local variable the rule's expressions read.
func (r *Rule) Variables() []string {
	var names []string
	var walk func(m EntityMatch)
	walk = func(m EntityMatch) {
		for _, a := range m.Attributes {
			if a.Match != nil {
				names = mergeNames(names, a.Match.Variables())
			}
		}
		for _, s := range m.Sites {
			if s.Entity != nil {
				walk(*s.Entity)
			}
		}
	}
	if r.LHS.Context != nil {
		walk(*r.LHS.Context)
	}
	for _, m := range r.LHS.Entities {
		walk(m)
	}
	if r.RHS != nil {
		for _, res := range r.RHS.Results {
			for _, a := range res.Attributes {
				names = mergeNames(names, a.Modifier.Variables())
			}
		}
	}
	return mergeNames(names, expr.Variables(r.Rate))
}

func (r *Rule) String() string {
	var b strings.Builder
	if r.Name != "" {
		b.WriteString(r.Name + ": ")
	}
	lhs := make([]string, len(r.LHS.Entities))
	for i, m := range r.LHS.Entities {
		lhs[i] = m.String()
	}
	if r.LHS.Context != nil {
		b.WriteString(r.LHS.Context.String() + "[" + strings.Join(lhs, " + ") + "]")
	} else {
		b.WriteString(strings.Join(lhs, " + "))
	}
	b.WriteString(" ->")
	if r.RHS != nil {
		for i, res := range r.RHS.Results {
			switch {
			case i == 0:
				b.WriteString(" ")
			case res.Attached:
				b.WriteString(" . ")
			default:
				b.WriteString(" + ")
			}
			b.WriteString(res.String())
			if i == r.RHS.ContextIndex {
				b.WriteString("[]")
			}
		}
	}
	b.WriteString(" @ ")
	if r.RateKind != RateDefault {
		b.WriteString(r.RateKind.String() + " = ")
	}
	b.WriteString(r.Rate.String())
	return b.String()
}
