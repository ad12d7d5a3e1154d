package rule

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/spacerules/internal/ctxlog"
	"github.com/vk/spacerules/internal/diag"
	"github.com/vk/spacerules/internal/expr"
	"github.com/vk/spacerules/internal/scope"
	"github.com/vk/spacerules/internal/species"
	"github.com/vk/spacerules/internal/valuerange"
)

var (
	// ErrEmptyLHS is returned by Build when no entity was matched.
	ErrEmptyLHS = errors.New("rule has no left-hand side entity")
	// ErrConstraintOnBinding is returned for `attr = var <constraint>`; a
	// binding that also constrains must be written `(var = attr <constraint>)`.
	ErrConstraintOnBinding = errors.New("a constraint cannot follow a bare variable binding; write (var = attr constraint)")
	// ErrDuplicateContext is returned when a side marks a second context.
	ErrDuplicateContext = errors.New("only one context entity is allowed per side")
	// ErrAttachedWithoutContext is returned for a '.' result with nothing to attach to.
	ErrAttachedWithoutContext = errors.New("'.' must follow another result")
	// ErrBuilderState is returned when builder calls arrive out of order.
	ErrBuilderState = errors.New("rule builder used out of order")
)

type state int

const (
	idle state = iota
	inLHS
	inRHS
)

func (s state) String() string {
	switch s {
	case idle:
		return "idle"
	case inLHS:
		return "left-hand side"
	case inRHS:
		return "right-hand side"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Builder assembles one rule at a time:
//
//	Start -> AddLhsEntity/MarkContext ... -> CloseLhs ->
//	AddRhsEntity/MarkRhsContext ... -> SetRate -> Build
//
// Abort returns it to idle from any state.
type Builder struct {
	scope    *scope.Scope
	registry *species.Registry

	state    state
	name     string
	start    hcl.Range
	lhs      LHS
	rhs      *RHS
	rate     expr.Node
	rateKind RateKind
}

func NewBuilder(sc *scope.Scope, reg *species.Registry) *Builder {
	return &Builder{scope: sc, registry: reg}
}

// Start begins a rule and clears the previous rule's match variables.
func (b *Builder) Start(name string, rng hcl.Range) error {
	if err := b.expect("Start", idle, rng); err != nil {
		return err
	}
	b.reset()
	b.scope.ClearForNewRule()
	b.state = inLHS
	b.name = name
	b.start = rng
	return nil
}

// AddLhsEntity appends a reacting entity after validating it, including
// the entities nested in its binding sites.
func (b *Builder) AddLhsEntity(m EntityMatch) error {
	if err := b.expect("AddLhsEntity", inLHS, m.Range); err != nil {
		return err
	}
	if err := b.validateMatch(m); err != nil {
		return err
	}
	b.lhs.Entities = append(b.lhs.Entities, m)
	return nil
}

// MarkContext turns the most recently added entity into the side's context.
func (b *Builder) MarkContext() error {
	if err := b.expect("MarkContext", inLHS, b.start); err != nil {
		return err
	}
	n := len(b.lhs.Entities)
	if n == 0 {
		return diag.Errorf(b.start, "mark context: %w", ErrEmptyLHS)
	}
	last := b.lhs.Entities[n-1]
	if b.lhs.Context != nil {
		return diag.Errorf(last.Range, "%s: %w", last.Species, ErrDuplicateContext)
	}
	b.lhs.Context = &last
	b.lhs.Entities = b.lhs.Entities[:n-1]
	return nil
}

// CloseLhs ends the pattern side.
func (b *Builder) CloseLhs() error {
	if err := b.expect("CloseLhs", inLHS, b.start); err != nil {
		return err
	}
	b.state = inRHS
	return nil
}

// AddRhsEntity appends a result entity.
func (b *Builder) AddRhsEntity(r EntityResult) error {
	if err := b.expect("AddRhsEntity", inRHS, r.Range); err != nil {
		return err
	}
	if b.rhs == nil {
		b.rhs = &RHS{ContextIndex: -1}
	}
	if r.Attached && len(b.rhs.Results) == 0 {
		return diag.Errorf(r.Range, "%s: %w", r.Species, ErrAttachedWithoutContext)
	}
	def, err := b.registry.Lookup(r.Species, r.Range)
	if err != nil {
		return err
	}
	b.registry.ValidateAttributes(def, resultValues(r.Attributes))
	sites := make([]species.Ref, len(r.Sites))
	for i, s := range r.Sites {
		sites[i] = species.Ref{Name: s.Site, Range: s.Range}
	}
	if err := b.registry.ValidateBindingSites(def, sites); err != nil {
		return err
	}
	b.rhs.Results = append(b.rhs.Results, r)
	return nil
}

// MarkRhsContext makes the first result the context entity. It is only
// valid right after the first result, where a bracket follows it.
func (b *Builder) MarkRhsContext() error {
	if err := b.expect("MarkRhsContext", inRHS, b.start); err != nil {
		return err
	}
	if b.rhs == nil || len(b.rhs.Results) != 1 {
		return diag.Errorf(b.start, "only the first result can be the context: %w", ErrDuplicateContext)
	}
	b.rhs.ContextIndex = 0
	return nil
}

// SetRate records the rate or probability expression.
func (b *Builder) SetRate(kind RateKind, rate expr.Node) error {
	if err := b.expect("SetRate", inRHS, b.start); err != nil {
		return err
	}
	b.rateKind = kind
	b.rate = rate
	return nil
}

// Build finishes the rule and returns the builder to idle.
func (b *Builder) Build(ctx context.Context) (*Rule, error) {
	if err := b.expect("Build", inRHS, b.start); err != nil {
		return nil, err
	}
	if len(b.lhs.Entities) == 0 && b.lhs.Context == nil {
		err := diag.Errorf(b.start, "rule %q: %w", b.name, ErrEmptyLHS)
		b.Abort()
		return nil, err
	}
	if b.rate == nil {
		b.rate = expr.Const{Value: 1}
	}
	r := &Rule{
		Name:     b.name,
		LHS:      b.lhs,
		RHS:      b.rhs,
		Rate:     b.rate,
		RateKind: b.rateKind,
		Range:    b.start,
	}
	b.reset()
	b.scope.ClearForNewRule()
	ctxlog.FromContext(ctx).Debug("Rule built.", "rule", r.String(), "line", r.Range.Start.Line)
	return r, nil
}

// Abort discards the rule in progress and its match variables.
func (b *Builder) Abort() {
	b.reset()
	b.scope.ClearForNewRule()
}

func (b *Builder) reset() {
	*b = Builder{scope: b.scope, registry: b.registry}
}

func (b *Builder) expect(op string, want state, rng hcl.Range) error {
	if b.state != want {
		return diag.Errorf(rng, "%s in %s: %w", op, b.state, ErrBuilderState)
	}
	return nil
}

func (b *Builder) validateMatch(m EntityMatch) error {
	def, err := b.registry.Lookup(m.Species, m.Range)
	if err != nil {
		return err
	}
	b.registry.ValidateAttributes(def, matchValues(m.Attributes))

	sites := make([]species.Ref, len(m.Sites))
	for i, s := range m.Sites {
		sites[i] = species.Ref{Name: s.Site, Range: s.Range}
	}
	if err := b.registry.ValidateBindingSites(def, sites); err != nil {
		return err
	}
	for _, s := range m.Sites {
		if s.Kind == SiteEntity {
			if err := b.validateMatch(*s.Entity); err != nil {
				return err
			}
		}
	}
	return nil
}

// matchValues pairs each matched attribute with the value it must equal,
// when that value is fixed before any entity is matched.
func matchValues(attrs []AttributeMatch) []species.AttributeValue {
	out := make([]species.AttributeValue, len(attrs))
	for i, a := range attrs {
		out[i] = species.AttributeValue{Name: a.Attribute, Range: a.Range}
		if a.Match == nil {
			continue
		}
		switch a.Match.Kind {
		case MatchEqualsString:
			out[i].Value, out[i].Known = valuerange.String(a.Match.Text), true
		case MatchEquals:
			out[i].Value, out[i].Known = constantValue(a.Match.Expr)
		}
	}
	return out
}

// resultValues is matchValues for results: strings, variable-free
// expressions and single ranges are known.
func resultValues(attrs []AttributeResult) []species.AttributeValue {
	out := make([]species.AttributeValue, len(attrs))
	for i, a := range attrs {
		out[i] = species.AttributeValue{Name: a.Attribute, Range: a.Range}
		m := a.Modifier
		switch m.Kind {
		case ModSetString:
			out[i].Value, out[i].Known = valuerange.String(m.Text), true
		case ModSetExpr:
			out[i].Value, out[i].Known = constantValue(m.Expr)
		case ModSetRange:
			out[i].Value, out[i].Known = m.Range.Value()
		}
	}
	return out
}

func constantValue(n expr.Node) (valuerange.Value, bool) {
	if n == nil || len(expr.Variables(n)) > 0 {
		return valuerange.Value{}, false
	}
	f, err := expr.EvalConst(n)
	if err != nil {
		return valuerange.Value{}, false
	}
	return valuerange.Number(f), true
}
