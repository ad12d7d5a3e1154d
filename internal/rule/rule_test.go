package rule

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"github.com/hashicorp/hcl/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/spacerules/internal/ctxlog"
	"github.com/vk/spacerules/internal/diag"
	"github.com/vk/spacerules/internal/expr"
	"github.com/vk/spacerules/internal/scope"
	"github.com/vk/spacerules/internal/species"
	"github.com/vk/spacerules/internal/valuerange"
)

var at = hcl.Range{Filename: "test.srm", Start: hcl.Pos{Line: 2, Column: 1}}

func newBuilder(t *testing.T) (*Builder, *scope.Scope, *diag.Collector) {
	t.Helper()
	diags := diag.NewCollector()
	reg := species.NewRegistry(diags)
	require.NoError(t, reg.Register(&species.Def{
		Name:       "Foo",
		Attributes: []species.Attribute{{Name: "x", Domain: valuerange.Interval(0, 10, true, true)}},
		Sites:      []species.Site{{Name: "a"}, {Name: "b"}},
	}))
	require.NoError(t, reg.Register(&species.Def{Name: "Cell"}))
	reg.Seal()
	sc := scope.New(diags, nil, nil)
	return NewBuilder(sc, reg), sc, diags
}

func TestValueMatch(t *testing.T) {
	five := expr.Const{Value: 5}
	testCases := []struct {
		name      string
		match     ValueMatch
		candidate valuerange.Value
		expected  bool
	}{
		{name: "equals", match: ValueMatch{Kind: MatchEquals, Expr: five}, candidate: valuerange.Number(5), expected: true},
		{name: "equals rejects strings", match: ValueMatch{Kind: MatchEquals, Expr: five}, candidate: valuerange.String("5")},
		{name: "equals string", match: ValueMatch{Kind: MatchEqualsString, Text: "on"}, candidate: valuerange.String("on"), expected: true},
		{name: "greater", match: ValueMatch{Kind: MatchGreater, Expr: five}, candidate: valuerange.Number(5)},
		{name: "greater or equal", match: ValueMatch{Kind: MatchGreaterOrEqual, Expr: five}, candidate: valuerange.Number(5), expected: true},
		{name: "less", match: ValueMatch{Kind: MatchLess, Expr: five}, candidate: valuerange.Number(4), expected: true},
		{name: "less or equal", match: ValueMatch{Kind: MatchLessOrEqual, Expr: five}, candidate: valuerange.Number(6)},
		{
			name:      "interval open upper",
			match:     ValueMatch{Kind: MatchInterval, Low: expr.Const{Value: 1}, High: five, LowInclusive: true},
			candidate: valuerange.Number(5),
		},
		{
			name:      "interval inclusive lower",
			match:     ValueMatch{Kind: MatchInterval, Low: expr.Const{Value: 1}, High: five, LowInclusive: true},
			candidate: valuerange.Number(1),
			expected:  true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ok, err := tc.match.Matches(tc.candidate, nil)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, ok)
		})
	}

	t.Run("bound variable", func(t *testing.T) {
		m := ValueMatch{Kind: MatchGreater, Expr: expr.Var{Name: "v"}}
		ok, err := m.Matches(valuerange.Number(3), expr.Bindings{"v": 2})
		require.NoError(t, err)
		assert.True(t, ok)

		_, err = m.Matches(valuerange.Number(3), nil)
		var undefined *expr.UndefinedVariableError
		assert.ErrorAs(t, err, &undefined)
	})
}

func TestValueModifier_Apply(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	three := valuerange.Number(3)

	apply := func(m ValueModifier, current valuerange.Value, b expr.Bindings) valuerange.Value {
		t.Helper()
		v, err := m.Apply(current, b, rng)
		require.NoError(t, err)
		return v
	}

	assert.True(t, apply(ValueModifier{Kind: ModKeep}, three, nil).Equal(three))
	assert.True(t, apply(ValueModifier{Kind: ModIncrement}, three, nil).Equal(valuerange.Number(4)))
	assert.True(t, apply(ValueModifier{Kind: ModDecrement}, three, nil).Equal(valuerange.Number(2)))
	assert.True(t, apply(ValueModifier{
		Kind: ModSetExpr,
		Expr: expr.Binary{Op: expr.OpAdd, L: expr.Var{Name: "v"}, R: expr.Const{Value: 1}},
	}, three, expr.Bindings{"v": 9}).Equal(valuerange.Number(10)))
	assert.True(t, apply(ValueModifier{Kind: ModSetString, Text: "off"}, three, nil).Equal(valuerange.String("off")))

	set, err := valuerange.NewSet(valuerange.Number(7), valuerange.Number(8))
	require.NoError(t, err)
	assert.True(t, set.Contains(apply(ValueModifier{Kind: ModSetRange, Range: set}, three, nil)))

	vec := apply(ValueModifier{Kind: ModRandomVector, Expr: expr.Const{Value: 3}}, three, nil)
	components, ok := vec.Components()
	require.True(t, ok)
	require.Len(t, components, 3)
	var norm float64
	for _, c := range components {
		norm += c * c
	}
	assert.InDelta(t, 1, math.Sqrt(norm), 1e-12)

	_, err = ValueModifier{Kind: ModIncrement}.Apply(valuerange.String("a"), nil, rng)
	assert.ErrorIs(t, err, ErrNotNumeric)
	_, err = ValueModifier{Kind: ModRandomVector, Expr: expr.Const{Value: 0}}.Apply(three, nil, rng)
	assert.Error(t, err)
}

func TestParseRateMarker(t *testing.T) {
	for word, want := range map[string]RateKind{"rate": Rate, "K": Rate, "prob": Probability, "P": Probability, "Probability": Probability} {
		got, ok := ParseRateMarker(word)
		require.True(t, ok, word)
		assert.Equal(t, want, got, word)
	}
	_, ok := ParseRateMarker("speed")
	assert.False(t, ok)
}

func TestBuilder_FullRule(t *testing.T) {
	ctx := ctxlog.Discard(context.Background())
	b, sc, diags := newBuilder(t)

	require.NoError(t, b.Start("grow", at))
	sc.Bind("v", at)
	require.NoError(t, b.AddLhsEntity(EntityMatch{
		Species:    "Foo",
		Attributes: []AttributeMatch{{Attribute: "x", Variable: "v"}},
		Sites:      []SiteMatch{{Site: "a", Kind: SiteFree}},
	}))
	require.NoError(t, b.CloseLhs())
	require.NoError(t, b.AddRhsEntity(EntityResult{
		Species: "Foo",
		Attributes: []AttributeResult{{Attribute: "x", Modifier: ValueModifier{
			Kind: ModSetExpr,
			Expr: expr.Binary{Op: expr.OpAdd, L: expr.Var{Name: "v"}, R: expr.Const{Value: 1}},
		}}},
	}))
	require.NoError(t, b.SetRate(Rate, expr.Const{Value: 1}))

	r, err := b.Build(ctx)
	require.NoError(t, err)
	assert.Equal(t, "grow: Foo(x = v){a: free} -> Foo(x := (v + 1)) @ rate = 1", r.String())
	assert.Equal(t, []string{"v"}, r.Variables())
	assert.Zero(t, diags.Len())
	assert.False(t, sc.IsBound("v"), "match variables end with the rule")

	rate, err := expr.EvalConst(r.Rate)
	require.NoError(t, err)
	assert.Equal(t, 1.0, rate)
}

func TestBuilder_Contexts(t *testing.T) {
	ctx := ctxlog.Discard(context.Background())
	b, _, _ := newBuilder(t)

	require.NoError(t, b.Start("", at))
	require.NoError(t, b.AddLhsEntity(EntityMatch{Species: "Cell"}))
	require.NoError(t, b.MarkContext())
	require.NoError(t, b.AddLhsEntity(EntityMatch{Species: "Foo"}))
	assert.ErrorIs(t, b.MarkContext(), ErrDuplicateContext)
	require.NoError(t, b.CloseLhs())

	require.NoError(t, b.AddRhsEntity(EntityResult{Species: "Cell"}))
	require.NoError(t, b.MarkRhsContext())
	require.NoError(t, b.AddRhsEntity(EntityResult{Species: "Foo"}))
	require.NoError(t, b.AddRhsEntity(EntityResult{Species: "Foo", Attached: true}))
	assert.ErrorIs(t, b.MarkRhsContext(), ErrDuplicateContext)

	r, err := b.Build(ctx)
	require.NoError(t, err)
	require.NotNil(t, r.LHS.Context)
	assert.Equal(t, "Cell", r.LHS.Context.Species)
	assert.Len(t, r.LHS.Entities, 1)

	ctxResult, ok := r.RHS.Context()
	require.True(t, ok)
	assert.Equal(t, "Cell", ctxResult.Species)
	assert.Len(t, r.RHS.Results, 3, "the right-hand context stays in the result list")
	assert.Equal(t, RateDefault, r.RateKind)
	assert.Equal(t, "Cell[Foo] -> Cell[] + Foo . Foo @ 1", r.String())
}

func TestBuilder_Errors(t *testing.T) {
	ctx := ctxlog.Discard(context.Background())

	t.Run("empty left-hand side", func(t *testing.T) {
		b, _, _ := newBuilder(t)
		require.NoError(t, b.Start("", at))
		require.NoError(t, b.CloseLhs())
		_, err := b.Build(ctx)
		assert.ErrorIs(t, err, ErrEmptyLHS)
		assert.NoError(t, b.Start("next", at), "a failed build leaves the builder idle")
	})

	t.Run("unknown binding site", func(t *testing.T) {
		b, _, _ := newBuilder(t)
		require.NoError(t, b.Start("", at))
		err := b.AddLhsEntity(EntityMatch{Species: "Foo", Sites: []SiteMatch{{Site: "c", Kind: SiteFree}}})
		assert.ErrorIs(t, err, species.ErrUnknownBindingSite)
	})

	t.Run("free site records no sub-entity", func(t *testing.T) {
		b, _, _ := newBuilder(t)
		require.NoError(t, b.Start("", at))
		m := EntityMatch{Species: "Foo", Sites: []SiteMatch{{Site: "a", Kind: SiteFree}}}
		require.NoError(t, b.AddLhsEntity(m))
		assert.Nil(t, m.Sites[0].Entity)
	})

	t.Run("nested entity is validated", func(t *testing.T) {
		b, _, _ := newBuilder(t)
		require.NoError(t, b.Start("", at))
		err := b.AddLhsEntity(EntityMatch{Species: "Foo", Sites: []SiteMatch{
			{Site: "a", Kind: SiteEntity, Entity: &EntityMatch{Species: "Bar"}},
		}})
		assert.ErrorIs(t, err, species.ErrUnknownSpecies)
	})

	t.Run("attached result needs a predecessor", func(t *testing.T) {
		b, _, _ := newBuilder(t)
		require.NoError(t, b.Start("", at))
		require.NoError(t, b.AddLhsEntity(EntityMatch{Species: "Foo"}))
		require.NoError(t, b.CloseLhs())
		assert.ErrorIs(t, b.AddRhsEntity(EntityResult{Species: "Foo", Attached: true}), ErrAttachedWithoutContext)
	})

	t.Run("out of order", func(t *testing.T) {
		b, sc, _ := newBuilder(t)
		assert.ErrorIs(t, b.CloseLhs(), ErrBuilderState)
		require.NoError(t, b.Start("", at))
		assert.ErrorIs(t, b.Start("", at), ErrBuilderState)
		sc.Bind("v", at)
		b.Abort()
		assert.False(t, sc.IsBound("v"))
		assert.NoError(t, b.Start("", at))
	})

	t.Run("undeclared attribute warns", func(t *testing.T) {
		b, _, diags := newBuilder(t)
		require.NoError(t, b.Start("", at))
		require.NoError(t, b.AddLhsEntity(EntityMatch{Species: "Foo", Attributes: []AttributeMatch{{Attribute: "y", Variable: "v"}}}))
		assert.Equal(t, 1, diags.Len())
	})
}

func TestBuilder_LiteralValuesAreCheckedAgainstDomain(t *testing.T) {
	b, _, diags := newBuilder(t)
	require.NoError(t, b.Start("", at))
	require.NoError(t, b.AddLhsEntity(EntityMatch{Species: "Foo", Attributes: []AttributeMatch{
		{Attribute: "x", Match: &ValueMatch{Kind: MatchEquals, Expr: expr.Const{Value: 11}}},
	}}))
	require.NoError(t, b.CloseLhs())
	require.NoError(t, b.AddRhsEntity(EntityResult{Species: "Foo", Attributes: []AttributeResult{
		{Attribute: "x", Modifier: ValueModifier{Kind: ModSetExpr, Expr: expr.Const{Value: 99}}},
	}}))
	require.NoError(t, b.AddRhsEntity(EntityResult{Species: "Foo", Attributes: []AttributeResult{
		{Attribute: "x", Modifier: ValueModifier{Kind: ModSetExpr, Expr: expr.Var{Name: "v"}}},
		{Attribute: "x", Modifier: ValueModifier{Kind: ModSetExpr, Expr: expr.Const{Value: 4}}},
		{Attribute: "x", Modifier: ValueModifier{Kind: ModIncrement}},
	}}))

	require.Equal(t, 2, diags.Len(), "only the two known values outside [0..10] warn")
	for _, d := range diags.Diagnostics() {
		assert.Equal(t, "Value outside declared domain", d.Summary)
	}
}
