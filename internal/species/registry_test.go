package species

import (
	"testing"

	"github.com/hashicorp/hcl/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/spacerules/internal/diag"
	"github.com/vk/spacerules/internal/valuerange"
)

var at = hcl.Range{Filename: "test.srm", Start: hcl.Pos{Line: 3, Column: 5}}

func newFoo() *Def {
	right := 1.5707963267948966
	return &Def{
		Name: "Foo",
		Attributes: []Attribute{
			{Name: "x", Domain: valuerange.Interval(0, 10, true, true)},
			{Name: "state", Domain: mustSet(valuerange.String("on"), valuerange.String("off"))},
			{Name: "size", Domain: valuerange.Single(valuerange.Number(1))},
		},
		Sites: []Site{{Name: "a", Angle: &right}, {Name: "b"}},
		Range: at,
	}
}

func mustSet(values ...valuerange.Value) valuerange.Range {
	r, err := valuerange.NewSet(values...)
	if err != nil {
		panic(err)
	}
	return r
}

func TestRegister(t *testing.T) {
	r := NewRegistry(nil)
	require.NoError(t, r.Register(newFoo()))
	require.NoError(t, r.Register(&Def{Name: "Bar"}))

	err := r.Register(&Def{Name: "Foo"})
	assert.ErrorIs(t, err, ErrDuplicateSpecies)

	err = r.Register(&Def{Name: "Baz", Sites: []Site{{Name: "s"}, {Name: "s"}}})
	assert.ErrorIs(t, err, ErrDuplicateMember)

	names := []string{}
	for _, d := range r.All() {
		names = append(names, d.Name)
	}
	assert.Equal(t, []string{"Foo", "Bar"}, names)

	assert.False(t, r.Sealed())
	r.Seal()
	assert.True(t, r.Sealed())
	assert.ErrorIs(t, r.Register(&Def{Name: "Late"}), ErrRegistrySealed)
	assert.False(t, r.Has("Late"))
}

func TestLookup(t *testing.T) {
	r := NewRegistry(nil)
	require.NoError(t, r.Register(newFoo()))

	def, err := r.Lookup("Foo", at)
	require.NoError(t, err)
	assert.Equal(t, "Foo", def.Name)

	_, err = r.Lookup("Fooo", at)
	require.ErrorIs(t, err, ErrUnknownSpecies)
	assert.Contains(t, err.Error(), `did you mean "Foo"?`)
	assert.Contains(t, err.Error(), "test.srm:3,5")

	_, err = r.Lookup("Completely", at)
	require.ErrorIs(t, err, ErrUnknownSpecies)
	assert.NotContains(t, err.Error(), "did you mean")
}

func TestValidateBindingSites(t *testing.T) {
	r := NewRegistry(nil)
	foo := newFoo()
	require.NoError(t, r.Register(foo))

	assert.NoError(t, r.ValidateBindingSites(foo, []Ref{{Name: "a"}, {Name: "b"}}))

	err := r.ValidateBindingSites(foo, []Ref{{Name: "a"}, {Name: "c", Range: at}})
	require.ErrorIs(t, err, ErrUnknownBindingSite)
	assert.Contains(t, err.Error(), `"c"`)
}

func TestValidateAttributes(t *testing.T) {
	testCases := []struct {
		name     string
		values   []AttributeValue
		warnings int
		detail   string
	}{
		{
			name:   "declared and in domain",
			values: []AttributeValue{{Name: "x", Value: valuerange.Number(3), Known: true}, {Name: "state", Value: valuerange.String("on"), Known: true}},
		},
		{
			name:     "undeclared attribute",
			values:   []AttributeValue{{Name: "xx", Value: valuerange.Number(3), Known: true}},
			warnings: 1,
			detail:   `did you mean "x"?`,
		},
		{
			name:     "outside interval",
			values:   []AttributeValue{{Name: "x", Value: valuerange.Number(11), Known: true}},
			warnings: 1,
			detail:   "outside its declared domain [0..10]",
		},
		{
			name:     "not in set",
			values:   []AttributeValue{{Name: "state", Value: valuerange.String("idle"), Known: true}},
			warnings: 1,
		},
		{
			name:   "single domain is a default",
			values: []AttributeValue{{Name: "size", Value: valuerange.Number(42), Known: true}},
		},
		{
			name:     "single domain still checks kind",
			values:   []AttributeValue{{Name: "size", Value: valuerange.String("big"), Known: true}},
			warnings: 1,
		},
		{
			name:   "unknown values are not checked",
			values: []AttributeValue{{Name: "x", Known: false}},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			diags := diag.NewCollector()
			r := NewRegistry(diags)
			foo := newFoo()
			require.NoError(t, r.Register(foo))

			r.ValidateAttributes(foo, tc.values)
			require.Equal(t, tc.warnings, diags.Len())
			for _, d := range diags.Diagnostics() {
				assert.Equal(t, hcl.DiagWarning, d.Severity)
				if tc.detail != "" {
					assert.Contains(t, d.Detail, tc.detail)
				}
			}
		})
	}
}

func TestDefString(t *testing.T) {
	assert.Equal(t, `Foo(x: [0..10], state: {"on", "off"}, size: 1) sites(a: 1.5707963267948966, b)`, newFoo().String())
}
