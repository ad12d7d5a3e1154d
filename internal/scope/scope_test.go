package scope

import (
	"errors"
	"testing"

	"github.com/hashicorp/hcl/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/spacerules/internal/diag"
	"github.com/vk/spacerules/internal/valuerange"
)

var at = hcl.Range{Filename: "test.srm", Start: hcl.Pos{Line: 1, Column: 1}}

type recordingFlags struct {
	periodic, instant []valuerange.Range
	fail              bool
}

func (f *recordingFlags) SetPeriodic(r valuerange.Range) error {
	if f.fail {
		return errors.New("bad value")
	}
	f.periodic = append(f.periodic, r)
	return nil
}

func (f *recordingFlags) SetInstantTransfer(r valuerange.Range) error {
	f.instant = append(f.instant, r)
	return nil
}

func numbers(vals ...float64) []valuerange.Value {
	out := make([]valuerange.Value, len(vals))
	for i, v := range vals {
		out[i] = valuerange.Number(v)
	}
	return out
}

func TestDefine_Overrides(t *testing.T) {
	diags := diag.NewCollector()
	s := New(diags, map[string]valuerange.Value{
		"N":     valuerange.Number(10),
		"label": valuerange.String("blue"),
		"ghost": valuerange.Number(1),
	}, nil)

	got := s.Define("N", valuerange.Single(valuerange.Number(3)), at)
	assert.Equal(t, "10", got.String())
	n, ok := s.Numeric("N")
	require.True(t, ok)
	assert.Equal(t, 10.0, n)

	s.Define("label", valuerange.Single(valuerange.String("red")), at)
	r, ok := s.Lookup("label")
	require.True(t, ok)
	assert.Equal(t, `"blue"`, r.String())
	_, ok = s.Numeric("label")
	assert.False(t, ok, "string constants have no numeric value")

	assert.Equal(t, []string{"ghost"}, s.UnusedOverrides())
	assert.Equal(t, []string{"N", "label"}, s.Used())
	assert.Zero(t, diags.Len())
}

func TestDefine_Redefinition(t *testing.T) {
	diags := diag.NewCollector()
	s := New(diags, nil, nil)
	s.Define("k", valuerange.Single(valuerange.Number(1)), at)
	s.Define("k", valuerange.Single(valuerange.Number(2)), at)

	k, _ := s.Numeric("k")
	assert.Equal(t, 2.0, k)
	require.Equal(t, 1, diags.Len())
	assert.Equal(t, hcl.DiagWarning, diags.Diagnostics()[0].Severity)
}

func TestDefine_ReservedNames(t *testing.T) {
	flags := &recordingFlags{}
	s := New(nil, nil, flags)

	s.Define("PBC", valuerange.Vector(1, 1, 0), at)
	s.Define("Instant_Transfer", valuerange.Single(valuerange.Number(1)), at)
	s.Define("other", valuerange.Single(valuerange.Number(1)), at)

	assert.Len(t, flags.periodic, 1)
	assert.Len(t, flags.instant, 1)
	assert.Equal(t, []string{"Instant_Transfer", "PBC"}, s.Used(), "reserved names count as used")

	diags := diag.NewCollector()
	s = New(diags, nil, &recordingFlags{fail: true})
	s.Define("periodic", valuerange.Single(valuerange.String("maybe")), at)
	require.Equal(t, 1, diags.Len())
	assert.Equal(t, hcl.DiagError, diags.Diagnostics()[0].Severity)
}

func TestLoop_RestoresShadowedConstant(t *testing.T) {
	diags := diag.NewCollector()
	s := New(diags, nil, nil)
	s.Define("x", valuerange.Single(valuerange.Number(5)), at)

	var seen []float64
	skip, err := s.EnterLoop("x", numbers(1, 2, 3), at)
	require.NoError(t, err)
	require.False(t, skip)
	for {
		v, ok := s.Numeric("x")
		require.True(t, ok)
		seen = append(seen, v)
		if s.IsLastIteration("x") {
			require.NoError(t, s.ExitLoop("x"))
			break
		}
		_, err := s.EnterLoop("x", numbers(1, 2, 3), at)
		require.NoError(t, err)
	}

	assert.Equal(t, []float64{1, 2, 3}, seen)
	x, ok := s.Numeric("x")
	require.True(t, ok)
	assert.Equal(t, 5.0, x)
	assert.Equal(t, 0, s.LoopDepth())

	require.Equal(t, 1, diags.Len(), "shadowing warns once")
	assert.Contains(t, diags.Diagnostics()[0].Detail, "already defined")
	assert.Equal(t, []string{"x"}, s.Used(), "only the restored constant read counts")
}

func TestLoop_UnshadowedVariableIsRemoved(t *testing.T) {
	s := New(nil, nil, nil)
	_, err := s.EnterLoop("i", numbers(7), at)
	require.NoError(t, err)
	assert.True(t, s.IsLastIteration("i"))
	require.NoError(t, s.ExitLoop("i"))

	_, ok := s.Numeric("i")
	assert.False(t, ok)
	assert.Empty(t, s.Used(), "loop variables are not constants")
}

func TestLoop_ReentryAdvancesInsteadOfPushing(t *testing.T) {
	s := New(nil, nil, nil)
	_, err := s.EnterLoop("x", numbers(1, 2), at)
	require.NoError(t, err)

	depths := map[int]bool{}
	for {
		_, err := s.EnterLoop("y", numbers(10, 20, 30), at)
		require.NoError(t, err)
		depths[s.LoopDepth()] = true
		if s.IsLastIteration("y") {
			require.NoError(t, s.ExitLoop("y"))
			if s.IsLastIteration("x") {
				break
			}
			require.NoError(t, s.AdvanceLoop("x"))
		}
	}

	assert.Equal(t, map[int]bool{2: true}, depths, "stack depth stays constant")
	require.NoError(t, s.ExitLoop("x"))
	assert.Equal(t, 0, s.LoopDepth())
}

func TestLoop_Errors(t *testing.T) {
	s := New(nil, nil, nil)

	skip, err := s.EnterLoop("e", nil, at)
	require.NoError(t, err)
	assert.True(t, skip)
	assert.Equal(t, 0, s.LoopDepth(), "an empty loop pushes nothing")

	_, err = s.EnterLoop("a", numbers(1, 2), at)
	require.NoError(t, err)
	_, err = s.EnterLoop("b", numbers(1, 2), at)
	require.NoError(t, err)

	_, err = s.EnterLoop("a", numbers(1), at)
	assert.ErrorIs(t, err, ErrLoopVariableActive)

	assert.ErrorIs(t, s.ExitLoop("a"), ErrNotInnermostLoop)
	assert.ErrorIs(t, s.AdvanceLoop("a"), ErrNotInnermostLoop)
	require.NoError(t, s.AdvanceLoop("b"))
	assert.Error(t, s.AdvanceLoop("b"), "cannot advance past the last value")

	s.Bind("v", at)
	s.Unwind()
	assert.Equal(t, 0, s.LoopDepth())
	assert.False(t, s.IsBound("v"))
}

func TestRuleLocals(t *testing.T) {
	diags := diag.NewCollector()
	s := New(diags, nil, nil)

	s.ClearForNewRule()
	s.Bind("v", at)
	assert.True(t, s.CheckReference("v", at))
	assert.Zero(t, diags.Len())

	s.Bind("v", at)
	assert.Equal(t, 1, diags.Len(), "duplicate binding warns")

	s.ClearForNewRule()
	assert.False(t, s.CheckReference("v", at))
	assert.Equal(t, 2, diags.Len())
	assert.Contains(t, diags.Diagnostics()[1].Detail, "not defined in current rule")

	assert.True(t, s.CheckReference("v", at), "warns once per name")
	assert.Equal(t, 2, diags.Len())

	s.Bind("v", at)
	assert.Equal(t, 2, diags.Len(), "binding a name that was only referenced is not a duplicate")
	assert.True(t, s.IsBound("v"))

	s.ClearForNewRule()
	assert.False(t, s.CheckReference("v", at), "reports reset with the rule")
	assert.Equal(t, 3, diags.Len())
}

func TestResolve_LocalsStaySymbolic(t *testing.T) {
	s := New(nil, nil, nil)
	s.Define("v", valuerange.Single(valuerange.Number(4)), at)

	f, ok := s.Resolve("v", at)
	require.True(t, ok)
	assert.Equal(t, 4.0, f)

	s.Bind("v", at)
	_, ok = s.Resolve("v", at)
	assert.False(t, ok)
}
