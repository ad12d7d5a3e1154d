package diag

import (
	"errors"
	"testing"

	"github.com/hashicorp/hcl/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errSentinel = errors.New("sentinel")

func testRange(line int) hcl.Range {
	return hcl.Range{
		Filename: "model.srm",
		Start:    hcl.Pos{Line: line, Column: 3, Byte: 10},
		End:      hcl.Pos{Line: line, Column: 7, Byte: 14},
	}
}

func TestCollector_SeveritiesAndOrder(t *testing.T) {
	c := NewCollector()
	c.Warn(testRange(1), "first", "a warning")
	c.Severe(testRange(2), "second", "a severe problem")

	diags := c.Diagnostics()
	require.Len(t, diags, 2)
	assert.Equal(t, hcl.DiagWarning, diags[0].Severity)
	assert.Equal(t, "first", diags[0].Summary)
	assert.Equal(t, hcl.DiagError, diags[1].Severity)
	require.NotNil(t, diags[1].Subject)
	assert.Equal(t, 2, diags[1].Subject.Start.Line)
}

func TestCollector_NoSubjectForZeroRange(t *testing.T) {
	c := NewCollector()
	c.Warn(hcl.Range{}, "unpositioned", "")
	require.Equal(t, 1, c.Len())
	assert.Nil(t, c.Diagnostics()[0].Subject)
}

func TestError_WrapsSentinel(t *testing.T) {
	err := Errorf(testRange(4), "species %q: %w", "Foo", errSentinel)

	assert.ErrorIs(t, err, errSentinel)
	assert.Equal(t, `model.srm:4,3: species "Foo": sentinel`, err.Error())

	d := err.Diagnostic()
	assert.Equal(t, hcl.DiagError, d.Severity)
	assert.Equal(t, 4, d.Subject.Start.Line)
}

func TestWrap(t *testing.T) {
	t.Run("nil stays nil", func(t *testing.T) {
		assert.NoError(t, Wrap(testRange(1), nil))
	})

	t.Run("plain error gains a range", func(t *testing.T) {
		err := Wrap(testRange(9), errSentinel)
		var positioned *Error
		require.ErrorAs(t, err, &positioned)
		assert.Equal(t, 9, positioned.Range.Start.Line)
		assert.ErrorIs(t, err, errSentinel)
	})

	t.Run("positioned error keeps its own range", func(t *testing.T) {
		inner := Errorf(testRange(3), "inner: %w", errSentinel)
		err := Wrap(testRange(8), inner)
		var positioned *Error
		require.ErrorAs(t, err, &positioned)
		assert.Equal(t, 3, positioned.Range.Start.Line)
	})
}
