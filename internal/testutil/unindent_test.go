package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnindent(t *testing.T) {
	testCases := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "flat", in: "a;\nb;", want: "a;\nb;\n"},
		{
			name: "indented",
			in: `
				species Foo;
				init [
				  Foo
				];
			`,
			want: "species Foo;\ninit [\n  Foo\n];\n",
		},
		{name: "blank line inside", in: "\n\tA = 1;\n\n\tB = 2;\n", want: "A = 1;\n\nB = 2;\n"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Unindent(tc.in))
		})
	}
}
