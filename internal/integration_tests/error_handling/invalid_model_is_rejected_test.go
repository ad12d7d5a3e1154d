package integration_tests

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/spacerules/internal/app"
	"github.com/vk/spacerules/internal/testutil"
)

// Test for: hard errors fail the model, not the run
func TestErrorHandling_InvalidModel_IsRejected(t *testing.T) {
	testCases := []struct {
		name      string
		src       string
		wantError string
	}{
		{name: "lexer", src: "N = 3 $;", wantError: "unexpected character"},
		{name: "unknown species", src: "species Foo(size: 0);\ninit [ 2 Fo ];", wantError: `did you mean "Foo"`},
		{name: "empty left-hand side", src: "species Foo;\n-> Foo @ 1;", wantError: "bad.srm:2,1"},
		{name: "unterminated init", src: "species Foo;\ninit [ Foo", wantError: "expected"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// --- Arrange ---
			files := map[string]string{
				"models/bad.srm":  tc.src,
				"models/good.srm": "species Foo;\ninit [ Foo ];",
			}

			// --- Act ---
			result := testutil.RunModelTest(t, files, nil)

			// --- Assert ---
			require.ErrorIs(t, result.Err, app.ErrModelsFailed)
			require.Len(t, result.App.Workspace().Models, 1, "the valid model must still be built")

			bad := result.App.Report().Models[0]
			assert.Equal(t, "bad", bad.Name)
			assert.True(t, bad.Failed)
			assert.Contains(t, bad.Error, tc.wantError)
			testutil.AssertLogged(t, result, "Model construction failed.", "level=ERROR")
		})
	}
}
