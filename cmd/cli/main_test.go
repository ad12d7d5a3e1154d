package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/spacerules/internal/app"
	"github.com/vk/spacerules/internal/cli"
)

func writeModel(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "model.srm")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600), "failed to set up test file")
	return path
}

func TestRun_WritesReport(t *testing.T) {
	t.Parallel()

	path := writeModel(t, "N = 2;\nspecies Foo;\ninit [ N Foo ];\n")
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}

	err := run(out, errOut, []string{"-set", "N=4", path})

	require.NoError(t, err)
	require.Contains(t, out.String(), "name: model")
	require.Contains(t, out.String(), "count: 4")
	require.Contains(t, errOut.String(), "Run finished.")
}

func TestRun_ModelError(t *testing.T) {
	t.Parallel()

	path := writeModel(t, "species Foo;\ninit [ Bar ];\n")
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}

	err := run(out, errOut, []string{path})

	require.ErrorIs(t, err, app.ErrModelsFailed)
	require.Contains(t, out.String(), "failed: true")
	require.Contains(t, errOut.String(), "unknown species")
}

func TestRun_ShouldExit(t *testing.T) {
	t.Parallel()

	// The "-h" (help) flag should cause cli.Parse to return `shouldExit=true`.
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}

	err := run(out, errOut, []string{"-h"})

	require.NoError(t, err, "run() should return a nil error when shouldExit is true")
	require.Contains(t, errOut.String(), "Usage:", "Expected help text to be printed to the error output")
	require.Empty(t, out.String())
}

func TestRun_ParseError(t *testing.T) {
	t.Parallel()

	err := run(&bytes.Buffer{}, &bytes.Buffer{}, []string{"--this-is-not-a-valid-flag"})

	var exitErr *cli.ExitError
	require.ErrorAs(t, err, &exitErr)
	require.Equal(t, 2, exitErr.Code)
	require.Contains(t, err.Error(), "flag provided but not defined: -this-is-not-a-valid-flag")
}
