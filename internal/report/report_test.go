package report

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/hashicorp/hcl/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/spacerules/internal/ctxlog"
	"github.com/vk/spacerules/internal/frontend"
	"gopkg.in/yaml.v3"
)

const growth = `N = 3;
Label = "wt";
species Foo(x: [0..10]);
Foo(x = v) -> Foo(x := v + 1) @ 1;
Foo -> Foo(x := w) @ 2;
init [ N Foo(x: 0) ];
pbc = 1;
`

func TestDescribe(t *testing.T) {
	m, diags, err := frontend.Parse(ctxlog.Discard(context.Background()), []byte(growth), "growth.srm", frontend.Options{})
	require.NoError(t, err)

	want := ModelReport{
		Name: "growth",
		File: "growth.srm",
		Constants: []Constant{
			{Name: "Label", Value: `"wt"`, Type: "string", Used: false},
			{Name: "N", Value: "3", Type: "number", Used: true},
			{Name: "pbc", Value: "1", Type: "number", Used: true},
		},
		Species: []string{"Foo(x: [0..10])"},
		Rules: []string{
			"Foo(x = v) -> Foo(x := (v + 1)) @ 1",
			"Foo -> Foo(x := w) @ 2",
		},
		Population: []Count{{Entity: "Foo(x=0)", Count: 3}},
		Flags:      &Flags{Periodic: "(true, true, true)"},
		Diagnostics: []Diagnostic{{
			Severity: "warning",
			Summary:  "Undefined rule variable",
			Detail:   `Variable "w" is not defined in current rule; match or assignment will fail.`,
			Location: "growth.srm:5,17",
		}},
	}
	if diff := cmp.Diff(want, Describe(m, diags)); diff != "" {
		t.Errorf("report mismatch (-want +got):\n%s", diff)
	}
}

func TestWrite(t *testing.T) {
	m, diags, err := frontend.Parse(ctxlog.Discard(context.Background()), []byte(growth), "growth.srm", frontend.Options{})
	require.NoError(t, err)

	r := New()
	r.Add(m, diags)
	r.AddFailure("models/broken.srm", hcl.Diagnostics{{
		Severity: hcl.DiagError,
		Summary:  "Model construction failed",
		Detail:   "unknown species",
	}}, errors.New("broken.srm:1,1: unknown species"))

	var buf bytes.Buffer
	require.NoError(t, r.Write(&buf))
	assert.Contains(t, buf.String(), "models:\n  - name: growth\n")
	assert.Contains(t, buf.String(), "failed: true")

	var back Report
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &back))
	if diff := cmp.Diff(*r, back); diff != "" {
		t.Errorf("decoded report differs (-written +decoded):\n%s", diff)
	}
	assert.Equal(t, "broken", back.Models[1].Name)
	assert.Equal(t, "severe", back.Models[1].Diagnostics[0].Severity)
	assert.Empty(t, back.Models[1].Diagnostics[0].Location)
}
