package app_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/spacerules/internal/app"
	"github.com/vk/spacerules/internal/report"
	"github.com/vk/spacerules/internal/testutil"
	"gopkg.in/yaml.v3"
)

const growthModel = `
	N = 3;
	species Foo(x: [0..10]);
	Foo(x = v) -> Foo(x := v + 1) @ 1;
	init [ N Foo(x: 0) ];
`

func TestNewConfig(t *testing.T) {
	testCases := []struct {
		name    string
		cfg     app.Config
		wantErr string
	}{
		{name: "minimal", cfg: app.Config{ModelPath: "models"}},
		{name: "full", cfg: app.Config{ModelPath: "m.srm", LogLevel: "debug", LogFormat: "json", ReportPath: "-"}},
		{name: "missing path", cfg: app.Config{}, wantErr: "ModelPath is a required"},
		{name: "bad level", cfg: app.Config{ModelPath: "m", LogLevel: "loud"}, wantErr: "unknown log level"},
		{name: "bad format", cfg: app.Config{ModelPath: "m", LogFormat: "xml"}, wantErr: "unknown log format"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := app.NewConfig(tc.cfg)
			if tc.wantErr != "" {
				require.ErrorContains(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.cfg, *cfg)
		})
	}
}

func TestRun_BuildsEveryModel(t *testing.T) {
	result := testutil.RunModelTest(t, map[string]string{
		"models/a.srm":        growthModel,
		"models/nested/b.srm": "species Bar;\ninit [ 2 Bar ];\n",
		"models/notes.txt":    "not a model",
	}, nil)
	require.NoError(t, result.Err)

	models := result.App.Workspace().Models
	require.Len(t, models, 2)
	assert.Equal(t, "a", models[0].Name())
	assert.Equal(t, "b", models[1].Name())
	assert.Equal(t, 3, models[0].Count("Foo(x=0)"))

	b, ok := result.App.Workspace().Find("b")
	require.True(t, ok)
	assert.Equal(t, 2, b.Count("Bar"))

	assert.Contains(t, result.Report, "name: a")
	assert.Contains(t, result.Report, "entity: Bar")
	testutil.AssertLogged(t, result, "Model built.", "model=a", "rules=1")
	testutil.AssertLogged(t, result, "Run finished.", "models=2", "failed=0")
}

func TestRun_Overrides(t *testing.T) {
	result := testutil.RunModelTest(t, map[string]string{
		"models/growth.srm": growthModel,
		"params.hcl":        "N = 5\n",
	}, func(cfg *app.Config) {
		cfg.ParamsFile = "params.hcl"
		cfg.Sets = []string{"Z=1"}
	})
	require.NoError(t, result.Err)

	m, ok := result.App.Workspace().Find("growth")
	require.True(t, ok)
	assert.Equal(t, 5, m.Count("Foo(x=0)"))
	testutil.AssertLogged(t, result, "Unused override", "level=WARN")
	testutil.AssertLogged(t, result, "Model built.", "warnings=1", "severe=0")

	t.Run("set wins over file", func(t *testing.T) {
		result := testutil.RunModelTest(t, map[string]string{
			"models/growth.srm": growthModel,
			"params.hcl":        "N = 5\n",
		}, func(cfg *app.Config) {
			cfg.ParamsFile = "params.hcl"
			cfg.Sets = []string{"N=2"}
		})
		require.NoError(t, result.Err)
		m, _ := result.App.Workspace().Find("growth")
		assert.Equal(t, 2, m.Count("Foo(x=0)"))
	})

	t.Run("bad assignment", func(t *testing.T) {
		result := testutil.RunModelTest(t, map[string]string{"models/growth.srm": growthModel}, func(cfg *app.Config) {
			cfg.Sets = []string{"N"}
		})
		require.Error(t, result.Err)
		assert.Empty(t, result.App.Workspace().Models)
	})
}

func TestRun_FailedModelIsReported(t *testing.T) {
	result := testutil.RunModelTest(t, map[string]string{
		"models/good.srm":   growthModel,
		"models/broken.srm": "species Foo;\ninit [ 2 Bar ];\n",
	}, nil)
	require.ErrorIs(t, result.Err, app.ErrModelsFailed)
	assert.Contains(t, result.Err.Error(), "1 of 2 model files")

	require.Len(t, result.App.Workspace().Models, 1)
	assert.Equal(t, "good", result.App.Workspace().Models[0].Name())

	models := result.App.Report().Models
	require.Len(t, models, 2)
	broken := models[0]
	assert.Equal(t, "broken", broken.Name)
	assert.True(t, broken.Failed)
	require.NotEmpty(t, broken.Diagnostics)
	assert.Equal(t, "Model construction failed", broken.Diagnostics[0].Summary)
	assert.Contains(t, broken.Diagnostics[0].Location, "broken.srm:2,")

	testutil.AssertLogged(t, result, "Model construction failed.", "level=ERROR")
}

func TestRun_SkipInvalidRules(t *testing.T) {
	files := map[string]string{
		"models/skip.srm": `
			species Foo;
			Bar(x = 1) -> Foo @ 1;
			Foo -> @ 2;
		`,
	}
	result := testutil.RunModelTest(t, files, nil)
	require.ErrorIs(t, result.Err, app.ErrModelsFailed)

	result = testutil.RunModelTest(t, files, func(cfg *app.Config) { cfg.SkipInvalidRules = true })
	require.NoError(t, result.Err)
	m, ok := result.App.Workspace().Find("skip")
	require.True(t, ok)
	assert.Len(t, m.Rules(), 1)
	testutil.AssertLogged(t, result, "Rule skipped", "level=ERROR", "line=2")
}

func TestRun_NoModels(t *testing.T) {
	result := testutil.RunModelTest(t, nil, nil)
	require.ErrorIs(t, result.Err, app.ErrNoModels)
}

func TestRun_ReportFile(t *testing.T) {
	reportPath := filepath.Join(t.TempDir(), "report.yaml")
	result := testutil.RunModelTest(t, map[string]string{"models/growth.srm": growthModel}, func(cfg *app.Config) {
		cfg.ReportPath = reportPath
	})
	require.NoError(t, result.Err)
	assert.Empty(t, result.Report)

	data, err := os.ReadFile(reportPath)
	require.NoError(t, err)
	var got report.Report
	require.NoError(t, yaml.Unmarshal(data, &got))
	require.Len(t, got.Models, 1)
	assert.Equal(t, "growth", got.Models[0].Name)
	assert.Equal(t, []report.Count{{Entity: "Foo(x=0)", Count: 3}}, got.Models[0].Population)
}

func TestRun_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	result := testutil.RunModelTestWithContext(ctx, t, map[string]string{"models/growth.srm": growthModel}, nil)
	require.ErrorIs(t, result.Err, context.Canceled)
}
