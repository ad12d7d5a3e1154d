package testutil

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/spacerules/internal/app"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// HarnessResult holds the outcomes of an integration test run.
type HarnessResult struct {
	Dir       string // temporary root the files were written to
	LogOutput string
	Report    string // YAML written to the output writer
	Err       error
	App       *app.App
}

// RunModelTest writes files (paths relative to a temporary root) and runs
// the app over the root's "models" directory with the report on the output
// writer. configure may adjust the config; a relative ParamsFile is
// resolved against the root.
func RunModelTest(t *testing.T, files map[string]string, configure func(*app.Config)) *HarnessResult {
	t.Helper()
	return RunModelTestWithContext(context.Background(), t, files, configure)
}

// RunModelTestWithContext is RunModelTest with a caller-provided context.
func RunModelTestWithContext(ctx context.Context, t *testing.T, files map[string]string, configure func(*app.Config)) *HarnessResult {
	t.Helper()

	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "models"), 0o755))
	for name, content := range files {
		filePath := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(filePath), 0o755))
		require.NoError(t, os.WriteFile(filePath, []byte(Unindent(content)), 0o644))
	}

	cfg := app.Config{
		ModelPath:  filepath.Join(root, "models"),
		ReportPath: "-",
		LogLevel:   "debug",
		LogFormat:  "text",
	}
	if configure != nil {
		configure(&cfg)
	}
	if cfg.ParamsFile != "" && !filepath.IsAbs(cfg.ParamsFile) {
		cfg.ParamsFile = filepath.Join(root, cfg.ParamsFile)
	}
	appConfig, err := app.NewConfig(cfg)
	require.NoError(t, err)

	logBuffer := &SafeBuffer{}
	out := &bytes.Buffer{}
	testApp := app.NewApp(out, logBuffer, appConfig)
	runErr := testApp.Run(ctx)

	if os.Getenv("SRM_TEST_LOGS") == "true" {
		t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
	}

	return &HarnessResult{
		Dir:       root,
		LogOutput: logBuffer.String(),
		Report:    out.String(),
		Err:       runErr,
		App:       testApp,
	}
}
