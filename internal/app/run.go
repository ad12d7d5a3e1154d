package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/spacerules/internal/config"
	"github.com/vk/spacerules/internal/ctxlog"
	"github.com/vk/spacerules/internal/diag"
	"github.com/vk/spacerules/internal/frontend"
	"github.com/vk/spacerules/internal/fsutil"
)

var (
	// ErrNoModels is returned when the model path holds no model files.
	ErrNoModels = errors.New("no model files found")
	// ErrModelsFailed is returned when at least one model could not be built.
	ErrModelsFailed = errors.New("model construction failed")
)

// Run executes the main application logic based on the App's configuration.
// Every model file is attempted; failures are reported and counted.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	overrides, err := a.loadOverrides(ctx)
	if err != nil {
		return err
	}

	files, err := fsutil.FindModelFiles(a.config.ModelPath)
	if err != nil {
		return fmt.Errorf("failed to find model files: %w", err)
	}
	if len(files) == 0 {
		return fmt.Errorf("%s: %w", a.config.ModelPath, ErrNoModels)
	}
	a.logger.Debug("Model files discovered.", "count", len(files))

	opts := frontend.Options{
		Overrides:        overrides,
		Seed:             a.config.Seed,
		SkipInvalidRules: a.config.SkipInvalidRules,
	}
	failed := 0
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !a.parseFile(ctx, file, opts) {
			failed++
		}
	}

	if err := a.writeReport(); err != nil {
		return err
	}

	a.logger.Info("Run finished.", "models", len(a.workspace.Models), "failed", failed)
	if failed > 0 {
		return fmt.Errorf("%d of %d model files: %w", failed, len(files), ErrModelsFailed)
	}
	return nil
}

// loadOverrides reads the parameter file and applies -set assignments on top.
func (a *App) loadOverrides(ctx context.Context) (config.Overrides, error) {
	overrides := config.Overrides{}
	if a.config.ParamsFile != "" {
		fromFile, err := config.LoadFile(ctx, a.config.ParamsFile)
		if err != nil {
			return nil, err
		}
		overrides.Merge(fromFile)
	}
	for _, s := range a.config.Sets {
		name, v, err := config.ParseAssignment(s)
		if err != nil {
			return nil, err
		}
		overrides[name] = v
	}
	if len(overrides) > 0 {
		a.logger.Debug("Overrides loaded.", "names", overrides.Names())
	}
	return overrides, nil
}

// parseFile builds one model and records it. It reports whether the model
// was built.
func (a *App) parseFile(ctx context.Context, file string, opts frontend.Options) bool {
	src, err := os.ReadFile(file)
	if err != nil {
		a.logger.Error("Failed to read model file.", "file", file, "error", err)
		a.report.AddFailure(file, nil, err)
		return false
	}

	m, diags, err := frontend.Parse(ctx, src, file, opts)
	a.logDiagnostics(ctx, diags)
	if err != nil {
		var positioned *diag.Error
		if errors.As(err, &positioned) {
			diags = append(diags, positioned.Diagnostic())
		}
		a.logger.Error("Model construction failed.", "file", file, "error", err)
		a.report.AddFailure(file, diags, err)
		return false
	}

	a.workspace.Add(m)
	a.report.Add(m, diags)
	a.logger.Info("Model built.",
		"model", m.Name(),
		"species", len(m.Species()),
		"rules", len(m.Rules()),
		"warnings", countSeverity(diags, hcl.DiagWarning),
		"severe", countSeverity(diags, hcl.DiagError),
	)
	return true
}

func (a *App) logDiagnostics(ctx context.Context, diags hcl.Diagnostics) {
	for _, d := range diags {
		level := slog.LevelWarn
		if d.Severity == hcl.DiagError {
			level = slog.LevelError
		}
		args := []any{"detail", d.Detail}
		if d.Subject != nil {
			args = append(args, "file", d.Subject.Filename, "line", d.Subject.Start.Line, "column", d.Subject.Start.Column)
		}
		a.logger.Log(ctx, level, d.Summary, args...)
	}
}

func (a *App) writeReport() error {
	switch a.config.ReportPath {
	case "":
		return nil
	case "-":
		return a.report.Write(a.outW)
	}
	f, err := os.Create(a.config.ReportPath)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	if err := a.report.Write(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close report: %w", err)
	}
	a.logger.Debug("Report written.", "path", a.config.ReportPath)
	return nil
}

func countSeverity(diags hcl.Diagnostics, sev hcl.DiagnosticSeverity) int {
	n := 0
	for _, d := range diags {
		if d.Severity == sev {
			n++
		}
	}
	return n
}
