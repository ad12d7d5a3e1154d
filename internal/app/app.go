package app

import (
	"io"
	"log/slog"

	"github.com/vk/spacerules/internal/model"
	"github.com/vk/spacerules/internal/report"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW      io.Writer
	logger    *slog.Logger
	config    *Config
	workspace *model.Workspace
	report    *report.Report
}

// NewApp is the constructor for the main application. Logs go to logW; the
// report goes to outW when Config.ReportPath is "-".
func NewApp(outW, logW io.Writer, cfg *Config) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, logW)
	logger.Debug("Logger configured successfully.")

	return &App{
		outW:      outW,
		logger:    logger,
		config:    cfg,
		workspace: model.NewWorkspace(),
		report:    report.New(),
	}
}

// Workspace returns the models built by Run. This is primarily for testing.
func (a *App) Workspace() *model.Workspace {
	return a.workspace
}

// Report returns the report assembled by Run.
func (a *App) Report() *report.Report {
	return a.report
}
