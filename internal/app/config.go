package app

import (
	"errors"
	"fmt"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	ModelPath  string   // .srm file or directory
	ParamsFile string   // optional HCL file of constant overrides
	Sets       []string // name=value overrides, applied after ParamsFile

	// ReportPath is where the YAML report goes. "-" writes it to the
	// App's output writer and "" disables it.
	ReportPath string

	Seed             int64
	SkipInvalidRules bool

	LogFormat string
	LogLevel  string
}

func NewConfig(cfg Config) (*Config, error) {
	if cfg.ModelPath == "" {
		return nil, errors.New("ModelPath is a required configuration field and cannot be empty")
	}
	if _, ok := logLevels[cfg.LogLevel]; cfg.LogLevel != "" && !ok {
		return nil, fmt.Errorf("unknown log level %q", cfg.LogLevel)
	}
	switch cfg.LogFormat {
	case "", "text", "json":
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.LogFormat)
	}
	return &cfg, nil
}
