// Package logging builds the process-wide zap logger.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options selects the logger flavour.
type Options struct {
	// Verbose lowers the level to debug and enables stack traces.
	Verbose bool
	// JSON selects the production JSON encoder instead of the console one.
	JSON bool
}

// Config returns the zap configuration for o. Logs always go to stderr so
// stdout stays free for command output.
func Config(o Options) zap.Config {
	var cfg zap.Config
	if o.JSON {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.Development = false
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}

	cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if o.Verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	cfg.DisableStacktrace = !o.Verbose
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	return cfg
}

// New builds a logger for o.
func New(o Options) (*zap.Logger, error) {
	logger, err := Config(o).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}
