// Package logging builds the structured loggers every long-lived FRICO
// component receives at construction time.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a *zap.SugaredLogger writing to path ("" or "stdout" means
// standard output). develMode enables human-readable, colorized output for
// local runs; production mode emits JSON suitable for log aggregation.
func New(path string, develMode bool) (*zap.SugaredLogger, error) {
	var cfg zap.Config
	if develMode {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}

	if path != "" && path != "stdout" {
		cfg.OutputPaths = []string{path}
		cfg.ErrorOutputPaths = []string{path}
	}
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	return logger.Sugar(), nil
}
