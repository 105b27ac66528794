// Package logging builds the per-component zap loggers. Every long-lived
// component gets its own file sink named after the component, so one busy
// thread cannot drown out another's diagnostics.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a logger writing to the given file path with nanosecond
// timestamps. The hot paths never log; everything edge-triggered does.
func New(path string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{path}
	cfg.ErrorOutputPaths = []string{path}
	cfg.Sampling = nil
	cfg.EncoderConfig.EncodeTime = zapcore.EpochNanosTimeEncoder
	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger for %s: %w", path, err)
	}
	return logger, nil
}

// MustNew is New for main() wiring where a logger failure is fatal anyway.
func MustNew(path string) *zap.Logger {
	logger, err := New(path)
	if err != nil {
		panic(err)
	}
	return logger
}
