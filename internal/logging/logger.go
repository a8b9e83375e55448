// Package logging installs the process-wide slog logger, backed by zap.
package logging

import (
	"fmt"
	"log/slog"

	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"
	"go.uber.org/zap/zapcore"
)

// New builds a JSON zap logger at the given level and returns a slog.Logger on top of it,
// plus a sync function to flush buffered entries on shutdown.
func New(level string) (*slog.Logger, func(), error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing log level %q: %w", level, err)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.DisableStacktrace = true

	zl, err := cfg.Build()
	if err != nil {
		return nil, nil, fmt.Errorf("building zap logger: %w", err)
	}

	sync := func() { _ = zl.Sync() }
	return slog.New(zapslog.NewHandler(zl.Core())), sync, nil
}

// Setup installs the logger as slog's default. An invalid level falls back to info.
func Setup(level string) func() {
	logger, sync, err := New(level)
	if err != nil {
		slog.Warn("invalid log level, defaulting to info", "level", level, "error", err)
		logger, sync, err = New("info")
		if err != nil {
			return func() {}
		}
	}
	slog.SetDefault(logger)
	return sync
}
