// Package logging builds the process-wide logger. Structured entries are
// emitted through a zap core, as JSON in production or console-encoded when
// pretty output is requested.
package logging

import (
	"fmt"

	"github.com/Gobusters/ectologger"
	"go.uber.org/zap"
)

// New creates the application logger. level is a zap level name ("debug",
// "info", "warn", "error"); pretty switches to a human-readable development
// encoding.
func New(level string, pretty bool) (ectologger.Logger, func(), error) {
	parsed, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	var cfg zap.Config
	if pretty {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	cfg.Level = parsed

	core, err := cfg.Build()
	if err != nil {
		return nil, nil, err
	}

	logger := ectologger.NewEctoLogger(func(msg ectologger.EctoLogMessage) {
		core.Info("log", zap.Any("entry", msg))
	})

	flush := func() {
		_ = core.Sync()
	}
	return logger, flush, nil
}

// NewNop creates a logger that discards everything. Intended for tests.
func NewNop() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}
