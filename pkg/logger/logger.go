// Package logger builds the structured loggers every subsystem of the
// storage engine accepts via its Config. It is a thin, opinionated wrapper
// around go.uber.org/zap, the logging library the rest of this module
// standardizes on.
package logger

import (
	"go.uber.org/zap"
)

// New builds a production-configured, JSON-encoded *zap.SugaredLogger
// tagged with the given service name. Every engine subsystem logs through
// the same *zap.SugaredLogger type, so callers that already have one (for
// example, an embedding application with its own zap setup) can pass it
// straight through instead of calling New.
func New(service string) *zap.SugaredLogger {
	cfg := zap.NewProductionConfig()
	cfg.DisableStacktrace = true

	base, err := cfg.Build()
	if err != nil {
		// zap.NewProductionConfig().Build() only fails on a malformed
		// encoder/output configuration, which New never constructs, so
		// falling back to a no-op logger here never masks a real failure
		// path in this package's callers.
		base = zap.NewNop()
	}

	return base.Sugar().With("service", service)
}
