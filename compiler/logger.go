package compiler

import (
	"sync"

	"go.uber.org/zap"
)

var (
	logger     *zap.Logger
	loggerOnce sync.Once
)

// Logger returns the compiler package's logger instance. Defaults to a
// no-op logger, same pattern as engine.Logger/linker.Logger.
func Logger() *zap.Logger {
	loggerOnce.Do(func() {
		if logger == nil {
			logger = zap.NewNop()
		}
	})
	return logger
}

// SetLogger configures the compiler package's logger.
func SetLogger(l *zap.Logger) {
	logger = l
}
