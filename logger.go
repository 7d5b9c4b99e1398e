package magellan

import (
	"go.uber.org/zap"
	"sync"
)

var (
	logger     *zap.Logger
	loggerOnce sync.Once
)

// Logger returns the package logger.
// It uses a no-op logger by default.
func Logger() *zap.Logger {
	loggerOnce.Do(func() {
		if logger == nil {
			logger = zap.NewNop()
		}
	})
	return logger
}

// SetLogger configures the package logger.
//
// Unresolvable properties encountered while mapping are reported at debug level -
// set a logger to see them
func SetLogger(l *zap.Logger) {
	logger = l
}
