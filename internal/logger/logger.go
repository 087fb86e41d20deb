package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps the zap logger with additional functionality.
type Logger struct {
	*zap.Logger
}

// Option adjusts the logger configuration before it is built.
type Option func(*zap.Config)

// WithLevel sets the minimum enabled level from its string form ("debug",
// "info", "warn", "error"). Unknown names keep the default; configuration
// validation rejects them before they reach here.
func WithLevel(level string) Option {
	return func(cfg *zap.Config) {
		parsed, err := zapcore.ParseLevel(level)
		if err != nil {
			return
		}

		cfg.Level = zap.NewAtomicLevelAt(parsed)
	}
}

// NewLogger creates a new logger instance with production configuration.
func NewLogger(opts ...Option) (*Logger, error) {
	config := zap.NewProductionConfig()
	config.OutputPaths = []string{"stdout"}
	config.ErrorOutputPaths = []string{"stderr"}
	config.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)

	for _, opt := range opts {
		opt(&config)
	}

	zapLogger, err := config.Build()
	if err != nil {
		return nil, err
	}

	return &Logger{Logger: zapLogger}, nil
}

// NewNopLogger returns a logger that discards everything. Useful in tests.
func NewNopLogger() *Logger {
	return &Logger{Logger: zap.NewNop()}
}

// Sync flushes any buffered log entries.
func (l *Logger) Sync() error {
	if l.Logger != nil {
		return l.Logger.Sync()
	}

	return nil
}
