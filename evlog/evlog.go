// Package evlog provides structured logging for the voting cryptography
// core. It wraps zerolog with election-specific conveniences such as
// per-subsystem child loggers, the way wyf-ACCEPT-eth2030/pkg/log wraps
// log/slog for its subsystems.
package evlog

import (
	"os"

	"github.com/rs/zerolog"
)

// Logger wraps zerolog.Logger with module context.
type Logger struct {
	inner zerolog.Logger
}

var defaultLogger *Logger

func init() {
	defaultLogger = New(zerolog.InfoLevel)
}

// New creates a Logger that writes JSON to stderr at the given level.
func New(level zerolog.Level) *Logger {
	z := zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()
	return &Logger{inner: z}
}

// SetDefault replaces the package-level default logger.
func SetDefault(l *Logger) {
	if l != nil {
		defaultLogger = l
	}
}

// Default returns the current package-level default logger.
func Default() *Logger {
	return defaultLogger
}

// Module returns a child logger tagged with the given subsystem name: the
// primary way a cryptographic component (threshold, shuffle, ...) obtains
// its own contextual logger.
func (l *Logger) Module(name string) *Logger {
	return &Logger{inner: l.inner.With().Str("module", name).Logger()}
}

// With returns a child logger carrying additional key/value context.
func (l *Logger) With(key string, value any) *Logger {
	return &Logger{inner: l.inner.With().Interface(key, value).Logger()}
}

// Debug logs at debug level.
func (l *Logger) Debug(msg string) { l.inner.Debug().Msg(msg) }

// Info logs at info level.
func (l *Logger) Info(msg string) { l.inner.Info().Msg(msg) }

// Warn logs at warn level.
func (l *Logger) Warn(msg string) { l.inner.Warn().Msg(msg) }

// Error logs an error at error level with the failing err attached.
func (l *Logger) Error(msg string, err error) { l.inner.Error().Err(err).Msg(msg) }
