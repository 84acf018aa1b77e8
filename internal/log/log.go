package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

type Key struct{}

var LoggerKey = Key{}

// LevelTrace is a custom trace level for slog
// Using LevelDebug - 4 which equals -8
const LevelTrace = slog.LevelDebug - 4

// Levels lists the accepted values of the log-level setting.
var Levels = []string{"trace", "debug", "info", "warn", "error"}

// ParseLevel maps a configured level name to its slog level. Unknown names
// fall back to error so a typo never floods the log.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return LevelTrace
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}

// FromContext returns the logger stored under LoggerKey, or a logger that
// discards everything.
func FromContext(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if logger, ok := ctx.Value(LoggerKey).(*slog.Logger); ok && logger != nil {
			return logger
		}
	}
	return Discard()
}

// WithLogger stores logger in ctx.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, LoggerKey, logger)
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

// Options configures the logger built by New.
type Options struct {
	Level string
	// File receives every record at or above Level. Empty disables the file.
	File string
	// ErrOut receives a friendly rendering of error records.
	ErrOut io.Writer
}

// New builds the application logger: records go to the log file, errors are
// mirrored to ErrOut. The returned closer releases the log file.
func New(opts Options) (*slog.Logger, io.Closer, error) {
	level := ParseLevel(opts.Level)

	var primary slog.Handler
	var closer io.Closer = nopCloser{}
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			return nil, nil, fmt.Errorf("creating log directory: %w", err)
		}
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			return nil, nil, fmt.Errorf("opening log file: %w", err)
		}
		closer = f
		primary = slog.NewTextHandler(f, &slog.HandlerOptions{
			Level:       level,
			ReplaceAttr: replaceLevelName,
		})
	}

	var secondary slog.Handler
	if opts.ErrOut != nil {
		secondary = NewFriendlyErrorHandler(opts.ErrOut)
	}

	return slog.New(NewDualHandler(primary, secondary)), closer, nil
}

func replaceLevelName(_ []string, a slog.Attr) slog.Attr {
	if a.Key != slog.LevelKey {
		return a
	}
	if lvl, ok := a.Value.Any().(slog.Level); ok && lvl <= LevelTrace {
		a.Value = slog.StringValue("TRACE")
	}
	return a
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
