// Package logger is the process-wide structured logger. It wraps log/slog and
// exposes package-level helpers so call sites never carry a logger around.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Config holds logger configuration
type Config struct {
	Level  string // DEBUG, INFO, WARN, ERROR
	Format string // text, json
	Output string // stdout, stderr, or file path
}

var (
	mu      sync.RWMutex
	level   = new(slog.LevelVar)
	format  = "text"
	output  io.Writer = os.Stderr
	slogger *slog.Logger
)

func init() {
	level.Set(slog.LevelInfo)
	rebuild()
}

// rebuild recreates the slog logger from the current settings. Callers hold mu
// or run before any concurrent use.
func rebuild() {
	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	if format == "json" {
		h = slog.NewJSONHandler(output, opts)
	} else {
		h = slog.NewTextHandler(output, opts)
	}
	slogger = slog.New(h)
}

// Init configures the logger. Output can be "stdout", "stderr", or a file path.
func Init(cfg Config) error {
	mu.Lock()
	defer mu.Unlock()

	switch strings.ToLower(cfg.Output) {
	case "":
	case "stdout":
		output = os.Stdout
	case "stderr":
		output = os.Stderr
	default:
		f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("open log file %q: %w", cfg.Output, err)
		}
		output = f
	}

	if cfg.Level != "" {
		setLevel(cfg.Level)
	}
	if f := strings.ToLower(cfg.Format); f == "text" || f == "json" {
		format = f
	}
	rebuild()
	return nil
}

// InitWithWriter points the logger at w. Used by tests and the TUI, which
// must keep log lines off the terminal it draws on.
func InitWithWriter(w io.Writer, lvl, fmtName string) {
	mu.Lock()
	defer mu.Unlock()
	output = w
	if lvl != "" {
		setLevel(lvl)
	}
	if f := strings.ToLower(fmtName); f == "text" || f == "json" {
		format = f
	}
	rebuild()
}

// SetLevel sets the minimum log level. Unknown names are ignored.
func SetLevel(lvl string) {
	mu.Lock()
	defer mu.Unlock()
	setLevel(lvl)
}

func setLevel(lvl string) {
	switch strings.ToUpper(lvl) {
	case "DEBUG":
		level.Set(slog.LevelDebug)
	case "INFO":
		level.Set(slog.LevelInfo)
	case "WARN", "WARNING":
		level.Set(slog.LevelWarn)
	case "ERROR":
		level.Set(slog.LevelError)
	}
}

// Slog returns the underlying logger, for libraries that want a *slog.Logger.
func Slog() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return slogger
}

// Debug logs at debug level with structured fields
// Usage: Debug("message", "key1", value1, "key2", value2)
func Debug(msg string, args ...any) { Slog().Debug(msg, args...) }

// Info logs at info level with structured fields
func Info(msg string, args ...any) { Slog().Info(msg, args...) }

// Warn logs at warn level with structured fields
func Warn(msg string, args ...any) { Slog().Warn(msg, args...) }

// Error logs at error level with structured fields
func Error(msg string, args ...any) { Slog().Error(msg, args...) }

// DebugCtx logs at debug level, prefixing the request fields stored in ctx.
func DebugCtx(ctx context.Context, msg string, args ...any) {
	Slog().DebugContext(ctx, msg, appendContextFields(ctx, args)...)
}

// InfoCtx logs at info level with context
func InfoCtx(ctx context.Context, msg string, args ...any) {
	Slog().InfoContext(ctx, msg, appendContextFields(ctx, args)...)
}

// WarnCtx logs at warn level with context
func WarnCtx(ctx context.Context, msg string, args ...any) {
	Slog().WarnContext(ctx, msg, appendContextFields(ctx, args)...)
}

// ErrorCtx logs at error level with context
func ErrorCtx(ctx context.Context, msg string, args ...any) {
	Slog().ErrorContext(ctx, msg, appendContextFields(ctx, args)...)
}
