// Package logging defines the structured logger used across the app.
// Implementations wrap log/slog or go-logger.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger is a context-aware, structured logger. The variadic args are
// key-value pairs:
//
//	log.Info(ctx, "sync finished", "run_id", id, "synced", n)
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always includes the given pairs.
	With(args ...any) Logger
}

type Config struct {
	Level   string // debug, info, warn, error
	Format  string // text or json for slog; json, console or pretty for golog
	Backend string // slog or golog
}

// New builds a logger for cfg writing to stderr.
func New(cfg Config) (Logger, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", "slog":
		return newSlog(os.Stderr, cfg)
	case "golog":
		return NewGoLogger(cfg)
	default:
		return nil, fmt.Errorf("logging: unsupported backend %q", cfg.Backend)
	}
}

func newSlog(w io.Writer, cfg Config) (Logger, error) {
	opts := &slog.HandlerOptions{Level: slogLevel(cfg.Level)}
	var h slog.Handler
	switch strings.ToLower(strings.TrimSpace(cfg.Format)) {
	case "", "text":
		h = slog.NewTextHandler(w, opts)
	case "json":
		h = slog.NewJSONHandler(w, opts)
	default:
		return nil, fmt.Errorf("logging: unsupported slog format %q", cfg.Format)
	}
	return NewSlogLogger(slog.New(h)), nil
}

func slogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug", "trace":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
