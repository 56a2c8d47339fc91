package logging

import (
	"context"
	"fmt"
	"strings"

	glog "github.com/goliatone/go-logger/glog"
)

// GoLogger adapts go-logger to Logger.
type GoLogger struct {
	inner glog.Logger
}

func NewGoLogger(cfg Config) (*GoLogger, error) {
	options := []glog.Option{}
	if level := gologLevel(cfg.Level); level != "" {
		options = append(options, glog.WithLevel(level))
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Format)) {
	case "", "json":
		options = append(options, glog.WithLoggerTypeJSON())
	case "console", "text":
		options = append(options, glog.WithLoggerTypeConsole())
	case "pretty":
		options = append(options, glog.WithLoggerTypePretty())
	default:
		return nil, fmt.Errorf("logging: unsupported go-logger format %q", cfg.Format)
	}
	return &GoLogger{inner: glog.NewLogger(options...)}, nil
}

// Named returns a child logger registered under name.
func (g *GoLogger) Named(name string) Logger {
	if root, ok := g.inner.(*glog.BaseLogger); ok && strings.TrimSpace(name) != "" {
		return &GoLogger{inner: root.GetLogger(name)}
	}
	return g
}

func (g *GoLogger) Debug(ctx context.Context, msg string, args ...any) {
	g.withCtx(ctx).Debug(msg, args...)
}

func (g *GoLogger) Info(ctx context.Context, msg string, args ...any) {
	g.withCtx(ctx).Info(msg, args...)
}

func (g *GoLogger) Warn(ctx context.Context, msg string, args ...any) {
	g.withCtx(ctx).Warn(msg, args...)
}

func (g *GoLogger) Error(ctx context.Context, msg string, args ...any) {
	g.withCtx(ctx).Error(msg, args...)
}

func (g *GoLogger) With(args ...any) Logger {
	if len(args) == 0 {
		return g
	}
	if with, ok := g.inner.(interface{ With(...any) *glog.BaseLogger }); ok {
		return &GoLogger{inner: with.With(args...)}
	}
	if with, ok := g.inner.(glog.FieldsLogger); ok {
		return &GoLogger{inner: with.WithFields(pairsToFields(args))}
	}
	return g
}

func (g *GoLogger) withCtx(ctx context.Context) glog.Logger {
	if ctx == nil {
		return g.inner
	}
	return g.inner.WithContext(ctx)
}

func pairsToFields(args []any) map[string]any {
	fields := make(map[string]any, len(args)/2)
	for i := 0; i+1 < len(args); i += 2 {
		fields[fmt.Sprint(args[i])] = args[i+1]
	}
	return fields
}

func gologLevel(level string) string {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return glog.Trace
	case "debug":
		return glog.Debug
	case "info":
		return glog.Info
	case "warn", "warning":
		return glog.Warn
	case "error":
		return glog.Error
	default:
		return ""
	}
}
