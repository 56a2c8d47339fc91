package logging

import "context"

type noop struct{}

// NoOp returns a logger that discards everything.
func NoOp() Logger { return noop{} }

func (noop) Debug(context.Context, string, ...any) {}
func (noop) Info(context.Context, string, ...any)  {}
func (noop) Warn(context.Context, string, ...any)  {}
func (noop) Error(context.Context, string, ...any) {}
func (n noop) With(...any) Logger                  { return n }
