package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger(t *testing.T) (*SlogLogger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	h := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	return NewSlogLogger(slog.New(h)), &buf
}

func TestSlogLogger_Levels(t *testing.T) {
	log, buf := newTestLogger(t)
	ctx := context.Background()

	log.Debug(ctx, "dbg", "a", 1)
	log.Info(ctx, "inf", "b", 2)
	log.Warn(ctx, "wrn", "c", 3)
	log.Error(ctx, "err", "d", 4)

	out := buf.String()
	for _, want := range []string{
		"level=DEBUG", "msg=dbg", "a=1",
		"level=INFO", "msg=inf", "b=2",
		"level=WARN", "msg=wrn", "c=3",
		"level=ERROR", "msg=err", "d=4",
	} {
		assert.Contains(t, out, want)
	}
}

func TestSlogLogger_With(t *testing.T) {
	log, buf := newTestLogger(t)

	log.With("component", "syncer", "run_id", "r1").Info(context.Background(), "hello", "k", "v")

	out := buf.String()
	assert.Contains(t, out, "component=syncer")
	assert.Contains(t, out, "run_id=r1")
	assert.Contains(t, out, "k=v")
}

func TestNewSlog_RespectsLevelAndFormat(t *testing.T) {
	var buf bytes.Buffer
	log, err := newSlog(&buf, Config{Level: "warn", Format: "json"})
	require.NoError(t, err)

	log.Info(context.Background(), "hidden")
	log.Warn(context.Background(), "shown", "n", 1)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"shown"`)
	assert.Contains(t, out, `"n":1`)
}

func TestNew_UnknownBackend(t *testing.T) {
	_, err := New(Config{Backend: "zap"})
	require.Error(t, err)

	_, err = newSlog(&bytes.Buffer{}, Config{Format: "xml"})
	require.Error(t, err)
}

func TestNoOp(t *testing.T) {
	l := NoOp()
	l.With("a", 1).Error(context.TODO(), "ignored")
}
