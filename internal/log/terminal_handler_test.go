package log

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func debugTerminalHandler(buf *bytes.Buffer) *TerminalHandler {
	return newTerminalHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})
}

func TestTerminalHandler_LineFormat(t *testing.T) {
	var buf bytes.Buffer
	h := debugTerminalHandler(&buf)

	ts := time.Date(2026, 1, 15, 10, 30, 45, 123000000, time.UTC)
	r := slog.NewRecord(ts, slog.LevelInfo, "search started", 0)
	r.AddAttrs(slog.String("seed", "pd.concat"), slog.Int("hosts", 120))
	require.NoError(t, h.Handle(context.Background(), r))

	line := buf.String()
	assert.Contains(t, line, "10:30:45.123")
	assert.Contains(t, line, "INF")
	assert.Contains(t, line, "search started")
	assert.Contains(t, line, "seed=")
	assert.Contains(t, line, "pd.concat")
	assert.Contains(t, line, "hosts=")
}

func TestTerminalHandler_LevelTags(t *testing.T) {
	for _, tt := range []struct {
		level slog.Level
		tag   string
	}{
		{slog.LevelDebug, "DBG"},
		{slog.LevelInfo, "INF"},
		{slog.LevelWarn, "WRN"},
		{slog.LevelError, "ERR"},
	} {
		t.Run(tt.tag, func(t *testing.T) {
			var buf bytes.Buffer
			h := debugTerminalHandler(&buf)
			r := slog.NewRecord(time.Now(), tt.level, "msg", 0)
			require.NoError(t, h.Handle(context.Background(), r))
			assert.Contains(t, buf.String(), tt.tag)
		})
	}
}

func TestTerminalHandler_ErrorsRenderRed(t *testing.T) {
	var buf bytes.Buffer
	h := debugTerminalHandler(&buf)

	r := slog.NewRecord(time.Now(), slog.LevelError, "oracle request failed", 0)
	require.NoError(t, h.Handle(context.Background(), r))

	line := buf.String()
	assert.Contains(t, line, ansiRed)
	assert.Contains(t, line, ansiBold)
	assert.Contains(t, line, ansiReset)
}

func TestTerminalHandler_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	h := newTerminalHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn})

	assert.False(t, h.Enabled(context.Background(), slog.LevelDebug))
	assert.False(t, h.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, h.Enabled(context.Background(), slog.LevelWarn))
	assert.True(t, h.Enabled(context.Background(), slog.LevelError))

	logger := slog.New(h)
	logger.Debug("debug")
	logger.Info("info")
	logger.Warn("warn")
	logger.Error("error")
	assert.Len(t, strings.Split(strings.TrimSpace(buf.String()), "\n"), 2)
}

func TestTerminalHandler_DefaultLevelIsInfo(t *testing.T) {
	h := newTerminalHandler(&bytes.Buffer{}, nil)
	assert.True(t, h.Enabled(context.Background(), slog.LevelInfo))
	assert.False(t, h.Enabled(context.Background(), slog.LevelDebug))
}

func TestTerminalHandler_WithAttrs(t *testing.T) {
	var buf bytes.Buffer
	h := debugTerminalHandler(&buf).WithAttrs([]slog.Attr{slog.String("component", "growth")})

	r := slog.NewRecord(time.Now(), slog.LevelInfo, "level scored", 0)
	r.AddAttrs(slog.Int("size", 4))
	require.NoError(t, h.Handle(context.Background(), r))

	line := buf.String()
	assert.Contains(t, line, "component=")
	assert.Contains(t, line, "growth")
	assert.Contains(t, line, "size=")
}

func TestTerminalHandler_GroupsPrefixKeys(t *testing.T) {
	var buf bytes.Buffer
	h := debugTerminalHandler(&buf).WithGroup("beam")

	r := slog.NewRecord(time.Now(), slog.LevelInfo, "cut applied", 0)
	r.AddAttrs(slog.Int("width", 8))
	require.NoError(t, h.Handle(context.Background(), r))
	assert.Contains(t, buf.String(), "beam.width=")
}

func TestTerminalHandler_InlineGroupAttr(t *testing.T) {
	var buf bytes.Buffer
	h := debugTerminalHandler(&buf)

	r := slog.NewRecord(time.Now(), slog.LevelInfo, "run finished", 0)
	r.AddAttrs(slog.Group("result",
		slog.Int("idioms", 12),
		slog.Bool("converged", true),
	))
	require.NoError(t, h.Handle(context.Background(), r))

	line := buf.String()
	assert.Contains(t, line, "result.idioms=")
	assert.Contains(t, line, "result.converged=")
}

func TestTerminalHandler_EmptyGroupIsIdentity(t *testing.T) {
	h := debugTerminalHandler(&bytes.Buffer{})
	assert.Same(t, slog.Handler(h), h.WithGroup(""))
}

func TestTerminalHandler_QuotesAwkwardStrings(t *testing.T) {
	var buf bytes.Buffer
	h := debugTerminalHandler(&buf)

	r := slog.NewRecord(time.Now(), slog.LevelWarn, "scoring failed, dropping candidate", 0)
	r.AddAttrs(slog.String("error", "connection refused"))
	require.NoError(t, h.Handle(context.Background(), r))
	assert.Contains(t, buf.String(), `"connection refused"`)
}
