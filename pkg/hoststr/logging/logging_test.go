package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestSlogLogger(t *testing.T) {
	var buf bytes.Buffer
	l := New(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	l.With("op", "text").Debug(context.Background(), "convert", "units", 3, Redacted("value"))

	out := buf.String()
	for _, want := range []string{"msg=convert", "op=text", "units=3", `value=[redacted]`} {
		if !strings.Contains(out, want) {
			t.Fatalf("output %q missing %q", out, want)
		}
	}
}

func TestDiscard(t *testing.T) {
	l := Discard()
	l.Error(context.Background(), "dropped", "k", "v")
	l.With("k", "v").Info(context.Background(), "dropped")
}

func TestZapLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewZap(zap.New(core)).With("backend", "sandbox")

	l.Debug(context.Background(), "convert", "units", 4, Redacted("value"))
	l.Warn(context.Background(), "slow")

	entries := logs.All()
	require.Len(t, entries, 2)

	fields := entries[0].ContextMap()
	assert.Equal(t, "convert", entries[0].Message)
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, "sandbox", fields["backend"])
	assert.EqualValues(t, 4, fields["units"])
	assert.Equal(t, Placeholder(), fields["value"])

	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
}

func TestNewZapNil(t *testing.T) {
	NewZap(nil).Info(context.Background(), "nop")
}

func TestWithLevel(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := WithLevel(NewZap(zap.New(core)), slog.LevelWarn).With("backend", "sandbox")
	ctx := context.Background()

	l.Debug(ctx, "debug")
	l.Info(ctx, "info")
	l.Warn(ctx, "warn")
	l.Error(ctx, "error")

	var got []string
	for _, e := range logs.All() {
		got = append(got, e.Message)
		assert.Equal(t, "sandbox", e.ContextMap()["backend"])
	}
	assert.Equal(t, []string{"warn", "error"}, got)

	WithLevel(nil, slog.LevelDebug).Info(ctx, "dropped")
}
