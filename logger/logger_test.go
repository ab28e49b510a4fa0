package logger

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in    string
		level slog.Level
		ok    bool
	}{
		{"debug", slog.LevelDebug, true},
		{"INFO", slog.LevelInfo, true},
		{"", slog.LevelInfo, true},
		{"warning", slog.LevelWarn, true},
		{"error", slog.LevelError, true},
		{"verbose", slog.LevelInfo, false},
	}
	for _, tt := range tests {
		level, ok := ParseLevel(tt.in)
		assert.Equalf(t, tt.level, level, "ParseLevel(%q)", tt.in)
		assert.Equalf(t, tt.ok, ok, "ParseLevel(%q)", tt.in)
	}
}

func TestInitLogger_JSON(t *testing.T) {
	old := L
	defer func() {
		L = old
		slog.SetDefault(old)
	}()

	var buf bytes.Buffer
	l := initLogger(&buf, "debug", "json")
	l.Debug("hello", "k", "v")

	assert.Contains(t, buf.String(), `"msg":"hello"`)
	assert.Contains(t, buf.String(), `"k":"v"`)
}

func TestContextRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(slog.NewTextHandler(&buf, nil)).With("request_id", "abc")

	ctx := ToContext(context.Background(), l)
	assert.Same(t, l, FromContext(ctx))

	// 没有注入时回退到全局 logger
	assert.Same(t, L, FromContext(context.Background()))
}
