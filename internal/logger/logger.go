// Package logger configures the process-wide slog logger.
package logger

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
)

var (
	levelVar slog.LevelVar
	initOnce sync.Once
)

// ParseLevel parses a string to an slog level.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SetLevel changes the global log level at runtime.
func SetLevel(levelStr string) {
	levelVar.Set(ParseLevel(levelStr))
}

// Init installs the default logger writing to out at the given level.
func Init(out io.Writer, levelStr string) {
	initOnce.Do(func() {
		levelVar.Set(ParseLevel(levelStr))
		handler := slog.NewTextHandler(out, &slog.HandlerOptions{Level: &levelVar})
		slog.SetDefault(slog.New(handler))
	})
}

// LevelHandler filters records below its level before delegating,
// letting one output run quieter than the global logger.
type LevelHandler struct {
	level slog.Level
	next  slog.Handler
}

// NewLevelHandler wraps next with a minimum level.
func NewLevelHandler(level slog.Level, next slog.Handler) *LevelHandler {
	return &LevelHandler{level: level, next: next}
}

// Enabled implements slog.Handler.
func (h *LevelHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

// Handle implements slog.Handler.
func (h *LevelHandler) Handle(ctx context.Context, record slog.Record) error {
	return h.next.Handle(ctx, record)
}

// WithAttrs implements slog.Handler.
func (h *LevelHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &LevelHandler{level: h.level, next: h.next.WithAttrs(attrs)}
}

// WithGroup implements slog.Handler.
func (h *LevelHandler) WithGroup(name string) slog.Handler {
	return &LevelHandler{level: h.level, next: h.next.WithGroup(name)}
}
