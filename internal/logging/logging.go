package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

type ctxKey struct{}

var (
	once sync.Once
	base *slog.Logger
)

// Options controls where and how verbosely the global logger writes.
// An empty FilePath logs to stdout only.
type Options struct {
	Component string
	FilePath  string
	Level     string
}

// Init configures the global logger exactly once.
func Init(opts Options) *slog.Logger {
	once.Do(func() {
		var w io.Writer = os.Stdout
		if opts.FilePath != "" {
			_ = os.MkdirAll(filepath.Dir(opts.FilePath), 0o755)
			rot := &lumberjack.Logger{
				Filename:   opts.FilePath,
				MaxSize:    50, // MB
				MaxBackups: 3,
				MaxAge:     7, // days
			}
			w = io.MultiWriter(os.Stdout, rot)
		}

		h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: ParseLevel(opts.Level)})
		base = slog.New(h).With("component", opts.Component)
	})
	return base
}

// Base returns the global logger, initialising a stdout logger if needed.
func Base() *slog.Logger {
	if base == nil {
		return Init(Options{Component: "storefront"})
	}
	return base
}

// New returns a child logger for a component. It shares the global handler.
func New(component string) *slog.Logger {
	return Base().With("component", component)
}

func WithCtx(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromCtx fetches a logger from ctx or falls back to the global one.
func FromCtx(ctx context.Context) *slog.Logger {
	if v := ctx.Value(ctxKey{}); v != nil {
		if l, ok := v.(*slog.Logger); ok && l != nil {
			return l
		}
	}
	return Base()
}

func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Discard returns a logger that drops everything; handy in tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
