// Package logger provides a zerolog wrapper with acrobot defaults and run-scoped logging
package logger

import (
	"context"
	"io"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Options configures the logger
type Options struct {
	Level     string
	Format    string // "console" or "json"
	Component string
	Writer    io.Writer // defaults to stderr so stdout stays machine-readable
}

// FromEnv fills empty fields of opt from ACROBOT_LOG_LEVEL and ACROBOT_LOG_FORMAT.
// Env wins over config so a single run can be made verbose without editing files
func FromEnv(opt Options) Options {
	if v := strings.TrimSpace(os.Getenv("ACROBOT_LOG_LEVEL")); v != "" {
		opt.Level = v
	}
	if v := strings.TrimSpace(os.Getenv("ACROBOT_LOG_FORMAT")); v != "" {
		opt.Format = v
	}
	return opt
}

var root atomic.Pointer[zerolog.Logger]

// Logger is the project-wide logging type
type Logger = zerolog.Logger

// New builds a logger from opt without touching the process root
func New(opt Options) Logger {
	var w io.Writer = os.Stderr
	if opt.Writer != nil {
		w = opt.Writer
	}
	if strings.ToLower(strings.TrimSpace(opt.Format)) != "json" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339, NoColor: opt.Writer != nil}
	}

	ctx := zerolog.New(w).Level(parseLevel(opt.Level)).With().Timestamp()
	if opt.Component != "" {
		ctx = ctx.Str("component", opt.Component)
	}
	return ctx.Logger()
}

// Init installs the process-wide root logger. Later calls replace it
func Init(opt Options) {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	l := New(opt)
	root.Store(&l)
}

// Get returns the process-wide root logger, initialising it at info level on first use
func Get() *Logger {
	if l := root.Load(); l != nil {
		return l
	}
	Init(FromEnv(Options{Level: "info"}))
	return root.Load()
}

// Named returns a child logger with a component field
func Named(component string) *Logger {
	if component == "" {
		return Get()
	}
	ll := Get().With().Str("component", component).Logger()
	return &ll
}

// parseLevel supports string-only levels
func parseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info", "":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

type ctxKey struct{ name string }

var keyRunID = ctxKey{"run_id"}

// WithRun annotates ctx with the scan run id
func WithRun(ctx context.Context, runID string) context.Context {
	if runID == "" {
		return ctx
	}
	return context.WithValue(ctx, keyRunID, runID)
}

// C returns a child of l enriched from ctx (run_id)
func C(ctx context.Context, l *Logger) *Logger {
	if l == nil {
		l = Get()
	}
	if v, ok := ctx.Value(keyRunID).(string); ok && v != "" {
		ll := l.With().Str("run_id", v).Logger()
		return &ll
	}
	return l
}
