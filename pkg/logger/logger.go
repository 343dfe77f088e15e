// Package logger provides the structured logger every job's run method
// uses to report start/finish/error against workflow_node_id, unit_id,
// and component fields, backed by github.com/charmbracelet/log.
package logger

import (
	"context"
	"io"
	"os"
	"strings"

	charmlog "github.com/charmbracelet/log"
)

// LogLevel is the logger's externally configured verbosity.
type LogLevel string

const (
	DebugLevel    LogLevel = "debug"
	InfoLevel     LogLevel = "info"
	WarnLevel     LogLevel = "warn"
	ErrorLevel    LogLevel = "error"
	DisabledLevel LogLevel = "disabled"
)

// ToCharmlogLevel maps LogLevel onto charmbracelet/log's Level type.
// Unknown levels default to InfoLevel.
func (l LogLevel) ToCharmlogLevel() charmlog.Level {
	switch strings.ToLower(string(l)) {
	case string(DebugLevel):
		return charmlog.DebugLevel
	case string(InfoLevel):
		return charmlog.InfoLevel
	case string(WarnLevel):
		return charmlog.WarnLevel
	case string(ErrorLevel):
		return charmlog.ErrorLevel
	case string(DisabledLevel):
		return charmlog.Level(1000)
	default:
		return charmlog.InfoLevel
	}
}

// Config configures a Logger.
type Config struct {
	Level      LogLevel
	Output     io.Writer
	JSON       bool
	AddSource  bool
	TimeFormat string
}

// DefaultConfig is the logger configuration used outside of tests.
func DefaultConfig() *Config {
	return &Config{
		Level:      InfoLevel,
		Output:     os.Stdout,
		JSON:       false,
		AddSource:  false,
		TimeFormat: "15:04:05",
	}
}

// TestConfig is the logger configuration used by package tests: disabled
// by default so test output stays quiet unless a test opts into a
// non-disabled Config explicitly.
func TestConfig() *Config {
	return &Config{
		Level:      DisabledLevel,
		Output:     io.Discard,
		JSON:       false,
		AddSource:  false,
		TimeFormat: "15:04:05",
	}
}

// IsTestEnvironment reports whether the current binary is a `go test`
// binary, used to pick a sane default Config for code paths that
// construct a Logger without an explicit Config (e.g. package-level
// fallbacks reached only from tests).
func IsTestEnvironment() bool {
	return strings.HasSuffix(os.Args[0], ".test") || strings.Contains(os.Args[0], "/T/") ||
		strings.Contains(strings.Join(os.Args, " "), "-test.")
}

// Logger is the structured logging surface every job's run method, the
// CLI, and the job-engine adapters use.
type Logger interface {
	Debug(msg string, keyvals ...any)
	Info(msg string, keyvals ...any)
	Warn(msg string, keyvals ...any)
	Error(msg string, keyvals ...any)
	With(keyvals ...any) Logger
}

type charmLogger struct {
	l *charmlog.Logger
}

// NewLogger builds a Logger from cfg. A nil cfg uses TestConfig() under
// `go test` and DefaultConfig() otherwise.
func NewLogger(cfg *Config) Logger {
	if cfg == nil {
		if IsTestEnvironment() {
			cfg = TestConfig()
		} else {
			cfg = DefaultConfig()
		}
	}
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	l := charmlog.NewWithOptions(out, charmlog.Options{
		Level:           cfg.Level.ToCharmlogLevel(),
		ReportTimestamp: true,
		ReportCaller:    cfg.AddSource,
		TimeFormat:      cfg.TimeFormat,
		Formatter:       formatterFor(cfg.JSON),
	})
	return &charmLogger{l: l}
}

func formatterFor(jsonOutput bool) charmlog.Formatter {
	if jsonOutput {
		return charmlog.JSONFormatter
	}
	return charmlog.TextFormatter
}

func (c *charmLogger) Debug(msg string, keyvals ...any) { c.l.Debug(msg, keyvals...) }
func (c *charmLogger) Info(msg string, keyvals ...any)  { c.l.Info(msg, keyvals...) }
func (c *charmLogger) Warn(msg string, keyvals ...any)  { c.l.Warn(msg, keyvals...) }
func (c *charmLogger) Error(msg string, keyvals ...any) { c.l.Error(msg, keyvals...) }

func (c *charmLogger) With(keyvals ...any) Logger {
	return &charmLogger{l: c.l.With(keyvals...)}
}

type ctxKey struct{}

// LoggerCtxKey is the context key a Logger is stored under.
var LoggerCtxKey = ctxKey{}

// ContextWithLogger attaches l to ctx.
func ContextWithLogger(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, LoggerCtxKey, l)
}

var fallback = NewLogger(nil)

// FromContext returns the Logger attached to ctx, or a process-wide
// fallback Logger if ctx carries none (or a value of the wrong type).
func FromContext(ctx context.Context) Logger {
	l, ok := ctx.Value(LoggerCtxKey).(Logger)
	if !ok || l == nil {
		return fallback
	}
	return l
}
