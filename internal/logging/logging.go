// Package logging provides structured logging for netdiag on top of log/slog.
// It supports text and JSON output, configurable levels and a replaceable
// package-level default logger.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
)

const (
	logDirPerm  = 0750
	logFilePerm = 0600
)

// LogLevel names a minimum record level.
type LogLevel string

const (
	LevelDebug LogLevel = "debug"
	LevelInfo  LogLevel = "info"
	LevelWarn  LogLevel = "warn"
	LevelError LogLevel = "error"
)

// LogFormat selects the slog handler.
type LogFormat string

const (
	FormatText LogFormat = "text"
	FormatJSON LogFormat = "json"
)

// Config holds logging configuration. Output is "stdout", "stderr" or a
// file path; files are appended to and their directory is created.
type Config struct {
	Level     LogLevel  `yaml:"level" json:"level"`
	Format    LogFormat `yaml:"format" json:"format"`
	Output    string    `yaml:"output" json:"output"`
	AddSource bool      `yaml:"add_source" json:"add_source"`
}

// DefaultConfig logs text at info level to stderr.
func DefaultConfig() Config {
	return Config{
		Level:  LevelInfo,
		Format: FormatText,
		Output: "stderr",
	}
}

// Logger is a slog.Logger that remembers its configuration and, for file
// output, the file it owns.
type Logger struct {
	*slog.Logger
	config Config
	closer io.Closer
}

// New builds a logger from cfg, opening the output file if cfg.Output is a
// path.
func New(cfg Config) (*Logger, error) {
	switch cfg.Output {
	case "", "stderr":
		return NewWithWriter(cfg, os.Stderr), nil
	case "stdout":
		return NewWithWriter(cfg, os.Stdout), nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Output), logDirPerm); err != nil {
		return nil, err
	}
	file, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePerm)
	if err != nil {
		return nil, err
	}

	logger := NewWithWriter(cfg, file)
	logger.closer = file
	return logger, nil
}

// NewWithWriter builds a logger writing to w regardless of cfg.Output.
func NewWithWriter(cfg Config, w io.Writer) *Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level), AddSource: cfg.AddSource}

	var handler slog.Handler = slog.NewTextHandler(w, opts)
	if cfg.Format == FormatJSON {
		handler = slog.NewJSONHandler(w, opts)
	}
	return &Logger{Logger: slog.New(handler), config: cfg}
}

// parseLevel accepts any case slog understands and falls back to info.
func parseLevel(l LogLevel) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// NewDefault builds a logger with DefaultConfig.
func NewDefault() *Logger {
	return NewWithWriter(DefaultConfig(), os.Stderr)
}

// Close releases the output file, if the logger opened one.
func (l *Logger) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}

// Config returns the configuration the logger was built from.
func (l *Logger) Config() Config {
	return l.config
}

func (l *Logger) with(args ...any) *Logger {
	return &Logger{Logger: l.With(args...), config: l.config}
}

// WithComponent tags records with the emitting package, for example
// "scanner" or "api".
func (l *Logger) WithComponent(component string) *Logger {
	return l.with("component", component)
}

// WithRunID tags every record with the id of one tool invocation.
func (l *Logger) WithRunID(runID string) *Logger {
	return l.with("run_id", runID)
}

// WithTarget tags records with the probed host.
func (l *Logger) WithTarget(target string) *Logger {
	return l.with("target", target)
}

// InfoScan logs a port scan event for target.
func (l *Logger) InfoScan(msg, target string, args ...any) {
	l.Info(msg, append([]any{"target", target}, args...)...)
}

// ErrorScan logs a failed port scan of target.
func (l *Logger) ErrorScan(msg, target string, err error, args ...any) {
	l.Error(msg, append([]any{"target", target, "error", err}, args...)...)
}

// InfoSweep logs a sweep event for a destination specification.
func (l *Logger) InfoSweep(msg, destination string, args ...any) {
	l.Info(msg, append([]any{"destination", destination}, args...)...)
}

// ErrorSweep logs a rejected or failed sweep.
func (l *Logger) ErrorSweep(msg, destination string, err error, args ...any) {
	l.Error(msg, append([]any{"destination", destination, "error", err}, args...)...)
}

var defaultLogger atomic.Pointer[Logger]

func init() {
	defaultLogger.Store(NewDefault())
}

// SetDefault replaces the package-level logger. It is safe to call while
// other goroutines log.
func SetDefault(logger *Logger) {
	defaultLogger.Store(logger)
}

// Default returns the package-level logger.
func Default() *Logger {
	return defaultLogger.Load()
}

// Debug logs at debug level using the default logger.
func Debug(msg string, args ...any) {
	Default().Debug(msg, args...)
}

// Warn logs at warn level using the default logger.
func Warn(msg string, args ...any) {
	Default().Warn(msg, args...)
}

// InfoSweep logs a sweep event using the default logger.
func InfoSweep(msg, destination string, args ...any) {
	Default().InfoSweep(msg, destination, args...)
}

// ErrorSweep logs a sweep failure using the default logger.
func ErrorSweep(msg, destination string, err error, args ...any) {
	Default().ErrorSweep(msg, destination, err, args...)
}
