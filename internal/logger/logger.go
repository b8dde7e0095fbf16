// Package logger builds the zap logger of a benchmark sweep.
//
// Entries carry the sweep, suite and experiment point they belong to, so a
// JSON log can be filtered down to the runs of a single result row.
// Output defaults to stderr because stdout carries the progress lines.
package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/dbsmedya/riskbench/internal/config"
	"github.com/dbsmedya/riskbench/internal/experiment"
)

// Logger is a sugared zap logger with sweep context helpers.
type Logger struct {
	*zap.SugaredLogger
	base *zap.Logger
}

// New builds a Logger from the logging section of the configuration.
// An unknown level falls back to info and an unwritable file to stderr.
func New(cfg *config.LoggingConfig) (*Logger, error) {
	level := parseLevel(cfg.Level)
	encoder := buildEncoder(cfg.Format)
	writers := buildWriters(cfg.Output)

	core := zapcore.NewCore(encoder, writers, level)
	baseLogger := zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))

	return &Logger{
		SugaredLogger: baseLogger.Sugar(),
		base:          baseLogger,
	}, nil
}

// NewNop returns a Logger that discards everything.
func NewNop() *Logger {
	base := zap.NewNop()
	return &Logger{SugaredLogger: base.Sugar(), base: base}
}

// NewFromZap wraps an existing zap logger such as a test observer.
func NewFromZap(base *zap.Logger) *Logger {
	return &Logger{SugaredLogger: base.Sugar(), base: base}
}

func parseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "info", "":
		return zapcore.InfoLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// buildEncoder returns a JSON encoder for "json" and a coloured console
// encoder otherwise. JSON durations are nanoseconds so run times can be summed.
func buildEncoder(format string) zapcore.Encoder {
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	if format == "json" {
		encoderConfig.EncodeDuration = zapcore.NanosDurationEncoder
		return zapcore.NewJSONEncoder(encoderConfig)
	}

	encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	return zapcore.NewConsoleEncoder(encoderConfig)
}

// buildWriters maps output to a sink. A file path also mirrors to stderr.
func buildWriters(output string) zapcore.WriteSyncer {
	switch output {
	case "stderr", "":
		return zapcore.AddSync(os.Stderr)
	case "stdout":
		return zapcore.AddSync(os.Stdout)
	default:
		file, err := os.OpenFile(output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return zapcore.AddSync(os.Stderr)
		}
		return zapcore.NewMultiWriteSyncer(
			zapcore.AddSync(file),
			zapcore.AddSync(os.Stderr),
		)
	}
}

// WithSweep tags entries with the sweep identifier shared by every suite of
// one invocation.
func (l *Logger) WithSweep(id string) *Logger {
	return l.with("sweep", id)
}

// WithSuite tags entries with the suite name ("flash", "self").
func (l *Logger) WithSuite(suite string) *Logger {
	return l.with("suite", suite)
}

// WithPoint tags entries with the result row labels of p, one field per
// column name.
func (l *Logger) WithPoint(p experiment.Point) *Logger {
	key := p.Key()
	args := make([]interface{}, 0, len(key)*2)
	for i, v := range key {
		args = append(args, experiment.Variables[i], v)
	}
	return l.with(args...)
}

// WithRepetition tags entries with the 1-based repetition out of total.
func (l *Logger) WithRepetition(n, total int) *Logger {
	return l.with("repetition", n, "repetitions", total)
}

func (l *Logger) with(args ...interface{}) *Logger {
	return &Logger{
		SugaredLogger: l.SugaredLogger.With(args...),
		base:          l.base,
	}
}

// Sync flushes buffered entries. Call it once the sweep has finished.
func (l *Logger) Sync() error {
	return l.base.Sync()
}
