// Package enginelog provides the structured logger used throughout the
// batch engine, adapted from the wider client library's zap-backed
// logger package but trimmed to the leveled-logging surface the engine
// actually needs.
package enginelog

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogLevel mirrors zap's levels, plus LogLevelNone, which turns logging
// off. The zero value is LogLevelInfo.
type LogLevel int

const (
	LogLevelDebug LogLevel = -1
	LogLevelInfo  LogLevel = 0
	LogLevelWarn  LogLevel = 1
	LogLevelError LogLevel = 2
	LogLevelNone  LogLevel = 99
)

// ParseLevel converts a configuration string into a LogLevel, defaulting
// to LogLevelInfo for anything unrecognized.
func ParseLevel(s string) LogLevel {
	switch s {
	case "debug":
		return LogLevelDebug
	case "warn":
		return LogLevelWarn
	case "error":
		return LogLevelError
	case "none":
		return LogLevelNone
	default:
		return LogLevelInfo
	}
}

func (l LogLevel) zapLevel() zapcore.Level {
	switch l {
	case LogLevelDebug:
		return zapcore.DebugLevel
	case LogLevelWarn:
		return zapcore.WarnLevel
	case LogLevelError:
		return zapcore.ErrorLevel
	case LogLevelNone:
		return zapcore.FatalLevel + 1
	default:
		return zapcore.InfoLevel
	}
}

// Logger is the structured logging surface workers, the dispatcher, and
// the retry engine depend on.
type Logger interface {
	Debug(msg string, fields ...zapcore.Field)
	Info(msg string, fields ...zapcore.Field)
	Warn(msg string, fields ...zapcore.Field)
	Error(msg string, fields ...zapcore.Field)
	With(fields ...zapcore.Field) Logger
}

type zapLogger struct {
	z *zap.Logger
}

// NewProduction builds a JSON-encoded, RFC3339-timestamped logger at the
// given level, in the house style (message key "msg", level key
// "level", timestamp key "timestamp").
func NewProduction(level LogLevel) (Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level.zapLevel())
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.RFC3339TimeEncoder
	cfg.EncoderConfig.MessageKey = "msg"
	cfg.EncoderConfig.LevelKey = "level"

	z, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return &zapLogger{z: z}, nil
}

// NewDevelopment builds a human-readable console logger, for local runs.
func NewDevelopment(level LogLevel) (Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(level.zapLevel())
	z, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return &zapLogger{z: z}, nil
}

// NewNop returns a logger that discards everything, for tests that don't
// care about log output.
func NewNop() Logger {
	return &zapLogger{z: zap.NewNop()}
}

func (l *zapLogger) Debug(msg string, fields ...zapcore.Field) { l.z.Debug(msg, fields...) }
func (l *zapLogger) Info(msg string, fields ...zapcore.Field)  { l.z.Info(msg, fields...) }
func (l *zapLogger) Warn(msg string, fields ...zapcore.Field)  { l.z.Warn(msg, fields...) }
func (l *zapLogger) Error(msg string, fields ...zapcore.Field) { l.z.Error(msg, fields...) }

func (l *zapLogger) With(fields ...zapcore.Field) Logger {
	return &zapLogger{z: l.z.With(fields...)}
}
