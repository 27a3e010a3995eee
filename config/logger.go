package config

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var globalLogger *zap.Logger

// ParseLevel maps a config string onto a zap level, defaulting to info.
func ParseLevel(logLevelStr string) zapcore.Level {
	switch strings.ToLower(logLevelStr) {
	case "debug":
		return zap.DebugLevel
	case "warn", "warning":
		return zap.WarnLevel
	case "error":
		return zap.ErrorLevel
	default:
		return zap.InfoLevel
	}
}

// loggerConfig picks the zap preset for format. "json" gives production
// style structured output; anything else the human readable console form.
func loggerConfig(format string) zap.Config {
	if strings.EqualFold(format, "json") {
		cfg := zap.NewProductionConfig()
		cfg.Sampling = nil
		return cfg
	}
	return zap.NewDevelopmentConfig()
}

// InitLogger builds the process logger and keeps it for Cleanup.
func InitLogger(logLevelStr, format string) (*zap.Logger, error) {
	cfg := loggerConfig(format)
	cfg.Level = zap.NewAtomicLevelAt(ParseLevel(logLevelStr))

	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}

	globalLogger = logger
	return logger, nil
}

// Cleanup flushes any buffered log entries
func Cleanup() {
	if globalLogger != nil {
		globalLogger.Sync()
	}
}
