// Package logger builds the zap logger shared by the gamebook commands.
package logger

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config содержит настройки логгера.
type Config struct {
	Level    string // debug, info, warn, error; пусто = warn
	Encoding string // json или console
	// OutputPath is a log file. Empty means stderr, so the reader owns stdout.
	OutputPath string
	// Name is the root logger name; components append theirs with Named.
	Name string
}

const (
	defaultLevel    = zapcore.WarnLevel
	defaultEncoding = "console"
)

// New creates a logger from cfg. An unknown level falls back to warn with a
// note on stderr; an unknown encoding falls back to console.
func New(cfg Config) (*zap.Logger, error) {
	level := zap.NewAtomicLevelAt(defaultLevel)
	if name := strings.ToLower(strings.TrimSpace(cfg.Level)); name != "" {
		if err := level.UnmarshalText([]byte(name)); err != nil {
			// Логгера еще нет, пишем напрямую
			fmt.Fprintf(os.Stderr, "gamebook: invalid log level %q, using %s\n", cfg.Level, defaultLevel)
			level.SetLevel(defaultLevel)
		}
	}

	encoding := strings.ToLower(cfg.Encoding)
	if encoding != "json" {
		encoding = defaultEncoding
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "timestamp"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	encoderCfg.NameKey = "component"

	output := cfg.OutputPath
	if output == "" {
		output = "stderr"
	}

	logger, err := zap.Config{
		Level:             level,
		DisableCaller:     true,
		DisableStacktrace: true,
		Encoding:          encoding,
		EncoderConfig:     encoderCfg,
		OutputPaths:       []string{output},
		ErrorOutputPaths:  []string{"stderr"},
	}.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	if cfg.Name != "" {
		logger = logger.Named(cfg.Name)
	}
	return logger, nil
}
