// Package logging builds the zap logger used by every command.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ginjaninja78/ifrs-report/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ParseLevel maps a level name to a zap level.
func ParseLevel(level string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel, nil
	case "", "info":
		return zapcore.InfoLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("invalid log level: %s", level)
	}
}

// New creates a zap logger from the logging configuration. A non-empty
// levelOverride (from the command line) takes precedence over cfg.Level.
func New(cfg config.LoggingConfig, levelOverride string) (*zap.Logger, error) {
	level := cfg.Level
	if levelOverride != "" {
		level = levelOverride
	}

	zapLevel, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}

	var zapConfig zap.Config
	switch strings.ToLower(cfg.Format) {
	case "", "console":
		zapConfig = zap.NewDevelopmentConfig()
		zapConfig.DisableStacktrace = true
	case "json":
		zapConfig = zap.NewProductionConfig()
	default:
		return nil, fmt.Errorf("invalid log format: %s", cfg.Format)
	}
	zapConfig.Level = zap.NewAtomicLevelAt(zapLevel)

	// Console output goes to stderr so that previews on stdout stay clean.
	zapConfig.OutputPaths = []string{"stderr"}
	zapConfig.ErrorOutputPaths = []string{"stderr"}

	if cfg.OutputFile != "" {
		if dir := filepath.Dir(cfg.OutputFile); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create log directory %s: %w", dir, err)
			}
		}

		file, err := os.OpenFile(cfg.OutputFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file %s: %w", cfg.OutputFile, err)
		}
		_ = file.Close()

		zapConfig.OutputPaths = []string{cfg.OutputFile}
		zapConfig.ErrorOutputPaths = []string{cfg.OutputFile}
	}

	return zapConfig.Build()
}

// OrNop returns logger, or a no-op logger when logger is nil.
func OrNop(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
