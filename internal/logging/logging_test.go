package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ginjaninja78/ifrs-report/internal/config"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected zapcore.Level
		wantErr  bool
	}{
		{"debug", zapcore.DebugLevel, false},
		{"INFO", zapcore.InfoLevel, false},
		{"", zapcore.InfoLevel, false},
		{"warning", zapcore.WarnLevel, false},
		{"error", zapcore.ErrorLevel, false},
		{"verbose", zapcore.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			level, err := ParseLevel(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if level != tt.expected {
				t.Errorf("ParseLevel(%q) = %v, expected %v", tt.input, level, tt.expected)
			}
		})
	}
}

func TestNewOverrideTakesPrecedence(t *testing.T) {
	logger, err := New(config.LoggingConfig{Level: "error", Format: "json"}, "debug")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if !logger.Core().Enabled(zapcore.DebugLevel) {
		t.Error("expected debug level to be enabled by the override")
	}
}

func TestNewInvalidFormat(t *testing.T) {
	if _, err := New(config.LoggingConfig{Format: "xml"}, ""); err == nil {
		t.Fatal("expected error for invalid format")
	}
}

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "report.log")

	logger, err := New(config.LoggingConfig{Level: "info", Format: "json", OutputFile: path}, "")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("hello file")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	if !strings.Contains(string(data), "hello file") {
		t.Errorf("expected log line in file, got %q", data)
	}
}

func TestOrNop(t *testing.T) {
	if OrNop(nil) == nil {
		t.Fatal("expected a logger")
	}
}
