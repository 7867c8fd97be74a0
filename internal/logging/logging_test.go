package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestInitialize_FileOutput(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "wakili.log")

	err := Initialize(Config{
		Level: "debug",
		File:  FileConfig{Path: logFile},
	})
	if err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	defer Close()

	Get().Info("file output test", "key", "value")

	data, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	if !strings.Contains(string(data), "file output test") {
		t.Errorf("log file missing record, got: %s", data)
	}
}

func TestInitialize_JSON(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "wakili.log")

	err := Initialize(Config{
		Level: "info",
		File:  FileConfig{Path: logFile},
		JSON:  true,
	})
	if err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	defer Close()

	Get().Info("json test")

	data, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	if !strings.Contains(string(data), `"msg":"json test"`) {
		t.Errorf("expected JSON record, got: %s", data)
	}
}

func TestWithComponent(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "wakili.log")

	if err := Initialize(Config{Level: "debug", File: FileConfig{Path: logFile}}); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	defer Close()

	Auth().Info("component test")

	data, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	if !strings.Contains(string(data), "component=auth") {
		t.Errorf("expected component attribute, got: %s", data)
	}
}

func TestGet_BeforeInitialize(t *testing.T) {
	globalMu.Lock()
	saved := globalLogger
	globalLogger = nil
	globalMu.Unlock()
	defer func() {
		globalMu.Lock()
		globalLogger = saved
		globalMu.Unlock()
	}()

	if Get() == nil {
		t.Error("Get() = nil before Initialize, want slog.Default()")
	}
}
