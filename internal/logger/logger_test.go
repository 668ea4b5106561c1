package logger

import (
	"bufio"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// readEntries decodes the JSON lines written to the log file.
func readEntries(t *testing.T, path string) []map[string]interface{} {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Failed to open log file: %v", err)
	}
	defer f.Close()

	var entries []map[string]interface{}
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var e map[string]interface{}
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			t.Fatalf("log line is not JSON: %q: %v", line, err)
		}
		entries = append(entries, e)
	}
	return entries
}

func newTestLogger(t *testing.T, level Level) (*ZapLogger, string) {
	t.Helper()
	logPath := filepath.Join(t.TempDir(), "test.log")
	logger, err := NewZapLogger(&Config{
		LogFilePath: logPath,
		MaxSizeMB:   1,
		MaxBackups:  3,
		Level:       level,
	})
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	return logger, logPath
}

func TestNewZapLogger(t *testing.T) {
	logger, logPath := newTestLogger(t, LevelDebug)
	logger.Info("hello")
	logger.Close()

	if _, err := os.Stat(logPath); os.IsNotExist(err) {
		t.Error("Log file was not created")
	}
}

func TestLogLevels(t *testing.T) {
	logger, logPath := newTestLogger(t, LevelDebug)

	logger.Debug("debug message", String("key", "value"))
	logger.Info("info message", Int("count", 42))
	logger.Warn("warn message", Bool("flag", true))
	logger.Error("error message", errors.New("test error"), Float64("rate", 3.14))
	logger.Close()

	entries := readEntries(t, logPath)
	if len(entries) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(entries))
	}

	wantLevels := []string{"DEBUG", "INFO", "WARN", "ERROR"}
	for i, want := range wantLevels {
		if entries[i]["level"] != want {
			t.Errorf("entry %d: expected level %s, got %v", i, want, entries[i]["level"])
		}
	}

	if entries[0]["key"] != "value" {
		t.Error("String field not found")
	}
	if entries[1]["count"] != float64(42) {
		t.Error("Int field not found")
	}
	if entries[2]["flag"] != true {
		t.Error("Bool field not found")
	}
	if entries[3]["rate"] != 3.14 {
		t.Error("Float64 field not found")
	}
	if entries[3]["error"] != "test error" {
		t.Errorf("expected error field, got %v", entries[3]["error"])
	}
	if _, ok := entries[3]["stacktrace"]; !ok {
		t.Error("expected stack trace on error entry")
	}
}

func TestLogLevelFiltering(t *testing.T) {
	logger, logPath := newTestLogger(t, LevelWarn)

	logger.Debug("should not appear")
	logger.Info("should not appear either")
	logger.Warn("warn message")
	logger.Error("error message", nil)
	logger.Close()

	entries := readEntries(t, logPath)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	for _, e := range entries {
		if strings.Contains(e["msg"].(string), "should not appear") {
			t.Errorf("filtered message was logged: %v", e["msg"])
		}
	}
}

func TestSetLevel(t *testing.T) {
	logger, logPath := newTestLogger(t, LevelInfo)

	logger.Debug("hidden")
	logger.SetLevel(LevelDebug)
	logger.Debug("visible")
	logger.Close()

	entries := readEntries(t, logPath)
	if len(entries) != 1 || entries[0]["msg"] != "visible" {
		t.Errorf("expected only the debug message after SetLevel, got %v", entries)
	}
}

func TestGlobalLogger(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "global.log")
	if err := Init(&Config{LogFilePath: logPath, MaxSizeMB: 1, Level: LevelDebug}); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	Info("global info", String("component", "test"))
	Warn("global warn")
	if err := Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	entries := readEntries(t, logPath)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0]["component"] != "test" {
		t.Errorf("expected component field, got %v", entries[0])
	}

	// After Close the global logger falls back to the no-op logger.
	if _, ok := GetLogger().(*noopLogger); !ok {
		t.Error("expected no-op logger after Close")
	}
}

func TestNoopLogger(t *testing.T) {
	l := &noopLogger{}
	l.Debug("x")
	l.Info("x")
	l.Warn("x")
	l.Error("x", errors.New("e"))
	l.SetLevel(LevelDebug)
	if err := l.Close(); err != nil {
		t.Errorf("noop Close returned %v", err)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.LogFilePath == "" {
		t.Error("expected a default log file path")
	}
	if cfg.Level != LevelInfo {
		t.Errorf("expected default level INFO, got %s", cfg.Level)
	}
	if cfg.MaxSizeMB <= 0 || cfg.MaxBackups <= 0 {
		t.Error("expected positive rotation limits")
	}
}

func TestLevelString(t *testing.T) {
	tests := []struct {
		level Level
		want  string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{Level(99), "UNKNOWN"},
	}
	for _, tt := range tests {
		if got := tt.level.String(); got != tt.want {
			t.Errorf("Level(%d).String() = %s, want %s", tt.level, got, tt.want)
		}
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]Level{
		"debug":   LevelDebug,
		" WARN ":  LevelWarn,
		"warning": LevelWarn,
		"Error":   LevelError,
		"info":    LevelInfo,
		"bogus":   LevelInfo,
		"":        LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestErrFieldWithNil(t *testing.T) {
	f := Err(nil)
	if f.Key != "error" || f.Value != nil {
		t.Errorf("unexpected field for nil error: %+v", f)
	}
}

func TestLogDirectoryCreation(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "nested", "dir", "app.log")
	logger, err := NewZapLogger(&Config{LogFilePath: logPath, MaxSizeMB: 1})
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Close()

	if _, err := os.Stat(filepath.Dir(logPath)); err != nil {
		t.Errorf("log directory was not created: %v", err)
	}
}
