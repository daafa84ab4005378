package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
)

func TestLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer

	logger := New(Config{
		Level:     WARN,
		Format:    JSONFormat,
		Output:    &buf,
		Component: "test",
	})

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message", nil)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("Expected 2 log lines with WARN level, got %d", len(lines))
	}

	for i, line := range lines {
		var entry LogEntry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Errorf("Line %d is not valid JSON: %v", i+1, err)
		}
	}
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer

	logger := New(Config{
		Level:     INFO,
		Format:    JSONFormat,
		Output:    &buf,
		Component: "harvester",
	})

	logger.Info("image stored", Fields{
		"name":  "20140101_120000_AIA_171.jpg",
		"bytes": 42,
	})

	var entry LogEntry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Failed to parse JSON output: %v", err)
	}

	if entry.Level != "INFO" {
		t.Errorf("Expected level INFO, got %s", entry.Level)
	}
	if entry.Message != "image stored" {
		t.Errorf("Expected message 'image stored', got %s", entry.Message)
	}
	if entry.Component != "harvester" {
		t.Errorf("Expected component 'harvester', got %s", entry.Component)
	}
	if entry.Fields["name"] != "20140101_120000_AIA_171.jpg" {
		t.Errorf("Unexpected name field: %v", entry.Fields["name"])
	}
	if entry.Fields["bytes"] != float64(42) {
		t.Errorf("Expected bytes=42, got %v", entry.Fields["bytes"])
	}
	if entry.Caller != "" {
		t.Errorf("Expected no caller at INFO level, got %s", entry.Caller)
	}
}

func TestTextFormat(t *testing.T) {
	var buf bytes.Buffer

	logger := New(Config{
		Level:     INFO,
		Format:    TextFormat,
		Output:    &buf,
		Component: "fetcher",
	})

	logger.Error("lookup failed", errors.New("status 503"), Fields{
		"source_id": 10,
		"date":      "2014-01-01T12:00:00Z",
	})

	output := buf.String()
	for _, want := range []string{"ERROR", "[fetcher]", "lookup failed", "source_id=10", `error="status 503"`} {
		if !strings.Contains(output, want) {
			t.Errorf("Expected output to contain %q, got %q", want, output)
		}
	}

	// keys are sorted
	if strings.Index(output, "date=") > strings.Index(output, "source_id=") {
		t.Errorf("Expected sorted field keys, got %q", output)
	}
	if !strings.HasSuffix(output, "\n") {
		t.Error("Expected trailing newline")
	}
}

func TestWithComponentAndFields(t *testing.T) {
	var buf bytes.Buffer

	base := New(Config{
		Level:     INFO,
		Format:    JSONFormat,
		Output:    &buf,
		Component: "base",
	})

	child := base.WithComponent("worker").With(Fields{"run_id": "abc"})
	child.Info("task done", Fields{"status": "downloaded"})

	var entry LogEntry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Failed to parse JSON output: %v", err)
	}

	if entry.Component != "worker" {
		t.Errorf("Expected component 'worker', got %s", entry.Component)
	}
	if entry.Fields["run_id"] != "abc" || entry.Fields["status"] != "downloaded" {
		t.Errorf("Expected merged fields, got %v", entry.Fields)
	}

	buf.Reset()
	base.Info("no fields")
	if strings.Contains(buf.String(), "run_id") {
		t.Error("Child fields leaked into parent logger")
	}
}

func TestDebugIncludesCaller(t *testing.T) {
	var buf bytes.Buffer

	logger := New(Config{Level: DEBUG, Format: JSONFormat, Output: &buf})
	logger.Debug("probe")

	var entry LogEntry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Failed to parse JSON output: %v", err)
	}
	if !strings.Contains(entry.Caller, "logger_test.go") {
		t.Errorf("Expected caller to point at logger_test.go, got %q", entry.Caller)
	}
}

func TestConcurrentWritesDoNotInterleave(t *testing.T) {
	var buf bytes.Buffer

	logger := New(Config{Level: INFO, Format: JSONFormat, Output: &buf})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			logger.WithComponent("worker").Info("tick", Fields{"i": i})
		}(i)
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 50 {
		t.Fatalf("Expected 50 lines, got %d", len(lines))
	}
	for i, line := range lines {
		var entry LogEntry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Errorf("Line %d is not valid JSON: %v", i+1, err)
		}
	}
}

func TestGlobalLogger(t *testing.T) {
	var buf bytes.Buffer

	originalLogger := GetGlobalLogger()
	defer SetGlobalLogger(originalLogger)

	SetGlobalLogger(New(Config{
		Level:     INFO,
		Format:    JSONFormat,
		Output:    &buf,
		Component: "global-test",
	}))

	Info("global info message")
	Warnf("global %s message", "warn")
	Debug("filtered")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("Expected 2 log lines, got %d", len(lines))
	}

	var entry LogEntry
	if err := json.Unmarshal([]byte(lines[1]), &entry); err != nil {
		t.Fatalf("Failed to parse second JSON line: %v", err)
	}
	if entry.Level != "WARN" || entry.Message != "global warn message" {
		t.Errorf("Second line incorrect: level=%s, message=%s", entry.Level, entry.Message)
	}
}

func TestConfigure(t *testing.T) {
	originalLogger := GetGlobalLogger()
	defer SetGlobalLogger(originalLogger)

	var buf bytes.Buffer
	SetGlobalLogger(New(Config{Level: INFO, Format: TextFormat, Output: &buf}))

	if err := Configure("debug", "json"); err != nil {
		t.Fatalf("Configure failed: %v", err)
	}
	Debug("now visible")

	var entry LogEntry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Expected JSON after Configure, got %q: %v", buf.String(), err)
	}

	if err := Configure("loud", "json"); err == nil {
		t.Error("Expected error for unknown level")
	}
	if err := Configure("info", "xml"); err == nil {
		t.Error("Expected error for unknown format")
	}
}

func TestParseLevelAndFormat(t *testing.T) {
	levels := map[string]LogLevel{
		"debug": DEBUG, "INFO": INFO, "warning": WARN, "Warn": WARN, "error": ERROR, "FATAL": FATAL,
	}
	for in, want := range levels {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Errorf("ParseLevel(%q) = %v, %v; want %v", in, got, err, want)
		}
	}

	if f, err := ParseFormat("JSON"); err != nil || f != JSONFormat {
		t.Errorf("ParseFormat(JSON) = %v, %v", f, err)
	}
	if f, err := ParseFormat("text"); err != nil || f != TextFormat {
		t.Errorf("ParseFormat(text) = %v, %v", f, err)
	}
}

func TestLogLevelString(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected string
	}{
		{DEBUG, "DEBUG"},
		{INFO, "INFO"},
		{WARN, "WARN"},
		{ERROR, "ERROR"},
		{FATAL, "FATAL"},
		{LogLevel(42), "UNKNOWN"},
	}

	for _, test := range tests {
		if test.level.String() != test.expected {
			t.Errorf("Expected %s, got %s", test.expected, test.level.String())
		}
	}
}

func BenchmarkTextLogging(b *testing.B) {
	var buf bytes.Buffer
	logger := New(Config{
		Level:  INFO,
		Format: TextFormat,
		Output: &buf,
	})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		logger.Info("benchmark message", Fields{
			"iteration": i,
			"benchmark": true,
		})
	}
}
