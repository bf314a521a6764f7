package log

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSimpleFormatterLine(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriterLogger(&buf, "debug")

	logger.WithFields(map[string]interface{}{"topic": "sensor.imu", "count": 3}).Infof("delivered %d samples", 3)

	line := buf.String()
	if !strings.Contains(line, "[INF] delivered 3 samples") {
		t.Errorf("Expected level and message in line, got %q", line)
	}
	if !strings.HasSuffix(line, "count=3 topic=sensor.imu\n") {
		t.Errorf("Expected sorted fields at end of line, got %q", line)
	}
}

func TestWarningLevelTruncated(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriterLogger(&buf, "info")

	logger.Debugf("hidden")
	logger.Warnf("low battery")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("Debug line should be filtered at info level: %q", out)
	}
	if !strings.Contains(out, "[WAR] low battery") {
		t.Errorf("Expected truncated warning level, got %q", out)
	}
}

func TestNewLogrusLoggerWritesFile(t *testing.T) {
	dir := t.TempDir()
	logger, err := NewLogrusLogger("info", dir, "sim")
	if err != nil {
		t.Fatalf("NewLogrusLogger failed: %v", err)
	}
	logger.Infof("hello from %s", "sim")

	data, err := os.ReadFile(filepath.Join(dir, "sim.log"))
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	if !strings.Contains(string(data), "hello from sim") {
		t.Errorf("Expected message in log file, got %q", string(data))
	}
}
