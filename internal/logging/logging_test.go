package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestNewLoggerWithWriter_Formats(t *testing.T) {
	tests := []struct {
		format string
		want   []string
	}{
		{"text", []string{"msg=\"process created\"", "pid=3"}},
		{"TEXT", []string{"pid=3"}},
		{"json", []string{`"msg":"process created"`, `"pid":3`}},
		{"bogus", []string{"pid=3"}},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewLoggerWithWriter(slog.LevelInfo, tt.format, &buf)
			logger.Info("process created", "pid", 3)

			out := buf.String()
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("expected %s in output, got: %s", w, out)
				}
			}
		})
	}
}

func TestNewLoggerWithWriter_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(slog.LevelWarn, "text", &buf)

	logger.Info("should not appear")
	logger.Warn("should appear")

	output := buf.String()
	if strings.Contains(output, "should not appear") {
		t.Errorf("INFO message should be filtered at WARN level, got: %s", output)
	}
	if !strings.Contains(output, "should appear") {
		t.Errorf("WARN message should appear at WARN level, got: %s", output)
	}
}

func TestNewLoggerWithWriter_ChildLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(slog.LevelDebug, "text", &buf)
	child := logger.With("component", "store")

	child.Debug("stale status dropped", "seq", 4)

	output := buf.String()
	if !strings.Contains(output, "component=store") {
		t.Errorf("expected component in output, got: %s", output)
	}
	if !strings.Contains(output, "seq=4") {
		t.Errorf("expected seq in output, got: %s", output)
	}
}

func TestFromFlags(t *testing.T) {
	var buf bytes.Buffer
	logger, err := FromFlags(true, "error", "json", &buf)
	if err != nil {
		t.Fatalf("FromFlags: %v", err)
	}
	logger.Debug("visible")
	if !strings.Contains(buf.String(), `"msg":"visible"`) {
		t.Errorf("--debug should enable debug output, got: %s", buf.String())
	}

	buf.Reset()
	logger, err = FromFlags(false, "warn", "", &buf)
	if err != nil {
		t.Fatalf("FromFlags: %v", err)
	}
	logger.Info("hidden")
	if buf.Len() != 0 {
		t.Errorf("info should be filtered at warn, got: %s", buf.String())
	}

	if _, err := FromFlags(false, "info", "xml", &buf); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"unknown", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.input); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]string{"": "text", "text": "text", " JSON ": "json"} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %q, %v, want %q", in, got, err, want)
		}
	}
	if _, err := ParseFormat("yaml"); err == nil {
		t.Error("ParseFormat(yaml) should fail")
	}
}
