package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func resetState() {
	mutex.Lock()
	moduleLoggers = make(map[string]*slog.Logger)
	moduleLevelVars = make(map[string]*slog.LevelVar)
	isInitialized = false
	globalConfig = Config{}
	logBuffer = nil
	logCallback = nil
	mutex.Unlock()
}

func TestModuleLevelOverride(t *testing.T) {
	resetState()

	Initialize(Config{
		Level:  "info",
		Format: "text",
		Modules: map[string]string{
			"blink": "debug",
			"api":   "warn",
		},
	})

	tests := []struct {
		module    string
		wantDebug bool
		wantInfo  bool
		wantWarn  bool
	}{
		{"blink", true, true, true},
		{"api", false, false, true},
		{"other", false, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.module, func(t *testing.T) {
			handler := GetLogger(tt.module).Handler()

			if got := handler.Enabled(context.Background(), slog.LevelDebug); got != tt.wantDebug {
				t.Errorf("Debug enabled = %v, want %v", got, tt.wantDebug)
			}
			if got := handler.Enabled(context.Background(), slog.LevelInfo); got != tt.wantInfo {
				t.Errorf("Info enabled = %v, want %v", got, tt.wantInfo)
			}
			if got := handler.Enabled(context.Background(), slog.LevelWarn); got != tt.wantWarn {
				t.Errorf("Warn enabled = %v, want %v", got, tt.wantWarn)
			}
		})
	}
}

func TestGetLoggerBeforeInitialize(t *testing.T) {
	resetState()

	loggerBefore := GetLogger("gpio")
	handlerBefore := loggerBefore.Handler()

	if handlerBefore.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("Logger created before Initialize should NOT have debug enabled")
	}

	Initialize(Config{
		Level:   "info",
		Modules: map[string]string{"gpio": "debug"},
	})

	// Initialize rebuilds the handler chain but keeps the module's LevelVar.
	if !handlerBefore.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("Cached logger should have debug enabled after Initialize updates LevelVar")
	}
}

func TestBufferCapturesEntries(t *testing.T) {
	resetState()
	Initialize(Config{Level: "debug", BufferSize: 10})

	var got []LogEntry
	SetLogCallback(func(e LogEntry) { got = append(got, e) })
	defer SetLogCallback(nil)

	logger := GetLogger("blink")
	logger.Info("Blink delay updated", "delay_ms", 250, "error", errors.New("boom"))

	entries := GetBuffer().ReadAll()
	if len(entries) != 1 {
		t.Fatalf("buffer has %d entries, want 1", len(entries))
	}
	e := entries[0]
	if e.Module != "blink" || e.Level != "info" || e.Message != "Blink delay updated" {
		t.Errorf("entry = %+v", e)
	}
	if e.Attributes["delay_ms"] != int64(250) {
		t.Errorf("delay_ms = %#v, want 250", e.Attributes["delay_ms"])
	}
	if e.Attributes["error"] != "boom" {
		t.Errorf("error = %#v, want boom", e.Attributes["error"])
	}
	if len(got) != 1 {
		t.Errorf("callback saw %d entries, want 1", len(got))
	}
}

func TestBufferHandlerGroups(t *testing.T) {
	resetState()
	Initialize(Config{Level: "debug"})

	logger := slog.New(NewBufferHandler(slog.LevelDebug)).WithGroup("line").With("offset", 26)
	logger.Debug("write", slog.Group("req", "value", true))

	entries := GetBuffer().ReadAll()
	if len(entries) != 1 {
		t.Fatalf("buffer has %d entries, want 1", len(entries))
	}
	attrs := entries[0].Attributes
	if attrs["line.offset"] != int64(26) {
		t.Errorf("line.offset = %#v", attrs["line.offset"])
	}
	if attrs["line.req.value"] != true {
		t.Errorf("line.req.value = %#v", attrs["line.req.value"])
	}
}

func TestMultiHandlerDebugOutput(t *testing.T) {
	var buf bytes.Buffer

	debugHandler := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	infoHandler := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})

	logger := slog.New(NewMultiHandler(debugHandler, infoHandler)).With("module", "test")
	logger.Debug("debug only message")

	output := buf.String()
	if count := strings.Count(output, "debug only message"); count != 1 {
		t.Errorf("Expected 1 debug message, got %d. Output: %s", count, output)
	}
}

func TestRingBufferTail(t *testing.T) {
	rb := NewRingBuffer(3)
	for i, msg := range []string{"a", "b", "c", "d"} {
		rb.Write(LogEntry{Message: msg, Timestamp: time.Unix(int64(i), 0)})
	}

	if rb.Count() != 3 {
		t.Fatalf("Count() = %d, want 3", rb.Count())
	}

	tests := []struct {
		n    int
		want string
	}{
		{0, "bcd"},
		{2, "cd"},
		{10, "bcd"},
	}
	for _, tt := range tests {
		var sb strings.Builder
		for _, e := range rb.Tail(tt.n) {
			sb.WriteString(e.Message)
		}
		if sb.String() != tt.want {
			t.Errorf("Tail(%d) = %q, want %q", tt.n, sb.String(), tt.want)
		}
	}

	if NewRingBuffer(4).ReadAll() != nil {
		t.Error("empty buffer should return nil")
	}
}

func TestFormatLogLine(t *testing.T) {
	entry := LogEntry{
		Timestamp:  time.Date(2025, 1, 27, 10, 30, 0, 0, time.UTC),
		Level:      "warn",
		Module:     "control",
		Message:    "Rejected set_delay request",
		Attributes: map[string]any{"source": "nats", "delay_ms": -5},
	}

	want := "2025-01-27T10:30:00Z [WARN] [control] Rejected set_delay request delay_ms=-5 source=nats"
	if got := FormatLogLine(entry); got != want {
		t.Errorf("FormatLogLine() = %q, want %q", got, want)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
		ok    bool
	}{
		{"debug", slog.LevelDebug, true},
		{"DEBUG", slog.LevelDebug, true},
		{"info", slog.LevelInfo, true},
		{"warn", slog.LevelWarn, true},
		{"warning", slog.LevelWarn, true},
		{"error", slog.LevelError, true},
		{"invalid", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseLevel(tt.input)
			if ok != tt.ok || got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, %v; want %v, %v", tt.input, got, ok, tt.want, tt.ok)
			}
		})
	}
}
