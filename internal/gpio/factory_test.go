package gpio

import (
	"errors"
	"log/slog"
	"os"
	"testing"
)

func TestOpen_Sim(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	line, err := Open(Config{Backend: BackendSim, Offset: 26}, logger)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	if line.Offset() != 26 {
		t.Errorf("Offset() = %d, want 26", line.Offset())
	}
	if err := line.SetValue(true); err != nil {
		t.Errorf("SetValue() error: %v", err)
	}
	if err := line.Release(); err != nil {
		t.Errorf("Release() error: %v", err)
	}
	if err := line.Release(); err != nil {
		t.Errorf("second Release() error: %v", err)
	}
	if err := line.SetValue(false); !errors.Is(err, ErrWriteFailed) {
		t.Errorf("SetValue() after release error = %v, want ErrWriteFailed", err)
	}
}

func TestOpen_SysfsExplicitName(t *testing.T) {
	dir, name := newFakeLED(t, "[none] heartbeat")

	line, err := Open(Config{Backend: BackendSysfs, LEDName: name, SysfsDir: dir}, nil)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	defer line.Release()

	if err := line.SetValue(true); err != nil {
		t.Errorf("SetValue() error: %v", err)
	}
}

func TestOpen_UnknownBackend(t *testing.T) {
	if _, err := Open(Config{Backend: "pwm"}, nil); err == nil {
		t.Error("Open() with unknown backend should return error")
	}
}

func TestDefaultLEDName(t *testing.T) {
	tests := []struct {
		model string
		want  string
	}{
		{"FriendlyElec NanoPC-T6", "usr_led"},
		{"Orange Pi 5 Plus", "green_led"},
		{"Raspberry Pi 4 Model B Rev 1.4", "ACT"},
		{"unknown", ""},
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			if got := defaultLEDName(tt.model); got != tt.want {
				t.Errorf("defaultLEDName(%q) = %q, want %q", tt.model, got, tt.want)
			}
		})
	}
}

func TestDetectBoard(t *testing.T) {
	model := detectBoard()

	// Should return a non-empty string (or "unknown")
	if model == "" {
		t.Error("detectBoard() returned empty string")
	}
}
