package gpio

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const sysfsLEDPath = "/sys/class/leds"

// sysfs drives an LED through the Linux LED class interface.
// The kernel trigger is switched to "none" while the line is held and restored on release.
type sysfs struct {
	name        string
	ledPath     string
	prevTrigger string
	released    bool
}

// OpenSysfs takes manual control of the LED class device name under dir.
func OpenSysfs(dir, name string) (Line, error) {
	if dir == "" {
		dir = sysfsLEDPath
	}
	ledPath := filepath.Join(dir, name)

	if _, err := os.Stat(ledPath); err != nil {
		return nil, newError("open", ledPath, 0, ErrChipUnavailable, err)
	}

	triggerPath := filepath.Join(ledPath, "trigger")
	prev := ""
	if data, err := os.ReadFile(triggerPath); err == nil {
		prev = activeTrigger(string(data))
	}

	if err := os.WriteFile(triggerPath, []byte("none"), 0644); err != nil {
		return nil, newError("request", ledPath, 0, ErrLineRequestFailed, fmt.Errorf("failed to set LED trigger: %w", err))
	}

	s := &sysfs{
		name:        name,
		ledPath:     ledPath,
		prevTrigger: prev,
	}
	if err := s.SetValue(false); err != nil {
		return nil, newError("request", ledPath, 0, ErrLineRequestFailed, err)
	}
	return s, nil
}

func (s *sysfs) SetValue(on bool) error {
	if s.released {
		return newError("set", s.ledPath, 0, ErrWriteFailed, ErrReleased)
	}

	brightnessValue := "0"
	if on {
		brightnessValue = "1"
	}

	brightnessPath := filepath.Join(s.ledPath, "brightness")
	if err := os.WriteFile(brightnessPath, []byte(brightnessValue), 0644); err != nil {
		return newError("set", s.ledPath, 0, ErrWriteFailed, err)
	}
	return nil
}

// Offset is always 0: an LED class device exposes a single output.
func (s *sysfs) Offset() int {
	return 0
}

func (s *sysfs) Release() error {
	if s.released {
		return nil
	}
	s.released = true

	if s.prevTrigger == "" || s.prevTrigger == "none" {
		return nil
	}
	triggerPath := filepath.Join(s.ledPath, "trigger")
	if err := os.WriteFile(triggerPath, []byte(s.prevTrigger), 0644); err != nil {
		return fmt.Errorf("failed to restore LED trigger %q: %w", s.prevTrigger, err)
	}
	return nil
}

// activeTrigger extracts the bracketed entry from a trigger listing such as
// "none rc-feedback [heartbeat] timer".
func activeTrigger(listing string) string {
	for _, field := range strings.Fields(listing) {
		if strings.HasPrefix(field, "[") && strings.HasSuffix(field, "]") {
			return strings.Trim(field, "[]")
		}
	}
	return ""
}
