package blink

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/smazurov/blinkd/internal/gpio"
)

// RunBlocking toggles line every intervalMs on the calling goroutine, with no control
// endpoint. The first failed write ends the loop with ErrHardwareWriteFailed.
// It returns nil when ctx is cancelled.
func RunBlocking(ctx context.Context, line gpio.Line, intervalMs int, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	if intervalMs < 0 {
		intervalMs = DefaultIntervalMs
	}
	interval := time.Duration(intervalMs) * time.Millisecond

	logger.Info("Blinking without control endpoint", "interval_ms", intervalMs, "offset", line.Offset())

	timer := time.NewTimer(interval)
	defer timer.Stop()

	state := false
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
		}

		state = !state
		if err := line.SetValue(state); err != nil {
			logger.Error("GPIO write failed", "offset", line.Offset(), "value", state, "error", err)
			return fmt.Errorf("%w: %w", ErrHardwareWriteFailed, err)
		}
		timer.Reset(interval)
	}
}
