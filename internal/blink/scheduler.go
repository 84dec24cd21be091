package blink

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/smazurov/blinkd/internal/events"
	"github.com/smazurov/blinkd/internal/gpio"
	"github.com/smazurov/blinkd/internal/metrics"
)

// WritePolicy decides what a tick does when the line write fails.
type WritePolicy string

const (
	// WritePolicyContinue logs the failure and keeps ticking.
	WritePolicyContinue WritePolicy = "continue"
	// WritePolicyFatal stops the loop with ErrHardwareWriteFailed.
	WritePolicyFatal WritePolicy = "fatal"
)

// ParseWritePolicy parses a policy name. An empty string selects WritePolicyContinue.
func ParseWritePolicy(s string) (WritePolicy, error) {
	switch WritePolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", WritePolicyContinue:
		return WritePolicyContinue, nil
	case WritePolicyFatal:
		return WritePolicyFatal, nil
	default:
		return "", fmt.Errorf("%w: unknown write policy %q", ErrInvalidArgument, s)
	}
}

// scheduler toggles the line every interval. All fields belong to the loop goroutine.
type scheduler struct {
	loop     *Loop
	line     gpio.Line
	interval *IntervalStore
	policy   WritePolicy
	bus      *events.Bus
	logger   *slog.Logger

	lineState     bool
	ticks         uint64
	writeFailures uint64
}

func (s *scheduler) start() {
	metrics.SetInterval(s.interval.Get())
	s.logger.Info("Blink scheduler started",
		"interval_ms", s.interval.Get(),
		"offset", s.line.Offset(),
		"write_policy", string(s.policy))
	s.arm(s.interval.Duration())
}

func (s *scheduler) arm(d time.Duration) {
	s.loop.AfterFunc(d, s.tick)
}

// tick flips the line state, writes it, and re-arms with the interval as it is now.
func (s *scheduler) tick() {
	s.lineState = !s.lineState

	if err := s.line.SetValue(s.lineState); err != nil {
		s.writeFailures++
		metrics.RecordWriteFailure()
		s.logger.Error("GPIO write failed",
			"offset", s.line.Offset(),
			"value", s.lineState,
			"error", err)
		s.bus.Publish(events.LineWriteFailedEvent{
			Offset:    s.line.Offset(),
			Value:     s.lineState,
			Error:     err.Error(),
			Timestamp: time.Now().Format(time.RFC3339),
		})

		if s.policy == WritePolicyFatal {
			s.loop.Exit(fmt.Errorf("%w: %w", ErrHardwareWriteFailed, err))
			return
		}
	} else {
		s.ticks++
		metrics.RecordTick(s.lineState)
		s.logger.Debug("Toggled LED", "value", s.lineState)
	}

	s.arm(s.interval.Duration())
}

// reschedule pulls the pending tick forward when it is further away than the current interval.
func (s *scheduler) reschedule() {
	deadline := s.loop.Deadline()
	if deadline.IsZero() {
		return
	}
	d := s.interval.Duration()
	if deadline.After(s.loop.now().Add(d)) {
		s.arm(d)
	}
}
