// Package blink implements the event-driven LED blink controller.
//
// A Controller owns one GPIO line, a single-consumer event loop, and the interval
// store. The scheduler and the control handler only run as loop callbacks, so the
// interval and the line state are never touched concurrently.
package blink

import (
	"context"
	"log/slog"

	"github.com/smazurov/blinkd/internal/events"
	"github.com/smazurov/blinkd/internal/gpio"
)

// Options configure a Controller.
type Options struct {
	IntervalMs  int
	WritePolicy WritePolicy
	EventBus    *events.Bus // optional
	Logger      *slog.Logger
}

// Controller drives one line at the current interval and accepts runtime changes.
type Controller struct {
	loop     *Loop
	interval *IntervalStore
	sched    *scheduler
	bus      *events.Bus
	logger   *slog.Logger
}

// New creates a controller for line. The line stays owned by the caller.
func New(line gpio.Line, opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	policy := opts.WritePolicy
	if policy == "" {
		policy = WritePolicyContinue
	}

	loop := NewLoop()
	interval := NewIntervalStore(opts.IntervalMs)
	return &Controller{
		loop:     loop,
		interval: interval,
		bus:      opts.EventBus,
		logger:   logger,
		sched: &scheduler{
			loop:     loop,
			line:     line,
			interval: interval,
			policy:   policy,
			bus:      opts.EventBus,
			logger:   logger,
		},
	}
}

// Run arms the first tick and serves the loop until ctx is cancelled.
// It returns nil on cancellation, or ErrHardwareWriteFailed under WritePolicyFatal.
func (c *Controller) Run(ctx context.Context) error {
	return c.loop.Run(ctx, c.sched.start)
}

// Done is closed once Run has returned.
func (c *Controller) Done() <-chan struct{} {
	return c.loop.Done()
}
