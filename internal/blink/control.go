package blink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/smazurov/blinkd/internal/events"
	"github.com/smazurov/blinkd/internal/metrics"
)

// StatusSuccess is the status field of a successful set_delay reply.
const StatusSuccess = "success"

// SetDelayRequest is the set_delay input. DelayMs is nil when the field was omitted.
type SetDelayRequest struct {
	DelayMs *int32 `json:"delay_ms,omitempty"`
	Source  string `json:"-"`
}

// SetDelayReply is returned when the interval was stored.
type SetDelayReply struct {
	Status     string `json:"status"`
	NewDelayMs int    `json:"new_delay_ms"`
}

// Status is a snapshot of the controller state taken on the loop.
type Status struct {
	DelayMs       int       `json:"delay_ms"`
	LineState     bool      `json:"line_state"`
	Ticks         uint64    `json:"ticks"`
	WriteFailures uint64    `json:"write_failures"`
	NextTick      time.Time `json:"next_tick,omitzero"`
}

// DecodeSetDelay parses a set_delay payload. An empty payload decodes to a request
// without delay_ms, which SetDelay rejects.
func DecodeSetDelay(data []byte) (SetDelayRequest, error) {
	var req SetDelayRequest
	if len(data) == 0 {
		return req, nil
	}
	if err := json.Unmarshal(data, &req); err != nil {
		return req, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	return req, nil
}

// SetDelay stores a new interval. The change is visible to the next tick, and a pending
// tick further away than the new interval is pulled in.
func (c *Controller) SetDelay(ctx context.Context, req SetDelayRequest) (SetDelayReply, error) {
	if req.DelayMs == nil {
		metrics.RecordControlRequest(req.Source, metrics.ResultInvalidArgument)
		c.logger.Warn("Rejected set_delay request", "source", req.Source, "reason", "missing delay_ms")
		return SetDelayReply{}, fmt.Errorf("%w: delay_ms is required", ErrInvalidArgument)
	}

	var (
		reply    SetDelayReply
		previous int
		setErr   error
	)
	err := c.loop.Submit(ctx, func() {
		previous = c.interval.Get()
		stored, err := c.interval.Set(int(*req.DelayMs))
		if err != nil {
			setErr = err
			return
		}
		c.sched.reschedule()
		metrics.SetInterval(stored)
		reply = SetDelayReply{Status: StatusSuccess, NewDelayMs: stored}
	})
	if err == nil {
		err = setErr
	}
	if err != nil {
		result := metrics.ResultError
		if errors.Is(err, ErrInvalidArgument) {
			result = metrics.ResultInvalidArgument
		}
		metrics.RecordControlRequest(req.Source, result)
		c.logger.Warn("Rejected set_delay request", "source", req.Source, "delay_ms", *req.DelayMs, "error", err)
		return SetDelayReply{}, err
	}

	metrics.RecordControlRequest(req.Source, metrics.ResultSuccess)
	c.logger.Info("Blink delay updated",
		"source", req.Source,
		"previous_ms", previous,
		"delay_ms", reply.NewDelayMs)
	c.bus.Publish(events.IntervalChangedEvent{
		PreviousMs: previous,
		DelayMs:    reply.NewDelayMs,
		Source:     req.Source,
		Timestamp:  time.Now().Format(time.RFC3339),
	})
	return reply, nil
}

// Status returns the current interval, line state, and counters.
func (c *Controller) Status(ctx context.Context) (Status, error) {
	var st Status
	err := c.loop.Submit(ctx, func() {
		st = Status{
			DelayMs:       c.interval.Get(),
			LineState:     c.sched.lineState,
			Ticks:         c.sched.ticks,
			WriteFailures: c.sched.writeFailures,
			NextTick:      c.loop.Deadline(),
		}
	})
	return st, err
}
