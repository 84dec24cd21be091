package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/sse"

	"github.com/smazurov/blinkd/internal/blink"
	"github.com/smazurov/blinkd/internal/events"
)

// registerSSERoutes registers the native Huma SSE endpoint.
func (s *Server) registerSSERoutes() {
	sse.Register(s.api, huma.Operation{
		OperationID: "events-stream",
		Method:      http.MethodGet,
		Path:        "/api/events",
		Summary:     "Server-Sent Events Stream",
		Description: "Current status on connect, then interval changes and GPIO write failures",
		Tags:        []string{"events"},
	}, map[string]any{
		"status":           blink.Status{},
		"interval-changed": events.IntervalChangedEvent{},
		"write-failed":     events.LineWriteFailedEvent{},
	}, func(ctx context.Context, _ *struct{}, send sse.Sender) {
		eventCh := make(chan any, 10)

		unsubscribers := []func(){
			events.SubscribeToChannel[events.IntervalChangedEvent](s.eventBus, eventCh),
			events.SubscribeToChannel[events.LineWriteFailedEvent](s.eventBus, eventCh),
		}
		defer func() {
			for _, unsub := range unsubscribers {
				unsub()
			}
		}()

		// Subscribed before the snapshot, so no change is lost in between.
		st, err := s.controller.Status(ctx)
		if err != nil {
			s.logger.Debug("Status unavailable for SSE client", "error", err)
			return
		}
		if err := send.Data(st); err != nil {
			return
		}

		for {
			select {
			case <-ctx.Done():
				return
			case event := <-eventCh:
				if err := send.Data(event); err != nil {
					return
				}
			}
		}
	})
}
