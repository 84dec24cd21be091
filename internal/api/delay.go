package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/smazurov/blinkd/internal/api/models"
	"github.com/smazurov/blinkd/internal/blink"
)

// registerDelayRoutes registers the blink interval endpoints.
func (s *Server) registerDelayRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "set-delay",
		Method:      http.MethodPost,
		Path:        "/api/delay",
		Summary:     "Set Blink Delay",
		Description: "Change the blink interval. The next toggle happens at most delay_ms after the request.",
		Tags:        []string{"blink"},
		Errors:      []int{400, 500, 503},
	}, func(ctx context.Context, input *models.SetDelayRequest) (*models.SetDelayResponse, error) {
		reply, err := s.controller.SetDelay(ctx, blink.SetDelayRequest{
			DelayMs: input.Body.DelayMs,
			Source:  "http",
		})
		if err != nil {
			return nil, controlError(err)
		}
		return &models.SetDelayResponse{Body: reply}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-delay",
		Method:      http.MethodGet,
		Path:        "/api/delay",
		Summary:     "Get Blink Status",
		Description: "Current interval, line state, tick counters, and the time of the next toggle",
		Tags:        []string{"blink"},
		Errors:      []int{500, 503},
	}, func(ctx context.Context, _ *struct{}) (*models.StatusResponse, error) {
		st, err := s.controller.Status(ctx)
		if err != nil {
			return nil, controlError(err)
		}
		return &models.StatusResponse{Body: st}, nil
	})
}

// controlError maps controller errors to HTTP status codes.
func controlError(err error) error {
	switch {
	case errors.Is(err, blink.ErrInvalidArgument):
		return huma.Error400BadRequest("Invalid delay", err)
	case errors.Is(err, blink.ErrLoopStopped):
		return huma.Error503ServiceUnavailable("Blink loop is not running", err)
	default:
		return huma.Error500InternalServerError("Failed to apply delay", err)
	}
}
