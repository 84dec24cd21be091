// Package api serves the blinkd HTTP API.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"

	"github.com/smazurov/blinkd/internal/api/models"
	"github.com/smazurov/blinkd/internal/blink"
	"github.com/smazurov/blinkd/internal/events"
	"github.com/smazurov/blinkd/internal/logging"
	"github.com/smazurov/blinkd/internal/version"
)

// Controller is the blink controller surface used by the API.
type Controller interface {
	SetDelay(ctx context.Context, req blink.SetDelayRequest) (blink.SetDelayReply, error)
	Status(ctx context.Context) (blink.Status, error)
}

// Options configures the API server.
type Options struct {
	Controller        Controller
	EventBus          *events.Bus
	PrometheusHandler http.Handler // Optional Prometheus metrics handler
}

// Server is the Huma v2 API server.
type Server struct {
	api        huma.API
	mux        *http.ServeMux
	httpServer *http.Server
	controller Controller
	eventBus   *events.Bus
	logger     *slog.Logger
}

// NewServer creates a new API server with Huma v2 using Go 1.22+ native routing.
func NewServer(opts *Options) *Server {
	mux := http.NewServeMux()

	corsConfig := DefaultCORSConfig()
	AddCORSHandler(mux, corsConfig)

	config := huma.DefaultConfig("blinkd API", version.Version)
	config.Info.Description = "Runtime control of the GPIO LED blink interval"
	// Empty servers list makes OpenAPI use relative paths
	config.Servers = []*huma.Server{}

	api := humago.New(mux, config)

	server := &Server{
		api:        api,
		mux:        mux,
		controller: opts.Controller,
		eventBus:   opts.EventBus,
		logger:     logging.GetLogger(logging.ModuleAPI),
	}

	api.UseMiddleware(NewCORSMiddleware(corsConfig))
	api.UseMiddleware(HTTPLoggingMiddleware)

	if opts.PrometheusHandler != nil {
		mux.Handle("GET /metrics", opts.PrometheusHandler)
	}

	server.registerRoutes()
	return server
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// GetAPI returns the Huma API instance.
func (s *Server) GetAPI() huma.API {
	return s.api
}

// Start listens on addr and serves in the background. It returns the bound address,
// which differs from addr when the port is 0.
func (s *Server) Start(addr string) (net.Addr, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	s.httpServer = &http.Server{
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info("Starting blinkd API server", "addr", listener.Addr().String())
	s.logger.Debug("OpenAPI documentation available", "url", "http://"+listener.Addr().String()+"/docs")

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server stopped", "error", err)
		}
	}()

	return listener.Addr(), nil
}

// Stop closes the server immediately, dropping open SSE streams.
func (s *Server) Stop() error {
	if s == nil || s.httpServer == nil {
		return nil
	}
	s.logger.Info("Stopping API server")
	err := s.httpServer.Close()
	s.httpServer = nil
	return err
}

func (s *Server) registerRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "health-check",
		Method:      http.MethodGet,
		Path:        "/api/health",
		Summary:     "Health",
		Description: "Reports whether the blink loop answers requests",
		Tags:        []string{"health"},
		Errors:      []int{503},
	}, func(ctx context.Context, _ *struct{}) (*models.HealthResponse, error) {
		ctx, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()

		if _, err := s.controller.Status(ctx); err != nil {
			return nil, huma.Error503ServiceUnavailable("Blink loop is not running", err)
		}
		return &models.HealthResponse{
			Body: models.HealthData{
				Status:  "ok",
				Message: "Blink loop is running",
			},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-version",
		Method:      http.MethodGet,
		Path:        "/api/version",
		Summary:     "Version",
		Description: "Get application version information",
		Tags:        []string{"system"},
	}, func(ctx context.Context, _ *struct{}) (*models.VersionResponse, error) {
		return &models.VersionResponse{Body: version.Get()}, nil
	})

	s.registerDelayRoutes()
	s.registerLogRoutes()
	s.registerSSERoutes()
}
