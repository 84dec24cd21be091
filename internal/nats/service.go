package nats

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/micro"

	"github.com/smazurov/blinkd/internal/blink"
)

// requestTimeout bounds how long a request waits for the event loop.
const requestTimeout = 5 * time.Second

// ControlHandler is the controller surface exposed over NATS.
type ControlHandler interface {
	SetDelay(ctx context.Context, req blink.SetDelayRequest) (blink.SetDelayReply, error)
	Status(ctx context.Context) (blink.Status, error)
}

// ControlService is the registered blink.control micro service.
type ControlService struct {
	svc     micro.Service
	ctx     context.Context
	handler ControlHandler
	logger  *slog.Logger
}

// RegisterControl registers the blink.control service on conn. Requests are served
// until Stop is called or ctx is cancelled.
func RegisterControl(ctx context.Context, conn *nats.Conn, handler ControlHandler, logger *slog.Logger) (*ControlService, error) {
	if logger == nil {
		logger = slog.Default()
	}

	s := &ControlService{
		ctx:     ctx,
		handler: handler,
		logger:  logger.With("component", "nats-control"),
	}

	svc, err := micro.AddService(conn, micro.Config{
		Name:        ServiceName,
		Version:     ServiceVersion,
		Description: ServiceDescription,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add %s service: %w", ServiceName, err)
	}

	group := svc.AddGroup(SubjectControlGroup)
	if err := group.AddEndpoint(EndpointSetDelay, micro.HandlerFunc(s.handleSetDelay)); err != nil {
		_ = svc.Stop()
		return nil, fmt.Errorf("failed to add %s endpoint: %w", EndpointSetDelay, err)
	}
	if err := group.AddEndpoint(EndpointStatus, micro.HandlerFunc(s.handleStatus)); err != nil {
		_ = svc.Stop()
		return nil, fmt.Errorf("failed to add %s endpoint: %w", EndpointStatus, err)
	}

	s.svc = svc
	s.logger.Info("Control service registered", "subject", SubjectSetDelay)
	return s, nil
}

func (s *ControlService) handleSetDelay(req micro.Request) {
	parsed, err := blink.DecodeSetDelay(req.Data())
	if err == nil {
		parsed.Source = "nats"
		ctx, cancel := context.WithTimeout(s.ctx, requestTimeout)
		defer cancel()

		var reply blink.SetDelayReply
		reply, err = s.handler.SetDelay(ctx, parsed)
		if err == nil {
			s.respondJSON(req, reply)
			return
		}
	}
	s.respondError(req, err)
}

func (s *ControlService) handleStatus(req micro.Request) {
	ctx, cancel := context.WithTimeout(s.ctx, requestTimeout)
	defer cancel()

	st, err := s.handler.Status(ctx)
	if err != nil {
		s.respondError(req, err)
		return
	}
	s.respondJSON(req, st)
}

func (s *ControlService) respondJSON(req micro.Request, v any) {
	if err := req.RespondJSON(v); err != nil {
		s.logger.Warn("Failed to send reply", "subject", req.Subject(), "error", err)
	}
}

// respondError sends an error status with an empty body.
func (s *ControlService) respondError(req micro.Request, err error) {
	code, description := CodeInternal, "internal error"
	if errors.Is(err, blink.ErrInvalidArgument) {
		code, description = CodeInvalidArgument, "invalid argument"
	}
	s.logger.Debug("Request rejected", "subject", req.Subject(), "code", code, "error", err)
	if rerr := req.Error(code, description, nil); rerr != nil {
		s.logger.Warn("Failed to send error reply", "subject", req.Subject(), "error", rerr)
	}
}

// Stop unregisters the service. Safe to call on a nil service.
func (s *ControlService) Stop() error {
	if s == nil || s.svc == nil {
		return nil
	}
	err := s.svc.Stop()
	s.svc = nil
	return err
}
