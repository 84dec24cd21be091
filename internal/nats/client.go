package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/micro"

	"github.com/smazurov/blinkd/internal/blink"
)

// ConnectOptions configures a client connection.
type ConnectOptions struct {
	URL            string
	Name           string
	ConnectTimeout time.Duration
	Logger         *slog.Logger
}

// Connect establishes a connection to the NATS server. Once connected the client
// reconnects forever; the initial dial is not retried.
func Connect(opts ConnectOptions) (*nats.Conn, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "nats-client")

	if opts.URL == "" {
		opts.URL = nats.DefaultURL
	}
	if opts.Name == "" {
		opts.Name = "blinkd"
	}
	if opts.ConnectTimeout == 0 {
		opts.ConnectTimeout = 2 * time.Second
	}

	conn, err := nats.Connect(opts.URL,
		nats.Name(opts.Name),
		nats.Timeout(opts.ConnectTimeout),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected", "error", err)
			} else {
				logger.Debug("NATS disconnected")
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info("NATS reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", opts.URL, err)
	}

	logger.Info("Connected to NATS", "url", opts.URL)
	return conn, nil
}

// RequestError is a service error reply.
type RequestError struct {
	Code        string
	Description string
}

func (e *RequestError) Error() string {
	if e.Description == "" {
		return "request failed with code " + e.Code
	}
	return fmt.Sprintf("request failed with code %s: %s", e.Code, e.Description)
}

// Unwrap maps code 400 back to blink.ErrInvalidArgument.
func (e *RequestError) Unwrap() error {
	if e.Code == CodeInvalidArgument {
		return blink.ErrInvalidArgument
	}
	return nil
}

// ControlClient calls the control service.
type ControlClient struct {
	conn *nats.Conn
}

// NewControlClient wraps an established connection.
func NewControlClient(conn *nats.Conn) *ControlClient {
	return &ControlClient{conn: conn}
}

// SetDelay asks the daemon to change the blink interval.
func (c *ControlClient) SetDelay(ctx context.Context, delayMs int32) (blink.SetDelayReply, error) {
	var reply blink.SetDelayReply
	payload, err := json.Marshal(blink.SetDelayRequest{DelayMs: &delayMs})
	if err != nil {
		return reply, err
	}
	err = c.request(ctx, SubjectSetDelay, payload, &reply)
	return reply, err
}

// Status fetches the daemon's status snapshot.
func (c *ControlClient) Status(ctx context.Context) (blink.Status, error) {
	var st blink.Status
	err := c.request(ctx, SubjectStatus, nil, &st)
	return st, err
}

func (c *ControlClient) request(ctx context.Context, subject string, payload []byte, out any) error {
	msg, err := c.conn.RequestWithContext(ctx, subject, payload)
	if err != nil {
		if errors.Is(err, nats.ErrNoResponders) {
			return fmt.Errorf("no blinkd control service on %s: %w", subject, err)
		}
		return fmt.Errorf("request %s: %w", subject, err)
	}

	if code := msg.Header.Get(micro.ErrorCodeHeader); code != "" {
		return &RequestError{Code: code, Description: msg.Header.Get(micro.ErrorHeader)}
	}
	if err := json.Unmarshal(msg.Data, out); err != nil {
		return fmt.Errorf("decode %s reply: %w", subject, err)
	}
	return nil
}
