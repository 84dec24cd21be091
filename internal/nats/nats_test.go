package nats

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/micro"

	"github.com/smazurov/blinkd/internal/blink"
	"github.com/smazurov/blinkd/internal/events"
	"github.com/smazurov/blinkd/internal/gpio"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startServer runs an embedded server on a random port and connects to it.
func startServer(t *testing.T) *nats.Conn {
	t.Helper()

	server := NewServer(ServerOptions{Port: -1, Name: "test-server", Logger: testLogger()})
	if err := server.Start(); err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}
	t.Cleanup(server.Stop)

	conn, err := Connect(ConnectOptions{URL: server.ClientURL(), Name: "test", Logger: testLogger()})
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	t.Cleanup(conn.Close)
	return conn
}

// startControl registers a running controller on conn.
func startControl(t *testing.T, conn *nats.Conn, bus *events.Bus) *blink.Controller {
	t.Helper()

	ctrl := blink.New(gpio.NewSim(26, testLogger()), blink.Options{
		IntervalMs: blink.DefaultIntervalMs,
		EventBus:   bus,
		Logger:     testLogger(),
	})
	ctx, cancel := context.WithCancel(context.Background())
	go ctrl.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-ctrl.Done()
	})

	svc, err := RegisterControl(ctx, conn, ctrl, testLogger())
	if err != nil {
		t.Fatalf("RegisterControl() error = %v", err)
	}
	t.Cleanup(func() { _ = svc.Stop() })
	return ctrl
}

func TestServerStartStop(t *testing.T) {
	server := NewServer(ServerOptions{
		Port:   -1,
		Name:   "test-server",
		Logger: testLogger(),
	})

	if err := server.Start(); err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}

	if !server.IsRunning() {
		t.Error("Server should be running after Start()")
	}

	if url := server.ClientURL(); url == "" {
		t.Error("ClientURL should not be empty")
	}

	server.Stop()

	if server.IsRunning() {
		t.Error("Server should not be running after Stop()")
	}

	// Stopping twice is harmless
	server.Stop()
}

func TestConnectFailure(t *testing.T) {
	_, err := Connect(ConnectOptions{
		URL:            "nats://127.0.0.1:1",
		ConnectTimeout: 200 * time.Millisecond,
		Logger:         testLogger(),
	})
	if err == nil {
		t.Fatal("Connect should fail with non-existent server")
	}
}

func TestControlSetDelay(t *testing.T) {
	conn := startServer(t)
	startControl(t, conn, nil)
	client := NewControlClient(conn)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	reply, err := client.SetDelay(ctx, 1000)
	if err != nil {
		t.Fatalf("SetDelay() error = %v", err)
	}
	if reply.Status != blink.StatusSuccess || reply.NewDelayMs != 1000 {
		t.Errorf("reply = %+v, want success/1000", reply)
	}

	st, err := client.Status(ctx)
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if st.DelayMs != 1000 {
		t.Errorf("DelayMs = %d, want 1000", st.DelayMs)
	}
}

func TestControlSetDelayNegative(t *testing.T) {
	conn := startServer(t)
	startControl(t, conn, nil)
	client := NewControlClient(conn)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := client.SetDelay(ctx, -5)
	if !errors.Is(err, blink.ErrInvalidArgument) {
		t.Fatalf("SetDelay(-5) error = %v, want ErrInvalidArgument", err)
	}
	var reqErr *RequestError
	if !errors.As(err, &reqErr) || reqErr.Code != CodeInvalidArgument {
		t.Errorf("error = %#v, want code %s", err, CodeInvalidArgument)
	}

	st, err := client.Status(ctx)
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if st.DelayMs != blink.DefaultIntervalMs {
		t.Errorf("DelayMs = %d, want unchanged %d", st.DelayMs, blink.DefaultIntervalMs)
	}
}

func TestControlRejectsWithEmptyBody(t *testing.T) {
	conn := startServer(t)
	startControl(t, conn, nil)

	payloads := map[string]string{
		"missing field": `{}`,
		"empty":         ``,
		"wrong type":    `{"delay_ms":"fast"}`,
	}

	for name, payload := range payloads {
		t.Run(name, func(t *testing.T) {
			msg, err := conn.Request(SubjectSetDelay, []byte(payload), 2*time.Second)
			if err != nil {
				t.Fatalf("Request() error = %v", err)
			}
			if code := msg.Header.Get(micro.ErrorCodeHeader); code != CodeInvalidArgument {
				t.Errorf("error code = %q, want %q", code, CodeInvalidArgument)
			}
			if len(msg.Data) != 0 {
				t.Errorf("body = %q, want empty", msg.Data)
			}
		})
	}
}

func TestControlStatusShape(t *testing.T) {
	conn := startServer(t)
	startControl(t, conn, nil)

	msg, err := conn.Request(SubjectStatus, nil, 2*time.Second)
	if err != nil {
		t.Fatalf("Request() error = %v", err)
	}

	var body map[string]any
	if err := json.Unmarshal(msg.Data, &body); err != nil {
		t.Fatalf("invalid JSON reply %q: %v", msg.Data, err)
	}
	for _, key := range []string{"delay_ms", "line_state", "ticks", "write_failures", "next_tick"} {
		if _, ok := body[key]; !ok {
			t.Errorf("status reply missing %q: %s", key, msg.Data)
		}
	}
}

func TestBridgeForwardsIntervalChanges(t *testing.T) {
	conn := startServer(t)
	bus := events.New()

	bridge := NewBridge(conn, bus, testLogger())
	bridge.Start()
	defer bridge.Stop()

	sub, err := conn.SubscribeSync(SubjectIntervalChanged)
	if err != nil {
		t.Fatalf("SubscribeSync() error = %v", err)
	}
	if err := conn.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}

	ctrl := startControl(t, conn, bus)
	delay := int32(250)
	if _, err := ctrl.SetDelay(context.Background(), blink.SetDelayRequest{DelayMs: &delay, Source: "test"}); err != nil {
		t.Fatalf("SetDelay() error = %v", err)
	}

	msg, err := sub.NextMsg(2 * time.Second)
	if err != nil {
		t.Fatalf("NextMsg() error = %v", err)
	}
	var ev events.IntervalChangedEvent
	if err := json.Unmarshal(msg.Data, &ev); err != nil {
		t.Fatalf("invalid event: %v", err)
	}
	if ev.DelayMs != 250 || ev.PreviousMs != blink.DefaultIntervalMs {
		t.Errorf("event = %+v", ev)
	}
}
