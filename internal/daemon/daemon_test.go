package daemon

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/smazurov/blinkd/internal/blink"
	"github.com/smazurov/blinkd/internal/configstore"
	"github.com/smazurov/blinkd/internal/gpio"
	"github.com/smazurov/blinkd/internal/nats"
)

// countingLine wraps a simulated line and counts releases.
type countingLine struct {
	gpio.Line
	releases atomic.Int32
}

func (c *countingLine) Release() error {
	c.releases.Add(1)
	return c.Line.Release()
}

func newCountingOpener() (*countingLine, func(gpio.Config, *slog.Logger) (gpio.Line, error)) {
	line := &countingLine{Line: gpio.NewSim(26, nil)}
	return line, func(gpio.Config, *slog.Logger) (gpio.Line, error) {
		return line, nil
	}
}

func writeStore(t *testing.T, dir, interval string) {
	t.Helper()
	content := "[globals]\ninterval = \"" + interval + "\"\n"
	if err := os.WriteFile(filepath.Join(dir, "blink.toml"), []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write store: %v", err)
	}
}

type runningDaemon struct {
	endpoints Endpoints
	cancel    context.CancelFunc
	result    chan error
}

func startDaemon(t *testing.T, opts Options) *runningDaemon {
	t.Helper()

	ready := make(chan Endpoints, 1)
	opts.OnReady = func(e Endpoints) { ready <- e }

	ctx, cancel := context.WithCancel(context.Background())
	d := &runningDaemon{cancel: cancel, result: make(chan error, 1)}
	go func() { d.result <- Run(ctx, opts) }()

	select {
	case d.endpoints = <-ready:
	case err := <-d.result:
		cancel()
		t.Fatalf("Run returned before ready: %v", err)
	case <-time.After(10 * time.Second):
		cancel()
		t.Fatal("Timeout waiting for daemon")
	}
	return d
}

func (d *runningDaemon) stop(t *testing.T) error {
	t.Helper()
	d.cancel()
	select {
	case err := <-d.result:
		return err
	case <-time.After(10 * time.Second):
		t.Fatal("Timeout waiting for Run to return")
		return nil
	}
}

func controlClient(t *testing.T, url string) *nats.ControlClient {
	t.Helper()
	conn, err := nats.Connect(nats.ConnectOptions{URL: url})
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	t.Cleanup(conn.Close)
	return nats.NewControlClient(conn)
}

func TestRunChipUnavailable(t *testing.T) {
	err := Run(context.Background(), Options{
		StoreBackend: configstore.BackendTOML,
		StoreDir:     t.TempDir(),
		GPIO:         gpio.Config{Backend: gpio.BackendCdev, Chip: "/nonexistent/gpiochip0", Offset: 26},
		NATSEmbedded: true,
		NATSPort:     -1,
	})
	if !errors.Is(err, gpio.ErrChipUnavailable) {
		t.Fatalf("Expected ErrChipUnavailable, got %v", err)
	}
}

func TestRunTransportUnavailableReleasesLine(t *testing.T) {
	line, opener := newCountingOpener()

	err := Run(context.Background(), Options{
		StoreBackend: configstore.BackendTOML,
		StoreDir:     t.TempDir(),
		OpenLine:     opener,
		NATSURL:      "nats://127.0.0.1:1",
	})
	if !errors.Is(err, blink.ErrTransportUnavailable) {
		t.Fatalf("Expected ErrTransportUnavailable, got %v", err)
	}
	if got := line.releases.Load(); got != 1 {
		t.Errorf("Expected line released once, got %d", got)
	}
}

func TestRunInvalidWritePolicy(t *testing.T) {
	line, opener := newCountingOpener()

	err := Run(context.Background(), Options{
		StoreBackend: configstore.BackendTOML,
		StoreDir:     t.TempDir(),
		OpenLine:     opener,
		WritePolicy:  "explode",
		NATSEmbedded: true,
		NATSPort:     -1,
	})
	if !errors.Is(err, blink.ErrInvalidArgument) {
		t.Fatalf("Expected ErrInvalidArgument, got %v", err)
	}
	if got := line.releases.Load(); got != 1 {
		t.Errorf("Expected line released once, got %d", got)
	}
}

func TestRunServesControl(t *testing.T) {
	dir := t.TempDir()
	writeStore(t, dir, "1000")
	line, opener := newCountingOpener()

	d := startDaemon(t, Options{
		StoreBackend: configstore.BackendTOML,
		StoreDir:     dir,
		OpenLine:     opener,
		NATSEmbedded: true,
		NATSPort:     -1,
		HTTPAddr:     "127.0.0.1:0",
	})

	client := controlClient(t, d.endpoints.NATSURL)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	st, err := client.Status(ctx)
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if st.DelayMs != 1000 {
		t.Errorf("Expected interval from store 1000, got %d", st.DelayMs)
	}

	reply, err := client.SetDelay(ctx, 50)
	if err != nil {
		t.Fatalf("SetDelay failed: %v", err)
	}
	if reply.NewDelayMs != 50 {
		t.Errorf("Expected new delay 50, got %d", reply.NewDelayMs)
	}

	if _, err := client.SetDelay(ctx, -1); !errors.Is(err, blink.ErrInvalidArgument) {
		t.Errorf("Expected ErrInvalidArgument for negative delay, got %v", err)
	}

	if d.endpoints.HTTPAddr == nil {
		t.Fatal("Expected HTTP address")
	}
	resp, err := http.Get("http://" + d.endpoints.HTTPAddr.String() + "/api/health")
	if err != nil {
		t.Fatalf("Health request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected health 200, got %d", resp.StatusCode)
	}

	if err := d.stop(t); err != nil {
		t.Errorf("Expected clean shutdown, got %v", err)
	}
	if got := line.releases.Load(); got != 1 {
		t.Errorf("Expected line released once, got %d", got)
	}
}

func TestRunDefaultIntervalWithoutStore(t *testing.T) {
	_, opener := newCountingOpener()

	d := startDaemon(t, Options{
		StoreBackend: configstore.BackendTOML,
		StoreDir:     t.TempDir(),
		OpenLine:     opener,
		NATSEmbedded: true,
		NATSPort:     -1,
	})
	defer d.stop(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	st, err := controlClient(t, d.endpoints.NATSURL).Status(ctx)
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if st.DelayMs != DefaultIntervalMs {
		t.Errorf("Expected default interval %d, got %d", DefaultIntervalMs, st.DelayMs)
	}
}

func TestRunAppliesStoreChanges(t *testing.T) {
	dir := t.TempDir()
	writeStore(t, dir, "1000")
	_, opener := newCountingOpener()

	d := startDaemon(t, Options{
		StoreBackend: configstore.BackendTOML,
		StoreDir:     dir,
		WatchStore:   true,
		OpenLine:     opener,
		NATSEmbedded: true,
		NATSPort:     -1,
	})
	defer d.stop(t)

	client := controlClient(t, d.endpoints.NATSURL)
	writeStore(t, dir, "250")

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		st, err := client.Status(ctx)
		cancel()
		if err == nil && st.DelayMs == 250 {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatal("Interval change in the store was not applied")
}

func TestCleanupStackUnwindsInReverse(t *testing.T) {
	var order []string
	var stack cleanupStack
	for _, name := range []string{"a", "b", "c"} {
		stack.push(name, func() error {
			order = append(order, name)
			if name == "b" {
				return errors.New("fail")
			}
			return nil
		})
	}

	stack.unwind(slog.Default())
	stack.unwind(slog.Default())

	want := []string{"c", "b", "a"}
	if len(order) != len(want) {
		t.Fatalf("Expected %v, got %v", want, order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("Expected %v, got %v", want, order)
			break
		}
	}
}
