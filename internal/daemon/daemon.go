// Package daemon wires the blink controller to its hardware, configuration, and
// control transports, and tears everything down in reverse order on exit.
package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/smazurov/blinkd/internal/api"
	"github.com/smazurov/blinkd/internal/blink"
	"github.com/smazurov/blinkd/internal/config"
	"github.com/smazurov/blinkd/internal/configstore"
	"github.com/smazurov/blinkd/internal/discovery"
	"github.com/smazurov/blinkd/internal/events"
	"github.com/smazurov/blinkd/internal/gpio"
	"github.com/smazurov/blinkd/internal/logging"
	"github.com/smazurov/blinkd/internal/metrics/exporters"
	"github.com/smazurov/blinkd/internal/nats"
	"github.com/smazurov/blinkd/internal/systemd"
	"github.com/smazurov/blinkd/internal/version"
)

const (
	// DefaultIntervalMs applies when the configured interval cannot be read.
	DefaultIntervalMs = 5000
	// DefaultIntervalPath is where the interval lives in the configuration store.
	DefaultIntervalPath = "blink.globals.interval"
)

// Options configure a daemon run.
type Options struct {
	StoreBackend string
	StoreDir     string
	IntervalPath string
	WatchStore   bool

	GPIO        gpio.Config
	WritePolicy string

	NATSEmbedded bool
	NATSHost     string
	NATSPort     int    // embedded server port, -1 picks a free one
	NATSURL      string // external server, used when NATSEmbedded is false

	HTTPAddr string // empty disables the HTTP API

	MDNSEnabled bool
	MDNSName    string

	// OpenLine acquires the GPIO line. Defaults to gpio.Open.
	OpenLine func(gpio.Config, *slog.Logger) (gpio.Line, error)
	// OnReady is called once every component is up.
	OnReady func(Endpoints)
}

// Endpoints describes where a running daemon can be reached.
type Endpoints struct {
	NATSURL  string
	HTTPAddr net.Addr // nil when the HTTP API is disabled
}

// Run acquires every resource, serves until ctx is cancelled, and releases them in
// reverse order. Acquisition failures are returned after unwinding.
func Run(ctx context.Context, opts Options) error {
	logger := logging.GetLogger(logging.ModuleDaemon)

	var stack cleanupStack
	defer func() {
		stack.unwind(logger)
	}()

	if opts.IntervalPath == "" {
		opts.IntervalPath = DefaultIntervalPath
	}
	if opts.OpenLine == nil {
		opts.OpenLine = gpio.Open
	}

	// 1. Interval from the configuration store.
	store, err := configstore.New(opts.StoreBackend, opts.StoreDir)
	if err != nil {
		return err
	}
	intervalMs := loadInterval(store, opts.IntervalPath, logging.GetLogger(logging.ModuleConfig))

	// 2-4. Chip, line settings, and line request.
	line, err := opts.OpenLine(opts.GPIO, logging.GetLogger(logging.ModuleGPIO))
	if err != nil {
		return fmt.Errorf("failed to acquire GPIO line: %w", err)
	}
	stack.push("gpio line", func() error { return gpio.Release(line) })

	// 5. Event loop and controller.
	policy, err := blink.ParseWritePolicy(opts.WritePolicy)
	if err != nil {
		return err
	}
	bus := events.New()
	ctrl := blink.New(line, blink.Options{
		IntervalMs:  intervalMs,
		WritePolicy: policy,
		EventBus:    bus,
		Logger:      logging.GetLogger(logging.ModuleBlink),
	})

	logging.SetLogCallback(func(entry logging.LogEntry) {
		bus.Publish(events.LogEntryEvent{
			Timestamp:  entry.Timestamp.Format(time.RFC3339Nano),
			Level:      entry.Level,
			Module:     entry.Module,
			Message:    entry.Message,
			Attributes: entry.Attributes,
		})
	})
	stack.push("log callback", func() error {
		logging.SetLogCallback(nil)
		return nil
	})

	// The controller is wired before the loop runs; requests that arrive early wait in Submit.
	loopCtx, stopLoop := context.WithCancel(ctx)
	defer stopLoop()

	// 6. Control transport.
	controlLogger := logging.GetLogger(logging.ModuleControl)
	natsURL := opts.NATSURL
	if opts.NATSEmbedded {
		ns := nats.NewServer(nats.ServerOptions{
			Host:   opts.NATSHost,
			Port:   opts.NATSPort,
			Logger: controlLogger,
		})
		if err := ns.Start(); err != nil {
			return fmt.Errorf("%w: %w", blink.ErrTransportUnavailable, err)
		}
		stack.push("nats server", func() error {
			ns.Stop()
			return nil
		})
		natsURL = ns.ClientURL()
	}

	conn, err := nats.Connect(nats.ConnectOptions{URL: natsURL, Logger: controlLogger})
	if err != nil {
		return fmt.Errorf("%w: %w", blink.ErrTransportUnavailable, err)
	}
	stack.push("nats connection", func() error {
		conn.Close()
		return nil
	})

	svc, err := nats.RegisterControl(loopCtx, conn, ctrl, controlLogger)
	if err != nil {
		return fmt.Errorf("%w: %w", blink.ErrTransportUnavailable, err)
	}
	stack.push("control service", svc.Stop)

	bridge := nats.NewBridge(conn, bus, controlLogger)
	bridge.Start()
	stack.push("event bridge", func() error {
		bridge.Stop()
		return nil
	})

	endpoints := Endpoints{NATSURL: natsURL}

	if opts.HTTPAddr != "" {
		server := api.NewServer(&api.Options{
			Controller:        ctrl,
			EventBus:          bus,
			PrometheusHandler: exporters.HTTPHandler(),
		})
		addr, err := server.Start(opts.HTTPAddr)
		if err != nil {
			return fmt.Errorf("failed to start HTTP API: %w", err)
		}
		stack.push("http api", server.Stop)
		endpoints.HTTPAddr = addr
	}

	if opts.MDNSEnabled {
		advertiseMDNS(opts, endpoints, &stack)
	}

	if opts.WatchStore {
		if err := watchStore(loopCtx, store, opts.IntervalPath, ctrl, &stack); err != nil {
			logger.Warn("Config store watcher disabled", "error", err)
		}
	}

	// 7. Arm the scheduler and report readiness.
	notifier := systemd.NewNotifier(logger)
	stack.push("sd_notify", func() error {
		notifier.Stopping()
		return nil
	})
	go notifier.Watchdog(loopCtx)

	runErr := make(chan error, 1)
	go func() { runErr <- ctrl.Run(loopCtx) }()

	notifier.Ready(fmt.Sprintf("Blinking GPIO %d every %d ms", line.Offset(), intervalMs))
	logger.Info("blinkd ready",
		"version", version.String(),
		"interval_ms", intervalMs,
		"offset", line.Offset(),
		"nats_url", natsURL)
	if opts.OnReady != nil {
		opts.OnReady(endpoints)
	}

	// 8. Serve until cancelled or the loop stops on its own.
	err = <-runErr
	stopLoop()
	if err != nil {
		logger.Error("Blink loop stopped", "error", err)
		return err
	}
	logger.Info("Shutting down")
	return nil
}

// loadInterval reads the configured interval, falling back to the default.
func loadInterval(store configstore.Store, path string, logger *slog.Logger) int {
	ms, err := configstore.ReadInterval(store, path, DefaultIntervalMs)
	if err != nil {
		logger.Warn("Using default blink interval",
			"path", path,
			"default_ms", DefaultIntervalMs,
			"error", fmt.Errorf("%w: %w", blink.ErrConfigUnavailable, err))
		return ms
	}
	logger.Info("Blink interval loaded", "path", path, "interval_ms", ms)
	return ms
}

// watchStore applies interval changes made to the configuration store file.
func watchStore(ctx context.Context, store configstore.Store, path string, ctrl *blink.Controller, stack *cleanupStack) error {
	p, err := configstore.ParsePath(path)
	if err != nil {
		return err
	}
	logger := logging.GetLogger(logging.ModuleConfig)

	loader := func(string) (int, error) {
		return configstore.ReadInterval(store, path, DefaultIntervalMs)
	}
	watcher := config.NewConfigWatcher(store.File(p.Package), loader, logger,
		config.WithErrorHandler[int](func(err error) {
			logger.Warn("Ignoring config store change", "path", path, "error", err)
		}))

	watcher.OnReload(func(ms int) {
		applyStoredInterval(ctx, ctrl, ms, logger)
	})

	if err := watcher.Start(); err != nil {
		return err
	}
	stack.push("config watcher", watcher.Stop)
	return nil
}

func applyStoredInterval(ctx context.Context, ctrl *blink.Controller, ms int, logger *slog.Logger) {
	st, err := ctrl.Status(ctx)
	if err != nil {
		return
	}
	if st.DelayMs == ms {
		return
	}
	if ms > math.MaxInt32 {
		logger.Warn("Stored interval out of range", "interval_ms", ms)
		return
	}
	delay := int32(ms)
	if _, err := ctrl.SetDelay(ctx, blink.SetDelayRequest{DelayMs: &delay, Source: "config"}); err != nil {
		logger.Warn("Failed to apply stored interval", "interval_ms", ms, "error", err)
	}
}

func advertiseMDNS(opts Options, endpoints Endpoints, stack *cleanupStack) {
	logger := logging.GetLogger(logging.ModuleDiscovery)

	if endpoints.HTTPAddr == nil {
		logger.Warn("mDNS needs the HTTP API, skipping advertisement")
		return
	}
	tcpAddr, ok := endpoints.HTTPAddr.(*net.TCPAddr)
	if !ok {
		return
	}

	name := opts.MDNSName
	if name == "" {
		name, _ = os.Hostname()
	}
	adv, err := discovery.Advertise(name, tcpAddr.Port, map[string]string{
		"version": version.Version,
		"nats":    endpoints.NATSURL,
		"offset":  strconv.Itoa(opts.GPIO.Offset),
	}, logger)
	if err != nil {
		logger.Warn("mDNS advertisement failed", "error", err)
		return
	}
	stack.push("mdns", func() error {
		adv.Stop()
		return nil
	})
}
