package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/danielgtaylor/huma/v2/humacli"

	"github.com/smazurov/blinkd/cmd"
	"github.com/smazurov/blinkd/internal/config"
	"github.com/smazurov/blinkd/internal/daemon"
	"github.com/smazurov/blinkd/internal/gpio"
	"github.com/smazurov/blinkd/internal/logging"
)

// Options for the CLI - flat structure with toml mapping.
type Options struct {
	Config string `help:"Path to configuration file" short:"c" default:"blinkd.toml"`

	// Configuration store holding the blink interval
	StoreBackend string `help:"Configuration store backend (uci, toml)" default:"uci" toml:"store.backend" env:"STORE_BACKEND"`
	StoreDir     string `help:"Configuration store directory" default:"" toml:"store.dir" env:"STORE_DIR"`
	StorePath    string `help:"Interval path in the configuration store" default:"blink.globals.interval" toml:"store.path" env:"STORE_PATH"`
	StoreWatch   bool   `help:"Apply interval changes made to the store file" default:"true" toml:"store.watch" env:"STORE_WATCH"`

	// GPIO settings
	GPIOBackend  string `help:"GPIO backend (cdev, sysfs, sim)" default:"cdev" toml:"gpio.backend" env:"GPIO_BACKEND"`
	GPIOChip     string `help:"GPIO character device" default:"/dev/gpiochip0" toml:"gpio.chip" env:"GPIO_CHIP"`
	GPIOOffset   int    `help:"GPIO line offset" default:"26" toml:"gpio.offset" env:"GPIO_OFFSET"`
	GPIOConsumer string `help:"Consumer label for the line request" default:"led-blinker" toml:"gpio.consumer" env:"GPIO_CONSUMER"`
	GPIOLED      string `help:"Sysfs LED name (sysfs backend)" default:"" toml:"gpio.led" env:"GPIO_LED"`

	// Blink settings
	BlinkWritePolicy string `help:"Reaction to a failed GPIO write (continue, fatal)" default:"continue" toml:"blink.write_policy" env:"BLINK_WRITE_POLICY"`

	// NATS settings
	NATSEmbedded bool   `help:"Run an embedded NATS server" default:"true" toml:"nats.embedded" env:"NATS_EMBEDDED"`
	NATSHost     string `help:"Embedded NATS listen host" default:"127.0.0.1" toml:"nats.host" env:"NATS_HOST"`
	NATSPort     int    `help:"Embedded NATS listen port" default:"4222" toml:"nats.port" env:"NATS_PORT"`
	NATSURL      string `help:"External NATS server URL (when not embedded)" default:"nats://127.0.0.1:4222" toml:"nats.url" env:"NATS_URL"`

	// HTTP API settings
	HTTPAddr string `help:"HTTP API listen address (empty disables)" default:":8090" toml:"http.addr" env:"HTTP_ADDR"`

	// Discovery settings
	MDNSEnabled bool   `help:"Advertise the HTTP API over mDNS" default:"false" toml:"mdns.enabled" env:"MDNS_ENABLED"`
	MDNSName    string `help:"mDNS instance name (default hostname)" default:"" toml:"mdns.name" env:"MDNS_NAME"`

	// Logging settings
	LoggingLevel   string `help:"Global logging level (debug, info, warn, error)" default:"info" toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat  string `help:"Logging format (text, json)" default:"text" toml:"logging.format" env:"LOGGING_FORMAT"`
	LoggingBlink   string `help:"Blink loop logging level" default:"info" toml:"logging.blink" env:"LOGGING_BLINK"`
	LoggingGPIO    string `help:"GPIO logging level" default:"info" toml:"logging.gpio" env:"LOGGING_GPIO"`
	LoggingControl string `help:"Control transport logging level" default:"info" toml:"logging.control" env:"LOGGING_CONTROL"`
	LoggingAPI     string `help:"API logging level" default:"info" toml:"logging.api" env:"LOGGING_API"`
	LoggingConfig  string `help:"Config store logging level" default:"info" toml:"logging.config" env:"LOGGING_CONFIG"`
}

func main() {
	var cli humacli.CLI

	cli = humacli.New(func(hooks humacli.Hooks, opts *Options) {
		// Load configuration automatically; flags given on the command line win
		if loadErr := config.LoadConfig(opts, cli.Root()); loadErr != nil {
			slog.Warn("Failed to load config", "error", loadErr)
		}

		logging.Initialize(logging.Config{
			Level:  opts.LoggingLevel,
			Format: opts.LoggingFormat,
			Modules: map[string]string{
				logging.ModuleBlink:   opts.LoggingBlink,
				logging.ModuleGPIO:    opts.LoggingGPIO,
				logging.ModuleControl: opts.LoggingControl,
				logging.ModuleAPI:     opts.LoggingAPI,
				logging.ModuleConfig:  opts.LoggingConfig,
			},
		})

		logger := logging.GetLogger(logging.ModuleDaemon)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})

		hooks.OnStart(func() {
			defer close(done)

			err := daemon.Run(ctx, daemon.Options{
				StoreBackend: opts.StoreBackend,
				StoreDir:     opts.StoreDir,
				IntervalPath: opts.StorePath,
				WatchStore:   opts.StoreWatch,
				GPIO: gpio.Config{
					Backend:  opts.GPIOBackend,
					Chip:     opts.GPIOChip,
					Offset:   opts.GPIOOffset,
					Consumer: opts.GPIOConsumer,
					LEDName:  opts.GPIOLED,
				},
				WritePolicy:  opts.BlinkWritePolicy,
				NATSEmbedded: opts.NATSEmbedded,
				NATSHost:     opts.NATSHost,
				NATSPort:     opts.NATSPort,
				NATSURL:      opts.NATSURL,
				HTTPAddr:     opts.HTTPAddr,
				MDNSEnabled:  opts.MDNSEnabled,
				MDNSName:     opts.MDNSName,
			})
			if err != nil {
				logger.Error("blinkd failed", "error", err)
				os.Exit(1)
			}
		})

		hooks.OnStop(func() {
			logger.Info("Received shutdown signal")
			cancel()
			<-done
		})
	})

	cli.Root().Use = "blinkd"
	cli.Root().Short = "GPIO LED blink daemon with runtime interval control"

	cli.Root().AddCommand(cmd.CreateToggleCmd())
	cli.Root().AddCommand(cmd.CreateConfigCmd())
	cli.Root().AddCommand(cmd.CreateSetDelayCmd())
	cli.Root().AddCommand(cmd.CreateStatusCmd())
	cli.Root().AddCommand(cmd.CreateDiscoverCmd())

	// Run the CLI
	cli.Run()
}
