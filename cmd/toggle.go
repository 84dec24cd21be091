package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/smazurov/blinkd/internal/blink"
	"github.com/smazurov/blinkd/internal/configstore"
	"github.com/smazurov/blinkd/internal/gpio"
	"github.com/smazurov/blinkd/internal/logging"
)

const defaultIntervalMs = 5000

// CreateToggleCmd creates the toggle command.
func CreateToggleCmd() *cobra.Command {
	var storeBackend, storeDir, path string
	var gpioCfg gpio.Config
	var logJSON bool

	cmd := &cobra.Command{
		Use:   "toggle",
		Short: "Blink the LED at the stored interval without a control endpoint",
		Long: `Reads the interval once from the configuration store and toggles the line forever. ` +
			`The interval cannot be changed while running. Exits non-zero on the first failed write.`,
		Args: cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			loggingConfig := logging.Config{Level: "info", Format: "text"}
			if logJSON {
				loggingConfig.Format = "json"
			}
			logging.Initialize(loggingConfig)
			logger := logging.GetLogger(logging.ModuleBlink)

			intervalMs := defaultIntervalMs
			store, err := configstore.New(storeBackend, storeDir)
			if err != nil {
				logger.Error("Invalid config store", "error", err)
				os.Exit(1)
			}
			if intervalMs, err = configstore.ReadInterval(store, path, defaultIntervalMs); err != nil {
				logger.Warn("Using default blink interval", "path", path, "default_ms", defaultIntervalMs,
					"error", errors.Join(blink.ErrConfigUnavailable, err))
			}

			line, err := gpio.Open(gpioCfg, logging.GetLogger(logging.ModuleGPIO))
			if err != nil {
				logger.Error("Failed to acquire GPIO line", "error", err)
				os.Exit(1)
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			runErr := blink.RunBlocking(ctx, line, intervalMs, logger)
			stop()

			if err := gpio.Release(line); err != nil {
				logger.Warn("Failed to release GPIO line", "error", err)
			}
			if runErr != nil {
				logger.Error("Toggle loop stopped", "error", runErr)
				os.Exit(1)
			}
		},
	}

	cmd.Flags().StringVar(&storeBackend, "store-backend", configstore.BackendUCI, "Configuration store backend (uci, toml)")
	cmd.Flags().StringVar(&storeDir, "store-dir", "", "Configuration store directory (default depends on backend)")
	cmd.Flags().StringVar(&path, "path", "blink.globals.interval", "Interval path in the configuration store")
	addGPIOFlags(cmd, &gpioCfg)
	cmd.Flags().BoolVar(&logJSON, "log-json", false, "Use JSON log format")

	return cmd
}

func addGPIOFlags(cmd *cobra.Command, cfg *gpio.Config) {
	cmd.Flags().StringVar(&cfg.Backend, "gpio-backend", gpio.BackendCdev, "GPIO backend (cdev, sysfs, sim)")
	cmd.Flags().StringVar(&cfg.Chip, "gpio-chip", "/dev/gpiochip0", "GPIO character device")
	cmd.Flags().IntVar(&cfg.Offset, "gpio-offset", 26, "GPIO line offset")
	cmd.Flags().StringVar(&cfg.Consumer, "gpio-consumer", gpio.DefaultConsumer, "Consumer label for the line request")
	cmd.Flags().StringVar(&cfg.LEDName, "gpio-led", "", "Sysfs LED name (sysfs backend)")
	cmd.Flags().StringVar(&cfg.SysfsDir, "gpio-sysfs-dir", "", "Sysfs LED class directory (sysfs backend)")
}
