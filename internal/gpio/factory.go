package gpio

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
)

const deviceTreeModelPath = "/proc/device-tree/model"

// Open acquires the line described by cfg using the configured backend.
func Open(cfg Config, logger *slog.Logger) (Line, error) {
	if logger == nil {
		logger = slog.Default()
	}

	switch cfg.Backend {
	case "", BackendCdev:
		return OpenCdev(cfg.Chip, cfg.Offset, cfg.Consumer, logger)

	case BackendSysfs:
		name := cfg.LEDName
		if name == "" {
			boardModel := detectBoard()
			name = defaultLEDName(boardModel)
			logger.Info("Detected board for LED control", "board_model", boardModel, "led", name)
		}
		if name == "" {
			return nil, newError("open", cfg.SysfsDir, 0, ErrChipUnavailable,
				fmt.Errorf("no LED name configured and board has no known user LED"))
		}
		line, err := OpenSysfs(cfg.SysfsDir, name)
		if err != nil {
			return nil, err
		}
		logger.Info("Sysfs LED acquired", "led", name)
		return line, nil

	case BackendSim:
		logger.Info("Using simulated GPIO line", "offset", cfg.Offset)
		return NewSim(cfg.Offset, logger), nil

	default:
		return nil, fmt.Errorf("unknown GPIO backend %q (want %s, %s or %s)",
			cfg.Backend, BackendCdev, BackendSysfs, BackendSim)
	}
}

// defaultLEDName maps a device tree model to the board's user LED.
func defaultLEDName(boardModel string) string {
	switch {
	case strings.Contains(boardModel, "NanoPC-T6"):
		return "usr_led"
	case strings.Contains(boardModel, "Orange Pi"):
		return "green_led"
	case strings.Contains(boardModel, "Raspberry Pi"):
		return "ACT"
	default:
		return ""
	}
}

// detectBoard reads the device tree model to identify the board.
func detectBoard() string {
	data, err := os.ReadFile(deviceTreeModelPath)
	if err != nil {
		return "unknown"
	}

	// Device tree model contains null bytes, trim them
	return strings.TrimRight(string(data), "\x00")
}
