package gpio

import (
	"io"
	"log/slog"

	"github.com/warthog618/go-gpiocdev"
)

// outputLine is the subset of *gpiocdev.Line used by cdevLine.
type outputLine interface {
	SetValue(value int) error
	Close() error
}

// cdevLine drives a line through the GPIO character device (libgpiod v2 uAPI).
type cdevLine struct {
	chipPath string
	offset   int
	chip     io.Closer
	line     outputLine
	logger   *slog.Logger
}

// OpenCdev opens chipPath and requests offset as an output, initially low.
// If the line request fails the chip is closed before returning.
func OpenCdev(chipPath string, offset int, consumer string, logger *slog.Logger) (Line, error) {
	if consumer == "" {
		consumer = DefaultConsumer
	}

	chip, err := gpiocdev.NewChip(chipPath, gpiocdev.WithConsumer(consumer))
	if err != nil {
		return nil, newError("open", chipPath, offset, ErrChipUnavailable, err)
	}

	line, err := chip.RequestLine(offset, gpiocdev.AsOutput(0))
	if err != nil {
		_ = chip.Close()
		return nil, newError("request", chipPath, offset, ErrLineRequestFailed, err)
	}

	if logger != nil {
		logger.Info("GPIO line requested", "chip", chipPath, "offset", offset, "consumer", consumer)
	}

	return &cdevLine{
		chipPath: chipPath,
		offset:   offset,
		chip:     chip,
		line:     line,
		logger:   logger,
	}, nil
}

func (c *cdevLine) SetValue(on bool) error {
	if c.line == nil {
		return newError("set", c.chipPath, c.offset, ErrWriteFailed, ErrReleased)
	}

	v := 0
	if on {
		v = 1
	}
	if err := c.line.SetValue(v); err != nil {
		return newError("set", c.chipPath, c.offset, ErrWriteFailed, err)
	}
	return nil
}

func (c *cdevLine) Offset() int {
	return c.offset
}

// Release closes the line request and then the chip.
func (c *cdevLine) Release() error {
	var firstErr error
	if c.line != nil {
		if err := c.line.Close(); err != nil {
			firstErr = err
		}
		c.line = nil
	}
	if c.chip != nil {
		if err := c.chip.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		c.chip = nil
		if c.logger != nil {
			c.logger.Info("GPIO line released", "chip", c.chipPath, "offset", c.offset)
		}
	}
	return firstErr
}
