package gpio

import "log/slog"

// sim implements Line without hardware for development hosts.
type sim struct {
	offset   int
	value    bool
	released bool
	logger   *slog.Logger
}

// NewSim creates a simulated line that logs every write.
func NewSim(offset int, logger *slog.Logger) Line {
	if logger == nil {
		logger = slog.Default()
	}
	return &sim{
		offset: offset,
		logger: logger,
	}
}

// SetValue records the value and logs it at debug level
func (s *sim) SetValue(on bool) error {
	if s.released {
		return newError("set", "sim", s.offset, ErrWriteFailed, ErrReleased)
	}
	s.value = on
	s.logger.Debug("Simulated GPIO write", "offset", s.offset, "value", on)
	return nil
}

func (s *sim) Offset() int {
	return s.offset
}

func (s *sim) Release() error {
	if !s.released {
		s.released = true
		s.logger.Debug("Simulated GPIO line released", "offset", s.offset)
	}
	return nil
}
