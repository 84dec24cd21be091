package daemon

import "log/slog"

type cleanup struct {
	name string
	fn   func() error
}

// cleanupStack releases resources in reverse acquisition order.
type cleanupStack struct {
	items []cleanup
}

func (s *cleanupStack) push(name string, fn func() error) {
	s.items = append(s.items, cleanup{name: name, fn: fn})
}

// unwind runs every cleanup once, newest first. Errors are logged, not returned.
func (s *cleanupStack) unwind(logger *slog.Logger) {
	for i := len(s.items) - 1; i >= 0; i-- {
		item := s.items[i]
		if err := item.fn(); err != nil {
			logger.Warn("Cleanup failed", "resource", item.name, "error", err)
		} else {
			logger.Debug("Released", "resource", item.name)
		}
	}
	s.items = nil
}
