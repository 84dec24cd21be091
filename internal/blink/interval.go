package blink

import (
	"fmt"
	"time"
)

// DefaultIntervalMs is used when the configuration store has no usable value.
const DefaultIntervalMs = 5000

// IntervalStore holds the current blink period in milliseconds.
// It has no lock: it is only ever touched from the loop goroutine.
type IntervalStore struct {
	ms int
}

// NewIntervalStore creates a store holding initial, or DefaultIntervalMs when initial is negative.
func NewIntervalStore(initial int) *IntervalStore {
	if initial < 0 {
		initial = DefaultIntervalMs
	}
	return &IntervalStore{ms: initial}
}

// Get returns the current interval in milliseconds.
func (s *IntervalStore) Get() int {
	return s.ms
}

// Duration returns the current interval as a time.Duration.
func (s *IntervalStore) Duration() time.Duration {
	return time.Duration(s.ms) * time.Millisecond
}

// Set stores candidate if it is non-negative and returns the stored value.
func (s *IntervalStore) Set(candidate int) (int, error) {
	if candidate < 0 {
		return s.ms, fmt.Errorf("%w: interval %d ms is negative", ErrInvalidArgument, candidate)
	}
	s.ms = candidate
	return s.ms, nil
}
