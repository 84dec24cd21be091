package blink

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/smazurov/blinkd/internal/gpio"
)

var errMockWrite = errors.New("mock write error")

// mockLine records every write and can be told to fail.
type mockLine struct {
	mu        sync.Mutex
	values    []bool
	failCount int // number of leading writes that fail
	failAll   bool
	writes    chan bool
	released  int
}

func newMockLine() *mockLine {
	return &mockLine{writes: make(chan bool, 256)}
}

func (m *mockLine) SetValue(on bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.values = append(m.values, on)
	var err error
	if m.failAll || len(m.values) <= m.failCount {
		err = errMockWrite
	}
	select {
	case m.writes <- on:
	default:
	}
	if err != nil {
		return errors.Join(gpio.ErrWriteFailed, err)
	}
	return nil
}

func (m *mockLine) Offset() int { return 26 }

func (m *mockLine) Release() error {
	m.mu.Lock()
	m.released++
	m.mu.Unlock()
	return nil
}

func (m *mockLine) Values() []bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]bool(nil), m.values...)
}

// waitWrites blocks until n writes were observed.
func (m *mockLine) waitWrites(t *testing.T, n int, timeout time.Duration) []bool {
	t.Helper()
	deadline := time.After(timeout)
	var got []bool
	for len(got) < n {
		select {
		case v := <-m.writes:
			got = append(got, v)
		case <-deadline:
			t.Fatalf("timed out after %d of %d writes", len(got), n)
		}
	}
	return got
}

// startController runs c in the background and stops it when the test ends.
func startController(t *testing.T, c *Controller) <-chan error {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- c.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-c.Done()
	})
	return errCh
}
