package blink

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRunBlockingStopsOnWriteFailure(t *testing.T) {
	line := newMockLine()
	line.failCount = 3

	err := RunBlocking(context.Background(), line, 1, nil)
	if !errors.Is(err, ErrHardwareWriteFailed) {
		t.Fatalf("RunBlocking() error = %v, want ErrHardwareWriteFailed", err)
	}
	if n := len(line.Values()); n != 1 {
		t.Errorf("writes = %d, want 1", n)
	}
}

func TestRunBlockingToggles(t *testing.T) {
	line := newMockLine()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- RunBlocking(ctx, line, 1, nil) }()

	got := line.waitWrites(t, 4, 5*time.Second)
	cancel()

	if err := <-done; err != nil {
		t.Errorf("RunBlocking() error = %v, want nil", err)
	}
	want := []bool{true, false, true, false}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("writes = %v, want %v", got, want)
		}
	}
}
