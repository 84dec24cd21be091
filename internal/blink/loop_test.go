package blink

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestLoopSubmitRunsTask(t *testing.T) {
	loop := NewLoop()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go loop.Run(ctx, nil)

	counter := 0
	for i := 0; i < 10; i++ {
		if err := loop.Submit(ctx, func() { counter++ }); err != nil {
			t.Fatalf("Submit() error = %v", err)
		}
	}
	if counter != 10 {
		t.Errorf("counter = %d, want 10", counter)
	}
}

func TestLoopStartRunsFirst(t *testing.T) {
	loop := NewLoop()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	started := false
	go loop.Run(ctx, func() { started = true })

	var seen bool
	if err := loop.Submit(ctx, func() { seen = started }); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if !seen {
		t.Error("task ran before start")
	}
}

func TestLoopSubmitAfterStop(t *testing.T) {
	loop := NewLoop()
	ctx, cancel := context.WithCancel(context.Background())

	go loop.Run(ctx, nil)
	cancel()
	<-loop.Done()

	err := loop.Submit(context.Background(), func() {})
	if !errors.Is(err, ErrLoopStopped) {
		t.Errorf("Submit() error = %v, want ErrLoopStopped", err)
	}
}

func TestLoopSubmitContextCancelled(t *testing.T) {
	loop := NewLoop() // never run

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := loop.Submit(ctx, func() {})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Submit() error = %v, want context.DeadlineExceeded", err)
	}
}

func TestLoopRunTwice(t *testing.T) {
	loop := NewLoop()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go loop.Run(ctx, nil)
	// Make sure the first Run is active.
	if err := loop.Submit(ctx, func() {}); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	if err := loop.Run(ctx, nil); !errors.Is(err, ErrLoopRunning) {
		t.Errorf("second Run() error = %v, want ErrLoopRunning", err)
	}
}

func TestLoopAfterFunc(t *testing.T) {
	loop := NewLoop()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fired := make(chan struct{})
	go loop.Run(ctx, func() {
		loop.AfterFunc(10*time.Millisecond, func() { close(fired) })
	})

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("timer did not fire")
	}

	var deadline time.Time
	if err := loop.Submit(ctx, func() { deadline = loop.Deadline() }); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if !deadline.IsZero() {
		t.Errorf("Deadline() = %v after firing, want zero", deadline)
	}
}

func TestLoopAfterFuncReplaces(t *testing.T) {
	loop := NewLoop()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fired := make(chan string, 2)
	go loop.Run(ctx, func() {
		loop.AfterFunc(time.Hour, func() { fired <- "first" })
		loop.AfterFunc(10*time.Millisecond, func() { fired <- "second" })
	})

	select {
	case got := <-fired:
		if got != "second" {
			t.Errorf("fired %q, want second", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timer did not fire")
	}
}

func TestLoopDisarm(t *testing.T) {
	loop := NewLoop()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fired := make(chan struct{}, 1)
	go loop.Run(ctx, func() {
		loop.AfterFunc(20*time.Millisecond, func() { fired <- struct{}{} })
		loop.Disarm()
	})

	select {
	case <-fired:
		t.Fatal("disarmed timer fired")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestLoopExit(t *testing.T) {
	loop := NewLoop()
	want := errors.New("stop")

	err := loop.Run(context.Background(), func() {
		loop.AfterFunc(0, func() { loop.Exit(want) })
	})
	if !errors.Is(err, want) {
		t.Errorf("Run() error = %v, want %v", err, want)
	}
}
