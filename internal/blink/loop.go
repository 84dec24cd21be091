package blink

import (
	"context"
	"sync/atomic"
	"time"
)

// Loop is a single-consumer task queue with one timer slot.
//
// Every task and every timer callback runs on the goroutine executing Run, one at a
// time, so state touched only from those callbacks needs no further locking. Callbacks
// must not block: the only wait in the loop is its own select.
type Loop struct {
	tasks   chan func()
	done    chan struct{}
	running atomic.Bool
	now     func() time.Time

	// Owned by the loop goroutine.
	timer    *time.Timer
	timerC   <-chan time.Time
	timerFn  func()
	deadline time.Time
	exiting  bool
	exitErr  error
}

// NewLoop creates an idle loop.
func NewLoop() *Loop {
	return &Loop{
		tasks: make(chan func()),
		done:  make(chan struct{}),
		now:   time.Now,
	}
}

// Run dispatches tasks and timer expiries until ctx is cancelled or a callback calls Exit.
// start, if non-nil, runs on the loop goroutine before the first dispatch.
// A loop can only be run once.
func (l *Loop) Run(ctx context.Context, start func()) error {
	if !l.running.CompareAndSwap(false, true) {
		return ErrLoopRunning
	}
	defer close(l.done)
	defer l.Disarm()

	if start != nil {
		start()
	}

	for !l.exiting {
		select {
		case <-ctx.Done():
			return nil

		case fn := <-l.tasks:
			fn()

		case <-l.timerC:
			fn := l.timerFn
			l.timerC = nil
			l.timerFn = nil
			l.deadline = time.Time{}
			if fn != nil {
				fn()
			}
		}
	}
	return l.exitErr
}

// Submit runs fn on the loop goroutine and waits for it to return.
// It fails with ErrLoopStopped once the loop has exited, or with ctx.Err()
// if ctx ends before the loop picks the task up.
func (l *Loop) Submit(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	task := func() {
		defer close(finished)
		fn()
	}

	select {
	case l.tasks <- task:
	case <-l.done:
		return ErrLoopStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	// The loop received the task and runs it synchronously.
	<-finished
	return nil
}

// Done is closed when Run returns.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// AfterFunc arms the timer slot to call fn after d, replacing any pending expiry.
// Loop goroutine only.
func (l *Loop) AfterFunc(d time.Duration, fn func()) {
	if d < 0 {
		d = 0
	}
	if l.timer == nil {
		l.timer = time.NewTimer(d)
	} else {
		l.timer.Stop()
		l.timer.Reset(d)
	}
	l.timerC = l.timer.C
	l.timerFn = fn
	l.deadline = l.now().Add(d)
}

// Disarm cancels the pending expiry, if any. Loop goroutine only.
func (l *Loop) Disarm() {
	if l.timer != nil {
		l.timer.Stop()
	}
	l.timerC = nil
	l.timerFn = nil
	l.deadline = time.Time{}
}

// Deadline returns when the armed timer fires, or the zero time when disarmed.
// Loop goroutine only.
func (l *Loop) Deadline() time.Time {
	return l.deadline
}

// Exit makes Run return err after the current callback. Loop goroutine only.
func (l *Loop) Exit(err error) {
	l.exiting = true
	l.exitErr = err
}
