package blink

import "errors"

var (
	// ErrInvalidArgument rejects a control request; the stored interval is unchanged.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrConfigUnavailable means the configured interval could not be read and the default is used.
	ErrConfigUnavailable = errors.New("configuration unavailable")
	// ErrHardwareWriteFailed means a tick could not write the line state.
	ErrHardwareWriteFailed = errors.New("hardware write failed")
	// ErrTransportUnavailable means the control endpoint could not be registered.
	ErrTransportUnavailable = errors.New("control transport unavailable")
	// ErrLoopStopped is returned by Submit once the loop has exited.
	ErrLoopStopped = errors.New("event loop stopped")
	// ErrLoopRunning is returned when Run is called on a loop that is already running.
	ErrLoopRunning = errors.New("event loop already running")
)
