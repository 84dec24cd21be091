package events

// Event type constants for kelindar/event.
const (
	TypeIntervalChanged uint32 = iota + 1
	TypeLineWriteFailed
	TypeLogEntry
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// IntervalChangedEvent is published after the blink interval was changed.
type IntervalChangedEvent struct {
	PreviousMs int    `json:"previous_ms" example:"5000" doc:"Interval before the change in milliseconds"`
	DelayMs    int    `json:"delay_ms" example:"1000" doc:"New interval in milliseconds"`
	Source     string `json:"source" example:"nats" doc:"Transport that delivered the change (nats, http, config)"`
	Timestamp  string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for IntervalChangedEvent.
func (e IntervalChangedEvent) Type() uint32 { return TypeIntervalChanged }

// LineWriteFailedEvent is published when a tick could not write the GPIO line.
type LineWriteFailedEvent struct {
	Offset    int    `json:"offset" example:"26" doc:"GPIO line offset"`
	Value     bool   `json:"value" doc:"Value that could not be written"`
	Error     string `json:"error" example:"gpio write failed" doc:"Write error"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for LineWriteFailedEvent.
func (e LineWriteFailedEvent) Type() uint32 { return TypeLineWriteFailed }

// LogEntryEvent represents a log entry for SSE streaming.
type LogEntryEvent struct {
	Timestamp  string         `json:"timestamp" example:"2025-01-27T10:30:00.123Z" doc:"Log timestamp"`
	Level      string         `json:"level" example:"info" doc:"Log level"`
	Module     string         `json:"module" example:"blink" doc:"Module that produced the log"`
	Message    string         `json:"message" example:"Blink delay updated" doc:"Log message"`
	Attributes map[string]any `json:"attributes,omitempty" doc:"Structured attributes"`
}

// Type returns the event type identifier for LogEntryEvent.
func (e LogEntryEvent) Type() uint32 { return TypeLogEntry }
