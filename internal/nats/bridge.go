package nats

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/nats-io/nats.go"

	"github.com/smazurov/blinkd/internal/events"
)

// Bridge forwards event bus notifications to NATS subjects.
type Bridge struct {
	conn     *nats.Conn
	eventBus *events.Bus
	unsubs   []func()
	logger   *slog.Logger
	mu       sync.Mutex
}

// NewBridge creates a new EventBus-to-NATS bridge.
func NewBridge(conn *nats.Conn, eventBus *events.Bus, logger *slog.Logger) *Bridge {
	if logger == nil {
		logger = slog.Default()
	}

	return &Bridge{
		conn:     conn,
		eventBus: eventBus,
		logger:   logger.With("component", "nats-bridge"),
	}
}

// Start subscribes to the event bus.
func (b *Bridge) Start() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.unsubs = append(b.unsubs,
		b.eventBus.Subscribe(func(e events.IntervalChangedEvent) {
			b.publish(SubjectIntervalChanged, e)
		}),
		b.eventBus.Subscribe(func(e events.LineWriteFailedEvent) {
			b.publish(SubjectLineWriteFailed, e)
		}),
	)
	b.logger.Debug("NATS bridge started")
}

func (b *Bridge) publish(subject string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		b.logger.Warn("Failed to marshal event", "subject", subject, "error", err)
		return
	}
	if err := b.conn.Publish(subject, data); err != nil {
		b.logger.Warn("Failed to publish event", "subject", subject, "error", err)
	}
}

// Stop unsubscribes from the event bus. The connection stays open.
func (b *Bridge) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, unsub := range b.unsubs {
		unsub()
	}
	b.unsubs = nil
}
