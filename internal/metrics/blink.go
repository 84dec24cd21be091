// Package metrics provides Prometheus metrics for the blink controller.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ticksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "blinkd",
		Subsystem: "led",
		Name:      "ticks_total",
		Help:      "Total scheduler ticks that wrote the line",
	})

	writeFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "blinkd",
		Subsystem: "led",
		Name:      "write_failures_total",
		Help:      "Total GPIO writes that failed",
	})

	lineState = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "blinkd",
		Subsystem: "led",
		Name:      "line_state",
		Help:      "Last value written to the GPIO line (1 = on)",
	})

	intervalMs = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "blinkd",
		Subsystem: "led",
		Name:      "interval_ms",
		Help:      "Current blink interval in milliseconds",
	})

	controlRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "blinkd",
		Subsystem: "control",
		Name:      "requests_total",
		Help:      "Control requests by transport and result",
	}, []string{"source", "result"})

	// Local snapshot for status reporting.
	snapshot   Snapshot
	snapshotMu sync.RWMutex
)

// Control request results.
const (
	ResultSuccess         = "success"
	ResultInvalidArgument = "invalid_argument"
	ResultError           = "error"
)

// Snapshot holds the values last recorded by this package.
type Snapshot struct {
	Ticks         uint64
	WriteFailures uint64
	LineState     bool
	IntervalMs    int
}

// RecordTick records a successful toggle.
func RecordTick(on bool) {
	ticksTotal.Inc()
	if on {
		lineState.Set(1)
	} else {
		lineState.Set(0)
	}
	update(func(s *Snapshot) {
		s.Ticks++
		s.LineState = on
	})
}

// RecordWriteFailure records a failed GPIO write.
func RecordWriteFailure() {
	writeFailuresTotal.Inc()
	update(func(s *Snapshot) { s.WriteFailures++ })
}

// SetInterval records the current blink interval.
func SetInterval(ms int) {
	intervalMs.Set(float64(ms))
	update(func(s *Snapshot) { s.IntervalMs = ms })
}

// RecordControlRequest counts one control request.
func RecordControlRequest(source, result string) {
	if source == "" {
		source = "unknown"
	}
	controlRequests.WithLabelValues(source, result).Inc()
}

// Get returns a copy of the recorded values.
func Get() Snapshot {
	snapshotMu.RLock()
	defer snapshotMu.RUnlock()
	return snapshot
}

func update(fn func(*Snapshot)) {
	snapshotMu.Lock()
	fn(&snapshot)
	snapshotMu.Unlock()
}
