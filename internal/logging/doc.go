// Package logging provides structured logging with per-module log level configuration.
//
// Records go to stdout (text or JSON), to the systemd journal when journald is
// reachable, and to an in-memory ring buffer served by GET /api/logs. A callback
// set with SetLogCallback sees every buffered entry; blinkd uses it to stream logs
// over the event bus.
//
// # Usage
//
//	logging.Initialize(logging.Config{
//		Level:  "info",
//		Format: "text",
//		Modules: map[string]string{
//			"blink": "debug",
//			"api":   "warn",
//		},
//	})
//
//	logger := logging.GetLogger(logging.ModuleBlink)
//	logger.Info("Blink delay updated", "delay_ms", 250)
//
// Loggers obtained before Initialize are cached and follow later level changes.
//
// # Viewing Logs
//
//	journalctl -t blinkd -f
//	journalctl -t blinkd MODULE=gpio -p err
//
// # Configuration
//
//	[logging]
//	level = "info"
//	format = "text"
//	buffer_size = 500
//
//	[logging.modules]
//	blink = "debug"
package logging
