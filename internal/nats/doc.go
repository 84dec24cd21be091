// Package nats carries the blink control endpoint over NATS.
//
// # Architecture
//
//   - Server: optional embedded NATS server (blinkd serve with nats.embedded)
//   - ControlService: NATS micro service exposing the controller
//   - ControlClient: request client used by blinkd set-delay and blinkd status
//   - Bridge: forwards event bus notifications to NATS subjects
//
// # Subject Hierarchy
//
//	blink.control.set_delay    # request {"delay_ms": 1000} -> {"status":"success","new_delay_ms":1000}
//	blink.control.status       # request {} -> status snapshot
//	blink.events.interval      # interval changes (server -> anyone)
//	blink.events.write_failed  # GPIO write failures (server -> anyone)
//
// A rejected request gets an empty reply carrying the Nats-Service-Error-Code
// header (400 for invalid arguments, 500 otherwise).
//
// # Debugging with nats CLI
//
// Change the interval:
//
//	nats req blink.control.set_delay '{"delay_ms":250}'
//
// Inspect the service:
//
//	nats micro info blink-control
//	nats micro stats blink-control
//
// Follow events:
//
//	nats sub "blink.events.>"
package nats
