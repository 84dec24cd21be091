package nats

// Service identity as registered with NATS micro.
const (
	ServiceName        = "blink-control"
	ServiceDescription = "GPIO LED blink interval control"
	ServiceVersion     = "1.0.0"
)

// Subjects.
const (
	SubjectControlGroup = "blink.control"
	EndpointSetDelay    = "set_delay"
	EndpointStatus      = "status"

	SubjectSetDelay = SubjectControlGroup + "." + EndpointSetDelay
	SubjectStatus   = SubjectControlGroup + "." + EndpointStatus

	SubjectEventsPrefix    = "blink.events"
	SubjectIntervalChanged = SubjectEventsPrefix + ".interval"
	SubjectLineWriteFailed = SubjectEventsPrefix + ".write_failed"
)

// Error codes sent in the Nats-Service-Error-Code header.
const (
	CodeInvalidArgument = "400"
	CodeInternal        = "500"
)
