// Package models holds request and response bodies of the HTTP API.
package models

import (
	"github.com/smazurov/blinkd/internal/blink"
	"github.com/smazurov/blinkd/internal/events"
	"github.com/smazurov/blinkd/internal/version"
)

// Health check models
type HealthData struct {
	Status  string `json:"status" example:"ok" doc:"Service status"`
	Message string `json:"message" example:"Blink loop is running" doc:"Status message"`
}

type HealthResponse struct {
	Body HealthData
}

// Version models
type VersionResponse struct {
	Body version.Info
}

// Delay models
type SetDelayRequest struct {
	Body struct {
		DelayMs *int32 `json:"delay_ms,omitempty" example:"1000" doc:"New blink interval in milliseconds, must not be negative"`
	}
}

type SetDelayResponse struct {
	Body blink.SetDelayReply
}

type StatusResponse struct {
	Body blink.Status
}

// Log models
type LogsRequest struct {
	Limit  int    `query:"limit" minimum:"0" maximum:"10000" default:"200" doc:"Maximum number of entries, newest last (0 = all buffered)"`
	Module string `query:"module" example:"blink" doc:"Only return entries from this module"`
}

type LogsData struct {
	Entries []events.LogEntryEvent `json:"entries" doc:"Buffered log entries in chronological order"`
}

type LogsResponse struct {
	Body LogsData
}
