// internal/model/event.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents the type of event
type EventType string

const (
	EventPrinterStatus   EventType = "PRINTER_STATUS"
	EventPrinterSelected EventType = "PRINTER_SELECTED"
	EventPrinterCleared  EventType = "PRINTER_CLEARED"
	EventPrintStarted    EventType = "PRINT_STARTED"
	EventPrintCompleted  EventType = "PRINT_COMPLETED"
	EventPrintFailed     EventType = "PRINT_FAILED"
)

// Event is published on the event bus and streamed to WebSocket clients
type Event struct {
	ID        uuid.UUID              `json:"id"`
	Type      EventType              `json:"event_type"`
	Target    string                 `json:"target,omitempty"`
	Data      map[string]interface{} `json:"data,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Severity  string                 `json:"severity"` // INFO, WARNING, ERROR
}

// NewEvent creates an event stamped with a fresh ID and the current time
func NewEvent(eventType EventType, target string, data map[string]interface{}) Event {
	severity := "INFO"
	if eventType == EventPrintFailed {
		severity = "ERROR"
	}
	return Event{
		ID:        uuid.New(),
		Type:      eventType,
		Target:    target,
		Data:      data,
		Timestamp: time.Now(),
		Severity:  severity,
	}
}
