// Package sse pushes dashboard updates to connected browsers as Server-Sent Events.
package sse

import (
	"time"

	"github.com/listenupapp/bookshelf/internal/view"
)

// EventType represents the type of SSE Event.
type EventType string

const (
	// EventConnected is the first event on every stream.
	EventConnected EventType = "connected"
	// EventDashboardUpdated carries the full dashboard after a selection change.
	EventDashboardUpdated EventType = "dashboard.updated"
	// EventHeartbeat represents a connection keepalive event.
	EventHeartbeat EventType = "heartbeat"
)

// Event represents an SSE event to be sent to clients.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
	Type      EventType `json:"type"`
}

// ConnectedEventData is the data payload for the connected event.
type ConnectedEventData struct {
	ClientID string `json:"client_id"`
	Message  string `json:"message"`
}

// HeartbeatEventData is the data payload for heartbeat events.
type HeartbeatEventData struct {
	ServerTime time.Time `json:"server_time"`
	Clients    int       `json:"clients"`
}

// NewDashboardUpdatedEvent wraps a composed dashboard.
func NewDashboardUpdatedEvent(d view.Dashboard) Event {
	return Event{
		Type:      EventDashboardUpdated,
		Data:      d,
		Timestamp: time.Now(),
	}
}

// NewConnectedEvent greets a freshly registered client.
func NewConnectedEvent(clientID string) Event {
	return Event{
		Type: EventConnected,
		Data: ConnectedEventData{
			ClientID: clientID,
			Message:  "SSE connection established",
		},
		Timestamp: time.Now(),
	}
}

// NewHeartbeatEvent creates a keepalive event.
func NewHeartbeatEvent(clients int) Event {
	now := time.Now()
	return Event{
		Type:      EventHeartbeat,
		Data:      HeartbeatEventData{ServerTime: now, Clients: clients},
		Timestamp: now,
	}
}
