// Package mqtt provides MQTT publishing with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/blowout/internal/logic"
)

// Topic is the MQTT topic for cake lifecycle events.
const Topic = "blowout/cake/events"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "blowout/cake/system"

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a lifecycle event of the given session to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(sessionID string, event logic.Event) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload represents the MQTT message payload structure.
type Payload struct {
	Cake CakePayload `json:"cake"`
}

// CakePayload contains the lifecycle event details.
type CakePayload struct {
	Timestamp string   `json:"timestamp"`
	SessionID string   `json:"session_id"`
	Event     string   `json:"event"`
	From      string   `json:"from"`
	To        string   `json:"to"`
	Candles   string   `json:"candles"`
	Effects   []string `json:"effects,omitempty"`
}

// FormatPayload creates the JSON payload for a lifecycle event.
func FormatPayload(sessionID string, event logic.Event) ([]byte, error) {
	payload := Payload{
		Cake: CakePayload{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			SessionID: sessionID,
			Event:     string(event.Type),
			From:      string(event.From),
			To:        string(event.To),
			Candles:   string(event.Candles),
		},
	}
	for _, eff := range event.Effects {
		payload.Cake.Effects = append(payload.Cake.Effects, string(eff))
	}
	return json.Marshal(payload)
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT, RECONNECTED) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}
