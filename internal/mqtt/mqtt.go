// Package mqtt provides MQTT publishing of lifecycle events with abstraction
// for testing.
package mqtt

import (
	"encoding/json"
	"time"
)

// TopicPrefix is prepended to the host name to form the system topic.
const TopicPrefix = "power/shutdown"

// TopicSystem returns the lifecycle topic for the given host,
// e.g. "power/shutdown/pi-media/system".
func TopicSystem(host string) string {
	if host == "" {
		host = "unknown"
	}
	return TopicPrefix + "/" + host + "/system"
}

// Lifecycle event names.
const (
	EventStartup   = "STARTUP"
	EventTriggered = "TRIGGERED"
	EventShutdown  = "SHUTDOWN"
	EventOffline   = "OFFLINE" // last will, sent by the broker
)

// Publisher publishes lifecycle events to MQTT.
type Publisher interface {
	// PublishSystem sends a system lifecycle event to the broker.
	// Returns error if publishing fails (should not crash the process).
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (e.g., startup, trigger, shutdown).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "TRIGGERED", "SHUTDOWN"
	Reason     string // e.g., "POWEROFF", "SIGTERM" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT) that don't carry a full status snapshot.
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

// Nop discards every event. Used when no broker is configured.
type Nop struct{}

// PublishSystem does nothing.
func (Nop) PublishSystem(SystemEvent) error { return nil }

// Close does nothing.
func (Nop) Close() error { return nil }

// IsConnected always reports false.
func (Nop) IsConnected() bool { return false }
