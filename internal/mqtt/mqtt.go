// Package mqtt publishes LED state changes and lifecycle events, with an
// abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/switch-led/internal/control"
	"github.com/sweeney/switch-led/internal/status"
)

// Topic is the MQTT topic for LED change events.
const Topic = "switch-led/state"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "switch-led/system"

// EventChange is the event name carried by every change payload.
const EventChange = "LED_CHANGE"

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends an LED change to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(sample control.Sample) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "RECONNECTED"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload represents the MQTT message payload structure.
type Payload struct {
	LED LEDPayload `json:"led"`
}

// LEDPayload contains the change details.
type LEDPayload struct {
	Timestamp string     `json:"timestamp"`
	Event     string     `json:"event"`
	SW1       string     `json:"sw1"`
	SW2       string     `json:"sw2"`
	LED1      string     `json:"led1"`
	LED2      string     `json:"led2"`
	Previous  LEDOutputs `json:"previous"`
}

// LEDOutputs is the state of both LEDs.
type LEDOutputs struct {
	LED1 string `json:"led1"`
	LED2 string `json:"led2"`
}

// FormatPayload creates the JSON payload for an LED change.
func FormatPayload(s control.Sample) ([]byte, error) {
	payload := Payload{
		LED: LEDPayload{
			Timestamp: s.Time.UTC().Format(time.RFC3339),
			Event:     EventChange,
			SW1:       status.SwitchString(s.Switches.SW1),
			SW2:       status.SwitchString(s.Switches.SW2),
			LED1:      status.LEDString(s.Outputs.LED1),
			LED2:      s.Outputs.LED2.String(),
			Previous: LEDOutputs{
				LED1: status.LEDString(s.Previous.LED1),
				LED2: s.Previous.LED2.String(),
			},
		},
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
	Timestamp string `json:"timestamp,omitempty"`
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
			Event:  event.Event,
			Reason: event.Reason,
		},
	}
	if !event.Timestamp.IsZero() {
		payload.System.Timestamp = event.Timestamp.UTC().Format(time.RFC3339)
	}
	return json.Marshal(payload)
}

// WillPayload is the OFFLINE message the broker publishes when the
// connection drops. It is registered once at connect time, so it carries
// no timestamp.
func WillPayload() ([]byte, error) {
	return FormatSystemPayload(SystemEvent{Event: "OFFLINE", Reason: "MQTT_DISCONNECT"})
}

// NopPublisher drops everything. Used when no broker is configured.
type NopPublisher struct{}

// Publish discards the change.
func (NopPublisher) Publish(control.Sample) error { return nil }

// PublishSystem discards the event.
func (NopPublisher) PublishSystem(SystemEvent) error { return nil }

// Close does nothing.
func (NopPublisher) Close() error { return nil }
