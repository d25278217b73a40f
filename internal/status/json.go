package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string     `json:"event,omitempty"`
	Reason        string     `json:"reason,omitempty"`
	SW1           string     `json:"sw1"`
	SW2           string     `json:"sw2"`
	LED1          string     `json:"led1"`
	LED2          string     `json:"led2"`
	Ready         bool       `json:"ready"`
	LastChange    string     `json:"last_change,omitempty"`
	UptimeSeconds int64      `json:"uptime_seconds"`
	StartTime     string     `json:"start_time"`
	Timestamp     string     `json:"timestamp"`
	MQTT          MQTTStatus `json:"mqtt"`
	Counts        CountsJSON `json:"counts"`
	Config        ConfigJSON `json:"config"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of loop counts.
type CountsJSON struct {
	Iterations int64 `json:"iterations"`
	Changes    int64 `json:"changes"`
	Errors     int64 `json:"errors"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	PollMs   int64  `json:"poll_ms"`
	Chip     string `json:"chip"`
	Broker   string `json:"broker"`
	HTTPAddr string `json:"http_addr"`
}

// SwitchString renders a switch in the form used by every output.
func SwitchString(pressed bool) string {
	if pressed {
		return "PRESSED"
	}
	return "RELEASED"
}

// LEDString renders LED1 in the form used by every output.
func LEDString(on bool) string {
	if on {
		return "ON"
	}
	return "OFF"
}

func buildInner(snap Snapshot) StatusInner {
	// Switches are unknown until the first sample; the LEDs are known to
	// be off from initialization onwards.
	sw1, sw2 := "UNKNOWN", "UNKNOWN"
	if snap.Ready {
		sw1 = SwitchString(snap.Switches.SW1)
		sw2 = SwitchString(snap.Switches.SW2)
	}

	inner := StatusInner{
		SW1:           sw1,
		SW2:           sw2,
		LED1:          LEDString(snap.Outputs.LED1),
		LED2:          snap.Outputs.LED2.String(),
		Ready:         snap.Ready,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			Iterations: snap.Counts.Iterations,
			Changes:    snap.Counts.Changes,
			Errors:     snap.Counts.Errors,
		},
		Config: ConfigJSON{
			PollMs:   snap.Config.PollMs,
			Chip:     snap.Config.Chip,
			Broker:   snap.Config.Broker,
			HTTPAddr: snap.Config.HTTPAddr,
		},
	}
	if !snap.LastChange.IsZero() {
		inner.LastChange = snap.LastChange.UTC().Format(time.RFC3339)
	}
	return inner
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	inner := buildInner(snap)

	data, _ := json.MarshalIndent(StatusJSON{Status: inner}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
