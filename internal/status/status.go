// Package status provides a thread-safe status tracker for the switch-led daemon.
// It is written by the control loop and read by HTTP handlers and MQTT events.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/switch-led/internal/control"
	"github.com/sweeney/switch-led/internal/logic"
)

// Config contains daemon configuration for display.
type Config struct {
	PollMs   int64
	Chip     string
	Broker   string
	HTTPAddr string
}

// Counts tracks loop activity since startup.
type Counts struct {
	Iterations int64
	Changes    int64
	Errors     int64
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	Switches      logic.Switches
	Outputs       logic.Outputs
	Ready         bool // at least one step has completed
	LastChange    time.Time
	Counts        Counts
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// Record stores the result of one control step.
// Called from runLoop on every tick.
func (t *Tracker) Record(s control.Sample) {
	t.mu.Lock()
	t.snap.Switches = s.Switches
	t.snap.Outputs = s.Outputs
	t.snap.Ready = true
	t.snap.Counts.Iterations++
	if s.Changed {
		t.snap.Counts.Changes++
		t.snap.LastChange = s.Time
	}
	t.mu.Unlock()
}

// RecordError counts a failed step.
func (t *Tracker) RecordError() {
	t.mu.Lock()
	t.snap.Counts.Errors++
	t.mu.Unlock()
}

// SetOutputs overrides the displayed LED state, e.g. after shutdown turns
// the LEDs off.
func (t *Tracker) SetOutputs(o logic.Outputs) {
	t.mu.Lock()
	t.snap.Outputs = o
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
