// Package status provides a thread-safe status tracker for the shutdown daemon.
// It is read by the HTTP handler and used to build MQTT lifecycle payloads.
package status

import (
	"sync"
	"time"
)

// Phase is the monitor's position in its single run.
type Phase string

const (
	PhaseStarting  Phase = "STARTING"
	PhaseArmed     Phase = "ARMED"
	PhaseTriggered Phase = "TRIGGERED"
	PhaseStopped   Phase = "STOPPED"
	PhaseFailed    Phase = "FAILED"
)

// Config contains daemon configuration for display.
type Config struct {
	Chip         string
	PinIndicator int
	PinTrigger   int
	DryRun       bool
	PowerOffCmd  string
	Broker       string
	HTTPAddr     string
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type — safe to use after the lock is released.
type Snapshot struct {
	Phase         Phase
	StartTime     time.Time
	TriggeredAt   time.Time // zero until the trigger edge is seen
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

// NewTracker creates a Tracker in PhaseStarting.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			Phase:     PhaseStarting,
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// SetPhase moves the tracker to phase. Entering PhaseTriggered records at
// as the trigger time.
func (t *Tracker) SetPhase(phase Phase, at time.Time) {
	t.mu.Lock()
	t.snap.Phase = phase
	if phase == PhaseTriggered {
		t.snap.TriggeredAt = at
	}
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
