// Package status provides a thread-safe status tracker for the relay daemon.
// It is read by the HTTP handlers and serialized into system events.
package status

import (
	"sync"
	"time"
)

// NetworkInfo contains network state as reported by pi-helper.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config contains daemon configuration for display.
type Config struct {
	Broker           string
	TopicPrefix      string
	HTTPAddr         string
	HeartbeatSeconds int
}

// OutputStatus is the displayed state of one relay output.
type OutputStatus struct {
	Name     string
	Power    float64
	State    string // "ON" or "OFF" (physical level)
	Stale    bool
	OnCount  int
	OffCount int
}

// CommandCounts tracks received power commands since startup.
type CommandCounts struct {
	Accepted int
	Rejected int
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type — safe to use after the lock is released.
type Snapshot struct {
	Outputs       []OutputStatus
	Commands      CommandCounts
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Network       *NetworkInfo
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

// UpdateOutputs sets the per-output states. Called from the run loop on
// every tick; the slice is copied so the caller may reuse it.
func (t *Tracker) UpdateOutputs(outputs []OutputStatus) {
	copied := make([]OutputStatus, len(outputs))
	copy(copied, outputs)
	t.mu.Lock()
	t.snap.Outputs = copied
	t.mu.Unlock()
}

// CommandAccepted counts a dispatched power command.
func (t *Tracker) CommandAccepted() {
	t.mu.Lock()
	t.snap.Commands.Accepted++
	t.mu.Unlock()
}

// CommandRejected counts a power command dropped for an out-of-range index.
func (t *Tracker) CommandRejected() {
	t.mu.Lock()
	t.snap.Commands.Rejected++
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	outputs := make([]OutputStatus, len(t.snap.Outputs))
	copy(outputs, t.snap.Outputs)
	t.mu.RUnlock()
	s.Outputs = outputs
	s.Now = time.Now()
	return s
}
