// Package timeprop contains the time-proportioning control logic.
// This package has NO external dependencies (no GPIO, MQTT, OS, or time.Sleep).
// Time is always injectable as an integer tick counter in seconds.
package timeprop

import "fmt"

// Config holds the immutable per-output configuration.
type Config struct {
	// CycleTime is the length of the repeating averaging window in seconds.
	CycleTime int
	// DeadTime is the minimum actuator transition time in seconds. No on or
	// off segment shorter than this is ever emitted.
	DeadTime int
	// Inverted flips the physical output level relative to the logical
	// decision (for active-low relay boards).
	Inverted bool
	// FallbackPower is the power substituted when the input goes stale.
	FallbackPower float64
	// MaxUpdateInterval is the staleness timeout in seconds. 0 disables
	// staleness tracking.
	MaxUpdateInterval int
}

// Validate checks the construction-time preconditions. A controller must
// never enter service with a config that fails validation.
func (c Config) Validate() error {
	if c.CycleTime <= 0 {
		return fmt.Errorf("cycle time must be positive, got %d", c.CycleTime)
	}
	if c.DeadTime < 0 {
		return fmt.Errorf("dead time must not be negative, got %d", c.DeadTime)
	}
	if c.DeadTime >= c.CycleTime {
		return fmt.Errorf("dead time %d must be shorter than cycle time %d", c.DeadTime, c.CycleTime)
	}
	if c.MaxUpdateInterval < 0 {
		return fmt.Errorf("max update interval must not be negative, got %d", c.MaxUpdateInterval)
	}
	return nil
}

// Counts tracks the number of logical transitions since startup.
type Counts struct {
	On  int
	Off int
}

// Snapshot is a point-in-time view of one output's control state.
type Snapshot struct {
	Power  float64 // last requested power after clamping
	On     bool    // logical decision (pre-inversion)
	Stale  bool
	Counts Counts
}

func clamp(power float64) float64 {
	if power < 0 {
		return 0
	}
	if power > 1 {
		return 1
	}
	return power
}
