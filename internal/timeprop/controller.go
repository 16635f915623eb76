package timeprop

import "math"

// Controller computes the on/off state of one slow actuator so that the
// time-averaged output over each cycle approximates the requested power
// fraction. It is purely reactive: an external clock calls Tick once per
// second and an external command path calls SetPower whenever a new value
// arrives. The controller never calls out.
type Controller struct {
	cfg Config

	requestedPower float64
	lastUpdate     int64 // tick time of the last SetPower call
	cycleStart     int64
	onTime         int  // seconds the output stays on within the current cycle
	state          bool // last logical decision
	counts         Counts
}

// New creates a controller with the given config. now is the current tick
// time in seconds. The first Tick call opens a fresh cycle, so a power value
// set before the first tick takes effect immediately rather than after one
// full cycle of fallback.
func New(cfg Config, now int64) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.FallbackPower = clamp(cfg.FallbackPower)
	return &Controller{
		cfg:            cfg,
		requestedPower: cfg.FallbackPower,
		lastUpdate:     now,
		cycleStart:     now - int64(cfg.CycleTime),
	}, nil
}

// SetPower records a new requested power, clamped to [0,1]. The on-time for
// the cycle in progress is NOT recomputed here: the update takes effect at
// the next cycle boundary inside Tick, so the average-power contract holds
// over every whole cycle and a mid-cycle update can never force a transition
// that violates the dead time.
func (c *Controller) SetPower(power float64, now int64) {
	c.requestedPower = clamp(power)
	c.lastUpdate = now
}

// Tick evaluates one second of control and returns the physical output level
// to apply (inversion already applied). Must be called once per second with
// a monotonically increasing now.
func (c *Controller) Tick(now int64) bool {
	power := c.requestedPower
	if c.Stale(now) {
		power = c.cfg.FallbackPower
	}

	// Advance by whole cycle lengths rather than snapping to now, so regular
	// ticks keep a stable phase. The on-time is recomputed only here.
	cycle := int64(c.cfg.CycleTime)
	for now-c.cycleStart >= cycle {
		c.cycleStart += cycle
		c.onTime = c.shapeOnTime(power)
	}

	on := now-c.cycleStart < int64(c.onTime)
	if on != c.state {
		if on {
			c.counts.On++
		} else {
			c.counts.Off++
		}
	}
	c.state = on
	return on != c.cfg.Inverted
}

// shapeOnTime converts a power fraction into the on-time for one cycle,
// saturating at the extremes and suppressing segments shorter than the dead
// time. The result is always 0, the full cycle, or within
// [DeadTime, CycleTime-DeadTime], which guarantees that no emitted segment,
// including segments spanning a cycle boundary, is shorter than DeadTime.
func (c *Controller) shapeOnTime(power float64) int {
	if power <= 0 {
		return 0
	}
	if power >= 1 {
		return c.cfg.CycleTime
	}
	on := int(math.Round(power * float64(c.cfg.CycleTime)))
	if on < c.cfg.DeadTime {
		return 0
	}
	if c.cfg.CycleTime-on < c.cfg.DeadTime {
		return c.cfg.CycleTime
	}
	return on
}

// Stale reports whether the input has not been refreshed within the
// configured timeout. Always false when staleness tracking is disabled.
func (c *Controller) Stale(now int64) bool {
	return c.cfg.MaxUpdateInterval > 0 && now-c.lastUpdate > int64(c.cfg.MaxUpdateInterval)
}

// Power returns the last requested power after clamping.
func (c *Controller) Power() float64 {
	return c.requestedPower
}

// State returns the last logical decision (pre-inversion).
func (c *Controller) State() bool {
	return c.state
}

// Snapshot returns a point-in-time view for diagnostics.
func (c *Controller) Snapshot(now int64) Snapshot {
	return Snapshot{
		Power:  c.requestedPower,
		On:     c.state,
		Stale:  c.Stale(now),
		Counts: c.counts,
	}
}
