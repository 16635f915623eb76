package timeprop

import (
	"errors"
	"fmt"
)

// Bank owns an ordered collection of independent controllers, one per
// physical output. Index ordering is significant only for deterministic
// iteration; controllers share no state.
type Bank struct {
	controllers []*Controller
}

// NewBank creates one controller per config. now is the current tick time.
func NewBank(cfgs []Config, now int64) (*Bank, error) {
	if len(cfgs) == 0 {
		return nil, errors.New("at least one output required")
	}
	controllers := make([]*Controller, len(cfgs))
	for i, cfg := range cfgs {
		c, err := New(cfg, now)
		if err != nil {
			return nil, fmt.Errorf("output %d: %w", i, err)
		}
		controllers[i] = c
	}
	return &Bank{controllers: controllers}, nil
}

// Len returns the number of outputs.
func (b *Bank) Len() int {
	return len(b.controllers)
}

// DispatchSetPower routes a power request to the controller at index.
// Out-of-range indices are ignored; the return value reports whether the
// request was accepted, for acknowledgement and observability only.
func (b *Bank) DispatchSetPower(index int, power float64, now int64) bool {
	if index < 0 || index >= len(b.controllers) {
		return false
	}
	b.controllers[index].SetPower(power, now)
	return true
}

// TickAll evaluates every controller in index order and returns the physical
// output levels to apply.
func (b *Bank) TickAll(now int64) []bool {
	states := make([]bool, len(b.controllers))
	for i, c := range b.controllers {
		states[i] = c.Tick(now)
	}
	return states
}

// Snapshots returns a point-in-time view of every output in index order.
func (b *Bank) Snapshots(now int64) []Snapshot {
	snaps := make([]Snapshot, len(b.controllers))
	for i, c := range b.controllers {
		snaps[i] = c.Snapshot(now)
	}
	return snaps
}
