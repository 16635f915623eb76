package gpio

import "fmt"

// FakeDriver is a test double that records applied relay states.
type FakeDriver struct {
	// Pins mirrors the configured pin count; Apply checks against it.
	Pins int

	// History contains every state slice passed to Apply, in order.
	History [][]bool

	// Closed tracks if Close was called.
	Closed bool

	// ApplyError, if set, will be returned by Apply.
	ApplyError error
}

// NewFakeDriver creates a FakeDriver expecting the given number of outputs.
func NewFakeDriver(pins int) *FakeDriver {
	return &FakeDriver{Pins: pins}
}

// Apply records the states.
func (f *FakeDriver) Apply(states []bool) error {
	if f.ApplyError != nil {
		return f.ApplyError
	}
	if len(states) != f.Pins {
		return fmt.Errorf("got %d states for %d pins", len(states), f.Pins)
	}
	applied := make([]bool, len(states))
	copy(applied, states)
	f.History = append(f.History, applied)
	return nil
}

// Close marks the driver as closed.
func (f *FakeDriver) Close() error {
	f.Closed = true
	return nil
}

// Last returns the most recently applied states, or nil if none.
func (f *FakeDriver) Last() []bool {
	if len(f.History) == 0 {
		return nil
	}
	return f.History[len(f.History)-1]
}

// Reset clears recorded history.
func (f *FakeDriver) Reset() {
	f.History = nil
	f.Closed = false
	f.ApplyError = nil
}
