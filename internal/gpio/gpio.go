// Package gpio provides relay output control with hardware abstraction.
// The real implementation uses Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

// Driver applies logical on/off states to relay output lines.
type Driver interface {
	// Apply writes the given states to the relay lines, one per configured
	// pin in index order. len(states) must match the number of pins.
	Apply(states []bool) error

	// Close releases GPIO resources, leaving all relays off.
	Close() error
}

// Default pin assignments (BCM numbering) for the two-channel relay board.
const (
	DefaultPinCH = 26 // Central Heating valve
	DefaultPinHW = 16 // Hot Water valve
)
