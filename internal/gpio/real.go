//go:build linux

package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// RealDriver drives relay lines on actual hardware using the Linux GPIO
// character device.
type RealDriver struct {
	chip  *gpiocdev.Chip
	lines []*gpiocdev.Line
	last  []bool
	dirty bool // true until the first Apply writes every line
}

// NewRealDriver requests one output line per pin, all initially inactive.
func NewRealDriver(pins []int) (*RealDriver, error) {
	chip, err := gpiocdev.NewChip("gpiochip0")
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	d := &RealDriver{
		chip:  chip,
		last:  make([]bool, len(pins)),
		dirty: true,
	}
	for i, pin := range pins {
		line, err := chip.RequestLine(pin, gpiocdev.AsOutput(0))
		if err != nil {
			d.Close()
			return nil, fmt.Errorf("request output %d pin %d: %w", i, pin, err)
		}
		d.lines = append(d.lines, line)
	}
	return d, nil
}

// Apply writes the given states to the relay lines. Only lines whose state
// changed since the last call are written, so a steady state costs nothing.
func (d *RealDriver) Apply(states []bool) error {
	if len(states) != len(d.lines) {
		return fmt.Errorf("got %d states for %d lines", len(states), len(d.lines))
	}
	for i, on := range states {
		if !d.dirty && on == d.last[i] {
			continue
		}
		if err := d.lines[i].SetValue(level(on)); err != nil {
			return fmt.Errorf("set output %d: %w", i, err)
		}
		d.last[i] = on
	}
	d.dirty = false
	return nil
}

// Close drives every relay inactive, then reconfigures the pins to input
// with pull-down (matching Pi boot defaults) before releasing them, so a
// restart or reboot never leaves a relay energized.
func (d *RealDriver) Close() error {
	var errs []error

	for i, line := range d.lines {
		if err := line.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("clear output %d: %w", i, err))
		}
		if err := line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure output %d: %w", i, err))
		}
		if err := line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close output %d: %w", i, err))
		}
	}
	if d.chip != nil {
		if err := d.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

func level(on bool) int {
	if on {
		return 1
	}
	return 0
}
