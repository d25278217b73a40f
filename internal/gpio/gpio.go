// Package gpio provides masked access to groups of GPIO lines.
// The real implementation uses the Linux GPIO character device.
// The fake implementation models the port registers in memory for testing.
package gpio

import "errors"

// Port is a group of up to eight digital lines addressed together.
// Bit n of every mask and value refers to line n of the port.
type Port interface {
	// Configure applies cfg to the lines selected by cfg.Mask.
	// Lines outside the mask keep their current configuration, and
	// re-applying the same Config is safe.
	Configure(cfg Config) error

	// Read returns the current level of every line, one bit per line.
	Read() (uint8, error)

	// Write sets the output latch of the lines selected by mask to the
	// matching bits of value. Lines outside the mask are left alone.
	Write(mask, value uint8) error

	// Close releases the lines.
	Close() error
}

// Config describes the electrical role of a set of lines.
type Config struct {
	Mask uint8 // lines this configuration applies to
	Dir  uint8 // 1 = output, 0 = input
	Pull uint8 // pull resistor enabled (inputs only)
	Out  uint8 // output latch; on pulled inputs 1 selects pull-up, 0 pull-down
}

// Port 1 lines.
const (
	LED1 uint8 = 0x01 // P1.0, red LED
	SW1  uint8 = 0x02 // P1.1, left button
	SW2  uint8 = 0x10 // P1.4, right button

	Switches = SW1 | SW2
)

// Port 2 lines, the tri-color LED.
const (
	Red   uint8 = 0x01 // P2.0
	Green uint8 = 0x02 // P2.1
	Blue  uint8 = 0x04 // P2.2

	LED2 = Red | Green | Blue
)

// ErrUnmapped is returned when a configured line has no hardware pin.
var ErrUnmapped = errors.New("gpio: line not mapped to a pin")
