// Package logic contains the pure switch-to-LED mapping.
// This package has NO external dependencies (no GPIO, MQTT, OS, or time.Sleep).
package logic

import (
	"fmt"
	"strings"
)

// Switches is one sample of the two buttons in positive logic.
type Switches struct {
	SW1 bool // true = pressed
	SW2 bool
}

// Color is a set of tri-color LED elements. The values match the LED2
// bit positions on the output port.
type Color uint8

const (
	Red   Color = 0x01
	Green Color = 0x02
	Blue  Color = 0x04

	// Off has no element lit. ComputeOutputs never produces it; it is the
	// state of the LED before the first step and after shutdown.
	Off Color = 0
)

// Has reports whether every element of e is lit in c. Off has no
// elements, so Has(Off) is false.
func (c Color) Has(e Color) bool {
	return e != Off && c&e == e
}

// String names the lit elements, e.g. "red" or "green+blue". Bits outside
// the three elements are printed in hex.
func (c Color) String() string {
	if c == Off {
		return "off"
	}
	var parts []string
	if c.Has(Red) {
		parts = append(parts, "red")
	}
	if c.Has(Green) {
		parts = append(parts, "green")
	}
	if c.Has(Blue) {
		parts = append(parts, "blue")
	}
	if rest := c &^ (Red | Green | Blue); rest != 0 {
		parts = append(parts, fmt.Sprintf("0x%02x", uint8(rest)))
	}
	return strings.Join(parts, "+")
}

// Outputs is the LED state derived from one Switches sample.
type Outputs struct {
	LED1 bool // true = lit
	LED2 Color
}
