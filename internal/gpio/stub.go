//go:build !linux

package gpio

import "errors"

var errUnsupported = errors.New("gpio: not supported on this platform (requires Linux)")

// RealPort is not available on non-Linux platforms.
type RealPort struct{}

// NewRealPort returns an error on non-Linux platforms.
func NewRealPort(chipName string, pins map[int]int) (*RealPort, error) {
	return nil, errUnsupported
}

// Configure is not implemented on non-Linux platforms.
func (p *RealPort) Configure(cfg Config) error {
	return errUnsupported
}

// Read is not implemented on non-Linux platforms.
func (p *RealPort) Read() (uint8, error) {
	return 0, errUnsupported
}

// Write is not implemented on non-Linux platforms.
func (p *RealPort) Write(mask, value uint8) error {
	return errUnsupported
}

// Close is not implemented on non-Linux platforms.
func (p *RealPort) Close() error {
	return nil
}
