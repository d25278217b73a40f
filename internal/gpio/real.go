//go:build linux

package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// Consumer is the label attached to every requested line.
const Consumer = "switch-led"

// lineOption is satisfied by gpiocdev options usable both when requesting
// a line and when reconfiguring it.
type lineOption interface {
	gpiocdev.LineReqOption
	gpiocdev.LineConfigOption
}

// RealPort drives a port through the Linux GPIO character device.
// Each port bit maps to one line offset on the chip.
type RealPort struct {
	chip  *gpiocdev.Chip
	pins  map[int]int // bit -> line offset
	lines [8]*gpiocdev.Line
	dir   uint8
}

// NewRealPort opens chipName and maps port bits to line offsets.
// Lines are not requested until Configure names them.
func NewRealPort(chipName string, pins map[int]int) (*RealPort, error) {
	for bit := range pins {
		if bit < 0 || bit > 7 {
			return nil, fmt.Errorf("port bit %d out of range", bit)
		}
	}

	chip, err := gpiocdev.NewChip(chipName, gpiocdev.WithConsumer(Consumer))
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	return &RealPort{chip: chip, pins: pins}, nil
}

// Configure requests or reconfigures the lines in cfg.Mask.
// Pull resistors map to line bias; the latch bit selects pull-up or pull-down.
func (p *RealPort) Configure(cfg Config) error {
	for bit := 0; bit < 8; bit++ {
		m := uint8(1) << bit
		if cfg.Mask&m == 0 {
			continue
		}
		offset, ok := p.pins[bit]
		if !ok {
			return fmt.Errorf("bit %d: %w", bit, ErrUnmapped)
		}

		opts := lineOptions(cfg, m)
		if line := p.lines[bit]; line != nil {
			conf := make([]gpiocdev.LineConfigOption, len(opts))
			for i, o := range opts {
				conf[i] = o
			}
			if err := line.Reconfigure(conf...); err != nil {
				return fmt.Errorf("reconfigure line %d: %w", offset, err)
			}
		} else {
			req := make([]gpiocdev.LineReqOption, len(opts))
			for i, o := range opts {
				req[i] = o
			}
			line, err := p.chip.RequestLine(offset, req...)
			if err != nil {
				return fmt.Errorf("request line %d: %w", offset, err)
			}
			p.lines[bit] = line
		}
		p.dir = p.dir&^m | cfg.Dir&m
	}
	return nil
}

func lineOptions(cfg Config, m uint8) []lineOption {
	if cfg.Dir&m != 0 {
		level := 0
		if cfg.Out&m != 0 {
			level = 1
		}
		return []lineOption{gpiocdev.AsOutput(level)}
	}

	opts := []lineOption{gpiocdev.AsInput}
	switch {
	case cfg.Pull&m == 0:
		opts = append(opts, gpiocdev.WithBiasDisabled)
	case cfg.Out&m != 0:
		opts = append(opts, gpiocdev.WithPullUp)
	default:
		opts = append(opts, gpiocdev.WithPullDown)
	}
	return opts
}

// Read samples every requested line. Unrequested bits read as 0.
func (p *RealPort) Read() (uint8, error) {
	var v uint8
	for bit, line := range p.lines {
		if line == nil {
			continue
		}
		raw, err := line.Value()
		if err != nil {
			return 0, fmt.Errorf("read line %d: %w", p.pins[bit], err)
		}
		if raw != 0 {
			v |= 1 << bit
		}
	}
	return v, nil
}

// Write sets the output lines selected by mask. Input lines in the mask
// are skipped since the character device has no latch for them.
func (p *RealPort) Write(mask, value uint8) error {
	for bit, line := range p.lines {
		m := uint8(1) << bit
		if mask&m == 0 || p.dir&m == 0 || line == nil {
			continue
		}
		level := 0
		if value&m != 0 {
			level = 1
		}
		if err := line.SetValue(level); err != nil {
			return fmt.Errorf("write line %d: %w", p.pins[bit], err)
		}
	}
	return nil
}

// Close releases all lines.
// Lines are returned to input with pull-down (matching Pi boot defaults)
// before closing so LEDs go dark and nothing is left driven.
func (p *RealPort) Close() error {
	var errs []error

	for bit, line := range p.lines {
		if line == nil {
			continue
		}
		if err := line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure line %d: %w", p.pins[bit], err))
		}
		if err := line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close line %d: %w", p.pins[bit], err))
		}
		p.lines[bit] = nil
	}
	if p.chip != nil {
		if err := p.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
