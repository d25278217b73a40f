// Package control drives the LEDs from the switches through two GPIO ports.
// Port 1 carries both switches and LED1; port 2 carries the tri-color LED2.
package control

import (
	"errors"
	"fmt"
	"time"

	"github.com/sweeney/switch-led/internal/gpio"
	"github.com/sweeney/switch-led/internal/logic"
)

// ErrNotInitialized is returned when outputs are written before
// InitializeOutputPort has run.
var ErrNotInitialized = errors.New("control: output port not initialized")

// Port configurations. Switches are pulled up so a released button reads 1.
var (
	SwitchConfig = gpio.Config{Mask: gpio.Switches, Dir: 0, Pull: gpio.Switches, Out: gpio.Switches}
	LED1Config   = gpio.Config{Mask: gpio.LED1, Dir: gpio.LED1, Out: 0}
	LED2Config   = gpio.Config{Mask: gpio.LED2, Dir: gpio.LED2, Out: 0}
)

// Sample is the result of one Step.
type Sample struct {
	Time     time.Time
	Switches logic.Switches
	Outputs  logic.Outputs
	// Changed is true when Outputs differ from the previous step's
	// (always true for the first step after initialization).
	Changed bool
	// Previous holds the outputs that were applied before this step.
	Previous logic.Outputs
}

// Controller owns both ports. It is not safe for concurrent use; a single
// goroutine samples, computes and writes.
type Controller struct {
	port1 gpio.Port
	port2 gpio.Port

	ready bool
	last  logic.Outputs
}

// New creates a Controller. No port is touched until the Initialize calls.
func New(port1, port2 gpio.Port) *Controller {
	return &Controller{port1: port1, port2: port2}
}

// InitializeInputPort configures both switch lines as pulled-up inputs.
// It is safe to call more than once.
func (c *Controller) InitializeInputPort() error {
	if err := c.port1.Configure(SwitchConfig); err != nil {
		return fmt.Errorf("configure switches: %w", err)
	}
	return nil
}

// InitializeOutputPort configures LED1 and the three LED2 lines as outputs
// and turns them all off, whatever their previous state.
func (c *Controller) InitializeOutputPort() error {
	if err := c.port1.Configure(LED1Config); err != nil {
		return fmt.Errorf("configure LED1: %w", err)
	}
	if err := c.port2.Configure(LED2Config); err != nil {
		return fmt.Errorf("configure LED2: %w", err)
	}
	c.ready = true
	if err := c.write(logic.Outputs{LED2: logic.Off}); err != nil {
		c.ready = false
		return err
	}
	return nil
}

// Init runs InitializeInputPort then InitializeOutputPort.
func (c *Controller) Init() error {
	if err := c.InitializeInputPort(); err != nil {
		return err
	}
	return c.InitializeOutputPort()
}

// ReadSwitches takes one raw sample of port 1 and returns it in positive logic.
func (c *Controller) ReadSwitches() (logic.Switches, error) {
	raw, err := c.port1.Read()
	if err != nil {
		return logic.Switches{}, fmt.Errorf("read switches: %w", err)
	}
	return logic.DecodeSwitches(raw, gpio.SW1, gpio.SW2), nil
}

// ApplyOutputs writes o to the LEDs. Only the LED bits of each port are
// written, so the switch pull-up selection on port 1 is preserved.
func (c *Controller) ApplyOutputs(o logic.Outputs) error {
	if !c.ready {
		return ErrNotInitialized
	}
	return c.write(o)
}

func (c *Controller) write(o logic.Outputs) error {
	var led1 uint8
	if o.LED1 {
		led1 = gpio.LED1
	}
	if err := c.port1.Write(gpio.LED1, led1); err != nil {
		return fmt.Errorf("write LED1: %w", err)
	}
	// last tracks the lines, so a failed LED2 write still records LED1.
	c.last.LED1 = o.LED1
	if err := c.port2.Write(gpio.LED2, uint8(o.LED2)); err != nil {
		return fmt.Errorf("write LED2: %w", err)
	}
	c.last.LED2 = o.LED2
	return nil
}

// Step samples the switches once, computes the outputs from that sample
// and applies them.
func (c *Controller) Step(now time.Time) (Sample, error) {
	if !c.ready {
		return Sample{}, ErrNotInitialized
	}

	sw, err := c.ReadSwitches()
	if err != nil {
		return Sample{}, err
	}

	prev := c.last
	out := logic.ComputeOutputs(sw)
	if err := c.write(out); err != nil {
		return Sample{}, err
	}

	return Sample{
		Time:     now,
		Switches: sw,
		Outputs:  out,
		Changed:  out != prev,
		Previous: prev,
	}, nil
}

// Outputs returns the last outputs written.
func (c *Controller) Outputs() logic.Outputs {
	return c.last
}

// Off turns every LED off.
func (c *Controller) Off() error {
	if !c.ready {
		return ErrNotInitialized
	}
	return c.write(logic.Outputs{LED2: logic.Off})
}
