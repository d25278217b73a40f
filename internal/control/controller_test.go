package control

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/switch-led/internal/gpio"
	"github.com/sweeney/switch-led/internal/logic"
)

var t0 = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func newController(t *testing.T) (*Controller, *gpio.FakePort, *gpio.FakePort) {
	t.Helper()
	p1, p2 := gpio.NewFakePort(), gpio.NewFakePort()
	c := New(p1, p2)
	require.NoError(t, c.Init())
	return c, p1, p2
}

func TestInitializeInputPort(t *testing.T) {
	p1, p2 := gpio.NewFakePort(), gpio.NewFakePort()
	c := New(p1, p2)

	require.NoError(t, c.InitializeInputPort())
	assert.Equal(t, uint8(0), p1.Dir&gpio.Switches, "switches must be inputs")
	assert.Equal(t, gpio.Switches, p1.Ren&gpio.Switches, "pull resistors enabled")
	assert.Equal(t, gpio.Switches, p1.Out&gpio.Switches, "pull-up selected")

	sw, err := c.ReadSwitches()
	require.NoError(t, err)
	assert.Equal(t, logic.Switches{}, sw, "released switches read as not pressed")
}

func TestInitializeInputPortIdempotent(t *testing.T) {
	p1, p2 := gpio.NewFakePort(), gpio.NewFakePort()
	c := New(p1, p2)

	require.NoError(t, c.InitializeInputPort())
	before := *p1
	require.NoError(t, c.InitializeInputPort())

	assert.Equal(t, before.Dir, p1.Dir)
	assert.Equal(t, before.Ren, p1.Ren)
	assert.Equal(t, before.Out, p1.Out)
}

func TestInitializeOutputPortAllOff(t *testing.T) {
	p1, p2 := gpio.NewFakePort(), gpio.NewFakePort()
	// Dirty prior state on both ports.
	p1.Dir, p1.Out = 0xFF, 0xFF
	p2.Dir, p2.Out = 0xFF, 0xFF

	c := New(p1, p2)
	require.NoError(t, c.InitializeOutputPort())

	assert.Equal(t, gpio.LED1, p1.Dir&gpio.LED1)
	assert.Equal(t, gpio.LED2, p2.Dir&gpio.LED2)
	assert.Equal(t, uint8(0), p1.Levels()&gpio.LED1, "LED1 off")
	assert.Equal(t, uint8(0), p2.Levels()&gpio.LED2, "no color bit set")
	assert.Equal(t, logic.Outputs{LED2: logic.Off}, c.Outputs())
}

func TestApplyOutputsBeforeInit(t *testing.T) {
	p1, p2 := gpio.NewFakePort(), gpio.NewFakePort()
	c := New(p1, p2)

	err := c.ApplyOutputs(logic.Outputs{LED1: true, LED2: logic.Green})
	assert.ErrorIs(t, err, ErrNotInitialized)
	assert.Empty(t, p1.Writes)
	assert.Empty(t, p2.Writes)

	_, err = c.Step(t0)
	assert.ErrorIs(t, err, ErrNotInitialized)
	assert.ErrorIs(t, c.Off(), ErrNotInitialized)
}

func TestApplyOutputsMaskedWrites(t *testing.T) {
	c, p1, p2 := newController(t)

	require.NoError(t, c.ApplyOutputs(logic.Outputs{LED1: true, LED2: logic.Green | logic.Blue}))

	assert.Equal(t, gpio.LED1, p1.Levels())
	assert.Equal(t, gpio.Green|gpio.Blue, p2.Levels())
	assert.Equal(t, gpio.Switches, p1.Out&gpio.Switches, "pull-ups preserved")

	last := p1.Writes[len(p1.Writes)-1]
	assert.Equal(t, gpio.LED1, last.Mask)
}

func TestReadSwitches(t *testing.T) {
	tests := []struct {
		name  string
		press uint8
		want  logic.Switches
	}{
		{"none", 0, logic.Switches{}},
		{"sw1", gpio.SW1, logic.Switches{SW1: true}},
		{"sw2", gpio.SW2, logic.Switches{SW2: true}},
		{"both", gpio.Switches, logic.Switches{SW1: true, SW2: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, p1, _ := newController(t)
			p1.Press(tt.press)

			got, err := c.ReadSwitches()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStepDrivesLEDs(t *testing.T) {
	tests := []struct {
		name     string
		press    uint8
		wantLED1 uint8
		wantLED2 uint8
	}{
		{"none", 0, 0, gpio.Red},
		{"sw1", gpio.SW1, gpio.LED1, gpio.Green},
		{"sw2", gpio.SW2, gpio.LED1, gpio.Blue},
		{"both", gpio.Switches, 0, gpio.Green | gpio.Blue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, p1, p2 := newController(t)
			p1.Press(tt.press)

			s, err := c.Step(t0)
			require.NoError(t, err)
			assert.Equal(t, t0, s.Time)
			assert.Equal(t, tt.wantLED1, p1.Levels())
			assert.Equal(t, tt.wantLED2, p2.Levels())
			assert.Equal(t, logic.ComputeOutputs(s.Switches), s.Outputs)
		})
	}
}

func TestStepReadsOnce(t *testing.T) {
	c, p1, _ := newController(t)
	p1.Reads = 0

	_, err := c.Step(t0)
	require.NoError(t, err)
	assert.Equal(t, 1, p1.Reads)
}

func TestStepChanged(t *testing.T) {
	c, p1, _ := newController(t)

	s, err := c.Step(t0)
	require.NoError(t, err)
	assert.True(t, s.Changed, "first step changes from off")
	assert.Equal(t, logic.Outputs{LED2: logic.Off}, s.Previous)

	s, err = c.Step(t0.Add(time.Millisecond))
	require.NoError(t, err)
	assert.False(t, s.Changed, "same input, same outputs")

	p1.Press(gpio.SW2)
	s, err = c.Step(t0.Add(2 * time.Millisecond))
	require.NoError(t, err)
	assert.True(t, s.Changed)
	assert.Equal(t, logic.Outputs{LED1: false, LED2: logic.Red}, s.Previous)
	assert.Equal(t, logic.Outputs{LED1: true, LED2: logic.Blue}, s.Outputs)
}

func TestStepReadError(t *testing.T) {
	c, p1, p2 := newController(t)
	require.NoError(t, c.ApplyOutputs(logic.Outputs{LED1: true, LED2: logic.Green}))
	p1.ReadError = errors.New("gpio fault")
	writes := len(p2.Writes)

	_, err := c.Step(t0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gpio fault")
	assert.Len(t, p2.Writes, writes, "no write after failed read")
	assert.Equal(t, gpio.Green, p2.Levels(), "LEDs keep last state")
}

func TestStepWriteError(t *testing.T) {
	c, _, p2 := newController(t)
	p2.WriteError = errors.New("line busy")

	_, err := c.Step(t0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "write LED2")
}

func TestStepPartialWriteKeepsOutputsInSync(t *testing.T) {
	c, p1, p2 := newController(t)
	p1.Press(gpio.SW1)
	p2.WriteError = errors.New("line busy")

	_, err := c.Step(t0)
	require.Error(t, err)
	assert.Equal(t, gpio.LED1, p1.Levels(), "LED1 line was driven")
	assert.Equal(t, logic.Outputs{LED1: true, LED2: logic.Off}, c.Outputs())

	p2.WriteError = nil
	s, err := c.Step(t0.Add(time.Millisecond))
	require.NoError(t, err)
	assert.True(t, s.Changed)
	assert.Equal(t, logic.Outputs{LED1: true, LED2: logic.Off}, s.Previous)
	assert.Equal(t, logic.Outputs{LED1: true, LED2: logic.Green}, s.Outputs)
}

func TestOff(t *testing.T) {
	c, p1, p2 := newController(t)
	p1.Press(gpio.SW1)
	_, err := c.Step(t0)
	require.NoError(t, err)

	require.NoError(t, c.Off())
	assert.Equal(t, uint8(0), p1.Levels())
	assert.Equal(t, uint8(0), p2.Levels())
}

func TestColorBitsMatchPort(t *testing.T) {
	assert.Equal(t, gpio.Red, uint8(logic.Red))
	assert.Equal(t, gpio.Green, uint8(logic.Green))
	assert.Equal(t, gpio.Blue, uint8(logic.Blue))
}
