package gpio

// FakePort is a test double that models a port's registers in memory.
// Its register layout follows a typical microcontroller port: a direction
// register, a resistor-enable register and an output latch that doubles
// as the pull-up/pull-down select for pulled inputs.
type FakePort struct {
	Dir uint8 // 1 = output
	Ren uint8 // pull resistor enabled
	Out uint8 // output latch

	// Grounded holds the lines currently shorted to ground by a pressed button.
	Grounded uint8

	// Writes records every Write call in order.
	Writes []FakeWrite

	// Reads counts Read calls.
	Reads int

	// Closed tracks if Close was called.
	Closed bool

	// ReadError and WriteError, if set, are returned by Read and Write.
	ReadError  error
	WriteError error
}

// FakeWrite is a single recorded Write call.
type FakeWrite struct {
	Mask  uint8
	Value uint8
}

// NewFakePort creates a FakePort in its reset state: every line an input,
// no pull resistors, latch cleared.
func NewFakePort() *FakePort {
	return &FakePort{}
}

// Configure applies cfg to the lines in cfg.Mask.
func (f *FakePort) Configure(cfg Config) error {
	m := cfg.Mask
	f.Dir = f.Dir&^m | cfg.Dir&m
	f.Ren = f.Ren&^m | cfg.Pull&m
	f.Out = f.Out&^m | cfg.Out&m
	return nil
}

// Read returns the level on every line. Outputs read back their latch.
// A grounded input reads 0; otherwise a pulled input follows its
// resistor and an unpulled input floats low.
func (f *FakePort) Read() (uint8, error) {
	if f.ReadError != nil {
		return 0, f.ReadError
	}
	f.Reads++

	out := f.Out & f.Dir
	pulled := f.Out & f.Ren &^ f.Dir
	return out | pulled&^f.Grounded, nil
}

// Write updates the latch bits selected by mask. Like the hardware latch,
// it accepts writes to input lines too, where the bit changes the pull
// direction.
func (f *FakePort) Write(mask, value uint8) error {
	if f.WriteError != nil {
		return f.WriteError
	}
	f.Writes = append(f.Writes, FakeWrite{Mask: mask, Value: value})
	f.Out = f.Out&^mask | value&mask
	return nil
}

// Close marks the port as closed.
func (f *FakePort) Close() error {
	f.Closed = true
	return nil
}

// Press grounds the given lines, as a pressed button does.
func (f *FakePort) Press(mask uint8) {
	f.Grounded |= mask
}

// Release ungrounds the given lines.
func (f *FakePort) Release(mask uint8) {
	f.Grounded &^= mask
}

// Levels returns the level driven on the output lines.
func (f *FakePort) Levels() uint8 {
	return f.Out & f.Dir
}

// Reset clears recorded calls without touching the registers.
func (f *FakePort) Reset() {
	f.Writes = nil
	f.Reads = 0
	f.Closed = false
}
