package gpio

import (
	"errors"
	"testing"
)

func pulledUpSwitches() Config {
	return Config{Mask: Switches, Dir: 0, Pull: Switches, Out: Switches}
}

func TestFakePortResetState(t *testing.T) {
	f := NewFakePort()

	v, err := f.Read()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 0 {
		t.Errorf("unconfigured port: got %#02x, want 0", v)
	}
	if f.Levels() != 0 {
		t.Errorf("levels: got %#02x, want 0", f.Levels())
	}
}

func TestFakePortPullUpReadsHigh(t *testing.T) {
	f := NewFakePort()
	f.Configure(pulledUpSwitches())

	v, _ := f.Read()
	if v&Switches != Switches {
		t.Errorf("released switches: got %#02x, want both bits high", v)
	}
}

func TestFakePortPressGroundsLine(t *testing.T) {
	f := NewFakePort()
	f.Configure(pulledUpSwitches())

	f.Press(SW1)
	v, _ := f.Read()
	if v&SW1 != 0 {
		t.Errorf("pressed SW1 should read low, got %#02x", v)
	}
	if v&SW2 == 0 {
		t.Errorf("released SW2 should read high, got %#02x", v)
	}

	f.Release(SW1)
	v, _ = f.Read()
	if v&Switches != Switches {
		t.Errorf("after release: got %#02x, want both high", v)
	}
}

func TestFakePortConfigureOnlyTouchesMask(t *testing.T) {
	f := NewFakePort()
	f.Configure(pulledUpSwitches())
	f.Configure(Config{Mask: LED1, Dir: LED1, Out: 0})

	if f.Dir != LED1 {
		t.Errorf("Dir: got %#02x, want %#02x", f.Dir, LED1)
	}
	if f.Ren != Switches {
		t.Errorf("Ren: got %#02x, want %#02x", f.Ren, Switches)
	}
	if f.Out != Switches {
		t.Errorf("Out: got %#02x, want %#02x", f.Out, Switches)
	}
}

func TestFakePortConfigureIdempotent(t *testing.T) {
	f := NewFakePort()
	cfg := pulledUpSwitches()

	f.Configure(cfg)
	dir, ren, out := f.Dir, f.Ren, f.Out
	f.Configure(cfg)

	if f.Dir != dir || f.Ren != ren || f.Out != out {
		t.Errorf("second Configure changed registers: %#02x/%#02x/%#02x -> %#02x/%#02x/%#02x",
			dir, ren, out, f.Dir, f.Ren, f.Out)
	}
}

func TestFakePortMaskedWritePreservesOtherBits(t *testing.T) {
	f := NewFakePort()
	f.Configure(pulledUpSwitches())
	f.Configure(Config{Mask: LED1, Dir: LED1})

	if err := f.Write(LED1, LED1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Levels() != LED1 {
		t.Errorf("levels: got %#02x, want %#02x", f.Levels(), LED1)
	}

	v, _ := f.Read()
	if v&Switches != Switches {
		t.Errorf("masked write disturbed pull-ups: read %#02x", v)
	}
}

func TestFakePortUnmaskedWriteFlipsPullDirection(t *testing.T) {
	f := NewFakePort()
	f.Configure(pulledUpSwitches())
	f.Configure(Config{Mask: LED1, Dir: LED1})

	// A whole-register write clears the pull-up select bits.
	f.Write(0xFF, LED1)

	v, _ := f.Read()
	if v&Switches != 0 {
		t.Errorf("switches should now read pulled down, got %#02x", v)
	}
}

func TestFakePortRecordsWrites(t *testing.T) {
	f := NewFakePort()
	f.Write(LED2, Red)
	f.Write(LED2, Green|Blue)

	if len(f.Writes) != 2 {
		t.Fatalf("expected 2 writes, got %d", len(f.Writes))
	}
	if f.Writes[1] != (FakeWrite{Mask: LED2, Value: Green | Blue}) {
		t.Errorf("write 1: got %+v", f.Writes[1])
	}
}

func TestFakePortErrors(t *testing.T) {
	f := NewFakePort()
	f.ReadError = errors.New("simulated read error")
	f.WriteError = errors.New("simulated write error")

	if _, err := f.Read(); err == nil || err.Error() != "simulated read error" {
		t.Errorf("Read: unexpected error %v", err)
	}
	if err := f.Write(LED1, LED1); err == nil || err.Error() != "simulated write error" {
		t.Errorf("Write: unexpected error %v", err)
	}
	if len(f.Writes) != 0 {
		t.Errorf("failed write should not be recorded")
	}
}

func TestFakePortCloseAndReset(t *testing.T) {
	f := NewFakePort()
	f.Read()
	f.Write(LED1, LED1)

	if err := f.Close(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if !f.Closed {
		t.Error("should be closed after Close()")
	}

	out := f.Out
	f.Reset()
	if f.Closed || f.Reads != 0 || f.Writes != nil {
		t.Errorf("Reset left state: %+v", f)
	}
	if f.Out != out {
		t.Error("Reset should not touch registers")
	}
}
