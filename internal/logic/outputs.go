package logic

// ComputeOutputs maps a switch sample to LED state.
//
//	SW1  SW2  | LED1  LED2
//	 -    -   | off   red
//	 X    -   | on    green
//	 -    X   | on    blue
//	 X    X   | off   green+blue
//
// LED1 is lit when exactly one switch is pressed. Red on LED2 means no
// input and is never lit together with green or blue.
func ComputeOutputs(s Switches) Outputs {
	var led2 Color
	switch {
	case s.SW1 && s.SW2:
		led2 = Green | Blue
	case s.SW1:
		led2 = Green
	case s.SW2:
		led2 = Blue
	default:
		led2 = Red
	}

	return Outputs{
		LED1: s.SW1 != s.SW2,
		LED2: led2,
	}
}

// DecodeSwitches converts a raw port sample to positive logic.
// The buttons pull their lines low when pressed, so a 0 bit means pressed.
func DecodeSwitches(raw, sw1, sw2 uint8) Switches {
	return Switches{
		SW1: raw&sw1 == 0,
		SW2: raw&sw2 == 0,
	}
}
