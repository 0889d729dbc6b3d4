// Package hardware implements the off-chip hardware models: the board's
// LEDs, pushbuttons, potentiometer, shift register, seven-segment display
// and PWM/UART sinks. Every model observes and drives nets only, never the
// CPU or memory map directly.
package hardware

// Hardware is the common contract every off-chip model implements: an
// Update called every board step, and an optional Event for models an
// event file can target directly.
type Hardware interface {
	Update(timeNS uint64)
}

// EventTarget is implemented by hardware models an event-file line can
// address (a Pushbutton understands "PRESS"/"RELEASE", a Pot a float
// position, a SinkUART a hex byte or "flush").
type EventTarget interface {
	Event(timeNS uint64, payload string)
}
