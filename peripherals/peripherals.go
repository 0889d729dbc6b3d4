// Package peripherals collects the small behavioural capability interfaces
// shared by every clocked, memory-mapped on-chip peripheral, matching the
// teacher repo's preference for minimal single-method interfaces (io.Port8,
// irq.Source) over a deep inheritance hierarchy. Each concrete peripheral
// type implements zero or more of these.
package peripherals

// Clocked is implemented by any component advanced once per CPU clock
// period. timeNS is the board's current monotonic time, supplied so a
// peripheral can timestamp trace lines it emits during its own tick.
type Clocked interface {
	Tick(timeNS uint64)
}

// Ccp is implemented by peripherals whose configuration registers are
// protected by the CPU's Configuration Change Protection window. CCP(true)
// opens the window; CCP(false) closes it again.
type Ccp interface {
	CCP(open bool)
}

// ClockSource is implemented by the clock controller to report the current
// system clock period in nanoseconds, consulted by every other clocked
// peripheral to scale its own prescaler math.
type ClockSource interface {
	ClockPeriodNS() uint64
}
