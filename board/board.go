// Package board wires together every peripheral and hardware model into the
// fixed QUTy board layout: an ATtiny1626-class core, its three GPIO ports,
// one each of TCA0/TCB0/USART0/SPI0/ADC0, and the board's hardware
// complement (pushbuttons, an LED, a potentiometer, a 74HC595-driven
// seven-segment display, a buzzer, and a UART sink). It owns the
// events-events-before-tick-before-net-resolution-before-hardware-update
// step loop spec §4.8/§5 require.
package board

import (
	"fmt"
	"sort"

	"github.com/cab202/avremu/core"
	"github.com/cab202/avremu/events"
	"github.com/cab202/avremu/firmware"
	"github.com/cab202/avremu/hardware"
	"github.com/cab202/avremu/memory"
	"github.com/cab202/avremu/nets"
	"github.com/cab202/avremu/peripherals"
	"github.com/cab202/avremu/peripherals/adc"
	"github.com/cab202/avremu/peripherals/clkctrl"
	"github.com/cab202/avremu/peripherals/cpuint"
	"github.com/cab202/avremu/peripherals/port"
	"github.com/cab202/avremu/peripherals/portmux"
	"github.com/cab202/avremu/peripherals/spi"
	"github.com/cab202/avremu/peripherals/stdio"
	"github.com/cab202/avremu/peripherals/tca"
	"github.com/cab202/avremu/peripherals/tcb"
	"github.com/cab202/avremu/peripherals/usart"
	"github.com/cab202/avremu/trace"
)

const (
	flashSize = 16384 // 16 KiB, matching the ATtiny1626's program space
	sramBase  = 0x3800
	sramSize  = 2048 // 2 KiB
)

// Config collects every run-time knob the caller (cmd/avremu) supplies. No
// package-level flag globals exist outside main; this struct is the only
// channel configuration reaches the board through.
type Config struct {
	FirmwarePath string
	EventsPath   string
	TimeoutNS    uint64 // 0 means unlimited

	DumpStack  bool
	DumpRegs   bool
	DumpStdout bool
	NetAll     bool
	NetUndef   bool
	Debug      bool

	UARTOutPath string // defaults to "uart.txt"
	StdoutPath  string // defaults to "stdout.txt"

	Sink trace.Sink
}

// Board is the fully wired QUTy emulation: the CPU core, every on-chip
// peripheral, every hardware model, and the named nets connecting them.
type Board struct {
	cfg Config

	cpu     *core.Core
	clk     *clkctrl.Controller
	ccp     *core.CCPGate
	intCtrl *cpuint.Controller

	portA, portB, portC *port.Port
	tca0                *tca.TCA
	tcb0                *tcb.TCB
	usart0              *usart.USART
	spi0                *spi.SPI
	adc0                *adc.ADC
	stdioP              *stdio.Stdio

	nets map[string]*nets.Net
	hw   map[string]hardware.Hardware
	evt  map[string]hardware.EventTarget

	pending []events.Event
	now     uint64

	uartSink *hardware.SinkUART

	sink trace.Sink
}

// New builds the full QUTy board from cfg, loading firmware and an optional
// events file. Setup failures (bad firmware, bad events file) are returned
// directly -- per the error taxonomy these are fatal configuration errors,
// not runtime conditions, so the caller is expected to print and exit.
func New(cfg Config) (*Board, error) {
	if cfg.Sink == nil {
		cfg.Sink = trace.NewStdout()
	}
	if cfg.UARTOutPath == "" {
		cfg.UARTOutPath = "uart.txt"
	}
	if cfg.StdoutPath == "" {
		cfg.StdoutPath = "stdout.txt"
	}

	b := &Board{
		cfg:  cfg,
		nets: make(map[string]*nets.Net),
		hw:   make(map[string]hardware.Hardware),
		evt:  make(map[string]hardware.EventTarget),
		sink: cfg.Sink,
	}

	b.buildNets()
	b.buildCore()
	b.buildHardware()

	prog := b.cpu.Prog
	if err := firmware.Load(cfg.FirmwarePath, prog.Bytes()); err != nil {
		return nil, err
	}
	trace.Infof(b.sink, "FIRMWARE", "%s.", cfg.FirmwarePath)

	if cfg.EventsPath != "" {
		evs, err := events.Load(cfg.EventsPath)
		if err != nil {
			return nil, err
		}
		b.pending = evs
		trace.Infof(b.sink, "EVENTS", "%s: Parsed %d events.", cfg.EventsPath, len(evs))
	}

	if cfg.Debug {
		b.cpu.Debug = true
	}

	return b, nil
}

func (b *Board) net(name string) *nets.Net {
	n := nets.New(name)
	b.nets[name] = n
	return n
}

func (b *Board) buildNets() {
	for _, name := range []string{
		"PA0_DISP_DATA", "PA1_DISP_LATCH", "PA2_POT", "PA3_CLK",
		"PA4_BUTTON0", "PA5_BUTTON1", "PA6_BUTTON2", "PA7_BUTTON3",
		"PB0_BUZZER", "PB1_DISP_EN", "PB2_UART_TX", "PB3_UART_RX", "PB4_UART_RX",
		"PB5_DISP_DP",
		"PC0_SPI_CLK", "PC1_SPI_MISO", "PC2_SPI_MOSI", "PC3_SPI_CS",
		"DISP_SEG_A", "DISP_SEG_B", "DISP_SEG_C", "DISP_SEG_D",
		"DISP_SEG_E", "DISP_SEG_F", "DISP_SEG_G", "DISP_DIGIT",
		"GND", "VCC",
	} {
		b.net(name)
	}
	// GND/VCC are internal fixed rails for the shift register's OE/MR pins,
	// which the board has no dedicated firmware-controlled nets for.
	var gndPin, vccPin nets.PinCell
	gndPin.State = nets.DriveL
	b.nets["GND"].Connect(&gndPin)
	vccPin.State = nets.DriveH
	b.nets["VCC"].Connect(&vccPin)
}

func (b *Board) buildCore() {
	ds := memory.NewMap(b.sink)
	prog := memory.NewFlat(flashSize, 0xFF)
	sram := memory.NewFlat(sramSize, 0x00)

	b.intCtrl = cpuint.New(b.sink)
	b.cpu = core.New(ds, prog, b.intCtrl, b.sink)
	b.cpu.SP = uint16(sramBase + sramSize - 1)

	b.ccp = core.NewCCPGate(b.sink)
	b.clk = clkctrl.New(b.sink)
	b.ccp.AddTarget(b.clk)

	b.portA = port.New()
	b.portB = port.New()
	b.portC = port.New()

	ds.Add(0x0020, "VPORTA", port.NewVirtual(b.portA))
	ds.Add(0x0024, "VPORTB", port.NewVirtual(b.portB))
	ds.Add(0x0028, "VPORTC", port.NewVirtual(b.portC))
	ds.Add(0x0030, "CPU.CCP", b.ccp)
	ds.Add(0x0036, "CPUINT", b.intCtrl)

	pmux := portmux.New(b.sink)
	ds.Add(0x0040, "PORTMUX", pmux)
	ds.Add(0x0046, "CLKCTRL", b.clk)

	b.adc0 = adc.New(b.adcChannels(), b.sink)
	ds.Add(0x00E8, "ADC0", b.adc0)

	b.usart0 = usart.New(b.portB, 2, b.nets["PB3_UART_RX"], b.sink)
	ds.Add(0x0051, "USART0", b.usart0)

	b.spi0 = spi.New(b.portC, 0, 2, b.nets["PC1_SPI_MISO"], b.sink)
	ds.Add(0x005B, "SPI0", b.spi0)

	// WO0 drives the buzzer (PB0); WO1/WO2 have no firmware-visible pin on
	// this board, so they're parked on unconnected port bits.
	b.tca0 = tca.New(b.portB, 0, 6, 7, b.sink)
	ds.Add(0x0060, "TCA0", b.tca0)

	b.tcb0 = tcb.New(b.sink)
	ds.Add(0x008E, "TCB0", b.tcb0)

	b.stdioP = stdio.New(b.sink)
	ds.Add(0x009C, "STDIO", b.stdioP)

	ds.Add(0x00A0, "PORTA", b.portA)
	ds.Add(0x00B8, "PORTB", b.portB)
	ds.Add(0x00D0, "PORTC", b.portC)

	ds.Add(sramBase, "SRAM", sram)

	b.intCtrl.AddSource(0, b.tca0, 0xFF)
	b.intCtrl.AddSource(1, b.tcb0, 0xFF)
	b.intCtrl.AddSource(2, b.usart0, 0xFF)
	b.intCtrl.AddSource(3, b.spi0, 0xFF)
	b.intCtrl.AddSource(4, b.adc0, 0xFF)
}

// adcChannels maps MUXPOS to the net it samples; only the potentiometer's
// wiper (AIN2 on the real device) is attached.
func (b *Board) adcChannels() []*nets.Net {
	ch := make([]*nets.Net, 8)
	ch[2] = b.nets["PA2_POT"]
	return ch
}

func (b *Board) buildHardware() {
	b.portA.Connect(0, b.nets["PA0_DISP_DATA"])
	b.portA.Connect(1, b.nets["PA1_DISP_LATCH"])
	b.portA.Connect(2, b.nets["PA2_POT"])
	b.portA.Connect(3, b.nets["PA3_CLK"])
	b.portA.Connect(4, b.nets["PA4_BUTTON0"])
	b.portA.Connect(5, b.nets["PA5_BUTTON1"])
	b.portA.Connect(6, b.nets["PA6_BUTTON2"])
	b.portA.Connect(7, b.nets["PA7_BUTTON3"])

	b.portB.Connect(0, b.nets["PB0_BUZZER"])
	b.portB.Connect(1, b.nets["PB1_DISP_EN"])
	b.portB.Connect(2, b.nets["PB2_UART_TX"])
	b.portB.Connect(3, b.nets["PB3_UART_RX"])
	b.portB.Connect(4, b.nets["PB4_UART_RX"])
	b.portB.Connect(5, b.nets["PB5_DISP_DP"])

	b.portC.Connect(0, b.nets["PC0_SPI_CLK"])
	b.portC.Connect(1, b.nets["PC1_SPI_MISO"])
	b.portC.Connect(2, b.nets["PC2_SPI_MOSI"])
	b.portC.Connect(3, b.nets["PC3_SPI_CS"])

	led := hardware.NewLED("DS1-DP", b.nets["PB5_DISP_DP"], false, b.sink)
	b.hw["DS1-DP"] = led

	pot := hardware.NewPot("R1", b.nets["PA2_POT"], b.sink)
	b.hw["R1"] = pot
	b.evt["R1"] = pot

	buttons := []struct {
		name string
		net  string
	}{
		{"S1", "PA4_BUTTON0"}, {"S2", "PA5_BUTTON1"},
		{"S3", "PA6_BUTTON2"}, {"S4", "PA7_BUTTON3"},
	}
	for _, bt := range buttons {
		pb := hardware.NewPushbutton(bt.name, b.nets[bt.net], true, b.sink)
		b.hw[bt.name] = pb
		b.evt[bt.name] = pb
	}

	shiftReg := hardware.NewIC74HC595(
		b.nets["PA3_CLK"], b.nets["PA1_DISP_LATCH"], b.nets["PA0_DISP_DATA"],
		b.nets["GND"], b.nets["VCC"],
	)
	segNames := [7]string{"DISP_SEG_A", "DISP_SEG_B", "DISP_SEG_C", "DISP_SEG_D", "DISP_SEG_E", "DISP_SEG_F", "DISP_SEG_G"}
	for i, n := range segNames {
		shiftReg.ConnectQ(i, b.nets[n])
	}
	shiftReg.ConnectQ(7, b.nets["DISP_DIGIT"])
	b.hw["SR1"] = shiftReg

	var segs [7]*nets.Net
	for i, n := range segNames {
		segs[i] = b.nets[n]
	}
	disp := hardware.NewDisplay("DS1", segs, b.nets["PB1_DISP_EN"], b.nets["DISP_DIGIT"], b.sink)
	b.hw["DISP1"] = disp

	buzzer := hardware.NewBuzzer("BUZZER", b.nets["PB0_BUZZER"], b.sink)
	b.hw["BUZZER"] = buzzer

	uartSink := hardware.NewSinkUART("U5", b.nets["PB2_UART_TX"], b.nets["PB3_UART_RX"], b.sink)
	b.hw["U5"] = uartSink
	b.evt["U5"] = uartSink
	b.uartSink = uartSink
}

// netNames returns every net name in a stable order, for trace output and
// deterministic iteration.
func (b *Board) netNames() []string {
	names := make([]string, 0, len(b.nets))
	for n := range b.nets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Step advances the board by one CPU clock period: drain due events,
// advance the core and every clocked peripheral, resolve every net, then
// update every hardware model. Returns the nanosecond duration of the step
// just taken, or 0 once the core has halted (BREAK or PC overflow).
func (b *Board) Step() uint64 {
	for len(b.pending) > 0 && b.pending[0].TimeNS <= b.now {
		ev := b.pending[0]
		b.pending = b.pending[1:]
		b.dispatch(ev)
	}

	if b.cpu.Halted {
		return 0
	}

	b.cpu.Tick(b.now)
	b.tca0.Tick(b.now)
	b.tcb0.Tick(b.now)
	b.usart0.SetClockPeriodNS(b.clk.ClockPeriodNS())
	b.usart0.Tick(b.now)
	b.spi0.Tick(b.now)
	b.adc0.Tick(b.now)
	b.ccp.Tick(b.now)
	b.portA.Tick(b.now)
	b.portB.Tick(b.now)
	b.portC.Tick(b.now)

	for _, name := range b.netNames() {
		before := b.nets[name].State
		b.nets[name].Update()
		if b.cfg.NetAll || (b.cfg.NetUndef && b.nets[name].State == nets.Undefined) {
			if b.cfg.NetAll || before != b.nets[name].State {
				trace.Event(b.sink, b.now, "NET", name, "%s", b.nets[name].State)
			}
		}
	}

	for _, name := range b.hwNames() {
		b.hw[name].Update(b.now)
	}

	if b.cpu.Halted {
		return 0
	}

	step := b.clk.ClockPeriodNS()
	b.now += step

	if step == 0 && b.pendingFlush() {
		b.flushUART()
	}

	return step
}

func (b *Board) hwNames() []string {
	names := make([]string, 0, len(b.hw))
	for n := range b.hw {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (b *Board) pendingFlush() bool {
	for _, ev := range b.pending {
		if ev.Device == "U5" && ev.Payload == "flush" {
			return true
		}
	}
	return false
}

func (b *Board) dispatch(ev events.Event) {
	if ev.Payload == "flush" && ev.Device == "U5" {
		b.flushUART()
		return
	}
	target, ok := b.evt[ev.Device]
	if !ok {
		trace.Warningf(b.sink, "event for unknown device %q ignored", ev.Device)
		return
	}
	target.Event(ev.TimeNS, ev.Payload)
}

func (b *Board) flushUART() {
	if err := b.uartSink.Flush(b.cfg.UARTOutPath); err != nil {
		trace.Warningf(b.sink, "UART flush: %v", err)
	}
}

// Now returns the board's current monotonic time in nanoseconds.
func (b *Board) Now() uint64 { return b.now }

// DumpRegs writes the 32 working registers to the sink.
func (b *Board) DumpRegs() {
	for i := 0; i < 32; i++ {
		b.sink.Line(fmt.Sprintf("r%02d = 0x%02X", i, b.cpu.Regs[i]))
	}
}

// DumpStack writes SP and the 16 bytes above it to the sink.
func (b *Board) DumpStack() {
	b.sink.Line(fmt.Sprintf("SP = 0x%04X", b.cpu.SP))
	for i := uint16(1); i <= 16; i++ {
		addr := b.cpu.SP + i
		if int(addr) >= sramBase+sramSize {
			break
		}
		v, _ := b.cpu.DS.Read(int(addr))
		b.sink.Line(fmt.Sprintf("[0x%04X] = 0x%02X", addr, v))
	}
}

// Shutdown persists the UART sink's byte buffer, and the Stdio buffer when
// DumpStdout is set, matching the source's out_close behaviour on normal
// termination.
func (b *Board) Shutdown() {
	if b.cfg.DumpStdout {
		if err := b.stdioP.Flush(b.cfg.StdoutPath); err != nil {
			trace.Warningf(b.sink, "stdout flush: %v", err)
		}
	}
	b.flushUART()
}

// PeripheralsClocked lists the board's clocked peripherals in registration
// order, exposed for tests that want to exercise Tick ordering directly
// without driving a full Step.
func (b *Board) PeripheralsClocked() []peripherals.Clocked {
	return []peripherals.Clocked{b.tca0, b.tcb0, b.usart0, b.spi0, b.adc0, b.ccp}
}
