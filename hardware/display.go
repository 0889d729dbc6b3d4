package hardware

import (
	"fmt"

	"github.com/cab202/avremu/nets"
	"github.com/cab202/avremu/trace"
)

// segDecode maps a 7-bit lit-segment pattern (abcdefg, bit0=a, a set bit
// means the segment is on) to its displayed character. Patterns with no entry decode as '?'.
var segDecode = map[uint8]byte{
	0b0111111: '0', 0b0000110: '1', 0b1011011: '2', 0b1001111: '3',
	0b1100110: '4', 0b1101101: '5', 0b1111101: '6', 0b0000111: '7',
	0b1111111: '8', 0b1101111: '9', 0b1110111: 'A', 0b1111100: 'B',
	0b0111001: 'C', 0b1011110: 'D', 0b1111001: 'E', 0b1110001: 'F',
	0b1000000: '-', 0b0000000: ' ',
}

type sample2d struct {
	segs  uint8
	digit bool // true = left digit
	timeNS uint64
}

// Display models a multiplexed two-digit seven-segment display: the MCU
// drives one digit's segments at a time and toggles which digit is
// selected fast enough that a 3-entry history always captures one full
// alternation once the multiplexing has settled.
type Display struct {
	name string

	segNet    [7]*nets.Net
	segPin    [7]nets.PinCell
	enNet     *nets.Net
	enPin     nets.PinCell
	digitNet  *nets.Net
	digitPin  nets.PinCell

	enabled bool
	history []sample2d
	lastLog string

	sink trace.Sink
}

// NewDisplay returns a Display reading its seven segment nets, an enable
// net, and a digit-select net.
func NewDisplay(name string, segs [7]*nets.Net, en, digit *nets.Net, sink trace.Sink) *Display {
	if sink == nil {
		sink = trace.Discard{}
	}
	d := &Display{name: name, segNet: segs, enNet: en, digitNet: digit, sink: sink}
	for i := range d.segPin {
		d.segPin[i].State = nets.WeakPullUp // active-low inputs from the MCU's view
		segs[i].Connect(&d.segPin[i])
	}
	d.enPin.State = nets.WeakPullDown
	en.Connect(&d.enPin)
	d.digitPin.State = nets.WeakPullDown
	digit.Connect(&d.digitPin)
	return d
}

func (d *Display) sampleSegs() uint8 {
	var v uint8
	for i := 0; i < 7; i++ {
		if d.segNet[i].State != nets.High { // active low: driven low = segment on
			v |= 1 << uint(i)
		}
	}
	return v
}

// Update implements Hardware: samples the current digit once per step,
// keeps a 3-deep history, and logs a decoded reading only when it
// actually changes.
func (d *Display) Update(timeNS uint64) {
	enabled := d.enNet.State == nets.High
	segs := d.sampleSegs()
	digitLeft := d.digitNet.State == nets.High // digit select: low = RHS, high = LHS

	if !enabled {
		d.enabled = false
		return
	}
	d.enabled = true

	s := sample2d{segs: segs, digit: digitLeft, timeNS: timeNS}
	d.history = append(d.history, s)
	if len(d.history) > 3 {
		d.history = d.history[len(d.history)-3:]
	}

	msg := d.decode()
	if msg == "" || msg == d.lastLog {
		return
	}
	d.lastLog = msg
	trace.Event(d.sink, timeNS, "DISP", d.name, "%s", msg)
}

func (d *Display) decode() string {
	if len(d.history) < 3 {
		return d.decodeSingle(d.history[len(d.history)-1])
	}
	first, mid, last := d.history[0], d.history[1], d.history[2]
	if mid.digit == first.digit {
		// No alternation across these three samples -- one digit held steady.
		return d.decodeSingle(last)
	}
	var left, right uint8
	if first.digit {
		left, right = first.segs, mid.segs
	} else {
		left, right = mid.segs, first.segs
	}
	period := last.timeNS - first.timeNS
	if period == 0 {
		return fmt.Sprintf("%c%c", segChar(left), segChar(right))
	}
	freq := 1e9 / float64(period)
	duty := 100 * float64(mid.timeNS-first.timeNS) / float64(period)
	return fmt.Sprintf("%c%c (%.0f Hz, %.0f %%)", segChar(left), segChar(right), freq, duty)
}

func (d *Display) decodeSingle(s sample2d) string {
	return fmt.Sprintf("%c", segChar(s.segs))
}

func segChar(segs uint8) byte {
	if c, ok := segDecode[segs]; ok {
		return c
	}
	return '?'
}
