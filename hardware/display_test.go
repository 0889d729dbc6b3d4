package hardware

import (
	"strings"
	"testing"

	"github.com/cab202/avremu/nets"
)

// driveSegs sets seg[i] active-low per the bit pattern (bit set = segment
// driven low = on), via an external driver pin distinct from the display's
// own weak pull-up.
func driveSegs(segNets [7]*nets.Net, drivers *[7]nets.PinCell, pattern uint8) {
	for i := 0; i < 7; i++ {
		if pattern&(1<<uint(i)) != 0 {
			drivers[i].State = nets.DriveL
		} else {
			drivers[i].State = nets.DriveH
		}
		segNets[i].Update()
	}
}

func newTestDisplay() (*Display, [7]*nets.Net, *[7]nets.PinCell, *nets.Net, *nets.PinCell, *nets.Net, *nets.PinCell) {
	var segNets [7]*nets.Net
	var segDrivers [7]nets.PinCell
	for i := range segNets {
		segNets[i] = nets.New("SEG")
	}
	enNet := nets.New("EN")
	digitNet := nets.New("DIGIT")
	d := NewDisplay("DS1", segNets, enNet, digitNet, nil)

	for i := range segNets {
		segNets[i].Connect(&segDrivers[i])
	}
	var enDriver, digitDriver nets.PinCell
	enNet.Connect(&enDriver)
	digitNet.Connect(&digitDriver)

	return d, segNets, &segDrivers, enNet, &enDriver, digitNet, &digitDriver
}

func TestDisplaySingleDigit(t *testing.T) {
	d, segNets, segDrivers, enNet, enDriver, digitNet, _ := newTestDisplay()

	enDriver.State = nets.DriveH
	enNet.Update()
	driveSegs(segNets, segDrivers, 0b0111111) // '0'
	digitNet.Update()

	d.Update(0)
	if got := d.decode(); got != "0" {
		t.Errorf("decode() = %q, want \"0\"", got)
	}
}

func TestDisplayTwoDigitFrequencyDuty(t *testing.T) {
	d, segNets, segDrivers, enNet, enDriver, digitNet, digitDriver := newTestDisplay()

	enDriver.State = nets.DriveH
	enNet.Update()

	// left digit '1', right digit '2', alternating at a 1kHz rate with an
	// asymmetric duty cycle.
	digitDriver.State = nets.DriveH // digitLeft true when digitNet is High
	digitNet.Update()
	driveSegs(segNets, segDrivers, 0b0000110) // '1'
	d.Update(0)

	digitDriver.State = nets.DriveL // right digit
	digitNet.Update()
	driveSegs(segNets, segDrivers, 0b1011011) // '2'
	d.Update(300_000)

	digitDriver.State = nets.DriveH
	digitNet.Update()
	driveSegs(segNets, segDrivers, 0b0000110)
	d.Update(1_000_000)

	got := d.decode()
	if !strings.HasPrefix(got, "12 ") {
		t.Fatalf("decode() = %q, want a \"12 (...)\" two-digit readout", got)
	}
	if !strings.Contains(got, "Hz") || !strings.Contains(got, "%") {
		t.Errorf("decode() = %q, want frequency/duty annotation", got)
	}
}

func TestDisplayDisabledProducesNoReading(t *testing.T) {
	d, segNets, segDrivers, enNet, enDriver, digitNet, _ := newTestDisplay()

	enDriver.State = nets.DriveL // not enabled
	enNet.Update()
	driveSegs(segNets, segDrivers, 0b0111111)
	digitNet.Update()

	d.Update(0)
	if d.enabled {
		t.Error("display should not be enabled when EN net is Low")
	}
	if len(d.history) != 0 {
		t.Errorf("disabled display recorded %d history samples, want 0", len(d.history))
	}
}
