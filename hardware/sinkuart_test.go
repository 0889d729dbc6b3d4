package hardware

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cab202/avremu/nets"
)

func TestSinkUARTTxShiftsOutQueuedByte(t *testing.T) {
	rxNet := nets.New("RX")
	txNet := nets.New("TX")
	s := NewSinkUART("U5", rxNet, txNet, nil)

	var mcuPin nets.PinCell
	mcuPin.State = nets.WeakPullUp // the MCU side idles the line high via a weak pull
	rxNet.Connect(&mcuPin)

	s.Event(0, "A5")
	s.Update(0)
	txNet.Update()
	if txNet.State != nets.High {
		t.Fatalf("idle level before the start bit = %s, want High", txNet.State)
	}

	const b = 0xA5
	var bits []bool
	for i := 0; i < 10; i++ {
		s.Update(uint64(i+1) * sinkUartBitNS)
		txNet.Update()
		bits = append(bits, txNet.State == nets.High)
	}

	if bits[0] {
		t.Fatalf("start bit sampled High, want Low: %v", bits)
	}
	if !bits[9] {
		t.Fatalf("stop bit sampled Low, want High: %v", bits)
	}
	var got uint8
	for i := 0; i < 8; i++ {
		if bits[1+i] {
			got |= 1 << uint(i)
		}
	}
	if got != b {
		t.Errorf("reconstructed byte = %.2X, want %.2X (raw bits %v)", got, b, bits)
	}
}

func TestSinkUARTRxDecodesFramedByte(t *testing.T) {
	rxNet := nets.New("RX")
	txNet := nets.New("TX")
	s := NewSinkUART("U5", rxNet, txNet, nil)

	var driver nets.PinCell
	rxNet.Connect(&driver)

	const b = 0x5A // 01011010, LSB first bits: 0,1,0,1,1,0,1,0
	bits := [8]bool{false, true, false, true, true, false, true, false}

	driver.State = nets.DriveL // start bit
	rxNet.Update()
	s.Update(0)

	sampleT := uint64(sinkUartBitNS + sinkUartBitNS/2)
	for i := 0; i < 8; i++ {
		if bits[i] {
			driver.State = nets.DriveH
		} else {
			driver.State = nets.DriveL
		}
		rxNet.Update()
		s.Update(sampleT + uint64(i)*sinkUartBitNS)
	}
	driver.State = nets.DriveH // stop bit
	rxNet.Update()
	s.Update(sampleT + 8*sinkUartBitNS)

	if len(s.out) != 1 || s.out[0] != b {
		t.Fatalf("s.out = %v, want a single byte %.2X", s.out, b)
	}
}

func TestSinkUARTRxFramingError(t *testing.T) {
	rxNet := nets.New("RX")
	txNet := nets.New("TX")
	s := NewSinkUART("U5", rxNet, txNet, nil)

	var driver nets.PinCell
	rxNet.Connect(&driver)

	driver.State = nets.DriveL // start bit
	rxNet.Update()
	s.Update(0)

	sampleT := uint64(sinkUartBitNS + sinkUartBitNS/2)
	for i := 0; i < 8; i++ {
		driver.State = nets.DriveL // all-zero payload
		rxNet.Update()
		s.Update(sampleT + uint64(i)*sinkUartBitNS)
	}
	driver.State = nets.DriveL // bad stop bit -- should be High
	rxNet.Update()
	s.Update(sampleT + 8*sinkUartBitNS)

	if len(s.out) != 0 {
		t.Errorf("framing error should not append a byte, got %v", s.out)
	}
}

func TestSinkUARTFlush(t *testing.T) {
	rxNet := nets.New("RX")
	txNet := nets.New("TX")
	s := NewSinkUART("U5", rxNet, txNet, nil)
	s.out = []byte("hello")

	path := filepath.Join(t.TempDir(), "uart.txt")
	if err := s.Flush(path); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(got) != "hello" {
		t.Errorf("flushed content = %q, want \"hello\"", got)
	}
}
