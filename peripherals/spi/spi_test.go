package spi

import (
	"testing"

	"github.com/cab202/avremu/nets"
	"github.com/cab202/avremu/peripherals/port"
)

func newTestSPI() (*SPI, *port.Port, *nets.Net) {
	p := port.New()
	sckNet := nets.New("SCK")
	mosiNet := nets.New("MOSI")
	p.Connect(0, sckNet)
	p.Connect(1, mosiNet)

	misoNet := nets.New("MISO")
	s := New(p, 0, 1, misoNet, nil)
	return s, p, misoNet
}

// runUntilIdle ticks the SPI/port pair enough half-bit periods to clock out
// a full byte, returning the sequence of sampled MOSI levels.
func runUntilIdle(s *SPI, p *port.Port, sckNet, mosiNet *nets.Net, maxTicks int) []bool {
	var mosiAtRise []bool
	prevSck := false
	for i := 0; i < maxTicks && s.st == shifting; i++ {
		s.Tick(uint64(i))
		p.Tick(uint64(i))
		sckNet.Update()
		mosiNet.Update()
		sckHigh := sckNet.State == nets.High
		if sckHigh && !prevSck {
			mosiAtRise = append(mosiAtRise, mosiNet.State == nets.High)
		}
		prevSck = sckHigh
	}
	return mosiAtRise
}

func TestTransferShiftsOutMSBFirst(t *testing.T) {
	p := port.New()
	sckNet := nets.New("SCK")
	mosiNet := nets.New("MOSI")
	p.Connect(0, sckNet)
	p.Connect(1, mosiNet)
	misoNet := nets.New("MISO")
	s := New(p, 0, 1, misoNet, nil)

	s.Write(RegCTRLA, ctrlaEnable)
	s.Write(RegDATA, 0xB4) // 10110100

	bits := runUntilIdle(s, p, sckNet, mosiNet, 4000)
	if len(bits) < 8 {
		t.Fatalf("captured %d rising edges, want at least 8", len(bits))
	}
	var got uint8
	for i := 0; i < 8; i++ {
		got <<= 1
		if bits[i] {
			got |= 1
		}
	}
	if got != 0xB4 {
		t.Errorf("shifted byte = %.2X, want B4", got)
	}
}

func TestTransferCompletesAndBuffersRx(t *testing.T) {
	s, p, misoNet := newTestSPI()
	var misoDriver nets.PinCell
	misoDriver.State = nets.DriveH
	misoNet.Connect(&misoDriver)
	misoNet.Update()

	s.Write(RegCTRLA, ctrlaEnable)
	s.Write(RegDATA, 0x00)

	for i := 0; i < 4000 && s.st != idle; i++ {
		s.Tick(uint64(i))
		p.Tick(uint64(i))
	}
	if s.st != idle {
		t.Fatalf("transfer never completed")
	}
	if got, _ := s.Read(RegINTFLAGS); got&intflagsIF == 0 {
		t.Errorf("IF not set after transfer completion")
	}
	got, _ := s.Read(RegDATA)
	if got != 0xFF {
		t.Errorf("rx data = %.2X, want FF (MISO held High throughout)", got)
	}
}

func TestWriteWhileShiftingIgnored(t *testing.T) {
	s, _, _ := newTestSPI()
	s.Write(RegCTRLA, ctrlaEnable)
	s.Write(RegDATA, 0x11)
	s.Write(RegDATA, 0x22) // should be ignored, transfer in progress
	if s.data != 0x11 {
		t.Errorf("data = %.2X, want 11 (second write while shifting must be ignored)", s.data)
	}
}

func TestDisabledReleasesOverrides(t *testing.T) {
	s, p, _ := newTestSPI()
	s.Tick(0)
	p.Tick(0)
	if p.In != 0 {
		t.Errorf("unexpected IN state")
	}
}
