package memory

import (
	"testing"

	"github.com/go-test/deep"
)

func TestFlatReadWrite(t *testing.T) {
	f := NewFlat(16, 0xFF)
	for i := 0; i < 16; i++ {
		if got, _ := f.Read(i); got != 0xFF {
			t.Errorf("offset %d: got %.2X, want FF fill", i, got)
		}
	}
	f.Write(4, 0x42)
	if got, _ := f.Read(4); got != 0x42 {
		t.Errorf("Read(4) = %.2X, want 42", got)
	}
	if got, _ := f.Read(16); got != 0 {
		t.Errorf("out-of-range read: got %.2X, want 0", got)
	}
	f.Write(16, 0x99) // silently dropped
	if got := f.Bytes()[15]; got != 0xFF {
		t.Errorf("adjacent byte disturbed by out-of-range write: got %.2X", got)
	}
}

func TestMapDispatch(t *testing.T) {
	m := NewMap(nil)
	a := NewFlat(4, 0x00)
	b := NewFlat(4, 0x00)
	m.Add(0x10, "A", a)
	m.Add(0x20, "B", b)

	m.Write(0x10, 0x01)
	m.Write(0x13, 0x02)
	m.Write(0x20, 0x03)

	if got, _ := m.Read(0x10); got != 0x01 {
		t.Errorf("A[0] = %.2X, want 01", got)
	}
	if got, _ := m.Read(0x13); got != 0x02 {
		t.Errorf("A[3] = %.2X, want 02", got)
	}
	if got, _ := m.Read(0x20); got != 0x03 {
		t.Errorf("B[0] = %.2X, want 03", got)
	}
	// gap between regions
	if got, _ := m.Read(0x14); got != 0 {
		t.Errorf("gap read = %.2X, want 0", got)
	}
}

func TestMapOverlapPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic on overlapping region")
		}
	}()
	m := NewMap(nil)
	m.Add(0x10, "A", NewFlat(8, 0))
	m.Add(0x14, "B", NewFlat(8, 0)) // overlaps A's [0x10,0x18)
}

func TestMapWords(t *testing.T) {
	m := NewMap(nil)
	m.Add(0, "R", NewFlat(4, 0))
	m.WriteWord(0, 0xBEEF)
	lo, _ := m.Read(0)
	hi, _ := m.Read(1)
	if diff := deep.Equal([]uint8{lo, hi}, []uint8{0xEF, 0xBE}); diff != nil {
		t.Errorf("little-endian word write mismatch: %v", diff)
	}
	word, _ := m.ReadWord(0)
	if word != 0xBEEF {
		t.Errorf("ReadWord = %.4X, want BEEF", word)
	}
}

func TestShadow16(t *testing.T) {
	var s Shadow16
	s.Set(0xABCD)
	lo := s.ReadLow()
	if lo != 0xCD {
		t.Fatalf("ReadLow = %.2X, want CD", lo)
	}
	s.Set(0x1234) // mutate underlying value between the two reads
	hi := s.ReadHigh()
	if hi != 0xAB {
		t.Errorf("ReadHigh = %.2X, want AB (latched at ReadLow time, not current high byte)", hi)
	}

	s.WriteLow(0x11)
	s.WriteHigh(0x22)
	if got := s.Get(); got != 0x2211 {
		t.Errorf("after WriteLow/WriteHigh, Get() = %.4X, want 2211", got)
	}
}
