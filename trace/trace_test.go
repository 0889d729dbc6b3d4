package trace

import (
	"strings"
	"testing"
)

func TestEventFormatting(t *testing.T) {
	b := &Buffer{}
	Event(b, 0x1A2B, "PWM", "BUZZER", "%d Hz", 1000)
	if len(b.Lines) != 1 {
		t.Fatalf("got %d lines, want 1", len(b.Lines))
	}
	want := "[@000000001A2B] PWM|BUZZER: 1000 Hz"
	if b.Lines[0] != want {
		t.Errorf("line = %q, want %q", b.Lines[0], want)
	}
}

func TestErrorfAndWarningf(t *testing.T) {
	b := &Buffer{}
	Errorf(b, "bad offset %d", 7)
	Warningf(b, "write ignored")
	if !strings.HasPrefix(b.Lines[0], "[ERROR] ") {
		t.Errorf("Errorf line = %q, want [ERROR] prefix", b.Lines[0])
	}
	if !strings.HasPrefix(b.Lines[1], "[WARNING] ") {
		t.Errorf("Warningf line = %q, want [WARNING] prefix", b.Lines[1])
	}
}

func TestDiscardDropsLines(t *testing.T) {
	d := Discard{}
	d.Line("anything")
}

func TestInfof(t *testing.T) {
	b := &Buffer{}
	Infof(b, "FIRMWARE", "loaded %d bytes", 256)
	want := "[FIRMWARE] loaded 256 bytes"
	if b.Lines[0] != want {
		t.Errorf("line = %q, want %q", b.Lines[0], want)
	}
}
