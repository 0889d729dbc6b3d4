package stdio

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriteAccumulatesOutput(t *testing.T) {
	s := New(nil)
	for _, b := range []byte("hi") {
		s.Write(RegOUT, b)
	}
	if string(s.out) != "hi" {
		t.Errorf("out = %q, want \"hi\"", s.out)
	}
}

func TestFeedAndReadIn(t *testing.T) {
	s := New(nil)
	s.Feed([]byte("ab"))

	if got, _ := s.Read(RegAVAIL); got != 2 {
		t.Fatalf("AVAIL = %d, want 2", got)
	}
	b, _ := s.Read(RegIN)
	if b != 'a' {
		t.Errorf("first byte = %c, want 'a'", b)
	}
	if got, _ := s.Read(RegAVAIL); got != 1 {
		t.Errorf("AVAIL after one read = %d, want 1", got)
	}
	b, _ = s.Read(RegIN)
	if b != 'b' {
		t.Errorf("second byte = %c, want 'b'", b)
	}
	if got, _ := s.Read(RegAVAIL); got != 0 {
		t.Errorf("AVAIL after draining = %d, want 0", got)
	}
}

func TestFlushWritesFile(t *testing.T) {
	s := New(nil)
	s.Write(RegOUT, 'x')
	s.Write(RegOUT, 'y')

	path := filepath.Join(t.TempDir(), "out.txt")
	if err := s.Flush(path); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(got) != "xy" {
		t.Errorf("flushed content = %q, want \"xy\"", got)
	}
}

func TestFlushNoPathIsNoop(t *testing.T) {
	s := New(nil)
	if err := s.Flush(""); err != nil {
		t.Errorf("Flush(\"\") = %v, want nil", err)
	}
}
