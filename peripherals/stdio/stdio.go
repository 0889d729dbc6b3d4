// Package stdio implements the Stdio pseudo-peripheral: a memory-mapped
// byte sink/source with no electrical presence on any net, used by
// firmware as a debug console. Output bytes accumulate in memory and are
// only persisted to a file at shutdown or on an explicit flush.
package stdio

import (
	"os"

	"github.com/cab202/avremu/trace"
)

const (
	RegOUT   = 0x00
	RegIN    = 0x01
	RegAVAIL = 0x02
	size     = 0x03
)

// Stdio is the peripheral.
type Stdio struct {
	out []byte
	in  []byte

	sink trace.Sink
}

// New returns an empty Stdio peripheral.
func New(sink trace.Sink) *Stdio {
	if sink == nil {
		sink = trace.Discard{}
	}
	return &Stdio{sink: sink}
}

// Feed queues bytes for IN/AVAIL to be read by firmware, used by the board
// when dispatching an event targeted at this peripheral.
func (s *Stdio) Feed(b []byte) {
	s.in = append(s.in, b...)
}

// Size implements memory.MemoryMapped.
func (s *Stdio) Size() int { return size }

// Read implements memory.MemoryMapped.
func (s *Stdio) Read(offset int) (uint8, int) {
	switch offset {
	case RegIN:
		if len(s.in) == 0 {
			return 0, 0
		}
		b := s.in[0]
		s.in = s.in[1:]
		return b, 0
	case RegAVAIL:
		n := len(s.in)
		if n > 0xFF {
			n = 0xFF
		}
		return uint8(n), 0
	}
	return 0, 0
}

// Write implements memory.MemoryMapped.
func (s *Stdio) Write(offset int, val uint8) int {
	if offset == RegOUT {
		s.out = append(s.out, val)
	}
	return 0
}

// Flush persists the accumulated output bytes to path.
func (s *Stdio) Flush(path string) error {
	if path == "" {
		return nil
	}
	return os.WriteFile(path, s.out, 0644)
}
