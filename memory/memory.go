// Package memory defines the address-range dispatch used throughout the
// board: a MemoryMapped region contract, a binary-searchable Map that
// routes an address to the owning region, and a flat bank used for plain
// RAM/ROM storage.
package memory

import (
	"fmt"
	"sort"

	"github.com/cab202/avremu/trace"
)

// MemoryMapped is the contract every addressable region implements:
// register banks, RAM, program memory. Addresses passed to Read/Write are
// already relative to the region's own base.
type MemoryMapped interface {
	// Size returns the number of bytes this region occupies.
	Size() int
	// Read returns the byte at offset and the number of extra wait cycles
	// (latency) the access costs beyond the normal one.
	Read(offset int) (uint8, int)
	// Write stores val at offset and returns the access latency.
	Write(offset int, val uint8) int
}

// WordReader is satisfied by regions that want a non-default little-endian
// word read; ReadWord below falls back to two byte reads when a region
// doesn't implement this.
type WordReader interface {
	ReadWord(offset int) (uint16, int)
}

// WordWriter is the write-side equivalent of WordReader.
type WordWriter interface {
	WriteWord(offset int, val uint16) int
}

// ReadWord reads a little-endian 16-bit value from r at offset, using the
// region's own ReadWord if it implements WordReader, otherwise composing
// two byte reads.
func ReadWord(r MemoryMapped, offset int) (uint16, int) {
	if wr, ok := r.(WordReader); ok {
		return wr.ReadWord(offset)
	}
	lo, l1 := r.Read(offset)
	hi, l2 := r.Read(offset + 1)
	return uint16(lo) | uint16(hi)<<8, l1 + l2
}

// WriteWord writes a little-endian 16-bit value to r at offset, using the
// region's own WriteWord if it implements WordWriter, otherwise composing
// two byte writes.
func WriteWord(r MemoryMapped, offset int, val uint16) int {
	if ww, ok := r.(WordWriter); ok {
		return ww.WriteWord(offset, val)
	}
	l1 := r.Write(offset, uint8(val&0xFF))
	l2 := r.Write(offset+1, uint8(val>>8))
	return l1 + l2
}

// mapping is one (base, region) entry of a Map, sorted by base.
type mapping struct {
	base   int
	region MemoryMapped
	name   string
}

// Map is an ordered, non-overlapping collection of memory-mapped regions,
// dispatched to by binary search on address. Out-of-range accesses return
// (0, 0) on read or are dropped on write, logging an error either way, per
// the error taxonomy: the core never panics on a runtime memory access.
type Map struct {
	entries []mapping
	sink    trace.Sink
}

// NewMap returns an empty Map that logs out-of-range accesses to sink. A
// nil sink is replaced with trace.Discard.
func NewMap(sink trace.Sink) *Map {
	if sink == nil {
		sink = trace.Discard{}
	}
	return &Map{sink: sink}
}

// Add registers region at [base, base+region.Size()) under name (used only
// in error messages). Regions must not overlap; Add panics on overlap since
// this is a configuration-time programming error, not a runtime condition.
func (m *Map) Add(base int, name string, region MemoryMapped) {
	end := base + region.Size()
	for _, e := range m.entries {
		eEnd := e.base + e.region.Size()
		if base < eEnd && e.base < end {
			panic(fmt.Sprintf("memory.Map: region %q [0x%X,0x%X) overlaps %q [0x%X,0x%X)", name, base, end, e.name, e.base, eEnd))
		}
	}
	m.entries = append(m.entries, mapping{base: base, region: region, name: name})
	sort.Slice(m.entries, func(i, j int) bool { return m.entries[i].base < m.entries[j].base })
}

// find returns the mapping containing addr, or nil if none does.
func (m *Map) find(addr int) *mapping {
	i := sort.Search(len(m.entries), func(i int) bool {
		return m.entries[i].base+m.entries[i].region.Size() > addr
	})
	if i < len(m.entries) && addr >= m.entries[i].base {
		return &m.entries[i]
	}
	return nil
}

// Read dispatches a byte read to the owning region. Out-of-range addresses
// return (0, 0) and emit an [ERROR] trace line.
func (m *Map) Read(addr int) (uint8, int) {
	e := m.find(addr)
	if e == nil {
		trace.Errorf(m.sink, "Out-of-range memory read at 0x%04X", addr)
		return 0, 0
	}
	return e.region.Read(addr - e.base)
}

// Write dispatches a byte write to the owning region. Out-of-range
// addresses are dropped and emit an [ERROR] trace line (no panic).
func (m *Map) Write(addr int, val uint8) int {
	e := m.find(addr)
	if e == nil {
		trace.Errorf(m.sink, "Out-of-range memory write at 0x%04X", addr)
		return 0
	}
	return e.region.Write(addr-e.base, val)
}

// ReadWord reads a little-endian word starting at addr.
func (m *Map) ReadWord(addr int) (uint16, int) {
	lo, l1 := m.Read(addr)
	hi, l2 := m.Read(addr + 1)
	return uint16(lo) | uint16(hi)<<8, l1 + l2
}

// WriteWord writes a little-endian word starting at addr.
func (m *Map) WriteWord(addr int, val uint16) int {
	l1 := m.Write(addr, uint8(val&0xFF))
	l2 := m.Write(addr+1, uint8(val>>8))
	return l1 + l2
}

// Flat is a plain, fully pre-allocated byte array implementing MemoryMapped
// -- used for SRAM (zero-initialised) and program memory (0xFF-initialised,
// then overwritten by the HEX loader).
type Flat struct {
	bytes []uint8
}

// NewFlat returns a Flat region of the given size with every byte set to
// fill.
func NewFlat(size int, fill uint8) *Flat {
	b := make([]uint8, size)
	if fill != 0 {
		for i := range b {
			b[i] = fill
		}
	}
	return &Flat{bytes: b}
}

// Size implements MemoryMapped.
func (f *Flat) Size() int { return len(f.bytes) }

// Read implements MemoryMapped.
func (f *Flat) Read(offset int) (uint8, int) {
	if offset < 0 || offset >= len(f.bytes) {
		return 0, 0
	}
	return f.bytes[offset], 0
}

// Write implements MemoryMapped.
func (f *Flat) Write(offset int, val uint8) int {
	if offset < 0 || offset >= len(f.bytes) {
		return 0
	}
	f.bytes[offset] = val
	return 0
}

// Bytes exposes the backing array directly, for the firmware loader to
// write program-memory records into and for dump routines to read from.
func (f *Flat) Bytes() []uint8 {
	return f.bytes
}
