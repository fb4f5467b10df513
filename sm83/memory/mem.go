package memory

import (
	"fmt"
	"log/slog"

	"github.com/pkg/errors"
	"github.com/valerio/go-sm83/sm83/bit"
)

// MMU is the memory bus: one flat byte buffer routed through the segment
// table. Reads and writes to regions the bus does not serve return a
// *BusFault instead of touching the buffer.
type MMU struct {
	memory []byte
}

// New creates a new memory unit in its power-on state: every byte zero.
func New() *MMU {
	return &MMU{
		memory: make([]byte, 0x10000),
	}
}

// Reset zeroes every byte of memory.
func (m *MMU) Reset() {
	clear(m.memory)
}

// Read returns the byte at address.
func (m *MMU) Read(address uint16) (byte, error) {
	if seg := SegmentOf(address); !seg.Backed() {
		return 0, &BusFault{Address: address, Segment: seg}
	}
	return m.memory[address], nil
}

// Write stores value at address.
func (m *MMU) Write(address uint16, value byte) error {
	if seg := SegmentOf(address); !seg.Backed() {
		return &BusFault{Address: address, Segment: seg, Write: true}
	}
	m.memory[address] = value
	return nil
}

// ReadWord reads a little endian word: the low byte at address, the high byte
// at address+1 (wrapping at the top of the address space).
func (m *MMU) ReadWord(address uint16) (uint16, error) {
	low, err := m.Read(address)
	if err != nil {
		return 0, err
	}
	high, err := m.Read(address + 1)
	if err != nil {
		return 0, err
	}
	return bit.Combine(high, low), nil
}

// WriteWord writes the low byte of value at address and the high byte at address+1.
func (m *MMU) WriteWord(address uint16, value uint16) error {
	high, low := bit.Split(value)
	if err := m.Write(address, low); err != nil {
		return err
	}
	return m.Write(address+1, high)
}

// Load copies a program image into memory starting at address, going through
// the same routing as Write.
func (m *MMU) Load(address uint16, data []byte) error {
	if int(address)+len(data) > len(m.memory) {
		return errors.Errorf("image of %d bytes does not fit at 0x%04X", len(data), address)
	}

	for i, b := range data {
		if err := m.Write(address+uint16(i), b); err != nil {
			return errors.Wrapf(err, "load image at 0x%04X", address)
		}
	}

	slog.Debug("Loaded program image", "addr", fmt.Sprintf("0x%04X", address), "size", len(data))
	return nil
}
