package debug

// MemoryReader provides read-only access to emulator memory for debug tools
// This interface decouples debug tools from the specific MMU implementation
type MemoryReader interface {
	// Read reads a single byte from the specified address
	Read(addr uint16) (uint8, error)
}

// TakeMemorySnapshot copies length bytes starting at start. Addresses that
// fault (echo RAM, the unusable area) read as zero, and the snapshot stops
// at the top of the address space.
func TakeMemorySnapshot(reader MemoryReader, start uint16, length int) *MemorySnapshot {
	if remaining := 0x10000 - int(start); length > remaining {
		length = remaining
	}

	snapshot := &MemorySnapshot{
		StartAddr: start,
		Bytes:     make([]uint8, length),
	}
	for i := range snapshot.Bytes {
		if b, err := reader.Read(start + uint16(i)); err == nil {
			snapshot.Bytes[i] = b
		}
	}
	return snapshot
}
