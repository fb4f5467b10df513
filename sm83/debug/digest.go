package debug

import (
	"github.com/cespare/xxhash"
	"github.com/valerio/go-sm83/sm83/bit"
	"github.com/valerio/go-sm83/sm83/memory"
)

// Digest hashes the architectural state of a machine: the registers, IME and
// every readable byte of the address space. Cycle counts and low power modes
// are left out so that two runs reaching the same state by different paths
// compare equal.
//
// Echo RAM and the unusable area are skipped; everything else must be
// readable or the error is returned.
func Digest(state *CPUState, reader MemoryReader) (uint64, error) {
	h := xxhash.New()

	spHigh, spLow := bit.Split(state.SP)
	pcHigh, pcLow := bit.Split(state.PC)
	regs := []byte{
		state.A, state.F, state.B, state.C, state.D, state.E, state.H, state.L,
		spLow, spHigh, pcLow, pcHigh, bit.FromBool(state.IME),
	}
	if _, err := h.Write(regs); err != nil {
		return 0, err
	}

	page := make([]byte, 0, 0x100)
	for address := uint32(0); address <= 0xFFFF; address++ {
		a := uint16(address)
		if memory.SegmentOf(a).Backed() {
			b, err := reader.Read(a)
			if err != nil {
				return 0, err
			}
			page = append(page, b)
		}
		if len(page) == cap(page) || address == 0xFFFF {
			if _, err := h.Write(page); err != nil {
				return 0, err
			}
			page = page[:0]
		}
	}

	return h.Sum64(), nil
}

// DigestBytes hashes an arbitrary byte slice, e.g. a MemorySnapshot.
func DigestBytes(data []byte) uint64 {
	return xxhash.Sum64(data)
}
