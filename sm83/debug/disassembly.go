package debug

import (
	"github.com/valerio/go-sm83/sm83/disasm"
)

type DisasmLine struct {
	Address     uint16
	Instruction string
	IsCurrent   bool
}

// CreateDisassembly disassembles a snapshot and returns at most maxLines
// lines centered on pc. When pc falls outside the snapshot the listing starts
// at the beginning of the snapshot and ends with a marker line for pc.
func CreateDisassembly(snapshot *MemorySnapshot, pc uint16, maxLines int) []DisasmLine {
	if snapshot == nil || maxLines <= 0 {
		return nil
	}

	end := int(snapshot.StartAddr) + len(snapshot.Bytes)
	if int(pc) < int(snapshot.StartAddr) || int(pc) >= end {
		lines := make([]DisasmLine, 0, maxLines)
		for i := 0; i < len(snapshot.Bytes) && len(lines) < maxLines-1; {
			instruction, length := disasm.DisassembleBytes(snapshot.Bytes, i)
			lines = append(lines, DisasmLine{Address: snapshot.StartAddr + uint16(i), Instruction: instruction})
			i += length
		}
		return append(lines, DisasmLine{
			Address:     pc,
			Instruction: "[PC outside snapshot range]",
			IsCurrent:   true,
		})
	}

	// Decoding from the start of the snapshot may fall out of step with the
	// real instruction stream; the line closest to pc is highlighted instead.
	all := make([]DisasmLine, 0, maxLines*3)
	pcIndex := -1
	for i := 0; i < len(snapshot.Bytes); {
		address := snapshot.StartAddr + uint16(i)
		instruction, length := disasm.DisassembleBytes(snapshot.Bytes, i)
		all = append(all, DisasmLine{Address: address, Instruction: instruction})
		if pcIndex < 0 && address >= pc {
			pcIndex = len(all) - 1
		}
		i += length
	}
	if pcIndex < 0 {
		pcIndex = len(all) - 1
	}
	all[pcIndex].IsCurrent = all[pcIndex].Address == pc

	start := pcIndex - maxLines/2
	if start < 0 {
		start = 0
	}
	stop := start + maxLines
	if stop > len(all) {
		stop = len(all)
		start = max(0, stop-maxLines)
	}
	return all[start:stop]
}
