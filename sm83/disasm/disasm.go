package disasm

import (
	"fmt"
	"strings"

	"github.com/valerio/go-sm83/sm83/cpu"
)

// DisassemblyLine represents a single disassembled instruction
type DisassemblyLine struct {
	Address     uint16
	Bytes       []byte
	Instruction string
	Length      int

	// Fault is set when the bytes at Address could not be decoded or read.
	// Such lines are one byte long so that a listing can resync.
	Fault error
}

// DisassembleAt disassembles the instruction at the given program counter.
// It only reads through reader and never touches CPU state.
func DisassembleAt(reader cpu.Reader, pc uint16) DisassemblyLine {
	regs := cpu.NewRegisters(0, 0, 0, 0, 0, pc)

	in, err := cpu.Decode(&regs, reader)
	if err != nil {
		line := DisassemblyLine{Address: pc, Length: 1, Fault: err}
		if b, readErr := reader.Read(pc); readErr == nil {
			line.Bytes = []byte{b}
			line.Instruction = fmt.Sprintf("DB $%02X", b)
		} else {
			line.Instruction = "??"
		}
		return line
	}

	length := in.Length()
	raw := make([]byte, 0, length)
	for i := 0; i < length; i++ {
		// already read once by the decoder, cannot fault
		b, _ := reader.Read(pc + uint16(i))
		raw = append(raw, b)
	}

	return DisassemblyLine{
		Address:     pc,
		Bytes:       raw,
		Instruction: in.String(),
		Length:      length,
	}
}

// DisassembleRange disassembles count instructions starting from startPC,
// stopping early if the address space wraps around.
func DisassembleRange(reader cpu.Reader, startPC uint16, count int) []DisassemblyLine {
	lines := make([]DisassemblyLine, 0, count)
	pc := uint32(startPC)

	for i := 0; i < count && pc <= 0xFFFF; i++ {
		line := DisassembleAt(reader, uint16(pc))
		lines = append(lines, line)
		pc += uint32(line.Length)
	}

	return lines
}

// DisassembleAround disassembles up to beforeCount instructions leading to
// currentPC, the instruction at currentPC and afterCount instructions after it.
func DisassembleAround(reader cpu.Reader, currentPC uint16, beforeCount, afterCount int) []DisassemblyLine {
	// Instructions are variable length, so we can't walk backwards. Instead try
	// start points from furthest to nearest and keep the first one whose
	// instruction stream lands exactly on currentPC.
	startPC := currentPC
	found := 0

	for offset := beforeCount * 3; offset > 0; offset-- {
		if int(currentPC) < offset {
			continue
		}
		candidate := currentPC - uint16(offset)

		pc := uint32(candidate)
		count := 0
		for pc < uint32(currentPC) {
			pc += uint32(DisassembleAt(reader, uint16(pc)).Length)
			count++
		}
		if pc == uint32(currentPC) && count >= beforeCount {
			startPC = candidate
			found = count
			break
		}
	}

	lines := DisassembleRange(reader, startPC, found+1+afterCount)
	if found > beforeCount {
		lines = lines[found-beforeCount:]
	}
	return lines
}

// FormatDisassemblyLine formats a disassembly line for display
func FormatDisassemblyLine(line DisassemblyLine, isCurrentPC bool) string {
	prefix := " "
	if isCurrentPC {
		prefix = ">"
	}

	hex := make([]string, 0, len(line.Bytes))
	for _, b := range line.Bytes {
		hex = append(hex, fmt.Sprintf("%02X", b))
	}

	return fmt.Sprintf("%s0x%04X: %-8s  %s", prefix, line.Address, strings.Join(hex, " "), line.Instruction)
}

// bytesReader serves a byte slice as if it were mapped at address 0. Reads
// past the end return zero.
type bytesReader []byte

func (b bytesReader) Read(address uint16) (byte, error) {
	if int(address) < len(b) {
		return b[address], nil
	}
	return 0, nil
}

// DisassembleBytes disassembles the instruction starting at offset in data,
// returning its text and length.
func DisassembleBytes(data []byte, offset int) (string, int) {
	if offset < 0 || offset >= len(data) {
		return "??", 1
	}
	line := DisassembleAt(bytesReader(data[offset:]), 0)
	return line.Instruction, line.Length
}
