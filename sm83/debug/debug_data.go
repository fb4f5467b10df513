package debug

import (
	"fmt"

	"github.com/valerio/go-sm83/sm83/cpu"
)

// CPUState contains all CPU register information for debugging
type CPUState struct {
	A uint8
	F uint8
	B uint8
	C uint8
	D uint8
	E uint8
	H uint8
	L uint8

	SP      uint16
	PC      uint16
	IME     bool
	Halted  bool
	Stopped bool
	Cycles  uint64
}

// Capture copies the observable state of c.
func Capture(c *cpu.CPU) *CPUState {
	regs := c.Registers()
	return &CPUState{
		A:       regs.Read8(cpu.A),
		F:       regs.Read8(cpu.F),
		B:       regs.Read8(cpu.B),
		C:       regs.Read8(cpu.C),
		D:       regs.Read8(cpu.D),
		E:       regs.Read8(cpu.E),
		H:       regs.Read8(cpu.H),
		L:       regs.Read8(cpu.L),
		SP:      regs.Read16(cpu.SP),
		PC:      regs.Read16(cpu.PC),
		IME:     c.IME(),
		Halted:  c.Halted(),
		Stopped: c.Stopped(),
		Cycles:  c.Cycles(),
	}
}

func (s *CPUState) String() string {
	return fmt.Sprintf("A=%02X F=%02X B=%02X C=%02X D=%02X E=%02X H=%02X L=%02X SP=%04X PC=%04X IME=%t cycles=%d",
		s.A, s.F, s.B, s.C, s.D, s.E, s.H, s.L, s.SP, s.PC, s.IME, s.Cycles)
}

// MemorySnapshot contains a snapshot of memory for disassembly
type MemorySnapshot struct {
	StartAddr uint16
	Bytes     []uint8
}

// CompleteDebugData contains everything a debug display needs about a
// stopped machine.
type CompleteDebugData struct {
	CPU             *CPUState
	Memory          *MemorySnapshot
	InterruptEnable uint8 // IE register at 0xFFFF
	InterruptFlags  uint8 // IF register at 0xFF0F
}
