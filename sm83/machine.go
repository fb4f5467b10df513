// Package sm83 ties the CPU core and the memory bus together into a machine
// that can be loaded with a program image and stepped.
package sm83

import (
	"fmt"
	"log/slog"

	"github.com/pkg/errors"
	"github.com/valerio/go-sm83/sm83/addr"
	"github.com/valerio/go-sm83/sm83/cpu"
	"github.com/valerio/go-sm83/sm83/debug"
	"github.com/valerio/go-sm83/sm83/image"
	"github.com/valerio/go-sm83/sm83/memory"
)

const (
	snapshotBefore = 32
	snapshotSize   = 96
)

// Machine is the root struct and entry point for running a program.
type Machine struct {
	cpu *cpu.CPU
	mem *memory.MMU

	// Trace logs every executed instruction at debug level.
	Trace bool
}

// New creates a machine with zeroed memory.
func New(opts ...cpu.Option) *Machine {
	return &Machine{
		cpu: cpu.New(opts...),
		mem: memory.New(),
	}
}

// NewWithFile creates a machine and loads the image at path into memory
// starting at loadAddr.
func NewWithFile(path string, loadAddr uint16, opts ...cpu.Option) (*Machine, error) {
	data, err := image.Load(path)
	if err != nil {
		return nil, err
	}

	m := New(opts...)
	if err := m.mem.Load(loadAddr, data); err != nil {
		return nil, errors.Wrapf(err, "load %s", path)
	}

	slog.Info("Loaded program image", "path", path, "bytes", len(data), "addr", fmt.Sprintf("0x%04X", loadAddr))
	return m, nil
}

// CPU returns the machine's CPU.
func (m *Machine) CPU() *cpu.CPU {
	return m.cpu
}

// Memory returns the machine's memory bus.
func (m *Machine) Memory() *memory.MMU {
	return m.mem
}

// Step executes one instruction and returns the cycles it took.
func (m *Machine) Step() (int, error) {
	if !m.Trace || m.cpu.Halted() || m.cpu.Stopped() {
		return m.cpu.Tick(m.mem)
	}

	// decode on a copy first so the trace shows what is about to run
	regs := *m.cpu.Registers()
	pc := regs.Read16(cpu.PC)
	in, decodeErr := cpu.Decode(&regs, m.mem)

	cycles, err := m.cpu.Tick(m.mem)
	if err != nil {
		return cycles, err
	}
	if decodeErr == nil {
		slog.Debug("Executed instruction",
			"pc", fmt.Sprintf("0x%04X", pc),
			"opcode", fmt.Sprintf("0x%02X", in.Opcode),
			"instr", in.String(),
			"cycles", cycles)
	}
	return cycles, nil
}

// Run steps the machine until maxSteps instructions have run, the CPU
// executes STOP, or a fault occurs. It returns the number of steps taken.
func (m *Machine) Run(maxSteps int) (int, error) {
	for steps := 0; steps < maxSteps; steps++ {
		if m.cpu.Stopped() {
			slog.Info("CPU stopped", "pc", fmt.Sprintf("0x%04X", m.cpu.Registers().Read16(cpu.PC)), "steps", steps)
			return steps, nil
		}
		if _, err := m.Step(); err != nil {
			return steps, err
		}
	}
	return maxSteps, nil
}

// Digest hashes the current machine state.
func (m *Machine) Digest() (uint64, error) {
	return debug.Digest(debug.Capture(m.cpu), m.mem)
}

// ExtractDebugData returns the CPU state along with a window of memory
// around PC and the interrupt registers.
func (m *Machine) ExtractDebugData() *debug.CompleteDebugData {
	if m.cpu == nil || m.mem == nil {
		return nil
	}

	state := debug.Capture(m.cpu)
	start := uint16(0)
	if state.PC > snapshotBefore {
		start = state.PC - snapshotBefore
	}

	data := &debug.CompleteDebugData{
		CPU:    state,
		Memory: debug.TakeMemorySnapshot(m.mem, start, snapshotSize),
	}
	// both registers live in backed segments
	data.InterruptEnable, _ = m.mem.Read(addr.IE)
	data.InterruptFlags, _ = m.mem.Read(addr.IF)
	return data
}
