package cpu

import (
	"github.com/pkg/errors"
	"github.com/valerio/go-sm83/sm83/addr"
)

// CPU is the SM83 core: a register file plus the little state that lives
// outside of it (interrupt master enable, low power modes, cycle counter).
// It owns no memory; every Tick borrows the bus it runs against.
type CPU struct {
	regs Registers

	// metadata
	ime       bool
	eiPending bool // EI delay: IME is set after the next instruction
	halted    bool
	stopped   bool
	cycles    uint64
}

// Option configures a CPU at construction time.
type Option func(*CPU)

// WithRegisters starts the CPU from the given register file.
func WithRegisters(regs Registers) Option {
	return func(c *CPU) {
		c.regs = regs
	}
}

// WithPostBootState loads the register values the DMG boot ROM leaves behind
// when it hands control to the cartridge at 0x0100.
func WithPostBootState() Option {
	return WithRegisters(NewRegisters(0x01B0, 0x0013, 0x00D8, 0x014D, 0xFFFE, 0x0100))
}

// New returns a CPU in its power-on state: all registers zero, IME off.
func New(opts ...Option) *CPU {
	c := &CPU{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Registers exposes the register file for inspection and for collaborators
// such as an interrupt controller.
func (c *CPU) Registers() *Registers {
	return &c.regs
}

// IME reports whether the interrupt master enable flag is set.
func (c *CPU) IME() bool {
	return c.ime
}

// SetIME sets the interrupt master enable flag directly and cancels a
// pending EI.
func (c *CPU) SetIME(enabled bool) {
	c.ime = enabled
	c.eiPending = false
}

// Halted reports whether a HALT is waiting for an interrupt.
func (c *CPU) Halted() bool {
	return c.halted
}

// Stopped reports whether the CPU executed STOP and has not been resumed.
func (c *CPU) Stopped() bool {
	return c.stopped
}

// Resume leaves the STOP and HALT low power modes.
func (c *CPU) Resume() {
	c.stopped = false
	c.halted = false
}

// Cycles returns the machine cycles elapsed since construction.
func (c *CPU) Cycles() uint64 {
	return c.cycles
}

// Tick fetches, decodes and executes a single instruction and returns the
// machine cycles it took. While stopped, or halted with no interrupt
// requested, Tick only burns one cycle.
//
// Faults are returned as errors wrapping *DecodeError or *memory.BusFault.
// The register file is rolled back so PC points at the faulting instruction;
// memory writes the instruction already made are kept.
func (c *CPU) Tick(bus Bus) (int, error) {
	if c.stopped {
		c.cycles++
		return 1, nil
	}

	if c.halted {
		wake, err := c.interruptRequested(bus)
		if err != nil {
			return 0, err
		}
		if !wake {
			c.cycles++
			return 1, nil
		}
		c.halted = false
	}

	saved := c.regs
	pc := c.regs.Read16(PC)
	enableAfter := c.eiPending

	in, err := Decode(&c.regs, bus)
	if err != nil {
		c.regs = saved
		return 0, err
	}

	cycles, err := c.Execute(in, bus)
	if err != nil {
		c.regs = saved
		return 0, errors.Wrapf(err, "execute %s at 0x%04X", in, pc)
	}

	// EI executed on the previous tick and nothing cancelled it since.
	if enableAfter && c.eiPending {
		c.ime = true
		c.eiPending = false
	}

	c.cycles += uint64(cycles)
	return cycles, nil
}

// interruptRequested reports whether any interrupt is both enabled and
// flagged, which is what wakes the CPU from HALT.
func (c *CPU) interruptRequested(bus Bus) (bool, error) {
	enabled, err := bus.Read(addr.IE)
	if err != nil {
		return false, err
	}
	flagged, err := bus.Read(addr.IF)
	if err != nil {
		return false, err
	}
	return enabled&flagged&0x1F != 0, nil
}
