package cpu

import (
	"github.com/valerio/go-sm83/sm83/addr"
	"github.com/valerio/go-sm83/sm83/bit"
)

// Bus is the memory interface the CPU executes against. memory.MMU
// implements it.
type Bus interface {
	Reader
	Write(address uint16, value byte) error
	ReadWord(address uint16) (uint16, error)
	WriteWord(address uint16, value uint16) error
}

// readR8 reads an 8 bit operand, going through the bus for (HL).
func (c *CPU) readR8(bus Bus, r R8) (uint8, error) {
	if r == R8HLMem {
		return bus.Read(c.regs.Read16(HL))
	}
	return c.regs.Read8(r8Registers[r]), nil
}

func (c *CPU) writeR8(bus Bus, r R8, value uint8) error {
	if r == R8HLMem {
		return bus.Write(c.regs.Read16(HL), value)
	}
	c.regs.Write8(r8Registers[r], value)
	return nil
}

// indirect resolves an (r16mem) operand to its address, applying the HL
// post increment or decrement.
func (c *CPU) indirect(m R16Mem) uint16 {
	switch m {
	case R16MemBC:
		return c.regs.Read16(BC)
	case R16MemDE:
		return c.regs.Read16(DE)
	case R16MemHLInc:
		hl := c.regs.Read16(HL)
		c.regs.Write16(HL, hl+1)
		return hl
	default:
		hl := c.regs.Read16(HL)
		c.regs.Write16(HL, hl-1)
		return hl
	}
}

func (c *CPU) push(bus Bus, value uint16) error {
	sp := c.regs.Read16(SP) - 2
	c.regs.Write16(SP, sp)
	return bus.WriteWord(sp, value)
}

func (c *CPU) pop(bus Bus) (uint16, error) {
	sp := c.regs.Read16(SP)
	value, err := bus.ReadWord(sp)
	if err != nil {
		return 0, err
	}
	c.regs.Write16(SP, sp+2)
	return value, nil
}

// branchCycles returns yes when the branch is taken and no otherwise.
func branchCycles(taken bool, yes, no int) int {
	if taken {
		return yes
	}
	return no
}

// Execute runs a decoded instruction against the register file and bus and
// returns the elapsed machine cycles. PC must already point past the
// instruction, as left by Decode.
func (c *CPU) Execute(in Instruction, bus Bus) (int, error) {
	r := &c.regs

	switch in.Op {
	case OpNop:
		return 1, nil

	case OpLdR16Imm16:
		r.Write16(in.Pair.reg(), in.Imm16)
		return 3, nil

	case OpLdR16MemA:
		return 2, bus.Write(c.indirect(in.Mem), r.Read8(A))

	case OpLdAR16Mem:
		value, err := bus.Read(c.indirect(in.Mem))
		if err != nil {
			return 0, err
		}
		r.Write8(A, value)
		return 2, nil

	case OpLdImm16SP:
		return 5, bus.WriteWord(in.Imm16, r.Read16(SP))

	case OpIncR16:
		r.Write16(in.Pair.reg(), r.Read16(in.Pair.reg())+1)
		return 2, nil

	case OpDecR16:
		r.Write16(in.Pair.reg(), r.Read16(in.Pair.reg())-1)
		return 2, nil

	case OpAddHLR16:
		c.addHL(r.Read16(in.Pair.reg()))
		return 2, nil

	case OpIncR8, OpDecR8:
		value, err := c.readR8(bus, in.Dst)
		if err != nil {
			return 0, err
		}
		if in.Op == OpIncR8 {
			value = c.inc(value)
		} else {
			value = c.dec(value)
		}
		if err := c.writeR8(bus, in.Dst, value); err != nil {
			return 0, err
		}
		if in.Dst == R8HLMem {
			return 3, nil
		}
		return 1, nil

	case OpLdR8Imm8:
		if err := c.writeR8(bus, in.Dst, in.Imm8); err != nil {
			return 0, err
		}
		if in.Dst == R8HLMem {
			return 3, nil
		}
		return 2, nil

	case OpRlca:
		c.rotateA(OpRlc)
		return 1, nil
	case OpRrca:
		c.rotateA(OpRrc)
		return 1, nil
	case OpRla:
		c.rotateA(OpRl)
		return 1, nil
	case OpRra:
		c.rotateA(OpRr)
		return 1, nil
	case OpDaa:
		c.daa()
		return 1, nil
	case OpCpl:
		c.cpl()
		return 1, nil
	case OpScf:
		c.scf()
		return 1, nil
	case OpCcf:
		c.ccf()
		return 1, nil

	case OpJr:
		c.jumpRelative(in.Imm8)
		return 3, nil

	case OpJrCond:
		taken := c.condition(in.Cond)
		if taken {
			c.jumpRelative(in.Imm8)
		}
		return branchCycles(taken, 3, 2), nil

	case OpStop:
		c.stopped = true
		return 1, nil

	case OpHalt:
		c.halted = true
		return 1, nil

	case OpLdR8R8:
		value, err := c.readR8(bus, in.Src)
		if err != nil {
			return 0, err
		}
		if err := c.writeR8(bus, in.Dst, value); err != nil {
			return 0, err
		}
		if in.Src == R8HLMem || in.Dst == R8HLMem {
			return 2, nil
		}
		return 1, nil

	case OpAddR8, OpAdcR8, OpSubR8, OpSbcR8, OpAndR8, OpXorR8, OpOrR8, OpCpR8:
		value, err := c.readR8(bus, in.Src)
		if err != nil {
			return 0, err
		}
		c.alu(in.Op, value)
		if in.Src == R8HLMem {
			return 2, nil
		}
		return 1, nil

	case OpAddImm8, OpAdcImm8, OpSubImm8, OpSbcImm8, OpAndImm8, OpXorImm8, OpOrImm8, OpCpImm8:
		c.alu(in.Op, in.Imm8)
		return 2, nil

	case OpRetCond:
		if !c.condition(in.Cond) {
			return 2, nil
		}
		if err := c.ret(bus); err != nil {
			return 0, err
		}
		return 5, nil

	case OpRet:
		return 4, c.ret(bus)

	case OpReti:
		if err := c.ret(bus); err != nil {
			return 0, err
		}
		c.ime = true
		c.eiPending = false
		return 4, nil

	case OpJpCond:
		taken := c.condition(in.Cond)
		if taken {
			r.Write16(PC, in.Imm16)
		}
		return branchCycles(taken, 4, 3), nil

	case OpJp:
		r.Write16(PC, in.Imm16)
		return 4, nil

	case OpJpHL:
		r.Write16(PC, r.Read16(HL))
		return 1, nil

	case OpCallCond:
		if !c.condition(in.Cond) {
			return 3, nil
		}
		if err := c.call(bus, in.Imm16); err != nil {
			return 0, err
		}
		return 6, nil

	case OpCall:
		return 6, c.call(bus, in.Imm16)

	case OpRst:
		return 4, c.call(bus, addr.RSTVectors[in.Bit&7])

	case OpPop:
		value, err := c.pop(bus)
		if err != nil {
			return 0, err
		}
		r.Write16(in.Stk.reg(), value)
		return 3, nil

	case OpPush:
		return 4, c.push(bus, r.Read16(in.Stk.reg()))

	case OpLdhCA:
		return 2, bus.Write(addr.HighPage+uint16(r.Read8(C)), r.Read8(A))

	case OpLdhImm8A:
		return 3, bus.Write(addr.HighPage+uint16(in.Imm8), r.Read8(A))

	case OpLdImm16A:
		return 4, bus.Write(in.Imm16, r.Read8(A))

	case OpLdhAC:
		return 2, c.loadA(bus, addr.HighPage+uint16(r.Read8(C)))

	case OpLdhAImm8:
		return 3, c.loadA(bus, addr.HighPage+uint16(in.Imm8))

	case OpLdAImm16:
		return 4, c.loadA(bus, in.Imm16)

	case OpAddSPImm8:
		r.Write16(SP, c.addSPSigned(in.Imm8))
		return 4, nil

	case OpLdHLSPImm8:
		r.Write16(HL, c.addSPSigned(in.Imm8))
		return 3, nil

	case OpLdSPHL:
		r.Write16(SP, r.Read16(HL))
		return 2, nil

	case OpDi:
		c.ime = false
		c.eiPending = false
		return 1, nil

	case OpEi:
		if !c.ime {
			c.eiPending = true
		}
		return 1, nil

	case OpRlc, OpRrc, OpRl, OpRr, OpSla, OpSra, OpSwap, OpSrl, OpBit, OpRes, OpSet:
		return c.executePrefixed(in, bus)
	}

	return 0, &DecodeError{Opcode: in.Opcode, PC: r.Read16(PC) - uint16(in.Length())}
}

// executePrefixed runs the CB extended instructions.
func (c *CPU) executePrefixed(in Instruction, bus Bus) (int, error) {
	value, err := c.readR8(bus, in.Dst)
	if err != nil {
		return 0, err
	}

	viaHL := in.Dst == R8HLMem
	if in.Op == OpBit {
		c.testBit(in.Bit, value)
		return branchCycles(viaHL, 3, 2), nil
	}

	switch in.Op {
	case OpRes:
		value = bit.Reset(in.Bit, value)
	case OpSet:
		value = bit.Set(in.Bit, value)
	default:
		value = c.shift(in.Op, value)
	}

	if err := c.writeR8(bus, in.Dst, value); err != nil {
		return 0, err
	}
	return branchCycles(viaHL, 4, 2), nil
}

// jumpRelative adds the signed offset to PC.
func (c *CPU) jumpRelative(offset uint8) {
	pc := c.regs.Read16(PC)
	c.regs.Write16(PC, pc+uint16(int16(int8(offset))))
}

func (c *CPU) call(bus Bus, target uint16) error {
	if err := c.push(bus, c.regs.Read16(PC)); err != nil {
		return err
	}
	c.regs.Write16(PC, target)
	return nil
}

func (c *CPU) ret(bus Bus) error {
	target, err := c.pop(bus)
	if err != nil {
		return err
	}
	c.regs.Write16(PC, target)
	return nil
}

func (c *CPU) loadA(bus Bus, address uint16) error {
	value, err := bus.Read(address)
	if err != nil {
		return err
	}
	c.regs.Write8(A, value)
	return nil
}
