package cpu

import "github.com/valerio/go-sm83/sm83/bit"

// add performs A = A + value + carry and sets all four flags.
func (c *CPU) add(value, carry uint8) {
	a := c.regs.Read8(A)
	result := a + value + carry
	c.regs.Write8(A, result)
	c.regs.setFlags(result == 0, false, bit.HalfCarryAdd(a, value, carry), bit.CarryAdd(a, value, carry))
}

// sub computes A - value - carry, storing the result unless discard is set (CP).
func (c *CPU) sub(value, carry uint8, discard bool) {
	a := c.regs.Read8(A)
	result := a - value - carry
	if !discard {
		c.regs.Write8(A, result)
	}
	c.regs.setFlags(result == 0, true, bit.HalfBorrowSub(a, value, carry), bit.BorrowSub(a, value, carry))
}

func (c *CPU) and(value uint8) {
	result := c.regs.Read8(A) & value
	c.regs.Write8(A, result)
	c.regs.setFlags(result == 0, false, true, false)
}

func (c *CPU) xor(value uint8) {
	result := c.regs.Read8(A) ^ value
	c.regs.Write8(A, result)
	c.regs.setFlags(result == 0, false, false, false)
}

func (c *CPU) or(value uint8) {
	result := c.regs.Read8(A) | value
	c.regs.Write8(A, result)
	c.regs.setFlags(result == 0, false, false, false)
}

// alu applies one of the eight accumulator operations selected by op.
func (c *CPU) alu(op Op, value uint8) {
	carry := c.regs.ReadFlag(FlagC)
	switch op {
	case OpAddR8, OpAddImm8:
		c.add(value, 0)
	case OpAdcR8, OpAdcImm8:
		c.add(value, carry)
	case OpSubR8, OpSubImm8:
		c.sub(value, 0, false)
	case OpSbcR8, OpSbcImm8:
		c.sub(value, carry, false)
	case OpAndR8, OpAndImm8:
		c.and(value)
	case OpXorR8, OpXorImm8:
		c.xor(value)
	case OpOrR8, OpOrImm8:
		c.or(value)
	case OpCpR8, OpCpImm8:
		c.sub(value, 0, true)
	}
}

// inc increments value, leaving C untouched.
func (c *CPU) inc(value uint8) uint8 {
	result := value + 1
	c.regs.setFlagTo(FlagZ, result == 0)
	c.regs.setFlagTo(FlagN, false)
	c.regs.setFlagTo(FlagH, bit.HalfCarryAdd(value, 1, 0))
	return result
}

// dec decrements value, leaving C untouched.
func (c *CPU) dec(value uint8) uint8 {
	result := value - 1
	c.regs.setFlagTo(FlagZ, result == 0)
	c.regs.setFlagTo(FlagN, true)
	c.regs.setFlagTo(FlagH, bit.HalfBorrowSub(value, 1, 0))
	return result
}

// addHL adds a 16 bit value to HL. Z is preserved.
func (c *CPU) addHL(value uint16) {
	hl := c.regs.Read16(HL)
	c.regs.Write16(HL, hl+value)
	c.regs.setFlagTo(FlagN, false)
	c.regs.setFlagTo(FlagH, bit.HalfCarryAdd16(hl, value))
	c.regs.setFlagTo(FlagC, bit.CarryAdd16(hl, value))
}

// addSPSigned returns SP + e8. H and C come from the unsigned add of the
// offset to the low byte of SP; Z and N are cleared.
func (c *CPU) addSPSigned(offset uint8) uint16 {
	sp := c.regs.Read16(SP)
	low := bit.Low(sp)
	c.regs.setFlags(false, false, bit.HalfCarryAdd(low, offset, 0), bit.CarryAdd(low, offset, 0))
	return sp + uint16(int16(int8(offset)))
}

// daa adjusts A to packed BCD after an addition or subtraction.
func (c *CPU) daa() {
	a := c.regs.Read8(A)
	carry := c.regs.isSet(FlagC)
	half := c.regs.isSet(FlagH)

	if !c.regs.isSet(FlagN) {
		if carry || a > 0x99 {
			a += 0x60
			carry = true
		}
		if half || a&0x0F > 0x09 {
			a += 0x06
		}
	} else {
		if carry {
			a -= 0x60
		}
		if half {
			a -= 0x06
		}
	}

	c.regs.Write8(A, a)
	c.regs.setFlagTo(FlagZ, a == 0)
	c.regs.setFlagTo(FlagH, false)
	c.regs.setFlagTo(FlagC, carry)
}

func (c *CPU) cpl() {
	c.regs.Write8(A, ^c.regs.Read8(A))
	c.regs.setFlagTo(FlagN, true)
	c.regs.setFlagTo(FlagH, true)
}

func (c *CPU) scf() {
	c.regs.setFlagTo(FlagN, false)
	c.regs.setFlagTo(FlagH, false)
	c.regs.setFlagTo(FlagC, true)
}

func (c *CPU) ccf() {
	c.regs.setFlagTo(FlagN, false)
	c.regs.setFlagTo(FlagH, false)
	c.regs.setFlagTo(FlagC, !c.regs.isSet(FlagC))
}

// shift runs one of the CB rotate/shift operations on value and returns the
// result. Z follows the result, N and H are cleared, C takes the bit shifted
// out (cleared for SWAP).
func (c *CPU) shift(op Op, value uint8) uint8 {
	carryIn := c.regs.ReadFlag(FlagC)
	var result, carryOut uint8

	switch op {
	case OpRlc:
		carryOut = value >> 7
		result = value<<1 | carryOut
	case OpRrc:
		carryOut = value & 1
		result = value>>1 | carryOut<<7
	case OpRl:
		carryOut = value >> 7
		result = value<<1 | carryIn
	case OpRr:
		carryOut = value & 1
		result = value>>1 | carryIn<<7
	case OpSla:
		carryOut = value >> 7
		result = value << 1
	case OpSra:
		carryOut = value & 1
		result = value>>1 | value&0x80
	case OpSwap:
		result = value<<4 | value>>4
	case OpSrl:
		carryOut = value & 1
		result = value >> 1
	}

	c.regs.setFlags(result == 0, false, false, carryOut == 1)
	return result
}

// rotateA implements RLCA, RRCA, RLA and RRA: the CB rotate applied to A with
// Z forced to zero.
func (c *CPU) rotateA(op Op) {
	result := c.shift(op, c.regs.Read8(A))
	c.regs.Write8(A, result)
	c.regs.setFlagTo(FlagZ, false)
}

// testBit implements BIT n: Z is set when the bit is clear, C is unchanged.
func (c *CPU) testBit(index, value uint8) {
	c.regs.setFlagTo(FlagZ, !bit.IsSet(index, value))
	c.regs.setFlagTo(FlagN, false)
	c.regs.setFlagTo(FlagH, true)
}

// condition evaluates a branch condition against the current flags.
func (c *CPU) condition(cond Cond) bool {
	switch cond {
	case CondNZ:
		return !c.regs.isSet(FlagZ)
	case CondZ:
		return c.regs.isSet(FlagZ)
	case CondNC:
		return !c.regs.isSet(FlagC)
	default:
		return c.regs.isSet(FlagC)
	}
}
