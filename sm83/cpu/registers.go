package cpu

import "fmt"

// Reg8 selects one of the 8 bit registers.
type Reg8 uint8

const (
	A Reg8 = iota
	F
	B
	C
	D
	E
	H
	L
)

var reg8Names = [...]string{A: "A", F: "F", B: "B", C: "C", D: "D", E: "E", H: "H", L: "L"}

func (r Reg8) String() string {
	if int(r) < len(reg8Names) {
		return reg8Names[r]
	}
	return fmt.Sprintf("Reg8(%d)", uint8(r))
}

// Reg16 selects one of the 16 bit register slots.
type Reg16 uint8

const (
	AF Reg16 = iota
	BC
	DE
	HL
	SP
	PC
)

var reg16Names = [...]string{AF: "AF", BC: "BC", DE: "DE", HL: "HL", SP: "SP", PC: "PC"}

func (r Reg16) String() string {
	if int(r) < len(reg16Names) {
		return reg16Names[r]
	}
	return fmt.Sprintf("Reg16(%d)", uint8(r))
}

// Flag is one of the 4 possible flags used in the flag register (low part of AF)
type Flag uint8

const (
	FlagZ Flag = 0x80
	FlagN Flag = 0x40
	FlagH Flag = 0x20
	FlagC Flag = 0x10
)

// flagMask covers the bits of F that exist; the low nibble always reads 0.
const flagMask = 0xF0

func (f Flag) String() string {
	switch f {
	case FlagZ:
		return "Z"
	case FlagN:
		return "N"
	case FlagH:
		return "H"
	case FlagC:
		return "C"
	}
	return fmt.Sprintf("Flag(0x%02X)", uint8(f))
}

// pair is a 16 bit register whose halves can be addressed independently.
type pair uint16

func (p pair) high() uint8 {
	return uint8(p >> 8)
}

func (p pair) low() uint8 {
	return uint8(p)
}

func (p *pair) setHigh(high uint8) {
	*p = pair(uint16(high)<<8 | uint16(*p)&0x00FF)
}

func (p *pair) setLow(low uint8) {
	*p = pair(uint16(*p)&0xFF00 | uint16(low))
}

// Registers is the SM83 register file: AF, BC, DE, HL, SP and PC.
// The flags Z, N, H and C live in the upper nibble of F.
type Registers struct {
	af pair
	bc pair
	de pair
	hl pair
	sp pair
	pc pair
}

// NewRegisters returns a register file holding the given 16 bit values.
// The unused low nibble of F is cleared.
func NewRegisters(af, bc, de, hl, sp, pc uint16) Registers {
	return Registers{
		af: pair(af & 0xFFF0),
		bc: pair(bc),
		de: pair(de),
		hl: pair(hl),
		sp: pair(sp),
		pc: pair(pc),
	}
}

func (r *Registers) slot(reg Reg16) *pair {
	switch reg {
	case AF:
		return &r.af
	case BC:
		return &r.bc
	case DE:
		return &r.de
	case HL:
		return &r.hl
	case SP:
		return &r.sp
	case PC:
		return &r.pc
	}
	panic(fmt.Sprintf("invalid 16 bit register selector %d", uint8(reg)))
}

// Read8 returns the value of an 8 bit register.
func (r *Registers) Read8(reg Reg8) uint8 {
	switch reg {
	case A:
		return r.af.high()
	case F:
		return r.af.low()
	case B:
		return r.bc.high()
	case C:
		return r.bc.low()
	case D:
		return r.de.high()
	case E:
		return r.de.low()
	case H:
		return r.hl.high()
	case L:
		return r.hl.low()
	}
	panic(fmt.Sprintf("invalid 8 bit register selector %d", uint8(reg)))
}

// Write8 sets an 8 bit register without disturbing the other half of its pair.
// Writes to F drop the low nibble.
func (r *Registers) Write8(reg Reg8, value uint8) {
	switch reg {
	case A:
		r.af.setHigh(value)
	case F:
		r.af.setLow(value & flagMask)
	case B:
		r.bc.setHigh(value)
	case C:
		r.bc.setLow(value)
	case D:
		r.de.setHigh(value)
	case E:
		r.de.setLow(value)
	case H:
		r.hl.setHigh(value)
	case L:
		r.hl.setLow(value)
	default:
		panic(fmt.Sprintf("invalid 8 bit register selector %d", uint8(reg)))
	}
}

// Read16 returns the value of a 16 bit register.
func (r *Registers) Read16(reg Reg16) uint16 {
	return uint16(*r.slot(reg))
}

// Write16 sets a 16 bit register. Writes to AF drop the low nibble of F.
func (r *Registers) Write16(reg Reg16, value uint16) {
	if reg == AF {
		value &= 0xFFF0
	}
	*r.slot(reg) = pair(value)
}

// ReadFlag returns 1 if the flag is set, 0 otherwise.
func (r *Registers) ReadFlag(flag Flag) uint8 {
	if r.isSet(flag) {
		return 1
	}
	return 0
}

// WriteFlag sets the flag when value is non zero and clears it otherwise.
// The other flags and the unused low nibble are left untouched.
func (r *Registers) WriteFlag(flag Flag, value uint8) {
	r.setFlagTo(flag, value != 0)
}

func (r *Registers) isSet(flag Flag) bool {
	return r.af.low()&uint8(flag) != 0
}

func (r *Registers) setFlagTo(flag Flag, condition bool) {
	f := r.af.low()
	if condition {
		f |= uint8(flag)
	} else {
		f &^= uint8(flag)
	}
	r.af.setLow(f & flagMask)
}

// setFlags replaces all four flags at once.
func (r *Registers) setFlags(z, n, h, c bool) {
	r.setFlagTo(FlagZ, z)
	r.setFlagTo(FlagN, n)
	r.setFlagTo(FlagH, h)
	r.setFlagTo(FlagC, c)
}

// FlagString returns a human-readable representation of the flag register
func (r *Registers) FlagString() string {
	flags := []byte("----")
	for i, flag := range []Flag{FlagZ, FlagN, FlagH, FlagC} {
		if r.isSet(flag) {
			flags[i] = flag.String()[0]
		}
	}
	return string(flags)
}

func (r Registers) String() string {
	return fmt.Sprintf("AF=%04X BC=%04X DE=%04X HL=%04X SP=%04X PC=%04X [%s]",
		uint16(r.af), uint16(r.bc), uint16(r.de), uint16(r.hl), uint16(r.sp), uint16(r.pc), r.FlagString())
}
