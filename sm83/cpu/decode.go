package cpu

import (
	"github.com/pkg/errors"
	"github.com/valerio/go-sm83/sm83/bit"
)

// Reader is the read side of the memory bus, all the decoder needs.
type Reader interface {
	Read(address uint16) (byte, error)
}

// fields holds the three overlapping decompositions of an opcode byte:
//
//	block y z    = [7:6] [5:4] [3:0]
//	block a b    = [7:6] [5:3] [2:0]
//	    i j b    = [7:5] [4:3] [2:0]
type fields struct {
	block, y, z uint8
	a, b        uint8
	i, j        uint8
}

func split(opcode uint8) fields {
	return fields{
		block: bit.Extract(opcode, 7, 6),
		y:     bit.Extract(opcode, 5, 4),
		z:     bit.Extract(opcode, 3, 0),
		a:     bit.Extract(opcode, 5, 3),
		b:     bit.Extract(opcode, 2, 0),
		i:     bit.Extract(opcode, 7, 5),
		j:     bit.Extract(opcode, 4, 3),
	}
}

// wild marks a wildcard field in a pattern.
const wild = -1

// pattern is an opcode test: opcode&mask == value.
type pattern struct {
	mask, value uint8
}

func (p pattern) matches(opcode uint8) bool {
	return opcode&p.mask == p.value
}

// field adds one bit-field constraint to the pattern unless it is a wildcard.
func (p pattern) field(v int, shift, width uint8) pattern {
	if v == wild {
		return p
	}
	m := uint8((1<<width)-1) << shift
	p.mask |= m
	p.value |= uint8(v) << shift & m
	return p
}

// xyz matches against the (block, y, z) decomposition.
func xyz(block, y, z int) pattern {
	return pattern{}.field(block, 6, 2).field(y, 4, 2).field(z, 0, 4)
}

// xab matches against the (block, a, b) decomposition.
func xab(block, a, b int) pattern {
	return pattern{}.field(block, 6, 2).field(a, 3, 3).field(b, 0, 3)
}

// ijb matches against the (i, j, b) decomposition.
func ijb(i, j, b int) pattern {
	return pattern{}.field(i, 5, 3).field(j, 3, 2).field(b, 0, 3)
}

type decodeFunc func(d *decoder, f fields) (Instruction, error)

type decodeRule struct {
	pattern
	decode decodeFunc
}

// op builds a decodeFunc for an instruction without trailing operands.
func op(o Op, operands func(f fields) Instruction) decodeFunc {
	return func(_ *decoder, f fields) (Instruction, error) {
		in := Instruction{}
		if operands != nil {
			in = operands(f)
		}
		in.Op = o
		return in, nil
	}
}

// opImm8 builds a decodeFunc that fetches one trailing immediate byte.
func opImm8(o Op, operands func(f fields) Instruction) decodeFunc {
	return func(d *decoder, f fields) (Instruction, error) {
		in := Instruction{}
		if operands != nil {
			in = operands(f)
		}
		n, err := d.fetch8()
		if err != nil {
			return Instruction{}, err
		}
		in.Op = o
		in.Imm8 = n
		return in, nil
	}
}

// opImm16 builds a decodeFunc that fetches a trailing little endian word.
func opImm16(o Op, operands func(f fields) Instruction) decodeFunc {
	return func(d *decoder, f fields) (Instruction, error) {
		in := Instruction{}
		if operands != nil {
			in = operands(f)
		}
		nn, err := d.fetch16()
		if err != nil {
			return Instruction{}, err
		}
		in.Op = o
		in.Imm16 = nn
		return in, nil
	}
}

func pairY(f fields) Instruction   { return Instruction{Pair: R16(f.y)} }
func memY(f fields) Instruction    { return Instruction{Mem: R16Mem(f.y)} }
func stkY(f fields) Instruction    { return Instruction{Stk: R16Stk(f.y)} }
func dstA(f fields) Instruction    { return Instruction{Dst: R8(f.a)} }
func srcB(f fields) Instruction    { return Instruction{Src: R8(f.b)} }
func condJ(f fields) Instruction   { return Instruction{Cond: Cond(f.j)} }
func vectorA(f fields) Instruction { return Instruction{Bit: f.a} }
func ldR8R8(f fields) Instruction  { return Instruction{Dst: R8(f.a), Src: R8(f.b)} }

// baseRules is the decoding table for unprefixed opcodes. The first matching
// rule wins, so full byte literals must come before the wildcard rows they
// overlap with (HALT before LD r8,r8, JR before JR cc, ...).
var baseRules = []decodeRule{
	// block 0
	{xyz(0, 0, 0x0), op(OpNop, nil)},
	{xyz(0, wild, 0x1), opImm16(OpLdR16Imm16, pairY)},
	{xyz(0, wild, 0x2), op(OpLdR16MemA, memY)},
	{xyz(0, wild, 0xA), op(OpLdAR16Mem, memY)},
	{xyz(0, 0, 0x8), opImm16(OpLdImm16SP, nil)},
	{xyz(0, wild, 0x3), op(OpIncR16, pairY)},
	{xyz(0, wild, 0xB), op(OpDecR16, pairY)},
	{xyz(0, wild, 0x9), op(OpAddHLR16, pairY)},
	{xab(0, wild, 0x4), op(OpIncR8, dstA)},
	{xab(0, wild, 0x5), op(OpDecR8, dstA)},
	{xab(0, wild, 0x6), opImm8(OpLdR8Imm8, dstA)},
	{xyz(0, 0, 0x7), op(OpRlca, nil)},
	{xyz(0, 0, 0xF), op(OpRrca, nil)},
	{xyz(0, 1, 0x7), op(OpRla, nil)},
	{xyz(0, 1, 0xF), op(OpRra, nil)},
	{xyz(0, 2, 0x7), op(OpDaa, nil)},
	{xyz(0, 2, 0xF), op(OpCpl, nil)},
	{xyz(0, 3, 0x7), op(OpScf, nil)},
	{xyz(0, 3, 0xF), op(OpCcf, nil)},
	{ijb(0, 3, 0), opImm8(OpJr, nil)},
	{ijb(1, wild, 0), opImm8(OpJrCond, condJ)},
	{xyz(0, 1, 0x0), opImm8(OpStop, nil)},

	// block 1
	{xab(1, 6, 6), op(OpHalt, nil)},
	{xab(1, wild, wild), op(OpLdR8R8, ldR8R8)},

	// block 2
	{xab(2, 0, wild), op(OpAddR8, srcB)},
	{xab(2, 1, wild), op(OpAdcR8, srcB)},
	{xab(2, 2, wild), op(OpSubR8, srcB)},
	{xab(2, 3, wild), op(OpSbcR8, srcB)},
	{xab(2, 4, wild), op(OpAndR8, srcB)},
	{xab(2, 5, wild), op(OpXorR8, srcB)},
	{xab(2, 6, wild), op(OpOrR8, srcB)},
	{xab(2, 7, wild), op(OpCpR8, srcB)},

	// block 3
	{xyz(3, 0, 0x6), opImm8(OpAddImm8, nil)},
	{xyz(3, 0, 0xE), opImm8(OpAdcImm8, nil)},
	{xyz(3, 1, 0x6), opImm8(OpSubImm8, nil)},
	{xyz(3, 1, 0xE), opImm8(OpSbcImm8, nil)},
	{xyz(3, 2, 0x6), opImm8(OpAndImm8, nil)},
	{xyz(3, 2, 0xE), opImm8(OpXorImm8, nil)},
	{xyz(3, 3, 0x6), opImm8(OpOrImm8, nil)},
	{xyz(3, 3, 0xE), opImm8(OpCpImm8, nil)},
	{ijb(6, wild, 0), op(OpRetCond, condJ)},
	{ijb(6, 1, 1), op(OpRet, nil)},
	{ijb(6, 3, 1), op(OpReti, nil)},
	{ijb(6, wild, 2), opImm16(OpJpCond, condJ)},
	{ijb(6, 0, 3), opImm16(OpJp, nil)},
	{ijb(7, 1, 1), op(OpJpHL, nil)},
	{ijb(6, wild, 4), opImm16(OpCallCond, condJ)},
	{ijb(6, 1, 5), opImm16(OpCall, nil)},
	{xab(3, wild, 7), op(OpRst, vectorA)},
	{xyz(3, wild, 0x1), op(OpPop, stkY)},
	{xyz(3, wild, 0x5), op(OpPush, stkY)},
	{xyz(3, 0, 0xB), decodePrefixed},
	{xyz(3, 2, 0x2), op(OpLdhCA, nil)},
	{xyz(3, 2, 0x0), opImm8(OpLdhImm8A, nil)},
	{xyz(3, 2, 0xA), opImm16(OpLdImm16A, nil)},
	{xyz(3, 3, 0x2), op(OpLdhAC, nil)},
	{xyz(3, 3, 0x0), opImm8(OpLdhAImm8, nil)},
	{xyz(3, 3, 0xA), opImm16(OpLdAImm16, nil)},
	{xyz(3, 2, 0x8), opImm8(OpAddSPImm8, nil)},
	{xyz(3, 3, 0x8), opImm8(OpLdHLSPImm8, nil)},
	{xyz(3, 3, 0x9), op(OpLdSPHL, nil)},
	{xyz(3, 3, 0x3), op(OpDi, nil)},
	{xyz(3, 3, 0xB), op(OpEi, nil)},
}

// shiftOps is indexed by the middle field of a group 0 CB opcode.
var shiftOps = [8]Op{OpRlc, OpRrc, OpRl, OpRr, OpSla, OpSra, OpSwap, OpSrl}

// decodePrefixed fetches the byte after 0xCB and decodes it as
// (group, index, target) = [7:6] [5:3] [2:0].
func decodePrefixed(d *decoder, _ fields) (Instruction, error) {
	opcode, err := d.fetch8()
	if err != nil {
		return Instruction{}, err
	}

	group := bit.Extract(opcode, 7, 6)
	index := bit.Extract(opcode, 5, 3)
	target := R8(bit.Extract(opcode, 2, 0))

	in := Instruction{Opcode: bit.Combine(0xCB, opcode), Dst: target}
	switch group {
	case 0:
		in.Op = shiftOps[index]
	case 1:
		in.Op, in.Bit = OpBit, index
	case 2:
		in.Op, in.Bit = OpRes, index
	case 3:
		in.Op, in.Bit = OpSet, index
	default:
		return Instruction{}, &DecodeError{Opcode: in.Opcode, PC: d.start}
	}
	return in, nil
}

// decoder pulls instruction bytes through PC.
type decoder struct {
	regs  *Registers
	bus   Reader
	start uint16
}

func (d *decoder) fetch8() (uint8, error) {
	pc := d.regs.Read16(PC)
	n, err := d.bus.Read(pc)
	if err != nil {
		return 0, errors.Wrapf(err, "fetch at 0x%04X", pc)
	}
	d.regs.Write16(PC, pc+1)
	return n, nil
}

func (d *decoder) fetch16() (uint16, error) {
	low, err := d.fetch8()
	if err != nil {
		return 0, err
	}
	high, err := d.fetch8()
	if err != nil {
		return 0, err
	}
	return bit.Combine(high, low), nil
}

// Decode fetches the instruction at PC, advancing PC past the opcode and wild
// immediate operands. Opcodes that match no rule yield a *DecodeError.
func Decode(regs *Registers, bus Reader) (Instruction, error) {
	d := &decoder{regs: regs, bus: bus, start: regs.Read16(PC)}

	opcode, err := d.fetch8()
	if err != nil {
		return Instruction{}, err
	}

	f := split(opcode)
	for _, rule := range baseRules {
		if !rule.matches(opcode) {
			continue
		}
		in, err := rule.decode(d, f)
		if err != nil {
			return Instruction{}, err
		}
		if !in.Prefixed() {
			in.Opcode = uint16(opcode)
		}
		return in, nil
	}

	return Instruction{}, &DecodeError{Opcode: uint16(opcode), PC: d.start}
}
