package cpu

import "fmt"

// R8 is the 3 bit register operand used by 8 bit instructions.
// Index 6 addresses the byte in memory pointed at by HL.
type R8 uint8

const (
	R8B R8 = iota
	R8C
	R8D
	R8E
	R8H
	R8L
	R8HLMem
	R8A
)

var r8Registers = [...]Reg8{R8B: B, R8C: C, R8D: D, R8E: E, R8H: H, R8L: L, R8A: A}

func (r R8) String() string {
	if r == R8HLMem {
		return "(HL)"
	}
	return r8Registers[r&7].String()
}

// R16 is the 2 bit register pair operand of loads and 16 bit arithmetic.
type R16 uint8

const (
	R16BC R16 = iota
	R16DE
	R16HL
	R16SP
)

var r16Registers = [...]Reg16{R16BC: BC, R16DE: DE, R16HL: HL, R16SP: SP}

func (r R16) reg() Reg16 { return r16Registers[r&3] }

func (r R16) String() string { return r.reg().String() }

// R16Mem is the 2 bit pointer operand of LD (r16),A and LD A,(r16).
// The HL forms increment or decrement HL after the access.
type R16Mem uint8

const (
	R16MemBC R16Mem = iota
	R16MemDE
	R16MemHLInc
	R16MemHLDec
)

func (r R16Mem) String() string {
	switch r {
	case R16MemBC:
		return "(BC)"
	case R16MemDE:
		return "(DE)"
	case R16MemHLInc:
		return "(HL+)"
	default:
		return "(HL-)"
	}
}

// R16Stk is the 2 bit register pair operand of PUSH and POP, where AF takes
// the place of SP.
type R16Stk uint8

const (
	R16StkBC R16Stk = iota
	R16StkDE
	R16StkHL
	R16StkAF
)

var r16StkRegisters = [...]Reg16{R16StkBC: BC, R16StkDE: DE, R16StkHL: HL, R16StkAF: AF}

func (r R16Stk) reg() Reg16 { return r16StkRegisters[r&3] }

func (r R16Stk) String() string { return r.reg().String() }

// Cond is a branch condition.
type Cond uint8

const (
	CondNZ Cond = iota
	CondZ
	CondNC
	CondC
)

var condNames = [...]string{CondNZ: "NZ", CondZ: "Z", CondNC: "NC", CondC: "C"}

func (c Cond) String() string { return condNames[c&3] }

// Op identifies an instruction family.
type Op uint8

const (
	OpNop Op = iota
	OpLdR16Imm16
	OpLdR16MemA
	OpLdAR16Mem
	OpLdImm16SP
	OpIncR16
	OpDecR16
	OpAddHLR16
	OpIncR8
	OpDecR8
	OpLdR8Imm8
	OpRlca
	OpRrca
	OpRla
	OpRra
	OpDaa
	OpCpl
	OpScf
	OpCcf
	OpJr
	OpJrCond
	OpStop

	OpLdR8R8
	OpHalt

	OpAddR8
	OpAdcR8
	OpSubR8
	OpSbcR8
	OpAndR8
	OpXorR8
	OpOrR8
	OpCpR8

	OpAddImm8
	OpAdcImm8
	OpSubImm8
	OpSbcImm8
	OpAndImm8
	OpXorImm8
	OpOrImm8
	OpCpImm8
	OpRetCond
	OpRet
	OpReti
	OpJpCond
	OpJp
	OpJpHL
	OpCallCond
	OpCall
	OpRst
	OpPop
	OpPush
	OpLdhCA
	OpLdhImm8A
	OpLdImm16A
	OpLdhAC
	OpLdhAImm8
	OpLdAImm16
	OpAddSPImm8
	OpLdHLSPImm8
	OpLdSPHL
	OpDi
	OpEi

	// CB prefixed
	OpRlc
	OpRrc
	OpRl
	OpRr
	OpSla
	OpSra
	OpSwap
	OpSrl
	OpBit
	OpRes
	OpSet
)

// Instruction is a decoded instruction: its family plus the operands the
// opcode encodes. Only the fields relevant to Op are meaningful:
//
//   - Dst/Src: 8 bit operands (Dst alone for single operand forms)
//   - Pair, Mem, Stk: the three register pair encodings
//   - Cond: branch condition of the conditional forms
//   - Bit: bit index for BIT/RES/SET, vector index for RST
//   - Imm8, Imm16: trailing immediates
type Instruction struct {
	Op     Op
	Opcode uint16 // raw opcode; 0xCBxx for prefixed instructions

	Dst  R8
	Src  R8
	Pair R16
	Mem  R16Mem
	Stk  R16Stk
	Cond Cond
	Bit  uint8

	Imm8  uint8
	Imm16 uint16
}

// Prefixed reports whether the instruction belongs to the CB extended set.
func (in Instruction) Prefixed() bool {
	return in.Op >= OpRlc
}

// Length returns the encoded size of the instruction in bytes.
func (in Instruction) Length() int {
	switch in.Op {
	case OpLdR8Imm8, OpJr, OpJrCond, OpStop,
		OpAddImm8, OpAdcImm8, OpSubImm8, OpSbcImm8, OpAndImm8, OpXorImm8, OpOrImm8, OpCpImm8,
		OpLdhImm8A, OpLdhAImm8, OpAddSPImm8, OpLdHLSPImm8:
		return 2
	case OpLdR16Imm16, OpLdImm16SP, OpJpCond, OpJp, OpCallCond, OpCall, OpLdImm16A, OpLdAImm16:
		return 3
	}
	if in.Prefixed() {
		return 2
	}
	return 1
}

var aluNames = map[Op]string{
	OpAddR8: "ADD A,", OpAddImm8: "ADD A,",
	OpAdcR8: "ADC A,", OpAdcImm8: "ADC A,",
	OpSubR8: "SUB A,", OpSubImm8: "SUB A,",
	OpSbcR8: "SBC A,", OpSbcImm8: "SBC A,",
	OpAndR8: "AND A,", OpAndImm8: "AND A,",
	OpXorR8: "XOR A,", OpXorImm8: "XOR A,",
	OpOrR8: "OR A,", OpOrImm8: "OR A,",
	OpCpR8: "CP A,", OpCpImm8: "CP A,",
}

var cbNames = map[Op]string{
	OpRlc: "RLC", OpRrc: "RRC", OpRl: "RL", OpRr: "RR",
	OpSla: "SLA", OpSra: "SRA", OpSwap: "SWAP", OpSrl: "SRL",
	OpBit: "BIT", OpRes: "RES", OpSet: "SET",
}

// String renders the instruction in assembler syntax.
func (in Instruction) String() string {
	switch in.Op {
	case OpNop:
		return "NOP"
	case OpLdR16Imm16:
		return fmt.Sprintf("LD %s,$%04X", in.Pair, in.Imm16)
	case OpLdR16MemA:
		return fmt.Sprintf("LD %s,A", in.Mem)
	case OpLdAR16Mem:
		return fmt.Sprintf("LD A,%s", in.Mem)
	case OpLdImm16SP:
		return fmt.Sprintf("LD ($%04X),SP", in.Imm16)
	case OpIncR16:
		return fmt.Sprintf("INC %s", in.Pair)
	case OpDecR16:
		return fmt.Sprintf("DEC %s", in.Pair)
	case OpAddHLR16:
		return fmt.Sprintf("ADD HL,%s", in.Pair)
	case OpIncR8:
		return fmt.Sprintf("INC %s", in.Dst)
	case OpDecR8:
		return fmt.Sprintf("DEC %s", in.Dst)
	case OpLdR8Imm8:
		return fmt.Sprintf("LD %s,$%02X", in.Dst, in.Imm8)
	case OpRlca:
		return "RLCA"
	case OpRrca:
		return "RRCA"
	case OpRla:
		return "RLA"
	case OpRra:
		return "RRA"
	case OpDaa:
		return "DAA"
	case OpCpl:
		return "CPL"
	case OpScf:
		return "SCF"
	case OpCcf:
		return "CCF"
	case OpJr:
		return fmt.Sprintf("JR %+d", int8(in.Imm8))
	case OpJrCond:
		return fmt.Sprintf("JR %s,%+d", in.Cond, int8(in.Imm8))
	case OpStop:
		return "STOP"
	case OpLdR8R8:
		return fmt.Sprintf("LD %s,%s", in.Dst, in.Src)
	case OpHalt:
		return "HALT"
	case OpAddR8, OpAdcR8, OpSubR8, OpSbcR8, OpAndR8, OpXorR8, OpOrR8, OpCpR8:
		return aluNames[in.Op] + in.Src.String()
	case OpAddImm8, OpAdcImm8, OpSubImm8, OpSbcImm8, OpAndImm8, OpXorImm8, OpOrImm8, OpCpImm8:
		return fmt.Sprintf("%s$%02X", aluNames[in.Op], in.Imm8)
	case OpRetCond:
		return fmt.Sprintf("RET %s", in.Cond)
	case OpRet:
		return "RET"
	case OpReti:
		return "RETI"
	case OpJpCond:
		return fmt.Sprintf("JP %s,$%04X", in.Cond, in.Imm16)
	case OpJp:
		return fmt.Sprintf("JP $%04X", in.Imm16)
	case OpJpHL:
		return "JP HL"
	case OpCallCond:
		return fmt.Sprintf("CALL %s,$%04X", in.Cond, in.Imm16)
	case OpCall:
		return fmt.Sprintf("CALL $%04X", in.Imm16)
	case OpRst:
		return fmt.Sprintf("RST $%02X", in.Bit*8)
	case OpPop:
		return fmt.Sprintf("POP %s", in.Stk)
	case OpPush:
		return fmt.Sprintf("PUSH %s", in.Stk)
	case OpLdhCA:
		return "LDH (C),A"
	case OpLdhImm8A:
		return fmt.Sprintf("LDH ($FF%02X),A", in.Imm8)
	case OpLdImm16A:
		return fmt.Sprintf("LD ($%04X),A", in.Imm16)
	case OpLdhAC:
		return "LDH A,(C)"
	case OpLdhAImm8:
		return fmt.Sprintf("LDH A,($FF%02X)", in.Imm8)
	case OpLdAImm16:
		return fmt.Sprintf("LD A,($%04X)", in.Imm16)
	case OpAddSPImm8:
		return fmt.Sprintf("ADD SP,%+d", int8(in.Imm8))
	case OpLdHLSPImm8:
		return fmt.Sprintf("LD HL,SP%+d", int8(in.Imm8))
	case OpLdSPHL:
		return "LD SP,HL"
	case OpDi:
		return "DI"
	case OpEi:
		return "EI"
	case OpRlc, OpRrc, OpRl, OpRr, OpSla, OpSra, OpSwap, OpSrl:
		return fmt.Sprintf("%s %s", cbNames[in.Op], in.Dst)
	case OpBit, OpRes, OpSet:
		return fmt.Sprintf("%s %d,%s", cbNames[in.Op], in.Bit, in.Dst)
	}
	return fmt.Sprintf("Op(%d)", uint8(in.Op))
}
