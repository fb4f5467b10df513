package cpu

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valerio/go-sm83/sm83/addr"
	"github.com/valerio/go-sm83/sm83/memory"
)

// newTestCPU returns a CPU about to execute at programStart with the stack at
// the top of high RAM.
func newTestCPU() *CPU {
	return New(WithRegisters(NewRegisters(0, 0, 0, 0, 0xFFFE, programStart)))
}

// tick runs one instruction and fails the test on a fault.
func tick(t *testing.T, cpu *CPU, bus Bus) int {
	t.Helper()
	cycles, err := cpu.Tick(bus)
	require.NoError(t, err)
	return cycles
}

func TestCPU_New(t *testing.T) {
	cpu := New()
	assert.Equal(t, Registers{}, *cpu.Registers())
	assert.False(t, cpu.IME())
	assert.False(t, cpu.Halted())
	assert.Equal(t, uint64(0), cpu.Cycles())

	cpu = New(WithPostBootState())
	assert.Equal(t, "AF=01B0 BC=0013 DE=00D8 HL=014D SP=FFFE PC=0100 [Z-HC]", cpu.Registers().String())
}

func TestCPU_endToEnd(t *testing.T) {
	bus := newBus(t, 0x3E, 0x05, 0x06, 0x03, 0x80) // LD A,5; LD B,3; ADD A,B
	cpu := newTestCPU()

	total := 0
	for i := 0; i < 3; i++ {
		total += tick(t, cpu, bus)
	}

	regs := cpu.Registers()
	assert.Equal(t, uint8(8), regs.Read8(A))
	assert.Equal(t, uint8(3), regs.Read8(B))
	assert.Equal(t, uint8(0), regs.Read8(F))
	assert.Equal(t, programStart+5, regs.Read16(PC))
	assert.Equal(t, 5, total)
	assert.Equal(t, uint64(5), cpu.Cycles())
}

func TestCPU_incDec(t *testing.T) {
	testCases := []struct {
		desc   string
		opcode byte
		arg    uint8
		carry  bool
		want   uint8
		flags  Flag
	}{
		{desc: "INC increases", opcode: 0x3C, arg: 0x0A, want: 0x0B},
		{desc: "INC sets half carry", opcode: 0x3C, arg: 0x0F, want: 0x10, flags: FlagH},
		{desc: "INC wraps to zero", opcode: 0x3C, arg: 0xFF, want: 0x00, flags: FlagZ | FlagH},
		{desc: "INC keeps carry", opcode: 0x3C, arg: 0x01, carry: true, want: 0x02, flags: FlagC},
		{desc: "DEC decreases", opcode: 0x3D, arg: 0x0A, want: 0x09, flags: FlagN},
		{desc: "DEC sets half carry", opcode: 0x3D, arg: 0x10, want: 0x0F, flags: FlagN | FlagH},
		{desc: "DEC wraps from zero", opcode: 0x3D, arg: 0x00, want: 0xFF, flags: FlagN | FlagH},
		{desc: "DEC sets zero", opcode: 0x3D, arg: 0x01, want: 0x00, flags: FlagN | FlagZ},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			bus := newBus(t, tC.opcode)
			cpu := newTestCPU()
			cpu.Registers().Write8(A, tC.arg)
			if tC.carry {
				cpu.Registers().WriteFlag(FlagC, 1)
			}

			assert.Equal(t, 1, tick(t, cpu, bus))
			assert.Equal(t, tC.want, cpu.Registers().Read8(A))
			assert.Equal(t, uint8(tC.flags), cpu.Registers().Read8(F))
		})
	}
}

func TestCPU_incDecMemory(t *testing.T) {
	bus := newBus(t, 0x34, 0x35, 0x35) // INC (HL); DEC (HL); DEC (HL)
	require.NoError(t, bus.Write(0xC100, 0xFF))
	cpu := newTestCPU()
	cpu.Registers().Write16(HL, 0xC100)

	assert.Equal(t, 3, tick(t, cpu, bus))
	value, _ := bus.Read(0xC100)
	assert.Equal(t, uint8(0x00), value)
	assert.Equal(t, uint8(FlagZ|FlagH), cpu.Registers().Read8(F))

	tick(t, cpu, bus)
	tick(t, cpu, bus)
	value, _ = bus.Read(0xC100)
	assert.Equal(t, uint8(0xFE), value)
}

func TestCPU_alu(t *testing.T) {
	testCases := []struct {
		desc   string
		opcode byte
		a, b   uint8
		carry  bool
		want   uint8
		flags  Flag
	}{
		{desc: "ADD overflows to zero", opcode: 0x80, a: 0xFF, b: 0x01, want: 0x00, flags: FlagZ | FlagH | FlagC},
		{desc: "ADD half carry", opcode: 0x80, a: 0x0F, b: 0x01, want: 0x10, flags: FlagH},
		{desc: "ADD carry without half carry", opcode: 0x80, a: 0xF0, b: 0x20, want: 0x10, flags: FlagC},
		{desc: "ADC carry in causes half carry", opcode: 0x88, a: 0x0F, b: 0x00, carry: true, want: 0x10, flags: FlagH},
		{desc: "ADC carry in causes carry", opcode: 0x88, a: 0xFF, b: 0x00, carry: true, want: 0x00, flags: FlagZ | FlagH | FlagC},
		{desc: "ADC without carry in", opcode: 0x88, a: 0x01, b: 0x01, want: 0x02},
		{desc: "SUB half borrow", opcode: 0x90, a: 0x10, b: 0x01, want: 0x0F, flags: FlagN | FlagH},
		{desc: "SUB borrow", opcode: 0x90, a: 0x01, b: 0x02, want: 0xFF, flags: FlagN | FlagH | FlagC},
		{desc: "SUB to zero", opcode: 0x90, a: 0x42, b: 0x42, want: 0x00, flags: FlagZ | FlagN},
		{desc: "SBC carry in causes zero", opcode: 0x98, a: 0x10, b: 0x0F, carry: true, want: 0x00, flags: FlagZ | FlagN | FlagH},
		{desc: "SBC carry in causes borrow", opcode: 0x98, a: 0x00, b: 0x00, carry: true, want: 0xFF, flags: FlagN | FlagH | FlagC},
		{desc: "AND", opcode: 0xA0, a: 0xF0, b: 0x0F, want: 0x00, flags: FlagZ | FlagH},
		{desc: "AND clears carry", opcode: 0xA0, a: 0xFF, b: 0x0F, carry: true, want: 0x0F, flags: FlagH},
		{desc: "XOR", opcode: 0xA8, a: 0xAA, b: 0xAA, want: 0x00, flags: FlagZ},
		{desc: "OR", opcode: 0xB0, a: 0x00, b: 0x01, carry: true, want: 0x01},
		{desc: "CP equal keeps A", opcode: 0xB8, a: 0x42, b: 0x42, want: 0x42, flags: FlagZ | FlagN},
		{desc: "CP less keeps A", opcode: 0xB8, a: 0x10, b: 0x20, want: 0x10, flags: FlagN | FlagC},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			bus := newBus(t, tC.opcode)
			cpu := newTestCPU()
			regs := cpu.Registers()
			regs.Write8(A, tC.a)
			regs.Write8(B, tC.b)
			if tC.carry {
				regs.WriteFlag(FlagC, 1)
			}

			assert.Equal(t, 1, tick(t, cpu, bus))
			assert.Equal(t, tC.want, regs.Read8(A))
			assert.Equal(t, uint8(tC.flags), regs.Read8(F))
		})
	}
}

func TestCPU_aluOperands(t *testing.T) {
	// ADD A,(HL); SUB A,n8
	bus := newBus(t, 0x86, 0xD6, 0x03)
	require.NoError(t, bus.Write(0xC100, 0x05))
	cpu := newTestCPU()
	cpu.Registers().Write16(HL, 0xC100)
	cpu.Registers().Write8(A, 0x01)

	assert.Equal(t, 2, tick(t, cpu, bus))
	assert.Equal(t, uint8(0x06), cpu.Registers().Read8(A))
	assert.Equal(t, 2, tick(t, cpu, bus))
	assert.Equal(t, uint8(0x03), cpu.Registers().Read8(A))
}

func TestCPU_daa(t *testing.T) {
	testCases := []struct {
		desc   string
		opcode byte // ADD A,B or SUB A,B before DAA
		a, b   uint8
		want   uint8
		flags  Flag
	}{
		{desc: "add without adjust", opcode: 0x80, a: 0x12, b: 0x34, want: 0x46},
		{desc: "add adjusts low nibble", opcode: 0x80, a: 0x15, b: 0x27, want: 0x42},
		{desc: "add adjusts after half carry", opcode: 0x80, a: 0x09, b: 0x09, want: 0x18},
		{desc: "add wraps to zero with carry", opcode: 0x80, a: 0x99, b: 0x01, want: 0x00, flags: FlagZ | FlagC},
		{desc: "add after carry", opcode: 0x80, a: 0x90, b: 0x90, want: 0x80, flags: FlagC},
		{desc: "sub adjusts after half borrow", opcode: 0x90, a: 0x42, b: 0x15, want: 0x27, flags: FlagN},
		{desc: "sub adjusts after borrow", opcode: 0x90, a: 0x10, b: 0x20, want: 0x90, flags: FlagN | FlagC},
		{desc: "sub to zero", opcode: 0x90, a: 0x33, b: 0x33, want: 0x00, flags: FlagZ | FlagN},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			bus := newBus(t, tC.opcode, 0x27)
			cpu := newTestCPU()
			cpu.Registers().Write8(A, tC.a)
			cpu.Registers().Write8(B, tC.b)

			tick(t, cpu, bus)
			assert.Equal(t, 1, tick(t, cpu, bus))
			assert.Equal(t, tC.want, cpu.Registers().Read8(A))
			assert.Equal(t, uint8(tC.flags), cpu.Registers().Read8(F))
		})
	}
}

func TestCPU_accumulatorOps(t *testing.T) {
	testCases := []struct {
		desc   string
		opcode byte
		a      uint8
		flags  Flag // flags going in
		want   uint8
		result Flag
	}{
		{desc: "RLCA", opcode: 0x07, a: 0x85, want: 0x0B, result: FlagC},
		{desc: "RLCA clears Z", opcode: 0x07, a: 0x00, flags: FlagZ, want: 0x00},
		{desc: "RRCA", opcode: 0x0F, a: 0x01, want: 0x80, result: FlagC},
		{desc: "RLA uses carry", opcode: 0x17, a: 0x80, flags: FlagC, want: 0x01, result: FlagC},
		{desc: "RRA uses carry", opcode: 0x1F, a: 0x00, flags: FlagC, want: 0x80},
		{desc: "CPL", opcode: 0x2F, a: 0x35, flags: FlagZ | FlagC, want: 0xCA, result: FlagZ | FlagN | FlagH | FlagC},
		{desc: "SCF", opcode: 0x37, a: 0x01, flags: FlagZ | FlagN | FlagH, want: 0x01, result: FlagZ | FlagC},
		{desc: "CCF sets", opcode: 0x3F, a: 0x01, flags: FlagN, want: 0x01, result: FlagC},
		{desc: "CCF clears", opcode: 0x3F, a: 0x01, flags: FlagZ | FlagC, want: 0x01, result: FlagZ},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			bus := newBus(t, tC.opcode)
			cpu := newTestCPU()
			cpu.Registers().Write8(A, tC.a)
			cpu.Registers().Write8(F, uint8(tC.flags))

			assert.Equal(t, 1, tick(t, cpu, bus))
			assert.Equal(t, tC.want, cpu.Registers().Read8(A))
			assert.Equal(t, uint8(tC.result), cpu.Registers().Read8(F))
		})
	}
}

func TestCPU_addHL(t *testing.T) {
	testCases := []struct {
		desc     string
		hl, bc   uint16
		flags    Flag
		want     uint16
		expected Flag
	}{
		{desc: "half carry from bit 11 keeps Z", hl: 0x0FFF, bc: 0x0001, flags: FlagZ | FlagN, want: 0x1000, expected: FlagZ | FlagH},
		{desc: "carry", hl: 0xFFFF, bc: 0x0001, want: 0x0000, expected: FlagH | FlagC},
		{desc: "no carry", hl: 0x1234, bc: 0x0101, want: 0x1335},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			bus := newBus(t, 0x09)
			cpu := newTestCPU()
			cpu.Registers().Write16(HL, tC.hl)
			cpu.Registers().Write16(BC, tC.bc)
			cpu.Registers().Write8(F, uint8(tC.flags))

			assert.Equal(t, 2, tick(t, cpu, bus))
			assert.Equal(t, tC.want, cpu.Registers().Read16(HL))
			assert.Equal(t, uint8(tC.expected), cpu.Registers().Read8(F))
		})
	}
}

func TestCPU_stackPointerRelative(t *testing.T) {
	testCases := []struct {
		desc    string
		program []byte
		sp      uint16
		target  Reg16
		want    uint16
		flags   Flag
		cycles  int
	}{
		{desc: "ADD SP carries from low byte", program: []byte{0xE8, 0x01}, sp: 0x00FF, target: SP, want: 0x0100, flags: FlagH | FlagC, cycles: 4},
		{desc: "ADD SP negative without carry", program: []byte{0xE8, 0xFF}, sp: 0x0000, target: SP, want: 0xFFFF, cycles: 4},
		{desc: "ADD SP negative with carry", program: []byte{0xE8, 0xFF}, sp: 0x0001, target: SP, want: 0x0000, flags: FlagH | FlagC, cycles: 4},
		{desc: "LD HL,SP+e8", program: []byte{0xF8, 0x02}, sp: 0xFFF8, target: HL, want: 0xFFFA, cycles: 3},
		{desc: "LD HL,SP-e8 half carry", program: []byte{0xF8, 0xFE}, sp: 0x000F, target: HL, want: 0x000D, flags: FlagH | FlagC, cycles: 3},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			bus := newBus(t, tC.program...)
			cpu := newTestCPU()
			cpu.Registers().Write16(SP, tC.sp)
			cpu.Registers().Write8(F, uint8(FlagZ|FlagN))

			assert.Equal(t, tC.cycles, tick(t, cpu, bus))
			assert.Equal(t, tC.want, cpu.Registers().Read16(tC.target))
			assert.Equal(t, uint8(tC.flags), cpu.Registers().Read8(F))
		})
	}
}

func TestCPU_loads(t *testing.T) {
	t.Run("register to register", func(t *testing.T) {
		bus := newBus(t, 0x41, 0x70, 0x5E) // LD B,C; LD (HL),B; LD E,(HL)
		cpu := newTestCPU()
		regs := cpu.Registers()
		regs.Write8(C, 0x99)
		regs.Write16(HL, 0xC100)

		assert.Equal(t, 1, tick(t, cpu, bus))
		assert.Equal(t, uint8(0x99), regs.Read8(B))
		assert.Equal(t, 2, tick(t, cpu, bus))
		value, _ := bus.Read(0xC100)
		assert.Equal(t, uint8(0x99), value)
		assert.Equal(t, 2, tick(t, cpu, bus))
		assert.Equal(t, uint8(0x99), regs.Read8(E))
	})

	t.Run("HL post increment and decrement", func(t *testing.T) {
		bus := newBus(t, 0x22, 0x3A) // LD (HL+),A; LD A,(HL-)
		require.NoError(t, bus.Write(0xC101, 0x77))
		cpu := newTestCPU()
		regs := cpu.Registers()
		regs.Write8(A, 0x11)
		regs.Write16(HL, 0xC100)

		assert.Equal(t, 2, tick(t, cpu, bus))
		value, _ := bus.Read(0xC100)
		assert.Equal(t, uint8(0x11), value)
		assert.Equal(t, uint16(0xC101), regs.Read16(HL))

		assert.Equal(t, 2, tick(t, cpu, bus))
		assert.Equal(t, uint8(0x77), regs.Read8(A))
		assert.Equal(t, uint16(0xC100), regs.Read16(HL))
	})

	t.Run("high page", func(t *testing.T) {
		bus := newBus(t, 0xE0, 0x80, 0xF2, 0xE2) // LDH ($FF80),A; LDH A,(C); LDH (C),A
		require.NoError(t, bus.Write(0xFF81, 0x5A))
		cpu := newTestCPU()
		regs := cpu.Registers()
		regs.Write8(A, 0xA5)
		regs.Write8(C, 0x81)

		assert.Equal(t, 3, tick(t, cpu, bus))
		value, _ := bus.Read(0xFF80)
		assert.Equal(t, uint8(0xA5), value)

		assert.Equal(t, 2, tick(t, cpu, bus))
		assert.Equal(t, uint8(0x5A), regs.Read8(A))

		regs.Write8(C, 0x82)
		assert.Equal(t, 2, tick(t, cpu, bus))
		value, _ = bus.Read(0xFF82)
		assert.Equal(t, uint8(0x5A), value)
	})

	t.Run("absolute", func(t *testing.T) {
		// LD ($C100),A; LD A,($C200); LD ($C300),SP
		bus := newBus(t, 0xEA, 0x00, 0xC1, 0xFA, 0x00, 0xC2, 0x08, 0x00, 0xC3)
		require.NoError(t, bus.Write(0xC200, 0x3C))
		cpu := newTestCPU()
		regs := cpu.Registers()
		regs.Write8(A, 0x42)
		regs.Write16(SP, 0xBEEF)

		assert.Equal(t, 4, tick(t, cpu, bus))
		value, _ := bus.Read(0xC100)
		assert.Equal(t, uint8(0x42), value)

		assert.Equal(t, 4, tick(t, cpu, bus))
		assert.Equal(t, uint8(0x3C), regs.Read8(A))

		assert.Equal(t, 5, tick(t, cpu, bus))
		low, _ := bus.Read(0xC300)
		high, _ := bus.Read(0xC301)
		assert.Equal(t, uint8(0xEF), low)
		assert.Equal(t, uint8(0xBE), high)
	})

	t.Run("16 bit", func(t *testing.T) {
		bus := newBus(t, 0x21, 0x34, 0x12, 0xF9, 0x23, 0x0B) // LD HL,$1234; LD SP,HL; INC HL; DEC BC
		cpu := newTestCPU()
		regs := cpu.Registers()

		assert.Equal(t, 3, tick(t, cpu, bus))
		assert.Equal(t, 2, tick(t, cpu, bus))
		assert.Equal(t, uint16(0x1234), regs.Read16(SP))
		assert.Equal(t, 2, tick(t, cpu, bus))
		assert.Equal(t, uint16(0x1235), regs.Read16(HL))
		assert.Equal(t, 2, tick(t, cpu, bus))
		assert.Equal(t, uint16(0xFFFF), regs.Read16(BC))
		assert.Equal(t, uint8(0), regs.Read8(F))
	})
}

func TestCPU_stack(t *testing.T) {
	bus := newBus(t, 0xC5, 0xD1) // PUSH BC; POP DE
	cpu := newTestCPU()
	regs := cpu.Registers()
	regs.Write16(BC, 0x1234)

	assert.Equal(t, 4, tick(t, cpu, bus))
	assert.Equal(t, uint16(0xFFFC), regs.Read16(SP))
	word, err := bus.ReadWord(0xFFFC)
	require.NoError(t, err)
	assert.Equal(t, uint16(0x1234), word)

	assert.Equal(t, 3, tick(t, cpu, bus))
	assert.Equal(t, uint16(0x1234), regs.Read16(DE))
	assert.Equal(t, uint16(0xFFFE), regs.Read16(SP))
}

func TestCPU_popAFMasksFlags(t *testing.T) {
	bus := newBus(t, 0xC5, 0xF1) // PUSH BC; POP AF
	cpu := newTestCPU()
	cpu.Registers().Write16(BC, 0x12FF)

	tick(t, cpu, bus)
	tick(t, cpu, bus)
	assert.Equal(t, uint16(0x12F0), cpu.Registers().Read16(AF))
}

func TestCPU_relativeJumps(t *testing.T) {
	testCases := []struct {
		desc    string
		program []byte
		flags   Flag
		cycles  int
		pc      uint16
	}{
		{desc: "JR Z not taken", program: []byte{0x28, 0x0A}, cycles: 2, pc: programStart + 2},
		{desc: "JR Z taken", program: []byte{0x28, 0x0A}, flags: FlagZ, cycles: 3, pc: programStart + 12},
		{desc: "JR NC taken backwards", program: []byte{0x30, 0xFE}, cycles: 3, pc: programStart},
		{desc: "JR C not taken", program: []byte{0x38, 0xFE}, cycles: 2, pc: programStart + 2},
		{desc: "JR NZ not taken", program: []byte{0x20, 0x10}, flags: FlagZ, cycles: 2, pc: programStart + 2},
		{desc: "JR", program: []byte{0x18, 0x80}, cycles: 3, pc: programStart + 2 - 128},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			bus := newBus(t, tC.program...)
			cpu := newTestCPU()
			cpu.Registers().Write8(F, uint8(tC.flags))

			assert.Equal(t, tC.cycles, tick(t, cpu, bus))
			assert.Equal(t, tC.pc, cpu.Registers().Read16(PC))
		})
	}
}

func TestCPU_absoluteJumps(t *testing.T) {
	testCases := []struct {
		desc    string
		program []byte
		flags   Flag
		hl      uint16
		cycles  int
		pc      uint16
	}{
		{desc: "JP", program: []byte{0xC3, 0x00, 0xD0}, cycles: 4, pc: 0xD000},
		{desc: "JP NZ taken", program: []byte{0xC2, 0x00, 0xD0}, cycles: 4, pc: 0xD000},
		{desc: "JP Z not taken", program: []byte{0xCA, 0x00, 0xD0}, cycles: 3, pc: programStart + 3},
		{desc: "JP C taken", program: []byte{0xDA, 0x00, 0xD0}, flags: FlagC, cycles: 4, pc: 0xD000},
		{desc: "JP HL", program: []byte{0xE9}, hl: 0x1234, cycles: 1, pc: 0x1234},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			bus := newBus(t, tC.program...)
			cpu := newTestCPU()
			cpu.Registers().Write8(F, uint8(tC.flags))
			cpu.Registers().Write16(HL, tC.hl)

			assert.Equal(t, tC.cycles, tick(t, cpu, bus))
			assert.Equal(t, tC.pc, cpu.Registers().Read16(PC))
		})
	}
}

func TestCPU_callAndReturn(t *testing.T) {
	bus := newBus(t, 0xCD, 0x10, 0xC0) // CALL $C010
	require.NoError(t, bus.Write(0xC010, 0xC9))
	cpu := newTestCPU()
	regs := cpu.Registers()

	assert.Equal(t, 6, tick(t, cpu, bus))
	assert.Equal(t, uint16(0xC010), regs.Read16(PC))
	assert.Equal(t, uint16(0xFFFC), regs.Read16(SP))
	ret, _ := bus.ReadWord(0xFFFC)
	assert.Equal(t, programStart+3, ret)

	assert.Equal(t, 4, tick(t, cpu, bus))
	assert.Equal(t, programStart+3, regs.Read16(PC))
	assert.Equal(t, uint16(0xFFFE), regs.Read16(SP))
}

func TestCPU_conditionalCallAndReturn(t *testing.T) {
	// CALL NZ,$C010; CALL Z,$C010; at $C010: RET Z; RET NZ
	bus := newBus(t, 0xC4, 0x10, 0xC0, 0xCC, 0x10, 0xC0)
	require.NoError(t, bus.Load(0xC010, []byte{0xC8, 0xC0}))
	cpu := newTestCPU()
	regs := cpu.Registers()
	regs.Write8(F, uint8(FlagZ))

	assert.Equal(t, 3, tick(t, cpu, bus))
	assert.Equal(t, programStart+3, regs.Read16(PC))

	assert.Equal(t, 6, tick(t, cpu, bus))
	assert.Equal(t, uint16(0xC010), regs.Read16(PC))

	assert.Equal(t, 5, tick(t, cpu, bus))
	assert.Equal(t, programStart+6, regs.Read16(PC))
	assert.Equal(t, uint16(0xFFFE), regs.Read16(SP))

	regs.Write16(PC, 0xC011)
	assert.Equal(t, 2, tick(t, cpu, bus))
	assert.Equal(t, uint16(0xC012), regs.Read16(PC))
}

func TestCPU_restart(t *testing.T) {
	for i, vector := range addr.RSTVectors {
		opcode := 0xC7 | byte(i)<<3
		bus := newBus(t, opcode)
		cpu := newTestCPU()

		assert.Equal(t, 4, tick(t, cpu, bus), "RST $%02X", vector)
		assert.Equal(t, vector, cpu.Registers().Read16(PC))
		ret, _ := bus.ReadWord(0xFFFC)
		assert.Equal(t, programStart+1, ret)
	}
}

func TestCPU_prefixed(t *testing.T) {
	testCases := []struct {
		desc   string
		opcode byte
		value  uint8
		flags  Flag // flags going in
		want   uint8
		result Flag
	}{
		{desc: "RLC", opcode: 0x00, value: 0x80, want: 0x01, result: FlagC},
		{desc: "RLC zero", opcode: 0x00, value: 0x00, want: 0x00, result: FlagZ},
		{desc: "RRC", opcode: 0x08, value: 0x01, want: 0x80, result: FlagC},
		{desc: "RL with carry in", opcode: 0x10, value: 0x00, flags: FlagC, want: 0x01},
		{desc: "RR", opcode: 0x18, value: 0x01, want: 0x00, result: FlagZ | FlagC},
		{desc: "SLA", opcode: 0x20, value: 0xC0, want: 0x80, result: FlagC},
		{desc: "SRA keeps sign", opcode: 0x28, value: 0x81, want: 0xC0, result: FlagC},
		{desc: "SWAP clears carry", opcode: 0x30, value: 0xF0, flags: FlagC, want: 0x0F},
		{desc: "SRL", opcode: 0x38, value: 0x01, want: 0x00, result: FlagZ | FlagC},
		{desc: "BIT set bit", opcode: 0x78, value: 0x80, flags: FlagC, want: 0x80, result: FlagH | FlagC},
		{desc: "BIT clear bit", opcode: 0x40, value: 0xFE, flags: FlagN, want: 0xFE, result: FlagZ | FlagH},
		{desc: "RES", opcode: 0xB8, value: 0xFF, flags: FlagZ, want: 0x7F, result: FlagZ},
		{desc: "SET", opcode: 0xC0, value: 0x00, want: 0x01},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			bus := newBus(t, 0xCB, tC.opcode) // target B
			cpu := newTestCPU()
			cpu.Registers().Write8(B, tC.value)
			cpu.Registers().Write8(F, uint8(tC.flags))

			assert.Equal(t, 2, tick(t, cpu, bus))
			assert.Equal(t, tC.want, cpu.Registers().Read8(B))
			assert.Equal(t, uint8(tC.result), cpu.Registers().Read8(F))
		})
	}
}

func TestCPU_prefixedMemory(t *testing.T) {
	bus := newBus(t, 0xCB, 0x46, 0xCB, 0xFE, 0xCB, 0x36) // BIT 0,(HL); SET 7,(HL); SWAP (HL)
	require.NoError(t, bus.Write(0xC100, 0x12))
	cpu := newTestCPU()
	cpu.Registers().Write16(HL, 0xC100)

	assert.Equal(t, 3, tick(t, cpu, bus))
	assert.Equal(t, uint8(FlagZ|FlagH), cpu.Registers().Read8(F))

	assert.Equal(t, 4, tick(t, cpu, bus))
	value, _ := bus.Read(0xC100)
	assert.Equal(t, uint8(0x92), value)

	assert.Equal(t, 4, tick(t, cpu, bus))
	value, _ = bus.Read(0xC100)
	assert.Equal(t, uint8(0x29), value)
}

func TestCPU_interruptMasterEnable(t *testing.T) {
	t.Run("EI takes effect after the next instruction", func(t *testing.T) {
		bus := newBus(t, 0xFB, 0x00, 0x00)
		cpu := newTestCPU()

		tick(t, cpu, bus)
		assert.False(t, cpu.IME())
		tick(t, cpu, bus)
		assert.True(t, cpu.IME())
	})

	t.Run("DI cancels a pending EI", func(t *testing.T) {
		bus := newBus(t, 0xFB, 0xF3, 0x00)
		cpu := newTestCPU()

		tick(t, cpu, bus)
		tick(t, cpu, bus)
		tick(t, cpu, bus)
		assert.False(t, cpu.IME())
	})

	t.Run("DI disables immediately", func(t *testing.T) {
		bus := newBus(t, 0xF3)
		cpu := newTestCPU()
		cpu.SetIME(true)

		tick(t, cpu, bus)
		assert.False(t, cpu.IME())
	})

	t.Run("RETI enables immediately", func(t *testing.T) {
		bus := newBus(t, 0xD9)
		require.NoError(t, bus.WriteWord(0xFFFC, 0xC123))
		cpu := newTestCPU()
		cpu.Registers().Write16(SP, 0xFFFC)

		assert.Equal(t, 4, tick(t, cpu, bus))
		assert.True(t, cpu.IME())
		assert.Equal(t, uint16(0xC123), cpu.Registers().Read16(PC))
	})
}

func TestCPU_halt(t *testing.T) {
	bus := newBus(t, 0x76, 0x00)
	cpu := newTestCPU()

	assert.Equal(t, 1, tick(t, cpu, bus))
	assert.True(t, cpu.Halted())

	// no interrupt requested: PC stays put
	assert.Equal(t, 1, tick(t, cpu, bus))
	assert.Equal(t, programStart+1, cpu.Registers().Read16(PC))

	// flagged but not enabled
	require.NoError(t, bus.Write(addr.IF, 0x04))
	tick(t, cpu, bus)
	assert.True(t, cpu.Halted())

	require.NoError(t, bus.Write(addr.IE, 0x04))
	assert.Equal(t, 1, tick(t, cpu, bus))
	assert.False(t, cpu.Halted())
	assert.Equal(t, programStart+2, cpu.Registers().Read16(PC))
}

func TestCPU_stop(t *testing.T) {
	bus := newBus(t, 0x10, 0x00, 0x00)
	cpu := newTestCPU()

	assert.Equal(t, 1, tick(t, cpu, bus))
	assert.True(t, cpu.Stopped())
	assert.Equal(t, programStart+2, cpu.Registers().Read16(PC))

	assert.Equal(t, 1, tick(t, cpu, bus))
	assert.Equal(t, programStart+2, cpu.Registers().Read16(PC))

	cpu.Resume()
	tick(t, cpu, bus)
	assert.False(t, cpu.Stopped())
	assert.Equal(t, programStart+3, cpu.Registers().Read16(PC))
}

func TestCPU_faults(t *testing.T) {
	t.Run("decode fault", func(t *testing.T) {
		bus := newBus(t, 0x00, 0xD3)
		cpu := newTestCPU()
		tick(t, cpu, bus)

		_, err := cpu.Tick(bus)
		require.Error(t, err)
		assert.True(t, IsFault(err))

		var decodeErr *DecodeError
		require.True(t, errors.As(err, &decodeErr))
		assert.Equal(t, uint16(0xD3), decodeErr.Opcode)
		assert.Equal(t, programStart+1, decodeErr.PC)
		assert.Equal(t, programStart+1, cpu.Registers().Read16(PC))
		assert.Equal(t, uint64(1), cpu.Cycles())
	})

	t.Run("bus fault rolls back registers", func(t *testing.T) {
		bus := newBus(t, 0x2A) // LD A,(HL+)
		cpu := newTestCPU()
		cpu.Registers().Write16(HL, 0xE000)

		_, err := cpu.Tick(bus)
		require.Error(t, err)
		assert.True(t, IsFault(err))
		assert.Contains(t, err.Error(), "execute LD A,(HL+) at 0xC000")

		var fault *memory.BusFault
		require.True(t, errors.As(err, &fault))
		assert.Equal(t, uint16(0xE000), fault.Address)
		assert.False(t, fault.Write)

		regs := cpu.Registers()
		assert.Equal(t, programStart, regs.Read16(PC))
		assert.Equal(t, uint16(0xE000), regs.Read16(HL))
	})

	t.Run("write fault", func(t *testing.T) {
		bus := newBus(t, 0xEA, 0xA0, 0xFE) // LD ($FEA0),A
		cpu := newTestCPU()

		_, err := cpu.Tick(bus)
		var fault *memory.BusFault
		require.True(t, errors.As(err, &fault))
		assert.True(t, fault.Write)
		assert.Equal(t, memory.SegmentUnmapped, fault.Segment)
	})

	t.Run("execution continues after the host fixes the fault", func(t *testing.T) {
		bus := newBus(t, 0x7E) // LD A,(HL)
		cpu := newTestCPU()
		cpu.Registers().Write16(HL, 0xE000)

		_, err := cpu.Tick(bus)
		require.Error(t, err)

		cpu.Registers().Write16(HL, 0xC000)
		tick(t, cpu, bus)
		assert.Equal(t, uint8(0x7E), cpu.Registers().Read8(A))
	})
}
