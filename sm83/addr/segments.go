package addr

// Memory map of the 16 bit address space. Every address belongs to exactly one
// of the ranges below; the gap between OAM and I/O is unmapped.
// Reference: https://gbdev.io/pandocs/Memory_Map.html
const (
	// ROM0Start is the start of the fixed ROM bank 0.
	ROM0Start uint16 = 0x0000
	// ROM0End is the last address of ROM bank 0.
	ROM0End uint16 = 0x3FFF

	// ROMNStart is the start of the switchable ROM bank.
	ROMNStart uint16 = 0x4000
	// ROMNEnd is the last address of the switchable ROM bank.
	ROMNEnd uint16 = 0x7FFF

	// VRAMStart is the start of video RAM.
	VRAMStart uint16 = 0x8000
	// VRAMEnd is the last address of video RAM.
	VRAMEnd uint16 = 0x9FFF

	// ExtRAMStart is the start of cartridge (external) RAM.
	ExtRAMStart uint16 = 0xA000
	// ExtRAMEnd is the last address of cartridge RAM.
	ExtRAMEnd uint16 = 0xBFFF

	// WRAM0Start is the start of work RAM bank 0.
	WRAM0Start uint16 = 0xC000
	// WRAM0End is the last address of work RAM bank 0.
	WRAM0End uint16 = 0xCFFF

	// WRAMNStart is the start of the switchable work RAM bank.
	WRAMNStart uint16 = 0xD000
	// WRAMNEnd is the last address of the switchable work RAM bank.
	WRAMNEnd uint16 = 0xDFFF

	// EchoStart is the start of echo RAM, a mirror of C000-DDFF.
	EchoStart uint16 = 0xE000
	// EchoEnd is the last address of echo RAM.
	EchoEnd uint16 = 0xFDFF

	// OAMStart is the start of OAM memory (40 sprites * 4 bytes each)
	OAMStart uint16 = 0xFE00
	// OAMEnd is the end of OAM memory
	OAMEnd uint16 = 0xFE9F

	// UnusedStart is the start of the prohibited area after OAM.
	UnusedStart uint16 = 0xFEA0
	// UnusedEnd is the last address of the prohibited area.
	UnusedEnd uint16 = 0xFEFF

	// IOStart is the start of the memory mapped I/O registers.
	IOStart uint16 = 0xFF00
	// IOEnd is the last I/O register address.
	IOEnd uint16 = 0xFF7F

	// HRAMStart is the start of high RAM.
	HRAMStart uint16 = 0xFF80
	// HRAMEnd is the last address of high RAM.
	HRAMEnd uint16 = 0xFFFE
)

// interrupts
const (
	// IF is the address for the Interrupt Flags register.
	IF uint16 = 0xFF0F
	// IE is the address for the Interrupt Enable register.
	IE uint16 = 0xFFFF
)

// HighPage is the base address used by LDH and LD (C) addressing.
const HighPage uint16 = 0xFF00

// RSTVectors are the eight fixed call targets of the RST instruction.
var RSTVectors = [8]uint16{0x00, 0x08, 0x10, 0x18, 0x20, 0x28, 0x30, 0x38}
