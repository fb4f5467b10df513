package memory

import "github.com/valerio/go-sm83/sm83/addr"

// Segment identifies one of the fixed regions of the address space.
type Segment uint8

const (
	SegmentUnmapped Segment = iota
	SegmentROM0
	SegmentROMN
	SegmentVRAM
	SegmentExtRAM
	SegmentWRAM0
	SegmentWRAMN
	SegmentEcho
	SegmentOAM
	SegmentIO
	SegmentHRAM
	SegmentIE
)

var segmentNames = [...]string{
	SegmentUnmapped: "unmapped",
	SegmentROM0:     "ROM bank 0",
	SegmentROMN:     "ROM bank N",
	SegmentVRAM:     "VRAM",
	SegmentExtRAM:   "external RAM",
	SegmentWRAM0:    "WRAM bank 0",
	SegmentWRAMN:    "WRAM bank N",
	SegmentEcho:     "echo RAM",
	SegmentOAM:      "OAM",
	SegmentIO:       "I/O registers",
	SegmentHRAM:     "HRAM",
	SegmentIE:       "interrupt enable",
}

func (s Segment) String() string {
	if int(s) < len(segmentNames) {
		return segmentNames[s]
	}
	return "invalid segment"
}

// Backed reports whether the segment is storage the bus can serve.
// Echo RAM is mapped but not implemented yet.
func (s Segment) Backed() bool {
	return s != SegmentUnmapped && s != SegmentEcho
}

// pageMap routes every 256 byte page below 0xFE00 to its segment.
// Pages 0xFE and 0xFF are split at finer granularity in SegmentOf.
var pageMap = buildPageMap()

func buildPageMap() [256]Segment {
	var m [256]Segment

	ranges := []struct {
		start, end uint16
		segment    Segment
	}{
		{addr.ROM0Start, addr.ROM0End, SegmentROM0},
		{addr.ROMNStart, addr.ROMNEnd, SegmentROMN},
		{addr.VRAMStart, addr.VRAMEnd, SegmentVRAM},
		{addr.ExtRAMStart, addr.ExtRAMEnd, SegmentExtRAM},
		{addr.WRAM0Start, addr.WRAM0End, SegmentWRAM0},
		{addr.WRAMNStart, addr.WRAMNEnd, SegmentWRAMN},
		{addr.EchoStart, addr.EchoEnd, SegmentEcho},
	}
	for _, r := range ranges {
		for page := r.start >> 8; page <= r.end>>8; page++ {
			m[page] = r.segment
		}
	}

	return m
}

// SegmentOf returns the segment the address belongs to, in constant time.
func SegmentOf(address uint16) Segment {
	switch address >> 8 {
	case 0xFE:
		if address <= addr.OAMEnd {
			return SegmentOAM
		}
		return SegmentUnmapped
	case 0xFF:
		switch {
		case address == addr.IE:
			return SegmentIE
		case address >= addr.HRAMStart:
			return SegmentHRAM
		default:
			return SegmentIO
		}
	default:
		return pageMap[address>>8]
	}
}
