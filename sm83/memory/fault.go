package memory

import "fmt"

// BusFault is returned when an access targets an address the bus does not
// serve: the unmapped area after OAM, or echo RAM, which is not implemented.
type BusFault struct {
	Address uint16
	Segment Segment
	Write   bool
}

func (f *BusFault) Error() string {
	access := "read"
	if f.Write {
		access = "write"
	}
	if f.Segment == SegmentEcho {
		return fmt.Sprintf("bus fault: %s at 0x%04X: echo RAM is not implemented", access, f.Address)
	}
	return fmt.Sprintf("bus fault: %s at unmapped address 0x%04X", access, f.Address)
}
