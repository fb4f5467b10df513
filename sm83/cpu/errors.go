package cpu

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/valerio/go-sm83/sm83/memory"
)

// DecodeError reports an opcode that has no instruction assigned to it.
type DecodeError struct {
	Opcode uint16
	PC     uint16
}

func (e *DecodeError) Error() string {
	if e.Opcode > 0xFF {
		return fmt.Sprintf("decode fault: unimplemented opcode 0x%04X at 0x%04X", e.Opcode, e.PC)
	}
	return fmt.Sprintf("decode fault: unimplemented opcode 0x%02X at 0x%04X", e.Opcode, e.PC)
}

// IsFault reports whether err, or anything it wraps, is a decode fault or a
// bus fault. Both leave the CPU in a well defined state.
func IsFault(err error) bool {
	var decodeErr *DecodeError
	if errors.As(err, &decodeErr) {
		return true
	}
	var busFault *memory.BusFault
	return errors.As(err, &busFault)
}
