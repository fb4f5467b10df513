package bit

// Combine combines two 8 bit values into a single 16 bit value.
// The high byte will be the most significant one.
func Combine(high, low uint8) uint16 {
	return (uint16(high) << 8) | uint16(low)
}

// Split returns the high (MSB) and low (LSB) bytes of a 16 bit value.
func Split(value uint16) (high, low uint8) {
	return High(value), Low(value)
}

// Low returns the low (LSB) part of a 16 bit number.
func Low(value uint16) uint8 {
	return uint8(value)
}

// High returns the high (MSB) part of a 16 bit number.
func High(value uint16) uint8 {
	return uint8(value >> 8)
}

// IsSet will check if the bit at the specified index is set to 1 or not.
func IsSet(index, value uint8) bool {
	return ((value >> index) & 1) == 1
}

// Set will return the passed byte with the bit at the specified index set to 1.
func Set(index, value uint8) uint8 {
	return value | (1 << index)
}

// Reset will return the passed byte with the bit at the specified index set to 0.
func Reset(index, value uint8) uint8 {
	return value &^ (1 << index)
}

// Value returns 1 if the bit at the specified index is set, 0 otherwise.
func Value(index, value uint8) uint8 {
	return (value >> index) & 1
}

// FromBool maps true to 1 and false to 0.
func FromBool(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

// Extract extracts bits from highBit to lowBit (inclusive).
// Example: Extract(0b11010110, 5, 3) -> 0b010
func Extract(value uint8, highBit, lowBit uint8) uint8 {
	width := highBit - lowBit + 1
	mask := uint8((1 << width) - 1)
	return (value >> lowBit) & mask
}

// HalfCarryAdd reports a carry out of bit 3 when adding b and carry to a.
func HalfCarryAdd(a, b, carry uint8) bool {
	return (a&0xF)+(b&0xF)+carry > 0xF
}

// HalfBorrowSub reports a borrow into bit 3 when subtracting b and carry from a.
func HalfBorrowSub(a, b, carry uint8) bool {
	return a&0xF < (b&0xF)+carry
}

// CarryAdd reports an unsigned overflow of the 8 bit sum a+b+carry.
func CarryAdd(a, b, carry uint8) bool {
	return uint16(a)+uint16(b)+uint16(carry) > 0xFF
}

// BorrowSub reports an unsigned underflow of the 8 bit difference a-b-carry.
func BorrowSub(a, b, carry uint8) bool {
	return uint16(a) < uint16(b)+uint16(carry)
}

// HalfCarryAdd16 reports a carry out of bit 11 when adding two 16 bit values.
func HalfCarryAdd16(a, b uint16) bool {
	return (a&0xFFF)+(b&0xFFF) > 0xFFF
}

// CarryAdd16 reports an unsigned overflow of the 16 bit sum a+b.
func CarryAdd16(a, b uint16) bool {
	return uint32(a)+uint32(b) > 0xFFFF
}
