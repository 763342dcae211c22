// Package nna describes the NNA 8-bit CPU family to its tooling: the
// sub-byte integer types the encoding is built from, the per-architecture
// instruction tables, and the literal parsers shared by the assembler.
package nna

// U2 holds a value in 0..=3 in the low two bits of a byte.
type U2 uint8

const U2Max U2 = 0b11

// U2FromLow masks v down to its low two bits.
func U2FromLow(v uint8) U2 {
	return U2(v & 0b11)
}

// TryU2 converts v, failing when it doesn't fit in two bits.
func TryU2(v uint64) (U2, bool) {
	if v > uint64(U2Max) {
		return 0, false
	}
	return U2(v), true
}

// Low returns the value in the low two bits.
func (u U2) Low() uint8 {
	return uint8(u)
}

// High returns the value shifted into the high two bits.
func (u U2) High() uint8 {
	return uint8(u) << 6
}

// U4 holds a value in 0..=15 in the low nibble of a byte.
type U4 uint8

const U4Max U4 = 0x0F

// U4FromLow masks v down to its low nibble.
func U4FromLow(v uint8) U4 {
	return U4(v & 0x0F)
}

// U4FromHigh takes the high nibble of v.
func U4FromHigh(v uint8) U4 {
	return U4(v >> 4)
}

// TryU4 converts v, failing when it doesn't fit in a nibble.
func TryU4(v uint64) (U4, bool) {
	if v > uint64(U4Max) {
		return 0, false
	}
	return U4(v), true
}

// Low returns the value in the low nibble.
func (u U4) Low() uint8 {
	return uint8(u)
}

// High returns the value shifted into the high nibble.
func (u U4) High() uint8 {
	return uint8(u) << 4
}

// OverflowingAdd adds o, wrapping at 16.
func (u U4) OverflowingAdd(o U4) U4 {
	return U4FromLow(uint8(u) + uint8(o))
}

// OverflowingSub subtracts o, wrapping at 16.
func (u U4) OverflowingSub(o U4) U4 {
	return U4FromLow(uint8(u) - uint8(o))
}

// OverflowingMul multiplies by o, wrapping at 16.
func (u U4) OverflowingMul(o U4) U4 {
	return U4FromLow(uint8(u) * uint8(o))
}
