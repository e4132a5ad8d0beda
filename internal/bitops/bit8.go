// Package bitops provides small bit-twiddling helpers used by the
// allocator's per-span occupancy bitmaps. It depends on nothing but the
// standard library, matching the teacher's own lib package convention
// ("small, self-contained, no dependency beyond stdlib").
package bitops

// Bit8 is an 8-bit word with bit-twiddling methods, mirroring the
// teacher's lib.Bit32 (popcount via the classic SWAR trick) but at byte
// width, the width freebits.go itself operates on.
type Bit8 uint8

// Ones returns the number of set bits.
func (b Bit8) Ones() int8 {
	v := b - ((b >> 1) & 0x55)
	v = (v & 0x33) + ((v >> 2) & 0x33)
	return int8((v + (v >> 4)) & 0x0f)
}

// Setbit sets bit n (0 is least significant) and returns the new value.
func (b Bit8) Setbit(n uint8) Bit8 {
	return b | (1 << n)
}

// Clearbit clears bit n and returns the new value.
func (b Bit8) Clearbit(n uint8) Bit8 {
	return b &^ (1 << n)
}

// Isset reports whether bit n is set.
func (b Bit8) Isset(n uint8) bool {
	return (b & (1 << n)) != 0
}
