// Package bits addresses byte fields the way ISO/IEC 7816 tables do: bits are
// numbered b8 (most significant) down to b1.
package bits

// Bit returns the mask of bit n, 0 when n is outside 1..8.
func Bit(n uint) byte {
	if n < 1 || n > 8 {
		return 0
	}
	return 1 << (n - 1)
}

// IsSet reports whether bit n of b is 1.
func IsSet(b byte, n uint) bool {
	return b&Bit(n) != 0
}

// Set returns b with bit n forced to 1.
func Set(b byte, n uint) byte {
	return b | Bit(n)
}

// Clear returns b with bit n forced to 0.
func Clear(b byte, n uint) byte {
	return b &^ Bit(n)
}

func mask(high, low uint) (byte, bool) {
	if low < 1 || high > 8 || high < low {
		return 0, false
	}
	return byte(1<<(high-low+1)-1) << (low - 1), true
}

// Field extracts bits high..low of b, right aligned. Field(0x0C, 4, 3) is 3.
// An invalid range yields 0.
func Field(b byte, high, low uint) byte {
	m, ok := mask(high, low)
	if !ok {
		return 0
	}
	return (b & m) >> (low - 1)
}

// Put stores v into bits high..low of b. Bits of v above the field width are
// dropped; an invalid range returns b unchanged.
func Put(b byte, high, low uint, v byte) byte {
	m, ok := mask(high, low)
	if !ok {
		return b
	}
	return b&^m | (v<<(low-1))&m
}

// High returns the upper nibble (b8..b5).
func High(b byte) byte { return b >> 4 }

// Low returns the lower nibble (b4..b1).
func Low(b byte) byte { return b & 0x0F }
