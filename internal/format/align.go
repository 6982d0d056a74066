package format

import "math/bits"

// Alignment utilities. Every alignment passed here must be a power of two;
// callers validate that with IsPow2 before using the results.

// IsPow2 reports whether v is a non-zero power of two.
func IsPow2(v uint64) bool {
	return v != 0 && v&(v-1) == 0
}

// AlignDown returns v rounded down to a multiple of align.
//
// Example:
//
//	AlignDown(255, 32) = 224
//	AlignDown(256, 32) = 256
func AlignDown(v, align uint64) uint64 {
	return v &^ (align - 1)
}

// AlignUp returns v rounded up to a multiple of align and whether the result
// fits in a uint64.
//
// Example:
//
//	AlignUp(1, 32)  = 32, true
//	AlignUp(32, 32) = 32, true
//	AlignUp(33, 32) = 64, true
func AlignUp(v, align uint64) (uint64, bool) {
	sum, carry := bits.Add64(v, align-1, 0)
	if carry != 0 {
		return 0, false
	}
	return AlignDown(sum, align), true
}

// AddSat returns a+b, saturating at the maximum uint64 instead of wrapping.
func AddSat(a, b uint64) uint64 {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return ^uint64(0)
	}
	return sum
}
