package shared

import "math/bits"

// NumBits returns the number of bits needed to represent i; 0 for 0.
func NumBits(i uint64) uint {
	return uint(bits.Len64(i))
}

// Mask returns a value with the low width bits set.
func Mask(width uint) uint64 {
	if width >= 64 {
		return ^uint64(0)
	}
	return uint64(1)<<width - 1
}

// BytesForBits returns the number of bytes needed to hold numBits. It does
// not overflow for numBits close to math.MaxUint64.
func BytesForBits(numBits uint64) uint64 {
	return numBits/8 + min(numBits%8, 1)
}
