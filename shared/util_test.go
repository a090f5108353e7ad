package shared

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNumBits(t *testing.T) {
	r := require.New(t)

	r.Equal(uint(0), NumBits(0))
	r.Equal(uint(1), NumBits(1))
	r.Equal(uint(2), NumBits(2))
	r.Equal(uint(2), NumBits(3))
	r.Equal(uint(8), NumBits(255))
	r.Equal(uint(9), NumBits(256))
	r.Equal(uint(64), NumBits(^uint64(0)))
}

func TestMask(t *testing.T) {
	r := require.New(t)

	r.Equal(uint64(0), Mask(0))
	r.Equal(uint64(1), Mask(1))
	r.Equal(uint64(0xFF), Mask(8))
	r.Equal(uint64(1<<63-1), Mask(63))
	r.Equal(^uint64(0), Mask(64))
}

func TestBytesForBits(t *testing.T) {
	r := require.New(t)

	r.Equal(uint64(0), BytesForBits(0))
	r.Equal(uint64(1), BytesForBits(1))
	r.Equal(uint64(1), BytesForBits(8))
	r.Equal(uint64(2), BytesForBits(9))
	r.Equal(uint64(1)<<61, BytesForBits(math.MaxUint64))
	r.Equal(uint64(1)<<61-1, BytesForBits(math.MaxUint64-7))
}
