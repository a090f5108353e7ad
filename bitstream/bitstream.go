// Package bitstream provides a bit-granular Reader and Writer over a
// storage.Backend, following the MSB pattern: within each byte the most
// significant bit is read/written first, and multi-bit fields are packed
// most-significant bit first.
//
// Both sides batch backend transfers through a fixed-capacity block buffer.
// A Reader or Writer owns the backend bound to it and closes it exactly once,
// on Close. Instances are not safe for concurrent use.
package bitstream

import (
	"errors"
)

const (
	// MaxBits is the widest field a single Read or Write call accepts.
	MaxBits = 64

	// DefaultBufferSize is the default block buffer capacity, in bytes.
	DefaultBufferSize = 32 * 1024
)

var (
	ErrNilBackend    = errors.New("nil backend")
	ErrBackendClosed = errors.New("backend is not open")
	ErrNoBuffer      = errors.New("block buffer not allocated")
	ErrNotOpen       = errors.New("bitstream not open")
	ErrBitCount      = errors.New("bit count exceeds 64")
	ErrShortBuffer   = errors.New("buffer too short for bit count")

	// ErrShortRead is returned in strict mode when the stream ends before
	// the requested number of bits was read.
	ErrShortRead = errors.New("short read")
)
