package bitstream

import (
	"encoding/binary"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/spacemeshos/bitstreams/shared"
	"github.com/spacemeshos/bitstreams/storage"
)

// Reader reads bits from a storage.Backend, MSB first.
type Reader struct {
	backend storage.Backend

	// Block buffer. Only buf[bufPos:bufLen] is unread.
	buf    []byte
	bufPos int
	bufLen int

	current byte
	bitPos  uint8 // bits of current already consumed; 8 means none left.

	streamLen uint64 // backend size captured at open.
	streamPos uint64 // bytes pulled into the block buffer so far.

	strict bool
	logger *zap.Logger
	opener func(path string) (storage.Backend, error)
}

// NewReader returns a new, closed Reader.
func NewReader(opts ...OptionFunc) (*Reader, error) {
	o := defaultOption()
	if err := o.apply(opts); err != nil {
		return nil, err
	}

	return &Reader{
		buf:    make([]byte, o.bufferSize),
		bitPos: 8,
		strict: o.strict,
		logger: o.logger,
		opener: o.opener,
	}, nil
}

// Open binds b to the reader, closing any previously bound backend.
// The reader takes ownership of b, even when Open fails.
func (r *Reader) Open(b storage.Backend) error {
	if r.buf == nil {
		if b != nil {
			_ = b.Close()
		}
		return ErrNoBuffer
	}
	if err := r.Close(); err != nil {
		r.logger.Warn("failed to close previous backend", zap.Error(err))
	}
	if b == nil {
		return ErrNilBackend
	}
	if !b.IsOpen() {
		_ = b.Close()
		return ErrBackendClosed
	}

	r.backend = b
	r.streamLen = b.Size()
	r.logger.Debug("bitstream reader opened",
		zap.String("backend", b.Identity()),
		zap.Uint64("size", r.streamLen),
	)
	return nil
}

// OpenFile opens path through the configured opener and binds it.
func (r *Reader) OpenFile(path string) error {
	if r.buf == nil {
		return ErrNoBuffer
	}
	if err := r.Close(); err != nil {
		r.logger.Warn("failed to close previous backend", zap.Error(err))
	}

	b, err := r.opener(path)
	if err != nil {
		return fmt.Errorf("failed to open %v: %w", path, err)
	}
	return r.Open(b)
}

func (r *Reader) IsOpen() bool {
	return r.backend != nil
}

// Read reads the next bits (at most 64) from the stream and returns them as
// an unsigned integer whose most significant bit is the first bit read.
//
// When the stream runs out, the bits read so far are returned in their
// positions and the remaining low bits are zero. This is not an error
// unless the reader is strict, in which case ErrShortRead is returned
// alongside the partial value.
func (r *Reader) Read(bits uint) (uint64, error) {
	if bits > MaxBits {
		return 0, ErrBitCount
	}
	if r.backend == nil {
		return 0, ErrNotOpen
	}

	var res uint64
	for left := bits; left > 0; {
		if r.bitPos == 8 {
			ok, err := r.nextByte()
			if err != nil {
				return res, err
			}
			if !ok {
				if r.strict {
					return res, ErrShortRead
				}
				return res, nil
			}
		}

		avail := 8 - uint(r.bitPos)
		take := min(avail, left)
		left -= take
		chunk := uint64(r.current>>(avail-take)) & (uint64(1)<<take - 1)
		res |= chunk << left
		r.bitPos += uint8(take)
	}

	return res, nil
}

// ReadBit reads a single bit.
func (r *Reader) ReadBit() (bool, error) {
	v, err := r.Read(1)
	return v == 1, err
}

// ReadBlock reads bits into dst. Every complete byte of the span lands in
// its own byte of dst; a trailing partial byte is stored right-aligned in
// the next byte of dst.
func (r *Reader) ReadBlock(dst []byte, bits uint64) error {
	if uint64(len(dst)) < shared.BytesForBits(bits) {
		return ErrShortBuffer
	}
	if r.backend == nil {
		return ErrNotOpen
	}

	p := dst
	for bits >= 64 {
		u, err := r.Read(64)
		binary.BigEndian.PutUint64(p, u)
		if err != nil {
			return err
		}
		p = p[8:]
		bits -= 64
	}

	if bits >= 32 {
		u, err := r.Read(32)
		binary.BigEndian.PutUint32(p, uint32(u))
		if err != nil {
			return err
		}
		p = p[4:]
		bits -= 32
	}

	for bits >= 8 {
		u, err := r.Read(8)
		p[0] = byte(u)
		if err != nil {
			return err
		}
		p = p[1:]
		bits -= 8
	}

	if bits > 0 {
		u, err := r.Read(uint(bits))
		p[0] = byte(u)
		if err != nil {
			return err
		}
	}

	return nil
}

// EOF reports whether the whole stream has been pulled from the backend and
// the block buffer drained. Bits of the last byte may still be unread; use
// BitsRemaining for an exact count. A closed reader is always at EOF.
func (r *Reader) EOF() bool {
	if r.backend == nil || r.buf == nil {
		return true
	}
	return r.streamPos == r.streamLen && r.bufPos == r.bufLen
}

// BitsRemaining returns the number of bits left to read.
func (r *Reader) BitsRemaining() uint64 {
	if r.backend == nil {
		return 0
	}
	bytes := (r.streamLen - r.streamPos) + uint64(r.bufLen-r.bufPos)
	return bytes*8 + uint64(8-r.bitPos)
}

// Close closes the owned backend and resets the reader for reuse.
func (r *Reader) Close() error {
	var err error
	if r.backend != nil {
		err = r.backend.Close()
		r.logger.Debug("bitstream reader closed",
			zap.String("backend", r.backend.Identity()),
			zap.Uint64("position", r.streamPos),
		)
		r.backend = nil
	}

	r.streamLen, r.streamPos = 0, 0
	r.bufPos, r.bufLen = 0, 0
	r.current = 0
	r.bitPos = 8
	return err
}

// nextByte makes the next byte of the stream current. It returns false when
// the stream is exhausted.
func (r *Reader) nextByte() (bool, error) {
	if r.bufPos == r.bufLen {
		if r.streamPos == r.streamLen {
			return false, nil
		}
		if err := r.fill(); err != nil {
			return false, err
		}
		if r.bufLen == 0 {
			return false, nil
		}
	}

	r.current = r.buf[r.bufPos]
	r.bufPos++
	r.bitPos = 0
	return true, nil
}

// fill transfers min(capacity, remaining) bytes from the backend into the
// block buffer.
func (r *Reader) fill() error {
	want := uint64(len(r.buf))
	if remaining := r.streamLen - r.streamPos; remaining < want {
		want = remaining
	}

	var n int
	var readErr error
	for uint64(n) < want {
		m, err := r.backend.Read(r.buf[n:want])
		n += m
		if err == io.EOF || (err == nil && m == 0) {
			break
		}
		if err != nil {
			readErr = fmt.Errorf("failed to read from backend: %w", err)
			break
		}
	}

	r.streamPos += uint64(n)
	r.bufPos, r.bufLen = 0, n
	if readErr != nil {
		return readErr
	}

	if uint64(n) < want {
		r.logger.Warn("backend ended before its reported size",
			zap.Uint64("expected", r.streamLen),
			zap.Uint64("actual", r.streamPos),
		)
		r.streamLen = r.streamPos
	}

	r.logger.Debug("block buffer filled",
		zap.Int("bytes", n),
		zap.Uint64("position", r.streamPos),
	)
	return nil
}
