package bitstream

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/spacemeshos/bitstreams/shared"
	"github.com/spacemeshos/bitstreams/storage"
)

// Writer writes bits to a storage.Backend, MSB first.
type Writer struct {
	backend storage.Backend

	// Block buffer of completed bytes; cap(buf) is the capacity.
	buf []byte

	current byte
	bitPos  uint8 // bits of current already filled.

	streamPos uint64 // bytes handed to the backend.
	written   uint64 // bits written since open.

	logger  *zap.Logger
	creator func(path string) (storage.Backend, error)
}

// NewWriter returns a new, closed Writer.
func NewWriter(opts ...OptionFunc) (*Writer, error) {
	o := defaultOption()
	if err := o.apply(opts); err != nil {
		return nil, err
	}

	return &Writer{
		buf:     make([]byte, 0, o.bufferSize),
		logger:  o.logger,
		creator: o.creator,
	}, nil
}

// Open binds b to the writer, closing any previously bound backend first.
// The writer takes ownership of b, even when Open fails.
func (w *Writer) Open(b storage.Backend) error {
	if cap(w.buf) == 0 {
		if b != nil {
			_ = b.Close()
		}
		return ErrNoBuffer
	}
	if err := w.Close(); err != nil {
		w.logger.Warn("failed to close previous backend", zap.Error(err))
	}
	if b == nil {
		return ErrNilBackend
	}
	if !b.IsOpen() {
		_ = b.Close()
		return ErrBackendClosed
	}

	w.backend = b
	w.logger.Debug("bitstream writer opened", zap.String("backend", b.Identity()))
	return nil
}

// OpenFile creates (or truncates) path through the configured creator and
// binds it.
func (w *Writer) OpenFile(path string) error {
	if cap(w.buf) == 0 {
		return ErrNoBuffer
	}
	if err := w.Close(); err != nil {
		w.logger.Warn("failed to close previous backend", zap.Error(err))
	}

	b, err := w.creator(path)
	if err != nil {
		return fmt.Errorf("failed to create %v: %w", path, err)
	}
	return w.Open(b)
}

func (w *Writer) IsOpen() bool {
	return w.backend != nil
}

// BitsWritten returns the number of bits written since the writer was opened.
func (w *Writer) BitsWritten() uint64 {
	return w.written
}

// Write writes the low bits (at most 64) of value, most significant first.
func (w *Writer) Write(value uint64, bits uint) error {
	if bits > MaxBits {
		return ErrBitCount
	}
	if w.backend == nil {
		return ErrNotOpen
	}

	for left := bits; left > 0; {
		free := 8 - uint(w.bitPos)
		take := min(free, left)
		left -= take
		chunk := byte((value >> left) & (uint64(1)<<take - 1))
		w.current |= chunk << (free - take)
		w.bitPos += uint8(take)
		w.written += uint64(take)

		if w.bitPos == 8 {
			if err := w.push(w.current); err != nil {
				return err
			}
			w.current, w.bitPos = 0, 0
		}
	}

	return nil
}

// WriteBit writes a single bit.
func (w *Writer) WriteBit(bit bool) error {
	var v uint64
	if bit {
		v = 1
	}
	return w.Write(v, 1)
}

// WriteBlock writes bits from src. Complete bytes are taken whole; a trailing
// partial byte contributes its low bits.
func (w *Writer) WriteBlock(src []byte, bits uint64) error {
	if uint64(len(src)) < shared.BytesForBits(bits) {
		return ErrShortBuffer
	}
	if w.backend == nil {
		return ErrNotOpen
	}

	p := src
	for bits >= 64 {
		if err := w.Write(binary.BigEndian.Uint64(p), 64); err != nil {
			return err
		}
		p = p[8:]
		bits -= 64
	}

	if bits >= 32 {
		if err := w.Write(uint64(binary.BigEndian.Uint32(p)), 32); err != nil {
			return err
		}
		p = p[4:]
		bits -= 32
	}

	for bits >= 8 {
		if err := w.Write(uint64(p[0]), 8); err != nil {
			return err
		}
		p = p[1:]
		bits -= 8
	}

	if bits > 0 {
		return w.Write(uint64(p[0]), uint(bits))
	}
	return nil
}

// Close flushes buffered bytes and the trailing partial byte (zero padded),
// closes the owned backend and resets the writer for reuse.
func (w *Writer) Close() error {
	if w.backend == nil {
		w.reset()
		return nil
	}

	var errs []error
	if len(w.buf) > 0 {
		if err := w.flush(); err != nil {
			errs = append(errs, err)
		}
	}
	// The trailing byte must not land ahead of unwritten buffered bytes.
	if w.bitPos > 0 && len(errs) == 0 {
		if err := w.backend.WriteByte(w.current); err != nil {
			errs = append(errs, fmt.Errorf("failed to write trailing byte: %w", err))
		} else {
			w.streamPos++
		}
	}
	if err := w.backend.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close backend: %w", err))
	}

	w.logger.Debug("bitstream writer closed",
		zap.String("backend", w.backend.Identity()),
		zap.Uint64("bytes", w.streamPos),
		zap.Uint64("bits", w.written),
	)
	w.reset()
	return errors.Join(errs...)
}

func (w *Writer) reset() {
	w.backend = nil
	w.buf = w.buf[:0]
	w.current, w.bitPos = 0, 0
	w.streamPos, w.written = 0, 0
}

// push appends a completed byte to the block buffer, flushing the buffer
// first when it is full.
func (w *Writer) push(c byte) error {
	if len(w.buf) == cap(w.buf) {
		if err := w.flush(); err != nil {
			return err
		}
	}
	w.buf = append(w.buf, c)
	return nil
}

func (w *Writer) flush() error {
	n, err := w.backend.Write(w.buf)
	w.streamPos += uint64(n)
	if err != nil {
		return fmt.Errorf("failed to write to backend: %w", err)
	}
	if n < len(w.buf) {
		return io.ErrShortWrite
	}
	if err := w.backend.Flush(); err != nil {
		return fmt.Errorf("failed to flush backend: %w", err)
	}

	w.logger.Debug("block buffer flushed",
		zap.Int("bytes", n),
		zap.Uint64("position", w.streamPos),
	)
	w.buf = w.buf[:0]
	return nil
}
