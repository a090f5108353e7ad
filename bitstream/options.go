package bitstream

import (
	"errors"

	"go.uber.org/zap"

	"github.com/spacemeshos/bitstreams/storage"
)

type option struct {
	bufferSize uint32
	strict     bool
	logger     *zap.Logger

	// opener creates the backend for Reader.OpenFile.
	opener func(path string) (storage.Backend, error)
	// creator creates the backend for Writer.OpenFile.
	creator func(path string) (storage.Backend, error)
}

func defaultOption() *option {
	return &option{
		bufferSize: DefaultBufferSize,
		logger:     zap.NewNop(),
		opener:     storage.NewFileReader,
		creator:    storage.NewFileWriter,
	}
}

func (o *option) apply(opts []OptionFunc) error {
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return err
		}
	}
	return nil
}

type OptionFunc func(*option) error

// WithBufferSize sets the block buffer capacity, in bytes.
func WithBufferSize(size uint32) OptionFunc {
	return func(o *option) error {
		if size == 0 {
			return errors.New("`bufferSize` must be greater than 0")
		}
		o.bufferSize = size
		return nil
	}
}

// WithStrict makes a Reader report ErrShortRead when the stream ends before
// a read is satisfied, instead of silently returning the bits available.
func WithStrict() OptionFunc {
	return func(o *option) error {
		o.strict = true
		return nil
	}
}

func WithLogger(logger *zap.Logger) OptionFunc {
	return func(o *option) error {
		if logger == nil {
			return errors.New("`logger` must not be nil")
		}
		o.logger = logger
		return nil
	}
}

// WithOpener sets how a Reader opens a path.
func WithOpener(opener func(path string) (storage.Backend, error)) OptionFunc {
	return func(o *option) error {
		if opener == nil {
			return errors.New("`opener` must not be nil")
		}
		o.opener = opener
		return nil
	}
}

// WithCreator sets how a Writer creates a path.
func WithCreator(creator func(path string) (storage.Backend, error)) OptionFunc {
	return func(o *option) error {
		if creator == nil {
			return errors.New("`creator` must not be nil")
		}
		o.creator = creator
		return nil
	}
}
