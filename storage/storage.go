// Package storage provides the byte-addressable random-access backends
// consumed by the bitstream package: file-backed readers and writers, an
// in-memory store, and a group that concatenates several read backends.
package storage

import (
	"errors"
)

// OwnerReadWrite is a standard owner read / write file permission.
const OwnerReadWrite = 0o600

var (
	ErrNotOpen        = errors.New("backend not open")
	ErrReadOnly       = errors.New("writing not permitted")
	ErrWriteOnly      = errors.New("reading not permitted")
	ErrSeekOutOfRange = errors.New("seek offset out of range")
)

// Backend is a byte-addressable random-access store.
//
// Read may transfer fewer bytes than requested at the end of the stream, in
// which case it reports the number of bytes actually transferred. Size must
// be accurate once the backend is open.
type Backend interface {
	Identity() string
	Open(path string) error
	Close() error
	IsOpen() bool
	EOF() bool
	Flush() error
	Tell() uint64
	Size() uint64
	Seek(offset uint64) (uint64, error)
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	ReadByte() (byte, error)
	WriteByte(c byte) error
}
