package storage

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

// FileReader is a read-only Backend over a file on disk.
type FileReader struct {
	file *os.File
	buf  *bufio.Reader
	size uint64
	offs uint64
}

// A compile time check to ensure that FileReader fully implements the Backend interface.
var _ Backend = (*FileReader)(nil)

// NewFileReader opens name for reading.
func NewFileReader(name string) (Backend, error) {
	r := new(FileReader)
	if err := r.Open(name); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *FileReader) Identity() string { return "file_reader" }

func (r *FileReader) Open(name string) error {
	if err := r.Close(); err != nil {
		return err
	}

	file, err := os.OpenFile(name, os.O_RDONLY, OwnerReadWrite)
	if err != nil {
		return fmt.Errorf("failed to open file for reading: %w", err)
	}
	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return fmt.Errorf("failed to stat file: %w", err)
	}

	r.file = file
	r.buf = bufio.NewReader(file)
	r.size = uint64(info.Size())
	r.offs = 0
	return nil
}

func (r *FileReader) Close() error {
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	r.buf = nil
	r.size, r.offs = 0, 0
	return err
}

func (r *FileReader) IsOpen() bool { return r.file != nil }
func (r *FileReader) EOF() bool    { return r.offs == r.size }
func (r *FileReader) Flush() error { return nil }
func (r *FileReader) Tell() uint64 { return r.offs }
func (r *FileReader) Size() uint64 { return r.size }

func (r *FileReader) Seek(offset uint64) (uint64, error) {
	if r.file == nil {
		return 0, ErrNotOpen
	}
	if offset > r.size {
		return r.offs, ErrSeekOutOfRange
	}
	if _, err := r.file.Seek(int64(offset), io.SeekStart); err != nil {
		return r.offs, fmt.Errorf("failed to seek in file reader: %w", err)
	}
	r.buf.Reset(r.file)
	r.offs = offset
	return r.offs, nil
}

// Read transfers min(len(p), remaining) bytes.
func (r *FileReader) Read(p []byte) (int, error) {
	if r.file == nil {
		return 0, ErrNotOpen
	}
	if r.EOF() {
		return 0, io.EOF
	}
	if remaining := r.size - r.offs; uint64(len(p)) > remaining {
		p = p[:remaining]
	}
	n, err := io.ReadFull(r.buf, p)
	r.offs += uint64(n)
	if err == io.ErrUnexpectedEOF {
		// The file shrank underneath us.
		r.size = r.offs
		err = nil
	}
	return n, err
}

func (r *FileReader) ReadByte() (byte, error) {
	if r.file == nil {
		return 0, ErrNotOpen
	}
	if r.EOF() {
		return 0, io.EOF
	}
	b, err := r.buf.ReadByte()
	if err != nil {
		return 0, err
	}
	r.offs++
	return b, nil
}

func (r *FileReader) Write([]byte) (int, error) { return 0, ErrReadOnly }
func (r *FileReader) WriteByte(byte) error      { return ErrReadOnly }
