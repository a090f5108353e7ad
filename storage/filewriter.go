package storage

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

// FileWriter is a write-only Backend over a file on disk. Opening a path
// creates or truncates it.
type FileWriter struct {
	file *os.File
	buf  *bufio.Writer
	offs uint64
	size uint64
}

// A compile time check to ensure that FileWriter fully implements the Backend interface.
var _ Backend = (*FileWriter)(nil)

// NewFileWriter creates or truncates name for writing.
func NewFileWriter(name string) (Backend, error) {
	w := new(FileWriter)
	if err := w.Open(name); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *FileWriter) Identity() string { return "file_writer" }

func (w *FileWriter) Open(name string) error {
	if err := w.Close(); err != nil {
		return err
	}

	f, err := os.OpenFile(name, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, OwnerReadWrite)
	if err != nil {
		return fmt.Errorf("failed to open file for writing: %w", err)
	}
	w.file = f
	w.buf = bufio.NewWriter(f)
	w.offs, w.size = 0, 0
	return nil
}

func (w *FileWriter) Close() error {
	if w.file == nil {
		return nil
	}
	flushErr := w.buf.Flush()
	closeErr := w.file.Close()
	w.file = nil
	w.buf = nil
	w.offs, w.size = 0, 0
	if flushErr != nil {
		return fmt.Errorf("failed to flush file writer: %w", flushErr)
	}
	return closeErr
}

func (w *FileWriter) IsOpen() bool { return w.file != nil }
func (w *FileWriter) EOF() bool    { return w.offs == w.size }
func (w *FileWriter) Tell() uint64 { return w.offs }
func (w *FileWriter) Size() uint64 { return w.size }

func (w *FileWriter) Flush() error {
	if w.file == nil {
		return ErrNotOpen
	}
	if err := w.buf.Flush(); err != nil {
		return fmt.Errorf("failed to flush file writer: %w", err)
	}
	return nil
}

// Seek repositions the write offset. The buffered bytes are flushed first.
func (w *FileWriter) Seek(offset uint64) (uint64, error) {
	if w.file == nil {
		return 0, ErrNotOpen
	}
	if err := w.Flush(); err != nil {
		return w.offs, err
	}
	if offset > w.size {
		return w.offs, ErrSeekOutOfRange
	}
	if _, err := w.file.Seek(int64(offset), io.SeekStart); err != nil {
		return w.offs, fmt.Errorf("failed to seek in file writer: %w", err)
	}
	w.offs = offset
	return w.offs, nil
}

func (w *FileWriter) Write(p []byte) (int, error) {
	if w.file == nil {
		return 0, ErrNotOpen
	}
	n, err := w.buf.Write(p)
	w.advance(uint64(n))
	return n, err
}

func (w *FileWriter) WriteByte(c byte) error {
	if w.file == nil {
		return ErrNotOpen
	}
	if err := w.buf.WriteByte(c); err != nil {
		return err
	}
	w.advance(1)
	return nil
}

func (w *FileWriter) advance(n uint64) {
	w.offs += n
	if w.offs > w.size {
		w.size = w.offs
	}
}

func (w *FileWriter) Read([]byte) (int, error) { return 0, ErrWriteOnly }
func (w *FileWriter) ReadByte() (byte, error)  { return 0, ErrWriteOnly }
