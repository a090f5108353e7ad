package storage

import (
	"fmt"
	"io"
	"os"
)

// Memory is an in-memory Backend supporting both reading and writing.
// Writes past the end grow the buffer.
type Memory struct {
	data   []byte
	offs   uint64
	open   bool
	writes int
}

// A compile time check to ensure that Memory fully implements the Backend interface.
var _ Backend = (*Memory)(nil)

// NewMemory returns an open Memory backend holding data. The slice is used
// directly, not copied.
func NewMemory(data []byte) *Memory {
	return &Memory{
		data: data,
		open: true,
	}
}

func (m *Memory) Identity() string { return "memory" }

// Open loads a snapshot of the named file into memory.
func (m *Memory) Open(name string) error {
	_ = m.Close()
	data, err := os.ReadFile(name)
	if err != nil {
		return fmt.Errorf("failed to load file into memory: %w", err)
	}
	m.data = data
	m.offs = 0
	m.writes = 0
	m.open = true
	return nil
}

// Close marks the backend closed. The contents remain available via Bytes.
func (m *Memory) Close() error {
	m.open = false
	m.offs = 0
	return nil
}

func (m *Memory) IsOpen() bool { return m.open }
func (m *Memory) EOF() bool    { return m.offs >= uint64(len(m.data)) }
func (m *Memory) Flush() error { return nil }
func (m *Memory) Tell() uint64 { return m.offs }
func (m *Memory) Size() uint64 { return uint64(len(m.data)) }

// Bytes returns the backing buffer.
func (m *Memory) Bytes() []byte { return m.data }

// Writes returns the number of Write calls served since the last Open.
func (m *Memory) Writes() int { return m.writes }

func (m *Memory) Seek(offset uint64) (uint64, error) {
	if !m.open {
		return 0, ErrNotOpen
	}
	if offset > uint64(len(m.data)) {
		return m.offs, ErrSeekOutOfRange
	}
	m.offs = offset
	return m.offs, nil
}

func (m *Memory) Read(p []byte) (int, error) {
	if !m.open {
		return 0, ErrNotOpen
	}
	if m.EOF() {
		return 0, io.EOF
	}
	n := copy(p, m.data[m.offs:])
	m.offs += uint64(n)
	return n, nil
}

func (m *Memory) ReadByte() (byte, error) {
	if !m.open {
		return 0, ErrNotOpen
	}
	if m.EOF() {
		return 0, io.EOF
	}
	b := m.data[m.offs]
	m.offs++
	return b, nil
}

func (m *Memory) Write(p []byte) (int, error) {
	if !m.open {
		return 0, ErrNotOpen
	}
	m.writes++
	end := m.offs + uint64(len(p))
	if end > uint64(len(m.data)) {
		m.data = append(m.data[:m.offs], p...)
	} else {
		copy(m.data[m.offs:], p)
	}
	m.offs = end
	return len(p), nil
}

func (m *Memory) WriteByte(c byte) error {
	_, err := m.Write([]byte{c})
	return err
}
