package storage

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFileWriterAndReader(t *testing.T) {
	req := require.New(t)
	name := filepath.Join(t.TempDir(), "data.bin")

	w, err := NewFileWriter(name)
	req.NoError(err)
	req.True(w.IsOpen())

	n, err := w.Write([]byte{0x01, 0x02, 0x03})
	req.NoError(err)
	req.Equal(3, n)
	req.NoError(w.WriteByte(0x04))
	req.Equal(uint64(4), w.Size())
	req.Equal(uint64(4), w.Tell())
	req.NoError(w.Close())
	req.False(w.IsOpen())

	r, err := NewFileReader(name)
	req.NoError(err)
	req.Equal(uint64(4), r.Size())
	req.False(r.EOF())

	b, err := r.ReadByte()
	req.NoError(err)
	req.Equal(byte(0x01), b)

	// Short read at end of stream.
	p := make([]byte, 8)
	n, err = r.Read(p)
	req.NoError(err)
	req.Equal(3, n)
	req.Equal([]byte{0x02, 0x03, 0x04}, p[:n])
	req.True(r.EOF())

	n, err = r.Read(p)
	req.Equal(io.EOF, err)
	req.Zero(n)

	_, err = r.Seek(2)
	req.NoError(err)
	b, err = r.ReadByte()
	req.NoError(err)
	req.Equal(byte(0x03), b)

	_, err = r.Seek(5)
	req.ErrorIs(err, ErrSeekOutOfRange)

	_, err = r.Write([]byte{0})
	req.ErrorIs(err, ErrReadOnly)

	req.NoError(r.Close())
	req.False(r.IsOpen())
	_, err = r.Read(p)
	req.ErrorIs(err, ErrNotOpen)
}

func TestFileWriter_Truncates(t *testing.T) {
	req := require.New(t)
	name := filepath.Join(t.TempDir(), "data.bin")
	req.NoError(os.WriteFile(name, []byte("previous content"), OwnerReadWrite))

	w, err := NewFileWriter(name)
	req.NoError(err)
	_, err = w.Write([]byte("ab"))
	req.NoError(err)
	req.NoError(w.Close())

	data, err := os.ReadFile(name)
	req.NoError(err)
	req.Equal([]byte("ab"), data)
}

func TestFileWriter_Seek(t *testing.T) {
	req := require.New(t)
	name := filepath.Join(t.TempDir(), "data.bin")

	w, err := NewFileWriter(name)
	req.NoError(err)
	_, err = w.Write([]byte{0xAA, 0xBB, 0xCC})
	req.NoError(err)

	_, err = w.Seek(1)
	req.NoError(err)
	req.NoError(w.WriteByte(0x00))
	req.Equal(uint64(3), w.Size())
	req.Equal(uint64(2), w.Tell())

	_, err = w.Seek(4)
	req.ErrorIs(err, ErrSeekOutOfRange)
	req.NoError(w.Close())

	data, err := os.ReadFile(name)
	req.NoError(err)
	req.Equal([]byte{0xAA, 0x00, 0xCC}, data)
}

func TestFileReader_Missing(t *testing.T) {
	_, err := NewFileReader(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
}

func TestMemory(t *testing.T) {
	req := require.New(t)

	m := NewMemory(nil)
	req.True(m.IsOpen())
	req.True(m.EOF())

	_, err := m.Write([]byte{1, 2, 3})
	req.NoError(err)
	req.NoError(m.WriteByte(4))
	req.Equal(2, m.Writes())
	req.Equal([]byte{1, 2, 3, 4}, m.Bytes())

	_, err = m.Seek(1)
	req.NoError(err)
	_, err = m.Write([]byte{9})
	req.NoError(err)
	req.Equal([]byte{1, 9, 3, 4}, m.Bytes())

	// Overlapping the end grows the buffer.
	_, err = m.Seek(3)
	req.NoError(err)
	_, err = m.Write([]byte{7, 8})
	req.NoError(err)
	req.Equal([]byte{1, 9, 3, 7, 8}, m.Bytes())

	_, err = m.Seek(0)
	req.NoError(err)
	p := make([]byte, 10)
	n, err := m.Read(p)
	req.NoError(err)
	req.Equal(5, n)
	_, err = m.ReadByte()
	req.Equal(io.EOF, err)

	_, err = m.Seek(6)
	req.ErrorIs(err, ErrSeekOutOfRange)

	req.NoError(m.Close())
	_, err = m.Read(p)
	req.ErrorIs(err, ErrNotOpen)
	req.Equal([]byte{1, 9, 3, 7, 8}, m.Bytes())
}

func TestMemory_Open(t *testing.T) {
	req := require.New(t)
	name := filepath.Join(t.TempDir(), "data.bin")
	req.NoError(os.WriteFile(name, []byte{0xAB, 0xCD}, OwnerReadWrite))

	m := new(Memory)
	req.False(m.IsOpen())
	req.NoError(m.Open(name))
	req.Equal(uint64(2), m.Size())
	b, err := m.ReadByte()
	req.NoError(err)
	req.Equal(byte(0xAB), b)
}

func TestGroup(t *testing.T) {
	req := require.New(t)

	g, err := Group(
		NewMemory([]byte{0, 1, 2}),
		NewMemory([]byte{3, 4, 5}),
		NewMemory([]byte{6}),
	)
	req.NoError(err)
	req.Equal(uint64(7), g.Size())

	p := make([]byte, 5)
	n, err := g.Read(p)
	req.NoError(err)
	req.Equal(5, n)
	req.Equal([]byte{0, 1, 2, 3, 4}, p)

	n, err = g.Read(p)
	req.NoError(err)
	req.Equal(2, n)
	req.Equal([]byte{5, 6}, p[:n])
	req.True(g.EOF())

	_, err = g.Read(p)
	req.Equal(io.EOF, err)

	_, err = g.Seek(4)
	req.NoError(err)
	b, err := g.ReadByte()
	req.NoError(err)
	req.Equal(byte(4), b)

	_, err = g.Write(p)
	req.ErrorIs(err, ErrReadOnly)

	req.NoError(g.Close())
	req.False(g.IsOpen())
}

func TestGroup_Invalid(t *testing.T) {
	req := require.New(t)

	single := NewMemory(nil)
	_, err := Group(single)
	req.EqualError(err, "number of backends must be at least 2")
	req.False(single.IsOpen())

	first := NewMemory(nil)
	_, err = Group(first, nil)
	req.EqualError(err, "nil backends are not allowed")
	req.False(first.IsOpen())

	open := NewMemory(nil)
	closed := NewMemory(nil)
	req.NoError(closed.Close())
	_, err = Group(open, closed)
	req.EqualError(err, "backend 1 is not open")
	req.False(open.IsOpen())
}
