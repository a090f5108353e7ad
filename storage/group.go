package storage

import (
	"errors"
	"fmt"
	"io"
)

// GroupReader presents a slice of read backends as one continuous,
// read-only Backend.
type GroupReader struct {
	backends []Backend
	active   int
	offs     uint64
	size     uint64
}

// A compile time check to ensure that GroupReader fully implements the Backend interface.
var _ Backend = (*GroupReader)(nil)

// Group groups a slice of backends into one continuous reader. The group
// takes ownership of every member; on error the members are closed.
func Group(backends ...Backend) (*GroupReader, error) {
	if len(backends) < 2 {
		closeAll(backends)
		return nil, errors.New("number of backends must be at least 2")
	}

	var size uint64
	for i, b := range backends {
		if b == nil {
			closeAll(backends)
			return nil, errors.New("nil backends are not allowed")
		}
		if !b.IsOpen() {
			closeAll(backends)
			return nil, fmt.Errorf("backend %d is not open", i)
		}
		size += b.Size()
	}

	return &GroupReader{
		backends: backends,
		size:     size,
	}, nil
}

func closeAll(backends []Backend) {
	for _, b := range backends {
		if b != nil {
			_ = b.Close()
		}
	}
}

func (g *GroupReader) Identity() string { return "group_reader" }

func (g *GroupReader) Open(string) error {
	return errors.New("group reader cannot be opened by path")
}

func (g *GroupReader) Close() error {
	var errs []error
	for _, b := range g.backends {
		if err := b.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	g.backends = nil
	g.active = 0
	g.offs, g.size = 0, 0
	return errors.Join(errs...)
}

func (g *GroupReader) IsOpen() bool { return g.backends != nil }
func (g *GroupReader) EOF() bool    { return g.offs == g.size }
func (g *GroupReader) Flush() error { return nil }
func (g *GroupReader) Tell() uint64 { return g.offs }
func (g *GroupReader) Size() uint64 { return g.size }

// Seek locates the member holding offset and repositions it.
func (g *GroupReader) Seek(offset uint64) (uint64, error) {
	if !g.IsOpen() {
		return 0, ErrNotOpen
	}
	if offset > g.size {
		return g.offs, ErrSeekOutOfRange
	}

	base := uint64(0)
	for i, b := range g.backends {
		last := i == len(g.backends)-1
		if offset < base+b.Size() || last {
			if _, err := b.Seek(offset - base); err != nil {
				return g.offs, err
			}
			g.active = i
			g.offs = offset
			return g.offs, nil
		}
		base += b.Size()
	}
	return g.offs, ErrSeekOutOfRange
}

func (g *GroupReader) Read(p []byte) (int, error) {
	if !g.IsOpen() {
		return 0, ErrNotOpen
	}

	var total int
	for total < len(p) {
		n, err := g.backends[g.active].Read(p[total:])
		total += n
		g.offs += uint64(n)
		if err == io.EOF || (err == nil && n == 0) {
			if g.active == len(g.backends)-1 {
				break
			}
			g.active++
			if _, err := g.backends[g.active].Seek(0); err != nil {
				return total, err
			}
			continue
		}
		if err != nil {
			return total, err
		}
	}

	if total == 0 && len(p) > 0 {
		return 0, io.EOF
	}
	return total, nil
}

func (g *GroupReader) ReadByte() (byte, error) {
	var b [1]byte
	if _, err := g.Read(b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

func (g *GroupReader) Write([]byte) (int, error) { return 0, ErrReadOnly }
func (g *GroupReader) WriteByte(byte) error      { return ErrReadOnly }
