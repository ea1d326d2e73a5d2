package raf

import (
	"bytes"
	"encoding/binary"
	"io"
)

// A Cursor is a bounds-checked random access view over the bytes of a file.
// Offsets are always absolute and passed on each call, so a Cursor holds no
// position and can be shared by successive parses.
type Cursor struct {
	r    io.ReaderAt
	size int64
}

// NewCursor returns a Cursor reading the first size bytes of r.
func NewCursor(r io.ReaderAt, size int64) *Cursor {
	return &Cursor{r: r, size: size}
}

// NewBytesCursor returns a Cursor over b.
func NewBytesCursor(b []byte) *Cursor {
	return NewCursor(bytes.NewReader(b), int64(len(b)))
}

// Size returns the number of readable bytes.
func (c *Cursor) Size() int64 {
	return c.size
}

// check reports whether n bytes can be read at off.
func (c *Cursor) check(off, n int64) error {
	if off < 0 || n < 0 || off > c.size || n > c.size-off {
		return &TruncatedInputError{Offset: off, Length: n, Size: c.size}
	}
	return nil
}

// ReadAt fills p with the bytes at off.
func (c *Cursor) ReadAt(p []byte, off int64) error {
	if err := c.check(off, int64(len(p))); err != nil {
		return err
	}
	if len(p) == 0 {
		return nil
	}
	if _, err := c.r.ReadAt(p, off); err != nil && err != io.EOF {
		return &IOError{Op: "read", Err: err}
	}
	return nil
}

// Bytes returns a copy of the n bytes at off.
func (c *Cursor) Bytes(off, n int64) ([]byte, error) {
	if err := c.check(off, n); err != nil {
		return nil, err
	}
	p := make([]byte, n)
	return p, c.ReadAt(p, off)
}

func (c *Cursor) uint16(order binary.ByteOrder, off int64) (uint16, error) {
	var p [2]byte
	if err := c.ReadAt(p[:], off); err != nil {
		return 0, err
	}
	return order.Uint16(p[:]), nil
}

func (c *Cursor) uint32(order binary.ByteOrder, off int64) (uint32, error) {
	var p [4]byte
	if err := c.ReadAt(p[:], off); err != nil {
		return 0, err
	}
	return order.Uint32(p[:]), nil
}

// Uint16BE reads a big-endian uint16 at off.
func (c *Cursor) Uint16BE(off int64) (uint16, error) { return c.uint16(binary.BigEndian, off) }

// Uint16LE reads a little-endian uint16 at off.
func (c *Cursor) Uint16LE(off int64) (uint16, error) { return c.uint16(binary.LittleEndian, off) }

// Uint32BE reads a big-endian uint32 at off.
func (c *Cursor) Uint32BE(off int64) (uint32, error) { return c.uint32(binary.BigEndian, off) }

// Uint32LE reads a little-endian uint32 at off.
func (c *Cursor) Uint32LE(off int64) (uint32, error) { return c.uint32(binary.LittleEndian, off) }

// Section returns a reader over the n bytes at off.
func (c *Cursor) Section(off, n int64) (*io.SectionReader, error) {
	if err := c.check(off, n); err != nil {
		return nil, err
	}
	return io.NewSectionReader(c.r, off, n), nil
}
