package raf

import (
	"encoding/binary"
	"fmt"

	"github.com/pkg/errors"
)

//------------------------//
// TIFF sub-header        //
//------------------------//

// A SubHeader is the TIFF header at the start of the CFA record.
type SubHeader struct {
	ByteOrder      uint16
	Magic          uint16
	FirstIFDOffset uint32 // Relative to the CFA record.
}

// ReadSubHeader reads the TIFF header located at base.
func ReadSubHeader(c *Cursor, base int64) (SubHeader, error) {
	p, err := c.Bytes(base, subHeaderLen)
	if err != nil {
		return SubHeader{}, errors.Wrap(err, "could not read TIFF sub-header")
	}
	le := binary.LittleEndian
	return SubHeader{
		ByteOrder:      le.Uint16(p[0:2]),
		Magic:          le.Uint16(p[2:4]),
		FirstIFDOffset: le.Uint32(p[4:8]),
	}, nil
}

//------------------------//
// Directories            //
//------------------------//

// A Directory is one IFD node.
type Directory struct {
	Offset  uint32 // Relative to the CFA record.
	Entries []Entry
}

// ReadDirectory reads the IFD located at base+offset.
func ReadDirectory(c *Cursor, base int64, offset uint32) (*Directory, error) {
	pos := base + int64(offset)

	// The first two bytes contain the number of entries (12 bytes each).
	n, err := c.Uint16LE(pos)
	if err != nil {
		return nil, errors.Wrapf(err, "could not read IFD entry count at 0x%X", pos)
	}
	size := int64(n) * ifdLen
	if pos+2+size > c.Size() {
		return nil, MalformedDirectoryError(fmt.Sprintf("IFD at 0x%X declares %d entries past end of input", pos, n))
	}

	// All IFD entries are read in one chunk.
	p, err := c.Bytes(pos+2, size)
	if err != nil {
		return nil, errors.Wrapf(err, "could not read IFD entries at 0x%X", pos+2)
	}

	le := binary.LittleEndian
	d := &Directory{
		Offset:  offset,
		Entries: make([]Entry, n),
	}
	for i := range d.Entries {
		e := p[i*ifdLen : (i+1)*ifdLen]
		d.Entries[i] = Entry{
			Tag:   le.Uint16(e[0:2]),
			Type:  FieldType(le.Uint16(e[2:4])),
			Count: le.Uint32(e[4:8]),
			Value: le.Uint32(e[8:12]),
		}
	}
	return d, nil
}

// children returns the offsets of the sub-directories an IFD entry points to.
func children(c *Cursor, base int64, e Entry) ([]uint32, error) {
	if e.Count <= 1 {
		return []uint32{e.Value}, nil
	}

	// Several sub-directories: Value points to an array of offsets.
	p, err := c.Bytes(base+int64(e.Value), int64(e.Count)*4)
	if err != nil {
		return nil, errors.Wrapf(err, "could not read %d sub-IFD offsets of tag 0x%04X", e.Count, e.Tag)
	}
	offsets := make([]uint32, e.Count)
	for i := range offsets {
		offsets[i] = binary.LittleEndian.Uint32(p[4*i : 4*(i+1)])
	}
	return offsets, nil
}

//------------------------//
// Tree walk              //
//------------------------//

// A WalkFunc is called for every entry of the directory tree.
// A non-nil error stops the walk and is returned by Walk.
type WalkFunc func(path Path, e Entry) error

// Walk visits the IFD tree of the CFA record located at base, depth-first
// and in stored order. Entries of type IFD are reported before their
// sub-directory is visited. Nothing is cached: every call reads from c.
//
// A directory reached twice, through a cycle or a shared child, or a tree
// deeper than maxDepth fails with a MalformedDirectoryError.
func Walk(c *Cursor, base int64, maxDepth int, fn WalkFunc) error {
	if maxDepth <= 0 {
		maxDepth = defaultMaxDepth
	}
	sh, err := ReadSubHeader(c, base)
	if err != nil {
		return err
	}
	return walk(c, base, sh.FirstIFDOffset, Path{}, maxDepth, map[uint32]bool{}, fn)
}

func walk(c *Cursor, base int64, offset uint32, path Path, maxDepth int, visited map[uint32]bool, fn WalkFunc) error {
	if path.Depth() > maxDepth {
		return MalformedDirectoryError(fmt.Sprintf("IFD tree deeper than %d at %s", maxDepth, path))
	}
	if visited[offset] {
		return MalformedDirectoryError(fmt.Sprintf("IFD at 0x%X reached twice at %s", offset, path))
	}
	visited[offset] = true

	d, err := ReadDirectory(c, base, offset)
	if err != nil {
		return err
	}

	for _, e := range d.Entries {
		if err := fn(path, e); err != nil {
			return err
		}
		if e.Type != IFD {
			continue
		}

		offsets, err := children(c, base, e)
		if err != nil {
			return err
		}
		// A fresh slice per level so callers may retain the path they were given.
		sub := make(Path, len(path)+1)
		copy(sub, path)
		sub[len(path)] = e.Tag
		for _, off := range offsets {
			if err := walk(c, base, off, sub, maxDepth, visited, fn); err != nil {
				return err
			}
		}
	}
	return nil
}

// Entries collects the whole IFD tree of the CFA record located at base.
func Entries(c *Cursor, base int64, maxDepth int) (paths []Path, entries []Entry, err error) {
	err = Walk(c, base, maxDepth, func(path Path, e Entry) error {
		paths = append(paths, path)
		entries = append(entries, e)
		return nil
	})
	return
}
