package raf

// Resources:
// https://libopenraw.freedesktop.org/formats/raf/ (container layout)
// https://exiftool.org/TagNames/FujiFilm.html#RAF (CFA header records)
// https://developer.adobe.com/content/dam/udp/en/open/standards/tiff/TIFF6.pdf
// https://developer.adobe.com/content/dam/udp/en/open/standards/tiff/TIFFPM6.pdf (SubIFD Trees)

import (
	"io"

	"github.com/pkg/errors"
	"golang.org/x/exp/mmap"
)

// A File is an opened RAF file.
type File struct {
	Header Header

	c      *Cursor
	closer io.Closer
	opts   Options
}

// Open memory-maps the named file and parses its offset table.
func Open(name string, opts Options) (*File, error) {
	r, err := mmap.Open(name)
	if err != nil {
		return nil, &IOError{Op: "open", Err: err}
	}
	f, err := newFile(r, int64(r.Len()), r, opts)
	if err != nil {
		r.Close()
		return nil, errors.Wrap(err, name)
	}
	return f, nil
}

// NewFile parses the RAF file made of the first size bytes of r.
func NewFile(r io.ReaderAt, size int64, opts Options) (*File, error) {
	return newFile(r, size, nil, opts)
}

func newFile(r io.ReaderAt, size int64, closer io.Closer, opts Options) (*File, error) {
	f := &File{
		c:      NewCursor(r, size),
		closer: closer,
		opts:   opts,
	}
	h, err := ParseHeader(f.c, opts)
	if err != nil {
		return nil, err
	}
	f.Header = h
	return f, nil
}

// Close releases the file mapping, if any.
func (f *File) Close() error {
	if f.closer == nil {
		return nil
	}
	return f.closer.Close()
}

// Cursor returns the byte view of the file.
func (f *File) Cursor() *Cursor {
	return f.c
}

// Identity decodes the identification block.
func (f *File) Identity() (Identity, error) {
	return ReadIdentity(f.c)
}

// SubHeader reads the TIFF header of the CFA record.
func (f *File) SubHeader() (SubHeader, error) {
	return ReadSubHeader(f.c, int64(f.Header.CFARecordOffset))
}

// Walk visits the IFD tree of the CFA record.
func (f *File) Walk(fn WalkFunc) error {
	return Walk(f.c, int64(f.Header.CFARecordOffset), f.opts.maxDepth(), fn)
}

// Records decodes the CFA header records.
func (f *File) Records() ([]Record, error) {
	return ReadRecords(f.c, f.Header)
}

// Plane reads the sensor plane laid out as cam describes.
func (f *File) Plane(cam Camera) (*Plane, error) {
	return ReadPlane(f.c, f.Header, cam)
}

// Bracket locates the exposures of a bracketed file.
func (f *File) Bracket() (*Bracket, error) {
	return ParseBracket(f.c)
}
