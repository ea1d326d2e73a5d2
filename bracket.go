package raf

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
)

// ExposureLabels are the exposure values of a bracketed RAF file, in the
// order the camera stores them.
var ExposureLabels = [...]string{"±0", "-1", "+1"}

// A Segment is one exposure of a bracketed file.
// The offsets of its Header are relative to Start.
type Segment struct {
	Label  string
	Start  int64
	Header Header
}

// CFAOffset returns the absolute position of the segment CFA record.
func (s Segment) CFAOffset() int64 {
	return s.Start + int64(s.Header.CFARecordOffset)
}

// End returns the absolute position right after the segment CFA record,
// where the next segment starts.
func (s Segment) End() int64 {
	return s.CFAOffset() + int64(s.Header.CFARecordLength)
}

// A Bracket describes a bracketed RAF file: a leading region shared by all
// exposures (identification, embedded JPEG and CFA header of the first
// exposure) followed by one offset table and CFA record per exposure.
type Bracket struct {
	Leading  int64
	Segments []Segment
}

// ParseBracket locates the three exposures of the bracketed file behind c.
func ParseBracket(c *Cursor) (*Bracket, error) {
	b := &Bracket{Segments: make([]Segment, 0, len(ExposureLabels))}

	var start int64
	for _, label := range ExposureLabels {
		h, err := ParseHeaderAt(c, start)
		if err != nil {
			return nil, &IncompleteBracketError{Found: len(b.Segments), Err: errors.Wrapf(err, "exposure %sEV", label)}
		}
		s := Segment{Label: label, Start: start, Header: h}

		switch {
		case h.CFARecordOffset < headerOffset+headerLen:
			err = errors.Errorf("exposure %sEV: CFA record at 0x%X overlaps its offset table", label, h.CFARecordOffset)
		case h.CFARecordLength == 0:
			err = errors.Errorf("exposure %sEV: empty CFA record", label)
		default:
			err = errors.Wrapf(c.check(s.CFAOffset(), int64(h.CFARecordLength)), "exposure %sEV", label)
		}
		if err != nil {
			return nil, &IncompleteBracketError{Found: len(b.Segments), Err: err}
		}

		b.Segments = append(b.Segments, s)
		start = s.End()
	}

	b.Leading = int64(b.Segments[0].Header.CFARecordOffset)
	return b, nil
}

// WriteSegment writes the i-th exposure as a standalone RAF file: the
// shared leading region followed by the exposure CFA record. The CFA record
// length of the copied offset table is set to the exposure one.
func (b *Bracket) WriteSegment(w io.Writer, c *Cursor, i int) error {
	if i < 0 || i >= len(b.Segments) {
		return errors.Errorf("no exposure #%d in bracket", i)
	}
	s := b.Segments[i]

	leading, err := c.Bytes(0, b.Leading)
	if err != nil {
		return errors.Wrap(err, "could not read leading region")
	}
	binary.BigEndian.PutUint32(leading[headerOffset+cfaRecordLengthField:], s.Header.CFARecordLength)
	if _, err = w.Write(leading); err != nil {
		return &IOError{Op: "write leading region", Err: err}
	}

	r, err := c.Section(s.CFAOffset(), int64(s.Header.CFARecordLength))
	if err != nil {
		return errors.Wrapf(err, "could not read exposure %sEV", s.Label)
	}
	if _, err = io.Copy(w, r); err != nil {
		return &IOError{Op: fmt.Sprintf("copy exposure %sEV", s.Label), Err: err}
	}
	return nil
}

// BracketName returns the file name of an exposure extracted from source.
func BracketName(source, label string) string {
	base := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	return fmt.Sprintf("%s (%sEV).RAF", base, label)
}

// ExtractBracket splits the bracketed file behind c, named source, into one
// RAF file per exposure written in dir (the source directory when empty).
// It returns the written paths. On failure no output is left behind.
func ExtractBracket(c *Cursor, source, dir string) ([]string, error) {
	b, err := ParseBracket(c)
	if err != nil {
		return nil, err
	}
	if dir == "" {
		dir = filepath.Dir(source)
	}

	paths := make([]string, 0, len(b.Segments))
	for i, s := range b.Segments {
		path := filepath.Join(dir, BracketName(source, s.Label))
		paths = append(paths, path)

		if err = writeSegmentFile(path, b, c, i); err != nil {
			break
		}
	}
	if err == nil {
		return paths, nil
	}

	var result error = err
	for _, path := range paths {
		if rerr := os.Remove(path); rerr != nil && !os.IsNotExist(rerr) {
			result = multierror.Append(result, rerr)
		}
	}
	return nil, result
}

func writeSegmentFile(path string, b *Bracket, c *Cursor, i int) error {
	f, err := os.Create(path)
	if err != nil {
		return &IOError{Op: "create", Err: err}
	}
	if err = b.WriteSegment(f, c, i); err != nil {
		f.Close()
		return err
	}
	if err = f.Close(); err != nil {
		return &IOError{Op: "close", Err: err}
	}
	return nil
}
