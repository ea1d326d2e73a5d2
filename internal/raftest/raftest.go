// Package raftest builds synthetic RAF files for tests.
//
// The layout is written byte by byte, independently of the raf package:
//
//	0x000  identification block, offset table at 84
//	0x100  embedded JPEG
//	0x200  CFA header records
//	0x400  CFA record: TIFF sub-header, IFD tree, samples at +PlaneOffset
package raftest

import (
	"bytes"
	"encoding/binary"
)

// Fixed positions of the synthetic layout.
const (
	JPEGOffset      = 0x100
	CFAHeaderOffset = 0x200
	CFARecordOffset = 0x400
	PlaneOffset     = 0x800

	// Offset of the sub-directory in the CFA record.
	SubIFDOffset = 0x40
)

// JPEG is the fake preview stored in every fixture.
var JPEG = []byte{0xFF, 0xD8, 0xFF, 0xE1, 0x00, 0x08, 'E', 'x', 'i', 'f', 0x00, 0x00, 0xFF, 0xD9}

// A Record is one CFA header record.
type Record struct {
	ID   uint16
	Data []byte
}

// A Fixture describes a single exposure RAF file.
type Fixture struct {
	Model   string
	Width   int
	Height  int
	Samples []uint16 // Width*Height samples; zeroes when nil.
	Records []Record // Defaults to RawImageFullSize.
}

// Gradient returns w*h samples increasing along rows and columns, within 14 bits.
func Gradient(w, h int) []uint16 {
	s := make([]uint16, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			s[y*w+x] = uint16((x*97 + y*31) % 0x4000)
		}
	}
	return s
}

// RecordLength returns the CFA record length of f.
func (f Fixture) RecordLength() int {
	return PlaneOffset + 2*f.Width*f.Height
}

// Bytes returns the RAF file described by f.
func (f Fixture) Bytes() []byte {
	le, be := binary.LittleEndian, binary.BigEndian
	buf := make([]byte, CFARecordOffset+f.RecordLength())

	// Identification block.
	copy(buf[0:], "FUJIFILMCCD-RAW ")
	copy(buf[16:], "0201")
	copy(buf[20:], "FF129502")
	model := f.Model
	if model == "" {
		model = "X-T3"
	}
	copy(buf[28:60], model)
	copy(buf[60:], "0100")

	// Offset table.
	for i, v := range []int{JPEGOffset, len(JPEG), CFAHeaderOffset, CFARecordOffset - CFAHeaderOffset, CFARecordOffset, f.RecordLength()} {
		be.PutUint32(buf[84+4*i:], uint32(v))
	}

	copy(buf[JPEGOffset:], JPEG)

	// CFA header records.
	records := f.Records
	if records == nil {
		size := make([]byte, 4)
		be.PutUint16(size[0:], uint16(f.Height))
		be.PutUint16(size[2:], uint16(f.Width))
		records = []Record{{ID: 0x0100, Data: size}}
	}
	var rec bytes.Buffer
	binary.Write(&rec, be, uint32(len(records)))
	for _, r := range records {
		binary.Write(&rec, be, r.ID)
		binary.Write(&rec, be, uint16(len(r.Data)))
		rec.Write(r.Data)
	}
	copy(buf[CFAHeaderOffset:CFARecordOffset], rec.Bytes())

	// CFA record: TIFF sub-header and a two level IFD tree.
	cfa := buf[CFARecordOffset:]
	copy(cfa[0:], "II\x2A\x00")
	le.PutUint32(cfa[4:], 8)
	PutIFD(cfa[8:], []Entry{
		{Tag: 0x0100, Type: 3, Count: 1, Value: uint32(f.Width)},
		{Tag: 0xF000, Type: 13, Count: 1, Value: SubIFDOffset},
	})
	PutIFD(cfa[SubIFDOffset:], []Entry{
		{Tag: 0xF001, Type: 4, Count: 1, Value: uint32(f.Width)},
		{Tag: 0xF002, Type: 4, Count: 1, Value: uint32(f.Height)},
		{Tag: 0xF003, Type: 4, Count: 1, Value: 14},
	})

	for i, s := range f.Samples {
		le.PutUint16(cfa[PlaneOffset+2*i:], s)
	}
	return buf
}

// An Entry is one IFD entry.
type Entry struct {
	Tag   uint16
	Type  uint16
	Count uint32
	Value uint32
}

// PutIFD writes an IFD (count then 12-byte entries, little-endian) at the start of p.
func PutIFD(p []byte, entries []Entry) {
	le := binary.LittleEndian
	le.PutUint16(p[0:], uint16(len(entries)))
	for i, e := range entries {
		q := p[2+12*i:]
		le.PutUint16(q[0:], e.Tag)
		le.PutUint16(q[2:], e.Type)
		le.PutUint32(q[4:], e.Count)
		le.PutUint32(q[8:], e.Value)
	}
}

// Bracket returns a bracketed RAF file made of the given exposures, in order.
// Every exposure starts where the CFA record of the previous one ends.
func Bracket(exposures ...Fixture) []byte {
	var buf bytes.Buffer
	for _, f := range exposures {
		buf.Write(f.Bytes())
	}
	return buf.Bytes()
}
