package raf

import (
	"encoding/binary"
	"fmt"

	"github.com/pkg/errors"
)

// A Record is one entry of the CFA header: a big-endian id, a size and
// size bytes of data.
type Record struct {
	ID   uint16
	Data []byte
}

// ReadRecords decodes the CFA header records of the RAF file behind c.
func ReadRecords(c *Cursor, h Header) ([]Record, error) {
	p, err := c.Bytes(int64(h.CFAHeaderOffset), int64(h.CFAHeaderLength))
	if err != nil {
		return nil, errors.Wrap(err, "could not read CFA header")
	}
	if len(p) < 4 {
		return nil, MalformedDirectoryError(fmt.Sprintf("CFA header of %d bytes has no record count", len(p)))
	}

	be := binary.BigEndian
	n := be.Uint32(p[0:4])
	// Each record takes at least 4 bytes.
	if uint64(n)*4 > uint64(len(p)-4) {
		return nil, MalformedDirectoryError(fmt.Sprintf("CFA header declares %d records in %d bytes", n, len(p)))
	}

	records := make([]Record, 0, n)
	pos := 4
	for i := uint32(0); i < n; i++ {
		if pos+4 > len(p) {
			return nil, MalformedDirectoryError(fmt.Sprintf("CFA header record #%d starts past its end", i))
		}
		id := be.Uint16(p[pos:])
		size := int(be.Uint16(p[pos+2:]))
		pos += 4
		if pos+size > len(p) {
			return nil, MalformedDirectoryError(fmt.Sprintf("CFA header record 0x%04X of %d bytes overflows its end", id, size))
		}
		records = append(records, Record{ID: id, Data: p[pos : pos+size]})
		pos += size
	}
	return records, nil
}

// Name returns the common name of the record.
func (r Record) Name() string {
	switch r.ID {
	case rRawImageFullSize:
		return "RawImageFullSize"
	case rRawImageCropTopLeft:
		return "RawImageCropTopLeft"
	case rRawImageCroppedSize:
		return "RawImageCroppedSize"
	case rRawImageAspectRatio:
		return "RawImageAspectRatio"
	case rRawImageSize:
		return "RawImageSize"
	case rFujiLayout:
		return "FujiLayout"
	case rXTransLayout:
		return "XTransLayout"
	case rWBGRGBLevelsAuto:
		return "WB_GRGBLevelsAuto"
	case rWBGRGBLevels:
		return "WB_GRGBLevels"
	case rRawExposureBias:
		return "RawExposureBias"
	case rRAFData:
		return "RAFData"
	default:
		return fmt.Sprintf("Unknown(0x%04X)", r.ID)
	}
}

// PrettyPrintedValue returns the formatted value.
func (r Record) PrettyPrintedValue() string {
	be := binary.BigEndian
	switch r.ID {
	case rRawImageFullSize, rRawImageCropTopLeft, rRawImageCroppedSize, rRawImageAspectRatio, rRawImageSize:
		if len(r.Data) == 4 {
			// Stored as height then width.
			return fmt.Sprintf("%dx%d", be.Uint16(r.Data[2:4]), be.Uint16(r.Data[0:2]))
		}
	case rXTransLayout:
		if p, err := ParseXTransLayout(r.Data); err == nil {
			return p.String()
		}
	case rWBGRGBLevelsAuto, rWBGRGBLevels:
		if len(r.Data) == 8 {
			return fmt.Sprintf("%d %d %d %d", be.Uint16(r.Data[0:2]), be.Uint16(r.Data[2:4]), be.Uint16(r.Data[4:6]), be.Uint16(r.Data[6:8]))
		}
	case rRAFData:
		return fmt.Sprintf("%d bytes", len(r.Data))
	}
	if len(r.Data) > 16 {
		return fmt.Sprintf("% X ... (%d bytes)", r.Data[:16], len(r.Data))
	}
	return fmt.Sprintf("% X", r.Data)
}

// String implements Stringer.
func (r Record) String() string {
	return fmt.Sprintf("%s: %s", r.Name(), r.PrettyPrintedValue())
}

// ParseXTransLayout decodes the 36 bytes of an XTransLayout record.
// The camera stores the tile last cell first, two bits per channel.
func ParseXTransLayout(data []byte) (Pattern, error) {
	var p Pattern
	if len(data) != 36 {
		return p, errors.Errorf("XTransLayout needs 36 bytes, got %d", len(data))
	}
	for i, b := range data {
		c := b & 3
		if c > Blue {
			return p, errors.Errorf("XTransLayout cell %d has invalid channel %d", i, c)
		}
		j := 35 - i
		p[j/6][j%6] = c
	}
	return p, nil
}
