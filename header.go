package raf

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/pkg/errors"
)

// A Header is the offset table of a RAF file.
// All offsets are relative to the start of the file (or of the bracket
// segment it was read from).
type Header struct {
	JPEGOffset      uint32
	JPEGLength      uint32
	CFAHeaderOffset uint32
	CFAHeaderLength uint32
	CFARecordOffset uint32
	CFARecordLength uint32
}

// Options controls how a container is parsed.
type Options struct {
	// ValidateMagic rejects files that do not start with the RAF signature.
	// Legacy tooling trusted the offsets blindly, so it is off by default.
	ValidateMagic bool
	// MaxDepth bounds the IFD tree walk. Zero means 32.
	MaxDepth int
}

func (o Options) maxDepth() int {
	if o.MaxDepth <= 0 {
		return defaultMaxDepth
	}
	return o.MaxDepth
}

// ParseHeader reads the offset table of the RAF file behind c.
func ParseHeader(c *Cursor, opts Options) (Header, error) {
	if opts.ValidateMagic {
		if err := CheckMagic(c); err != nil {
			return Header{}, err
		}
	}
	return ParseHeaderAt(c, 0)
}

// ParseHeaderAt reads an offset table located at base+84.
func ParseHeaderAt(c *Cursor, base int64) (Header, error) {
	p, err := c.Bytes(base+headerOffset, headerLen)
	if err != nil {
		return Header{}, errors.Wrap(err, "could not read offset table")
	}
	be := binary.BigEndian
	return Header{
		JPEGOffset:      be.Uint32(p[0:4]),
		JPEGLength:      be.Uint32(p[4:8]),
		CFAHeaderOffset: be.Uint32(p[8:12]),
		CFAHeaderLength: be.Uint32(p[12:16]),
		CFARecordOffset: be.Uint32(p[16:20]),
		CFARecordLength: be.Uint32(p[20:24]),
	}, nil
}

// CheckMagic verifies the leading RAF signature.
func CheckMagic(c *Cursor) error {
	p, err := c.Bytes(0, magicLen)
	if err != nil {
		return InvalidContainerError("file too short for signature")
	}
	if string(p) != magic {
		return InvalidContainerError(fmt.Sprintf("bad signature %q", p))
	}
	return nil
}

// CFARecord returns the bytes of the CFA record.
func (h Header) CFARecord(c *Cursor) ([]byte, error) {
	b, err := c.Bytes(int64(h.CFARecordOffset), int64(h.CFARecordLength))
	return b, errors.Wrap(err, "could not read CFA record")
}

// JPEG returns the bytes of the embedded preview.
func (h Header) JPEG(c *Cursor) ([]byte, error) {
	b, err := c.Bytes(int64(h.JPEGOffset), int64(h.JPEGLength))
	return b, errors.Wrap(err, "could not read embedded JPEG")
}

// String implements Stringer.
func (h Header) String() string {
	buf := bytes.NewBufferString("")
	buf.WriteString(fmt.Sprintf("JPEG Image: Offset = 0x%X; Length = 0x%X\n", h.JPEGOffset, h.JPEGLength))
	buf.WriteString(fmt.Sprintf("CFA Header: Offset = 0x%X; Length = 0x%X\n", h.CFAHeaderOffset, h.CFAHeaderLength))
	buf.WriteString(fmt.Sprintf("CFA Record: Offset = 0x%X; Length = 0x%X\n", h.CFARecordOffset, h.CFARecordLength))
	return buf.String()
}

// An Identity holds the identification block at the start of a RAF file.
type Identity struct {
	Magic    string
	FormatID string
	CameraID string
	Model    string
	Version  string
}

// ReadIdentity decodes the identification block.
func ReadIdentity(c *Cursor) (Identity, error) {
	p, err := c.Bytes(0, versionOffset+versionLen)
	if err != nil {
		return Identity{}, errors.Wrap(err, "could not read identification block")
	}
	field := func(off, n int) string {
		return string(bytes.TrimRight(p[off:off+n], "\x00 "))
	}
	return Identity{
		Magic:    string(p[:magicLen]),
		FormatID: field(formatIDOffset, formatIDLen),
		CameraID: field(cameraIDOffset, cameraIDLen),
		Model:    field(modelOffset, modelLen),
		Version:  field(versionOffset, versionLen),
	}, nil
}
