package raf

import (
	"fmt"
	"strings"
)

// A FieldType is the data type of an IFD entry.
// Codes outside 1-13 are kept as is and reported as unknown.
type FieldType uint16

// Field types (TIFF 6.0 p. 15-16, IFD from Supplement 1).
const (
	Byte      FieldType = dtByte
	ASCII     FieldType = dtASCII
	Short     FieldType = dtShort
	Long      FieldType = dtLong
	Rational  FieldType = dtRational
	SByte     FieldType = dtSByte
	Undefined FieldType = dtUndefined
	SShort    FieldType = dtSShort
	SLong     FieldType = dtSLong
	SRational FieldType = dtSRational
	Float     FieldType = dtFloat
	Double    FieldType = dtDouble
	IFD       FieldType = dtIFD
)

var fieldTypeNames = [...]string{
	Byte:      "Byte",
	ASCII:     "Ascii",
	Short:     "Short",
	Long:      "Long",
	Rational:  "Ratio",
	SByte:     "SByte",
	Undefined: "Undefined",
	SShort:    "SShort",
	SLong:     "SLong",
	SRational: "SRatio",
	Float:     "Float",
	Double:    "Double",
	IFD:       "Ifd",
}

// Known reports whether t is one of the 13 defined field types.
func (t FieldType) Known() bool {
	return t >= Byte && t <= IFD
}

// Size returns the length in bytes of one value of type t, or 0 if t is unknown.
func (t FieldType) Size() uint32 {
	if !t.Known() {
		return 0
	}
	return lengths[t]
}

// String implements Stringer.
func (t FieldType) String() string {
	if !t.Known() {
		return fmt.Sprintf("Unknown(%d)", uint16(t))
	}
	return fieldTypeNames[t]
}

// An Entry is one 12-byte IFD entry.
type Entry struct {
	Tag   uint16
	Type  FieldType
	Count uint32
	Value uint32 // The value itself when it fits in 4 bytes, an offset otherwise.
}

// Inline reports whether the entry data is stored in Value.
func (e Entry) Inline() bool {
	return e.Type.Known() && e.Type.Size()*e.Count <= 4
}

// String implements Stringer.
func (e Entry) String() string {
	return fmt.Sprintf("Tag = %X; Type = %s; Count = %d; Value = %d", e.Tag, e.Type, e.Count, e.Value)
}

// A Path locates an entry in the directory tree by the tags of the IFD
// entries descended through. The root directory has an empty path.
type Path []uint16

// Depth returns the number of sub-directories between the root and the entry.
func (p Path) Depth() int {
	return len(p)
}

// String implements Stringer.
func (p Path) String() string {
	if len(p) == 0 {
		return "/"
	}
	var sb strings.Builder
	for _, tag := range p {
		sb.WriteString(fmt.Sprintf("/0x%04X", tag))
	}
	return sb.String()
}
