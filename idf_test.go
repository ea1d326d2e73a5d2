package raf

import (
	"encoding/binary"
	"testing"

	"github.com/mdouchement/raf/internal/raftest"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tiffRecord returns a CFA record made of a sub-header pointing at offset 8
// and the given directories, each placed at its offset.
func tiffRecord(size int, dirs map[uint32][]raftest.Entry) []byte {
	p := make([]byte, size)
	copy(p, "II\x2A\x00")
	binary.LittleEndian.PutUint32(p[4:], 8)
	for off, entries := range dirs {
		raftest.PutIFD(p[off:], entries)
	}
	return p
}

func TestReadSubHeader(t *testing.T) {
	data := raftest.Fixture{Width: 6, Height: 6}.Bytes()

	sh, err := ReadSubHeader(NewBytesCursor(data), raftest.CFARecordOffset)
	require.NoError(t, err)
	assert.Equal(t, SubHeader{ByteOrder: 0x4949, Magic: 42, FirstIFDOffset: 8}, sh)
}

func TestWalk_SingleEntry(t *testing.T) {
	p := tiffRecord(64, map[uint32][]raftest.Entry{
		8: {{Tag: 0x0100, Type: 3, Count: 1, Value: 0x2A}},
	})

	paths, entries, err := Entries(NewBytesCursor(p), 0, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, Entry{Tag: 0x0100, Type: Short, Count: 1, Value: 0x2A}, entries[0])
	assert.Equal(t, Short, entries[0].Type)
	assert.Equal(t, "/", paths[0].String())
}

func TestWalk_Tree(t *testing.T) {
	data := raftest.Fixture{Width: 12, Height: 6}.Bytes()
	c := NewBytesCursor(data)

	var tags []uint16
	var paths []string
	err := Walk(c, raftest.CFARecordOffset, 0, func(path Path, e Entry) error {
		tags = append(tags, e.Tag)
		paths = append(paths, path.String())
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []uint16{0x0100, 0xF000, 0xF001, 0xF002, 0xF003}, tags)
	assert.Equal(t, []string{"/", "/", "/0xF000", "/0xF000", "/0xF000"}, paths)

	// Walks are restartable and read the same tree again.
	_, again, err := Entries(c, raftest.CFARecordOffset, 0)
	require.NoError(t, err)
	assert.Len(t, again, 5)
}

func TestWalk_SeveralSubDirectories(t *testing.T) {
	p := tiffRecord(256, map[uint32][]raftest.Entry{
		8:    {{Tag: 0x014A, Type: 13, Count: 2, Value: 0x40}},
		0x60: {{Tag: 0x0001, Type: 4, Count: 1, Value: 1}},
		0x80: {{Tag: 0x0002, Type: 4, Count: 1, Value: 2}},
	})
	binary.LittleEndian.PutUint32(p[0x40:], 0x60)
	binary.LittleEndian.PutUint32(p[0x44:], 0x80)

	paths, entries, err := Entries(NewBytesCursor(p), 0, 0)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.EqualValues(t, 1, entries[1].Value)
	assert.EqualValues(t, 2, entries[2].Value)
	assert.Equal(t, Path{0x014A}, paths[2])
}

func TestWalk_SelfReference(t *testing.T) {
	// The only entry points back at its own directory.
	p := tiffRecord(64, map[uint32][]raftest.Entry{
		8: {{Tag: 0xF000, Type: 13, Count: 1, Value: 8}},
	})

	visited := 0
	err := Walk(NewBytesCursor(p), 0, 0, func(Path, Entry) error {
		visited++
		return nil
	})
	assert.IsType(t, MalformedDirectoryError(""), err)
	assert.Equal(t, 1, visited)
}

// chain returns a record of n directories, 32 bytes apart, where each one
// but the last points at the next through the given tags. The last one holds
// a single Long entry.
func chain(n int, tags ...uint16) []byte {
	dirs := map[uint32][]raftest.Entry{}
	for i := 0; i < n; i++ {
		off := uint32(8 + 32*i)
		if i == n-1 {
			dirs[off] = []raftest.Entry{{Tag: 0x0001, Type: 4, Count: 1, Value: 1}}
			break
		}
		for _, tag := range tags {
			dirs[off] = append(dirs[off], raftest.Entry{Tag: tag, Type: 13, Count: 1, Value: off + 32})
		}
	}
	return tiffRecord(8+32*n, dirs)
}

func TestWalk_DepthLimit(t *testing.T) {
	p := chain(6, 0xF000)

	_, entries, err := Entries(NewBytesCursor(p), 0, 0)
	require.NoError(t, err)
	assert.Len(t, entries, 6)

	visited := 0
	err = Walk(NewBytesCursor(p), 0, 2, func(Path, Entry) error {
		visited++
		return nil
	})
	assert.IsType(t, MalformedDirectoryError(""), err)
	assert.Equal(t, 3, visited)
}

func TestWalk_SharedChild(t *testing.T) {
	// Every level points twice at the next one: walked naively, the leaf
	// would be read 2^30 times.
	p := chain(31, 0xF000, 0xF001)

	visited := 0
	err := Walk(NewBytesCursor(p), 0, 64, func(Path, Entry) error {
		visited++
		return nil
	})
	assert.IsType(t, MalformedDirectoryError(""), err)
	assert.Contains(t, err.Error(), "IFD at 0x3C8 reached twice")
	// 30 first entries on the way down, the leaf, then the second entry of
	// the deepest pointing level.
	assert.Equal(t, 32, visited)

	// The same offset listed twice in a sub-IFD array.
	p = tiffRecord(256, map[uint32][]raftest.Entry{
		8:    {{Tag: 0x014A, Type: 13, Count: 2, Value: 0x40}},
		0x60: {{Tag: 0x0001, Type: 4, Count: 1, Value: 1}},
	})
	binary.LittleEndian.PutUint32(p[0x40:], 0x60)
	binary.LittleEndian.PutUint32(p[0x44:], 0x60)

	_, _, err = Entries(NewBytesCursor(p), 0, 0)
	assert.IsType(t, MalformedDirectoryError(""), err)
}

func TestReadDirectory_Malformed(t *testing.T) {
	p := tiffRecord(64, nil)
	binary.LittleEndian.PutUint16(p[8:], 500)

	_, err := ReadDirectory(NewBytesCursor(p), 0, 8)
	assert.IsType(t, MalformedDirectoryError(""), err)

	// Malformed directories are not skipped.
	err = Walk(NewBytesCursor(p), 0, 0, func(Path, Entry) error { return nil })
	assert.IsType(t, MalformedDirectoryError(""), err)

	_, err = ReadDirectory(NewBytesCursor(p), 0, 63)
	var terr *TruncatedInputError
	assert.True(t, errors.As(err, &terr))
}

func TestWalk_StopsOnCallbackError(t *testing.T) {
	data := raftest.Fixture{Width: 6, Height: 6}.Bytes()
	stop := errors.New("stop")

	visited := 0
	err := Walk(NewBytesCursor(data), raftest.CFARecordOffset, 0, func(Path, Entry) error {
		visited++
		return stop
	})
	assert.Equal(t, stop, err)
	assert.Equal(t, 1, visited)
}

func TestFieldType(t *testing.T) {
	tests := []struct {
		t    FieldType
		name string
		size uint32
	}{
		{Byte, "Byte", 1},
		{ASCII, "Ascii", 1},
		{Short, "Short", 2},
		{Long, "Long", 4},
		{Rational, "Ratio", 8},
		{SByte, "SByte", 1},
		{Undefined, "Undefined", 1},
		{SShort, "SShort", 2},
		{SLong, "SLong", 4},
		{SRational, "SRatio", 8},
		{Float, "Float", 4},
		{Double, "Double", 8},
		{IFD, "Ifd", 4},
		{0, "Unknown(0)", 0},
		{42, "Unknown(42)", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.name, tt.t.String())
			assert.Equal(t, tt.size, tt.t.Size())
			assert.Equal(t, tt.size != 0, tt.t.Known())
		})
	}

	assert.True(t, Entry{Type: Short, Count: 2}.Inline())
	assert.False(t, Entry{Type: Rational, Count: 1}.Inline())
	assert.False(t, Entry{Type: 99, Count: 1}.Inline())
}
