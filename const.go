package raf

// A RAF file starts with a fixed identification block followed by a table
// of offsets into the file, all big-endian:
//
//  - magic string (16 bytes), format id (4 bytes), camera id (8 bytes),
//  - camera model (32 bytes, NUL padded), version (4 bytes),
//  - 20 unknown bytes,
//  - the offset table: JPEG, CFA header and CFA record offset/length pairs.
//
// The CFA record embeds a little-endian TIFF structure whose offsets are
// relative to the start of the record. The raw samples follow it at a
// camera specific distance (0x800 on the supported sensors).

const (
	magic = "FUJIFILMCCD-RAW " // Leading signature of every RAF file.

	magicLen       = 16
	formatIDOffset = 16
	formatIDLen    = 4
	cameraIDOffset = 20
	cameraIDLen    = 8
	modelOffset    = 28
	modelLen       = 32
	versionOffset  = 60
	versionLen     = 4

	headerOffset = 84 // Absolute offset of the offset table.
	headerLen    = 24 // Six big-endian uint32.

	// Position of cfa_record_length inside the offset table.
	cfaRecordLengthField = 20

	subHeaderLen = 8  // Byte order, magic and first IFD offset.
	ifdLen       = 12 // Length of an IFD entry in bytes.

	defaultPlaneOffset = 0x800
	defaultMaxDepth    = 32
)

// Data types (p. 14-16 of the TIFF spec, IFD from Supplement 1).
const (
	dtByte      = 1
	dtASCII     = 2
	dtShort     = 3
	dtLong      = 4
	dtRational  = 5
	dtSByte     = 6
	dtUndefined = 7
	dtSShort    = 8
	dtSLong     = 9
	dtSRational = 10
	dtFloat     = 11
	dtDouble    = 12
	dtIFD       = 13
)

// The length of one instance of each data type in bytes.
var lengths = [...]uint32{0, 1, 1, 2, 4, 8, 1, 1, 2, 4, 8, 4, 8, 4}

// CFA header record ids, as found at the CFA header offset.
const (
	rRawImageFullSize    = 0x0100
	rRawImageCropTopLeft = 0x0110
	rRawImageCroppedSize = 0x0111
	rRawImageAspectRatio = 0x0115
	rRawImageSize        = 0x0121
	rFujiLayout          = 0x0130
	rXTransLayout        = 0x0131
	rWBGRGBLevelsAuto    = 0x2000
	rWBGRGBLevels        = 0x2ff0
	rRawExposureBias     = 0x9650
	rRAFData             = 0xc000
)

// Channel indices used by a Pattern.
const (
	Red   = 0
	Green = 1
	Blue  = 2
)
