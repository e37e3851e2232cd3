package container

import (
	"errors"
	"fmt"
)

const (
	// Magic identifies KORG container files.
	Magic = "KORG"
	// VersionMajor and VersionMinor are the single supported format version.
	VersionMajor = 1
	VersionMinor = 0
	// EndiannessTag is the little-endian sentinel stored at byte 8. A file
	// produced on a foreign byte order stores the byte-swapped value and is
	// rejected.
	EndiannessTag = 0x12345678
	// HeaderSize is the fixed header length in bytes.
	HeaderSize = 256
)

// Little-endian header layout (byte offsets).
const (
	offMagic           = 0   // 4 bytes
	offVersionMajor    = 4   // u16
	offVersionMinor    = 6   // u16
	offEndianness      = 8   // u32
	offHeaderSize      = 12  // u32
	offNGenes          = 16  // u64
	offNCells          = 24  // u64
	offNNZ             = 32  // u64
	offGeneTableOff    = 40  // u64
	offGeneTableBytes  = 48  // u64
	offBarcodeTableOff = 56  // u64
	offBarcodeBytes    = 64  // u64
	offColPtr          = 72  // u64
	offRowIdx          = 80  // u64
	offValues          = 88  // u64
	offBlockCount      = 96  // u64
	offBlocksOffset    = 104 // u64
	offFileBytes       = 112 // u64
	offHeaderCRC       = 120 // u64
	offDataCRC         = 128 // u64, reserved, must be 0
)

// Header is the decoded 256-byte container header.
type Header struct {
	NGenes             uint64
	NCells             uint64
	NNZ                uint64
	GeneTableOffset    uint64
	GeneTableBytes     uint64
	BarcodeTableOffset uint64
	BarcodeTableBytes  uint64
	ColPtrOffset       uint64
	RowIdxOffset       uint64
	ValuesOffset       uint64
	BlockCount         uint64
	BlocksOffset       uint64
	FileBytes          uint64
	HeaderCRC64        uint64
	DataCRC64          uint64
}

var (
	// ErrTooSmall indicates the file cannot even hold the fixed header.
	ErrTooSmall = errors.New("container file smaller than 256-byte header")
	// ErrInvalidMagic indicates the magic bytes do not spell "KORG".
	ErrInvalidMagic = errors.New("invalid magic; expected KORG")
	// ErrInvalidVersion indicates an unsupported format version.
	ErrInvalidVersion = errors.New("unsupported container version")
	// ErrForeignEndianness indicates the file was produced on a foreign
	// byte order.
	ErrForeignEndianness = errors.New("unsupported endianness tag")
)

// InvalidError is a structurally well-formed file violating a declared
// invariant. Reason names the specific invariant, never a generic
// "corrupt file".
type InvalidError struct {
	Reason string
}

func (e *InvalidError) Error() string {
	return "invalid container: " + e.Reason
}

func invalidf(format string, args ...any) error {
	return &InvalidError{Reason: fmt.Sprintf(format, args...)}
}

// ChecksumMismatchError is returned when the recomputed header checksum does
// not reproduce the stored value.
type ChecksumMismatchError struct {
	Expected uint64
	Actual   uint64
}

func (e *ChecksumMismatchError) Error() string {
	return fmt.Sprintf("header checksum mismatch: stored 0x%016x, computed 0x%016x", e.Expected, e.Actual)
}

// IsChecksumMismatch reports whether err is a checksum mismatch.
func IsChecksumMismatch(err error) bool {
	var cm *ChecksumMismatchError
	return errors.As(err, &cm)
}
