package v5a

import (
	"encoding/binary"
	"fmt"
)

// FormatType identifies this package's format_type byte in the shared
// header layout (spec.md section 6: v5a format_type = 0x00).
const FormatType = 0x00

const (
	magic1  = "Zk2u"
	magic2  = "nkas"
	version = 0x05

	// HeaderSize is the packed (unpadded) size of Header in bytes.
	HeaderSize = 88

	// HeaderRegionSize is the header's on-disk footprint: padded to a
	// 256 KiB boundary, as required for every v5a/v5b/v5c format_type.
	HeaderRegionSize = 256 * 1024
)

// Header is the 88-byte fixed header shared by v5a/v5b/v5c, minus the
// checksum field (v5a streams are not independently checksummed; they
// exist only as prealloc/levelling input, produced and consumed in one
// pipeline run).
type Header struct {
	XORGates     uint64
	ANDGates     uint64
	PrimaryInputs uint64
	ScratchSpace uint64 // unused for v5a (wire-ID addressed, not slot-addressed); carried for layout parity.
	NumOutputs   uint64
}

// Validate checks the invariants from spec.md section 3: primary inputs
// plus the two constants must fit, and total gates must not overflow
// when later converted to a scratch space.
func (h Header) Validate() error {
	if h.PrimaryInputs+2 > (1<<34) {
		return fmt.Errorf("v5a: primary_inputs %d too large", h.PrimaryInputs)
	}
	total := h.XORGates + h.ANDGates
	if total < h.XORGates { // overflow
		return fmt.Errorf("v5a: gate count overflow")
	}
	_ = total
	return nil
}

// Marshal writes the packed (unpadded) header.
func (h Header) Marshal() []byte {
	buf := make([]byte, HeaderSize)
	copy(buf[0:4], magic1)
	buf[4] = version
	buf[5] = FormatType
	copy(buf[6:10], magic2)
	// bytes 10-41 reserved for the checksum field in v5b/v5c's layout;
	// v5a leaves them zero.
	binary.LittleEndian.PutUint64(buf[42:50], h.XORGates)
	binary.LittleEndian.PutUint64(buf[50:58], h.ANDGates)
	binary.LittleEndian.PutUint64(buf[58:66], h.PrimaryInputs)
	binary.LittleEndian.PutUint64(buf[66:74], h.ScratchSpace)
	binary.LittleEndian.PutUint64(buf[74:82], h.NumOutputs)
	// bytes 82-87 reserved, zero.
	return buf
}

// UnmarshalHeader parses a packed header and validates its magic,
// version and format_type.
func UnmarshalHeader(buf []byte) (Header, error) {
	if len(buf) < HeaderSize {
		return Header{}, fmt.Errorf("v5a: truncated header: %d bytes", len(buf))
	}
	if string(buf[0:4]) != magic1 || string(buf[6:10]) != magic2 {
		return Header{}, fmt.Errorf("v5a: bad magic")
	}
	if buf[4] != version {
		return Header{}, fmt.Errorf("v5a: unsupported version %d", buf[4])
	}
	if buf[5] != FormatType {
		return Header{}, fmt.Errorf("v5a: unexpected format_type %#x, want %#x",
			buf[5], FormatType)
	}
	for _, b := range buf[82:88] {
		if b != 0 {
			return Header{}, fmt.Errorf("v5a: reserved bytes must be zero")
		}
	}
	h := Header{
		XORGates:      binary.LittleEndian.Uint64(buf[42:50]),
		ANDGates:      binary.LittleEndian.Uint64(buf[50:58]),
		PrimaryInputs: binary.LittleEndian.Uint64(buf[58:66]),
		ScratchSpace:  binary.LittleEndian.Uint64(buf[66:74]),
		NumOutputs:    binary.LittleEndian.Uint64(buf[74:82]),
	}
	return h, h.Validate()
}
