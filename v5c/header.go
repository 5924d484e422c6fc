// Package v5c implements the production, zero-copy gate-stream
// container: a fixed 88-byte header (padded to 256 KiB), a padded
// outputs section, and a sequence of 256 KiB gate blocks whose
// structure-of-arrays layout lets a block be cast directly onto a
// processing struct without parsing (spec.md sections 3, 4.C, 6).
//
// Grounded on circuit/marshal.go's field-order Marshal pattern,
// restructured from a variable-length stream of (op, wires...) records
// into the fixed-layout, block-aligned form the spec requires for
// O_DIRECT streaming.
package v5c

import (
	"encoding/binary"
	"fmt"

	"github.com/zeebo/blake3"
)

const (
	magic1  = "Zk2u"
	magic2  = "nkas"
	version = 0x05

	// FormatType identifies the production container among the shared
	// header's format_type values (v5a = 0x00, v5c = 0x02).
	FormatType = 0x02

	// HeaderSize is the packed (unpadded) header size in bytes.
	HeaderSize = 88

	// RegionSize is the size both the header and the outputs section
	// are padded to.
	RegionSize = 256 * 1024

	// MaxMemoryAddress is the largest representable scratch-space size
	// (2^32), per spec.md section 7's address-range error.
	MaxMemoryAddress = uint64(1) << 32
)

// Header is the 88-byte v5c header.
type Header struct {
	Checksum      [32]byte
	XORGates      uint64
	ANDGates      uint64
	PrimaryInputs uint64
	ScratchSpace  uint64
	NumOutputs    uint64
}

// TotalGates returns XORGates + ANDGates.
func (h Header) TotalGates() uint64 {
	return h.XORGates + h.ANDGates
}

// Validate checks the data-model invariants from spec.md section 3:
// scratch_space fits in 32 bits and primary_inputs + 2 (the constants)
// fit within it. Magic, version, format_type and the reserved bytes are
// checked by UnmarshalHeader when the header is decoded.
func (h Header) Validate() error {
	if h.ScratchSpace > MaxMemoryAddress {
		return fmt.Errorf("%w: scratch_space %d exceeds 2^32",
			ErrAddressRange, h.ScratchSpace)
	}
	if h.PrimaryInputs+2 > h.ScratchSpace {
		return fmt.Errorf("%w: primary_inputs+2 (%d) exceeds scratch_space (%d)",
			ErrFormat, h.PrimaryInputs+2, h.ScratchSpace)
	}
	total := h.TotalGates()
	if total < h.XORGates { // wraparound
		return fmt.Errorf("%w: gate count overflow", ErrFormat)
	}
	return nil
}

// marshal writes the 88-byte header with the given checksum value
// (either the real one, for on-disk use, or all-zero, for the checksum
// computation itself).
func (h Header) marshal(checksum [32]byte) []byte {
	buf := make([]byte, HeaderSize)
	copy(buf[0:4], magic1)
	buf[4] = version
	buf[5] = FormatType
	copy(buf[6:10], magic2)
	copy(buf[10:42], checksum[:])
	binary.LittleEndian.PutUint64(buf[42:50], h.XORGates)
	binary.LittleEndian.PutUint64(buf[50:58], h.ANDGates)
	binary.LittleEndian.PutUint64(buf[58:66], h.PrimaryInputs)
	binary.LittleEndian.PutUint64(buf[66:74], h.ScratchSpace)
	binary.LittleEndian.PutUint64(buf[74:82], h.NumOutputs)
	// bytes 82-87: reserved, zero.
	return buf
}

// Marshal writes the padded 256 KiB header region with h's real
// checksum.
func (h Header) Marshal() [RegionSize]byte {
	var region [RegionSize]byte
	copy(region[:], h.marshal(h.Checksum))
	return region
}

// marshalZeroedForChecksum returns the padded header region with the
// checksum field zeroed, as required by the checksum definition in
// spec.md section 3.
func (h Header) marshalZeroedForChecksum() [RegionSize]byte {
	var region [RegionSize]byte
	copy(region[:], h.marshal([32]byte{}))
	return region
}

// UnmarshalHeader parses and validates a header region (or just its
// first HeaderSize bytes; trailing padding is not required).
func UnmarshalHeader(buf []byte) (Header, error) {
	if len(buf) < HeaderSize {
		return Header{}, fmt.Errorf("%w: header is %d bytes, need %d",
			ErrTruncated, len(buf), HeaderSize)
	}
	if string(buf[0:4]) != magic1 || string(buf[6:10]) != magic2 {
		return Header{}, fmt.Errorf("%w: bad magic", ErrFormat)
	}
	if buf[4] != version {
		return Header{}, fmt.Errorf("%w: unsupported version %d", ErrFormat, buf[4])
	}
	if buf[5] != FormatType {
		return Header{}, fmt.Errorf("%w: unexpected format_type %#x, want %#x",
			ErrFormat, buf[5], FormatType)
	}
	for _, b := range buf[82:88] {
		if b != 0 {
			return Header{}, fmt.Errorf("%w: reserved bytes must be zero", ErrFormat)
		}
	}
	var h Header
	copy(h.Checksum[:], buf[10:42])
	h.XORGates = binary.LittleEndian.Uint64(buf[42:50])
	h.ANDGates = binary.LittleEndian.Uint64(buf[50:58])
	h.PrimaryInputs = binary.LittleEndian.Uint64(buf[58:66])
	h.ScratchSpace = binary.LittleEndian.Uint64(buf[66:74])
	h.NumOutputs = binary.LittleEndian.Uint64(buf[74:82])
	return h, h.Validate()
}

// ComputeChecksum hashes, in order, the full padded gate blocks, the
// padded outputs section, and the header with its checksum field
// zeroed -- exactly the order spec.md section 3 defines.
func ComputeChecksum(h Header, outputsPadded []byte, blocks [][BlockSize]byte) [32]byte {
	hasher := blake3.New()
	for _, b := range blocks {
		hasher.Write(b[:])
	}
	hasher.Write(outputsPadded)
	zeroed := h.marshalZeroedForChecksum()
	hasher.Write(zeroed[:])

	var out [32]byte
	copy(out[:], hasher.Sum(nil))
	return out
}
