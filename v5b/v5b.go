// Package v5b implements the level-ordered intermediate format: a
// sequence of levels, each a maximal set of mutually data-independent
// gates, safe to hand to a worker-pool for parallel XOR/AND processing
// (spec.md sections 4.F, 6).
//
// Grounded on gmw/gmw.go's Gate.Level / round-based gate grouping: GMW's
// protocol rounds are exactly v5b's levels (gates at the same round are
// mutually independent and evaluated concurrently across peers); this
// package generalizes that grouping from a multi-party protocol round to
// a single-process worker-pool partition.
package v5b

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/zk2u/gatestream/v5c"
)

// FormatType identifies the level-ordered format (v5a=0x00, v5b=0x01,
// v5c=0x02).
const FormatType = 0x01

const (
	magic1  = "Zk2u"
	magic2  = "nkas"
	version = 0x05

	// HeaderSize is the packed header size: v5c's 88 bytes plus a
	// trailing num_levels u32.
	HeaderSize = v5c.HeaderSize + 4

	// RegionSize is the padded size of the header and outputs sections.
	RegionSize = v5c.RegionSize
)

// Header is the v5b file header: the same fields as v5c.Header plus the
// level count.
type Header struct {
	Checksum      [32]byte
	XORGates      uint64
	ANDGates      uint64
	PrimaryInputs uint64
	ScratchSpace  uint64
	NumOutputs    uint64
	NumLevels     uint32
}

// Marshal writes the padded 256 KiB header region.
func (h Header) Marshal() [RegionSize]byte {
	var region [RegionSize]byte
	buf := region[:HeaderSize]
	copy(buf[0:4], magic1)
	buf[4] = version
	buf[5] = FormatType
	copy(buf[6:10], magic2)
	copy(buf[10:42], h.Checksum[:])
	binary.LittleEndian.PutUint64(buf[42:50], h.XORGates)
	binary.LittleEndian.PutUint64(buf[50:58], h.ANDGates)
	binary.LittleEndian.PutUint64(buf[58:66], h.PrimaryInputs)
	binary.LittleEndian.PutUint64(buf[66:74], h.ScratchSpace)
	binary.LittleEndian.PutUint64(buf[74:82], h.NumOutputs)
	// bytes 82-87 reserved, zero.
	binary.LittleEndian.PutUint32(buf[88:92], h.NumLevels)
	return region
}

// UnmarshalHeader parses and validates a header region.
func UnmarshalHeader(buf []byte) (Header, error) {
	if len(buf) < HeaderSize {
		return Header{}, fmt.Errorf("v5b: truncated header: %d bytes", len(buf))
	}
	if string(buf[0:4]) != magic1 || string(buf[6:10]) != magic2 {
		return Header{}, fmt.Errorf("v5b: bad magic")
	}
	if buf[4] != version {
		return Header{}, fmt.Errorf("v5b: unsupported version %d", buf[4])
	}
	if buf[5] != FormatType {
		return Header{}, fmt.Errorf("v5b: unexpected format_type %#x, want %#x",
			buf[5], FormatType)
	}
	var h Header
	copy(h.Checksum[:], buf[10:42])
	h.XORGates = binary.LittleEndian.Uint64(buf[42:50])
	h.ANDGates = binary.LittleEndian.Uint64(buf[50:58])
	h.PrimaryInputs = binary.LittleEndian.Uint64(buf[58:66])
	h.ScratchSpace = binary.LittleEndian.Uint64(buf[66:74])
	h.NumOutputs = binary.LittleEndian.Uint64(buf[74:82])
	h.NumLevels = binary.LittleEndian.Uint32(buf[88:92])
	return h, nil
}

// Record is one gate within a level: already scratch-addressed, with
// its type implied by which of the level's two slices it lives in.
type Record struct {
	In1, In2, Out v5c.Address
}

// Level is a maximal set of gates none of which depends on another
// gate in the same level. XOR records and AND records may be processed
// concurrently by independent worker-pool slices; order within each
// slice does not matter.
type Level struct {
	XOR []Record
	AND []Record
}

func recordsFromGates(gates []v5c.Gate) []Record {
	r := make([]Record, len(gates))
	for i, g := range gates {
		r[i] = Record{In1: g.In1, In2: g.In2, Out: g.Out}
	}
	return r
}

func padTo(n, boundary int) int {
	if n%boundary == 0 {
		return n
	}
	return n + (boundary - n%boundary)
}

// WriteFile serializes a complete v5b file: header, outputs, then each
// level's {num_xor, num_and} header followed by its XOR then AND
// records.
func WriteFile(w io.Writer, h Header, outputs []v5c.Address, levels []Level) error {
	h.NumOutputs = uint64(len(outputs))
	h.NumLevels = uint32(len(levels))
	h.XORGates, h.ANDGates = 0, 0
	for _, lvl := range levels {
		h.XORGates += uint64(len(lvl.XOR))
		h.ANDGates += uint64(len(lvl.AND))
	}

	region := h.Marshal()
	if _, err := w.Write(region[:]); err != nil {
		return err
	}

	outBuf := make([]byte, len(outputs)*4)
	for i, a := range outputs {
		binary.LittleEndian.PutUint32(outBuf[i*4:], a)
	}
	outPadded := make([]byte, padTo(len(outBuf), RegionSize))
	copy(outPadded, outBuf)
	if _, err := w.Write(outPadded); err != nil {
		return err
	}

	for _, lvl := range levels {
		var lvlHdr [8]byte
		binary.LittleEndian.PutUint32(lvlHdr[0:4], uint32(len(lvl.XOR)))
		binary.LittleEndian.PutUint32(lvlHdr[4:8], uint32(len(lvl.AND)))
		if _, err := w.Write(lvlHdr[:]); err != nil {
			return err
		}
		if err := writeRecords(w, lvl.XOR); err != nil {
			return err
		}
		if err := writeRecords(w, lvl.AND); err != nil {
			return err
		}
	}
	return nil
}

func writeRecords(w io.Writer, records []Record) error {
	buf := make([]byte, len(records)*12)
	for i, r := range records {
		off := i * 12
		binary.LittleEndian.PutUint32(buf[off:], r.In1)
		binary.LittleEndian.PutUint32(buf[off+4:], r.In2)
		binary.LittleEndian.PutUint32(buf[off+8:], r.Out)
	}
	_, err := w.Write(buf)
	return err
}

func readRecords(r io.Reader, n uint32) ([]Record, error) {
	buf := make([]byte, int(n)*12)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("v5b: truncated level records: %w", err)
	}
	records := make([]Record, n)
	for i := range records {
		off := i * 12
		records[i] = Record{
			In1: binary.LittleEndian.Uint32(buf[off:]),
			In2: binary.LittleEndian.Uint32(buf[off+4:]),
			Out: binary.LittleEndian.Uint32(buf[off+8:]),
		}
	}
	return records, nil
}

// File is a fully materialized, in-memory v5b file.
type File struct {
	Header  Header
	Outputs []v5c.Address
	Levels  []Level
}

// ReadFile parses a complete v5b file into memory.
func ReadFile(r io.Reader) (*File, error) {
	hdrBuf := make([]byte, RegionSize)
	if _, err := io.ReadFull(r, hdrBuf); err != nil {
		return nil, fmt.Errorf("v5b: truncated header: %w", err)
	}
	h, err := UnmarshalHeader(hdrBuf)
	if err != nil {
		return nil, err
	}

	outSize := padTo(int(h.NumOutputs)*4, RegionSize)
	outBuf := make([]byte, outSize)
	if _, err := io.ReadFull(r, outBuf); err != nil {
		return nil, fmt.Errorf("v5b: truncated outputs section: %w", err)
	}
	outputs := make([]v5c.Address, h.NumOutputs)
	for i := range outputs {
		outputs[i] = binary.LittleEndian.Uint32(outBuf[i*4:])
	}

	levels := make([]Level, h.NumLevels)
	for i := range levels {
		var lvlHdr [8]byte
		if _, err := io.ReadFull(r, lvlHdr[:]); err != nil {
			return nil, fmt.Errorf("v5b: truncated level header: %w", err)
		}
		numXOR := binary.LittleEndian.Uint32(lvlHdr[0:4])
		numAND := binary.LittleEndian.Uint32(lvlHdr[4:8])
		xors, err := readRecords(r, numXOR)
		if err != nil {
			return nil, err
		}
		ands, err := readRecords(r, numAND)
		if err != nil {
			return nil, err
		}
		levels[i] = Level{XOR: xors, AND: ands}
	}

	return &File{Header: h, Outputs: outputs, Levels: levels}, nil
}
