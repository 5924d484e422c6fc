package v5c

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/zk2u/gatestream/v5a"
)

func padTo(n, boundary int) int {
	if n%boundary == 0 {
		return n
	}
	return n + (boundary - n%boundary)
}

// OutputsRegionSize returns the padded size of the outputs section for
// numOutputs addresses.
func OutputsRegionSize(numOutputs int) int {
	return padTo(numOutputs*4, RegionSize)
}

// packOutputs serializes outputs as little-endian u32 addresses, padded
// to a 256 KiB boundary.
func packOutputs(outputs []Address) []byte {
	raw := make([]byte, len(outputs)*4)
	for i, a := range outputs {
		binary.LittleEndian.PutUint32(raw[i*4:], a)
	}
	padded := make([]byte, padTo(len(raw), RegionSize))
	copy(padded, raw)
	return padded
}

// WriteFile serializes a complete v5c file: padded header (with its
// checksum computed over the rest), padded outputs, then gate blocks.
// gates must already be scratch-space addressed (the prealloc package's
// output); the last partial block, if any, is zero-padded by PackBlock.
func WriteFile(w io.Writer, h Header, outputs []Address, gates []Gate) error {
	h.NumOutputs = uint64(len(outputs))
	h.XORGates, h.ANDGates = 0, 0
	for _, g := range gates {
		if g.Type == v5a.AND {
			h.ANDGates++
		} else {
			h.XORGates++
		}
	}
	if err := h.Validate(); err != nil {
		return err
	}
	if err := ValidateAddresses(gates, h.ScratchSpace); err != nil {
		return err
	}

	outPadded := packOutputs(outputs)

	var blocks [][BlockSize]byte
	for i := 0; i < len(gates); i += GatesPerBlock {
		end := i + GatesPerBlock
		if end > len(gates) {
			end = len(gates)
		}
		block, err := PackBlock(gates[i:end])
		if err != nil {
			return err
		}
		blocks = append(blocks, block)
	}

	h.Checksum = ComputeChecksum(h, outPadded, blocks)

	hdrRegion := h.Marshal()
	if _, err := w.Write(hdrRegion[:]); err != nil {
		return err
	}
	if _, err := w.Write(outPadded); err != nil {
		return err
	}
	for _, b := range blocks {
		if _, err := w.Write(b[:]); err != nil {
			return err
		}
	}
	return nil
}

// File is a fully materialized, in-memory v5c file: convenient for
// tests and the CLI's compare/info/extract/verify/render commands.
// The production read path is reader.Reader, which never buffers the
// whole gate region.
type File struct {
	Header  Header
	Outputs []Address
	Gates   []Gate
}

// ReadFile parses a complete v5c file into memory, validating the
// header and (optionally) the checksum.
func ReadFile(r io.Reader, verifyChecksum bool) (*File, error) {
	hdrBuf := make([]byte, RegionSize)
	if _, err := io.ReadFull(r, hdrBuf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTruncated, err)
	}
	h, err := UnmarshalHeader(hdrBuf)
	if err != nil {
		return nil, err
	}

	outSize := OutputsRegionSize(int(h.NumOutputs))
	outBuf := make([]byte, outSize)
	if _, err := io.ReadFull(r, outBuf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTruncated, err)
	}
	outputs := make([]Address, h.NumOutputs)
	for i := range outputs {
		outputs[i] = binary.LittleEndian.Uint32(outBuf[i*4:])
	}

	total := h.TotalGates()
	numBlocks := NumBlocks(total)
	var blocks [][BlockSize]byte
	var gates []Gate
	for i := 0; i < numBlocks; i++ {
		var block [BlockSize]byte
		if _, err := io.ReadFull(r, block[:]); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrTruncated, err)
		}
		blocks = append(blocks, block)
		n := GetBlockNumGates(total, i)
		g, err := UnpackBlock(&block, n)
		if err != nil {
			return nil, err
		}
		gates = append(gates, g...)
	}

	if err := ValidateAddresses(gates, h.ScratchSpace); err != nil {
		return nil, err
	}

	if verifyChecksum {
		got := ComputeChecksum(h, outBuf, blocks)
		if got != h.Checksum {
			return nil, ErrChecksumMismatch
		}
	}

	return &File{Header: h, Outputs: outputs, Gates: gates}, nil
}
