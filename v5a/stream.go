package v5a

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
)

func padTo(n, boundary int) int {
	if n%boundary == 0 {
		return n
	}
	return n + (boundary - n%boundary)
}

// WriteStream serializes a complete v5a file: padded header, padded
// outputs section, then gate blocks.
func WriteStream(w io.Writer, h Header, outputs []WireID, gates []Gate) error {
	h.NumOutputs = uint64(len(outputs))
	h.XORGates, h.ANDGates = 0, 0
	for _, g := range gates {
		if g.Type == AND {
			h.ANDGates++
		} else {
			h.XORGates++
		}
	}

	hdr := h.Marshal()
	hdrPadded := make([]byte, HeaderRegionSize)
	copy(hdrPadded, hdr)
	if _, err := w.Write(hdrPadded); err != nil {
		return err
	}

	outBuf := make([]byte, len(outputs)*4)
	for i, id := range outputs {
		if id > 0xffffffff {
			return fmt.Errorf("v5a: output wire id %d exceeds 32 bits", id)
		}
		binary.LittleEndian.PutUint32(outBuf[i*4:], uint32(id))
	}
	outPadded := make([]byte, padTo(len(outBuf), HeaderRegionSize))
	copy(outPadded, outBuf)
	if _, err := w.Write(outPadded); err != nil {
		return err
	}

	for i := 0; i < len(gates); i += GatesPerBlock {
		end := i + GatesPerBlock
		if end > len(gates) {
			end = len(gates)
		}
		block, err := PackBlock(gates[i:end])
		if err != nil {
			return err
		}
		if _, err := w.Write(block[:]); err != nil {
			return err
		}
	}
	return nil
}

// StreamReader reads a v5a file's gates in order without buffering the
// whole gate region in memory, for consumption by prealloc/levelling.
type StreamReader struct {
	r         *bufio.Reader
	Header    Header
	Outputs   []WireID
	remaining uint64 // gates left to read
	block     [BlockSize]byte
	blockGates []Gate
	blockPos  int
}

// OpenStream reads the header and outputs section and returns a
// StreamReader positioned at the start of the gate region.
func OpenStream(r io.Reader) (*StreamReader, error) {
	br := bufio.NewReaderSize(r, 1<<20)

	hdrBuf := make([]byte, HeaderRegionSize)
	if _, err := io.ReadFull(br, hdrBuf); err != nil {
		return nil, fmt.Errorf("v5a: truncated header: %w", err)
	}
	h, err := UnmarshalHeader(hdrBuf)
	if err != nil {
		return nil, err
	}

	outSize := padTo(int(h.NumOutputs)*4, HeaderRegionSize)
	outBuf := make([]byte, outSize)
	if _, err := io.ReadFull(br, outBuf); err != nil {
		return nil, fmt.Errorf("v5a: truncated outputs section: %w", err)
	}
	outputs := make([]WireID, h.NumOutputs)
	for i := range outputs {
		outputs[i] = WireID(binary.LittleEndian.Uint32(outBuf[i*4:]))
	}

	return &StreamReader{
		r:         br,
		Header:    h,
		Outputs:   outputs,
		remaining: h.XORGates + h.ANDGates,
	}, nil
}

// Next returns the next gate in topological order, or ok=false once
// every gate declared in the header has been returned.
func (s *StreamReader) Next() (g Gate, ok bool, err error) {
	if s.remaining == 0 {
		return Gate{}, false, nil
	}
	if s.blockPos >= len(s.blockGates) {
		if _, err := io.ReadFull(s.r, s.block[:]); err != nil {
			return Gate{}, false, fmt.Errorf("v5a: truncated gate block: %w", err)
		}
		n := GatesPerBlock
		if uint64(n) > s.remaining {
			n = int(s.remaining)
		}
		gates, err := UnpackBlock(s.block, n)
		if err != nil {
			return Gate{}, false, err
		}
		s.blockGates = gates
		s.blockPos = 0
	}
	g = s.blockGates[s.blockPos]
	s.blockPos++
	s.remaining--
	return g, true, nil
}
