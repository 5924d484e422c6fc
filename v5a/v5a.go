// Package v5a implements the circuit authoring format: topologically
// ordered gates addressed by a 34-bit logical WireID, carrying a 24-bit
// downstream reference count ("credits") that the prealloc package
// consumes to assign scratch-space slots.
//
// Gates are grouped into fixed 256-gate blocks laid out as a
// structure-of-arrays (one bit-packed stream per field plus a type
// bitmap), matching the teacher's SoA wire/gate separation in
// compiler/circuits (Wire and Gate as distinct arrays) generalized to
// an on-disk bit-packed form per spec.md section 6.
package v5a

import "fmt"

// WireID is a 34-bit logical wire identifier.
type WireID uint64

// MaxWireID is the largest representable WireID (2^34 - 1).
const MaxWireID WireID = (1 << 34) - 1

// Reserved WireID values.
const (
	WireFalse WireID = 0
	WireTrue  WireID = 1
)

// GateType distinguishes AND from XOR/XNOR-style free gates.
type GateType uint8

// Gate types. XOR is free (FreeXOR); AND costs one half-gates
// ciphertext.
const (
	XOR GateType = iota
	AND
)

func (t GateType) String() string {
	if t == AND {
		return "AND"
	}
	return "XOR"
}

// MaxCredits marks a wire as a constant or primary input: it is never
// freed by the prealloc pass regardless of how many gates reference it.
const MaxCredits = (1 << 24) - 1

// Gate is one authored gate: two input wires, one output wire, and the
// number of downstream gates that will still read Out when this gate
// is emitted.
type Gate struct {
	In1, In2, Out WireID
	Credits       uint32 // 24-bit; 0 = circuit output, MaxCredits = never free.
	Type          GateType
}

// Validate checks field-width invariants for g.
func (g Gate) Validate() error {
	if g.In1 > MaxWireID || g.In2 > MaxWireID || g.Out > MaxWireID {
		return fmt.Errorf("v5a: wire id exceeds 34 bits")
	}
	if g.Credits > MaxCredits {
		return fmt.Errorf("v5a: credits %d exceeds 24 bits", g.Credits)
	}
	return nil
}

// GatesPerBlock is the number of gates packed into one v5a block.
const GatesPerBlock = 256

// BlockSize is the exact byte size of one v5a block: three 34-bit
// streams, one 24-bit stream, and a 32-byte (256-bit) type bitmap:
// 256*(34+34+34+24)/8 + 32 = 4032 + 32 = 4064 bytes.
const BlockSize = 4064

const (
	in1Bits     = 34
	in2Bits     = 34
	outBits     = 34
	creditsBits = 24
	in1StreamSz = GatesPerBlock * in1Bits / 8     // 1088
	in2StreamSz = GatesPerBlock * in2Bits / 8     // 1088
	outStreamSz = GatesPerBlock * outBits / 8     // 1088
	credStreamSz = GatesPerBlock * creditsBits / 8 // 768
	typeBitmapSz = GatesPerBlock / 8               // 32
)

func init() {
	total := in1StreamSz + in2StreamSz + outStreamSz + credStreamSz + typeBitmapSz
	if total != BlockSize {
		panic("v5a: block layout arithmetic does not sum to BlockSize")
	}
}

// PackBlock serializes up to GatesPerBlock gates into one fixed
// BlockSize-byte block. If n < GatesPerBlock, the remaining gate slots
// are zeroed (decoding them would yield wire 0/0/0, credits 0, XOR,
// which callers must not interpret as real gates beyond n).
func PackBlock(gates []Gate) ([BlockSize]byte, error) {
	if len(gates) > GatesPerBlock {
		return [BlockSize]byte{}, fmt.Errorf("v5a: %d gates exceeds block capacity %d",
			len(gates), GatesPerBlock)
	}

	var buf [BlockSize]byte
	in1 := buf[0:in1StreamSz]
	in2 := buf[in1StreamSz : in1StreamSz+in2StreamSz]
	out := buf[in1StreamSz+in2StreamSz : in1StreamSz+in2StreamSz+outStreamSz]
	cred := buf[in1StreamSz+in2StreamSz+outStreamSz : in1StreamSz+in2StreamSz+outStreamSz+credStreamSz]
	types := buf[in1StreamSz+in2StreamSz+outStreamSz+credStreamSz:]

	for i, g := range gates {
		if err := g.Validate(); err != nil {
			return [BlockSize]byte{}, err
		}
		putBits(in1, i*in1Bits, in1Bits, uint64(g.In1))
		putBits(in2, i*in2Bits, in2Bits, uint64(g.In2))
		putBits(out, i*outBits, outBits, uint64(g.Out))
		putBits(cred, i*creditsBits, creditsBits, uint64(g.Credits))
		if g.Type == AND {
			types[i/8] |= 1 << uint(i%8)
		}
	}
	return buf, nil
}

// UnpackBlock decodes the first n gates of a packed block.
func UnpackBlock(buf [BlockSize]byte, n int) ([]Gate, error) {
	if n < 0 || n > GatesPerBlock {
		return nil, fmt.Errorf("v5a: invalid gate count %d", n)
	}
	in1 := buf[0:in1StreamSz]
	in2 := buf[in1StreamSz : in1StreamSz+in2StreamSz]
	out := buf[in1StreamSz+in2StreamSz : in1StreamSz+in2StreamSz+outStreamSz]
	cred := buf[in1StreamSz+in2StreamSz+outStreamSz : in1StreamSz+in2StreamSz+outStreamSz+credStreamSz]
	types := buf[in1StreamSz+in2StreamSz+outStreamSz+credStreamSz:]

	gates := make([]Gate, n)
	for i := 0; i < n; i++ {
		g := Gate{
			In1:     WireID(getBits(in1, i*in1Bits, in1Bits)),
			In2:     WireID(getBits(in2, i*in2Bits, in2Bits)),
			Out:     WireID(getBits(out, i*outBits, outBits)),
			Credits: uint32(getBits(cred, i*creditsBits, creditsBits)),
		}
		if types[i/8]&(1<<uint(i%8)) != 0 {
			g.Type = AND
		} else {
			g.Type = XOR
		}
		gates[i] = g
	}
	return gates, nil
}

// putBits writes the low `bits` bits of value into stream, starting at
// bitOffset, least-significant-bit first.
func putBits(stream []byte, bitOffset, bits int, value uint64) {
	for i := 0; i < bits; i++ {
		if value&(1<<uint(i)) != 0 {
			pos := bitOffset + i
			stream[pos/8] |= 1 << uint(pos%8)
		}
	}
}

// getBits reads `bits` bits starting at bitOffset, least-significant-bit
// first, and returns them as the low bits of the result.
func getBits(stream []byte, bitOffset, bits int) uint64 {
	var v uint64
	for i := 0; i < bits; i++ {
		pos := bitOffset + i
		if stream[pos/8]&(1<<uint(pos%8)) != 0 {
			v |= 1 << uint(i)
		}
	}
	return v
}
