// Package label implements the 128-bit wire label algebra used by the
// garbling, evaluation and fixed-key hash layers: XOR, the point-and-
// permute bit, and the well-known public constants the evaluator and
// garbler agree on.
//
// The type shape mirrors the teacher's ot.Label (two uint64 halves
// instead of a byte array) so that XOR, the only label operation the
// TCCR hash needs outside AES itself, stays branch-free uint64 arithmetic.
package label

import "encoding/binary"

// Label is an opaque 128-bit value: a wire label, a ciphertext, or a
// delta offset, depending on context.
type Label struct {
	D0 uint64
	D1 uint64
}

// Ciphertext is the 128-bit value an AND gate emits during garbling and
// consumes during evaluation. XOR gates never produce one.
type Ciphertext = Label

// Delta is the secret per-session offset such that, for every wire,
// label_for_true = label_for_false XOR delta. Its low bit is always 1.
type Delta = Label

// Data is the 16-byte big-endian encoding of a Label.
type Data [16]byte

var (
	// LabelZero is the evaluator's well-known constant for wire 0
	// (constant false), 16 bytes of 0x62.
	LabelZero = fromByte(0x62)

	// LabelOne is the evaluator's well-known constant for wire 1
	// (constant true) before XOR with delta; 16 bytes of 0x19.
	LabelOne = fromByte(0x19)
)

func fromByte(b byte) Label {
	var d Data
	for i := range d {
		d[i] = b
	}
	return FromData(d)
}

// FromData builds a Label from its big-endian byte encoding.
func FromData(d Data) Label {
	return Label{
		D0: binary.BigEndian.Uint64(d[0:8]),
		D1: binary.BigEndian.Uint64(d[8:16]),
	}
}

// ToData returns the big-endian byte encoding of l.
func (l Label) ToData() Data {
	var d Data
	binary.BigEndian.PutUint64(d[0:8], l.D0)
	binary.BigEndian.PutUint64(d[8:16], l.D1)
	return d
}

// Xor returns l XOR o.
func (l Label) Xor(o Label) Label {
	return Label{D0: l.D0 ^ o.D0, D1: l.D1 ^ o.D1}
}

// PermuteBit returns bit 0 of byte 0 of l's big-endian encoding: the
// point-and-permute bit used to branch evaluation without revealing
// the wire's true value.
func (l Label) PermuteBit() bool {
	return (l.D0>>56)&1 != 0
}

// Equal reports whether l and o hold the same bits.
func (l Label) Equal(o Label) bool {
	return l.D0 == o.D0 && l.D1 == o.D1
}

// IsZero reports whether l is the all-zero label.
func (l Label) IsZero() bool {
	return l.D0 == 0 && l.D1 == 0
}

// NewDelta returns d with its low bit (the point-and-permute bit of its
// encoding) forced to 1, as every valid Delta must have it.
func NewDelta(d Label) Delta {
	d.D0 |= 0x0100000000000000 // force byte0's low bit: see PermuteBit.
	return d
}

// Tweak encodes n as a little-endian uint64 in the low 8 bytes of an
// otherwise-zero 128-bit block, as required by the per-gate TCCR tweak
// (spec.md 4.E: tweak(n) = LE64(n) in the low 8 bytes of a zero block).
func Tweak(n uint64) Label {
	return Label{D0: 0, D1: reverseByteOrder(n)}
}

// reverseByteOrder converts n, interpreted as the low 8 bytes of a
// little-endian 128-bit block, into the big-endian uint64 our Label
// halves are stored as (D1 holds bytes 8..15 of the block).
func reverseByteOrder(n uint64) uint64 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], n)
	return binary.BigEndian.Uint64(buf[:])
}
