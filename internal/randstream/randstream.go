// Package randstream implements the one randomness source spec.md's
// non-goals leave in scope: a seeded stream cipher that generates
// reproducible deltas, labels, and circuit inputs without pulling in a
// full CSPRNG story. No other package in this module imports it.
//
// Grounded on the teacher's rand.Read call sites (gmw/gmw.go's
// shareInput, circuit/garble.go's delta generation): both read raw
// bytes from crypto/rand.Reader into a fixed-size buffer. This package
// keeps that shape but swaps the source for a keyed, seekable
// chacha20.Cipher so a test can replay the exact same "random" stream
// across runs by fixing the seed.
package randstream

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/crypto/chacha20"

	"github.com/zk2u/gatestream/label"
)

// Stream wraps a chacha20.Cipher keyed from a 64-bit seed, producing a
// deterministic byte stream suitable for test fixtures only: it is not
// a cryptographic randomness source and must never back real garbling.
type Stream struct {
	cipher *chacha20.Cipher
}

// New derives a chacha20 key and nonce from seed and returns a Stream
// ready to produce bytes. The derivation is a fixed, public expansion
// (not a KDF): reproducibility, not secrecy, is the goal.
func New(seed uint64) *Stream {
	var key [chacha20.KeySize]byte
	var nonce [chacha20.NonceSize]byte
	binary.LittleEndian.PutUint64(key[0:8], seed)
	binary.LittleEndian.PutUint64(key[8:16], seed^0x9e3779b97f4a7c15)
	binary.LittleEndian.PutUint64(key[16:24], seed*0xff51afd7ed558ccd)
	binary.LittleEndian.PutUint64(key[24:32], ^seed)

	c, err := chacha20.NewUnauthenticatedCipher(key[:], nonce[:])
	if err != nil {
		// Only possible if KeySize/NonceSize above are wrong, which
		// would be a programming error caught by any test run.
		panic(fmt.Sprintf("randstream: %v", err))
	}
	return &Stream{cipher: c}
}

// Read fills p with the next len(p) bytes of keystream. It always
// returns len(p), nil, satisfying io.Reader.
func (s *Stream) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = 0
	}
	s.cipher.XORKeyStream(p, p)
	return len(p), nil
}

// Data returns the next 16 bytes of keystream as a label.Data, the raw
// form label.FromData consumes.
func (s *Stream) Data() label.Data {
	var d label.Data
	s.Read(d[:])
	return d
}

// Label returns the next 16 bytes of keystream as a label.Label.
func (s *Stream) Label() label.Label {
	return label.FromData(s.Data())
}

// Delta returns a fresh Delta whose point-and-permute bit is forced to
// 1, matching the FreeXOR convention label.NewDelta enforces.
func (s *Stream) Delta() label.Delta {
	return label.NewDelta(s.Label())
}

// Bits returns n pseudo-random bits, one per byte of keystream (using
// only the low bit of each byte), suitable for driving property tests
// over primary circuit inputs.
func (s *Stream) Bits(n int) []bool {
	raw := make([]byte, n)
	s.Read(raw)
	bits := make([]bool, n)
	for i, b := range raw {
		bits[i] = b&1 == 1
	}
	return bits
}

// Uint64 returns the next 8 bytes of keystream as a little-endian
// uint64, useful for seeding nested Streams or picking random indices
// in property-based tests.
func (s *Stream) Uint64() uint64 {
	var b [8]byte
	s.Read(b[:])
	return binary.LittleEndian.Uint64(b[:])
}
