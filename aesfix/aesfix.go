// Package aesfix implements the fixed-key AES-128 primitive and the
// TCCR (tweakable circular correlation robust) hash built on top of it
// (GKWY20 section 7.4), the one cryptographic primitive the garbling
// and evaluation engines use.
//
// The key is public and hard-coded: FIPS-197 appendix A.1's test key.
// Grounded on ot/mitccrh.go's single aes.NewCipher-per-key pattern and
// circuit/garble.go's encryptHalf/makeK construction; crypto/aes is used
// rather than a hand-rolled AES-NI intrinsics package because Go's
// standard crypto/aes already dispatches to AES-NI (amd64) and the ARMv8
// crypto extensions (arm64) internally -- see DESIGN.md.
package aesfix

import (
	"crypto/aes"
	"crypto/cipher"

	"github.com/zk2u/gatestream/label"
)

// fixedKey is FIPS-197 appendix A.1's AES-128 test key.
var fixedKey = []byte{
	0x2b, 0x7e, 0x15, 0x16, 0x28, 0xae, 0xd2, 0xa6,
	0xab, 0xf7, 0x15, 0x88, 0x09, 0xcf, 0x4f, 0x3c,
}

// block is the single, package-global fixed-key AES-128 cipher. Round
// keys are expanded once at init time, not per call.
var block cipher.Block

func init() {
	b, err := aes.NewCipher(fixedKey)
	if err != nil {
		panic("aesfix: failed to expand fixed AES-128 key: " + err.Error())
	}
	block = b
}

// Encrypt computes AES-128(x) under the fixed public key.
func Encrypt(x label.Label) label.Label {
	d := x.ToData()
	block.Encrypt(d[:], d[:])
	return label.FromData(d)
}

// Hash computes the TCCR hash H(x,t) = AES(AES(x) XOR t) XOR AES(x).
func Hash(x label.Label, tweak label.Label) label.Label {
	ax := Encrypt(x)
	inner := Encrypt(ax.Xor(tweak))
	return inner.Xor(ax)
}
