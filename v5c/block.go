package v5c

import (
	"encoding/binary"
	"fmt"

	"github.com/zk2u/gatestream/v5a"
)

// Address is a 32-bit index into the scratch array of labels (and, for
// eval/exec, bits). Addresses 0 and 1 are the wired-in constants.
type Address = uint32

// GatesPerBlock is the number of gates in one full v5c block.
const GatesPerBlock = 21620

// gateSize is the exact on-disk size of one GateV5c record: three
// little-endian Address fields, no padding.
const gateSize = 12

// typesSize is the bit-packed type vector size: ceil(21620/8) bytes.
const typesSize = 2703

// BlockSize is the exact size of one v5c block: 262144 bytes = 256 KiB.
const BlockSize = GatesPerBlock*gateSize + typesSize + 1 // +1 pad byte

func init() {
	if BlockSize != 256*1024 {
		panic("v5c: block layout arithmetic does not sum to 256 KiB")
	}
}

// Gate is one garbled/evaluated gate: three scratch-space addresses and
// a type (spec.md section 3's GateV5c plus its type-vector bit).
type Gate struct {
	In1, In2, Out Address
	Type          v5a.GateType
}

// GetBlockNumGates returns the number of gates the block at blockIdx
// holds, given totalGates gates overall: a full block except possibly
// the last.
func GetBlockNumGates(totalGates uint64, blockIdx int) int {
	remaining := int64(totalGates) - int64(blockIdx)*GatesPerBlock
	if remaining <= 0 {
		return 0
	}
	if remaining > GatesPerBlock {
		return GatesPerBlock
	}
	return int(remaining)
}

// NumBlocks returns the number of blocks needed to hold totalGates
// gates (0 gates -> 0 blocks).
func NumBlocks(totalGates uint64) int {
	if totalGates == 0 {
		return 0
	}
	return int((totalGates + GatesPerBlock - 1) / GatesPerBlock)
}

// PackBlock serializes up to GatesPerBlock gates into one fixed
// BlockSize-byte block, zero-padding the tail for a partial final
// block.
func PackBlock(gates []Gate) ([BlockSize]byte, error) {
	if len(gates) > GatesPerBlock {
		return [BlockSize]byte{}, fmt.Errorf("v5c: %d gates exceeds block capacity %d",
			len(gates), GatesPerBlock)
	}
	var buf [BlockSize]byte
	types := buf[GatesPerBlock*gateSize:]
	for i, g := range gates {
		off := i * gateSize
		binary.LittleEndian.PutUint32(buf[off:], g.In1)
		binary.LittleEndian.PutUint32(buf[off+4:], g.In2)
		binary.LittleEndian.PutUint32(buf[off+8:], g.Out)
		if g.Type == v5a.AND {
			types[i/8] |= 1 << uint(i%8)
		}
	}
	return buf, nil
}

// UnpackBlock decodes the first n gates of a packed block. It does not
// copy the block: it reads the caller's [BlockSize]byte in place through
// the pointer and decodes each gate's fields from it.
func UnpackBlock(buf *[BlockSize]byte, n int) ([]Gate, error) {
	if n < 0 || n > GatesPerBlock {
		return nil, fmt.Errorf("v5c: invalid gate count %d", n)
	}
	types := buf[GatesPerBlock*gateSize:]
	gates := make([]Gate, n)
	for i := 0; i < n; i++ {
		off := i * gateSize
		g := Gate{
			In1: binary.LittleEndian.Uint32(buf[off:]),
			In2: binary.LittleEndian.Uint32(buf[off+4:]),
			Out: binary.LittleEndian.Uint32(buf[off+8:]),
		}
		if types[i/8]&(1<<uint(i%8)) != 0 {
			g.Type = v5a.AND
		} else {
			g.Type = v5a.XOR
		}
		gates[i] = g
	}
	return gates, nil
}

// ValidateAddresses checks that every gate I/O address is within
// [0, scratchSpace), per spec.md section 3's invariant. The engine's
// hot path skips this check (spec.md section 4.E: the pre-allocator
// guarantees it never fires); callers validate once, up front, when
// accepting untrusted input.
func ValidateAddresses(gates []Gate, scratchSpace uint64) error {
	for _, g := range gates {
		if uint64(g.In1) >= scratchSpace || uint64(g.In2) >= scratchSpace ||
			uint64(g.Out) >= scratchSpace {
			return fmt.Errorf("%w: gate address >= scratch_space %d",
				ErrAddressRange, scratchSpace)
		}
	}
	return nil
}
