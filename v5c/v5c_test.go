package v5c

import (
	"bytes"
	"errors"
	"testing"

	"github.com/zk2u/gatestream/v5a"
)

func sampleFile() (Header, []Address, []Gate) {
	h := Header{PrimaryInputs: 2, ScratchSpace: 8}
	outputs := []Address{7}
	gates := []Gate{
		{In1: 2, In2: 3, Out: 4, Type: v5a.XOR},
		{In1: 4, In2: 0, Out: 5, Type: v5a.AND},
		{In1: 5, In2: 2, Out: 6, Type: v5a.XOR},
		{In1: 6, In2: 1, Out: 7, Type: v5a.XOR},
	}
	return h, outputs, gates
}

func TestRoundTrip4Gates(t *testing.T) {
	h, outputs, gates := sampleFile()

	var buf bytes.Buffer
	if err := WriteFile(&buf, h, outputs, gates); err != nil {
		t.Fatal(err)
	}

	f, err := ReadFile(bytes.NewReader(buf.Bytes()), true)
	if err != nil {
		t.Fatal(err)
	}
	if len(f.Gates) != len(gates) {
		t.Fatalf("got %d gates, want %d", len(f.Gates), len(gates))
	}
	for i, g := range gates {
		if f.Gates[i] != g {
			t.Errorf("gate %d: got %+v, want %+v", i, f.Gates[i], g)
		}
	}
	if len(f.Outputs) != 1 || f.Outputs[0] != 7 {
		t.Errorf("outputs: got %v, want [7]", f.Outputs)
	}
}

func TestChecksumDetectsCorruption(t *testing.T) {
	h, outputs, gates := sampleFile()
	var buf bytes.Buffer
	if err := WriteFile(&buf, h, outputs, gates); err != nil {
		t.Fatal(err)
	}
	data := buf.Bytes()

	// Flip one byte inside the outputs section.
	data[RegionSize] ^= 0xff

	_, err := ReadFile(bytes.NewReader(data), true)
	if !errors.Is(err, ErrChecksumMismatch) {
		t.Fatalf("got %v, want ErrChecksumMismatch", err)
	}
}

func TestEmptyCircuit(t *testing.T) {
	h := Header{ScratchSpace: 2}
	var buf bytes.Buffer
	if err := WriteFile(&buf, h, nil, nil); err != nil {
		t.Fatal(err)
	}
	f, err := ReadFile(bytes.NewReader(buf.Bytes()), true)
	if err != nil {
		t.Fatal(err)
	}
	if len(f.Gates) != 0 {
		t.Errorf("expected 0 gates, got %d", len(f.Gates))
	}
	if NumBlocks(0) != 0 {
		t.Errorf("NumBlocks(0) = %d, want 0", NumBlocks(0))
	}
}

func TestExactlyOneFullBlock(t *testing.T) {
	if NumBlocks(GatesPerBlock) != 1 {
		t.Errorf("NumBlocks(%d) = %d, want 1", GatesPerBlock, NumBlocks(GatesPerBlock))
	}
	if GetBlockNumGates(GatesPerBlock, 0) != GatesPerBlock {
		t.Errorf("block 0 should be full")
	}
}

func TestTwoBlocksOneGateOver(t *testing.T) {
	total := uint64(GatesPerBlock + 1)
	if NumBlocks(total) != 2 {
		t.Errorf("NumBlocks(%d) = %d, want 2", total, NumBlocks(total))
	}
	if GetBlockNumGates(total, 0) != GatesPerBlock {
		t.Errorf("block 0 should be full")
	}
	if GetBlockNumGates(total, 1) != 1 {
		t.Errorf("block 1 should hold 1 gate, got %d", GetBlockNumGates(total, 1))
	}
}

func TestPartialLastBlock1point5(t *testing.T) {
	total := uint64(GatesPerBlock + GatesPerBlock/2)
	if NumBlocks(total) != 2 {
		t.Fatalf("NumBlocks(%d) = %d, want 2", total, NumBlocks(total))
	}
	if GetBlockNumGates(total, 0) != GatesPerBlock {
		t.Errorf("block 0 should report %d gates", GatesPerBlock)
	}
	if GetBlockNumGates(total, 1) != GatesPerBlock/2 {
		t.Errorf("block 1 should report %d gates, got %d",
			GatesPerBlock/2, GetBlockNumGates(total, 1))
	}
}

func TestOutputsSectionPaddingBoundary(t *testing.T) {
	// Exactly 256 KiB / 4 bytes = 65536 outputs requires no extra
	// padding; one more requires padding to 512 KiB.
	exact := RegionSize / 4
	if OutputsRegionSize(exact) != RegionSize {
		t.Errorf("OutputsRegionSize(%d) = %d, want %d",
			exact, OutputsRegionSize(exact), RegionSize)
	}
	if OutputsRegionSize(exact+1) != 2*RegionSize {
		t.Errorf("OutputsRegionSize(%d) = %d, want %d",
			exact+1, OutputsRegionSize(exact+1), 2*RegionSize)
	}
}

func TestAddressRangeRejected(t *testing.T) {
	h := Header{ScratchSpace: 4}
	gates := []Gate{{In1: 0, In2: 1, Out: 5, Type: v5a.XOR}}
	var buf bytes.Buffer
	err := WriteFile(&buf, h, nil, gates)
	if !errors.Is(err, ErrAddressRange) {
		t.Fatalf("got %v, want ErrAddressRange", err)
	}
}
