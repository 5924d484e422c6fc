package reader

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/zk2u/gatestream/v5a"
	"github.com/zk2u/gatestream/v5c"
)

func writeSampleFile(t *testing.T, numGates int) string {
	t.Helper()
	h := v5c.Header{PrimaryInputs: 2, ScratchSpace: uint64(numGates) + 3}
	gates := make([]v5c.Gate, numGates)
	for i := range gates {
		gates[i] = v5c.Gate{In1: 0, In2: 1, Out: v5c.Address(i + 2), Type: v5a.XOR}
	}
	outputs := []v5c.Address{v5c.Address(numGates + 1)}

	dir := t.TempDir()
	path := filepath.Join(dir, "circuit.v5c")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := v5c.WriteFile(f, h, outputs, gates); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestReaderDeliversAllBlocks(t *testing.T) {
	const numGates = v5c.GatesPerBlock + v5c.GatesPerBlock/2
	path := writeSampleFile(t, numGates)

	r, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}

	var totalBlocks int
	ctx := context.Background()
	for {
		win, err := r.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
		totalBlocks += win.NumBlocks
	}
	if err := r.Close(); err != nil {
		t.Fatal(err)
	}

	wantBlocks := v5c.NumBlocks(uint64(numGates))
	if totalBlocks != wantBlocks {
		t.Errorf("delivered %d blocks, want %d", totalBlocks, wantBlocks)
	}
}

func TestReaderHeaderAndOutputs(t *testing.T) {
	path := writeSampleFile(t, 4)
	r, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Abort()

	if r.Header.PrimaryInputs != 2 {
		t.Errorf("PrimaryInputs = %d, want 2", r.Header.PrimaryInputs)
	}
	if len(r.Outputs) != 1 {
		t.Fatalf("Outputs = %v, want 1 entry", r.Outputs)
	}
}

func TestReaderAbortStopsDelivery(t *testing.T) {
	const numGates = v5c.GatesPerBlock * 4
	path := writeSampleFile(t, numGates)

	r, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	r.Abort()
	if err := r.Close(); err != nil && err != ErrAborted {
		t.Fatalf("unexpected error after abort: %v", err)
	}
}
