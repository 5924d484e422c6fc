package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/zk2u/gatestream/v5a"
	"github.com/zk2u/gatestream/v5c"
)

func runExtract(args []string) error {
	fs := flag.NewFlagSet("extract", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return fmt.Errorf("extract: usage: gatectl extract <in.v5c> <out.bristol>")
	}
	in, out := fs.Arg(0), fs.Arg(1)

	rc, err := openV5c(in)
	if err != nil {
		return err
	}
	defer rc.Close()

	file, err := v5c.ReadFile(rc, true)
	if err != nil {
		return fmt.Errorf("extract: reading %s: %w", in, err)
	}

	of, err := os.Create(out)
	if err != nil {
		return err
	}
	defer of.Close()

	h, outputs, gates := ssaRename(file.Header, file.Outputs, file.Gates)
	return v5a.WriteBristol(of, h, outputs, gates)
}

// ssaRename undoes prealloc's slot reuse: v5c scratch addresses get
// recycled as soon as a gate's last reader resolves it, so the same
// numeric address can hold unrelated values at different points in the
// stream. Bristol (like v5a) assumes each wire is written exactly
// once, so every physical write gets a fresh wire id here, with a
// running address->current-wire-id map standing in for prealloc's
// allocator in reverse.
func ssaRename(h v5c.Header, outputs []v5c.Address, gates []v5c.Gate) (v5a.Header, []v5a.WireID, []v5a.Gate) {
	current := make(map[v5c.Address]v5a.WireID, h.ScratchSpace)
	current[0] = v5a.WireFalse
	current[1] = v5a.WireTrue

	next := v5a.WireID(2)
	for i := uint64(0); i < h.PrimaryInputs; i++ {
		current[v5c.Address(2+i)] = next
		next++
	}

	vGates := make([]v5a.Gate, len(gates))
	for i, g := range gates {
		out := next
		next++
		vGates[i] = v5a.Gate{In1: current[g.In1], In2: current[g.In2], Out: out, Type: g.Type}
		current[g.Out] = out
	}

	vOutputs := make([]v5a.WireID, len(outputs))
	for i, a := range outputs {
		vOutputs[i] = current[a]
	}

	vh := v5a.Header{
		XORGates:      h.XORGates,
		ANDGates:      h.ANDGates,
		PrimaryInputs: h.PrimaryInputs,
		NumOutputs:    h.NumOutputs,
	}
	return vh, vOutputs, vGates
}
