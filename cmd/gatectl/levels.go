// levels turns a Bristol-format circuit directly into a v5b
// level-ordered container, exercising v5b.BuildFromV5a's level-then-
// allocate pipeline (spec.md sections 4.F, 6) outside of its tests.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/zk2u/gatestream/v5a"
	"github.com/zk2u/gatestream/v5b"
)

func runLevels(args []string) error {
	fs := flag.NewFlagSet("levels", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return fmt.Errorf("levels: usage: gatectl levels <in.bristol> <out.v5b>")
	}
	in, out := fs.Arg(0), fs.Arg(1)

	f, err := os.Open(in)
	if err != nil {
		return err
	}
	defer f.Close()

	h, outputs, gates, err := v5a.ParseBristol(f)
	if err != nil {
		return fmt.Errorf("levels: parsing %s: %w", in, err)
	}

	v5cHeader, v5cOutputs, v5bLevels, err := v5b.BuildFromV5a(h, outputs, gates)
	if err != nil {
		return fmt.Errorf("levels: %w", err)
	}

	of, err := os.Create(out)
	if err != nil {
		return err
	}
	defer of.Close()

	hdr := v5b.Header{
		Checksum:      v5cHeader.Checksum,
		PrimaryInputs: v5cHeader.PrimaryInputs,
		ScratchSpace:  v5cHeader.ScratchSpace,
	}
	if err := v5b.WriteFile(of, hdr, v5cOutputs, v5bLevels); err != nil {
		return fmt.Errorf("levels: %w", err)
	}
	fmt.Printf("%s: %d levels, %d primary inputs, %d scratch slots\n",
		out, len(v5bLevels), v5cHeader.PrimaryInputs, v5cHeader.ScratchSpace)
	return nil
}
