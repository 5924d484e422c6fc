package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/zk2u/gatestream/v5a"
	"github.com/zk2u/gatestream/v5c"
)

// runRender renders a v5c file's gate stream as a graphviz digraph, the
// debugging analog to extract: same SSA renaming, a DOT sink instead
// of a Bristol one.
func runRender(args []string) error {
	fs := flag.NewFlagSet("render", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return fmt.Errorf("render: usage: gatectl render <in.v5c> <out.dot>")
	}
	in, out := fs.Arg(0), fs.Arg(1)

	rc, err := openV5c(in)
	if err != nil {
		return err
	}
	defer rc.Close()

	file, err := v5c.ReadFile(rc, true)
	if err != nil {
		return fmt.Errorf("render: reading %s: %w", in, err)
	}

	of, err := os.Create(out)
	if err != nil {
		return err
	}
	defer of.Close()

	h, outputs, gates := ssaRename(file.Header, file.Outputs, file.Gates)
	return v5a.WriteDOT(of, h, outputs, gates)
}
