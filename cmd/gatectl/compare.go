package main

import (
	"flag"
	"fmt"

	"github.com/zk2u/gatestream/v5c"
)

func runCompare(args []string) error {
	fs := flag.NewFlagSet("compare", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return fmt.Errorf("compare: usage: gatectl compare <a.v5c> <b.v5c>")
	}
	a, err := readV5c(fs.Arg(0))
	if err != nil {
		return err
	}
	b, err := readV5c(fs.Arg(1))
	if err != nil {
		return err
	}

	var diffs int
	report := func(format string, args ...interface{}) {
		fmt.Printf(format+"\n", args...)
		diffs++
	}

	if a.Header.ScratchSpace != b.Header.ScratchSpace {
		report("scratch_space differs: %d vs %d", a.Header.ScratchSpace, b.Header.ScratchSpace)
	}
	if a.Header.PrimaryInputs != b.Header.PrimaryInputs {
		report("primary_inputs differs: %d vs %d", a.Header.PrimaryInputs, b.Header.PrimaryInputs)
	}
	if len(a.Gates) != len(b.Gates) {
		report("gate count differs: %d vs %d", len(a.Gates), len(b.Gates))
	} else {
		for i := range a.Gates {
			if a.Gates[i] != b.Gates[i] {
				report("gate %d differs: %+v vs %+v", i, a.Gates[i], b.Gates[i])
			}
		}
	}
	if len(a.Outputs) != len(b.Outputs) {
		report("output count differs: %d vs %d", len(a.Outputs), len(b.Outputs))
	} else {
		for i := range a.Outputs {
			if a.Outputs[i] != b.Outputs[i] {
				report("output %d differs: %d vs %d", i, a.Outputs[i], b.Outputs[i])
			}
		}
	}

	if diffs == 0 {
		fmt.Println("identical")
		return nil
	}
	return fmt.Errorf("compare: %d difference(s)", diffs)
}

func readV5c(path string) (*v5c.File, error) {
	rc, err := openV5c(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return v5c.ReadFile(rc, true)
}
