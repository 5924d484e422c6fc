package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/markkurossi/tabulate"
)

func runInfo(args []string) error {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("info: usage: gatectl info <file.v5c>...")
	}

	tab := tabulate.New(tabulate.Github)
	tab.Header("File")
	tab.Header("XOR").SetAlign(tabulate.MR)
	tab.Header("AND").SetAlign(tabulate.MR)
	tab.Header("Gates").SetAlign(tabulate.MR)
	tab.Header("Inputs").SetAlign(tabulate.MR)
	tab.Header("Outputs").SetAlign(tabulate.MR)
	tab.Header("ScratchSpace").SetAlign(tabulate.MR)

	for _, path := range fs.Args() {
		file, err := readV5c(path)
		if err != nil {
			return fmt.Errorf("info: %s: %w", path, err)
		}
		row := tab.Row()
		row.Column(path)
		row.Column(fmt.Sprintf("%d", file.Header.XORGates))
		row.Column(fmt.Sprintf("%d", file.Header.ANDGates))
		row.Column(fmt.Sprintf("%d", file.Header.TotalGates()))
		row.Column(fmt.Sprintf("%d", file.Header.PrimaryInputs))
		row.Column(fmt.Sprintf("%d", file.Header.NumOutputs))
		row.Column(fmt.Sprintf("%d", file.Header.ScratchSpace))
	}
	tab.Print(os.Stdout)
	return nil
}
