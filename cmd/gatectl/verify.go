package main

import (
	"flag"
	"fmt"

	"github.com/zk2u/gatestream/v5c"
)

func runVerify(args []string) error {
	fs := flag.NewFlagSet("verify", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("verify: usage: gatectl verify <file.v5c>...")
	}

	var failed []string
	for _, path := range fs.Args() {
		if err := verifyOne(path); err != nil {
			fmt.Printf("%s: FAIL (%v)\n", path, err)
			failed = append(failed, path)
			continue
		}
		fmt.Printf("%s: OK\n", path)
	}
	if len(failed) > 0 {
		return fmt.Errorf("verify: %d of %d files failed", len(failed), fs.NArg())
	}
	return nil
}

func verifyOne(path string) error {
	rc, err := openV5c(path)
	if err != nil {
		return err
	}
	defer rc.Close()

	_, err = v5c.ReadFile(rc, true)
	return err
}
