// gatectl is the external-collaborator CLI for the v5a/v5b/v5c circuit
// pipeline: converting Bristol-format circuits in and out, inspecting
// and comparing v5c files, and verifying their checksums.
//
// Grounded on apps/circuit/main.go's flat flag-plus-subcommand shape
// and apps/garbled/objdump.go's tabulated circuit-info output.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("gatectl: ")

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "convert":
		err = runConvert(os.Args[2:])
	case "extract":
		err = runExtract(os.Args[2:])
	case "verify":
		err = runVerify(os.Args[2:])
	case "compare":
		err = runCompare(os.Args[2:])
	case "info":
		err = runInfo(os.Args[2:])
	case "render":
		err = runRender(os.Args[2:])
	case "levels":
		err = runLevels(os.Args[2:])
	case "-h", "--help", "help":
		usage()
		return
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatal(err)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: gatectl <command> [flags] args...

commands:
  convert  <in.bristol> <out.v5c>   Bristol text -> v5c container
  extract  <in.v5c> <out.bristol>   v5c container -> Bristol text
  verify   <file.v5c>...            validate header/checksum
  compare  <a.v5c> <b.v5c>          diff two v5c files' gates and outputs
  info     <file.v5c>...            tabulated gate/wire counts
  render   <in.v5c> <out.dot>       v5c container -> graphviz dot
  levels   <in.bristol> <out.v5b>   Bristol text -> v5b level-ordered container`)
}
