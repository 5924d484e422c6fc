// convert turns a Bristol-format circuit into a v5c container. A
// zstd-compressed output (-l) is only valid for archival and as input
// to extract/verify/compare/info, which read it sequentially: reader.Reader
// needs aligned ReadAt offsets into the raw container and cannot open
// a compressed file.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"os"

	"github.com/klauspost/compress/zstd"

	"github.com/zk2u/gatestream/prealloc"
	"github.com/zk2u/gatestream/v5a"
	"github.com/zk2u/gatestream/v5c"
)

func runConvert(args []string) error {
	fs := flag.NewFlagSet("convert", flag.ExitOnError)
	level := fs.Int("l", 0, "zstd compression level for the v5c output (0 disables compression)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return fmt.Errorf("convert: usage: gatectl convert [-l level] <in.bristol> <out.v5c>")
	}
	in, out := fs.Arg(0), fs.Arg(1)

	f, err := os.Open(in)
	if err != nil {
		return err
	}
	defer f.Close()

	h, outputs, gates, err := v5a.ParseBristol(f)
	if err != nil {
		return fmt.Errorf("convert: parsing %s: %w", in, err)
	}

	var v5aBuf bytes.Buffer
	if err := v5a.WriteStream(&v5aBuf, h, outputs, gates); err != nil {
		return fmt.Errorf("convert: %w", err)
	}
	src, err := v5a.OpenStream(&v5aBuf)
	if err != nil {
		return fmt.Errorf("convert: %w", err)
	}
	v5cHeader, v5cGates, v5cOutputs, err := prealloc.Run(src)
	if err != nil {
		return fmt.Errorf("convert: %w", err)
	}

	of, err := os.Create(out)
	if err != nil {
		return err
	}
	defer of.Close()

	if *level <= 0 {
		return v5c.WriteFile(of, v5cHeader, v5cOutputs, v5cGates)
	}

	enc, err := zstd.NewWriter(of, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(*level)))
	if err != nil {
		return fmt.Errorf("convert: %w", err)
	}
	if err := v5c.WriteFile(enc, v5cHeader, v5cOutputs, v5cGates); err != nil {
		enc.Close()
		return fmt.Errorf("convert: %w", err)
	}
	return enc.Close()
}
