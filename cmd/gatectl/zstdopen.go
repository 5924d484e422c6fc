package main

import (
	"bufio"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
)

var zstdMagic = [4]byte{0x28, 0xb5, 0x2f, 0xfd}

// openV5c opens path for sequential reading, transparently unwrapping
// a zstd-compressed container (as produced by "gatectl convert -l").
func openV5c(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	br := bufio.NewReader(f)
	peek, err := br.Peek(4)
	if err == nil && peek[0] == zstdMagic[0] && peek[1] == zstdMagic[1] &&
		peek[2] == zstdMagic[2] && peek[3] == zstdMagic[3] {
		dec, derr := zstd.NewReader(br)
		if derr != nil {
			f.Close()
			return nil, derr
		}
		return &zstdReadCloser{dec: dec, f: f}, nil
	}
	return &bufReadCloser{r: br, f: f}, nil
}

type zstdReadCloser struct {
	dec *zstd.Decoder
	f   *os.File
}

func (z *zstdReadCloser) Read(p []byte) (int, error) { return z.dec.Read(p) }
func (z *zstdReadCloser) Close() error {
	z.dec.Close()
	return z.f.Close()
}

type bufReadCloser struct {
	r *bufio.Reader
	f *os.File
}

func (b *bufReadCloser) Read(p []byte) (int, error) { return b.r.Read(p) }
func (b *bufReadCloser) Close() error               { return b.f.Close() }
