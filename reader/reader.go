package reader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"github.com/zk2u/gatestream/v5c"
)

// pollInterval bounds how long Next waits between triple-buffer polls
// when the writer goroutine hasn't published a new window yet.
const pollInterval = 50 * time.Microsecond

// BufferSize is the size of each of the three ping-pong buffers: 16
// gate blocks, 4 MiB, matching spec.md section 5's windowing.
const BufferSize = 16 * v5c.BlockSize

// BlocksPerWindow is the number of v5c blocks carried in one buffer.
const BlocksPerWindow = BufferSize / v5c.BlockSize

// directIOAlign is the alignment O_DIRECT requires for buffer
// addresses, file offsets, and read lengths on Linux.
const directIOAlign = 4096

// ErrAborted is returned by Next after Abort has been called.
var ErrAborted = errors.New("reader: aborted")

// Reader streams a v5c file's gate blocks through a triple buffer,
// overlapping the next disk read with the caller's processing of the
// current window; the writer blocks when the reader falls behind
// rather than dropping a window. It prefers O_DIRECT reads and
// transparently falls back to buffered reads when O_DIRECT is
// unavailable (e.g. on tmpfs, or non-Linux platforms).
type Reader struct {
	Header  v5c.Header
	Outputs []v5c.Address

	tb   *tripleBuffer
	bufs [3][]byte

	errCh  chan error
	stopCh chan struct{}
	doneCh chan struct{}

	curIdx         uint32
	bytesRemaining uint64
}

// Open opens path, parses and validates its header and outputs
// section, and starts the background I/O goroutine.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	hdrBuf := make([]byte, v5c.RegionSize)
	if _, err := io.ReadFull(f, hdrBuf); err != nil {
		return nil, fmt.Errorf("%w: %v", v5c.ErrTruncated, err)
	}
	header, err := v5c.UnmarshalHeader(hdrBuf)
	if err != nil {
		return nil, err
	}

	outPadded := v5c.OutputsRegionSize(int(header.NumOutputs))
	outBuf := make([]byte, outPadded)
	if _, err := io.ReadFull(f, outBuf); err != nil {
		return nil, fmt.Errorf("%w: %v", v5c.ErrTruncated, err)
	}
	outputs := make([]v5c.Address, header.NumOutputs)
	for i := range outputs {
		outputs[i] = leUint32(outBuf[i*4:])
	}
	for _, a := range outputs {
		if uint64(a) >= header.ScratchSpace {
			return nil, v5c.ErrAddressRange
		}
	}

	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}
	gateRegionStart := int64(v5c.RegionSize + outPadded)
	gateRegionEnd := fi.Size()
	gateRegionBytes := gateRegionEnd - gateRegionStart
	if gateRegionBytes < 0 || gateRegionBytes%v5c.BlockSize != 0 {
		return nil, fmt.Errorf("%w: gate region is not a multiple of the block size", v5c.ErrFormat)
	}

	r := &Reader{
		Header:         header,
		Outputs:        outputs,
		tb:             newTripleBuffer(),
		errCh:          make(chan error, 1),
		stopCh:         make(chan struct{}),
		doneCh:         make(chan struct{}),
		bytesRemaining: uint64(gateRegionBytes),
	}
	for i := range r.bufs {
		r.bufs[i] = make([]byte, BufferSize)
	}

	go r.ioLoop(path, gateRegionStart, gateRegionEnd)
	return r, nil
}

// Window is one 4 MiB buffer handed to the caller, together with the
// number of its leading blocks that hold valid data (the final window
// of a file is typically partial).
type Window struct {
	Data      []byte
	NumBlocks int
}

// Next blocks until the next window is available, ctx is cancelled, or
// Abort is called. It returns io.EOF once every block has been
// delivered.
func (r *Reader) Next(ctx context.Context) (Window, error) {
	if r.bytesRemaining == 0 {
		return Window{}, io.EOF
	}

	for {
		if idx, ok := r.tb.take(); ok {
			r.curIdx = idx
			break
		}
		select {
		case <-ctx.Done():
			return Window{}, ctx.Err()
		case <-r.stopCh:
			return Window{}, ErrAborted
		case err := <-r.errCh:
			return Window{}, err
		case <-time.After(pollInterval):
		}
	}

	validBytes := r.bytesRemaining
	if validBytes > BufferSize {
		validBytes = BufferSize
	}
	numBlocks := int(validBytes / v5c.BlockSize)
	r.bytesRemaining -= uint64(numBlocks) * v5c.BlockSize

	return Window{Data: r.bufs[r.curIdx], NumBlocks: numBlocks}, nil
}

// Abort stops the background I/O goroutine without waiting for the
// rest of the file; it is safe to call multiple times and is the
// reader-side counterpart of task.CircuitTask's OnAbort hook.
func (r *Reader) Abort() {
	select {
	case <-r.stopCh:
	default:
		close(r.stopCh)
	}
	r.tb.stop()
	<-r.doneCh
}

// Close waits for the I/O goroutine to finish. Call after Next returns
// io.EOF, or after Abort.
func (r *Reader) Close() error {
	<-r.doneCh
	select {
	case err := <-r.errCh:
		return err
	default:
		return nil
	}
}

func leUint32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

// ioLoop fills the writer's buffer slot from disk and publishes it
// into the triple buffer, one 4 MiB window at a time. It tries
// O_DIRECT first; if that open fails (not all filesystems support it),
// it falls back to a regular buffered file handle.
func (r *Reader) ioLoop(path string, start, end int64) {
	defer close(r.doneCh)

	f, direct := openForStreaming(path)
	if f == nil {
		r.errCh <- fmt.Errorf("reader: opening %s: %w", path, os.ErrInvalid)
		return
	}
	defer func() { f.Close() }()

	writerSlot := uint32(0)
	off := start
	for off < end {
		select {
		case <-r.stopCh:
			return
		default:
		}

		n := end - off
		if n > BufferSize {
			n = BufferSize
		}
		if direct && alignDown(n, directIOAlign) < n {
			// The remaining bytes don't fill an O_DIRECT-aligned
			// chunk: fall back to a buffered handle for the tail,
			// matching the original reader's tail_len handling.
			f.Close()
			tail, err := os.Open(path)
			if err != nil {
				r.errCh <- fmt.Errorf("reader: opening tail: %w", err)
				return
			}
			f, direct = tail, false
		}

		buf := r.bufs[writerSlot][:n]
		if _, err := f.ReadAt(buf, off); err != nil && err != io.EOF {
			r.errCh <- fmt.Errorf("reader: read at %d: %w", off, err)
			return
		}
		off += int64(n)
		next, ok := r.tb.publish()
		if !ok {
			return
		}
		writerSlot = next
	}
}

// openForStreaming tries to open path with O_DIRECT; on any failure
// (unsupported filesystem, non-Linux platform) it falls back to a
// normal buffered open. The bool result reports whether O_DIRECT was
// obtained, since O_DIRECT reads must stay aligned.
func openForStreaming(path string) (*os.File, bool) {
	fd, err := unix.Open(path, unix.O_RDONLY|unix.O_DIRECT, 0)
	if err == nil {
		return os.NewFile(uintptr(fd), path), true
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, false
	}
	return f, false
}

func alignDown(n int64, align int) int64 {
	return n &^ int64(align-1)
}
