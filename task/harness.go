// Package task implements the CircuitTask harness that drives a
// reader.Reader: repeatedly pulling the next 4 MiB window, unpacking
// its blocks, and handing each block's gates to a task implementation
// one block at a time (spec.md section 4.G).
//
// Grounded on circuit/player.go's Player function: a driver that walks
// a circuit (there: garble -> per-gate protocol steps -> finish),
// generalized here from a single hard-coded garbler/network protocol
// to any CircuitTask implementation (garb, eval, exec, or a test
// double) driven over a streamed, not fully in-memory, gate source.
package task

import (
	"context"
	"fmt"
	"io"

	"github.com/zk2u/gatestream/reader"
	"github.com/zk2u/gatestream/v5c"
)

// CircuitTask is the abstract per-role driver contract. Output is
// whatever Finish produces: garbler label pairs, evaluator labels and
// values, or an executor's plain values.
type CircuitTask[Output any] interface {
	// Initialize is called once, before any block, with the parsed
	// header and the resolved output addresses.
	Initialize(header v5c.Header, outputs []v5c.Address) error

	// OnBlock is called once per gate block, in file order.
	OnBlock(gates []v5c.Gate) error

	// OnAfterChunk is called once per 4 MiB window, after its blocks
	// have all been delivered to OnBlock.
	OnAfterChunk() error

	// Finish is called once, after the last block, and returns the
	// task's result.
	Finish(outputs []v5c.Address) (Output, error)

	// OnAbort is called exactly once if any step above returns an
	// error, including a caller-supplied context cancellation.
	OnAbort(err error)
}

// Run drives t to completion over the file opened by r, guaranteeing
// OnAbort runs exactly once if any stage fails.
func Run[Output any](ctx context.Context, r *reader.Reader, t CircuitTask[Output]) (result Output, err error) {
	defer func() {
		if err != nil {
			t.OnAbort(err)
		}
	}()

	if err = t.Initialize(r.Header, r.Outputs); err != nil {
		return result, fmt.Errorf("task: initialize: %w", err)
	}

	total := r.Header.TotalGates()
	var blockIdx int
	for {
		var win reader.Window
		win, err = r.Next(ctx)
		if err == io.EOF {
			err = nil
			break
		}
		if err != nil {
			return result, fmt.Errorf("task: reading next window: %w", err)
		}

		for b := 0; b < win.NumBlocks; b++ {
			n := v5c.GetBlockNumGates(total, blockIdx)
			var block [v5c.BlockSize]byte
			copy(block[:], win.Data[b*v5c.BlockSize:(b+1)*v5c.BlockSize])

			var gates []v5c.Gate
			gates, err = v5c.UnpackBlock(&block, n)
			if err != nil {
				return result, fmt.Errorf("task: unpacking block %d: %w", blockIdx, err)
			}
			if err = t.OnBlock(gates); err != nil {
				return result, fmt.Errorf("task: on_block(%d): %w", blockIdx, err)
			}
			blockIdx++
		}

		if err = t.OnAfterChunk(); err != nil {
			return result, fmt.Errorf("task: on_after_chunk: %w", err)
		}
	}

	if closeErr := r.Close(); closeErr != nil {
		err = fmt.Errorf("task: closing reader: %w", closeErr)
		return result, err
	}

	result, err = t.Finish(r.Outputs)
	if err != nil {
		err = fmt.Errorf("task: finish: %w", err)
		return result, err
	}
	return result, nil
}
