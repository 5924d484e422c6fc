package engine

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/zk2u/gatestream/aesfix"
	"github.com/zk2u/gatestream/label"
	"github.com/zk2u/gatestream/v5b"
	"github.com/zk2u/gatestream/v5c"
)

// XORAt processes one free XOR gate without advancing gateCtr. FreeXOR
// needs no AES call and no tweak, so it is always safe to run
// concurrently across a level's XOR records, provided each call's out
// address is exclusive to its own goroutine -- true for any two
// records of the same v5b.Level, since BuildLevelOrder assigns scratch
// addresses only after grouping gates into levels, so no two
// same-level gates ever write the same address.
func (e *Engine) XORAt(in1, in2, out v5c.Address) {
	switch e.role {
	case Garb:
		e.labels[out] = e.labels[in1].Xor(e.labels[in2])
	case Eval:
		e.labels[out] = e.labels[in1].Xor(e.labels[in2])
		e.bits[out] = e.bits[in1] != e.bits[in2]
	case Exec:
		e.bits[out] = e.bits[in1] != e.bits[in2]
	}
}

// ANDAt is the concurrent-safe counterpart to AND: it takes its TCCR
// tweak explicitly rather than reading and advancing the engine's
// running gateCtr, so a level's AND records can each run in their own
// goroutine with tweak = levelTweakBase + i for a record at index i.
func (e *Engine) ANDAt(tweak uint64, in1, in2, out v5c.Address, ct label.Ciphertext) (emit label.Ciphertext, err error) {
	t := label.Tweak(tweak)
	switch e.role {
	case Garb:
		w1 := e.labels[in1]
		h0 := aesfix.Hash(w1, t)
		h1 := aesfix.Hash(w1.Xor(e.delta), t)
		emit = h0.Xor(h1).Xor(e.labels[in2])
		e.labels[out] = h0
		return emit, nil

	case Eval:
		w1 := e.labels[in1]
		out0 := aesfix.Hash(w1, t)
		if e.bits[in1] {
			out0 = out0.Xor(ct).Xor(e.labels[in2])
		}
		e.labels[out] = out0
		e.bits[out] = e.bits[in1] && e.bits[in2]
		return label.Label{}, nil

	case Exec:
		e.bits[out] = e.bits[in1] && e.bits[in2]
		return label.Label{}, nil
	}
	return label.Label{}, fmt.Errorf("engine: unknown role %d", e.role)
}

// levelWorkers bounds how many goroutines RunLevel fans a level's
// records out to; GOMAXPROCS matches the thread-pool sizing spec.md
// section 5 calls for, and more goroutines than cores only adds
// scheduling overhead for CPU-bound AES calls.
func levelWorkers(n int) int {
	w := runtime.GOMAXPROCS(0)
	if n < w {
		w = n
	}
	if w < 1 {
		w = 1
	}
	return w
}

// RunLevel processes one v5b.Level: its XOR records first (order
// between XOR and AND within a level never matters, since neither
// reads the other's output -- a level has no internal dependencies at
// all -- but XOR never errors and needs no ciphertext, so running it
// first keeps the AND fan-out below simple), then its AND records,
// each split across a small worker pool of goroutines. inCts supplies
// the AND ciphertexts for Eval (nil for Garb/Exec, which ignore it);
// the returned slice holds the ciphertexts Garb must broadcast, one per
// AND record in lvl.AND order (nil for Eval/Exec).
//
// levelTweakBase is the TCCR tweak of the level's first AND record; the
// record at index i uses levelTweakBase + i. Callers walking a v5b.File
// level by level must track a running total and pass
// levelTweakBase + len(lvl.AND) as the next level's base, so this
// counter advances once per AND record only. It is not the engine's
// gateCtr, which XOR advances as well, so a circuit garbled through
// RunLevel must also be evaluated through RunLevel.
func (e *Engine) RunLevel(lvl v5b.Level, levelTweakBase uint64, inCts []label.Ciphertext) (outCts []label.Ciphertext, err error) {
	if e.role == Eval && len(inCts) != len(lvl.AND) {
		return nil, fmt.Errorf("engine: level has %d AND gates, got %d input ciphertexts", len(lvl.AND), len(inCts))
	}

	runParallel(len(lvl.XOR), func(i int) error {
		r := lvl.XOR[i]
		e.XORAt(r.In1, r.In2, r.Out)
		return nil
	})

	if len(lvl.AND) == 0 {
		return nil, nil
	}
	if e.role == Garb {
		outCts = make([]label.Ciphertext, len(lvl.AND))
	}
	andErr := runParallel(len(lvl.AND), func(i int) error {
		r := lvl.AND[i]
		var ct label.Ciphertext
		if inCts != nil {
			ct = inCts[i]
		}
		emit, err := e.ANDAt(levelTweakBase+uint64(i), r.In1, r.In2, r.Out, ct)
		if err != nil {
			return err
		}
		if outCts != nil {
			outCts[i] = emit
		}
		return nil
	})
	return outCts, andErr
}

// runParallel runs do(0), do(1), ..., do(n-1) across a bounded worker
// pool and returns the first error encountered, if any. Grounded on
// circuit/player.go's Player: a fixed-size group of goroutines feeding
// results back over a channel, generalized here from one goroutine per
// network peer to one goroutine per worker-pool slot over an index
// range.
func runParallel(n int, do func(i int) error) error {
	if n == 0 {
		return nil
	}
	workers := levelWorkers(n)
	jobs := make(chan int)
	errs := make(chan error, workers)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				if err := do(i); err != nil {
					errs <- err
					return
				}
			}
		}()
	}
	for i := 0; i < n; i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	close(errs)

	return <-errs
}
