// Package reader implements the triple-buffered asynchronous reader
// that feeds v5c gate blocks to the garb/eval/exec engines without
// blocking them on file I/O (spec.md section 5).
//
// Grounded on ot/pipe.go's pre-allocated, reused I/O buffers -
// generalized here from a single blocking buffer to three buffers
// circulating between one writer goroutine and one reader goroutine,
// as spec.md section 4.D/5 requires.
package reader

import "sync"

// tripleBuffer coordinates three fixed buffer slots identified by
// index 0, 1, and 2: one held by the writer, one held by the reader,
// and one sitting in the shared "middle" slot. A publish swaps the
// writer's completed slot with the middle slot and bumps generation; a
// take swaps the reader's stale slot with the middle slot whenever the
// middle holds newer data.
//
// All three index pairs and the full/generation bookkeeping are
// guarded by one mutex rather than updated as independent atomics:
// spec.md section 5 requires publish to block while the middle slot
// still holds an unconsumed buffer ("all three slots are full"), and a
// blocking wait composes cleanly with a single critical section but
// not with a pair of bare atomic swaps -- two goroutines each doing an
// unsynchronized load-then-store on middleIdx can interleave so that
// writerIdx and readerIdx end up pointing at the same slot, which a
// lock-free design would need a CAS retry loop to rule out anyway.
// With only one writer and one reader goroutine ever touching this
// struct, the mutex costs nothing a CAS loop wouldn't already pay in
// the contended case and removes the interleaving entirely.
type tripleBuffer struct {
	mu   sync.Mutex
	cond *sync.Cond

	writerIdx, readerIdx, middleIdx uint32
	generation, lastReadGen         uint64
	middleFull                      bool
	stopped                         bool
}

func newTripleBuffer() *tripleBuffer {
	tb := &tripleBuffer{writerIdx: 0, readerIdx: 1, middleIdx: 2}
	tb.cond = sync.NewCond(&tb.mu)
	return tb
}

// publish hands the writer's just-filled slot to the reader side and
// returns the index of the buffer the writer should fill next. It
// blocks while the middle slot still holds a buffer take has not yet
// consumed, waking whenever take drains the middle slot or stop is
// called. ok is false only when stop fired first, in which case the
// writer's in-flight slot was never published and the caller must not
// touch the triple buffer again.
func (tb *tripleBuffer) publish() (next uint32, ok bool) {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	for tb.middleFull && !tb.stopped {
		tb.cond.Wait()
	}
	if tb.stopped {
		return 0, false
	}

	tb.writerIdx, tb.middleIdx = tb.middleIdx, tb.writerIdx
	tb.generation++
	tb.middleFull = true
	tb.cond.Broadcast()
	return tb.writerIdx, true
}

// take returns the index of the newest available slot if the writer
// has published a generation the reader has not yet consumed. ok is
// false when there is nothing new; the reader should keep using its
// current slot.
func (tb *tripleBuffer) take() (idx uint32, ok bool) {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	if !tb.middleFull || tb.generation == tb.lastReadGen {
		return 0, false
	}
	tb.lastReadGen = tb.generation
	tb.readerIdx, tb.middleIdx = tb.middleIdx, tb.readerIdx
	tb.middleFull = false
	tb.cond.Broadcast()
	return tb.readerIdx, true
}

// stop wakes a goroutine blocked in publish so it returns ok=false,
// used by Reader.Abort to unblock a writer goroutine that is waiting
// on a reader which will never call take again.
func (tb *tripleBuffer) stop() {
	tb.mu.Lock()
	tb.stopped = true
	tb.cond.Broadcast()
	tb.mu.Unlock()
}
