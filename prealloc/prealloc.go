// Package prealloc implements the credit-based scratch-space allocator
// that turns a topologically ordered, wire-ID-addressed v5a gate stream
// into a scratch-space-addressed v5c gate stream (spec.md section 4.F).
//
// Grounded on compiler/ssa/wire_allocator.go's free-list-by-size
// allocator (allocWires/recycleWires) and compiler/circuits/wire.go's
// packed ovnum field, whose numMask reference count is exactly this
// package's "credits": a count of remaining readers, decremented to
// zero to free a slot.
package prealloc

import (
	"fmt"

	"github.com/zk2u/gatestream/v5a"
	"github.com/zk2u/gatestream/v5c"
)

// entry tracks one live wire's scratch slot and remaining reference
// count.
type entry struct {
	slot     v5c.Address
	credits  uint32 // remaining downstream reads; decremented, never for reserved wires.
	reserved bool   // constants and primary inputs: never freed.
}

// Allocator is the slab allocator: a free list of small-integer slot
// indices plus a running peak, which becomes the v5c scratch_space.
type Allocator struct {
	wires     map[v5a.WireID]*entry
	freeList  []v5c.Address
	nextSlot  v5c.Address
	live      int
	peak      int
	primaryIn uint64
}

// NewAllocator creates an allocator with wires 0, 1, and the
// primaryInputs primary-input wires pre-reserved 1:1 with their slot
// indices, per spec.md section 4.F.
func NewAllocator(primaryInputs uint64) *Allocator {
	a := &Allocator{
		wires:     make(map[v5a.WireID]*entry),
		primaryIn: primaryInputs,
	}
	reserved := 2 + primaryInputs
	for w := uint64(0); w < reserved; w++ {
		a.wires[v5a.WireID(w)] = &entry{
			slot:     v5c.Address(w),
			credits:  v5a.MaxCredits,
			reserved: true,
		}
	}
	a.nextSlot = v5c.Address(reserved)
	a.live = int(reserved)
	a.peak = a.live
	return a
}

// ScratchSpace returns the peak concurrently-allocated slot count seen
// so far: the value the v5c header's scratch_space field must hold.
func (a *Allocator) ScratchSpace() uint64 {
	return uint64(a.peak)
}

func (a *Allocator) allocate() v5c.Address {
	var slot v5c.Address
	if n := len(a.freeList); n > 0 {
		slot = a.freeList[n-1]
		a.freeList = a.freeList[:n-1]
	} else {
		slot = a.nextSlot
		a.nextSlot++
	}
	a.live++
	if a.live > a.peak {
		a.peak = a.live
	}
	return slot
}

func (a *Allocator) free(slot v5c.Address) {
	a.freeList = append(a.freeList, slot)
	a.live--
}

// resolve returns the current slot for wire w, consuming one of its
// credits (unless w is reserved) and freeing the slot if that was its
// last reference.
func (a *Allocator) resolve(w v5a.WireID) (v5c.Address, error) {
	e, ok := a.wires[w]
	if !ok {
		return 0, fmt.Errorf("prealloc: wire %d referenced before definition", w)
	}
	slot := e.slot
	if !e.reserved {
		e.credits--
		if e.credits == 0 {
			a.free(slot)
			delete(a.wires, w)
		}
	}
	return slot, nil
}

// Gate runs one v5a gate through the allocator and returns its
// scratch-addressed v5c equivalent.
func (a *Allocator) Gate(g v5a.Gate) (v5c.Gate, error) {
	in1, err := a.resolve(g.In1)
	if err != nil {
		return v5c.Gate{}, err
	}
	in2, err := a.resolve(g.In2)
	if err != nil {
		return v5c.Gate{}, err
	}
	out := a.allocate()
	a.wires[g.Out] = &entry{
		slot:     out,
		credits:  g.Credits,
		reserved: g.Credits == v5a.MaxCredits,
	}
	return v5c.Gate{In1: in1, In2: in2, Out: out, Type: g.Type}, nil
}

// ResolveOutput returns the final slot of an output wire, ignoring
// credits: outputs are never freed mid-stream (spec.md section 4.F).
func (a *Allocator) ResolveOutput(w v5a.WireID) (v5c.Address, error) {
	e, ok := a.wires[w]
	if !ok {
		return 0, fmt.Errorf("prealloc: output wire %d was never defined", w)
	}
	return e.slot, nil
}

// Run allocates an entire v5a stream, returning its v5c gates (in the
// same topological order as the input -- garbling depends on this
// order, per spec.md section 4.F), resolved output addresses, and the
// resulting header with scratch_space set to the allocator's peak.
func Run(src *v5a.StreamReader) (v5c.Header, []v5c.Gate, []v5c.Address, error) {
	a := NewAllocator(src.Header.PrimaryInputs)

	var gates []v5c.Gate
	for {
		g, ok, err := src.Next()
		if err != nil {
			return v5c.Header{}, nil, nil, err
		}
		if !ok {
			break
		}
		out, err := a.Gate(g)
		if err != nil {
			return v5c.Header{}, nil, nil, err
		}
		gates = append(gates, out)
	}

	outputs := make([]v5c.Address, len(src.Outputs))
	for i, w := range src.Outputs {
		addr, err := a.ResolveOutput(w)
		if err != nil {
			return v5c.Header{}, nil, nil, err
		}
		outputs[i] = addr
	}

	h := v5c.Header{
		PrimaryInputs: src.Header.PrimaryInputs,
		ScratchSpace:  a.ScratchSpace(),
		NumOutputs:    uint64(len(outputs)),
	}
	for _, g := range gates {
		if g.Type == v5a.AND {
			h.ANDGates++
		} else {
			h.XORGates++
		}
	}
	return h, gates, outputs, nil
}
