package v5b

import (
	"fmt"

	"github.com/zk2u/gatestream/v5a"
	"github.com/zk2u/gatestream/v5c"
)

// ErrCycle indicates the gate stream contains a dependency that can
// never become satisfiable: a gate whose inputs are never produced by
// any earlier gate, or (equivalently) a genuine cycle. A well-formed
// v5a circuit never produces one; this only fires on hand-corrupted or
// adversarial input.
var ErrCycle = fmt.Errorf("v5b: gate stream contains an unsatisfiable dependency")

// LevelSizes records how many XOR and AND gates one level of
// BuildLevelOrder's reordered stream holds, so the same stream can be
// split back into levels after prealloc has assigned scratch addresses.
type LevelSizes struct {
	XOR, AND int
}

// BuildLevelOrder partitions a topologically ordered v5a gate stream
// into levels of mutually data-independent gates and returns the gates
// permuted into level order -- all of level 0's gates (XOR then AND),
// then level 1's, and so on -- together with each level's XOR/AND
// counts.
//
// Levelling runs on v5a's WireIDs, not v5c's scratch addresses, and
// must run before prealloc assigns them. Every WireID is written by
// exactly one gate (true SSA), so an availability set keyed by WireID
// can never be ambiguous about which logical value it is tracking.
// Scratch addresses are not: prealloc's free list reuses a freed slot
// for an unrelated later wire, so the same numeric address is written
// by multiple gates at different points in the stream. Levelling on
// addresses after prealloc has run would let a gate that reuses an
// earlier gate's just-freed slot look "already satisfied" from its
// first writer, placing a later, unrelated write in too early a level
// and making some other gate read a stale value out of order.
// prealloc only requires its input to be *some* topological order to
// compute correct free-list lifetimes -- gate credits already count
// total references and don't depend on position -- and a concatenation
// of levels is one, so levelling first and allocating addresses second
// is sound in both directions.
//
// Generalizes gmw/gmw.go's per-round gate grouping (there, a "round"
// is the set of gates whose inputs are already available on all
// peers) to a single-process WireID domain: available is a WireID set
// seeded with the constants and primary inputs, rather than a per-peer
// share availability table.
func BuildLevelOrder(primaryInputs uint64, gates []v5a.Gate) ([]v5a.Gate, []LevelSizes, error) {
	available := make(map[v5a.WireID]bool, 2+primaryInputs)
	available[v5a.WireFalse] = true
	available[v5a.WireTrue] = true
	for i := uint64(0); i < primaryInputs; i++ {
		available[v5a.WireID(2+i)] = true
	}

	pending := gates
	var ordered []v5a.Gate
	var sizes []LevelSizes

	for len(pending) > 0 {
		var xorGates, andGates, next []v5a.Gate
		for _, g := range pending {
			if available[g.In1] && available[g.In2] {
				if g.Type == v5a.AND {
					andGates = append(andGates, g)
				} else {
					xorGates = append(xorGates, g)
				}
			} else {
				next = append(next, g)
			}
		}
		if len(xorGates) == 0 && len(andGates) == 0 {
			return nil, nil, ErrCycle
		}
		for _, g := range xorGates {
			available[g.Out] = true
		}
		for _, g := range andGates {
			available[g.Out] = true
		}
		ordered = append(ordered, xorGates...)
		ordered = append(ordered, andGates...)
		sizes = append(sizes, LevelSizes{XOR: len(xorGates), AND: len(andGates)})
		pending = next
	}
	return ordered, sizes, nil
}

// SplitLevels regroups a v5c gate stream -- produced by running
// BuildLevelOrder's reordered gates through prealloc.Run -- back into
// per-level XOR/AND records, using the sizes BuildLevelOrder reported
// for that same stream.
func SplitLevels(gates []v5c.Gate, sizes []LevelSizes) []Level {
	levels := make([]Level, len(sizes))
	var i int
	for li, sz := range sizes {
		levels[li] = Level{
			XOR: recordsFromGates(gates[i : i+sz.XOR]),
			AND: recordsFromGates(gates[i+sz.XOR : i+sz.XOR+sz.AND]),
		}
		i += sz.XOR + sz.AND
	}
	return levels
}
