package engine

import (
	"testing"

	"github.com/zk2u/gatestream/label"
	"github.com/zk2u/gatestream/v5a"
	"github.com/zk2u/gatestream/v5b"
)

// fullAdderV5a is the wire-ID-addressed, true-SSA counterpart of
// fullAdderGates: each gate's Out is its own unique WireID, as
// BuildLevelOrder requires.
func fullAdderV5a() (h v5a.Header, outputs []v5a.WireID, gates []v5a.Gate) {
	h = v5a.Header{PrimaryInputs: 3, NumOutputs: 2}
	outputs = []v5a.WireID{7, 11}
	gates = []v5a.Gate{
		{In1: 2, In2: 3, Out: 5, Type: v5a.XOR},
		{In1: 2, In2: 3, Out: 6, Type: v5a.AND},
		{In1: 5, In2: 4, Out: 7, Type: v5a.XOR},
		{In1: 5, In2: 4, Out: 8, Type: v5a.AND},
		{In1: 6, In2: 8, Out: 9, Type: v5a.XOR},
		{In1: 6, In2: 8, Out: 10, Type: v5a.AND},
		{In1: 9, In2: 10, Out: 11, Type: v5a.XOR},
	}
	gates = v5a.ComputeCredits(gates, outputs)
	return h, outputs, gates
}

// runLevelsExec computes ground-truth bit values by running the full
// adder's levels through an exec Engine.
func runLevelsExec(t *testing.T, a, b, cin bool) (sum, cout bool) {
	t.Helper()
	h, outputs, gates := fullAdderV5a()
	v5cHeader, v5cOutputs, levels, err := v5b.BuildFromV5a(h, outputs, gates)
	if err != nil {
		t.Fatal(err)
	}

	exec, err := NewExecutor(v5cHeader.ScratchSpace, 3, []bool{a, b, cin})
	if err != nil {
		t.Fatal(err)
	}
	var tweak uint64
	for _, lvl := range levels {
		if _, err := exec.RunLevel(lvl, tweak, nil); err != nil {
			t.Fatal(err)
		}
		tweak += uint64(len(lvl.AND))
	}
	vals, err := exec.GetValues(v5cOutputs)
	if err != nil {
		t.Fatal(err)
	}
	return vals[0], vals[1]
}

// runLevelsGarbEval drives a garbler and evaluator across the same
// level-ordered full adder, using RunLevel's worker-pool fan-out
// instead of Gate-at-a-time dispatch, and returns the evaluator's
// recovered output bits.
func runLevelsGarbEval(t *testing.T, a, b, cin bool) (sum, cout bool) {
	t.Helper()
	h, outputs, gates := fullAdderV5a()
	v5cHeader, v5cOutputs, levels, err := v5b.BuildFromV5a(h, outputs, gates)
	if err != nil {
		t.Fatal(err)
	}
	delta := randomDelta(t)

	falseLabels := []label.Label{randomLabel(t), randomLabel(t), randomLabel(t)}
	garb, err := NewGarbler(v5cHeader.ScratchSpace, 3, delta, falseLabels)
	if err != nil {
		t.Fatal(err)
	}

	bits := []bool{a, b, cin}
	selectedLabels := make([]label.Label, 3)
	for i, l := range falseLabels {
		if bits[i] {
			selectedLabels[i] = l.Xor(delta)
		} else {
			selectedLabels[i] = l
		}
	}
	ev, err := NewEvaluator(v5cHeader.ScratchSpace, 3, selectedLabels, bits)
	if err != nil {
		t.Fatal(err)
	}

	var tweak uint64
	for _, lvl := range levels {
		cts, err := garb.RunLevel(lvl, tweak, nil)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := ev.RunLevel(lvl, tweak, cts); err != nil {
			t.Fatal(err)
		}
		tweak += uint64(len(lvl.AND))
	}

	vals, err := ev.GetValues(v5cOutputs)
	if err != nil {
		t.Fatal(err)
	}
	return vals[0], vals[1]
}

func TestRunLevelAgreesWithGateAtATime(t *testing.T) {
	for a := 0; a < 2; a++ {
		for b := 0; b < 2; b++ {
			for cin := 0; cin < 2; cin++ {
				wantSum, wantCout := runExec(t, a != 0, b != 0, cin != 0)
				gotSum, gotCout := runLevelsExec(t, a != 0, b != 0, cin != 0)
				if gotSum != wantSum || gotCout != wantCout {
					t.Errorf("exec a=%d b=%d cin=%d: RunLevel gave sum=%v cout=%v, want sum=%v cout=%v",
						a, b, cin, gotSum, gotCout, wantSum, wantCout)
				}

				gotSum, gotCout = runLevelsGarbEval(t, a != 0, b != 0, cin != 0)
				if gotSum != wantSum || gotCout != wantCout {
					t.Errorf("garb/eval a=%d b=%d cin=%d: RunLevel gave sum=%v cout=%v, want sum=%v cout=%v",
						a, b, cin, gotSum, gotCout, wantSum, wantCout)
				}
			}
		}
	}
}
