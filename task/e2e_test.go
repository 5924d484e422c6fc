package task_test

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/zk2u/gatestream/engine"
	"github.com/zk2u/gatestream/label"
	"github.com/zk2u/gatestream/prealloc"
	"github.com/zk2u/gatestream/reader"
	"github.com/zk2u/gatestream/task"
	"github.com/zk2u/gatestream/v5a"
	"github.com/zk2u/gatestream/v5c"
)

// rippleAdder builds an n-bit ripple-carry adder using the 5-gate
// (3 XOR + 2 AND) per-bit full adder, where cout = (a&b) | ((a^b)&cin)
// is written as an XOR because its two terms are never both 1:
//
//	t1   = a ^ b
//	sum  = t1 ^ cin
//	t2   = a & b
//	t3   = t1 & cin
//	cout = t2 ^ t3
//
// Primary inputs are laid out a0..a(n-1), b0..b(n-1); outputs are
// sum0..sum(n-1), cout(n-1).
func rippleAdder(bits int) (v5a.Header, []v5a.WireID, []v5a.Gate) {
	h := v5a.Header{PrimaryInputs: uint64(2 * bits)}
	aID := func(i int) v5a.WireID { return v5a.WireID(2 + i) }
	bID := func(i int) v5a.WireID { return v5a.WireID(2 + bits + i) }

	next := v5a.WireID(2 + 2*bits)
	alloc := func() v5a.WireID {
		w := next
		next++
		return w
	}

	var gates []v5a.Gate
	var outputs []v5a.WireID
	cin := v5a.WireID(0) // constant false

	for i := 0; i < bits; i++ {
		t1 := alloc()
		sum := alloc()
		t2 := alloc()
		t3 := alloc()
		cout := alloc()

		gates = append(gates,
			v5a.Gate{In1: aID(i), In2: bID(i), Out: t1, Credits: 2, Type: v5a.XOR},
			v5a.Gate{In1: t1, In2: cin, Out: sum, Credits: 0, Type: v5a.XOR},
			v5a.Gate{In1: aID(i), In2: bID(i), Out: t2, Credits: 1, Type: v5a.AND},
			v5a.Gate{In1: t1, In2: cin, Out: t3, Credits: 1, Type: v5a.AND},
		)
		coutCredits := uint32(2)
		if i == bits-1 {
			coutCredits = 0
		}
		gates = append(gates, v5a.Gate{In1: t2, In2: t3, Out: cout, Credits: coutCredits, Type: v5a.XOR})

		outputs = append(outputs, sum)
		cin = cout
		if i == bits-1 {
			outputs = append(outputs, cout)
		}
	}

	return h, outputs, gates
}

// buildV5cFile runs a v5a program through prealloc and serializes the
// result to path, returning the resulting header.
func buildV5cFile(t *testing.T, path string, h v5a.Header, outputs []v5a.WireID, gates []v5a.Gate) v5c.Header {
	t.Helper()
	var v5aBuf bytes.Buffer
	if err := v5a.WriteStream(&v5aBuf, h, outputs, gates); err != nil {
		t.Fatal(err)
	}
	src, err := v5a.OpenStream(&v5aBuf)
	if err != nil {
		t.Fatal(err)
	}
	v5cHeader, v5cGates, v5cOutputs, err := prealloc.Run(src)
	if err != nil {
		t.Fatal(err)
	}

	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := v5c.WriteFile(f, v5cHeader, v5cOutputs, v5cGates); err != nil {
		t.Fatal(err)
	}
	return v5cHeader
}

func bitsLE(v uint8, n int) []bool {
	out := make([]bool, n)
	for i := 0; i < n; i++ {
		out[i] = (v>>uint(i))&1 == 1
	}
	return out
}

func runGarbThenEval(t *testing.T, path string, scratchSpace uint64, inputBits []bool) ([]bool, []engine.LabelPair) {
	t.Helper()
	ctx := context.Background()
	delta := label.NewDelta(label.Label{D0: 0xdeadbeefcafef00d, D1: 0x0123456789abcdef})

	falseLabels := make([]label.Label, len(inputBits))
	for i := range falseLabels {
		falseLabels[i] = label.Label{D0: uint64(i)*7 + 11, D1: uint64(i)*13 + 17}
	}

	rg, err := reader.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	garb, err := engine.NewGarbler(scratchSpace, uint64(len(inputBits)), delta, falseLabels)
	if err != nil {
		t.Fatal(err)
	}
	garbTask := engine.NewGarbTask(garb)
	pairs, err := task.Run[[]engine.LabelPair](ctx, rg, garbTask)
	if err != nil {
		t.Fatal(err)
	}

	selectedLabels := make([]label.Label, len(inputBits))
	for i, b := range inputBits {
		if b {
			selectedLabels[i] = falseLabels[i].Xor(delta)
		} else {
			selectedLabels[i] = falseLabels[i]
		}
	}

	re, err := reader.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	ev, err := engine.NewEvaluator(scratchSpace, uint64(len(inputBits)), selectedLabels, inputBits)
	if err != nil {
		t.Fatal(err)
	}
	evalTask := engine.NewEvalTask(ev, garbTask.Ciphertexts())
	result, err := task.Run[engine.EvalResult](ctx, re, evalTask)
	if err != nil {
		t.Fatal(err)
	}

	return result.Values, pairs
}

func runExec(t *testing.T, path string, scratchSpace uint64, inputBits []bool) []bool {
	t.Helper()
	ctx := context.Background()
	rx, err := reader.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	exec, err := engine.NewExecutor(scratchSpace, uint64(len(inputBits)), inputBits)
	if err != nil {
		t.Fatal(err)
	}
	values, err := task.Run[[]bool](ctx, rx, engine.NewExecTask(exec))
	if err != nil {
		t.Fatal(err)
	}
	return values
}

func TestRippleCarryAdderZero(t *testing.T) {
	h, outputs, gates := rippleAdder(8)
	if len(gates) != 40 {
		t.Fatalf("expected 40 gates, got %d", len(gates))
	}
	var xor, and int
	for _, g := range gates {
		if g.Type == v5a.AND {
			and++
		} else {
			xor++
		}
	}
	if xor != 24 || and != 16 {
		t.Fatalf("expected 24 XOR/16 AND, got %d XOR/%d AND", xor, and)
	}

	path := filepath.Join(t.TempDir(), "adder.v5c")
	hdr := buildV5cFile(t, path, h, outputs, gates)

	inputBits := append(bitsLE(0x00, 8), bitsLE(0x00, 8)...)

	got := runExec(t, path, hdr.ScratchSpace, inputBits)
	wantSum := bitsLE(0x00, 8)
	for i, b := range wantSum {
		if got[i] != b {
			t.Errorf("sum bit %d: got %v, want %v", i, got[i], b)
		}
	}
	if got[8] != false {
		t.Errorf("carry: got %v, want false", got[8])
	}
}

func TestRippleCarryAdderOverflow(t *testing.T) {
	h, outputs, gates := rippleAdder(8)
	path := filepath.Join(t.TempDir(), "adder.v5c")
	hdr := buildV5cFile(t, path, h, outputs, gates)

	inputBits := append(bitsLE(0xFF, 8), bitsLE(0x01, 8)...)

	execVals := runExec(t, path, hdr.ScratchSpace, inputBits)
	for i := 0; i < 8; i++ {
		if execVals[i] != false {
			t.Errorf("exec sum bit %d: got true, want false", i)
		}
	}
	if execVals[8] != true {
		t.Error("exec carry: got false, want true")
	}

	evalVals, pairs := runGarbThenEval(t, path, hdr.ScratchSpace, inputBits)
	for i := range evalVals {
		if evalVals[i] != execVals[i] {
			t.Errorf("output %d: eval=%v exec=%v disagree", i, evalVals[i], execVals[i])
		}
	}
	if len(pairs) != len(outputs) {
		t.Fatalf("got %d label pairs, want %d", len(pairs), len(outputs))
	}
}

func TestFullAdderEvaluatorAndExecutorAgree(t *testing.T) {
	h, outputs, gates := rippleAdder(1)
	path := filepath.Join(t.TempDir(), "fa.v5c")
	hdr := buildV5cFile(t, path, h, outputs, gates)

	inputBits := []bool{true, true} // a=1, b=1, cin implicit 0
	execVals := runExec(t, path, hdr.ScratchSpace, inputBits)
	evalVals, _ := runGarbThenEval(t, path, hdr.ScratchSpace, inputBits)

	if execVals[0] != false || execVals[1] != true {
		t.Fatalf("1-bit adder exec: got sum=%v cout=%v, want sum=0 cout=1", execVals[0], execVals[1])
	}
	if evalVals[0] != execVals[0] || evalVals[1] != execVals[1] {
		t.Fatalf("eval disagrees with exec: eval=%v exec=%v", evalVals, execVals)
	}
}

func TestReaderEOFOnEmptyCircuit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.v5c")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	h := v5c.Header{ScratchSpace: 2}
	if err := v5c.WriteFile(f, h, nil, nil); err != nil {
		t.Fatal(err)
	}
	f.Close()

	r, err := reader.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := r.Next(context.Background()); err != io.EOF {
		t.Fatalf("expected io.EOF on an empty circuit, got %v", err)
	}
	if err := r.Close(); err != nil {
		t.Fatal(err)
	}
}
