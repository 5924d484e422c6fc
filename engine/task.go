package engine

import (
	"fmt"

	"github.com/zk2u/gatestream/label"
	"github.com/zk2u/gatestream/v5a"
	"github.com/zk2u/gatestream/v5c"
)

// LabelPair is the decode table entry a garbler publishes for one
// output wire: the label that represents 0 and the label that
// represents 1, so that whoever learns the wire's revealed label can
// recover its plaintext bit.
type LabelPair struct {
	Zero, One label.Label
}

// GarbTask drives a garbling Engine as a task.CircuitTask, recording
// the ciphertext stream an evaluator needs alongside it.
type GarbTask struct {
	e           *Engine
	ciphertexts []label.Ciphertext
	abortErr    error
}

// NewGarbTask wraps an already-constructed garbling Engine.
func NewGarbTask(e *Engine) *GarbTask {
	return &GarbTask{e: e}
}

// Ciphertexts returns the emitted AND-gate ciphertexts in gate order;
// this is the side channel an evaluator consumes alongside the same
// v5c gate stream.
func (t *GarbTask) Ciphertexts() []label.Ciphertext { return t.ciphertexts }

func (t *GarbTask) Initialize(header v5c.Header, outputs []v5c.Address) error {
	if header.ScratchSpace != uint64(len(t.e.labels)) {
		return fmt.Errorf("engine: header scratch_space %d does not match engine's %d",
			header.ScratchSpace, len(t.e.labels))
	}
	return nil
}

func (t *GarbTask) OnBlock(gates []v5c.Gate) error {
	for _, g := range gates {
		if g.Type == v5a.AND {
			ct, err := t.e.AND(g.In1, g.In2, g.Out, label.Label{})
			if err != nil {
				return err
			}
			t.ciphertexts = append(t.ciphertexts, ct)
		} else {
			t.e.XOR(g.In1, g.In2, g.Out)
		}
	}
	return nil
}

func (t *GarbTask) OnAfterChunk() error { return nil }

// Finish returns the zero/one label pair for each output wire: the
// decode table an evaluator uses to map its recovered output labels
// back to plaintext bits.
func (t *GarbTask) Finish(outputs []v5c.Address) ([]LabelPair, error) {
	zeroBits := make([]bool, len(outputs))
	oneBits := make([]bool, len(outputs))
	for i := range oneBits {
		oneBits[i] = true
	}
	zero, err := t.e.GetSelectedLabels(outputs, zeroBits)
	if err != nil {
		return nil, err
	}
	one, err := t.e.GetSelectedLabels(outputs, oneBits)
	if err != nil {
		return nil, err
	}
	pairs := make([]LabelPair, len(outputs))
	for i := range outputs {
		pairs[i] = LabelPair{Zero: zero[i], One: one[i]}
	}
	return pairs, nil
}

func (t *GarbTask) OnAbort(err error) { t.abortErr = err }

// EvalResult is what an EvalTask recovers: both the raw output labels
// and, once decoded against the garbler's LabelPairs, their plaintext
// values.
type EvalResult struct {
	Labels []label.Label
	Values []bool
}

// EvalTask drives an evaluating Engine as a task.CircuitTask. Ciphertexts
// must be supplied in the same AND-gate order the garbler produced them.
type EvalTask struct {
	e           *Engine
	ciphertexts []label.Ciphertext
	nextCT      int
	abortErr    error
}

// NewEvalTask wraps an already-constructed evaluating Engine together
// with the ciphertext stream received from the garbler.
func NewEvalTask(e *Engine, ciphertexts []label.Ciphertext) *EvalTask {
	return &EvalTask{e: e, ciphertexts: ciphertexts}
}

func (t *EvalTask) Initialize(header v5c.Header, outputs []v5c.Address) error {
	if header.ScratchSpace != uint64(len(t.e.labels)) {
		return fmt.Errorf("engine: header scratch_space %d does not match engine's %d",
			header.ScratchSpace, len(t.e.labels))
	}
	return nil
}

func (t *EvalTask) OnBlock(gates []v5c.Gate) error {
	for _, g := range gates {
		if g.Type == v5a.AND {
			if t.nextCT >= len(t.ciphertexts) {
				return fmt.Errorf("engine: ran out of ciphertexts at AND gate (have %d)", len(t.ciphertexts))
			}
			ct := t.ciphertexts[t.nextCT]
			t.nextCT++
			if _, err := t.e.AND(g.In1, g.In2, g.Out, ct); err != nil {
				return err
			}
		} else {
			t.e.XOR(g.In1, g.In2, g.Out)
		}
	}
	return nil
}

func (t *EvalTask) OnAfterChunk() error { return nil }

func (t *EvalTask) Finish(outputs []v5c.Address) (EvalResult, error) {
	labels, err := t.e.GetLabels(outputs)
	if err != nil {
		return EvalResult{}, err
	}
	values, err := t.e.GetValues(outputs)
	if err != nil {
		return EvalResult{}, err
	}
	return EvalResult{Labels: labels, Values: values}, nil
}

func (t *EvalTask) OnAbort(err error) { t.abortErr = err }

// ExecTask drives a plaintext executor Engine as a task.CircuitTask,
// producing ground-truth output values for testing garb/eval against.
type ExecTask struct {
	e        *Engine
	abortErr error
}

// NewExecTask wraps an already-constructed executor Engine.
func NewExecTask(e *Engine) *ExecTask {
	return &ExecTask{e: e}
}

func (t *ExecTask) Initialize(header v5c.Header, outputs []v5c.Address) error {
	if header.ScratchSpace != uint64(len(t.e.bits)) {
		return fmt.Errorf("engine: header scratch_space %d does not match engine's %d",
			header.ScratchSpace, len(t.e.bits))
	}
	return nil
}

func (t *ExecTask) OnBlock(gates []v5c.Gate) error {
	for _, g := range gates {
		if g.Type == v5a.AND {
			if _, err := t.e.AND(g.In1, g.In2, g.Out, label.Label{}); err != nil {
				return err
			}
		} else {
			t.e.XOR(g.In1, g.In2, g.Out)
		}
	}
	return nil
}

func (t *ExecTask) OnAfterChunk() error { return nil }

func (t *ExecTask) Finish(outputs []v5c.Address) ([]bool, error) {
	return t.e.GetValues(outputs)
}

func (t *ExecTask) OnAbort(err error) { t.abortErr = err }

// DecodeValue maps a recovered evaluator label back to a plaintext bit
// using the garbler's published decode table; it errors if the label
// matches neither entry, which indicates corrupted input or a protocol
// bug.
func DecodeValue(pair LabelPair, recovered label.Label) (bool, error) {
	switch {
	case recovered.Equal(pair.Zero):
		return false, nil
	case recovered.Equal(pair.One):
		return true, nil
	default:
		return false, fmt.Errorf("engine: recovered label matches neither decode table entry")
	}
}
