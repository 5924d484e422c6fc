// Package engine implements the three half-gates roles that walk a
// v5c (or v5b) gate stream in lock step: garb produces ciphertexts and
// output labels, eval consumes ciphertexts and reconstructs output
// labels and values, and exec recomputes plaintext values directly for
// testing and cross-checking (spec.md section 4.E).
//
// Grounded on circuit/garble.go's Gate.Garble (the garb role),
// circuit/eval.go's Circuit.Eval (the eval role), and
// circuit/computer.go's Circuit.Compute (the exec role) -
// generalized from a batch pass over an in-memory Circuit to
// streaming, externally-driven gate-at-a-time processing over a
// scratch-address space, per gate contracts from spec.md section 4.E.
package engine

import (
	"fmt"

	"github.com/zk2u/gatestream/aesfix"
	"github.com/zk2u/gatestream/label"
	"github.com/zk2u/gatestream/v5a"
	"github.com/zk2u/gatestream/v5c"
)

// Role selects which half-gates party an Engine plays.
type Role uint8

const (
	Garb Role = iota
	Eval
	Exec
)

func (r Role) String() string {
	switch r {
	case Garb:
		return "garb"
	case Eval:
		return "eval"
	default:
		return "exec"
	}
}

// Engine holds one role's per-wire working state and processes gates
// in the exact serial order they were garbled in, since gate_ctr is
// used as the TCCR hash tweak and must agree between garb and eval for
// every gate, XOR included.
type Engine struct {
	role    Role
	labels  []label.Label // working_space; unused (but allocated) by Exec
	bits    []bool        // working_space_bits; unused by Garb
	delta   label.Delta   // Garb only
	gateCtr uint64
}

// NewGarbler creates a garbling Engine. falseLabels holds, for each of
// the primaryInputs primary input wires, the label representing 0 for
// that wire; the garbler chooses these (and their Δ-offset
// counterparts) before any gate is processed.
func NewGarbler(scratchSpace, primaryInputs uint64, delta label.Delta, falseLabels []label.Label) (*Engine, error) {
	if uint64(len(falseLabels)) != primaryInputs {
		return nil, fmt.Errorf("engine: got %d primary input labels, want %d", len(falseLabels), primaryInputs)
	}
	e := &Engine{role: Garb, labels: make([]label.Label, scratchSpace), delta: delta}
	e.labels[0] = label.LabelZero
	// Working space holds false labels; wire 1 is constant true, so its
	// false label is LABEL_ONE XOR delta (the evaluator's LABEL_ONE is
	// then this false label XOR delta, per spec.md section 3).
	e.labels[1] = label.LabelOne.Xor(delta)
	for k, l := range falseLabels {
		e.labels[2+k] = l
	}
	return e, nil
}

// NewEvaluator creates an evaluating Engine seeded with the labels the
// evaluator received via oblivious transfer for each primary input wire
// and the plaintext value of each of those inputs.
func NewEvaluator(scratchSpace, primaryInputs uint64, selectedLabels []label.Label, selectedBits []bool) (*Engine, error) {
	if uint64(len(selectedLabels)) != primaryInputs || uint64(len(selectedBits)) != primaryInputs {
		return nil, fmt.Errorf("engine: primary input slice length mismatch (want %d)", primaryInputs)
	}
	e := &Engine{
		role:   Eval,
		labels: make([]label.Label, scratchSpace),
		bits:   make([]bool, scratchSpace),
	}
	e.labels[0] = label.LabelZero
	e.labels[1] = label.LabelOne
	e.bits[1] = true
	for k := range selectedLabels {
		e.labels[2+k] = selectedLabels[k]
		e.bits[2+k] = selectedBits[k]
	}
	return e, nil
}

// NewExecutor creates a plaintext reference Engine that recomputes the
// circuit's output values directly, for testing garb/eval against
// ground truth.
func NewExecutor(scratchSpace, primaryInputs uint64, inputBits []bool) (*Engine, error) {
	if uint64(len(inputBits)) != primaryInputs {
		return nil, fmt.Errorf("engine: got %d input bits, want %d", len(inputBits), primaryInputs)
	}
	e := &Engine{
		role:   Exec,
		labels: make([]label.Label, scratchSpace),
		bits:   make([]bool, scratchSpace),
	}
	e.bits[1] = true
	for k, b := range inputBits {
		e.bits[2+k] = b
	}
	return e, nil
}

// Role reports which party this Engine plays.
func (e *Engine) Role() Role { return e.role }

// XOR processes a free XOR gate. FreeXOR requires no ciphertext and no
// AES call in any role.
func (e *Engine) XOR(in1, in2, out v5c.Address) {
	switch e.role {
	case Garb:
		e.labels[out] = e.labels[in1].Xor(e.labels[in2])
	case Eval:
		e.labels[out] = e.labels[in1].Xor(e.labels[in2])
		e.bits[out] = e.bits[in1] != e.bits[in2]
	case Exec:
		e.bits[out] = e.bits[in1] != e.bits[in2]
	}
	e.gateCtr++
}

// AND processes a one-ciphertext half-gates AND gate.
//
// Garb: ignores ct, computes and returns the ciphertext to broadcast.
// Eval: consumes ct (received from the garbler) and returns the
// all-zero ciphertext, which callers should ignore.
// Exec: ignores ct and returns the all-zero ciphertext.
func (e *Engine) AND(in1, in2, out v5c.Address, ct label.Ciphertext) (emit label.Ciphertext, err error) {
	t := label.Tweak(e.gateCtr)
	defer func() { e.gateCtr++ }()

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

// Gate dispatches to XOR or AND by the v5a/v5c gate type tag. ct is
// only meaningful for AND gates; callers processing a v5b level can
// call XOR and AND directly on the two slices instead.
func (e *Engine) Gate(g v5c.Gate, ct label.Ciphertext) (emit label.Ciphertext, err error) {
	if g.Type == v5a.AND {
		return e.AND(g.In1, g.In2, g.Out, ct)
	}
	e.XOR(g.In1, g.In2, g.Out)
	return label.Label{}, nil
}

// GetSelectedLabels returns, for a garbler, the label that corresponds
// to each wire's actual (bit-valued) output: W[w] XOR Δ when bit is
// set, else W[w] unchanged. Used to produce the labels handed to the
// evaluator for the circuit's output wires.
func (e *Engine) GetSelectedLabels(wires []v5c.Address, bits []bool) ([]label.Label, error) {
	if e.role != Garb {
		return nil, fmt.Errorf("engine: GetSelectedLabels requires the garb role, got %s", e.role)
	}
	if len(wires) != len(bits) {
		return nil, fmt.Errorf("engine: wires/bits length mismatch: %d vs %d", len(wires), len(bits))
	}
	out := make([]label.Label, len(wires))
	for i, w := range wires {
		l := e.labels[w]
		if bits[i] {
			l = l.Xor(e.delta)
		}
		out[i] = l
	}
	return out, nil
}

// GetLabels copies the current labels of wires, for eval.
func (e *Engine) GetLabels(wires []v5c.Address) ([]label.Label, error) {
	if e.role != Eval {
		return nil, fmt.Errorf("engine: GetLabels requires the eval role, got %s", e.role)
	}
	out := make([]label.Label, len(wires))
	for i, w := range wires {
		out[i] = e.labels[w]
	}
	return out, nil
}

// GetValues copies the current bit values of wires, for eval or exec.
func (e *Engine) GetValues(wires []v5c.Address) ([]bool, error) {
	if e.role == Garb {
		return nil, fmt.Errorf("engine: GetValues requires the eval or exec role, got %s", e.role)
	}
	out := make([]bool, len(wires))
	for i, w := range wires {
		out[i] = e.bits[w]
	}
	return out, nil
}
