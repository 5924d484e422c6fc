package task

import (
	"fmt"

	"github.com/zk2u/gatestream/engine"
	"github.com/zk2u/gatestream/label"
	"github.com/zk2u/gatestream/v5b"
)

// RunLevelFile drives e across every level of f in file order, running
// each level's XOR and AND records concurrently via Engine.RunLevel and
// threading the AND tweak counter between levels (this counter advances
// once per AND record, so a level's own AND count is the increment to
// the next level's base; it is separate from the Engine's serial
// gateCtr, which XOR gates advance too). For Garb it returns the per-level
// ciphertexts the caller must broadcast to the evaluator, in level
// order; for Eval, inCts supplies those same per-level ciphertexts,
// also in level order; Exec ignores inCts and returns nil.
//
// Unlike Run, which drives a v5c stream one block at a time through a
// reader.Reader, RunLevelFile takes a fully materialized v5b.File: a
// level's worker-pool fan-out needs every record of the level at once,
// so there is no equivalent of the triple-buffered window to stream it
// through.
func RunLevelFile(e *engine.Engine, f *v5b.File, inCts [][]label.Ciphertext) ([][]label.Ciphertext, error) {
	if e.Role() == engine.Eval && inCts != nil && len(inCts) != len(f.Levels) {
		return nil, fmt.Errorf("task: got %d levels of ciphertexts, want %d", len(inCts), len(f.Levels))
	}

	var outCts [][]label.Ciphertext
	var tweak uint64
	for li, lvl := range f.Levels {
		var in []label.Ciphertext
		if inCts != nil {
			in = inCts[li]
		}
		ct, err := e.RunLevel(lvl, tweak, in)
		if err != nil {
			return nil, fmt.Errorf("task: level %d: %w", li, err)
		}
		if e.Role() == engine.Garb {
			outCts = append(outCts, ct)
		}
		tweak += uint64(len(lvl.AND))
	}
	return outCts, nil
}
