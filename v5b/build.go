package v5b

import (
	"bytes"
	"fmt"

	"github.com/zk2u/gatestream/prealloc"
	"github.com/zk2u/gatestream/v5a"
	"github.com/zk2u/gatestream/v5c"
)

// BuildFromV5a levels a v5a program and runs the result through
// prealloc in one step, in the order spec.md section 4.F requires:
// level on wire IDs first (see BuildLevelOrder), assign scratch
// addresses second. It returns the v5c header and output addresses
// prealloc produced, plus the gates regrouped into v5b levels.
func BuildFromV5a(h v5a.Header, outputs []v5a.WireID, gates []v5a.Gate) (v5c.Header, []v5c.Address, []Level, error) {
	ordered, sizes, err := BuildLevelOrder(h.PrimaryInputs, gates)
	if err != nil {
		return v5c.Header{}, nil, nil, err
	}

	var buf bytes.Buffer
	if err := v5a.WriteStream(&buf, h, outputs, ordered); err != nil {
		return v5c.Header{}, nil, nil, fmt.Errorf("v5b: %w", err)
	}
	src, err := v5a.OpenStream(&buf)
	if err != nil {
		return v5c.Header{}, nil, nil, fmt.Errorf("v5b: %w", err)
	}

	v5cHeader, v5cGates, v5cOutputs, err := prealloc.Run(src)
	if err != nil {
		return v5c.Header{}, nil, nil, fmt.Errorf("v5b: %w", err)
	}

	return v5cHeader, v5cOutputs, SplitLevels(v5cGates, sizes), nil
}
