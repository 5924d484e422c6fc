package v5a

import (
	"fmt"
	"io"
)

// WriteDOT renders gates as a graphviz digraph for debugging small
// circuits, the same three-section layout (plaintext wire nodes, boxed
// gate nodes, rank=same input/output rows) the teacher's circuit.Dot
// produces, generalized from the teacher's []Wire/[]Gate slices to
// v5a's WireID-addressed Gate stream.
func WriteDOT(out io.Writer, h Header, outputs []WireID, gates []Gate) error {
	fmt.Fprintf(out, "digraph circuit\n{\n")
	fmt.Fprintf(out, "  overlap=scale;\n")
	fmt.Fprintf(out, "  node\t[fontname=\"Helvetica\"];\n")

	fmt.Fprintf(out, "  {\n    node [shape=plaintext];\n")
	seen := map[WireID]bool{WireFalse: true, WireTrue: true}
	fmt.Fprintf(out, "    w%d\t[label=\"0\"];\n", WireFalse)
	fmt.Fprintf(out, "    w%d\t[label=\"1\"];\n", WireTrue)
	for w := WireID(2); w < WireID(2)+WireID(h.PrimaryInputs); w++ {
		fmt.Fprintf(out, "    w%d\t[label=\"%d\"];\n", w, w)
		seen[w] = true
	}
	for _, g := range gates {
		if !seen[g.Out] {
			fmt.Fprintf(out, "    w%d\t[label=\"%d\"];\n", g.Out, g.Out)
			seen[g.Out] = true
		}
	}
	fmt.Fprintf(out, "  }\n")

	fmt.Fprintf(out, "  {\n    node [shape=box];\n")
	for idx, g := range gates {
		fmt.Fprintf(out, "    g%d\t[label=\"%s\"];\n", idx, g.Type.String())
	}
	fmt.Fprintf(out, "  }\n")

	fmt.Fprintf(out, "  {  rank=same")
	for w := WireID(0); w < WireID(2)+WireID(h.PrimaryInputs); w++ {
		fmt.Fprintf(out, "; w%d", w)
	}
	fmt.Fprintf(out, ";}\n")

	fmt.Fprintf(out, "  {  rank=same")
	for _, w := range outputs {
		fmt.Fprintf(out, "; w%d", w)
	}
	fmt.Fprintf(out, ";}\n")

	for idx, g := range gates {
		fmt.Fprintf(out, "  w%d -> g%d;\n", g.In1, idx)
		fmt.Fprintf(out, "  w%d -> g%d;\n", g.In2, idx)
		fmt.Fprintf(out, "  g%d -> w%d;\n", idx, g.Out)
	}
	fmt.Fprintf(out, "}\n")
	return nil
}
