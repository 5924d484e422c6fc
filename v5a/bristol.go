// Bristol-format import/export, grounded on circuit/parser.go's
// ParseBristol and circuit/marshal.go's Circuit.MarshalBristol: both
// read/write the same "NumGates NumWires \n NumInputs sizes... \n
// NumOutputs sizes... \n (gate lines)" text shape. Bristol circuits
// carry INV/XNOR/OR gates that half-gates garbling has no direct
// construction for, so ParseBristol rewrites them into the XOR/AND
// basis: INV(a)=a^1, XNOR(a,b)=(a^b)^1, OR(a,b)=(a^b)^(a&b).
package v5a

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

var bristolSep = regexp.MustCompile(`\s+`)

func readBristolLine(r *bufio.Reader) ([]string, error) {
	for {
		line, err := r.ReadString('\n')
		if err != nil && line == "" {
			return nil, err
		}
		line = strings.TrimSpace(line)
		if line != "" {
			return bristolSep.Split(line, -1), nil
		}
		if err != nil {
			return nil, err
		}
	}
}

// ParseBristol reads a Bristol-format circuit and returns an
// equivalent v5a program: a header, the primary-input count folded
// into WireID assignment, the output wires, and a credits-annotated
// gate list ready for WriteStream.
func ParseBristol(r io.Reader) (Header, []WireID, []Gate, error) {
	br := bufio.NewReader(r)

	line, err := readBristolLine(br)
	if err != nil {
		return Header{}, nil, nil, err
	}
	if len(line) != 2 {
		return Header{}, nil, nil, fmt.Errorf("v5a: bristol: invalid gate/wire count line")
	}
	numGates, err := strconv.Atoi(line[0])
	if err != nil {
		return Header{}, nil, nil, fmt.Errorf("v5a: bristol: %w", err)
	}
	numWires, err := strconv.Atoi(line[1])
	if err != nil {
		return Header{}, nil, nil, fmt.Errorf("v5a: bristol: %w", err)
	}

	line, err = readBristolLine(br)
	if err != nil {
		return Header{}, nil, nil, err
	}
	niv, err := strconv.Atoi(line[0])
	if err != nil || 1+niv != len(line) {
		return Header{}, nil, nil, fmt.Errorf("v5a: bristol: invalid inputs line")
	}
	var primaryInputs int
	for i := 1; i < len(line); i++ {
		bits, err := strconv.Atoi(line[i])
		if err != nil {
			return Header{}, nil, nil, fmt.Errorf("v5a: bristol: invalid input width: %w", err)
		}
		primaryInputs += bits
	}

	line, err = readBristolLine(br)
	if err != nil {
		return Header{}, nil, nil, err
	}
	nov, err := strconv.Atoi(line[0])
	if err != nil || 1+nov != len(line) {
		return Header{}, nil, nil, fmt.Errorf("v5a: bristol: invalid outputs line")
	}
	var outputWires int
	for i := 1; i < len(line); i++ {
		bits, err := strconv.Atoi(line[i])
		if err != nil {
			return Header{}, nil, nil, fmt.Errorf("v5a: bristol: invalid output width: %w", err)
		}
		outputWires += bits
	}

	// Bristol wire 0..primaryInputs-1 map 1:1 to v5a WireIDs 2..;
	// WireIDs 0/1 are v5a's constants, so every Bristol wire shifts by 2.
	shift := func(w int) WireID { return WireID(w) + 2 }

	next := shift(numWires)
	alloc := func() WireID {
		w := next
		next++
		return w
	}

	var gates []Gate
	for i := 0; i < numGates; i++ {
		line, err = readBristolLine(br)
		if err != nil {
			return Header{}, nil, nil, fmt.Errorf("v5a: bristol: gate %d: %w", i, err)
		}
		if len(line) < 4 {
			return Header{}, nil, nil, fmt.Errorf("v5a: bristol: gate %d: too few fields", i)
		}
		n1, err := strconv.Atoi(line[0])
		if err != nil {
			return Header{}, nil, nil, fmt.Errorf("v5a: bristol: gate %d: %w", i, err)
		}
		n2, err := strconv.Atoi(line[1])
		if err != nil {
			return Header{}, nil, nil, fmt.Errorf("v5a: bristol: gate %d: %w", i, err)
		}
		if 2+n1+n2+1 != len(line) {
			return Header{}, nil, nil, fmt.Errorf("v5a: bristol: gate %d: field count mismatch", i)
		}
		op := line[len(line)-1]
		out := shift(atoiMust(line[2+n1]))

		switch op {
		case "XOR":
			in1, in2 := shift(atoiMust(line[2])), shift(atoiMust(line[3]))
			gates = append(gates, Gate{In1: in1, In2: in2, Out: out, Type: XOR})
		case "AND":
			in1, in2 := shift(atoiMust(line[2])), shift(atoiMust(line[3]))
			gates = append(gates, Gate{In1: in1, In2: in2, Out: out, Type: AND})
		case "INV":
			in1 := shift(atoiMust(line[2]))
			gates = append(gates, Gate{In1: in1, In2: WireTrue, Out: out, Type: XOR})
		case "XNOR":
			in1, in2 := shift(atoiMust(line[2])), shift(atoiMust(line[3]))
			tmp := alloc()
			gates = append(gates, Gate{In1: in1, In2: in2, Out: tmp, Type: XOR})
			gates = append(gates, Gate{In1: tmp, In2: WireTrue, Out: out, Type: XOR})
		case "OR":
			in1, in2 := shift(atoiMust(line[2])), shift(atoiMust(line[3]))
			txor := alloc()
			tand := alloc()
			gates = append(gates, Gate{In1: in1, In2: in2, Out: txor, Type: XOR})
			gates = append(gates, Gate{In1: in1, In2: in2, Out: tand, Type: AND})
			gates = append(gates, Gate{In1: txor, In2: tand, Out: out, Type: XOR})
		default:
			return Header{}, nil, nil, fmt.Errorf("v5a: bristol: gate %d: unsupported op %q", i, op)
		}
	}

	// Bristol convention: the circuit's output wires are its highest
	// numbered wires, i.e. the topmost outputWires below the declared
	// wire count (the temporaries allocated above all lie past it).
	outputs := make([]WireID, outputWires)
	for i := range outputs {
		outputs[i] = shift(numWires - outputWires + i)
	}

	gates = ComputeCredits(gates, outputs)

	h := Header{PrimaryInputs: uint64(primaryInputs), NumOutputs: uint64(outputWires)}
	for _, g := range gates {
		if g.Type == AND {
			h.ANDGates++
		} else {
			h.XORGates++
		}
	}
	return h, outputs, gates, nil
}

func atoiMust(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

// ComputeCredits fills in each gate's Credits field: the number of
// still-pending downstream gates (plus circuit outputs) that read its
// output wire, which is what prealloc.Allocator.free needs to reclaim
// scratch slots. Constants and primary inputs are exempt (prealloc
// never frees them), matching MaxCredits's documented meaning.
func ComputeCredits(gates []Gate, outputs []WireID) []Gate {
	refCount := make(map[WireID]uint32)
	isOutput := make(map[WireID]bool, len(outputs))
	for _, o := range outputs {
		isOutput[o] = true
	}
	for _, g := range gates {
		refCount[g.In1]++
		refCount[g.In2]++
	}

	out := make([]Gate, len(gates))
	for i, g := range gates {
		out[i] = g
		credits := refCount[g.Out]
		if isOutput[g.Out] && credits > 0 {
			// prealloc.Allocator.ResolveOutput reads this slot after every
			// gate has run, so an output wire that a later gate also
			// reads needs one extra credit: otherwise the last downstream
			// gate's resolve() would free the slot before ResolveOutput
			// gets to it.
			credits++
		}
		out[i].Credits = credits
	}
	return out
}

// WriteBristol serializes a v5a program back to Bristol text. Since
// v5a has no native INV/XNOR/OR, this always emits the XOR/AND basis
// Bristol itself supports, so the round trip is basis-preserving but
// not byte-identical to circuits that originally used INV/XNOR/OR.
func WriteBristol(w io.Writer, h Header, outputs []WireID, gates []Gate) error {
	total := h.XORGates + h.ANDGates
	numWires := h.PrimaryInputs + 2 + total
	if _, err := fmt.Fprintf(w, "%d %d\n", total, numWires); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "1 %d\n", h.PrimaryInputs); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "1 %d\n\n", len(outputs)); err != nil {
		return err
	}
	for _, g := range gates {
		if _, err := fmt.Fprintf(w, "2 1 %d %d %d %s\n", g.In1, g.In2, g.Out, g.Type); err != nil {
			return err
		}
	}
	return nil
}
