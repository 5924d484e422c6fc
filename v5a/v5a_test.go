package v5a

import (
	"bytes"
	"testing"
)

func sampleGates() []Gate {
	return []Gate{
		{In1: 2, In2: 3, Out: 4, Credits: 1, Type: XOR},
		{In1: 4, In2: 0, Out: 5, Credits: 1, Type: AND},
		{In1: 5, In2: 1, Out: 6, Credits: 0, Type: XOR},
	}
}

func TestPackUnpackBlockRoundTrip(t *testing.T) {
	gates := sampleGates()
	block, err := PackBlock(gates)
	if err != nil {
		t.Fatal(err)
	}
	got, err := UnpackBlock(block, len(gates))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(gates) {
		t.Fatalf("got %d gates, want %d", len(got), len(gates))
	}
	for i := range gates {
		if got[i] != gates[i] {
			t.Errorf("gate %d: got %+v, want %+v", i, got[i], gates[i])
		}
	}
}

func TestPackBlockRejectsOverflow(t *testing.T) {
	_, err := PackBlock([]Gate{{In1: MaxWireID + 1}})
	if err == nil {
		t.Fatal("expected an error for an out-of-range wire id")
	}
	_, err = PackBlock([]Gate{{Credits: MaxCredits + 1}})
	if err == nil {
		t.Fatal("expected an error for out-of-range credits")
	}
}

func TestStreamRoundTrip(t *testing.T) {
	gates := sampleGates()
	outputs := []WireID{6}

	var buf bytes.Buffer
	if err := WriteStream(&buf, Header{PrimaryInputs: 2}, outputs, gates); err != nil {
		t.Fatal(err)
	}

	sr, err := OpenStream(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if sr.Header.XORGates != 2 || sr.Header.ANDGates != 1 {
		t.Fatalf("gate counts wrong: %+v", sr.Header)
	}
	if len(sr.Outputs) != 1 || sr.Outputs[0] != 6 {
		t.Fatalf("outputs wrong: %v", sr.Outputs)
	}

	var got []Gate
	for {
		g, ok, err := sr.Next()
		if err != nil {
			t.Fatal(err)
		}
		if !ok {
			break
		}
		got = append(got, g)
	}
	if len(got) != len(gates) {
		t.Fatalf("got %d gates, want %d", len(got), len(gates))
	}
	for i := range gates {
		if got[i] != gates[i] {
			t.Errorf("gate %d: got %+v, want %+v", i, got[i], gates[i])
		}
	}
}

func TestStreamPartialBlock(t *testing.T) {
	// A circuit with more than one block's worth of gates, where the
	// second block is partial.
	var gates []Gate
	for i := 0; i < GatesPerBlock+10; i++ {
		gates = append(gates, Gate{
			In1: WireID(i), In2: WireID(i), Out: WireID(i + 1000),
			Credits: 1, Type: XOR,
		})
	}
	var buf bytes.Buffer
	if err := WriteStream(&buf, Header{}, nil, gates); err != nil {
		t.Fatal(err)
	}
	sr, err := OpenStream(&buf)
	if err != nil {
		t.Fatal(err)
	}
	var count int
	for {
		_, ok, err := sr.Next()
		if err != nil {
			t.Fatal(err)
		}
		if !ok {
			break
		}
		count++
	}
	if count != len(gates) {
		t.Fatalf("got %d gates, want %d", count, len(gates))
	}
}
