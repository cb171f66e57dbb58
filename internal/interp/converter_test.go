package interp

import (
	"math/big"
	"testing"

	"github.com/wtk-go/sievecore/internal/wiretypes"
)

type passthroughConverter struct{ calls int }

func (c *passthroughConverter) Convert(outWires any, inWires any, modulus bool) error {
	out := outWires.([]int64)
	in := inWires.([]int64)
	copy(out, in)
	c.calls++
	return nil
}

func (c *passthroughConverter) Check() bool { return true }

func newConverterPair() (*TypeInterpreter[int64], *TypeInterpreter[int64]) {
	out := NewTypeInterpreter[int64](wiretypes.Field(0, big.NewInt(97)), &fakeModBackend{mod: 97}, nil, nil, nil)
	in := NewTypeInterpreter[int64](wiretypes.Ring(1, 8), &fakeModBackend{mod: 256}, nil, nil, nil)
	return out, in
}

func TestConverterRoundTrip(t *testing.T) {
	out, in := newConverterPair()
	in.Assign(0, big.NewInt(5))

	reg := NewConverterRegistry()
	conv := &passthroughConverter{}
	reg.Register(out.TypeIndex(), 1, in.TypeIndex(), 1, conv)

	if err := reg.Convert(out, in, 0, 0, 0, 0, false); err != nil {
		t.Fatalf("convert: %v", err)
	}
	got, err := out.top().Retrieve(0)
	if err != nil || got != 5 {
		t.Fatalf("retrieve(0) = (%v, %v), want (5, nil)", got, err)
	}
	if conv.calls != 1 {
		t.Fatalf("expected exactly one backend call, got %d", conv.calls)
	}
	if !reg.Check() {
		t.Fatalf("registry Check() should report true for a passthrough conversion")
	}
}

func TestConverterMissingShapeFails(t *testing.T) {
	out, in := newConverterPair()
	in.Assign(0, big.NewInt(5))

	reg := NewConverterRegistry()
	if err := reg.Convert(out, in, 0, 0, 0, 0, false); err == nil {
		t.Fatalf("convert with no registered shape must fail")
	}
	if out.Failed() == nil {
		t.Fatalf("a missing converter shape must set the output engine's sticky failure flag")
	}
}

func TestConverterRejectsAlreadyAssignedOutput(t *testing.T) {
	out, in := newConverterPair()
	in.Assign(0, big.NewInt(5))
	out.Assign(0, big.NewInt(1))

	reg := NewConverterRegistry()
	reg.Register(out.TypeIndex(), 1, in.TypeIndex(), 1, &passthroughConverter{})
	if err := reg.Convert(out, in, 0, 0, 0, 0, false); err == nil {
		t.Fatalf("convert into an already-assigned output wire must fail")
	}
}
