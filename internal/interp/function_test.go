package interp

import (
	"math/big"
	"testing"

	"github.com/wtk-go/sievecore/internal/wiretypes"
)

func newTwoTypeEngines() (*TypeInterpreter[int64], *TypeInterpreter[int64], map[int]TypeEngine) {
	t0 := NewTypeInterpreter[int64](wiretypes.Field(0, big.NewInt(97)), &fakeModBackend{mod: 97}, nil, nil, nil)
	t1 := NewTypeInterpreter[int64](wiretypes.Ring(1, 8), &fakeModBackend{mod: 256}, nil, nil, nil)
	return t0, t1, map[int]TypeEngine{0: t0, 1: t1}
}

func addFunction() *Function {
	return &Function{
		Name:    "add",
		Outputs: []TypeCount{{Type: 0, Count: 1}},
		Inputs:  []TypeCount{{Type: 0, Count: 2}},
		// Local addressing convention: outputs occupy [0,0], inputs follow
		// at [1,2].
		Body: func(engines map[int]TypeEngine) error {
			return engines[0].Add(0, 1, 2)
		},
	}
}

func TestFunctionCatalogInvokeRoundTrip(t *testing.T) {
	t0, t1, engines := newTwoTypeEngines()
	t0.Assign(0, big.NewInt(3))
	t0.Assign(1, big.NewInt(4))

	cat := NewFunctionCatalog()
	cat.Register(addFunction())

	err := cat.Invoke("add", engines,
		[]TypedSpan{{Type: 0, First: 2, Last: 2}},
		[]TypedSpan{{Type: 0, First: 0, Last: 1}})
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	got, err := t0.top().Retrieve(2)
	if err != nil || got != 7 {
		t.Fatalf("retrieve(2) = (%v, %v), want (7, nil)", got, err)
	}

	// A type never referenced by the function body still had a frame
	// pushed and popped, leaving it usable afterward with no leftover
	// frame.
	if err := t1.Assign(0, big.NewInt(1)); err != nil {
		t.Fatalf("untouched type should remain usable after the call: %v", err)
	}
	if err := t1.PopFrame(); err == nil {
		t.Fatalf("untouched type's frame must have been popped back to depth 1")
	}
}

func TestFunctionCatalogUnknownNameFails(t *testing.T) {
	_, _, engines := newTwoTypeEngines()
	cat := NewFunctionCatalog()
	if err := cat.Invoke("missing", engines, nil, nil); err == nil {
		t.Fatalf("invoking an undeclared function must fail")
	}
}

func TestFunctionCatalogArityMismatchFails(t *testing.T) {
	t0, _, engines := newTwoTypeEngines()
	t0.Assign(0, big.NewInt(3))

	cat := NewFunctionCatalog()
	cat.Register(addFunction())

	err := cat.Invoke("add", engines,
		[]TypedSpan{{Type: 0, First: 1, Last: 1}},
		[]TypedSpan{{Type: 0, First: 0, Last: 0}}) // only one input wire, function wants two
	if err == nil {
		t.Fatalf("arity mismatch must fail")
	}
}

type doublingPluginOp struct{}

func (doublingPluginOp) Evaluate(engines map[int]TypeEngine, outputs, inputs []TypedSpan) error {
	return engines[0].Add(outputs[0].First, inputs[0].First, inputs[0].First)
}

func TestFunctionCatalogPluginFunctionSkipsFramePushing(t *testing.T) {
	t0, _, engines := newTwoTypeEngines()
	t0.Assign(0, big.NewInt(5))

	cat := NewFunctionCatalog()
	cat.Register(&Function{
		Name:    "double",
		Outputs: []TypeCount{{Type: 0, Count: 1}},
		Inputs:  []TypeCount{{Type: 0, Count: 1}},
		Plugin:  doublingPluginOp{},
	})

	if err := cat.Invoke("double", engines, []TypedSpan{{Type: 0, First: 1, Last: 1}}, []TypedSpan{{Type: 0, First: 0, Last: 0}}); err != nil {
		t.Fatalf("invoke plugin function: %v", err)
	}
	got, err := t0.Retrieve(1)
	if err != nil || got != 10 {
		t.Fatalf("retrieve(1) = (%v, %v), want (10, nil)", got, err)
	}
	// The plugin operation wrote directly at the caller's own wire index 1,
	// with no remap: the stack depth never grew.
	if err := t0.PopFrame(); err == nil {
		t.Fatalf("plugin-backed calls must not push a frame")
	}
}

func TestFunctionCatalogIncompleteOutputFails(t *testing.T) {
	t0, _, engines := newTwoTypeEngines()
	t0.Assign(0, big.NewInt(3))
	t0.Assign(1, big.NewInt(4))

	cat := NewFunctionCatalog()
	cat.Register(&Function{
		Name:    "noop",
		Outputs: []TypeCount{{Type: 0, Count: 1}},
		Inputs:  []TypeCount{{Type: 0, Count: 2}},
		Body:    func(map[int]TypeEngine) error { return nil }, // never assigns the output
	})

	err := cat.Invoke("noop", engines,
		[]TypedSpan{{Type: 0, First: 2, Last: 2}},
		[]TypedSpan{{Type: 0, First: 0, Last: 1}})
	if err == nil {
		t.Fatalf("a function that doesn't assign its declared output must fail")
	}
}
