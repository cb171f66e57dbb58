package vectors

import (
	"math/big"
	"testing"

	"github.com/wtk-go/sievecore/internal/backendref"
	"github.com/wtk-go/sievecore/internal/interp"
	"github.com/wtk-go/sievecore/internal/plugin"
	"github.com/wtk-go/sievecore/internal/wiretypes"
)

func newTestEngine() *interp.TypeInterpreter[*big.Int] {
	t := wiretypes.Field(0, big.NewInt(97))
	return interp.NewTypeInterpreter[*big.Int](t, backendref.NewFieldBackend(t.Modulus), nil, nil, nil)
}

func assignAll(t *testing.T, eng *interp.TypeInterpreter[*big.Int], first uint64, values ...int64) {
	t.Helper()
	for i, v := range values {
		if err := eng.Assign(first+uint64(i), big.NewInt(v)); err != nil {
			t.Fatalf("assign(%d,%d): %v", first+uint64(i), v, err)
		}
	}
}

func TestPairwiseAdd(t *testing.T) {
	eng := newTestEngine()
	assignAll(t, eng, 0, 1, 2, 3) // a = [1,2,3]
	assignAll(t, eng, 3, 4, 5, 6) // b = [4,5,6]

	op := pairwiseOp{gate: addGate, name: "add"}
	engines := map[int]interp.TypeEngine{0: eng}
	outputs := []interp.TypedSpan{{Type: 0, First: 6, Last: 8}}
	inputs := []interp.TypedSpan{{Type: 0, First: 0, Last: 2}, {Type: 0, First: 3, Last: 5}}
	if err := op.Evaluate(engines[0], outputs, inputs); err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	for i, want := range []int64{5, 7, 9} {
		got, err := eng.Retrieve(6 + uint64(i))
		if err != nil || got.Int64() != want {
			t.Fatalf("out[%d] = (%v,%v), want %d", i, got, err, want)
		}
	}
}

func TestReduceSum(t *testing.T) {
	eng := newTestEngine()
	assignAll(t, eng, 0, 3, 4, 5, 6) // in = [3,4,5,6]

	op := reduceOp{gate: addGate, name: "sum"}
	outputs := []interp.TypedSpan{{Type: 0, First: 4, Last: 4}}
	inputs := []interp.TypedSpan{{Type: 0, First: 0, Last: 3}}
	// Reserve the output as FunctionCatalog.Invoke does, so scratch wires
	// are allocated above it.
	if err := eng.FindOutputs(4, 4); err != nil {
		t.Fatalf("find_outputs: %v", err)
	}
	if err := op.Evaluate(eng, outputs, inputs); err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	got, err := eng.Retrieve(4)
	if err != nil || got.Int64() != 18 {
		t.Fatalf("sum = (%v,%v), want 18", got, err)
	}
}

func TestReduceProductSingleElement(t *testing.T) {
	eng := newTestEngine()
	assignAll(t, eng, 0, 7)

	op := reduceOp{gate: mulGate, name: "product"}
	outputs := []interp.TypedSpan{{Type: 0, First: 1, Last: 1}}
	inputs := []interp.TypedSpan{{Type: 0, First: 0, Last: 0}}
	if err := op.Evaluate(eng, outputs, inputs); err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	got, err := eng.Retrieve(1)
	if err != nil || got.Int64() != 7 {
		t.Fatalf("product = (%v,%v), want 7", got, err)
	}
}

func TestDotProduct(t *testing.T) {
	eng := newTestEngine()
	assignAll(t, eng, 0, 1, 2, 3) // a
	assignAll(t, eng, 3, 4, 5, 6) // b

	op := dotProductOp{}
	outputs := []interp.TypedSpan{{Type: 0, First: 6, Last: 6}}
	inputs := []interp.TypedSpan{{Type: 0, First: 0, Last: 2}, {Type: 0, First: 3, Last: 5}}
	// Reserve the output as FunctionCatalog.Invoke does, so scratch wires
	// are allocated above it.
	if err := eng.FindOutputs(6, 6); err != nil {
		t.Fatalf("find_outputs: %v", err)
	}
	if err := op.Evaluate(eng, outputs, inputs); err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	got, err := eng.Retrieve(6)
	if err != nil || got.Int64() != 32 { // 1*4+2*5+3*6 = 32
		t.Fatalf("dot_product = (%v,%v), want 32", got, err)
	}
}

func TestNewRegistersPerArithmeticType(t *testing.T) {
	field := wiretypes.Field(0, big.NewInt(97))
	ring := wiretypes.Ring(1, 8)
	opaque := wiretypes.Plugin(2, "ram")
	sp := New([]wiretypes.Type{field, ring, opaque})

	if !sp.SupportsType(field) || !sp.SupportsType(ring) {
		t.Fatalf("vectors must support both field and ring types")
	}
	if sp.SupportsType(opaque) {
		t.Fatalf("vectors must not claim a plugin-defined type")
	}
	var _ plugin.Plugin = sp
}
