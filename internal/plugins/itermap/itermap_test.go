package itermap

import (
	"math/big"
	"testing"

	"github.com/wtk-go/sievecore/internal/backendref"
	"github.com/wtk-go/sievecore/internal/interp"
	"github.com/wtk-go/sievecore/internal/plugin"
	"github.com/wtk-go/sievecore/internal/wiretypes"
)

// registerDouble registers a one-wire-in, one-wire-out function computing
// out = in + in, local addressing: output at [0,0], input at [1,1].
func registerDouble(catalog *interp.FunctionCatalog) {
	catalog.Register(&interp.Function{
		Name:    "double",
		Outputs: []interp.TypeCount{{Type: 0, Count: 1}},
		Inputs:  []interp.TypeCount{{Type: 0, Count: 1}},
		Body: func(engines map[int]interp.TypeEngine) error {
			return engines[0].Add(0, 1, 1)
		},
	})
}

func TestIterationMapAppliesOverEveryElement(t *testing.T) {
	typ := wiretypes.Field(0, big.NewInt(97))
	eng := interp.NewTypeInterpreter[*big.Int](typ, backendref.NewFieldBackend(typ.Modulus), nil, nil, nil)
	engines := map[int]interp.TypeEngine{0: eng}

	catalog := interp.NewFunctionCatalog()
	registerDouble(catalog)

	for i, v := range []int64{1, 2, 3} {
		if err := eng.Assign(uint64(i), big.NewInt(v)); err != nil {
			t.Fatalf("assign: %v", err)
		}
	}

	p := New([]wiretypes.Type{typ})
	p.BindCatalog(catalog)

	binding := plugin.Binding{PluginName: "iteration_map", OperationName: "map",
		Params: []plugin.Param{{IsText: true, Text: "double"}}}
	op, err := p.Create(typ, binding,
		[]interp.TypeCount{{Type: 0, Count: 3}}, []interp.TypeCount{{Type: 0, Count: 3}})
	if err != nil || op == nil {
		t.Fatalf("create: op=%v err=%v", op, err)
	}

	outputs := []interp.TypedSpan{{Type: 0, First: 3, Last: 5}}
	inputs := []interp.TypedSpan{{Type: 0, First: 0, Last: 2}}
	if err := op.Evaluate(engines, outputs, inputs); err != nil {
		t.Fatalf("evaluate: %v", err)
	}

	for i, want := range []int64{2, 4, 6} {
		got, err := eng.Retrieve(3 + uint64(i))
		if err != nil || got.Int64() != want {
			t.Fatalf("out[%d] = (%v,%v), want %d", i, got, err, want)
		}
	}
}

func TestIterationMapRejectsUndeclaredFunction(t *testing.T) {
	typ := wiretypes.Field(0, big.NewInt(97))
	catalog := interp.NewFunctionCatalog()

	p := New([]wiretypes.Type{typ})
	p.BindCatalog(catalog)

	binding := plugin.Binding{PluginName: "iteration_map", OperationName: "map",
		Params: []plugin.Param{{IsText: true, Text: "missing"}}}
	_, err := p.Create(typ, binding,
		[]interp.TypeCount{{Type: 0, Count: 3}}, []interp.TypeCount{{Type: 0, Count: 3}})
	if err == nil {
		t.Fatalf("binding to an undeclared function must fail")
	}
}

func TestIterationMapRejectsNonMultipleWidth(t *testing.T) {
	typ := wiretypes.Field(0, big.NewInt(97))
	catalog := interp.NewFunctionCatalog()
	registerDouble(catalog)

	p := New([]wiretypes.Type{typ})
	p.BindCatalog(catalog)

	binding := plugin.Binding{PluginName: "iteration_map", OperationName: "map",
		Params: []plugin.Param{{IsText: true, Text: "double"}}}
	_, err := p.Create(typ, binding,
		[]interp.TypeCount{{Type: 0, Count: 4}}, []interp.TypeCount{{Type: 0, Count: 4}})
	if err != nil {
		t.Fatalf("4 is a multiple of 1, this should bind fine: %v", err)
	}

	_, err = p.Create(typ, binding,
		[]interp.TypeCount{{Type: 0, Count: 3}}, []interp.TypeCount{{Type: 0, Count: 4}})
	if err == nil {
		t.Fatalf("mismatched output/input iteration counts must fail")
	}
}
