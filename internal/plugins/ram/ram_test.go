package ram

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

func assign(t *testing.T, eng *interp.TypeInterpreter[*big.Int], idx uint64, v int64) {
	t.Helper()
	if err := eng.Assign(idx, big.NewInt(v)); err != nil {
		t.Fatalf("assign(%d,%d): %v", idx, v, err)
	}
}

func TestRAMInitReadWrite(t *testing.T) {
	eng := newTestEngine()
	engines := map[int]interp.TypeEngine{0: eng}
	p := New([]wiretypes.Type{wiretypes.Field(0, big.NewInt(97))})

	// init a 4-word memory filled with 0.
	assign(t, eng, 0, 0) // fill
	initBinding := plugin.Binding{PluginName: "ram", OperationName: "init",
		Params: []plugin.Param{{IsText: true, Text: "mem"}, {Number: 4}}}
	initOp, err := p.Create(wiretypes.Field(0, big.NewInt(97)), initBinding,
		nil, []interp.TypeCount{{Type: 0, Count: 1}})
	if err != nil || initOp == nil {
		t.Fatalf("create init: op=%v err=%v", initOp, err)
	}
	if err := initOp.Evaluate(engines, nil, []interp.TypedSpan{{Type: 0, First: 0, Last: 0}}); err != nil {
		t.Fatalf("init evaluate: %v", err)
	}

	// write 42 at address 2.
	assign(t, eng, 1, 2)  // address
	assign(t, eng, 2, 42) // value
	writeBinding := plugin.Binding{PluginName: "ram", OperationName: "write",
		Params: []plugin.Param{{IsText: true, Text: "mem"}}}
	writeOp, err := p.Create(wiretypes.Field(0, big.NewInt(97)), writeBinding,
		nil, []interp.TypeCount{{Type: 0, Count: 1}, {Type: 0, Count: 1}})
	if err != nil || writeOp == nil {
		t.Fatalf("create write: op=%v err=%v", writeOp, err)
	}
	wInputs := []interp.TypedSpan{{Type: 0, First: 1, Last: 1}, {Type: 0, First: 2, Last: 2}}
	if err := writeOp.Evaluate(engines, nil, wInputs); err != nil {
		t.Fatalf("write evaluate: %v", err)
	}

	// read address 2 back.
	assign(t, eng, 3, 2) // address
	readBinding := plugin.Binding{PluginName: "ram", OperationName: "read",
		Params: []plugin.Param{{IsText: true, Text: "mem"}}}
	readOp, err := p.Create(wiretypes.Field(0, big.NewInt(97)), readBinding,
		[]interp.TypeCount{{Type: 0, Count: 1}}, []interp.TypeCount{{Type: 0, Count: 1}})
	if err != nil || readOp == nil {
		t.Fatalf("create read: op=%v err=%v", readOp, err)
	}
	rOutputs := []interp.TypedSpan{{Type: 0, First: 4, Last: 4}}
	rInputs := []interp.TypedSpan{{Type: 0, First: 3, Last: 3}}
	if err := readOp.Evaluate(engines, rOutputs, rInputs); err != nil {
		t.Fatalf("read evaluate: %v", err)
	}

	got, err := eng.Retrieve(4)
	if err != nil || got.Int64() != 42 {
		t.Fatalf("read = (%v,%v), want 42", got, err)
	}
}

func TestRAMReadOutOfBoundsFails(t *testing.T) {
	eng := newTestEngine()
	engines := map[int]interp.TypeEngine{0: eng}
	p := New([]wiretypes.Type{wiretypes.Field(0, big.NewInt(97))})

	assign(t, eng, 0, 0)
	initBinding := plugin.Binding{PluginName: "ram", OperationName: "init",
		Params: []plugin.Param{{IsText: true, Text: "mem"}, {Number: 2}}}
	initOp, _ := p.Create(wiretypes.Field(0, big.NewInt(97)), initBinding, nil, []interp.TypeCount{{Type: 0, Count: 1}})
	if err := initOp.Evaluate(engines, nil, []interp.TypedSpan{{Type: 0, First: 0, Last: 0}}); err != nil {
		t.Fatalf("init evaluate: %v", err)
	}

	assign(t, eng, 1, 5) // out of bounds address
	readBinding := plugin.Binding{PluginName: "ram", OperationName: "read",
		Params: []plugin.Param{{IsText: true, Text: "mem"}}}
	readOp, _ := p.Create(wiretypes.Field(0, big.NewInt(97)), readBinding,
		[]interp.TypeCount{{Type: 0, Count: 1}}, []interp.TypeCount{{Type: 0, Count: 1}})
	outputs := []interp.TypedSpan{{Type: 0, First: 2, Last: 2}}
	inputs := []interp.TypedSpan{{Type: 0, First: 1, Last: 1}}
	if err := readOp.Evaluate(engines, outputs, inputs); err == nil {
		t.Fatalf("read out of bounds must fail")
	}
}

func TestRAMReadBeforeInitFails(t *testing.T) {
	eng := newTestEngine()
	engines := map[int]interp.TypeEngine{0: eng}
	p := New([]wiretypes.Type{wiretypes.Field(0, big.NewInt(97))})

	assign(t, eng, 0, 0)
	readBinding := plugin.Binding{PluginName: "ram", OperationName: "read",
		Params: []plugin.Param{{IsText: true, Text: "never_initialized"}}}
	readOp, _ := p.Create(wiretypes.Field(0, big.NewInt(97)), readBinding,
		[]interp.TypeCount{{Type: 0, Count: 1}}, []interp.TypeCount{{Type: 0, Count: 1}})
	outputs := []interp.TypedSpan{{Type: 0, First: 1, Last: 1}}
	inputs := []interp.TypedSpan{{Type: 0, First: 0, Last: 0}}
	if err := readOp.Evaluate(engines, outputs, inputs); err == nil {
		t.Fatalf("read of an uninitialized instance must fail")
	}
}
