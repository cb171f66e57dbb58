package interp

import (
	"math/big"
	"testing"

	"github.com/wtk-go/sievecore/internal/wiretypes"
)

func TestInterpreterDispatchesByTypeIndex(t *testing.T) {
	t0, t1, engines := newTwoTypeEngines()
	_ = t1
	ip := NewInterpreter(engines, NewConverterRegistry(), NewFunctionCatalog())

	if err := ip.Assign(0, 0, big.NewInt(3)); err != nil {
		t.Fatalf("assign type0: %v", err)
	}
	if err := ip.Assign(0, 1, big.NewInt(4)); err != nil {
		t.Fatalf("assign type0: %v", err)
	}
	if err := ip.Add(0, 2, 0, 1); err != nil {
		t.Fatalf("add type0: %v", err)
	}
	if err := ip.Assign(1, 0, big.NewInt(200)); err != nil {
		t.Fatalf("assign type1: %v", err)
	}

	got, err := t0.top().Retrieve(2)
	if err != nil || got != 7 {
		t.Fatalf("retrieve(2) on type0 = (%v, %v), want (7, nil)", got, err)
	}
	if !ip.Check() {
		t.Fatalf("Check() should succeed with no assert_zero violations")
	}
	ip.Finish()
}

func TestInterpreterUndeclaredTypeFails(t *testing.T) {
	_, _, engines := newTwoTypeEngines()
	ip := NewInterpreter(engines, NewConverterRegistry(), NewFunctionCatalog())
	if err := ip.Assign(99, 0, big.NewInt(1)); err == nil {
		t.Fatalf("dispatch to an undeclared type index must fail")
	}
	if ip.Failed() == nil {
		t.Fatalf("Interpreter must record the first cross-type failure")
	}
}

func TestInterpreterCheckReflectsAssertZeroViolation(t *testing.T) {
	t0, _, engines := newTwoTypeEngines()
	ip := NewInterpreter(engines, NewConverterRegistry(), NewFunctionCatalog())
	_ = t0
	if err := ip.Assign(0, 0, big.NewInt(5)); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if err := ip.AssertZero(0, 0); err != nil {
		t.Fatalf("assert_zero: %v", err)
	}
	if ip.Check() {
		t.Fatalf("Check() must report false once a violated assert_zero exists")
	}
}

func TestInterpreterCallFunctionAndConvert(t *testing.T) {
	t0, t1, engines := newTwoTypeEngines()
	ip := NewInterpreter(engines, NewConverterRegistry(), NewFunctionCatalog())

	ip.functions.Register(addFunction())
	ip.Assign(0, 0, big.NewInt(3))
	ip.Assign(0, 1, big.NewInt(4))
	if err := ip.CallFunction("add", []TypedSpan{{Type: 0, First: 2, Last: 2}}, []TypedSpan{{Type: 0, First: 0, Last: 1}}); err != nil {
		t.Fatalf("call_function: %v", err)
	}
	got, _ := t0.top().Retrieve(2)
	if got != 7 {
		t.Fatalf("call_function result = %v, want 7", got)
	}

	ip.Assign(1, 0, big.NewInt(9))
	ip.converters.Register(wiretypes.Field(0, big.NewInt(97)).Index, 1, wiretypes.Ring(1, 8).Index, 1, &passthroughConverter{})
	if err := ip.Convert(0, 1, 3, 3, 0, 0, false); err != nil {
		t.Fatalf("convert: %v", err)
	}
	got, _ = t0.top().Retrieve(3)
	if got != 9 {
		t.Fatalf("convert result = %v, want 9", got)
	}
	_ = t1
}
