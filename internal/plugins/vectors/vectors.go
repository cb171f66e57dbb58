// Package vectors implements the standard "vectors" plugin (spec.md §4.I):
// pairwise add/mul and sum/product/dot_product reductions over same-type
// wire ranges.
//
// Grounded on internal/plugin's SimplePlugin convenience layer; registered
// once per declared arithmetic (field or ring) type, since a plugin-defined
// type has no arithmetic of its own to vectorize.
package vectors

import (
	"fmt"

	"github.com/wtk-go/sievecore/internal/interp"
	"github.com/wtk-go/sievecore/internal/plugin"
	"github.com/wtk-go/sievecore/internal/wiretypes"
)

// gateFunc is one binary arithmetic gate, abstracting over Add/Mul so
// pairwise and reduction operations share one implementation each.
type gateFunc func(eng interp.TypeEngine, out, left, right uint64) error

func addGate(eng interp.TypeEngine, out, left, right uint64) error { return eng.Add(out, left, right) }
func mulGate(eng interp.TypeEngine, out, left, right uint64) error { return eng.Mul(out, left, right) }

// New builds the vectors plugin, registered for every arithmetic type in
// types.
func New(types []wiretypes.Type) *plugin.SimplePlugin {
	sp := plugin.NewSimplePlugin("vectors")
	for _, t := range types {
		if t.Kind == wiretypes.KindPlugin {
			continue
		}
		idx := t.Index
		sp.Register(idx, "add", func(wiretypes.Type) plugin.SimpleOperation { return pairwiseOp{gate: addGate, name: "add"} })
		sp.Register(idx, "mul", func(wiretypes.Type) plugin.SimpleOperation { return pairwiseOp{gate: mulGate, name: "mul"} })
		sp.Register(idx, "sum", func(wiretypes.Type) plugin.SimpleOperation { return reduceOp{gate: addGate, name: "sum"} })
		sp.Register(idx, "product", func(wiretypes.Type) plugin.SimpleOperation { return reduceOp{gate: mulGate, name: "product"} })
		sp.Register(idx, "dot_product", func(wiretypes.Type) plugin.SimpleOperation { return dotProductOp{} })
	}
	return sp
}

// pairwiseOp implements add/mul: out[i] = left[i] <gate> right[i] for every
// i in the common length.
type pairwiseOp struct {
	gate gateFunc
	name string
}

func (o pairwiseOp) CheckSignature(outputs, inputs []interp.TypeCount) error {
	if len(outputs) != 1 || len(inputs) != 2 {
		return fmt.Errorf("vectors.%s: want 1 output range and 2 input ranges", o.name)
	}
	if outputs[0].Count != inputs[0].Count || outputs[0].Count != inputs[1].Count {
		return fmt.Errorf("vectors.%s: output and input ranges must share one length", o.name)
	}
	return nil
}

func (o pairwiseOp) Evaluate(eng interp.TypeEngine, outputs, inputs []interp.TypedSpan) error {
	out, a, b := outputs[0], inputs[0], inputs[1]
	n := out.Last - out.First + 1
	for i := uint64(0); i < n; i++ {
		if err := o.gate(eng, out.First+i, a.First+i, b.First+i); err != nil {
			return err
		}
	}
	return nil
}

// reduceOp implements sum/product: out = in[0] <gate> in[1] <gate> ... <gate> in[n-1],
// using fresh scratch wires for every intermediate partial result.
type reduceOp struct {
	gate gateFunc
	name string
}

func (o reduceOp) CheckSignature(outputs, inputs []interp.TypeCount) error {
	if len(outputs) != 1 || outputs[0].Count != 1 {
		return fmt.Errorf("vectors.%s: want exactly 1 output wire", o.name)
	}
	if len(inputs) != 1 || inputs[0].Count == 0 {
		return fmt.Errorf("vectors.%s: want one non-empty input range", o.name)
	}
	return nil
}

func (o reduceOp) Evaluate(eng interp.TypeEngine, outputs, inputs []interp.TypedSpan) error {
	in := inputs[0]
	n := in.Last - in.First + 1
	wires := make([]uint64, n)
	for i := uint64(0); i < n; i++ {
		wires[i] = in.First + i
	}
	acc, err := reduceWires(eng, wires, o.gate)
	if err != nil {
		return err
	}
	return eng.Copy(outputs[0].First, acc)
}

// dotProductOp implements dot_product: out = sum_i(a[i] * b[i]).
type dotProductOp struct{}

func (dotProductOp) CheckSignature(outputs, inputs []interp.TypeCount) error {
	if len(outputs) != 1 || outputs[0].Count != 1 {
		return fmt.Errorf("vectors.dot_product: want exactly 1 output wire")
	}
	if len(inputs) != 2 || inputs[0].Count != inputs[1].Count || inputs[0].Count == 0 {
		return fmt.Errorf("vectors.dot_product: want two equal-length, non-empty input ranges")
	}
	return nil
}

func (dotProductOp) Evaluate(eng interp.TypeEngine, outputs, inputs []interp.TypedSpan) error {
	a, b := inputs[0], inputs[1]
	n := a.Last - a.First + 1
	products := make([]uint64, n)
	for i := uint64(0); i < n; i++ {
		pf, _, err := eng.ReserveScratch(1)
		if err != nil {
			return err
		}
		if err := eng.Mul(pf, a.First+i, b.First+i); err != nil {
			return err
		}
		products[i] = pf
	}
	acc, err := reduceWires(eng, products, addGate)
	if err != nil {
		return err
	}
	return eng.Copy(outputs[0].First, acc)
}

// reduceWires folds wires left to right through gate, minting a fresh
// scratch wire for every intermediate result; a single-wire input needs no
// gate at all.
func reduceWires(eng interp.TypeEngine, wires []uint64, gate gateFunc) (uint64, error) {
	acc := wires[0]
	for _, w := range wires[1:] {
		scratch, _, err := eng.ReserveScratch(1)
		if err != nil {
			return 0, err
		}
		if err := gate(eng, scratch, acc, w); err != nil {
			return 0, err
		}
		acc = scratch
	}
	return acc, nil
}
