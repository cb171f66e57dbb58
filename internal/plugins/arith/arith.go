// Package arith implements the standard extended-arithmetic plugin
// (spec.md §4.I): less_than, less_than_equal, division, and bit_decompose,
// the operations SIEVE IR relations need that cannot be built from a fixed
// number of Add/Mul gates because their result depends on an order
// comparison or a bit layout of the operands' concrete values.
//
// Every operation here reads concrete operand values through
// TypeEngine.BorrowWindow and writes its result through ReserveWindow,
// the same window-based I/O internal/backendref.DigitConverter uses to
// cross a convert directive's type boundary (spec.md §4.E): the core
// interpreter checks a relation by direct arithmetic on witness values
// (the reference backend evaluates each gate rather than compiling a
// constraint system), so a plugin correctly computing its result from
// the concrete operands is exactly as sound as any ordinary gate.
package arith

import (
	"fmt"
	"math/big"

	"github.com/wtk-go/sievecore/internal/interp"
	"github.com/wtk-go/sievecore/internal/plugin"
	"github.com/wtk-go/sievecore/internal/wiretypes"
)

// New builds the extended-arithmetic plugin, registered for every
// arithmetic type in types.
func New(types []wiretypes.Type) *plugin.SimplePlugin {
	sp := plugin.NewSimplePlugin("extended_arithmetic")
	for _, t := range types {
		if t.Kind == wiretypes.KindPlugin {
			continue
		}
		idx := t.Index
		bound := t.MaxValue()
		sp.Register(idx, "less_than", func(wiretypes.Type) plugin.SimpleOperation { return compareOp{orEqual: false} })
		sp.Register(idx, "less_than_equal", func(wiretypes.Type) plugin.SimpleOperation { return compareOp{orEqual: true} })
		sp.Register(idx, "division", func(wiretypes.Type) plugin.SimpleOperation { return divisionOp{isField: t.Kind == wiretypes.KindField, modulus: bound} })
		sp.Register(idx, "bit_decompose", func(wiretypes.Type) plugin.SimpleOperation { return bitDecomposeOp{bound: bound} })
	}
	return sp
}

func window(eng interp.TypeEngine, sp interp.TypedSpan) ([]*big.Int, error) {
	w, err := eng.BorrowWindow(sp.First, sp.Last)
	if err != nil {
		return nil, err
	}
	return w.([]*big.Int), nil
}

func reserve(eng interp.TypeEngine, sp interp.TypedSpan) ([]*big.Int, error) {
	w, err := eng.ReserveWindow(sp.First, sp.Last)
	if err != nil {
		return nil, err
	}
	return w.([]*big.Int), nil
}

// compareOp implements less_than/less_than_equal: a single boolean output
// wire (0 or 1) comparing two equal-width operand ranges read as
// big-endian-by-wire-index integers... in this model each range is a
// single wire, the natural width for an order comparison of two type
// elements.
type compareOp struct{ orEqual bool }

func (o compareOp) CheckSignature(outputs, inputs []interp.TypeCount) error {
	name := o.name()
	if len(outputs) != 1 || outputs[0].Count != 1 {
		return fmt.Errorf("%s: want exactly 1 output wire", name)
	}
	if len(inputs) != 2 || inputs[0].Count != 1 || inputs[1].Count != 1 {
		return fmt.Errorf("%s: want exactly 2 single-wire input ranges", name)
	}
	return nil
}

func (o compareOp) Evaluate(eng interp.TypeEngine, outputs, inputs []interp.TypedSpan) error {
	a, err := window(eng, inputs[0])
	if err != nil {
		return err
	}
	b, err := window(eng, inputs[1])
	if err != nil {
		return err
	}
	out, err := reserve(eng, outputs[0])
	if err != nil {
		return err
	}

	cmp := a[0].Cmp(b[0])
	result := cmp < 0
	if o.orEqual {
		result = cmp <= 0
	}
	if result {
		out[0] = big.NewInt(1)
	} else {
		out[0] = big.NewInt(0)
	}
	return eng.CommitAssigned(outputs[0].First, outputs[0].Last)
}

func (o compareOp) name() string {
	if o.orEqual {
		return "less_than_equal"
	}
	return "less_than"
}

// divisionOp implements division. For a field type it is true field
// division (a * b^-1 mod p), a single output wire; for a ring type it is
// Euclidean integer division, two output wires (quotient, remainder).
// Dividing by zero is a relation error either way.
type divisionOp struct {
	isField bool
	modulus *big.Int
}

func (o divisionOp) CheckSignature(outputs, inputs []interp.TypeCount) error {
	if len(inputs) != 2 || inputs[0].Count != 1 || inputs[1].Count != 1 {
		return fmt.Errorf("division: want exactly 2 single-wire input ranges")
	}
	want := 1
	if !o.isField {
		want = 2
	}
	if len(outputs) != want {
		return fmt.Errorf("division: want %d output wire(s) for this type", want)
	}
	for _, out := range outputs {
		if out.Count != 1 {
			return fmt.Errorf("division: every output range must be a single wire")
		}
	}
	return nil
}

func (o divisionOp) Evaluate(eng interp.TypeEngine, outputs, inputs []interp.TypedSpan) error {
	a, err := window(eng, inputs[0])
	if err != nil {
		return err
	}
	b, err := window(eng, inputs[1])
	if err != nil {
		return err
	}
	if b[0].Sign() == 0 {
		return fmt.Errorf("division: division by zero")
	}

	if o.isField {
		out, err := reserve(eng, outputs[0])
		if err != nil {
			return err
		}
		inv := new(big.Int).ModInverse(b[0], o.modulus)
		if inv == nil {
			return fmt.Errorf("division: %s has no inverse mod %s", b[0].String(), o.modulus.String())
		}
		out[0] = new(big.Int).Mod(new(big.Int).Mul(a[0], inv), o.modulus)
		return eng.CommitAssigned(outputs[0].First, outputs[0].Last)
	}

	q, r := new(big.Int), new(big.Int)
	q.DivMod(a[0], b[0], r)
	outQ, err := reserve(eng, outputs[0])
	if err != nil {
		return err
	}
	outQ[0] = q
	if err := eng.CommitAssigned(outputs[0].First, outputs[0].Last); err != nil {
		return err
	}
	outR, err := reserve(eng, outputs[1])
	if err != nil {
		return err
	}
	outR[0] = r
	return eng.CommitAssigned(outputs[1].First, outputs[1].Last)
}

// bitDecomposeOp implements bit_decompose: one input wire, decomposed
// little-endian into len(outputs) boolean wires. bound is the type's
// exclusive upper bound (MaxValue); a value that needs more bits than were
// declared is a relation error rather than a silent truncation.
type bitDecomposeOp struct{ bound *big.Int }

func (o bitDecomposeOp) CheckSignature(outputs, inputs []interp.TypeCount) error {
	if len(inputs) != 1 || inputs[0].Count != 1 {
		return fmt.Errorf("bit_decompose: want exactly 1 input wire")
	}
	if len(outputs) != 1 || outputs[0].Count == 0 {
		return fmt.Errorf("bit_decompose: want one non-empty output range")
	}
	return nil
}

func (o bitDecomposeOp) Evaluate(eng interp.TypeEngine, outputs, inputs []interp.TypedSpan) error {
	a, err := window(eng, inputs[0])
	if err != nil {
		return err
	}
	v := a[0]
	n := outputs[0].Last - outputs[0].First + 1

	capacity := new(big.Int).Lsh(big.NewInt(1), uint(n))
	if v.Cmp(capacity) >= 0 {
		return fmt.Errorf("bit_decompose: value %s does not fit in %d bits", v.String(), n)
	}

	out, err := reserve(eng, outputs[0])
	if err != nil {
		return err
	}
	for i := uint64(0); i < n; i++ {
		if v.Bit(int(i)) == 1 {
			out[i] = big.NewInt(1)
		} else {
			out[i] = big.NewInt(0)
		}
	}
	return eng.CommitAssigned(outputs[0].First, outputs[0].Last)
}
