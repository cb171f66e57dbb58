// Package mux implements the standard "mux" (multiplexer) plugin (spec.md
// §4.I): select one of N equal-width branches by a one-hot selector range,
// in a strict variant (asserts the selector really is one-hot) and a
// permissive variant (trusts the prover, no extra constraints).
//
// A one-hot weighted sum (out[j] = sum_i selector[i] * branch_i[j]) is the
// one mechanism used for every declared arithmetic type, boolean or not:
// unlike the source's separate boolean-treed and Fermat's-Little-Theorem
// code paths (one exploiting a 2-element field, the other a general prime
// field's x^(p-1) identity), scalar multiplication by a 0/1 selector is
// already correct and uniform across any field or ring TypeEngine erases to
// (see DESIGN.md).
package mux

import (
	"fmt"
	"math/big"

	"github.com/wtk-go/sievecore/internal/interp"
	"github.com/wtk-go/sievecore/internal/plugin"
	"github.com/wtk-go/sievecore/internal/wiretypes"
)

// New builds the mux plugin, registered for every arithmetic type in types.
func New(types []wiretypes.Type) *plugin.SimplePlugin {
	sp := plugin.NewSimplePlugin("mux")
	for _, t := range types {
		if t.Kind == wiretypes.KindPlugin {
			continue
		}
		idx := t.Index
		neg1 := new(big.Int).Sub(t.MaxValue(), big.NewInt(1))
		sp.Register(idx, "mux", func(wiretypes.Type) plugin.SimpleOperation { return muxOp{strict: false, neg1: neg1} })
		sp.Register(idx, "mux_strict", func(wiretypes.Type) plugin.SimpleOperation { return muxOp{strict: true, neg1: neg1} })
	}
	return sp
}

// muxOp selects one of len(inputs)-1 branches by inputs[0], a length-N
// one-hot selector range. strict additionally asserts every selector wire
// is boolean and the selector range sums to exactly one.
type muxOp struct {
	strict bool
	neg1   *big.Int // the type's additive inverse of 1, for sum-to-one/boolean checks
}

func (o muxOp) CheckSignature(outputs, inputs []interp.TypeCount) error {
	if len(outputs) != 1 {
		return fmt.Errorf("mux: want exactly 1 output range")
	}
	if len(inputs) < 2 {
		return fmt.Errorf("mux: want a selector range plus at least one branch")
	}
	selector, branches := inputs[0], inputs[1:]
	if selector.Count != uint64(len(branches)) {
		return fmt.Errorf("mux: selector length %d must match branch count %d", selector.Count, len(branches))
	}
	for i, b := range branches {
		if b.Count != outputs[0].Count {
			return fmt.Errorf("mux: branch %d has width %d, want %d", i, b.Count, outputs[0].Count)
		}
	}
	return nil
}

func (o muxOp) Evaluate(eng interp.TypeEngine, outputs, inputs []interp.TypedSpan) error {
	selector, branches := inputs[0], inputs[1:]
	n := uint64(len(branches))
	w := outputs[0].Last - outputs[0].First + 1

	if o.strict {
		if err := o.checkSelector(eng, selector, n); err != nil {
			return err
		}
	}

	for j := uint64(0); j < w; j++ {
		terms := make([]uint64, n)
		for i, br := range branches {
			s := selector.First + uint64(i)
			term, _, err := eng.ReserveScratch(1)
			if err != nil {
				return err
			}
			if err := eng.Mul(term, s, br.First+j); err != nil {
				return err
			}
			terms[i] = term
		}
		acc, err := reduceAdd(eng, terms)
		if err != nil {
			return err
		}
		if err := eng.Copy(outputs[0].First+j, acc); err != nil {
			return err
		}
	}
	return nil
}

// checkSelector asserts every selector wire is 0 or 1 and the whole range
// sums to exactly one (the one-hot property the weighted sum above relies
// on to behave as a selection rather than an arbitrary linear combination).
func (o muxOp) checkSelector(eng interp.TypeEngine, selector interp.TypedSpan, n uint64) error {
	wires := make([]uint64, n)
	for i := uint64(0); i < n; i++ {
		s := selector.First + i
		wires[i] = s

		negS, _, err := eng.ReserveScratch(1)
		if err != nil {
			return err
		}
		if err := eng.MulC(negS, s, o.neg1); err != nil {
			return err
		}
		sq, _, err := eng.ReserveScratch(1)
		if err != nil {
			return err
		}
		if err := eng.Mul(sq, s, s); err != nil {
			return err
		}
		diff, _, err := eng.ReserveScratch(1)
		if err != nil {
			return err
		}
		if err := eng.Add(diff, sq, negS); err != nil {
			return err
		}
		if err := eng.AssertZero(diff); err != nil {
			return err
		}
	}

	sum, err := reduceAdd(eng, wires)
	if err != nil {
		return err
	}
	sumMinus1, _, err := eng.ReserveScratch(1)
	if err != nil {
		return err
	}
	if err := eng.AddC(sumMinus1, sum, o.neg1); err != nil {
		return err
	}
	return eng.AssertZero(sumMinus1)
}

func reduceAdd(eng interp.TypeEngine, wires []uint64) (uint64, error) {
	acc := wires[0]
	for _, w := range wires[1:] {
		scratch, _, err := eng.ReserveScratch(1)
		if err != nil {
			return 0, err
		}
		if err := eng.Add(scratch, acc, w); err != nil {
			return 0, err
		}
		acc = scratch
	}
	return acc, nil
}
