package backendref

import (
	"fmt"
	"math/big"
)

// DigitConverter performs a reference convert directive between two
// ArithBackend-typed ranges: the input wires are read as little-endian
// base-InModulus digits of one integer, which is then re-expressed as
// little-endian base-OutModulus digits to fill the output wires
// (spec.md §4.E "convert" — digit re-basing is the generic operation
// underlying both same-characteristic bit-width conversions and
// field-to-field conversions through a shared integer value).
type DigitConverter struct {
	InModulus  *big.Int
	OutModulus *big.Int
}

func (c *DigitConverter) combine(digits []*big.Int) *big.Int {
	v := new(big.Int)
	base := new(big.Int).Set(c.InModulus)
	place := big.NewInt(1)
	for _, d := range digits {
		v.Add(v, new(big.Int).Mul(d, place))
		place.Mul(place, base)
	}
	return v
}

func (c *DigitConverter) split(v *big.Int, n int) []*big.Int {
	out := make([]*big.Int, n)
	rem := new(big.Int).Set(v)
	for i := 0; i < n; i++ {
		q, m := new(big.Int).DivMod(rem, c.OutModulus, new(big.Int))
		out[i] = m
		rem = q
	}
	return out
}

// Convert implements interp.ConverterBackend.
func (c *DigitConverter) Convert(outWires any, inWires any, modulus bool) error {
	out := outWires.([]*big.Int)
	in := inWires.([]*big.Int)

	value := c.combine(in)
	capacity := new(big.Int).Exp(c.OutModulus, big.NewInt(int64(len(out))), nil)

	if modulus {
		value.Mod(value, capacity)
	} else if value.Cmp(capacity) >= 0 {
		return fmt.Errorf("no_modulus conversion overflow: value does not fit in %d output wires", len(out))
	}

	digits := c.split(value, len(out))
	copy(out, digits)
	return nil
}

// Check always reports true: overflow on a no_modulus conversion is
// detected synchronously in Convert (spec.md §7 allows ConversionOverflow
// to be detected either at dispatch time or deferred to check(); this
// reference converter chooses the former for a tighter feedback loop).
func (c *DigitConverter) Check() bool { return true }
