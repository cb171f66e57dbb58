// Package backendref is component K: a reference TypeBackend/Converter
// implementation built on math/big, for tests and for circuits run without
// a production cryptographic backend attached.
//
// Grounded on internal/backend's VM-value-to-runtime-value bridging idiom,
// generalized from the teacher's tagged Value union to a single modular
// integer representation shared by both field and ring types — a field
// and a ring are both "integers modulo m" from a backend's point of view,
// differing only in how m is declared (an arbitrary prime vs. a power of
// two), so one ArithBackend serves both (spec.md §3's Type, §6.2's
// Backend).
//
// consensys/gnark-crypto (seen in other_examples/Consensys-go-corset) was
// considered and rejected for this role: its field element types are
// generated per elliptic curve and fixed at compile time, incompatible
// with a modulus declared at circuit-parse time (see DESIGN.md).
package backendref

import "math/big"

// ArithBackend implements interp.Backend[*big.Int] over the integers
// modulo Modulus.
type ArithBackend struct {
	Modulus *big.Int
	failed  bool
}

// NewFieldBackend builds a backend for a prime-field type with the given
// modulus.
func NewFieldBackend(modulus *big.Int) *ArithBackend {
	return &ArithBackend{Modulus: new(big.Int).Set(modulus)}
}

// NewRingBackend builds a backend for a ring type of bit-width w (modulus
// 2^w).
func NewRingBackend(width uint32) *ArithBackend {
	return &ArithBackend{Modulus: new(big.Int).Lsh(big.NewInt(1), uint(width))}
}

func (b *ArithBackend) reduce(v *big.Int) *big.Int {
	return new(big.Int).Mod(v, b.Modulus)
}

func (b *ArithBackend) FromConstant(v *big.Int) *big.Int { return b.reduce(v) }

func (b *ArithBackend) Assign(slot **big.Int, value *big.Int) { *slot = value }

func (b *ArithBackend) Copy(dst **big.Int, src *big.Int) { *dst = src }

func (b *ArithBackend) AddGate(dst **big.Int, a, c *big.Int) {
	*dst = b.reduce(new(big.Int).Add(a, c))
}

func (b *ArithBackend) MulGate(dst **big.Int, a, c *big.Int) {
	*dst = b.reduce(new(big.Int).Mul(a, c))
}

func (b *ArithBackend) AddConstGate(dst **big.Int, a, c *big.Int) { b.AddGate(dst, a, c) }

func (b *ArithBackend) MulConstGate(dst **big.Int, a, c *big.Int) { b.MulGate(dst, a, c) }

func (b *ArithBackend) AssertZero(v *big.Int) {
	if v == nil || v.Sign() != 0 {
		b.failed = true
	}
}

func (b *ArithBackend) PublicIn(dst **big.Int, value *big.Int) { *dst = value }

func (b *ArithBackend) PrivateIn(dst **big.Int, value *big.Int) { *dst = value }

func (b *ArithBackend) Check() bool { return !b.failed }

func (b *ArithBackend) Finish() {}

func (b *ArithBackend) SupportsGates() bool { return true }

func (b *ArithBackend) SupportsExtendedWitness() bool { return true }

func (b *ArithBackend) GetExtendedWitness(v *big.Int) (*big.Int, bool) {
	if v == nil {
		return nil, false
	}
	return new(big.Int).Set(v), true
}
