// Package interp implements the interpreter dispatch and function-call
// machinery (spec.md §4.D–G, the "NAILS" layer): per-type TypeInterpreters,
// the converter registry, the function catalog, and the top-level
// Interpreter that routes circuit-handler callbacks to them.
//
// Grounded on internal/vm.VM's single-struct-owns-everything shape
// (internal/vm/vm.go) and its CallFrame stack discipline
// (internal/vm/vm_calls.go's callClosure), generalized from one bytecode
// engine to N per-type engines erased behind the TypeEngine interface
// (spec.md §9: "an erased trait object at the dispatch boundary").
package interp

import "math/big"

// Backend is the per-type callback interface the core consumes (spec.md
// §6.2). V is the backend's own wire value representation; it never
// escapes past the TypeEngine boundary that erases it for cross-type code
// (the top-level Interpreter, the function catalog, the converter
// registry).
type Backend[V any] interface {
	// FromConstant lifts a validated numeric constant into the backend's
	// wire representation.
	FromConstant(v *big.Int) V

	Assign(slot *V, value V)
	Copy(dst *V, src V)
	AddGate(dst *V, a, b V)
	MulGate(dst *V, a, b V)
	AddConstGate(dst *V, a, c V)
	MulConstGate(dst *V, a, c V)

	// AssertZero records a constraint that v equals the type's additive
	// identity. A backend may defer the actual check to Check().
	AssertZero(v V)

	PublicIn(dst *V, value V)
	PrivateIn(dst *V, value V)

	// Check reports whether every accumulated constraint (in particular
	// every AssertZero) holds. Called once at the end of a run.
	Check() bool
	// Finish releases backend resources. Called once at the end of a run
	// regardless of Check's outcome.
	Finish()

	SupportsGates() bool
	SupportsExtendedWitness() bool
	// GetExtendedWitness returns the numeric value behind a wire, for
	// plugins (e.g. extended arithmetic) that need to inspect a witness
	// value the backend already knows. ok is false when
	// SupportsExtendedWitness() is false or the backend has no witness
	// material for this wire (e.g. it was never privately assigned).
	GetExtendedWitness(v V) (value *big.Int, ok bool)
}

// ConverterBackend performs one (out_type, in_type) conversion shape
// (spec.md §4.E, §6.2). outWires and inWires are the erased per-type wire
// slices (concretely []Vout and []Vin); a concrete ConverterBackend type
// -asserts them to the types it expects.
type ConverterBackend interface {
	Convert(outWires any, inWires any, modulus bool) error
	Check() bool
}
