package interp

import (
	"math/big"

	"github.com/wtk-go/sievecore/internal/diagnostics"
)

// WireSpan names a contiguous span of wire indices, the multi-input shape
// used by copy_multi (spec.md §4.D).
type WireSpan struct {
	First, Last uint64
}

// TypeEngine is the erased, index-only view of a TypeInterpreter[V] that
// cross-type code (the top-level Interpreter, the function catalog, the
// converter registry) dispatches through without ever naming V (spec.md §9).
// Every method operates on the engine's current top call frame unless noted.
type TypeEngine interface {
	TypeIndex() int

	Add(out, left, right uint64) error
	Mul(out, left, right uint64) error
	AddC(out, left uint64, c *big.Int) error
	MulC(out, left uint64, c *big.Int) error
	Copy(out, left uint64) error
	CopyMulti(outFirst, outLast uint64, inputs []WireSpan) error
	Assign(out uint64, c *big.Int) error
	AssertZero(w uint64) error
	PublicIn(out uint64) error
	PrivateIn(out uint64) error
	PublicInMulti(first, last uint64) error
	PrivateInMulti(first, last uint64) error
	NewRange(first, last uint64) error
	DeleteRange(first, last uint64) error

	// ReserveScratch allocates n fresh wires above every index this engine
	// has ever backed, for plugin operations (e.g. vector reductions) that
	// need intermediate gate outputs of their own and have no other source
	// of unused wire indices to address them by.
	ReserveScratch(n uint64) (first, last uint64, err error)

	// PushFrame/PopFrame open and close a function-call frame.
	PushFrame() error
	PopFrame() error

	// FindOutputs/FindInputs reserve or locate storage in the current
	// (caller) frame, ahead of a PushFrame+MapOutputs/MapInputs pair.
	FindOutputs(first, last uint64) error
	FindInputs(first, last uint64) error
	// MapOutputs/MapInputs install the range most recently reserved by
	// FindOutputs/FindInputs in the caller frame (named by its caller-side
	// indices) as a remapped range in the new top (callee) frame. Call
	// after PushFrame. They return the callee-local [first,last] address
	// assigned to the range (first > last for an empty range).
	MapOutputs(callerFirst, callerLast uint64) (localFirst, localLast uint64, err error)
	MapInputs(callerFirst, callerLast uint64) (localFirst, localLast uint64, err error)
	// OutputsComplete checks the current (callee) frame before PopFrame.
	OutputsComplete(first, last uint64) bool

	// BorrowWindow exposes [first,last] (already active) as an erased
	// slice for the converter registry to read. ReserveWindow exposes a
	// freshly found-outputs span as an erased slice for the converter
	// registry to write; CommitAssigned marks it assigned+active
	// afterwards.
	BorrowWindow(first, last uint64) (any, error)
	ReserveWindow(first, last uint64) (any, error)
	CommitAssigned(first, last uint64) error

	CheckBackend() bool
	FinishBackend()

	// Fail forces the sticky failure flag, for cross-cutting errors
	// detected by the function catalog (arity mismatch, incomplete
	// outputs) rather than inside one Scope operation. Failed reports the
	// first recorded failure, if any.
	Fail(err *diagnostics.Error)
	Failed() *diagnostics.Error
}
