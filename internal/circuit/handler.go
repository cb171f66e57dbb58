// Package circuit is component H (spec.md §4.H): the adapter between an
// external parser's directive callbacks and the already-built Interpreter
// (component G), ConverterRegistry (E), FunctionCatalog (F) and plugin
// Manager (I).
//
// Grounded on internal/analyzer/processor.go and internal/parser/processor.go's
// shared Process(ctx)-returns-ctx shape: one struct absorbs a stream of
// inputs and accumulates state on itself rather than threading an explicit
// accumulator through return values. Here the "process" loop lives outside
// this package (owned by whatever feeds the parser's callbacks — the CLI or
// a test harness); Adapter is the callback target, called once per directive.
package circuit

import (
	"math/big"

	"github.com/wtk-go/sievecore/internal/interp"
	"github.com/wtk-go/sievecore/internal/plugin"
	"github.com/wtk-go/sievecore/internal/wiretypes"
)

// Handler is the exhaustive upstream callback interface (spec.md §6.1),
// translated from the wire-format-agnostic callback names into Go method
// names. Every method takes the directive's source line (0 if the parser
// has none) for diagnostics.
type Handler interface {
	// Header, consumed before any gate (spec.md §6.1 "Circuit header").
	DeclareType(t wiretypes.Type) error
	DeclarePlugin(name string) error
	DeclareConversionShape(outType, outLen, inType, inLen int) error

	AddGate(out, left, right uint64, typ int, line int) error
	MulGate(out, left, right uint64, typ int, line int) error
	AddConstGate(out, left uint64, c *big.Int, typ int, line int) error
	MulConstGate(out, left uint64, c *big.Int, typ int, line int) error
	Copy(out, left uint64, typ int, line int) error
	CopyMulti(outFirst, outLast uint64, inputs []interp.WireSpan, typ int, line int) error
	Assign(out uint64, c *big.Int, typ int, line int) error
	AssertZero(wire uint64, typ int, line int) error
	PublicIn(out uint64, typ int, line int) error
	PublicInMulti(first, last uint64, typ int, line int) error
	PrivateIn(out uint64, typ int, line int) error
	PrivateInMulti(first, last uint64, typ int, line int) error
	Convert(outFirst, outLast uint64, outType int, inFirst, inLast uint64, inType int, modulus bool, line int) error
	NewRange(first, last uint64, typ int, line int) error
	DeleteRange(first, last uint64, typ int, line int) error

	StartFunction(name string, outputs, inputs []interp.TypeCount, line int) error
	RegularFunction(line int) error
	EndFunction(line int) error
	PluginFunction(name, op string, params []plugin.Param, pubInCounts, prvInCounts []interp.TypeCount, line int) error
	Invoke(name string, outputs, inputs []interp.TypedSpan, line int) error

	// Finish reports the overall run status (spec.md §6.4): true iff no
	// sticky error was ever recorded and every backend's check() returned
	// true. It also releases every backend via Finish().
	Finish() (bool, error)
}

var _ Handler = (*Adapter)(nil)
