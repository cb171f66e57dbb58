package circuit

import (
	"math/big"

	"github.com/wtk-go/sievecore/internal/diagnostics"
	"github.com/wtk-go/sievecore/internal/interp"
	"github.com/wtk-go/sievecore/internal/plugin"
	"github.com/wtk-go/sievecore/internal/wiretypes"
)

// EngineFactory builds the TypeEngine backing one declared type, given its
// public/private input streams. It is supplied by whatever owns backend
// selection (spec.md §6.2 lists backend capabilities but not how a type
// picks one); a runner typically maps field/ring types to an
// internal/backendref.ArithBackend and leaves room for a remote or
// plugin-defined backend elsewhere.
type EngineFactory func(t wiretypes.Type, public, private interp.Stream) (interp.TypeEngine, error)

// ConverterFactory builds the ConverterBackend for one declared conversion
// shape.
type ConverterFactory func(outType wiretypes.Type, outLen int, inType wiretypes.Type, inLen int) (interp.ConverterBackend, error)

// StreamProvider returns the public/private input streams for one declared
// type. Either may be nil if that type never appears in a public_in/
// private_in directive.
type StreamProvider func(t wiretypes.Type) (public, private interp.Stream)

type phase int

const (
	// phaseTopLevel: ordinary top-level dispatch straight to the Interpreter.
	phaseTopLevel phase = iota
	// phasePendingKind: a start_function was seen; waiting to learn whether
	// it is regular_function or plugin_function.
	phasePendingKind
	// phaseInBody: a regular function's body is being recorded, directive
	// by directive, until end_function.
	phaseInBody
)

// bodyOp is one recorded directive of a regular function's body, replayed
// against the (already-built, stable) Interpreter on every invoke.
type bodyOp func(ip *interp.Interpreter) error

type pendingFunction struct {
	name    string
	outputs []interp.TypeCount
	inputs  []interp.TypeCount
	body    []bodyOp
}

type conversionShape struct {
	outType, outLen, inType, inLen int
}

// Adapter is component H: it implements Handler, translating one external
// parser's callback stream into calls against component G (Interpreter),
// its ConverterRegistry and FunctionCatalog, and component I (the plugin
// Manager). Header declarations accumulate until the first non-header
// callback, at which point the type set, engines, converters and plugin
// manager are all built in one shot (spec.md §3: type indices are dense and
// immutable for the circuit's lifetime, so nothing downstream can be built
// before every type is known).
//
// The explicit phase field, checked on entry to each callback, is the teacher's idiom for a small
// state machine (internal/analyzer's multi-pass Process pipeline threads an
// equally explicit ctx through ordered stages rather than generating a
// parser): spec.md §9 asks for the same restraint here.
type Adapter struct {
	engineFactory    EngineFactory
	converterFactory ConverterFactory
	streamProvider   StreamProvider
	pluginImpls      []plugin.Plugin

	headerTypes     []wiretypes.Type
	headerShapes    []conversionShape
	declaredPlugins map[string]bool
	headerClosed    bool

	types       *wiretypes.Set
	interpreter *interp.Interpreter
	functions   *interp.FunctionCatalog
	plugins     *plugin.Manager

	phase   phase
	pending *pendingFunction
	failed  *diagnostics.Error
}

// NewAdapter constructs an Adapter ready to receive header declarations.
// engineFactory and converterFactory are consulted once, when the header
// closes; pluginImpls are registered into the plugin Manager at the same
// time (the Manager itself cannot be built any earlier, since it needs the
// final, dense type set to resolve a binding's type references).
func NewAdapter(engineFactory EngineFactory, converterFactory ConverterFactory, streamProvider StreamProvider, pluginImpls ...plugin.Plugin) *Adapter {
	return &Adapter{
		engineFactory:    engineFactory,
		converterFactory: converterFactory,
		streamProvider:   streamProvider,
		pluginImpls:      pluginImpls,
		declaredPlugins:  make(map[string]bool),
	}
}

func (a *Adapter) DeclareType(t wiretypes.Type) error {
	if a.headerClosed {
		return a.record(diagnostics.New(diagnostics.BadRelation, 0, "type %d declared after the header closed", t.Index), 0)
	}
	a.headerTypes = append(a.headerTypes, t)
	return nil
}

func (a *Adapter) DeclarePlugin(name string) error {
	if a.headerClosed {
		return a.record(diagnostics.New(diagnostics.BadRelation, 0, "plugin %q declared after the header closed", name), 0)
	}
	a.declaredPlugins[name] = true
	return nil
}

func (a *Adapter) DeclareConversionShape(outType, outLen, inType, inLen int) error {
	if a.headerClosed {
		return a.record(diagnostics.New(diagnostics.BadRelation, 0, "conversion shape declared after the header closed"), 0)
	}
	a.headerShapes = append(a.headerShapes, conversionShape{outType, outLen, inType, inLen})
	return nil
}

// closeHeader finalizes the type set and builds every downstream component.
// It is idempotent and called defensively at the top of every non-header
// method, since the callback stream carries no explicit "header done"
// marker (spec.md §6.1: the header is "consumed before any gate", not
// terminated by its own directive).
func (a *Adapter) closeHeader() error {
	if a.headerClosed {
		return nil
	}
	a.headerClosed = true
	a.types = wiretypes.NewSet(a.headerTypes)

	engines := make(map[int]interp.TypeEngine, a.types.Len())
	for i := 0; i < a.types.Len(); i++ {
		t, _ := a.types.Get(i)
		pub, priv := a.streamProvider(t)
		eng, err := a.engineFactory(t, pub, priv)
		if err != nil {
			return a.record(diagnostics.New(diagnostics.BadRelation, 0, "building backend for type %d: %v", i, err), 0)
		}
		engines[i] = eng
	}

	converters := interp.NewConverterRegistry()
	for _, shape := range a.headerShapes {
		outT, ok1 := a.types.Get(shape.outType)
		inT, ok2 := a.types.Get(shape.inType)
		if !ok1 || !ok2 {
			return a.record(diagnostics.New(diagnostics.BadRelation, 0, "conversion shape (%d,%d,%d,%d) references an undeclared type", shape.outType, shape.outLen, shape.inType, shape.inLen), 0)
		}
		backend, err := a.converterFactory(outT, shape.outLen, inT, shape.inLen)
		if err != nil {
			return a.record(diagnostics.New(diagnostics.BadRelation, 0, "building converter (%d,%d,%d,%d): %v", shape.outType, shape.outLen, shape.inType, shape.inLen, err), 0)
		}
		converters.Register(shape.outType, shape.outLen, shape.inType, shape.inLen, backend)
	}

	a.functions = interp.NewFunctionCatalog()
	a.interpreter = interp.NewInterpreter(engines, converters, a.functions)

	a.plugins = plugin.NewManager(a.types)
	for _, p := range a.pluginImpls {
		a.plugins.Register(p)
		if ca, ok := p.(plugin.CatalogAware); ok {
			ca.BindCatalog(a.functions)
		}
	}
	return nil
}

func (a *Adapter) guard() error {
	if a.failed != nil {
		return a.failed
	}
	return nil
}

// record keeps the first failure, attaching line if the error arrived with
// none (spec.md §7: "the sticky error carries the line number, if
// available").
func (a *Adapter) record(err error, line int) error {
	if err == nil {
		return nil
	}
	de, ok := err.(*diagnostics.Error)
	if !ok {
		de = diagnostics.New(diagnostics.BadRelation, line, "%v", err)
	}
	if de.Line == 0 && line != 0 {
		de = de.WithLine(line)
	}
	if a.failed == nil {
		a.failed = de
	}
	return de
}

// dispatch is the single entry point every ordinary directive method routes
// through: close the header if needed, check the sticky flag, then either
// record op for later replay (inside a function body) or run it immediately
// against the live Interpreter.
func (a *Adapter) dispatch(line int, op bodyOp) error {
	if err := a.closeHeader(); err != nil {
		return err
	}
	if err := a.guard(); err != nil {
		return err
	}
	if a.phase == phaseInBody {
		a.pending.body = append(a.pending.body, op)
		return nil
	}
	return a.record(op(a.interpreter), line)
}

func (a *Adapter) AddGate(out, left, right uint64, typ int, line int) error {
	return a.dispatch(line, func(ip *interp.Interpreter) error { return ip.Add(typ, out, left, right) })
}

func (a *Adapter) MulGate(out, left, right uint64, typ int, line int) error {
	return a.dispatch(line, func(ip *interp.Interpreter) error { return ip.Mul(typ, out, left, right) })
}

func (a *Adapter) AddConstGate(out, left uint64, c *big.Int, typ int, line int) error {
	return a.dispatch(line, func(ip *interp.Interpreter) error { return ip.AddC(typ, out, left, c) })
}

func (a *Adapter) MulConstGate(out, left uint64, c *big.Int, typ int, line int) error {
	return a.dispatch(line, func(ip *interp.Interpreter) error { return ip.MulC(typ, out, left, c) })
}

func (a *Adapter) Copy(out, left uint64, typ int, line int) error {
	return a.dispatch(line, func(ip *interp.Interpreter) error { return ip.Copy(typ, out, left) })
}

func (a *Adapter) CopyMulti(outFirst, outLast uint64, inputs []interp.WireSpan, typ int, line int) error {
	return a.dispatch(line, func(ip *interp.Interpreter) error { return ip.CopyMulti(typ, outFirst, outLast, inputs) })
}

func (a *Adapter) Assign(out uint64, c *big.Int, typ int, line int) error {
	return a.dispatch(line, func(ip *interp.Interpreter) error { return ip.Assign(typ, out, c) })
}

func (a *Adapter) AssertZero(wire uint64, typ int, line int) error {
	return a.dispatch(line, func(ip *interp.Interpreter) error { return ip.AssertZero(typ, wire) })
}

func (a *Adapter) PublicIn(out uint64, typ int, line int) error {
	return a.dispatch(line, func(ip *interp.Interpreter) error { return ip.PublicIn(typ, out) })
}

func (a *Adapter) PublicInMulti(first, last uint64, typ int, line int) error {
	return a.dispatch(line, func(ip *interp.Interpreter) error { return ip.PublicInMulti(typ, first, last) })
}

func (a *Adapter) PrivateIn(out uint64, typ int, line int) error {
	return a.dispatch(line, func(ip *interp.Interpreter) error { return ip.PrivateIn(typ, out) })
}

func (a *Adapter) PrivateInMulti(first, last uint64, typ int, line int) error {
	return a.dispatch(line, func(ip *interp.Interpreter) error { return ip.PrivateInMulti(typ, first, last) })
}

func (a *Adapter) Convert(outFirst, outLast uint64, outType int, inFirst, inLast uint64, inType int, modulus bool, line int) error {
	return a.dispatch(line, func(ip *interp.Interpreter) error {
		return ip.Convert(outType, inType, outFirst, outLast, inFirst, inLast, modulus)
	})
}

func (a *Adapter) NewRange(first, last uint64, typ int, line int) error {
	return a.dispatch(line, func(ip *interp.Interpreter) error { return ip.NewRange(typ, first, last) })
}

func (a *Adapter) DeleteRange(first, last uint64, typ int, line int) error {
	return a.dispatch(line, func(ip *interp.Interpreter) error { return ip.DeleteRange(typ, first, last) })
}

func (a *Adapter) Invoke(name string, outputs, inputs []interp.TypedSpan, line int) error {
	return a.dispatch(line, func(ip *interp.Interpreter) error { return ip.CallFunction(name, outputs, inputs) })
}

func (a *Adapter) StartFunction(name string, outputs, inputs []interp.TypeCount, line int) error {
	if err := a.closeHeader(); err != nil {
		return err
	}
	if err := a.guard(); err != nil {
		return err
	}
	if a.phase != phaseTopLevel {
		return a.record(diagnostics.New(diagnostics.BadRelation, line, "start_function %q nested inside another function definition", name), line)
	}
	a.phase = phasePendingKind
	a.pending = &pendingFunction{name: name, outputs: outputs, inputs: inputs}
	return nil
}

func (a *Adapter) RegularFunction(line int) error {
	if err := a.guard(); err != nil {
		return err
	}
	if a.phase != phasePendingKind {
		return a.record(diagnostics.New(diagnostics.BadRelation, line, "regular_function without a preceding start_function"), line)
	}
	a.phase = phaseInBody
	return nil
}

func (a *Adapter) EndFunction(line int) error {
	if err := a.guard(); err != nil {
		return err
	}
	if a.phase != phaseInBody {
		return a.record(diagnostics.New(diagnostics.BadRelation, line, "end_function without an open function body"), line)
	}
	pending := a.pending
	a.functions.Register(&interp.Function{
		Name:    pending.name,
		Outputs: pending.outputs,
		Inputs:  pending.inputs,
		Body: func(map[int]interp.TypeEngine) error {
			for _, op := range pending.body {
				if err := op(a.interpreter); err != nil {
					return err
				}
			}
			return nil
		},
	})
	a.phase = phaseTopLevel
	a.pending = nil
	return nil
}

func (a *Adapter) PluginFunction(name, op string, params []plugin.Param, pubInCounts, prvInCounts []interp.TypeCount, line int) error {
	if err := a.guard(); err != nil {
		return err
	}
	if a.phase != phasePendingKind {
		return a.record(diagnostics.New(diagnostics.BadRelation, line, "plugin_function %q without a preceding start_function", name), line)
	}
	if !a.declaredPlugins[name] {
		return a.record(diagnostics.New(diagnostics.BadRelation, line, "plugin %q used without a header declaration", name), line)
	}
	binding := plugin.Binding{PluginName: name, OperationName: op, Params: params}
	operation, err := a.plugins.CreateOperation(binding, a.pending.outputs, a.pending.inputs)
	if err != nil {
		de, ok := err.(*diagnostics.Error)
		if !ok {
			de = diagnostics.New(diagnostics.PluginReject, line, "%v", err)
		}
		a.phase = phaseTopLevel
		a.pending = nil
		return a.record(de, line)
	}
	a.functions.Register(&interp.Function{
		Name:    a.pending.name,
		Outputs: a.pending.outputs,
		Inputs:  a.pending.inputs,
		Plugin:  operation,
	})
	a.phase = phaseTopLevel
	a.pending = nil
	return nil
}

func (a *Adapter) Finish() (bool, error) {
	if err := a.closeHeader(); err != nil {
		return false, err
	}
	if a.phase != phaseTopLevel {
		err := a.record(diagnostics.New(diagnostics.BadRelation, 0, "circuit ended with an open function definition"), 0)
		return false, err
	}
	ok := a.failed == nil && a.interpreter.Check()
	a.interpreter.Finish()
	return ok, nil
}
