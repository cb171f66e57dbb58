package interp

import (
	"math/big"
	"sort"

	"github.com/wtk-go/sievecore/internal/diagnostics"
)

// Interpreter is component G: the top-level dispatcher a circuit-handler
// adapter (component H, internal/circuit) drives. It owns one TypeEngine
// per declared type, the converter registry, and the function catalog, and
// routes every directive to the right engine by type index.
//
// Grounded on internal/vm.VM as the single owning struct a pipeline stage
// drives one directive at a time (internal/pipeline/pipeline.go), here
// generalized to own N engines instead of one bytecode VM.
type Interpreter struct {
	engines    map[int]TypeEngine
	order      []int
	converters *ConverterRegistry
	functions  *FunctionCatalog
	failed     *diagnostics.Error
}

func NewInterpreter(engines map[int]TypeEngine, converters *ConverterRegistry, functions *FunctionCatalog) *Interpreter {
	order := make([]int, 0, len(engines))
	for idx := range engines {
		order = append(order, idx)
	}
	sort.Ints(order)
	return &Interpreter{engines: engines, order: order, converters: converters, functions: functions}
}

func (ip *Interpreter) engine(typ int) (TypeEngine, error) {
	eng, ok := ip.engines[typ]
	if !ok {
		return nil, ip.record(diagnostics.New(diagnostics.BadRelation, 0, "reference to undeclared type %d", typ))
	}
	return eng, nil
}

// record keeps the first failure seen across any type, so a caller driving
// the whole run can stop issuing directives as soon as the circuit is
// doomed, without inspecting every engine individually.
func (ip *Interpreter) record(err error) error {
	if err == nil {
		return nil
	}
	if ip.failed == nil {
		de, ok := err.(*diagnostics.Error)
		if !ok {
			de = diagnostics.New(diagnostics.BadRelation, 0, "%v", err)
		}
		ip.failed = de
	}
	return err
}

func (ip *Interpreter) Failed() *diagnostics.Error { return ip.failed }

func (ip *Interpreter) Add(typ int, out, left, right uint64) error {
	eng, err := ip.engine(typ)
	if err != nil {
		return err
	}
	return ip.record(eng.Add(out, left, right))
}

func (ip *Interpreter) Mul(typ int, out, left, right uint64) error {
	eng, err := ip.engine(typ)
	if err != nil {
		return err
	}
	return ip.record(eng.Mul(out, left, right))
}

func (ip *Interpreter) AddC(typ int, out, left uint64, c *big.Int) error {
	eng, err := ip.engine(typ)
	if err != nil {
		return err
	}
	return ip.record(eng.AddC(out, left, c))
}

func (ip *Interpreter) MulC(typ int, out, left uint64, c *big.Int) error {
	eng, err := ip.engine(typ)
	if err != nil {
		return err
	}
	return ip.record(eng.MulC(out, left, c))
}

func (ip *Interpreter) Copy(typ int, out, left uint64) error {
	eng, err := ip.engine(typ)
	if err != nil {
		return err
	}
	return ip.record(eng.Copy(out, left))
}

func (ip *Interpreter) CopyMulti(typ int, outFirst, outLast uint64, inputs []WireSpan) error {
	eng, err := ip.engine(typ)
	if err != nil {
		return err
	}
	return ip.record(eng.CopyMulti(outFirst, outLast, inputs))
}

func (ip *Interpreter) Assign(typ int, out uint64, c *big.Int) error {
	eng, err := ip.engine(typ)
	if err != nil {
		return err
	}
	return ip.record(eng.Assign(out, c))
}

func (ip *Interpreter) AssertZero(typ int, w uint64) error {
	eng, err := ip.engine(typ)
	if err != nil {
		return err
	}
	return ip.record(eng.AssertZero(w))
}

func (ip *Interpreter) PublicIn(typ int, out uint64) error {
	eng, err := ip.engine(typ)
	if err != nil {
		return err
	}
	return ip.record(eng.PublicIn(out))
}

func (ip *Interpreter) PrivateIn(typ int, out uint64) error {
	eng, err := ip.engine(typ)
	if err != nil {
		return err
	}
	return ip.record(eng.PrivateIn(out))
}

func (ip *Interpreter) PublicInMulti(typ int, first, last uint64) error {
	eng, err := ip.engine(typ)
	if err != nil {
		return err
	}
	return ip.record(eng.PublicInMulti(first, last))
}

func (ip *Interpreter) PrivateInMulti(typ int, first, last uint64) error {
	eng, err := ip.engine(typ)
	if err != nil {
		return err
	}
	return ip.record(eng.PrivateInMulti(first, last))
}

func (ip *Interpreter) NewRange(typ int, first, last uint64) error {
	eng, err := ip.engine(typ)
	if err != nil {
		return err
	}
	return ip.record(eng.NewRange(first, last))
}

func (ip *Interpreter) DeleteRange(typ int, first, last uint64) error {
	eng, err := ip.engine(typ)
	if err != nil {
		return err
	}
	return ip.record(eng.DeleteRange(first, last))
}

// Convert dispatches one convert directive across two TypeEngines.
func (ip *Interpreter) Convert(outType, inType int, outFirst, outLast, inFirst, inLast uint64, modulus bool) error {
	outEng, err := ip.engine(outType)
	if err != nil {
		return err
	}
	inEng, err := ip.engine(inType)
	if err != nil {
		return err
	}
	return ip.record(ip.converters.Convert(outEng, inEng, outFirst, outLast, inFirst, inLast, modulus))
}

// CallFunction dispatches one function-call directive to the catalog,
// pushing/popping a frame on every declared type.
func (ip *Interpreter) CallFunction(name string, outputs, inputs []TypedSpan) error {
	return ip.record(ip.functions.Invoke(name, ip.engines, outputs, inputs))
}

// Check reports whether every type's backend, and every exercised
// converter, accepts the run's accumulated constraints. It is the only
// place BackendAssertFailure surfaces. ConversionOverflow surfaces here
// only for converters that defer it; a converter that reports overflow
// from Convert (as backendref.DigitConverter does) fails the run at
// dispatch time through ConverterRegistry.Convert instead.
func (ip *Interpreter) Check() bool {
	ok := ip.failed == nil
	for _, idx := range ip.order {
		if !ip.engines[idx].CheckBackend() {
			ok = false
		}
	}
	if !ip.converters.Check() {
		ok = false
	}
	return ok
}

// Finish releases every backend's resources. Called once at the end of a
// run regardless of Check's outcome.
func (ip *Interpreter) Finish() {
	for _, idx := range ip.order {
		ip.engines[idx].FinishBackend()
	}
}
