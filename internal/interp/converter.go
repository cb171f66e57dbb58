package interp

import (
	"github.com/wtk-go/sievecore/internal/diagnostics"
)

// converterKey identifies one (out_type, out_len, in_type, in_len) shape
// (spec.md §4.E: "a converter is keyed by the exact output and input wire
// counts, not just the type pair").
type converterKey struct {
	outType, outLen, inType, inLen int
}

// ConverterRegistry is component E: the lookup table from a declared
// conversion shape to the backend that performs it. Unlike gates, a
// conversion crosses two TypeInterpreters (possibly with different wire
// value representations), so it dispatches entirely through the erased
// TypeEngine interface.
type ConverterRegistry struct {
	backends map[converterKey]ConverterBackend
	used     []ConverterBackend
}

func NewConverterRegistry() *ConverterRegistry {
	return &ConverterRegistry{backends: make(map[converterKey]ConverterBackend)}
}

// Register binds a converter backend to one exact shape. Registering the
// same shape twice replaces the prior binding, matching how a circuit
// header only ever declares one converter per shape.
func (r *ConverterRegistry) Register(outType, outLen, inType, inLen int, backend ConverterBackend) {
	r.backends[converterKey{outType, outLen, inType, inLen}] = backend
}

// Convert performs one convert directive: it borrows the input window from
// inEngine, reserves the output window on outEngine, dispatches to the
// registered backend, and commits the output window as assigned. modulus
// selects modulus-reducing vs. no-modulus (overflow-checked) conversion,
// per spec.md §4.E.
func (r *ConverterRegistry) Convert(outEngine, inEngine TypeEngine, outFirst, outLast, inFirst, inLast uint64, modulus bool) error {
	if err := outEngine.Failed(); err != nil {
		return err
	}
	if err := inEngine.Failed(); err != nil {
		return err
	}

	outLen := int(outLast - outFirst + 1)
	inLen := int(inLast - inFirst + 1)
	key := converterKey{outEngine.TypeIndex(), outLen, inEngine.TypeIndex(), inLen}
	backend, ok := r.backends[key]
	if !ok {
		err := diagnostics.New(diagnostics.BadRelation, 0,
			"no converter registered for type %d[%d] <- type %d[%d]", key.outType, key.outLen, key.inType, key.inLen)
		outEngine.Fail(err)
		return err
	}

	inWin, err := inEngine.BorrowWindow(inFirst, inLast)
	if err != nil {
		return err
	}
	outWin, err := outEngine.ReserveWindow(outFirst, outLast)
	if err != nil {
		return err
	}

	if err := backend.Convert(outWin, inWin, modulus); err != nil {
		de, ok := err.(*diagnostics.Error)
		if !ok {
			de = diagnostics.New(diagnostics.ConversionOverflow, 0, "%v", err)
		}
		outEngine.Fail(de)
		return de
	}

	r.used = append(r.used, backend)
	return outEngine.CommitAssigned(outFirst, outLast)
}

// Check reports whether every converter backend exercised so far accepts
// its accumulated conversions (spec.md §7: ConversionOverflow is deferred
// to check() when the backend chooses to defer it rather than fail
// Convert immediately).
func (r *ConverterRegistry) Check() bool {
	for _, b := range r.used {
		if !b.Check() {
			return false
		}
	}
	return true
}
