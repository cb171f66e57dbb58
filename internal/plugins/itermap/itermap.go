// Package itermap implements the standard iteration-map plugin (spec.md
// §4.I): apply a caller-named function to each parallel slice of its
// input ranges, producing parallel slices of its output ranges — the one
// standard plugin that dispatches back into a user-defined function
// rather than emitting gates of its own.
package itermap

import (
	"fmt"

	"github.com/wtk-go/sievecore/internal/interp"
	"github.com/wtk-go/sievecore/internal/plugin"
	"github.com/wtk-go/sievecore/internal/wiretypes"
)

// Plugin is the iteration_map plugin. It needs the function catalog to
// invoke its target function by name, bound once via BindCatalog right
// after the catalog is built (see internal/circuit.Adapter.closeHeader).
type Plugin struct {
	types   map[int]bool
	catalog *interp.FunctionCatalog
}

// New builds the iteration_map plugin, registered for every arithmetic
// type in types.
func New(types []wiretypes.Type) *Plugin {
	p := &Plugin{types: map[int]bool{}}
	for _, t := range types {
		if t.Kind != wiretypes.KindPlugin {
			p.types[t.Index] = true
		}
	}
	return p
}

func (p *Plugin) Name() string { return "iteration_map" }

func (p *Plugin) SupportsType(t wiretypes.Type) bool { return p.types[t.Index] }

func (p *Plugin) BindCatalog(functions *interp.FunctionCatalog) { p.catalog = functions }

// Create binds a "map" operation to the target function named by
// binding.Params[0]. The target function's own signature fixes the
// per-iteration output/input widths; the binding's outputs/inputs must
// each be a whole multiple of the matching per-iteration width, and every
// range must agree on the iteration count.
func (p *Plugin) Create(t wiretypes.Type, binding plugin.Binding, outputs, inputs []interp.TypeCount) (plugin.Operation, error) {
	if binding.OperationName != "map" {
		return nil, nil
	}
	if p.catalog == nil {
		return nil, fmt.Errorf("iteration_map: no function catalog bound")
	}
	if len(binding.Params) == 0 || !binding.Params[0].IsText {
		return nil, fmt.Errorf("iteration_map: map needs the target function name as its first parameter")
	}
	fnName := binding.Params[0].Text
	fn, ok := p.catalog.Lookup(fnName)
	if !ok {
		return nil, fmt.Errorf("iteration_map: target function %q is not declared", fnName)
	}

	iterations, err := deriveIterations(fn.Outputs, outputs, "output")
	if err != nil {
		return nil, err
	}
	inIterations, err := deriveIterations(fn.Inputs, inputs, "input")
	if err != nil {
		return nil, err
	}
	if iterations != inIterations {
		return nil, fmt.Errorf("iteration_map: %d output iterations but %d input iterations", iterations, inIterations)
	}

	return &mapOp{fnName: fnName, catalog: p.catalog, perOutput: fn.Outputs, perInput: fn.Inputs, iterations: iterations}, nil
}

// deriveIterations checks every range in spans is a whole multiple of its
// matching per-iteration width in per, and that every range agrees on the
// resulting iteration count.
func deriveIterations(per []interp.TypeCount, spans []interp.TypeCount, label string) (uint64, error) {
	if len(per) != len(spans) {
		return 0, fmt.Errorf("iteration_map: %d %s range(s) bound, target function declares %d", len(spans), label, len(per))
	}
	var iterations uint64
	for i, sp := range spans {
		width := per[i].Count
		if width == 0 || sp.Count%width != 0 {
			return 0, fmt.Errorf("iteration_map: %s range %d has length %d, not a multiple of the target function's width %d", label, i, sp.Count, width)
		}
		n := sp.Count / width
		if i == 0 {
			iterations = n
		} else if n != iterations {
			return 0, fmt.Errorf("iteration_map: %s range %d implies %d iterations, range 0 implied %d", label, i, n, iterations)
		}
	}
	return iterations, nil
}

type mapOp struct {
	fnName     string
	catalog    *interp.FunctionCatalog
	perOutput  []interp.TypeCount
	perInput   []interp.TypeCount
	iterations uint64
}

func (o *mapOp) Evaluate(engines map[int]interp.TypeEngine, outputs, inputs []interp.TypedSpan) error {
	for i := uint64(0); i < o.iterations; i++ {
		iterOutputs := slice(outputs, o.perOutput, i)
		iterInputs := slice(inputs, o.perInput, i)
		if err := o.catalog.Invoke(o.fnName, engines, iterOutputs, iterInputs); err != nil {
			return err
		}
	}
	return nil
}

// slice carves out iteration idx's contiguous chunk of each range in
// spans, per's matching entry giving that range's per-iteration width.
func slice(spans []interp.TypedSpan, per []interp.TypeCount, idx uint64) []interp.TypedSpan {
	out := make([]interp.TypedSpan, len(spans))
	for i, sp := range spans {
		width := per[i].Count
		first := sp.First + idx*width
		out[i] = interp.TypedSpan{Type: sp.Type, First: first, Last: first + width - 1}
	}
	return out
}

var _ plugin.Plugin = (*Plugin)(nil)
var _ plugin.CatalogAware = (*Plugin)(nil)
