package interp

import (
	"fmt"

	"github.com/wtk-go/sievecore/internal/diagnostics"
)

// TypedSpan names a contiguous wire span of one declared type, the caller-
// side addressing used for a function call's output and input lists
// (spec.md §4.F).
type TypedSpan struct {
	Type        int
	First, Last uint64
}

func (s TypedSpan) length() uint64 { return s.Last - s.First + 1 }

// TypeCount is one entry of a function signature: Count wires of type
// Type.
type TypeCount struct {
	Type  int
	Count uint64
}

// PluginOp is the shape a bound plugin operation must satisfy to be
// callable as a Function (structurally identical to plugin.Operation, so
// any plugin.Operation is already a PluginOp with no import needed: this
// package never imports internal/plugin, avoiding a cycle).
type PluginOp interface {
	Evaluate(engines map[int]TypeEngine, outputs, inputs []TypedSpan) error
}

// Function is one callable: a regular user-defined function (Body replays
// its recorded directives inside a pushed, remapped call frame on every
// declared type) or a plugin-backed function (Plugin dispatches straight
// into a bound plugin Operation against the caller's own wire addresses,
// with no frame push or remap — spec.md §4.F: "Plugin functions: skip
// step 3 [push/map/replay/pop]; instead build a vector of output and
// input wire references per signature position, then call the plugin
// Operation. Inputs/outputs must still satisfy Scope constraints
// before/after."). Exactly one of Body, Plugin is set.
type Function struct {
	Name    string
	Outputs []TypeCount
	Inputs  []TypeCount
	Body    func(engines map[int]TypeEngine) error
	Plugin  PluginOp
}

// FunctionCatalog is component F: the name-keyed table of callable
// functions, implementing the call algorithm from spec.md §4.F: verify
// signature arity, push a frame on every declared type (call depth stays
// synchronized across all per-type Scope stacks even for types this call
// never touches), map outputs then inputs, replay the body, verify output
// completeness, and pop every frame.
//
// Grounded on internal/vm/vm_calls.go's callClosure (arity check, frame
// push, body execution, frame pop), generalized from one VM's call stack
// to N synchronized per-type call stacks.
type FunctionCatalog struct {
	funcs map[string]*Function
}

func NewFunctionCatalog() *FunctionCatalog {
	return &FunctionCatalog{funcs: make(map[string]*Function)}
}

func (c *FunctionCatalog) Register(f *Function) { c.funcs[f.Name] = f }

func (c *FunctionCatalog) Lookup(name string) (*Function, bool) {
	f, ok := c.funcs[name]
	return f, ok
}

func failAll(engines map[int]TypeEngine, de *diagnostics.Error) *diagnostics.Error {
	for _, e := range engines {
		e.Fail(de)
	}
	return de
}

func matchesSignature(spans []TypedSpan, sig []TypeCount) bool {
	if len(spans) != len(sig) {
		return false
	}
	for i, s := range spans {
		if s.Type != sig[i].Type || s.length() != sig[i].Count {
			return false
		}
	}
	return true
}

// Invoke calls the function named name. engines must contain a TypeEngine
// for every type declared in the active circuit, keyed by type index, so
// every type's call-frame stack stays synchronized with this call's depth
// even for types the call body never references.
func (c *FunctionCatalog) Invoke(name string, engines map[int]TypeEngine, outputs, inputs []TypedSpan) error {
	f, ok := c.funcs[name]
	if !ok {
		return failAll(engines, diagnostics.New(diagnostics.BadRelation, 0, "call to undeclared function %q", name))
	}
	if !matchesSignature(outputs, f.Outputs) {
		return failAll(engines, diagnostics.New(diagnostics.BadRelation, 0, "call to %q: output shape mismatch", name))
	}
	if !matchesSignature(inputs, f.Inputs) {
		return failAll(engines, diagnostics.New(diagnostics.BadRelation, 0, "call to %q: input shape mismatch", name))
	}

	for _, span := range outputs {
		eng, ok := engines[span.Type]
		if !ok {
			return failAll(engines, diagnostics.New(diagnostics.BadRelation, 0, "call to %q: unknown output type %d", name, span.Type))
		}
		if err := eng.FindOutputs(span.First, span.Last); err != nil {
			return err
		}
	}
	for _, span := range inputs {
		eng, ok := engines[span.Type]
		if !ok {
			return failAll(engines, diagnostics.New(diagnostics.BadRelation, 0, "call to %q: unknown input type %d", name, span.Type))
		}
		if err := eng.FindInputs(span.First, span.Last); err != nil {
			return err
		}
	}

	if f.Plugin != nil {
		return c.invokePlugin(f, engines, outputs, inputs)
	}

	for _, eng := range engines {
		if err := eng.PushFrame(); err != nil {
			return err
		}
	}

	type localSpan struct {
		eng         TypeEngine
		first, last uint64
	}
	var locals []localSpan

	// Outputs occupy the low end of each type's callee-local address space,
	// inputs immediately follow: this is the convention every recorded
	// Function.Body closure addresses its directives against.
	for _, span := range outputs {
		eng := engines[span.Type]
		lf, ll, err := eng.MapOutputs(span.First, span.Last)
		if err != nil {
			return err
		}
		locals = append(locals, localSpan{eng, lf, ll})
	}
	for _, span := range inputs {
		eng := engines[span.Type]
		if _, _, err := eng.MapInputs(span.First, span.Last); err != nil {
			return err
		}
	}

	if err := f.Body(engines); err != nil {
		de, ok := err.(*diagnostics.Error)
		if !ok {
			de = diagnostics.New(diagnostics.BadRelation, 0, "call to %q: %v", name, err)
		}
		return failAll(engines, de)
	}

	for _, l := range locals {
		if !l.eng.OutputsComplete(l.first, l.last) {
			return failAll(engines, diagnostics.New(diagnostics.BadRelation, 0, "call to %q: declared output [%d,%d] not fully assigned", name, l.first, l.last))
		}
	}

	for _, eng := range engines {
		if err := eng.PopFrame(); err != nil {
			return fmt.Errorf("call to %q: %w", name, err)
		}
	}
	// The callee wrote the outputs through the caller's own storage; mark
	// them assigned in the caller's frame, which is on top again.
	for _, span := range outputs {
		if err := engines[span.Type].CommitAssigned(span.First, span.Last); err != nil {
			return err
		}
	}
	return nil
}

// invokePlugin runs a plugin-backed function: no frame push, no remap —
// the operation runs directly against the caller's own wire addresses,
// already validated unassigned (outputs)/active (inputs) by FindOutputs/
// FindInputs above.
func (c *FunctionCatalog) invokePlugin(f *Function, engines map[int]TypeEngine, outputs, inputs []TypedSpan) error {
	if err := f.Plugin.Evaluate(engines, outputs, inputs); err != nil {
		de, ok := err.(*diagnostics.Error)
		if !ok {
			de = diagnostics.New(diagnostics.PluginReject, 0, "call to %q: %v", f.Name, err)
		}
		return failAll(engines, de)
	}
	for _, span := range outputs {
		eng := engines[span.Type]
		if !eng.OutputsComplete(span.First, span.Last) {
			return failAll(engines, diagnostics.New(diagnostics.BadRelation, 0, "call to %q: declared output [%d,%d] not fully assigned", f.Name, span.First, span.Last))
		}
	}
	return nil
}
