package plugin

import (
	"fmt"

	"github.com/wtk-go/sievecore/internal/interp"
	"github.com/wtk-go/sievecore/internal/wiretypes"
)

// SimpleOperation is the per-type operation body a SimplePlugin registers:
// it runs entirely against one TypeInterpreter's erased engine, the
// common case for vectors/mux/extended-arithmetic; RAM keeps state across
// calls and implements Plugin directly (spec.md §4.I
// "SimplePlugin ... Operations expose check_signature and evaluate").
type SimpleOperation interface {
	CheckSignature(outputs, inputs []interp.TypeCount) error
	Evaluate(eng interp.TypeEngine, outputs, inputs []interp.TypedSpan) error
}

// SimpleOperationFactory builds a fresh SimpleOperation for type t.
type SimpleOperationFactory func(t wiretypes.Type) SimpleOperation

// SimplePlugin is the convenience layer from spec.md §4.I: it maps an
// operation name to a reusable operation factory, per type.
type SimplePlugin struct {
	name string
	ops  map[int]map[string]SimpleOperationFactory
}

func NewSimplePlugin(name string) *SimplePlugin {
	return &SimplePlugin{name: name, ops: make(map[int]map[string]SimpleOperationFactory)}
}

func (p *SimplePlugin) Name() string { return p.name }

// Register binds opName for typeIndex to factory. A plugin typically calls
// this once per (type, operation) pair it supports at construction time.
func (p *SimplePlugin) Register(typeIndex int, opName string, factory SimpleOperationFactory) {
	byOp, ok := p.ops[typeIndex]
	if !ok {
		byOp = make(map[string]SimpleOperationFactory)
		p.ops[typeIndex] = byOp
	}
	byOp[opName] = factory
}

func (p *SimplePlugin) SupportsType(t wiretypes.Type) bool {
	_, ok := p.ops[t.Index]
	return ok
}

func (p *SimplePlugin) Create(t wiretypes.Type, binding Binding, outputs, inputs []interp.TypeCount) (Operation, error) {
	byOp, ok := p.ops[t.Index]
	if !ok {
		return nil, nil
	}
	factory, ok := byOp[binding.OperationName]
	if !ok {
		return nil, nil
	}
	op := factory(t)
	if err := op.CheckSignature(outputs, inputs); err != nil {
		return nil, err
	}
	return &simpleOpAdapter{typeIndex: t.Index, inner: op}, nil
}

type simpleOpAdapter struct {
	typeIndex int
	inner     SimpleOperation
}

func (a *simpleOpAdapter) Evaluate(engines map[int]interp.TypeEngine, outputs, inputs []interp.TypedSpan) error {
	eng, ok := engines[a.typeIndex]
	if !ok {
		return fmt.Errorf("plugin: no engine registered for type %d", a.typeIndex)
	}
	return a.inner.Evaluate(eng, outputs, inputs)
}
