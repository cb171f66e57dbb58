// Package ram implements the standard RAM plugin (spec.md §4.I):
// init/read/write over a named, fixed-size, fixed-word-width memory,
// in an arithmetic representation (one field/ring element per word) and
// a bit-bundled boolean representation (one packed bitstring per word,
// for a field-of-characteristic-2 type).
//
// Unlike vectors/mux/arith, a RAM instance's state outlives any single
// directive: init allocates it, and every later read/write against the
// same named instance must see the others' writes. This does not fit
// plugin.SimplePlugin's stateless-per-call factory, so Plugin implements
// plugin.Plugin directly and keeps one memory table per instance name,
// named by the pluginFunction binding's first parameter (spec.md §3's
// plugin-binding parameters).
package ram

import (
	"fmt"
	"math/big"

	"github.com/funvibe/funbit"

	"github.com/wtk-go/sievecore/internal/interp"
	"github.com/wtk-go/sievecore/internal/plugin"
	"github.com/wtk-go/sievecore/internal/wiretypes"
)

// memory is one named RAM instance's backing store: size words, each
// wordWidth wires wide.
type memory struct {
	wordWidth uint64
	cells     [][]*big.Int
}

// Plugin is the RAM plugin, registered once per circuit and shared by
// every init/read/write operation it binds, so they can all reach the
// same named instance's memory table.
type Plugin struct {
	types     map[int]bool
	boolean   map[int]bool // the subset of types suitable for bit-bundling (characteristic 2)
	instances map[string]*memory
}

// New builds the RAM plugin, registered for every arithmetic type in
// types. A type is additionally eligible for the bit-bundled boolean
// representation when it is a field of modulus 2.
func New(types []wiretypes.Type) *Plugin {
	p := &Plugin{types: map[int]bool{}, boolean: map[int]bool{}, instances: map[string]*memory{}}
	for _, t := range types {
		if t.Kind == wiretypes.KindPlugin {
			continue
		}
		p.types[t.Index] = true
		if t.Kind == wiretypes.KindField && t.Modulus.Cmp(big.NewInt(2)) == 0 {
			p.boolean[t.Index] = true
		}
	}
	return p
}

func (p *Plugin) Name() string { return "ram" }

func (p *Plugin) SupportsType(t wiretypes.Type) bool { return p.types[t.Index] }

// Create binds init/read/write for a named instance. binding.Params[0]
// must be the instance's name (text); init's binding.Params[1] is its
// size (numeric) and its single input range is the fill value.
func (p *Plugin) Create(t wiretypes.Type, binding plugin.Binding, outputs, inputs []interp.TypeCount) (plugin.Operation, error) {
	if len(binding.Params) == 0 || !binding.Params[0].IsText {
		return nil, fmt.Errorf("ram: operation %q needs a named instance as its first parameter", binding.OperationName)
	}
	name := binding.Params[0].Text
	bundled := p.boolean[t.Index] && binding.OperationName != "" && hasBundledSuffix(binding.OperationName)
	op := trimBundledSuffix(binding.OperationName)

	switch op {
	case "init":
		if len(binding.Params) < 2 || binding.Params[1].IsText {
			return nil, fmt.Errorf("ram: init needs a numeric size as its second parameter")
		}
		if len(inputs) != 1 {
			return nil, fmt.Errorf("ram: init wants exactly one fill-value input range")
		}
		size := uint64(binding.Params[1].Number)
		return &initOp{plugin: p, name: name, size: size, wordWidth: inputs[0].Count, bundled: bundled, typeIndex: t.Index}, nil
	case "read":
		if len(inputs) != 1 || inputs[0].Count != 1 {
			return nil, fmt.Errorf("ram: read wants exactly one single-wire address input")
		}
		if len(outputs) != 1 {
			return nil, fmt.Errorf("ram: read wants exactly one output range (the word)")
		}
		return &readOp{plugin: p, name: name, bundled: bundled, typeIndex: t.Index}, nil
	case "write":
		if len(inputs) != 2 || inputs[0].Count != 1 {
			return nil, fmt.Errorf("ram: write wants a single-wire address and one value input range")
		}
		return &writeOp{plugin: p, name: name, bundled: bundled, typeIndex: t.Index}, nil
	default:
		return nil, nil
	}
}

func hasBundledSuffix(op string) bool   { return len(op) > 8 && op[len(op)-8:] == "_bundled" }
func trimBundledSuffix(op string) string {
	if hasBundledSuffix(op) {
		return op[:len(op)-8]
	}
	return op
}

func window(eng interp.TypeEngine, sp interp.TypedSpan) ([]*big.Int, error) {
	w, err := eng.BorrowWindow(sp.First, sp.Last)
	if err != nil {
		return nil, err
	}
	return w.([]*big.Int), nil
}

func reserve(eng interp.TypeEngine, sp interp.TypedSpan) ([]*big.Int, error) {
	w, err := eng.ReserveWindow(sp.First, sp.Last)
	if err != nil {
		return nil, err
	}
	return w.([]*big.Int), nil
}

// bundle packs a word's boolean wire values into one bitstring and
// immediately unpacks it back to []*big.Int, matching the read/write
// path a real bit-bundled store would take through its packed encoding
// on the wire between cells (spec.md §4.I "bit-bundled boolean
// representation" — the packing is the representation, not an added
// constraint).
func bundle(bits []*big.Int) ([]*big.Int, error) {
	builder := funbit.NewBuilder()
	for _, b := range bits {
		builder = builder.AddInteger(b.Uint64(), funbit.WithSize(1))
	}
	packed, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("ram: bit-bundling %d wires: %w", len(bits), err)
	}

	parser := funbit.NewParser(packed)
	out := make([]*big.Int, len(bits))
	vals := make([]uint64, len(bits))
	for i := range vals {
		parser = parser.Field(funbit.WithVariable(&vals[i]), funbit.WithSize(1))
	}
	if _, err := parser.Parse(); err != nil {
		return nil, fmt.Errorf("ram: bit-unbundling %d wires: %w", len(bits), err)
	}
	for i, v := range vals {
		out[i] = new(big.Int).SetUint64(v)
	}
	return out, nil
}

type initOp struct {
	plugin    *Plugin
	name      string
	size      uint64
	wordWidth uint64
	bundled   bool
	typeIndex int
}

func (o *initOp) Evaluate(engines map[int]interp.TypeEngine, outputs, inputs []interp.TypedSpan) error {
	eng, ok := engines[o.typeIndex]
	if !ok {
		return fmt.Errorf("ram: no engine registered for type %d", o.typeIndex)
	}
	fill, err := window(eng, inputs[0])
	if err != nil {
		return err
	}
	if o.bundled {
		if fill, err = bundle(fill); err != nil {
			return err
		}
	}

	cells := make([][]*big.Int, o.size)
	for i := range cells {
		word := make([]*big.Int, o.wordWidth)
		copy(word, fill)
		cells[i] = word
	}
	o.plugin.instances[o.name] = &memory{wordWidth: o.wordWidth, cells: cells}
	return nil
}

type readOp struct {
	plugin    *Plugin
	name      string
	bundled   bool
	typeIndex int
}

func (o *readOp) Evaluate(engines map[int]interp.TypeEngine, outputs, inputs []interp.TypedSpan) error {
	eng, ok := engines[o.typeIndex]
	if !ok {
		return fmt.Errorf("ram: no engine registered for type %d", o.typeIndex)
	}
	mem, ok := o.plugin.instances[o.name]
	if !ok {
		return fmt.Errorf("ram: read from uninitialized instance %q", o.name)
	}
	addr, err := window(eng, inputs[0])
	if err != nil {
		return err
	}
	idx := addr[0].Uint64()
	if idx >= uint64(len(mem.cells)) {
		return fmt.Errorf("ram: read address %d out of bounds for instance %q of size %d", idx, o.name, len(mem.cells))
	}

	out, err := reserve(eng, outputs[0])
	if err != nil {
		return err
	}
	word := mem.cells[idx]
	if o.bundled {
		if word, err = bundle(word); err != nil {
			return err
		}
	}
	copy(out, word)
	return eng.CommitAssigned(outputs[0].First, outputs[0].Last)
}

type writeOp struct {
	plugin    *Plugin
	name      string
	bundled   bool
	typeIndex int
}

func (o *writeOp) Evaluate(engines map[int]interp.TypeEngine, outputs, inputs []interp.TypedSpan) error {
	eng, ok := engines[o.typeIndex]
	if !ok {
		return fmt.Errorf("ram: no engine registered for type %d", o.typeIndex)
	}
	mem, ok := o.plugin.instances[o.name]
	if !ok {
		return fmt.Errorf("ram: write to uninitialized instance %q", o.name)
	}
	addr, err := window(eng, inputs[0])
	if err != nil {
		return err
	}
	idx := addr[0].Uint64()
	if idx >= uint64(len(mem.cells)) {
		return fmt.Errorf("ram: write address %d out of bounds for instance %q of size %d", idx, o.name, len(mem.cells))
	}
	val, err := window(eng, inputs[1])
	if err != nil {
		return err
	}
	if o.bundled {
		if val, err = bundle(val); err != nil {
			return err
		}
	}

	word := make([]*big.Int, len(val))
	copy(word, val)
	mem.cells[idx] = word
	return nil
}

var _ plugin.Plugin = (*Plugin)(nil)
