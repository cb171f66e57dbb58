// Package plugin is component I: the type-erased, multi-wire-type plugin
// registry. A Plugin offers named operations that may be bound to more
// than one declared wire type without the core ever knowing a plugin's
// internal representation (spec.md §4.I).
//
// Grounded on internal/ext/virtual_package.go (a named, type-indexed
// registry of callable members) and internal/modules/module.go
// (package/module lookup by name), generalized from "named builtin
// function" to "named, per-wire-type Operation factory".
package plugin

import (
	"github.com/wtk-go/sievecore/internal/diagnostics"
	"github.com/wtk-go/sievecore/internal/interp"
	"github.com/wtk-go/sievecore/internal/wiretypes"
)

// Param is one plugin-binding parameter: textual or numeric (spec.md §3
// "Plugin binding").
type Param struct {
	Text   string
	Number int64
	IsText bool
}

// Binding names a plugin operation and its ordered parameters, as declared
// by a pluginFunction directive.
type Binding struct {
	PluginName    string
	OperationName string
	Params        []Param
}

// Operation is a bound, ready-to-run plugin-backed function body. It
// replaces a regular Function's recorded directive list (spec.md §4.F:
// "Plugin functions: skip step 3 [replay recorded directives]; instead ...
// call the plugin Operation").
type Operation interface {
	Evaluate(engines map[int]interp.TypeEngine, outputs, inputs []interp.TypedSpan) error
}

// Plugin is parameterized by wire type and registered under a name. A
// Plugin may support more than one declared type; SupportsType reports
// whether it claims a given one.
type Plugin interface {
	Name() string
	SupportsType(t wiretypes.Type) bool
	// Create attempts to bind binding's operation to type t for the given
	// signature. It returns (nil, nil) if it does not recognize the
	// operation name, or a non-nil error if it recognizes the operation
	// but rejects this signature (spec.md §7 PluginReject).
	Create(t wiretypes.Type, binding Binding, outputs, inputs []interp.TypeCount) (Operation, error)
}

// CatalogAware is implemented by a Plugin whose operations need to call
// back into the function catalog — spec.md §4.I's iteration_map applies a
// caller-named function to each parallel slice of its inputs, so it needs
// to invoke that function by name rather than emit gates of its own. The
// Manager and every other plugin never need this; it is bound once, right
// after the catalog itself is built (spec.md §3: a plugin_function binding
// only ever names a function already declared earlier in the stream).
type CatalogAware interface {
	BindCatalog(functions *interp.FunctionCatalog)
}

// Manager is the PluginsManager (spec.md §4.I): a name-keyed registry of
// Plugins, implementing the operation-creation protocol — search the
// call's input types, then its output types, for the first type a
// candidate plugin supports, and delegate to its Create.
type Manager struct {
	byName map[string][]Plugin
	types  *wiretypes.Set
}

func NewManager(types *wiretypes.Set) *Manager {
	return &Manager{byName: make(map[string][]Plugin), types: types}
}

func (m *Manager) Register(p Plugin) {
	m.byName[p.Name()] = append(m.byName[p.Name()], p)
}

// CreateOperation implements spec.md §4.I's operation-creation protocol.
func (m *Manager) CreateOperation(binding Binding, outputs, inputs []interp.TypeCount) (Operation, error) {
	candidates := m.byName[binding.PluginName]
	if len(candidates) == 0 {
		return nil, diagnostics.New(diagnostics.PluginReject, 0, "unknown plugin %q", binding.PluginName)
	}

	var order []int
	for _, c := range inputs {
		order = append(order, c.Type)
	}
	for _, c := range outputs {
		order = append(order, c.Type)
	}

	for _, idx := range order {
		ty, ok := m.types.Get(idx)
		if !ok {
			continue
		}
		for _, p := range candidates {
			if !p.SupportsType(ty) {
				continue
			}
			op, err := p.Create(ty, binding, outputs, inputs)
			if err != nil {
				return nil, diagnostics.New(diagnostics.PluginReject, 0, "plugin %q op %q: %v", binding.PluginName, binding.OperationName, err)
			}
			if op != nil {
				return op, nil
			}
		}
	}
	return nil, diagnostics.New(diagnostics.PluginReject, 0, "plugin %q has no candidate type for op %q", binding.PluginName, binding.OperationName)
}
