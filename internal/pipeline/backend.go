package pipeline

import (
	"fmt"
	"math/big"

	"github.com/wtk-go/sievecore/internal/backendref"
	"github.com/wtk-go/sievecore/internal/circuit"
	"github.com/wtk-go/sievecore/internal/config"
	"github.com/wtk-go/sievecore/internal/diagnostics"
	"github.com/wtk-go/sievecore/internal/interp"
	"github.com/wtk-go/sievecore/internal/plugin"
	"github.com/wtk-go/sievecore/internal/plugins/arith"
	"github.com/wtk-go/sievecore/internal/plugins/itermap"
	"github.com/wtk-go/sievecore/internal/plugins/mux"
	"github.com/wtk-go/sievecore/internal/plugins/ram"
	"github.com/wtk-go/sievecore/internal/plugins/vectors"
	"github.com/wtk-go/sievecore/internal/wiretypes"
)

// buildAdapter wires an engine/converter factory pair matching cfg.Backend
// and the requested standard plugins into a fresh circuit.Adapter. The
// factories close over observer so every declared type's gate/assert-zero/
// live-wire activity is visible to the run's CountingObserver.
//
// declaredTypes is the circuit's header, known to whatever external parser
// is about to drive the Adapter (spec.md §1's "a parser ... remains an
// external collaborator"). Standard plugins bind per-type at construction
// (internal/plugins/vectors.New and friends), and the Adapter itself only
// learns the type set when its own header closes, so declaredTypes has to
// reach the plugin constructors by a side channel ahead of the Driver
// replaying the same declarations into the Adapter.
//
// streams declares which field/ring types carry nonempty public/private
// input material; every other type gets an empty stream pair (fine as
// long as the circuit never issues a public_in/private_in directive for
// it — see interp.TypeInterpreter's nil-stream contract).
func buildAdapter(cfg *config.RunnerConfig, observer *diagnostics.CountingObserver, declaredTypes []wiretypes.Type, streams StreamProvider) (*circuit.Adapter, error) {
	engineFactory, converterFactory, err := backendFactories(cfg, observer)
	if err != nil {
		return nil, err
	}

	sp := streams
	if sp == nil {
		sp = func(wiretypes.Type) (interp.Stream, interp.Stream) { return nil, nil }
	}

	impls, err := pluginImpls(cfg.Plugins, declaredTypes)
	if err != nil {
		return nil, err
	}

	return circuit.NewAdapter(engineFactory, converterFactory, sp, impls...), nil
}

// StreamProvider supplies a type's public/private input streams; an alias
// of circuit.StreamProvider kept local so pipeline callers don't need to
// import internal/circuit just to pass one in.
type StreamProvider = circuit.StreamProvider

func backendFactories(cfg *config.RunnerConfig, observer *diagnostics.CountingObserver) (circuit.EngineFactory, circuit.ConverterFactory, error) {
	switch cfg.Backend {
	case config.BackendReference:
		engineFactory := func(t wiretypes.Type, public, private interp.Stream) (interp.TypeEngine, error) {
			backend, err := referenceBackend(t)
			if err != nil {
				return nil, err
			}
			return interp.NewTypeInterpreter[*big.Int](t, backend, public, private, observer), nil
		}
		converterFactory := func(outType wiretypes.Type, outLen int, inType wiretypes.Type, inLen int) (interp.ConverterBackend, error) {
			return &backendref.DigitConverter{InModulus: inType.MaxValue(), OutModulus: outType.MaxValue()}, nil
		}
		return engineFactory, converterFactory, nil

	case config.BackendRemote:
		engineFactory := func(t wiretypes.Type, public, private interp.Stream) (interp.TypeEngine, error) {
			rb, err := backendref.DialRemoteBackend(cfg.RemoteTarget)
			if err != nil {
				return nil, err
			}
			return interp.NewTypeInterpreter[*big.Int](t, rb, public, private, observer), nil
		}
		converterFactory := func(outType wiretypes.Type, outLen int, inType wiretypes.Type, inLen int) (interp.ConverterBackend, error) {
			return backendref.DialRemoteBackend(cfg.RemoteTarget)
		}
		return engineFactory, converterFactory, nil

	default:
		return nil, nil, fmt.Errorf("pipeline: unknown backend %q", cfg.Backend)
	}
}

func referenceBackend(t wiretypes.Type) (*backendref.ArithBackend, error) {
	switch t.Kind {
	case wiretypes.KindField:
		return backendref.NewFieldBackend(t.Modulus), nil
	case wiretypes.KindRing:
		return backendref.NewRingBackend(t.Width), nil
	default:
		return nil, fmt.Errorf("pipeline: reference backend has no arithmetic for plugin type %q", t.Plugin)
	}
}

func pluginImpls(names []string, declaredTypes []wiretypes.Type) ([]plugin.Plugin, error) {
	var impls []plugin.Plugin
	for _, name := range names {
		switch name {
		case config.PluginVectors:
			impls = append(impls, vectors.New(declaredTypes))
		case config.PluginMux:
			impls = append(impls, mux.New(declaredTypes))
		case config.PluginExtendedArith:
			impls = append(impls, arith.New(declaredTypes))
		case config.PluginRAM:
			impls = append(impls, ram.New(declaredTypes))
		case config.PluginIterationMap:
			impls = append(impls, itermap.New(declaredTypes))
		default:
			return nil, fmt.Errorf("pipeline: unknown plugin %q", name)
		}
	}
	return impls, nil
}
