package pipeline

import (
	"math/big"
	"testing"

	"github.com/wtk-go/sievecore/internal/circuit"
	"github.com/wtk-go/sievecore/internal/config"
	"github.com/wtk-go/sievecore/internal/interp"
	"github.com/wtk-go/sievecore/internal/wiretypes"
)

// runSingleAdd drives S1 (spec.md §8): assert that 3+4-7=0 over GF(7).
func runSingleAdd(cfg *config.RunnerConfig) *PipelineContext {
	field := wiretypes.Field(0, big.NewInt(7))

	streams := func(t wiretypes.Type) (interp.Stream, interp.Stream) {
		if t.Index != 0 {
			return nil, nil
		}
		return interp.NewSliceStream([]*big.Int{big.NewInt(3), big.NewInt(4)}), nil
	}

	drive := func(a *circuit.Adapter) error {
		if err := a.DeclareType(field); err != nil {
			return err
		}
		if err := a.PublicIn(0, 0, 1); err != nil {
			return err
		}
		if err := a.PublicIn(1, 0, 2); err != nil {
			return err
		}
		if err := a.AddGate(2, 0, 1, 0, 3); err != nil {
			return err
		}
		return a.AssertZero(2, 0, 4)
	}

	ctx := NewPipelineContext(cfg, drive)
	p := New(
		ConfigureProcessor{DeclaredTypes: []wiretypes.Type{field}, Streams: streams},
		DriveProcessor{},
		CheckProcessor{},
	)
	return p.Run(ctx)
}

func TestPipelineConfigureDriveCheck(t *testing.T) {
	cfg, err := config.ParseRunnerConfig(nil)
	if err != nil {
		t.Fatalf("parse default config: %v", err)
	}
	ctx := runSingleAdd(cfg)
	if ctx.Err != nil {
		t.Fatalf("pipeline error: %v", ctx.Err)
	}
	if !ctx.Passed {
		t.Fatalf("expected a passing circuit")
	}
	snap := ctx.Observer.Snapshot()
	if len(snap) != 1 || snap[0].GateCount != 1 || snap[0].AssertZeros != 1 {
		t.Fatalf("unexpected observer snapshot: %+v", snap)
	}
}

func TestPipelineUnknownBackendFailsConfigure(t *testing.T) {
	cfg := &config.RunnerConfig{Backend: "bogus"}
	field := wiretypes.Field(0, big.NewInt(7))
	drive := func(a *circuit.Adapter) error { return nil }

	ctx := NewPipelineContext(cfg, drive)
	p := New(
		ConfigureProcessor{DeclaredTypes: []wiretypes.Type{field}},
		DriveProcessor{},
		CheckProcessor{},
	)
	ctx = p.Run(ctx)
	if ctx.Err == nil {
		t.Fatalf("expected unknown backend to fail Configure")
	}
	if ctx.Adapter != nil {
		t.Fatalf("Adapter should stay nil after a failed Configure")
	}
}

func TestPipelineDriveErrorSkipsCheck(t *testing.T) {
	cfg, err := config.ParseRunnerConfig(nil)
	if err != nil {
		t.Fatalf("parse default config: %v", err)
	}
	field := wiretypes.Field(0, big.NewInt(7))
	drive := func(a *circuit.Adapter) error {
		// type 1 was never declared: DeclareType/AddGate mismatch.
		return a.AddGate(0, 0, 0, 1, 1)
	}

	ctx := NewPipelineContext(cfg, drive)
	p := New(
		ConfigureProcessor{DeclaredTypes: []wiretypes.Type{field}},
		DriveProcessor{},
		CheckProcessor{},
	)
	ctx = p.Run(ctx)
	if ctx.Err == nil {
		t.Fatalf("expected a driver error for an undeclared type")
	}
	if ctx.Passed {
		t.Fatalf("Passed must stay false when Check is skipped")
	}
}
