package pipeline

import (
	"github.com/wtk-go/sievecore/internal/circuit"
	"github.com/wtk-go/sievecore/internal/config"
	"github.com/wtk-go/sievecore/internal/diagnostics"
)

// Driver pushes one circuit's directive stream through an already-wired
// Adapter. It stands in for whatever external parser decodes a relation
// file and calls DeclareType/AddGate/.../Finish in order (spec.md §1: "a
// parser ... remains an external collaborator named only by interface").
type Driver func(*circuit.Adapter) error

// PipelineContext threads one circuit run through Configure, Drive and
// Check. Fields fill in left to right as each stage runs; a stage that
// fails sets Err and leaves every field after it untouched.
type PipelineContext struct {
	RunnerConfig *config.RunnerConfig
	Drive        Driver
	Observer     *diagnostics.CountingObserver

	Adapter *circuit.Adapter
	Passed  bool
	Err     error
}

// NewPipelineContext starts a run from a runner config and a Driver. The
// Driver is normally a closure over a relation file's already-parsed
// directive list, or over a live decoder reading one directive at a time.
func NewPipelineContext(cfg *config.RunnerConfig, drive Driver) *PipelineContext {
	return &PipelineContext{
		RunnerConfig: cfg,
		Drive:        drive,
		Observer:     diagnostics.NewCountingObserver(),
	}
}
