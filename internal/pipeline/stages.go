package pipeline

import (
	"github.com/wtk-go/sievecore/internal/wiretypes"
)

// ConfigureProcessor builds ctx.Adapter from ctx.RunnerConfig: it selects
// the backend (reference or remote), registers the requested standard
// plugins bound to DeclaredTypes, and installs the run's StreamProvider.
// A failure here (unknown backend, unknown plugin name) sets ctx.Err and
// leaves Adapter nil; later stages see that and no-op. A remote backend is
// only dialed when the circuit header closes, so an unreachable remote
// target does not fail this stage.
type ConfigureProcessor struct {
	// DeclaredTypes is the circuit's header, read ahead of time by
	// whatever decodes the relation file that ctx.Drive will replay.
	DeclaredTypes []wiretypes.Type
	// Streams supplies per-type public/private input; nil means every
	// type gets an empty pair (fine unless the circuit issues a
	// public_in/private_in directive for it).
	Streams StreamProvider
}

func (p ConfigureProcessor) Process(ctx *PipelineContext) *PipelineContext {
	if ctx.Err != nil {
		return ctx
	}
	adapter, err := buildAdapter(ctx.RunnerConfig, ctx.Observer, p.DeclaredTypes, p.Streams)
	if err != nil {
		ctx.Err = err
		return ctx
	}
	ctx.Adapter = adapter
	return ctx
}

// DriveProcessor hands the configured Adapter to ctx.Drive, which issues
// every header and body directive against it in order. Any error the
// driver returns (a malformed relation, a rejected directive) is recorded
// without panicking, matching the teacher's Pipeline.Run contract: a
// failing stage does not stop the run.
type DriveProcessor struct{}

func (DriveProcessor) Process(ctx *PipelineContext) *PipelineContext {
	if ctx.Err != nil || ctx.Adapter == nil {
		return ctx
	}
	if err := ctx.Drive(ctx.Adapter); err != nil {
		ctx.Err = err
	}
	return ctx
}

// CheckProcessor closes the circuit and records whether it verified. A
// prior stage's error short-circuits this: an unfinished or undriven
// circuit cannot be said to have passed.
type CheckProcessor struct{}

func (CheckProcessor) Process(ctx *PipelineContext) *PipelineContext {
	if ctx.Err != nil || ctx.Adapter == nil {
		return ctx
	}
	passed, err := ctx.Adapter.Finish()
	if err != nil {
		ctx.Err = err
		return ctx
	}
	ctx.Passed = passed
	return ctx
}
