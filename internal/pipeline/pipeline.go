// Package pipeline composes a circuit run into named stages — configure,
// drive, check — the same Processor/PipelineContext shape the teacher
// uses to wire parse → analyze → evaluate (internal/pipeline/pipeline.go),
// repurposed here for header-decode → interpret → check (spec.md §6.1's
// three-phase circuit lifecycle).
package pipeline

// Processor is one stage of a run, transforming a PipelineContext.
type Processor interface {
	Process(ctx *PipelineContext) *PipelineContext
}

// Pipeline represents a sequence of processing stages.
type Pipeline struct {
	processors []Processor
}

func New(processors ...Processor) *Pipeline {
	return &Pipeline{processors: processors}
}

// Run executes the pipeline. Like the teacher's Pipeline.Run, a failing
// stage does not stop the run — later stages see ctx.Err already set and
// are expected to no-op rather than vanish, so every stage gets a chance
// to leave diagnostics behind.
func (p *Pipeline) Run(initialCtx *PipelineContext) *PipelineContext {
	ctx := initialCtx
	for _, processor := range p.processors {
		ctx = processor.Process(ctx)
	}
	return ctx
}
