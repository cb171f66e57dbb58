package diagnostics

import (
	"sort"

	"github.com/google/uuid"
)

// FrameTrace correlates one function-call frame's lifetime across
// diagnostics and logs, the way a request id correlates a service call.
type FrameTrace struct {
	ID       string
	Function string
	Parent   string
}

// NewFrameTrace starts a trace for a call to function, linked to parent's id
// (empty for the top-level frame).
func NewFrameTrace(function, parent string) FrameTrace {
	return FrameTrace{ID: uuid.NewString(), Function: function, Parent: parent}
}

// Counters accumulates per-type backend statistics surfaced by diagnostics
// tooling (spec.md §7: "not part of the core's contract" to consumers, but
// useful for introspection).
type Counters struct {
	TypeIndex   int
	GateCount   uint64
	MaxLiveWire uint64
	AssertZeros uint64
}

// Observer receives Counters updates as a TypeInterpreter runs. It replaces
// the teacher's global mutable per-type counter structs (spec.md §9: "Move
// counters to explicit observer objects passed into the TypeInterpreter
// constructor, not to process-global state").
type Observer interface {
	OnGate(typeIndex int)
	OnAssertZero(typeIndex int)
	OnLiveWireHighWater(typeIndex int, live uint64)
}

// NopObserver discards all observations.
type NopObserver struct{}

func (NopObserver) OnGate(int)                      {}
func (NopObserver) OnAssertZero(int)                {}
func (NopObserver) OnLiveWireHighWater(int, uint64) {}

// CountingObserver is a concrete Observer that keeps Counters per type
// index, for tests and for the reference CLI's summary line.
type CountingObserver struct {
	byType map[int]*Counters
}

func NewCountingObserver() *CountingObserver {
	return &CountingObserver{byType: make(map[int]*Counters)}
}

func (o *CountingObserver) entry(typeIndex int) *Counters {
	c, ok := o.byType[typeIndex]
	if !ok {
		c = &Counters{TypeIndex: typeIndex}
		o.byType[typeIndex] = c
	}
	return c
}

func (o *CountingObserver) OnGate(typeIndex int) { o.entry(typeIndex).GateCount++ }

func (o *CountingObserver) OnAssertZero(typeIndex int) { o.entry(typeIndex).AssertZeros++ }

func (o *CountingObserver) OnLiveWireHighWater(typeIndex int, live uint64) {
	c := o.entry(typeIndex)
	if live > c.MaxLiveWire {
		c.MaxLiveWire = live
	}
}

// Snapshot returns a stable-ordered copy of the accumulated counters.
func (o *CountingObserver) Snapshot() []Counters {
	out := make([]Counters, 0, len(o.byType))
	for _, c := range o.byType {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TypeIndex < out[j].TypeIndex })
	return out
}
