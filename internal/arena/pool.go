// Package arena provides batched arena allocation for short-lived,
// value-typed objects such as per-type wire storage.
//
// It generalizes the growth-increment slabs used by the teacher's VM stack
// and call-frame arrays (see internal/vm.InitialStackSize,
// internal/vm.StackGrowthIncrement) into a reusable pool: one grow-only slab
// per batch, handed out as stable Handles rather than raw pointers, so a
// Scope can reference storage without aliasing Go pointers across frames
// (spec.md §9, "pointer-and-offset range storage").
package arena

// InitialBatchSize is the size of the first slab a Pool allocates.
const InitialBatchSize = 256

// GrowthIncrement is how much a slab grows when more slots are needed beyond
// its current capacity.
const GrowthIncrement = 256

// Handle identifies a contiguous run of n elements within a Pool. It stays
// valid for the Pool's lifetime; the Pool never moves or frees a batch once
// allocated, so a Handle's elements have a stable address for as long as the
// Pool lives.
type Handle struct {
	batch int
	off   int
	n     int
}

// Pool is a batched allocator for values of type T. The zero value is ready
// to use.
type Pool[T any] struct {
	batches [][]T
}

// Allocate returns a Handle to a contiguous run of n default-constructed T,
// along with a slice view over them. Batches never move, so the slice stays
// valid until Reset.
func (p *Pool[T]) Allocate(n int) (Handle, []T) {
	if n <= 0 {
		return Handle{batch: -1}, nil
	}
	for i := range p.batches {
		if free := cap(p.batches[i]) - len(p.batches[i]); free >= n {
			off := len(p.batches[i])
			p.batches[i] = p.batches[i][:off+n]
			return Handle{batch: i, off: off, n: n}, p.batches[i][off : off+n]
		}
	}
	size := InitialBatchSize
	if len(p.batches) > 0 {
		size = GrowthIncrement
	}
	for size < n {
		size += GrowthIncrement
	}
	batch := make([]T, n, size)
	p.batches = append(p.batches, batch)
	idx := len(p.batches) - 1
	return Handle{batch: idx, off: 0, n: n}, p.batches[idx][0:n]
}

// Slice returns the live view for a previously allocated Handle.
func (p *Pool[T]) Slice(h Handle) []T {
	if h.batch < 0 {
		return nil
	}
	return p.batches[h.batch][h.off : h.off+h.n]
}

// Len returns the number of batches currently held (for diagnostics).
func (p *Pool[T]) Len() int { return len(p.batches) }

// Reset releases every batch. Handles issued before Reset become invalid.
func (p *Pool[T]) Reset() {
	p.batches = nil
}
