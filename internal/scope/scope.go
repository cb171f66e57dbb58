// Package scope implements the per-type, per-frame wire memory manager
// (spec.md §3 "Scope", §4.C). A Scope owns a sorted sequence of physical
// ranges plus two skip-lists — assigned and active — that define correctness
// independently of physical storage layout.
//
// Generalizes the teacher's outer-chain Environment
// (internal/evaluator/environment.go, Get/Set/Update over a name-keyed map)
// from name-keyed values to index-range-keyed wire storage, and its
// pointer-and-offset intuition is realized the way spec.md §9 asks: ranges
// hold plain Go slices (arena-backed for "new" ranges, caller-owned for
// remapped ranges, independently growable for ordinary local ranges) instead
// of raw aliased pointers.
package scope

import (
	"fmt"
	"sort"

	"github.com/wtk-go/sievecore/internal/arena"
	"github.com/wtk-go/sievecore/internal/ranges"
)

// ErrKind names a Scope-level failure mode (spec.md §4.C's per-op table).
type ErrKind string

const (
	ErrAlreadyExists     ErrKind = "AlreadyExists"
	ErrCannotDeleteRemap ErrKind = "CannotDeleteRemap"
	ErrUnmatchedDelete   ErrKind = "UnmatchedDelete"
	ErrNotAssigned       ErrKind = "NotAssigned"
	ErrDeleted           ErrKind = "Deleted"
	ErrDiscontiguous     ErrKind = "Discontiguous"
	ErrOutOfOrder        ErrKind = "OutOfOrder"
	ErrInvalidRange      ErrKind = "InvalidRange"
)

// Error is the error type every Scope operation returns.
type Error struct {
	Kind ErrKind
	Msg  string
}

func (e *Error) Error() string { return fmt.Sprintf("%s: %s", e.Kind, e.Msg) }

func errf(kind ErrKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// rangeRecord is one physical, contiguous block of wire storage.
type rangeRecord[V any] struct {
	first, last uint64
	storage     []V
	isNew       bool // fixed span reserved by an explicit new_range
	remapped    bool // aliases caller-owned storage
	canGrow     bool // may absorb the next contiguous local assignment
}

// Scope owns one type's wire storage within one call frame.
type Scope[V any] struct {
	recs       []*rangeRecord[V]
	assigned   *ranges.Set
	active     *ranges.Set
	pool       arena.Pool[V]
	firstLocal uint64
	frozen     bool // true once any local op has occurred; blocks further remapping
}

// New returns an empty Scope ready to receive remaps and local assignments.
func New[V any]() *Scope[V] {
	return &Scope[V]{assigned: ranges.NewSet(), active: ranges.NewSet()}
}

// FirstLocal returns the current boundary between remapped and local wire
// indices: wires < FirstLocal() must be remapped, wires >= FirstLocal() must
// be local (spec.md §3).
func (s *Scope[V]) FirstLocal() uint64 { return s.firstLocal }

func (s *Scope[V]) findRecIdx(idx uint64) int {
	i := sort.Search(len(s.recs), func(i int) bool { return s.recs[i].last >= idx })
	if i < len(s.recs) && s.recs[i].first <= idx {
		return i
	}
	return -1
}

func (s *Scope[V]) recAt(idx uint64) *rangeRecord[V] {
	i := s.findRecIdx(idx)
	if i < 0 {
		return nil
	}
	return s.recs[i]
}

func (s *Scope[V]) recsOverlapping(first, last uint64) []*rangeRecord[V] {
	i := sort.Search(len(s.recs), func(i int) bool { return s.recs[i].last >= first })
	var out []*rangeRecord[V]
	for ; i < len(s.recs) && s.recs[i].first <= last; i++ {
		out = append(out, s.recs[i])
	}
	return out
}

func (s *Scope[V]) insertRecord(r *rangeRecord[V]) error {
	i := sort.Search(len(s.recs), func(i int) bool { return s.recs[i].last >= r.first })
	if i < len(s.recs) && s.recs[i].first <= r.last {
		return errf(ErrAlreadyExists, "range [%d,%d] overlaps an existing range", r.first, r.last)
	}
	s.recs = append(s.recs, nil)
	copy(s.recs[i+1:], s.recs[i:])
	s.recs[i] = r
	return nil
}

func (s *Scope[V]) removeRecord(target *rangeRecord[V]) {
	for i, r := range s.recs {
		if r == target {
			s.recs = append(s.recs[:i], s.recs[i+1:]...)
			return
		}
	}
}

func (s *Scope[V]) replaceRecord(old *rangeRecord[V], news ...*rangeRecord[V]) {
	for i, r := range s.recs {
		if r == old {
			merged := make([]*rangeRecord[V], 0, len(s.recs)-1+len(news))
			merged = append(merged, s.recs[:i]...)
			merged = append(merged, news...)
			merged = append(merged, s.recs[i+1:]...)
			s.recs = merged
			return
		}
	}
}

// NewRange reserves a fresh, fixed-size range [first,last]. All of its wires
// start unassigned.
func (s *Scope[V]) NewRange(first, last uint64) error {
	if first > last {
		return errf(ErrInvalidRange, "first %d > last %d", first, last)
	}
	_, storage := s.pool.Allocate(int(last - first + 1))
	r := &rangeRecord[V]{first: first, last: last, storage: storage, isNew: true}
	if err := s.insertRecord(r); err != nil {
		return err
	}
	s.frozen = true
	return nil
}

// DeleteRange removes wires [first,last]. A delete that matches a `new`
// range's declared span exactly drops that range as a whole; a delete
// touching an ordinary range splits or shrinks it. A delete that only
// partially overlaps a `new` range, or that touches any remapped range, is
// rejected (spec.md's Open Question: partial deletion must match a
// contiguous allocation boundary, error otherwise).
func (s *Scope[V]) DeleteRange(first, last uint64) error {
	if first > last {
		return errf(ErrInvalidRange, "first %d > last %d", first, last)
	}
	if !s.active.HasAll(first, last) {
		return errf(ErrNotAssigned, "delete target [%d,%d] includes unassigned or already-deleted wires", first, last)
	}
	touched := s.recsOverlapping(first, last)
	for _, r := range touched {
		if r.remapped {
			return errf(ErrCannotDeleteRemap, "cannot delete remapped wires [%d,%d]", first, last)
		}
	}
	for _, r := range touched {
		if r.isNew && !(r.first == first && r.last == last) {
			return errf(ErrUnmatchedDelete, "delete [%d,%d] does not match new range [%d,%d] exactly", first, last, r.first, r.last)
		}
	}
	for _, r := range touched {
		s.shrinkOrSplit(r, first, last)
	}
	s.active.RemoveRange(first, last)
	return nil
}

func (s *Scope[V]) shrinkOrSplit(r *rangeRecord[V], first, last uint64) {
	lo, hi := first, last
	if lo < r.first {
		lo = r.first
	}
	if hi > r.last {
		hi = r.last
	}
	switch {
	case lo == r.first && hi == r.last:
		s.removeRecord(r)
	case lo == r.first:
		drop := hi - r.first + 1
		r.storage = r.storage[drop:]
		r.first = hi + 1
	case hi == r.last:
		keep := lo - r.first
		r.storage = r.storage[:keep]
		r.last = lo - 1
	default:
		leftLen := lo - r.first
		gapLen := hi - lo + 1
		left := &rangeRecord[V]{first: r.first, last: lo - 1, storage: r.storage[:leftLen], canGrow: false, isNew: r.isNew}
		right := &rangeRecord[V]{first: hi + 1, last: r.last, storage: r.storage[leftLen+gapLen:], canGrow: r.canGrow, isNew: r.isNew}
		s.replaceRecord(r, left, right)
	}
}

// Retrieve borrows wire idx's current value for read. It fails if idx was
// never assigned, or fails with ErrDeleted if idx was assigned and then
// deleted (no revival: spec.md §8 property 2).
func (s *Scope[V]) Retrieve(idx uint64) (V, error) {
	var zero V
	if s.active.Has(idx) {
		r := s.recAt(idx)
		if r == nil {
			return zero, errf(ErrNotAssigned, "wire %d has no backing range", idx)
		}
		return r.storage[idx-r.first], nil
	}
	if s.assigned.Has(idx) {
		return zero, errf(ErrDeleted, "wire %d was deleted", idx)
	}
	return zero, errf(ErrNotAssigned, "wire %d was never assigned", idx)
}

// Assign obtains a mutable slot for a brand-new assignment to idx. It may
// extend the most recently opened growable local range if idx is
// contiguous with it, or open a new one-wire growable range, or (for wires
// already backed by a `new` or remapped-output range) simply claim the
// existing slot.
func (s *Scope[V]) Assign(idx uint64) (*V, error) {
	if s.assigned.Has(idx) {
		return nil, errf(ErrAlreadyExists, "wire %d already assigned", idx)
	}

	r := s.recAt(idx)
	if r == nil {
		if idx < s.firstLocal {
			return nil, errf(ErrNotAssigned, "wire %d is below first_local with no remapped range", idx)
		}
		if n := len(s.recs); n > 0 {
			last := s.recs[n-1]
			if last.canGrow && last.last+1 == idx {
				last.storage = append(last.storage, *new(V))
				last.last = idx
				r = last
			}
		}
		if r == nil {
			rec := &rangeRecord[V]{first: idx, last: idx, storage: make([]V, 1), canGrow: true}
			if err := s.insertRecord(rec); err != nil {
				return nil, err
			}
			r = rec
		}
	}

	s.frozen = true
	s.assigned.Insert(idx)
	s.active.Insert(idx)
	return &r.storage[idx-r.first], nil
}

// Window returns the backing slice for [first,last] if it is covered by a
// single physical range record; it fails with ErrDiscontiguous otherwise.
func (s *Scope[V]) Window(first, last uint64) ([]V, error) {
	r := s.recAt(first)
	if r == nil || last > r.last {
		return nil, errf(ErrDiscontiguous, "[%d,%d] is not backed by one contiguous range", first, last)
	}
	return r.storage[first-r.first : last-r.first+1], nil
}

// FindOutputs reserves contiguous, currently-unassigned storage for
// [first,last] in this (caller) Scope, creating a backing range if none
// exists yet. The caller then hands Window(first,last) to the callee's
// MapOutputs. It fails with ErrAlreadyExists if any wire is already
// assigned, or ErrDiscontiguous if the span crosses more than one existing
// range.
func (s *Scope[V]) FindOutputs(first, last uint64) error {
	if first > last {
		return errf(ErrInvalidRange, "first %d > last %d", first, last)
	}
	if s.assigned.HasAny(first, last) {
		return errf(ErrAlreadyExists, "output range [%d,%d] overlaps an assigned wire", first, last)
	}
	touched := s.recsOverlapping(first, last)
	switch len(touched) {
	case 0:
		rec := &rangeRecord[V]{first: first, last: last, storage: make([]V, last-first+1)}
		return s.insertRecord(rec)
	case 1:
		if touched[0].first == first && touched[0].last == last {
			return nil
		}
		return errf(ErrDiscontiguous, "output range [%d,%d] does not align with existing range [%d,%d]", first, last, touched[0].first, touched[0].last)
	default:
		return errf(ErrDiscontiguous, "output range [%d,%d] crosses %d existing ranges", first, last, len(touched))
	}
}

// FindInputs locates an existing, active, physically contiguous range of
// wires [first,last], suitable for handing to a callee's MapInputs. It
// fails with ErrNotAssigned if any wire is not active, or ErrDiscontiguous
// if the span is not backed by a single physical range.
func (s *Scope[V]) FindInputs(first, last uint64) error {
	if first > last {
		return errf(ErrInvalidRange, "first %d > last %d", first, last)
	}
	if !s.active.HasAll(first, last) {
		return errf(ErrNotAssigned, "input range [%d,%d] is not fully active", first, last)
	}
	if _, err := s.Window(first, last); err != nil {
		return err
	}
	return nil
}

// MapOutputs installs storage (caller-owned, unassigned) as the next
// remapped output range. It must precede any local assignment. It returns
// the local [first,last] address this Scope assigned to the range (first
// > last if storage is empty).
func (s *Scope[V]) MapOutputs(storage []V) (uint64, uint64, error) {
	return s.mapRemapped(storage, false)
}

// MapInputs installs storage (caller-owned, already active in the caller)
// as the next remapped input range, marking it assigned+active here too. It
// must precede any local assignment. It returns the local [first,last]
// address this Scope assigned to the range (first > last if storage is
// empty).
func (s *Scope[V]) MapInputs(storage []V) (uint64, uint64, error) {
	return s.mapRemapped(storage, true)
}

func (s *Scope[V]) mapRemapped(storage []V, input bool) (uint64, uint64, error) {
	if len(storage) == 0 {
		return 1, 0, nil
	}
	if s.frozen {
		return 0, 0, errf(ErrOutOfOrder, "remap attempted after a local operation")
	}
	first := s.firstLocal
	last := first + uint64(len(storage)) - 1
	r := &rangeRecord[V]{first: first, last: last, storage: storage, remapped: true}
	if err := s.insertRecord(r); err != nil {
		return 0, 0, err
	}
	if input {
		s.assigned.InsertRange(first, last)
		s.active.InsertRange(first, last)
	}
	s.firstLocal = last + 1
	return first, last, nil
}

// MarkAssigned marks [first,last] assigned and active in place, without
// touching storage. It is for callers (the converter registry) that wrote
// values directly through a slice returned by FindOutputs+Window instead of
// going through Assign one wire at a time.
func (s *Scope[V]) MarkAssigned(first, last uint64) error {
	if first > last {
		return errf(ErrInvalidRange, "first %d > last %d", first, last)
	}
	if s.assigned.HasAny(first, last) {
		return errf(ErrAlreadyExists, "range [%d,%d] already has an assigned wire", first, last)
	}
	if _, err := s.Window(first, last); err != nil {
		return err
	}
	s.frozen = true
	s.assigned.InsertRange(first, last)
	s.active.InsertRange(first, last)
	return nil
}

// OutputsComplete reports whether every wire in [first,last] has been
// assigned, used by the call machinery to validate a function's declared
// outputs were all produced before popping its frame.
func (s *Scope[V]) OutputsComplete(first, last uint64) bool {
	if first > last {
		return true
	}
	return s.assigned.HasAll(first, last)
}

// HighWater returns one past the highest wire index this Scope has ever
// backed with storage (local or remapped). Plugin operations that need
// scratch wires of their own reserve a fresh range starting here, since
// indices below it may already be live or may be revived by a later
// relation directive and indices at or above it never have been.
func (s *Scope[V]) HighWater() uint64 {
	hw := s.firstLocal
	if n := len(s.recs); n > 0 {
		if last := s.recs[n-1].last + 1; last > hw {
			hw = last
		}
	}
	return hw
}

// LiveWireCount returns the number of currently active wires, for
// diagnostics high-water tracking.
func (s *Scope[V]) LiveWireCount() uint64 {
	var n uint64
	s.active.ForEach(func(first, last uint64) { n += last - first + 1 })
	return n
}
