// Package ranges implements a compact set of uint64 wire indices, stored as a
// sorted list of maximal, non-overlapping, non-adjacent [first, last] spans.
package ranges

import "sort"

// Span is a closed interval [First, Last].
type Span struct {
	First, Last uint64
}

func (s Span) contains(x uint64) bool { return x >= s.First && x <= s.Last }

// Set is a sorted, gap-filled collection of Spans. The zero value is an empty
// set ready to use.
type Set struct {
	spans []Span
}

// NewSet returns an empty Set.
func NewSet() *Set {
	return &Set{}
}

// indexOf returns the index of the first span whose Last >= x, or len(spans)
// if none does.
func (s *Set) indexOf(x uint64) int {
	return sort.Search(len(s.spans), func(i int) bool {
		return s.spans[i].Last >= x
	})
}

// Has reports whether x is present.
func (s *Set) Has(x uint64) bool {
	i := s.indexOf(x)
	return i < len(s.spans) && s.spans[i].contains(x)
}

// HasAny reports whether any element of [first,last] is present.
func (s *Set) HasAny(first, last uint64) bool {
	i := s.indexOf(first)
	for ; i < len(s.spans) && s.spans[i].First <= last; i++ {
		if s.spans[i].Last >= first {
			return true
		}
	}
	return false
}

// HasAll reports whether every element of [first,last] is present.
func (s *Set) HasAll(first, last uint64) bool {
	cur := first
	i := s.indexOf(first)
	for cur <= last {
		if i >= len(s.spans) || s.spans[i].First > cur {
			return false
		}
		if s.spans[i].Last >= last {
			return true
		}
		cur = s.spans[i].Last + 1
		i++
	}
	return true
}

// Insert adds a single element. It fails (returns false) if x is already
// present, merging with adjacent spans when the result stays contiguous.
func (s *Set) Insert(x uint64) bool {
	return s.InsertRange(x, x)
}

// InsertRange adds the closed interval [first,last]. It fails if first > last
// or if any element of the interval is already present.
func (s *Set) InsertRange(first, last uint64) bool {
	if first > last {
		return false
	}
	if s.HasAny(first, last) {
		return false
	}

	i := s.indexOf(first)

	mergeLeft := i > 0 && s.spans[i-1].Last+1 == first
	mergeRight := i < len(s.spans) && last+1 == s.spans[i].First

	switch {
	case mergeLeft && mergeRight:
		s.spans[i-1].Last = s.spans[i].Last
		s.spans = append(s.spans[:i], s.spans[i+1:]...)
	case mergeLeft:
		s.spans[i-1].Last = last
	case mergeRight:
		s.spans[i].First = first
	default:
		s.spans = append(s.spans, Span{})
		copy(s.spans[i+1:], s.spans[i:])
		s.spans[i] = Span{First: first, Last: last}
	}
	return true
}

// Remove deletes a single element. It fails if x is absent.
func (s *Set) Remove(x uint64) bool {
	return s.RemoveRange(x, x)
}

// RemoveRange deletes the closed interval [first,last]. It fails if first >
// last or if any element of the interval is absent.
func (s *Set) RemoveRange(first, last uint64) bool {
	if first > last || !s.HasAll(first, last) {
		return false
	}

	i := s.indexOf(first)
	for i < len(s.spans) && s.spans[i].First <= last {
		sp := s.spans[i]
		switch {
		case sp.First >= first && sp.Last <= last:
			// Fully covered: drop the span.
			s.spans = append(s.spans[:i], s.spans[i+1:]...)
			continue
		case sp.First < first && sp.Last > last:
			// Interior cut: split into two spans.
			right := Span{First: last + 1, Last: sp.Last}
			s.spans[i].Last = first - 1
			s.spans = append(s.spans, Span{})
			copy(s.spans[i+2:], s.spans[i+1:])
			s.spans[i+1] = right
			i += 2
		case sp.First < first:
			// Trim the tail.
			s.spans[i].Last = first - 1
			i++
		default:
			// Trim the head.
			s.spans[i].First = last + 1
			i++
		}
	}
	return true
}

// ForEach visits every span in ascending order.
func (s *Set) ForEach(fn func(first, last uint64)) {
	for _, sp := range s.spans {
		fn(sp.First, sp.Last)
	}
}

// ForRange visits every span intersected with [first,last], in ascending
// order, clipped to that window.
func (s *Set) ForRange(first, last uint64, fn func(first, last uint64)) {
	i := s.indexOf(first)
	for ; i < len(s.spans) && s.spans[i].First <= last; i++ {
		lo := s.spans[i].First
		if lo < first {
			lo = first
		}
		hi := s.spans[i].Last
		if hi > last {
			hi = last
		}
		fn(lo, hi)
	}
}

// Len returns the number of spans (not the number of elements).
func (s *Set) Len() int { return len(s.spans) }

// Empty reports whether the set holds no elements.
func (s *Set) Empty() bool { return len(s.spans) == 0 }

// Clone returns an independent copy of the set.
func (s *Set) Clone() *Set {
	out := &Set{spans: make([]Span, len(s.spans))}
	copy(out.spans, s.spans)
	return out
}
