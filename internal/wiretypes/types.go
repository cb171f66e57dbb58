// Package wiretypes declares the SIEVE IR type model: a type is a prime
// field, a bit-width ring, or a plugin-defined opaque type, each assigned a
// stable, dense, zero-based type index in declaration order.
//
// This generalizes the teacher's typesystem.Kind/Type split (value kinds vs
// type-constructor kinds) to field/ring/plugin kinds; unlike the teacher's
// type system there is no inference here, every wire's type is explicit in
// the incoming directive stream (spec.md §3).
package wiretypes

import (
	"fmt"
	"math/big"
)

// Kind distinguishes the three closed forms a Type can take.
type Kind int

const (
	KindField Kind = iota
	KindRing
	KindPlugin
)

func (k Kind) String() string {
	switch k {
	case KindField:
		return "field"
	case KindRing:
		return "ring"
	case KindPlugin:
		return "plugin"
	default:
		return "unknown"
	}
}

// Type is one declared SIEVE type: a prime field with modulus p, a ring of
// bit-width w, or an opaque plugin type. Index is the type's stable,
// zero-based position in the circuit header's type declaration order.
type Type struct {
	Index   int
	Kind    Kind
	Modulus *big.Int // set for KindField: elements lie in [0, Modulus)
	Width   uint32   // set for KindRing: elements lie in [0, 2^Width)
	Plugin  string   // set for KindPlugin: the plugin name that owns this type
}

// Field constructs a prime-field type with the given index and modulus.
func Field(index int, modulus *big.Int) Type {
	return Type{Index: index, Kind: KindField, Modulus: new(big.Int).Set(modulus)}
}

// Ring constructs a ring type of bit-width w with the given index.
func Ring(index int, width uint32) Type {
	return Type{Index: index, Kind: KindRing, Width: width}
}

// Plugin constructs an opaque plugin-owned type with the given index.
func Plugin(index int, pluginName string) Type {
	return Type{Index: index, Kind: KindPlugin, Plugin: pluginName}
}

// MaxValue returns the exclusive upper bound for constants of this type: p
// for a field, 2^w for a ring. It panics for plugin types, which have no
// numeric domain the core can validate.
func (t Type) MaxValue() *big.Int {
	switch t.Kind {
	case KindField:
		return t.Modulus
	case KindRing:
		return new(big.Int).Lsh(big.NewInt(1), uint(t.Width))
	default:
		panic("wiretypes: MaxValue called on a plugin type")
	}
}

// InRange reports whether v is a legal constant for this type: 0 <= v <
// MaxValue(). Out-of-range constants are a BadRelation error (spec.md §4.D).
func (t Type) InRange(v *big.Int) bool {
	if t.Kind == KindPlugin {
		return true
	}
	if v.Sign() < 0 {
		return false
	}
	return v.Cmp(t.MaxValue()) < 0
}

func (t Type) String() string {
	switch t.Kind {
	case KindField:
		return fmt.Sprintf("field[%d](p=%s)", t.Index, t.Modulus.String())
	case KindRing:
		return fmt.Sprintf("ring[%d](w=%d)", t.Index, t.Width)
	default:
		return fmt.Sprintf("plugin[%d](%s)", t.Index, t.Plugin)
	}
}

// Set is the ordered, dense, immutable-after-construction list of a
// circuit's declared types, indexed by type index (spec.md §3: "type indices
// are dense and immutable for the lifetime of a circuit").
type Set struct {
	types []Type
}

// NewSet builds a Set from types already in index order. It panics if the
// indices are not exactly 0..len-1 in order, since that invariant is
// established once at header-decode time and never revisited.
func NewSet(types []Type) *Set {
	for i, t := range types {
		if t.Index != i {
			panic(fmt.Sprintf("wiretypes: type at position %d declares index %d", i, t.Index))
		}
	}
	out := make([]Type, len(types))
	copy(out, types)
	return &Set{types: out}
}

// Get returns the type at idx, or false if idx is out of range.
func (s *Set) Get(idx int) (Type, bool) {
	if idx < 0 || idx >= len(s.types) {
		return Type{}, false
	}
	return s.types[idx], true
}

// Len returns the number of declared types.
func (s *Set) Len() int { return len(s.types) }
