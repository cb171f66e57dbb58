package wiretypes

import (
	"math/big"
	"testing"
)

func TestFieldInRange(t *testing.T) {
	f := Field(0, big.NewInt(7))
	if !f.InRange(big.NewInt(0)) || !f.InRange(big.NewInt(6)) {
		t.Fatalf("0 and p-1 must be in range")
	}
	if f.InRange(big.NewInt(7)) {
		t.Fatalf("p itself must be out of range")
	}
	if f.InRange(big.NewInt(-1)) {
		t.Fatalf("negative values must be out of range")
	}
}

func TestRingInRange(t *testing.T) {
	r := Ring(1, 8)
	if !r.InRange(big.NewInt(255)) {
		t.Fatalf("2^8-1 must be in range for an 8-bit ring")
	}
	if r.InRange(big.NewInt(256)) {
		t.Fatalf("2^8 must be out of range for an 8-bit ring")
	}
}

func TestPluginTypeAlwaysInRange(t *testing.T) {
	p := Plugin(2, "ram_v0")
	if !p.InRange(big.NewInt(-5)) {
		t.Fatalf("plugin types have no numeric domain the core validates")
	}
}

func TestNewSetRequiresDenseIndices(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on non-dense indices")
		}
	}()
	NewSet([]Type{Field(0, big.NewInt(7)), Field(2, big.NewInt(11))})
}

func TestSetGet(t *testing.T) {
	s := NewSet([]Type{Field(0, big.NewInt(7)), Ring(1, 8)})
	if s.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", s.Len())
	}
	if _, ok := s.Get(2); ok {
		t.Fatalf("Get(2) should miss on a 2-element set")
	}
	ty, ok := s.Get(1)
	if !ok || ty.Kind != KindRing {
		t.Fatalf("Get(1) = %+v, %v; want a ring type", ty, ok)
	}
}
