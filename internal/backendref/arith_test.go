package backendref

import (
	"math/big"
	"testing"
)

func TestArithBackendGates(t *testing.T) {
	b := NewFieldBackend(big.NewInt(7))
	a := b.FromConstant(big.NewInt(5))
	c := b.FromConstant(big.NewInt(4))
	var sum, prod *big.Int
	b.AddGate(&sum, a, c)
	b.MulGate(&prod, a, c)
	if sum.Cmp(big.NewInt(2)) != 0 { // 5+4=9 mod 7 = 2
		t.Fatalf("sum = %s, want 2", sum.String())
	}
	if prod.Cmp(big.NewInt(6)) != 0 { // 5*4=20 mod 7 = 6
		t.Fatalf("prod = %s, want 6", prod.String())
	}
}

func TestArithBackendAssertZero(t *testing.T) {
	b := NewFieldBackend(big.NewInt(7))
	b.AssertZero(big.NewInt(0))
	if !b.Check() {
		t.Fatalf("Check() should pass after only a satisfied assert_zero")
	}
	b.AssertZero(big.NewInt(1))
	if b.Check() {
		t.Fatalf("Check() should fail after a violated assert_zero")
	}
}

func TestRingBackendModulus(t *testing.T) {
	b := NewRingBackend(4) // mod 16
	v := b.FromConstant(big.NewInt(20))
	if v.Cmp(big.NewInt(4)) != 0 {
		t.Fatalf("20 mod 16 = %s, want 4", v.String())
	}
}
