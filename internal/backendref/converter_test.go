package backendref

import (
	"math/big"
	"testing"
)

func TestDigitConverterRoundTrip(t *testing.T) {
	c := &DigitConverter{InModulus: big.NewInt(2), OutModulus: big.NewInt(16)}
	in := []*big.Int{big.NewInt(1), big.NewInt(0), big.NewInt(1), big.NewInt(1)} // bits LSB-first: 1+4+8=13
	out := make([]*big.Int, 1)
	if err := c.Convert(out, in, false); err != nil {
		t.Fatalf("convert: %v", err)
	}
	if out[0].Cmp(big.NewInt(13)) != 0 {
		t.Fatalf("out[0] = %s, want 13", out[0].String())
	}
}

func TestDigitConverterOverflowRejectedWithoutModulus(t *testing.T) {
	c := &DigitConverter{InModulus: big.NewInt(16), OutModulus: big.NewInt(2)}
	in := []*big.Int{big.NewInt(15)} // value 15 needs 4 bits
	out := make([]*big.Int, 2)       // only 2 bits of capacity
	if err := c.Convert(out, in, false); err == nil {
		t.Fatalf("no_modulus conversion that overflows the output width must fail")
	}
}

func TestDigitConverterWrapsWithModulus(t *testing.T) {
	c := &DigitConverter{InModulus: big.NewInt(16), OutModulus: big.NewInt(2)}
	in := []*big.Int{big.NewInt(15)}
	out := make([]*big.Int, 2)
	if err := c.Convert(out, in, true); err != nil {
		t.Fatalf("convert: %v", err)
	}
	// 15 mod 4 = 3 = bits [1,1]
	if out[0].Cmp(big.NewInt(1)) != 0 || out[1].Cmp(big.NewInt(1)) != 0 {
		t.Fatalf("out = [%s,%s], want [1,1]", out[0].String(), out[1].String())
	}
}
