package backendref

import (
	"math/big"
	"testing"
)

// TestDialRemoteBackendResolvesSchema exercises the embedded-schema parse
// and method lookup without requiring a reachable server: grpc.NewClient
// dials lazily, so construction alone already proves the proto schema
// parses and the Backend service's methods resolve.
func TestDialRemoteBackendResolvesSchema(t *testing.T) {
	b, err := DialRemoteBackend("127.0.0.1:0")
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer b.conn.Close()

	for _, name := range []string{"FromConstant", "AddGate", "MulGate", "AddConstGate", "MulConstGate", "AssertZero", "PublicIn", "PrivateIn", "Convert", "Check", "Finish"} {
		if _, ok := b.methods[name]; !ok {
			t.Fatalf("method %q missing from resolved service descriptor", name)
		}
	}
}

func TestRemoteBackendValueRoundTrip(t *testing.T) {
	b, err := DialRemoteBackend("127.0.0.1:0")
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer b.conn.Close()

	want := big.NewInt(12345)
	msg := b.value(want)
	got := readValue(msg)
	if got.Cmp(want) != 0 {
		t.Fatalf("roundtrip = %v, want %v", got, want)
	}
}

func TestRemoteBackendUnreachableMarksFailed(t *testing.T) {
	b, err := DialRemoteBackend("127.0.0.1:1")
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer b.Finish()

	if ok := b.Check(); ok {
		t.Fatalf("Check against an unreachable target should fail")
	}
}
