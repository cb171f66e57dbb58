package diagnostics

import (
	"testing"

	"github.com/jhump/protoreflect/dynamic"
)

func TestProtoExporterMarshalRoundTrip(t *testing.T) {
	x, err := NewProtoExporter()
	if err != nil {
		t.Fatalf("new exporter: %v", err)
	}

	counters := []Counters{
		{TypeIndex: 0, GateCount: 10, MaxLiveWire: 4, AssertZeros: 2},
		{TypeIndex: 1, GateCount: 3, MaxLiveWire: 1, AssertZeros: 0},
	}

	data, err := x.Marshal(counters)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	report := dynamic.NewMessage(x.report)
	if err := report.Unmarshal(data); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	got, ok := report.GetFieldByName("counters").([]interface{})
	if !ok || len(got) != 2 {
		t.Fatalf("counters = %#v, want 2 entries", got)
	}

	first, ok := got[0].(*dynamic.Message)
	if !ok {
		t.Fatalf("entry 0 is %T, want *dynamic.Message", got[0])
	}
	if v, _ := first.GetFieldByName("gate_count").(uint64); v != 10 {
		t.Fatalf("entry 0 gate_count = %v, want 10", v)
	}
}

func TestProtoExporterMarshalEmpty(t *testing.T) {
	x, err := NewProtoExporter()
	if err != nil {
		t.Fatalf("new exporter: %v", err)
	}
	data, err := x.Marshal(nil)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if len(data) != 0 {
		t.Fatalf("empty report should marshal to zero bytes, got %d", len(data))
	}
}
