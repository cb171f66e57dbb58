package diagnostics

import (
	"fmt"

	"github.com/jhump/protoreflect/desc"
	"github.com/jhump/protoreflect/desc/protoparse"
	"github.com/jhump/protoreflect/dynamic"
)

// countersProto is the wire schema a ProtoExporter marshals Counters
// snapshots into, for tooling that wants protobuf-wire-format diagnostics
// rather than the in-process Counters struct. Parsed once per Exporter
// with protoparse, the same embedded-schema-plus-dynamic.Message pattern
// internal/evaluator/builtins_grpc.go uses for its proto builtins — there
// is no protoc-generated stub anywhere in this module.
const countersProto = `
syntax = "proto3";
package sievecore.diagnostics;

message Counter {
  int32 type_index = 1;
  uint64 gate_count = 2;
  uint64 max_live_wire = 3;
  uint64 assert_zeros = 4;
}

message Report { repeated Counter counters = 1; }
`

// ProtoExporter marshals a run's accumulated Counters into the Report
// message described by countersProto.
type ProtoExporter struct {
	report  *desc.MessageDescriptor
	counter *desc.FieldDescriptor
}

// NewProtoExporter parses the embedded schema and resolves the Report
// message descriptor.
func NewProtoExporter() (*ProtoExporter, error) {
	parser := protoparse.Parser{
		Accessor: protoparse.FileContentsFromMap(map[string]string{
			"sievecore_diagnostics.proto": countersProto,
		}),
	}
	fds, err := parser.ParseFiles("sievecore_diagnostics.proto")
	if err != nil {
		return nil, fmt.Errorf("diagnostics: parse schema: %w", err)
	}
	report := fds[0].FindMessage("sievecore.diagnostics.Report")
	if report == nil {
		return nil, fmt.Errorf("diagnostics: Report message not found in embedded schema")
	}
	return &ProtoExporter{report: report, counter: report.FindFieldByName("counters")}, nil
}

// Marshal encodes a Counters snapshot (see CountingObserver.Snapshot) as a
// Report message in protobuf wire format.
func (x *ProtoExporter) Marshal(counters []Counters) ([]byte, error) {
	report := dynamic.NewMessage(x.report)
	entryMd := x.counter.GetMessageType()

	entries := make([]interface{}, 0, len(counters))
	for _, c := range counters {
		entry := dynamic.NewMessage(entryMd)
		entry.SetFieldByName("type_index", int32(c.TypeIndex))
		entry.SetFieldByName("gate_count", c.GateCount)
		entry.SetFieldByName("max_live_wire", c.MaxLiveWire)
		entry.SetFieldByName("assert_zeros", c.AssertZeros)
		entries = append(entries, entry)
	}
	if err := report.TrySetField(x.counter, entries); err != nil {
		return nil, fmt.Errorf("diagnostics: set counters: %w", err)
	}

	return report.Marshal()
}
