// RemoteBackend forwards every Backend/ConverterBackend callback to an
// out-of-process ZK backend over gRPC, instead of evaluating gates
// in-process the way ArithBackend does. There is no protoc-generated
// client: the wire schema is an embedded .proto source parsed at dial
// time with protoparse, and every call is built as a dynamic.Message —
// exactly the pattern internal/evaluator/builtins_grpc.go's grpcInvoke
// builtin uses to call a method discovered only by name at runtime.
package backendref

import (
	"context"
	"fmt"
	"math/big"

	"github.com/jhump/protoreflect/desc"
	"github.com/jhump/protoreflect/desc/protoparse"
	"github.com/jhump/protoreflect/dynamic"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// remoteBackendProto is the wire schema for the remote backend service.
// Values cross the wire as big-endian byte strings (big.Int.Bytes /
// SetBytes); the service has no notion of field vs. ring, it just carries
// opaque integers and trusts the modulus negotiated out of band.
const remoteBackendProto = `
syntax = "proto3";
package sievecore.backend;

message Value { bytes digits = 1; }
message ValueList { repeated bytes digits = 1; }
message GateRequest { Value a = 1; Value b = 2; }
message ConvertRequest { ValueList in = 1; int32 out_count = 2; bool modulus = 3; }
message ConvertReply { ValueList out = 1; }
message Empty {}
message BoolReply { bool value = 1; }

service Backend {
  rpc FromConstant(Value) returns (Value);
  rpc AddGate(GateRequest) returns (Value);
  rpc MulGate(GateRequest) returns (Value);
  rpc AddConstGate(GateRequest) returns (Value);
  rpc MulConstGate(GateRequest) returns (Value);
  rpc AssertZero(Value) returns (Empty);
  rpc PublicIn(Value) returns (Value);
  rpc PrivateIn(Value) returns (Value);
  rpc Convert(ConvertRequest) returns (ConvertReply);
  rpc Check(Empty) returns (BoolReply);
  rpc Finish(Empty) returns (Empty);
}
`

// RemoteBackend implements interp.Backend[*big.Int] and
// interp.ConverterBackend by round-tripping every operation through a
// gRPC connection. A dial failure or any RPC failure sets failed and is
// sticky for the lifetime of the backend, mirroring ArithBackend's
// AssertZero bookkeeping.
type RemoteBackend struct {
	conn    *grpc.ClientConn
	service *desc.ServiceDescriptor
	methods map[string]*desc.MethodDescriptor
	failed  bool
}

// DialRemoteBackend connects to target and resolves the Backend service
// out of the embedded proto schema. It does not negotiate a modulus: the
// remote process is expected to have been configured with the same
// circuit's field/ring parameters out of band.
func DialRemoteBackend(target string) (*RemoteBackend, error) {
	conn, err := grpc.NewClient(target, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("remote backend: dial %s: %w", target, err)
	}

	parser := protoparse.Parser{
		Accessor: protoparse.FileContentsFromMap(map[string]string{
			"sievecore_backend.proto": remoteBackendProto,
		}),
	}
	fds, err := parser.ParseFiles("sievecore_backend.proto")
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("remote backend: parse schema: %w", err)
	}
	svc := fds[0].FindService("sievecore.backend.Backend")
	if svc == nil {
		conn.Close()
		return nil, fmt.Errorf("remote backend: service not found in embedded schema")
	}

	methods := make(map[string]*desc.MethodDescriptor, len(svc.GetMethods()))
	for _, m := range svc.GetMethods() {
		methods[m.GetName()] = m
	}
	return &RemoteBackend{conn: conn, service: svc, methods: methods}, nil
}

func (b *RemoteBackend) invoke(name string, req, resp *dynamic.Message) error {
	md, ok := b.methods[name]
	if !ok {
		return fmt.Errorf("remote backend: no method %q in service descriptor", name)
	}
	path := "/" + b.service.GetFullyQualifiedName() + "/" + md.GetName()
	return b.conn.Invoke(context.Background(), path, req, resp)
}

// value builds a Value message carrying v's big-endian bytes.
func (b *RemoteBackend) value(v *big.Int) *dynamic.Message {
	md := b.methods["FromConstant"].GetInputType()
	msg := dynamic.NewMessage(md)
	if v != nil {
		msg.SetFieldByName("digits", v.Bytes())
	}
	return msg
}

func readValue(msg *dynamic.Message) *big.Int {
	digits, _ := msg.GetFieldByName("digits").([]byte)
	return new(big.Int).SetBytes(digits)
}

func (b *RemoteBackend) unary(name string, v *big.Int) *big.Int {
	if b.failed {
		return v
	}
	md := b.methods[name]
	resp := dynamic.NewMessage(md.GetOutputType())
	if err := b.invoke(name, b.value(v), resp); err != nil {
		b.failed = true
		return v
	}
	return readValue(resp)
}

func (b *RemoteBackend) gate(name string, a, c *big.Int) *big.Int {
	if b.failed {
		return a
	}
	md := b.methods[name]
	req := dynamic.NewMessage(md.GetInputType())
	req.SetFieldByName("a", b.value(a))
	req.SetFieldByName("b", b.value(c))
	resp := dynamic.NewMessage(md.GetOutputType())
	if err := b.invoke(name, req, resp); err != nil {
		b.failed = true
		return a
	}
	return readValue(resp)
}

func (b *RemoteBackend) FromConstant(v *big.Int) *big.Int { return b.unary("FromConstant", v) }

// Assign and Copy are local slot bookkeeping, not constraint-generating
// operations — there is nothing to forward across the wire for them, the
// value already lives on this side.
func (b *RemoteBackend) Assign(slot **big.Int, value *big.Int) { *slot = value }

func (b *RemoteBackend) Copy(dst **big.Int, src *big.Int) { *dst = src }

func (b *RemoteBackend) AddGate(dst **big.Int, a, c *big.Int) { *dst = b.gate("AddGate", a, c) }

func (b *RemoteBackend) MulGate(dst **big.Int, a, c *big.Int) { *dst = b.gate("MulGate", a, c) }

func (b *RemoteBackend) AddConstGate(dst **big.Int, a, c *big.Int) {
	*dst = b.gate("AddConstGate", a, c)
}

func (b *RemoteBackend) MulConstGate(dst **big.Int, a, c *big.Int) {
	*dst = b.gate("MulConstGate", a, c)
}

func (b *RemoteBackend) AssertZero(v *big.Int) {
	if b.failed {
		return
	}
	md := b.methods["AssertZero"]
	resp := dynamic.NewMessage(md.GetOutputType())
	if err := b.invoke("AssertZero", b.value(v), resp); err != nil {
		b.failed = true
	}
}

func (b *RemoteBackend) PublicIn(dst **big.Int, value *big.Int) {
	*dst = b.unary("PublicIn", value)
}

func (b *RemoteBackend) PrivateIn(dst **big.Int, value *big.Int) {
	*dst = b.unary("PrivateIn", value)
}

// Check asks the remote process whether every constraint it accumulated
// holds, short-circuiting to false if any prior RPC in this backend's
// lifetime already failed.
func (b *RemoteBackend) Check() bool {
	if b.failed {
		return false
	}
	md := b.methods["Check"]
	req := dynamic.NewMessage(md.GetInputType())
	resp := dynamic.NewMessage(md.GetOutputType())
	if err := b.invoke("Check", req, resp); err != nil {
		b.failed = true
		return false
	}
	ok, _ := resp.GetFieldByName("value").(bool)
	return ok
}

func (b *RemoteBackend) Finish() {
	md := b.methods["Finish"]
	req := dynamic.NewMessage(md.GetInputType())
	resp := dynamic.NewMessage(md.GetOutputType())
	_ = b.invoke("Finish", req, resp)
	b.conn.Close()
}

func (b *RemoteBackend) SupportsGates() bool { return true }

// SupportsExtendedWitness is false: the witness values live in the remote
// process, and this backend has no side channel back to the interpreter
// for them short of another RPC the plugin layer never asks for today.
func (b *RemoteBackend) SupportsExtendedWitness() bool { return false }

func (b *RemoteBackend) GetExtendedWitness(*big.Int) (*big.Int, bool) { return nil, false }

// Convert implements interp.ConverterBackend, forwarding a whole
// convert-directive's wire list in one RPC rather than one call per wire.
func (b *RemoteBackend) Convert(outWires any, inWires any, modulus bool) error {
	out := outWires.([]*big.Int)
	in := inWires.([]*big.Int)

	md := b.methods["Convert"]
	req := dynamic.NewMessage(md.GetInputType())
	inFd := req.GetMessageDescriptor().FindFieldByName("in")
	inList := dynamic.NewMessage(inFd.GetMessageType())
	digits := make([][]byte, len(in))
	for i, v := range in {
		if v == nil {
			v = new(big.Int)
		}
		digits[i] = v.Bytes()
	}
	inList.SetFieldByName("digits", digits)
	req.SetFieldByName("in", inList)
	req.SetFieldByName("out_count", int32(len(out)))
	req.SetFieldByName("modulus", modulus)

	resp := dynamic.NewMessage(md.GetOutputType())
	if err := b.invoke("Convert", req, resp); err != nil {
		b.failed = true
		return fmt.Errorf("remote backend: convert: %w", err)
	}

	outList, _ := resp.GetFieldByName("out").(*dynamic.Message)
	if outList == nil {
		return fmt.Errorf("remote backend: convert reply carried no output list")
	}
	raw, _ := outList.GetFieldByName("digits").([][]byte)
	if len(raw) != len(out) {
		return fmt.Errorf("remote backend: convert reply carried %d values, want %d", len(raw), len(out))
	}
	for i, d := range raw {
		out[i] = new(big.Int).SetBytes(d)
	}
	return nil
}
