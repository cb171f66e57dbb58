package interp

import (
	"math/big"

	"github.com/wtk-go/sievecore/internal/diagnostics"
	"github.com/wtk-go/sievecore/internal/scope"
	"github.com/wtk-go/sievecore/internal/wiretypes"
)

// TypeInterpreter is component D (spec.md §4.D): the per-declared-type
// dispatcher. It owns one backend, its public/private input streams, and a
// stack of Scopes (one per open call frame of this type). It implements
// TypeEngine, which erases V for the top-level Interpreter, the function
// catalog, and the converter registry.
//
// Grounded on internal/vm.VM's frame-stack discipline, generalized from one
// shared VM stack to one stack per declared type (spec.md §9).
type TypeInterpreter[V any] struct {
	typ      wiretypes.Type
	backend  Backend[V]
	public   Stream
	private  Stream
	observer diagnostics.Observer

	stack  []*scope.Scope[V]
	failed *diagnostics.Error
}

// NewTypeInterpreter constructs a TypeInterpreter with one top-level frame
// already open. public/private may be nil if the type never appears in a
// public_in/private_in directive.
func NewTypeInterpreter[V any](typ wiretypes.Type, backend Backend[V], public, private Stream, observer diagnostics.Observer) *TypeInterpreter[V] {
	if observer == nil {
		observer = diagnostics.NopObserver{}
	}
	return &TypeInterpreter[V]{
		typ:      typ,
		backend:  backend,
		public:   public,
		private:  private,
		observer: observer,
		stack:    []*scope.Scope[V]{scope.New[V]()},
	}
}

func (ti *TypeInterpreter[V]) top() *scope.Scope[V] { return ti.stack[len(ti.stack)-1] }

func (ti *TypeInterpreter[V]) caller() *scope.Scope[V] { return ti.stack[len(ti.stack)-2] }

func (ti *TypeInterpreter[V]) guard() error {
	if ti.failed != nil {
		return ti.failed
	}
	return nil
}

// fail records err as the first sticky failure (if none is recorded yet)
// and returns it, wrapping a non-diagnostics error (typically *scope.Error)
// as a BadRelation.
func (ti *TypeInterpreter[V]) fail(err error) *diagnostics.Error {
	de, ok := err.(*diagnostics.Error)
	if !ok {
		de = diagnostics.New(diagnostics.BadRelation, 0, "%v", err)
	}
	if ti.failed == nil {
		ti.failed = de
	}
	return de
}

func (ti *TypeInterpreter[V]) Fail(err *diagnostics.Error) {
	if ti.failed == nil {
		ti.failed = err
	}
}

func (ti *TypeInterpreter[V]) Failed() *diagnostics.Error { return ti.failed }

func (ti *TypeInterpreter[V]) TypeIndex() int { return ti.typ.Index }

func (ti *TypeInterpreter[V]) checkConst(c *big.Int) error {
	if !ti.typ.InRange(c) {
		return diagnostics.New(diagnostics.BadRelation, 0, "constant %s out of range for %s", c.String(), ti.typ.String())
	}
	return nil
}

func (ti *TypeInterpreter[V]) Add(out, left, right uint64) error {
	if err := ti.guard(); err != nil {
		return err
	}
	a, err := ti.top().Retrieve(left)
	if err != nil {
		return ti.fail(err)
	}
	b, err := ti.top().Retrieve(right)
	if err != nil {
		return ti.fail(err)
	}
	slot, err := ti.top().Assign(out)
	if err != nil {
		return ti.fail(err)
	}
	ti.backend.AddGate(slot, a, b)
	ti.observeGate()
	return nil
}

func (ti *TypeInterpreter[V]) Mul(out, left, right uint64) error {
	if err := ti.guard(); err != nil {
		return err
	}
	a, err := ti.top().Retrieve(left)
	if err != nil {
		return ti.fail(err)
	}
	b, err := ti.top().Retrieve(right)
	if err != nil {
		return ti.fail(err)
	}
	slot, err := ti.top().Assign(out)
	if err != nil {
		return ti.fail(err)
	}
	ti.backend.MulGate(slot, a, b)
	ti.observeGate()
	return nil
}

func (ti *TypeInterpreter[V]) AddC(out, left uint64, c *big.Int) error {
	if err := ti.guard(); err != nil {
		return err
	}
	if err := ti.checkConst(c); err != nil {
		return ti.fail(err)
	}
	a, err := ti.top().Retrieve(left)
	if err != nil {
		return ti.fail(err)
	}
	slot, err := ti.top().Assign(out)
	if err != nil {
		return ti.fail(err)
	}
	ti.backend.AddConstGate(slot, a, ti.backend.FromConstant(c))
	ti.observeGate()
	return nil
}

func (ti *TypeInterpreter[V]) MulC(out, left uint64, c *big.Int) error {
	if err := ti.guard(); err != nil {
		return err
	}
	if err := ti.checkConst(c); err != nil {
		return ti.fail(err)
	}
	a, err := ti.top().Retrieve(left)
	if err != nil {
		return ti.fail(err)
	}
	slot, err := ti.top().Assign(out)
	if err != nil {
		return ti.fail(err)
	}
	ti.backend.MulConstGate(slot, a, ti.backend.FromConstant(c))
	ti.observeGate()
	return nil
}

func (ti *TypeInterpreter[V]) Copy(out, left uint64) error {
	if err := ti.guard(); err != nil {
		return err
	}
	v, err := ti.top().Retrieve(left)
	if err != nil {
		return ti.fail(err)
	}
	slot, err := ti.top().Assign(out)
	if err != nil {
		return ti.fail(err)
	}
	ti.backend.Copy(slot, v)
	ti.observeGate()
	return nil
}

func (ti *TypeInterpreter[V]) CopyMulti(outFirst, outLast uint64, inputs []WireSpan) error {
	if err := ti.guard(); err != nil {
		return err
	}
	if err := ti.top().FindOutputs(outFirst, outLast); err != nil {
		return ti.fail(err)
	}
	outWin, err := ti.top().Window(outFirst, outLast)
	if err != nil {
		return ti.fail(err)
	}
	pos := 0
	for _, sp := range inputs {
		if err := ti.top().FindInputs(sp.First, sp.Last); err != nil {
			return ti.fail(err)
		}
		inWin, err := ti.top().Window(sp.First, sp.Last)
		if err != nil {
			return ti.fail(err)
		}
		for _, v := range inWin {
			if pos >= len(outWin) {
				return ti.fail(diagnostics.New(diagnostics.BadRelation, 0, "copy_multi inputs exceed declared output length"))
			}
			ti.backend.Copy(&outWin[pos], v)
			pos++
		}
	}
	if pos != len(outWin) {
		return ti.fail(diagnostics.New(diagnostics.BadRelation, 0, "copy_multi inputs (%d) do not match declared output length (%d)", pos, len(outWin)))
	}
	if err := ti.top().MarkAssigned(outFirst, outLast); err != nil {
		return ti.fail(err)
	}
	ti.observeGate()
	return nil
}

func (ti *TypeInterpreter[V]) Assign(out uint64, c *big.Int) error {
	if err := ti.guard(); err != nil {
		return err
	}
	if err := ti.checkConst(c); err != nil {
		return ti.fail(err)
	}
	slot, err := ti.top().Assign(out)
	if err != nil {
		return ti.fail(err)
	}
	*slot = ti.backend.FromConstant(c)
	ti.observeGate()
	return nil
}

func (ti *TypeInterpreter[V]) AssertZero(w uint64) error {
	if err := ti.guard(); err != nil {
		return err
	}
	v, err := ti.top().Retrieve(w)
	if err != nil {
		return ti.fail(err)
	}
	ti.backend.AssertZero(v)
	ti.observer.OnAssertZero(ti.typ.Index)
	return nil
}

func (ti *TypeInterpreter[V]) PublicIn(out uint64) error {
	if err := ti.guard(); err != nil {
		return err
	}
	v, err := ti.public.Next()
	if err != nil {
		return ti.fail(diagnostics.New(diagnostics.BadStream, 0, "public input stream for %s: %v", ti.typ.String(), err))
	}
	if err := ti.checkConst(v); err != nil {
		de := err.(*diagnostics.Error)
		de.Category = diagnostics.BadStream
		return ti.fail(de)
	}
	slot, err := ti.top().Assign(out)
	if err != nil {
		return ti.fail(err)
	}
	ti.backend.PublicIn(slot, ti.backend.FromConstant(v))
	ti.observeGate()
	return nil
}

func (ti *TypeInterpreter[V]) PrivateIn(out uint64) error {
	if err := ti.guard(); err != nil {
		return err
	}
	v, err := ti.private.Next()
	if err != nil {
		return ti.fail(diagnostics.New(diagnostics.BadStream, 0, "private input stream for %s: %v", ti.typ.String(), err))
	}
	if err := ti.checkConst(v); err != nil {
		de := err.(*diagnostics.Error)
		de.Category = diagnostics.BadStream
		return ti.fail(de)
	}
	slot, err := ti.top().Assign(out)
	if err != nil {
		return ti.fail(err)
	}
	ti.backend.PrivateIn(slot, ti.backend.FromConstant(v))
	ti.observeGate()
	return nil
}

func (ti *TypeInterpreter[V]) PublicInMulti(first, last uint64) error {
	for idx := first; idx <= last; idx++ {
		if err := ti.PublicIn(idx); err != nil {
			return err
		}
	}
	return nil
}

func (ti *TypeInterpreter[V]) PrivateInMulti(first, last uint64) error {
	for idx := first; idx <= last; idx++ {
		if err := ti.PrivateIn(idx); err != nil {
			return err
		}
	}
	return nil
}

func (ti *TypeInterpreter[V]) NewRange(first, last uint64) error {
	if err := ti.guard(); err != nil {
		return err
	}
	if err := ti.top().NewRange(first, last); err != nil {
		return ti.fail(err)
	}
	return nil
}

func (ti *TypeInterpreter[V]) DeleteRange(first, last uint64) error {
	if err := ti.guard(); err != nil {
		return err
	}
	if err := ti.top().DeleteRange(first, last); err != nil {
		return ti.fail(err)
	}
	return nil
}

func (ti *TypeInterpreter[V]) ReserveScratch(n uint64) (uint64, uint64, error) {
	if err := ti.guard(); err != nil {
		return 0, 0, err
	}
	if n == 0 {
		return 1, 0, nil
	}
	first := ti.top().HighWater()
	last := first + n - 1
	if err := ti.top().NewRange(first, last); err != nil {
		return 0, 0, ti.fail(err)
	}
	return first, last, nil
}

func (ti *TypeInterpreter[V]) PushFrame() error {
	if err := ti.guard(); err != nil {
		return err
	}
	ti.stack = append(ti.stack, scope.New[V]())
	return nil
}

func (ti *TypeInterpreter[V]) PopFrame() error {
	if err := ti.guard(); err != nil {
		return err
	}
	if len(ti.stack) <= 1 {
		return ti.fail(diagnostics.New(diagnostics.BadRelation, 0, "pop_frame without a matching push"))
	}
	ti.stack = ti.stack[:len(ti.stack)-1]
	return nil
}

func (ti *TypeInterpreter[V]) FindOutputs(first, last uint64) error {
	if err := ti.guard(); err != nil {
		return err
	}
	if err := ti.top().FindOutputs(first, last); err != nil {
		return ti.fail(err)
	}
	return nil
}

func (ti *TypeInterpreter[V]) FindInputs(first, last uint64) error {
	if err := ti.guard(); err != nil {
		return err
	}
	if err := ti.top().FindInputs(first, last); err != nil {
		return ti.fail(err)
	}
	return nil
}

func (ti *TypeInterpreter[V]) MapOutputs(callerFirst, callerLast uint64) (uint64, uint64, error) {
	if err := ti.guard(); err != nil {
		return 0, 0, err
	}
	win, err := ti.caller().Window(callerFirst, callerLast)
	if err != nil {
		return 0, 0, ti.fail(err)
	}
	first, last, err := ti.top().MapOutputs(win)
	if err != nil {
		return 0, 0, ti.fail(err)
	}
	return first, last, nil
}

func (ti *TypeInterpreter[V]) MapInputs(callerFirst, callerLast uint64) (uint64, uint64, error) {
	if err := ti.guard(); err != nil {
		return 0, 0, err
	}
	win, err := ti.caller().Window(callerFirst, callerLast)
	if err != nil {
		return 0, 0, ti.fail(err)
	}
	first, last, err := ti.top().MapInputs(win)
	if err != nil {
		return 0, 0, ti.fail(err)
	}
	return first, last, nil
}

func (ti *TypeInterpreter[V]) OutputsComplete(first, last uint64) bool {
	return ti.top().OutputsComplete(first, last)
}

func (ti *TypeInterpreter[V]) BorrowWindow(first, last uint64) (any, error) {
	if err := ti.guard(); err != nil {
		return nil, err
	}
	if err := ti.top().FindInputs(first, last); err != nil {
		return nil, ti.fail(err)
	}
	win, err := ti.top().Window(first, last)
	if err != nil {
		return nil, ti.fail(err)
	}
	return win, nil
}

func (ti *TypeInterpreter[V]) ReserveWindow(first, last uint64) (any, error) {
	if err := ti.guard(); err != nil {
		return nil, err
	}
	if err := ti.top().FindOutputs(first, last); err != nil {
		return nil, ti.fail(err)
	}
	win, err := ti.top().Window(first, last)
	if err != nil {
		return nil, ti.fail(err)
	}
	return win, nil
}

func (ti *TypeInterpreter[V]) CommitAssigned(first, last uint64) error {
	if err := ti.guard(); err != nil {
		return err
	}
	if err := ti.top().MarkAssigned(first, last); err != nil {
		return ti.fail(err)
	}
	return nil
}

// Retrieve reads a wire's current value from this TypeInterpreter's top
// frame, for callers outside the core that need to read out a circuit's
// final witness values (e.g. a CLI summary or an exporter).
func (ti *TypeInterpreter[V]) Retrieve(idx uint64) (V, error) {
	return ti.top().Retrieve(idx)
}

func (ti *TypeInterpreter[V]) CheckBackend() bool { return ti.backend.Check() }

func (ti *TypeInterpreter[V]) FinishBackend() { ti.backend.Finish() }

func (ti *TypeInterpreter[V]) observeGate() {
	ti.observer.OnGate(ti.typ.Index)
	ti.observer.OnLiveWireHighWater(ti.typ.Index, ti.top().LiveWireCount())
}

var _ TypeEngine = (*TypeInterpreter[int])(nil)
