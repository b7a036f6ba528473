package symtab

import (
	"github.com/samber/lo"

	"github.com/blaze-lang/blaze/internal/codebuf"
)

const slotAlign = 8

func alignUp(n, align int32) int32 {
	return (n + align - 1) &^ (align - 1)
}

type scopeFrame struct {
	symbols     []*Symbol
	savedCursor int32
}

// Table is the scope stack of spec.md §4.3.
type Table struct {
	buf       *codebuf.Buffer
	scopes    []*scopeFrame
	cursor    int32 // bytes of frame space used by the innermost live scope chain
	maxCursor int32 // high-water mark of cursor ever reached, across all nested scopes
}

// New creates an empty table. buf supplies function-declaration labels.
func New(buf *codebuf.Buffer) *Table {
	return &Table{buf: buf}
}

// EnterScope pushes a new scope, snapshotting the current stack-offset
// high-water mark.
func (t *Table) EnterScope() {
	t.scopes = append(t.scopes, &scopeFrame{savedCursor: t.cursor})
}

// LeaveScope pops the innermost scope, restoring the exact high-water
// mark EnterScope observed (spec.md §8's testable invariant).
func (t *Table) LeaveScope() {
	n := len(t.scopes)
	if n == 0 {
		panic("symtab: LeaveScope without matching EnterScope")
	}
	frame := t.scopes[n-1]
	t.scopes = t.scopes[:n-1]
	t.cursor = frame.savedCursor
}

func (t *Table) innermost() *scopeFrame {
	if len(t.scopes) == 0 {
		panic("symtab: declaration outside any scope")
	}
	return t.scopes[len(t.scopes)-1]
}

func (t *Table) duplicateInScope(name string) bool {
	return lo.ContainsBy(t.innermost().symbols, func(s *Symbol) bool { return s.Name == name })
}

// DeclareVar declares a scalar variable of the given byte size.
func (t *Table) DeclareVar(name string, size int32, isFloat bool) (*Symbol, error) {
	if t.duplicateInScope(name) {
		return nil, &Error{Name: name, Msg: "duplicate declaration in scope"}
	}
	t.cursor += alignUp(size, slotAlign)
	if t.cursor > t.maxCursor {
		t.maxCursor = t.cursor
	}
	sym := &Symbol{
		Name:  name,
		Kind:  SymScalar,
		Depth: len(t.scopes),
		Scalar: ScalarInfo{
			FrameOffset: -t.cursor,
			Size:        size,
			IsFloat:     isFloat,
		},
	}
	frame := t.innermost()
	frame.symbols = append(frame.symbols, sym)
	return sym, nil
}

// DeclareArray4D declares a 4-D array. Only the base-pointer slot lives in
// the frame; the backing storage is heap-allocated at runtime (spec.md
// §4.6's Creation step).
func (t *Table) DeclareArray4D(name string, dims [4]int64, elemSize int32) (*Symbol, error) {
	if t.duplicateInScope(name) {
		return nil, &Error{Name: name, Msg: "duplicate declaration in scope"}
	}
	t.cursor += slotAlign
	if t.cursor > t.maxCursor {
		t.maxCursor = t.cursor
	}
	sym := &Symbol{
		Name:  name,
		Kind:  SymArray4D,
		Depth: len(t.scopes),
		Array: Array4DInfo{
			Dims:       dims,
			ElemSize:   elemSize,
			BaseOffset: -t.cursor,
		},
	}
	frame := t.innermost()
	frame.symbols = append(frame.symbols, sym)
	return sym, nil
}

// DeclareFunction declares a function, allocating its (initially
// unplaced) entry label.
func (t *Table) DeclareFunction(name string, params int) (*Symbol, error) {
	if t.duplicateInScope(name) {
		return nil, &Error{Name: name, Msg: "duplicate declaration in scope"}
	}
	sym := &Symbol{
		Name:  name,
		Kind:  SymFunction,
		Depth: len(t.scopes),
		Function: &FunctionInfo{
			Label:  t.buf.NewLabel(),
			Params: params,
		},
	}
	frame := t.innermost()
	frame.symbols = append(frame.symbols, sym)
	return sym, nil
}

// CurrentOffset returns the stack-offset cursor as EnterScope/LeaveScope
// maintain it right now — the exact high-water mark spec.md §4.3/§8
// requires LeaveScope to restore. This is distinct from FrameSize, which
// tracks the all-time peak used to size a function's reserved frame;
// CurrentOffset only ever reflects what is live in the presently-open
// scope chain.
func (t *Table) CurrentOffset() int32 {
	return t.cursor
}

// Lookup walks scopes from innermost outward, per spec.md §3.
func (t *Table) Lookup(name string) (*Symbol, bool) {
	for i := len(t.scopes) - 1; i >= 0; i-- {
		if sym, ok := lo.Find(t.scopes[i].symbols, func(s *Symbol) bool { return s.Name == name }); ok {
			return sym, true
		}
	}
	return nil, false
}

// FrameSize returns the high-water mark of frame-local bytes ever live
// since the last ResetFrame (across every nested scope the body
// walk entered and left, not just what is live at the call site), used
// by the emitter to size a function's `sub rsp, N` prologue once its
// body has been walked. A variable declared inside a nested block
// (conditional/loop/action-block body) still needs a frame slot below
// the prologue's reserved region even though LeaveScope has already
// restored the cursor to its pre-block value by the time FrameSize is
// read (spec.md §4.3/§8: "leave_scope restores the exact ... high-water
// mark", which is distinct from — and must still back — the frame size
// the prologue reserves).
func (t *Table) FrameSize() int32 {
	return t.maxCursor
}

// ResetFrame re-bases the high-water mark to the current cursor, for use between one function's
// body and the next — each function gets its own `sub rsp, N` sized
// from only its own locals, not every function emitted so far in the
// same Table's lifetime.
func (t *Table) ResetFrame() {
	t.maxCursor = t.cursor
}
