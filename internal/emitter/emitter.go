// Package emitter is the AST walker of C4: it dispatches per node kind,
// calling internal/x64enc directly for the integer path and delegating to
// internal/sse, internal/array4d, and internal/runtimeabi's ABI contract
// for the float, 4-D array, and timeline primitives respectively. Built
// the way internal/codegen/linux's X86_64Generator walks a flat op list,
// generalized to a tree walk over internal/astload's tagged-sum pool.
package emitter

import (
	"fmt"

	"github.com/blaze-lang/blaze/internal/astload"
	"github.com/blaze-lang/blaze/internal/codebuf"
	"github.com/blaze-lang/blaze/internal/layout"
	"github.com/blaze-lang/blaze/internal/symtab"
	"github.com/blaze-lang/blaze/internal/x64enc"
)

// ValueKind tags where emitExpr left its result: RAX for Int, XMM0 for
// Float. Every expression-emitting function returns one so its caller
// knows which register convention to continue with.
type ValueKind uint8

const (
	VInt ValueKind = iota
	VFloat
)

// Emitter walks one astload.Pool and produces a single finalized code
// buffer. It is not reusable across pools; construct a fresh Emitter per
// emit_program call.
type Emitter struct {
	buf     *codebuf.Buffer
	pool    *astload.Pool
	syms    *symtab.Table
	layout  layout.Layout
	entries RuntimeEntries

	// registeredFixedPoints/registeredFlows track which declaration names
	// have already had their one-time runtime registration call emitted
	// during this pass, and the frame slot holding the id the runtime
	// returned.
	registeredFixedPoints map[string]int32
	registeredFlows       map[string]int32

	// printIntLabel is the entry label of the decimal-formatting print
	// helper, emitted once at the very start of the buffer (see print.go).
	printIntLabel int

	// pendingWords is the count of outstanding 8-byte stack slots pushed
	// since the current function's prologue — see abi.go's
	// pushWord/withAlignedCall. Reset at the start of every function body.
	pendingWords int
}

// New constructs an Emitter. entries supplies the fixed addresses of the
// C7 runtime ABI and the array allocator; lay supplies the runtime table
// base addresses referenced by collision handling.
func New(pool *astload.Pool, lay layout.Layout, entries RuntimeEntries) *Emitter {
	buf := codebuf.New()
	return &Emitter{
		buf:                   buf,
		pool:                  pool,
		syms:                  symtab.New(buf),
		layout:                lay,
		entries:               entries,
		registeredFixedPoints: make(map[string]int32),
		registeredFlows:       make(map[string]int32),
	}
}

// EmitProgram is the entry point: emit_program(ast, root) -> code.
func (e *Emitter) EmitProgram(root astload.NodeRef) ([]byte, error) {
	prog, err := astload.Expect(e.pool, root, astload.KindProgram)
	if err != nil {
		return nil, err
	}

	e.syms.EnterScope()
	defer e.syms.LeaveScope()

	// The print-integer helper is emitted before anything else, behind an
	// unconditional jump, so byte offset 0 is always a valid process entry
	// point that lands on the first user-visible instruction regardless of
	// how many helpers the buffer carries.
	e.emitPrintHelpers()

	// Top-level functions sit between the helper and the entry block, so
	// they are skipped by a second jump straight to the entry block.
	entryLabel := -1
	if len(prog.Program.Functions) > 0 {
		entryLabel = e.buf.NewLabel()
		site := e.buf.Pos()
		e.buf.EmitBytes(x64enc.JmpRel32(0))
		e.buf.AddPatch(site+1, codebuf.PatchRelJump32, entryLabel)
	}

	// Forward-declare every top-level function first so calls appearing
	// textually before a definition still resolve via the ordinary
	// pending-patch mechanism (spec.md §4.4).
	for _, fnRef := range prog.Program.Functions {
		fn, err := astload.Expect(e.pool, fnRef, astload.KindFuncDef)
		if err != nil {
			return nil, err
		}
		name := e.pool.Strings.String(fn.FuncDef.Name)
		if _, err := e.syms.DeclareFunction(name, len(fn.FuncDef.Params)); err != nil {
			return nil, err
		}
	}

	for _, fnRef := range prog.Program.Functions {
		if err := e.emitFunction(fnRef); err != nil {
			return nil, err
		}
	}

	if entryLabel >= 0 {
		e.buf.PlaceLabel(entryLabel)
	}
	if err := e.emitEntry(prog.Program.Entry); err != nil {
		return nil, err
	}

	return e.buf.Finalize(0)
}

// emitEntry emits the implicit top-level function: a prologue, the entry
// action block's statements, and an exit(0)-or-last-value syscall
// sequence (spec.md §4.4/§6: "the exit value is the integer produced by
// the program's final expression").
func (e *Emitter) emitEntry(entry astload.NodeRef) error {
	block, err := astload.Expect(e.pool, entry, astload.KindActionBlock)
	if err != nil {
		return err
	}

	e.buf.EmitBytes(x64enc.PushReg(x64enc.RBP))
	e.buf.EmitBytes(x64enc.MovRegReg(x64enc.RBP, x64enc.RSP))
	frameSizeSite := e.buf.Pos()
	e.buf.EmitBytes(x64enc.SubRegImm32(x64enc.RSP, 0)) // patched below

	e.syms.ResetFrame()
	e.resetPendingWords()
	e.syms.EnterScope()
	var last ValueKind
	var sawStatement bool
	for _, stmtRef := range block.ActionBlock.Statements {
		kind, err := e.emitStmt(stmtRef)
		if err != nil {
			e.syms.LeaveScope()
			return err
		}
		last = kind
		sawStatement = true
	}
	frameSize := e.syms.FrameSize()
	e.syms.LeaveScope()
	e.buf.PatchAt(frameSizeSite+3, 4, uint64(uint32(alignFrame(frameSize))))

	// exit code: the last expression statement's value if one ran,
	// otherwise 0.
	if sawStatement && last == VFloat {
		// exit(0) wants an integer; truncate rather than invent a
		// float exit-code convention the spec does not describe.
		e.buf.EmitBytes(x64enc.Cvtsd2siRegXmm(x64enc.RDI, x64enc.XMM0))
	} else if sawStatement {
		e.buf.EmitBytes(x64enc.MovRegReg(x64enc.RDI, x64enc.RAX))
	} else {
		e.buf.EmitBytes(x64enc.MovRegImm64(x64enc.RDI, 0))
	}
	e.buf.EmitBytes(x64enc.MovRegImm64(x64enc.RAX, 60)) // sys_exit
	e.buf.EmitBytes(x64enc.Syscall())
	return nil
}

func alignFrame(n int32) int32 {
	return (n + 15) &^ 15
}

// Error reports a fatal emission failure outside the astload/symtab
// categories already covered by their own error types — eg. an
// unsupported node kind reaching emitStmt/emitExpr.
type Error struct {
	Node astload.NodeRef
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("emitter: node %s: %s", e.Node, e.Msg)
}
