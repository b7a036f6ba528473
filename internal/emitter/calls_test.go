package emitter

import (
	"testing"

	"github.com/blaze-lang/blaze/internal/astload"
	"github.com/blaze-lang/blaze/internal/layout"
)

// AST-building helpers mirroring cmd/blazec/selftest_fixtures.go's
// pattern (astload.Pool has no parser in front of it; programmatic
// construction is the only way to build a fixture). Named with a testAST
// prefix since this package's own production code never builds trees.

func testASTNumberLit(p *astload.Pool, v int64) astload.NodeRef {
	return p.Add(astload.Node{Kind: astload.KindNumberLit, NumberLit: astload.NumberLitPayload{IntVal: v}})
}

func testASTIdent(p *astload.Pool, name astload.Ident) astload.NodeRef {
	return p.Add(astload.Node{Kind: astload.KindIdentifier, Identifier: astload.IdentifierPayload{Name: name}})
}

func testASTBinOp(p *astload.Pool, op astload.BinOp, l, r astload.NodeRef) astload.NodeRef {
	return p.Add(astload.Node{Kind: astload.KindBinaryOp, BinaryOp: astload.BinaryOpPayload{Op: op, Left: l, Right: r}})
}

func testASTBlock(p *astload.Pool, stmts ...astload.NodeRef) astload.NodeRef {
	return p.Add(astload.Node{Kind: astload.KindActionBlock, ActionBlock: astload.ActionBlockPayload{Statements: stmts}})
}

func testASTProgram(p *astload.Pool, entry astload.NodeRef) astload.NodeRef {
	return p.Add(astload.Node{Kind: astload.KindProgram, Program: astload.ProgramPayload{Entry: entry}})
}

// testEntries is a RuntimeEntries with recognizable, distinct addresses;
// none of the fixtures below exercise the runtime ABI, but New requires a
// value.
func testEntries() RuntimeEntries {
	return RuntimeEntries{
		Alloc:                     0x700000,
		RegisterFixedPoint:        0x700010,
		TimelineArriveFixedPoint:  0x700020,
		RegisterPermanentTimeline: 0x700030,
		ShouldExecuteFlow:         0x700040,
		PauseFlow:                 0x700050,
		ResumeFlow:                0x700060,
		TerminateFlow:             0x700070,
	}
}

// fixtureNestedBlockFrame declares x in the entry block, then y inside a
// conditional's then-branch (a nested scope the ActionBlock walk enters
// and leaves), and prints both — the regression scenario for the
// high-water frame-size fix: y's FrameOffset must still land inside the
// region the prologue's `sub rsp, N` reserves even though LeaveScope has
// already restored the cursor to its pre-conditional value by the time
// the frame size is read.
func fixtureNestedBlockFrame() (*astload.Pool, astload.NodeRef) {
	p := astload.NewPool()
	xName := p.Strings.Intern("x")
	yName := p.Strings.Intern("y")

	xDef := p.Add(astload.Node{Kind: astload.KindVarDef, VarDef: astload.VarDefPayload{
		Name: xName, Init: testASTNumberLit(p, 1),
	}})

	yDef := p.Add(astload.Node{Kind: astload.KindVarDef, VarDef: astload.VarDefPayload{
		Name: yName, Init: testASTNumberLit(p, 2),
	}})
	printY := p.Add(astload.Node{Kind: astload.KindPrint, Print: astload.PrintPayload{PKind: astload.PrintInt, Value: testASTIdent(p, yName)}})
	thenBlock := testASTBlock(p, yDef, printY)

	cond := testASTBinOp(p, astload.OpGt, testASTNumberLit(p, 5), testASTNumberLit(p, 3))
	ifNode := p.Add(astload.Node{Kind: astload.KindConditional, Conditional: astload.ConditionalPayload{
		Cond: cond, Then: thenBlock, Else: astload.NoNode,
	}})

	printX := p.Add(astload.Node{Kind: astload.KindPrint, Print: astload.PrintPayload{PKind: astload.PrintInt, Value: testASTIdent(p, xName)}})

	return p, testASTProgram(p, testASTBlock(p, xDef, ifNode, printX))
}

// TestFrameSizeCoversNestedBlockLocals emits fixtureNestedBlockFrame and
// checks the entry function's reserved frame (the patched `sub rsp, N`
// immediately after the prologue's push/mov) is at least 16 bytes — both
// x and y's 8-byte slots — rather than just x's 8, which is all
// t.cursor would report once the conditional's scope has exited.
func TestFrameSizeCoversNestedBlockLocals(t *testing.T) {
	pool, root := fixtureNestedBlockFrame()
	e := New(pool, layout.Default(), testEntries())
	code, err := e.EmitProgram(root)
	if err != nil {
		t.Fatalf("EmitProgram: %v", err)
	}

	// emitEntry is always the last function EmitProgram emits (after the
	// print helper and any user functions), so its prologue's `sub rsp,
	// imm32` is the last such instruction in the buffer.
	subs := findSubRspImm32(code)
	if len(subs) == 0 {
		t.Fatal("expected a `sub rsp, imm32` prologue in the emitted code")
	}
	n := subs[len(subs)-1]
	if n < 16 {
		t.Fatalf("entry frame reserved only %d bytes, want >= 16 (x and y's slots both live)", n)
	}
}

// fixtureCallSum is a() + b(): two zero-argument user functions whose
// results are added. emitBinaryOp pushes a()'s result before evaluating
// b(), so b()'s call site sees one pending word — the regression
// scenario for the 16-byte call alignment fix.
func fixtureCallSum() (*astload.Pool, astload.NodeRef) {
	p := astload.NewPool()
	aName := p.Strings.Intern("a")
	bName := p.Strings.Intern("b")

	aBody := testASTBlock(p, p.Add(astload.Node{Kind: astload.KindNumberLit, NumberLit: astload.NumberLitPayload{IntVal: 1}}))
	bBody := testASTBlock(p, p.Add(astload.Node{Kind: astload.KindNumberLit, NumberLit: astload.NumberLitPayload{IntVal: 2}}))

	aFn := p.Add(astload.Node{Kind: astload.KindFuncDef, FuncDef: astload.FuncDefPayload{Name: aName, Body: aBody}})
	bFn := p.Add(astload.Node{Kind: astload.KindFuncDef, FuncDef: astload.FuncDefPayload{Name: bName, Body: bBody}})

	callA := p.Add(astload.Node{Kind: astload.KindCall, Call: astload.CallPayload{Callee: aName}})
	callB := p.Add(astload.Node{Kind: astload.KindCall, Call: astload.CallPayload{Callee: bName}})
	sum := testASTBinOp(p, astload.OpAdd, callA, callB)
	printStmt := p.Add(astload.Node{Kind: astload.KindPrint, Print: astload.PrintPayload{PKind: astload.PrintInt, Value: sum}})

	prog := p.Add(astload.Node{Kind: astload.KindProgram, Program: astload.ProgramPayload{
		Functions: []astload.NodeRef{aFn, bFn},
		Entry:     testASTBlock(p, printStmt),
	}})
	return p, prog
}

// TestCallAlignmentCompensatesOddPush emits fixtureCallSum and checks
// that the `call` reaching b() (the second of the two user calls in
// program order) is immediately preceded by a `sub rsp, 8` and followed
// by a matching `add rsp, 8` — the dummy push withAlignedCall emits to
// keep RSP 16-byte aligned with a()'s result still sitting on the stack.
func TestCallAlignmentCompensatesOddPush(t *testing.T) {
	pool, root := fixtureCallSum()
	e := New(pool, layout.Default(), testEntries())
	code, err := e.EmitProgram(root)
	if err != nil {
		t.Fatalf("EmitProgram: %v", err)
	}

	calls := findCallRel32Sites(code)
	if len(calls) != 3 {
		t.Fatalf("expected exactly 3 call rel32 sites (a(), b(), the print helper), found %d", len(calls))
	}

	// emitBinaryOp evaluates left-to-right: a()'s call is emitted first,
	// then b()'s (with a()'s result still pushed), then the print
	// helper's call last.
	aCallSite, bCallSite := calls[0], calls[1]
	if hasSubRsp8Before(code, aCallSite) {
		t.Fatal("a()'s call site should need no alignment compensation (zero pending words)")
	}
	if !hasSubRsp8Before(code, bCallSite) {
		t.Fatal("expected a compensating `sub rsp, 8` immediately before b()'s call site")
	}
	if !hasAddRsp8After(code, bCallSite) {
		t.Fatal("expected a compensating `add rsp, 8` immediately after b()'s call site")
	}
}

// fixtureNestedCallArg is f(a, g(b)): f takes two parameters, the second
// of which is itself a call to g. If emitCall moved each argument into
// argRegs[i] right after evaluating it (the pre-fix behavior), g(b)'s own
// call would clobber RDI (f's already-placed first argument) while
// setting up its own. The regression scenario for the argument-spill fix.
func fixtureNestedCallArg() (*astload.Pool, astload.NodeRef) {
	p := astload.NewPool()
	fName := p.Strings.Intern("f")
	gName := p.Strings.Intern("g")
	pName := p.Strings.Intern("p")
	qName := p.Strings.Intern("q")

	fBody := testASTBlock(p, p.Add(astload.Node{Kind: astload.KindNumberLit, NumberLit: astload.NumberLitPayload{IntVal: 0}}))
	gBody := testASTBlock(p, p.Add(astload.Node{Kind: astload.KindNumberLit, NumberLit: astload.NumberLitPayload{IntVal: 0}}))

	fFn := p.Add(astload.Node{Kind: astload.KindFuncDef, FuncDef: astload.FuncDefPayload{
		Name: fName, Params: []astload.Ident{pName, qName}, Body: fBody,
	}})
	gFn := p.Add(astload.Node{Kind: astload.KindFuncDef, FuncDef: astload.FuncDefPayload{
		Name: gName, Params: []astload.Ident{pName}, Body: gBody,
	}})

	callG := p.Add(astload.Node{Kind: astload.KindCall, Call: astload.CallPayload{
		Callee: gName, Args: []astload.NodeRef{testASTNumberLit(p, 9)},
	}})
	callF := p.Add(astload.Node{Kind: astload.KindCall, Call: astload.CallPayload{
		Callee: fName, Args: []astload.NodeRef{testASTNumberLit(p, 5), callG},
	}})
	printStmt := p.Add(astload.Node{Kind: astload.KindPrint, Print: astload.PrintPayload{PKind: astload.PrintInt, Value: callF}})

	prog := p.Add(astload.Node{Kind: astload.KindProgram, Program: astload.ProgramPayload{
		Functions: []astload.NodeRef{fFn, gFn},
		Entry:     testASTBlock(p, printStmt),
	}})
	return p, prog
}

// TestNestedCallArgumentsSurviveSpill just confirms emission succeeds and
// produces the expected push/pop shape: two pushes (5 and g(9)'s result)
// followed by two pops into RSI then RDI before f's call, rather than an
// immediate mov into RDI that a later call could clobber.
func TestNestedCallArgumentsSurviveSpill(t *testing.T) {
	pool, root := fixtureNestedCallArg()
	e := New(pool, layout.Default(), testEntries())
	code, err := e.EmitProgram(root)
	if err != nil {
		t.Fatalf("EmitProgram: %v", err)
	}
	if len(code) == 0 {
		t.Fatal("expected non-empty emitted code")
	}

	calls := findCallRel32Sites(code)
	if len(calls) != 3 {
		t.Fatalf("expected exactly 3 call rel32 sites (g(), f(), the print helper), found %d", len(calls))
	}
	// g(9) is evaluated as f's second argument before any of f's
	// registers are populated, so g's call comes first; f's call follows.
	gCallSite, fCallSite := calls[0], calls[1]
	if fCallSite <= gCallSite {
		t.Fatal("expected g()'s call to precede f()'s in program order")
	}
	// f's call must be preceded, within a short byte window, by two pop
	// instructions (into rsi then rdi, or their rex-prefixed r8/r9 forms)
	// rather than by direct register loads — i.e. the argument values
	// pass through the stack instead of being clobbered in place.
	if !hasPopBeforeCall(code, fCallSite, 2) {
		t.Fatal("expected f()'s arguments to be popped from the stack immediately before its call")
	}
}

// --- byte-scanning helpers -------------------------------------------------
//
// These walk the raw emitted buffer looking for known instruction byte
// patterns (from internal/x64enc's encoders) rather than decoding x86-64
// in general — sufficient to pin down the specific fixes under test
// without pulling in a disassembler.

// findSubRspImm32 returns the immediate of every `sub rsp, imm32` (REX.W
// 81 /5 id) in program order.
func findSubRspImm32(code []byte) []int32 {
	var out []int32
	for i := 0; i+7 <= len(code); i++ {
		if code[i] == 0x48 && code[i+1] == 0x81 && code[i+2] == 0xEC {
			v := int32(code[i+3]) | int32(code[i+4])<<8 | int32(code[i+5])<<16 | int32(code[i+6])<<24
			out = append(out, v)
		}
	}
	return out
}

// findCallRel32Sites returns the byte offset of every `call rel32` (0xE8)
// opcode byte in program order.
func findCallRel32Sites(code []byte) []int {
	var sites []int
	for i := 0; i+5 <= len(code); i++ {
		if code[i] == 0xE8 {
			sites = append(sites, i)
		}
	}
	return sites
}

// hasSubRsp8Before reports whether the 7 bytes immediately preceding
// callSite are `sub rsp, 8` (REX.W 81 EC 08 00 00 00 is 7 bytes; this
// looks at the 7-byte window right before the call opcode).
func hasSubRsp8Before(code []byte, callSite int) bool {
	const instrLen = 7
	if callSite-instrLen < 0 {
		return false
	}
	w := code[callSite-instrLen : callSite]
	return w[0] == 0x48 && w[1] == 0x81 && w[2] == 0xEC &&
		w[3] == 0x08 && w[4] == 0 && w[5] == 0 && w[6] == 0
}

// hasAddRsp8After reports whether the 7 bytes immediately after the
// 5-byte call instruction at callSite are `add rsp, 8`.
func hasAddRsp8After(code []byte, callSite int) bool {
	start := callSite + 5
	if start+7 > len(code) {
		return false
	}
	w := code[start : start+7]
	return w[0] == 0x48 && w[1] == 0x81 && w[2] == 0xC4 &&
		w[3] == 0x08 && w[4] == 0 && w[5] == 0 && w[6] == 0
}

// hasPopBeforeCall reports whether at least wantPops single-byte `pop
// reg` opcodes (0x58-0x5F, optionally REX-prefixed for r8-r15) appear in
// the 32 bytes immediately before callSite.
func hasPopBeforeCall(code []byte, callSite int, wantPops int) bool {
	const window = 32
	start := callSite - window
	if start < 0 {
		start = 0
	}
	count := 0
	for i := start; i < callSite; i++ {
		b := code[i]
		if b >= 0x58 && b <= 0x5F {
			count++
		}
	}
	return count >= wantPops
}
