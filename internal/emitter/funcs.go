package emitter

import (
	"github.com/blaze-lang/blaze/internal/astload"
	"github.com/blaze-lang/blaze/internal/codebuf"
	"github.com/blaze-lang/blaze/internal/x64enc"
)

// argRegs is the fixed internal calling convention's argument register
// order (spec.md §4.4).
var argRegs = [6]x64enc.Reg{x64enc.RDI, x64enc.RSI, x64enc.RDX, x64enc.RCX, x64enc.R8, x64enc.R9}

// emitFunction emits one function definition: mark its entry label, emit
// the prologue/body/epilogue. The label was already allocated by
// EmitProgram's forward-declaration pass, so calls preceding this
// definition resolve through the ordinary pending-patch mechanism.
func (e *Emitter) emitFunction(ref astload.NodeRef) error {
	fn, err := astload.Expect(e.pool, ref, astload.KindFuncDef)
	if err != nil {
		return err
	}
	name := e.pool.Strings.String(fn.FuncDef.Name)
	sym, ok := e.syms.Lookup(name)
	if !ok {
		return &Error{Node: ref, Msg: "function not forward-declared: " + name}
	}

	e.buf.PlaceLabel(sym.Function.Label)
	sym.Function.Defined = true

	e.buf.EmitBytes(x64enc.PushReg(x64enc.RBP))
	e.buf.EmitBytes(x64enc.MovRegReg(x64enc.RBP, x64enc.RSP))
	frameSizeSite := e.buf.Pos()
	e.buf.EmitBytes(x64enc.SubRegImm32(x64enc.RSP, 0))

	e.syms.ResetFrame()
	e.resetPendingWords()
	e.syms.EnterScope()
	for i, paramName := range fn.FuncDef.Params {
		pname := e.pool.Strings.String(paramName)
		psym, err := e.syms.DeclareVar(pname, 8, false)
		if err != nil {
			e.syms.LeaveScope()
			return err
		}
		if i < len(argRegs) {
			e.buf.EmitBytes(x64enc.MovMemFromReg(x64enc.RBP, psym.Scalar.FrameOffset, argRegs[i]))
		}
	}

	body, err := astload.Expect(e.pool, fn.FuncDef.Body, astload.KindActionBlock)
	if err != nil {
		e.syms.LeaveScope()
		return err
	}
	for _, stmtRef := range body.ActionBlock.Statements {
		if _, err := e.emitStmt(stmtRef); err != nil {
			e.syms.LeaveScope()
			return err
		}
	}
	frameSize := e.syms.FrameSize()
	e.syms.LeaveScope()
	e.buf.PatchAt(frameSizeSite+3, 4, uint64(uint32(alignFrame(frameSize))))

	e.buf.EmitBytes(x64enc.MovRegReg(x64enc.RSP, x64enc.RBP))
	e.buf.EmitBytes(x64enc.PopReg(x64enc.RBP))
	e.buf.EmitBytes(x64enc.Ret())
	return nil
}

// emitCall emits a call to a user-defined function: arguments are
// evaluated left to right and pushed onto the stack, then popped back
// into their fixed argument registers immediately before the call, then
// `call rel32` is emitted with a pending patch against the callee's label
// (already resolved if the callee was emitted earlier in this pass).
//
// Argument values are not moved into argRegs[i] right after each is
// evaluated: an argument expression that is itself a call — f(a, g(b)) —
// would otherwise clobber an earlier argument already sitting in its
// register (e.g. RDI) while evaluating a later one. Pushing every
// argument first and only populating registers once all of them are
// fully evaluated keeps each argument alive regardless of what a later
// argument's evaluation does to argRegs.
func (e *Emitter) emitCall(node astload.NodeRef, call astload.CallPayload) (ValueKind, error) {
	name := e.pool.Strings.String(call.Callee)
	args := call.Args
	sym, ok := e.syms.Lookup(name)
	if !ok || sym.Function == nil {
		return 0, &Error{Node: node, Msg: "call to undefined function: " + name}
	}
	if len(args) != sym.Function.Params {
		return 0, &Error{Node: node, Msg: "arity mismatch calling " + name}
	}

	for _, argRef := range args {
		kind, err := e.emitExpr(argRef)
		if err != nil {
			return 0, err
		}
		if kind == VFloat {
			e.buf.EmitBytes(x64enc.Cvtsd2siRegXmm(x64enc.RAX, x64enc.XMM0))
		}
		e.pushWord(x64enc.RAX)
	}

	// Pop in reverse: the last-pushed argument is on top of the stack, so
	// popping from the end of args back to the start lands each value in
	// its own argRegs[i] rather than a shifted one.
	for i := len(args) - 1; i >= 0; i-- {
		if i < len(argRegs) {
			e.popWord(argRegs[i])
		} else {
			e.popWord(x64enc.RAX) // beyond the fixed register convention; discarded
		}
	}

	e.withAlignedCall(func() {
		site := e.buf.Pos()
		e.buf.EmitBytes(x64enc.CallRel32(0))
		e.buf.AddPatch(site+1, codebuf.PatchRelCall32, sym.Function.Label)
	})
	return VInt, nil
}
