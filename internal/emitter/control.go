package emitter

import (
	"github.com/blaze-lang/blaze/internal/astload"
	"github.com/blaze-lang/blaze/internal/codebuf"
	"github.com/blaze-lang/blaze/internal/x64enc"
)

// emitConditional follows spec.md §4.4 exactly: emit condition; cmp rax,
// 0; jz rel32 -> else; emit then; jmp rel32 -> end; patch else; emit
// else; patch end.
func (e *Emitter) emitConditional(ref astload.NodeRef, cond astload.ConditionalPayload) error {
	if _, err := e.emitCondExpr(cond.Cond); err != nil {
		return err
	}

	elseLabel := e.buf.NewLabel()
	endLabel := e.buf.NewLabel()

	site := e.buf.Pos()
	e.buf.EmitBytes(x64enc.JccRel32(x64enc.CondZ, 0))
	e.buf.AddPatch(site+2, codebuf.PatchRelJump32, elseLabel)

	if _, err := e.emitStmt(cond.Then); err != nil {
		return err
	}

	jmpSite := e.buf.Pos()
	e.buf.EmitBytes(x64enc.JmpRel32(0))
	e.buf.AddPatch(jmpSite+1, codebuf.PatchRelJump32, endLabel)

	e.buf.PlaceLabel(elseLabel)
	if cond.Else.Valid() {
		if _, err := e.emitStmt(cond.Else); err != nil {
			return err
		}
	}
	e.buf.PlaceLabel(endLabel)
	return nil
}

// emitJump is spec.md's "jump" kind, realized as the documented
// while-loop lowering: mark top; test cond; jump to exit; emit body;
// jump to top; patch exit.
func (e *Emitter) emitJump(ref astload.NodeRef, j astload.JumpPayload) error {
	top := e.buf.MarkLabel()

	if _, err := e.emitCondExpr(j.Cond); err != nil {
		return err
	}

	exitLabel := e.buf.NewLabel()
	site := e.buf.Pos()
	e.buf.EmitBytes(x64enc.JccRel32(x64enc.CondZ, 0))
	e.buf.AddPatch(site+2, codebuf.PatchRelJump32, exitLabel)

	if j.Body.Valid() {
		if _, err := e.emitStmt(j.Body); err != nil {
			return err
		}
	}

	backSite := e.buf.Pos()
	e.buf.EmitBytes(x64enc.JmpRel32(0))
	e.buf.AddPatch(backSite+1, codebuf.PatchRelJump32, top)

	e.buf.PlaceLabel(exitLabel)
	return nil
}

// emitCondExpr evaluates a boolean-producing expression, normalizing a
// float comparison's already-0/1 RAX result with `cmp rax, 0` so the
// caller's jz/jnz check behaves identically regardless of which value
// kind produced it.
func (e *Emitter) emitCondExpr(ref astload.NodeRef) (ValueKind, error) {
	kind, err := e.emitExpr(ref)
	if err != nil {
		return 0, err
	}
	if kind == VFloat {
		// A bare double used as a condition (not a comparison) truncates
		// to an integer truth value; comparisons already left 0/1 in RAX
		// via sse.EmitCompare regardless of this branch.
		e.buf.EmitBytes(x64enc.Cvtsd2siRegXmm(x64enc.RAX, x64enc.XMM0))
	}
	e.buf.EmitBytes(x64enc.CmpRegImm32(x64enc.RAX, 0))
	return VInt, nil
}
