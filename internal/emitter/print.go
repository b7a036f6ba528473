package emitter

import (
	"github.com/blaze-lang/blaze/internal/astload"
	"github.com/blaze-lang/blaze/internal/codebuf"
	"github.com/blaze-lang/blaze/internal/x64enc"
)

// Linux syscall numbers, matching internal/codegen/linux's own sysWrite
// constant — Blaze's print path reaches stdout the same way, a bare
// syscall rather than a runtime ABI entry point.
const (
	sysWrite = 1
	stdoutFD = 1
)

// printBufSize is scratch stack space for the widest possible int64 (19
// digits, a sign, and a trailing newline), rounded up to a 16-byte slot.
const printBufSize = 32

// emitPrintHelpers emits the print-integer helper once, behind an
// unconditional jump that skips straight past it — internal/codegen/linux's
// X86_64Generator places its own I/O helpers (_bf_read, _bf_write) after
// the program body, reachable only by call rel32 and never by fallthrough
// (its epilogue ends in an exit syscall that never returns); Blaze's
// helper comes first instead, so the jump has to skip forward over it.
func (e *Emitter) emitPrintHelpers() {
	skipSite := e.buf.Pos()
	e.buf.EmitBytes(x64enc.JmpRel32(0))

	e.printIntLabel = e.buf.MarkLabel()
	e.emitPrintIntBody()

	afterHelpers := e.buf.MarkLabel()
	e.buf.AddPatch(skipSite+1, codebuf.PatchRelJump32, afterHelpers)
}

// emitPrintIntBody is an itoa-style helper: RDI holds a signed int64,
// which it formats as decimal ASCII followed by a newline and writes to
// stdout. It clobbers every caller-saved register and touches none of
// RBX/RBP/R12-R15, so it needs no special handling at its call sites.
func (e *Emitter) emitPrintIntBody() {
	buf := e.buf

	buf.EmitBytes(x64enc.PushReg(x64enc.RBP))
	buf.EmitBytes(x64enc.MovRegReg(x64enc.RBP, x64enc.RSP))
	buf.EmitBytes(x64enc.SubRegImm32(x64enc.RSP, printBufSize))

	buf.EmitBytes(x64enc.MovRegReg(x64enc.RAX, x64enc.RDI))
	buf.EmitBytes(x64enc.MovRegImm64(x64enc.R8, 0)) // sign flag

	buf.EmitBytes(x64enc.CmpRegImm32(x64enc.RAX, 0))
	positiveLabel := buf.NewLabel()
	site := buf.Pos()
	buf.EmitBytes(x64enc.JccRel32(x64enc.CondGE, 0))
	buf.AddPatch(site+2, codebuf.PatchRelJump32, positiveLabel)

	buf.EmitBytes(x64enc.MovRegImm64(x64enc.R8, 1))
	buf.EmitBytes(x64enc.MovRegImm64(x64enc.RCX, 0))
	buf.EmitBytes(x64enc.SubRegReg(x64enc.RCX, x64enc.RAX))
	buf.EmitBytes(x64enc.MovRegReg(x64enc.RAX, x64enc.RCX))

	buf.PlaceLabel(positiveLabel)

	// r9 walks backward from the last byte of the scratch buffer, writing
	// the newline first and the digits before it in reverse order.
	buf.EmitBytes(x64enc.LeaRegMem(x64enc.R9, x64enc.RBP, -1))
	buf.EmitBytes(x64enc.MovRegImm64(x64enc.R11, '\n'))
	buf.EmitBytes(x64enc.MovMem8FromReg8(x64enc.R9, 0, x64enc.R11))
	buf.EmitBytes(x64enc.SubRegImm32(x64enc.R9, 1))

	buf.EmitBytes(x64enc.MovRegImm64(x64enc.RCX, 10))

	digitLoop := buf.MarkLabel()
	buf.EmitBytes(x64enc.XorRegReg(x64enc.RDX, x64enc.RDX))
	buf.EmitBytes(x64enc.DivReg(x64enc.RCX))
	buf.EmitBytes(x64enc.AddRegImm32(x64enc.RDX, '0'))
	buf.EmitBytes(x64enc.MovMem8FromReg8(x64enc.R9, 0, x64enc.RDX))
	buf.EmitBytes(x64enc.SubRegImm32(x64enc.R9, 1))
	buf.EmitBytes(x64enc.CmpRegImm32(x64enc.RAX, 0))
	site = buf.Pos()
	buf.EmitBytes(x64enc.JccRel32(x64enc.CondNE, 0))
	buf.AddPatch(site+2, codebuf.PatchRelJump32, digitLoop)

	buf.EmitBytes(x64enc.CmpRegImm32(x64enc.R8, 0))
	noSignLabel := buf.NewLabel()
	site = buf.Pos()
	buf.EmitBytes(x64enc.JccRel32(x64enc.CondE, 0))
	buf.AddPatch(site+2, codebuf.PatchRelJump32, noSignLabel)

	buf.EmitBytes(x64enc.MovRegImm64(x64enc.R11, '-'))
	buf.EmitBytes(x64enc.MovMem8FromReg8(x64enc.R9, 0, x64enc.R11))
	buf.EmitBytes(x64enc.SubRegImm32(x64enc.R9, 1))

	buf.PlaceLabel(noSignLabel)

	// r9 now sits one byte before the first character written. The
	// written region is [r9+1, rbp-1] inclusive: start = r9+1, length =
	// (rbp-1) - r9.
	buf.EmitBytes(x64enc.LeaRegMem(x64enc.R10, x64enc.RBP, -1))
	buf.EmitBytes(x64enc.SubRegReg(x64enc.R10, x64enc.R9))
	buf.EmitBytes(x64enc.MovRegReg(x64enc.RSI, x64enc.R9))
	buf.EmitBytes(x64enc.AddRegImm32(x64enc.RSI, 1))
	buf.EmitBytes(x64enc.MovRegReg(x64enc.RDX, x64enc.R10))

	buf.EmitBytes(x64enc.MovRegImm64(x64enc.RDI, stdoutFD))
	buf.EmitBytes(x64enc.MovRegImm64(x64enc.RAX, sysWrite))
	buf.EmitBytes(x64enc.Syscall())

	buf.EmitBytes(x64enc.MovRegReg(x64enc.RSP, x64enc.RBP))
	buf.EmitBytes(x64enc.PopReg(x64enc.RBP))
	buf.EmitBytes(x64enc.Ret())
}

// emitInlineBytes embeds data directly in the instruction stream, behind
// an unconditional jump that skips over it, and leaves a rip-relative
// pointer to it in dst — spec.md §4.4's inline string-literal addressing
// convention, shared by print's string form and the fixed-point name
// passed to register_fixedpoint.
func (e *Emitter) emitInlineBytes(dst x64enc.Reg, data []byte) {
	skipSite := e.buf.Pos()
	e.buf.EmitBytes(x64enc.JmpRel32(0))

	dataLabel := e.buf.MarkLabel()
	e.buf.EmitBytes(data)

	afterData := e.buf.MarkLabel()
	e.buf.AddPatch(skipSite+1, codebuf.PatchRelJump32, afterData)

	leaSite := e.buf.Pos()
	e.buf.EmitBytes(x64enc.LeaRipRel(dst, 0))
	e.buf.AddPatch(leaSite+3, codebuf.PatchRipRel32, dataLabel)
}

// emitPrint writes a value (or a literal string) followed by a newline to
// stdout (spec.md §8's end-to-end print scenarios).
func (e *Emitter) emitPrint(ref astload.NodeRef, p astload.PrintPayload) error {
	switch p.PKind {
	case astload.PrintString:
		text := e.pool.Strings.String(p.Text)
		payload := append([]byte(text), '\n')
		e.emitInlineBytes(x64enc.RSI, payload)
		e.buf.EmitBytes(x64enc.MovRegImm64(x64enc.RDI, stdoutFD))
		e.buf.EmitBytes(x64enc.MovRegImm64(x64enc.RDX, uint64(len(payload))))
		e.buf.EmitBytes(x64enc.MovRegImm64(x64enc.RAX, sysWrite))
		e.buf.EmitBytes(x64enc.Syscall())
		return nil

	case astload.PrintInt, astload.PrintFloat:
		kind, err := e.emitExpr(p.Value)
		if err != nil {
			return err
		}
		if kind == VFloat {
			// Blaze prints a double's truncated integer value rather than
			// a decimal expansion; see DESIGN.md.
			e.buf.EmitBytes(x64enc.Cvtsd2siRegXmm(x64enc.RAX, x64enc.XMM0))
		}
		e.buf.EmitBytes(x64enc.MovRegReg(x64enc.RDI, x64enc.RAX))
		e.withAlignedCall(func() {
			site := e.buf.Pos()
			e.buf.EmitBytes(x64enc.CallRel32(0))
			e.buf.AddPatch(site+1, codebuf.PatchRelCall32, e.printIntLabel)
		})
		return nil

	default:
		return &Error{Node: ref, Msg: "unsupported print kind"}
	}
}
