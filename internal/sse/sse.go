// Package sse emits the double-precision float path (C5): literal
// materialization, arithmetic, and NaN-aware comparison, built on
// internal/x64enc's SSE2 subset the way internal/codegen/linux's
// X86_64Generator builds syscall sequences on pkg/amd64 — small,
// named emit* helpers writing straight into a codebuf.Buffer.
package sse

import (
	"math"

	"github.com/blaze-lang/blaze/internal/codebuf"
	"github.com/blaze-lang/blaze/internal/x64enc"
)

// ScratchGPR is the general-purpose register EmitLoadConst uses to carry a
// literal's bit pattern onto the stack before moving it into an XMM
// register. Callers whose register allocation already has RAX live must
// save it first; Blaze's own emitter never holds a value in RAX across a
// float literal load (spec.md §4.5's convention).
const ScratchGPR = x64enc.RAX

// EmitLoadConst writes v's IEEE-754 bit pattern into dst. There is no
// movsd-from-immediate form, so the value is materialized into a GPR,
// pushed, loaded with movsd, and the stack reclaimed — the sequence
// spec.md §4.5 and §8's golden bytes both describe.
func EmitLoadConst(buf *codebuf.Buffer, dst x64enc.Reg, v float64) {
	bits := math.Float64bits(v)
	buf.EmitBytes(x64enc.MovRegImm64(ScratchGPR, bits))
	buf.EmitBytes(x64enc.PushReg(ScratchGPR))
	buf.EmitBytes(x64enc.MovsdXmmMem(dst, x64enc.RSP, 0))
	buf.EmitBytes(x64enc.AddRegImm32(x64enc.RSP, 8))
}

// EmitLoad emits movsd dst, [base+disp].
func EmitLoad(buf *codebuf.Buffer, dst, base x64enc.Reg, disp int32) {
	buf.EmitBytes(x64enc.MovsdXmmMem(dst, base, disp))
}

// EmitStore emits movsd [base+disp], src.
func EmitStore(buf *codebuf.Buffer, base x64enc.Reg, disp int32, src x64enc.Reg) {
	buf.EmitBytes(x64enc.MovsdMemXmm(base, disp, src))
}

// EmitMove emits movsd dst, src (register to register).
func EmitMove(buf *codebuf.Buffer, dst, src x64enc.Reg) {
	buf.EmitBytes(x64enc.MovsdXmmXmm(dst, src))
}

// BinOp names a two-operand SSE2 scalar-double arithmetic instruction.
type BinOp uint8

const (
	OpAdd BinOp = iota
	OpSub
	OpMul
	OpDiv
)

// EmitArith emits `dst = dst <op> src` via the matching addsd/subsd/mulsd/divsd.
func EmitArith(buf *codebuf.Buffer, op BinOp, dst, src x64enc.Reg) {
	switch op {
	case OpAdd:
		buf.EmitBytes(x64enc.AddsdXmmXmm(dst, src))
	case OpSub:
		buf.EmitBytes(x64enc.SubsdXmmXmm(dst, src))
	case OpMul:
		buf.EmitBytes(x64enc.MulsdXmmXmm(dst, src))
	case OpDiv:
		buf.EmitBytes(x64enc.DivsdXmmXmm(dst, src))
	default:
		panic("sse: unknown BinOp")
	}
}

// EmitToInt emits cvtsd2si dst, src — truncating double-to-integer.
func EmitToInt(buf *codebuf.Buffer, dst, src x64enc.Reg) {
	buf.EmitBytes(x64enc.Cvtsd2siRegXmm(dst, src))
}

// EmitFromInt emits cvtsi2sd dst, src — integer-to-double.
func EmitFromInt(buf *codebuf.Buffer, dst, src x64enc.Reg) {
	buf.EmitBytes(x64enc.Cvtsi2sdXmmReg(dst, src))
}

// CompareOp names the six double-comparison results spec.md §4.5 requires;
// every one is NaN-aware (an operand of NaN makes every comparison false).
type CompareOp uint8

const (
	CmpEQ CompareOp = iota
	CmpNE
	CmpLT
	CmpLE
	CmpGT
	CmpGE
)

// EmitCompare emits `lhs <op> rhs`, leaving the widened 0/1 result in RAX
// per spec.md §4.4's comparison convention, using ucomisd followed by the
// setcc/movzx widening pattern. An explicit parity (NaN) check runs ahead
// of the ordered condition so an unordered result always yields false
// rather than whatever flag pattern UCOMISD happened to leave.
func EmitCompare(buf *codebuf.Buffer, op CompareOp, lhs, rhs x64enc.Reg) {
	buf.EmitBytes(x64enc.UcomisdXmmXmm(lhs, rhs))

	// Any unordered comparison (NaN operand) sets PF; jump straight past
	// the setcc to a zeroed result rather than trusting ZF/CF, which
	// UCOMISD also sets but with NaN-dependent meaning.
	naNSkip := buf.Pos()
	buf.EmitBytes(x64enc.JccRel8(x64enc.CondP, 0))

	cond := compareCond(op)
	buf.EmitBytes(x64enc.SetccAL(cond))
	buf.EmitBytes(x64enc.MovzxRaxAl())

	doneJump := buf.Pos()
	buf.EmitBytes(x64enc.JmpRel8(0))

	naNTarget := buf.Pos()
	buf.PatchAt(naNSkip+1, 1, uint64(int8(naNTarget-(naNSkip+2))))
	buf.EmitBytes(x64enc.XorRegReg(x64enc.RAX, x64enc.RAX))

	doneTarget := buf.Pos()
	buf.PatchAt(doneJump+1, 1, uint64(int8(doneTarget-(doneJump+2))))
}

func compareCond(op CompareOp) x64enc.Cond {
	switch op {
	case CmpEQ:
		return x64enc.CondE
	case CmpNE:
		return x64enc.CondNE
	case CmpLT:
		return x64enc.CondB
	case CmpLE:
		return x64enc.CondBE
	case CmpGT:
		return x64enc.CondA
	case CmpGE:
		return x64enc.CondAE
	default:
		panic("sse: unknown CompareOp")
	}
}
