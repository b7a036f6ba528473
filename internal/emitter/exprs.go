package emitter

import (
	"github.com/blaze-lang/blaze/internal/array4d"
	"github.com/blaze-lang/blaze/internal/astload"
	"github.com/blaze-lang/blaze/internal/sse"
	"github.com/blaze-lang/blaze/internal/symtab"
	"github.com/blaze-lang/blaze/internal/x64enc"
)

// emitExpr walks one expression node, leaving its value in RAX (VInt) or
// XMM0 (VFloat), and reports which convention it used.
func (e *Emitter) emitExpr(ref astload.NodeRef) (ValueKind, error) {
	if !ref.Valid() {
		return 0, &Error{Node: ref, Msg: "expression reference is absent"}
	}
	n := e.pool.Node(ref)
	switch n.Kind {
	case astload.KindNumberLit:
		return e.emitNumberLit(n.NumberLit)
	case astload.KindIdentifier:
		return e.emitIdentifierLoad(ref, n.Identifier)
	case astload.KindBinaryOp:
		return e.emitBinaryOp(ref, n.BinaryOp)
	case astload.KindArray4DAccess:
		return e.emitArray4DAccess(ref, n.Array4DAccess, false)
	case astload.KindCall:
		return e.emitCall(ref, n.Call)
	default:
		return 0, &Error{Node: ref, Msg: "node kind is not a valid expression: " + n.Kind.String()}
	}
}

// emitNumberLit materializes a literal per spec.md §4.4 (integer: `mov
// rax, imm64`) or §4.5 (double: the push/movsd sequence sse.EmitLoadConst
// wraps).
func (e *Emitter) emitNumberLit(lit astload.NumberLitPayload) (ValueKind, error) {
	if lit.IsFloat {
		sse.EmitLoadConst(e.buf, x64enc.XMM0, lit.FltVal)
		return VFloat, nil
	}
	e.buf.EmitBytes(x64enc.MovRegImm64(x64enc.RAX, uint64(lit.IntVal)))
	return VInt, nil
}

// emitIdentifierLoad emits `mov rax, [rbp+offset]` or the movsd
// equivalent, per the symbol's recorded IsFloat (spec.md §4.4's
// "Identifier load" rule, generalized to the two value kinds C5 adds).
func (e *Emitter) emitIdentifierLoad(ref astload.NodeRef, id astload.IdentifierPayload) (ValueKind, error) {
	name := e.pool.Strings.String(id.Name)
	sym, ok := e.syms.Lookup(name)
	if !ok {
		return 0, &Error{Node: ref, Msg: "undefined identifier: " + name}
	}
	if sym.Kind != symtab.SymScalar {
		return 0, &Error{Node: ref, Msg: "identifier does not name a scalar: " + name}
	}
	if sym.Scalar.IsFloat {
		sse.EmitLoad(e.buf, x64enc.XMM0, x64enc.RBP, sym.Scalar.FrameOffset)
		return VFloat, nil
	}
	e.buf.EmitBytes(x64enc.MovRegFromMem(x64enc.RAX, x64enc.RBP, sym.Scalar.FrameOffset))
	return VInt, nil
}

// emitArray4DAccess evaluates the four index expressions, pushing each in
// x,y,z,t order (spec.md §4.6), computes the element address, and either
// returns it as an lvalue address in RAX (lvalue=true) or dereferences it
// into RAX (lvalue=false; arrays hold only integers in this version).
func (e *Emitter) emitArray4DAccess(ref astload.NodeRef, acc astload.Array4DAccessPayload, lvalue bool) (ValueKind, error) {
	name := e.pool.Strings.String(acc.Array)
	sym, ok := e.syms.Lookup(name)
	if !ok || sym.Kind != symtab.SymArray4D {
		return 0, &Error{Node: ref, Msg: "identifier does not name a 4-D array: " + name}
	}

	for axis, idxRef := range acc.Indices {
		if axis == 3 && acc.TMode != astload.TAbsolute {
			e.emitTemporalIndex(acc.TMode == astload.TFuture)
			e.pushWord(x64enc.RAX)
			continue
		}
		kind, err := e.emitExpr(idxRef)
		if err != nil {
			return 0, err
		}
		if kind == VFloat {
			return 0, &Error{Node: ref, Msg: "array index must be an integer"}
		}
		e.pushWord(x64enc.RAX)
	}

	// array4d.EmitAddress pops all four pushed indices itself (it is a
	// buf-level helper outside the Emitter's pendingWords bookkeeping), so
	// the four pushWord calls above must be retired here to keep the
	// alignment count accurate for any call evaluated after this access.
	for i := 0; i < len(acc.Indices); i++ {
		e.pendingWords--
	}
	array4d.EmitAddress(e.buf, sym.Array.Dims, sym.Array.ElemSize, sym.Array.BaseOffset)
	if lvalue {
		return VInt, nil
	}
	array4d.EmitLoad(e.buf, x64enc.RAX)
	return VInt, nil
}

// emitTemporalIndex loads the runtime current-time register (R15, by
// Blaze's internal convention) into RAX offset by ±1, per spec.md §4.6's
// documented lowering.
func (e *Emitter) emitTemporalIndex(isFuture bool) {
	e.buf.EmitBytes(x64enc.MovRegReg(x64enc.RAX, currentTimeReg))
	off := array4d.TemporalOffset(isFuture)
	if off >= 0 {
		e.buf.EmitBytes(x64enc.AddRegImm32(x64enc.RAX, off))
	} else {
		e.buf.EmitBytes(x64enc.SubRegImm32(x64enc.RAX, -off))
	}
}

// currentTimeReg is the register Blaze's calling convention reserves for
// the runtime-provided current-time value spec.md §4.6 requires for
// temporal array indexing. It is callee-saved (R12..R15) so a function
// call does not disturb it.
const currentTimeReg = x64enc.R15
