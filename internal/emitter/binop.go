package emitter

import (
	"github.com/blaze-lang/blaze/internal/array4d"
	"github.com/blaze-lang/blaze/internal/astload"
	"github.com/blaze-lang/blaze/internal/sse"
	"github.com/blaze-lang/blaze/internal/symtab"
	"github.com/blaze-lang/blaze/internal/x64enc"
)

// emitBinaryOp handles both arithmetic/comparison and the lvalue-producing
// assignment form (spec.md §4.4's BinOp bullets).
func (e *Emitter) emitBinaryOp(ref astload.NodeRef, op astload.BinaryOpPayload) (ValueKind, error) {
	if op.Op == astload.OpAssign {
		return e.emitAssign(ref, op.Left, op.Right)
	}

	// Integer path: emit left into RAX; push rax; emit right into RAX;
	// pop rcx; op with RCX op RAX convention, so operand order survives
	// for subtraction/division (spec.md §4.4).
	leftKind, err := e.emitExpr(op.Left)
	if err != nil {
		return 0, err
	}
	if leftKind == VFloat {
		e.spillWord()
		sse.EmitStore(e.buf, x64enc.RSP, 0, x64enc.XMM0)
	} else {
		e.pushWord(x64enc.RAX)
	}

	rightKind, err := e.emitExpr(op.Right)
	if err != nil {
		return 0, err
	}

	if leftKind == VFloat || rightKind == VFloat {
		return e.emitFloatBinary(ref, op.Op, leftKind, rightKind)
	}

	e.popWord(x64enc.RCX)
	return e.emitIntBinary(ref, op.Op)
}

// emitIntBinary finishes an integer binary op with left in RCX and right
// in RAX, leaving the result in RAX.
func (e *Emitter) emitIntBinary(ref astload.NodeRef, op astload.BinOp) (ValueKind, error) {
	switch op {
	case astload.OpAdd:
		e.buf.EmitBytes(x64enc.AddRegReg(x64enc.RCX, x64enc.RAX))
		e.buf.EmitBytes(x64enc.MovRegReg(x64enc.RAX, x64enc.RCX))
	case astload.OpSub:
		e.buf.EmitBytes(x64enc.SubRegReg(x64enc.RCX, x64enc.RAX))
		e.buf.EmitBytes(x64enc.MovRegReg(x64enc.RAX, x64enc.RCX))
	case astload.OpMul:
		// mul is RAX *= src; operand order does not matter for
		// multiplication, so right (already in RAX) times left (RCX).
		e.buf.EmitBytes(x64enc.MulReg(x64enc.RCX))
	case astload.OpDiv:
		// div takes its dividend in RAX, but RAX currently holds right
		// and RCX holds left; swap them in place (no spare register is
		// free here) so RAX=left, RCX=right before dividing.
		e.buf.EmitBytes(x64enc.XorRegReg(x64enc.RCX, x64enc.RAX)) // rcx = left^right
		e.buf.EmitBytes(x64enc.XorRegReg(x64enc.RAX, x64enc.RCX)) // rax = left
		e.buf.EmitBytes(x64enc.XorRegReg(x64enc.RCX, x64enc.RAX)) // rcx = right
		e.buf.EmitBytes(x64enc.XorRegReg(x64enc.RDX, x64enc.RDX))
		e.buf.EmitBytes(x64enc.DivReg(x64enc.RCX))
	case astload.OpEq, astload.OpNe, astload.OpLt, astload.OpLe, astload.OpGt, astload.OpGe:
		e.buf.EmitBytes(x64enc.CmpRegReg(x64enc.RCX, x64enc.RAX))
		e.buf.EmitBytes(x64enc.SetccAL(intCompareCond(op)))
		e.buf.EmitBytes(x64enc.MovzxRaxAl())
	default:
		return 0, &Error{Node: ref, Msg: "unsupported integer binary op"}
	}
	return VInt, nil
}

func intCompareCond(op astload.BinOp) x64enc.Cond {
	switch op {
	case astload.OpEq:
		return x64enc.CondE
	case astload.OpNe:
		return x64enc.CondNE
	case astload.OpLt:
		return x64enc.CondL
	case astload.OpLe:
		return x64enc.CondLE
	case astload.OpGt:
		return x64enc.CondG
	default: // OpGe
		return x64enc.CondGE
	}
}

// emitFloatBinary finishes a binary op where at least one operand is a
// double. The right operand is moved (or converted) into XMM1, then the
// left operand is restored from the stack slot into XMM0 (converted if it
// was an integer) and the two are combined with the result in XMM0.
func (e *Emitter) emitFloatBinary(ref astload.NodeRef, op astload.BinOp, leftKind, rightKind ValueKind) (ValueKind, error) {
	if rightKind == VFloat {
		e.buf.EmitBytes(x64enc.MovsdXmmXmm(x64enc.XMM1, x64enc.XMM0))
	} else {
		sse.EmitFromInt(e.buf, x64enc.XMM1, x64enc.RAX)
	}

	if leftKind == VFloat {
		sse.EmitLoad(e.buf, x64enc.XMM0, x64enc.RSP, 0)
		e.unspillWord()
	} else {
		e.popWord(x64enc.RAX)
		sse.EmitFromInt(e.buf, x64enc.XMM0, x64enc.RAX)
	}
	// XMM0 = left, XMM1 = right.

	switch op {
	case astload.OpAdd:
		sse.EmitArith(e.buf, sse.OpAdd, x64enc.XMM0, x64enc.XMM1)
	case astload.OpSub:
		sse.EmitArith(e.buf, sse.OpSub, x64enc.XMM0, x64enc.XMM1)
	case astload.OpMul:
		sse.EmitArith(e.buf, sse.OpMul, x64enc.XMM0, x64enc.XMM1)
	case astload.OpDiv:
		sse.EmitArith(e.buf, sse.OpDiv, x64enc.XMM0, x64enc.XMM1)
	case astload.OpEq, astload.OpNe, astload.OpLt, astload.OpLe, astload.OpGt, astload.OpGe:
		sse.EmitCompare(e.buf, floatCompareOp(op), x64enc.XMM0, x64enc.XMM1)
		return VInt, nil
	default:
		return 0, &Error{Node: ref, Msg: "unsupported float binary op"}
	}
	return VFloat, nil
}

func floatCompareOp(op astload.BinOp) sse.CompareOp {
	switch op {
	case astload.OpEq:
		return sse.CmpEQ
	case astload.OpNe:
		return sse.CmpNE
	case astload.OpLt:
		return sse.CmpLT
	case astload.OpLe:
		return sse.CmpLE
	case astload.OpGt:
		return sse.CmpGT
	default: // OpGe
		return sse.CmpGE
	}
}

// emitAssign emits the RHS into RAX/XMM0, then stores it at the lvalue
// named by lhs — an identifier or a 4-D array access (spec.md §4.4's
// Assignment rule, generalized to the array lvalue §4.6 describes).
func (e *Emitter) emitAssign(ref, lhs, rhs astload.NodeRef) (ValueKind, error) {
	if !lhs.Valid() {
		return 0, &Error{Node: ref, Msg: "assignment missing an lvalue"}
	}
	lhsNode := e.pool.Node(lhs)

	switch lhsNode.Kind {
	case astload.KindIdentifier:
		name := e.pool.Strings.String(lhsNode.Identifier.Name)
		sym, ok := e.syms.Lookup(name)
		if !ok || sym.Kind != symtab.SymScalar {
			return 0, &Error{Node: lhs, Msg: "assignment target is not a declared scalar: " + name}
		}
		kind, err := e.emitExpr(rhs)
		if err != nil {
			return 0, err
		}
		if sym.Scalar.IsFloat {
			if kind == VInt {
				sse.EmitFromInt(e.buf, x64enc.XMM0, x64enc.RAX)
			}
			sse.EmitStore(e.buf, x64enc.RBP, sym.Scalar.FrameOffset, x64enc.XMM0)
		} else {
			if kind == VFloat {
				sse.EmitToInt(e.buf, x64enc.RAX, x64enc.XMM0)
			}
			e.buf.EmitBytes(x64enc.MovMemFromReg(x64enc.RBP, sym.Scalar.FrameOffset, x64enc.RAX))
		}
		return kind, nil

	case astload.KindArray4DAccess:
		kind, err := e.emitExpr(rhs)
		if err != nil {
			return 0, err
		}
		if kind == VFloat {
			sse.EmitToInt(e.buf, x64enc.RAX, x64enc.XMM0)
		}
		e.pushWord(x64enc.RAX)

		if _, err := e.emitArray4DAccess(lhs, lhsNode.Array4DAccess, true); err != nil {
			return 0, err
		}
		e.popWord(x64enc.RCX)
		array4d.EmitStore(e.buf, x64enc.RCX)
		return VInt, nil

	default:
		return 0, &Error{Node: lhs, Msg: "unsupported assignment target kind: " + lhsNode.Kind.String()}
	}
}
