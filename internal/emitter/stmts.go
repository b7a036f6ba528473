package emitter

import (
	"github.com/blaze-lang/blaze/internal/array4d"
	"github.com/blaze-lang/blaze/internal/astload"
	"github.com/blaze-lang/blaze/internal/x64enc"
)

// emitStmt dispatches one statement-position node. It returns the
// ValueKind the statement left in RAX/XMM0 when it behaves like an
// expression (so the top-level entry block can use the last statement's
// value as the process exit code); non-expression statements report VInt
// with an unspecified RAX, which emitEntry only consults when it is the
// final statement of the block.
func (e *Emitter) emitStmt(ref astload.NodeRef) (ValueKind, error) {
	n := e.pool.Node(ref)
	switch n.Kind {
	case astload.KindVarDef:
		return e.emitVarDef(ref, n.VarDef)
	case astload.KindArray4DDef:
		return VInt, e.emitArray4DDef(ref, n.Array4DDef)
	case astload.KindActionBlock:
		return e.emitNestedBlock(n.ActionBlock)
	case astload.KindConditional:
		return VInt, e.emitConditional(ref, n.Conditional)
	case astload.KindJump:
		return VInt, e.emitJump(ref, n.Jump)
	case astload.KindPrint:
		return VInt, e.emitPrint(ref, n.Print)
	case astload.KindTimingOp:
		return VInt, e.emitTimingOp(ref, n.TimingOp)
	case astload.KindFixedPoint:
		return VInt, e.emitFixedPointArrival(ref, n.FixedPoint)
	case astload.KindPermanentTimeline:
		return VInt, e.emitPermanentTimeline(ref, n.PermanentTimeline)
	case astload.KindBinaryOp, astload.KindNumberLit, astload.KindIdentifier,
		astload.KindArray4DAccess, astload.KindCall:
		return e.emitExpr(ref)
	default:
		return 0, &Error{Node: ref, Msg: "unsupported statement kind: " + n.Kind.String()}
	}
}

// emitVarDef declares the variable in the current scope, inferring
// IsFloat from its initializer (untyped zero if uninitialized), and
// stores the initial value if one was given.
func (e *Emitter) emitVarDef(ref astload.NodeRef, def astload.VarDefPayload) (ValueKind, error) {
	name := e.pool.Strings.String(def.Name)

	isFloat := false
	if def.Init.Valid() {
		if n := e.pool.Node(def.Init); n.Kind == astload.KindNumberLit {
			isFloat = n.NumberLit.IsFloat
		}
	}

	sym, err := e.syms.DeclareVar(name, 8, isFloat)
	if err != nil {
		return 0, err
	}

	if !def.Init.Valid() {
		return VInt, nil
	}
	kind, err := e.emitExpr(def.Init)
	if err != nil {
		return 0, err
	}
	if sym.Scalar.IsFloat {
		e.buf.EmitBytes(x64enc.MovsdMemXmm(x64enc.RBP, sym.Scalar.FrameOffset, x64enc.XMM0))
	} else {
		e.buf.EmitBytes(x64enc.MovMemFromReg(x64enc.RBP, sym.Scalar.FrameOffset, x64enc.RAX))
	}
	return kind, nil
}

// emitArray4DDef declares the array's base-pointer frame slot and emits
// the allocation/header-fill sequence (spec.md §4.6's Creation step).
func (e *Emitter) emitArray4DDef(ref astload.NodeRef, def astload.Array4DDefPayload) error {
	name := e.pool.Strings.String(def.Name)
	sym, err := e.syms.DeclareArray4D(name, def.Dims, def.ElemSize)
	if err != nil {
		return err
	}
	array4d.EmitCreate(e.buf, def.Dims, def.ElemSize, e.entries.Alloc, sym.Array.BaseOffset)
	return nil
}

// emitNestedBlock emits a brace-delimited statement sequence without its
// own stack frame (control-flow bodies reuse the enclosing function's
// frame; only enter_scope/leave_scope bracket declarations within it).
func (e *Emitter) emitNestedBlock(block astload.ActionBlockPayload) (ValueKind, error) {
	e.syms.EnterScope()
	defer e.syms.LeaveScope()

	var last ValueKind
	for _, stmtRef := range block.Statements {
		kind, err := e.emitStmt(stmtRef)
		if err != nil {
			return 0, err
		}
		last = kind
	}
	return last, nil
}
