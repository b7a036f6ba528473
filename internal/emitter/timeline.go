package emitter

import (
	"github.com/blaze-lang/blaze/internal/astload"
	"github.com/blaze-lang/blaze/internal/codebuf"
	"github.com/blaze-lang/blaze/internal/x64enc"
)

// emitPermanentTimeline registers the named flow with the runtime's flow
// table on first encounter (spec.md §4.7's register_permanent_timeline),
// storing the returned flow id in a dedicated frame slot so later
// TimingOp nodes referencing the same name can poll it, then emits Body
// unconditionally — a permanent_timeline declaration runs its body every
// time control reaches it; rate gating happens only at a TimingOp that
// names the flow after its declaration, per spec.md §4.7's documented
// split between the two node kinds.
func (e *Emitter) emitPermanentTimeline(ref astload.NodeRef, pt astload.PermanentTimelinePayload) error {
	name := e.pool.Strings.String(pt.Name)

	if _, already := e.registeredFlows[name]; !already {
		spec, err := astload.Expect(e.pool, pt.Spec, astload.KindFlowSpec)
		if err != nil {
			return err
		}

		idSym, err := e.syms.DeclareVar(name+"$flow", 8, false)
		if err != nil {
			return err
		}

		rate := int64(0)
		if spec.FlowSpec.Kind == astload.FlowRateLimited {
			rate = spec.FlowSpec.RateHz
		}
		e.buf.EmitBytes(x64enc.MovRegImm64(x64enc.RDI, uint64(pt.TimelineID)))
		e.buf.EmitBytes(x64enc.MovRegImm64(x64enc.RSI, uint64(rate)))
		e.emitAbsCall(e.entries.RegisterPermanentTimeline)
		e.buf.EmitBytes(x64enc.MovMemFromReg(x64enc.RBP, idSym.Scalar.FrameOffset, x64enc.RAX))

		e.registeredFlows[name] = idSym.Scalar.FrameOffset
	}

	if pt.Body.Valid() {
		if _, err := e.emitStmt(pt.Body); err != nil {
			return err
		}
	}
	return nil
}

// emitTimingOp gates Body on a should_execute_flow poll against a flow a
// PermanentTimeline declaration already registered (spec.md §4.7).
func (e *Emitter) emitTimingOp(ref astload.NodeRef, t astload.TimingOpPayload) error {
	name := e.pool.Strings.String(t.Flow)
	frameOffset, ok := e.registeredFlows[name]
	if !ok {
		return &Error{Node: ref, Msg: "timing op references an undeclared flow: " + name}
	}

	e.buf.EmitBytes(x64enc.MovRegFromMem(x64enc.RDI, x64enc.RBP, frameOffset))
	e.emitAbsCall(e.entries.ShouldExecuteFlow)
	e.buf.EmitBytes(x64enc.CmpRegImm32(x64enc.RAX, 0))

	skipLabel := e.buf.NewLabel()
	site := e.buf.Pos()
	e.buf.EmitBytes(x64enc.JccRel32(x64enc.CondE, 0))
	e.buf.AddPatch(site+2, codebuf.PatchRelJump32, skipLabel)

	if t.Body.Valid() {
		if _, err := e.emitStmt(t.Body); err != nil {
			return err
		}
	}
	e.buf.PlaceLabel(skipLabel)
	return nil
}

// emitFixedPointArrival registers the named rendezvous barrier on first
// encounter (spec.md §4.7's register_fixedpoint, name embedded inline via
// emitInlineBytes), storing its id in a frame slot, then always emits the
// arrival call against the evaluated Data expression.
func (e *Emitter) emitFixedPointArrival(ref astload.NodeRef, fp astload.FixedPointPayload) error {
	name := e.pool.Strings.String(fp.Name)

	frameOffset, ok := e.registeredFixedPoints[name]
	if !ok {
		idSym, err := e.syms.DeclareVar(name+"$fp", 8, false)
		if err != nil {
			return err
		}
		frameOffset = idSym.Scalar.FrameOffset

		e.emitInlineBytes(x64enc.RDI, []byte(name))
		e.buf.EmitBytes(x64enc.MovRegImm64(x64enc.RSI, uint64(len(name))))
		e.buf.EmitBytes(x64enc.MovRegImm64(x64enc.RDX, fp.Required))
		e.emitAbsCall(e.entries.RegisterFixedPoint)
		e.buf.EmitBytes(x64enc.MovMemFromReg(x64enc.RBP, frameOffset, x64enc.RAX))

		e.registeredFixedPoints[name] = frameOffset
	}

	if fp.Data.Valid() {
		kind, err := e.emitExpr(fp.Data)
		if err != nil {
			return err
		}
		if kind == VFloat {
			e.buf.EmitBytes(x64enc.Cvtsd2siRegXmm(x64enc.RAX, x64enc.XMM0))
		}
	} else {
		e.buf.EmitBytes(x64enc.MovRegImm64(x64enc.RAX, 0))
	}
	e.pushWord(x64enc.RAX)

	e.buf.EmitBytes(x64enc.MovRegFromMem(x64enc.RDI, x64enc.RBP, frameOffset))
	e.buf.EmitBytes(x64enc.MovRegImm64(x64enc.RSI, uint64(fp.TimelineID)))
	e.popWord(x64enc.RDX)
	e.emitAbsCall(e.entries.TimelineArriveFixedPoint)
	return nil
}
