package emitter

import "github.com/blaze-lang/blaze/internal/x64enc"

// RuntimeEntries is the set of fixed addresses where the host process has
// linked the C7 runtime ABI's entry functions and the 4-D array
// allocator. Generated code reaches them with an absolute call (load the
// address into a scratch register, then `call reg`) rather than a
// code-relative `call rel32`, since none of them live inside the code
// buffer itself — this is the emitter-side half of the contract
// internal/runtimeabi implements on the host side.
type RuntimeEntries struct {
	Alloc uint64 // RDI = byte count -> RAX = pointer

	RegisterFixedPoint        uint64 // RDI = name ptr, RSI = name len, RDX = required -> RAX = id
	TimelineArriveFixedPoint  uint64 // RDI = fp id, RSI = timeline id, RDX = data ptr -> RAX = released (0/1)
	RegisterPermanentTimeline uint64 // RDI = timeline id, RSI = rate hz -> RAX = flow id
	ShouldExecuteFlow         uint64 // RDI = flow id -> RAX = 0/1
	PauseFlow                 uint64 // RDI = flow id
	ResumeFlow                uint64 // RDI = flow id, RSI = new rate
	TerminateFlow             uint64 // RDI = flow id
}

// print statements do not go through RuntimeEntries at all: they emit a
// direct sys_write (and the print-integer helper an itoa loop around
// sys_write), the same way internal/codegen/linux's X86_64Generator
// reaches stdout with a bare `mov rax, 1; syscall` rather than a runtime
// entry point. See internal/emitter/print.go.

// absCallScratch is the register used to hold a runtime entry's address
// immediately before calling through it. R11 is caller-saved and outside
// the fixed argument registers, so it never collides with an in-flight
// argument.
const absCallScratch = x64enc.R11

// emitAbsCall loads addr into absCallScratch and calls through it, keeping
// RSP 16-byte aligned per spec.md §4.4 (see withAlignedCall).
func (e *Emitter) emitAbsCall(addr uint64) {
	e.withAlignedCall(func() {
		e.buf.EmitBytes(x64enc.MovRegImm64(absCallScratch, addr))
		e.buf.EmitBytes(x64enc.CallReg(absCallScratch))
	})
}

// pushWord emits `push reg` and records one outstanding 8-byte stack slot
// against the 16-byte alignment invariant spec.md §4.4 requires "before
// each call". resetPendingWords (called at the top of every function body)
// is the zero baseline: a prologue's `push rbp` + 16-byte-aligned `sub rsp,
// N` always leaves RSP 16-byte aligned at that point, so from there on an
// even number of pending words keeps it aligned and an odd number breaks
// it by 8.
func (e *Emitter) pushWord(reg x64enc.Reg) {
	e.buf.EmitBytes(x64enc.PushReg(reg))
	e.pendingWords++
}

// popWord emits `pop reg`, retiring one outstanding stack slot pushWord
// recorded.
func (e *Emitter) popWord(reg x64enc.Reg) {
	e.buf.EmitBytes(x64enc.PopReg(reg))
	e.pendingWords--
}

// spillWord/unspillWord bracket the raw `sub/add rsp, 8` pair
// emitFloatBinary uses to stash a double on the stack — the same
// alignment bookkeeping as pushWord/popWord, just without a register.
func (e *Emitter) spillWord() {
	e.buf.EmitBytes(x64enc.SubRegImm32(x64enc.RSP, 8))
	e.pendingWords++
}

func (e *Emitter) unspillWord() {
	e.buf.EmitBytes(x64enc.AddRegImm32(x64enc.RSP, 8))
	e.pendingWords--
}

// resetPendingWords zeroes the outstanding-word count; called once at the
// start of every function body (the entry function and each user
// function), since the count is only ever meaningful relative to that
// function's own prologue-aligned baseline.
func (e *Emitter) resetPendingWords() {
	e.pendingWords = 0
}

// withAlignedCall runs emit (which must emit exactly one `call`) with a
// compensating dummy push when an odd number of words is currently
// pending, per spec.md §4.4: "Stack is maintained 16-byte aligned before
// each call (a dummy push compensates when an odd number of pushes is
// pending)." The compensation is local to this call and does not itself
// change pendingWords' parity.
func (e *Emitter) withAlignedCall(emit func()) {
	if e.pendingWords%2 != 0 {
		e.buf.EmitBytes(x64enc.SubRegImm32(x64enc.RSP, 8))
		emit()
		e.buf.EmitBytes(x64enc.AddRegImm32(x64enc.RSP, 8))
		return
	}
	emit()
}
