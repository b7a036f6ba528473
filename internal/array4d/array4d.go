// Package array4d emits the 4-D array codegen of C6: header layout,
// compile-time stride computation, and the creation/access/store
// sequences, built the way internal/codegen/linux's X86_64Generator
// builds its syscall sequences — a handful of named emit* functions
// writing straight into a codebuf.Buffer via internal/x64enc.
package array4d

import (
	"github.com/blaze-lang/blaze/internal/codebuf"
	"github.com/blaze-lang/blaze/internal/x64enc"
)

// HeaderSize is the fixed 64-byte header preceding every array's data
// region: four u64 dimensions, a u64 element size, and 24 reserved bytes.
const HeaderSize = 64

const (
	offD0       = 0
	offD1       = 8
	offD2       = 16
	offD3       = 24
	offElemSize = 32
	// 24 bytes reserved, offsets 40..63, intentionally left unwritten.
)

// Strides holds the row-major per-axis byte strides of a 4-D array.
type Strides struct {
	S0, S1, S2, S3 int64
}

// ComputeStrides derives the strides for dims with the given element
// size: s0=e, s1=d0*e, s2=d0*d1*e, s3=d0*d1*d2*e.
func ComputeStrides(dims [4]int64, elemSize int32) Strides {
	e := int64(elemSize)
	return Strides{
		S0: e,
		S1: dims[0] * e,
		S2: dims[0] * dims[1] * e,
		S3: dims[0] * dims[1] * dims[2] * e,
	}
}

// DataBytes is the total size of the data region (excluding the header).
func DataBytes(dims [4]int64, elemSize int32) int64 {
	return dims[0] * dims[1] * dims[2] * dims[3] * int64(elemSize)
}

// TotalBytes is HeaderSize plus the data region — the byte count passed
// to the allocation entry point.
func TotalBytes(dims [4]int64, elemSize int32) int64 {
	return HeaderSize + DataBytes(dims, elemSize)
}

// EmitCreate emits a call to the reference-counted allocation entry
// (RDI = byte count, returns a pointer in RAX per its contract), fills
// the header immediates, and stores the base pointer into the frame slot
// at baseOffset(RBP). allocAddr is the fixed runtime address of the
// allocation entry (it lives outside the code buffer, so the call goes
// through an absolute load-and-call rather than a code-relative patch).
func EmitCreate(buf *codebuf.Buffer, dims [4]int64, elemSize int32, allocAddr uint64, baseOffset int32) {
	total := TotalBytes(dims, elemSize)
	buf.EmitBytes(x64enc.MovRegImm64(x64enc.RDI, uint64(total)))

	buf.EmitBytes(x64enc.MovRegImm64(x64enc.R11, allocAddr))
	buf.EmitBytes(x64enc.CallReg(x64enc.R11))

	// Base pointer now in RAX; store it before clobbering RAX with the
	// header writes below.
	buf.EmitBytes(x64enc.MovMemFromReg(x64enc.RBP, baseOffset, x64enc.RAX))

	for _, hw := range []struct {
		off int32
		val uint64
	}{
		{offD0, uint64(dims[0])},
		{offD1, uint64(dims[1])},
		{offD2, uint64(dims[2])},
		{offD3, uint64(dims[3])},
		{offElemSize, uint64(elemSize)},
	} {
		// Each header field is written through a fresh literal load into
		// RCX and stored relative to the base pointer still in RAX — no
		// register carries a stale value from a prior field's write,
		// unlike the pattern spec.md §9 flags as a reuse hazard.
		buf.EmitBytes(x64enc.MovRegImm64(x64enc.RCX, hw.val))
		buf.EmitBytes(x64enc.MovMemFromReg(x64enc.RAX, hw.off, x64enc.RCX))
	}
}

// EmitAddress computes the address of element (x,y,z,t) into RAX, given
// the four index values already evaluated into RAX and pushed in x,y,z,t
// order by the caller — this function pops them per spec.md §4.6's
// reverse-order convention (R8=x, R9=y, R10=z, R11=t), multiplies by the
// compile-time strides, sums, and adds the base pointer loaded from
// baseOffset(RBP). Leaves the element address in RAX.
func EmitAddress(buf *codebuf.Buffer, dims [4]int64, elemSize int32, baseOffset int32) {
	buf.EmitBytes(x64enc.PopReg(x64enc.R11)) // t
	buf.EmitBytes(x64enc.PopReg(x64enc.R10)) // z
	buf.EmitBytes(x64enc.PopReg(x64enc.R9))  // y
	buf.EmitBytes(x64enc.PopReg(x64enc.R8))  // x

	s := ComputeStrides(dims, elemSize)
	buf.EmitBytes(x64enc.ImulRegRegImm32(x64enc.R8, x64enc.R8, int32(s.S0)))
	buf.EmitBytes(x64enc.ImulRegRegImm32(x64enc.R9, x64enc.R9, int32(s.S1)))
	buf.EmitBytes(x64enc.ImulRegRegImm32(x64enc.R10, x64enc.R10, int32(s.S2)))
	buf.EmitBytes(x64enc.ImulRegRegImm32(x64enc.R11, x64enc.R11, int32(s.S3)))

	buf.EmitBytes(x64enc.AddRegReg(x64enc.R8, x64enc.R9))
	buf.EmitBytes(x64enc.AddRegReg(x64enc.R8, x64enc.R10))
	buf.EmitBytes(x64enc.AddRegReg(x64enc.R8, x64enc.R11))

	buf.EmitBytes(x64enc.MovRegFromMem(x64enc.RAX, x64enc.RBP, baseOffset))
	buf.EmitBytes(x64enc.AddRegImm32(x64enc.RAX, int32(HeaderSize)))
	buf.EmitBytes(x64enc.AddRegReg(x64enc.RAX, x64enc.R8))
}

// EmitLoad emits an rvalue read: the element address (already computed by
// EmitAddress into RAX) is dereferenced into dst.
func EmitLoad(buf *codebuf.Buffer, dst x64enc.Reg) {
	buf.EmitBytes(x64enc.MovRegFromMem(dst, x64enc.RAX, 0))
}

// EmitStore emits an lvalue write: src is stored at the element address
// already computed by EmitAddress into RAX.
func EmitStore(buf *codebuf.Buffer, src x64enc.Reg) {
	buf.EmitBytes(x64enc.MovMemFromReg(x64enc.RAX, 0, src))
}

// TemporalOffset resolves a temporal-axis mode against the current-time
// value already in a register by the caller; Blaze keeps spec.md §4.6's
// documented ±1 literal offset rather than a configurable window (see
// the project's own design notes on this open question).
func TemporalOffset(isFuture bool) int32 {
	if isFuture {
		return 1
	}
	return -1
}
