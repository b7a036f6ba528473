package x64enc

import "math"

func fitsSignedImm32(v uint64) bool {
	s := int64(v)
	return s >= math.MinInt32 && s <= math.MaxInt32
}

// MovRegImm64 encodes mov dst, imm. Values that fit a sign-extended imm32
// use the 7-byte `C7 /0 id` form (matching spec.md §8's golden bytes for
// `mov rax, 1` / `mov rdi, 1`); wider values fall back to the 10-byte
// `B8+r imm64` form.
func MovRegImm64(dst Reg, imm uint64) []byte {
	field, ext := dst.num()
	if fitsSignedImm32(imm) {
		buf := []byte{rex(true, false, false, ext), 0xC7, modrm(0b11, 0, field)}
		return append(buf, writeLE32Bytes(uint32(int32(imm)))...)
	}
	buf := []byte{rex(true, false, false, ext), 0xB8 + field}
	return append(buf, writeLE64Bytes(imm)...)
}

// MovRegReg encodes mov dst, src (both 64-bit GPRs).
func MovRegReg(dst, src Reg) []byte {
	regField, regExt := dst.num()
	rmField, rmExt := src.num()
	return []byte{rex(true, regExt, false, rmExt), 0x8B, modrm(0b11, regField, rmField)}
}

// MovMemFromReg encodes mov [base+disp], src.
func MovMemFromReg(base Reg, disp int32, src Reg) []byte {
	regExt, baseExt := memPrefixBits(src, base)
	buf := []byte{rex(true, regExt, false, baseExt), 0x89}
	return memOperand(buf, src, base, disp)
}

// MovRegFromMem encodes mov dst, [base+disp].
func MovRegFromMem(dst Reg, base Reg, disp int32) []byte {
	regExt, baseExt := memPrefixBits(dst, base)
	buf := []byte{rex(true, regExt, false, baseExt), 0x8B}
	return memOperand(buf, dst, base, disp)
}

// LeaRegMem encodes lea dst, [base+disp] — address computation only, no
// memory access. Used by the print helpers to point at a stack buffer.
func LeaRegMem(dst Reg, base Reg, disp int32) []byte {
	regExt, baseExt := memPrefixBits(dst, base)
	buf := []byte{rex(true, regExt, false, baseExt), 0x8D}
	return memOperand(buf, dst, base, disp)
}

// MovMem8FromReg8 encodes mov [base+disp], r8 — a single-byte store, the
// low 8 bits of src. Needed only by the decimal-formatting print helper;
// every other integer path in this package works in full 64-bit quantities.
func MovMem8FromReg8(base Reg, disp int32, src Reg) []byte {
	regExt, baseExt := memPrefixBits(src, base)
	buf := []byte{}
	if needsRex(false, regExt, false, baseExt) {
		buf = append(buf, rex(false, regExt, false, baseExt))
	}
	buf = append(buf, 0x88)
	return memOperand(buf, src, base, disp)
}

// aluOpcodeRR is the r/m64, r64 form opcode for each two-register ALU op.
var aluOpcodeRR = map[string]byte{
	"add": 0x01, "or": 0x09, "and": 0x21, "sub": 0x29, "xor": 0x31, "cmp": 0x39,
}

// aluDigitImm is the /digit extension used by the 0x81 r/m64, imm32 group.
var aluDigitImm = map[string]uint8{
	"add": 0, "or": 1, "and": 4, "sub": 5, "xor": 6, "cmp": 7,
}

func aluRegReg(op string, dst, src Reg) []byte {
	regField, regExt := src.num()
	rmField, rmExt := dst.num()
	return []byte{rex(true, regExt, false, rmExt), aluOpcodeRR[op], modrm(0b11, regField, rmField)}
}

func aluRegImm32(op string, dst Reg, imm int32) []byte {
	rmField, rmExt := dst.num()
	buf := []byte{rex(true, false, false, rmExt), 0x81, modrm(0b11, aluDigitImm[op], rmField)}
	return append(buf, writeLE32Bytes(uint32(imm))...)
}

func AddRegReg(dst, src Reg) []byte { return aluRegReg("add", dst, src) }
func SubRegReg(dst, src Reg) []byte { return aluRegReg("sub", dst, src) }
func CmpRegReg(dst, src Reg) []byte { return aluRegReg("cmp", dst, src) }
func AndRegReg(dst, src Reg) []byte { return aluRegReg("and", dst, src) }
func OrRegReg(dst, src Reg) []byte  { return aluRegReg("or", dst, src) }
func XorRegReg(dst, src Reg) []byte { return aluRegReg("xor", dst, src) }

func AddRegImm32(dst Reg, imm int32) []byte { return aluRegImm32("add", dst, imm) }
func SubRegImm32(dst Reg, imm int32) []byte { return aluRegImm32("sub", dst, imm) }
func CmpRegImm32(dst Reg, imm int32) []byte { return aluRegImm32("cmp", dst, imm) }
func AndRegImm32(dst Reg, imm int32) []byte { return aluRegImm32("and", dst, imm) }
func OrRegImm32(dst Reg, imm int32) []byte  { return aluRegImm32("or", dst, imm) }
func XorRegImm32(dst Reg, imm int32) []byte { return aluRegImm32("xor", dst, imm) }

// MulReg encodes mul src — unsigned RAX *= src, high bits discarded into RDX.
func MulReg(src Reg) []byte {
	field, ext := src.num()
	return []byte{rex(true, false, false, ext), 0xF7, modrm(0b11, 4, field)}
}

// DivReg encodes div src — unsigned RDX:RAX / src, quotient in RAX,
// remainder in RDX. Callers must zero RDX first for a 64-bit dividend
// that fits in RAX alone.
func DivReg(src Reg) []byte {
	field, ext := src.num()
	return []byte{rex(true, false, false, ext), 0xF7, modrm(0b11, 6, field)}
}

// LeaRipRel encodes `lea dst, [rip + disp32]`. disp is relative to the end
// of the instruction, matching spec.md §4.4's inline string-literal
// addressing convention; callers typically emit a placeholder and patch it
// once the target offset is known.
func LeaRipRel(dst Reg, disp int32) []byte {
	field, ext := dst.num()
	buf := []byte{rex(true, ext, false, false), 0x8D, modrm(0b00, field, 0b101)}
	return append(buf, writeLE32Bytes(uint32(disp))...)
}

// ImulRegRegImm32 encodes imul dst, src, imm32.
func ImulRegRegImm32(dst, src Reg, imm int32) []byte {
	dstField, dstExt := dst.num()
	srcField, srcExt := src.num()
	buf := []byte{rex(true, dstExt, false, srcExt), 0x69, modrm(0b11, dstField, srcField)}
	return append(buf, writeLE32Bytes(uint32(imm))...)
}

// PushReg encodes push r.
func PushReg(r Reg) []byte {
	field, ext := r.num()
	if ext {
		return []byte{rex(false, false, false, true), 0x50 + field}
	}
	return []byte{0x50 + field}
}

// PopReg encodes pop r.
func PopReg(r Reg) []byte {
	field, ext := r.num()
	if ext {
		return []byte{rex(false, false, false, true), 0x58 + field}
	}
	return []byte{0x58 + field}
}

// CallReg encodes call r (indirect call through a register).
func CallReg(r Reg) []byte {
	field, ext := r.num()
	if ext {
		return []byte{rex(false, false, false, true), 0xFF, modrm(0b11, 2, field)}
	}
	return []byte{0xFF, modrm(0b11, 2, field)}
}

// CallRel32 encodes call rel32. rel is relative to the end of the
// instruction; callers typically emit a placeholder and patch it via
// codebuf once the target is known.
func CallRel32(rel int32) []byte {
	return append([]byte{0xE8}, writeLE32Bytes(uint32(rel))...)
}

// Ret encodes ret.
func Ret() []byte { return []byte{0xC3} }

// JmpRel8 encodes a short jmp.
func JmpRel8(rel int8) []byte { return []byte{0xEB, byte(rel)} }

// JmpRel32 encodes a near jmp.
func JmpRel32(rel int32) []byte {
	return append([]byte{0xE9}, writeLE32Bytes(uint32(rel))...)
}

// JccRel8 encodes a short conditional jump.
func JccRel8(c Cond, rel int8) []byte { return []byte{0x70 + byte(c), byte(rel)} }

// JccRel32 encodes a near conditional jump.
func JccRel32(c Cond, rel int32) []byte {
	return append([]byte{0x0F, 0x80 + byte(c)}, writeLE32Bytes(uint32(rel))...)
}

// Syscall encodes the syscall instruction.
func Syscall() []byte { return []byte{0x0F, 0x05} }

// SetccAL encodes setcc al.
func SetccAL(c Cond) []byte {
	return []byte{0x0F, 0x90 + byte(c), modrm(0b11, 0, 0)}
}

// MovzxRaxAl encodes movzx rax, al — the widen half of spec.md §4.4's
// comparison convention ("setcc al; movzx rax, al").
func MovzxRaxAl() []byte {
	return []byte{rex(true, false, false, false), 0x0F, 0xB6, modrm(0b11, 0, 0)}
}
