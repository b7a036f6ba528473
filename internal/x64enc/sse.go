package x64enc

// This file is the SSE2 subset spec.md §4.2/§4.5 calls out as C5's
// consumer: movsd, addsd/subsd/mulsd/divsd, ucomisd/comisd, and the
// cvtsi2sd/cvtsd2si integer<->double conversions. The F2/66 legacy
// prefixes precede any REX byte, per Intel's encoding rules.

func sseRegReg(prefix, opcode byte, dst, src Reg) []byte {
	regField, regExt := dst.num()
	rmField, rmExt := src.num()
	buf := []byte{prefix}
	if needsRex(false, regExt, false, rmExt) {
		buf = append(buf, rex(false, regExt, false, rmExt))
	}
	buf = append(buf, 0x0F, opcode, modrm(0b11, regField, rmField))
	return buf
}

// MovsdXmmXmm encodes movsd dst, src (register to register).
func MovsdXmmXmm(dst, src Reg) []byte { return sseRegReg(0xF2, 0x10, dst, src) }

// MovsdXmmMem encodes movsd dst, [base+disp].
func MovsdXmmMem(dst Reg, base Reg, disp int32) []byte {
	regExt, baseExt := memPrefixBits(dst, base)
	buf := []byte{0xF2}
	if needsRex(false, regExt, false, baseExt) {
		buf = append(buf, rex(false, regExt, false, baseExt))
	}
	buf = append(buf, 0x0F, 0x10)
	return memOperand(buf, dst, base, disp)
}

// MovsdMemXmm encodes movsd [base+disp], src.
func MovsdMemXmm(base Reg, disp int32, src Reg) []byte {
	regExt, baseExt := memPrefixBits(src, base)
	buf := []byte{0xF2}
	if needsRex(false, regExt, false, baseExt) {
		buf = append(buf, rex(false, regExt, false, baseExt))
	}
	buf = append(buf, 0x0F, 0x11)
	return memOperand(buf, src, base, disp)
}

func AddsdXmmXmm(dst, src Reg) []byte { return sseRegReg(0xF2, 0x58, dst, src) }
func SubsdXmmXmm(dst, src Reg) []byte { return sseRegReg(0xF2, 0x5C, dst, src) }
func MulsdXmmXmm(dst, src Reg) []byte { return sseRegReg(0xF2, 0x59, dst, src) }
func DivsdXmmXmm(dst, src Reg) []byte { return sseRegReg(0xF2, 0x5E, dst, src) }

// UcomisdXmmXmm and ComisdXmmXmm set EFLAGS for the unordered-aware
// jcc pattern of spec.md §4.5 (JP detects NaN, JE/JB/JA order/equality).
func UcomisdXmmXmm(dst, src Reg) []byte { return sseRegReg(0x66, 0x2E, dst, src) }
func ComisdXmmXmm(dst, src Reg) []byte  { return sseRegReg(0x66, 0x2F, dst, src) }

// Cvtsi2sdXmmReg encodes cvtsi2sd dst(xmm), src(r64) with REX.W.
func Cvtsi2sdXmmReg(dst, src Reg) []byte {
	regField, regExt := dst.num()
	rmField, rmExt := src.num()
	return []byte{0xF2, rex(true, regExt, false, rmExt), 0x0F, 0x2A, modrm(0b11, regField, rmField)}
}

// Cvtsd2siRegXmm encodes cvtsd2si dst(r64), src(xmm) with REX.W.
func Cvtsd2siRegXmm(dst, src Reg) []byte {
	regField, regExt := dst.num()
	rmField, rmExt := src.num()
	return []byte{0xF2, rex(true, regExt, false, rmExt), 0x0F, 0x2D, modrm(0b11, regField, rmField)}
}
