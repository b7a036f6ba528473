package x64enc

// rex builds a REX prefix byte. w selects 64-bit operand size; r/x/b extend
// the ModRM.reg, SIB.index, and ModRM.rm/SIB.base/opcode-reg fields
// respectively (spec.md §4.2: "REX prefix is emitted whenever W=1 is
// needed... or any R8..R15 operand appears").
func rex(w, r, x, b bool) byte {
	v := byte(0x40)
	if w {
		v |= 0x08
	}
	if r {
		v |= 0x04
	}
	if x {
		v |= 0x02
	}
	if b {
		v |= 0x01
	}
	return v
}

func needsRex(w, r, x, b bool) bool { return w || r || x || b }

// modrm builds a ModR/M byte from a 2-bit mod, 3-bit reg, and 3-bit rm.
func modrm(mod, reg, rm uint8) byte {
	return (mod << 6) | ((reg & 0x7) << 3) | (rm & 0x7)
}

// memOperand appends the ModR/M (+ SIB + displacement) bytes for
// [base+disp32]-shaped memory operands, with reg as the other (register)
// operand field. RSP/R12 as base always forces a SIB byte (spec.md §4.2);
// RBP/R13 as base always carries an explicit (possibly zero) displacement,
// since mod=00/rm=101 is the RIP-relative encoding, not [rbp].
func memOperand(buf []byte, reg, base Reg, disp int32) []byte {
	baseField, _ := base.num()
	needSIB := baseField == 0b100 // RSP or R12
	rm := baseField
	if needSIB {
		rm = 0b100
	}

	var mod uint8
	var dispSize int
	switch {
	case disp == 0 && baseField != 0b101:
		mod, dispSize = 0b00, 0
	case disp >= -128 && disp <= 127:
		mod, dispSize = 0b01, 1
	default:
		mod, dispSize = 0b10, 4
	}

	regField, _ := reg.num()
	buf = append(buf, modrm(mod, regField, rm))
	if needSIB {
		buf = append(buf, 0x24) // scale=1, index=none(100), base=100 (RSP/R12)
	}
	switch dispSize {
	case 1:
		buf = append(buf, byte(int8(disp)))
	case 4:
		buf = append(buf, writeLE32Bytes(uint32(disp))...)
	}
	return buf
}

func memPrefixBits(reg, base Reg) (regExt, baseExt bool) {
	_, regExt = reg.num()
	_, baseExt = base.num()
	return
}

func writeLE32Bytes(v uint32) []byte {
	return []byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)}
}

func writeLE64Bytes(v uint64) []byte {
	return []byte{
		byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24),
		byte(v >> 32), byte(v >> 40), byte(v >> 48), byte(v >> 56),
	}
}
