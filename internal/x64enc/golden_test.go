package x64enc

import "testing"

// These cases are the literal golden bytes from spec.md §8.
func TestGoldenBytes(t *testing.T) {
	cases := []struct {
		name string
		got  []byte
		want []byte
	}{
		{"mov rax, 1", MovRegImm64(RAX, 1), []byte{0x48, 0xC7, 0xC0, 0x01, 0x00, 0x00, 0x00}},
		{"mov rdi, 1", MovRegImm64(RDI, 1), []byte{0x48, 0xC7, 0xC7, 0x01, 0x00, 0x00, 0x00}},
		{"syscall", Syscall(), []byte{0x0F, 0x05}},
		{"movsd xmm0, [rsp]", MovsdXmmMem(XMM0, RSP, 0), []byte{0xF2, 0x0F, 0x10, 0x04, 0x24}},
		{"addsd xmm0, xmm1", AddsdXmmXmm(XMM0, XMM1), []byte{0xF2, 0x0F, 0x58, 0xC1}},
		{"cvtsi2sd xmm0, rax", Cvtsi2sdXmmReg(XMM0, RAX), []byte{0xF2, 0x48, 0x0F, 0x2A, 0xC0}},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if len(c.got) != len(c.want) {
				t.Fatalf("%s: got %x want %x", c.name, c.got, c.want)
			}
			for i := range c.got {
				if c.got[i] != c.want[i] {
					t.Fatalf("%s: got %x want %x", c.name, c.got, c.want)
				}
			}
		})
	}
}

func TestRSPBaseAlwaysCarriesSIB(t *testing.T) {
	b := MovRegFromMem(RAX, RSP, 8)
	// REX.W(48) 8B ModRM SIB disp8 -> 5 bytes, SIB must be 0x24.
	if len(b) < 2 {
		t.Fatalf("unexpectedly short encoding: %x", b)
	}
	foundSIB := false
	for _, by := range b {
		if by == 0x24 {
			foundSIB = true
		}
	}
	if !foundSIB {
		t.Fatalf("mov rax, [rsp+8] missing SIB byte 0x24: %x", b)
	}

	b2 := MovMemFromReg(R12, 0, RAX)
	foundSIB = false
	for _, by := range b2 {
		if by == 0x24 {
			foundSIB = true
		}
	}
	if !foundSIB {
		t.Fatalf("mov [r12], rax missing SIB byte 0x24: %x", b2)
	}
}

func TestExtendedRegistersForceREX(t *testing.T) {
	b := PushReg(R13)
	if len(b) != 2 || b[0] != 0x41 {
		t.Fatalf("push r13 should carry REX.B (0x41): %x", b)
	}
	b2 := PushReg(RBX)
	if len(b2) != 1 {
		t.Fatalf("push rbx should not carry a REX prefix: %x", b2)
	}
}
