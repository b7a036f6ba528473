package sse

import (
	"bytes"
	"testing"

	"github.com/blaze-lang/blaze/internal/codebuf"
	"github.com/blaze-lang/blaze/internal/x64enc"
)

func TestEmitLoadConstMatchesGoldenSequence(t *testing.T) {
	buf := codebuf.New()
	EmitLoadConst(buf, x64enc.XMM0, 1.0)

	// mov rax, <bits of 1.0>; push rax; movsd xmm0, [rsp]; add rsp, 8
	want := append(append(append(
		x64enc.MovRegImm64(x64enc.RAX, 0x3FF0000000000000),
		x64enc.PushReg(x64enc.RAX)...),
		x64enc.MovsdXmmMem(x64enc.XMM0, x64enc.RSP, 0)...),
		x64enc.AddRegImm32(x64enc.RSP, 8)...)

	if !bytes.Equal(buf.Bytes(), want) {
		t.Fatalf("got % x, want % x", buf.Bytes(), want)
	}
}

func TestEmitCompareResolvesBothBranches(t *testing.T) {
	buf := codebuf.New()
	EmitCompare(buf, CmpLT, x64enc.XMM0, x64enc.XMM1)
	out, err := buf.Finalize(0x400000)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) == 0 {
		t.Fatal("expected emitted bytes")
	}
	// ucomisd(0-3) jp(4) setcc(6) movzx(9) jmp(13) xor(15), 18 bytes.
	if len(out) != 18 {
		t.Fatalf("got %d bytes, want 18: % x", len(out), out)
	}
	// jp skips to the zeroing xor at 15; jmp skips past it to the end.
	if out[4] != 0x7A || out[5] != 15-6 {
		t.Fatalf("jp branch not resolved to the xor: % x", out)
	}
	if out[13] != 0xEB || out[14] != 18-15 {
		t.Fatalf("jmp branch not resolved to the end: % x", out)
	}
}

func TestCompareCondCoversEveryOp(t *testing.T) {
	ops := []CompareOp{CmpEQ, CmpNE, CmpLT, CmpLE, CmpGT, CmpGE}
	seen := map[x64enc.Cond]bool{}
	for _, op := range ops {
		c := compareCond(op)
		if seen[c] {
			t.Fatalf("condition code %v reused across distinct compare ops", c)
		}
		seen[c] = true
	}
}
