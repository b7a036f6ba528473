package symtab

import (
	"testing"

	"github.com/blaze-lang/blaze/internal/codebuf"
)

func TestScopeRestoresHighWaterMark(t *testing.T) {
	tab := New(codebuf.New())
	tab.EnterScope()
	if _, err := tab.DeclareVar("x", 8, false); err != nil {
		t.Fatal(err)
	}
	before := tab.CurrentOffset()

	tab.EnterScope()
	if _, err := tab.DeclareVar("y", 8, false); err != nil {
		t.Fatal(err)
	}
	if tab.CurrentOffset() == before {
		t.Fatal("inner scope should have grown the cursor")
	}
	tab.LeaveScope()

	if tab.CurrentOffset() != before {
		t.Fatalf("leaving scope should restore the cursor to %d, got %d", before, tab.CurrentOffset())
	}
	tab.LeaveScope()
}

// TestFrameSizeSurvivesScopeExit is the direct regression test for the
// bug spec.md §4.3/§8 leaves a trap for: LeaveScope restoring the cursor
// must not shrink the frame a function's prologue reserves. A variable
// declared inside a nested scope (eg. a conditional or loop body) still
// needs a frame slot after that scope exits, even though the cursor
// itself has gone back down.
func TestFrameSizeSurvivesScopeExit(t *testing.T) {
	tab := New(codebuf.New())
	tab.EnterScope()
	if _, err := tab.DeclareVar("x", 8, false); err != nil {
		t.Fatal(err)
	}
	outerFrame := tab.FrameSize()

	tab.EnterScope()
	if _, err := tab.DeclareVar("y", 8, false); err != nil {
		t.Fatal(err)
	}
	innerFrame := tab.FrameSize()
	if innerFrame <= outerFrame {
		t.Fatal("inner scope should have grown the frame size")
	}
	tab.LeaveScope()

	if tab.FrameSize() != innerFrame {
		t.Fatalf("FrameSize should keep the inner scope's high-water mark (%d) after it exits, got %d", innerFrame, tab.FrameSize())
	}
	if tab.CurrentOffset() != outerFrame {
		t.Fatalf("CurrentOffset should still restore to %d after LeaveScope", outerFrame)
	}
	tab.LeaveScope()

	tab.ResetFrame()
	if tab.FrameSize() != tab.CurrentOffset() {
		t.Fatal("ResetFrame should re-base the high-water mark to the current cursor")
	}
}

func TestDuplicateDeclarationInScopeFails(t *testing.T) {
	tab := New(codebuf.New())
	tab.EnterScope()
	defer tab.LeaveScope()

	if _, err := tab.DeclareVar("x", 8, false); err != nil {
		t.Fatal(err)
	}
	if _, err := tab.DeclareVar("x", 8, false); err == nil {
		t.Fatal("expected duplicate declaration error")
	}
}

func TestLookupWalksOutward(t *testing.T) {
	tab := New(codebuf.New())
	tab.EnterScope()
	defer tab.LeaveScope()
	if _, err := tab.DeclareVar("outer", 8, false); err != nil {
		t.Fatal(err)
	}

	tab.EnterScope()
	defer tab.LeaveScope()
	if _, err := tab.DeclareVar("inner", 8, false); err != nil {
		t.Fatal(err)
	}

	if _, ok := tab.Lookup("outer"); !ok {
		t.Fatal("expected to find outer-scope symbol from inner scope")
	}
	if _, ok := tab.Lookup("nonexistent"); ok {
		t.Fatal("unexpected lookup success for undeclared name")
	}
}

func TestLookupDoesNotEscapeAfterLeaveScope(t *testing.T) {
	tab := New(codebuf.New())
	tab.EnterScope()
	tab.EnterScope()
	if _, err := tab.DeclareVar("inner", 8, false); err != nil {
		t.Fatal(err)
	}
	tab.LeaveScope()

	if _, ok := tab.Lookup("inner"); ok {
		t.Fatal("symbol should not be visible after its scope exits")
	}
	tab.LeaveScope()
}

func TestDeclareArray4DAllocatesBaseSlot(t *testing.T) {
	tab := New(codebuf.New())
	tab.EnterScope()
	defer tab.LeaveScope()

	sym, err := tab.DeclareArray4D("grid", [4]int64{2, 2, 2, 2}, 8)
	if err != nil {
		t.Fatal(err)
	}
	if sym.Kind != SymArray4D {
		t.Fatal("expected SymArray4D kind")
	}
	if sym.Array.BaseOffset >= 0 {
		t.Fatal("base offset should be negative (below RBP)")
	}
}

func TestDeclareFunctionAllocatesLabel(t *testing.T) {
	buf := codebuf.New()
	tab := New(buf)
	tab.EnterScope()
	defer tab.LeaveScope()

	sym, err := tab.DeclareFunction("f", 2)
	if err != nil {
		t.Fatal(err)
	}
	if sym.Function.Defined {
		t.Fatal("function should not be marked defined at declaration time")
	}
}
