package astload

import "testing"

func buildSamplePool() (*Pool, NodeRef) {
	p := NewPool()
	xName := p.Strings.Intern("x")

	lit41 := p.Add(Node{Kind: KindNumberLit, NumberLit: NumberLitPayload{IntVal: 41}})
	varDef := p.Add(Node{Kind: KindVarDef, VarDef: VarDefPayload{Name: xName, Init: lit41}})

	xIdent := p.Add(Node{Kind: KindIdentifier, Identifier: IdentifierPayload{Name: xName}})
	lit1 := p.Add(Node{Kind: KindNumberLit, NumberLit: NumberLitPayload{IntVal: 1}})
	sum := p.Add(Node{Kind: KindBinaryOp, BinaryOp: BinaryOpPayload{Op: OpAdd, Left: xIdent, Right: lit1}})

	printStmt := p.Add(Node{Kind: KindPrint, Print: PrintPayload{PKind: PrintInt, Value: sum}})
	blk := p.Add(Node{Kind: KindActionBlock, ActionBlock: ActionBlockPayload{Statements: []NodeRef{varDef, printStmt}}})
	prog := p.Add(Node{Kind: KindProgram, Program: ProgramPayload{Entry: blk}})

	return p, prog
}

func TestSaveLoadRoundTrip(t *testing.T) {
	orig, root := buildSamplePool()

	data, err := Save(orig, root)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, gotRoot, err := Load(data)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if gotRoot != root {
		t.Fatalf("root ref mismatch: got %v want %v", gotRoot, root)
	}
	if len(got.Nodes) != len(orig.Nodes) {
		t.Fatalf("node count mismatch: got %d want %d", len(got.Nodes), len(orig.Nodes))
	}

	progNode, err := Expect(got, gotRoot, KindProgram)
	if err != nil {
		t.Fatalf("Expect KindProgram: %v", err)
	}
	entryBlock, err := Expect(got, progNode.Program.Entry, KindActionBlock)
	if err != nil {
		t.Fatalf("Expect KindActionBlock: %v", err)
	}
	if len(entryBlock.ActionBlock.Statements) != 2 {
		t.Fatalf("expected 2 statements, got %d", len(entryBlock.ActionBlock.Statements))
	}

	varDefNode, err := Expect(got, entryBlock.ActionBlock.Statements[0], KindVarDef)
	if err != nil {
		t.Fatalf("Expect KindVarDef: %v", err)
	}
	if name := got.Strings.String(varDefNode.VarDef.Name); name != "x" {
		t.Fatalf("var name mismatch: got %q want %q", name, "x")
	}
	initLit, err := Expect(got, varDefNode.VarDef.Init, KindNumberLit)
	if err != nil {
		t.Fatalf("Expect KindNumberLit: %v", err)
	}
	if initLit.NumberLit.IntVal != 41 {
		t.Fatalf("init value mismatch: got %d want 41", initLit.NumberLit.IntVal)
	}
}

func TestLoadRejectsBadMagic(t *testing.T) {
	_, _, err := Load([]byte("not a blaze wire file"))
	if err == nil {
		t.Fatal("expected an error for bad magic, got nil")
	}
}

func TestArray4DRoundTrip(t *testing.T) {
	p := NewPool()
	aName := p.Strings.Intern("A")
	def := p.Add(Node{Kind: KindArray4DDef, Array4DDef: Array4DDefPayload{
		Name: aName, Dims: [4]int64{2, 3, 4, 5}, ElemSize: 8,
	}})
	blk := p.Add(Node{Kind: KindActionBlock, ActionBlock: ActionBlockPayload{Statements: []NodeRef{def}}})
	prog := p.Add(Node{Kind: KindProgram, Program: ProgramPayload{Entry: blk}})

	data, err := Save(p, prog)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, gotRoot, err := Load(data)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	progNode, err := Expect(got, gotRoot, KindProgram)
	if err != nil {
		t.Fatalf("Expect KindProgram: %v", err)
	}
	block, err := Expect(got, progNode.Program.Entry, KindActionBlock)
	if err != nil {
		t.Fatalf("Expect KindActionBlock: %v", err)
	}
	arrDef, err := Expect(got, block.ActionBlock.Statements[0], KindArray4DDef)
	if err != nil {
		t.Fatalf("Expect KindArray4DDef: %v", err)
	}
	if arrDef.Array4DDef.Dims != [4]int64{2, 3, 4, 5} {
		t.Fatalf("dims mismatch: got %v", arrDef.Array4DDef.Dims)
	}
	if arrDef.Array4DDef.ElemSize != 8 {
		t.Fatalf("elem size mismatch: got %d", arrDef.Array4DDef.ElemSize)
	}
}
