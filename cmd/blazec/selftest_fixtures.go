package main

import "github.com/blaze-lang/blaze/internal/astload"

// The six fixtures below are spec.md §8's end-to-end scenarios, built
// directly as astload.Pool values rather than parsed from Blaze source
// text — lexing and parsing are out of scope (spec.md §1), so this is
// the only way a self-contained harness can exercise EmitProgram against
// the documented scenarios.

func numberLit(p *astload.Pool, v int64) astload.NodeRef {
	return p.Add(astload.Node{Kind: astload.KindNumberLit, NumberLit: astload.NumberLitPayload{IntVal: v}})
}

func ident(p *astload.Pool, name astload.Ident) astload.NodeRef {
	return p.Add(astload.Node{Kind: astload.KindIdentifier, Identifier: astload.IdentifierPayload{Name: name}})
}

func binOp(p *astload.Pool, op astload.BinOp, l, r astload.NodeRef) astload.NodeRef {
	return p.Add(astload.Node{Kind: astload.KindBinaryOp, BinaryOp: astload.BinaryOpPayload{Op: op, Left: l, Right: r}})
}

func block(p *astload.Pool, stmts ...astload.NodeRef) astload.NodeRef {
	return p.Add(astload.Node{Kind: astload.KindActionBlock, ActionBlock: astload.ActionBlockPayload{Statements: stmts}})
}

func program(p *astload.Pool, entry astload.NodeRef) astload.NodeRef {
	return p.Add(astload.Node{Kind: astload.KindProgram, Program: astload.ProgramPayload{Entry: entry}})
}

// fixtureDeclareAndPrint is scenario 1: declare x = 41; print x + 1.
func fixtureDeclareAndPrint() (*astload.Pool, astload.NodeRef) {
	p := astload.NewPool()
	xName := p.Strings.Intern("x")

	varDef := p.Add(astload.Node{Kind: astload.KindVarDef, VarDef: astload.VarDefPayload{
		Name: xName, Init: numberLit(p, 41),
	}})
	sum := binOp(p, astload.OpAdd, ident(p, xName), numberLit(p, 1))
	printStmt := p.Add(astload.Node{Kind: astload.KindPrint, Print: astload.PrintPayload{PKind: astload.PrintInt, Value: sum}})

	return p, program(p, block(p, varDef, printStmt))
}

// fixtureConditional is scenario 2: if 5 > 3 then print "Y" else print "N".
func fixtureConditional() (*astload.Pool, astload.NodeRef) {
	p := astload.NewPool()
	cond := binOp(p, astload.OpGt, numberLit(p, 5), numberLit(p, 3))

	yText := p.Strings.Intern("Y")
	nText := p.Strings.Intern("N")
	thenStmt := p.Add(astload.Node{Kind: astload.KindPrint, Print: astload.PrintPayload{PKind: astload.PrintString, Text: yText}})
	elseStmt := p.Add(astload.Node{Kind: astload.KindPrint, Print: astload.PrintPayload{PKind: astload.PrintString, Text: nText}})

	ifNode := p.Add(astload.Node{Kind: astload.KindConditional, Conditional: astload.ConditionalPayload{
		Cond: cond, Then: thenStmt, Else: elseStmt,
	}})
	return p, program(p, block(p, ifNode))
}

// fixtureWhileLoop is scenario 3: while i < 3: print i; i = i + 1;
// starting i = 0.
func fixtureWhileLoop() (*astload.Pool, astload.NodeRef) {
	p := astload.NewPool()
	iName := p.Strings.Intern("i")

	varDef := p.Add(astload.Node{Kind: astload.KindVarDef, VarDef: astload.VarDefPayload{
		Name: iName, Init: numberLit(p, 0),
	}})

	cond := binOp(p, astload.OpLt, ident(p, iName), numberLit(p, 3))
	printI := p.Add(astload.Node{Kind: astload.KindPrint, Print: astload.PrintPayload{PKind: astload.PrintInt, Value: ident(p, iName)}})
	incr := binOp(p, astload.OpAssign, ident(p, iName), binOp(p, astload.OpAdd, ident(p, iName), numberLit(p, 1)))
	body := block(p, printI, incr)

	loop := p.Add(astload.Node{Kind: astload.KindJump, Jump: astload.JumpPayload{Cond: cond, Body: body}})
	return p, program(p, block(p, varDef, loop))
}

// fixtureArray4D is scenario 4: declare A(2,2,2,2); A[1,0,1,0] = 7;
// print A[1,0,1,0].
func fixtureArray4D() (*astload.Pool, astload.NodeRef) {
	p := astload.NewPool()
	aName := p.Strings.Intern("A")

	arrayDef := p.Add(astload.Node{Kind: astload.KindArray4DDef, Array4DDef: astload.Array4DDefPayload{
		Name: aName, Dims: [4]int64{2, 2, 2, 2}, ElemSize: 8,
	}})

	indices := [4]astload.NodeRef{numberLit(p, 1), numberLit(p, 0), numberLit(p, 1), numberLit(p, 0)}
	access := p.Add(astload.Node{Kind: astload.KindArray4DAccess, Array4DAccess: astload.Array4DAccessPayload{
		Array: aName, Indices: indices, TMode: astload.TAbsolute,
	}})
	assign := binOp(p, astload.OpAssign, access, numberLit(p, 7))

	indices2 := [4]astload.NodeRef{numberLit(p, 1), numberLit(p, 0), numberLit(p, 1), numberLit(p, 0)}
	access2 := p.Add(astload.Node{Kind: astload.KindArray4DAccess, Array4DAccess: astload.Array4DAccessPayload{
		Array: aName, Indices: indices2, TMode: astload.TAbsolute,
	}})
	printStmt := p.Add(astload.Node{Kind: astload.KindPrint, Print: astload.PrintPayload{PKind: astload.PrintInt, Value: access2}})

	return p, program(p, block(p, arrayDef, assign, printStmt))
}

// fixtureFixedPoint is scenario 5: register fixed point "sync"; two
// timelines arrive; both should be released exactly once. Required is
// set explicitly to (1<<2)-1, resolving spec.md §9's required_mask open
// question the way internal/runtimeabi/fixedpoint.go documents.
func fixtureFixedPoint() (*astload.Pool, astload.NodeRef) {
	p := astload.NewPool()
	name := p.Strings.Intern("sync")

	arrive0 := p.Add(astload.Node{Kind: astload.KindFixedPoint, FixedPoint: astload.FixedPointPayload{
		Name: name, TimelineID: 0, Required: 0b11, Data: numberLit(p, 0),
	}})
	arrive1 := p.Add(astload.Node{Kind: astload.KindFixedPoint, FixedPoint: astload.FixedPointPayload{
		Name: name, TimelineID: 1, Required: 0b11, Data: numberLit(p, 1),
	}})
	printArrive0 := p.Add(astload.Node{Kind: astload.KindPrint, Print: astload.PrintPayload{PKind: astload.PrintInt, Value: numberLit(p, 0)}})
	printArrive1 := p.Add(astload.Node{Kind: astload.KindPrint, Print: astload.PrintPayload{PKind: astload.PrintInt, Value: numberLit(p, 1)}})

	return p, program(p, block(p, arrive0, printArrive0, arrive1, printArrive1))
}

// fixturePermanentFlow is scenario 6: a permanent flow at 10 Hz printing
// a counter. blazec has no process loader, so selftest only verifies the
// registration/poll code emits without error; observing the counter
// after 500ms real time requires actually running the produced code,
// which is outside blazec's scope (spec.md §1: no linking).
func fixturePermanentFlow() (*astload.Pool, astload.NodeRef) {
	p := astload.NewPool()
	flowName := p.Strings.Intern("ticker")
	counterName := p.Strings.Intern("counter")

	spec := p.Add(astload.Node{Kind: astload.KindFlowSpec, FlowSpec: astload.FlowSpecPayload{
		Kind: astload.FlowRateLimited, RateHz: 10,
	}})

	counterDef := p.Add(astload.Node{Kind: astload.KindVarDef, VarDef: astload.VarDefPayload{
		Name: counterName, Init: numberLit(p, 0),
	}})
	printCounter := p.Add(astload.Node{Kind: astload.KindPrint, Print: astload.PrintPayload{PKind: astload.PrintInt, Value: ident(p, counterName)}})
	incr := binOp(p, astload.OpAssign, ident(p, counterName), binOp(p, astload.OpAdd, ident(p, counterName), numberLit(p, 1)))
	timingBody := block(p, printCounter, incr)

	timing := p.Add(astload.Node{Kind: astload.KindTimingOp, TimingOp: astload.TimingOpPayload{
		Flow: flowName, Body: timingBody,
	}})

	flowDecl := p.Add(astload.Node{Kind: astload.KindPermanentTimeline, PermanentTimeline: astload.PermanentTimelinePayload{
		Name: flowName, TimelineID: 0, Spec: spec, Body: timing,
	}})

	return p, program(p, block(p, counterDef, flowDecl))
}
