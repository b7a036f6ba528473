package astload

// Kind tags every AST node. Payloads are a tagged sum (one struct field
// per kind, never an overlapping union) per spec.md §9's re-architecture
// note on "overlapping union payloads".
type Kind uint8

const (
	KindProgram Kind = iota
	KindVarDef
	KindFuncDef
	KindActionBlock
	KindBinaryOp
	KindNumberLit
	KindIdentifier
	KindArray4DDef
	KindArray4DAccess
	KindTimingOp
	KindConditional
	KindJump // lowered as the while-loop construct described in spec.md §4.4
	KindFixedPoint
	KindPermanentTimeline
	KindFlowSpec
	// KindCall and KindPrint round out §4.4's emitter operations (function
	// call, and the stdout write §8's end-to-end scenarios require) that
	// the distilled kind list named by responsibility but not as a
	// separate node shape.
	KindCall
	KindPrint
)

func (k Kind) String() string {
	switch k {
	case KindProgram:
		return "Program"
	case KindVarDef:
		return "VarDef"
	case KindFuncDef:
		return "FuncDef"
	case KindActionBlock:
		return "ActionBlock"
	case KindBinaryOp:
		return "BinaryOp"
	case KindNumberLit:
		return "NumberLit"
	case KindIdentifier:
		return "Identifier"
	case KindArray4DDef:
		return "Array4DDef"
	case KindArray4DAccess:
		return "Array4DAccess"
	case KindTimingOp:
		return "TimingOp"
	case KindConditional:
		return "Conditional"
	case KindJump:
		return "Jump"
	case KindFixedPoint:
		return "FixedPoint"
	case KindPermanentTimeline:
		return "PermanentTimeline"
	case KindFlowSpec:
		return "FlowSpec"
	case KindCall:
		return "Call"
	case KindPrint:
		return "Print"
	default:
		return "Unknown"
	}
}

// BinOp identifies a binary-operator node's operation, including the
// lvalue-producing assignment form (spec.md §4.4's "Assignment" bullet;
// the distilled kind list has no separate "assignment" kind, so it is
// realized as a binary op whose left operand must be an lvalue).
type BinOp uint8

const (
	OpAdd BinOp = iota
	OpSub
	OpMul
	OpDiv
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpAssign
)

// TMode selects how the fourth (temporal) array index is derived.
type TMode uint8

const (
	TAbsolute TMode = iota // Indices[3] is evaluated normally
	TPast                  // current_time - 1
	TFuture                // current_time + 1
)

// FlowKind distinguishes a permanent timeline from a rate-limited one.
type FlowKind uint8

const (
	FlowPermanent FlowKind = iota
	FlowRateLimited
)

// Node is one entry in a Pool: a kind tag plus the one payload field that
// kind actually uses. Unused payload fields are the zero value.
type Node struct {
	Kind Kind

	Program           ProgramPayload
	VarDef            VarDefPayload
	FuncDef           FuncDefPayload
	ActionBlock       ActionBlockPayload
	BinaryOp          BinaryOpPayload
	NumberLit         NumberLitPayload
	Identifier        IdentifierPayload
	Array4DDef        Array4DDefPayload
	Array4DAccess     Array4DAccessPayload
	TimingOp          TimingOpPayload
	Conditional       ConditionalPayload
	Jump              JumpPayload
	FixedPoint        FixedPointPayload
	PermanentTimeline PermanentTimelinePayload
	FlowSpec          FlowSpecPayload
	Call              CallPayload
	Print             PrintPayload
}

// ProgramPayload is the root node: top-level function definitions plus
// the implicit entry action block (spec.md §4.4: "the top-level program
// is wrapped as an implicit entry function").
type ProgramPayload struct {
	Functions []NodeRef
	Entry     NodeRef // KindActionBlock
}

// VarDefPayload declares a scalar variable, optionally initialized.
type VarDefPayload struct {
	Name Ident
	Init NodeRef // NoNode if uninitialized
}

// FuncDefPayload declares a function: its parameter names (bound to the
// fixed argument registers in declaration order, spec.md §4.4's internal
// calling convention) and its body.
type FuncDefPayload struct {
	Name   Ident
	Params []Ident
	Body   NodeRef // KindActionBlock
}

// ActionBlockPayload is an ordered statement sequence.
type ActionBlockPayload struct {
	Statements []NodeRef
}

// BinaryOpPayload covers arithmetic, comparison, and assignment.
type BinaryOpPayload struct {
	Op    BinOp
	Left  NodeRef
	Right NodeRef
}

// NumberLitPayload is either an integer or an IEEE-754 double literal.
type NumberLitPayload struct {
	IsFloat bool
	IntVal  int64
	FltVal  float64
}

// IdentifierPayload references a previously declared symbol by name.
type IdentifierPayload struct {
	Name Ident
}

// Array4DDefPayload declares a 4-D array. Dimensions are compile-time
// constants, matching spec.md §4.6 ("compile-time-known strides").
type Array4DDefPayload struct {
	Name     Ident
	Dims     [4]int64
	ElemSize int32
}

// Array4DAccessPayload indexes a 4-D array. Indices[3] (the temporal
// axis) may instead be derived via TMode per spec.md §4.6/§9.
type Array4DAccessPayload struct {
	Array   Ident
	Indices [4]NodeRef
	TMode   TMode
}

// TimingOpPayload gates a body on a runtime flow's should_execute_flow
// poll (spec.md §4.7's should_execute_flow, invoked per node visit).
type TimingOpPayload struct {
	Flow Ident // identifier of a PermanentTimeline declaration
	Body NodeRef
}

// ConditionalPayload is an if/then/else; Else may be NoNode.
type ConditionalPayload struct {
	Cond NodeRef
	Then NodeRef
	Else NodeRef
}

// JumpPayload is spec.md's "jump" kind, realized as the documented
// while-loop lowering: mark top, test Cond, jump to exit, emit Body,
// jump to top, patch exit.
type JumpPayload struct {
	Cond NodeRef
	Body NodeRef
}

// FixedPointPayload is an arrival at a named rendezvous barrier. Required
// is the participant bitmask the declaration fixes at registration time
// (spec.md §9's open question: Blaze resolves this by requiring the AST
// to supply it explicitly rather than defaulting to 0).
type FixedPointPayload struct {
	Name       Ident
	TimelineID uint32
	Required   uint64
	Data       NodeRef // expression producing the data pointer argument
}

// PermanentTimelinePayload declares and drives a recurring flow.
type PermanentTimelinePayload struct {
	Name       Ident
	TimelineID uint32
	Spec       NodeRef // KindFlowSpec
	Body       NodeRef
}

// FlowSpecPayload is a flow's kind/rate descriptor.
type FlowSpecPayload struct {
	Kind   FlowKind
	RateHz int64
}

// CallPayload invokes a previously (or forward-) declared function.
type CallPayload struct {
	Callee Ident
	Args   []NodeRef
}

// PrintKind selects whether a PrintPayload's Value is formatted as an
// integer, a double, or emitted verbatim as a string literal.
type PrintKind uint8

const (
	PrintInt PrintKind = iota
	PrintFloat
	PrintString
)

// PrintPayload writes a value followed by a newline to stdout. For
// PrintString, Text holds the literal; for PrintInt/PrintFloat, Value is
// the expression to evaluate and format.
type PrintPayload struct {
	PKind PrintKind
	Value NodeRef
	Text  Ident
}
