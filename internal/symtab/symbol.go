// Package symtab implements the symbol and scope table of spec.md §4.3
// (C3): lookup of variables/functions/arrays with frame-offset bookkeeping.
package symtab

// SymbolKind distinguishes the three declarable symbol shapes.
type SymbolKind uint8

const (
	SymScalar SymbolKind = iota
	SymArray4D
	SymFunction
)

// ScalarInfo is a scalar variable's frame slot. IsFloat records whether the
// slot's 8 bytes are a double or an integer, inferred by the emitter from
// the declaration's initializer and threaded back through every later
// load/store of the same symbol.
type ScalarInfo struct {
	FrameOffset int32 // RBP-relative, negative: frame slots grow downward
	Size        int32
	IsFloat     bool
}

// Array4DInfo is a 4-D array's compile-time shape plus the frame slot that
// holds its runtime base pointer (spec.md §3: "a frame-pointer-relative
// slot holding the runtime base pointer").
type Array4DInfo struct {
	Dims        [4]int64
	ElemSize    int32
	BaseOffset  int32 // RBP-relative offset of the base-pointer slot
}

// FunctionInfo tracks a function's entry label. Label is a codebuf label
// id: allocated at declaration time and placed once the function body is
// actually emitted, so calls that precede the definition resolve through
// the ordinary pending-patch mechanism (spec.md §3: "may be forward-
// declared — then held as a pending patch").
type FunctionInfo struct {
	Label   int
	Defined bool
	Params  int // number of declared parameters, for arity checks
}

// Symbol is one declared name.
type Symbol struct {
	Name  string
	Kind  SymbolKind
	Depth int

	Scalar   ScalarInfo
	Array    Array4DInfo
	Function *FunctionInfo
}
