// Package astload models the AST input contract Blaze's emitter consumes.
//
// Nothing in this package lexes or parses Blaze source text: the AST is
// built by an external frontend (out of scope, see spec.md §1) and handed
// to Blaze as a Pool. Loading a pool from its flat on-disk form is the one
// decoding step this package performs.
package astload

import "fmt"

// NodeRef is an index into a Pool's node slice. The zero value refers to
// pool slot 0; use NoNode for "absent child" instead of a bare literal.
type NodeRef struct {
	idx uint16
}

// NoNode is the distinguished "no child" reference. On the wire this is
// the 0xFFFF sentinel, but callers never see the magic number directly.
var NoNode = NodeRef{idx: 0xFFFF}

// Ref constructs a NodeRef from a raw pool index.
func Ref(i int) NodeRef {
	if i < 0 || i > 0xFFFE {
		return NoNode
	}
	return NodeRef{idx: uint16(i)}
}

// Valid reports whether r refers to an actual pool slot.
func (r NodeRef) Valid() bool { return r.idx != NoNode.idx }

// Index returns the raw pool index. Panics if r is NoNode.
func (r NodeRef) Index() int {
	if !r.Valid() {
		panic("astload: Index called on NoNode")
	}
	return int(r.idx)
}

func (r NodeRef) String() string {
	if !r.Valid() {
		return "<none>"
	}
	return fmt.Sprintf("#%d", r.idx)
}

// Ident is an offset+length view into a Pool's string bytes.
type Ident struct {
	Offset uint32
	Length uint32
}

// StringPool is the contiguous byte buffer identifiers are sliced from.
type StringPool struct {
	bytes []byte
}

// NewStringPool wraps a raw byte buffer as a StringPool.
func NewStringPool(b []byte) *StringPool { return &StringPool{bytes: b} }

// Intern appends s and returns an Ident referencing it. Used by tests and
// the selftest fixtures that build pools programmatically.
func (p *StringPool) Intern(s string) Ident {
	off := uint32(len(p.bytes))
	p.bytes = append(p.bytes, s...)
	return Ident{Offset: off, Length: uint32(len(s))}
}

// String resolves an Ident back to its text.
func (p *StringPool) String(id Ident) string {
	end := id.Offset + id.Length
	if int(end) > len(p.bytes) {
		return ""
	}
	return string(p.bytes[id.Offset:end])
}

// Pool is the fixed-size AST node pool plus its backing string pool.
type Pool struct {
	Nodes   []Node
	Strings *StringPool
}

// NewPool creates an empty pool ready for programmatic construction
// (fixtures, tests) rather than wire decoding.
func NewPool() *Pool {
	return &Pool{Strings: NewStringPool(nil)}
}

// Add appends a node and returns its reference.
func (p *Pool) Add(n Node) NodeRef {
	p.Nodes = append(p.Nodes, n)
	return Ref(len(p.Nodes) - 1)
}

// Node fetches a node by reference. Panics on an out-of-range or NoNode ref;
// callers in the emitter are expected to validate refs from Kind-specific
// accessors before dereferencing (see errors.go for the checked path).
func (p *Pool) Node(r NodeRef) Node {
	return p.Nodes[r.Index()]
}
