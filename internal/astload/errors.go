package astload

import "fmt"

// Error reports a malformed-input failure: an out-of-range node reference,
// an unexpected kind at a position that required a specific one, or a
// missing required child. Category 1 of spec.md §7's error taxonomy.
type Error struct {
	Node NodeRef
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("ast: node %s: %s", e.Node, e.Msg)
}

// Expect fetches the node at r and verifies its kind, returning a typed
// *Error instead of panicking when the pool is malformed.
func Expect(p *Pool, r NodeRef, want Kind) (Node, error) {
	if !r.Valid() {
		return Node{}, &Error{Node: r, Msg: "required child is absent"}
	}
	if r.Index() >= len(p.Nodes) {
		return Node{}, &Error{Node: r, Msg: "node index out of range"}
	}
	n := p.Nodes[r.Index()]
	if n.Kind != want {
		return Node{}, &Error{Node: r, Msg: fmt.Sprintf("expected %s, got %s", want, n.Kind)}
	}
	return n, nil
}
