package codebuf

import (
	"fmt"
	"strings"
)

// UnresolvedPatchError reports every patch still unresolved at Finalize
// time (spec.md §7 category 4 — a forward reference that was never
// placed).
type UnresolvedPatchError struct {
	Patches []Patch
}

func (e *UnresolvedPatchError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "codebuf: %d unresolved patch(es):", len(e.Patches))
	for _, p := range e.Patches {
		fmt.Fprintf(&b, " site=%d kind=%d", p.Site, p.Kind)
	}
	return b.String()
}
