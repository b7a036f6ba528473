package codebuf

// PatchKind identifies how a pending patch's displacement/address is
// computed at Finalize time (spec.md §4.1).
type PatchKind uint8

const (
	PatchRelCall32 PatchKind = iota // call rel32: target - (site + 4)
	PatchRelJump32                  // jmp/jcc rel32: target - (site + 4)
	PatchRelJump8                   // jmp/jcc rel8: target - (site + 1)
	PatchAbsMov64                   // mov reg, imm64: codeBase + target
	PatchRipRel32                   // lea reg, [rip+disp32]: target - (site + 4)
)

// Patch is a deferred write-back to a previously emitted site.
type Patch struct {
	Site   int       // byte offset where the patch's value starts
	Kind   PatchKind
	Target int       // resolved label/target offset, or -1 if still pending
	label  labelID   // set when the patch targets a label rather than a raw offset
}
