// Package codebuf implements the growable, position-addressable byte sink
// that all of Blaze's emission passes write through (spec.md §4.1, C1).
//
// Buffer never hands out a pointer into its backing array — only integer
// offsets — so Go's own append-driven growth is safe by construction; this
// is the direct fix for spec.md §9's "raw pointers into the growable code
// buffer" re-architecture note.
package codebuf

import "encoding/binary"

// labelID names a mark_label() result. NewLabel issues IDs from 0 upward;
// a negative labelID never names a label.
type labelID int

// Buffer is the code buffer of spec.md §3/§4.1.
type Buffer struct {
	bytes    []byte
	patches  []Patch
	labels   []int // labelID -> offset, -1 until placed
	final    bool
}

// New returns an empty Buffer ready for emission.
func New() *Buffer {
	return &Buffer{bytes: make([]byte, 0, 4096)}
}

// Pos returns the current write cursor.
func (b *Buffer) Pos() int { return len(b.bytes) }

// Bytes is a read-only view of the bytes emitted so far; callers must not
// retain it across further emission (append may reallocate).
func (b *Buffer) Bytes() []byte { return b.bytes }

func (b *Buffer) mustBeOpen() {
	if b.final {
		panic("codebuf: emission after Finalize")
	}
}

// EmitU8 appends a single byte.
func (b *Buffer) EmitU8(v uint8) {
	b.mustBeOpen()
	b.bytes = append(b.bytes, v)
}

// EmitBytes appends a raw byte slice, as produced by the x64enc encoders.
func (b *Buffer) EmitBytes(v []byte) {
	b.mustBeOpen()
	b.bytes = append(b.bytes, v...)
}

// EmitU16 appends v little-endian.
func (b *Buffer) EmitU16(v uint16) {
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], v)
	b.EmitBytes(buf[:])
}

// EmitU32 appends v little-endian.
func (b *Buffer) EmitU32(v uint32) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	b.EmitBytes(buf[:])
}

// EmitU64 appends v little-endian.
func (b *Buffer) EmitU64(v uint64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	b.EmitBytes(buf[:])
}

// PatchAt rewrites width bytes starting at offset with v's low bytes,
// little-endian. Used both for fixup resolution and for backpatching
// sizes (eg. locals-frame size written after a function's body is known).
func (b *Buffer) PatchAt(offset, width int, v uint64) {
	switch width {
	case 1:
		b.bytes[offset] = byte(v)
	case 2:
		binary.LittleEndian.PutUint16(b.bytes[offset:], uint16(v))
	case 4:
		binary.LittleEndian.PutUint32(b.bytes[offset:], uint32(v))
	case 8:
		binary.LittleEndian.PutUint64(b.bytes[offset:], v)
	default:
		panic("codebuf: unsupported patch width")
	}
}

// NewLabel allocates a forward-reference label with no address yet.
func (b *Buffer) NewLabel() int {
	b.labels = append(b.labels, -1)
	return len(b.labels) - 1
}

// PlaceLabel binds label to the current cursor position.
func (b *Buffer) PlaceLabel(label int) {
	b.labels[label] = b.Pos()
}

// MarkLabel allocates a label and immediately places it at the current
// position — the common case for a backward jump target ("top" of a loop).
func (b *Buffer) MarkLabel() int {
	l := b.NewLabel()
	b.PlaceLabel(l)
	return l
}

// AddPatch records a deferred write-back to site, resolved against label
// at Finalize time.
func (b *Buffer) AddPatch(site int, kind PatchKind, label int) {
	b.patches = append(b.patches, Patch{Site: site, Kind: kind, Target: -1, label: labelID(label)})
}

// AddPatchToOffset records a deferred write-back whose target is already
// known (eg. a call to a function emitted earlier in the same pass).
func (b *Buffer) AddPatchToOffset(site int, kind PatchKind, target int) {
	b.patches = append(b.patches, Patch{Site: site, Kind: kind, Target: target, label: -1})
}

func patchWidth(kind PatchKind) int {
	if kind == PatchRelJump8 {
		return 1
	}
	if kind == PatchAbsMov64 {
		return 8
	}
	return 4
}

// Finalize resolves every pending patch and returns the finished byte
// array. An unresolved patch is fatal (spec.md §7 category 4): Finalize
// returns a non-nil error and no further emission is possible either way.
func (b *Buffer) Finalize(codeBase uint64) ([]byte, error) {
	b.mustBeOpen()
	b.final = true

	var unresolved []Patch
	for _, p := range b.patches {
		target := p.Target
		if target < 0 {
			if int(p.label) < 0 || int(p.label) >= len(b.labels) || b.labels[p.label] < 0 {
				unresolved = append(unresolved, p)
				continue
			}
			target = b.labels[p.label]
		}

		width := patchWidth(p.Kind)
		switch p.Kind {
		case PatchRelCall32, PatchRelJump32, PatchRipRel32:
			rel := int32(target - (p.Site + width))
			b.PatchAt(p.Site, width, uint64(uint32(rel)))
		case PatchRelJump8:
			rel := int8(target - (p.Site + width))
			b.PatchAt(p.Site, width, uint64(uint8(rel)))
		case PatchAbsMov64:
			b.PatchAt(p.Site, width, codeBase+uint64(target))
		}
	}

	if len(unresolved) > 0 {
		return nil, &UnresolvedPatchError{Patches: unresolved}
	}
	return b.bytes, nil
}
