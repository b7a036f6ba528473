// Package layout carries the fixed process addresses of spec.md §6 as an
// explicit value threaded through the emitter and runtime ABI, rather
// than as process globals (spec.md §9's re-architecture note on "globals
// (the 'current scalable context', fixed runtime addresses)").
package layout

// Layout is the set of fixed addresses Blaze's generated code assumes.
// Implementers embedding Blaze must either reserve these addresses in
// the target process or override them here.
type Layout struct {
	CollisionBase       uint64
	FixedPointBase      uint64
	FlowBase            uint64
	DefaultTarget       uint64
	DefaultBounceTarget uint64
}

// Default returns spec.md §6's documented addresses.
func Default() Layout {
	return Layout{
		CollisionBase:       0x500000,
		FixedPointBase:      0x600000,
		FlowBase:            0x610000,
		DefaultTarget:       0x400000,
		DefaultBounceTarget: 0x401000,
	}
}
