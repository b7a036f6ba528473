package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/blaze-lang/blaze/internal/astload"
	"github.com/blaze-lang/blaze/internal/emitter"
)

var emitFlags struct {
	input       string
	output      string
	runtimeBase uint64
}

var emitCmd = &cobra.Command{
	Use:   "emit",
	Short: "Emit machine code for an AST pool in Blaze's wire format",
	Long: `emit decodes a Blaze AST wire-format file (see internal/astload.Load)
and runs it through the x86-64 emitter, writing the finalized code buffer
to the output file as raw bytes.

The runtime entry points the generated code calls into (allocator,
fixed-point, flow control) are not linked by blazec itself; --runtime-base
lays them out at fixed offsets from a single base address a host process
is expected to provide at load time.`,
	RunE: runEmit,
}

func init() {
	flags := emitCmd.Flags()
	flags.StringVarP(&emitFlags.input, "input", "i", "", "path to a wire-format AST pool (required)")
	flags.StringVarP(&emitFlags.output, "output", "o", "", "path to write the finalized code buffer (required)")
	flags.Uint64Var(&emitFlags.runtimeBase, "runtime-base", 0x620000, "base address of the linked C7 runtime entry points")
	emitCmd.MarkFlagRequired("input")
	emitCmd.MarkFlagRequired("output")
}

// runtimeEntriesAt lays RuntimeEntries out as fixed 0x100-byte slots from
// base — a harness convention blazec invents for standalone testing, not
// a contract spec.md defines (linking is explicitly out of scope).
func runtimeEntriesAt(base uint64) emitter.RuntimeEntries {
	slot := func(n uint64) uint64 { return base + n*0x100 }
	return emitter.RuntimeEntries{
		Alloc:                     slot(0),
		RegisterFixedPoint:        slot(1),
		TimelineArriveFixedPoint:  slot(2),
		RegisterPermanentTimeline: slot(3),
		ShouldExecuteFlow:         slot(4),
		PauseFlow:                 slot(5),
		ResumeFlow:                slot(6),
		TerminateFlow:             slot(7),
	}
}

func runEmit(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(emitFlags.input)
	if err != nil {
		return err
	}

	pool, root, err := astload.Load(data)
	if err != nil {
		return err
	}

	e := emitter.New(pool, resolveLayout(), runtimeEntriesAt(emitFlags.runtimeBase))
	code, err := e.EmitProgram(root)
	if err != nil {
		return err
	}

	return os.WriteFile(emitFlags.output, code, 0644)
}
