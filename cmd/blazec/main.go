// Command blazec is Blaze's harness CLI: a thin wrapper around the
// internal/emitter entry point, plus a self-contained diagnostic suite.
// It is external collaborator tooling, not part of the compiler core
// (spec.md §1 excludes "CLI wrapping... test harnesses" from the core's
// engineering budget) — rebuilt on cobra per goat's root-command shape
// rather than lcox74/bfcc's stdlib flag.FlagSet, since every subcommand
// here shares a common set of runtime-layout flags.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/blaze-lang/blaze/internal/layout"
)

var layoutFlags struct {
	collisionBase       uint64
	fixedPointBase      uint64
	flowBase            uint64
	defaultTarget       uint64
	defaultBounceTarget uint64
	tscHz               uint64
}

var rootCmd = &cobra.Command{
	Use:   "blazec",
	Short: "Blaze x86-64 direct emitter harness",
	Long: `blazec drives Blaze's AST-to-machine-code emitter.

It does not lex or parse Blaze source: the emit subcommand consumes an
already-built AST pool in the wire format internal/astload decodes.`,
	SilenceUsage: true,
}

func init() {
	d := layout.Default()
	flags := rootCmd.PersistentFlags()
	flags.Uint64Var(&layoutFlags.collisionBase, "collision-base", d.CollisionBase, "fixed address of the collision table")
	flags.Uint64Var(&layoutFlags.fixedPointBase, "fixedpoint-base", d.FixedPointBase, "fixed address of the fixed-point table")
	flags.Uint64Var(&layoutFlags.flowBase, "flow-base", d.FlowBase, "fixed address of the flow table")
	flags.Uint64Var(&layoutFlags.defaultTarget, "default-target", d.DefaultTarget, "default collision redirect target")
	flags.Uint64Var(&layoutFlags.defaultBounceTarget, "default-bounce-target", d.DefaultBounceTarget, "default collision bounce target")
	flags.Uint64Var(&layoutFlags.tscHz, "tsc-hz", 0, "cycle counter frequency; 0 calibrates at startup")

	rootCmd.AddCommand(emitCmd, selftestCmd, layoutCmd)
}

func resolveLayout() layout.Layout {
	return layout.Layout{
		CollisionBase:       layoutFlags.collisionBase,
		FixedPointBase:      layoutFlags.fixedPointBase,
		FlowBase:            layoutFlags.flowBase,
		DefaultTarget:       layoutFlags.defaultTarget,
		DefaultBounceTarget: layoutFlags.defaultBounceTarget,
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
