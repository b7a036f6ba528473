package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var layoutCmd = &cobra.Command{
	Use:   "layout",
	Short: "Print the resolved runtime address layout",
	RunE: func(cmd *cobra.Command, args []string) error {
		lay := resolveLayout()
		fmt.Printf("collision-base:        0x%x\n", lay.CollisionBase)
		fmt.Printf("fixedpoint-base:       0x%x\n", lay.FixedPointBase)
		fmt.Printf("flow-base:             0x%x\n", lay.FlowBase)
		fmt.Printf("default-target:        0x%x\n", lay.DefaultTarget)
		fmt.Printf("default-bounce-target: 0x%x\n", lay.DefaultBounceTarget)
		fmt.Printf("tsc-hz:                %d (0 = calibrate at startup)\n", layoutFlags.tscHz)
		return nil
	},
}
