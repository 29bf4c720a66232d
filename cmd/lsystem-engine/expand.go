// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/lsystem-engine/internal/plant"
)

var expandCmd = &cobra.Command{
	Use:   "expand <plant.yaml>",
	Short: "Print the symbol sequence a plant interprets",
	Long: `Expand prints the terminal symbols the turtle would interpret for a
plant, in order: the depth-first yield of the rewriting tree, with every
symbol treated as terminal once max_depth is reached. No geometry is
produced.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		def, err := plant.Load(args[0])
		if err != nil {
			return err
		}
		if depth, _ := cmd.Flags().GetInt("depth"); depth >= 0 {
			def.Settings.MaxDepth = uint(depth)
		}

		yield, err := plant.Expand(def)
		if err != nil {
			return err
		}
		if count, _ := cmd.Flags().GetBool("count"); count {
			fmt.Fprintf(cmd.OutOrStdout(), "%d\n", len(yield))
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), yield)
		return nil
	},
}

func init() {
	expandCmd.Flags().Int("depth", -1, "override max_depth (-1 = use the plant file)")
	expandCmd.Flags().Bool("count", false, "print only the number of symbols")

	rootCmd.AddCommand(expandCmd)
}
