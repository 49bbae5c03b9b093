package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/weft/internal/cli"
)

var validateCmd = &cobra.Command{
	Use:   "validate FLOW",
	Short: "Check the flow for consistency",
	Long:  `Builds the graph without running it and reports unknown types, bad wiring, missing inputs and cycles.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cli.Validate(cmd.Context(), args[0], engineOptions(cmd)); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Flow is valid! ✅")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
