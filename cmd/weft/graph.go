package main

import (
	"github.com/spf13/cobra"

	"github.com/aretw0/weft/internal/cli"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph FLOW",
	Short: "Export the flow graph visualization",
	Long:  `Builds the flow and outputs a Mermaid diagram (graph TD) of its components and edges.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		withRun, _ := cmd.Flags().GetBool("run")
		return cli.Graph(cmd.Context(), args[0], cli.GraphOptions{
			Options: engineOptions(cmd),
			Run:     withRun,
			Stdout:  cmd.OutOrStdout(),
		})
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().Bool("run", false, "Execute the flow and overlay the outcome of each component")
}
