package main

import (
	"github.com/spf13/cobra"

	"github.com/aretw0/weft/internal/cli"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run FLOW",
	Short: "Run a flow once",
	Long:  `Builds the flow document (YAML or JSON), executes it and prints the terminal outputs.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		jsonMode, _ := cmd.Flags().GetBool("json")
		report, _ := cmd.Flags().GetBool("report")
		concurrency, _ := cmd.Flags().GetInt("concurrency")

		opts := cli.RunOptions{
			Options: engineOptions(cmd),
			JSON:    jsonMode,
			Report:  report,
			Stdout:  cmd.OutOrStdout(),
		}
		opts.Concurrency = concurrency

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		err := cli.Execute(ctx, args[0], opts)
		return cli.HandleExecutionError(cmd.ErrOrStderr(), err, ctx.Signal())
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().Bool("json", false, "Print the run result as JSON")
	runCmd.Flags().Bool("report", false, "Render a markdown report of the run")
	runCmd.Flags().Int("concurrency", 0, "Run up to n components of the same level at once")
	runCmd.MarkFlagsMutuallyExclusive("json", "report")
}
