package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/espalier/internal/cli"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run [tree.json]",
	Short: "Run an interactive conversation",
	Long: `Starts an interactive conversation over the given decision tree.
Type 'help' during the conversation for the available commands.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}

		opts := cli.RunOptions{Config: cfg}
		if len(args) > 0 {
			opts.TreePath = args[0]
		}
		opts.ExpertType, _ = cmd.Flags().GetString("expert")
		opts.Model, _ = cmd.Flags().GetString("model")
		opts.ResumeID, _ = cmd.Flags().GetString("resume")
		opts.NoModel, _ = cmd.Flags().GetBool("no-model")
		opts.Debug, _ = cmd.Flags().GetBool("debug")

		if err := cli.Execute(opts); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().String("expert", "", "Expert type (defaults to the tree's metadata)")
	runCmd.Flags().String("model", "", "Model name (defaults to a recommendation per expert type)")
	runCmd.Flags().String("resume", "", "Resume a stored conversation by ID")
	runCmd.Flags().Bool("no-model", false, "Run without a model; every turn uses the fallback reply")
	runCmd.Flags().Bool("debug", false, "Enable debug logging to stderr")
}
