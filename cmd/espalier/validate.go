package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/espalier/internal/validator"
)

var validateCmd = &cobra.Command{
	Use:   "validate [dir]",
	Short: "Check document files for consistency",
	Long: `Validates every JSON document in a directory: tree templates and
conversation documents against the schema, flows for unreachable
nodes, and legacy transcripts for clean conversion. With no subset
flags, all checks run.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		dir := "."
		if len(args) > 0 {
			dir = args[0]
		}

		var opts validator.Options
		opts.Templates, _ = cmd.Flags().GetBool("templates")
		opts.Histories, _ = cmd.Flags().GetBool("histories")
		opts.Navigation, _ = cmd.Flags().GetBool("navigation")
		opts.Conversion, _ = cmd.Flags().GetBool("conversion")

		report, err := validator.ValidateDir(dir, opts)
		if err != nil {
			fmt.Printf("Validation failed: %v\n", err)
			os.Exit(1)
		}

		fmt.Print(report.Summary())
		if !report.OK() {
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().Bool("templates", false, "Check tree templates only")
	validateCmd.Flags().Bool("histories", false, "Check conversation documents only")
	validateCmd.Flags().Bool("navigation", false, "Check flow reachability only")
	validateCmd.Flags().Bool("conversion", false, "Dry-run legacy transcript conversion only")
}
