package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/aretw0/espalier/internal/converter"
)

var newCmd = &cobra.Command{
	Use:   "new <expert-type>",
	Short: "Create a starter decision tree",
	Long: `Writes a minimal two-node decision tree for the given expert type,
ready to edit and run.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		out, _ := cmd.Flags().GetString("out")
		if out == "" {
			out = "tree.json"
		}

		if _, err := os.Stat(out); err == nil {
			fmt.Printf("%s already exists, refusing to overwrite\n", out)
			os.Exit(1)
		}

		tree := converter.NewTreeDocument(args[0], time.Now())
		data, err := json.MarshalIndent(tree, "", "  ")
		if err != nil {
			fmt.Printf("Error rendering tree: %v\n", err)
			os.Exit(1)
		}
		if err := os.WriteFile(out, data, 0644); err != nil {
			fmt.Printf("Error writing %s: %v\n", out, err)
			os.Exit(1)
		}

		fmt.Printf("Created %s for a %s expert\n", out, args[0])
	},
}

func init() {
	rootCmd.AddCommand(newCmd)

	newCmd.Flags().String("out", "tree.json", "Output file path")
}
