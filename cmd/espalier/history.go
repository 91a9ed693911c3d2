package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/espalier/internal/cli"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Work with stored conversations",
}

var historyLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List stored conversation IDs",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}

		store := cli.NewStore(cfg)
		ids, err := store.List(context.Background())
		if err != nil {
			fmt.Printf("Error listing conversations: %v\n", err)
			os.Exit(1)
		}
		if len(ids) == 0 {
			fmt.Println("No stored conversations.")
			return
		}
		for _, id := range ids {
			fmt.Println(id)
		}
	},
}

var historyInspectCmd = &cobra.Command{
	Use:   "inspect <id>",
	Short: "Show a stored conversation",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}

		store := cli.NewStore(cfg)
		doc, err := store.Load(context.Background(), args[0])
		if err != nil {
			fmt.Printf("Error loading conversation: %v\n", err)
			os.Exit(1)
		}

		summary, _ := cmd.Flags().GetBool("summary")
		if summary {
			fmt.Printf("Expert:  %s\n", doc.Metadata.ExpertType)
			fmt.Printf("Created: %s\n", doc.Metadata.CreatedAt)
			fmt.Printf("Turns:   %d\n", len(doc.ConversationHistory))
			for _, e := range doc.ConversationHistory {
				fmt.Printf("  [%s] %s -> %q\n", e.Timestamp, e.NodeID, e.UserResponse)
			}
			return
		}

		out, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			fmt.Printf("Error rendering document: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(string(out))
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyLsCmd)
	historyCmd.AddCommand(historyInspectCmd)

	historyInspectCmd.Flags().Bool("summary", false, "Print a turn-by-turn summary instead of JSON")
}
