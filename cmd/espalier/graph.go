package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	fileAdapter "github.com/aretw0/espalier/internal/adapters/file"
	"github.com/aretw0/espalier/internal/presentation/graph"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph <tree.json>",
	Short: "Export the decision tree visualization",
	Long: `Outputs a Mermaid diagram (graph TD) of the decision tree. When
given a conversation document, the visited path is highlighted.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		doc, kind, err := fileAdapter.ReadDocument(args[0])
		if err != nil {
			fmt.Printf("Error reading document: %v\n", err)
			os.Exit(1)
		}

		switch kind {
		case fileAdapter.KindTree:
			fmt.Print(graph.GenerateMermaid(doc.Tree, nil))

		case fileAdapter.KindConversation:
			overlay := &graph.Overlay{}
			for _, e := range doc.Conversation.ConversationHistory {
				overlay.VisitedNodes = append(overlay.VisitedNodes, e.NodeID)
			}
			if n := len(doc.Conversation.ConversationHistory); n > 0 {
				overlay.CurrentNode = doc.Conversation.ConversationHistory[n-1].NextNode
			}
			fmt.Print(graph.GenerateMermaid(doc.Conversation.Tree(), overlay))

		default:
			fmt.Printf("%s is a legacy transcript; convert it first\n", args[0])
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
}
