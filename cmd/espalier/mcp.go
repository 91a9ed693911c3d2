package main

import (
	"log"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/espalier"
	mcpAdapter "github.com/aretw0/espalier/pkg/adapters/mcp"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp <tree.json>",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Starts the engine as an MCP server over stdio, so AI agents can
navigate the decision tree as tools.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		engine, err := espalier.New(args[0])
		if err != nil {
			log.Fatalf("Error initializing engine: %v", err)
		}

		// Keep logs off stdout; it carries JSON-RPC.
		log.SetOutput(os.Stderr)
		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
		slog.SetDefault(logger)

		srv := mcpAdapter.NewServer(engine.Graph())

		slog.Info("Starting Espalier MCP Server (stdio)", "tree", args[0])
		if err := srv.ServeStdio(); err != nil {
			slog.Error("MCP server execution failed", "err", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
