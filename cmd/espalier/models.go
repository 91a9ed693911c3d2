package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/espalier/pkg/adapters/ollama"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the models the server has available",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}

		client := ollama.New(cfg.OllamaURL)
		names, err := client.ListModels(context.Background())
		if err != nil {
			fmt.Printf("Error listing models: %v\n", err)
			os.Exit(1)
		}
		if len(names) == 0 {
			fmt.Println("No models installed.")
			return
		}
		for _, name := range names {
			fmt.Println(name)
		}
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}
