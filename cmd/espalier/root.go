package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/espalier/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "espalier",
	Short: "Espalier is a decision-tree conversation engine",
	Long: `Espalier walks users through expert decision trees, pairing each
step with model-generated commentary, and stores the transcript as a
self-contained JSON document.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", config.DefaultPath, "Path to the config file")
}

// loadConfig reads the configured settings file.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	return config.Load(path)
}
