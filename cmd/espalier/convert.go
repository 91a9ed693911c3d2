package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	fileAdapter "github.com/aretw0/espalier/internal/adapters/file"
	"github.com/aretw0/espalier/internal/cli"
	"github.com/aretw0/espalier/internal/converter"
)

var convertCmd = &cobra.Command{
	Use:   "convert <transcript.json>",
	Short: "Convert a legacy transcript into a conversation document",
	Long: `Reads a flat role/content transcript and rebuilds it as a
conversation document with a canonical flow, storing the result
alongside the other conversations.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}

		doc, kind, err := fileAdapter.ReadDocument(args[0])
		if err != nil {
			fmt.Printf("Error reading transcript: %v\n", err)
			os.Exit(1)
		}
		if kind != fileAdapter.KindLegacy {
			fmt.Printf("%s is already a %s document, nothing to convert\n", args[0], kind)
			os.Exit(1)
		}

		expertType, _ := cmd.Flags().GetString("expert")
		if expertType == "" {
			expertType = converter.InferExpertType(doc.Legacy, filepath.Base(args[0]))
		}

		converted := converter.New().Convert(doc.Legacy, expertType)

		id := fileAdapter.DocumentID(expertType, time.Now())
		store := cli.NewStore(cfg)
		if err := store.Save(context.Background(), id, converted); err != nil {
			fmt.Printf("Error saving converted document: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("Converted %d turns as %s\n", len(converted.ConversationHistory), id)
	},
}

func init() {
	rootCmd.AddCommand(convertCmd)

	convertCmd.Flags().String("expert", "", "Expert type (default: inferred from the transcript)")
}
