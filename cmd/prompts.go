package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var promptsCmd = &cobra.Command{
	Use:   "prompts",
	Short: "Manage the local prompt cache",
}

// -- prompts fetch --

var promptsFetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download the prompt dataset into the local cache",
	Long:  "Fetches the dataset once and writes the NDJSON cache. Later runs read the cache only, so every profile sees the identical prompt sequence.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		prompts, err := initSource().Load(cmd.Context(), 0)
		if err != nil {
			return eris.Wrap(err, "prompts fetch")
		}
		zap.L().Info("prompt cache ready",
			zap.String("path", cfg.Source.CachePath),
			zap.Int("prompts", len(prompts)),
		)
		return nil
	},
}

// -- prompts stats --

var promptsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show prompt cache statistics",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if _, err := os.Stat(cfg.Source.CachePath); os.IsNotExist(err) {
			fmt.Fprintln(os.Stderr, "No prompt cache found. Run `routerbench prompts fetch` first.")
			return eris.New("prompt cache missing")
		}

		prompts, err := initSource().Load(cmd.Context(), 0)
		if err != nil {
			return eris.Wrap(err, "prompts stats")
		}

		var totalChars, maxChars int
		for _, p := range prompts {
			totalChars += len(p.Text)
			if len(p.Text) > maxChars {
				maxChars = len(p.Text)
			}
		}
		avg := 0
		if len(prompts) > 0 {
			avg = totalChars / len(prompts)
		}

		fmt.Printf("cache:    %s\n", cfg.Source.CachePath)
		fmt.Printf("prompts:  %d\n", len(prompts))
		fmt.Printf("avg len:  %d chars\n", avg)
		fmt.Printf("max len:  %d chars\n", maxChars)
		return nil
	},
}

func init() {
	promptsCmd.AddCommand(promptsFetchCmd)
	promptsCmd.AddCommand(promptsStatsCmd)
	rootCmd.AddCommand(promptsCmd)
}
