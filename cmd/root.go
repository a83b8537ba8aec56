package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/routerlab/routerbench/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "routerbench",
	Short: "Model-router profile benchmark",
	Long:  "Sends a fixed prompt set through a hosted model-router deployment under a chosen routing profile, records which underlying model served each prompt, and tallies the results.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
