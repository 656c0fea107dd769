package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/business-analyst/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "business-analyst",
	Short: "AI business analyst for tabular uploads",
	Long:  "Reads a CSV or Excel file, runs a four-step analyst crew on Claude, falls back to Gemini, and returns a summary, data issues, trends, and an answer to your question.",
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
