package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/business-analyst/internal/analysis"
)

var (
	analyzeFile     string
	analyzeQuestion string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze a local CSV or Excel file and print the result as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(analyzeFile)
		if err != nil {
			return eris.Wrapf(err, "read %s", analyzeFile)
		}

		svc, err := initService(cfg, "analyze")
		if err != nil {
			return err
		}

		res, err := svc.Analyze(cmd.Context(), data, analyzeQuestion)
		if err != nil {
			var aerr *analysis.Error
			if errors.As(err, &aerr) {
				return fmt.Errorf("analyze (status %d): %s", aerr.Kind.HTTPStatus(), aerr.Detail)
			}
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	},
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeFile, "file", "", "path to a CSV or Excel file")
	analyzeCmd.Flags().StringVar(&analyzeQuestion, "question", "", "business question to answer")
	_ = analyzeCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(analyzeCmd)
}
