package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/routerlab/routerbench/internal/report"
)

var (
	exportOut      string
	exportProfiles []string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export results to an Excel workbook",
	Long:  "Writes one sheet of raw records per profile plus a Summary sheet of per-model counts.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		sk, err := initSink(ctx)
		if err != nil {
			return err
		}
		defer sk.Close() //nolint:errcheck

		if err := report.ExportXLSX(ctx, sk, exportProfiles, exportOut); err != nil {
			return eris.Wrap(err, "export")
		}

		zap.L().Info("workbook written", zap.String("path", exportOut))
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportOut, "out", "results.xlsx", "output workbook path")
	exportCmd.Flags().StringSliceVar(&exportProfiles, "profile", nil, "profiles to include (default: all present in the sink)")
	rootCmd.AddCommand(exportCmd)
}
