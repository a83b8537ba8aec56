package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/routerlab/routerbench/internal/report"
)

var reportProfiles []string

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Tally which models served the prompts",
	Long:  "Aggregates result records into per-model counts for each profile, the comparison the experiment exists to produce.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		sk, err := initSink(ctx)
		if err != nil {
			return err
		}
		defer sk.Close() //nolint:errcheck

		tallies, err := report.Tally(ctx, sk, reportProfiles)
		if err != nil {
			return eris.Wrap(err, "report")
		}
		if len(tallies) == 0 {
			fmt.Fprintln(os.Stderr, "No results found.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		for _, t := range tallies {
			fmt.Fprintf(w, "%s (%d results)\n", report.DisplayName(t.Profile), t.Total)
			for _, mc := range report.SortedModels(t.Models) {
				share := 0.0
				if t.Total > 0 {
					share = 100 * float64(mc.Count) / float64(t.Total)
				}
				fmt.Fprintf(w, "  %s\t%d\t%.1f%%\n", mc.Model, mc.Count, share)
			}
			fmt.Fprintln(w)
		}
		return w.Flush()
	},
}

func init() {
	reportCmd.Flags().StringSliceVar(&reportProfiles, "profile", nil, "profiles to include (default: all present in the sink)")
	rootCmd.AddCommand(reportCmd)
}
