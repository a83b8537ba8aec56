package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/routerlab/routerbench/internal/model"
)

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "Inspect recorded results",
	Long:  "Commands for listing and summarizing the result records written by batch runs.",
}

// -- results list --

var resultsListCmd = &cobra.Command{
	Use:   "list <profile>",
	Short: "List result records for a profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		sk, err := initSink(ctx)
		if err != nil {
			return err
		}
		defer sk.Close() //nolint:errcheck

		records, err := sk.Records(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "results list")
		}

		limit, _ := cmd.Flags().GetInt("limit")
		if limit > 0 && len(records) > limit {
			records = records[:limit]
		}

		if len(records) == 0 {
			fmt.Fprintln(os.Stderr, "No results found.")
			return nil
		}

		formatResultsList(os.Stdout, records)
		return nil
	},
}

// -- results stats --

var resultsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show result counts per profile",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		sk, err := initSink(ctx)
		if err != nil {
			return err
		}
		defer sk.Close() //nolint:errcheck

		profiles, err := sk.Profiles(ctx)
		if err != nil {
			return eris.Wrap(err, "results stats")
		}
		if len(profiles) == 0 {
			fmt.Fprintln(os.Stderr, "No results found.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "PROFILE\tCOUNT")
		for _, p := range profiles {
			n, err := sk.Count(ctx, p)
			if err != nil {
				return eris.Wrap(err, "results stats")
			}
			fmt.Fprintf(w, "%s\t%d\n", p, n)
		}
		return w.Flush()
	},
}

func formatResultsList(out io.Writer, records []model.ResultRecord) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PROMPT\tMODEL\tTIMESTAMP\tRESPONSE")
	for _, rec := range records {
		resp := rec.Response
		if len(resp) > 60 {
			resp = resp[:57] + "..."
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n",
			rec.PromptID,
			rec.Model,
			rec.Timestamp.UTC().Format("2006-01-02 15:04:05"),
			resp,
		)
	}
	_ = w.Flush()
}

func init() {
	resultsListCmd.Flags().Int("limit", 50, "max records to list")
	resultsCmd.AddCommand(resultsListCmd)
	resultsCmd.AddCommand(resultsStatsCmd)
	rootCmd.AddCommand(resultsCmd)
}
