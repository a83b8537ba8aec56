package report

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/routerlab/routerbench/internal/sink"
)

// ExportXLSX writes an Excel workbook with one sheet of raw records per
// profile plus a Summary sheet of per-model counts.
func ExportXLSX(ctx context.Context, sk sink.Sink, profiles []string, path string) error {
	tallies, err := Tally(ctx, sk, profiles)
	if err != nil {
		return err
	}

	f := xlsx.NewFile()

	summary, err := f.AddSheet("Summary")
	if err != nil {
		return eris.Wrap(err, "report: add summary sheet")
	}
	header := summary.AddRow()
	for _, col := range []string{"Profile", "Model", "Count"} {
		header.AddCell().Value = col
	}
	for _, t := range tallies {
		for _, mc := range SortedModels(t.Models) {
			row := summary.AddRow()
			row.AddCell().Value = DisplayName(t.Profile)
			row.AddCell().Value = mc.Model
			row.AddCell().SetInt(mc.Count)
		}
	}

	for _, t := range tallies {
		records, err := sk.Records(ctx, t.Profile)
		if err != nil {
			return err
		}

		sheet, err := f.AddSheet(sheetName(t.Profile))
		if err != nil {
			return eris.Wrapf(err, "report: add sheet %s", t.Profile)
		}
		head := sheet.AddRow()
		for _, col := range []string{"PromptID", "Model", "Timestamp", "Response"} {
			head.AddCell().Value = col
		}
		for _, rec := range records {
			row := sheet.AddRow()
			row.AddCell().SetInt(rec.PromptID)
			row.AddCell().Value = rec.Model
			row.AddCell().Value = rec.Timestamp.UTC().Format("2006-01-02 15:04:05")
			row.AddCell().Value = rec.Response
		}
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "report: save %s", path)
	}
	return nil
}

// sheetName keeps names inside Excel's 31-character sheet limit.
func sheetName(profile string) string {
	name := DisplayName(profile)
	if len(name) > 31 {
		name = name[:31]
	}
	return name
}
