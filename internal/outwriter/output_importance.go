package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/huangsam/attrplot/internal/contract"
	"github.com/huangsam/attrplot/internal/parquet"
	"github.com/huangsam/attrplot/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// PrintImportanceResults outputs ranked features, dispatching based on the output format configured.
func PrintImportanceResults(results []schema.ImportanceResult, cfg *contract.Config, duration time.Duration) error {
	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, results)
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeImportanceCSV(w, results)
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		return writeParquetFile(cfg.OutputFile, func(path string) error {
			return parquet.WriteImportanceParquet(parquet.ConvertImportanceResults(results), path)
		})
	default:
		// Default to human-readable table
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeImportanceTable(w, results, cfg, duration)
		}, "Wrote table")
	}
	return nil
}

// writeImportanceTable generates and writes the human-readable table.
func writeImportanceTable(w io.Writer, results []schema.ImportanceResult, cfg *contract.Config, duration time.Duration) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Model", "Dataset", "Task", "Source", "Rank", "Feature", "Importance"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	// Rank, source, task and importance take roughly 50 columns
	labelWidth := getMaxLabelWidth(getTerminalWidth(), 50, 3)

	var data [][]string
	for _, r := range results {
		task := taskLabel(r.Dataset, cfg.UseColors)
		for _, f := range r.Features {
			data = append(data, []string{
				contract.TruncateLabel(r.Model, labelWidth),
				contract.TruncateLabel(r.Dataset, labelWidth),
				task,
				r.Source,
				strconv.Itoa(f.Rank),
				contract.TruncateLabel(f.Feature, labelWidth),
				fmtFloat(f.Importance),
			})
		}
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Ranked features of %d model and dataset pairs\n", len(results)); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Completed in %v. Cache backend: %s\n", duration, cfg.CacheBackend)
	return err
}

// writeImportanceCSV writes one row per ranked feature.
func writeImportanceCSV(w io.Writer, results []schema.ImportanceResult) error {
	header := []string{"model", "dataset", "source", "rank", "feature", "importance"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, r := range results {
			for _, f := range r.Features {
				rec := []string{
					r.Model,
					r.Dataset,
					r.Source,
					strconv.Itoa(f.Rank),
					f.Feature,
					strconv.FormatFloat(f.Importance, 'g', -1, 64),
				}
				if err := cw.Write(rec); err != nil {
					return err
				}
			}
		}
		return nil
	})
}
