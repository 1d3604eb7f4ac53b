package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/huangsam/attrplot/internal/contract"
	"github.com/huangsam/attrplot/internal/parquet"
	"github.com/huangsam/attrplot/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

const runTimeFormat = "2006-01-02 15:04:05"

// PrintRuns outputs the recorded run history.
func PrintRuns(runs []schema.RunRecord, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, runs)
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeRunsCSV(w, runs)
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		return writeParquetFile(cfg.OutputFile, func(path string) error {
			return parquet.WriteRunsParquet(parquet.ConvertRunRecords(runs), path)
		})
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeRunsTable(w, runs)
		}, "Wrote table")
	}
	return nil
}

func writeRunsTable(w io.Writer, runs []schema.RunRecord) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"ID", "Pipeline", "Started", "Duration", "Files"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	data := make([][]string, 0, len(runs))
	for _, r := range runs {
		data = append(data, []string{
			strconv.FormatInt(r.RunID, 10),
			r.Pipeline,
			r.StartTime.Local().Format(runTimeFormat),
			runDuration(r),
			strconv.Itoa(int(r.TotalArtifacts)),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Showing %d runs\n", len(runs))
	return err
}

func writeRunsCSV(w io.Writer, runs []schema.RunRecord) error {
	header := []string{"run_id", "run_uuid", "pipeline", "start_time", "end_time", "duration_ms", "total_artifacts", "config_params"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, r := range runs {
			end, duration, params := "", "", ""
			if r.EndTime != nil {
				end = r.EndTime.UTC().Format("2006-01-02T15:04:05Z")
			}
			if r.RunDurationMs != nil {
				duration = strconv.Itoa(int(*r.RunDurationMs))
			}
			if r.ConfigParams != nil {
				params = *r.ConfigParams
			}
			rec := []string{
				strconv.FormatInt(r.RunID, 10),
				r.RunUUID,
				r.Pipeline,
				r.StartTime.UTC().Format("2006-01-02T15:04:05Z"),
				end,
				duration,
				strconv.Itoa(int(r.TotalArtifacts)),
				params,
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

// runDuration renders the stored duration, or "running" for unfinished runs.
func runDuration(r schema.RunRecord) string {
	if r.RunDurationMs == nil {
		return "running"
	}
	return fmt.Sprintf("%dms", *r.RunDurationMs)
}
