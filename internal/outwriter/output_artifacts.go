package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/attrplot/internal/contract"
	"github.com/huangsam/attrplot/internal/parquet"
	"github.com/huangsam/attrplot/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// pairCounts tallies the artifacts of one (model, dataset) pair.
type pairCounts struct {
	model, dataset string
	byKind         map[schema.ArtifactKind]int
}

// PrintGenerateResult outputs the summary of a per-observation run.
func PrintGenerateResult(result *schema.GenerateResult, cfg *contract.Config) error {
	return printArtifacts(result, result.RunID, result.Artifacts, cfg, func(w io.Writer) error {
		return writeGenerateTable(w, result, cfg)
	})
}

// PrintAdditiveResult outputs the summary of an additive run.
func PrintAdditiveResult(result *schema.AdditiveResult, cfg *contract.Config) error {
	return printArtifacts(result, result.RunID, result.Artifacts, cfg, func(w io.Writer) error {
		return writeAdditiveTable(w, result, cfg)
	})
}

// printArtifacts dispatches a run summary on the output format. JSON carries
// the whole result; CSV and parquet list the artifacts.
func printArtifacts(result any, runID int64, artifacts []schema.Artifact, cfg *contract.Config, text func(io.Writer) error) error {
	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, result)
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeArtifactsCSV(w, artifacts)
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		records := artifactRecords(runID, artifacts, time.Now())
		return writeParquetFile(cfg.OutputFile, func(path string) error {
			return parquet.WriteArtifactsParquet(parquet.ConvertArtifactRecords(records), path)
		})
	default:
		return writeWithFile(cfg.OutputFile, text, "Wrote table")
	}
	return nil
}

// writeGenerateTable writes one row per rendered pair with its chart counts.
func writeGenerateTable(w io.Writer, result *schema.GenerateResult, cfg *contract.Config) error {
	var pairs []*pairCounts
	index := make(map[string]*pairCounts)
	for _, a := range result.Artifacts {
		key := a.Model + "\x00" + a.Dataset
		pc, ok := index[key]
		if !ok {
			pc = &pairCounts{model: a.Model, dataset: a.Dataset, byKind: make(map[schema.ArtifactKind]int)}
			index[key] = pc
			pairs = append(pairs, pc)
		}
		pc.byKind[a.Kind]++
	}

	table := tablewriter.NewWriter(w)
	table.Header([]string{"Model", "Dataset", "Task", "Importance", "Scatter", "Force", "Tables"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	labelWidth := getMaxLabelWidth(getTerminalWidth(), 60, 2)
	data := make([][]string, 0, len(pairs))
	for _, pc := range pairs {
		data = append(data, []string{
			contract.TruncateLabel(pc.model, labelWidth),
			contract.TruncateLabel(pc.dataset, labelWidth),
			taskLabel(pc.dataset, cfg.UseColors),
			strconv.Itoa(pc.byKind[schema.ImportanceArtifact]),
			strconv.Itoa(pc.byKind[schema.ScatterArtifact]),
			strconv.Itoa(pc.byKind[schema.ForceArtifact]),
			strconv.Itoa(pc.byKind[schema.AttributionArtifact]),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	for _, s := range result.Skipped {
		if _, err := fmt.Fprintf(w, "Skipped %s on %s (%s)\n", s.Model, s.Dataset, s.Reason); err != nil {
			return err
		}
	}
	if len(result.MissingIDs) > 0 {
		if _, err := fmt.Fprintf(w, "Identifiers not found: %d (%s)\n", len(result.MissingIDs), contract.TruncateLabel(strings.Join(result.MissingIDs, ", "), 120)); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "Wrote %d files under %s\n", len(result.Artifacts), cfg.OutputRoot); err != nil {
		return err
	}
	return writeRunFooter(w, result.RunID, result.Duration, cfg)
}

// writeAdditiveTable writes one row per additive chart.
func writeAdditiveTable(w io.Writer, result *schema.AdditiveResult, cfg *contract.Config) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Identifier", "File"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignLeft
	})

	labelWidth := getMaxLabelWidth(getTerminalWidth(), 0, 2)
	data := make([][]string, 0, len(result.Artifacts))
	for _, a := range result.Artifacts {
		id := a.RowID
		if id == "" {
			id = "(all)"
		}
		data = append(data, []string{
			contract.TruncateLabel(id, labelWidth),
			contract.TruncateLabel(filepath.Base(a.Path), labelWidth),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "Wrote %d charts of %d features over %d rows under %s\n",
		len(result.Artifacts), len(result.Features), result.Rows, cfg.OutputRoot); err != nil {
		return err
	}
	return writeRunFooter(w, result.RunID, result.Duration, cfg)
}

// writeRunFooter prints the timing line shared by run summaries.
func writeRunFooter(w io.Writer, runID int64, duration time.Duration, cfg *contract.Config) error {
	run := ""
	if runID > 0 {
		run = fmt.Sprintf(" Run ID: %d.", runID)
	}
	_, err := fmt.Fprintf(w, "Completed in %v with %d workers. Cache backend: %s.%s\n", duration, cfg.Workers, cfg.CacheBackend, run)
	return err
}

// writeArtifactsCSV writes one row per artifact.
func writeArtifactsCSV(w io.Writer, artifacts []schema.Artifact) error {
	header := []string{"kind", "model", "dataset", "feature", "row_id", "class_index", "path"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, a := range artifacts {
			rec := []string{
				string(a.Kind),
				a.Model,
				a.Dataset,
				a.Feature,
				a.RowID,
				strconv.Itoa(a.ClassIndex),
				a.Path,
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

// artifactRecords converts run artifacts into run store records.
func artifactRecords(runID int64, artifacts []schema.Artifact, createdAt time.Time) []schema.ArtifactRecord {
	records := make([]schema.ArtifactRecord, len(artifacts))
	for i, a := range artifacts {
		records[i] = schema.ArtifactRecord{
			RunID:      runID,
			Path:       a.Path,
			Kind:       string(a.Kind),
			Model:      a.Model,
			Dataset:    a.Dataset,
			Feature:    a.Feature,
			RowID:      a.RowID,
			ClassIndex: int32(a.ClassIndex),
			CreatedAt:  createdAt,
		}
	}
	return records
}
