package iocache

import (
	"errors"
	"fmt"

	"github.com/huangsam/attrplot/internal/contract"
	"github.com/huangsam/attrplot/internal/parquet"
)

// ExecuteRunExport writes the run history to <outputFile>.runs.parquet and
// <outputFile>.artifacts.parquet and returns the written paths.
func ExecuteRunExport(store contract.RunStore, outputFile string) ([]string, error) {
	if outputFile == "" {
		return nil, errors.New("--output-file is required for export command")
	}
	if store == nil {
		return nil, errors.New("run tracking is not enabled. Set --run-backend")
	}

	status, err := store.GetStatus()
	if err != nil {
		return nil, fmt.Errorf("failed to get run status: %w", err)
	}
	if status.TotalRuns == 0 {
		return nil, errors.New("no run data found to export")
	}

	fmt.Printf("Exporting data from %s backend...\n", status.Backend)
	fmt.Printf("Total runs: %d\n", status.TotalRuns)
	fmt.Printf("Total artifacts: %d\n", status.TableSizes[artifactsTable])

	runs, err := store.GetAllRuns()
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve runs: %w", err)
	}
	artifacts, err := store.GetAllArtifacts()
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve artifacts: %w", err)
	}

	runsFile := outputFile + ".runs.parquet"
	if err := parquet.WriteRunsParquet(parquet.ConvertRunRecords(runs), runsFile); err != nil {
		return nil, fmt.Errorf("failed to write runs: %w", err)
	}
	fmt.Printf("Exported %d runs to: %s\n", len(runs), runsFile)

	artifactsFile := outputFile + ".artifacts.parquet"
	if err := parquet.WriteArtifactsParquet(parquet.ConvertArtifactRecords(artifacts), artifactsFile); err != nil {
		return nil, fmt.Errorf("failed to write artifacts: %w", err)
	}
	fmt.Printf("Exported %d artifacts to: %s\n", len(artifacts), artifactsFile)

	return []string{runsFile, artifactsFile}, nil
}
