// Package main provides a performance benchmarking tool for the attrplot CLI.
// It measures how much the attribution cache saves across workspaces of
// different sizes. Each command runs several times without a cache, then
// several times against a fresh SQLite cache; the first cached run is cold
// and the rest are averaged as warm.
//
// Prerequisites:
// - attrplot binary installed and available in PATH
// - One directory per workspace under the base directory, each holding
//   models/ and data/ subdirectories
//
// Usage: go run benchmark/main.go [workspace-base-dir]
package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"time"
)

// BenchmarkResult holds the timings of one command on one workspace.
type BenchmarkResult struct {
	Workspace   string
	Command     string
	NoCacheTime string
	ColdTime    string
	WarmTime    string
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	Base        string
	Timeout     time.Duration
	Workers     int
	NoCacheRuns int
	CacheRuns   int
	Workspaces  []string
	Commands    [][]string
}

func main() {
	if len(os.Args) != 2 {
		fmt.Printf("Usage: %s [workspace-base-dir]\n", os.Args[0])
		os.Exit(1)
	}

	config := BenchmarkConfig{
		Base:        os.Args[1],
		Timeout:     10 * time.Minute,
		Workers:     8,
		NoCacheRuns: 3,
		CacheRuns:   4,
		Commands: [][]string{
			{"importance"},
			{"generate", "--export-attributions", "no"},
		},
	}

	workspaces, err := discoverWorkspaces(config.Base)
	if err != nil {
		fmt.Printf("Prerequisites check failed: %v\n", err)
		os.Exit(1)
	}
	config.Workspaces = workspaces

	results := runBenchmarks(config)
	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}
	printSummary(config, results)
}

// discoverWorkspaces checks the binary and lists directories with models/ and data/.
func discoverWorkspaces(base string) ([]string, error) {
	if _, err := exec.LookPath("attrplot"); err != nil {
		return nil, errors.New("attrplot binary not found in PATH")
	}

	entries, err := os.ReadDir(base)
	if err != nil {
		return nil, err
	}
	var workspaces []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		root := filepath.Join(base, e.Name())
		if isDir(filepath.Join(root, "models")) && isDir(filepath.Join(root, "data")) {
			workspaces = append(workspaces, e.Name())
		}
	}
	if len(workspaces) == 0 {
		return nil, fmt.Errorf("no workspace with models/ and data/ under %s", base)
	}
	slices.Sort(workspaces)
	return workspaces, nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// runBenchmarks executes every command on every workspace.
func runBenchmarks(config BenchmarkConfig) []BenchmarkResult {
	var results []BenchmarkResult

	fmt.Printf("Starting benchmark: %d workspaces, %v timeout, %d workers, no-cache: %d runs, cache: %d runs\n",
		len(config.Workspaces), config.Timeout, config.Workers, config.NoCacheRuns, config.CacheRuns)

	for _, ws := range config.Workspaces {
		fmt.Printf("Benchmarking %s\n", ws)
		for _, command := range config.Commands {
			results = append(results, runBenchmarkSuite(config, ws, command))
		}
	}
	return results
}

// runBenchmarkSuite runs the no-cache and cache phases for one command.
func runBenchmarkSuite(config BenchmarkConfig, ws string, command []string) BenchmarkResult {
	fmt.Printf("Running %s on %s\n", command[0], ws)
	root := filepath.Join(config.Base, ws)

	// Each suite gets its own cache file so the first cached run is really cold
	cacheFile := filepath.Join(os.TempDir(), fmt.Sprintf("attrplot_bench_%s_%s.db", ws, command[0]))
	_ = os.Remove(cacheFile)
	defer func() { _ = os.Remove(cacheFile) }()

	_, noCacheTimes := runBenchmark(config, root, command, []string{"--cache-backend", "none"}, config.NoCacheRuns)
	cold, warmTimes := runBenchmark(config, root, command, []string{"--cache-backend", "sqlite", "--cache-db-connect", cacheFile}, config.CacheRuns)

	noCacheAvg := average(noCacheTimes)
	if cold > 0 {
		// The cold run belongs to the no-cache population as well
		noCacheAvg = average(append(noCacheTimes, cold))
	}
	coldTime := "TIMEOUT"
	if cold > 0 {
		coldTime = fmt.Sprintf("%.3fs", cold)
	}
	warmAvg := average(warmTimes)

	fmt.Printf("  No-cache average: %s, Cold time: %s, Warm average: %s\n", noCacheAvg, coldTime, warmAvg)
	return BenchmarkResult{
		Workspace:   ws,
		Command:     command[0],
		NoCacheTime: noCacheAvg,
		ColdTime:    coldTime,
		WarmTime:    warmAvg,
	}
}

// runBenchmark runs a command numRuns times and returns the first and the remaining durations.
func runBenchmark(config BenchmarkConfig, root string, command, cacheArgs []string, numRuns int) (first float64, rest []float64) {
	args := slices.Concat(command, cacheArgs, []string{
		"--model-dir", filepath.Join(root, "models"),
		"--data-dir", filepath.Join(root, "data"),
		"--output-root", filepath.Join(os.TempDir(), "attrplot_bench_out"),
		"--workers", fmt.Sprint(config.Workers),
		"--output", "json",
		"--output-file", os.DevNull,
	})

	var times []float64
	for range numRuns {
		ctx, cancel := context.WithTimeout(context.Background(), config.Timeout)
		start := time.Now()
		out, err := exec.CommandContext(ctx, "attrplot", args...).CombinedOutput()
		elapsed := time.Since(start).Seconds()
		cancel()
		if err != nil {
			fmt.Printf("  run failed: %v\n%s\n", err, out)
			continue
		}
		times = append(times, elapsed)
	}

	if len(times) > 0 {
		first = times[0]
		rest = times[1:]
	}
	return first, rest
}

func average(times []float64) string {
	if len(times) == 0 {
		return "TIMEOUT"
	}
	var sum float64
	for _, t := range times {
		sum += t
	}
	return fmt.Sprintf("%.3fs", sum/float64(len(times)))
}

// saveResults writes benchmark results to a timestamped CSV file.
func saveResults(results []BenchmarkResult) error {
	filename := filepath.Join(os.TempDir(), fmt.Sprintf("attrplot_benchmark_%s.csv", time.Now().Format("20060102_150405")))

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	writer := csv.NewWriter(file)
	if err := writer.Write([]string{"workspace", "cmd", "no_cache_avg", "cold_time", "warm_avg"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, r := range results {
		if err := writer.Write([]string{r.Workspace, r.Command, r.NoCacheTime, r.ColdTime, r.WarmTime}); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return err
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary displays the results grouped by command.
func printSummary(config BenchmarkConfig, results []BenchmarkResult) {
	fmt.Printf("Benchmark complete\n")
	for _, command := range config.Commands {
		fmt.Printf("%s:\n", command[0])
		for _, r := range results {
			if r.Command == command[0] {
				fmt.Printf("  %-16s: No-cache: %s, Cold: %s, Warm: %s\n", r.Workspace, r.NoCacheTime, r.ColdTime, r.WarmTime)
			}
		}
	}
}
