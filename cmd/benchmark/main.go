// Command benchmark runs the DSPSim kernel harness.
//
// Usage:
//
//	go run ./cmd/benchmark [flags]
//
// Example:
//
//	# Run all kernels with human-readable output
//	go run ./cmd/benchmark
//
//	# Output CSV for spreadsheet comparison
//	go run ./cmd/benchmark --format csv > results.csv
package main

import (
	"fmt"
	"os"

	flags "github.com/jessevdk/go-flags"

	"github.com/sarchlab/dspsim/benchmarks"
	"github.com/sarchlab/dspsim/timing/latency"
)

type config struct {
	Format     string `short:"f" long:"format" default:"text" choice:"text" choice:"csv" choice:"json" description:"Output format"`
	TimingFile string `short:"t" long:"timing" description:"Timing configuration JSON file"`
	DelaySlots bool   `short:"d" long:"delay-slots" description:"Execute the record after each branch as a delay slot"`
	MaxCycles  uint64 `long:"max-cycles" default:"100000" description:"Cycle limit per kernel"`
}

func main() {
	cfg := config{}
	if _, err := flags.Parse(&cfg); err != nil {
		if e, ok := err.(*flags.Error); ok && e.Type == flags.ErrHelp {
			return
		}
		os.Exit(1)
	}

	hc := benchmarks.DefaultConfig()
	hc.MaxCycles = cfg.MaxCycles
	hc.Output = os.Stdout
	if cfg.TimingFile != "" {
		timing, err := latency.LoadConfig(cfg.TimingFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading timing config: %v\n", err)
			os.Exit(1)
		}
		hc.Timing = timing
	}
	if cfg.DelaySlots {
		hc.Timing.DelaySlots = true
	}

	harness := benchmarks.NewHarness(hc)
	harness.AddBenchmarks(benchmarks.GetKernels())
	results := harness.RunAll()

	switch cfg.Format {
	case "csv":
		harness.PrintCSV(results)
	case "json":
		if err := harness.PrintJSON(results); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing report: %v\n", err)
			os.Exit(1)
		}
	default:
		harness.PrintResults(results)
	}

	if benchmarks.Summarize(results).Failed > 0 {
		os.Exit(1)
	}
}
