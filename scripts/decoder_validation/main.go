// Validate the decoder - checks that every format decodes back to its own
// type and measures decode throughput and allocations.
package main

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/sarchlab/dspsim/insts"
)

func main() {
	decoder := insts.NewDecoder()

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("Formats")
	t.AppendHeader(table.Row{"Type", "Prefix", "Fields", "Used bits", "Decodes"})

	words := make([]insts.Word, 0, len(insts.Formats()))
	failures := 0
	for _, f := range insts.Formats() {
		w := insts.MustEncode(f.Type, insts.Fields{})
		words = append(words, w)

		status := "ok"
		inst, err := decoder.Decode(w)
		switch {
		case err != nil:
			status = err.Error()
			failures++
		case inst.Type != f.Type:
			status = fmt.Sprintf("as %s", inst.Type)
			failures++
		}
		t.AppendRow(table.Row{f.Name, f.Prefix, len(f.Fields), f.Used(), status})
	}
	t.Render()

	// Warm up
	for i := 0; i < 1000; i++ {
		_, _ = decoder.Decode(words[i%len(words)])
	}

	runtime.GC()
	var m1, m2 runtime.MemStats
	runtime.ReadMemStats(&m1)

	start := time.Now()
	iterations := 100000
	for i := 0; i < iterations; i++ {
		for _, w := range words {
			_, _ = decoder.Decode(w)
		}
	}

	elapsed := time.Since(start)
	runtime.ReadMemStats(&m2)

	totalDecodes := iterations * len(words)
	allocations := m2.Mallocs - m1.Mallocs
	allocatedBytes := m2.TotalAlloc - m1.TotalAlloc

	fmt.Printf("\nDecoder Validation Results:\n")
	fmt.Printf("===========================\n")
	fmt.Printf("Formats checked: %d (%d failures)\n", len(words), failures)
	fmt.Printf("Total decode operations: %d\n", totalDecodes)
	fmt.Printf("Time elapsed: %v\n", elapsed)
	fmt.Printf("Decodes per second: %.0f\n", float64(totalDecodes)/elapsed.Seconds())
	fmt.Printf("Allocations per decode: %.3f\n", float64(allocations)/float64(totalDecodes))
	fmt.Printf("Bytes per decode: %.1f\n", float64(allocatedBytes)/float64(totalDecodes))

	if failures > 0 {
		os.Exit(1)
	}
}
