// Package main provides the entry point for DSPSim.
// DSPSim is an instruction-set simulator for a 12-bit fixed-point DSP core.
//
// For the full CLI, use: go run ./cmd/dspsim
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("DSPSim - fixed-point DSP instruction-set simulator")
	fmt.Println("")
	fmt.Println("Usage: dspsim [options] <program.txt>")
	fmt.Println("")
	fmt.Println("Options:")
	fmt.Println("  -s, --segments     Segment descriptor JSON file")
	fmt.Println("  -t, --timing       Timing configuration JSON file")
	fmt.Println("  -d, --delay-slots  Execute the record after each branch as a delay slot")
	fmt.Println("  -m, --preload      Data memory snapshot loaded at the data base")
	fmt.Println("      --dump         Write data memory to a file after the run")
	fmt.Println("  -n, --iterations   Run the program this many times")
	fmt.Println("      --disasm       Print the program listing and exit")
	fmt.Println("      --cache        Report program and data cache behaviour")
	fmt.Println("  -v, --verbose      Increase log verbosity")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/dspsim --help' for the full CLI.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/dspsim' instead.")
	}
}
