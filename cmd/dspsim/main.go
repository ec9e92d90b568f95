// Package main provides the entry point for DSPSim.
// DSPSim is an instruction-set simulator for a 12-bit fixed-point DSP core.
package main

import (
	"fmt"
	"io"
	"os"

	flags "github.com/jessevdk/go-flags"
	"github.com/sirupsen/logrus"

	"github.com/sarchlab/dspsim/emu"
	"github.com/sarchlab/dspsim/insts"
	"github.com/sarchlab/dspsim/loader"
	"github.com/sarchlab/dspsim/timing/core"
	"github.com/sarchlab/dspsim/timing/latency"
)

// Exit codes.
const (
	exitOK    = 0
	exitSetup = 1
	exitFatal = 2
)

type config struct {
	Segments   string `short:"s" long:"segments" description:"Segment descriptor JSON file"`
	TimingFile string `short:"t" long:"timing" description:"Timing configuration JSON file"`
	DelaySlots bool   `short:"d" long:"delay-slots" description:"Execute the record after each branch as a delay slot"`

	Preload  string `short:"m" long:"preload" description:"Data memory snapshot loaded at the data base"`
	Dump     string `long:"dump" description:"Write data memory to this file after the run"`
	DumpSize int    `long:"dump-size" default:"256" description:"Number of cells to dump"`

	Iterations int    `short:"n" long:"iterations" default:"1" description:"Run the program this many times"`
	MaxCycles  uint64 `long:"max-cycles" description:"Stop after this many cycles (0 means no limit)"`

	Verbose   []bool `short:"v" long:"verbose" description:"Increase log verbosity (repeatable)"`
	Trace     bool   `long:"trace" description:"Log every executed record"`
	Disasm    bool   `long:"disasm" description:"Print the program listing and exit"`
	DumpState bool   `long:"dump-state" description:"Print the machine state after the run"`
	Cache     bool   `long:"cache" description:"Report program and data cache behaviour"`

	Args struct {
		Program string `positional-arg-name:"program" description:"Program image, one 40-bit word per line"`
	} `positional-args:"yes" required:"yes"`
}

func main() {
	cfg := config{}
	parser := flags.NewParser(&cfg, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if e, ok := err.(*flags.Error); ok && e.Type == flags.ErrHelp {
			os.Exit(exitOK)
		}
		os.Exit(exitSetup)
	}

	os.Exit(run(&cfg, os.Stdout, os.Stderr))
}

func newLogger(cfg *config, w io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(w)
	logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})

	switch {
	case cfg.Trace || len(cfg.Verbose) >= 2:
		logger.SetLevel(logrus.DebugLevel)
	case len(cfg.Verbose) == 1:
		logger.SetLevel(logrus.InfoLevel)
	default:
		logger.SetLevel(logrus.WarnLevel)
	}
	return logger
}

func loadSegments(cfg *config) (loader.Segments, error) {
	if cfg.Segments == "" {
		return loader.DefaultSegments(), nil
	}
	return loader.LoadSegments(cfg.Segments)
}

func loadTiming(cfg *config) (*latency.TimingConfig, error) {
	timing := latency.DefaultTimingConfig()
	if cfg.TimingFile != "" {
		var err error
		timing, err = latency.LoadConfig(cfg.TimingFile)
		if err != nil {
			return nil, err
		}
	}

	if cfg.DelaySlots {
		timing.DelaySlots = true
	}
	if err := timing.Validate(); err != nil {
		return nil, fmt.Errorf("invalid timing config: %w", err)
	}
	return timing, nil
}

// setup loads everything the run needs and returns the program with its
// segments and timing.
func setup(cfg *config) (*insts.Program, loader.Segments, *latency.TimingConfig, error) {
	seg, err := loadSegments(cfg)
	if err != nil {
		return nil, seg, nil, err
	}

	timing, err := loadTiming(cfg)
	if err != nil {
		return nil, seg, nil, err
	}

	prog, err := loader.LoadProgram(cfg.Args.Program, seg, timing.ResolveOptions())
	if err != nil {
		return nil, seg, nil, err
	}
	return prog, seg, timing, nil
}

func preload(cfg *config, mem *emu.Memory, base uint16) error {
	if cfg.Preload == "" {
		return nil
	}

	f, err := os.Open(cfg.Preload)
	if err != nil {
		return fmt.Errorf("failed to open memory snapshot: %w", err)
	}
	defer func() { _ = f.Close() }()

	_, err = loader.PreloadMemory(f, mem, base)
	return err
}

func dump(cfg *config, mem *emu.Memory, base uint16) error {
	if cfg.Dump == "" {
		return nil
	}

	f, err := os.Create(cfg.Dump)
	if err != nil {
		return fmt.Errorf("failed to create memory dump: %w", err)
	}

	if err := loader.DumpMemory(f, mem, base, cfg.DumpSize); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// run executes the simulator and returns the process exit code.
func run(cfg *config, stdout, stderr io.Writer) int {
	logger := newLogger(cfg, stderr)

	prog, seg, timing, err := setup(cfg)
	if err != nil {
		logger.Errorf("%v", err)
		return exitSetup
	}

	if cfg.Disasm {
		writeListing(stdout, prog)
		return exitOK
	}

	c := core.NewCore(core.DefaultConfig(),
		emu.WithLogger(logger),
		emu.WithTrace(cfg.Trace),
		emu.WithMaxCycles(cfg.MaxCycles),
		emu.WithIterations(cfg.Iterations),
		seg.EmulatorOption(),
	)
	e := c.Emulator

	if err := preload(cfg, e.Memory(), seg.DataBase); err != nil {
		logger.Errorf("%v", err)
		return exitSetup
	}
	c.ResetCacheStats()

	if err := c.LoadProgram(prog); err != nil {
		logger.Errorf("%v", err)
		return exitSetup
	}

	logger.WithFields(logrus.Fields{
		"program": cfg.Args.Program,
		"records": prog.Len(),
	}).Info("running")

	code := exitOK
	runErr := c.Run()
	if runErr != nil {
		logger.Errorf("run stopped: %v", runErr)
		code = exitFatal
	}

	writeStats(stdout, c.Stats(), e.Stats())
	if cfg.Cache {
		writeCacheStats(stdout, c.Stats())
	}
	if len(cfg.Verbose) > 0 {
		writeSummary(stdout, latency.NewTableWithConfig(timing).Summarize(prog))
	}
	if cfg.DumpState {
		writeState(stdout, e)
	}

	if err := dump(cfg, e.Memory(), seg.DataBase); err != nil {
		logger.Errorf("%v", err)
		return exitSetup
	}

	return code
}
