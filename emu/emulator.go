package emu

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/dspsim/insts"
)

// StepResult represents the result of executing a single record.
type StepResult struct {
	// Halted is true once the program finished, executed IDLE, or failed.
	Halted bool

	// Err is set if a fatal error occurred during execution.
	Err error
}

// FetchObserver is notified of every program memory fetch.
type FetchObserver interface {
	Fetch(pma uint16)
}

// Stats summarizes a run.
type Stats struct {
	Cycles         uint64
	Instructions   uint64
	OverflowCount  uint64
	Warnings       uint64
	Iterations     int
	StackOverflows int
}

// Emulator executes decoded programs functionally.
type Emulator struct {
	regFile  *RegFile
	memory   *Memory
	messages *MessageBuffer
	logger   *logrus.Logger

	// Execution units
	alu     *ALU
	mac     *MAC
	shifter *Shifter
	cordic  *CORDIC
	dag     *DAG
	control *ControlUnit

	prog *insts.Program
	pc   int

	fetchObserver FetchObserver
	trace         bool

	// Execution state
	cycles       uint64
	instructions uint64
	iteration    int
	iterations   int
	maxCycles    uint64 // 0 means no limit
	halted       bool
	haltErr      error
}

// EmulatorOption is a functional option for configuring the Emulator.
type EmulatorOption func(*Emulator)

// WithLogger sets the logger messages and traces are written to.
func WithLogger(logger *logrus.Logger) EmulatorOption {
	return func(e *Emulator) {
		e.logger = logger
	}
}

// WithMaxCycles sets the cycle limit for Run. A value of 0 means no limit.
func WithMaxCycles(max uint64) EmulatorOption {
	return func(e *Emulator) {
		e.maxCycles = max
	}
}

// WithIterations runs the program n times, keeping machine state between
// runs.
func WithIterations(n int) EmulatorOption {
	return func(e *Emulator) {
		e.iterations = max(n, 1)
	}
}

// WithDataWindow restricts data memory to [base, base+size).
func WithDataWindow(base uint16, size uint32) EmulatorOption {
	return func(e *Emulator) {
		e.memory.SetWindow(base, size)
	}
}

// WithFetchObserver registers an observer of program memory fetches.
func WithFetchObserver(o FetchObserver) EmulatorOption {
	return func(e *Emulator) {
		e.fetchObserver = o
	}
}

// WithDataObserver registers an observer of data memory accesses.
func WithDataObserver(o AccessObserver) EmulatorOption {
	return func(e *Emulator) {
		e.memory.SetObserver(o)
	}
}

// WithTrace logs every executed record at debug level.
func WithTrace(on bool) EmulatorOption {
	return func(e *Emulator) {
		e.trace = on
	}
}

// NewEmulator creates a new emulator.
func NewEmulator(opts ...EmulatorOption) *Emulator {
	quiet := logrus.New()
	quiet.SetOutput(io.Discard)

	e := &Emulator{
		regFile:    NewRegFile(),
		memory:     NewMemory(),
		logger:     quiet,
		iterations: 1,
	}

	for _, opt := range opts {
		opt(e)
	}

	e.messages = NewMessageBuffer(e.logger)
	e.memory.SetReporter(e.messages)

	e.alu = NewALU(e.regFile)
	e.mac = NewMAC(e.regFile)
	e.shifter = NewShifter(e.regFile)
	e.cordic = NewCORDIC()
	e.dag = NewDAG(e.regFile)
	e.control = NewControlUnit(e.regFile, e.messages)

	return e
}

// RegFile returns the emulator's register file.
func (e *Emulator) RegFile() *RegFile {
	return e.regFile
}

// Memory returns the emulator's data memory.
func (e *Emulator) Memory() *Memory {
	return e.memory
}

// Messages returns the emulator's message buffer.
func (e *Emulator) Messages() *MessageBuffer {
	return e.messages
}

// Program returns the loaded program.
func (e *Emulator) Program() *insts.Program {
	return e.prog
}

// LoadProgram attaches a resolved program and positions execution at its
// first record.
func (e *Emulator) LoadProgram(prog *insts.Program) error {
	if !prog.Resolved() {
		return ErrUnresolved
	}

	e.prog = prog
	e.pc = 0
	e.iteration = 0
	e.halted = prog.Len() == 0
	e.haltErr = nil
	e.control.SetProgram(prog, prog.DelaySlots())
	return nil
}

// PMA returns the program memory address of the next record.
func (e *Emulator) PMA() uint16 {
	if e.prog == nil {
		return 0
	}
	return e.prog.PMAOf(e.pc)
}

// Halted reports whether the emulator stopped.
func (e *Emulator) Halted() bool {
	return e.halted
}

// Cycles returns the cycle counter.
func (e *Emulator) Cycles() uint64 {
	return e.cycles
}

// Stats returns the run statistics.
func (e *Emulator) Stats() Stats {
	return Stats{
		Cycles:         e.cycles,
		Instructions:   e.instructions,
		OverflowCount:  e.regFile.OverflowCount(),
		Warnings:       e.messages.Warnings(),
		Iterations:     e.iteration,
		StackOverflows: e.regFile.Stacks.Overflows(),
	}
}

// Reset clears machine state and rewinds the loaded program.
func (e *Emulator) Reset() {
	e.regFile.Reset()
	e.memory.Reset()
	e.cycles = 0
	e.instructions = 0
	if e.prog != nil {
		_ = e.LoadProgram(e.prog)
	}
}

// Step executes exactly one record.
func (e *Emulator) Step() StepResult {
	if e.prog == nil {
		return StepResult{Err: ErrNoProgram}
	}
	if e.halted {
		return StepResult{Halted: true, Err: e.haltErr}
	}

	idx := e.pc
	inst := e.prog.At(idx)
	if e.fetchObserver != nil {
		e.fetchObserver.Fetch(inst.PMA)
	}

	e.regFile.SetCycle(e.cycles)
	e.control.BeginStep()

	idle, err := e.execute(inst)
	if err != nil {
		return e.fail(inst, err)
	}

	e.regFile.TickTimer(inst.Latency)
	e.cycles += inst.Latency
	e.instructions++

	next, err := e.control.Next(inst, idx)
	if err != nil {
		return e.fail(inst, err)
	}

	e.traceStep(inst)
	e.flush(inst)

	if idle {
		e.halted = true
		return StepResult{Halted: true}
	}

	e.advance(next)
	return StepResult{Halted: e.halted}
}

// advance moves to store index next. Running off the end of the program
// starts the next iteration or halts.
func (e *Emulator) advance(next int) {
	if next < e.prog.Len() {
		e.pc = next
		return
	}

	e.iteration++
	if e.iteration < e.iterations {
		e.pc = 0
		e.control.ResetFlow()
		return
	}

	e.pc = e.prog.Len()
	e.halted = true
}

func (e *Emulator) fail(inst *insts.Instruction, err error) StepResult {
	err = fmt.Errorf("PMA 0x%04X (%s): %w", inst.PMA, inst.Type, err)
	e.messages.Fatal("%v", err)
	e.flush(inst)

	e.halted = true
	e.haltErr = err
	return StepResult{Halted: true, Err: err}
}

func (e *Emulator) fields(inst *insts.Instruction) logrus.Fields {
	return logrus.Fields{
		"pma":   fmt.Sprintf("0x%04X", inst.PMA),
		"cycle": e.cycles,
	}
}

func (e *Emulator) flush(inst *insts.Instruction) {
	e.messages.Flush(e.fields(inst))
}

func (e *Emulator) traceStep(inst *insts.Instruction) {
	if !e.trace {
		return
	}
	e.logger.WithFields(e.fields(inst)).WithFields(logrus.Fields{
		"type": inst.Type.String(),
		"op":   insts.Disassemble(inst).OpText(),
	}).Debug("step")
}

// Run executes records until the program halts, fails, or reaches the
// cycle limit.
func (e *Emulator) Run() error {
	for {
		if e.maxCycles > 0 && e.cycles >= e.maxCycles {
			return ErrMaxCycles
		}

		result := e.Step()
		if result.Err != nil {
			return result.Err
		}
		if result.Halted {
			return nil
		}
	}
}
