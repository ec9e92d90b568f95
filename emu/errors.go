package emu

import "errors"

// Fatal execution errors. A step that returns one of these halts the
// emulator.
var (
	ErrOddComplex   = errors.New("complex access at odd index")
	ErrReadOnly     = errors.New("register is read-only")
	ErrBadCondition = errors.New("invalid condition code")
	ErrBadRegister  = errors.New("invalid register")
	ErrBadOption    = errors.New("invalid option")
	ErrBadControl   = errors.New("invalid control field")
	ErrHalted       = errors.New("emulator halted")
	ErrNoProgram    = errors.New("no program loaded")
	ErrUnresolved   = errors.New("program not resolved")
	ErrMaxCycles    = errors.New("max cycles reached")
)
