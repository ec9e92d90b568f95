package insts

import "fmt"

// Op represents a symbolic opcode.
type Op uint16

// Opcodes.
const (
	OpInvalid Op = iota

	// Control
	OpNOP
	OpIDLE
	OpJUMP
	OpCALL
	OpRTS
	OpRTI
	OpDO
	OpPUSHPOP
	OpMODE
	OpSETINT
	OpCLRINT
	OpCLRSTAT
	OpMODIFY

	// Moves
	OpLDI
	OpRDUREG // Rd = ureg
	OpWRUREG // ureg = Rs
	OpCOPY
	OpLOAD
	OpSTORE

	// ALU
	OpADD
	OpADDC
	OpSUB
	OpSUBC
	OpSUBB
	OpSUBBC
	OpAND
	OpOR
	OpXOR
	OpNOT
	OpABS
	OpINC
	OpDEC
	OpTSTBIT
	OpSETBIT
	OpCLRBIT
	OpTGLBIT
	OpSCR

	// Multiplier
	OpMPY
	OpMAC
	OpMAS
	OpRND
	OpSAT
	OpCLRACC

	// Shifter
	OpASHIFT
	OpASHIFTOR
	OpLSHIFT
	OpLSHIFTOR
	OpEXP

	// CORDIC
	OpRECT
	OpPOLAR

	numOps
)

var opNames = [numOps]string{
	OpInvalid:  "INVALID",
	OpNOP:      "NOP",
	OpIDLE:     "IDLE",
	OpJUMP:     "JUMP",
	OpCALL:     "CALL",
	OpRTS:      "RTS",
	OpRTI:      "RTI",
	OpDO:       "DO",
	OpPUSHPOP:  "PUSH/POP",
	OpMODE:     "MODE",
	OpSETINT:   "SETINT",
	OpCLRINT:   "CLRINT",
	OpCLRSTAT:  "CLRSTAT",
	OpMODIFY:   "MODIFY",
	OpLDI:      "LD",
	OpRDUREG:   "RDUREG",
	OpWRUREG:   "WRUREG",
	OpCOPY:     "COPY",
	OpLOAD:     "LOAD",
	OpSTORE:    "STORE",
	OpADD:      "ADD",
	OpADDC:     "ADDC",
	OpSUB:      "SUB",
	OpSUBC:     "SUBC",
	OpSUBB:     "SUBB",
	OpSUBBC:    "SUBBC",
	OpAND:      "AND",
	OpOR:       "OR",
	OpXOR:      "XOR",
	OpNOT:      "NOT",
	OpABS:      "ABS",
	OpINC:      "INC",
	OpDEC:      "DEC",
	OpTSTBIT:   "TSTBIT",
	OpSETBIT:   "SETBIT",
	OpCLRBIT:   "CLRBIT",
	OpTGLBIT:   "TGLBIT",
	OpSCR:      "SCR",
	OpMPY:      "MPY",
	OpMAC:      "MAC",
	OpMAS:      "MAS",
	OpRND:      "RND",
	OpSAT:      "SAT",
	OpCLRACC:   "CLR",
	OpASHIFT:   "ASHIFT",
	OpASHIFTOR: "ASHIFTOR",
	OpLSHIFT:   "LSHIFT",
	OpLSHIFTOR: "LSHIFTOR",
	OpEXP:      "EXP",
	OpRECT:     "RECT",
	OpPOLAR:    "POLAR",
}

func (op Op) String() string {
	if op < numOps {
		return opNames[op]
	}
	return fmt.Sprintf("Op(%d)", uint16(op))
}

// IsBranch reports whether the opcode changes control flow through the
// return-address machinery.
func (op Op) IsBranch() bool {
	switch op {
	case OpJUMP, OpCALL, OpRTS, OpRTI:
		return true
	}
	return false
}

// Cond represents a condition code.
type Cond uint8

// Condition codes. Codes 0-15 test the real lane, 16-29 the imaginary (I*)
// and combined complex (C*) lanes.
const (
	CondEQ Cond = iota
	CondNE
	CondGT
	CondLE
	CondLT
	CondGE
	CondAV
	CondNotAV
	CondAC
	CondNotAC
	CondSV
	CondNotSV
	CondMV
	CondNotMV
	CondNotCE // counter not expired; decrements the counter
	CondTrue

	CondIEQ
	CondINE
	CondIGT
	CondILE
	CondILT
	CondIGE
	CondIAV
	CondNotIAV
	CondIAC
	CondNotIAC
	CondCEQ
	CondCNE
	CondCAV
	CondNotCAV

	numConds
)

var condNames = [numConds]string{
	"EQ", "NE", "GT", "LE", "LT", "GE", "AV", "NOT AV",
	"AC", "NOT AC", "SV", "NOT SV", "MV", "NOT MV", "NOT CE", "TRUE",
	"IEQ", "INE", "IGT", "ILE", "ILT", "IGE", "IAV", "NOT IAV",
	"IAC", "NOT IAC", "CEQ", "CNE", "CAV", "NOT CAV",
}

func (c Cond) String() string {
	if c < numConds {
		return condNames[c]
	}
	return fmt.Sprintf("Cond(%d)", uint8(c))
}

// Valid reports whether the condition code is defined.
func (c Cond) Valid() bool {
	return c < numConds
}
