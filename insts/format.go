package insts

import "fmt"

// InstLen is the width of an instruction word in bits.
const InstLen = 40

// maxPrefixLen is the longest type prefix in the format table. Decoding uses
// a lookup table indexed by the top maxPrefixLen bits of the word.
const maxPrefixLen = 8

// Word holds one InstLen-bit instruction word in its low bits.
type Word uint64

// WordMask selects the InstLen valid bits of a Word.
const WordMask Word = (1 << InstLen) - 1

// Bits renders the word as an InstLen-character binary string, MSB first.
func (w Word) Bits() string {
	return fmt.Sprintf("%0*b", InstLen, uint64(w&WordMask))
}

// Type identifies an instruction type: a distinct bit-field layout.
type Type uint8

// Instruction types.
const (
	TypeUnknown Type = iota

	// Control
	TypeNOP
	TypeIdle
	TypeBranchAbs
	TypeBranchInd
	TypeBranchRel
	TypeReturn
	TypeDo
	TypeDoCount
	TypeStack
	TypeMode
	TypeInt
	TypeClrStat
	TypeModify
	TypeModifyImm

	// Immediate loads
	TypeLDImm
	TypeLDImmC
	TypeLDImmU
	TypeLDImmAcc
	TypeLDImmAccC

	// Register transfers and data memory
	TypeMove
	TypeCopy
	TypeCopyC
	TypeMem
	TypeMemC
	TypeMemDir
	TypeMemDirC
	TypeMemOff

	// ALU
	TypeALU
	TypeALUC
	TypeALUImm
	TypeALUImmC
	TypeALUBit
	TypeALUBitC
	TypeALUAcc
	TypeALUAccC

	// Multiplier
	TypeMAC
	TypeMACC
	TypeMACRC
	TypeMACImm
	TypeAccOp

	// Shifter
	TypeShift
	TypeShiftImm
	TypeShiftC
	TypeShiftImmC
	TypeExp

	// CORDIC
	TypeCordic

	// Multi-function
	TypeMFALUMem
	TypeMFALUMemC
	TypeMFALUCopy
	TypeMFMACMem
	TypeMFMACMemC
	TypeMFShiftMem
	TypeMFMACLdLd

	numTypes
)

// Field identifies the semantic role of a bit field.
type Field uint8

// Instruction fields.
const (
	FieldNone Field = iota
	FieldSel        // format selector (opcode within the type)
	FieldCond
	FieldConj
	FieldDReg
	FieldSReg0
	FieldSReg1
	FieldAcc
	FieldSAcc0
	FieldSAcc1
	FieldUReg
	FieldIReg
	FieldMReg
	FieldImm
	FieldAddr
	FieldOpt
	FieldPreMod
	FieldTerm
	FieldLoopCtl
	FieldPCCtl
	FieldStsCtl
	FieldModeSat
	FieldModeAVL
	FieldModeFrac
	FieldModeBias
	FieldModeCirc
	FieldModeBrev
	FieldModeTimer
	FieldModeSec
	FieldFlags
	FieldLane
	FieldDir2
	FieldDReg2
	FieldIReg2
	FieldMReg2
	FieldSReg2
	FieldDReg3
	FieldIReg3
	FieldMReg3

	numFields
)

var fieldNames = [numFields]string{
	FieldNone:      "NONE",
	FieldSel:       "SEL",
	FieldCond:      "COND",
	FieldConj:      "CONJ",
	FieldDReg:      "DREG",
	FieldSReg0:     "SREG0",
	FieldSReg1:     "SREG1",
	FieldAcc:       "ACC",
	FieldSAcc0:     "SACC0",
	FieldSAcc1:     "SACC1",
	FieldUReg:      "UREG",
	FieldIReg:      "IREG",
	FieldMReg:      "MREG",
	FieldImm:       "IMM",
	FieldAddr:      "ADDR",
	FieldOpt:       "OPT",
	FieldPreMod:    "PREMOD",
	FieldTerm:      "TERM",
	FieldLoopCtl:   "LOOPCTL",
	FieldPCCtl:     "PCCTL",
	FieldStsCtl:    "STSCTL",
	FieldModeSat:   "SAT",
	FieldModeAVL:   "AVL",
	FieldModeFrac:  "FRAC",
	FieldModeBias:  "BIAS",
	FieldModeCirc:  "CIRC",
	FieldModeBrev:  "BREV",
	FieldModeTimer: "TIMER",
	FieldModeSec:   "SEC",
	FieldFlags:     "FLAGS",
	FieldLane:      "LANE",
	FieldDir2:      "DIR2",
	FieldDReg2:     "DREG2",
	FieldIReg2:     "IREG2",
	FieldMReg2:     "MREG2",
	FieldSReg2:     "SREG2",
	FieldDReg3:     "DREG3",
	FieldIReg3:     "IREG3",
	FieldMReg3:     "MREG3",
}

func (f Field) String() string {
	if f < numFields {
		return fieldNames[f]
	}
	return fmt.Sprintf("Field(%d)", uint8(f))
}

// FieldSpec is one entry of a type's layout.
type FieldSpec struct {
	Field Field
	Width uint8
}

// SlotSpec describes one parallel slot of a multi-function type. When Sel is
// FieldNone the slot always resolves to Ops[0].
type SlotSpec struct {
	Sel Field
	Ops []Op
}

// Format is one entry of the instruction format table.
type Format struct {
	Type   Type
	Name   string
	Prefix string // MSB-first bit pattern identifying the type
	Fields []FieldSpec
	Imm    ImmClass // class of FieldImm, ImmNone if the type has no immediate
	Ops    []Op     // primary opcode by FieldSel value, or the single opcode
	Slots  []SlotSpec
	MemRef bool // the type references data memory

	prefixVal uint64
	layout    map[Field]fieldPos
}

type fieldPos struct {
	shift uint8
	width uint8
}

// Has reports whether the field is part of this type's layout.
func (f *Format) Has(field Field) bool {
	_, ok := f.layout[field]
	return ok
}

// Width returns the width of a field, or 0 when absent.
func (f *Format) Width(field Field) uint8 {
	return f.layout[field].width
}

// Used returns the number of bits used by the prefix and fields.
func (f *Format) Used() int {
	n := len(f.Prefix)
	for _, fs := range f.Fields {
		n += int(fs.Width)
	}
	return n
}

func fs(f Field, w uint8) FieldSpec { return FieldSpec{Field: f, Width: w} }

var aluOps = []Op{
	OpADD, OpADDC, OpSUB, OpSUBC, OpSUBB, OpSUBBC,
	OpAND, OpOR, OpXOR, OpNOT, OpABS, OpINC, OpDEC, OpSCR,
}

var bitOps = []Op{OpTSTBIT, OpSETBIT, OpCLRBIT, OpTGLBIT}

var macOps = []Op{OpMPY, OpMAC, OpMAS}

var shiftOps = []Op{OpASHIFT, OpASHIFTOR, OpLSHIFT, OpLSHIFTOR}

var memSlot = SlotSpec{Sel: FieldDir2, Ops: []Op{OpLOAD, OpSTORE}}

var formatTable = []*Format{
	{Type: TypeNOP, Name: "NOP", Prefix: "00000000", Ops: []Op{OpNOP}},
	{Type: TypeIdle, Name: "IDLE", Prefix: "00000001", Ops: []Op{OpIDLE}},
	{
		Type: TypeBranchAbs, Name: "BRANCH_ABS", Prefix: "0000001",
		Fields: []FieldSpec{fs(FieldSel, 1), fs(FieldCond, 5), fs(FieldAddr, 16)},
		Ops:    []Op{OpJUMP, OpCALL},
	},
	{
		Type: TypeBranchInd, Name: "BRANCH_IND", Prefix: "00000100",
		Fields: []FieldSpec{fs(FieldSel, 1), fs(FieldCond, 5), fs(FieldIReg, 3)},
		Ops:    []Op{OpJUMP, OpCALL},
	},
	{
		Type: TypeBranchRel, Name: "BRANCH_REL", Prefix: "00000101",
		Fields: []FieldSpec{fs(FieldSel, 1), fs(FieldCond, 5), fs(FieldImm, 13)},
		Imm:    ImmS13,
		Ops:    []Op{OpJUMP, OpCALL},
	},
	{
		Type: TypeReturn, Name: "RETURN", Prefix: "00000110",
		Fields: []FieldSpec{fs(FieldSel, 1), fs(FieldCond, 5)},
		Ops:    []Op{OpRTS, OpRTI},
	},
	{
		Type: TypeDo, Name: "DO", Prefix: "00000111",
		Fields: []FieldSpec{fs(FieldTerm, 1), fs(FieldAddr, 16)},
		Ops:    []Op{OpDO},
	},
	{
		Type: TypeDoCount, Name: "DO_COUNT", Prefix: "0000100",
		Fields: []FieldSpec{fs(FieldImm, 12), fs(FieldAddr, 16)},
		Imm:    ImmU12,
		Ops:    []Op{OpDO},
	},
	{
		Type: TypeStack, Name: "STACK", Prefix: "00001010",
		Fields: []FieldSpec{fs(FieldLoopCtl, 2), fs(FieldPCCtl, 2), fs(FieldStsCtl, 2)},
		Ops:    []Op{OpPUSHPOP},
	},
	{
		Type: TypeMode, Name: "MODE", Prefix: "00001011",
		Fields: []FieldSpec{
			fs(FieldModeSat, 2), fs(FieldModeAVL, 2), fs(FieldModeFrac, 2), fs(FieldModeBias, 2),
			fs(FieldModeCirc, 2), fs(FieldModeBrev, 2), fs(FieldModeTimer, 2), fs(FieldModeSec, 2),
		},
		Ops: []Op{OpMODE},
	},
	{
		Type: TypeInt, Name: "INT", Prefix: "00001100",
		Fields: []FieldSpec{fs(FieldSel, 1), fs(FieldImm, 4)},
		Imm:    ImmU4,
		Ops:    []Op{OpSETINT, OpCLRINT},
	},
	{
		Type: TypeClrStat, Name: "CLRSTAT", Prefix: "00001101",
		Fields: []FieldSpec{fs(FieldLane, 2), fs(FieldFlags, 9)},
		Ops:    []Op{OpCLRSTAT},
	},
	{
		Type: TypeModify, Name: "MODIFY", Prefix: "00001110",
		Fields: []FieldSpec{fs(FieldIReg, 3), fs(FieldMReg, 3)},
		Ops:    []Op{OpMODIFY},
	},
	{
		Type: TypeModifyImm, Name: "MODIFY_IMM", Prefix: "00001111",
		Fields: []FieldSpec{fs(FieldIReg, 3), fs(FieldImm, 8)},
		Imm:    ImmS8,
		Ops:    []Op{OpMODIFY},
	},
	{
		Type: TypeLDImm, Name: "LD_IMM", Prefix: "0001000",
		Fields: []FieldSpec{fs(FieldDReg, 5), fs(FieldImm, 12)},
		Imm:    ImmS12,
		Ops:    []Op{OpLDI},
	},
	{
		Type: TypeLDImmC, Name: "LD_IMM_C", Prefix: "0001001",
		Fields: []FieldSpec{fs(FieldDReg, 5), fs(FieldImm, 24)},
		Imm:    ImmC24,
		Ops:    []Op{OpLDI},
	},
	{
		Type: TypeLDImmU, Name: "LD_IMM_U", Prefix: "0001010",
		Fields: []FieldSpec{fs(FieldUReg, 8), fs(FieldImm, 16)},
		Imm:    ImmU16,
		Ops:    []Op{OpLDI},
	},
	{
		Type: TypeLDImmAcc, Name: "LD_IMM_ACC", Prefix: "0001011",
		Fields: []FieldSpec{fs(FieldAcc, 3), fs(FieldImm, 24)},
		Imm:    ImmS24,
		Ops:    []Op{OpLDI},
	},
	{
		Type: TypeLDImmAccC, Name: "LD_IMM_ACC_C", Prefix: "00011",
		Fields: []FieldSpec{fs(FieldAcc, 3), fs(FieldImm, 32)},
		Imm:    ImmC32,
		Ops:    []Op{OpLDI},
	},
	{
		Type: TypeMove, Name: "MOVE", Prefix: "00100000",
		Fields: []FieldSpec{fs(FieldSel, 1), fs(FieldCond, 5), fs(FieldUReg, 8), fs(FieldDReg, 5)},
		Ops:    []Op{OpRDUREG, OpWRUREG},
	},
	{
		Type: TypeCopyC, Name: "COPY_C", Prefix: "00100001",
		Fields: []FieldSpec{fs(FieldCond, 5), fs(FieldDReg, 5), fs(FieldSReg0, 5), fs(FieldConj, 1)},
		Ops:    []Op{OpCOPY},
	},
	{
		Type: TypeMem, Name: "MEM", Prefix: "00100010",
		Fields: []FieldSpec{
			fs(FieldSel, 1), fs(FieldPreMod, 1), fs(FieldCond, 5),
			fs(FieldDReg, 5), fs(FieldIReg, 3), fs(FieldMReg, 3),
		},
		Ops:    []Op{OpLOAD, OpSTORE},
		MemRef: true,
	},
	{
		Type: TypeMemC, Name: "MEM_C", Prefix: "00100011",
		Fields: []FieldSpec{
			fs(FieldSel, 1), fs(FieldPreMod, 1), fs(FieldCond, 5),
			fs(FieldDReg, 5), fs(FieldIReg, 3), fs(FieldMReg, 3),
		},
		Ops:    []Op{OpLOAD, OpSTORE},
		MemRef: true,
	},
	{
		Type: TypeMemDir, Name: "MEM_DIR", Prefix: "00100100",
		Fields: []FieldSpec{fs(FieldSel, 1), fs(FieldCond, 5), fs(FieldDReg, 5), fs(FieldAddr, 16)},
		Ops:    []Op{OpLOAD, OpSTORE},
		MemRef: true,
	},
	{
		Type: TypeMemOff, Name: "MEM_OFF", Prefix: "00100101",
		Fields: []FieldSpec{
			fs(FieldSel, 1), fs(FieldCond, 5), fs(FieldDReg, 5), fs(FieldIReg, 3), fs(FieldImm, 8),
		},
		Imm:    ImmS8,
		Ops:    []Op{OpLOAD, OpSTORE},
		MemRef: true,
	},
	{
		Type: TypeMemDirC, Name: "MEM_DIR_C", Prefix: "00100110",
		Fields: []FieldSpec{fs(FieldSel, 1), fs(FieldCond, 5), fs(FieldDReg, 5), fs(FieldAddr, 16)},
		Ops:    []Op{OpLOAD, OpSTORE},
		MemRef: true,
	},
	{
		Type: TypeCopy, Name: "COPY", Prefix: "00100111",
		Fields: []FieldSpec{fs(FieldCond, 5), fs(FieldDReg, 5), fs(FieldSReg0, 5)},
		Ops:    []Op{OpCOPY},
	},
	{
		Type: TypeALU, Name: "ALU", Prefix: "0100",
		Fields: []FieldSpec{
			fs(FieldSel, 5), fs(FieldCond, 5), fs(FieldDReg, 5), fs(FieldSReg0, 5), fs(FieldSReg1, 5),
		},
		Ops: aluOps,
	},
	{
		Type: TypeALUC, Name: "ALU_C", Prefix: "0101",
		Fields: []FieldSpec{
			fs(FieldSel, 5), fs(FieldCond, 5), fs(FieldDReg, 5), fs(FieldSReg0, 5), fs(FieldSReg1, 5),
			fs(FieldConj, 1),
		},
		Ops: aluOps,
	},
	{
		Type: TypeALUImm, Name: "ALU_IMM", Prefix: "0110",
		Fields: []FieldSpec{
			fs(FieldSel, 5), fs(FieldCond, 5), fs(FieldDReg, 5), fs(FieldSReg0, 5), fs(FieldImm, 12),
		},
		Imm: ImmS12,
		Ops: aluOps,
	},
	{
		Type: TypeALUImmC, Name: "ALU_IMM_C", Prefix: "01110",
		Fields: []FieldSpec{
			fs(FieldSel, 5), fs(FieldCond, 5), fs(FieldDReg, 5), fs(FieldSReg0, 5), fs(FieldImm, 8),
			fs(FieldConj, 1),
		},
		Imm: ImmC8,
		Ops: aluOps,
	},
	{
		Type: TypeALUBit, Name: "ALU_BIT", Prefix: "01111000",
		Fields: []FieldSpec{
			fs(FieldSel, 2), fs(FieldCond, 5), fs(FieldDReg, 5), fs(FieldSReg0, 5), fs(FieldImm, 4),
		},
		Imm: ImmU4,
		Ops: bitOps,
	},
	{
		Type: TypeALUAcc, Name: "ALU_ACC", Prefix: "01111001",
		Fields: []FieldSpec{
			fs(FieldSel, 1), fs(FieldCond, 5), fs(FieldAcc, 3), fs(FieldSAcc0, 3), fs(FieldSAcc1, 3),
		},
		Ops: []Op{OpADD, OpSUB},
	},
	{
		Type: TypeALUAccC, Name: "ALU_ACC_C", Prefix: "01111010",
		Fields: []FieldSpec{
			fs(FieldSel, 1), fs(FieldCond, 5), fs(FieldAcc, 3), fs(FieldSAcc0, 3), fs(FieldSAcc1, 3),
		},
		Ops: []Op{OpADD, OpSUB},
	},
	{
		Type: TypeALUBitC, Name: "ALU_BIT_C", Prefix: "01111011",
		Fields: []FieldSpec{
			fs(FieldSel, 2), fs(FieldCond, 5), fs(FieldDReg, 5), fs(FieldSReg0, 5), fs(FieldImm, 4),
		},
		Imm: ImmU4,
		Ops: bitOps,
	},
	{
		Type: TypeMAC, Name: "MAC", Prefix: "1000",
		Fields: []FieldSpec{
			fs(FieldSel, 2), fs(FieldOpt, 3), fs(FieldCond, 5), fs(FieldAcc, 3),
			fs(FieldSReg0, 5), fs(FieldSReg1, 5),
		},
		Ops: macOps,
	},
	{
		Type: TypeMACC, Name: "MAC_C", Prefix: "1001",
		Fields: []FieldSpec{
			fs(FieldSel, 2), fs(FieldOpt, 3), fs(FieldCond, 5), fs(FieldAcc, 3),
			fs(FieldSReg0, 5), fs(FieldSReg1, 5), fs(FieldConj, 1),
		},
		Ops: macOps,
	},
	{
		Type: TypeMACRC, Name: "MAC_RC", Prefix: "10100",
		Fields: []FieldSpec{
			fs(FieldSel, 2), fs(FieldOpt, 3), fs(FieldCond, 5), fs(FieldAcc, 3),
			fs(FieldSReg0, 5), fs(FieldSReg1, 5),
		},
		Ops: macOps,
	},
	{
		Type: TypeMACImm, Name: "MAC_IMM", Prefix: "10101",
		Fields: []FieldSpec{
			fs(FieldSel, 2), fs(FieldOpt, 3), fs(FieldCond, 5), fs(FieldAcc, 3),
			fs(FieldSReg0, 5), fs(FieldImm, 12),
		},
		Imm: ImmS12,
		Ops: macOps,
	},
	{
		Type: TypeMFMACLdLd, Name: "MF_MAC_LDLD", Prefix: "1011",
		Fields: []FieldSpec{
			fs(FieldSel, 2), fs(FieldAcc, 3), fs(FieldSReg0, 5), fs(FieldSReg1, 5),
			fs(FieldDReg2, 5), fs(FieldIReg2, 2), fs(FieldMReg2, 2),
			fs(FieldDReg3, 5), fs(FieldIReg3, 2), fs(FieldMReg3, 2),
		},
		Ops:    macOps,
		Slots:  []SlotSpec{{Ops: []Op{OpLOAD}}, {Ops: []Op{OpLOAD}}},
		MemRef: true,
	},
	{
		Type: TypeShift, Name: "SHIFT", Prefix: "1100",
		Fields: []FieldSpec{
			fs(FieldSel, 2), fs(FieldOpt, 3), fs(FieldCond, 5), fs(FieldAcc, 3),
			fs(FieldSReg0, 5), fs(FieldSReg1, 5),
		},
		Ops: shiftOps,
	},
	{
		Type: TypeShiftImm, Name: "SHIFT_IMM", Prefix: "1101",
		Fields: []FieldSpec{
			fs(FieldSel, 2), fs(FieldOpt, 3), fs(FieldCond, 5), fs(FieldAcc, 3),
			fs(FieldSReg0, 5), fs(FieldImm, 6),
		},
		Imm: ImmS6,
		Ops: shiftOps,
	},
	{
		Type: TypeShiftC, Name: "SHIFT_C", Prefix: "11100",
		Fields: []FieldSpec{
			fs(FieldSel, 2), fs(FieldOpt, 3), fs(FieldCond, 5), fs(FieldAcc, 3),
			fs(FieldSReg0, 5), fs(FieldSReg1, 5),
		},
		Ops: shiftOps,
	},
	{
		Type: TypeShiftImmC, Name: "SHIFT_IMM_C", Prefix: "11101",
		Fields: []FieldSpec{
			fs(FieldSel, 2), fs(FieldOpt, 3), fs(FieldCond, 5), fs(FieldAcc, 3),
			fs(FieldSReg0, 5), fs(FieldImm, 5),
		},
		Imm: ImmS5,
		Ops: shiftOps,
	},
	{
		Type: TypeCordic, Name: "CORDIC", Prefix: "11110000",
		Fields: []FieldSpec{
			fs(FieldSel, 1), fs(FieldCond, 5), fs(FieldDReg, 5), fs(FieldSReg0, 5), fs(FieldImm, 4),
		},
		Imm: ImmU4,
		Ops: []Op{OpRECT, OpPOLAR},
	},
	{
		Type: TypeAccOp, Name: "ACC_OP", Prefix: "11110001",
		Fields: []FieldSpec{fs(FieldSel, 2), fs(FieldCond, 5), fs(FieldAcc, 3)},
		Ops:    []Op{OpRND, OpSAT, OpCLRACC},
	},
	{
		Type: TypeExp, Name: "EXP", Prefix: "11110010",
		Fields: []FieldSpec{fs(FieldCond, 5), fs(FieldDReg, 5), fs(FieldSAcc0, 3)},
		Ops:    []Op{OpEXP},
	},
	{
		Type: TypeMFALUMem, Name: "MF_ALU_MEM", Prefix: "11110011",
		Fields: []FieldSpec{
			fs(FieldSel, 5), fs(FieldDReg, 5), fs(FieldSReg0, 5), fs(FieldSReg1, 5),
			fs(FieldDir2, 1), fs(FieldDReg2, 5), fs(FieldIReg2, 3), fs(FieldMReg2, 3),
		},
		Ops:    aluOps,
		Slots:  []SlotSpec{memSlot},
		MemRef: true,
	},
	{
		Type: TypeMFALUCopy, Name: "MF_ALU_COPY", Prefix: "11110100",
		Fields: []FieldSpec{
			fs(FieldSel, 5), fs(FieldDReg, 5), fs(FieldSReg0, 5), fs(FieldSReg1, 5),
			fs(FieldDReg2, 5), fs(FieldSReg2, 5),
		},
		Ops:   aluOps,
		Slots: []SlotSpec{{Ops: []Op{OpCOPY}}},
	},
	{
		Type: TypeMFMACMem, Name: "MF_MAC_MEM", Prefix: "11110101",
		Fields: []FieldSpec{
			fs(FieldSel, 2), fs(FieldOpt, 3), fs(FieldAcc, 3), fs(FieldSReg0, 5), fs(FieldSReg1, 5),
			fs(FieldDir2, 1), fs(FieldDReg2, 5), fs(FieldIReg2, 3), fs(FieldMReg2, 3),
		},
		Ops:    macOps,
		Slots:  []SlotSpec{memSlot},
		MemRef: true,
	},
	{
		Type: TypeMFShiftMem, Name: "MF_SHIFT_MEM", Prefix: "11110110",
		Fields: []FieldSpec{
			fs(FieldSel, 2), fs(FieldOpt, 3), fs(FieldAcc, 3), fs(FieldSReg0, 5), fs(FieldSReg1, 5),
			fs(FieldDir2, 1), fs(FieldDReg2, 5), fs(FieldIReg2, 3), fs(FieldMReg2, 3),
		},
		Ops:    shiftOps,
		Slots:  []SlotSpec{memSlot},
		MemRef: true,
	},
	{
		Type: TypeMFMACMemC, Name: "MF_MAC_MEM_C", Prefix: "11110111",
		Fields: []FieldSpec{
			fs(FieldSel, 2), fs(FieldOpt, 3), fs(FieldAcc, 3), fs(FieldSReg0, 5), fs(FieldSReg1, 5),
			fs(FieldDir2, 1), fs(FieldDReg2, 5), fs(FieldIReg2, 3), fs(FieldMReg2, 3),
			fs(FieldConj, 1),
		},
		Ops:    macOps,
		Slots:  []SlotSpec{memSlot},
		MemRef: true,
	},
	{
		Type: TypeMFALUMemC, Name: "MF_ALU_MEM_C", Prefix: "11111000",
		Fields: []FieldSpec{
			fs(FieldSel, 5), fs(FieldDReg, 5), fs(FieldSReg0, 5), fs(FieldSReg1, 5),
			fs(FieldDir2, 1), fs(FieldDReg2, 5), fs(FieldIReg2, 3), fs(FieldMReg2, 3),
		},
		Ops:    aluOps,
		Slots:  []SlotSpec{memSlot},
		MemRef: true,
	},
}

var (
	formatsByType [numTypes]*Format
	typeByPrefix  [1 << maxPrefixLen]Type
)

func init() {
	for _, f := range formatTable {
		if err := f.build(); err != nil {
			panic(err)
		}
		if formatsByType[f.Type] != nil {
			panic(fmt.Sprintf("insts: duplicate format for %s", f.Name))
		}
		formatsByType[f.Type] = f

		// Fill every 8-bit code that starts with the prefix. A code claimed
		// twice means the table is not prefix-free.
		free := maxPrefixLen - len(f.Prefix)
		base := f.prefixVal << free
		for i := uint64(0); i < 1<<free; i++ {
			code := base | i
			if typeByPrefix[code] != TypeUnknown {
				panic(fmt.Sprintf("insts: prefix of %s overlaps %s",
					f.Name, formatsByType[typeByPrefix[code]].Name))
			}
			typeByPrefix[code] = f.Type
		}
	}
}

func (f *Format) build() error {
	if len(f.Prefix) == 0 || len(f.Prefix) > maxPrefixLen {
		return fmt.Errorf("insts: %s: prefix length %d out of range", f.Name, len(f.Prefix))
	}
	for _, c := range f.Prefix {
		f.prefixVal <<= 1
		switch c {
		case '0':
		case '1':
			f.prefixVal |= 1
		default:
			return fmt.Errorf("insts: %s: bad prefix %q", f.Name, f.Prefix)
		}
	}
	if used := f.Used(); used > InstLen {
		return fmt.Errorf("insts: %s: layout uses %d bits", f.Name, used)
	}
	if len(f.Ops) == 0 {
		return fmt.Errorf("insts: %s: no opcodes", f.Name)
	}

	f.layout = make(map[Field]fieldPos, len(f.Fields))
	pos := InstLen - len(f.Prefix)
	for _, fs := range f.Fields {
		pos -= int(fs.Width)
		if _, dup := f.layout[fs.Field]; dup {
			return fmt.Errorf("insts: %s: duplicate field %s", f.Name, fs.Field)
		}
		f.layout[fs.Field] = fieldPos{shift: uint8(pos), width: fs.Width}
	}
	if f.Has(FieldImm) != (f.Imm != ImmNone) {
		return fmt.Errorf("insts: %s: immediate field and class disagree", f.Name)
	}
	return nil
}

// FormatOf returns the format table entry of a type, or nil for unknown types.
func FormatOf(t Type) *Format {
	if t >= numTypes {
		return nil
	}
	return formatsByType[t]
}

// Formats returns the format table in declaration order.
func Formats() []*Format {
	out := make([]*Format, len(formatTable))
	copy(out, formatTable)
	return out
}

func (t Type) String() string {
	if f := FormatOf(t); f != nil {
		return f.Name
	}
	return fmt.Sprintf("Type(%d)", uint8(t))
}

// TypeOf identifies the instruction type of a word by its prefix.
func TypeOf(w Word) Type {
	return typeByPrefix[uint64(w&WordMask)>>(InstLen-maxPrefixLen)]
}
