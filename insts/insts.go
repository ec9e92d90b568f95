// Package insts provides the DSP instruction definitions and decoding.
//
// This package turns raw 40-bit instruction words into structured
// instruction records. It contains:
//   - the instruction format table (one entry per instruction type, with the
//     type's prefix and ordered field layout)
//   - the field and immediate decoder
//   - the decoder producing Instruction records
//   - the Program store and its second-pass opcode resolver
//   - a table-driven encoder used by assemblers and tests
//   - disassembly listings for trace output
//
// Usage:
//
//	prog := insts.NewProgram(0)
//	w, _ := insts.Encode(insts.TypeLDImm, insts.Fields{
//		insts.FieldDReg: 0,
//		insts.FieldImm:  5,
//	})
//	_, _ = prog.Append(w)
//	_ = prog.Resolve(insts.DefaultResolveOptions())
package insts
