package main

import (
	"fmt"
	"io"

	"github.com/davecgh/go-spew/spew"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/sarchlab/dspsim/emu"
	"github.com/sarchlab/dspsim/insts"
	"github.com/sarchlab/dspsim/timing/cache"
	"github.com/sarchlab/dspsim/timing/core"
	"github.com/sarchlab/dspsim/timing/latency"
)

func newTable(w io.Writer, title string) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle(title)
	t.SetStyle(table.StyleLight)
	return t
}

// writeListing prints one row per record: address, raw bits, type, field
// count, field values and opcodes.
func writeListing(w io.Writer, prog *insts.Program) {
	t := newTable(w, "Program")
	t.AppendHeader(table.Row{"PMA", "Word", "Type", "#", "Fields", "Ops"})

	for _, inst := range prog.Instructions() {
		l := insts.Disassemble(inst)
		pma := fmt.Sprintf("%04X", l.PMA)
		if inst.DelaySlot {
			pma += "*"
		}
		t.AppendRow(table.Row{pma, l.Bits, l.Type, len(l.Fields), l.FieldText(), l.OpText()})
	}

	t.Render()
}

func writeStats(w io.Writer, cs core.Stats, es emu.Stats) {
	t := newTable(w, "Run")
	t.AppendRows([]table.Row{
		{"Cycles", cs.ExecCycles},
		{"Instructions", es.Instructions},
		{"Iterations", es.Iterations},
		{"Overflows", es.OverflowCount},
		{"Warnings", es.Warnings},
		{"Stack overflows", es.StackOverflows},
	})
	t.Render()
}

func writeCacheStats(w io.Writer, cs core.Stats) {
	t := newTable(w, "Caches")
	t.AppendHeader(table.Row{"Cache", "Reads", "Writes", "Hits", "Misses", "Hit rate", "Stalls"})
	row := func(name string, st cache.Statistics) table.Row {
		return table.Row{
			name, st.Reads, st.Writes, st.Hits, st.Misses,
			fmt.Sprintf("%.1f%%", 100*st.HitRate()), st.StallCycles,
		}
	}
	t.AppendRow(row("PM", cs.PMCache))
	t.AppendRow(row("DM", cs.DMCache))
	t.AppendFooter(table.Row{"Total cycles", "", "", "", "", fmt.Sprintf("CPI %.2f", cs.CPI()), cs.Cycles})
	t.Render()
}

func writeSummary(w io.Writer, s latency.Summary) {
	t := newTable(w, "Static cost")
	t.AppendHeader(table.Row{"Class", "Records", "Cycles"})
	for _, c := range latency.Classes() {
		cs, ok := s.ByClass[c]
		if !ok {
			continue
		}
		t.AppendRow(table.Row{c, cs.Records, cs.Cycles})
	}
	t.AppendFooter(table.Row{"Total", s.Records, s.StaticCycles})
	t.Render()

	_, _ = fmt.Fprintf(w, "branch stalls: %d  memory hazards: %d  delay slots: %d\n",
		s.BranchStalls, s.MemHazards, s.DelaySlots)
}

var stateDumper = spew.ConfigState{
	Indent:                  "  ",
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

func writeState(w io.Writer, e *emu.Emulator) {
	_, _ = fmt.Fprintf(w, "PMA: 0x%04X\n", e.PMA())
	stateDumper.Fdump(w, e.RegFile())
}
