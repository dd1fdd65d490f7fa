package main

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"txLogScope/internal/model"
	"txLogScope/internal/pipeline"
)

// renderEvents prints one row per decoded input, grouped by event.
func renderEvents(w io.Writer, result *pipeline.Result) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle(fmt.Sprintf("%s  block %d", result.TxHash, result.BlockNumber))
	t.AppendHeader(table.Row{"#", "Event", "Contract", "Input", "Type", "Value"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight, AutoMerge: true},
		{Number: 2, AutoMerge: true},
		{Number: 3, AutoMerge: true},
		{Number: 6, WidthMax: 80},
	})

	for _, ev := range result.Events {
		if len(ev.Inputs) == 0 {
			t.AppendRow(table.Row{ev.EventIndex, ev.Name, ev.ContractAddress, "", "", ""})
			continue
		}
		for _, in := range ev.Inputs {
			t.AppendRow(table.Row{ev.EventIndex, ev.Name, ev.ContractAddress, inputName(in), in.SolidityType, in.DisplayValue})
		}
		t.AppendSeparator()
	}
	if len(result.Failures) > 0 {
		t.AppendFooter(table.Row{"", fmt.Sprintf("%d not decoded", len(result.Failures))})
	}
	t.Render()
}

func inputName(in model.DecodedInput) string {
	if in.Indexed {
		return in.Name + " (indexed)"
	}
	return in.Name
}

// renderClassifications prints address classifications.
func renderClassifications(w io.Writer, rows []model.Classification) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Address", "Kind", "Proxy", "Implementation"})
	for _, c := range rows {
		impl := ""
		if c.Implementation != nil {
			impl = c.Implementation.Hex()
		}
		t.AppendRow(table.Row{c.Address.Hex(), string(c.Kind), yesNo(c.IsProxy), impl})
	}
	t.Render()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
