package exporter

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// RenderSummary prints formatted as a rounded console table.
func RenderSummary(w io.Writer, formatted *FormattedTable) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.Style().Format.Header = text.FormatDefault

	header := table.Row{}
	for _, h := range formatted.Header() {
		header = append(header, h)
	}
	t.AppendHeader(header)

	configs := make([]table.ColumnConfig, 0, len(formatted.Columns))
	for i := range formatted.Columns {
		configs = append(configs, table.ColumnConfig{Number: i + 2, Align: text.AlignRight})
	}
	t.SetColumnConfigs(configs)

	for _, r := range formatted.Rows {
		row := table.Row{r.Key}
		for _, c := range r.Cells {
			row = append(row, c)
		}
		t.AppendRow(row)
	}
	t.SetCaption(fmt.Sprintf("%d platforms", len(formatted.Rows)))

	t.Render()
}
