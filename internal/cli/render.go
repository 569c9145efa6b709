package cli

import (
	"encoding/json"
	"io"

	"github.com/olekukonko/tablewriter"

	"github.com/AmirejibiIlia/maiko/internal"
)

func printTable(w io.Writer, t internal.Table) {
	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_CENTER)
	table.SetBorder(true)
	table.SetHeader(t.Columns)

	for _, row := range t.Rows {
		cells := make([]string, len(t.Columns))
		for i, c := range t.Columns {
			cells[i] = internal.Stringify(row[c])
		}
		table.Append(cells)
	}
	table.Render()
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
