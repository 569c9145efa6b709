package loader

import (
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/AmirejibiIlia/maiko"
	"github.com/AmirejibiIlia/maiko/internal"
	"github.com/AmirejibiIlia/maiko/internal/dates"
)

// ParseXLSX reads the first sheet of a revenue workbook with the
// same rules as ParseCSV. Cells are read unformatted, so date cells
// arrive as spreadsheet serial numbers and are converted here.
func ParseXLSX(r io.Reader) (internal.Table, Stats, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return internal.Table{}, Stats{}, maiko.ParseErr("invalid xlsx workbook", map[string]any{
			"error": err,
		})
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return internal.Table{}, Stats{}, maiko.SchemaErr("dataset is empty", nil)
	}

	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return internal.Table{}, Stats{}, maiko.ParseErr("invalid xlsx sheet", map[string]any{
			"sheet": sheets[0],
			"error": err,
		})
	}
	if len(rows) == 0 {
		return internal.Table{}, Stats{}, maiko.SchemaErr("dataset is empty", map[string]any{
			"sheet": sheets[0],
		})
	}

	i := 1
	next := func() ([]string, int, error) {
		if i >= len(rows) {
			return nil, 0, io.EOF
		}
		record := rows[i]
		i++
		return record, i, nil
	}

	use1904 := false
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		use1904 = *props.Date1904
	}

	return buildTable(rows[0], next, func(cell string) (time.Time, error) {
		return parseSerialDate(cell, use1904)
	})
}

// parseSerialDate converts a spreadsheet serial date, falling back
// to the text formats accepted for CSV cells.
func parseSerialDate(cell string, use1904 bool) (time.Time, error) {
	serial, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
	if err != nil || serial <= 0 {
		return dates.ParseCell(cell)
	}

	t, err := excelize.ExcelDateToTime(serial, use1904)
	if err != nil {
		return time.Time{}, maiko.ParseErr("invalid date cell", map[string]any{
			"cell":  cell,
			"error": err,
		})
	}
	return dates.Day(t), nil
}
