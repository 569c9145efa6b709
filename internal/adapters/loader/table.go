package loader

import (
	"errors"
	"fmt"
	"io"
	"math"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/AmirejibiIlia/maiko/internal"
	"github.com/AmirejibiIlia/maiko/internal/schema"
)

// Stats reports what a parser did with the input rows.
type Stats struct {
	Rows        int
	DroppedRows int
}

// Parse picks the parser from the extension of name:
// .xlsx workbooks go through ParseXLSX, everything else
// is read as CSV.
func Parse(name string, r io.Reader) (internal.Table, Stats, error) {
	if strings.EqualFold(path.Ext(name), ".xlsx") {
		return ParseXLSX(r)
	}
	return ParseCSV(r)
}

// recordFunc returns the next record and its 1-based line number,
// or io.EOF once the input is exhausted.
type recordFunc func() (record []string, line int, err error)

type dateFunc func(cell string) (time.Time, error)

func buildTable(header []string, next recordFunc, parseDate dateFunc) (internal.Table, Stats, error) {
	columns := make([]string, len(header))
	for i, name := range header {
		columns[i] = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
	}

	table := internal.Table{Columns: columns}
	err := schema.Validate(table)
	if err != nil {
		return internal.Table{}, Stats{}, err
	}

	var stats Stats
	for {
		record, line, err := next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return internal.Table{}, Stats{}, err
		}

		if isBlank(record) {
			continue
		}

		row, keep, err := parseRecord(columns, record, parseDate)
		if err != nil {
			return internal.Table{}, Stats{}, fmt.Errorf("line %d: %w", line, err)
		}
		if !keep {
			stats.DroppedRows++
			continue
		}

		table.Rows = append(table.Rows, row)
	}

	stats.Rows = table.Len()
	return table, stats, nil
}

func parseRecord(columns []string, record []string, parseDate dateFunc) (internal.Row, bool, error) {
	row := make(internal.Row, len(columns))
	for i, column := range columns {
		var cell string
		if i < len(record) {
			cell = strings.TrimSpace(record[i])
		}

		switch column {
		case internal.DateCol:
			d, err := parseDate(cell)
			if err != nil {
				return nil, false, err
			}
			row[column] = d

		case internal.ValueCol:
			v, ok := parseNumber(cell)
			if !ok {
				return nil, false, nil
			}
			row[column] = v

		default:
			if cell == "" {
				row[column] = nil
				continue
			}
			row[column] = cell
		}
	}

	return row, true, nil
}

func parseNumber(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func isBlank(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
