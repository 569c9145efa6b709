// Package loader turns revenue exports into tables and keeps
// the parsed dataset cached in memory.
package loader

import (
	"encoding/csv"
	"errors"
	"io"

	"github.com/AmirejibiIlia/maiko"
	"github.com/AmirejibiIlia/maiko/internal"
	"github.com/AmirejibiIlia/maiko/internal/dates"
)

// ParseCSV reads a revenue export. Header names are trimmed and
// lower-cased, the date column is parsed into calendar dates and the
// value column into numbers. Rows whose value is not a number are
// dropped, a date that cannot be parsed fails the whole load.
func ParseCSV(r io.Reader) (internal.Table, Stats, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return internal.Table{}, Stats{}, maiko.SchemaErr("dataset is empty", nil)
	}
	if err != nil {
		return internal.Table{}, Stats{}, maiko.ParseErr("invalid csv header", map[string]any{
			"error": err,
		})
	}

	next := func() ([]string, int, error) {
		record, err := reader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, 0, io.EOF
			}
			return nil, 0, maiko.ParseErr("invalid csv record", map[string]any{
				"error": err,
			})
		}
		line, _ := reader.FieldPos(0)
		return record, line, nil
	}

	return buildTable(header, next, dates.ParseCell)
}
