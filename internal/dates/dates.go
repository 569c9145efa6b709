// Package dates parses and formats the calendar dates used by the
// revenue records and by the date literals inside query objects.
package dates

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/AmirejibiIlia/maiko"
)

const (
	// ISOLayout is the canonical format the query planner emits.
	ISOLayout = "2006-01-02"

	// LegacyLayout is the day-first format of the older data feeds.
	LegacyLayout = "02.01.06"
)

// ParseLiteral parses a date literal from a query object.
//
// Only the canonical ISO layout and the legacy DD.MM.YY layout are
// accepted, anything else is reported as a ParseErr.
func ParseLiteral(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{ISOLayout, LegacyLayout} {
		d, err := time.Parse(layout, s)
		if err == nil {
			return d, nil
		}
	}

	return time.Time{}, maiko.ParseErr("invalid date literal", map[string]any{
		"literal":  s,
		"expected": ISOLayout,
	})
}

// ParseCell parses a date cell read from a spreadsheet export.
//
// Cells are more permissive than literals: after the two known layouts
// are tried, the cell is handed to dateparse, preferring day-first
// interpretation for ambiguous numeric dates. Timestamps are truncated
// to their calendar day.
func ParseCell(s string) (time.Time, error) {
	d, err := ParseLiteral(s)
	if err == nil {
		return d, nil
	}

	t, err := dateparse.ParseIn(strings.TrimSpace(s), time.UTC, dateparse.PreferMonthFirst(false))
	if err != nil {
		return time.Time{}, maiko.ParseErr("invalid date cell", map[string]any{
			"cell":  s,
			"error": err,
		})
	}

	return Day(t), nil
}

// Day truncates t to midnight UTC of its calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func Format(t time.Time) string {
	return t.Format(ISOLayout)
}
