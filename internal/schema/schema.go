// Package schema validates revenue datasets and extracts the
// context the query planner needs to know about them.
package schema

import (
	"time"

	"github.com/AmirejibiIlia/maiko"
	"github.com/AmirejibiIlia/maiko/internal"
	"github.com/AmirejibiIlia/maiko/internal/dates"
	"github.com/AmirejibiIlia/maiko/internal/engine"
)

// DefaultSampleSize is the number of rows handed to the planner
// as examples of the data.
const DefaultSampleSize = 5

var required = []string{internal.DateCol, internal.MetricsCol, internal.ValueCol}

// Validate checks that the required columns are present.
// The client column is optional.
func Validate(t internal.Table) error {
	var missing []string
	for _, c := range required {
		if !t.HasColumn(c) {
			missing = append(missing, c)
		}
	}

	if len(missing) > 0 {
		return maiko.SchemaErr("dataset is missing required columns", map[string]any{
			"missing": missing,
			"found":   t.Columns,
		})
	}

	return nil
}

// Describe summarizes the dataset: its distinct metrics and
// clients in first seen order, the covered date range, the
// row count and the first sampleSize rows as records.
func Describe(t internal.Table, sampleSize int) (internal.DataContext, error) {
	err := Validate(t)
	if err != nil {
		return internal.DataContext{}, err
	}

	ctx := internal.DataContext{
		MetricsList:  distinct(t, internal.MetricsCol),
		ClientList:   []string{},
		TotalRecords: t.Len(),
	}
	if t.HasColumn(internal.ClientCol) {
		ctx.ClientList = distinct(t, internal.ClientCol)
	}

	var lo, hi time.Time
	for _, row := range t.Rows {
		d, ok := row[internal.DateCol].(time.Time)
		if !ok {
			continue
		}
		if lo.IsZero() || d.Before(lo) {
			lo = d
		}
		if hi.IsZero() || d.After(hi) {
			hi = d
		}
	}
	if !lo.IsZero() {
		ctx.DateRange = internal.DateRange{
			Min: dates.Format(lo),
			Max: dates.Format(hi),
		}
	}

	if sampleSize < 0 {
		sampleSize = 0
	}
	if sampleSize > t.Len() {
		sampleSize = t.Len()
	}
	ctx.SampleData = internal.Table{
		Columns: t.Columns,
		Rows:    t.Rows[:sampleSize],
	}.Records()

	return ctx, nil
}

func distinct(t internal.Table, column string) []string {
	seen := map[string]bool{}
	values := []string{}
	for _, row := range t.Rows {
		v := row[column]
		if v == nil {
			continue
		}

		s := internal.Stringify(v)
		if seen[s] {
			continue
		}
		seen[s] = true
		values = append(values, s)
	}
	return values
}

// Overview holds the per metric and per client totals
// shown when a dataset is first loaded.
type Overview struct {
	ByMetric internal.Table
	ByClient internal.Table
}

// BuildOverview computes the overview tables by running
// ordinary queries through the executor.
func BuildOverview(exec engine.Executor, t internal.Table) (Overview, error) {
	err := Validate(t)
	if err != nil {
		return Overview{}, err
	}

	totals := []internal.Aggregation{{
		Column: internal.ValueCol,
		Funcs:  []string{"sum", "mean", "count"},
	}}
	byTotal := []internal.OrderKey{{
		Column:    internal.OutputName(internal.ValueCol, "sum"),
		Ascending: false,
	}}

	var overview Overview
	overview.ByMetric, err = exec.Execute(t, internal.Query{
		GroupBy:      []string{internal.MetricsCol},
		Aggregations: totals,
		OrderBy:      byTotal,
	})
	if err != nil {
		return Overview{}, err
	}

	if !t.HasColumn(internal.ClientCol) {
		return overview, nil
	}

	overview.ByClient, err = exec.Execute(t, internal.Query{
		GroupBy:      []string{internal.ClientCol},
		Aggregations: totals,
		OrderBy:      byTotal,
	})
	if err != nil {
		return Overview{}, err
	}

	return overview, nil
}
