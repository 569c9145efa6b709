package internal

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/AmirejibiIlia/maiko/internal/dates"
)

// Names of the columns every revenue dataset is expected to carry.
const (
	DateCol    = "date"
	MetricsCol = "metrics"
	ValueCol   = "value"
	ClientCol  = "client"
)

// Names of the virtual bucket columns derived from DateCol.
const (
	BucketWeek    = "week"
	BucketMonth   = "month"
	BucketQuarter = "quarter"
	BucketYear    = "year_only"
)

// IsBucket reports whether name is one of the reserved
// virtual bucket columns.
func IsBucket(name string) bool {
	switch name {
	case BucketWeek, BucketMonth, BucketQuarter, BucketYear:
		return true
	}
	return false
}

// DatasetSource provides the dataset questions are asked against.
type DatasetSource interface {
	Dataset(ctx context.Context) (Table, error)
	Name() string
}

// Row maps column names to typed cells: time.Time for dates,
// float64 for amounts, int for counts and integer buckets and
// string for labels. A missing or nil cell means no value.
type Row map[string]any

// Table is the in-memory tabular abstraction shared by datasets
// and query results. Columns keeps the column layout, rows are
// addressed by column name.
type Table struct {
	Columns []string
	Rows    []Row
}

func (t Table) Len() int {
	return len(t.Rows)
}

func (t Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Clone returns a copy of the table that shares no
// row maps or slices with the original.
func (t Table) Clone() Table {
	out := Table{
		Columns: append([]string(nil), t.Columns...),
		Rows:    make([]Row, len(t.Rows)),
	}
	for i, row := range t.Rows {
		out.Rows[i] = row.Clone()
	}
	return out
}

func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Records serializes the table into row oriented records
// with dates rendered as ISO strings, the shape the narrator
// and the HTTP API hand out.
func (t Table) Records() []map[string]any {
	records := make([]map[string]any, 0, len(t.Rows))
	for _, row := range t.Rows {
		record := make(map[string]any, len(t.Columns))
		for _, c := range t.Columns {
			record[c] = PromptSafe(row[c])
		}
		records = append(records, record)
	}
	return records
}

// PromptSafe converts a cell into a value that can be embedded
// in JSON without ambiguity: dates become YYYY-MM-DD strings,
// native numbers, bools and nil are kept, the rest is stringified.
func PromptSafe(v any) any {
	switch v := v.(type) {
	case nil:
		return nil
	case time.Time:
		return dates.Format(v)
	case float64, float32, int, int64, int32, bool:
		return v
	case string:
		return v
	default:
		return Stringify(v)
	}
}

// DataContext describes a dataset to the query planner.
type DataContext struct {
	MetricsList  []string         `json:"metrics_list"`
	ClientList   []string         `json:"client_list"`
	DateRange    DateRange        `json:"date_range"`
	TotalRecords int              `json:"total_records"`
	SampleData   []map[string]any `json:"sample_data"`
}

type DateRange struct {
	Min string `json:"min"`
	Max string `json:"max"`
}

// Stringify renders a cell for display.
func Stringify(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case time.Time:
		return dates.Format(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	default:
		return fmt.Sprint(v)
	}
}
