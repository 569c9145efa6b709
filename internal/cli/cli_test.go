package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/AmirejibiIlia/maiko/internal"
	tt "github.com/AmirejibiIlia/maiko/internal/testtools"
)

const dataset = `date,metrics,value,client
05.01.23,A,100,X
10.02.23,A,50,Y
20.01.23,B,30,X
`

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	cmd := NewRootCmd(&stdout, &stderr)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)

	err := cmd.Execute()
	return stdout.String(), err
}

func writeDataset(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "revenue.csv")
	tt.AssertNoErr(t, os.WriteFile(path, []byte(dataset), 0o644))
	return path
}

func TestQueryCmd(t *testing.T) {
	data := writeDataset(t)

	t.Run("json output from stdin", func(t *testing.T) {
		out, err := run(t,
			`{"where": {"metrics": {"=": "A"}}, "group_by": ["month"], "aggregations": {"value": ["sum"]}}`,
			"query", "--data", data, "--json",
		)
		tt.AssertNoErr(t, err)

		var records []map[string]any
		tt.AssertNoErr(t, json.Unmarshal([]byte(out), &records))
		tt.AssertEqual(t, records, []map[string]any{
			{"month": "2023-01", "value_sum": 100.0},
			{"month": "2023-02", "value_sum": 50.0},
		})
	})

	t.Run("table output from a file", func(t *testing.T) {
		queryPath := filepath.Join(t.TempDir(), "q.json")
		tt.AssertNoErr(t, os.WriteFile(queryPath, []byte(`{"aggregations": {"value": ["sum", "mean"]}}`), 0o644))

		out, err := run(t, "", "query", "--data", data, "--query", queryPath)
		tt.AssertNoErr(t, err)
		tt.AssertEqual(t, strings.Contains(out, "value_sum"), true)
		tt.AssertEqual(t, strings.Contains(out, "180"), true)
		tt.AssertEqual(t, strings.Contains(out, "60"), true)
	})

	t.Run("invalid query object", func(t *testing.T) {
		_, err := run(t, `{"group_by": ["month"]}`, "query", "--data", data)
		tt.AssertErrContains(t, err, "QueryErr")
	})

	t.Run("empty stdin", func(t *testing.T) {
		_, err := run(t, "", "query", "--data", data)
		tt.AssertErrContains(t, err, "no query object")
	})
}

func TestDescribeCmd(t *testing.T) {
	data := writeDataset(t)

	out, err := run(t, "", "describe", "--data", data, "--sample", "1")
	tt.AssertNoErr(t, err)

	var dc internal.DataContext
	tt.AssertNoErr(t, json.Unmarshal([]byte(out), &dc))
	tt.AssertEqual(t, dc.MetricsList, []string{"A", "B"})
	tt.AssertEqual(t, dc.TotalRecords, 3)
	tt.AssertEqual(t, len(dc.SampleData), 1)

	t.Run("overview", func(t *testing.T) {
		out, err := run(t, "", "describe", "--data", data, "--overview")
		tt.AssertNoErr(t, err)
		tt.AssertEqual(t, strings.Contains(out, "By metric:"), true)
		tt.AssertEqual(t, strings.Contains(out, "By client:"), true)
		tt.AssertEqual(t, strings.Contains(out, "150"), true)
	})
}

func TestPrintTable(t *testing.T) {
	var buf bytes.Buffer
	printTable(&buf, internal.Table{
		Columns: []string{"month", "value_sum"},
		Rows: []internal.Row{
			{"month": "2023-01", "value_sum": 100.5},
			{"month": "2023-02", "value_sum": nil},
		},
	})

	out := buf.String()
	tt.AssertEqual(t, strings.Contains(out, "month"), true)
	tt.AssertEqual(t, strings.Contains(out, "100.5"), true)
	tt.AssertEqual(t, strings.Count(out, "2023-0"), 2)
}
