package loader

import (
	"strings"
	"testing"
	"time"

	"github.com/AmirejibiIlia/maiko"
	"github.com/AmirejibiIlia/maiko/internal"
	tt "github.com/AmirejibiIlia/maiko/internal/testtools"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParseCSV(t *testing.T) {
	tests := []struct {
		desc          string
		input         string
		expected      internal.Table
		expectedStats Stats
		expectErrCode string
	}{
		{
			desc: "legacy and iso dates with a normalized header",
			input: " Date ,Metrics,VALUE,client\n" +
				"05.01.23,Sales,100,Acme\n" +
				"2023-02-10,Fees,12.5,\n",
			expected: internal.Table{
				Columns: []string{"date", "metrics", "value", "client"},
				Rows: []internal.Row{
					{"date": day(2023, 1, 5), "metrics": "Sales", "value": 100.0, "client": "Acme"},
					{"date": day(2023, 2, 10), "metrics": "Fees", "value": 12.5, "client": nil},
				},
			},
			expectedStats: Stats{Rows: 2},
		},
		{
			desc: "rows without a numeric value are dropped",
			input: "date,metrics,value\n" +
				"2023-01-01,Sales,n/a\n" +
				"2023-01-02,Sales,\n" +
				"2023-01-03,Sales,NaN\n" +
				"2023-01-04,Sales,7\n",
			expected: internal.Table{
				Columns: []string{"date", "metrics", "value"},
				Rows: []internal.Row{
					{"date": day(2023, 1, 4), "metrics": "Sales", "value": 7.0},
				},
			},
			expectedStats: Stats{Rows: 1, DroppedRows: 3},
		},
		{
			desc: "blank lines are skipped",
			input: "date,metrics,value\n" +
				"2023-01-04,Sales,7\n" +
				",,\n",
			expected: internal.Table{
				Columns: []string{"date", "metrics", "value"},
				Rows: []internal.Row{
					{"date": day(2023, 1, 4), "metrics": "Sales", "value": 7.0},
				},
			},
			expectedStats: Stats{Rows: 1},
		},
		{
			desc:          "missing required column",
			input:         "date,value\n2023-01-01,1\n",
			expectErrCode: maiko.CodeSchema,
		},
		{
			desc:          "empty input",
			input:         "",
			expectErrCode: maiko.CodeSchema,
		},
		{
			desc:          "date that cannot be parsed",
			input:         "date,metrics,value\nsoon,Sales,1\n",
			expectErrCode: maiko.CodeParse,
		},
	}

	for _, test := range tests {
		t.Run(test.desc, func(t *testing.T) {
			table, stats, err := ParseCSV(strings.NewReader(test.input))
			if test.expectErrCode != "" {
				tt.AssertEqual(t, maiko.ErrIs(err, test.expectErrCode), true)
				return
			}

			tt.AssertNoErr(t, err)
			tt.AssertEqual(t, table, test.expected)
			tt.AssertEqual(t, stats, test.expectedStats)
		})
	}
}
