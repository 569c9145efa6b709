package where

import (
	"testing"
	"time"

	"github.com/AmirejibiIlia/maiko"
	"github.com/AmirejibiIlia/maiko/internal"
	"github.com/AmirejibiIlia/maiko/internal/adapters/evaluator"
	tt "github.com/AmirejibiIlia/maiko/internal/testtools"
)

func TestWhereExpressionInterface(t *testing.T) {
	// This Test function runs all interface tests at once:
	evaluator.Test(t, func(eq evaluator.Equality) (evaluator.Expression, error) {
		op := internal.OpEq
		if eq.Negate {
			op = internal.OpNe
		}

		return Compile(internal.Where{
			eq.Column: {{Op: op, Value: eq.Literal}},
		}, []string{"metrics", "client", "value", "week"})
	})
}

func TestCompile(t *testing.T) {
	columns := []string{"date", "metrics", "value", "client"}
	row := map[string]any{
		"date":    time.Date(2023, 3, 15, 0, 0, 0, 0, time.UTC),
		"metrics": "Sales",
		"value":   float64(250),
		"client":  nil,
	}

	tests := []struct {
		desc           string
		where          internal.Where
		expectedResult bool
		expectErrCode  string
	}{
		{
			desc:           "empty clause matches everything",
			where:          nil,
			expectedResult: true,
		},
		{
			desc: "iso date range under one column",
			where: internal.Where{"date": {
				{Op: internal.OpGe, Value: "2023-03-01"},
				{Op: internal.OpLe, Value: "2023-03-31"},
			}},
			expectedResult: true,
		},
		{
			desc: "date range excluding the row",
			where: internal.Where{"date": {
				{Op: internal.OpGe, Value: "2023-03-16"},
			}},
			expectedResult: false,
		},
		{
			desc:           "legacy date literal",
			where:          internal.Where{"date": {{Op: internal.OpEq, Value: "15.03.23"}}},
			expectedResult: true,
		},
		{
			desc: "conditions across columns are combined with and",
			where: internal.Where{
				"metrics": {{Op: internal.OpEq, Value: "Sales"}},
				"value":   {{Op: internal.OpLt, Value: float64(100)}},
			},
			expectedResult: false,
		},
		{
			desc:           "numeric bound",
			where:          internal.Where{"value": {{Op: internal.OpGt, Value: float64(249.99)}}},
			expectedResult: true,
		},
		{
			desc:           "missing cell is unequal",
			where:          internal.Where{"client": {{Op: internal.OpNe, Value: "X"}}},
			expectedResult: true,
		},
		{
			desc:           "missing cell never equals",
			where:          internal.Where{"client": {{Op: internal.OpEq, Value: ""}}},
			expectedResult: false,
		},
		{
			desc:          "unknown column",
			where:         internal.Where{"foo": {{Op: internal.OpEq, Value: "x"}}},
			expectErrCode: maiko.CodeSchema,
		},
		{
			desc:          "bucket column",
			where:         internal.Where{"month": {{Op: internal.OpEq, Value: "2023-03"}}},
			expectErrCode: maiko.CodeQuery,
		},
		{
			desc:          "unsupported operator",
			where:         internal.Where{"value": {{Op: internal.Op("=="), Value: float64(1)}}},
			expectErrCode: maiko.CodeQuery,
		},
		{
			desc:          "date literal that does not parse",
			where:         internal.Where{"date": {{Op: internal.OpGe, Value: "March 2023"}}},
			expectErrCode: maiko.CodeParse,
		},
		{
			desc:          "ordering across incompatible kinds",
			where:         internal.Where{"metrics": {{Op: internal.OpGt, Value: float64(3)}}},
			expectErrCode: maiko.CodeQuery,
		},
	}

	for _, test := range tests {
		t.Run(test.desc, func(t *testing.T) {
			expr, err := Compile(test.where, columns)
			if err == nil {
				var result bool
				result, err = expr.Evaluate(row)
				if test.expectErrCode == "" {
					tt.AssertNoErr(t, err)
					tt.AssertEqual(t, result, test.expectedResult)
					return
				}
			}

			tt.AssertEqual(t, maiko.ErrIs(err, test.expectErrCode), true)
		})
	}
}
