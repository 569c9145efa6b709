package evaluator

import (
	"testing"

	tt "github.com/AmirejibiIlia/maiko/internal/testtools"
)

// Equality describes the condition `Column == Literal`, or
// `Column != Literal` when Negate is set, so that every adapter
// can build its own representation of the same condition.
type Equality struct {
	Column  string
	Literal any
	Negate  bool
}

// Test runs the behavior every Expression adapter must share.
func Test(t *testing.T, factory func(eq Equality) (Expression, error)) {
	row := map[string]any{
		"metrics": "Sales",
		"client":  "Acme LLC",
		"value":   float64(100),
		"week":    5,
	}

	tests := []struct {
		desc           string
		eq             Equality
		expectedResult bool
	}{
		{
			desc:           "string equality",
			eq:             Equality{Column: "metrics", Literal: "Sales"},
			expectedResult: true,
		},
		{
			desc:           "string equality is case sensitive",
			eq:             Equality{Column: "metrics", Literal: "sales"},
			expectedResult: false,
		},
		{
			desc:           "string inequality",
			eq:             Equality{Column: "client", Literal: "Other", Negate: true},
			expectedResult: true,
		},
		{
			desc:           "string inequality on equal value",
			eq:             Equality{Column: "client", Literal: "Acme LLC", Negate: true},
			expectedResult: false,
		},
		{
			desc:           "float equality",
			eq:             Equality{Column: "value", Literal: float64(100)},
			expectedResult: true,
		},
		{
			desc:           "float mismatch",
			eq:             Equality{Column: "value", Literal: float64(99.5)},
			expectedResult: false,
		},
		{
			desc:           "integer cell against numeric literal",
			eq:             Equality{Column: "week", Literal: float64(5)},
			expectedResult: true,
		},
	}

	for _, test := range tests {
		t.Run(test.desc, func(t *testing.T) {
			expr, err := factory(test.eq)
			tt.AssertNoErr(t, err)

			result, err := expr.Evaluate(row)
			tt.AssertNoErr(t, err)

			tt.AssertEqual(t, result, test.expectedResult)
		})
	}
}
