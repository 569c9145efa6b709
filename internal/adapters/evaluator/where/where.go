// Package where compiles the `where` clause of a query object into
// an evaluator.Expression: a conjunction of column comparisons.
package where

import (
	"time"

	"github.com/AmirejibiIlia/maiko"
	"github.com/AmirejibiIlia/maiko/internal"
	"github.com/AmirejibiIlia/maiko/internal/dates"
)

type condition struct {
	column string
	op     internal.Op
	value  any
}

// Expression holds the compiled conditions, in column order.
type Expression struct {
	conds []condition
}

// Compile validates the clause against the dataset columns and
// coerces the literals: string literals on the date column are
// parsed as calendar dates and a literal that fails to parse is
// reported as a ParseErr rather than turned into an empty result.
func Compile(w internal.Where, columns []string) (Expression, error) {
	known := make(map[string]bool, len(columns))
	for _, c := range columns {
		known[c] = true
	}

	var expr Expression
	for _, column := range w.Columns() {
		if !known[column] {
			if internal.IsBucket(column) {
				return Expression{}, maiko.QueryErr("virtual bucket columns cannot be filtered, filter on the date column instead", map[string]any{
					"column": column,
				})
			}
			return Expression{}, maiko.SchemaErr("unknown column in where clause", map[string]any{
				"column": column,
			})
		}

		for _, cond := range w[column] {
			if !cond.Op.Valid() {
				return Expression{}, maiko.QueryErr("unsupported where operator", map[string]any{
					"column": column,
					"op":     string(cond.Op),
				})
			}

			value := cond.Value
			if s, isStr := value.(string); isStr && column == internal.DateCol {
				d, err := dates.ParseLiteral(s)
				if err != nil {
					return Expression{}, err
				}
				value = d
			}

			expr.conds = append(expr.conds, condition{
				column: column,
				op:     cond.Op,
				value:  value,
			})
		}
	}

	return expr, nil
}

// Len returns the number of compiled conditions.
func (e Expression) Len() int {
	return len(e.conds)
}

func (e Expression) Evaluate(row map[string]any) (bool, error) {
	for _, cond := range e.conds {
		ok, err := cond.match(row[cond.column])
		if err != nil || !ok {
			return false, err
		}
	}

	return true, nil
}

func (c condition) match(cell any) (bool, error) {
	// Missing values are unequal to everything and unordered.
	if cell == nil {
		return c.op == internal.OpNe, nil
	}

	cmp, comparable := internal.Compare(cell, c.value)
	if !comparable {
		switch c.op {
		case internal.OpEq:
			return false, nil
		case internal.OpNe:
			return true, nil
		}

		return false, maiko.QueryErr("where value cannot be ordered against the column values", map[string]any{
			"column":    c.column,
			"op":        string(c.op),
			"value":     c.value,
			"cellType":  typeName(cell),
			"valueType": typeName(c.value),
		})
	}

	switch c.op {
	case internal.OpEq:
		return cmp == 0, nil
	case internal.OpNe:
		return cmp != 0, nil
	case internal.OpGt:
		return cmp > 0, nil
	case internal.OpGe:
		return cmp >= 0, nil
	case internal.OpLt:
		return cmp < 0, nil
	case internal.OpLe:
		return cmp <= 0, nil
	}

	return false, maiko.InternalErr("operator escaped validation", map[string]any{
		"op": string(c.op),
	})
}

func typeName(v any) string {
	switch v.(type) {
	case time.Time:
		return "date"
	case string:
		return "string"
	case bool:
		return "bool"
	}
	if _, ok := internal.Number(v); ok {
		return "number"
	}
	return "unknown"
}
