package bexpr

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hashicorp/go-bexpr"

	"github.com/AmirejibiIlia/maiko"
	"github.com/AmirejibiIlia/maiko/internal/dates"
)

// Evaluator runs a go-bexpr boolean expression, e.g.
// `metrics == "Sales" or client contains "LLC"`, against table rows.
type Evaluator struct {
	expr      string
	evaluator *bexpr.Evaluator
}

func New(expr string) (Evaluator, error) {
	evaluator, err := bexpr.CreateEvaluator(expr)
	if err != nil {
		return Evaluator{}, maiko.QueryErr("invalid filter expression", map[string]any{
			"expr":  expr,
			"error": err,
		})
	}

	return Evaluator{
		expr:      expr,
		evaluator: evaluator,
	}, nil
}

func (e Evaluator) Evaluate(row map[string]any) (bool, error) {
	vars := render(row)

	result, err := e.evaluator.Evaluate(vars)
	if err != nil {
		return false, maiko.QueryErr("error evaluating filter expression", map[string]any{
			"expr":  e.expr,
			"error": err,
			"row":   stringify(vars),
		})
	}

	return result, nil
}

// render converts the cells bexpr cannot inspect: dates become
// ISO strings and missing values become empty strings.
func render(row map[string]any) map[string]any {
	vars := make(map[string]any, len(row))
	for k, v := range row {
		switch v := v.(type) {
		case nil:
			vars[k] = ""
		case time.Time:
			vars[k] = dates.Format(v)
		default:
			vars[k] = v
		}
	}

	return vars
}

func stringify(obj any) string {
	b, err := json.Marshal(obj)
	if err != nil {
		b = []byte(fmt.Sprintf("%+v", obj))
	}

	return string(b)
}
