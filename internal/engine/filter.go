package engine

import (
	"github.com/AmirejibiIlia/maiko/internal"
	"github.com/AmirejibiIlia/maiko/internal/adapters/evaluator"
	"github.com/AmirejibiIlia/maiko/internal/adapters/evaluator/bexpr"
	"github.com/AmirejibiIlia/maiko/internal/adapters/evaluator/where"
)

// compilePredicate builds the row predicate of a query out of its
// where clause and its optional filter expression. It returns nil
// when the query keeps every row.
func compilePredicate(columns []string, q internal.Query) (evaluator.Expression, error) {
	var all evaluator.All

	w, err := where.Compile(q.Where, columns)
	if err != nil {
		return nil, err
	}
	if w.Len() > 0 {
		all = append(all, w)
	}

	if q.Filter != "" {
		f, err := bexpr.New(q.Filter)
		if err != nil {
			return nil, err
		}
		all = append(all, f)
	}

	if len(all) == 0 {
		return nil, nil
	}
	return all, nil
}

func filter(t internal.Table, pred evaluator.Expression) (internal.Table, error) {
	if pred == nil {
		return t, nil
	}

	out := internal.Table{
		Columns: t.Columns,
		Rows:    make([]internal.Row, 0, len(t.Rows)),
	}
	for _, row := range t.Rows {
		keep, err := pred.Evaluate(row)
		if err != nil {
			return internal.Table{}, err
		}
		if keep {
			out.Rows = append(out.Rows, row)
		}
	}

	return out, nil
}
