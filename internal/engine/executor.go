// Package engine runs structured queries against in-memory tables:
// rows are filtered, then grouped and aggregated, then sorted and
// finally truncated to the requested limit.
package engine

import (
	"log/slog"
	"time"

	"github.com/AmirejibiIlia/maiko/internal"
)

// Executor is safe for concurrent use. The zero value logs
// through slog.Default.
type Executor struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) Executor {
	if logger == nil {
		logger = slog.Default()
	}

	return Executor{
		logger: logger,
	}
}

// Execute applies the query to the table. The input table is never
// modified, the result is a new table with its own column layout.
func (e Executor) Execute(table internal.Table, q internal.Query) (internal.Table, error) {
	start := time.Now()
	work := table.Clone()

	pred, err := compilePredicate(work.Columns, q)
	if err != nil {
		return internal.Table{}, err
	}

	filtered, err := filter(work, pred)
	if err != nil {
		return internal.Table{}, err
	}

	grouped, err := groupAndAggregate(filtered, q.GroupBy, q.Aggregations)
	if err != nil {
		return internal.Table{}, err
	}

	sorted, err := order(grouped, q.OrderBy)
	if err != nil {
		return internal.Table{}, err
	}

	result := limit(sorted, q.Limit)

	logger := e.logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Debug("query executed",
		"input_rows", table.Len(),
		"filtered_rows", filtered.Len(),
		"grouped_rows", grouped.Len(),
		"result_rows", result.Len(),
		"elapsed", time.Since(start),
	)

	return result, nil
}
