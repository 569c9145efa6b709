package engine

import (
	"sort"

	"github.com/AmirejibiIlia/maiko"
	"github.com/AmirejibiIlia/maiko/internal"
)

// order sorts the rows by the given keys. The sort is stable, so
// ties keep their previous order, and missing values go last in
// either direction.
func order(t internal.Table, keys []internal.OrderKey) (internal.Table, error) {
	if len(keys) == 0 {
		return t, nil
	}

	for _, key := range keys {
		if !t.HasColumn(key.Column) {
			return internal.Table{}, maiko.QueryErr("unknown column in order_by", map[string]any{
				"column":    key.Column,
				"available": t.Columns,
			})
		}
	}

	rows := append([]internal.Row(nil), t.Rows...)

	var sortErr error
	sort.SliceStable(rows, func(i, j int) bool {
		for _, key := range keys {
			a, b := rows[i][key.Column], rows[j][key.Column]
			switch {
			case a == nil && b == nil:
				continue
			case a == nil:
				return false
			case b == nil:
				return true
			}

			cmp, ok := internal.Compare(a, b)
			if !ok {
				if sortErr == nil {
					sortErr = maiko.QueryErr("order_by column mixes values that cannot be ordered", map[string]any{
						"column": key.Column,
					})
				}
				return false
			}
			if cmp == 0 {
				continue
			}

			if key.Ascending {
				return cmp < 0
			}
			return cmp > 0
		}
		return false
	})
	if sortErr != nil {
		return internal.Table{}, sortErr
	}

	return internal.Table{
		Columns: t.Columns,
		Rows:    rows,
	}, nil
}

func limit(t internal.Table, n int) internal.Table {
	if n <= 0 || n >= len(t.Rows) {
		return t
	}

	return internal.Table{
		Columns: t.Columns,
		Rows:    t.Rows[:n],
	}
}
