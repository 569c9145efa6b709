package engine

import (
	"fmt"
	"strings"

	"github.com/AmirejibiIlia/maiko"
	"github.com/AmirejibiIlia/maiko/internal"
)

type output struct {
	column string
	fn     string
	name   string
}

func planOutputs(t internal.Table, groupBy []string, aggs []internal.Aggregation) ([]output, error) {
	taken := make(map[string]bool, len(groupBy))
	for _, key := range groupBy {
		taken[key] = true
	}

	var outputs []output
	for _, agg := range aggs {
		if !t.HasColumn(agg.Column) {
			return nil, maiko.QueryErr("unknown column in aggregations", map[string]any{
				"column": agg.Column,
			})
		}

		for _, fn := range agg.Funcs {
			if _, ok := reducers[fn]; !ok {
				return nil, maiko.QueryErr("unsupported aggregation function", map[string]any{
					"column":    agg.Column,
					"function":  fn,
					"supported": strings.Join(Functions(), ", "),
				})
			}

			name := internal.OutputName(agg.Column, fn)
			if taken[name] {
				return nil, maiko.QueryErr("aggregation output column is produced twice", map[string]any{
					"column": name,
				})
			}
			taken[name] = true

			outputs = append(outputs, output{
				column: agg.Column,
				fn:     fn,
				name:   name,
			})
		}
	}

	return outputs, nil
}

type group struct {
	keys     []any
	reducers []reducer
}

// groupAndAggregate partitions the rows by the grouping keys and folds
// every group into one output row. Output rows follow the order in
// which each group was first seen and carry the grouping keys first,
// then the aggregations in request order.
func groupAndAggregate(t internal.Table, groupBy []string, aggs []internal.Aggregation) (internal.Table, error) {
	if len(groupBy) == 0 && len(aggs) == 0 {
		return t, nil
	}

	if len(aggs) == 0 {
		return internal.Table{}, maiko.QueryErr("group_by requires at least one aggregation", map[string]any{
			"group_by": strings.Join(groupBy, ", "),
		})
	}

	resolvers, err := resolveKeys(t, groupBy)
	if err != nil {
		return internal.Table{}, err
	}

	outputs, err := planOutputs(t, groupBy, aggs)
	if err != nil {
		return internal.Table{}, err
	}

	newGroup := func(keys []any) *group {
		g := &group{keys: keys, reducers: make([]reducer, len(outputs))}
		for i, out := range outputs {
			g.reducers[i] = reducers[out.fn]()
		}
		return g
	}

	index := map[string]*group{}
	var order []*group
	if len(groupBy) == 0 {
		// A single group over the whole table, present even when it is empty.
		g := newGroup(nil)
		index[""] = g
		order = append(order, g)
	}

	for _, row := range t.Rows {
		keys := make([]any, len(resolvers))
		for i, resolve := range resolvers {
			keys[i], err = resolve(row)
			if err != nil {
				return internal.Table{}, err
			}
		}

		id := groupID(keys)
		g, found := index[id]
		if !found {
			g = newGroup(keys)
			index[id] = g
			order = append(order, g)
		}

		for i, out := range outputs {
			cell := row[out.column]
			if cell == nil {
				continue
			}

			err := g.reducers[i].Consume(cell)
			if err != nil {
				return internal.Table{}, maiko.QueryErr("aggregation failed", map[string]any{
					"column":   out.column,
					"function": out.fn,
					"error":    err.Error(),
				})
			}
		}
	}

	columns := make([]string, 0, len(groupBy)+len(outputs))
	columns = append(columns, groupBy...)
	for _, out := range outputs {
		columns = append(columns, out.name)
	}

	result := internal.Table{
		Columns: columns,
		Rows:    make([]internal.Row, 0, len(order)),
	}
	for _, g := range order {
		row := make(internal.Row, len(columns))
		for i, key := range groupBy {
			row[key] = g.keys[i]
		}
		for i, out := range outputs {
			row[out.name] = g.reducers[i].Result()
		}
		result.Rows = append(result.Rows, row)
	}

	return result, nil
}

// groupID encodes the key values of a group, including their types,
// so that the number 1 and the string "1" never share a group.
func groupID(keys []any) string {
	var b strings.Builder
	for _, k := range keys {
		if f, ok := internal.Number(k); ok {
			k = f
		}
		fmt.Fprintf(&b, "%T=%s\x1f", k, internal.Stringify(k))
	}
	return b.String()
}
