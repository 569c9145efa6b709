package engine

import (
	"fmt"
	"time"

	"github.com/AmirejibiIlia/maiko"
	"github.com/AmirejibiIlia/maiko/internal"
)

// bucketOf derives the value of a virtual bucket column from a date.
//
// Month and quarter keys carry the year so that the same month of
// different years land in different groups and sort chronologically.
func bucketOf(name string, d time.Time) any {
	switch name {
	case internal.BucketWeek:
		_, week := d.ISOWeek()
		return week
	case internal.BucketMonth:
		return fmt.Sprintf("%04d-%02d", d.Year(), int(d.Month()))
	case internal.BucketQuarter:
		return fmt.Sprintf("%04d-Q%d", d.Year(), (int(d.Month())-1)/3+1)
	case internal.BucketYear:
		return d.Year()
	}
	return nil
}

// keyResolver produces the value of one grouping key for a row.
type keyResolver func(row internal.Row) (any, error)

func resolveKeys(t internal.Table, groupBy []string) ([]keyResolver, error) {
	seen := map[string]bool{}
	resolvers := make([]keyResolver, 0, len(groupBy))
	for _, key := range groupBy {
		if seen[key] {
			return nil, maiko.QueryErr("column listed twice in group_by", map[string]any{
				"column": key,
			})
		}
		seen[key] = true

		if !internal.IsBucket(key) {
			if !t.HasColumn(key) {
				return nil, maiko.QueryErr("unknown column in group_by", map[string]any{
					"column": key,
				})
			}

			column := key
			resolvers = append(resolvers, func(row internal.Row) (any, error) {
				return row[column], nil
			})
			continue
		}

		if !t.HasColumn(internal.DateCol) {
			return nil, maiko.QueryErr("time bucket grouping requires a date column", map[string]any{
				"bucket": key,
			})
		}

		bucket := key
		resolvers = append(resolvers, func(row internal.Row) (any, error) {
			d, ok := row[internal.DateCol].(time.Time)
			if !ok {
				return nil, maiko.QueryErr("time bucket grouping found a value that is not a date", map[string]any{
					"bucket": bucket,
					"value":  row[internal.DateCol],
				})
			}
			return bucketOf(bucket, d), nil
		})
	}

	return resolvers, nil
}
