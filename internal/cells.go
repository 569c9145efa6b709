package internal

import (
	"strings"
	"time"
)

// Number returns the numeric value of a cell holding any of
// the numeric kinds used in tables and decoded JSON.
func Number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	}
	return 0, false
}

// Compare orders two non nil cells. The second return value is false
// when the cells are of kinds that have no common order, e.g. a string
// and a number: numbers of any width compare with each other, dates
// with dates, strings with strings and booleans with booleans.
func Compare(a, b any) (int, bool) {
	if x, ok := Number(a); ok {
		y, ok := Number(b)
		if !ok {
			return 0, false
		}
		switch {
		case x < y:
			return -1, true
		case x > y:
			return 1, true
		}
		return 0, true
	}

	switch x := a.(type) {
	case time.Time:
		y, ok := b.(time.Time)
		if !ok {
			return 0, false
		}
		return x.Compare(y), true

	case string:
		y, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(x, y), true

	case bool:
		y, ok := b.(bool)
		if !ok {
			return 0, false
		}
		switch {
		case x == y:
			return 0, true
		case !x:
			return -1, true
		}
		return 1, true
	}

	return 0, false
}
