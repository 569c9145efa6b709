package internal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/AmirejibiIlia/maiko"
)

// Op is a comparison operator symbol of a where condition.
type Op string

const (
	OpEq Op = "="
	OpNe Op = "!="
	OpGt Op = ">"
	OpGe Op = ">="
	OpLt Op = "<"
	OpLe Op = "<="
)

func (o Op) Valid() bool {
	switch o {
	case OpEq, OpNe, OpGt, OpGe, OpLt, OpLe:
		return true
	}
	return false
}

// Condition is a single `column <op> value` comparison.
type Condition struct {
	Op    Op
	Value any
}

// Where maps column names to the conditions that apply to them.
// All conditions of all columns must hold for a row to be kept.
type Where map[string][]Condition

// Columns returns the filtered columns in a stable order.
func (w Where) Columns() []string {
	cols := make([]string, 0, len(w))
	for c := range w {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	return cols
}

// Aggregation lists the functions applied to one column.
// Each (Column, Func) pair yields an output column named
// `<Column>_<Func>`.
type Aggregation struct {
	Column string
	Funcs  []string
}

// OrderKey is one sort key, Ascending false means descending.
type OrderKey struct {
	Column    string
	Ascending bool
}

// Query is the structured form of a data request as produced
// by the query planner and consumed by the engine.
type Query struct {
	Where        Where
	GroupBy      []string
	Aggregations []Aggregation
	OrderBy      []OrderKey

	// Filter is an optional boolean expression evaluated
	// per row and combined with Where using a logical AND.
	Filter string

	// Limit caps the number of result rows, 0 means no limit.
	Limit int
}

// OutputName returns the name of the result column
// produced by applying fn to column.
func OutputName(column string, fn string) string {
	return column + "_" + fn
}

type wireQuery struct {
	Data         json.RawMessage            `json:"data,omitempty"`
	Where        map[string]json.RawMessage `json:"where"`
	GroupBy      json.RawMessage            `json:"group_by"`
	Aggregations json.RawMessage            `json:"aggregations"`
	OrderBy      []json.RawMessage          `json:"order_by"`
	Filter       string                     `json:"filter"`
	Limit        float64                    `json:"limit"`
}

// ParseQuery decodes a query object in its JSON wire format.
//
// This is the only place where the loose shapes emitted by the
// query planner are accepted: bare string aggregations, `avg` as
// an alias of `mean`, and order_by entries written as objects
// are all normalized here so the engine only sees one form.
func ParseQuery(raw []byte) (Query, error) {
	var w wireQuery
	err := json.Unmarshal(raw, &w)
	if err != nil {
		return Query{}, maiko.QueryErr("query object is not valid JSON", map[string]any{
			"error": err,
		})
	}

	var q Query

	q.Where, err = decodeWhere(w.Where)
	if err != nil {
		return Query{}, err
	}

	q.GroupBy, err = decodeGroupBy(w.GroupBy)
	if err != nil {
		return Query{}, err
	}

	q.Aggregations, err = decodeAggregations(w.Aggregations)
	if err != nil {
		return Query{}, err
	}

	for i, entry := range w.OrderBy {
		keys, err := decodeOrderKeys(entry)
		if err != nil {
			return Query{}, maiko.QueryErr("invalid order_by entry", map[string]any{
				"index": i,
				"entry": string(entry),
				"error": err,
			})
		}
		q.OrderBy = append(q.OrderBy, keys...)
	}

	if w.Limit < 0 {
		return Query{}, maiko.QueryErr("limit must not be negative", map[string]any{
			"limit": w.Limit,
		})
	}
	if w.Limit != math.Trunc(w.Limit) || w.Limit > math.MaxInt32 {
		return Query{}, maiko.QueryErr("limit must be a whole number of rows", map[string]any{
			"limit": w.Limit,
		})
	}
	q.Limit = int(w.Limit)
	q.Filter = strings.TrimSpace(w.Filter)

	return q, nil
}

func decodeWhere(raw map[string]json.RawMessage) (Where, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	where := Where{}
	for column, rawConds := range raw {
		var conds map[string]any
		if err := json.Unmarshal(rawConds, &conds); err != nil {
			return nil, maiko.QueryErr("where conditions must be an object of operator to value", map[string]any{
				"column": column,
				"error":  err,
			})
		}
		if len(conds) == 0 {
			return nil, maiko.QueryErr("where column has no conditions", map[string]any{
				"column": column,
			})
		}

		ops := make([]string, 0, len(conds))
		for op := range conds {
			ops = append(ops, op)
		}
		sort.Strings(ops)

		for _, op := range ops {
			if !Op(op).Valid() {
				return nil, maiko.QueryErr("unsupported where operator", map[string]any{
					"column": column,
					"op":     op,
				})
			}

			value := conds[op]
			switch value.(type) {
			case string, float64, bool:
			default:
				return nil, maiko.QueryErr("where value must be a string, number or boolean", map[string]any{
					"column": column,
					"op":     op,
					"value":  value,
				})
			}

			where[column] = append(where[column], Condition{Op: Op(op), Value: value})
		}
	}

	return where, nil
}

func decodeGroupBy(raw json.RawMessage) ([]string, error) {
	if isNull(raw) {
		return nil, nil
	}

	var keys []string
	if err := json.Unmarshal(raw, &keys); err != nil {
		var single string
		if json.Unmarshal(raw, &single) != nil {
			return nil, maiko.QueryErr("group_by must be a list of column names", map[string]any{
				"group_by": string(raw),
			})
		}
		keys = []string{single}
	}

	for i, k := range keys {
		keys[i] = strings.TrimSpace(k)
		if keys[i] == "" {
			return nil, maiko.QueryErr("group_by contains an empty column name", map[string]any{
				"index": i,
			})
		}
	}

	return keys, nil
}

// decodeAggregations walks the aggregation object token by token
// so the output columns keep the order the planner wrote them in.
func decodeAggregations(raw json.RawMessage) ([]Aggregation, error) {
	if isNull(raw) {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if delim, ok := tok.(json.Delim); err != nil || !ok || delim != '{' {
		return nil, maiko.QueryErr("aggregations must be an object of column to functions", map[string]any{
			"aggregations": string(raw),
		})
	}

	var aggs []Aggregation
	index := map[string]int{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, maiko.QueryErr("malformed aggregations object", map[string]any{
				"error": err,
			})
		}
		column, _ := tok.(string)

		var rawFuncs json.RawMessage
		if err := dec.Decode(&rawFuncs); err != nil {
			return nil, maiko.QueryErr("malformed aggregations object", map[string]any{
				"column": column,
				"error":  err,
			})
		}

		funcs, err := decodeFuncs(column, rawFuncs)
		if err != nil {
			return nil, err
		}

		if i, seen := index[column]; seen {
			aggs[i].Funcs = append(aggs[i].Funcs, funcs...)
			continue
		}
		index[column] = len(aggs)
		aggs = append(aggs, Aggregation{Column: column, Funcs: funcs})
	}

	return aggs, nil
}

func decodeFuncs(column string, raw json.RawMessage) ([]string, error) {
	var funcs []string
	if err := json.Unmarshal(raw, &funcs); err != nil {
		var single string
		if json.Unmarshal(raw, &single) != nil {
			return nil, maiko.QueryErr("aggregation functions must be a list of names", map[string]any{
				"column":    column,
				"functions": string(raw),
			})
		}
		funcs = []string{single}
	}

	if len(funcs) == 0 {
		return nil, maiko.QueryErr("no aggregation functions listed for column", map[string]any{
			"column": column,
		})
	}

	for i, fn := range funcs {
		fn = strings.ToLower(strings.TrimSpace(fn))
		if fn == "avg" || fn == "average" {
			fn = "mean"
		}
		funcs[i] = fn
	}

	return funcs, nil
}

func decodeOrderKeys(raw json.RawMessage) ([]OrderKey, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, fmt.Errorf("empty entry")
	}

	switch raw[0] {
	case '"':
		var column string
		if err := json.Unmarshal(raw, &column); err != nil {
			return nil, err
		}
		return []OrderKey{{Column: column, Ascending: true}}, nil

	case '[':
		var pair []json.RawMessage
		if err := json.Unmarshal(raw, &pair); err != nil {
			return nil, err
		}
		if len(pair) == 0 || len(pair) > 2 {
			return nil, fmt.Errorf("expected [column, ascending]")
		}

		key := OrderKey{Ascending: true}
		if err := json.Unmarshal(pair[0], &key.Column); err != nil {
			return nil, fmt.Errorf("column name must be a string: %w", err)
		}
		if len(pair) == 2 {
			if err := json.Unmarshal(pair[1], &key.Ascending); err != nil {
				return nil, fmt.Errorf("ascending flag must be a boolean: %w", err)
			}
		}
		return []OrderKey{key}, nil

	case '{':
		// Legacy form: {"col": true, "other": false}, in written order.
		dec := json.NewDecoder(bytes.NewReader(raw))
		if _, err := dec.Token(); err != nil {
			return nil, err
		}

		var keys []OrderKey
		for dec.More() {
			tok, err := dec.Token()
			if err != nil {
				return nil, err
			}
			column, _ := tok.(string)

			var ascending bool
			if err := dec.Decode(&ascending); err != nil {
				return nil, fmt.Errorf("ascending flag must be a boolean: %w", err)
			}
			keys = append(keys, OrderKey{Column: column, Ascending: ascending})
		}
		return keys, nil
	}

	return nil, fmt.Errorf("expected [column, ascending]")
}

// UnmarshalJSON lets a Query be embedded in request bodies,
// applying the same normalization as ParseQuery.
func (q *Query) UnmarshalJSON(raw []byte) error {
	parsed, err := ParseQuery(raw)
	if err != nil {
		return err
	}
	*q = parsed
	return nil
}

func isNull(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || string(raw) == "null"
}

// MarshalJSON writes the query back in its canonical wire format.
func (q Query) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	where := map[string]map[string]any{}
	for column, conds := range q.Where {
		ops := map[string]any{}
		for _, c := range conds {
			ops[string(c.Op)] = c.Value
		}
		where[column] = ops
	}
	if err := writeField(&buf, "where", where, false); err != nil {
		return nil, err
	}

	groupBy := q.GroupBy
	if groupBy == nil {
		groupBy = []string{}
	}
	if err := writeField(&buf, "group_by", groupBy, true); err != nil {
		return nil, err
	}

	buf.WriteString(`,"aggregations":{`)
	for i, agg := range q.Aggregations {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeField(&buf, agg.Column, agg.Funcs, false); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')

	orderBy := make([][]any, 0, len(q.OrderBy))
	for _, key := range q.OrderBy {
		orderBy = append(orderBy, []any{key.Column, key.Ascending})
	}
	if err := writeField(&buf, "order_by", orderBy, true); err != nil {
		return nil, err
	}

	if q.Filter != "" {
		if err := writeField(&buf, "filter", q.Filter, true); err != nil {
			return nil, err
		}
	}
	if q.Limit > 0 {
		if err := writeField(&buf, "limit", q.Limit, true); err != nil {
			return nil, err
		}
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeField(buf *bytes.Buffer, name string, value any, comma bool) error {
	if comma {
		buf.WriteByte(',')
	}

	key, err := json.Marshal(name)
	if err != nil {
		return err
	}
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}

	buf.Write(key)
	buf.WriteByte(':')
	buf.Write(b)
	return nil
}
