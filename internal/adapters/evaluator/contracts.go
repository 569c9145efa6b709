package evaluator

// Expression represents a compiled boolean expression
// that can evaluate to true or false given a row of
// typed cells addressed by column name.
type Expression interface {
	Evaluate(row map[string]any) (bool, error)
}

// All combines expressions with a logical AND,
// stopping at the first one that rejects the row.
type All []Expression

func (a All) Evaluate(row map[string]any) (bool, error) {
	for _, expr := range a {
		ok, err := expr.Evaluate(row)
		if err != nil || !ok {
			return false, err
		}
	}

	return true, nil
}
