package maiko

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

const (
	CodeSchema   = "SchemaErr"
	CodeQuery    = "QueryErr"
	CodeParse    = "ParseErr"
	CodeInternal = "InternalErr"
)

type Err struct {
	Code  string
	Title string
	Data  map[string]any
}

func (e Err) Error() string {
	fields := []string{
		e.Code + ": " + e.Title,
	}

	keys := make([]string, 0, len(e.Data))
	for k := range e.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		v := e.Data[k]
		if err, ok := v.(error); ok {
			v = err.Error()
		}

		fields = append(fields, fmt.Sprintf("%s = %+v", k, v))
	}

	return strings.Join(fields, "; ")
}

// ErrIs reports whether err, or any error it wraps,
// is an Err with the given code.
func ErrIs(err error, code string) bool {
	var e Err
	if !errors.As(err, &e) {
		return false
	}

	return e.Code == code
}

// SchemaErr reports a dataset that lacks a required or referenced column.
func SchemaErr(title string, data map[string]any) error {
	return Err{
		Code:  CodeSchema,
		Title: title,
		Data:  data,
	}
}

// QueryErr reports a well formed but semantically invalid query object.
func QueryErr(title string, data map[string]any) error {
	return Err{
		Code:  CodeQuery,
		Title: title,
		Data:  data,
	}
}

// ParseErr reports a data-level literal that could not be parsed.
func ParseErr(title string, data map[string]any) error {
	return Err{
		Code:  CodeParse,
		Title: title,
		Data:  data,
	}
}

func InternalErr(title string, data map[string]any) error {
	return Err{
		Code:  CodeInternal,
		Title: title,
		Data:  data,
	}
}
