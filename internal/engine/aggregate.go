package engine

import (
	"fmt"
	"math"
	"sort"

	"github.com/AmirejibiIlia/maiko/internal"
)

// reducer folds the cells of one column of one group into a
// single value. Missing cells are skipped by every reducer.
type reducer interface {
	Consume(v any) error
	Result() any
}

var reducers = map[string]func() reducer{
	"sum":     func() reducer { return &sum{} },
	"mean":    func() reducer { return &mean{} },
	"count":   func() reducer { return &count{} },
	"min":     func() reducer { return &extreme{keep: -1} },
	"max":     func() reducer { return &extreme{keep: 1} },
	"median":  func() reducer { return &median{} },
	"std":     func() reducer { return &std{} },
	"nunique": func() reducer { return &nunique{seen: map[any]struct{}{}} },
	"first":   func() reducer { return &first{} },
	"last":    func() reducer { return &last{} },
}

// Functions returns the supported aggregation function names.
func Functions() []string {
	names := make([]string, 0, len(reducers))
	for name := range reducers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func numeric(v any) (float64, error) {
	f, ok := internal.Number(v)
	if !ok {
		return 0, fmt.Errorf("expected a numeric value but got %T", v)
	}
	return f, nil
}

type sum struct {
	total float64
}

func (s *sum) Consume(v any) error {
	f, err := numeric(v)
	s.total += f
	return err
}

func (s *sum) Result() any {
	return s.total
}

type mean struct {
	total float64
	n     int
}

func (m *mean) Consume(v any) error {
	f, err := numeric(v)
	if err != nil {
		return err
	}
	m.total += f
	m.n++
	return nil
}

func (m *mean) Result() any {
	if m.n == 0 {
		return nil
	}
	return m.total / float64(m.n)
}

type count struct {
	n int
}

func (c *count) Consume(any) error {
	c.n++
	return nil
}

func (c *count) Result() any {
	return c.n
}

// extreme keeps the smallest (keep = -1) or largest (keep = 1)
// of any mutually comparable cells, so dates and labels work too.
type extreme struct {
	keep int
	best any
}

func (e *extreme) Consume(v any) error {
	if e.best == nil {
		e.best = v
		return nil
	}

	cmp, ok := internal.Compare(v, e.best)
	if !ok {
		return fmt.Errorf("cannot compare %T with %T", v, e.best)
	}
	if cmp == e.keep {
		e.best = v
	}
	return nil
}

func (e *extreme) Result() any {
	if f, ok := internal.Number(e.best); ok {
		return f
	}
	return e.best
}

type median struct {
	values []float64
}

func (m *median) Consume(v any) error {
	f, err := numeric(v)
	if err != nil {
		return err
	}
	m.values = append(m.values, f)
	return nil
}

func (m *median) Result() any {
	n := len(m.values)
	if n == 0 {
		return nil
	}

	sort.Float64s(m.values)
	if n%2 == 1 {
		return m.values[n/2]
	}
	return (m.values[n/2-1] + m.values[n/2]) / 2
}

// std is the sample standard deviation, computed with
// Welford's online algorithm.
type std struct {
	n    int
	mean float64
	m2   float64
}

func (s *std) Consume(v any) error {
	f, err := numeric(v)
	if err != nil {
		return err
	}

	s.n++
	delta := f - s.mean
	s.mean += delta / float64(s.n)
	s.m2 += delta * (f - s.mean)
	return nil
}

func (s *std) Result() any {
	if s.n < 2 {
		return nil
	}
	return math.Sqrt(s.m2 / float64(s.n-1))
}

type nunique struct {
	seen map[any]struct{}
}

func (u *nunique) Consume(v any) error {
	if f, ok := internal.Number(v); ok {
		v = f
	}
	u.seen[v] = struct{}{}
	return nil
}

func (u *nunique) Result() any {
	return len(u.seen)
}

type first struct {
	value any
}

func (f *first) Consume(v any) error {
	if f.value == nil {
		f.value = v
	}
	return nil
}

func (f *first) Result() any {
	return f.value
}

type last struct {
	value any
}

func (l *last) Consume(v any) error {
	l.value = v
	return nil
}

func (l *last) Result() any {
	return l.value
}
