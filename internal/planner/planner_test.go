package planner

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/AmirejibiIlia/maiko"
	"github.com/AmirejibiIlia/maiko/internal"
	"github.com/AmirejibiIlia/maiko/internal/adapters/llm/fakellm"
	tt "github.com/AmirejibiIlia/maiko/internal/testtools"
)

var dataContext = internal.DataContext{
	MetricsList:  []string{"Sales"},
	ClientList:   []string{"Acme"},
	DateRange:    internal.DateRange{Min: "2023-01-01", Max: "2023-12-31"},
	TotalRecords: 10,
}

func newPlanner(t *testing.T, client *fakellm.Client) *Planner {
	p, err := New(Config{
		Logger:        slog.Default(),
		LLM:           client,
		MaxRetries:    2,
		RetryInterval: time.Millisecond,
	})
	tt.AssertNoErr(t, err)
	return p
}

func TestPlan(t *testing.T) {
	ctx := context.Background()

	t.Run("fenced response", func(t *testing.T) {
		client := fakellm.New(fakellm.Reply{
			Text: "Here you go:\n```json\n{\"data\": \"df\", \"group_by\": [\"month\"], \"aggregations\": {\"value\": [\"sum\"]}}\n```",
		})

		plan, err := newPlanner(t, client).Plan(ctx, "monthly revenue?", dataContext)
		tt.AssertNoErr(t, err)
		tt.AssertEqual(t, plan.Query, internal.Query{
			GroupBy:      []string{"month"},
			Aggregations: []internal.Aggregation{{Column: "value", Funcs: []string{"sum"}}},
		})

		tt.AssertEqualNow(t, len(client.Calls), 1)
		tt.AssertEqual(t, client.Calls[0].User, "Question: monthly revenue?")
		tt.AssertEqual(t, strings.Contains(client.Calls[0].System, `"metrics_list": [`), true)
		tt.AssertEqual(t, strings.Contains(client.Calls[0].System, "{{DATA_CONTEXT}}"), false)
		tt.AssertEqual(t, strings.Contains(client.Calls[0].System, "median"), true)
	})

	t.Run("transient llm errors are retried", func(t *testing.T) {
		client := fakellm.New(
			fakellm.Reply{Err: errors.New("overloaded")},
			fakellm.Reply{Text: `{"where": {"metrics": {"=": "Sales"}}}`},
		)

		plan, err := newPlanner(t, client).Plan(ctx, "sales?", dataContext)
		tt.AssertNoErr(t, err)
		tt.AssertEqual(t, plan.Query.Where, internal.Where{"metrics": {{Op: internal.OpEq, Value: "Sales"}}})
		tt.AssertEqual(t, len(client.Calls), 2)
	})

	t.Run("undecodable responses are re-asked with the error", func(t *testing.T) {
		client := fakellm.New(
			fakellm.Reply{Text: `{"limit": -1}`},
			fakellm.Reply{Text: `{"limit": 3}`},
		)

		plan, err := newPlanner(t, client).Plan(ctx, "top 3?", dataContext)
		tt.AssertNoErr(t, err)
		tt.AssertEqual(t, plan.Query.Limit, 3)
		tt.AssertEqual(t, plan.Raw, `{"limit": 3}`)

		tt.AssertEqualNow(t, len(client.Calls), 2)
		tt.AssertEqual(t, strings.Contains(client.Calls[1].User, "limit must not be negative"), true)
	})

	t.Run("gives up after the retries", func(t *testing.T) {
		client := fakellm.New(
			fakellm.Reply{Text: "no idea"},
			fakellm.Reply{Text: "still no idea"},
			fakellm.Reply{Text: "sorry"},
		)

		_, err := newPlanner(t, client).Plan(ctx, "?", dataContext)
		tt.AssertEqual(t, maiko.ErrIs(err, maiko.CodeQuery), true)
		tt.AssertEqual(t, len(client.Calls), 3)
	})

	t.Run("llm keeps failing", func(t *testing.T) {
		client := fakellm.New(
			fakellm.Reply{Err: errors.New("down")},
			fakellm.Reply{Err: errors.New("down")},
			fakellm.Reply{Err: errors.New("down")},
		)

		_, err := newPlanner(t, client).Plan(ctx, "?", dataContext)
		tt.AssertErrContains(t, err, "query planning failed", "down")
	})
}

func TestReplan(t *testing.T) {
	client := fakellm.New(fakellm.Reply{
		Text: `{"group_by": ["month"], "aggregations": {"value": ["sum"]}}`,
	})

	failed := Plan{Query: internal.Query{GroupBy: []string{"month"}}}
	cause := maiko.QueryErr("group_by requires at least one aggregation", nil)

	plan, err := newPlanner(t, client).Replan(context.Background(), "monthly?", dataContext, failed, cause)
	tt.AssertNoErr(t, err)
	tt.AssertEqual(t, len(plan.Query.Aggregations), 1)

	tt.AssertEqualNow(t, len(client.Calls), 1)
	tt.AssertEqual(t, strings.Contains(client.Calls[0].User, `"group_by":["month"]`), true)
	tt.AssertEqual(t, strings.Contains(client.Calls[0].User, "group_by requires at least one aggregation"), true)
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		desc     string
		input    string
		expected string
	}{
		{desc: "bare object", input: `{"a": 1}`, expected: `{"a": 1}`},
		{desc: "fenced with language", input: "```json\n{\"a\": 1}\n```", expected: `{"a": 1}`},
		{desc: "fenced without language", input: "text\n```\n{\"a\": 1}\n```\nmore", expected: `{"a": 1}`},
		{desc: "object inside prose", input: `Sure! {"a": {"b": 2}} Hope it helps.`, expected: `{"a": {"b": 2}}`},
		{desc: "no object", input: "  nothing here ", expected: "nothing here"},
	}

	for _, test := range tests {
		t.Run(test.desc, func(t *testing.T) {
			tt.AssertEqual(t, extractJSON(test.input), test.expected)
		})
	}
}
