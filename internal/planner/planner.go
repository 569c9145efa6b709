// Package planner asks an LLM to translate a natural language
// question into a query object the engine can execute.
package planner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/AmirejibiIlia/maiko/internal"
	"github.com/AmirejibiIlia/maiko/internal/adapters/llm"
	"github.com/AmirejibiIlia/maiko/internal/engine"
	"github.com/AmirejibiIlia/maiko/internal/metrics"
	"github.com/AmirejibiIlia/maiko/internal/prompts"
)

const (
	defaultMaxRetries    = 2
	defaultRetryInterval = 500 * time.Millisecond
)

type Config struct {
	Logger *slog.Logger
	LLM    llm.Client

	// MaxRetries bounds both the retries of failed LLM calls
	// and the re-asks for responses that do not decode.
	MaxRetries    int
	RetryInterval time.Duration
}

func (c *Config) Validate() error {
	if c.Logger == nil {
		return errors.New("logger is required")
	}
	if c.LLM == nil {
		return errors.New("llm client is required")
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = defaultMaxRetries
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.RetryInterval == 0 {
		c.RetryInterval = defaultRetryInterval
	}
	return nil
}

// Plan is a decoded query object together with the
// raw LLM response it was decoded from.
type Plan struct {
	Query internal.Query
	Raw   string
}

type Planner struct {
	cfg    Config
	prompt string
}

func New(cfg Config) (*Planner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	prompt, err := prompts.Load("PLAN.md")
	if err != nil {
		return nil, err
	}
	prompt = strings.Replace(prompt, "{{FUNCTIONS}}", strings.Join(engine.Functions(), ", "), 1)

	return &Planner{
		cfg:    cfg,
		prompt: prompt,
	}, nil
}

// Plan translates the question into a query object.
func (p *Planner) Plan(ctx context.Context, question string, dc internal.DataContext) (Plan, error) {
	system, err := p.systemPrompt(dc)
	if err != nil {
		return Plan{}, err
	}

	return p.plan(ctx, system, "Question: "+question)
}

// Replan asks for a corrected query object after the failed one
// could not be executed, feeding the execution error back.
func (p *Planner) Replan(ctx context.Context, question string, dc internal.DataContext, failed Plan, cause error) (Plan, error) {
	system, err := p.systemPrompt(dc)
	if err != nil {
		return Plan{}, err
	}

	failedJSON, err := json.Marshal(failed.Query)
	if err != nil {
		return Plan{}, fmt.Errorf("failed to encode the failed query: %w", err)
	}

	user := fmt.Sprintf(`Question: %s

The previous query object failed with an error. Please fix it.

Failed query object:
%s

Error message:
%s

Generate a corrected query object that avoids this error.`, question, failedJSON, cause)

	return p.plan(ctx, system, user)
}

func (p *Planner) systemPrompt(dc internal.DataContext) (string, error) {
	overview, err := json.MarshalIndent(dc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode data context: %w", err)
	}
	return strings.Replace(p.prompt, "{{DATA_CONTEXT}}", string(overview), 1), nil
}

// plan asks until a response decodes into a query object, appending
// the decoding error to the prompt on every new attempt.
func (p *Planner) plan(ctx context.Context, system, user string) (Plan, error) {
	prompt := user

	var lastErr error
	for attempt := 0; attempt <= p.cfg.MaxRetries; attempt++ {
		raw, err := p.complete(ctx, system, prompt)
		if err != nil {
			return Plan{}, err
		}

		q, err := internal.ParseQuery([]byte(extractJSON(raw)))
		if err == nil {
			return Plan{Query: q, Raw: raw}, nil
		}

		p.cfg.Logger.Warn("planner response is not a valid query object",
			"attempt", attempt+1,
			"error", err,
		)
		lastErr = err
		prompt = fmt.Sprintf(`%s

Your previous response could not be used:
%s

Error message:
%s

Return only a corrected JSON query object.`, user, raw, err)
	}

	return Plan{}, fmt.Errorf("no usable query object after %d attempts: %w", p.cfg.MaxRetries+1, lastErr)
}

func (p *Planner) complete(ctx context.Context, system, user string) (string, error) {
	var raw string
	operation := func() error {
		start := time.Now()
		var err error
		raw, err = p.cfg.LLM.Complete(ctx, system, user)
		metrics.LLMDuration.WithLabelValues("planner").Observe(time.Since(start).Seconds())
		if err != nil {
			metrics.LLMRequests.WithLabelValues("planner", "error").Inc()
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			return err
		}

		metrics.LLMRequests.WithLabelValues("planner", "ok").Inc()
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(
			backoff.NewExponentialBackOff(backoff.WithInitialInterval(p.cfg.RetryInterval)),
			uint64(p.cfg.MaxRetries),
		),
		ctx,
	)

	err := backoff.RetryNotify(operation, policy, func(err error, next time.Duration) {
		p.cfg.Logger.Warn("llm call failed, retrying", "error", err, "next", next)
	})
	if err != nil {
		return "", fmt.Errorf("query planning failed: %w", err)
	}

	return raw, nil
}

var fencedJSON = regexp.MustCompile("```(?:json)?\\s*([\\s\\S]*?)\\s*```")

// extractJSON pulls the JSON object out of a response that may wrap
// it in a markdown code fence or surround it with prose.
func extractJSON(text string) string {
	if m := fencedJSON.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		return strings.TrimSpace(text[start : end+1])
	}

	return strings.TrimSpace(text)
}
