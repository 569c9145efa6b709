// Package narrator turns query results into a short natural
// language answer to the question that produced them.
package narrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/AmirejibiIlia/maiko/internal"
	"github.com/AmirejibiIlia/maiko/internal/adapters/llm"
	"github.com/AmirejibiIlia/maiko/internal/metrics"
	"github.com/AmirejibiIlia/maiko/internal/prompts"
)

const DefaultLanguage = "Georgian"

type Narrator struct {
	llm    llm.Client
	system string
}

func New(client llm.Client, language string) (*Narrator, error) {
	if client == nil {
		return nil, errors.New("llm client is required")
	}
	if language == "" {
		language = DefaultLanguage
	}

	system, err := prompts.Load("NARRATE.md")
	if err != nil {
		return nil, err
	}

	return &Narrator{
		llm:    client,
		system: strings.ReplaceAll(system, "{{LANGUAGE}}", language),
	}, nil
}

func (n *Narrator) Narrate(ctx context.Context, question string, result internal.Table) (string, error) {
	records, err := json.Marshal(result.Records())
	if err != nil {
		return "", fmt.Errorf("failed to encode query results: %w", err)
	}

	user := fmt.Sprintf("Original question: %s\n\nQuery results:\n%s", question, records)

	start := time.Now()
	answer, err := n.llm.Complete(ctx, n.system, user)
	metrics.LLMDuration.WithLabelValues("narrator").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.LLMRequests.WithLabelValues("narrator", "error").Inc()
		return "", fmt.Errorf("failed to narrate results: %w", err)
	}
	metrics.LLMRequests.WithLabelValues("narrator", "ok").Inc()

	return strings.TrimSpace(answer), nil
}
