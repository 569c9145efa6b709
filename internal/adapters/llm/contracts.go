package llm

import "context"

// Client completes a single turn conversation made
// of a system prompt and a user prompt.
type Client interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}
