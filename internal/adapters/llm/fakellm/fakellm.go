// Package fakellm provides a scripted llm.Client for tests.
package fakellm

import (
	"context"
	"errors"
	"sync"
)

// Call records the prompts of one Complete call.
type Call struct {
	System string
	User   string
}

// Reply is one scripted answer: either Text or Err.
type Reply struct {
	Text string
	Err  error
}

// Client answers Complete calls with the scripted replies in order.
type Client struct {
	mu      sync.Mutex
	replies []Reply
	Calls   []Call
}

func New(replies ...Reply) *Client {
	return &Client{
		replies: replies,
	}
}

func (c *Client) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.Calls = append(c.Calls, Call{System: systemPrompt, User: userPrompt})
	if len(c.replies) == 0 {
		return "", errors.New("fakellm: no scripted reply left")
	}

	reply := c.replies[0]
	c.replies = c.replies[1:]
	return reply.Text, reply.Err
}
