// Package llmtest provides a scripted llm.Client for tests.
package llmtest

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/jonathan/sop-question-agent/internal/llm"
)

// Call records one request made to the fake client.
type Call struct {
	Prompt string
	Tier   llm.ModelTier
}

// Responder produces the reply for a prompt. Returning an error simulates a backend failure.
type Responder func(prompt string, tier llm.ModelTier) (string, error)

// Client is a concurrency-safe llm.Client driven by a Responder.
type Client struct {
	Respond Responder

	mu    sync.Mutex
	calls []Call
}

var _ llm.Client = (*Client)(nil)

// New returns a Client using respond for every call.
func New(respond Responder) *Client {
	return &Client{Respond: respond}
}

// Static returns a Client that always replies with body.
func Static(body string) *Client {
	return New(func(string, llm.ModelTier) (string, error) { return body, nil })
}

// Failing returns a Client whose every call fails with err.
func Failing(err error) *Client {
	if err == nil {
		err = errors.New("backend unavailable")
	}
	return New(func(string, llm.ModelTier) (string, error) { return "", err })
}

// GenerateContent implements llm.Client.
func (c *Client) GenerateContent(ctx context.Context, prompt string, tier llm.ModelTier, _ ...llm.CallOption) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	c.mu.Lock()
	c.calls = append(c.calls, Call{Prompt: prompt, Tier: tier})
	c.mu.Unlock()
	return c.Respond(prompt, tier)
}

// GenerateJSON implements llm.Client.
func (c *Client) GenerateJSON(ctx context.Context, prompt string, tier llm.ModelTier, opts ...llm.CallOption) (string, error) {
	out, err := c.GenerateContent(ctx, prompt, tier, opts...)
	if err != nil {
		return "", err
	}
	return llm.CleanJSONBlock(out), nil
}

// GetModel implements llm.Client.
func (c *Client) GetModel(tier llm.ModelTier) string {
	return "fake-" + string(tier)
}

// Close implements llm.Client.
func (c *Client) Close() error { return nil }

// Calls returns a copy of every recorded call in arrival order.
func (c *Client) Calls() []Call {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Call, len(c.calls))
	copy(out, c.calls)
	return out
}

// CallsContaining counts recorded prompts that contain substr.
func (c *Client) CallsContaining(substr string) int {
	n := 0
	for _, call := range c.Calls() {
		if strings.Contains(call.Prompt, substr) {
			n++
		}
	}
	return n
}
