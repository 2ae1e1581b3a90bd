// Package llm wraps the chat-completion API behind a narrow interface so the
// classifier and dispatcher can be tested against fakes.
package llm

import "context"

// Request describes a single completion call. Every call in this system is a
// fixed system prompt plus one user message.
type Request struct {
	System      string
	User        string
	Temperature float64
	MaxTokens   int
}

// Client issues one completion per call and returns the assistant text.
// Implementations own transport-level concerns (timeouts, retries); callers
// never retry.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}
