package llm

import (
	"context"
	"fmt"
	"sync/atomic"
)

// ─── Mock Client (for testing and offline development) ──────────────────────

// MockClient implements CompletionClient without a network. Replies are
// produced by ReplyFn when set, otherwise a canned echo is returned.
type MockClient struct {
	ReplyFn     func(req Request) (string, error)
	CostPerCall float64

	calls atomic.Int64
}

// NewMockClient creates a mock completion client with a small fixed cost
// per call so budget accounting paths stay exercised.
func NewMockClient() *MockClient {
	return &MockClient{CostPerCall: 0.01}
}

// Complete returns a scripted or canned reply.
func (m *MockClient) Complete(ctx context.Context, req Request) (string, Usage, error) {
	if err := ctx.Err(); err != nil {
		return "", Usage{}, err
	}
	m.calls.Add(1)

	usage := Usage{PromptTokens: promptTokens(req), CompletionTokens: 16, CostUSD: m.CostPerCall}

	if m.ReplyFn != nil {
		text, err := m.ReplyFn(req)
		return text, usage, err
	}

	last := ""
	if len(req.Messages) > 0 {
		last = req.Messages[len(req.Messages)-1].Content
	}
	return fmt.Sprintf("Understood. Regarding: %s", last), usage, nil
}

// Calls returns how many completions have been requested.
func (m *MockClient) Calls() int64 { return m.calls.Load() }

func promptTokens(req Request) int {
	chars := 0
	for _, msg := range req.Messages {
		chars += len(msg.Content)
	}
	// Rough 4-chars-per-token estimate, same as the provider billing does
	return chars / 4
}
