// Package llm provides the completion-provider client used for simulated
// conversations and referee judgments. The provider speaks the
// OpenAI-compatible chat completions wire format.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Message is one chat message in a completion request.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is a completion request.
type Request struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float32   `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

// Usage reports token consumption and the derived dollar cost of one call.
type Usage struct {
	PromptTokens     int     `json:"prompt_tokens"`
	CompletionTokens int     `json:"completion_tokens"`
	CostUSD          float64 `json:"cost_usd"`
}

// CompletionClient is the capability consumed by the simulator and the
// referee. Implementations must be safe for concurrent use.
type CompletionClient interface {
	Complete(ctx context.Context, req Request) (string, Usage, error)
}

// Client calls an OpenAI-compatible /v1/chat/completions endpoint.
type Client struct {
	endpoint string
	apiKey   string
	pricing  map[string]float64 // USD per 1K total tokens, keyed by model
	httpc    *http.Client
}

// DefaultPricePerKTokens is used for models without an explicit rate.
const DefaultPricePerKTokens = 0.002

// NewClient creates a completion client. pricing maps model name to USD
// per 1K total tokens; unknown models fall back to DefaultPricePerKTokens.
func NewClient(endpoint, apiKey string, pricing map[string]float64) *Client {
	return &Client{
		endpoint: endpoint,
		apiKey:   apiKey,
		pricing:  pricing,
		httpc:    &http.Client{Timeout: 2 * time.Minute},
	}
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Complete runs one chat completion and returns the assistant text.
func (c *Client) Complete(ctx context.Context, req Request) (string, Usage, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", Usage{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.endpoint+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", Usage{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpc.Do(httpReq)
	if err != nil {
		return "", Usage{}, fmt.Errorf("completion request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", Usage{}, fmt.Errorf("read completion response: %w", err)
	}

	// Status before decode: proxies answer errors with non-JSON bodies,
	// and the HTTP status must not be masked by a parse failure.
	if resp.StatusCode != http.StatusOK {
		var parsed chatResponse
		if json.Unmarshal(raw, &parsed) == nil && parsed.Error != nil && parsed.Error.Message != "" {
			return "", Usage{}, fmt.Errorf("completion provider: %s", parsed.Error.Message)
		}
		return "", Usage{}, fmt.Errorf("completion provider: %s", resp.Status)
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", Usage{}, fmt.Errorf("decode completion response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", Usage{}, fmt.Errorf("completion provider returned no choices")
	}

	usage := Usage{
		PromptTokens:     parsed.Usage.PromptTokens,
		CompletionTokens: parsed.Usage.CompletionTokens,
	}
	usage.CostUSD = c.cost(req.Model, parsed.Usage.TotalTokens)

	return parsed.Choices[0].Message.Content, usage, nil
}

func (c *Client) cost(model string, totalTokens int) float64 {
	rate, ok := c.pricing[model]
	if !ok {
		rate = DefaultPricePerKTokens
	}
	return float64(totalTokens) / 1000.0 * rate
}
