// Package referee scores finished negotiation transcripts against a fixed
// rubric. Judgment is delegated to a TranscriptJudge capability so the
// pipeline's control flow can be tested with a deterministic fake while
// production wires a real model call.
package referee

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sirschrockalot/goat-sales-app-sub005/internal/domain"
	"github.com/sirschrockalot/goat-sales-app-sub005/internal/infra/llm"
)

// TranscriptJudge turns a rendered transcript into a verdict. The second
// return value is the dollar cost of the judgment call (zero for fakes).
type TranscriptJudge interface {
	Judge(ctx context.Context, transcript string) (domain.Verdict, float64, error)
}

// judgePrompt is the fixed scoring rubric. The judge must answer with a
// single JSON object and nothing else.
const judgePrompt = `You are the referee for a simulated sales negotiation between AGENT (a
sales representative) and BUYER (a resistant prospect). Score the finished
transcript below against this rubric:

- referee_score (0-100): overall negotiation quality shown by AGENT.
- success_score (0-10): how close AGENT came to closing the deal.
- verbal_yes (bool): true ONLY if BUYER verbally agreed to the closing
  memorandum in their own words.
- conflict_resolved (bool): true if BUYER's central objection was addressed
  to their stated satisfaction.
- price_maintained (bool): true if AGENT held the offer price without
  unplanned concessions.
- margin_integrity (0.0-1.0): fraction of the original margin preserved.
- calculated_profit: estimated profit in USD from the offer and cost
  figures stated in the transcript (0 if no deal).
- winning_rebuttal: the single AGENT line that most advanced the deal,
  verbatim ("" if none).
- insight: one sentence on why that rebuttal worked ("" if none).

Respond with exactly one JSON object with those keys.

TRANSCRIPT:
`

// LLMJudge implements TranscriptJudge over a completion provider.
type LLMJudge struct {
	client llm.CompletionClient
	model  string
}

// NewLLMJudge creates a judge that scores with the given model.
func NewLLMJudge(client llm.CompletionClient, model string) *LLMJudge {
	return &LLMJudge{client: client, model: model}
}

// Judge runs one judgment completion and parses the verdict.
func (j *LLMJudge) Judge(ctx context.Context, transcript string) (domain.Verdict, float64, error) {
	text, usage, err := j.client.Complete(ctx, llm.Request{
		Model: j.model,
		Messages: []llm.Message{
			{Role: "system", Content: "You are a strict, consistent negotiation referee. Output only JSON."},
			{Role: "user", Content: judgePrompt + transcript},
		},
		Temperature: 0, // judgments should be as repeatable as the provider allows
		MaxTokens:   512,
	})
	if err != nil {
		return domain.Verdict{}, 0, fmt.Errorf("judge completion: %w", err)
	}

	verdict, err := parseVerdict(text)
	if err != nil {
		return domain.Verdict{}, usage.CostUSD, err
	}
	return verdict, usage.CostUSD, nil
}

// parseVerdict extracts the JSON object from the judge's reply. Providers
// occasionally wrap JSON in code fences or prose; take the outermost braces.
func parseVerdict(text string) (domain.Verdict, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return domain.Verdict{}, fmt.Errorf("%w: no JSON object in reply", domain.ErrMalformedVerdict)
	}

	var v domain.Verdict
	if err := json.Unmarshal([]byte(text[start:end+1]), &v); err != nil {
		return domain.Verdict{}, fmt.Errorf("%w: %v", domain.ErrMalformedVerdict, err)
	}
	return v, nil
}
